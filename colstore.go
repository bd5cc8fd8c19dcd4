package colstore

import (
	"context"

	"github.com/hupe1980/colstore/backup"
	"github.com/hupe1980/colstore/blobstore"
	"github.com/hupe1980/colstore/column"
)

// Mode selects how a reader maps its files.
type Mode = column.Mode

const (
	// ModeAppend is the writable mode held by writers. Readers reject it.
	ModeAppend = column.ModeAppend
	// ModeRead maps pages on demand and never sees past the committed size.
	ModeRead = column.ModeRead
	// ModeBulk maps pages ahead of the read position for sequential scans.
	ModeBulk = column.ModeBulk
)

type (
	// FixedReader is a read-only handle on a fixed-width column.
	FixedReader = column.FixedReader
	// FixedWriter is the exclusive append handle on a fixed-width column.
	FixedWriter = column.FixedWriter
	// VariableReader is a read-only handle on a variable-width column.
	VariableReader = column.VariableReader
	// VariableWriter is the exclusive append handle on a variable-width column.
	VariableWriter = column.VariableWriter
)

// Suffixes appended to a variable column's base path.
const (
	DataSuffix  = ".d"
	IndexSuffix = ".i"
)

// VariablePaths returns the data and index file paths of the variable column
// at base.
func VariablePaths(base string) (data, index string) {
	return base + DataSuffix, base + IndexSuffix
}

// OpenFixedWriter opens or creates the fixed-width column at path for
// appending. Only one writer may hold a column at a time.
func OpenFixedWriter(path string, width int, optFns ...Option) (*FixedWriter, error) {
	o := applyOptions(optFns)
	w, err := column.OpenFixedWriter(path, width, o.columnOptions())
	o.logger.LogOpen(context.Background(), path, ModeAppend, err)
	return w, err
}

// OpenFixedReader opens the fixed-width column at path for reading.
func OpenFixedReader(path string, width int, mode Mode, optFns ...Option) (*FixedReader, error) {
	o := applyOptions(optFns)
	r, err := column.OpenFixedReader(path, width, mode, o.columnOptions())
	o.logger.LogOpen(context.Background(), path, mode, err)
	return r, err
}

// OpenVariableWriter opens or creates the variable-width column stored at
// base+".d" and base+".i" for appending.
func OpenVariableWriter(base string, optFns ...Option) (*VariableWriter, error) {
	o := applyOptions(optFns)
	data, index := VariablePaths(base)
	w, err := column.OpenVariableWriter(data, index, o.columnOptions())
	o.logger.LogOpen(context.Background(), base, ModeAppend, err)
	return w, err
}

// OpenVariableReader opens the variable-width column at base for reading.
func OpenVariableReader(base string, mode Mode, optFns ...Option) (*VariableReader, error) {
	o := applyOptions(optFns)
	data, index := VariablePaths(base)
	r, err := column.OpenVariableReader(data, index, mode, o.columnOptions())
	o.logger.LogOpen(context.Background(), base, mode, err)
	return r, err
}

// Backup uploads the committed content of columns to store under prefix. Any
// open reader or writer is a valid source. The columns must not change until
// Backup returns.
func Backup(ctx context.Context, store blobstore.BlobStore, prefix string, columns []backup.Source, bo backup.Options, optFns ...Option) (*backup.Manifest, error) {
	o := applyOptions(optFns)
	if bo.Logger == nil {
		bo.Logger = o.logger.Logger
	}
	m, err := backup.Run(ctx, store, prefix, columns, bo)
	if err != nil {
		o.logger.LogBackup(ctx, "", 0, 0, err)
		return nil, err
	}
	o.logger.LogBackup(ctx, m.ID, len(m.Files), m.TotalSize(), nil)
	return m, nil
}

// Restore writes the columns of backup id into dir. An empty id selects the
// newest backup under prefix. Columns in dir must not be open.
func Restore(ctx context.Context, store blobstore.BlobStore, prefix, id, dir string, bo backup.Options, optFns ...Option) (*backup.Manifest, error) {
	o := applyOptions(optFns)
	if bo.Logger == nil {
		bo.Logger = o.logger.Logger
	}
	if id == "" {
		latest, err := backup.Latest(ctx, store, prefix)
		if err != nil {
			o.logger.LogRestore(ctx, "", 0, err)
			return nil, err
		}
		id = latest
	}
	m, err := backup.Restore(ctx, store, prefix, id, dir, bo)
	if err != nil {
		o.logger.LogRestore(ctx, id, 0, err)
		return nil, err
	}
	o.logger.LogRestore(ctx, id, len(m.Files), nil)
	return m, nil
}
