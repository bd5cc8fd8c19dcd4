package column

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/hupe1980/colstore/internal/paged"
)

// Segment is a point-in-time view of the committed bytes of one column file.
type Segment struct {
	// Name is the base name of the file.
	Name string
	// Size is the committed size in bytes.
	Size int64
	// Reader reads the committed bytes. It is valid until the column is closed.
	Reader *io.SectionReader
}

func segmentOf(f *paged.File) Segment {
	r := f.NewReader()
	return Segment{Name: filepath.Base(f.Path()), Size: r.Size(), Reader: r}
}

type fixedColumn struct {
	f      *paged.File
	width  int64
	opts   Options
	logger *slog.Logger
}

func openFixed(path string, width int, mode paged.Mode, opts Options) (*fixedColumn, error) {
	if width <= 0 {
		return nil, fmt.Errorf("%w: width %d", ErrInvalidArgument, width)
	}
	opts = opts.withDefaults()

	f, err := paged.Open(path, opts.PageBits, mode, opts.pagedOptions())
	if err != nil {
		return nil, err
	}

	c := &fixedColumn{
		f:      f,
		width:  int64(width),
		opts:   opts,
		logger: opts.Logger.With("column", path, "mode", mode.String()),
	}
	if err := c.validate(); err != nil {
		_ = f.Close()
		return nil, err
	}

	c.logger.Debug("column opened", "width", width, "size", c.Size())
	return c, nil
}

func (c *fixedColumn) validate() error {
	if c.f.CommittedSize()%c.width != 0 {
		return fmt.Errorf("%w: %s: committed size %d is not a multiple of width %d", ErrInvalidSize, c.f.Path(), c.f.CommittedSize(), c.width)
	}
	return nil
}

// Width returns the element width in bytes.
func (c *fixedColumn) Width() int { return int(c.width) }

// Path returns the column file path.
func (c *fixedColumn) Path() string { return c.f.Path() }

// Size returns the number of committed records.
func (c *fixedColumn) Size() int64 {
	return c.f.CommittedSize() / c.width
}

// offset validates a read of a value of width w at record i.
func (c *fixedColumn) offset(i int64, w int64) (int64, error) {
	if w != c.width {
		return 0, fmt.Errorf("%w: %d-byte value in %d-byte column", ErrInvalidArgument, w, c.width)
	}
	if i < 0 || i >= c.Size() {
		return 0, fmt.Errorf("%w: record %d, size %d", ErrIndexOutOfBounds, i, c.Size())
	}
	return i * c.width, nil
}

func readFixed[T any](c *fixedColumn, i int64, w int64, get func(int64) (T, error)) (T, error) {
	var zero T
	off, err := c.offset(i, w)
	if err != nil {
		c.opts.Metrics.RecordRead(err)
		return zero, err
	}
	v, err := get(off)
	c.opts.Metrics.RecordRead(err)
	return v, err
}

// GetByte returns record i of a 1-byte column.
func (c *fixedColumn) GetByte(i int64) (byte, error) { return readFixed(c, i, 1, c.f.GetByte) }

// GetBool returns record i of a 1-byte column as a boolean.
func (c *fixedColumn) GetBool(i int64) (bool, error) { return readFixed(c, i, 1, c.f.GetBool) }

// GetInt16 returns record i of a 2-byte column.
func (c *fixedColumn) GetInt16(i int64) (int16, error) { return readFixed(c, i, 2, c.f.GetInt16) }

// GetChar returns record i of a 2-byte column as a UTF-16 code unit.
func (c *fixedColumn) GetChar(i int64) (uint16, error) { return readFixed(c, i, 2, c.f.GetChar) }

// GetInt32 returns record i of a 4-byte column.
func (c *fixedColumn) GetInt32(i int64) (int32, error) { return readFixed(c, i, 4, c.f.GetInt32) }

// GetFloat32 returns record i of a 4-byte column.
func (c *fixedColumn) GetFloat32(i int64) (float32, error) { return readFixed(c, i, 4, c.f.GetFloat32) }

// GetInt64 returns record i of an 8-byte column.
func (c *fixedColumn) GetInt64(i int64) (int64, error) { return readFixed(c, i, 8, c.f.GetInt64) }

// GetFloat64 returns record i of an 8-byte column.
func (c *fixedColumn) GetFloat64(i int64) (float64, error) { return readFixed(c, i, 8, c.f.GetFloat64) }

// ReadRange returns the raw little-endian bytes of records [from, to).
func (c *fixedColumn) ReadRange(from, to int64) ([]byte, error) {
	if from < 0 || from > to || to > c.Size() {
		return nil, fmt.Errorf("%w: range [%d, %d), size %d", ErrIndexOutOfBounds, from, to, c.Size())
	}
	buf := make([]byte, (to-from)*c.width)
	if err := c.f.GetBytes(from*c.width, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// Segments returns the committed file image of the column.
func (c *fixedColumn) Segments() []Segment {
	return []Segment{segmentOf(c.f)}
}

// Close releases the column file. It is idempotent.
func (c *fixedColumn) Close() error {
	err := c.f.Close()
	if err != nil {
		c.logger.Warn("column close failed", "error", err)
	} else {
		c.logger.Debug("column closed")
	}
	return err
}

// FixedReader is a read-only handle on a fixed-width column.
type FixedReader struct {
	*fixedColumn
}

// OpenFixedReader opens a fixed-width column for reading in ModeRead or ModeBulk.
func OpenFixedReader(path string, width int, mode Mode, opts Options) (*FixedReader, error) {
	if mode.Writable() {
		return nil, fmt.Errorf("%w: readers open in read or bulk mode", ErrInvalidArgument)
	}
	c, err := openFixed(path, width, mode, opts)
	if err != nil {
		return nil, err
	}
	return &FixedReader{fixedColumn: c}, nil
}

// Refresh picks up records committed since the reader was opened.
func (r *FixedReader) Refresh() error {
	if err := r.f.Refresh(); err != nil {
		return err
	}
	return r.validate()
}

// FixedWriter is the exclusive append handle on a fixed-width column.
// It can read back any committed record.
type FixedWriter struct {
	*fixedColumn
}

// OpenFixedWriter opens or creates a fixed-width column for appending.
func OpenFixedWriter(path string, width int, opts Options) (*FixedWriter, error) {
	c, err := openFixed(path, width, paged.ModeAppend, opts)
	if err != nil {
		return nil, err
	}
	return &FixedWriter{fixedColumn: c}, nil
}

func (w *FixedWriter) put(width int64, put func(off int64) error) error {
	if width != w.width {
		return fmt.Errorf("%w: %d-byte value in %d-byte column", ErrInvalidArgument, width, w.width)
	}
	if err := put(w.f.AppendedSize()); err != nil {
		return err
	}
	w.opts.Metrics.RecordAppend(int(width))
	return nil
}

// PutByte appends a value to a 1-byte column.
func (w *FixedWriter) PutByte(v byte) error {
	return w.put(1, func(off int64) error { return w.f.PutByte(off, v) })
}

// PutBool appends a value to a 1-byte column.
func (w *FixedWriter) PutBool(v bool) error {
	return w.put(1, func(off int64) error { return w.f.PutBool(off, v) })
}

// PutInt16 appends a value to a 2-byte column.
func (w *FixedWriter) PutInt16(v int16) error {
	return w.put(2, func(off int64) error { return w.f.PutInt16(off, v) })
}

// PutChar appends a UTF-16 code unit to a 2-byte column.
func (w *FixedWriter) PutChar(v uint16) error {
	return w.put(2, func(off int64) error { return w.f.PutChar(off, v) })
}

// PutInt32 appends a value to a 4-byte column.
func (w *FixedWriter) PutInt32(v int32) error {
	return w.put(4, func(off int64) error { return w.f.PutInt32(off, v) })
}

// PutFloat32 appends a value to a 4-byte column.
func (w *FixedWriter) PutFloat32(v float32) error {
	return w.put(4, func(off int64) error { return w.f.PutFloat32(off, v) })
}

// PutInt64 appends a value to an 8-byte column.
func (w *FixedWriter) PutInt64(v int64) error {
	return w.put(8, func(off int64) error { return w.f.PutInt64(off, v) })
}

// PutFloat64 appends a value to an 8-byte column.
func (w *FixedWriter) PutFloat64(v float64) error {
	return w.put(8, func(off int64) error { return w.f.PutFloat64(off, v) })
}

// Pending returns the number of appended but uncommitted records.
func (w *FixedWriter) Pending() int64 {
	return (w.f.AppendedSize() - w.f.CommittedSize()) / w.width
}

// Commit publishes all appended records to readers.
func (w *FixedWriter) Commit() error {
	start := time.Now()
	records := w.Pending()
	err := w.f.Commit()
	w.opts.Metrics.RecordCommit(records, time.Since(start), err)
	return err
}

// Truncate discards uncommitted records and every committed record at index
// n or above.
func (w *FixedWriter) Truncate(n int64) error {
	size := w.Size()
	if n < 0 || n > size {
		err := fmt.Errorf("%w: truncate to %d, size %d", ErrInvalidArgument, n, size)
		w.opts.Metrics.RecordTruncate(0, err)
		return err
	}
	err := w.f.Truncate(n * w.width)
	w.opts.Metrics.RecordTruncate(size-n, err)
	if err != nil {
		return err
	}
	w.logger.Info("column truncated", "from", size, "to", n)
	return nil
}

// Sync flushes committed data to stable storage.
func (w *FixedWriter) Sync() error {
	return w.f.Sync()
}
