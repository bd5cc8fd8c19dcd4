package column

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"time"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/colstore/internal/conv"
	"github.com/hupe1980/colstore/internal/paged"
)

const (
	// NullLength is the length header of a null record.
	NullLength = -1

	headerWidth = 4 // int32 length header
	entryWidth  = 8 // uint64 end offset per record
)

// variableColumn owns the index and data files of one column. Neither file is
// reachable from outside so they cannot drift apart.
type variableColumn struct {
	index  *paged.File
	data   *paged.File
	opts   Options
	logger *slog.Logger
}

func openVariable(dataPath, indexPath string, mode paged.Mode, opts Options) (*variableColumn, error) {
	opts = opts.withDefaults()
	po := opts.pagedOptions()

	// The writer commits data before index, so readers load the index marker
	// first: every entry they see then points at committed data.
	index, err := paged.Open(indexPath, opts.PageBits, mode, po)
	if err != nil {
		return nil, err
	}
	data, err := paged.Open(dataPath, opts.PageBits, mode, po)
	if err != nil {
		_ = index.Close()
		return nil, err
	}

	c := &variableColumn{
		index:  index,
		data:   data,
		opts:   opts,
		logger: opts.Logger.With("column", dataPath, "mode", mode.String()),
	}
	if err := c.validate(); err != nil {
		_ = c.closeFiles()
		return nil, err
	}

	c.logger.Debug("column opened", "index", indexPath, "size", c.Size())
	return c, nil
}

func (c *variableColumn) validate() error {
	if c.index.CommittedSize()%entryWidth != 0 {
		return fmt.Errorf("%w: %s: index size %d is not a multiple of %d", ErrInvalidSize, c.index.Path(), c.index.CommittedSize(), entryWidth)
	}
	n := c.Size()
	if n == 0 {
		return nil
	}
	end, err := c.entry(n - 1)
	if err != nil {
		return err
	}
	if end > c.data.CommittedSize() {
		return fmt.Errorf("%w: %s: last record ends at %d beyond committed data size %d", ErrInvalidSize, c.data.Path(), end, c.data.CommittedSize())
	}
	return nil
}

// Size returns the number of committed records.
func (c *variableColumn) Size() int64 {
	return c.index.CommittedSize() / entryWidth
}

// Path returns the data file path.
func (c *variableColumn) Path() string { return c.data.Path() }

// IndexPath returns the index file path.
func (c *variableColumn) IndexPath() string { return c.index.Path() }

// entry returns the end offset of record i, or 0 for i == -1.
func (c *variableColumn) entry(i int64) (int64, error) {
	if i < 0 {
		return 0, nil
	}
	raw, err := c.index.GetInt64(i * entryWidth)
	if err != nil {
		return 0, err
	}
	if raw < 0 {
		return 0, fmt.Errorf("%w: %s: negative end offset for record %d", ErrInvalidSize, c.index.Path(), i)
	}
	return raw, nil
}

// record locates record i and returns its start offset, region size and
// length header.
func (c *variableColumn) record(i int64) (start, region int64, length int32, err error) {
	if i < 0 || i >= c.Size() {
		return 0, 0, 0, fmt.Errorf("%w: record %d, size %d", ErrIndexOutOfBounds, i, c.Size())
	}
	start, err = c.entry(i - 1)
	if err != nil {
		return 0, 0, 0, err
	}
	end, err := c.entry(i)
	if err != nil {
		return 0, 0, 0, err
	}
	if end-start < headerWidth {
		return 0, 0, 0, fmt.Errorf("%w: %s: record %d spans %d bytes", ErrInvalidSize, c.index.Path(), i, end-start)
	}
	length, err = c.data.GetInt32(start)
	if err != nil {
		return 0, 0, 0, err
	}
	return start, end - start, length, nil
}

// payload reads the payload of record i with the given unit size. ok is false
// for null records.
func (c *variableColumn) payload(i int64, unit int64, dst []byte) (buf []byte, ok bool, err error) {
	defer func() { c.opts.Metrics.RecordRead(err) }()

	start, region, length, err := c.record(i)
	if err != nil {
		return nil, false, err
	}
	if length == NullLength {
		return dst, false, nil
	}
	if length < 0 || headerWidth+int64(length)*unit > region {
		return nil, false, fmt.Errorf("%w: %s: record %d length %d exceeds its %d-byte region", ErrInvalidSize, c.data.Path(), i, length, region)
	}

	n := int(int64(length) * unit)
	off := len(dst)
	dst = slices.Grow(dst, n)[:off+n]
	if err := c.data.GetBytes(start+headerWidth, dst[off:]); err != nil {
		return nil, false, err
	}
	return dst, true, nil
}

// GetStr returns record i decoded as text. ok is false for a null record.
func (c *variableColumn) GetStr(i int64) (s string, ok bool, err error) {
	buf, ok, err := c.payload(i, 2, nil)
	if err != nil || !ok {
		return "", ok, err
	}
	units := make([]uint16, len(buf)/2)
	for j := range units {
		units[j] = binary.LittleEndian.Uint16(buf[2*j:])
	}
	return string(utf16.Decode(units)), true, nil
}

// GetBin returns a copy of binary record i. ok is false for a null record.
func (c *variableColumn) GetBin(i int64) ([]byte, bool, error) {
	return c.payload(i, 1, nil)
}

// AppendBin appends binary record i to dst. ok is false for a null record, in
// which case dst is returned unchanged.
func (c *variableColumn) AppendBin(dst []byte, i int64) ([]byte, bool, error) {
	if dst == nil {
		dst = []byte{}
	}
	return c.payload(i, 1, dst)
}

// GetBinSize returns the payload length of record i in bytes, or NullLength
// for a null record.
func (c *variableColumn) GetBinSize(i int64) (int, error) {
	_, _, length, err := c.record(i)
	if err != nil {
		return 0, err
	}
	return int(length), nil
}

// IsNull reports whether record i is null.
func (c *variableColumn) IsNull(i int64) (bool, error) {
	n, err := c.GetBinSize(i)
	return n == NullLength, err
}

// Nulls returns the indexes of null records in [from, to).
func (c *variableColumn) Nulls(from, to int64) (*roaring.Bitmap, error) {
	if from < 0 || from > to || to > c.Size() {
		return nil, fmt.Errorf("%w: range [%d, %d), size %d", ErrIndexOutOfBounds, from, to, c.Size())
	}
	if to > math.MaxUint32+1 {
		return nil, fmt.Errorf("%w: range end %d exceeds 32-bit record ids", ErrInvalidArgument, to)
	}
	bm := roaring.New()
	for i := from; i < to; i++ {
		start, err := c.entry(i - 1)
		if err != nil {
			return nil, err
		}
		length, err := c.data.GetInt32(start)
		if err != nil {
			return nil, err
		}
		if length == NullLength {
			bm.Add(uint32(i)) //nolint:gosec // bounded above
		}
	}
	return bm, nil
}

// Segments returns the committed images of the index and data files.
func (c *variableColumn) Segments() []Segment {
	return []Segment{segmentOf(c.index), segmentOf(c.data)}
}

func (c *variableColumn) closeFiles() error {
	return errors.Join(c.index.Close(), c.data.Close())
}

// Close releases both files. It is idempotent.
func (c *variableColumn) Close() error {
	err := c.closeFiles()
	if err != nil {
		c.logger.Warn("column close failed", "error", err)
	} else {
		c.logger.Debug("column closed")
	}
	return err
}

// VariableReader is a read-only handle on a variable-width column.
type VariableReader struct {
	*variableColumn
}

// OpenVariableReader opens a variable-width column for reading in ModeRead or ModeBulk.
func OpenVariableReader(dataPath, indexPath string, mode Mode, opts Options) (*VariableReader, error) {
	if mode.Writable() {
		return nil, fmt.Errorf("%w: readers open in read or bulk mode", ErrInvalidArgument)
	}
	c, err := openVariable(dataPath, indexPath, mode, opts)
	if err != nil {
		return nil, err
	}
	return &VariableReader{variableColumn: c}, nil
}

// Refresh picks up records committed since the reader was opened.
func (r *VariableReader) Refresh() error {
	if err := r.index.Refresh(); err != nil {
		return err
	}
	if err := r.data.Refresh(); err != nil {
		return err
	}
	return r.validate()
}

// VariableWriter is the exclusive append handle on a variable-width column.
type VariableWriter struct {
	*variableColumn

	pending []int64 // data end offsets of uncommitted records
	scratch []byte
}

// OpenVariableWriter opens or creates a variable-width column for appending.
func OpenVariableWriter(dataPath, indexPath string, opts Options) (*VariableWriter, error) {
	c, err := openVariable(dataPath, indexPath, paged.ModeAppend, opts)
	if err != nil {
		return nil, err
	}
	return &VariableWriter{variableColumn: c}, nil
}

// appendRecord writes one encoded record (header included) to the data file.
func (w *VariableWriter) appendRecord(rec []byte) error {
	if _, err := w.data.Append(rec); err != nil {
		return err
	}
	w.pending = append(w.pending, w.data.AppendedSize())
	w.opts.Metrics.RecordAppend(len(rec))
	return nil
}

func (w *VariableWriter) header(n int) ([]byte, error) {
	length, err := conv.IntToInt32(n)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	w.scratch = binary.LittleEndian.AppendUint32(w.scratch[:0], uint32(length)) //nolint:gosec
	return w.scratch, nil
}

// PutStr appends a text record stored as UTF-16 code units. Text that is not
// valid UTF-8 is rejected with ErrInvalidArgument.
func (w *VariableWriter) PutStr(s string) error {
	if !utf8.ValidString(s) {
		return fmt.Errorf("%w: text is not valid UTF-8", ErrInvalidArgument)
	}
	units := utf16.Encode([]rune(s))
	rec, err := w.header(len(units))
	if err != nil {
		return err
	}
	for _, u := range units {
		rec = binary.LittleEndian.AppendUint16(rec, u)
	}
	w.scratch = rec
	return w.appendRecord(rec)
}

// PutBin appends a binary record.
func (w *VariableWriter) PutBin(b []byte) error {
	rec, err := w.header(len(b))
	if err != nil {
		return err
	}
	rec = append(rec, b...)
	w.scratch = rec
	return w.appendRecord(rec)
}

// PutNull appends a null record.
func (w *VariableWriter) PutNull() error {
	var rec [headerWidth]byte
	binary.LittleEndian.PutUint32(rec[:], math.MaxUint32) // -1
	return w.appendRecord(rec[:])
}

// Pending returns the number of appended but uncommitted records.
func (w *VariableWriter) Pending() int64 {
	return int64(len(w.pending))
}

// Commit writes one index entry per pending record, in append order, then
// publishes the data file followed by the index file.
func (w *VariableWriter) Commit() error {
	start := time.Now()
	records := int64(len(w.pending))
	err := w.commit()
	w.opts.Metrics.RecordCommit(records, time.Since(start), err)
	return err
}

func (w *VariableWriter) commit() error {
	for _, end := range w.pending {
		if err := w.index.PutInt64(w.index.AppendedSize(), end); err != nil {
			// Drop partial entries so a retried commit starts clean.
			_ = w.index.SetAppendedSize(w.index.CommittedSize())
			return err
		}
	}
	w.pending = w.pending[:0]

	if err := w.data.Commit(); err != nil {
		return err
	}
	return w.index.Commit()
}

// Truncate discards pending records and every committed record at index n or
// above. The next append overwrites the data of the first discarded record.
func (w *VariableWriter) Truncate(n int64) error {
	size := w.Size()
	if n < 0 || n > size {
		err := fmt.Errorf("%w: truncate to %d, size %d", ErrInvalidArgument, n, size)
		w.opts.Metrics.RecordTruncate(0, err)
		return err
	}
	err := w.truncate(n)
	w.opts.Metrics.RecordTruncate(size-n, err)
	if err != nil {
		return err
	}
	w.logger.Info("column truncated", "from", size, "to", n, "data_size", w.data.CommittedSize())
	return nil
}

func (w *VariableWriter) truncate(n int64) error {
	end, err := w.entry(n - 1)
	if err != nil {
		return err
	}
	w.pending = w.pending[:0]

	// Index first so no published entry ever points past the data marker.
	if err := w.index.Truncate(n * entryWidth); err != nil {
		return err
	}
	return w.data.Truncate(end)
}

// Sync flushes both files to stable storage.
func (w *VariableWriter) Sync() error {
	if err := w.data.Sync(); err != nil {
		return err
	}
	return w.index.Sync()
}
