package paged

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"github.com/hupe1980/colstore/internal/conv"
	"github.com/hupe1980/colstore/internal/fs"
	"github.com/hupe1980/colstore/internal/mmap"
)

const (
	// HeaderSize is the size of the committed-size preamble in bytes.
	HeaderSize = 8

	// MinPageBits is the smallest supported page size (4 KiB).
	MinPageBits = 12
	// MaxPageBits is the largest supported page size (1 GiB).
	MaxPageBits = 30

	// DefaultBulkReadahead is the number of pages mapped ahead in ModeBulk.
	DefaultBulkReadahead = 4
)

// Options configures a File.
type Options struct {
	// FS is the filesystem used to open the backing file. Defaults to fs.Default.
	FS fs.FileSystem

	// BulkReadahead is the number of pages mapped ahead of the read position
	// in ModeBulk. Defaults to DefaultBulkReadahead.
	BulkReadahead int

	// SyncOnCommit flushes mapped pages and fsyncs the file on every commit.
	SyncOnCommit bool

	// OnMap, if set, is called with the number of pages newly mapped.
	OnMap func(pages int)
}

// File is a growable byte region backed by fixed-size mapped pages.
type File struct {
	path     string
	mode     Mode
	bits     uint
	pageSize int64
	opts     Options

	file     fs.File
	fileSize int64 // physical length
	pages    [][]byte

	appended  int64
	committed int64

	locked bool
	closed bool
}

// Open opens the file at path with pages of 1<<bits bytes.
func Open(path string, bits int, mode Mode, opts Options) (*File, error) {
	if bits < MinPageBits || bits > MaxPageBits {
		return nil, fmt.Errorf("%w: page bits %d outside [%d, %d]", ErrInvalidArgument, bits, MinPageBits, MaxPageBits)
	}
	pageSize := int64(1) << bits
	if pageSize%int64(mmap.PageSize()) != 0 {
		return nil, fmt.Errorf("%w: page size %d is not a multiple of the OS page size %d", ErrInvalidArgument, pageSize, mmap.PageSize())
	}
	if mode != ModeAppend && mode != ModeRead && mode != ModeBulk {
		return nil, fmt.Errorf("%w: mode %d", ErrInvalidArgument, mode)
	}
	if opts.FS == nil {
		opts.FS = fs.Default
	}
	if opts.BulkReadahead <= 0 {
		opts.BulkReadahead = DefaultBulkReadahead
	}

	flag := os.O_RDONLY
	if mode.Writable() {
		flag = os.O_RDWR | os.O_CREATE
	}
	file, err := opts.FS.OpenFile(path, flag, 0644)
	if err != nil {
		return nil, ioError("open", path, err)
	}

	f := &File{
		path:     path,
		mode:     mode,
		bits:     uint(bits),
		pageSize: pageSize,
		opts:     opts,
		file:     file,
	}

	if mode.Writable() {
		if err := mmap.Lock(file.Fd()); err != nil {
			_ = file.Close()
			if errors.Is(err, mmap.ErrLocked) {
				return nil, fmt.Errorf("%w: %s", ErrLocked, path)
			}
			return nil, ioError("lock", path, err)
		}
		f.locked = true
	}

	if err := f.loadHeader(); err != nil {
		_ = f.Close()
		return nil, err
	}
	f.appended = f.committed

	return f, nil
}

// loadHeader reads the persisted committed size through the file handle.
func (f *File) loadHeader() error {
	info, err := f.file.Stat()
	if err != nil {
		return ioError("stat", f.path, err)
	}
	f.fileSize = info.Size()

	if f.fileSize == 0 {
		f.committed = 0
		return nil
	}
	if f.fileSize < HeaderSize {
		return fmt.Errorf("%w: %s: file length %d shorter than header", ErrInvalidSize, f.path, f.fileSize)
	}

	var hdr [HeaderSize]byte
	if _, err := f.file.ReadAt(hdr[:], 0); err != nil {
		return ioError("read header", f.path, err)
	}
	committed, err := conv.Uint64ToInt64(binary.LittleEndian.Uint64(hdr[:]))
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidSize, f.path, err)
	}
	if HeaderSize+committed > f.fileSize {
		return fmt.Errorf("%w: %s: committed size %d exceeds file length %d", ErrInvalidSize, f.path, committed, f.fileSize)
	}
	f.committed = committed
	return nil
}

// Path returns the backing file path.
func (f *File) Path() string { return f.path }

// Mode returns the mode the file was opened with.
func (f *File) Mode() Mode { return f.mode }

// PageSize returns the page size in bytes.
func (f *File) PageSize() int64 { return f.pageSize }

// AppendedSize returns the highest logical offset written.
func (f *File) AppendedSize() int64 { return f.appended }

// CommittedSize returns the highest logical offset published to readers.
func (f *File) CommittedSize() int64 { return f.committed }

// MappedPages returns the number of currently mapped pages.
func (f *File) MappedPages() int {
	n := 0
	for _, p := range f.pages {
		if p != nil {
			n++
		}
	}
	return n
}

func (f *File) checkOpen() error {
	if f.closed {
		return fmt.Errorf("%w: %s", ErrClosed, f.path)
	}
	return nil
}

func (f *File) checkWritable() error {
	if err := f.checkOpen(); err != nil {
		return err
	}
	if !f.mode.Writable() {
		return fmt.Errorf("%w: %s opened in %s mode", ErrReadOnly, f.path, f.mode)
	}
	return nil
}

// readLimit is the logical extent readable through this handle. Writers may
// read back their own uncommitted tail.
func (f *File) readLimit() int64 {
	if f.mode.Writable() {
		return f.appended
	}
	return f.committed
}

// EnsureMapped guarantees that the pages covering [off, off+n) are mapped.
// In ModeAppend the file is grown as needed.
func (f *File) EnsureMapped(off, n int64) error {
	if err := f.checkOpen(); err != nil {
		return err
	}
	if off < 0 || n < 0 {
		return fmt.Errorf("%w: range [%d, +%d)", ErrInvalidArgument, off, n)
	}
	if !f.mode.Writable() && off+n > f.committed {
		return fmt.Errorf("%w: %s: range [%d, %d) beyond committed size %d", ErrReadBeyondCommitted, f.path, off, off+n, f.committed)
	}
	if n == 0 {
		return nil
	}
	first := (HeaderSize + off) >> f.bits
	last := (HeaderSize + off + n - 1) >> f.bits
	for p := first; p <= last; p++ {
		if _, err := f.page(p); err != nil {
			return err
		}
	}
	return nil
}

// page returns the mapping of physical page p, mapping it on first use.
func (f *File) page(p int64) ([]byte, error) {
	if p < int64(len(f.pages)) && f.pages[p] != nil {
		return f.pages[p], nil
	}

	last := p
	if f.mode == ModeBulk {
		last = p + int64(f.opts.BulkReadahead)
		if maxPage := (HeaderSize + f.committed - 1) >> f.bits; last > maxPage {
			last = maxPage
		}
		if last < p {
			last = p
		}
	}

	if f.mode.Writable() {
		if err := f.grow((last + 1) << f.bits); err != nil {
			return nil, err
		}
	}

	for int64(len(f.pages)) <= last {
		f.pages = append(f.pages, nil)
	}

	mapped := 0
	for q := p; q <= last; q++ {
		if f.pages[q] != nil {
			continue
		}
		data, err := mmap.Map(f.file.Fd(), q<<f.bits, int(f.pageSize), f.mode.Writable())
		if err != nil {
			return nil, ioError("mmap", f.path, err)
		}
		if f.mode == ModeBulk {
			_ = mmap.Advise(data, mmap.AccessSequential)
		}
		f.pages[q] = data
		mapped++
	}
	if mapped > 0 && f.opts.OnMap != nil {
		f.opts.OnMap(mapped)
	}

	return f.pages[p], nil
}

// copyAt is the single split routine behind every accessor. It copies buf
// to (write) or from the logical range starting at off, one page at a time.
func (f *File) copyAt(buf []byte, off int64, write bool) error {
	phys := HeaderSize + off
	for len(buf) > 0 {
		page, err := f.page(phys >> f.bits)
		if err != nil {
			return err
		}
		po := phys & (f.pageSize - 1)
		var n int
		if write {
			n = copy(page[po:], buf)
		} else {
			n = copy(buf, page[po:])
		}
		buf = buf[n:]
		phys += int64(n)
	}
	return nil
}

func (f *File) read(buf []byte, off int64) error {
	if err := f.checkOpen(); err != nil {
		return err
	}
	if off < 0 {
		return fmt.Errorf("%w: negative offset %d", ErrInvalidArgument, off)
	}
	if end := off + int64(len(buf)); end > f.readLimit() {
		if f.mode.Writable() {
			return fmt.Errorf("%w: %s: read [%d, %d) beyond appended size %d", ErrInvalidArgument, f.path, off, end, f.appended)
		}
		return fmt.Errorf("%w: %s: read [%d, %d) beyond committed size %d", ErrReadBeyondCommitted, f.path, off, end, f.committed)
	}
	return f.copyAt(buf, off, false)
}

func (f *File) write(buf []byte, off int64) error {
	if err := f.checkWritable(); err != nil {
		return err
	}
	if off < f.committed {
		return fmt.Errorf("%w: %s: write at %d below committed size %d", ErrInvalidArgument, f.path, off, f.committed)
	}
	if err := f.copyAt(buf, off, true); err != nil {
		return err
	}
	if end := off + int64(len(buf)); end > f.appended {
		f.appended = end
	}
	return nil
}

// GetBytes fills dst with the bytes starting at off.
func (f *File) GetBytes(off int64, dst []byte) error {
	return f.read(dst, off)
}

// PutBytes writes src starting at off and advances the appended size if the
// write extends past it. Committed bytes cannot be overwritten.
func (f *File) PutBytes(off int64, src []byte) error {
	return f.write(src, off)
}

// Append writes src at the appended size and returns the offset it was written at.
func (f *File) Append(src []byte) (int64, error) {
	off := f.appended
	if err := f.write(src, off); err != nil {
		return 0, err
	}
	return off, nil
}

// grow extends the physical file to at least need bytes.
func (f *File) grow(need int64) error {
	if need <= f.fileSize {
		return nil
	}
	if err := f.file.Truncate(need); err != nil {
		return ioError("grow", f.path, err)
	}
	f.fileSize = need
	return nil
}

// SetAppendedSize moves the appended marker. It fails with ErrInvalidSize if
// the marker would fall below the committed size. The file is grown to the
// page holding the new marker, so the appended size never exceeds it.
func (f *File) SetAppendedSize(n int64) error {
	if err := f.checkWritable(); err != nil {
		return err
	}
	if n < f.committed {
		return fmt.Errorf("%w: %s: appended size %d below committed size %d", ErrInvalidSize, f.path, n, f.committed)
	}
	if n > 0 {
		if err := f.grow(((HeaderSize+n-1)>>f.bits + 1) << f.bits); err != nil {
			return err
		}
	}
	f.appended = n
	return nil
}

// SetCommittedSize moves the committed marker and persists it. It fails with
// ErrInvalidSize if the marker would exceed the appended size.
func (f *File) SetCommittedSize(n int64) error {
	if err := f.checkWritable(); err != nil {
		return err
	}
	if n < 0 || n > f.appended {
		return fmt.Errorf("%w: %s: committed size %d outside [0, %d]", ErrInvalidSize, f.path, n, f.appended)
	}
	prev := f.committed
	f.committed = n
	if err := f.writeHeader(); err != nil {
		f.committed = prev
		return err
	}
	if f.opts.SyncOnCommit {
		return f.Sync()
	}
	return nil
}

// Commit publishes everything appended so far.
func (f *File) Commit() error {
	return f.SetCommittedSize(f.appended)
}

// Truncate sets both markers to n, which must not exceed the committed size.
// Pages lying wholly beyond the new extent are unmapped; page 0 stays mapped.
func (f *File) Truncate(n int64) error {
	if err := f.checkWritable(); err != nil {
		return err
	}
	if n < 0 || n > f.committed {
		return fmt.Errorf("%w: %s: truncate to %d outside [0, %d]", ErrInvalidArgument, f.path, n, f.committed)
	}
	prevCommitted, prevAppended := f.committed, f.appended
	f.committed = n
	f.appended = n
	if err := f.writeHeader(); err != nil {
		f.committed, f.appended = prevCommitted, prevAppended
		return err
	}

	var errs []error
	for p := int64(1); p < int64(len(f.pages)); p++ {
		if f.pages[p] == nil || p<<f.bits < HeaderSize+n {
			continue
		}
		if err := mmap.Unmap(f.pages[p]); err != nil {
			errs = append(errs, ioError("munmap", f.path, err))
		}
		f.pages[p] = nil
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	if f.opts.SyncOnCommit {
		return f.Sync()
	}
	return nil
}

func (f *File) writeHeader() error {
	page, err := f.page(0)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(page[:HeaderSize], uint64(f.committed)) //nolint:gosec // committed is never negative
	return nil
}

// Refresh re-reads the persisted committed size. Only valid in read modes.
func (f *File) Refresh() error {
	if err := f.checkOpen(); err != nil {
		return err
	}
	if f.mode.Writable() {
		return fmt.Errorf("%w: %s: refresh on a writer", ErrInvalidArgument, f.path)
	}
	if err := f.loadHeader(); err != nil {
		return err
	}
	f.appended = f.committed
	return nil
}

// Sync flushes mapped pages and the file to stable storage.
func (f *File) Sync() error {
	if err := f.checkWritable(); err != nil {
		return err
	}
	for _, p := range f.pages {
		if p == nil {
			continue
		}
		if err := mmap.Sync(p); err != nil {
			return ioError("msync", f.path, err)
		}
	}
	if err := f.file.Sync(); err != nil {
		return ioError("fsync", f.path, err)
	}
	return nil
}

// Close unmaps all pages and releases the file. It is idempotent.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true

	var errs []error
	for i, p := range f.pages {
		if p == nil {
			continue
		}
		if err := mmap.Unmap(p); err != nil {
			errs = append(errs, ioError("munmap", f.path, err))
		}
		f.pages[i] = nil
	}
	f.pages = nil

	if f.locked {
		if err := mmap.Unlock(f.file.Fd()); err != nil {
			errs = append(errs, ioError("unlock", f.path, err))
		}
		f.locked = false
	}
	if err := f.file.Close(); err != nil {
		errs = append(errs, ioError("close", f.path, err))
	}
	return errors.Join(errs...)
}
