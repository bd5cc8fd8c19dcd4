package paged

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hupe1980/colstore/internal/fs"
	"github.com/hupe1980/colstore/internal/mmap"
)

// NewReader returns a reader over the committed logical bytes of f as of the
// call. The reader shares f's page mappings and must not outlive it.
func (f *File) NewReader() *io.SectionReader {
	return io.NewSectionReader(readerAt{f: f}, 0, f.committed)
}

type readerAt struct {
	f *File
}

func (r readerAt) ReadAt(p []byte, off int64) (int, error) {
	limit := r.f.readLimit()
	if off >= limit {
		return 0, io.EOF
	}
	n := len(p)
	if rem := limit - off; int64(n) > rem {
		n = int(rem)
	}
	if err := r.f.read(p[:n], off); err != nil {
		return 0, err
	}
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// WriteFile replaces the file at path with a paged-file image whose committed
// content is the next size bytes of r. The file is locked while written so an
// open writer on the same path makes it fail with ErrLocked.
func WriteFile(fsys fs.FileSystem, path string, r io.Reader, size int64) (err error) {
	if size < 0 {
		return fmt.Errorf("%w: negative size %d", ErrInvalidArgument, size)
	}
	if fsys == nil {
		fsys = fs.Default
	}

	file, err := fsys.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return ioError("open", path, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = ioError("close", path, cerr)
		}
	}()

	if lerr := mmap.Lock(file.Fd()); lerr != nil {
		if errors.Is(lerr, mmap.ErrLocked) {
			return fmt.Errorf("%w: %s", ErrLocked, path)
		}
		return ioError("lock", path, lerr)
	}
	defer func() { _ = mmap.Unlock(file.Fd()) }()

	if err := file.Truncate(0); err != nil {
		return ioError("truncate", path, err)
	}

	var hdr [HeaderSize]byte
	binary.LittleEndian.PutUint64(hdr[:], uint64(size))
	if _, err := file.Write(hdr[:]); err != nil {
		return ioError("write header", path, err)
	}
	n, err := io.CopyN(file, r, size)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: %s: image truncated at %d of %d bytes", ErrInvalidSize, path, n, size)
		}
		return ioError("write", path, err)
	}
	if err := file.Sync(); err != nil {
		return ioError("fsync", path, err)
	}
	return nil
}
