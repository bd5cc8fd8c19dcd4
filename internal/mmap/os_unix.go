//go:build unix

package mmap

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// PageSize returns the operating system page size. Offsets passed to Map must
// be multiples of it.
func PageSize() int {
	return unix.Getpagesize()
}

// Map maps size bytes of the file behind fd, starting at offset, as a shared
// mapping. Writable mappings propagate stores to the file.
func Map(fd uintptr, offset int64, size int, writable bool) ([]byte, error) {
	if offset < 0 || offset%int64(PageSize()) != 0 {
		return nil, ErrInvalidOffset
	}
	if size <= 0 {
		return nil, ErrInvalidSize
	}

	prot := unix.PROT_READ
	if writable {
		prot |= unix.PROT_WRITE
	}

	return unix.Mmap(int(fd), offset, size, prot, unix.MAP_SHARED)
}

// Unmap releases a window returned by Map.
func Unmap(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	return unix.Munmap(data)
}

// Sync flushes dirty pages of a writable window to the file.
func Sync(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	return unix.Msync(data, unix.MS_SYNC)
}

// Advise provides hints to the kernel about how a window will be accessed.
func Advise(data []byte, pattern AccessPattern) error {
	return osAdvise(data, pattern)
}

// Lock takes an exclusive, non-blocking advisory lock on fd.
func Lock(fd uintptr) error {
	err := unix.Flock(int(fd), unix.LOCK_EX|unix.LOCK_NB)
	if errors.Is(err, unix.EWOULDBLOCK) {
		return ErrLocked
	}
	return err
}

// Unlock releases a lock taken by Lock.
func Unlock(fd uintptr) error {
	return unix.Flock(int(fd), unix.LOCK_UN)
}

func osMap(f *os.File, size int) ([]byte, func([]byte) error, error) {
	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, err
	}

	return data, unix.Munmap, nil
}

func osAdvise(data []byte, pattern AccessPattern) error {
	if len(data) == 0 {
		return nil
	}

	var advice int
	switch pattern {
	case AccessSequential:
		advice = unix.MADV_SEQUENTIAL
	case AccessRandom:
		advice = unix.MADV_RANDOM
	case AccessWillNeed:
		advice = unix.MADV_WILLNEED
	case AccessDontNeed:
		advice = unix.MADV_DONTNEED
	default:
		advice = unix.MADV_NORMAL
	}

	// madvise requires page-aligned addresses; the hint is advisory so an
	// alignment failure is not an error.
	err := unix.Madvise(data, advice)
	if err == unix.EINVAL {
		return nil
	}
	return err
}
