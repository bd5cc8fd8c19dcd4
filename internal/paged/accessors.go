package paged

import (
	"encoding/binary"
	"math"
)

// GetByte reads one byte at off.
func (f *File) GetByte(off int64) (byte, error) {
	var b [1]byte
	if err := f.read(b[:], off); err != nil {
		return 0, err
	}
	return b[0], nil
}

// PutByte writes one byte at off.
func (f *File) PutByte(off int64, v byte) error {
	b := [1]byte{v}
	return f.write(b[:], off)
}

// GetBool reads a one-byte boolean at off.
func (f *File) GetBool(off int64) (bool, error) {
	v, err := f.GetByte(off)
	return v != 0, err
}

// PutBool writes a one-byte boolean at off.
func (f *File) PutBool(off int64, v bool) error {
	var b byte
	if v {
		b = 1
	}
	return f.PutByte(off, b)
}

// GetInt16 reads a little-endian int16 at off.
func (f *File) GetInt16(off int64) (int16, error) {
	var b [2]byte
	if err := f.read(b[:], off); err != nil {
		return 0, err
	}
	return int16(binary.LittleEndian.Uint16(b[:])), nil //nolint:gosec
}

// PutInt16 writes a little-endian int16 at off.
func (f *File) PutInt16(off int64, v int16) error {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], uint16(v)) //nolint:gosec
	return f.write(b[:], off)
}

// GetChar reads a UTF-16 code unit at off.
func (f *File) GetChar(off int64) (uint16, error) {
	var b [2]byte
	if err := f.read(b[:], off); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b[:]), nil
}

// PutChar writes a UTF-16 code unit at off.
func (f *File) PutChar(off int64, v uint16) error {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	return f.write(b[:], off)
}

// GetInt32 reads a little-endian int32 at off.
func (f *File) GetInt32(off int64) (int32, error) {
	var b [4]byte
	if err := f.read(b[:], off); err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(b[:])), nil //nolint:gosec
}

// PutInt32 writes a little-endian int32 at off.
func (f *File) PutInt32(off int64, v int32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(v)) //nolint:gosec
	return f.write(b[:], off)
}

// GetInt64 reads a little-endian int64 at off.
func (f *File) GetInt64(off int64) (int64, error) {
	var b [8]byte
	if err := f.read(b[:], off); err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil //nolint:gosec
}

// PutInt64 writes a little-endian int64 at off.
func (f *File) PutInt64(off int64, v int64) error {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(v)) //nolint:gosec
	return f.write(b[:], off)
}

// GetFloat32 reads a little-endian IEEE 754 float32 at off.
func (f *File) GetFloat32(off int64) (float32, error) {
	v, err := f.GetInt32(off)
	return math.Float32frombits(uint32(v)), err //nolint:gosec
}

// PutFloat32 writes a little-endian IEEE 754 float32 at off.
func (f *File) PutFloat32(off int64, v float32) error {
	return f.PutInt32(off, int32(math.Float32bits(v))) //nolint:gosec
}

// GetFloat64 reads a little-endian IEEE 754 float64 at off.
func (f *File) GetFloat64(off int64) (float64, error) {
	v, err := f.GetInt64(off)
	return math.Float64frombits(uint64(v)), err //nolint:gosec
}

// PutFloat64 writes a little-endian IEEE 754 float64 at off.
func (f *File) PutFloat64(off int64, v float64) error {
	return f.PutInt64(off, int64(math.Float64bits(v))) //nolint:gosec
}
