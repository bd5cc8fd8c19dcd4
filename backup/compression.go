package backup

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the block compression applied to uploaded images.
type Compression uint8

const (
	// CompressionNone stores blocks as they are.
	CompressionNone Compression = 0
	// CompressionLZ4 uses LZ4 block compression (fast).
	CompressionLZ4 Compression = 1
	// CompressionZstd uses Zstandard (better ratio).
	CompressionZstd Compression = 2
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

// DefaultBlockSize is the uncompressed size of one block.
const DefaultBlockSize = 1 << 20

// Block layout: [rawSize uint32][storedSize uint32][data]. storedSize 0 means
// the block is stored uncompressed.
const blockHeaderSize = 8


var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() (*zstd.Encoder, error) {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder), nil
	}
	return zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
}

func getZstdDecoder() (*zstd.Decoder, error) {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder), nil
	}
	return zstd.NewReader(nil)
}

// compress returns the compressed form of data, or nil when compression does
// not save at least 10%.
func compress(data []byte, c Compression) ([]byte, error) {
	var out []byte
	switch c {
	case CompressionNone:
		return nil, nil
	case CompressionLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, buf, nil)
		if err != nil {
			return nil, err
		}
		out = buf[:n]
	case CompressionZstd:
		enc, err := getZstdEncoder()
		if err != nil {
			return nil, err
		}
		out = enc.EncodeAll(data, nil)
		zstdEncoderPool.Put(enc)
	default:
		return nil, fmt.Errorf("backup: unknown compression %d", c)
	}
	if len(out) == 0 || float64(len(out)) > float64(len(data))*0.9 {
		return nil, nil
	}
	return out, nil
}

func decompress(dst, src []byte, c Compression) error {
	switch c {
	case CompressionLZ4:
		n, err := lz4.UncompressBlock(src, dst)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		if n != len(dst) {
			return fmt.Errorf("%w: decompressed %d of %d bytes", ErrCorrupt, n, len(dst))
		}
		return nil
	case CompressionZstd:
		dec, err := getZstdDecoder()
		if err != nil {
			return err
		}
		defer zstdDecoderPool.Put(dec)
		out, err := dec.DecodeAll(src, dst[:0])
		if err != nil {
			return fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		if len(out) != len(dst) {
			return fmt.Errorf("%w: decompressed %d of %d bytes", ErrCorrupt, len(out), len(dst))
		}
		return nil
	default:
		return fmt.Errorf("%w: compressed block under compression %s", ErrCorrupt, c)
	}
}

// blockWriter buffers writes into fixed-size blocks and writes each one
// framed, compressed when that helps.
type blockWriter struct {
	w           io.Writer
	compression Compression
	buf         []byte
	hdr         [blockHeaderSize]byte
	written     int64
}

func newBlockWriter(w io.Writer, c Compression, blockSize int) *blockWriter {
	return &blockWriter{
		w:           w,
		compression: c,
		buf:         make([]byte, 0, blockSize),
	}
}

func (b *blockWriter) Write(p []byte) (int, error) {
	total := 0
	for len(p) > 0 {
		n := copy(b.buf[len(b.buf):cap(b.buf)], p)
		b.buf = b.buf[:len(b.buf)+n]
		total += n
		p = p[n:]
		if len(b.buf) == cap(b.buf) {
			if err := b.flushBlock(); err != nil {
				return total, err
			}
		}
	}
	return total, nil
}

func (b *blockWriter) flushBlock() error {
	if len(b.buf) == 0 {
		return nil
	}
	packed, err := compress(b.buf, b.compression)
	if err != nil {
		return err
	}

	binary.LittleEndian.PutUint32(b.hdr[0:], uint32(len(b.buf)))  //nolint:gosec // bounded by block size
	binary.LittleEndian.PutUint32(b.hdr[4:], uint32(len(packed))) //nolint:gosec // smaller than the block
	payload := packed
	if payload == nil {
		payload = b.buf
	}
	for _, chunk := range [][]byte{b.hdr[:], payload} {
		n, err := b.w.Write(chunk)
		b.written += int64(n)
		if err != nil {
			return err
		}
	}
	b.buf = b.buf[:0]
	return nil
}

// Close flushes the final partial block. It does not close the underlying writer.
func (b *blockWriter) Close() error {
	return b.flushBlock()
}

// BytesWritten returns the framed bytes written so far.
func (b *blockWriter) BytesWritten() int64 {
	return b.written
}

// blockReader decodes a framed block stream.
type blockReader struct {
	r           io.Reader
	compression Compression
	maxBlock    int
	block       []byte
	packed      []byte
	pos         int
}

func newBlockReader(r io.Reader, c Compression, maxBlock int) *blockReader {
	return &blockReader{r: r, compression: c, maxBlock: maxBlock}
}

func (b *blockReader) Read(p []byte) (int, error) {
	for b.pos == len(b.block) {
		if err := b.next(); err != nil {
			return 0, err
		}
	}
	n := copy(p, b.block[b.pos:])
	b.pos += n
	return n, nil
}

func (b *blockReader) next() error {
	var hdr [blockHeaderSize]byte
	if _, err := io.ReadFull(b.r, hdr[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("%w: truncated header", ErrCorrupt)
		}
		return err // io.EOF at a block boundary ends the stream
	}
	raw := int(binary.LittleEndian.Uint32(hdr[0:]))
	stored := int(binary.LittleEndian.Uint32(hdr[4:]))
	if raw == 0 || raw > b.maxBlock || stored >= raw {
		return fmt.Errorf("%w: sizes raw=%d stored=%d", ErrCorrupt, raw, stored)
	}

	if cap(b.block) < raw {
		b.block = make([]byte, raw)
	}
	b.block = b.block[:raw]
	b.pos = 0

	if stored == 0 {
		if _, err := io.ReadFull(b.r, b.block); err != nil {
			return fmt.Errorf("%w: truncated block: %w", ErrCorrupt, err)
		}
		return nil
	}
	if cap(b.packed) < stored {
		b.packed = make([]byte, stored)
	}
	b.packed = b.packed[:stored]
	if _, err := io.ReadFull(b.r, b.packed); err != nil {
		return fmt.Errorf("%w: truncated block: %w", ErrCorrupt, err)
	}
	return decompress(b.block, b.packed, b.compression)
}
