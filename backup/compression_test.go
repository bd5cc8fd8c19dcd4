package backup

import (
	"bytes"
	"io"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func blockRoundTrip(t *testing.T, data []byte, c Compression, blockSize int) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := newBlockWriter(&buf, c, blockSize)
	_, err := w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	assert.Equal(t, int64(buf.Len()), w.BytesWritten())

	got, err := io.ReadAll(newBlockReader(&buf, c, blockSize))
	require.NoError(t, err)
	return got
}

func TestBlocks_RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	random := make([]byte, 10000)
	for i := range random {
		random[i] = byte(rng.Uint32())
	}
	repetitive := bytes.Repeat([]byte("column"), 2000)

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"one byte", []byte{7}},
		{"random", random},
		{"repetitive", repetitive},
		{"exact block", repetitive[:1024]},
	}
	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZstd} {
		for _, tt := range tests {
			t.Run(c.String()+"/"+tt.name, func(t *testing.T) {
				got := blockRoundTrip(t, tt.data, c, 1024)
				assert.Equal(t, len(tt.data), len(got))
				assert.True(t, bytes.Equal(tt.data, got))
			})
		}
	}
}

func TestBlocks_IncompressibleStoredRaw(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 6))
	data := make([]byte, 4096)
	for i := range data {
		data[i] = byte(rng.Uint32())
	}
	var buf bytes.Buffer
	w := newBlockWriter(&buf, CompressionZstd, 4096)
	_, err := w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	assert.Equal(t, blockHeaderSize+len(data), buf.Len())
}

func TestBlocks_CorruptHeader(t *testing.T) {
	var buf bytes.Buffer
	w := newBlockWriter(&buf, CompressionLZ4, 1024)
	_, err := w.Write(bytes.Repeat([]byte{1}, 1024))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	b := buf.Bytes()
	b[0] = 0xff // raw size beyond the block size
	_, err = io.ReadAll(newBlockReader(bytes.NewReader(b), CompressionLZ4, 1024))
	assert.ErrorIs(t, err, ErrCorrupt)

	_, err = io.ReadAll(newBlockReader(bytes.NewReader(buf.Bytes()[:5]), CompressionLZ4, 1024))
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestCompression_String(t *testing.T) {
	assert.Equal(t, "none", CompressionNone.String())
	assert.Equal(t, "lz4", CompressionLZ4.String())
	assert.Equal(t, "zstd", CompressionZstd.String())
	assert.Equal(t, "compression(9)", Compression(9).String())
}
