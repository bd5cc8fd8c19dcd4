package backup

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/colstore/blobstore"
	"github.com/hupe1980/colstore/column"
)

const testPageBits = 12

type fixture struct {
	dir    string
	ints   *column.FixedWriter
	names  *column.VariableWriter
	values []string
}

func newFixture(t *testing.T, records int) *fixture {
	t.Helper()
	dir := t.TempDir()
	opts := column.Options{PageBits: testPageBits}

	ints, err := column.OpenFixedWriter(filepath.Join(dir, "id.col"), 8, opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ints.Close() })

	names, err := column.OpenVariableWriter(filepath.Join(dir, "name.d"), filepath.Join(dir, "name.i"), opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = names.Close() })

	f := &fixture{dir: dir, ints: ints, names: names}
	for i := range records {
		require.NoError(t, ints.PutInt64(int64(i*7)))
		if i%5 == 3 {
			require.NoError(t, names.PutNull())
			f.values = append(f.values, "")
			continue
		}
		s := fmt.Sprintf("name-%d-%s", i, bytes.Repeat([]byte{'x'}, i%40))
		require.NoError(t, names.PutStr(s))
		f.values = append(f.values, s)
	}
	require.NoError(t, ints.Commit())
	require.NoError(t, names.Commit())
	return f
}

func (f *fixture) sources() []Source {
	return []Source{f.ints, f.names}
}

func verifyRestored(t *testing.T, dir string, f *fixture) {
	t.Helper()
	opts := column.Options{PageBits: testPageBits}

	ints, err := column.OpenFixedReader(filepath.Join(dir, "id.col"), 8, column.ModeBulk, opts)
	require.NoError(t, err)
	defer ints.Close()
	require.Equal(t, int64(len(f.values)), ints.Size())
	for i := range len(f.values) {
		v, err := ints.GetInt64(int64(i))
		require.NoError(t, err)
		require.Equal(t, int64(i*7), v)
	}

	names, err := column.OpenVariableReader(filepath.Join(dir, "name.d"), filepath.Join(dir, "name.i"), column.ModeRead, opts)
	require.NoError(t, err)
	defer names.Close()
	require.Equal(t, int64(len(f.values)), names.Size())
	for i, want := range f.values {
		got, ok, err := names.GetStr(int64(i))
		require.NoError(t, err)
		assert.Equal(t, i%5 != 3, ok, "record %d", i)
		assert.Equal(t, want, got, "record %d", i)
	}
}

func TestRunRestore_RoundTrip(t *testing.T) {
	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZstd} {
		t.Run(c.String(), func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t, 3000)
			store := blobstore.NewMemoryStore()

			m, err := Run(ctx, store, "backups", f.sources(), Options{Compression: c, BlockSize: 4096, Concurrency: 2})
			require.NoError(t, err)
			require.Len(t, m.Files, 3)
			assert.Equal(t, c, m.Compression)

			e, ok := m.File("id.col")
			require.True(t, ok)
			assert.Equal(t, int64(3000*8), e.Size)
			if c != CompressionNone {
				// Small sequential integers compress well.
				assert.Less(t, e.StoredSize, e.Size)
			}

			dst := t.TempDir()
			restored, err := Restore(ctx, store, "backups", m.ID, dst, Options{})
			require.NoError(t, err)
			assert.Equal(t, m.ID, restored.ID)
			verifyRestored(t, dst, f)
		})
	}
}

func TestRun_OnlyCommittedBytes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 10)
	require.NoError(t, f.ints.PutInt64(99))
	require.NoError(t, f.names.PutStr("pending"))

	store := blobstore.NewMemoryStore()
	m, err := Run(ctx, store, "", f.sources(), Options{})
	require.NoError(t, err)

	e, ok := m.File("id.col")
	require.True(t, ok)
	assert.Equal(t, int64(80), e.Size)

	dst := t.TempDir()
	_, err = Restore(ctx, store, "", m.ID, dst, Options{})
	require.NoError(t, err)
	verifyRestored(t, dst, f)
}

func TestRun_LocalStore(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 500)
	store := blobstore.NewLocalStore(t.TempDir())

	m, err := Run(ctx, store, "nightly", f.sources(), Options{Compression: CompressionZstd})
	require.NoError(t, err)

	ids, err := List(ctx, store, "nightly")
	require.NoError(t, err)
	assert.Equal(t, []string{m.ID}, ids)

	dst := t.TempDir()
	_, err = Restore(ctx, store, "nightly", m.ID, dst, Options{IOLimitBytesPerSec: 1 << 30})
	require.NoError(t, err)
	verifyRestored(t, dst, f)
}

func TestRun_DuplicateNames(t *testing.T) {
	f := newFixture(t, 1)
	_, err := Run(context.Background(), blobstore.NewMemoryStore(), "", []Source{f.ints, f.ints}, Options{})
	assert.ErrorIs(t, err, ErrDuplicateFile)
}

func TestRun_CanceledContextLeavesNothing(t *testing.T) {
	f := newFixture(t, 100)
	store := blobstore.NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, store, "b", f.sources(), Options{})
	require.ErrorIs(t, err, context.Canceled)

	names, err := store.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestList_LatestAndDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 20)
	store := blobstore.NewMemoryStore()

	_, err := Latest(ctx, store, "p")
	require.ErrorIs(t, err, ErrNotFound)

	first, err := Run(ctx, store, "p", f.sources(), Options{})
	require.NoError(t, err)
	second, err := Run(ctx, store, "p", f.sources(), Options{})
	require.NoError(t, err)

	ids, err := List(ctx, store, "p")
	require.NoError(t, err)
	assert.Equal(t, []string{first.ID, second.ID}, ids)

	latest, err := Latest(ctx, store, "p")
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest)

	require.NoError(t, Delete(ctx, store, "p", first.ID))
	ids, err = List(ctx, store, "p")
	require.NoError(t, err)
	assert.Equal(t, []string{second.ID}, ids)

	names, err := store.List(ctx, "p/"+first.ID)
	require.NoError(t, err)
	assert.Empty(t, names)

	_, err = ReadManifest(ctx, store, "p", first.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRestore_InvalidID(t *testing.T) {
	store := blobstore.NewMemoryStore()
	for _, id := range []string{"", "..", "a/b"} {
		_, err := Restore(context.Background(), store, "", id, t.TempDir(), Options{})
		assert.ErrorIs(t, err, ErrInvalidID, "id %q", id)
	}
}

// corrupt rewrites a stored blob through fn.
func corrupt(t *testing.T, store *blobstore.MemoryStore, name string, fn func([]byte) []byte) {
	t.Helper()
	ctx := context.Background()
	b, err := store.Open(ctx, name)
	require.NoError(t, err)
	data, err := io.ReadAll(blobstore.NewReader(ctx, b))
	require.NoError(t, err)
	require.NoError(t, b.Close())
	require.NoError(t, store.Put(ctx, name, fn(bytes.Clone(data))))
}

func TestRestore_ChecksumMismatch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 100)
	store := blobstore.NewMemoryStore()
	m, err := Run(ctx, store, "", f.sources(), Options{Compression: CompressionNone})
	require.NoError(t, err)

	e, _ := m.File("id.col")
	corrupt(t, store, e.Blob, func(b []byte) []byte {
		b[len(b)-1] ^= 0xff
		return b
	})

	dst := t.TempDir()
	_, err = Restore(ctx, store, "", m.ID, dst, Options{})
	require.ErrorIs(t, err, ErrChecksumMismatch)

	entries, err := filepath.Glob(filepath.Join(dst, "id.col*"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRestore_TruncatedBlob(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 100)
	store := blobstore.NewMemoryStore()
	m, err := Run(ctx, store, "", f.sources(), Options{Compression: CompressionLZ4})
	require.NoError(t, err)

	e, _ := m.File("name.d")
	corrupt(t, store, e.Blob, func(b []byte) []byte { return b[:len(b)/2] })

	_, err = Restore(ctx, store, "", m.ID, t.TempDir(), Options{})
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestRestore_MemoryLimitTooSmall(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 10)
	store := blobstore.NewMemoryStore()
	m, err := Run(ctx, store, "", f.sources(), Options{BlockSize: 4096})
	require.NoError(t, err)

	_, err = Restore(ctx, store, "", m.ID, t.TempDir(), Options{MemoryLimitBytes: 1024})
	assert.Error(t, err)
}
