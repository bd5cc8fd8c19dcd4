package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/colstore/blobstore"
	"github.com/hupe1980/colstore/codec"
	"github.com/hupe1980/colstore/column"
	"github.com/hupe1980/colstore/internal/fs"
	"github.com/hupe1980/colstore/internal/hash"
	"github.com/hupe1980/colstore/internal/paged"
	"github.com/hupe1980/colstore/internal/resource"
)

var (
	// ErrCorrupt is returned when a backup blob cannot be decoded.
	ErrCorrupt = errors.New("backup: corrupt blob")
	// ErrChecksumMismatch is returned when restored bytes do not match the
	// checksum recorded in the manifest.
	ErrChecksumMismatch = errors.New("backup: checksum mismatch")
	// ErrDuplicateFile is returned when two sources share a file name.
	ErrDuplicateFile = errors.New("backup: duplicate file name")
	// ErrNotFound is returned when a backup ID does not exist.
	ErrNotFound = errors.New("backup: not found")
	// ErrInvalidID is returned for malformed backup IDs.
	ErrInvalidID = errors.New("backup: invalid id")
)

// Source is anything that exposes committed column files, such as the column
// readers and writers.
type Source interface {
	Segments() []column.Segment
}

// conditionalPutter is implemented by stores that can refuse to overwrite.
type conditionalPutter interface {
	PutIfNotExists(ctx context.Context, name string, data []byte) error
}

// Options configures Run and Restore.
type Options struct {
	// Compression applied to uploaded blocks. Ignored by Restore, which uses
	// the manifest's value.
	Compression Compression
	// BlockSize is the uncompressed block size. Defaults to DefaultBlockSize.
	BlockSize int
	// Concurrency is the number of files transferred at once. Defaults to 4.
	Concurrency int
	// IOLimitBytesPerSec caps transfer throughput. 0 means unlimited.
	IOLimitBytesPerSec int64
	// MemoryLimitBytes caps block buffer memory. 0 means unlimited.
	MemoryLimitBytes int64
	// Codec encodes the manifest. Defaults to codec.Default.
	Codec codec.Codec
	// Logger receives progress logs. Defaults to a discarding logger.
	Logger *slog.Logger
	// FS is the file system Restore writes to. Defaults to the local one.
	FS fs.FileSystem
}

func (o Options) withDefaults() Options {
	if o.BlockSize <= 0 {
		o.BlockSize = DefaultBlockSize
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 4
	}
	if o.Codec == nil {
		o.Codec = codec.Default
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	if o.FS == nil {
		o.FS = fs.Default
	}
	return o
}

func (o Options) controller() *resource.Controller {
	return resource.NewController(resource.Config{
		MemoryLimitBytes:     o.MemoryLimitBytes,
		MaxBackgroundWorkers: int64(o.Concurrency),
		IOLimitBytesPerSec:   o.IOLimitBytesPerSec,
	})
}

// Run uploads the committed files of sources as a new backup under prefix
// and returns its manifest. On failure every uploaded blob is removed.
func Run(ctx context.Context, store blobstore.BlobStore, prefix string, sources []Source, opts Options) (*Manifest, error) {
	opts = opts.withDefaults()
	if opts.Compression > CompressionZstd {
		return nil, fmt.Errorf("backup: unknown compression %d", opts.Compression)
	}

	var segs []column.Segment
	seen := make(map[string]struct{})
	for _, src := range sources {
		for _, seg := range src.Segments() {
			if _, ok := seen[seg.Name]; ok {
				return nil, fmt.Errorf("%w: %s", ErrDuplicateFile, seg.Name)
			}
			seen[seg.Name] = struct{}{}
			segs = append(segs, seg)
		}
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("backup: generate id: %w", err)
	}
	m := &Manifest{
		Version:     ManifestVersion,
		ID:          id.String(),
		CreatedAt:   time.Now().UTC(),
		Compression: opts.Compression,
		BlockSize:   opts.BlockSize,
		Files:       make([]FileEntry, len(segs)),
	}
	logger := opts.Logger.With("backup_id", m.ID)
	start := time.Now()

	rc := opts.controller()
	g, gctx := errgroup.WithContext(ctx)
	for i, seg := range segs {
		g.Go(func() error {
			e, err := upload(gctx, store, rc, prefix, m, seg)
			if err != nil {
				return fmt.Errorf("backup %s: %w", seg.Name, err)
			}
			m.Files[i] = e
			logger.Debug("file uploaded", "file", e.Name, "size", e.Size, "stored", e.StoredSize)
			return nil
		})
	}
	err = g.Wait()
	if err == nil {
		err = putManifest(ctx, store, prefix, m, opts.Codec)
	}
	if err != nil {
		if cerr := removeAll(context.WithoutCancel(ctx), store, prefix, m.ID); cerr != nil {
			logger.Warn("backup cleanup failed", "error", cerr)
		}
		return nil, err
	}

	logger.Info("backup complete",
		"files", len(m.Files),
		"bytes", m.TotalSize(),
		"duration", time.Since(start))
	return m, nil
}

func upload(ctx context.Context, store blobstore.BlobStore, rc *resource.Controller, prefix string, m *Manifest, seg column.Segment) (FileEntry, error) {
	if err := rc.AcquireBackground(ctx); err != nil {
		return FileEntry{}, err
	}
	defer rc.ReleaseBackground()

	mem := int64(2 * m.BlockSize)
	if err := rc.AcquireMemory(ctx, mem); err != nil {
		return FileEntry{}, err
	}
	defer rc.ReleaseMemory(mem)

	e := FileEntry{
		Name: seg.Name,
		Size: seg.Size,
		Blob: blobPath(prefix, m.ID, seg.Name),
	}
	wb, err := store.Create(ctx, e.Blob)
	if err != nil {
		return FileEntry{}, err
	}

	crc := hash.NewCRC32C()
	bw := newBlockWriter(resource.NewRateLimitedWriter(ctx, wb, rc), m.Compression, m.BlockSize)
	src := io.NewSectionReader(seg.Reader, 0, seg.Size)

	n, err := io.Copy(io.MultiWriter(bw, crc), src)
	if err == nil && n != seg.Size {
		err = fmt.Errorf("%w: read %d of %d bytes", io.ErrUnexpectedEOF, n, seg.Size)
	}
	if err == nil {
		err = bw.Close()
	}
	if err != nil {
		abort(wb)
		return FileEntry{}, err
	}
	if err := wb.Close(); err != nil {
		return FileEntry{}, err
	}

	e.StoredSize = bw.BytesWritten()
	e.Checksum = crc.Sum32()
	return e, nil
}

func abort(wb blobstore.WritableBlob) {
	if a, ok := wb.(blobstore.Aborter); ok {
		_ = a.Abort()
		return
	}
	_ = wb.Close()
}

func putManifest(ctx context.Context, store blobstore.BlobStore, prefix string, m *Manifest, c codec.Codec) error {
	data, err := encodeManifest(c, m)
	if err != nil {
		return err
	}
	name := manifestPath(prefix, m.ID)
	if cp, ok := store.(conditionalPutter); ok {
		return cp.PutIfNotExists(ctx, name, data)
	}
	return store.Put(ctx, name, data)
}

func validID(id string) error {
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

// ReadManifest loads the manifest of backup id.
func ReadManifest(ctx context.Context, store blobstore.BlobStore, prefix, id string) (*Manifest, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	b, err := store.Open(ctx, manifestPath(prefix, id))
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, err
	}
	defer b.Close()

	data, err := io.ReadAll(blobstore.NewReader(ctx, b))
	if err != nil {
		return nil, err
	}
	m, err := decodeManifest(data)
	if err != nil {
		return nil, err
	}
	if m.ID != id {
		return nil, fmt.Errorf("%w: manifest id %s under %s", ErrInvalidManifest, m.ID, id)
	}
	return m, nil
}

// List returns the IDs of the complete backups under prefix, oldest first.
func List(ctx context.Context, store blobstore.BlobStore, prefix string) ([]string, error) {
	root := prefix
	if root != "" && !strings.HasSuffix(root, "/") {
		root += "/"
	}
	names, err := store.List(ctx, root)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, name := range names {
		dir, file := path.Split(strings.TrimPrefix(name, root))
		if file != manifestName {
			continue
		}
		if id := strings.TrimSuffix(dir, "/"); id != "" && !strings.Contains(id, "/") {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// Latest returns the ID of the newest backup under prefix.
func Latest(ctx context.Context, store blobstore.BlobStore, prefix string) (string, error) {
	ids, err := List(ctx, store, prefix)
	if err != nil {
		return "", err
	}
	if len(ids) == 0 {
		return "", fmt.Errorf("%w: no backups under %q", ErrNotFound, prefix)
	}
	return ids[len(ids)-1], nil
}

// Delete removes backup id. The manifest goes first so a partially deleted
// backup is never listed.
func Delete(ctx context.Context, store blobstore.BlobStore, prefix, id string) error {
	if err := validID(id); err != nil {
		return err
	}
	if err := store.Delete(ctx, manifestPath(prefix, id)); err != nil {
		return err
	}
	return removeAll(ctx, store, prefix, id)
}

func removeAll(ctx context.Context, store blobstore.BlobStore, prefix, id string) error {
	names, err := store.List(ctx, path.Join(prefix, id)+"/")
	if err != nil {
		return err
	}
	var errs []error
	for _, name := range names {
		if err := store.Delete(ctx, name); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Restore writes the files of backup id into dir and returns the manifest.
// Each file is verified against its checksum before it replaces any file of
// the same name in dir. Columns in dir must not be open.
func Restore(ctx context.Context, store blobstore.BlobStore, prefix, id, dir string, opts Options) (*Manifest, error) {
	opts = opts.withDefaults()
	m, err := ReadManifest(ctx, store, prefix, id)
	if err != nil {
		return nil, err
	}
	if err := opts.FS.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	logger := opts.Logger.With("backup_id", id)
	start := time.Now()

	rc := opts.controller()
	g, gctx := errgroup.WithContext(ctx)
	for _, e := range m.Files {
		g.Go(func() error {
			if err := restoreFile(gctx, store, rc, opts.FS, m, e, dir); err != nil {
				return fmt.Errorf("restore %s: %w", e.Name, err)
			}
			logger.Debug("file restored", "file", e.Name, "size", e.Size)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	logger.Info("restore complete",
		"files", len(m.Files),
		"bytes", m.TotalSize(),
		"duration", time.Since(start))
	return m, nil
}

func restoreFile(ctx context.Context, store blobstore.BlobStore, rc *resource.Controller, fsys fs.FileSystem, m *Manifest, e FileEntry, dir string) (err error) {
	if e.Name != filepath.Base(e.Name) || validID(e.Name) != nil {
		return fmt.Errorf("%w: file name %q", ErrInvalidManifest, e.Name)
	}
	if err := rc.AcquireBackground(ctx); err != nil {
		return err
	}
	defer rc.ReleaseBackground()

	mem := int64(2 * m.BlockSize)
	if err := rc.AcquireMemory(ctx, mem); err != nil {
		return err
	}
	defer rc.ReleaseMemory(mem)

	b, err := store.Open(ctx, e.Blob)
	if err != nil {
		return err
	}
	defer b.Close()
	if b.Size() != e.StoredSize {
		return fmt.Errorf("%w: blob is %d bytes, manifest says %d", ErrCorrupt, b.Size(), e.StoredSize)
	}

	target := filepath.Join(dir, e.Name)
	tmp := target + ".restore"
	defer func() {
		if err != nil {
			_ = fsys.Remove(tmp)
		}
	}()

	crc := hash.NewCRC32C()
	br := newBlockReader(resource.NewRateLimitedReader(ctx, blobstore.NewReader(ctx, b), rc), m.Compression, m.BlockSize)
	if err := paged.WriteFile(fsys, tmp, io.TeeReader(br, crc), e.Size); err != nil {
		if errors.Is(err, paged.ErrInvalidSize) {
			return fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		return err
	}
	if _, err := br.Read(make([]byte, 1)); !errors.Is(err, io.EOF) {
		if err == nil {
			return fmt.Errorf("%w: trailing data", ErrCorrupt)
		}
		return err
	}
	if got := crc.Sum32(); got != e.Checksum {
		return fmt.Errorf("%w: got %08x, want %08x", ErrChecksumMismatch, got, e.Checksum)
	}
	if err := fsys.Rename(tmp, target); err != nil {
		return err
	}
	return nil
}

