package backup

import (
	"bytes"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/hupe1980/colstore/codec"
)

// ManifestVersion is the manifest format written by this package.
const ManifestVersion = 1

const manifestName = "MANIFEST"

// ErrInvalidManifest is returned when a manifest cannot be decoded.
var ErrInvalidManifest = errors.New("backup: invalid manifest")

// FileEntry describes one column file in a backup.
type FileEntry struct {
	// Name is the base name of the column file.
	Name string `json:"name"`
	// Size is the committed logical size of the file in bytes.
	Size int64 `json:"size"`
	// StoredSize is the size of the uploaded blob.
	StoredSize int64 `json:"stored_size"`
	// Checksum is the CRC32C of the committed logical bytes.
	Checksum uint32 `json:"checksum"`
	// Blob is the blob name relative to the store root.
	Blob string `json:"blob"`
}

// Manifest lists the files of one backup.
type Manifest struct {
	Version     int         `json:"version"`
	ID          string      `json:"id"`
	CreatedAt   time.Time   `json:"created_at"`
	Compression Compression `json:"compression"`
	BlockSize   int         `json:"block_size"`
	Files       []FileEntry `json:"files"`
}

// TotalSize returns the sum of the logical file sizes.
func (m *Manifest) TotalSize() int64 {
	var n int64
	for _, f := range m.Files {
		n += f.Size
	}
	return n
}

// File returns the entry named name.
func (m *Manifest) File(name string) (FileEntry, bool) {
	for _, f := range m.Files {
		if f.Name == name {
			return f, true
		}
	}
	return FileEntry{}, false
}

func manifestPath(prefix, id string) string {
	return path.Join(prefix, id, manifestName)
}

func blobPath(prefix, id, name string) string {
	return path.Join(prefix, id, name+".blk")
}

// encodeManifest writes the codec name on the first line followed by the body.
func encodeManifest(c codec.Codec, m *Manifest) ([]byte, error) {
	body, err := c.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("backup: encode manifest: %w", err)
	}
	out := make([]byte, 0, len(c.Name())+1+len(body))
	out = append(out, c.Name()...)
	out = append(out, '\n')
	return append(out, body...), nil
}

func decodeManifest(data []byte) (*Manifest, error) {
	name, body, ok := bytes.Cut(data, []byte{'\n'})
	if !ok {
		return nil, fmt.Errorf("%w: missing codec header", ErrInvalidManifest)
	}
	c, ok := codec.ByName(string(name))
	if !ok {
		return nil, fmt.Errorf("%w: unknown codec %q", ErrInvalidManifest, name)
	}
	var m Manifest
	if err := c.Unmarshal(body, &m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}
	if m.Version != ManifestVersion {
		return nil, fmt.Errorf("%w: version %d", ErrInvalidManifest, m.Version)
	}
	if m.BlockSize <= 0 {
		return nil, fmt.Errorf("%w: block size %d", ErrInvalidManifest, m.BlockSize)
	}
	return &m, nil
}
