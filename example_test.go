package colstore_test

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/hupe1980/colstore"
	"github.com/hupe1980/colstore/backup"
	"github.com/hupe1980/colstore/blobstore"
)

// Example_fixedColumn demonstrates appending to and reading a fixed-width column.
func Example_fixedColumn() {
	dir, err := os.MkdirTemp("", "colstore-example")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "price.col")

	w, err := colstore.OpenFixedWriter(path, 8)
	if err != nil {
		log.Fatal(err)
	}
	for _, p := range []float64{10.5, 11.25, 9.75} {
		if err := w.PutFloat64(p); err != nil {
			log.Fatal(err)
		}
	}
	if err := w.Commit(); err != nil {
		log.Fatal(err)
	}
	_ = w.Close()

	r, err := colstore.OpenFixedReader(path, 8, colstore.ModeRead)
	if err != nil {
		log.Fatal(err)
	}
	defer r.Close()

	v, _ := r.GetFloat64(1)
	fmt.Println(r.Size(), v)
	// Output: 3 11.25
}

// Example_variableColumn demonstrates strings and nulls in a variable-width column.
func Example_variableColumn() {
	dir, err := os.MkdirTemp("", "colstore-example")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)
	base := filepath.Join(dir, "name")

	w, err := colstore.OpenVariableWriter(base)
	if err != nil {
		log.Fatal(err)
	}
	defer w.Close()

	_ = w.PutStr("alice")
	_ = w.PutNull()
	_ = w.PutStr("bob")
	if err := w.Commit(); err != nil {
		log.Fatal(err)
	}

	for i := range w.Size() {
		s, ok, _ := w.GetStr(i)
		fmt.Println(i, s, ok)
	}
	// Output:
	// 0 alice true
	// 1  false
	// 2 bob true
}

// Example_backup demonstrates backing up a column and restoring it elsewhere.
func Example_backup() {
	ctx := context.Background()
	dir, err := os.MkdirTemp("", "colstore-example")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)

	w, err := colstore.OpenFixedWriter(filepath.Join(dir, "id.col"), 4)
	if err != nil {
		log.Fatal(err)
	}
	defer w.Close()
	for i := range 100 {
		_ = w.PutInt32(int32(i))
	}
	_ = w.Commit()

	store := blobstore.NewMemoryStore()
	opts := backup.Options{Compression: backup.CompressionZstd}
	if _, err := colstore.Backup(ctx, store, "daily", []backup.Source{w}, opts); err != nil {
		log.Fatal(err)
	}

	restored := filepath.Join(dir, "restored")
	if _, err := colstore.Restore(ctx, store, "daily", "", restored, opts); err != nil {
		log.Fatal(err)
	}

	r, err := colstore.OpenFixedReader(filepath.Join(restored, "id.col"), 4, colstore.ModeRead)
	if err != nil {
		log.Fatal(err)
	}
	defer r.Close()
	v, _ := r.GetInt32(99)
	fmt.Println(r.Size(), v)
	// Output: 100 99
}
