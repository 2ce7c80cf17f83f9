// Package storage abstracts file storage behind a Disk interface with
// local filesystem and S3 implementations, selected by STORAGE_DISK.
package storage

import (
	"context"
	"errors"
	"io"

	"github.com/shashiranjanraj/pustak/config"
	"github.com/shashiranjanraj/pustak/pkg/apperr"
)

// Disk is the minimal file-store contract the app depends on.
type Disk interface {
	// Put writes contents to path, creating parents as needed.
	Put(ctx context.Context, path string, contents []byte) error
	// PutStream writes from r to path.
	PutStream(ctx context.Context, path string, r io.Reader) error
	// Get reads the full contents at path.
	Get(ctx context.Context, path string) ([]byte, error)
	// Exists reports whether path exists.
	Exists(ctx context.Context, path string) (bool, error)
	// Delete removes path. Deleting a missing path is not an error.
	Delete(ctx context.Context, path string) error
	// URL returns the public URL for path.
	URL(path string) string
}

var defaultDisk Disk

// Connect builds the default disk from configuration. Call once at boot.
func Connect(ctx context.Context) error {
	switch config.StorageDefault() {
	case "s3":
		disk, err := NewS3(ctx)
		if err != nil {
			return err
		}
		defaultDisk = disk
	default:
		defaultDisk = NewLocal(config.StorageLocalRoot(), config.StorageURL())
	}
	return nil
}

// Use returns the default disk.
func Use() Disk {
	return defaultDisk
}

// SetDefault overrides the default disk. Intended for tests.
func SetDefault(d Disk) {
	defaultDisk = d
}

// Put writes to the default disk.
func Put(ctx context.Context, path string, contents []byte) error {
	if defaultDisk == nil {
		return apperr.Internal(errors.New("storage: no default disk configured"))
	}
	return defaultDisk.Put(ctx, path, contents)
}

// URL resolves a path against the default disk.
func URL(path string) string {
	if defaultDisk == nil {
		return path
	}
	return defaultDisk.URL(path)
}
