package storage

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FS is an ObjectStore backed by a local directory tree. Each bucket is a
// directory under the root and object keys are slash-separated paths
// below it. It serves local mirrors of the report layout and the tests.
type FS struct {
	root string
}

// NewFS creates a filesystem-backed object store rooted at the given
// directory.
func NewFS(root string) *FS {
	return &FS{root: root}
}

// List walks the bucket directory and returns every file whose key starts
// with prefix.
func (s *FS) List(ctx context.Context, bucket, prefix string) ([]Object, error) {
	bucketDir := filepath.Join(s.root, bucket)
	if _, err := os.Stat(bucketDir); err != nil {
		return nil, fmt.Errorf("bucket %s: %w", bucket, err)
	}

	var objects []Object
	err := filepath.WalkDir(bucketDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(bucketDir, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		objects = append(objects, Object{
			Key:          key,
			Size:         info.Size(),
			LastModified: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s/%s: %w", bucket, prefix, err)
	}
	return objects, nil
}

// Get reads one object's bytes.
func (s *FS) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	data, err := os.ReadFile(filepath.Join(s.root, bucket, filepath.FromSlash(key)))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s/%s: %w", bucket, key, err)
	}
	return data, nil
}
