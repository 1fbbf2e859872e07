package storage

import (
	"context"
	"time"
)

// Object describes one stored object as returned by a listing.
type Object struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// ObjectStore is the object-storage capability the pipeline consumes.
// The concrete cloud client lives outside this repository; the pipeline
// only ever lists a prefix and fetches whole objects.
type ObjectStore interface {
	// List returns every object under prefix in the bucket. The order is
	// unspecified; callers needing a deterministic order sort the result.
	List(ctx context.Context, bucket, prefix string) ([]Object, error)
	// Get returns the raw bytes of one object.
	Get(ctx context.Context, bucket, key string) ([]byte, error)
}
