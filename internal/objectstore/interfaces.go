package objectstore

import "context"

// Store defines the object-store operations the pipeline stages depend on.
type Store interface {
	// List returns every key under prefix ending with suffix, following
	// pagination to the end.
	List(ctx context.Context, bucket, prefix, suffix string) ([]string, error)

	// Get reads the full body of an object.
	Get(ctx context.Context, bucket, key string) ([]byte, error)

	// Put writes an object, overwriting any previous version.
	Put(ctx context.Context, bucket, key string, body []byte, contentType string) error

	// EnsureBucket creates the bucket if it does not exist yet.
	EnsureBucket(ctx context.Context, bucket string) error
}
