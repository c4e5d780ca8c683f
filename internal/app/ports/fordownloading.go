package ports

import "context"

type ForDownloading interface {
	// Download returns the content of key in bucket.
	Download(ctx context.Context, bucket, key string) ([]byte, error)
	// GetSize returns the size in bytes of key in bucket.
	GetSize(ctx context.Context, bucket, key string) (int64, error)
	// IsNotFound reports whether err means the key does not exist.
	IsNotFound(err error) bool
}
