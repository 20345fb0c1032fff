package storage

import (
	"context"
	"time"
)

// ObjectStore is implemented by every storage backend
type ObjectStore interface {
	PresignUpload(ctx context.Context, key, contentType string, expiresIn time.Duration) (PresignedURL, error)
	PresignDownload(ctx context.Context, key string, expiresIn time.Duration) (PresignedURL, error)
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Stat(ctx context.Context, key string) (ObjectInfo, error)
	Delete(ctx context.Context, key string) error
}

var (
	_ ObjectStore = (*S3ObjectStorage)(nil)
	_ ObjectStore = (*MemoryObjectStorage)(nil)
)
