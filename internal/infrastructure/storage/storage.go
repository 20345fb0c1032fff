// Package storage provides object storage for avatars and job results.
package storage

import (
	"errors"
	"fmt"
	"time"

	"github.com/farmmarket/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// ErrObjectNotFound is returned by Stat for a missing key
var ErrObjectNotFound = errors.New("object not found")

var errEmptyKey = errors.New("storage key is required")

// ObjectInfo describes a stored object
type ObjectInfo struct {
	Key         string
	Size        int64
	ContentType string
}

// PresignedURL is a time-limited URL for direct client access
type PresignedURL struct {
	URL       string
	Method    string
	ExpiresAt time.Time
}

// New builds the storage backend selected by cfg.Driver
func New(cfg config.StorageConfig, logger *zap.Logger) (ObjectStore, error) {
	switch cfg.Driver {
	case "s3":
		return NewS3ObjectStorage(cfg, WithLogger(logger))
	case "memory", "":
		logger.Warn("using in-memory object storage; objects are lost on restart")
		return NewMemoryObjectStorage(cfg.PresignExpiry), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
