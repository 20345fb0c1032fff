package storage

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"
)

type memoryObject struct {
	data        []byte
	contentType string
}

// MemoryObjectStorage keeps objects in process memory. Presigned URLs point
// at a fake host and are only useful to tests and local development.
type MemoryObjectStorage struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
	baseURL string
	expiry  time.Duration
}

// NewMemoryObjectStorage creates an empty store
func NewMemoryObjectStorage(expiry time.Duration) *MemoryObjectStorage {
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}
	return &MemoryObjectStorage{
		objects: make(map[string]memoryObject),
		baseURL: "http://storage.local",
		expiry:  expiry,
	}
}

// PresignUpload implements ObjectStore
func (m *MemoryObjectStorage) PresignUpload(_ context.Context, key, contentType string, expiresIn time.Duration) (PresignedURL, error) {
	if key == "" {
		return PresignedURL{}, errEmptyKey
	}
	return m.sign(http.MethodPut, key, expiresIn, url.Values{"content-type": {contentType}}), nil
}

// PresignDownload implements ObjectStore
func (m *MemoryObjectStorage) PresignDownload(_ context.Context, key string, expiresIn time.Duration) (PresignedURL, error) {
	if key == "" {
		return PresignedURL{}, errEmptyKey
	}
	return m.sign(http.MethodGet, key, expiresIn, url.Values{}), nil
}

func (m *MemoryObjectStorage) sign(method, key string, expiresIn time.Duration, q url.Values) PresignedURL {
	if expiresIn <= 0 {
		expiresIn = m.expiry
	}
	expiresAt := time.Now().Add(expiresIn)
	q.Set("expires", strconv.FormatInt(expiresAt.Unix(), 10))
	return PresignedURL{
		URL:       m.baseURL + "/" + key + "?" + q.Encode(),
		Method:    method,
		ExpiresAt: expiresAt,
	}
}

// Put implements ObjectStore
func (m *MemoryObjectStorage) Put(_ context.Context, key string, data []byte, contentType string) error {
	if key == "" {
		return errEmptyKey
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	m.mu.Lock()
	m.objects[key] = memoryObject{data: buf, contentType: contentType}
	m.mu.Unlock()
	return nil
}

// Stat implements ObjectStore
func (m *MemoryObjectStorage) Stat(_ context.Context, key string) (ObjectInfo, error) {
	if key == "" {
		return ObjectInfo{}, errEmptyKey
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	if !ok {
		return ObjectInfo{}, ErrObjectNotFound
	}
	return ObjectInfo{Key: key, Size: int64(len(obj.data)), ContentType: obj.contentType}, nil
}

// Delete implements ObjectStore
func (m *MemoryObjectStorage) Delete(_ context.Context, key string) error {
	if key == "" {
		return errEmptyKey
	}
	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()
	return nil
}

// Get returns a copy of the stored bytes
func (m *MemoryObjectStorage) Get(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	if !ok {
		return nil, false
	}
	out := make([]byte, len(obj.data))
	copy(out, obj.data)
	return out, true
}
