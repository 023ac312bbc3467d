package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

// Memory keeps objects in process. It backs storage.type = "memory", which is
// meant for local development and tests.
type Memory struct {
	mu      sync.RWMutex
	bucket  string
	objects map[string][]byte
	types   map[string]string

	deleteErr error
}

func NewMemory(bucket string) *Memory {
	return &Memory{
		bucket:  bucket,
		objects: map[string][]byte{},
		types:   map[string]string{},
	}
}

func (m *Memory) Bucket() string { return m.bucket }

func (m *Memory) Put(_ context.Context, key string, r io.Reader, _ int64, contentType string) (*Object, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read object body, %w", err)
	}

	m.mu.Lock()
	m.objects[key] = b
	m.types[key] = contentType
	m.mu.Unlock()

	return &Object{
		Key:    key,
		Bucket: m.bucket,
		URL:    "memory://" + m.bucket + "/" + key,
		Size:   int64(len(b)),
	}, nil
}

func (m *Memory) Get(_ context.Context, key string) (io.ReadCloser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.objects[key]
	if !ok {
		return nil, ErrObjectNotFound
	}

	return io.NopCloser(bytes.NewReader(b)), nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.deleteErr != nil {
		return m.deleteErr
	}

	delete(m.objects, key)
	delete(m.types, key)
	return nil
}

func (m *Memory) PresignGet(_ context.Context, key string, ttl time.Duration, _ string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.objects[key]; !ok {
		return "", ErrObjectNotFound
	}

	return fmt.Sprintf("memory://%s/%s?expires=%d", m.bucket, key, time.Now().Add(ttl).Unix()), nil
}

// Has reports whether key is stored
func (m *Memory) Has(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.objects[key]
	return ok
}

// SetDeleteErr makes every Delete fail with err until it's reset with nil
func (m *Memory) SetDeleteErr(err error) {
	m.mu.Lock()
	m.deleteErr = err
	m.mu.Unlock()
}
