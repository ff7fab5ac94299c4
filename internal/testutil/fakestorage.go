// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"errors"
	"sync"
	"time"

	"tabnotes/internal/service"
)

// ErrNotFound is returned when a resource is not found.
var ErrNotFound = errors.New("not found")

// FixedTime is the clock value used by tests: 05/03/2024.
var FixedTime = time.Date(2024, time.March, 5, 10, 30, 0, 0, time.UTC)

// FixedClock returns FixedTime.
func FixedClock() time.Time { return FixedTime }

// MemStorage is an in-memory implementation of service.Storage for testing.
type MemStorage struct {
	mu     sync.RWMutex
	values map[string]string
	puts   int

	// Error injection for testing
	GetErr error
	PutErr error
}

// NewMemStorage creates an empty MemStorage.
func NewMemStorage() *MemStorage {
	return &MemStorage{values: make(map[string]string)}
}

// Set stores a raw value, bypassing error injection.
func (m *MemStorage) Set(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
}

// Value returns the raw stored value.
func (m *MemStorage) Value(key string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.values[key]
}

// Puts returns how many successful Put calls were made.
func (m *MemStorage) Puts() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.puts
}

// Get implements service.Storage.
func (m *MemStorage) Get(ctx context.Context, key string) (string, bool, error) {
	if m.GetErr != nil {
		return "", false, m.GetErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

// Put implements service.Storage.
func (m *MemStorage) Put(ctx context.Context, entries ...service.Entry) error {
	if m.PutErr != nil {
		return m.PutErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range entries {
		m.values[e.Key] = e.Value
	}
	m.puts++
	return nil
}

// Close implements service.Storage.
func (m *MemStorage) Close() error { return nil }

// FakeRemote is an in-memory implementation of service.Remote for testing.
type FakeRemote struct {
	mu    sync.RWMutex
	files map[string][]byte
	order []string

	UploadErr   error
	DownloadErr error
	ListErr     error
}

// NewFakeRemote creates an empty FakeRemote.
func NewFakeRemote() *FakeRemote {
	return &FakeRemote{files: make(map[string][]byte)}
}

// File returns the stored contents of name.
func (f *FakeRemote) File(name string) ([]byte, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	data, ok := f.files[name]
	return data, ok
}

// Upload implements service.Remote.
func (f *FakeRemote) Upload(ctx context.Context, name string, data []byte) error {
	if f.UploadErr != nil {
		return f.UploadErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.files[name]; !exists {
		f.order = append(f.order, name)
	}
	f.files[name] = append([]byte(nil), data...)
	return nil
}

// Download implements service.Remote.
func (f *FakeRemote) Download(ctx context.Context, name string) ([]byte, error) {
	if f.DownloadErr != nil {
		return nil, f.DownloadErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	data, ok := f.files[name]
	if !ok {
		return nil, ErrNotFound
	}
	return data, nil
}

// List implements service.Remote. Files are returned newest upload first.
func (f *FakeRemote) List(ctx context.Context) ([]service.RemoteFile, error) {
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()

	result := make([]service.RemoteFile, 0, len(f.order))
	for i := len(f.order) - 1; i >= 0; i-- {
		name := f.order[i]
		result = append(result, service.RemoteFile{
			ID:   name,
			Name: name,
			Size: int64(len(f.files[name])),
		})
	}
	return result, nil
}
