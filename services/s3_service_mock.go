package services

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"sync"
)

// MockFileStore is an in-memory FileStore for testing
type MockFileStore struct {
	files map[string][]byte
	mu    sync.RWMutex
}

// NewMockFileStore creates a new mock file store
func NewMockFileStore() *MockFileStore {
	return &MockFileStore{
		files: make(map[string][]byte),
	}
}

// UploadFile stores the file content in memory
func (m *MockFileStore) UploadFile(ctx context.Context, fileHeader *multipart.FileHeader) (string, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	key := fmt.Sprintf("attachments/mock_%s", fileHeader.Filename)

	m.mu.Lock()
	m.files[key] = content
	m.mu.Unlock()

	return key, nil
}

// GetFileURL returns a fake presigned URL for a stored file
func (m *MockFileStore) GetFileURL(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", nil
	}

	m.mu.RLock()
	_, exists := m.files[key]
	m.mu.RUnlock()

	if !exists {
		return "", fmt.Errorf("file not found in mock store: %s", key)
	}

	return fmt.Sprintf("https://test-bucket.s3.af-south-1.amazonaws.com/%s?mock=true", key), nil
}

// DeleteFile removes a file from memory
func (m *MockFileStore) DeleteFile(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.files, key)
	m.mu.Unlock()
	return nil
}

// FileExists checks if a file exists in mock storage
func (m *MockFileStore) FileExists(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, exists := m.files[key]
	return exists
}

// Files returns a copy of all stored files
func (m *MockFileStore) Files() map[string][]byte {
	m.mu.RLock()
	defer m.mu.RUnlock()

	files := make(map[string][]byte, len(m.files))
	for k, v := range m.files {
		files[k] = v
	}
	return files
}
