package storage

import (
	"context"
	"errors"
	"sync"

	financeapp "github.com/buildledger/backend/internal/application/finance"
)

// StubReceiptStorage is an in-memory ReceiptStorage for development and
// tests. Uploaded receipts are held in a map and never leave the process.
type StubReceiptStorage struct {
	// BaseURL is the base URL prefixed to returned receipt URLs.
	// Defaults to "https://storage.example.com" if not set.
	BaseURL string

	mu      sync.Mutex
	objects map[string][]byte
}

// NewStubReceiptStorage creates a new StubReceiptStorage
func NewStubReceiptStorage() *StubReceiptStorage {
	return &StubReceiptStorage{
		BaseURL: "https://storage.example.com",
		objects: make(map[string][]byte),
	}
}

// Ensure StubReceiptStorage implements ReceiptStorage
var _ financeapp.ReceiptStorage = (*StubReceiptStorage)(nil)

// Upload stores the receipt in memory and returns a synthetic URL
func (s *StubReceiptStorage) Upload(ctx context.Context, storageKey string, data []byte, contentType string) (string, error) {
	if storageKey == "" {
		return "", errors.New("storage key is required")
	}
	if len(data) == 0 {
		return "", errors.New("receipt data is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.objects == nil {
		s.objects = make(map[string][]byte)
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	s.objects[storageKey] = buf

	return s.BaseURL + "/" + storageKey, nil
}

// Get returns a stored receipt, or false if the key was never uploaded
func (s *StubReceiptStorage) Get(storageKey string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[storageKey]
	return data, ok
}

// DeleteObject removes a stored receipt. It succeeds even if the key is absent.
func (s *StubReceiptStorage) DeleteObject(ctx context.Context, storageKey string) error {
	if storageKey == "" {
		return errors.New("storage key is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, storageKey)
	return nil
}
