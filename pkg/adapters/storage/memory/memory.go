package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/aescanero/introductions/pkg/domain"
	"github.com/aescanero/introductions/pkg/ports"
)

var _ ports.StoreGateway = (*InMemoryDocumentStorage)(nil)

// InMemoryDocumentStorage implements StoreGateway using in-memory slices
// This is for testing and local runs only
type InMemoryDocumentStorage struct {
	collections map[string][]domain.Document
	unavailable bool
	mu          sync.RWMutex
}

// NewInMemoryDocumentStorage creates a new in-memory document storage
func NewInMemoryDocumentStorage() *InMemoryDocumentStorage {
	return &InMemoryDocumentStorage{
		collections: make(map[string][]domain.Document),
	}
}

// SetUnavailable makes every call fail as if the store were unreachable
func (s *InMemoryDocumentStorage) SetUnavailable(unavailable bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.unavailable = unavailable
}

// InsertOne appends an introduction and assigns it an _id
func (s *InMemoryDocumentStorage) InsertOne(ctx context.Context, collection string, intro domain.Introduction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.unavailable {
		return domain.NewStoreError("insert", collection, domain.ErrConnectionLost, nil)
	}
	if err := ctx.Err(); err != nil {
		return domain.NewStoreError("insert", collection, domain.ErrConnectionLost, err)
	}

	s.collections[collection] = append(s.collections[collection], domain.Document{
		"_id":   uuid.New().String(),
		"title": intro.Title,
		"icon":  intro.Icon,
	})
	return nil
}

// FindAll returns copies of all documents in insertion order
func (s *InMemoryDocumentStorage) FindAll(ctx context.Context, collection string) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.unavailable {
		return nil, domain.NewStoreError("find", collection, domain.ErrConnectionLost, nil)
	}
	if err := ctx.Err(); err != nil {
		return nil, domain.NewStoreError("find", collection, domain.ErrConnectionLost, err)
	}

	stored := s.collections[collection]
	docs := make([]domain.Document, 0, len(stored))
	for _, doc := range stored {
		// Copy to avoid mutations
		docCopy := make(domain.Document, len(doc))
		for k, v := range doc {
			docCopy[k] = v
		}
		docs = append(docs, docCopy)
	}

	return docs, nil
}

// Ping fails only while the storage is marked unavailable
func (s *InMemoryDocumentStorage) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.unavailable {
		return domain.NewStoreError("ping", "", domain.ErrConnectionLost, nil)
	}
	return nil
}

// Close is a no-op
func (s *InMemoryDocumentStorage) Close(ctx context.Context) error {
	return nil
}
