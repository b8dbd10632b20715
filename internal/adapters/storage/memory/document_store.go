package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/PabloGalante/farum-board/internal/domain"
)

// DocumentStore is an in-memory implementation of domain.DocumentStore.
// Permissions are stored but not enforced.
type DocumentStore struct {
	mu          sync.RWMutex
	collections map[domain.CollectionID][]*domain.Message
	now         func() time.Time
}

type DocumentStoreOption func(*DocumentStore)

// WithClock sets the clock used for CreatedAt.
func WithClock(now func() time.Time) DocumentStoreOption {
	return func(s *DocumentStore) {
		s.now = now
	}
}

func NewDocumentStore(opts ...DocumentStoreOption) *DocumentStore {
	s := &DocumentStore{
		collections: make(map[domain.CollectionID][]*domain.Message),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListDocuments returns copies in insertion order.
func (s *DocumentStore) ListDocuments(_ context.Context, collectionID domain.CollectionID) ([]*domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.collections[collectionID]
	out := make([]*domain.Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.Clone())
	}
	return out, nil
}

func (s *DocumentStore) CreateDocument(_ context.Context, collectionID domain.CollectionID, doc *domain.NewDocument) (*domain.Message, error) {
	if doc == nil {
		return nil, fmt.Errorf("document is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := doc.ID
	if id == "" || id == domain.UniqueID {
		id = uuid.NewString()
	}
	for _, m := range s.collections[collectionID] {
		if string(m.ID) == id {
			return nil, fmt.Errorf("document %s: %w", id, domain.ErrConflict)
		}
	}

	msg := &domain.Message{
		ID:          domain.MessageID(id),
		Content:     doc.Fields.Content,
		AuthorID:    doc.Fields.UserID,
		AuthorName:  doc.Fields.Username,
		CreatedAt:   s.now().UTC(),
		Permissions: doc.Permissions(),
	}
	s.collections[collectionID] = append(s.collections[collectionID], msg)

	return msg.Clone(), nil
}
