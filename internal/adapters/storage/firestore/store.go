package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/PabloGalante/farum-board/internal/domain"
)

type Store struct {
	client *firestore.Client
	now    func() time.Time
}

// NewStore creates a Firestore store.
// Uses the project passed (BOARD_GCP_PROJECT).
func NewStore(ctx context.Context, projectID string) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &Store{client: client, now: time.Now}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// ─────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────

func (s *Store) collection(id domain.CollectionID) *firestore.CollectionRef {
	return s.client.Collection(string(id))
}

// ─────────────────────────────────────────
// Firestore Types
// ─────────────────────────────────────────

type messageDoc struct {
	Content     string    `firestore:"content"`
	UserID      string    `firestore:"user_id"`
	Username    string    `firestore:"username"`
	Permissions []string  `firestore:"permissions"`
	CreatedAt   time.Time `firestore:"created_at"`
}

func toMessageDoc(doc *domain.NewDocument, createdAt time.Time) messageDoc {
	perms := doc.Permissions()
	out := messageDoc{
		Content:     doc.Fields.Content,
		UserID:      string(doc.Fields.UserID),
		Username:    doc.Fields.Username,
		Permissions: make([]string, 0, len(perms)),
		CreatedAt:   createdAt,
	}
	for _, p := range perms {
		out.Permissions = append(out.Permissions, string(p))
	}
	return out
}

func (d messageDoc) toMessage(id string) *domain.Message {
	msg := &domain.Message{
		ID:          domain.MessageID(id),
		Content:     d.Content,
		AuthorID:    domain.UserID(d.UserID),
		AuthorName:  d.Username,
		CreatedAt:   d.CreatedAt,
		Permissions: make([]domain.Permission, 0, len(d.Permissions)),
	}
	for _, p := range d.Permissions {
		msg.Permissions = append(msg.Permissions, domain.Permission(p))
	}
	return msg
}

// ─────────────────────────────────────────
// DocumentStore implementation
// ─────────────────────────────────────────

func (s *Store) CreateDocument(ctx context.Context, collectionID domain.CollectionID, doc *domain.NewDocument) (*domain.Message, error) {
	if doc == nil {
		return nil, fmt.Errorf("firestore CreateDocument: document is required")
	}

	col := s.collection(collectionID)

	var ref *firestore.DocumentRef
	if doc.ID == "" || doc.ID == domain.UniqueID {
		ref = col.NewDoc()
	} else {
		ref = col.Doc(doc.ID)
	}

	data := toMessageDoc(doc, s.now().UTC())

	if _, err := ref.Create(ctx, data); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return nil, fmt.Errorf("firestore CreateDocument %s: %w", ref.ID, domain.ErrConflict)
		}
		if status.Code(err) == codes.PermissionDenied {
			return nil, fmt.Errorf("firestore CreateDocument: %w", domain.ErrUnauthorized)
		}
		return nil, fmt.Errorf("firestore CreateDocument: %w", err)
	}

	return data.toMessage(ref.ID), nil
}

func (s *Store) ListDocuments(ctx context.Context, collectionID domain.CollectionID) ([]*domain.Message, error) {
	q := s.collection(collectionID).OrderBy("created_at", firestore.Desc)

	iter := q.Documents(ctx)
	defer iter.Stop()

	var out []*domain.Message
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			if status.Code(err) == codes.PermissionDenied {
				return nil, fmt.Errorf("firestore ListDocuments: %w", domain.ErrUnauthorized)
			}
			return nil, fmt.Errorf("firestore ListDocuments: %w", err)
		}

		var doc messageDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode messageDoc: %w", err)
		}

		out = append(out, doc.toMessage(snap.Ref.ID))
	}
	return out, nil
}
