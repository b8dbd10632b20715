package board_test

import (
	"context"
	"sync"

	"github.com/PabloGalante/farum-board/internal/domain"
)

// fakeIdentity implements domain.IdentityService and, through its embedded
// creators, the optional session creation interfaces.
type fakeIdentity struct {
	mu sync.Mutex

	account       *domain.Account
	getErr        error
	createErr     error
	deleteErr     error
	createdEmails []string
	deleted       []domain.SessionID
}

func (f *fakeIdentity) GetAccount(context.Context) (*domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.account == nil {
		return nil, domain.ErrUnauthorized
	}
	acct := *f.account
	return &acct, nil
}

func (f *fakeIdentity) CreateAccount(_ context.Context, _ domain.UserID, email, _, name string) (*domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createdEmails = append(f.createdEmails, email)
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &domain.Account{ID: "new-user", Email: email, Name: name}, nil
}

func (f *fakeIdentity) DeleteSession(_ context.Context, id domain.SessionID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.account = nil
	return nil
}

func (f *fakeIdentity) login(acct *domain.Account) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.account = acct
}

// fakeStore implements domain.DocumentStore.
type fakeStore struct {
	mu sync.Mutex

	docs      []*domain.Message
	listErr   error
	createErr error
	listCalls int
	created   []*domain.NewDocument
}

func (s *fakeStore) ListDocuments(context.Context, domain.CollectionID) ([]*domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]*domain.Message, 0, len(s.docs))
	for _, m := range s.docs {
		out = append(out, m.Clone())
	}
	return out, nil
}

func (s *fakeStore) CreateDocument(_ context.Context, _ domain.CollectionID, doc *domain.NewDocument) (*domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = append(s.created, doc)
	if s.createErr != nil {
		return nil, s.createErr
	}
	msg := &domain.Message{
		ID:          domain.MessageID("m" + string(rune('a'+len(s.docs)))),
		Content:     doc.Fields.Content,
		AuthorID:    doc.Fields.UserID,
		AuthorName:  doc.Fields.Username,
		Permissions: doc.Permissions(),
	}
	s.docs = append(s.docs, msg)
	return msg.Clone(), nil
}

func (s *fakeStore) calls() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listCalls, len(s.created)
}
