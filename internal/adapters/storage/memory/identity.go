package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/PabloGalante/farum-board/internal/domain"
)

type account struct {
	domain.Account
	passwordHash []byte
}

// IdentityService is an in-memory implementation of domain.IdentityService.
// Like a single browser profile it holds at most one current session.
// It is NOT persistent and is only suitable for development / local mode.
type IdentityService struct {
	mu       sync.RWMutex
	accounts map[string]*account // by lower-cased email
	current  *domain.Session
	now      func() time.Time
	cost     int
}

func NewIdentityService() *IdentityService {
	return &IdentityService{
		accounts: make(map[string]*account),
		now:      time.Now,
		cost:     bcrypt.MinCost,
	}
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *IdentityService) GetAccount(_ context.Context) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return nil, fmt.Errorf("no current session: %w", domain.ErrUnauthorized)
	}
	for _, a := range s.accounts {
		if a.ID == s.current.UserID {
			acct := a.Account
			return &acct, nil
		}
	}
	return nil, fmt.Errorf("account %s: %w", s.current.UserID, domain.ErrNotFound)
}

func (s *IdentityService) CreateAccount(_ context.Context, userID domain.UserID, email, password, name string) (*domain.Account, error) {
	key := emailKey(email)
	if key == "" || password == "" {
		return nil, fmt.Errorf("email and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[key]; exists {
		return nil, fmt.Errorf("account %s: %w", key, domain.ErrConflict)
	}

	if userID == "" || userID == domain.UniqueID {
		userID = domain.UserID(uuid.NewString())
	}
	for _, a := range s.accounts {
		if a.ID == userID {
			return nil, fmt.Errorf("account id %s: %w", userID, domain.ErrConflict)
		}
	}

	a := &account{
		Account: domain.Account{
			ID:        userID,
			Name:      name,
			Email:     strings.TrimSpace(email),
			CreatedAt: s.now(),
		},
		passwordHash: hash,
	}
	s.accounts[key] = a

	out := a.Account
	return &out, nil
}

// CreateEmailPasswordSession checks the password and makes the new session
// current, replacing any previous one.
func (s *IdentityService) CreateEmailPasswordSession(_ context.Context, email, password string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[emailKey(email)]
	if !ok {
		return nil, domain.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	now := s.now()
	sess := &domain.Session{
		ID:        domain.SessionID(uuid.NewString()),
		UserID:    a.ID,
		Provider:  "email",
		ExpiresAt: now.Add(365 * 24 * time.Hour),
		Current:   true,
	}
	s.current = sess

	out := *sess
	return &out, nil
}

func (s *IdentityService) DeleteSession(_ context.Context, id domain.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return fmt.Errorf("no current session: %w", domain.ErrUnauthorized)
	}
	if id != domain.CurrentSession && id != s.current.ID {
		return fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}

	s.current = nil
	return nil
}
