package board

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/PabloGalante/farum-board/internal/domain"
	"github.com/PabloGalante/farum-board/internal/observability"
)

var (
	// ErrMissingCredentials is returned when the login form is incomplete.
	ErrMissingCredentials = errors.New("email and password are required")
	// ErrNotAuthenticated is returned when posting without a session.
	ErrNotAuthenticated = errors.New("you must be logged in to post")
)

const (
	msgAuthFailed = "Authentication failed"
	msgPostFailed = "Failed to post message"
)

// userMessager is implemented by adapter errors that carry a message meant
// for the user.
type userMessager interface {
	UserMessage() string
}

// Controller coordinates the session and the feed of one board client.
// Operations run one at a time; Snapshot can be called at any moment.
type Controller struct {
	identity   domain.IdentityService
	store      domain.DocumentStore
	collection domain.CollectionID
	retry      RetryPolicy
	chain      *FallbackChain

	opMu sync.Mutex

	mu    sync.RWMutex
	state State
}

type Option func(*Controller)

// WithCollection sets the collection holding the messages.
func WithCollection(id domain.CollectionID) Option {
	return func(c *Controller) {
		c.collection = id
	}
}

func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Controller) {
		c.retry = p
	}
}

// WithStrategies replaces the session strategies discovered on the
// identity service.
func WithStrategies(strategies ...SessionStrategy) Option {
	return func(c *Controller) {
		c.chain = NewFallbackChain(strategies...)
	}
}

func NewController(identity domain.IdentityService, store domain.DocumentStore, opts ...Option) *Controller {
	c := &Controller{
		identity:   identity,
		store:      store,
		collection: "messages",
		retry:      DefaultRetryPolicy(),
		state:      initialState(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.chain == nil {
		c.chain = NewFallbackChain(SessionStrategies(identity)...)
	}
	return c
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.clone()
}

func (c *Controller) dispatch(ev event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = c.state.apply(ev)
}

// Initialize restores an existing session, if any, and loads the feed.
// Neither step surfaces an error: the feed is readable without a session.
func (c *Controller) Initialize(ctx context.Context) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	log := observability.LoggerFromContext(ctx)

	account, err := c.identity.GetAccount(ctx)
	if err != nil {
		log.Info("no active session", "error", err)
		account = nil
	} else {
		log.Info("session restored", "user_id", account.ID)
	}
	c.dispatch(sessionRestored{account: account})

	_ = c.refreshFeed(ctx)
}

// Authenticate logs in, or registers then logs in, and loads the account.
// On failure the state carries a readable error and no account.
func (c *Controller) Authenticate(ctx context.Context, mode domain.AuthMode, identifier, secret string) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	identifier = strings.TrimSpace(identifier)
	if identifier == "" || secret == "" {
		c.dispatch(errorSet{msg: ErrMissingCredentials.Error()})
		return ErrMissingCredentials
	}
	if mode != domain.AuthModeLogin && mode != domain.AuthModeRegister {
		return fmt.Errorf("unknown auth mode %q", mode)
	}

	log := observability.LoggerFromContext(ctx).With("mode", mode)
	log.Info("authenticating", "strategies", c.chain.Len())

	c.dispatch(authStarted{mode: mode})

	account, err := c.authenticate(ctx, mode, identifier, secret)
	if err != nil {
		log.Warn("authentication failed", "error", err)
		c.dispatch(authFailed{msg: authErrorMessage(err)})
		return err
	}

	c.dispatch(authSucceeded{account: account})
	log.Info("authenticated", "user_id", account.ID)

	_ = c.refreshFeed(ctx)
	return nil
}

func (c *Controller) authenticate(ctx context.Context, mode domain.AuthMode, identifier, secret string) (*domain.Account, error) {
	if mode == domain.AuthModeRegister {
		if _, err := c.identity.CreateAccount(ctx, domain.UniqueID, identifier, secret, identifier); err != nil {
			return nil, fmt.Errorf("create account: %w", err)
		}
	}

	if _, err := c.chain.Run(ctx, identifier, secret); err != nil {
		return nil, err
	}

	account, err := c.identity.GetAccount(ctx)
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}
	return account, nil
}

func authErrorMessage(err error) string {
	var um userMessager
	if errors.As(err, &um) && um.UserMessage() != "" {
		return um.UserMessage()
	}
	var ce *ChainError
	if errors.As(err, &ce) && ce.Err != nil && ce.Err.Error() != "" {
		return ce.Err.Error()
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return msgAuthFailed
}

// Logout ends the current session. Local state is cleared whether or not
// the identity service accepts the call; the error is only logged and
// returned for callers that care.
func (c *Controller) Logout(ctx context.Context) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	log := observability.LoggerFromContext(ctx)

	err := c.identity.DeleteSession(ctx, domain.CurrentSession)
	if err != nil {
		log.Warn("logout failed, clearing local session anyway", "error", err)
	} else {
		log.Info("logged out")
	}

	c.dispatch(loggedOut{})
	return err
}

// PostMessage publishes content as the logged in user and refreshes the
// feed. Blank content is ignored.
func (c *Controller) PostMessage(ctx context.Context, content string) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil
	}

	state := c.Snapshot()
	if state.Account == nil {
		c.dispatch(errorSet{msg: ErrNotAuthenticated.Error()})
		return ErrNotAuthenticated
	}
	account := state.Account

	log := observability.LoggerFromContext(ctx).With("user_id", account.ID)

	c.dispatch(postStarted{content: content})

	doc := &domain.NewDocument{
		ID: domain.UniqueID,
		Fields: domain.MessageFields{
			Content:  trimmed,
			UserID:   account.ID,
			Username: account.DisplayName(),
		},
		Read:  []domain.Permission{domain.ReadAny()},
		Write: []domain.Permission{domain.WriteUser(account.ID)},
	}

	msg, err := c.store.CreateDocument(ctx, c.collection, doc)
	if err != nil {
		log.Error("failed to post message", "error", err)
		c.dispatch(postFailed{msg: msgPostFailed})
		return err
	}

	log.Info("message posted", "message_id", msg.ID)
	c.dispatch(postSucceeded{})

	_ = c.refreshFeed(ctx)
	return nil
}

// RefreshFeed replaces the feed with the store's current collection.
// On failure the feed is emptied; the error is logged and returned.
func (c *Controller) RefreshFeed(ctx context.Context) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	return c.refreshFeed(ctx)
}

func (c *Controller) refreshFeed(ctx context.Context) error {
	log := observability.LoggerFromContext(ctx).With("collection_id", c.collection)

	var msgs []*domain.Message
	err := c.retry.Do(ctx, "list_documents", func(ctx context.Context) error {
		var err error
		msgs, err = c.store.ListDocuments(ctx, c.collection)
		return err
	})
	if err != nil {
		log.Error("failed to load feed", "error", err)
		c.dispatch(feedFailed{})
		return err
	}

	c.dispatch(feedLoaded{messages: msgs})
	log.Info("fetched feed", "message_count", len(msgs))
	return nil
}

// SetDraft records the message being typed.
func (c *Controller) SetDraft(text string) {
	c.dispatch(draftChanged{text: text})
}

// SetIdentifier records the email typed in the login form.
func (c *Controller) SetIdentifier(identifier string) {
	c.dispatch(identifierChanged{identifier: identifier})
}

// ToggleMode switches the auth form between login and register.
func (c *Controller) ToggleMode() {
	c.dispatch(modeToggled{})
}

func (c *Controller) ClearError() {
	c.dispatch(errorCleared{})
}
