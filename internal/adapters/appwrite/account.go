package appwrite

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/PabloGalante/farum-board/internal/domain"
	"github.com/PabloGalante/farum-board/internal/observability"
)

type accountDTO struct {
	ID        string `json:"$id"`
	CreatedAt string `json:"$createdAt"`
	Name      string `json:"name"`
	Email     string `json:"email"`
}

func (a accountDTO) toAccount() (*domain.Account, error) {
	created, err := parseTime(a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &domain.Account{
		ID:        domain.UserID(a.ID),
		Name:      a.Name,
		Email:     a.Email,
		CreatedAt: created,
	}, nil
}

type sessionDTO struct {
	ID       string `json:"$id"`
	UserID   string `json:"userId"`
	Provider string `json:"provider"`
	Expire   string `json:"expire"`
	Current  bool   `json:"current"`
}

func (s sessionDTO) toSession() (*domain.Session, error) {
	expire, err := parseTime(s.Expire)
	if err != nil {
		return nil, err
	}
	return &domain.Session{
		ID:        domain.SessionID(s.ID),
		UserID:    domain.UserID(s.UserID),
		Provider:  s.Provider,
		ExpiresAt: expire,
		Current:   s.Current,
	}, nil
}

type createAccountRequest struct {
	UserID   string `json:"userId"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// GetAccount returns the account of the session held by the client.
func (c *Client) GetAccount(ctx context.Context) (*domain.Account, error) {
	var dto accountDTO
	if err := c.do(ctx, http.MethodGet, "/account", nil, &dto); err != nil {
		return nil, err
	}
	return dto.toAccount()
}

func (c *Client) CreateAccount(ctx context.Context, userID domain.UserID, email, password, name string) (*domain.Account, error) {
	req := createAccountRequest{
		UserID:   string(userID),
		Email:    email,
		Password: password,
		Name:     name,
	}

	var dto accountDTO
	if err := c.do(ctx, http.MethodPost, "/account", req, &dto); err != nil {
		return nil, err
	}
	return dto.toAccount()
}

// CreateEmailPasswordSession is the session endpoint of current servers.
func (c *Client) CreateEmailPasswordSession(ctx context.Context, email, password string) (*domain.Session, error) {
	return c.createSession(ctx, "/account/sessions/email", email, password, withResponseFormat(formatCurrent))
}

// CreateEmailSession is the same endpoint under the 1.4 response format,
// for servers that predate the rename.
func (c *Client) CreateEmailSession(ctx context.Context, email, password string) (*domain.Session, error) {
	return c.createSession(ctx, "/account/sessions/email", email, password, withResponseFormat(formatV2))
}

// CreateSession is the pre-1.0 endpoint.
func (c *Client) CreateSession(ctx context.Context, email, password string) (*domain.Session, error) {
	return c.createSession(ctx, "/account/sessions", email, password)
}

func (c *Client) createSession(ctx context.Context, path, email, password string, opts ...requestOption) (*domain.Session, error) {
	var dto sessionDTO
	if err := c.do(ctx, http.MethodPost, path, credentialsRequest{Email: email, Password: password}, &dto, opts...); err != nil {
		return nil, err
	}
	return dto.toSession()
}

func (c *Client) DeleteSession(ctx context.Context, sessionID domain.SessionID) error {
	if sessionID == "" {
		return fmt.Errorf("session id is required")
	}

	path := "/account/sessions/" + url.PathEscape(string(sessionID))
	err := c.do(ctx, http.MethodDelete, path, nil, nil)
	if sessionID == domain.CurrentSession {
		// forgotten locally even when the server refused
		c.forgetSession()
	}
	return err
}

func (c *Client) forgetSession() {
	c.fallback.set("")
	if err := c.jar.reset(); err != nil {
		observability.Logger().Warn("resetting appwrite cookie jar", "error", err)
	}
}

var (
	_ domain.IdentityService             = (*Client)(nil)
	_ domain.EmailPasswordSessionCreator = (*Client)(nil)
	_ domain.EmailSessionCreator         = (*Client)(nil)
	_ domain.LegacySessionCreator        = (*Client)(nil)
)
