package domain

import "context"

// IdentityService is the external service that owns accounts and sessions.
type IdentityService interface {
	// GetAccount returns the account bound to the current session.
	GetAccount(ctx context.Context) (*Account, error)
	CreateAccount(ctx context.Context, userID UserID, email, password, name string) (*Account, error)
	DeleteSession(ctx context.Context, sessionID SessionID) error
}

// EmailPasswordSessionCreator is the current session creation operation.
type EmailPasswordSessionCreator interface {
	CreateEmailPasswordSession(ctx context.Context, email, password string) (*Session, error)
}

// EmailSessionCreator is the older name of the same operation, still
// exposed by some service versions.
type EmailSessionCreator interface {
	CreateEmailSession(ctx context.Context, email, password string) (*Session, error)
}

// LegacySessionCreator is the oldest session creation operation.
type LegacySessionCreator interface {
	CreateSession(ctx context.Context, email, password string) (*Session, error)
}

// DocumentStore is the external store holding message documents.
type DocumentStore interface {
	ListDocuments(ctx context.Context, collectionID CollectionID) ([]*Message, error)
	CreateDocument(ctx context.Context, collectionID CollectionID, doc *NewDocument) (*Message, error)
}
