package domain

import "time"

type UserID string
type MessageID string
type SessionID string
type CollectionID string

// UniqueID asks the store to generate the identifier itself.
const UniqueID = "unique()"

// CurrentSession addresses the session bound to the calling client.
const CurrentSession SessionID = "current"

type AuthMode string

const (
	AuthModeLogin    AuthMode = "login"
	AuthModeRegister AuthMode = "register"
)

type Timestamp = time.Time
