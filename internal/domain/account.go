package domain

// Account is the identity record returned by the identity service for the
// currently authenticated user.
type Account struct {
	ID        UserID
	Name      string
	Email     string
	CreatedAt Timestamp
}

// DisplayName returns the name shown next to a user's messages.
// Falls back to the email when no name was registered.
func (a *Account) DisplayName() string {
	if a == nil {
		return ""
	}
	if a.Name != "" {
		return a.Name
	}
	return a.Email
}

// Session is the token record the identity service creates on login.
type Session struct {
	ID        SessionID
	UserID    UserID
	Provider  string
	ExpiresAt Timestamp
	Current   bool
}
