package board

import (
	"github.com/PabloGalante/farum-board/internal/domain"
)

// Phase is the authentication phase of a controller.
type Phase int

const (
	PhaseUnauthenticated Phase = iota
	PhaseAuthenticating
	PhaseAuthenticated
)

func (p Phase) String() string {
	switch p {
	case PhaseUnauthenticated:
		return "unauthenticated"
	case PhaseAuthenticating:
		return "authenticating"
	case PhaseAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// State is everything the UI renders. It is rebuilt from external calls on
// every start and never persisted.
type State struct {
	Phase   Phase
	Account *domain.Account
	Feed    []*domain.Message
	Draft   string
	// Identifier is the email typed in the login form. The password is
	// never kept in state.
	Identifier string
	Mode       domain.AuthMode
	Busy       bool
	Err        string
}

func initialState() State {
	return State{
		Phase: PhaseUnauthenticated,
		Mode:  domain.AuthModeLogin,
		Feed:  []*domain.Message{},
	}
}

// LoggedIn reports whether an account is bound to the state.
func (s State) LoggedIn() bool {
	return s.Phase == PhaseAuthenticated && s.Account != nil
}

func (s State) clone() State {
	out := s
	if s.Account != nil {
		acct := *s.Account
		out.Account = &acct
	}
	out.Feed = make([]*domain.Message, 0, len(s.Feed))
	for _, m := range s.Feed {
		out.Feed = append(out.Feed, m.Clone())
	}
	return out
}

// ─────────────────────────────────────────────
// Events
// ─────────────────────────────────────────────

type event interface {
	isEvent()
}

type (
	sessionRestored   struct{ account *domain.Account }
	authStarted       struct{ mode domain.AuthMode }
	authSucceeded     struct{ account *domain.Account }
	authFailed        struct{ msg string }
	loggedOut         struct{}
	feedLoaded        struct{ messages []*domain.Message }
	feedFailed        struct{}
	draftChanged      struct{ text string }
	identifierChanged struct{ identifier string }
	modeToggled       struct{}
	postStarted       struct{ content string }
	postSucceeded     struct{}
	postFailed        struct{ msg string }
	errorSet          struct{ msg string }
	errorCleared      struct{}
)

func (sessionRestored) isEvent()   {}
func (authStarted) isEvent()       {}
func (authSucceeded) isEvent()     {}
func (authFailed) isEvent()        {}
func (loggedOut) isEvent()         {}
func (feedLoaded) isEvent()        {}
func (feedFailed) isEvent()        {}
func (draftChanged) isEvent()      {}
func (identifierChanged) isEvent() {}
func (modeToggled) isEvent()       {}
func (postStarted) isEvent()       {}
func (postSucceeded) isEvent()     {}
func (postFailed) isEvent()        {}
func (errorSet) isEvent()          {}
func (errorCleared) isEvent()      {}

// apply is the only place state changes. It never mutates s.
func (s State) apply(ev event) State {
	next := s
	switch e := ev.(type) {
	case sessionRestored:
		next.Account = e.account
		if e.account != nil {
			next.Phase = PhaseAuthenticated
		} else {
			next.Phase = PhaseUnauthenticated
		}

	case authStarted:
		next.Phase = PhaseAuthenticating
		next.Mode = e.mode
		next.Busy = true
		next.Err = ""

	case authSucceeded:
		next.Phase = PhaseAuthenticated
		next.Account = e.account
		next.Identifier = ""
		next.Busy = false
		next.Err = ""

	case authFailed:
		next.Phase = PhaseUnauthenticated
		next.Account = nil
		next.Busy = false
		next.Err = e.msg

	case loggedOut:
		next.Phase = PhaseUnauthenticated
		next.Account = nil
		next.Draft = ""
		next.Feed = []*domain.Message{}
		next.Busy = false

	case feedLoaded:
		next.Feed = sortFeed(e.messages)

	case feedFailed:
		next.Feed = []*domain.Message{}

	case draftChanged:
		next.Draft = e.text

	case identifierChanged:
		next.Identifier = e.identifier

	case modeToggled:
		if s.Mode == domain.AuthModeRegister {
			next.Mode = domain.AuthModeLogin
		} else {
			next.Mode = domain.AuthModeRegister
		}
		next.Err = ""

	case postStarted:
		next.Draft = e.content
		next.Busy = true

	case postSucceeded:
		next.Draft = ""
		next.Busy = false
		next.Err = ""

	case postFailed:
		next.Busy = false
		next.Err = e.msg

	case errorSet:
		next.Err = e.msg

	case errorCleared:
		next.Err = ""
	}
	return next
}
