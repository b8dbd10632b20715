package board

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PabloGalante/farum-board/internal/domain"
	"github.com/PabloGalante/farum-board/internal/observability"
)

// ErrNoSessionStrategy is returned when the identity service exposes no way
// to create a session.
var ErrNoSessionStrategy = errors.New("identity service cannot create sessions")

// SessionStrategy is one way of creating an email/password session.
type SessionStrategy struct {
	Name   string
	Create func(ctx context.Context, email, password string) (*domain.Session, error)
}

// SessionStrategies lists the session creators identity exposes, newest
// first.
func SessionStrategies(identity domain.IdentityService) []SessionStrategy {
	var out []SessionStrategy
	if c, ok := identity.(domain.EmailPasswordSessionCreator); ok {
		out = append(out, SessionStrategy{Name: "email_password_session", Create: c.CreateEmailPasswordSession})
	}
	if c, ok := identity.(domain.EmailSessionCreator); ok {
		out = append(out, SessionStrategy{Name: "email_session", Create: c.CreateEmailSession})
	}
	if c, ok := identity.(domain.LegacySessionCreator); ok {
		out = append(out, SessionStrategy{Name: "legacy_session", Create: c.CreateSession})
	}
	return out
}

// ChainError reports that every strategy of a FallbackChain failed.
// Err is the failure of the last strategy that the service recognised;
// strategies answering domain.ErrNotFound (an endpoint the server does not
// have) only count when nothing else failed.
type ChainError struct {
	Tried []string
	Errs  []error
	Err   error
}

func (e *ChainError) Error() string {
	return fmt.Sprintf("all session strategies failed (%s): %v", strings.Join(e.Tried, ", "), e.Err)
}

func (e *ChainError) Unwrap() error {
	return e.Err
}

// FallbackChain tries equivalent session creators in order until one
// succeeds.
type FallbackChain struct {
	strategies []SessionStrategy
}

func NewFallbackChain(strategies ...SessionStrategy) *FallbackChain {
	return &FallbackChain{strategies: strategies}
}

func (f *FallbackChain) Len() int {
	return len(f.strategies)
}

// Run executes the strategies sequentially and stops at the first success.
func (f *FallbackChain) Run(ctx context.Context, email, password string) (*domain.Session, error) {
	if len(f.strategies) == 0 {
		return nil, ErrNoSessionStrategy
	}

	log := observability.LoggerFromContext(ctx)

	tried := make([]string, 0, len(f.strategies))
	errs := make([]error, 0, len(f.strategies))
	for _, st := range f.strategies {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		tried = append(tried, st.Name)
		sess, err := st.Create(ctx, email, password)
		if err == nil {
			log.Info("session created", "strategy", st.Name, "attempts", len(tried))
			return sess, nil
		}

		log.Warn("session strategy failed", "strategy", st.Name, "error", err)
		errs = append(errs, err)
	}

	return nil, &ChainError{Tried: tried, Errs: errs, Err: primaryFailure(errs)}
}

func primaryFailure(errs []error) error {
	for i := len(errs) - 1; i >= 0; i-- {
		if !errors.Is(errs[i], domain.ErrNotFound) {
			return errs[i]
		}
	}
	return errs[len(errs)-1]
}
