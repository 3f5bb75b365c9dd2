// Package guard decides whether a view renders, redirects or waits, based on the
// session state and the view's policy flags.
package guard

import (
	"context"

	"github.com/inkwell-dev/inkwell/internal/session"
)

// Policy holds the per-route flags
type Policy struct {
	// Public routes render without authentication
	Public bool
	// Restricted routes are only for unauthenticated users (login, register)
	Restricted bool
}

var (
	// Protected requires an authenticated session
	Protected = Policy{}
	// PublicOnly is for screens that make no sense once logged in
	PublicOnly = Policy{Public: true, Restricted: true}
	// Open renders for everyone
	Open = Policy{Public: true}
)

// Outcome is the result kind of a guard decision
type Outcome int

const (
	// Defer means the session is still loading; show a neutral placeholder
	Defer Outcome = iota
	// Render means show the target view
	Render
	// Redirect means navigate to Decision.Location instead
	Redirect
)

func (o Outcome) String() string {
	switch o {
	case Defer:
		return "defer"
	case Render:
		return "render"
	case Redirect:
		return "redirect"
	default:
		return "unknown"
	}
}

// Decision is what a guard tells the caller to do
type Decision struct {
	Outcome  Outcome
	Location string
}

// Decide applies the policy table to a session snapshot
func Decide(state session.State, p Policy, routes session.Routes) Decision {
	if state.Loading {
		return Decision{Outcome: Defer}
	}

	if !state.IsAuthenticated {
		if !p.Public {
			return Decision{Outcome: Redirect, Location: routes.Entry}
		}
		return Decision{Outcome: Render}
	}

	if p.Restricted {
		return Decision{Outcome: Redirect, Location: routes.Home}
	}
	return Decision{Outcome: Render}
}

// StateSource is anything that can report session state and readiness
type StateSource interface {
	State() session.State
	Ready() <-chan struct{}
	Routes() session.Routes
}

// Guard evaluates policies against a live session
type Guard struct {
	source StateSource
}

// New creates a guard over the given session
func New(source StateSource) *Guard {
	return &Guard{source: source}
}

// Check decides immediately, returning Defer while the session is loading
func (g *Guard) Check(p Policy) Decision {
	_, d := g.Evaluate(p)
	return d
}

// Evaluate is Check that also returns the snapshot the decision was made on,
// so a caller can keep rendering against the same state
func (g *Guard) Evaluate(p Policy) (session.State, Decision) {
	state := g.source.State()
	return state, Decide(state, p, g.source.Routes())
}

// Wait blocks until the session is ready (or ctx is done) and then decides.
// A cancelled wait yields Defer.
func (g *Guard) Wait(ctx context.Context, p Policy) Decision {
	select {
	case <-g.source.Ready():
		return g.Check(p)
	case <-ctx.Done():
		return Decision{Outcome: Defer}
	}
}
