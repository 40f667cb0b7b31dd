package guard

import (
	"errors"

	"github.com/makolaconnect/makola/session"
)

// ErrNotWired is returned when a guard is built without a session source.
var ErrNotWired = errors.New("guard: session source not wired")

// SessionSource is the read-only view of a session store the guard needs.
// *session.Store satisfies it.
type SessionSource interface {
	Snapshot() session.State
}

// Guard binds a policy to one session source.
type Guard struct {
	source SessionSource
	policy Policy
	routes Routes
}

// New validates the wiring of a guard.
func New(source SessionSource, policy Policy, routes Routes) (*Guard, error) {
	if source == nil {
		return nil, ErrNotWired
	}
	if err := routes.Validate(); err != nil {
		return nil, err
	}
	return &Guard{source: source, policy: policy, routes: routes}, nil
}

// Evaluate takes one snapshot of the session and decides from it. The
// returned state is that same snapshot, so a caller that renders uses exactly
// the data the decision was made on.
func (g *Guard) Evaluate() (Decision, session.State) {
	state := g.source.Snapshot()
	return Decide(state, g.policy, g.routes), state
}

// Policy returns the guard's policy.
func (g *Guard) Policy() Policy {
	return g.policy
}
