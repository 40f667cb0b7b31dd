package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/makolaconnect/makola/guard"
	"github.com/makolaconnect/makola/session"
)

// ErrNotWired is returned by constructors missing a collaborator.
var ErrNotWired = errors.New("middleware: not wired")

type stateContextKey struct{}

// StateFromContext returns the snapshot a guarded view was authorized with.
func StateFromContext(ctx context.Context) (session.State, bool) {
	st, ok := ctx.Value(stateContextKey{}).(session.State)
	return st, ok
}

// DecisionHook observes every guard decision, e.g. for metrics.
type DecisionHook func(r *http.Request, d guard.Decision)

// GuardOption configures Guard.
type GuardOption func(*guardConfig)

type guardConfig struct {
	hook DecisionHook
}

// WithDecisionHook registers h on the guard.
func WithDecisionHook(h DecisionHook) GuardOption {
	return func(c *guardConfig) { c.hook = h }
}

// NewGuard returns middleware enforcing policy on the wrapped view. It must
// run behind Session.
func NewGuard(policy guard.Policy, routes guard.Routes, opts ...GuardOption) (func(http.Handler) http.Handler, error) {
	if err := routes.Validate(); err != nil {
		return nil, err
	}
	var cfg guardConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			store := session.MustFromContext(r.Context())

			g, err := guard.New(store, policy, routes)
			if err != nil {
				panic(err)
			}
			decision, state := g.Evaluate()
			if cfg.hook != nil {
				cfg.hook(r, decision)
			}

			if !decision.Renders() {
				w.Header().Set("Location", decision.Destination)
				w.Header().Set("Cache-Control", "no-store")
				w.WriteHeader(http.StatusFound)
				return
			}

			ctx := context.WithValue(r.Context(), stateContextKey{}, state)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}, nil
}

// Guard is NewGuard for composition roots; it panics on wiring errors.
func Guard(policy guard.Policy, routes guard.Routes, opts ...GuardOption) func(http.Handler) http.Handler {
	mw, err := NewGuard(policy, routes, opts...)
	if err != nil {
		panic(err)
	}
	return mw
}
