package makola

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/makolaconnect/makola/auth"
	"github.com/makolaconnect/makola/guard"
	"github.com/makolaconnect/makola/internal/rate"
	"github.com/makolaconnect/makola/jwt"
	"github.com/makolaconnect/makola/media"
	"github.com/makolaconnect/makola/middleware"
	"github.com/makolaconnect/makola/session"
)

// Engine owns the session registry and everything observing it.
type Engine struct {
	config        Config
	logger        *zap.Logger
	sessions      *session.Registry
	authenticator *auth.Authenticator
	tokens        *jwt.Manager
	limiter       *rate.Limiter
	uploader      media.Uploader
	metrics       *Metrics
	audit         *auditDispatcher
	closed        atomic.Bool
}

// Sessions returns the per-client store registry.
func (e *Engine) Sessions() *session.Registry {
	return e.sessions
}

func (e *Engine) Routes() guard.Routes {
	return e.config.Routes
}

// Tokens returns the manager that signs session tokens.
func (e *Engine) Tokens() *jwt.Manager {
	return e.tokens
}

func (e *Engine) Uploader() media.Uploader {
	return e.uploader
}

// SessionMiddleware attaches the calling client's store to each request.
func (e *Engine) SessionMiddleware() func(http.Handler) http.Handler {
	return middleware.Session(e.sessions, middleware.CookieOptions{Secure: e.config.Session.CookieSecure})
}

// Guard returns middleware enforcing policy with the engine's routes. Every
// decision is counted.
func (e *Engine) Guard(policy guard.Policy) func(http.Handler) http.Handler {
	return middleware.Guard(policy, e.config.Routes, middleware.WithDecisionHook(e.recordDecision))
}

// Login authenticates identifier and plain and, on success, stores the
// returned user and token in the client's session. Repeated failures for
// the same identifier return ErrLoginThrottled until the window passes.
func (e *Engine) Login(ctx context.Context, clientID, identifier, plain string) (session.State, error) {
	store, err := e.open(ctx, clientID)
	if err != nil {
		return session.State{}, err
	}

	key := auth.NormalizeIdentifier(identifier)
	ip := clientIPFromContext(ctx)
	if err := e.checkThrottle(ctx, key, ip); err != nil {
		e.metrics.Inc(MetricLoginThrottled)
		e.audit.Emit(ctx, AuditEvent{
			EventType: AuditLoginThrottled,
			ClientID:  clientID,
			Error:     err.Error(),
		})
		return session.State{}, err
	}

	user, token, err := e.authenticator.Authenticate(ctx, identifier, plain)
	if err != nil {
		e.metrics.Inc(MetricLoginFailure)
		e.audit.Emit(ctx, AuditEvent{
			EventType: AuditLoginFailed,
			ClientID:  clientID,
			Error:     err.Error(),
		})
		if errors.Is(err, auth.ErrInvalidCredentials) {
			e.recordFailure(ctx, key, ip)
			return session.State{}, ErrInvalidCredentials
		}
		return session.State{}, err
	}
	e.resetThrottle(ctx, key)

	err = store.Login(ctx, user, token)
	if errors.Is(err, session.ErrStoreClosed) {
		// Evicted between open and login: retry on a fresh store.
		if store, err = e.open(ctx, clientID); err == nil {
			err = store.Login(ctx, user, token)
		}
	}
	if err != nil {
		return session.State{}, err
	}
	return store.Snapshot(), nil
}

// The throttle fails open: a redis outage must not lock every user out.
func (e *Engine) checkThrottle(ctx context.Context, identifier, ip string) error {
	if e.limiter == nil {
		return nil
	}
	err := e.limiter.Check(ctx, identifier, ip)
	if errors.Is(err, rate.ErrThrottled) {
		return ErrLoginThrottled
	}
	if err != nil {
		e.logger.Warn("login throttle check failed", zap.Error(err))
	}
	return nil
}

func (e *Engine) recordFailure(ctx context.Context, identifier, ip string) {
	if e.limiter == nil {
		return
	}
	if err := e.limiter.Fail(ctx, identifier, ip); err != nil {
		e.logger.Warn("login throttle update failed", zap.Error(err))
	}
}

func (e *Engine) resetThrottle(ctx context.Context, identifier string) {
	if e.limiter == nil {
		return
	}
	if err := e.limiter.Reset(ctx, identifier); err != nil {
		e.logger.Warn("login throttle reset failed", zap.Error(err))
	}
}

// Logout clears the client's session.
func (e *Engine) Logout(ctx context.Context, clientID string) error {
	store, err := e.open(ctx, clientID)
	if err != nil {
		return err
	}
	store.Logout(ctx)
	if store.Closed() {
		// Evicted meanwhile: a fresh store may have hydrated the record
		// before it was removed.
		fresh, err := e.open(ctx, clientID)
		if err != nil {
			return err
		}
		fresh.Logout(ctx)
	}
	return nil
}

// State returns a snapshot of the client's hydrated session.
func (e *Engine) State(ctx context.Context, clientID string) (session.State, error) {
	store, err := e.open(ctx, clientID)
	if err != nil {
		return session.State{}, err
	}
	return store.Snapshot(), nil
}

// Upload stores images under group. The batch fails as a whole.
func (e *Engine) Upload(ctx context.Context, group string, images ...media.Image) ([]string, error) {
	if e.closed.Load() {
		return nil, ErrEngineClosed
	}
	urls, err := e.uploader.Upload(ctx, group, images...)
	event := AuditEvent{
		EventType: AuditMediaUploaded,
		Success:   err == nil,
		Metadata:  map[string]string{"group": group},
	}
	if err != nil {
		e.metrics.Inc(MetricUploadFailure)
		event.EventType = AuditMediaUploadFailed
		event.Error = err.Error()
		e.audit.Emit(ctx, event)
		return nil, err
	}
	e.metrics.Inc(MetricUploadSuccess)
	e.audit.Emit(ctx, event)
	return urls, nil
}

// DeleteMedia removes a previously uploaded object.
func (e *Engine) DeleteMedia(ctx context.Context, url string) error {
	if e.closed.Load() {
		return ErrEngineClosed
	}
	err := e.uploader.Delete(ctx, url)
	event := AuditEvent{
		EventType: AuditMediaDeleted,
		Success:   err == nil,
		Metadata:  map[string]string{"url": url},
	}
	if err != nil {
		event.Error = err.Error()
	} else {
		e.metrics.Inc(MetricMediaDeleted)
	}
	e.audit.Emit(ctx, event)
	return err
}

func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	return e.metrics.Snapshot()
}

// LiveSessions returns the number of client stores currently held in memory.
func (e *Engine) LiveSessions() int {
	return e.sessions.Len()
}

// AuditDropped counts audit events lost to a full queue.
func (e *Engine) AuditDropped() uint64 {
	return e.audit.Dropped()
}

// Close disposes every session store and flushes the audit queue.
func (e *Engine) Close() {
	if !e.closed.CompareAndSwap(false, true) {
		return
	}
	e.sessions.Close()
	e.audit.Close()
	_ = e.logger.Sync()
}

func (e *Engine) open(ctx context.Context, clientID string) (*session.Store, error) {
	if e.closed.Load() {
		return nil, ErrEngineClosed
	}
	return e.sessions.Open(ctx, clientID)
}

// Observe receives store events from every session in the registry.
func (e *Engine) Observe(ctx context.Context, ev session.Event) {
	if ev.Kind != session.EventPersistFailed || ev.Op == "read" {
		e.metrics.Observe(MetricPersistLatency, ev.Latency)
	}

	switch ev.Kind {
	case session.EventHydrated:
		e.metrics.Inc(MetricHydrateRestored)
	case session.EventHydrateEmpty:
		e.metrics.Inc(MetricHydrateEmpty)
		return
	case session.EventHydratePurged:
		e.metrics.Inc(MetricHydratePurged)
	case session.EventLogin:
		e.metrics.Inc(MetricLoginSuccess)
	case session.EventLogout:
		e.metrics.Inc(MetricLogout)
	case session.EventPersistFailed:
		e.metrics.Inc(MetricPersistFailure)
	}

	event := AuditEvent{
		EventType: string(ev.Kind),
		ClientID:  ev.ClientID,
		UserID:    ev.UserID,
		UserType:  ev.UserType.String(),
		Success:   ev.Kind != session.EventPersistFailed,
	}
	if ev.Err != nil {
		event.Error = ev.Err.Error()
		event.Metadata = map[string]string{"op": ev.Op}
	}
	e.audit.Emit(ctx, event)
}

func (e *Engine) recordDecision(_ *http.Request, d guard.Decision) {
	switch {
	case d.Renders():
		e.metrics.Inc(MetricGuardRender)
	case d.Reason == guard.ReasonUnauthenticated:
		e.metrics.Inc(MetricGuardRedirectLogin)
	default:
		e.metrics.Inc(MetricGuardRedirectRole)
	}
}
