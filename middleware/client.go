package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/makolaconnect/makola/session"
)

// ClientCookieName holds the browser client id.
const ClientCookieName = "makola_client"

const clientCookieMaxAge = 365 * 24 * time.Hour

// CookieOptions controls how the client cookie is issued.
type CookieOptions struct {
	Path     string
	Domain   string
	Secure   bool
	SameSite http.SameSite
}

func (o CookieOptions) normalize() CookieOptions {
	if o.Path == "" {
		o.Path = "/"
	}
	if o.SameSite == 0 {
		o.SameSite = http.SameSiteLaxMode
	}
	return o
}

type clientIDContextKey struct{}

// ClientIDFromContext returns the client id resolved by Session.
func ClientIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(clientIDContextKey{}).(string)
	return id, ok && id != ""
}

// StoreResolver opens the hydrated store of a client. *session.Registry
// satisfies it.
type StoreResolver interface {
	Open(ctx context.Context, clientID string) (*session.Store, error)
}

// NewSession returns middleware that attaches the client's store to every
// request. A nil resolver is a wiring error.
func NewSession(resolver StoreResolver, opts CookieOptions) (func(http.Handler) http.Handler, error) {
	if resolver == nil {
		return nil, ErrNotWired
	}
	opts = opts.normalize()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientID, fresh := clientIDFromRequest(r)
			if fresh {
				setClientCookie(w, clientID, opts)
			}

			store, err := resolver.Open(r.Context(), clientID)
			if err != nil {
				http.Error(w, "session unavailable", http.StatusServiceUnavailable)
				return
			}

			ctx := context.WithValue(r.Context(), clientIDContextKey{}, clientID)
			ctx = session.WithStore(ctx, store)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}, nil
}

// Session is NewSession for composition roots; it panics on wiring errors.
func Session(resolver StoreResolver, opts CookieOptions) func(http.Handler) http.Handler {
	mw, err := NewSession(resolver, opts)
	if err != nil {
		panic(err)
	}
	return mw
}

func clientIDFromRequest(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(ClientCookieName)
	if err == nil {
		if id, err := uuid.Parse(cookie.Value); err == nil {
			return id.String(), false
		}
	}
	return uuid.NewString(), true
}

func setClientCookie(w http.ResponseWriter, clientID string, opts CookieOptions) {
	http.SetCookie(w, &http.Cookie{
		Name:     ClientCookieName,
		Value:    clientID,
		Path:     opts.Path,
		Domain:   opts.Domain,
		MaxAge:   int(clientCookieMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: opts.SameSite,
	})
}
