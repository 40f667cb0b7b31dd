package session

import "context"

type storeContextKey struct{}

// WithStore attaches the request's store to ctx.
func WithStore(ctx context.Context, store *Store) context.Context {
	return context.WithValue(ctx, storeContextKey{}, store)
}

// FromContext returns the store attached by WithStore.
func FromContext(ctx context.Context) (*Store, bool) {
	if ctx == nil {
		return nil, false
	}
	store, ok := ctx.Value(storeContextKey{}).(*Store)
	return store, ok && store != nil
}

// MustFromContext is the access point for views behind the session
// middleware. A missing store means the handler was mounted outside that
// middleware, so it panics with ErrNoStoreInContext instead of pretending
// nobody is logged in.
func MustFromContext(ctx context.Context) *Store {
	store, ok := FromContext(ctx)
	if !ok {
		panic(ErrNoStoreInContext)
	}
	return store
}
