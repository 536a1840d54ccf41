// Package identity exposes the "current signed-in user, or none" capability.
//
// The service core never authenticates anyone itself; it only reacts to the
// identity the transport layer established. Sign-out needs no server-side
// handling: once the client stops presenting a token, every operation
// behaves as "not signed in".
package identity

import "context"

// Provider reports the current signed-in user id, if any.
type Provider interface {
	CurrentUser(ctx context.Context) (string, bool)
}

// ContextProvider reads the identity the auth middleware stored on the
// request context.
type ContextProvider struct {
	// Lookup extracts the user id from a context. Wired to the middleware's
	// context-key accessor so this package does not import the transport.
	Lookup func(ctx context.Context) string
}

func (p ContextProvider) CurrentUser(ctx context.Context) (string, bool) {
	if p.Lookup == nil {
		return "", false
	}
	id := p.Lookup(ctx)
	return id, id != ""
}

// Static always reports the same user. Used by tests.
type Static struct {
	ID string
}

func (s Static) CurrentUser(context.Context) (string, bool) {
	return s.ID, s.ID != ""
}

// None reports no signed-in user. Used by tests and anonymous paths.
type None struct{}

func (None) CurrentUser(context.Context) (string, bool) { return "", false }
