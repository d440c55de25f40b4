// Package idp wraps the external identity provider: it emits sign-in and
// sign-out events and issues short-lived identity tokens on demand. The
// coordinator treats implementations as a black box.
package idp

import (
	"context"

	"go.pilab.hu/authbridge/domain"
)

// Event is an identity-provider state change. A nil Principal means signed
// out.
type Event struct {
	Principal *domain.Principal
}

// Client is the identity-provider surface the coordinator consumes.
type Client interface {
	// OnStateChange registers a handler for sign-in and sign-out events and
	// returns an unsubscribe func. The provider emits events sequentially;
	// handlers must complete their state mutation before returning.
	OnStateChange(fn func(Event)) (unsubscribe func())

	// CurrentPrincipal returns the signed-in principal, or nil.
	CurrentPrincipal() *domain.Principal

	// IDToken returns a short-lived identity token for the current
	// principal. forceRefresh bypasses any cached token.
	IDToken(ctx context.Context, forceRefresh bool) (string, error)

	// SignOut ends the provider session and emits a signed-out event.
	SignOut(ctx context.Context) error
}
