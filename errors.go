package authbridge

import "errors"

var (
	// ErrNoSession is returned when neither half of the persisted session pair
	// is present in the store.
	ErrNoSession = errors.New("no persisted session")

	// ErrPairIncomplete is returned when exactly one half of the persisted
	// (token, user) pair is present. A partial pair is never trusted; callers
	// treat it the same as an absent session.
	ErrPairIncomplete = errors.New("persisted session pair incomplete")

	// ErrNoPrincipal is returned by operations that require a live
	// identity-provider principal when none is signed in.
	ErrNoPrincipal = errors.New("no identity principal")

	// ErrNotAuthenticated is returned when an operation needs a backend
	// session token and the coordinator holds none.
	ErrNotAuthenticated = errors.New("not authenticated against backend")
)
