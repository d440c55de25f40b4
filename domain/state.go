package domain

// StateKind names the auth lifecycle states.
type StateKind string

const (
	// StateUnknown is the initial state, and the state re-entered while a
	// sign-in is being resolved against the persisted session and the backend.
	StateUnknown StateKind = "UNKNOWN"
	// StateAuthenticated means a backend session token and user are held.
	StateAuthenticated StateKind = "AUTHENTICATED"
	// StateDegraded means the identity provider session is live but the
	// backend exchange failed; the user record is projected from the
	// principal and no session token is held.
	StateDegraded StateKind = "DEGRADED_AUTHENTICATED"
	// StateUnauthenticated means no session of any kind.
	StateUnauthenticated StateKind = "UNAUTHENTICATED"
)

// State is the auth lifecycle state. It is a value type; transitions never
// mutate, they return the successor state.
type State struct {
	Kind      StateKind
	Principal *Principal
	Token     SessionToken
	User      *SessionUser
}

// IsAuthenticated reports whether the state counts as signed in from the
// application's point of view. The degraded state counts: the UI proceeds,
// backend-authenticated calls fail individually.
func (s State) IsAuthenticated() bool {
	return s.Kind == StateAuthenticated || s.Kind == StateDegraded
}

// EventKind names the inputs to the transition function.
type EventKind string

const (
	// EventSignedIn fires when the identity provider reports a principal.
	// It does not resolve the session by itself; the coordinator follows up
	// with one of the terminal events below.
	EventSignedIn EventKind = "SIGNED_IN"
	// EventPairRestored fires when a complete persisted (token, user) pair is
	// adopted, either on the sign-in fast path or when a stale backend
	// session outlives the identity-provider session.
	EventPairRestored EventKind = "PAIR_RESTORED"
	// EventExchangeSucceeded fires when the backend exchange returns a fresh
	// token and user.
	EventExchangeSucceeded EventKind = "EXCHANGE_SUCCEEDED"
	// EventExchangeFailed fires when the exchange fails with a live
	// principal; the state degrades to identity-only.
	EventExchangeFailed EventKind = "EXCHANGE_FAILED"
	// EventSignedOutClean fires when the identity provider signs out and no
	// persisted pair exists.
	EventSignedOutClean EventKind = "SIGNED_OUT_CLEAN"
	// EventLoggedOut fires on explicit logout.
	EventLoggedOut EventKind = "LOGGED_OUT"
)

// Event is an input to Transition. Which payload fields are read depends on
// the kind.
type Event struct {
	Kind      EventKind
	Principal *Principal
	Token     SessionToken
	User      *SessionUser
}

// Transition is the pure state transition function. It performs no I/O and
// holds no locks; the coordinator owns sequencing and feeds it events.
func Transition(s State, e Event) State {
	switch e.Kind {
	case EventSignedIn:
		// Back to unknown with the principal recorded until the coordinator
		// resolves the persisted pair or the exchange.
		return State{Kind: StateUnknown, Principal: e.Principal}

	case EventPairRestored:
		return State{
			Kind:      StateAuthenticated,
			Principal: e.Principal,
			Token:     e.Token,
			User:      e.User,
		}

	case EventExchangeSucceeded:
		principal := e.Principal
		if principal == nil {
			principal = s.Principal
		}
		return State{
			Kind:      StateAuthenticated,
			Principal: principal,
			Token:     e.Token,
			User:      e.User,
		}

	case EventExchangeFailed:
		principal := e.Principal
		if principal == nil {
			principal = s.Principal
		}
		if principal == nil {
			return State{Kind: StateUnauthenticated}
		}
		return State{
			Kind:      StateDegraded,
			Principal: principal,
			User:      FromPrincipal(principal),
		}

	case EventSignedOutClean, EventLoggedOut:
		return State{Kind: StateUnauthenticated}
	}
	return s
}
