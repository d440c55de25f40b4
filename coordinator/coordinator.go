// Package coordinator owns the authoritative in-memory session state and
// keeps it consistent with the identity provider's live state and the
// persisted backend session.
package coordinator

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"go.pilab.hu/authbridge"
	"go.pilab.hu/authbridge/cache"
	"go.pilab.hu/authbridge/domain"
	"go.pilab.hu/authbridge/dto"
	"go.pilab.hu/authbridge/idp"
	"go.pilab.hu/authbridge/store"
)

// Exchanger performs the backend token exchange. *client.Backend satisfies
// it.
type Exchanger interface {
	Exchange(ctx context.Context, idToken string, provider domain.Provider) (*dto.ExchangeResponse, error)
}

// Snapshot is an immutable view of the coordinator's state, handed to
// subscribers and returned by State.
type Snapshot struct {
	Principal       *domain.Principal
	Token           domain.SessionToken
	User            *domain.SessionUser
	IsAuthenticated bool
	IsLoading       bool
}

// Deps wires the coordinator's collaborators. Display is optional; when set
// it is cleared on logout.
type Deps struct {
	IDP      idp.Client
	Exchange Exchanger
	Sessions *store.SessionStore
	Display  *cache.DisplayCache
	Logger   zerolog.Logger
}

// Coordinator is the single writer of the session state. Transitions are
// serialized by a mutex so overlapping identity-provider events resolve
// deterministically, one at a time.
type Coordinator struct {
	idp      idp.Client
	exchange Exchanger
	sessions *store.SessionStore
	display  *cache.DisplayCache
	log      zerolog.Logger

	mu      sync.Mutex
	state   domain.State
	loading bool

	subMu  sync.Mutex
	subs   map[int]func(Snapshot)
	nextID int
}

// New creates a Coordinator. Call Initialize to start observing the identity
// provider.
func New(deps Deps) *Coordinator {
	return &Coordinator{
		idp:      deps.IDP,
		exchange: deps.Exchange,
		sessions: deps.Sessions,
		display:  deps.Display,
		log:      deps.Logger.With().Str("component", "coordinator").Logger(),
		state:    domain.State{Kind: domain.StateUnknown},
		subs:     make(map[int]func(Snapshot)),
	}
}

// Initialize subscribes to identity-provider state changes and resolves the
// provider's current state in the background. It returns an unsubscribe
// handle and does not block; IsLoading stays true until the first terminal
// state is reached.
func (c *Coordinator) Initialize(ctx context.Context) func() {
	c.mu.Lock()
	c.loading = true
	c.state = domain.State{Kind: domain.StateUnknown}
	c.mu.Unlock()

	unsubscribe := c.idp.OnStateChange(func(ev idp.Event) {
		if ev.Principal != nil {
			c.handleSignedIn(ctx, ev.Principal)
		} else {
			c.handleSignedOut(ctx)
		}
	})

	// Resolve whatever state the provider is already in; on a fresh app
	// start this is where a persisted backend session gets adopted.
	go func() {
		if p := c.idp.CurrentPrincipal(); p != nil {
			c.handleSignedIn(ctx, p)
		} else {
			c.handleSignedOut(ctx)
		}
	}()

	return unsubscribe
}

// State returns a snapshot of the current state.
func (c *Coordinator) State() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Subscribe registers fn for state-change notifications and returns an
// unsubscribe func. fn must not call back into the coordinator.
func (c *Coordinator) Subscribe(fn func(Snapshot)) func() {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	return func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		delete(c.subs, id)
	}
}

// SetBackendAuth adopts an exchange result: persists the (token, user) pair
// and updates the in-memory state. Applying the same result twice is
// observably a no-op.
func (c *Coordinator) SetBackendAuth(ctx context.Context, res *dto.ExchangeResponse) error {
	c.mu.Lock()
	changed, err := c.setBackendAuthLocked(ctx, res)
	snap := c.snapshotLocked()
	c.mu.Unlock()

	if err != nil {
		return err
	}
	if changed {
		c.notify(snap)
	}
	return nil
}

// RefreshBackendToken forces a fresh identity token and re-runs the exchange.
// It requires a live principal and attempts exactly once: any failure leaves
// the prior state untouched.
func (c *Coordinator) RefreshBackendToken(ctx context.Context) (domain.SessionToken, error) {
	principal := c.idp.CurrentPrincipal()
	if principal == nil {
		return "", authbridge.ErrNoPrincipal
	}

	idToken, err := c.idp.IDToken(ctx, true)
	if err != nil {
		return "", fmt.Errorf("refresh identity token: %w", err)
	}
	res, err := c.exchange.Exchange(ctx, idToken, principal.Provider)
	if err != nil {
		return "", err
	}
	if err := c.SetBackendAuth(ctx, res); err != nil {
		return "", err
	}
	return domain.SessionToken(res.Token), nil
}

// Logout clears the persisted pair first, then signs out of the identity
// provider. In-memory state is finished by the signed-out handler so the
// state keeps a single writer.
func (c *Coordinator) Logout(ctx context.Context) error {
	if err := c.sessions.ClearPair(ctx); err != nil {
		c.log.Warn().Err(err).Msg("clearing persisted session failed")
	}
	if c.display != nil {
		c.display.Clear()
	}
	return c.idp.SignOut(ctx)
}

func (c *Coordinator) handleSignedIn(ctx context.Context, principal *domain.Principal) {
	c.mu.Lock()
	c.state = domain.Transition(c.state, domain.Event{Kind: domain.EventSignedIn, Principal: principal})

	pair, err := c.sessions.LoadPair(ctx)
	if err == nil {
		// Fast path: both halves persisted and well-formed, no network call.
		c.state = domain.Transition(c.state, domain.Event{
			Kind:      domain.EventPairRestored,
			Principal: principal,
			Token:     pair.Token,
			User:      pair.User,
		})
		c.log.Debug().Str("uid", principal.ID).Msg("persisted session adopted")
		c.finishLocked()
		return
	}

	// Absent or partial pair: re-exchange with a forced-refresh identity
	// token. Any failure degrades to identity-only rather than blocking.
	idToken, err := c.idp.IDToken(ctx, true)
	if err != nil {
		c.log.Warn().Err(err).Msg("identity token unavailable, degrading")
		c.state = domain.Transition(c.state, domain.Event{Kind: domain.EventExchangeFailed, Principal: principal})
		c.finishLocked()
		return
	}

	res, err := c.exchange.Exchange(ctx, idToken, principal.Provider)
	if err != nil {
		c.log.Warn().Err(err).Msg("token exchange failed, degrading")
		c.state = domain.Transition(c.state, domain.Event{Kind: domain.EventExchangeFailed, Principal: principal})
		c.finishLocked()
		return
	}

	if _, err := c.setBackendAuthLocked(ctx, res); err != nil {
		c.log.Warn().Err(err).Msg("adopting exchange result failed, degrading")
		c.state = domain.Transition(c.state, domain.Event{Kind: domain.EventExchangeFailed, Principal: principal})
	}
	c.finishLocked()
}

func (c *Coordinator) handleSignedOut(ctx context.Context) {
	c.mu.Lock()

	pair, err := c.sessions.LoadPair(ctx)
	if err == nil {
		// The backend session outlived the identity-provider session. The
		// token may still be valid; adopt it without a principal. Validity
		// is deliberately not re-verified locally.
		c.state = domain.Transition(c.state, domain.Event{
			Kind:  domain.EventPairRestored,
			Token: pair.Token,
			User:  pair.User,
		})
		c.log.Debug().Msg("stale backend session adopted without principal")
		c.finishLocked()
		return
	}

	// Sweep whatever half-pair may remain; the result is not waited on for
	// correctness, a failed sweep just leaves an already-untrusted key.
	if err := c.sessions.ClearPair(ctx); err != nil {
		c.log.Warn().Err(err).Msg("sweeping persisted keys failed")
	}
	c.state = domain.Transition(c.state, domain.Event{Kind: domain.EventSignedOutClean})
	c.finishLocked()
}

// setBackendAuthLocked validates, persists and adopts an exchange result.
// The caller holds c.mu. The returned bool reports whether state changed.
func (c *Coordinator) setBackendAuthLocked(ctx context.Context, res *dto.ExchangeResponse) (bool, error) {
	user, err := res.User.ToSessionUser()
	if err != nil {
		return false, fmt.Errorf("exchange response: %w", err)
	}
	pair := domain.SessionPair{Token: domain.SessionToken(res.Token), User: user}
	if !pair.Complete() {
		return false, authbridge.ErrPairIncomplete
	}

	if c.state.Kind == domain.StateAuthenticated &&
		c.state.Token == pair.Token &&
		c.state.User != nil && *c.state.User == *user {
		return false, nil
	}

	if err := c.sessions.SavePair(ctx, pair); err != nil {
		return false, err
	}
	c.state = domain.Transition(c.state, domain.Event{
		Kind:  domain.EventExchangeSucceeded,
		Token: pair.Token,
		User:  user,
	})
	return true, nil
}

// finishLocked marks the transition terminal and notifies subscribers. It
// releases c.mu.
func (c *Coordinator) finishLocked() {
	c.loading = false
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)
}

func (c *Coordinator) snapshotLocked() Snapshot {
	return Snapshot{
		Principal:       c.state.Principal,
		Token:           c.state.Token,
		User:            c.state.User,
		IsAuthenticated: c.state.IsAuthenticated(),
		IsLoading:       c.loading,
	}
}

func (c *Coordinator) notify(snap Snapshot) {
	c.subMu.Lock()
	handlers := make([]func(Snapshot), 0, len(c.subs))
	for _, fn := range c.subs {
		handlers = append(handlers, fn)
	}
	c.subMu.Unlock()

	for _, fn := range handlers {
		fn(snap)
	}
}
