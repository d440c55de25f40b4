package idp

import (
	"context"
	"sync"

	"go.pilab.hu/authbridge"
	"go.pilab.hu/authbridge/domain"
)

// Fake is an in-memory idp.Client for tests and local development. Events are
// emitted synchronously from Emit* calls, matching the sequential delivery
// real providers give.
type Fake struct {
	mu        sync.Mutex
	principal *domain.Principal
	handlers  map[int]func(Event)
	nextID    int

	// Token is returned by IDToken when TokenErr is nil.
	Token string
	// TokenErr, when set, makes IDToken fail.
	TokenErr error
	// ForceRefreshCalls counts IDToken calls with forceRefresh set.
	ForceRefreshCalls int
}

// NewFake creates a signed-out Fake.
func NewFake() *Fake {
	return &Fake{handlers: make(map[int]func(Event)), Token: "fake-id-token"}
}

// OnStateChange implements Client.OnStateChange.
func (f *Fake) OnStateChange(fn func(Event)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	f.handlers[id] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.handlers, id)
	}
}

// CurrentPrincipal implements Client.CurrentPrincipal.
func (f *Fake) CurrentPrincipal() *domain.Principal {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.principal
}

// IDToken implements Client.IDToken.
func (f *Fake) IDToken(_ context.Context, forceRefresh bool) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.principal == nil {
		return "", authbridge.ErrNoPrincipal
	}
	if forceRefresh {
		f.ForceRefreshCalls++
	}
	if f.TokenErr != nil {
		return "", f.TokenErr
	}
	return f.Token, nil
}

// SignOut implements Client.SignOut by emitting a signed-out event.
func (f *Fake) SignOut(context.Context) error {
	f.EmitSignOut()
	return nil
}

// EmitSignIn sets the principal and delivers the signed-in event.
func (f *Fake) EmitSignIn(p *domain.Principal) {
	f.mu.Lock()
	f.principal = p
	f.mu.Unlock()
	f.emit(Event{Principal: p})
}

// EmitSignOut clears the principal and delivers the signed-out event.
func (f *Fake) EmitSignOut() {
	f.mu.Lock()
	f.principal = nil
	f.mu.Unlock()
	f.emit(Event{})
}

func (f *Fake) emit(ev Event) {
	f.mu.Lock()
	handlers := make([]func(Event), 0, len(f.handlers))
	for _, fn := range f.handlers {
		handlers = append(handlers, fn)
	}
	f.mu.Unlock()

	for _, fn := range handlers {
		fn(ev)
	}
}
