package coordinator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.pilab.hu/authbridge"
	"go.pilab.hu/authbridge/domain"
	"go.pilab.hu/authbridge/dto"
	"go.pilab.hu/authbridge/idp"
	"go.pilab.hu/authbridge/store"
)

type fakeExchanger struct {
	mu    sync.Mutex
	calls int
	res   *dto.ExchangeResponse
	err   error
}

func (f *fakeExchanger) Exchange(_ context.Context, _ string, _ domain.Provider) (*dto.ExchangeResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.res, nil
}

func (f *fakeExchanger) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func exchangeResult() *dto.ExchangeResponse {
	return &dto.ExchangeResponse{
		User: dto.UserPayload{
			ID:           "u1",
			Email:        "sam@example.com",
			IsGuest:      false,
			AuthProvider: "firebase",
			IsActive:     true,
		},
		Token:     "abc.def.ghi",
		IsNewUser: true,
	}
}

func principal() *domain.Principal {
	return &domain.Principal{
		ID:       "fb-1",
		Email:    "sam@example.com",
		PhotoURL: "https://cdn.example.com/p.png",
		Provider: domain.ProviderGoogle,
	}
}

type fixture struct {
	kv       *store.Memory
	sessions *store.SessionStore
	fakeIDP  *idp.Fake
	exchange *fakeExchanger
	coord    *Coordinator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	kv := store.NewMemory()
	sessions := store.NewSessionStore(kv)
	fakeIDP := idp.NewFake()
	exchange := &fakeExchanger{res: exchangeResult()}
	coord := New(Deps{
		IDP:      fakeIDP,
		Exchange: exchange,
		Sessions: sessions,
		Logger:   zerolog.Nop(),
	})
	return &fixture{kv: kv, sessions: sessions, fakeIDP: fakeIDP, exchange: exchange, coord: coord}
}

func waitSettled(t *testing.T, c *Coordinator) Snapshot {
	t.Helper()
	require.Eventually(t, func() bool {
		return !c.State().IsLoading
	}, time.Second, 5*time.Millisecond)
	return c.State()
}

func TestInitializeWithNothingPersisted(t *testing.T) {
	f := newFixture(t)

	unsubscribe := f.coord.Initialize(context.Background())
	defer unsubscribe()

	snap := waitSettled(t, f.coord)
	assert.False(t, snap.IsAuthenticated)
	assert.Empty(t, snap.Token)
	assert.Nil(t, snap.User)
}

func TestInitializeAdoptsPersistedPairOnRestart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := &domain.SessionUser{ID: "u1", AuthProvider: "firebase", IsActive: true}
	require.NoError(t, f.sessions.SavePair(ctx, domain.SessionPair{Token: "tok", User: user}))

	// The provider has no live session; the persisted backend session is
	// still trusted.
	unsubscribe := f.coord.Initialize(ctx)
	defer unsubscribe()

	snap := waitSettled(t, f.coord)
	assert.True(t, snap.IsAuthenticated)
	assert.Equal(t, domain.SessionToken("tok"), snap.Token)
	assert.Equal(t, user, snap.User)
	assert.Nil(t, snap.Principal)
	assert.Zero(t, f.exchange.callCount())
}

func TestSignedInFastPathSkipsExchange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := &domain.SessionUser{ID: "u1", AuthProvider: "firebase", IsActive: true}
	require.NoError(t, f.sessions.SavePair(ctx, domain.SessionPair{Token: "tok", User: user}))

	unsubscribe := f.coord.Initialize(ctx)
	defer unsubscribe()
	waitSettled(t, f.coord)

	f.fakeIDP.EmitSignIn(principal())

	snap := f.coord.State()
	assert.True(t, snap.IsAuthenticated)
	assert.Equal(t, domain.SessionToken("tok"), snap.Token)
	assert.Zero(t, f.exchange.callCount(), "persisted pair must be adopted without a network call")
}

func TestSignedInPartialPairTakesExchangePath(t *testing.T) {
	tests := []struct {
		name string
		seed func(ctx context.Context, kv *store.Memory)
	}{
		{
			name: "token only",
			seed: func(ctx context.Context, kv *store.Memory) {
				_ = kv.Set(ctx, store.KeySessionToken, "orphan-token")
			},
		},
		{
			name: "user only",
			seed: func(ctx context.Context, kv *store.Memory) {
				_ = kv.Set(ctx, store.KeySessionUser, `{"id":"u9","auth_provider":"firebase"}`)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()

			unsubscribe := f.coord.Initialize(ctx)
			defer unsubscribe()
			waitSettled(t, f.coord)

			// Seed after the initial sweep so the partial pair is what the
			// sign-in handler actually reads.
			tt.seed(ctx, f.kv)

			f.fakeIDP.EmitSignIn(principal())

			snap := f.coord.State()
			assert.Equal(t, 1, f.exchange.callCount(), "partial pair must be treated as absent")
			assert.True(t, snap.IsAuthenticated)
			assert.Equal(t, domain.SessionToken("abc.def.ghi"), snap.Token)
			assert.Equal(t, "u1", snap.User.ID)
		})
	}
}

func TestSignedInExchangeSuccessPersistsPair(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	unsubscribe := f.coord.Initialize(ctx)
	defer unsubscribe()
	waitSettled(t, f.coord)

	f.fakeIDP.EmitSignIn(principal())

	assert.Equal(t, 1, f.fakeIDP.ForceRefreshCalls, "exchange path uses a forced-refresh identity token")

	pair, err := f.sessions.LoadPair(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionToken("abc.def.ghi"), pair.Token)
	assert.Equal(t, "u1", pair.User.ID)
}

func TestSignedInExchangeFailureDegrades(t *testing.T) {
	f := newFixture(t)
	f.exchange.err = errors.New("backend unreachable")
	ctx := context.Background()

	unsubscribe := f.coord.Initialize(ctx)
	defer unsubscribe()
	waitSettled(t, f.coord)

	p := principal()
	f.fakeIDP.EmitSignIn(p)

	snap := f.coord.State()
	assert.True(t, snap.IsAuthenticated, "degraded identity-only state still counts as signed in")
	assert.Empty(t, snap.Token)
	require.NotNil(t, snap.User)
	assert.Equal(t, p.ID, snap.User.ID)
	assert.Equal(t, p.Email, snap.User.Email)
	assert.Equal(t, p.PhotoURL, snap.User.AvatarURL)

	// Nothing was persisted for the degraded session.
	_, err := f.sessions.LoadPair(ctx)
	assert.ErrorIs(t, err, authbridge.ErrNoSession)
}

func TestSignedOutWithStalePairAdoptsIt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	unsubscribe := f.coord.Initialize(ctx)
	defer unsubscribe()
	waitSettled(t, f.coord)

	f.fakeIDP.EmitSignIn(principal())
	require.True(t, f.coord.State().IsAuthenticated)

	// Identity-provider session expires; the persisted pair remains.
	f.fakeIDP.EmitSignOut()

	snap := f.coord.State()
	assert.True(t, snap.IsAuthenticated)
	assert.Equal(t, domain.SessionToken("abc.def.ghi"), snap.Token)
	assert.Nil(t, snap.Principal)
}

func TestSetBackendAuthIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	notifications := 0
	f.coord.Subscribe(func(Snapshot) { notifications++ })

	require.NoError(t, f.coord.SetBackendAuth(ctx, exchangeResult()))
	first := f.coord.State()

	require.NoError(t, f.coord.SetBackendAuth(ctx, exchangeResult()))
	second := f.coord.State()

	assert.Equal(t, first, second)
	assert.Equal(t, 1, notifications, "identical payload must be observably a no-op")

	pair, err := f.sessions.LoadPair(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionToken("abc.def.ghi"), pair.Token)
}

func TestSetBackendAuthScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.coord.SetBackendAuth(ctx, exchangeResult()))

	snap := f.coord.State()
	assert.Equal(t, "u1", snap.User.ID)
	assert.True(t, snap.IsAuthenticated)

	raw, err := f.kv.Get(ctx, store.KeySessionUser)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"u1","email":"sam@example.com","is_guest":false,"auth_provider":"firebase","is_active":true}`, raw)
}

func TestSetBackendAuthRejectsMalformedUser(t *testing.T) {
	f := newFixture(t)

	res := exchangeResult()
	res.User.ID = ""

	err := f.coord.SetBackendAuth(context.Background(), res)
	require.Error(t, err)
	assert.False(t, f.coord.State().IsAuthenticated)
}

func TestRefreshBackendTokenRequiresPrincipal(t *testing.T) {
	f := newFixture(t)

	_, err := f.coord.RefreshBackendToken(context.Background())
	assert.ErrorIs(t, err, authbridge.ErrNoPrincipal)
}

func TestRefreshBackendToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.fakeIDP.EmitSignIn(principal())

	token, err := f.coord.RefreshBackendToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionToken("abc.def.ghi"), token)
	assert.GreaterOrEqual(t, f.fakeIDP.ForceRefreshCalls, 1)
	assert.True(t, f.coord.State().IsAuthenticated)
}

func TestRefreshBackendTokenFailureLeavesStateUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	unsubscribe := f.coord.Initialize(ctx)
	defer unsubscribe()
	waitSettled(t, f.coord)

	f.fakeIDP.EmitSignIn(principal())
	before := f.coord.State()
	require.True(t, before.IsAuthenticated)

	f.exchange.mu.Lock()
	f.exchange.err = errors.New("backend unreachable")
	f.exchange.mu.Unlock()

	_, err := f.coord.RefreshBackendToken(ctx)
	require.Error(t, err)
	assert.Equal(t, before, f.coord.State(), "a single failed attempt must not disturb prior state")
}

func TestLogoutClearsEverything(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	unsubscribe := f.coord.Initialize(ctx)
	defer unsubscribe()
	waitSettled(t, f.coord)

	f.fakeIDP.EmitSignIn(principal())
	require.True(t, f.coord.State().IsAuthenticated)

	require.NoError(t, f.coord.Logout(ctx))

	snap := f.coord.State()
	assert.False(t, snap.IsAuthenticated)
	assert.Empty(t, snap.Token)
	assert.Nil(t, snap.User)

	token, err := f.kv.Get(ctx, store.KeySessionToken)
	require.NoError(t, err)
	assert.Empty(t, token)
	user, err := f.kv.Get(ctx, store.KeySessionUser)
	require.NoError(t, err)
	assert.Empty(t, user)
}

func TestLogoutFromDegradedState(t *testing.T) {
	f := newFixture(t)
	f.exchange.err = errors.New("backend unreachable")
	ctx := context.Background()

	unsubscribe := f.coord.Initialize(ctx)
	defer unsubscribe()
	waitSettled(t, f.coord)

	f.fakeIDP.EmitSignIn(principal())
	require.True(t, f.coord.State().IsAuthenticated)

	require.NoError(t, f.coord.Logout(ctx))
	assert.False(t, f.coord.State().IsAuthenticated)
}

func TestSubscribeReceivesTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var snaps []Snapshot
	var mu sync.Mutex
	unsubscribe := f.coord.Subscribe(func(s Snapshot) {
		mu.Lock()
		snaps = append(snaps, s)
		mu.Unlock()
	})
	defer unsubscribe()

	stop := f.coord.Initialize(ctx)
	defer stop()
	waitSettled(t, f.coord)

	f.fakeIDP.EmitSignIn(principal())

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, snaps)
	last := snaps[len(snaps)-1]
	assert.True(t, last.IsAuthenticated)
	assert.False(t, last.IsLoading)
}
