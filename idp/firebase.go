package idp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"go.pilab.hu/authbridge"
	"go.pilab.hu/authbridge/domain"
)

const (
	identityToolkitHost = "https://identitytoolkit.googleapis.com"
	secureTokenHost     = "https://securetoken.googleapis.com"

	// Refresh slightly before the reported expiry so a token handed out is
	// never already stale by the time it reaches the backend.
	expirySkew = 30 * time.Second
)

// FirebaseConfig configures the Firebase REST client.
type FirebaseConfig struct {
	APIKey string
	// EmulatorHost, when set, redirects all calls to a local Auth emulator
	// (host:port, plain HTTP).
	EmulatorHost string
	HTTPClient   *http.Client
	Logger       zerolog.Logger
}

// Firebase is an idp.Client backed by the Firebase Auth REST API.
type Firebase struct {
	apiKey       string
	identityHost string
	tokenHost    string
	http         *http.Client
	log          zerolog.Logger

	mu           sync.Mutex
	principal    *domain.Principal
	idToken      string
	idTokenExp   time.Time
	refreshToken string

	handlerMu sync.Mutex
	handlers  map[int]func(Event)
	nextID    int
}

// NewFirebase creates a Firebase identity client.
func NewFirebase(cfg FirebaseConfig) *Firebase {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	identityHost := identityToolkitHost
	tokenHost := secureTokenHost
	if cfg.EmulatorHost != "" {
		identityHost = "http://" + cfg.EmulatorHost + "/identitytoolkit.googleapis.com"
		tokenHost = "http://" + cfg.EmulatorHost + "/securetoken.googleapis.com"
	}
	return &Firebase{
		apiKey:       cfg.APIKey,
		identityHost: identityHost,
		tokenHost:    tokenHost,
		http:         httpClient,
		log:          cfg.Logger.With().Str("component", "firebase_idp").Logger(),
		handlers:     make(map[int]func(Event)),
	}
}

// OnStateChange implements Client.OnStateChange.
func (f *Firebase) OnStateChange(fn func(Event)) func() {
	f.handlerMu.Lock()
	defer f.handlerMu.Unlock()
	id := f.nextID
	f.nextID++
	f.handlers[id] = fn
	return func() {
		f.handlerMu.Lock()
		defer f.handlerMu.Unlock()
		delete(f.handlers, id)
	}
}

// CurrentPrincipal implements Client.CurrentPrincipal.
func (f *Firebase) CurrentPrincipal() *domain.Principal {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.principal
}

type signInResponse struct {
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	DisplayName  string `json:"displayName"`
	PhotoURL     string `json:"photoUrl"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
}

// SignInWithPassword signs in an email/password user and emits a signed-in
// event.
func (f *Firebase) SignInWithPassword(ctx context.Context, email, password string) (*domain.Principal, error) {
	body := map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}
	var res signInResponse
	if err := f.post(ctx, f.identityHost+"/v1/accounts:signInWithPassword", body, &res); err != nil {
		return nil, err
	}
	return f.adoptSignIn(res, domain.ProviderEmail), nil
}

// SignInWithIDP signs in with an OAuth credential obtained natively from
// Google or Apple, via the signInWithIdp endpoint.
func (f *Firebase) SignInWithIDP(ctx context.Context, provider domain.Provider, providerIDToken string) (*domain.Principal, error) {
	providerID, err := firebaseProviderID(provider)
	if err != nil {
		return nil, err
	}
	body := map[string]any{
		"postBody":            fmt.Sprintf("id_token=%s&providerId=%s", providerIDToken, providerID),
		"requestUri":          "http://localhost",
		"returnSecureToken":   true,
		"returnIdpCredential": true,
	}
	var res signInResponse
	if err := f.post(ctx, f.identityHost+"/v1/accounts:signInWithIdp", body, &res); err != nil {
		return nil, err
	}
	return f.adoptSignIn(res, provider), nil
}

func firebaseProviderID(p domain.Provider) (string, error) {
	switch p {
	case domain.ProviderGoogle:
		return "google.com", nil
	case domain.ProviderApple:
		return "apple.com", nil
	}
	return "", fmt.Errorf("provider %q cannot sign in through an OAuth credential", p)
}

func (f *Firebase) adoptSignIn(res signInResponse, provider domain.Provider) *domain.Principal {
	principal := &domain.Principal{
		ID:          res.LocalID,
		Email:       res.Email,
		DisplayName: res.DisplayName,
		PhotoURL:    res.PhotoURL,
		Provider:    provider,
	}

	f.mu.Lock()
	f.principal = principal
	f.idToken = res.IDToken
	f.idTokenExp = expiryFrom(res.ExpiresIn)
	f.refreshToken = res.RefreshToken
	f.mu.Unlock()

	f.log.Debug().Str("uid", principal.ID).Str("provider", string(provider)).Msg("signed in")
	f.emit(Event{Principal: principal})
	return principal
}

// IDToken implements Client.IDToken. With forceRefresh false a cached,
// unexpired token is reused; with forceRefresh true the secure-token endpoint
// is always consulted.
func (f *Firebase) IDToken(ctx context.Context, forceRefresh bool) (string, error) {
	f.mu.Lock()
	if f.refreshToken == "" {
		f.mu.Unlock()
		return "", authbridge.ErrNoPrincipal
	}
	if !forceRefresh && f.idToken != "" && time.Now().Before(f.idTokenExp.Add(-expirySkew)) {
		token := f.idToken
		f.mu.Unlock()
		return token, nil
	}
	refreshToken := f.refreshToken
	f.mu.Unlock()

	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		f.tokenHost+"/v1/token?key="+url.QueryEscape(f.apiKey),
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build token refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := f.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("refresh identity token: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("refresh identity token: status %d", resp.StatusCode)
	}

	var res struct {
		IDToken      string `json:"id_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    string `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return "", fmt.Errorf("decode token refresh response: %w", err)
	}

	f.mu.Lock()
	f.idToken = res.IDToken
	f.idTokenExp = expiryFrom(res.ExpiresIn)
	if res.RefreshToken != "" {
		f.refreshToken = res.RefreshToken
	}
	f.mu.Unlock()

	return res.IDToken, nil
}

// SignOut implements Client.SignOut. Firebase sessions are purely local, so
// this clears state and emits the signed-out event.
func (f *Firebase) SignOut(_ context.Context) error {
	f.mu.Lock()
	f.principal = nil
	f.idToken = ""
	f.idTokenExp = time.Time{}
	f.refreshToken = ""
	f.mu.Unlock()

	f.log.Debug().Msg("signed out")
	f.emit(Event{})
	return nil
}

func (f *Firebase) emit(ev Event) {
	f.handlerMu.Lock()
	handlers := make([]func(Event), 0, len(f.handlers))
	for _, fn := range f.handlers {
		handlers = append(handlers, fn)
	}
	f.handlerMu.Unlock()

	for _, fn := range handlers {
		fn(ev)
	}
}

func (f *Firebase) post(ctx context.Context, endpoint string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		endpoint+"?key="+url.QueryEscape(f.apiKey), strings.NewReader(string(payload)))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.http.Do(req)
	if err != nil {
		return fmt.Errorf("identity provider request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("identity provider request: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode identity provider response: %w", err)
	}
	return nil
}

func expiryFrom(expiresIn string) time.Time {
	secs, err := strconv.Atoi(expiresIn)
	if err != nil || secs <= 0 {
		secs = 3600
	}
	return time.Now().Add(time.Duration(secs) * time.Second)
}
