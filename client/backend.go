// Package client talks to the backend REST API: the token exchange, the
// onboarding status query and the display-info projection.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"go.pilab.hu/authbridge/domain"
	"go.pilab.hu/authbridge/dto"
)

// Backend is an HTTP client for the backend API. It applies no retry policy;
// callers decide fallback behavior on failure.
type Backend struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

// NewBackend creates a Backend for the given base URL. A nil httpClient
// falls back to http.DefaultClient.
func NewBackend(baseURL string, httpClient *http.Client, logger zerolog.Logger) *Backend {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Backend{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		log:     logger.With().Str("component", "backend_client").Logger(),
	}
}

// Exchange trades an identity-provider token for a backend session token and
// user record via POST /auth/firebase/register. A non-2xx status or an
// undecodable body yields an *ExchangeError.
func (b *Backend) Exchange(ctx context.Context, idToken string, provider domain.Provider) (*dto.ExchangeResponse, error) {
	body, err := json.Marshal(dto.ExchangeRequest{
		IDToken:  idToken,
		Provider: string(provider),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal exchange request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/auth/firebase/register", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build exchange request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.http.Do(req)
	if err != nil {
		return nil, &ExchangeError{Detail: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, exchangeErrorFrom(resp)
	}

	var res dto.ExchangeResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, &ExchangeError{StatusCode: resp.StatusCode, Detail: "unparseable exchange response"}
	}
	if res.Token == "" {
		return nil, &ExchangeError{StatusCode: resp.StatusCode, Detail: "exchange response missing token"}
	}

	b.log.Debug().
		Str("provider", string(provider)).
		Bool("is_new_user", res.IsNewUser).
		Msg("token exchange succeeded")

	return &res, nil
}

// OnboardingStatus queries GET /onboarding/status with the session token.
func (b *Backend) OnboardingStatus(ctx context.Context, token domain.SessionToken) (*dto.StatusResponse, error) {
	var status dto.StatusResponse
	if err := b.getJSON(ctx, "/onboarding/status", token, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Me queries GET /users/me, the larger user projection used for display.
func (b *Backend) Me(ctx context.Context, token domain.SessionToken) (*dto.DisplayInfoResponse, error) {
	var info dto.DisplayInfoResponse
	if err := b.getJSON(ctx, "/users/me", token, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (b *Backend) getJSON(ctx context.Context, path string, token domain.SessionToken, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request for %s: %w", path, err)
	}
	req.Header.Set("Authorization", "Bearer "+string(token))

	resp, err := b.http.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := readDetail(resp.Body)
		b.log.Debug().Int("status", resp.StatusCode).Str("path", path).Msg("backend call failed")
		return fmt.Errorf("get %s: status %d: %s", path, resp.StatusCode, detail)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func exchangeErrorFrom(resp *http.Response) *ExchangeError {
	return &ExchangeError{
		StatusCode: resp.StatusCode,
		Detail:     readDetail(resp.Body),
	}
}

func readDetail(r io.Reader) string {
	var apiErr dto.APIError
	if err := json.NewDecoder(r).Decode(&apiErr); err == nil && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return "unknown error"
}
