package store

import (
	"context"
	"encoding/json"
	"fmt"

	"go.pilab.hu/authbridge"
	"go.pilab.hu/authbridge/domain"
)

// Persisted key names for the backend session pair. These two keys are owned
// by the SessionStore and are only ever written or removed together.
const (
	KeySessionToken = "auth:session_token"
	KeySessionUser  = "auth:session_user"
)

// SessionStore reads and writes the persisted (token, user) pair on top of a
// KV backend. It fails closed: a partial pair is reported as incomplete and
// never returned to the caller.
type SessionStore struct {
	kv KV
}

// NewSessionStore creates a SessionStore over kv.
func NewSessionStore(kv KV) *SessionStore {
	return &SessionStore{kv: kv}
}

// SavePair persists both halves of the pair. The token is written first so a
// crash between the two writes leaves a partial pair, which LoadPair treats
// as absent.
func (s *SessionStore) SavePair(ctx context.Context, pair domain.SessionPair) error {
	if !pair.Complete() {
		return authbridge.ErrPairIncomplete
	}
	userJSON, err := json.Marshal(pair.User)
	if err != nil {
		return fmt.Errorf("marshal session user: %w", err)
	}
	if err := s.kv.Set(ctx, KeySessionToken, string(pair.Token)); err != nil {
		return fmt.Errorf("persist session token: %w", err)
	}
	if err := s.kv.Set(ctx, KeySessionUser, string(userJSON)); err != nil {
		return fmt.Errorf("persist session user: %w", err)
	}
	return nil
}

// LoadPair reads both halves. It returns authbridge.ErrNoSession when neither
// half is present, and authbridge.ErrPairIncomplete when only one half is
// present or the stored user JSON is malformed.
func (s *SessionStore) LoadPair(ctx context.Context) (domain.SessionPair, error) {
	values, err := s.kv.MultiGet(ctx, KeySessionToken, KeySessionUser)
	if err != nil {
		return domain.SessionPair{}, fmt.Errorf("read session pair: %w", err)
	}
	token := values[KeySessionToken]
	userJSON := values[KeySessionUser]

	if token == "" && userJSON == "" {
		return domain.SessionPair{}, authbridge.ErrNoSession
	}
	if token == "" || userJSON == "" {
		return domain.SessionPair{}, authbridge.ErrPairIncomplete
	}

	var user domain.SessionUser
	if err := json.Unmarshal([]byte(userJSON), &user); err != nil {
		return domain.SessionPair{}, authbridge.ErrPairIncomplete
	}
	if user.ID == "" {
		return domain.SessionPair{}, authbridge.ErrPairIncomplete
	}
	return domain.SessionPair{Token: domain.SessionToken(token), User: &user}, nil
}

// ClearPair removes both keys as a unit.
func (s *SessionStore) ClearPair(ctx context.Context) error {
	return s.kv.MultiRemove(ctx, KeySessionToken, KeySessionUser)
}
