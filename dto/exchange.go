package dto

import (
	"go.pilab.hu/authbridge/domain"
)

// ExchangeRequest is the body of POST /auth/firebase/register.
type ExchangeRequest struct {
	IDToken  string `json:"id_token"`
	Provider string `json:"provider"`
}

// ExchangeResponse is the body of a successful exchange.
type ExchangeResponse struct {
	User      UserPayload `json:"user"`
	Token     string      `json:"token"`
	IsNewUser bool        `json:"is_new_user"`
}

// APIError is the backend's error envelope for non-2xx responses.
type APIError struct {
	Detail string `json:"detail"`
}

// UserPayload is the user record as the backend serializes it. Avatar may
// arrive under several historical field names; ToSessionUser normalizes it.
type UserPayload struct {
	ID           string `json:"id"`
	Email        string `json:"email,omitempty"`
	DisplayName  string `json:"display_name,omitempty"`
	AvatarURL    string `json:"avatar_url,omitempty"`
	ArtworkURL   string `json:"artwork_url,omitempty"`
	ArtworkURLCC string `json:"artworkUrl,omitempty"`
	ImageURL     string `json:"image_url,omitempty"`
	IsGuest      bool   `json:"is_guest"`
	AuthProvider string `json:"auth_provider"`
	IsActive     bool   `json:"is_active"`
}

// ToSessionUser converts the wire payload into the domain record, applying
// the avatar field precedence. It fails rather than silently accepting a
// record the rest of the lifecycle cannot trust.
func (u UserPayload) ToSessionUser() (*domain.SessionUser, error) {
	if u.ID == "" {
		return nil, &ValidationError{Field: "id", Reason: "missing"}
	}
	if u.AuthProvider == "" {
		return nil, &ValidationError{Field: "auth_provider", Reason: "missing"}
	}
	return &domain.SessionUser{
		ID:           u.ID,
		Email:        u.Email,
		DisplayName:  u.DisplayName,
		AvatarURL:    u.avatar(),
		IsGuest:      u.IsGuest,
		AuthProvider: u.AuthProvider,
		IsActive:     u.IsActive,
	}, nil
}

// avatar applies the documented precedence over the historical avatar field
// names: avatar_url, then artwork_url, then artworkUrl, then image_url.
func (u UserPayload) avatar() string {
	for _, candidate := range []string{u.AvatarURL, u.ArtworkURL, u.ArtworkURLCC, u.ImageURL} {
		if candidate != "" {
			return candidate
		}
	}
	return ""
}
