package domain

// SessionToken is the opaque bearer credential issued by the backend exchange.
// Its expiry is server-defined and never decoded locally.
type SessionToken string

// SessionUser is the backend's view of the authenticated user, returned by the
// exchange alongside the session token and persisted as a paired record.
type SessionUser struct {
	ID           string `json:"id"`
	Email        string `json:"email,omitempty"`
	DisplayName  string `json:"display_name,omitempty"`
	AvatarURL    string `json:"avatar_url,omitempty"`
	IsGuest      bool   `json:"is_guest"`
	AuthProvider string `json:"auth_provider"`
	IsActive     bool   `json:"is_active"`
}

// SessionPair is the (token, user) pair as it is persisted. The two halves are
// always written and read together; a pair with either half missing is treated
// as absent.
type SessionPair struct {
	Token SessionToken
	User  *SessionUser
}

// Complete reports whether both halves of the pair are present.
func (p SessionPair) Complete() bool {
	return p.Token != "" && p.User != nil
}

// FromPrincipal builds the degraded identity-only session user adopted when
// the backend exchange fails but the identity-provider session is live.
func FromPrincipal(pr *Principal) *SessionUser {
	return &SessionUser{
		ID:           pr.ID,
		Email:        pr.Email,
		DisplayName:  pr.DisplayName,
		AvatarURL:    pr.PhotoURL,
		AuthProvider: string(pr.Provider),
		IsActive:     true,
	}
}
