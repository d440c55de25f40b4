package domain

// Provider identifies the upstream identity provider a sign-in came through.
type Provider string

const (
	ProviderEmail  Provider = "email"
	ProviderApple  Provider = "apple"
	ProviderGoogle Provider = "google"
)

// Valid reports whether p is one of the known providers.
func (p Provider) Valid() bool {
	switch p {
	case ProviderEmail, ProviderApple, ProviderGoogle:
		return true
	}
	return false
}

// Principal represents the signed-in identity-provider user as the provider
// reports it. It is created and destroyed entirely by the identity provider;
// the coordinator only observes it.
type Principal struct {
	ID          string   `json:"id"`
	Email       string   `json:"email,omitempty"`
	DisplayName string   `json:"display_name,omitempty"`
	PhotoURL    string   `json:"photo_url,omitempty"`
	Provider    Provider `json:"provider,omitempty"`
}
