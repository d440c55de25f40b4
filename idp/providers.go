package idp

import (
	"fmt"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"

	"go.pilab.hu/authbridge/domain"
)

// Apple's OAuth2 endpoints. Google's come from the oauth2 package.
const (
	AppleAuthURL  = "https://appleid.apple.com/auth/authorize"
	AppleTokenURL = "https://appleid.apple.com/auth/token"
)

// OAuthConfig builds the oauth2.Config for obtaining a provider credential
// that SignInWithIDP accepts. Mobile clients normally get these credentials
// natively; this path exists for the CLI and for development flows.
func OAuthConfig(provider domain.Provider, clientID, clientSecret, redirectURL string) (*oauth2.Config, error) {
	switch provider {
	case domain.ProviderGoogle:
		return &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint:     googleoauth.Endpoint,
		}, nil
	case domain.ProviderApple:
		return &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"name", "email"},
			Endpoint: oauth2.Endpoint{
				AuthURL:   AppleAuthURL,
				TokenURL:  AppleTokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		}, nil
	}
	return nil, fmt.Errorf("provider %q has no OAuth2 configuration", provider)
}
