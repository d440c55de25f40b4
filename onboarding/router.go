// Package onboarding decides where a freshly authenticated user lands. The
// server's next_screen hint is advisory; the precedence rules here are
// authoritative and ordered, first match wins.
package onboarding

import (
	"context"

	"github.com/rs/zerolog"

	"go.pilab.hu/authbridge/domain"
	"go.pilab.hu/authbridge/dto"
)

// Screen names as the backend reports them.
const (
	ScreenWelcome     = "welcome"
	ScreenBreathe     = "breathe"
	ScreenPersonalize = "personalize"
	// ScreenMain is the hint the server sends for the main app; it is never
	// honored directly, completion is judged from is_completed instead.
	ScreenMain = "Main"
)

// StatusSource queries the backend onboarding status. *client.Backend
// satisfies it.
type StatusSource interface {
	OnboardingStatus(ctx context.Context, token domain.SessionToken) (*dto.StatusResponse, error)
}

// Router routes an authenticated user to their onboarding destination.
type Router struct {
	source StatusSource
	log    zerolog.Logger
}

// NewRouter creates a Router over the given status source.
func NewRouter(source StatusSource, logger zerolog.Logger) *Router {
	return &Router{
		source: source,
		log:    logger.With().Str("component", "onboarding_router").Logger(),
	}
}

// Route queries the status endpoint and applies Decide. Any network or parse
// failure routes to Breathe: an unknown status is treated as a new user,
// never as fully onboarded.
func (r *Router) Route(ctx context.Context, token domain.SessionToken) domain.Destination {
	status, err := r.source.OnboardingStatus(ctx, token)
	if err != nil {
		r.log.Warn().Err(err).Msg("status query failed, routing to breathe")
		return domain.DestinationBreathe
	}
	return Decide(status)
}

// Decide maps an onboarding status onto a destination. The rules are ordered
// and earlier rules override later ones; changing the order changes behavior.
func Decide(status *dto.StatusResponse) domain.Destination {
	// Completed users go straight to the dashboard, no matter what the rest
	// of the payload says.
	if status.IsCompleted {
		return domain.DestinationDashboard
	}

	// The breathing intro is a hard prerequisite: a user who has finished
	// neither breathe nor welcome starts there regardless of the server hint.
	if !status.Completed(ScreenBreathe) && !status.Completed(ScreenWelcome) {
		return domain.DestinationBreathe
	}

	if !status.HasProfile || status.Pending(ScreenPersonalize) {
		return domain.DestinationPersonalize
	}

	if status.NextScreen == ScreenBreathe && !status.Completed(ScreenBreathe) {
		return domain.DestinationBreathe
	}

	if status.NextScreen == ScreenPersonalize {
		return domain.DestinationPersonalize
	}

	if dest, ok := domain.DestinationFor(status.NextScreen); ok && status.NextScreen != ScreenMain {
		return dest
	}

	// Ambiguity fails toward re-collecting profile data, never toward
	// skipping onboarding.
	return domain.DestinationPersonalize
}
