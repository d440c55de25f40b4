package dto

import (
	"time"

	"go.pilab.hu/authbridge/domain"
)

// StatusResponse is the body of GET /onboarding/status.
type StatusResponse struct {
	IsCompleted          bool     `json:"is_completed"`
	HasProfile           bool     `json:"has_profile"`
	CompletionPercentage float64  `json:"completion_percentage"`
	MissingFields        []string `json:"missing_fields"`
	CurrentScreen        string   `json:"current_screen"`
	NextScreen           string   `json:"next_screen"`
	CompletedScreens     []string `json:"completed_screens"`
	PendingScreens       []string `json:"pending_screens"`
	OnboardingStartedAt  string   `json:"onboarding_started_at"`
}

// Completed reports whether screen appears in completed_screens.
func (s *StatusResponse) Completed(screen string) bool {
	return contains(s.CompletedScreens, screen)
}

// Pending reports whether screen appears in pending_screens.
func (s *StatusResponse) Pending(screen string) bool {
	return contains(s.PendingScreens, screen)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// DisplayInfoResponse is the body of GET /users/me, the larger user
// projection fetched for UI display.
type DisplayInfoResponse struct {
	UserPayload

	Greeting            string `json:"greeting,omitempty"`
	OnboardingCompleted bool   `json:"onboarding_completed"`
	SessionsCompleted   int    `json:"sessions_completed"`
	MinutesMeditated    int    `json:"minutes_meditated"`
	CurrentStreakDays   int    `json:"current_streak_days"`
	MemberSince         string `json:"member_since,omitempty"`
}

// ToDisplayInfo normalizes the wire projection into the domain record.
func (d DisplayInfoResponse) ToDisplayInfo() (*domain.DisplayInfo, error) {
	user, err := d.ToSessionUser()
	if err != nil {
		return nil, err
	}
	info := &domain.DisplayInfo{
		SessionUser:         *user,
		Greeting:            d.Greeting,
		OnboardingCompleted: d.OnboardingCompleted,
		SessionsCompleted:   d.SessionsCompleted,
		MinutesMeditated:    d.MinutesMeditated,
		CurrentStreakDays:   d.CurrentStreakDays,
	}
	if d.MemberSince != "" {
		ts, err := time.Parse(time.RFC3339, d.MemberSince)
		if err != nil {
			return nil, &ValidationError{Field: "member_since", Reason: "not RFC 3339"}
		}
		info.MemberSince = ts
	}
	return info, nil
}
