package domain

import "time"

// DisplayInfo is the denormalized user projection fetched for UI display. It
// is a superset of SessionUser plus progress stats, and is only ever cached,
// never persisted.
type DisplayInfo struct {
	SessionUser

	Greeting            string    `json:"greeting,omitempty"`
	OnboardingCompleted bool      `json:"onboarding_completed"`
	SessionsCompleted   int       `json:"sessions_completed"`
	MinutesMeditated    int       `json:"minutes_meditated"`
	CurrentStreakDays   int       `json:"current_streak_days"`
	MemberSince         time.Time `json:"member_since,omitempty"`
}
