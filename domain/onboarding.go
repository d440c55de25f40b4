package domain

// Destination is a navigation target produced by the onboarding status
// router. Closed set for this version, extensible.
type Destination string

const (
	DestinationDashboard   Destination = "dashboard"
	DestinationBreathe     Destination = "breathe"
	DestinationPersonalize Destination = "personalize"
)

// DestinationFor maps a server next_screen hint onto a known destination.
// The hint is advisory; the router applies its own precedence before ever
// consulting it.
func DestinationFor(screen string) (Destination, bool) {
	switch screen {
	case "dashboard":
		return DestinationDashboard, true
	case "breathe":
		return DestinationBreathe, true
	case "personalize":
		return DestinationPersonalize, true
	}
	return "", false
}
