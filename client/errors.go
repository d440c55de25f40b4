package client

import "fmt"

// ExchangeError reports a failed token exchange, carrying the human-readable
// detail string the backend returned. StatusCode is zero when the transport
// itself failed.
type ExchangeError struct {
	StatusCode int
	Detail     string
}

func (e *ExchangeError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("token exchange failed: %s", e.Detail)
	}
	return fmt.Sprintf("token exchange failed (status %d): %s", e.StatusCode, e.Detail)
}
