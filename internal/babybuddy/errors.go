package babybuddy

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthorization means the API rejected the configured token.
	ErrAuthorization = errors.New("babybuddy: authorization failed")

	// ErrConnect means the API could not be reached.
	ErrConnect = errors.New("babybuddy: connection failed")

	// ErrNotConnected means Connect has not succeeded yet.
	ErrNotConnected = errors.New("babybuddy: endpoints not discovered, call Connect first")

	// ErrFutureTime rejects service time fields that lie in the future.
	ErrFutureTime = errors.New("babybuddy: time cannot be in the future")
)

// APIError is a non-success HTTP response from the Baby Buddy API.
type APIError struct {
	Endpoint string
	Status   int
	Body     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("babybuddy: %s returned status %d: %s", e.Endpoint, e.Status, e.Body)
}
