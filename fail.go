package plannerd

import (
	"errors"
	"fmt"
)

// Error kinds are part of the caller contract; the API routes and the web
// client match on them.
const (
	KindNotConnected        = "not-connected"
	KindReauthRequired      = "reauthorization-required"
	KindInsufficientScope   = "insufficient-scope"
	KindInvalidSummary      = "invalid-summary"
	KindInvalidDates        = "invalid-dates"
	KindInvalidDateOrder    = "invalid-date-order"
	KindEventNotFound       = "event-not-found"
	KindFetchFailed         = "calendar-fetch-failed"
	KindCreateFailed        = "calendar-create-failed"
	KindUpdateFailed        = "calendar-update-failed"
	KindDeleteFailed        = "calendar-delete-failed"
	KindInternalError       = "calendar-internal-error"
	KindMissingRefreshToken = "missing-refresh-token"
)

// Error is a typed operation failure. Status is the HTTP status the route
// layer should answer with; Kind is the stable string callers match on.
type Error struct {
	Status int
	Kind   string
}

func (e *Error) Error() string {
	return fmt.Sprintf("plannerd: %s (status %d)", e.Kind, e.Status)
}

func Fail(status int, kind string) *Error {
	return &Error{Status: status, Kind: kind}
}

// AsError unwraps a typed failure from an error chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
