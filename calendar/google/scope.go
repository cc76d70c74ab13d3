package google

import (
	"strings"

	gcal "google.golang.org/api/calendar/v3"
)

// HasWriteScope reports whether a granted scope string permits event
// writes: either the events scope or the broader full-calendar scope.
// Pure, no I/O.
func HasWriteScope(scope string) bool {
	for _, s := range strings.Fields(scope) {
		switch s {
		case gcal.CalendarEventsScope, gcal.CalendarScope:
			return true
		}
	}
	return false
}
