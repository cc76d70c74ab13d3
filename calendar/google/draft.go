package google

import (
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/plannerd/plannerd"
)

const maxSummaryLength = 200

// validateDraft checks a caller-supplied draft before anything reaches the
// network, short-circuiting on the first failure. It returns a normalized
// copy: summary and optional fields trimmed, empty optionals treated as
// absent.
func validateDraft(d *plannerd.Draft) (*plannerd.Draft, error) {
	summary := strings.TrimSpace(d.Summary)
	if n := utf8.RuneCountInString(summary); n < 1 || n > maxSummaryLength {
		return nil, plannerd.Fail(http.StatusBadRequest, plannerd.KindInvalidSummary)
	}

	start := strings.TrimSpace(d.Start)
	end := strings.TrimSpace(d.End)
	if start == "" || end == "" {
		return nil, plannerd.Fail(http.StatusBadRequest, plannerd.KindInvalidDates)
	}

	if d.IsAllDay {
		if _, err := plannerd.ParseDate(start); err != nil {
			return nil, plannerd.Fail(http.StatusBadRequest, plannerd.KindInvalidDates)
		}
		if _, err := plannerd.ParseDate(end); err != nil {
			return nil, plannerd.Fail(http.StatusBadRequest, plannerd.KindInvalidDates)
		}
		// Calendar dates in YYYY-MM-DD compare correctly as strings.
		if start > end {
			return nil, plannerd.Fail(http.StatusBadRequest, plannerd.KindInvalidDateOrder)
		}
	} else {
		s, serr := time.Parse(time.RFC3339, start)
		e, eerr := time.Parse(time.RFC3339, end)
		if serr != nil || eerr != nil {
			return nil, plannerd.Fail(http.StatusBadRequest, plannerd.KindInvalidDateOrder)
		}
		if !e.After(s) {
			return nil, plannerd.Fail(http.StatusBadRequest, plannerd.KindInvalidDateOrder)
		}
	}

	return &plannerd.Draft{
		Summary:     summary,
		Start:       start,
		End:         end,
		IsAllDay:    d.IsAllDay,
		Location:    strings.TrimSpace(d.Location),
		Description: strings.TrimSpace(d.Description),
	}, nil
}
