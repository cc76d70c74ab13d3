package google

import (
	"strings"
	"time"

	gcal "google.golang.org/api/calendar/v3"

	"github.com/plannerd/plannerd"
)

const noTitlePlaceholder = "(No title)"

// newEvent normalizes an upstream event into the internal shape. It returns
// nil when the payload is malformed (missing id or start): list drops such
// items, writes treat the whole response as failed.
func newEvent(item *gcal.Event) *plannerd.Event {
	if item == nil || item.Id == "" || item.Start == nil {
		return nil
	}

	start := item.Start.DateTime
	if start == "" {
		start = item.Start.Date
	}
	if start == "" {
		return nil
	}

	var end *string
	if item.End != nil {
		if v := item.End.DateTime; v != "" {
			end = &v
		} else if v := item.End.Date; v != "" {
			end = &v
		}
	}

	summary := strings.TrimSpace(item.Summary)
	if summary == "" {
		summary = noTitlePlaceholder
	}
	status := item.Status
	if status == "" {
		status = "confirmed"
	}

	ev := &plannerd.Event{
		ID:       item.Id,
		Summary:  summary,
		Start:    start,
		End:      end,
		IsAllDay: item.Start.Date != "" && item.Start.DateTime == "",
		Status:   status,
	}
	if v := item.Location; v != "" {
		ev.Location = &v
	}
	if v := item.Description; v != "" {
		ev.Description = &v
	}
	if v := item.HtmlLink; v != "" {
		ev.HTMLLink = &v
	}
	return ev
}

// newGoogleEvent translates a validated draft into the upstream request
// shape. All-day events get an exclusive end date (end + 1 day): a
// single-day "Feb 20 to Feb 20" is stored upstream as end.date Feb 21.
// Optional fields are omitted rather than sent empty so an update does not
// clobber upstream fields the caller never touched.
func newGoogleEvent(d *plannerd.Draft) *gcal.Event {
	ev := &gcal.Event{Summary: d.Summary}

	if d.IsAllDay {
		end, _ := plannerd.ParseDate(d.End) // validated upstream of here
		ev.Start = &gcal.EventDateTime{Date: d.Start}
		ev.End = &gcal.EventDateTime{Date: end.AddDate(0, 0, 1).String()}
	} else {
		start, _ := time.Parse(time.RFC3339, d.Start)
		end, _ := time.Parse(time.RFC3339, d.End)
		ev.Start = &gcal.EventDateTime{DateTime: start.UTC().Format(time.RFC3339)}
		ev.End = &gcal.EventDateTime{DateTime: end.UTC().Format(time.RFC3339)}
	}

	if d.Location != "" {
		ev.Location = d.Location
	}
	if d.Description != "" {
		ev.Description = d.Description
	}
	return ev
}
