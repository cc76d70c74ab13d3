package google

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plannerd/plannerd"
)

func assertKind(t *testing.T, err error, kind string) {
	t.Helper()
	e, ok := plannerd.AsError(err)
	require.True(t, ok, "expected a typed failure, got %v", err)
	assert.Equal(t, kind, e.Kind)
}

func timedDraft() *plannerd.Draft {
	return &plannerd.Draft{
		Summary: "Kickoff",
		Start:   "2026-02-14T08:00:00Z",
		End:     "2026-02-14T09:00:00Z",
	}
}

func TestValidateDraftSummary(t *testing.T) {
	d := timedDraft()
	d.Summary = "   "
	_, err := validateDraft(d)
	assertKind(t, err, plannerd.KindInvalidSummary)

	d = timedDraft()
	d.Summary = strings.Repeat("x", 201)
	_, err = validateDraft(d)
	assertKind(t, err, plannerd.KindInvalidSummary)

	d = timedDraft()
	d.Summary = "  trimmed  "
	valid, err := validateDraft(d)
	require.NoError(t, err)
	assert.Equal(t, "trimmed", valid.Summary)
}

// Summary is checked before dates: an empty draft fails on the summary.
func TestValidateDraftOrdering(t *testing.T) {
	_, err := validateDraft(&plannerd.Draft{})
	assertKind(t, err, plannerd.KindInvalidSummary)

	_, err = validateDraft(&plannerd.Draft{Summary: "x"})
	assertKind(t, err, plannerd.KindInvalidDates)
}

func TestValidateDraftAllDay(t *testing.T) {
	d := &plannerd.Draft{Summary: "Offsite", IsAllDay: true, Start: "2026-02-20", End: "2026-02-20"}
	valid, err := validateDraft(d)
	require.NoError(t, err)
	assert.Equal(t, "2026-02-20", valid.Start)
	assert.Equal(t, "2026-02-20", valid.End)

	d.End = "2026-02-19"
	_, err = validateDraft(d)
	assertKind(t, err, plannerd.KindInvalidDateOrder)

	d.End = "02/20/2026"
	_, err = validateDraft(d)
	assertKind(t, err, plannerd.KindInvalidDates)

	d.End = "2026-02-20T00:00:00Z"
	_, err = validateDraft(d)
	assertKind(t, err, plannerd.KindInvalidDates)
}

func TestValidateDraftTimed(t *testing.T) {
	d := timedDraft()
	d.End = d.Start // equal instants are rejected, end must be strictly later
	_, err := validateDraft(d)
	assertKind(t, err, plannerd.KindInvalidDateOrder)

	d = timedDraft()
	d.End = "2026-02-14T07:00:00Z"
	_, err = validateDraft(d)
	assertKind(t, err, plannerd.KindInvalidDateOrder)

	d = timedDraft()
	d.Start = "yesterday"
	_, err = validateDraft(d)
	assertKind(t, err, plannerd.KindInvalidDateOrder)
}

func TestValidateDraftTrimsOptionals(t *testing.T) {
	d := timedDraft()
	d.Location = "  Room 5  "
	d.Description = "   "
	valid, err := validateDraft(d)
	require.NoError(t, err)
	assert.Equal(t, "Room 5", valid.Location)
	assert.Empty(t, valid.Description)
}
