package google

import (
	"context"
	"io"
	"net/http"
	"os"
	"time"

	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"

	"github.com/plannerd/plannerd"
	"github.com/plannerd/plannerd/calendar"
	"github.com/plannerd/plannerd/internal/metrics"
)

const reasonInsufficientPermissions = "insufficientPermissions"

// Service is the calendar event proxy: it resolves credentials, talks to
// the upstream REST API and maps every upstream failure into the typed
// error taxonomy. Raw upstream detail is logged, never returned.
type Service struct {
	client   *Client
	store    plannerd.CredentialStore
	resolver *calendar.Resolver

	log io.Writer
	now func() time.Time
}

func NewService(client *Client, store plannerd.CredentialStore) *Service {
	return &Service{
		client:   client,
		store:    store,
		resolver: calendar.NewResolver(store, client),
		log:      os.Stderr,
		now:      time.Now,
	}
}

// ListEvents lists the owner's events in the window described by
// rangeSelector and days (see calendar.ComputeWindow).
func (s *Service) ListEvents(ctx context.Context, ownerID, rangeSelector, days string) (*plannerd.EventList, error) {
	list, err := s.listEvents(ctx, ownerID, rangeSelector, days)
	if err := s.finish("list", ownerID, err); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *Service) CreateEvent(ctx context.Context, ownerID string, draft *plannerd.Draft) (*plannerd.Event, error) {
	ev, err := s.createEvent(ctx, ownerID, draft)
	if err := s.finish("create", ownerID, err); err != nil {
		return nil, err
	}
	return ev, nil
}

func (s *Service) UpdateEvent(ctx context.Context, ownerID, eventID string, draft *plannerd.Draft) (*plannerd.Event, error) {
	ev, err := s.updateEvent(ctx, ownerID, eventID, draft)
	if err := s.finish("update", ownerID, err); err != nil {
		return nil, err
	}
	return ev, nil
}

func (s *Service) DeleteEvent(ctx context.Context, ownerID, eventID string) error {
	err := s.deleteEvent(ctx, ownerID, eventID)
	return s.finish("delete", ownerID, err)
}

func (s *Service) listEvents(ctx context.Context, ownerID, rangeSelector, days string) (*plannerd.EventList, error) {
	access, err := s.resolver.Resolve(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	w := calendar.ComputeWindow(rangeSelector, days, s.now())

	items, err := s.client.ListEvents(ctx, access.AccessToken, access.CalendarID, w.Start, w.End)
	if err != nil {
		gerr, ok := apiError(err)
		if !ok {
			return nil, err
		}
		switch {
		case gerr.Code == http.StatusUnauthorized:
			// The resolver vouched for this token moments ago and upstream
			// disagreed. Refresh once, bypassing the freshness check, and
			// repeat the call.
			items, err = s.listRetry(ctx, ownerID, access.CalendarID, w)
			if err != nil {
				return nil, err
			}
		case gerr.Code == http.StatusForbidden && errIsReason(gerr, reasonInsufficientPermissions):
			return nil, plannerd.Fail(http.StatusForbidden, plannerd.KindInsufficientScope)
		default:
			s.logUpstream(ownerID, "list", gerr)
			return nil, plannerd.Fail(http.StatusBadGateway, plannerd.KindFetchFailed)
		}
	}

	events := make([]plannerd.Event, 0, len(items))
	for _, item := range items {
		// Items missing an id or start are dropped, not fatal.
		if ev := newEvent(item); ev != nil {
			events = append(events, *ev)
		}
	}
	return &plannerd.EventList{
		Events:   events,
		Range:    w.Range,
		Days:     w.Days,
		TimeMin:  w.Start,
		TimeMax:  w.End,
		SyncedAt: s.now(),
	}, nil
}

// listRetry is the single refresh-and-retry pass allowed after a 401 in the
// middle of a list. Write operations do not get this: their preamble
// already guarantees freshness through the resolver.
func (s *Service) listRetry(ctx context.Context, ownerID, calendarID string, w calendar.Window) ([]*gcal.Event, error) {
	cred, err := s.store.Find(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if cred == nil {
		return nil, plannerd.Fail(http.StatusUnauthorized, plannerd.KindReauthRequired)
	}

	set, err := s.client.RefreshToken(ctx, cred.RefreshToken)
	if err != nil {
		return nil, plannerd.Fail(http.StatusUnauthorized, plannerd.KindReauthRequired)
	}
	err = s.store.Update(ctx, ownerID, plannerd.TokenUpdate{
		AccessToken:  set.AccessToken,
		ExpiresIn:    set.ExpiresIn,
		RefreshToken: set.RefreshToken,
		TokenType:    set.TokenType,
		Scope:        set.Scope,
	})
	if err != nil {
		return nil, err
	}

	items, err := s.client.ListEvents(ctx, set.AccessToken, calendarID, w.Start, w.End)
	if err != nil {
		if gerr, ok := apiError(err); ok {
			s.logUpstream(ownerID, "list retry", gerr)
			return nil, plannerd.Fail(http.StatusUnauthorized, plannerd.KindReauthRequired)
		}
		return nil, err
	}
	return items, nil
}

func (s *Service) createEvent(ctx context.Context, ownerID string, draft *plannerd.Draft) (*plannerd.Event, error) {
	access, err := s.writeAccess(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	valid, err := validateDraft(draft)
	if err != nil {
		return nil, err
	}

	created, err := s.client.InsertEvent(ctx, access.AccessToken, access.CalendarID, newGoogleEvent(valid))
	if err != nil {
		return nil, s.mapWriteError(ownerID, "create", err, plannerd.KindCreateFailed, false)
	}
	ev := newEvent(created)
	if ev == nil {
		s.logf(ownerID, "create: upstream returned a malformed event payload")
		return nil, plannerd.Fail(http.StatusBadGateway, plannerd.KindCreateFailed)
	}
	return ev, nil
}

func (s *Service) updateEvent(ctx context.Context, ownerID, eventID string, draft *plannerd.Draft) (*plannerd.Event, error) {
	access, err := s.writeAccess(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	valid, err := validateDraft(draft)
	if err != nil {
		return nil, err
	}

	updated, err := s.client.PatchEvent(ctx, access.AccessToken, access.CalendarID, eventID, newGoogleEvent(valid))
	if err != nil {
		return nil, s.mapWriteError(ownerID, "update", err, plannerd.KindUpdateFailed, true)
	}
	ev := newEvent(updated)
	if ev == nil {
		s.logf(ownerID, "update: upstream returned a malformed event payload")
		return nil, plannerd.Fail(http.StatusBadGateway, plannerd.KindUpdateFailed)
	}
	return ev, nil
}

func (s *Service) deleteEvent(ctx context.Context, ownerID, eventID string) error {
	access, err := s.writeAccess(ctx, ownerID)
	if err != nil {
		return err
	}
	err = s.client.DeleteEvent(ctx, access.AccessToken, access.CalendarID, eventID)
	if err != nil {
		return s.mapWriteError(ownerID, "delete", err, plannerd.KindDeleteFailed, true)
	}
	return nil
}

// writeAccess is the common preamble for write operations: resolve, then
// check the granted scope locally before spending an upstream round trip.
func (s *Service) writeAccess(ctx context.Context, ownerID string) (*calendar.Access, error) {
	access, err := s.resolver.Resolve(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if !HasWriteScope(access.Scope) {
		return nil, plannerd.Fail(http.StatusForbidden, plannerd.KindInsufficientScope)
	}
	return access, nil
}

func (s *Service) mapWriteError(ownerID, op string, err error, failKind string, mapNotFound bool) error {
	gerr, ok := apiError(err)
	if !ok {
		return err
	}
	switch {
	case gerr.Code == http.StatusForbidden && errIsReason(gerr, reasonInsufficientPermissions):
		return plannerd.Fail(http.StatusForbidden, plannerd.KindInsufficientScope)
	case gerr.Code == http.StatusUnauthorized:
		return plannerd.Fail(http.StatusUnauthorized, plannerd.KindReauthRequired)
	case mapNotFound && gerr.Code == http.StatusNotFound:
		return plannerd.Fail(http.StatusNotFound, plannerd.KindEventNotFound)
	}
	s.logUpstream(ownerID, op, gerr)
	return plannerd.Fail(http.StatusBadGateway, failKind)
}

// finish collapses anything untyped into calendar-internal-error and
// records the operation outcome.
func (s *Service) finish(op, ownerID string, err error) error {
	if err == nil {
		metrics.CalendarCalls.WithLabelValues(op, "ok").Inc()
		return nil
	}
	e, ok := plannerd.AsError(err)
	if !ok {
		s.logf(ownerID, "%s failed: %v", op, err)
		e = plannerd.Fail(http.StatusInternalServerError, plannerd.KindInternalError)
	}
	metrics.CalendarCalls.WithLabelValues(op, e.Kind).Inc()
	return e
}

func (s *Service) logUpstream(ownerID, op string, gerr *googleapi.Error) {
	reason := ""
	if len(gerr.Errors) > 0 {
		reason = gerr.Errors[0].Reason
	}
	s.logf(ownerID, "%s: upstream status=%d reason=%q message=%q", op, gerr.Code, reason, gerr.Message)
}

func (s *Service) logf(ownerID, format string, a ...any) {
	plannerd.Logf(s.log, "google:", ownerID, format, a...)
}
