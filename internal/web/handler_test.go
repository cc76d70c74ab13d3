package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plannerd/plannerd"
	"github.com/plannerd/plannerd/calendar/google"
	"github.com/plannerd/plannerd/internal/config"
)

type fakeService struct {
	listOwner string
	listRange string
	listDays  string
	listErr   error

	created   *plannerd.Draft
	updatedID string
	deletedID string
	writeErr  error
}

func (f *fakeService) ListEvents(_ context.Context, ownerID, rangeSelector, days string) (*plannerd.EventList, error) {
	f.listOwner, f.listRange, f.listDays = ownerID, rangeSelector, days
	if f.listErr != nil {
		return nil, f.listErr
	}
	return &plannerd.EventList{Events: []plannerd.Event{}, Range: "rolling", Days: 14}, nil
}

func (f *fakeService) CreateEvent(_ context.Context, ownerID string, draft *plannerd.Draft) (*plannerd.Event, error) {
	f.created = draft
	if f.writeErr != nil {
		return nil, f.writeErr
	}
	return &plannerd.Event{ID: "ev1", Summary: draft.Summary, Status: "confirmed"}, nil
}

func (f *fakeService) UpdateEvent(_ context.Context, ownerID, eventID string, draft *plannerd.Draft) (*plannerd.Event, error) {
	f.updatedID = eventID
	if f.writeErr != nil {
		return nil, f.writeErr
	}
	return &plannerd.Event{ID: eventID, Summary: draft.Summary, Status: "confirmed"}, nil
}

func (f *fakeService) DeleteEvent(_ context.Context, ownerID, eventID string) error {
	f.deletedID = eventID
	return f.writeErr
}

type fakeStore struct {
	cred     *plannerd.Credential
	findErr  error
	upserted *plannerd.TokenUpdate
}

func (f *fakeStore) Find(context.Context, string) (*plannerd.Credential, error) {
	return f.cred, f.findErr
}

func (f *fakeStore) Update(context.Context, string, plannerd.TokenUpdate) error { return nil }

func (f *fakeStore) Upsert(_ context.Context, _ string, upd plannerd.TokenUpdate) error {
	f.upserted = &upd
	return nil
}

func testConfig() *config.Config {
	cfg := &config.Config{
		ListenAddr:   ":0",
		BaseURL:      "http://localhost:8080",
		DefaultOwner: "primary-user",
	}
	cfg.Google.ClientID = "client-id"
	cfg.Google.ClientSecret = "client-secret"
	cfg.Google.RedirectURL = "http://localhost:8080/calendar/callback"
	cfg.Google.CalendarID = plannerd.DefaultCalendarID
	return cfg
}

func newTestRouter(t *testing.T, svc CalendarService, store plannerd.CredentialStore, tokenURL string) http.Handler {
	t.Helper()
	client := google.NewClient(google.Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "http://localhost:8080/calendar/callback",
		TokenURL:     tokenURL,
	}, nil)
	return NewRouter(testConfig(), svc, client, store)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestListEventsOwnerAndParams(t *testing.T) {
	svc := &fakeService{}
	router := newTestRouter(t, svc, &fakeStore{}, "")

	req := httptest.NewRequest(http.MethodGet, "/api/calendar/events?range=rolling&days=7", nil)
	req.Header.Set("X-Plannerd-Owner", "alice")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", svc.listOwner)
	assert.Equal(t, "rolling", svc.listRange)
	assert.Equal(t, "7", svc.listDays)
}

func TestListEventsDefaultOwner(t *testing.T) {
	svc := &fakeService{}
	router := newTestRouter(t, svc, &fakeStore{}, "")

	req := httptest.NewRequest(http.MethodGet, "/api/calendar/events", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "primary-user", svc.listOwner)
}

func TestTypedErrorStatusAndKind(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		kind   string
	}{
		{"not connected", plannerd.Fail(http.StatusUnauthorized, plannerd.KindNotConnected), http.StatusUnauthorized, plannerd.KindNotConnected},
		{"reauthorization", plannerd.Fail(http.StatusUnauthorized, plannerd.KindReauthRequired), http.StatusUnauthorized, plannerd.KindReauthRequired},
		{"insufficient scope", plannerd.Fail(http.StatusForbidden, plannerd.KindInsufficientScope), http.StatusForbidden, plannerd.KindInsufficientScope},
		{"fetch failed", plannerd.Fail(http.StatusBadGateway, plannerd.KindFetchFailed), http.StatusBadGateway, plannerd.KindFetchFailed},
		{"untyped", errors.New("disk on fire"), http.StatusInternalServerError, plannerd.KindInternalError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			router := newTestRouter(t, &fakeService{listErr: tc.err}, &fakeStore{}, "")

			req := httptest.NewRequest(http.MethodGet, "/api/calendar/events", nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.kind, decodeBody(t, rec)["error"])
		})
	}
}

func TestCreateEventBadBody(t *testing.T) {
	svc := &fakeService{}
	router := newTestRouter(t, svc, &fakeStore{}, "")

	req := httptest.NewRequest(http.MethodPost, "/api/calendar/events", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid-request", decodeBody(t, rec)["error"])
	assert.Nil(t, svc.created)
}

func TestCreateEvent(t *testing.T) {
	svc := &fakeService{}
	router := newTestRouter(t, svc, &fakeStore{}, "")

	body := `{"summary":"Standup","start":"2026-03-02T09:00:00Z","end":"2026-03-02T09:15:00Z"}`
	req := httptest.NewRequest(http.MethodPost, "/api/calendar/events", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, svc.created)
	assert.Equal(t, "Standup", svc.created.Summary)
	assert.Equal(t, "ev1", decodeBody(t, rec)["id"])
}

func TestUpdateAndDeleteRouteParams(t *testing.T) {
	svc := &fakeService{}
	router := newTestRouter(t, svc, &fakeStore{}, "")

	req := httptest.NewRequest(http.MethodPatch, "/api/calendar/events/ev42", strings.NewReader(`{"summary":"x"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ev42", svc.updatedID)

	req = httptest.NewRequest(http.MethodDelete, "/api/calendar/events/ev42", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ev42", svc.deletedID)
}

func TestConnectionNotConnected(t *testing.T) {
	router := newTestRouter(t, &fakeService{}, &fakeStore{}, "")

	req := httptest.NewRequest(http.MethodGet, "/api/calendar/connection", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"connected": false}, decodeBody(t, rec))
}

func TestConnectionConnected(t *testing.T) {
	revoked := time.Now()
	store := &fakeStore{cred: &plannerd.Credential{
		OwnerID:      "primary-user",
		RefreshToken: "refresh-1",
		Scope:        "https://www.googleapis.com/auth/calendar.events",
		CalendarID:   "primary",
		RevokedAt:    &revoked,
	}}
	router := newTestRouter(t, &fakeService{}, store, "")

	req := httptest.NewRequest(http.MethodGet, "/api/calendar/connection", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["connected"])
	assert.Equal(t, true, body["revoked"])
	assert.Equal(t, true, body["writable"])
	assert.Equal(t, "primary", body["calendarId"])
}

func TestConnectIssuesStateCookie(t *testing.T) {
	router := newTestRouter(t, &fakeService{}, &fakeStore{}, "")

	req := httptest.NewRequest(http.MethodGet, "/calendar/connect", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)

	var state string
	for _, c := range rec.Result().Cookies() {
		if c.Name == "plannerd_oauth_state" {
			state = c.Value
		}
	}
	require.NotEmpty(t, state)

	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, state, loc.Query().Get("state"))
	assert.Equal(t, "client-id", loc.Query().Get("client_id"))
}

func TestCallbackStateMismatch(t *testing.T) {
	store := &fakeStore{}
	router := newTestRouter(t, &fakeService{}, store, "")

	req := httptest.NewRequest(http.MethodGet, "/calendar/callback?state=bogus&code=c1", nil)
	req.AddCookie(&http.Cookie{Name: "plannerd_oauth_state", Value: "expected"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, store.upserted)
}

func TestCallbackConsentDeclined(t *testing.T) {
	store := &fakeStore{}
	router := newTestRouter(t, &fakeService{}, store, "")

	req := httptest.NewRequest(http.MethodGet, "/calendar/callback?state=s1&error=access_denied", nil)
	req.AddCookie(&http.Cookie{Name: "plannerd_oauth_state", Value: "s1"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "access_denied", decodeBody(t, rec)["error"])
	assert.Nil(t, store.upserted)
}

func TestCallbackExchangesAndUpserts(t *testing.T) {
	token := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.FormValue("grant_type"))
		assert.Equal(t, "c1", r.FormValue("code"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"access_token": "access-1",
			"refresh_token": "refresh-1",
			"expires_in": 3599,
			"token_type": "Bearer",
			"scope": "https://www.googleapis.com/auth/calendar.events"
		}`))
	}))
	defer token.Close()

	store := &fakeStore{}
	router := newTestRouter(t, &fakeService{}, store, token.URL)

	req := httptest.NewRequest(http.MethodGet, "/calendar/callback?state=s1&code=c1", nil)
	req.AddCookie(&http.Cookie{Name: "plannerd_oauth_state", Value: "s1"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	require.NotNil(t, store.upserted)
	assert.Equal(t, "access-1", store.upserted.AccessToken)
	assert.Equal(t, "refresh-1", store.upserted.RefreshToken)
	assert.Equal(t, int64(3599), store.upserted.ExpiresIn)
	assert.Equal(t, plannerd.DefaultCalendarID, store.upserted.CalendarID)
}

func TestCallbackTokenEndpointError(t *testing.T) {
	token := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": "invalid_grant", "error_description": "Bad code"}`))
	}))
	defer token.Close()

	store := &fakeStore{}
	router := newTestRouter(t, &fakeService{}, store, token.URL)

	req := httptest.NewRequest(http.MethodGet, "/calendar/callback?state=s1&code=c1", nil)
	req.AddCookie(&http.Cookie{Name: "plannerd_oauth_state", Value: "s1"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "invalid_grant", decodeBody(t, rec)["error"])
	assert.Nil(t, store.upserted)
}
