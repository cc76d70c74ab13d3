package google

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
)

const (
	defaultBaseURL  = "https://www.googleapis.com/calendar/v3"
	defaultTokenURL = "https://oauth2.googleapis.com/token"

	listMaxResults = "250"
)

// Config carries the OAuth client registration plus endpoint overrides used
// by tests to point the client at a fake upstream.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	BaseURL  string
	TokenURL string
}

// Client talks to the Google token and Calendar REST endpoints. It is
// constructed once per process and injected wherever upstream access is
// needed; nothing here is global.
type Client struct {
	cfg  Config
	http *http.Client
}

func NewClient(cfg Config, httpClient *http.Client) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = defaultTokenURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{cfg: cfg, http: httpClient}
}

// ListEvents fetches the expanded, start-ordered events in [timeMin, timeMax).
func (c *Client) ListEvents(ctx context.Context, accessToken, calendarID string, timeMin, timeMax time.Time) ([]*gcal.Event, error) {
	q := url.Values{}
	q.Set("singleEvents", "true")
	q.Set("orderBy", "startTime")
	q.Set("maxResults", listMaxResults)
	q.Set("showDeleted", "false")
	q.Set("timeMin", timeMin.Format(time.RFC3339))
	q.Set("timeMax", timeMax.Format(time.RFC3339))

	var payload gcal.Events
	err := c.do(ctx, http.MethodGet, c.eventsURL(calendarID, "")+"?"+q.Encode(), accessToken, nil, &payload)
	if err != nil {
		return nil, err
	}
	return payload.Items, nil
}

func (c *Client) InsertEvent(ctx context.Context, accessToken, calendarID string, ev *gcal.Event) (*gcal.Event, error) {
	var created gcal.Event
	err := c.do(ctx, http.MethodPost, c.eventsURL(calendarID, ""), accessToken, ev, &created)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) PatchEvent(ctx context.Context, accessToken, calendarID, eventID string, ev *gcal.Event) (*gcal.Event, error) {
	var updated gcal.Event
	err := c.do(ctx, http.MethodPatch, c.eventsURL(calendarID, eventID), accessToken, ev, &updated)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) DeleteEvent(ctx context.Context, accessToken, calendarID, eventID string) error {
	return c.do(ctx, http.MethodDelete, c.eventsURL(calendarID, eventID), accessToken, nil, nil)
}

func (c *Client) eventsURL(calendarID, eventID string) string {
	u := c.cfg.BaseURL + "/calendars/" + url.PathEscape(calendarID) + "/events"
	if eventID != "" {
		u += "/" + url.PathEscape(eventID)
	}
	return u
}

func (c *Client) do(ctx context.Context, method, rawURL, accessToken string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("google: encoding request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if err := googleapi.CheckResponse(res); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("google: decoding response: %w", err)
	}
	return nil
}

func apiError(err error) (*googleapi.Error, bool) {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr, true
	}
	return nil, false
}

func errIsReason(gerr *googleapi.Error, reason string) bool {
	for _, e := range gerr.Errors {
		if e.Reason == reason {
			return true
		}
	}
	return false
}
