package google

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
	oauthgoogle "golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"

	"github.com/plannerd/plannerd"
	"github.com/plannerd/plannerd/internal/metrics"
)

// ErrCodeTokenRequestFailed is used when the provider rejected a token
// grant without naming an OAuth error code.
const ErrCodeTokenRequestFailed = "token-request-failed"

// TokenRequestError is a non-2xx answer from the token endpoint. Code is
// the provider's OAuth error code when it gave one: upstream distinguishes
// invalid_grant (revoked or expired refresh token, the owner must reconnect)
// from transient failures, so the code is surfaced rather than swallowed.
type TokenRequestError struct {
	StatusCode  int
	Code        string
	Description string
}

func (e *TokenRequestError) Error() string {
	return fmt.Sprintf("google: token request failed: %s (status %d)", e.Code, e.StatusCode)
}

func (c *Client) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.cfg.ClientID,
		ClientSecret: c.cfg.ClientSecret,
		RedirectURL:  c.cfg.RedirectURL,
		Scopes:       []string{gcal.CalendarEventsScope},
		Endpoint:     oauthgoogle.Endpoint,
	}
}

// AuthCodeURL builds the consent URL for the connect flow. Offline access
// and a forced approval prompt are required so Google actually grants a
// refresh token.
func (c *Client) AuthCodeURL(state string) string {
	return c.oauthConfig().AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// RefreshToken performs a refresh-token grant and returns the rotated set.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*plannerd.TokenSet, error) {
	return c.tokenGrant(ctx, "refresh_token", url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	})
}

// ExchangeCode redeems an authorization code from the consent callback.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*plannerd.TokenSet, error) {
	return c.tokenGrant(ctx, "authorization_code", url.Values{
		"grant_type":   {"authorization_code"},
		"code":         {code},
		"redirect_uri": {c.cfg.RedirectURL},
	})
}

func (c *Client) tokenGrant(ctx context.Context, grant string, form url.Values) (*plannerd.TokenSet, error) {
	form.Set("client_id", c.cfg.ClientID)
	form.Set("client_secret", c.cfg.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := c.http.Do(req)
	if err != nil {
		metrics.TokenGrants.WithLabelValues(grant, "transport-error").Inc()
		return nil, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("google: reading token response: %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		// Best-effort parse: the provider is not guaranteed to send
		// {"error": ...} on every failure.
		var payload struct {
			Error            string `json:"error"`
			ErrorDescription string `json:"error_description"`
		}
		_ = json.Unmarshal(body, &payload)
		code := payload.Error
		if code == "" {
			code = ErrCodeTokenRequestFailed
		}
		metrics.TokenGrants.WithLabelValues(grant, code).Inc()
		return nil, &TokenRequestError{
			StatusCode:  res.StatusCode,
			Code:        code,
			Description: payload.ErrorDescription,
		}
	}

	var payload struct {
		AccessToken  string `json:"access_token"`
		ExpiresIn    int64  `json:"expires_in"`
		RefreshToken string `json:"refresh_token"`
		TokenType    string `json:"token_type"`
		Scope        string `json:"scope"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("google: decoding token response: %w", err)
	}

	metrics.TokenGrants.WithLabelValues(grant, "ok").Inc()
	return &plannerd.TokenSet{
		AccessToken:  payload.AccessToken,
		ExpiresIn:    payload.ExpiresIn,
		RefreshToken: payload.RefreshToken,
		TokenType:    payload.TokenType,
		Scope:        payload.Scope,
	}, nil
}
