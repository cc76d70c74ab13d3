package calendar

import (
	"context"
	"net/http"
	"time"

	"github.com/plannerd/plannerd"
)

// Access is what a calendar-touching operation needs from the credential
// layer: a bearer token known to be fresh, the target calendar, and the
// granted scope.
type Access struct {
	AccessToken string
	CalendarID  string
	Scope       string
}

// Resolver is the single choke point for obtaining a usable access token.
// Operations must not read the credential store directly; token-refresh
// policy lives here.
type Resolver struct {
	store     plannerd.CredentialStore
	refresher plannerd.TokenRefresher

	now func() time.Time
}

func NewResolver(store plannerd.CredentialStore, refresher plannerd.TokenRefresher) *Resolver {
	return &Resolver{
		store:     store,
		refresher: refresher,
		now:       time.Now,
	}
}

// Resolve loads the owner's credential, transparently refreshing the access
// token when it is missing or stale. Failures are typed: a missing
// credential yields not-connected, everything that needs the owner to go
// through consent again yields reauthorization-required. The raw refresh
// error is not surfaced here; callers only need to know a reconnect is due.
func (r *Resolver) Resolve(ctx context.Context, ownerID string) (*Access, error) {
	cred, err := r.store.Find(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if cred == nil {
		return nil, plannerd.Fail(http.StatusUnauthorized, plannerd.KindNotConnected)
	}

	if cred.AccessToken == "" || !plannerd.TokenFresh(cred.ExpiresAt, r.now()) {
		set, err := r.refresher.RefreshToken(ctx, cred.RefreshToken)
		if err != nil {
			return nil, plannerd.Fail(http.StatusUnauthorized, plannerd.KindReauthRequired)
		}
		// The store keeps prior token type, scope and refresh token when
		// the response omits them, and clears any revoked marker.
		err = r.store.Update(ctx, ownerID, plannerd.TokenUpdate{
			AccessToken:  set.AccessToken,
			ExpiresIn:    set.ExpiresIn,
			RefreshToken: set.RefreshToken,
			TokenType:    set.TokenType,
			Scope:        set.Scope,
		})
		if err != nil {
			return nil, err
		}
		cred.AccessToken = set.AccessToken
		if set.Scope != "" {
			cred.Scope = set.Scope
		}
	}

	if cred.AccessToken == "" {
		return nil, plannerd.Fail(http.StatusUnauthorized, plannerd.KindReauthRequired)
	}

	return &Access{
		AccessToken: cred.AccessToken,
		CalendarID:  cred.CalendarID,
		Scope:       cred.Scope,
	}, nil
}
