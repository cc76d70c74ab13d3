package web

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/plannerd/plannerd"
	"github.com/plannerd/plannerd/calendar/google"
	"github.com/plannerd/plannerd/internal/config"
)

// CalendarService is the slice of the event proxy the routes consume.
type CalendarService interface {
	ListEvents(ctx context.Context, ownerID, rangeSelector, days string) (*plannerd.EventList, error)
	CreateEvent(ctx context.Context, ownerID string, draft *plannerd.Draft) (*plannerd.Event, error)
	UpdateEvent(ctx context.Context, ownerID, eventID string, draft *plannerd.Draft) (*plannerd.Event, error)
	DeleteEvent(ctx context.Context, ownerID, eventID string) error
}

const (
	ownerHeader      = "X-Plannerd-Owner"
	stateCookieName  = "plannerd_oauth_state"
	stateCookieAge   = 10 * time.Minute
	kindInvalidInput = "invalid-request"
)

// Handler exposes the calendar core to the web app's client components.
// It only translates typed results to HTTP; all policy lives below it.
type Handler struct {
	cfg    *config.Config
	svc    CalendarService
	client *google.Client
	store  plannerd.CredentialStore
	secure bool
}

func NewHandler(cfg *config.Config, svc CalendarService, client *google.Client, store plannerd.CredentialStore) *Handler {
	secure := false
	if base, err := url.Parse(cfg.BaseURL); err == nil && base.Scheme == "https" {
		secure = true
	}
	return &Handler{cfg: cfg, svc: svc, client: client, store: store, secure: secure}
}

func (h *Handler) owner(r *http.Request) string {
	if v := r.Header.Get(ownerHeader); v != "" {
		return v
	}
	return h.cfg.DefaultOwner
}

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := h.svc.ListEvents(r.Context(), h.owner(r), q.Get("range"), q.Get("days"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var draft plannerd.Draft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(kindInvalidInput))
		return
	}
	ev, err := h.svc.CreateEvent(r.Context(), h.owner(r), &draft)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ev)
}

func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	var draft plannerd.Draft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(kindInvalidInput))
		return
	}
	ev, err := h.svc.UpdateEvent(r.Context(), h.owner(r), chi.URLParam(r, "eventID"), &draft)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	err := h.svc.DeleteEvent(r.Context(), h.owner(r), chi.URLParam(r, "eventID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Connection reports the state the settings page renders: whether a
// credential exists, whether it was revoked, and whether its scope permits
// writes. Tokens never leave the server.
func (h *Handler) Connection(w http.ResponseWriter, r *http.Request) {
	cred, err := h.store.Find(r.Context(), h.owner(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if cred == nil {
		writeJSON(w, http.StatusOK, map[string]any{"connected": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"connected":  true,
		"revoked":    cred.RevokedAt != nil,
		"calendarId": cred.CalendarID,
		"writable":   google.HasWriteScope(cred.Scope),
	})
}

// Connect starts the consent flow: issue a state nonce, remember it in a
// short-lived cookie and send the browser to the provider.
func (h *Handler) Connect(w http.ResponseWriter, r *http.Request) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		writeError(w, r, err)
		return
	}
	state := hex.EncodeToString(buf)

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/calendar",
		Expires:  time.Now().Add(stateCookieAge),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.client.AuthCodeURL(state), http.StatusFound)
}

// Callback completes the consent flow: validate state, redeem the code and
// upsert the credential. The refresh-token invariant is enforced by the
// store, not here.
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	c, err := r.Cookie(stateCookieName)
	if err != nil || c.Value == "" || c.Value != q.Get("state") {
		writeJSON(w, http.StatusBadRequest, errorBody(kindInvalidInput))
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:    stateCookieName,
		Value:   "",
		Path:    "/calendar",
		Expires: time.Unix(0, 0),
		Secure:  h.secure,
	})

	if e := q.Get("error"); e != "" {
		// The owner declined consent.
		writeJSON(w, http.StatusBadRequest, errorBody(e))
		return
	}

	set, err := h.client.ExchangeCode(r.Context(), q.Get("code"))
	if err != nil {
		var terr *google.TokenRequestError
		if errors.As(err, &terr) {
			writeJSON(w, http.StatusBadGateway, errorBody(terr.Code))
			return
		}
		writeError(w, r, err)
		return
	}

	err = h.store.Upsert(r.Context(), h.owner(r), plannerd.TokenUpdate{
		AccessToken:  set.AccessToken,
		ExpiresIn:    set.ExpiresIn,
		RefreshToken: set.RefreshToken,
		TokenType:    set.TokenType,
		Scope:        set.Scope,
		CalendarID:   h.cfg.Google.CalendarID,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	http.Redirect(w, r, "/", http.StatusFound)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	e, ok := plannerd.AsError(err)
	if !ok {
		log.Printf("web: %s %s: %v", r.Method, r.URL.Path, err)
		e = plannerd.Fail(http.StatusInternalServerError, plannerd.KindInternalError)
	}
	writeJSON(w, e.Status, errorBody(e.Kind))
}

func errorBody(kind string) map[string]string {
	return map[string]string{"error": kind}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
