package plannerd

import (
	"context"
	"time"
)

// DefaultCalendarID is the provider sentinel for the owner's main calendar.
const DefaultCalendarID = "primary"

// Credential is the stored OAuth state for one connected calendar owner.
// A row never exists without a refresh token; the sqlite store enforces
// that at write time.
type Credential struct {
	OwnerID      string
	AccessToken  string // empty when no usable access token is stored
	RefreshToken string
	ExpiresAt    *time.Time
	TokenType    string
	Scope        string
	CalendarID   string
	RevokedAt    *time.Time
}

// TokenSet is the provider's answer to a token-endpoint grant.
type TokenSet struct {
	AccessToken  string
	ExpiresIn    int64
	RefreshToken string // providers rotate this only sometimes
	TokenType    string
	Scope        string
}

// TokenUpdate carries the fields persisted after a grant. Empty optional
// fields keep whatever the store already holds for that owner.
type TokenUpdate struct {
	AccessToken  string
	ExpiresIn    int64
	RefreshToken string
	TokenType    string
	Scope        string
	CalendarID   string // honored on upsert only
}

type CredentialStore interface {
	// Find returns nil, nil when no credential exists for the owner.
	Find(ctx context.Context, ownerID string) (*Credential, error)
	// Update persists a refreshed token set and clears any revoked marker.
	Update(ctx context.Context, ownerID string, upd TokenUpdate) error
	// Upsert creates or replaces the credential. It must resolve a refresh
	// token (provided, else previously stored) or fail without writing.
	Upsert(ctx context.Context, ownerID string, upd TokenUpdate) error
}

type TokenRefresher interface {
	RefreshToken(ctx context.Context, refreshToken string) (*TokenSet, error)
}

// Event is the normalized calendar event shape exchanged with callers.
// It is transient: events are never persisted locally.
type Event struct {
	ID          string  `json:"id"`
	Summary     string  `json:"summary"`
	Start       string  `json:"start"` // date-only or instant, see IsAllDay
	End         *string `json:"end"`
	IsAllDay    bool    `json:"isAllDay"`
	Location    *string `json:"location"`
	Description *string `json:"description"`
	HTMLLink    *string `json:"htmlLink"`
	Status      string  `json:"status"`
}

// Draft is a caller-supplied, not-yet-validated event payload.
type Draft struct {
	Summary     string `json:"summary"`
	Start       string `json:"start"`
	End         string `json:"end"`
	IsAllDay    bool   `json:"isAllDay"`
	Location    string `json:"location"`
	Description string `json:"description"`
}

// EventList is the result of a list operation, including the window that
// was actually queried.
type EventList struct {
	Events   []Event   `json:"events"`
	Range    string    `json:"range"`
	Days     int       `json:"days"`
	TimeMin  time.Time `json:"timeMin"`
	TimeMax  time.Time `json:"timeMax"`
	SyncedAt time.Time `json:"syncedAt"`
}
