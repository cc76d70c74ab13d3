package sqlite

import (
	"database/sql"
	"time"

	"github.com/plannerd/plannerd"
)

type Credential struct {
	OwnerID      string         `db:"owner_id"`
	AccessToken  sql.NullString `db:"access_token"`
	RefreshToken string         `db:"refresh_token"`
	ExpiresAt    sql.NullTime   `db:"expires_at"`
	TokenType    sql.NullString `db:"token_type"`
	Scope        sql.NullString `db:"scope"`
	CalendarID   string         `db:"calendar_id"`
	RevokedAt    sql.NullTime   `db:"revoked_at"`
}

func (c Credential) Convert() *plannerd.Credential {
	return &plannerd.Credential{
		OwnerID:      c.OwnerID,
		AccessToken:  c.AccessToken.String,
		RefreshToken: c.RefreshToken,
		ExpiresAt:    nullableTime(c.ExpiresAt),
		TokenType:    c.TokenType.String,
		Scope:        c.Scope.String,
		CalendarID:   c.CalendarID,
		RevokedAt:    nullableTime(c.RevokedAt),
	}
}

func nullableTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
