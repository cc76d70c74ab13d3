package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/plannerd/plannerd"
)

const DriverName = "sqlite3"

// Storage persists one OAuth credential row per connected calendar owner.
type Storage struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewStorage(db *sql.DB) *Storage {
	s := &Storage{
		db:  sqlx.NewDb(db, DriverName),
		now: time.Now,
	}
	err := s.RunMigrations()
	if err != nil {
		panic(fmt.Sprintf("sqlite: running migrations: %v", err))
	}
	return s
}

func (s *Storage) Find(ctx context.Context, ownerID string) (*plannerd.Credential, error) {
	var cred Credential
	err := s.db.GetContext(ctx, &cred, `
		SELECT owner_id, access_token, refresh_token, expires_at, token_type, scope, calendar_id, revoked_at
		FROM credentials
		WHERE owner_id = ?
	`, ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return cred.Convert(), nil
}

// Update persists a refreshed token set in one write. Optional fields left
// empty in upd keep their stored value; revoked_at is always cleared, since
// a successful refresh proves the connection is live again.
func (s *Storage) Update(ctx context.Context, ownerID string, upd plannerd.TokenUpdate) error {
	expiresAt := plannerd.ExpiryFromTTL(s.now(), upd.ExpiresIn)

	res, err := s.db.ExecContext(ctx, `
		UPDATE credentials SET
			access_token = ?,
			expires_at = ?,
			refresh_token = CASE WHEN ? = '' THEN refresh_token ELSE ? END,
			token_type = CASE WHEN ? = '' THEN token_type ELSE ? END,
			scope = CASE WHEN ? = '' THEN scope ELSE ? END,
			revoked_at = NULL
		WHERE owner_id = ?
	`, nullString(upd.AccessToken), expiresAt,
		upd.RefreshToken, upd.RefreshToken,
		upd.TokenType, upd.TokenType,
		upd.Scope, upd.Scope,
		ownerID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return fmt.Errorf("sqlite: no credential for owner %q", ownerID)
	}
	return err
}

// Upsert creates or replaces the credential row. The refresh token is
// resolved before anything is written: the provided one, else the one
// already stored for this owner; with neither, the call fails and no row
// is touched.
func (s *Storage) Upsert(ctx context.Context, ownerID string, upd plannerd.TokenUpdate) error {
	refreshToken := upd.RefreshToken
	if refreshToken == "" {
		prior, err := s.Find(ctx, ownerID)
		if err != nil {
			return err
		}
		if prior != nil {
			refreshToken = prior.RefreshToken
		}
	}
	if refreshToken == "" {
		return plannerd.Fail(http.StatusBadRequest, plannerd.KindMissingRefreshToken)
	}

	calendarID := upd.CalendarID
	if calendarID == "" {
		calendarID = plannerd.DefaultCalendarID
	}
	expiresAt := plannerd.ExpiryFromTTL(s.now(), upd.ExpiresIn)

	// calendar_id is only set on insert so a reconnect does not clobber a
	// configured override.
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO credentials (owner_id, access_token, refresh_token, expires_at, token_type, scope, calendar_id, revoked_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, NULL)
		ON CONFLICT(owner_id) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			expires_at = excluded.expires_at,
			token_type = excluded.token_type,
			scope = excluded.scope,
			revoked_at = NULL
	`, ownerID, nullString(upd.AccessToken), refreshToken, expiresAt,
		nullString(upd.TokenType), nullString(upd.Scope), calendarID)
	return err
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}
