package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"banking_portal/internal/models"
	"banking_portal/internal/money"
)

type SessionSQLite struct {
	db *sql.DB
}

func NewSessionSQLite(db *sql.DB) *SessionSQLite {
	return &SessionSQLite{db: db}
}

const (
	upsertSessionSQL = `
		INSERT INTO sessions (id, username, cached_balance_minor, flashes, expires_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			username=excluded.username,
			cached_balance_minor=excluded.cached_balance_minor,
			flashes=excluded.flashes,
			expires_at=excluded.expires_at
	`

	selectSessionSQL = `
		SELECT id, username, cached_balance_minor, flashes, expires_at
		FROM sessions WHERE id = ? AND expires_at > ?
	`

	deleteSessionSQL        = `DELETE FROM sessions WHERE id = ?`
	deleteExpiredSessionSQL = `DELETE FROM sessions WHERE expires_at <= ?`
)

// marshalFlashes converts the queued notices to a JSON string.
func marshalFlashes(flashes []models.Flash) (string, error) {
	if len(flashes) == 0 {
		return "", nil
	}
	b, err := json.Marshal(flashes)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// unmarshalFlashes parses a JSON string into notices.
func unmarshalFlashes(s string) ([]models.Flash, error) {
	if s == "" {
		return nil, nil
	}
	var flashes []models.Flash
	if err := json.Unmarshal([]byte(s), &flashes); err != nil {
		return nil, err
	}
	return flashes, nil
}

// Save inserts or updates the session row.
func (r *SessionSQLite) Save(ctx context.Context, s models.SessionState) error {
	flashesJSON, err := marshalFlashes(s.Flashes)
	if err != nil {
		return fmt.Errorf("marshal flashes: %w", err)
	}

	var username sql.NullString
	if s.Username != "" {
		username = sql.NullString{String: s.Username, Valid: true}
	}

	_, err = r.db.ExecContext(ctx, upsertSessionSQL,
		s.ID,
		username,
		money.ToMinor(s.CachedBalance),
		flashesJSON,
		s.ExpiresAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("save session %q: %w", s.ID, err)
	}
	return nil
}

// Load fetches a live session. Returns (nil, nil) if missing or expired at now.
func (r *SessionSQLite) Load(ctx context.Context, id string, now time.Time) (*models.SessionState, error) {
	var (
		s           models.SessionState
		username    sql.NullString
		balance     int64
		flashesJSON sql.NullString
		expiresAt   int64
	)
	err := r.db.QueryRowContext(ctx, selectSessionSQL, id, now.Unix()).
		Scan(&s.ID, &username, &balance, &flashesJSON, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load session %q: %w", id, err)
	}

	flashes, err := unmarshalFlashes(flashesJSON.String)
	if err != nil {
		return nil, fmt.Errorf("unmarshal flashes of session %q: %w", id, err)
	}
	s.Username = username.String
	s.CachedBalance = money.FromMinor(balance)
	s.Flashes = flashes
	s.ExpiresAt = time.Unix(expiresAt, 0).UTC()
	return &s, nil
}

// Delete removes the session row; deleting a missing row is not an error.
func (r *SessionSQLite) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, deleteSessionSQL, id); err != nil {
		return fmt.Errorf("delete session %q: %w", id, err)
	}
	return nil
}

// DeleteExpired purges sessions whose expiry is at or before now.
func (r *SessionSQLite) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, deleteExpiredSessionSQL, now.Unix())
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	return res.RowsAffected()
}
