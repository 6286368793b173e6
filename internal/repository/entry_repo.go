package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"banking_portal/internal/models"
	"banking_portal/internal/money"
)

type EntrySQLite struct {
	db *sql.DB
}

func NewEntrySQLite(db *sql.DB) *EntrySQLite { return &EntrySQLite{db: db} }

// EntryFilter narrows a journal listing. Zero values mean "no bound".
type EntryFilter struct {
	Username string
	From     time.Time // inclusive
	To       time.Time // inclusive
	Kind     string
	Limit    int
}

const insertEntrySQL = `
		INSERT INTO ledger_entries (id, username, kind, amount_minor, balance_after_minor, request_id, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// insertEntry writes e through ex (a *sql.DB or *sql.Tx). OccurredAt defaults to now.
func insertEntry(ctx context.Context, ex execer, e models.LedgerEntry) error {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	var requestID sql.NullString
	if e.RequestID != "" {
		requestID = sql.NullString{String: e.RequestID, Valid: true}
	}
	_, err := ex.ExecContext(ctx, insertEntrySQL,
		e.ID,
		e.Username,
		strings.ToUpper(strings.TrimSpace(e.Kind)),
		money.ToMinor(e.Amount),
		money.ToMinor(e.BalanceAfter),
		requestID,
		formatTimestamp(e.OccurredAt),
	)
	if err != nil {
		return fmt.Errorf("insert ledger entry: %w", err)
	}
	return nil
}

// List returns entries for f.Username filtered by [From, To] and kind, newest first.
func (r *EntrySQLite) List(ctx context.Context, f EntryFilter) ([]models.LedgerEntry, error) {
	conds := []string{"username = ?"}
	args := []any{f.Username}

	if !f.From.IsZero() {
		conds = append(conds, "occurred_at >= ?")
		args = append(args, formatTimestamp(f.From))
	}
	if !f.To.IsZero() {
		conds = append(conds, "occurred_at <= ?")
		args = append(args, formatTimestamp(f.To))
	}
	if kind := strings.ToUpper(strings.TrimSpace(f.Kind)); kind != "" {
		conds = append(conds, "kind = ?")
		args = append(args, kind)
	}

	q := `SELECT id, username, kind, amount_minor, balance_after_minor, request_id, occurred_at FROM ledger_entries`
	q += " WHERE " + strings.Join(conds, " AND ")
	q += " ORDER BY occurred_at DESC, rowid DESC"
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	defer rows.Close()

	out := make([]models.LedgerEntry, 0, 16)
	for rows.Next() {
		var (
			e                models.LedgerEntry
			amount, balAfter int64
			requestID        sql.NullString
			occurredAt       sqlTime
		)
		if err := rows.Scan(&e.ID, &e.Username, &e.Kind, &amount, &balAfter, &requestID, &occurredAt); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		e.Amount = money.FromMinor(amount)
		e.BalanceAfter = money.FromMinor(balAfter)
		e.RequestID = requestID.String
		e.OccurredAt = occurredAt.Time
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
