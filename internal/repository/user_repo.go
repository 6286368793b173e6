package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"banking_portal/internal/ledger"
	"banking_portal/internal/models"
	"banking_portal/internal/money"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Ensure implementation of Users interface at compile time.
var _ Users = (*UserRepository)(nil)

const (
	insertUserSQL = `INSERT INTO users (name, email, username, password_hash, balance_minor, created_at) VALUES (?, ?, ?, ?, ?, ?)`

	selectUserByUsernameSQL = `SELECT id, name, email, username, password_hash, balance_minor, created_at FROM users WHERE username = ?`

	selectBalanceSQL = `SELECT balance_minor FROM users WHERE username = ?`

	// compare-and-set: only writes if nobody changed the balance since it was read
	updateBalanceCASSQL = `UPDATE users SET balance_minor = ? WHERE username = ? AND balance_minor = ?`
)

// Create inserts a new user and returns its ID.
func (r *UserRepository) Create(ctx context.Context, u *models.User) (int64, error) {
	createdAt := u.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx, insertUserSQL,
		u.Name, u.Email, u.Username, u.PasswordHash, money.ToMinor(u.Balance), formatTimestamp(createdAt))
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("insert user %q: %w", u.Username, ErrDuplicate)
		}
		return 0, fmt.Errorf("insert user %q: %w", u.Username, err)
	}
	lastID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get last insert id for user %q: %w", u.Username, err)
	}
	return lastID, nil
}

// GetByUsername fetches a user by exact username. Returns (nil, nil) if not found.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var (
		u         models.User
		balance   int64
		createdAt sqlTime
	)
	err := r.db.QueryRowContext(ctx, selectUserByUsernameSQL, username).
		Scan(&u.ID, &u.Name, &u.Email, &u.Username, &u.PasswordHash, &balance, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select user %q: %w", username, err)
	}
	u.Balance = money.FromMinor(balance)
	u.CreatedAt = createdAt.Time
	return &u, nil
}

// ApplyBalance reads the balance, lets op decide the new one, and writes it
// back with a compare-and-set plus a journal entry, all in one transaction.
//
// Errors from op are returned unchanged together with the current balance and
// nothing is written. ErrConflict means another writer won the race.
func (r *UserRepository) ApplyBalance(ctx context.Context, username string, op ledger.Op, entry models.LedgerEntry) (decimal.Decimal, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("begin balance transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var currentMinor int64
	if err := tx.QueryRowContext(ctx, selectBalanceSQL, username).Scan(&currentMinor); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, fmt.Errorf("balance of %q: %w", username, ErrNotFound)
		}
		return decimal.Zero, fmt.Errorf("select balance of %q: %w", username, err)
	}
	current := money.FromMinor(currentMinor)

	next, err := op(current)
	if err != nil {
		return current, err
	}
	nextMinor := money.ToMinor(next)

	res, err := tx.ExecContext(ctx, updateBalanceCASSQL, nextMinor, username, currentMinor)
	if err != nil {
		return current, fmt.Errorf("update balance of %q: %w", username, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return current, fmt.Errorf("rows affected for %q: %w", username, err)
	}
	if n == 0 {
		return current, ErrConflict
	}

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	entry.Username = username
	entry.BalanceAfter = money.FromMinor(nextMinor)
	if err := insertEntry(ctx, tx, entry); err != nil {
		if isUniqueViolation(err) {
			return current, fmt.Errorf("entry for request %q: %w", entry.RequestID, ErrDuplicate)
		}
		return current, err
	}

	if err := tx.Commit(); err != nil {
		return current, fmt.Errorf("commit balance transaction: %w", err)
	}
	return entry.BalanceAfter, nil
}
