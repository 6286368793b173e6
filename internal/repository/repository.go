package repository

import (
	"context"
	"database/sql"
	"time"

	"banking_portal/internal/ledger"
	"banking_portal/internal/models"

	"github.com/shopspring/decimal"
)

// Users is the credential store: user rows and their balance.
type Users interface {
	Create(ctx context.Context, u *models.User) (int64, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	ApplyBalance(ctx context.Context, username string, op ledger.Op, entry models.LedgerEntry) (decimal.Decimal, error)
}

type Entries interface {
	List(ctx context.Context, f EntryFilter) ([]models.LedgerEntry, error)
}

type Sessions interface {
	Save(ctx context.Context, s models.SessionState) error
	Load(ctx context.Context, id string, now time.Time) (*models.SessionState, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type Repository struct {
	Users    Users
	Entries  Entries
	Sessions Sessions
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Users:    NewUserRepository(db),
		Entries:  NewEntrySQLite(db),
		Sessions: NewSessionSQLite(db),
	}
}
