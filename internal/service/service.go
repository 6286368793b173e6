package service

import (
	"context"
	"time"

	"banking_portal/internal/config"
	"banking_portal/internal/logger"
	"banking_portal/internal/models"
	"banking_portal/internal/repository"

	"github.com/shopspring/decimal"
)

// Authorization registers users, checks passwords and issues API tokens.
type Authorization interface {
	Register(ctx context.Context, p RegisterParams) (int64, error)
	Authenticate(ctx context.Context, username, password string) (*models.User, error)
	GenerateToken(ctx context.Context, username, password string) (string, error)
	ParseToken(accessToken string) (string, error)
}

// Ledger mutates and reads balances. Deposit/Withdraw persist before returning.
type Ledger interface {
	Deposit(ctx context.Context, username string, amount decimal.Decimal, requestID string) (decimal.Decimal, error)
	Withdraw(ctx context.Context, username string, amount decimal.Decimal, requestID string) (decimal.Decimal, error)
	Balance(ctx context.Context, username string) (decimal.Decimal, error)
	Account(ctx context.Context, username string) (*models.User, error)
}

// History lists journal entries.
type History interface {
	List(ctx context.Context, f HistoryFilter) ([]models.LedgerEntry, error)
}

// Sessions holds per-client state behind a signed cookie token.
type Sessions interface {
	New() *models.SessionState
	Load(ctx context.Context, token string) (*models.SessionState, error)
	Save(ctx context.Context, s *models.SessionState) (string, error)
	Login(ctx context.Context, old *models.SessionState, u *models.User) (*models.SessionState, error)
	Destroy(ctx context.Context, s *models.SessionState) error
}

// Janitor runs the background purge of expired sessions.
// Stop via context cancellation in main() for graceful shutdown.
type Janitor interface {
	Run(ctx context.Context, tick time.Duration)
}

// Service aggregates all sub-services.
type Service struct {
	Authorization
	Ledger
	History
	Sessions
	Janitor
}

// NewService wires repository layer into concrete services.
func NewService(repos *repository.Repository, cfg *config.Config, log *logger.Logger) *Service {
	return &Service{
		Authorization: NewAuthService(repos.Users, []byte(cfg.Session.Secret), cfg.Auth.TokenTTL),
		Ledger:        NewLedgerService(repos.Users, log.Component("ledger")),
		History:       NewHistoryService(repos.Entries),
		Sessions:      NewSessionService(repos.Sessions, []byte(cfg.Session.Secret), cfg.Session.TTL),
		Janitor:       NewJanitorService(repos.Sessions, log.Component("janitor")),
	}
}
