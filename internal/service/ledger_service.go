package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"banking_portal/internal/ledger"
	"banking_portal/internal/logger"
	"banking_portal/internal/metrics"
	"banking_portal/internal/models"
	"banking_portal/internal/repository"

	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"
)

// Retry policy for compare-and-set conflicts on the balance row.
const (
	conflictRetries = 5
	conflictBackoff = 10 * time.Millisecond
)

var (
	ErrAccountNotFound  = errors.New("account not found")
	ErrDuplicateRequest = errors.New("request already processed")
	ErrBusy             = errors.New("balance is busy, try again")
)

type LedgerService struct {
	users repository.Users
	log   *logger.Logger
}

func NewLedgerService(users repository.Users, log *logger.Logger) *LedgerService {
	return &LedgerService{users: users, log: log}
}

// Deposit adds amount to the user's balance and returns the new balance.
func (s *LedgerService) Deposit(ctx context.Context, username string, amount decimal.Decimal, requestID string) (decimal.Decimal, error) {
	return s.apply(ctx, ledger.KindDeposit, username, amount, requestID, ledger.DepositOp(amount))
}

// Withdraw subtracts amount from the user's balance. When the balance is too
// small it returns the unchanged balance and a *ledger.InsufficientFundsError.
func (s *LedgerService) Withdraw(ctx context.Context, username string, amount decimal.Decimal, requestID string) (decimal.Decimal, error) {
	return s.apply(ctx, ledger.KindWithdraw, username, amount, requestID, ledger.WithdrawOp(amount))
}

// Balance reads the persisted balance.
func (s *LedgerService) Balance(ctx context.Context, username string) (decimal.Decimal, error) {
	u, err := s.Account(ctx, username)
	if err != nil {
		return decimal.Zero, err
	}
	return u.Balance, nil
}

// Account returns the persisted user row, or ErrAccountNotFound.
func (s *LedgerService) Account(ctx context.Context, username string) (*models.User, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrAccountNotFound
	}
	return u, nil
}

func (s *LedgerService) apply(ctx context.Context, kind, username string, amount decimal.Decimal, requestID string, op ledger.Op) (decimal.Decimal, error) {
	entry := models.LedgerEntry{
		Kind:      kind,
		Amount:    amount,
		RequestID: requestID,
	}

	var balance decimal.Decimal
	attempts := 0
	backoff := retry.WithMaxRetries(conflictRetries, retry.NewConstant(conflictBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		var err error
		balance, err = s.users.ApplyBalance(ctx, username, op, entry)
		if errors.Is(err, repository.ErrConflict) {
			return retry.RetryableError(err)
		}
		return err
	})

	if err != nil {
		var insufficient *ledger.InsufficientFundsError
		switch {
		case errors.As(err, &insufficient):
			metrics.ObserveLedger(kind, metrics.OutcomeInsufficient)
			s.logInfo("ledger operation refused", kind, username, amount, balance, "insufficient funds")
			return balance, err
		case errors.Is(err, ledger.ErrBalanceLimit):
			metrics.ObserveLedger(kind, metrics.OutcomeLimit)
			s.logInfo("ledger operation refused", kind, username, amount, balance, "balance limit")
			return balance, err
		case errors.Is(err, ledger.ErrNegativeAmount):
			metrics.ObserveLedger(kind, metrics.OutcomeError)
			return balance, err
		case errors.Is(err, repository.ErrNotFound):
			metrics.ObserveLedger(kind, metrics.OutcomeNotFound)
			return decimal.Zero, ErrAccountNotFound
		case errors.Is(err, repository.ErrDuplicate):
			metrics.ObserveLedger(kind, metrics.OutcomeDuplicate)
			s.logInfo("ledger operation replayed", kind, username, amount, balance, requestID)
			return balance, ErrDuplicateRequest
		case errors.Is(err, repository.ErrConflict):
			metrics.ObserveLedger(kind, metrics.OutcomeError)
			s.logError(kind, username, attempts, err)
			return balance, ErrBusy
		default:
			metrics.ObserveLedger(kind, metrics.OutcomeError)
			s.logError(kind, username, attempts, err)
			return balance, fmt.Errorf("%s for %q: %w", kind, username, err)
		}
	}

	metrics.ObserveLedger(kind, metrics.OutcomeOK)
	s.logInfo("ledger operation applied", kind, username, amount, balance, "")
	return balance, nil
}

func (s *LedgerService) logInfo(msg, kind, username string, amount, balance decimal.Decimal, reason string) {
	if s.log == nil {
		return
	}
	s.log.Infow(msg,
		"kind", kind,
		"username", username,
		"amount", amount.StringFixed(2),
		"balance", balance.StringFixed(2),
		"reason", reason,
	)
}

func (s *LedgerService) logError(kind, username string, attempts int, err error) {
	if s.log == nil {
		return
	}
	s.log.Errorw("ledger operation failed",
		"kind", kind,
		"username", username,
		"attempts", attempts,
		"error", err,
	)
}
