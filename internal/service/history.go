package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"banking_portal/internal/ledger"
	"banking_portal/internal/models"
	"banking_portal/internal/repository"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// HistoryFilter selects journal entries of one user.
type HistoryFilter struct {
	Username string
	From     time.Time
	To       time.Time
	Kind     string
	Limit    int
}

type HistoryService struct {
	entries repository.Entries
}

func NewHistoryService(entries repository.Entries) *HistoryService {
	return &HistoryService{entries: entries}
}

var (
	ErrInvalidTimeRange = errors.New("invalid time range: from must be <= to")
	ErrInvalidKind      = errors.New("invalid kind: want DEPOSIT or WITHDRAW")
)

// normalizeToUTC returns t in UTC, preserving zero time values.
func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

func clampLimit(n int) int {
	switch {
	case n <= 0:
		return defaultHistoryLimit
	case n > maxHistoryLimit:
		return maxHistoryLimit
	}
	return n
}

// normalizeFilter prepares query parameters and validates range and kind.
func normalizeFilter(f HistoryFilter) (repository.EntryFilter, error) {
	from := normalizeToUTC(f.From)
	to := normalizeToUTC(f.To)
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return repository.EntryFilter{}, ErrInvalidTimeRange
	}

	kind := strings.TrimSpace(strings.ToUpper(f.Kind))
	switch kind {
	case "", ledger.KindDeposit, ledger.KindWithdraw:
	default:
		return repository.EntryFilter{}, ErrInvalidKind
	}

	return repository.EntryFilter{
		Username: f.Username,
		From:     from,
		To:       to,
		Kind:     kind,
		Limit:    clampLimit(f.Limit),
	}, nil
}

// List returns the user's entries, newest first.
func (s *HistoryService) List(ctx context.Context, f HistoryFilter) ([]models.LedgerEntry, error) {
	if f.Username == "" {
		return nil, ErrAccountNotFound
	}
	ef, err := normalizeFilter(f)
	if err != nil {
		return nil, err
	}
	return s.entries.List(ctx, ef)
}
