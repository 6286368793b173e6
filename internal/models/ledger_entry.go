package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerEntry is a single journal row for a balance mutation.
type LedgerEntry struct {
	ID           string          `json:"id"`
	Username     string          `json:"username"`
	Kind         string          `json:"kind"` // DEPOSIT | WITHDRAW
	Amount       decimal.Decimal `json:"amount"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
	RequestID    string          `json:"request_id,omitempty"`
	OccurredAt   time.Time       `json:"occurred_at"`
}
