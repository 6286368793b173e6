// Package ledger holds the balance arithmetic behind deposits and withdrawals.
// It does no I/O; persistence is the caller's job.
package ledger

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Entry kinds recorded in the journal.
const (
	KindDeposit  = "DEPOSIT"
	KindWithdraw = "WITHDRAW"
)

var (
	ErrNegativeAmount = errors.New("amount must not be negative")
	ErrBalanceLimit   = errors.New("balance would exceed the maximum")
)

// MaxBalance is the largest balance whose minor units fit in int64.
var MaxBalance = decimal.New(math.MaxInt64, -2)

// InsufficientFundsError is returned by Withdraw when amount exceeds the balance.
type InsufficientFundsError struct {
	Available decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: available %s", e.Available.StringFixed(2))
}

// Op is a balance transition: it receives the current balance and returns
// the new one or an error that aborts the mutation.
type Op func(balance decimal.Decimal) (decimal.Decimal, error)

// Deposit returns balance + amount, or ErrBalanceLimit when the result
// would pass MaxBalance.
func Deposit(balance, amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.IsNegative() {
		return balance, ErrNegativeAmount
	}
	next := balance.Add(amount)
	if next.GreaterThan(MaxBalance) {
		return balance, ErrBalanceLimit
	}
	return next, nil
}

// Withdraw returns balance - amount, or *InsufficientFundsError when
// amount > balance. The balance is never driven below zero.
func Withdraw(balance, amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.IsNegative() {
		return balance, ErrNegativeAmount
	}
	if amount.GreaterThan(balance) {
		return balance, &InsufficientFundsError{Available: balance}
	}
	return balance.Sub(amount), nil
}

// DepositOp binds amount into an Op.
func DepositOp(amount decimal.Decimal) Op {
	return func(balance decimal.Decimal) (decimal.Decimal, error) {
		return Deposit(balance, amount)
	}
}

// WithdrawOp binds amount into an Op.
func WithdrawOp(amount decimal.Decimal) Op {
	return func(balance decimal.Decimal) (decimal.Decimal, error) {
		return Withdraw(balance, amount)
	}
}
