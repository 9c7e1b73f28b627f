// Package ledger holds per-account, per-currency balances.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/xcurrency/internal/account"
	"github.com/mtlprog/xcurrency/internal/asset"
	"github.com/mtlprog/xcurrency/internal/currency"
)

// Balance is an integer quantity of a currency's smallest unit.
type Balance = decimal.Decimal

// MaxBalance is the largest balance a ledger holds (38 decimal digits).
var MaxBalance = decimal.RequireFromString("99999999999999999999999999999999999999")

var (
	ErrUnknownCurrency     = errors.New("currency unknown to ledger")
	ErrAccountFrozen       = errors.New("account frozen")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrBalanceOverflow     = errors.New("balance overflow")
	ErrInvalidAmount       = errors.New("amount must be a non-negative integer")
)

type direction string

const (
	directionDeposit  direction = "deposit"
	directionWithdraw direction = "withdraw"
)

// Ledger is the balance mutation contract. Each call is atomic: it either
// applies in full or leaves balances untouched.
type Ledger interface {
	Deposit(ctx context.Context, cur currency.ID, who account.ID, amount Balance) error
	Withdraw(ctx context.Context, cur currency.ID, who account.ID, amount Balance) error
	Balance(ctx context.Context, cur currency.ID, who account.ID) (Balance, error)
}

// Holding is one non-zero balance.
type Holding struct {
	Currency  currency.ID `json:"currency"`
	Account   account.ID  `json:"account"`
	Amount    Balance     `json:"amount"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// Store is a Ledger with administration and reporting.
type Store interface {
	Ledger
	RegisterCurrency(ctx context.Context, cur currency.ID) error
	Freeze(ctx context.Context, who account.ID) error
	Unfreeze(ctx context.Context, who account.ID) error
	Holdings(ctx context.Context) ([]Holding, error)
	Close() error
}

// BalanceFromAmount converts a protocol amount to a Balance, failing with
// ErrBalanceOverflow when it exceeds MaxBalance.
func BalanceFromAmount(a asset.Amount) (Balance, error) {
	b := decimal.NewFromBigInt(a.Big(), 0)
	if b.GreaterThan(MaxBalance) {
		return Balance{}, fmt.Errorf("%w: %s", ErrBalanceOverflow, a)
	}
	return b, nil
}

// BalanceFromUint64 converts a narrow amount to a Balance. It never fails.
func BalanceFromUint64(n uint64) (Balance, error) {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(n), 0), nil
}

func validateAmount(amount Balance) error {
	if amount.IsNegative() || !amount.IsInteger() {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}
	return nil
}

// credit returns current+amount, or ErrBalanceOverflow.
func credit(current, amount Balance) (Balance, error) {
	after := current.Add(amount)
	if after.GreaterThan(MaxBalance) {
		return Balance{}, ErrBalanceOverflow
	}
	return after, nil
}

// debit returns current-amount, or ErrInsufficientBalance.
func debit(current, amount Balance) (Balance, error) {
	if current.LessThan(amount) {
		return Balance{}, fmt.Errorf("%w: have %s, need %s", ErrInsufficientBalance, current, amount)
	}
	return current.Sub(amount), nil
}
