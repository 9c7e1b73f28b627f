// Package adapter moves fungible assets in and out of a multi-currency ledger.
//
// Both operations run one linear pipeline: resolve the account, resolve the
// currency, match the amount, convert it to a ledger balance and make exactly
// one ledger call. Any failure ends the pipeline with ErrFailedToTransactAsset
// and, before the ledger step, leaves the ledger untouched.
package adapter

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mtlprog/xcurrency/internal/account"
	"github.com/mtlprog/xcurrency/internal/asset"
	"github.com/mtlprog/xcurrency/internal/currency"
	"github.com/mtlprog/xcurrency/internal/fungible"
	"github.com/mtlprog/xcurrency/internal/ledger"
)

// ErrFailedToTransactAsset is the only error kind the adapter reports.
var ErrFailedToTransactAsset = errors.New("failed to transact asset")

// Stage names the pipeline step that failed.
type Stage string

const (
	StageAccount  Stage = "account"
	StageCurrency Stage = "currency"
	StageMatch    Stage = "match"
	StageBalance  Stage = "balance"
	StageLedger   Stage = "ledger"
)

// Operation is deposit or withdraw.
type Operation string

const (
	OpDeposit  Operation = "deposit"
	OpWithdraw Operation = "withdraw"
)

// TransactError records where a transfer failed. It unwraps only to
// ErrFailedToTransactAsset; ledger detail is not exposed.
type TransactError struct {
	Op    Operation
	Stage Stage
}

func (e *TransactError) Error() string {
	return string(e.Op) + ": " + ErrFailedToTransactAsset.Error() + " at " + string(e.Stage)
}

func (e *TransactError) Unwrap() error {
	return ErrFailedToTransactAsset
}

// StageOf returns the failing stage of err, or "" if err did not come from
// an Adapter.
func StageOf(err error) Stage {
	var te *TransactError
	if errors.As(err, &te) {
		return te.Stage
	}
	return ""
}

// AccountConverter resolves a location to a local account.
type AccountConverter interface {
	AccountFromLocation(loc asset.Location) (account.ID, bool)
}

// CurrencyResolver resolves an asset to a locally known currency.
type CurrencyResolver interface {
	CurrencyFromAsset(a asset.Descriptor) (currency.ID, bool)
}

// Ledger applies balance mutations.
type Ledger interface {
	Deposit(ctx context.Context, cur currency.ID, who account.ID, amount ledger.Balance) error
	Withdraw(ctx context.Context, cur currency.ID, who account.ID, amount ledger.Balance) error
}

// BalanceConverter turns a matched amount into a ledger balance.
type BalanceConverter[A any] func(A) (ledger.Balance, error)

// Observer is told the outcome of every call. err is nil on success.
type Observer interface {
	ObserveTransfer(op Operation, err error)
}

// Adapter transacts assets against a ledger. A is the amount type produced
// by the matcher.
type Adapter[A any] struct {
	accounts   AccountConverter
	currencies CurrencyResolver
	matcher    fungible.Matcher[A]
	toBalance  BalanceConverter[A]
	ledger     Ledger
	observers  []Observer
}

// New creates an Adapter.
func New[A any](
	accounts AccountConverter,
	currencies CurrencyResolver,
	matcher fungible.Matcher[A],
	toBalance BalanceConverter[A],
	l Ledger,
	observers ...Observer,
) *Adapter[A] {
	return &Adapter[A]{
		accounts:   accounts,
		currencies: currencies,
		matcher:    matcher,
		toBalance:  toBalance,
		ledger:     l,
		observers:  observers,
	}
}

// DepositAsset credits location's account with the asset's amount.
func (a *Adapter[A]) DepositAsset(ctx context.Context, d asset.Descriptor, location asset.Location) error {
	err := a.transact(ctx, OpDeposit, d, location, a.ledger.Deposit)
	a.notify(OpDeposit, err)
	return err
}

// WithdrawAsset debits location's account by the asset's amount and returns
// a copy of d. Withdrawal is all or nothing.
func (a *Adapter[A]) WithdrawAsset(ctx context.Context, d asset.Descriptor, location asset.Location) (asset.Descriptor, error) {
	err := a.transact(ctx, OpWithdraw, d, location, a.ledger.Withdraw)
	a.notify(OpWithdraw, err)
	if err != nil {
		return asset.Descriptor{}, err
	}
	return d.Clone(), nil
}

type mutation func(ctx context.Context, cur currency.ID, who account.ID, amount ledger.Balance) error

func (a *Adapter[A]) transact(ctx context.Context, op Operation, d asset.Descriptor, location asset.Location, apply mutation) error {
	log := slog.With("op", string(op))
	log.Debug("adapter: trying transfer", "asset", d.String(), "location", location.String())

	fail := func(stage Stage) error {
		log.Debug("adapter: transfer failed", "stage", string(stage))
		return &TransactError{Op: op, Stage: stage}
	}

	who, ok := a.accounts.AccountFromLocation(location)
	if !ok {
		return fail(StageAccount)
	}
	log.Debug("adapter: resolved account", "account", who.String())

	cur, ok := a.currencies.CurrencyFromAsset(d)
	if !ok {
		return fail(StageCurrency)
	}
	log.Debug("adapter: resolved currency", "currency", cur.String())

	amount, ok := a.matcher.MatchesFungible(d)
	if !ok {
		return fail(StageMatch)
	}
	log.Debug("adapter: matched amount", "amount", amount)

	balance, err := a.toBalance(amount)
	if err != nil {
		log.Debug("adapter: balance conversion failed", "error", err)
		return fail(StageBalance)
	}
	log.Debug("adapter: converted balance", "balance", balance.String())

	if err := apply(ctx, cur, who, balance); err != nil {
		log.Debug("adapter: ledger rejected transfer", "error", err)
		return fail(StageLedger)
	}

	log.Debug("adapter: transfer succeeded")
	return nil
}

func (a *Adapter[A]) notify(op Operation, err error) {
	for _, o := range a.observers {
		o.ObserveTransfer(op, err)
	}
}
