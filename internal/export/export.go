package export

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/xcurrency/internal/currency"
	"github.com/mtlprog/xcurrency/internal/ledger"
)

// Row is one account balance in a statement.
type Row struct {
	Currency currency.ID
	Account  string
	Balance  decimal.Decimal
	Decimals int32
	// Display is Balance shifted by Decimals, e.g. "12.3400000" for 123400000 at 7.
	Display string
}

// Total is the sum of all balances of one currency.
type Total struct {
	Currency currency.ID
	Accounts int
	Balance  decimal.Decimal
	Display  string
}

// Statement is a point-in-time listing of ledger holdings.
type Statement struct {
	GeneratedAt time.Time
	Rows        []Row
}

// Totals sums rows per currency, sorted by currency.
func (s Statement) Totals() []Total {
	groups := lo.GroupBy(s.Rows, func(r Row) currency.ID { return r.Currency })

	totals := make([]Total, 0, len(groups))
	for cur, rows := range groups {
		sum := lo.Reduce(rows, func(acc decimal.Decimal, r Row, _ int) decimal.Decimal {
			return acc.Add(r.Balance)
		}, decimal.Zero)
		totals = append(totals, Total{
			Currency: cur,
			Accounts: len(rows),
			Balance:  sum,
			Display:  display(sum, rows[0].Decimals),
		})
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].Currency < totals[j].Currency })
	return totals
}

// StatementWriter writes a statement to a destination.
type StatementWriter interface {
	Write(ctx context.Context, st Statement) error
}

// HoldingsSource lists non-zero ledger balances.
type HoldingsSource interface {
	Holdings(ctx context.Context) ([]ledger.Holding, error)
}

// CurrencyInfo looks up currency metadata.
type CurrencyInfo interface {
	Lookup(id currency.ID) (currency.Info, bool)
}

// Service builds statements and delegates writing to StatementWriters.
type Service struct {
	holdings   HoldingsSource
	currencies CurrencyInfo
	writers    []StatementWriter
	now        func() time.Time
}

// NewService creates a new export Service.
func NewService(holdings HoldingsSource, currencies CurrencyInfo, writers ...StatementWriter) *Service {
	return &Service{
		holdings:   holdings,
		currencies: currencies,
		writers:    writers,
		now:        time.Now,
	}
}

// Build reads all holdings and renders them as a statement sorted by
// currency, then account. Currencies missing from the registry are shown
// with zero decimals.
func (s *Service) Build(ctx context.Context) (Statement, error) {
	holdings, err := s.holdings.Holdings(ctx)
	if err != nil {
		return Statement{}, fmt.Errorf("listing holdings: %w", err)
	}

	rows := lo.Map(holdings, func(h ledger.Holding, _ int) Row {
		var decimals int32
		if info, ok := s.currencies.Lookup(h.Currency); ok {
			decimals = info.Decimals
		}
		return Row{
			Currency: h.Currency,
			Account:  h.Account.String(),
			Balance:  h.Amount,
			Decimals: decimals,
			Display:  display(h.Amount, decimals),
		}
	})
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Currency != rows[j].Currency {
			return rows[i].Currency < rows[j].Currency
		}
		return rows[i].Account < rows[j].Account
	})

	return Statement{GeneratedAt: s.now().UTC(), Rows: rows}, nil
}

// Export builds a statement and hands it to every writer. A failing writer
// does not stop the others. Implements worker.StatementExporter.
func (s *Service) Export(ctx context.Context) error {
	st, err := s.Build(ctx)
	if err != nil {
		return err
	}

	var errs []error
	for _, w := range s.writers {
		if err := w.Write(ctx, st); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func display(balance decimal.Decimal, decimals int32) string {
	return balance.Shift(-decimals).StringFixed(decimals)
}
