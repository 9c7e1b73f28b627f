package ledger

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/xcurrency/internal/account"
	"github.com/mtlprog/xcurrency/internal/currency"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrations returns the PostgreSQL schema migrations for PgLedger.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// PgLedger implements Store with PostgreSQL. Every mutation runs in its own
// transaction and appends a row to ledger_entries.
type PgLedger struct {
	pool *pgxpool.Pool
}

// NewPgLedger creates a PostgreSQL-backed ledger.
func NewPgLedger(pool *pgxpool.Pool) *PgLedger {
	return &PgLedger{pool: pool}
}

func (l *PgLedger) Deposit(ctx context.Context, cur currency.ID, who account.ID, amount Balance) error {
	if err := validateAmount(amount); err != nil {
		return err
	}
	if amount.IsZero() {
		return nil
	}

	return pgx.BeginFunc(ctx, l.pool, func(tx pgx.Tx) error {
		if err := checkTarget(ctx, tx, cur, who); err != nil {
			return err
		}

		var after Balance
		err := tx.QueryRow(ctx,
			`INSERT INTO balances (currency, account, amount)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (currency, account)
			 DO UPDATE SET amount = balances.amount + EXCLUDED.amount, updated_at = NOW()
			 RETURNING amount`,
			string(cur), who.String(), amount).Scan(&after)
		if err != nil {
			return fmt.Errorf("crediting balance: %w", err)
		}
		if after.GreaterThan(MaxBalance) {
			return ErrBalanceOverflow
		}

		return insertEntry(ctx, tx, cur, who, directionDeposit, amount, after)
	})
}

func (l *PgLedger) Withdraw(ctx context.Context, cur currency.ID, who account.ID, amount Balance) error {
	if err := validateAmount(amount); err != nil {
		return err
	}
	if amount.IsZero() {
		return nil
	}

	return pgx.BeginFunc(ctx, l.pool, func(tx pgx.Tx) error {
		if err := checkTarget(ctx, tx, cur, who); err != nil {
			return err
		}

		current := decimal.Zero
		err := tx.QueryRow(ctx,
			`SELECT amount FROM balances
			 WHERE currency = $1 AND account = $2
			 FOR UPDATE`,
			string(cur), who.String()).Scan(&current)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("locking balance: %w", err)
		}

		after, err := debit(current, amount)
		if err != nil {
			return err
		}

		if _, err := tx.Exec(ctx,
			`UPDATE balances SET amount = $3, updated_at = NOW()
			 WHERE currency = $1 AND account = $2`,
			string(cur), who.String(), after); err != nil {
			return fmt.Errorf("debiting balance: %w", err)
		}

		return insertEntry(ctx, tx, cur, who, directionWithdraw, amount, after)
	})
}

func (l *PgLedger) Balance(ctx context.Context, cur currency.ID, who account.ID) (Balance, error) {
	b := decimal.Zero
	err := l.pool.QueryRow(ctx,
		`SELECT amount FROM balances WHERE currency = $1 AND account = $2`,
		string(cur), who.String()).Scan(&b)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, fmt.Errorf("getting balance: %w", err)
	}
	return b, nil
}

func (l *PgLedger) RegisterCurrency(ctx context.Context, cur currency.ID) error {
	_, err := l.pool.Exec(ctx,
		`INSERT INTO currencies (code) VALUES ($1) ON CONFLICT (code) DO NOTHING`, string(cur))
	if err != nil {
		return fmt.Errorf("registering currency %s: %w", cur, err)
	}
	return nil
}

func (l *PgLedger) Freeze(ctx context.Context, who account.ID) error {
	_, err := l.pool.Exec(ctx,
		`INSERT INTO frozen_accounts (account) VALUES ($1) ON CONFLICT (account) DO NOTHING`, who.String())
	if err != nil {
		return fmt.Errorf("freezing %s: %w", who, err)
	}
	return nil
}

func (l *PgLedger) Unfreeze(ctx context.Context, who account.ID) error {
	if _, err := l.pool.Exec(ctx, `DELETE FROM frozen_accounts WHERE account = $1`, who.String()); err != nil {
		return fmt.Errorf("unfreezing %s: %w", who, err)
	}
	return nil
}

func (l *PgLedger) Holdings(ctx context.Context) ([]Holding, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT currency, account, amount, updated_at
		 FROM balances
		 WHERE amount > 0
		 ORDER BY currency, account`)
	if err != nil {
		return nil, fmt.Errorf("listing holdings: %w", err)
	}
	defer rows.Close()

	var holdings []Holding
	for rows.Next() {
		var (
			h        Holding
			cur, who string
		)
		if err := rows.Scan(&cur, &who, &h.Amount, &h.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning holding: %w", err)
		}
		if h.Account, err = account.ParseID(who); err != nil {
			return nil, fmt.Errorf("scanning holding: %w", err)
		}
		h.Currency = currency.ID(cur)
		holdings = append(holdings, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating holdings: %w", err)
	}

	sortHoldings(holdings)
	return holdings, nil
}

// Close is a no-op; the pool is owned by the caller.
func (l *PgLedger) Close() error { return nil }

func checkTarget(ctx context.Context, tx pgx.Tx, cur currency.ID, who account.ID) error {
	var known, frozen bool
	err := tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM currencies WHERE code = $1),
		        EXISTS (SELECT 1 FROM frozen_accounts WHERE account = $2)`,
		string(cur), who.String()).Scan(&known, &frozen)
	if err != nil {
		return fmt.Errorf("checking currency and account: %w", err)
	}
	if !known {
		return ErrUnknownCurrency
	}
	if frozen {
		return ErrAccountFrozen
	}
	return nil
}

func insertEntry(ctx context.Context, tx pgx.Tx, cur currency.ID, who account.ID, dir direction, amount, after Balance) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO ledger_entries (id, currency, account, direction, amount, balance_after)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.New(), string(cur), who.String(), string(dir), amount, after)
	if err != nil {
		return fmt.Errorf("recording %s entry: %w", dir, err)
	}
	return nil
}
