package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/xcurrency/internal/account"
	"github.com/mtlprog/xcurrency/internal/currency"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS currencies (
    code       TEXT PRIMARY KEY,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS frozen_accounts (
    account   TEXT PRIMARY KEY,
    frozen_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS balances (
    currency   TEXT NOT NULL REFERENCES currencies (code),
    account    TEXT NOT NULL,
    amount     TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    PRIMARY KEY (currency, account)
);
CREATE TABLE IF NOT EXISTS ledger_entries (
    id            TEXT PRIMARY KEY,
    currency      TEXT NOT NULL REFERENCES currencies (code),
    account       TEXT NOT NULL,
    direction     TEXT NOT NULL CHECK (direction IN ('deposit', 'withdraw')),
    amount        TEXT NOT NULL,
    balance_after TEXT NOT NULL,
    created_at    TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_ledger_entries_account ON ledger_entries (account, created_at);
`

// SQLiteLedger implements Store on a SQLite file. Amounts are stored as
// decimal text; arithmetic happens in Go inside an immediate transaction.
type SQLiteLedger struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path. Use ":memory:" for a
// throwaway ledger. Call Migrate before first use.
func OpenSQLite(path string) (*SQLiteLedger, error) {
	dsn := path
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		dsn = "file:" + path
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	dsn += sep + "_txlock=immediate&_busy_timeout=5000&_foreign_keys=on"

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}
	// A single connection serializes writers and keeps :memory: databases alive.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite: %w", err)
	}
	return &SQLiteLedger{db: db}, nil
}

// Migrate creates the schema if it does not exist.
func (l *SQLiteLedger) Migrate(ctx context.Context) error {
	if _, err := l.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("creating sqlite schema: %w", err)
	}
	return nil
}

func (l *SQLiteLedger) Deposit(ctx context.Context, cur currency.ID, who account.ID, amount Balance) error {
	return l.apply(ctx, cur, who, amount, directionDeposit, credit)
}

func (l *SQLiteLedger) Withdraw(ctx context.Context, cur currency.ID, who account.ID, amount Balance) error {
	return l.apply(ctx, cur, who, amount, directionWithdraw, debit)
}

func (l *SQLiteLedger) apply(ctx context.Context, cur currency.ID, who account.ID, amount Balance, dir direction, op func(current, amount Balance) (Balance, error)) error {
	if err := validateAmount(amount); err != nil {
		return err
	}
	if amount.IsZero() {
		return nil
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var known, frozen bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM currencies WHERE code = ?),
		        EXISTS (SELECT 1 FROM frozen_accounts WHERE account = ?)`,
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

	current, err := scanBalance(tx.QueryRowContext(ctx,
		`SELECT amount FROM balances WHERE currency = ? AND account = ?`,
		string(cur), who.String()))
	if err != nil {
		return err
	}

	after, err := op(current, amount)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO balances (currency, account, amount, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (currency, account) DO UPDATE SET amount = excluded.amount, updated_at = excluded.updated_at`,
		string(cur), who.String(), after.String(), now); err != nil {
		return fmt.Errorf("writing balance: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO ledger_entries (id, currency, account, direction, amount, balance_after, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), string(cur), who.String(), string(dir), amount.String(), after.String(), now); err != nil {
		return fmt.Errorf("recording %s entry: %w", dir, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (l *SQLiteLedger) Balance(ctx context.Context, cur currency.ID, who account.ID) (Balance, error) {
	return scanBalance(l.db.QueryRowContext(ctx,
		`SELECT amount FROM balances WHERE currency = ? AND account = ?`,
		string(cur), who.String()))
}

func (l *SQLiteLedger) RegisterCurrency(ctx context.Context, cur currency.ID) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO currencies (code) VALUES (?) ON CONFLICT (code) DO NOTHING`, string(cur))
	if err != nil {
		return fmt.Errorf("registering currency %s: %w", cur, err)
	}
	return nil
}

func (l *SQLiteLedger) Freeze(ctx context.Context, who account.ID) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO frozen_accounts (account) VALUES (?) ON CONFLICT (account) DO NOTHING`, who.String())
	if err != nil {
		return fmt.Errorf("freezing %s: %w", who, err)
	}
	return nil
}

func (l *SQLiteLedger) Unfreeze(ctx context.Context, who account.ID) error {
	if _, err := l.db.ExecContext(ctx, `DELETE FROM frozen_accounts WHERE account = ?`, who.String()); err != nil {
		return fmt.Errorf("unfreezing %s: %w", who, err)
	}
	return nil
}

func (l *SQLiteLedger) Holdings(ctx context.Context) ([]Holding, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT currency, account, amount, updated_at FROM balances`)
	if err != nil {
		return nil, fmt.Errorf("listing holdings: %w", err)
	}
	defer rows.Close()

	var holdings []Holding
	for rows.Next() {
		var (
			h                Holding
			cur, who, amount string
		)
		if err := rows.Scan(&cur, &who, &amount, &h.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning holding: %w", err)
		}
		if h.Account, err = account.ParseID(who); err != nil {
			return nil, fmt.Errorf("scanning holding: %w", err)
		}
		if h.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("scanning holding amount: %w", err)
		}
		h.Currency = currency.ID(cur)
		holdings = append(holdings, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating holdings: %w", err)
	}

	holdings = lo.Filter(holdings, func(h Holding, _ int) bool {
		return !h.Amount.IsZero()
	})
	sortHoldings(holdings)
	return holdings, nil
}

func (l *SQLiteLedger) Close() error {
	return l.db.Close()
}

func scanBalance(row *sql.Row) (Balance, error) {
	var s string
	if err := row.Scan(&s); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, nil
		}
		return decimal.Zero, fmt.Errorf("reading balance: %w", err)
	}
	b, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing balance %q: %w", s, err)
	}
	return b, nil
}
