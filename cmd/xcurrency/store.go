package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mtlprog/xcurrency/internal/account"
	"github.com/mtlprog/xcurrency/internal/adapter"
	"github.com/mtlprog/xcurrency/internal/asset"
	"github.com/mtlprog/xcurrency/internal/config"
	"github.com/mtlprog/xcurrency/internal/currency"
	"github.com/mtlprog/xcurrency/internal/database"
	"github.com/mtlprog/xcurrency/internal/fungible"
	"github.com/mtlprog/xcurrency/internal/ledger"
)

// services bundles what every command needs: the store, the currency registry
// and an adapter wired over both.
type services struct {
	cfg      config.Config
	store    ledger.Store
	registry *currency.Registry
	adapter  *adapter.Adapter[asset.Amount]
	cleanup  func()
}

func (s *services) Close() {
	if err := s.store.Close(); err != nil {
		slog.Warn("closing ledger", "error", err)
	}
	if s.cleanup != nil {
		s.cleanup()
	}
}

// openServices opens the configured ledger, applies its schema and registers
// every configured currency in it.
func openServices(ctx context.Context, cfg config.Config, observers ...adapter.Observer) (*services, error) {
	registry, err := currency.ParseRegistry(cfg.Currencies)
	if err != nil {
		return nil, fmt.Errorf("parsing currencies: %w", err)
	}

	store, cleanup, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	s := &services{cfg: cfg, store: store, registry: registry, cleanup: cleanup}
	for _, info := range registry.List() {
		if err := store.RegisterCurrency(ctx, info.ID); err != nil {
			s.Close()
			return nil, err
		}
	}

	resolver := currency.NewResolver(registry)
	s.adapter = adapter.New[asset.Amount](
		account.NewConverter(asset.NetworkID(cfg.Network)),
		resolver,
		fungible.NewGeneralKeyMatcher(resolver, fungible.ToAmount),
		ledger.BalanceFromAmount,
		store,
		observers...,
	)
	return s, nil
}

func openStore(ctx context.Context, cfg config.Config) (ledger.Store, func(), error) {
	switch cfg.LedgerDriver {
	case config.DriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, nil, fmt.Errorf("DATABASE_URL is required for the postgres driver")
		}
		pool, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if _, err := database.RunMigrations(ctx, pool, ledger.Migrations()); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("running migrations: %w", err)
		}
		return ledger.NewPgLedger(pool), pool.Close, nil

	case config.DriverSQLite:
		l, err := ledger.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		if err := l.Migrate(ctx); err != nil {
			l.Close()
			return nil, nil, err
		}
		return l, nil, nil

	default:
		slog.Warn("using in-memory ledger, balances are lost on exit")
		return ledger.NewMemoryLedger(), nil, nil
	}
}
