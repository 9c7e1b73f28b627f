package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mtlprog/xcurrency/internal/account"
	"github.com/mtlprog/xcurrency/internal/api"
	"github.com/mtlprog/xcurrency/internal/asset"
	"github.com/mtlprog/xcurrency/internal/config"
	"github.com/mtlprog/xcurrency/internal/currency"
	"github.com/mtlprog/xcurrency/internal/export"
	"github.com/mtlprog/xcurrency/internal/metrics"
	"github.com/mtlprog/xcurrency/internal/worker"
)

func newApp() *cli.App {
	return &cli.App{
		Name:  "xcurrency",
		Usage: "move fungible assets in and out of a multi-currency ledger",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "driver", Usage: "ledger driver: memory, postgres or sqlite (env LEDGER_DRIVER)"},
			&cli.StringFlag{Name: "database-url", Usage: "PostgreSQL URL (env DATABASE_URL)"},
			&cli.StringFlag{Name: "sqlite-path", Usage: "SQLite database file (env SQLITE_PATH)"},
			&cli.StringFlag{Name: "currencies", Usage: "CODE[:DECIMALS[:NAME]],... (env CURRENCIES)"},
			&cli.StringFlag{Name: "network", Usage: "network accepted in account locations (env NETWORK)"},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error (env LOG_LEVEL)"},
		},
		Before: func(c *cli.Context) error {
			if c.IsSet("driver") {
				if _, err := config.ParseDriver(c.String("driver")); err != nil {
					return fmt.Errorf("parsing --driver: %w", err)
				}
			}
			cfg := loadConfig(c)
			slog.SetDefault(slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{Level: cfg.LogLevel})))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API and the statement worker",
				Action: serve,
			},
			{
				Name:   "deposit",
				Usage:  "credit an account with an asset",
				Flags:  transferFlags(),
				Action: deposit,
			},
			{
				Name:   "withdraw",
				Usage:  "debit an account by an asset and print the asset",
				Flags:  transferFlags(),
				Action: withdraw,
			},
			{
				Name:  "balance",
				Usage: "print the balance of an account in a currency",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "currency", Required: true},
					&cli.StringFlag{Name: "account", Required: true, Usage: "base58 account id"},
				},
				Action: balance,
			},
			{
				Name:  "export",
				Usage: "write a balance statement",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Usage: "XLSX file (env STATEMENT_PATH)"},
				},
				Action: exportStatement,
			},
			{
				Name:   "migrate",
				Usage:  "create or upgrade the ledger schema",
				Action: migrate,
			},
			{
				Name:   "freeze",
				Usage:  "block deposits and withdrawals for an account",
				Flags:  []cli.Flag{&cli.StringFlag{Name: "account", Required: true}},
				Action: freeze(true),
			},
			{
				Name:   "unfreeze",
				Usage:  "lift a freeze",
				Flags:  []cli.Flag{&cli.StringFlag{Name: "account", Required: true}},
				Action: freeze(false),
			},
		},
	}
}

// loadConfig reads the environment and applies global flag overrides.
func loadConfig(c *cli.Context) config.Config {
	cfg := config.Load()
	override := func(flag string, dst *string) {
		if c.IsSet(flag) {
			*dst = c.String(flag)
		}
	}
	if c.IsSet("driver") {
		if d, err := config.ParseDriver(c.String("driver")); err == nil {
			cfg.LedgerDriver = d
		}
	}
	override("database-url", &cfg.DatabaseURL)
	override("sqlite-path", &cfg.SQLitePath)
	override("currencies", &cfg.Currencies)
	override("network", &cfg.Network)
	if c.IsSet("log-level") {
		if err := cfg.LogLevel.UnmarshalText([]byte(c.String("log-level"))); err != nil {
			slog.Warn("invalid --log-level, keeping configured level", "value", c.String("log-level"))
		}
	}
	return cfg
}

func serve(c *cli.Context) error {
	ctx := c.Context
	cfg := loadConfig(c)

	recorder := metrics.NewRecorder()
	svc, err := openServices(ctx, cfg, recorder)
	if err != nil {
		return err
	}
	defer svc.Close()

	writers, err := statementWriters(ctx, cfg, cfg.StatementPath)
	if err != nil {
		return err
	}
	if len(writers) > 0 {
		exporter := export.NewService(svc.store, svc.registry, writers...)
		go worker.NewStatementWorker(exporter, cfg.StatementInterval).Run(ctx)
	} else {
		slog.Info("no statement destination configured, statement worker disabled")
	}

	if cfg.AdminAPIKey == "" {
		slog.Warn("ADMIN_API_KEY not set, transfer endpoints are unprotected")
	}

	handler := api.NewHandler(svc.adapter, svc.store, int64(cfg.MaxRequestBytes))
	srv := api.NewServer(cfg.HTTPPort, handler, recorder.Handler(), cfg.AdminAPIKey)

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", cfg.HTTPPort, "driver", cfg.LedgerDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		return fmt.Errorf("HTTP server: %w", err)
	}
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

// statementWriters returns a writer for each configured destination.
func statementWriters(ctx context.Context, cfg config.Config, xlsxPath string) ([]export.StatementWriter, error) {
	var writers []export.StatementWriter
	if xlsxPath != "" {
		writers = append(writers, export.NewXLSXWriter(xlsxPath))
	}
	if cfg.SheetsSpreadsheetID != "" {
		if cfg.GoogleCredentialsJSON == "" {
			return nil, fmt.Errorf("GOOGLE_CREDENTIALS_JSON is required with SHEETS_SPREADSHEET_ID")
		}
		sw, err := export.NewSheetsWriter(ctx, cfg.SheetsSpreadsheetID, cfg.GoogleCredentialsJSON)
		if err != nil {
			return nil, err
		}
		writers = append(writers, sw)
	}
	return writers, nil
}

func transferFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "currency", Usage: "currency code; shorthand for --asset key:<hex of code>"},
		&cli.StringFlag{Name: "asset", Usage: "asset location, e.g. parent/parachain:2000/key:0x414141"},
		&cli.StringFlag{Name: "amount", Required: true, Usage: "amount in smallest units"},
		&cli.StringFlag{Name: "account", Usage: "base58 account id"},
		&cli.StringFlag{Name: "location", Usage: "beneficiary location, e.g. account32:any:<base58>"},
	}
}

// transferArgs builds the asset and beneficiary location from command flags.
func transferArgs(c *cli.Context, network asset.NetworkID) (asset.Descriptor, asset.Location, error) {
	var id asset.Location
	switch {
	case c.IsSet("asset"):
		loc, err := asset.ParseLocation(c.String("asset"))
		if err != nil {
			return asset.Descriptor{}, nil, fmt.Errorf("parsing --asset: %w", err)
		}
		id = loc
	case c.IsSet("currency"):
		cur, err := currency.Parse(c.String("currency"))
		if err != nil {
			return asset.Descriptor{}, nil, fmt.Errorf("parsing --currency: %w", err)
		}
		id = asset.Location{asset.GeneralKey(cur.Key())}
	default:
		return asset.Descriptor{}, nil, fmt.Errorf("one of --asset or --currency is required")
	}

	amount, err := asset.ParseAmount(c.String("amount"))
	if err != nil {
		return asset.Descriptor{}, nil, fmt.Errorf("parsing --amount: %w", err)
	}

	var location asset.Location
	switch {
	case c.IsSet("location"):
		location, err = asset.ParseLocation(c.String("location"))
		if err != nil {
			return asset.Descriptor{}, nil, fmt.Errorf("parsing --location: %w", err)
		}
	case c.IsSet("account"):
		who, err := account.ParseID(c.String("account"))
		if err != nil {
			return asset.Descriptor{}, nil, err
		}
		location = who.Location(network)
	default:
		return asset.Descriptor{}, nil, fmt.Errorf("one of --account or --location is required")
	}

	return asset.ConcreteFungible(id, amount), location, nil
}

func deposit(c *cli.Context) error {
	cfg := loadConfig(c)
	svc, err := openServices(c.Context, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	d, location, err := transferArgs(c, asset.NetworkID(cfg.Network))
	if err != nil {
		return err
	}
	if err := svc.adapter.DepositAsset(c.Context, d, location); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "deposited %s to %s\n", d, location)
	return nil
}

func withdraw(c *cli.Context) error {
	cfg := loadConfig(c)
	svc, err := openServices(c.Context, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	d, location, err := transferArgs(c, asset.NetworkID(cfg.Network))
	if err != nil {
		return err
	}
	out, err := svc.adapter.WithdrawAsset(c.Context, d, location)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(c.App.Writer)
	return enc.Encode(out)
}

func balance(c *cli.Context) error {
	cfg := loadConfig(c)
	svc, err := openServices(c.Context, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	cur, err := currency.Parse(c.String("currency"))
	if err != nil {
		return err
	}
	who, err := account.ParseID(c.String("account"))
	if err != nil {
		return err
	}

	b, err := svc.store.Balance(c.Context, cur, who)
	if err != nil {
		return err
	}
	var decimals int32
	if info, ok := svc.registry.Lookup(cur); ok {
		decimals = info.Decimals
	}
	fmt.Fprintf(c.App.Writer, "%s %s %s (%s)\n", cur, who, b, b.Shift(-decimals).StringFixed(decimals))
	return nil
}

func exportStatement(c *cli.Context) error {
	cfg := loadConfig(c)
	svc, err := openServices(c.Context, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	out := cfg.StatementPath
	if c.IsSet("out") {
		out = c.String("out")
	}
	if out == "" && cfg.SheetsSpreadsheetID == "" {
		out = "statement.xlsx"
	}

	writers, err := statementWriters(c.Context, cfg, out)
	if err != nil {
		return err
	}
	if err := export.NewService(svc.store, svc.registry, writers...).Export(c.Context); err != nil {
		return fmt.Errorf("exporting statement: %w", err)
	}
	if out != "" {
		fmt.Fprintf(c.App.Writer, "statement written to %s\n", out)
	}
	return nil
}

func migrate(c *cli.Context) error {
	cfg := loadConfig(c)
	svc, err := openServices(c.Context, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	fmt.Fprintf(c.App.Writer, "%s ledger schema is up to date\n", cfg.LedgerDriver)
	return nil
}

func freeze(frozen bool) cli.ActionFunc {
	return func(c *cli.Context) error {
		cfg := loadConfig(c)
		svc, err := openServices(c.Context, cfg)
		if err != nil {
			return err
		}
		defer svc.Close()

		who, err := account.ParseID(c.String("account"))
		if err != nil {
			return err
		}

		if frozen {
			err = svc.store.Freeze(c.Context, who)
		} else {
			err = svc.store.Unfreeze(c.Context, who)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "%s frozen=%t\n", who, frozen)
		return nil
	}
}
