package worker

import (
	"context"
	"log/slog"
	"time"
)

// StatementExporter builds a balance statement and writes it out.
type StatementExporter interface {
	Export(ctx context.Context) error
}

// DefaultStatementInterval is used when a non-positive interval is given.
const DefaultStatementInterval = time.Hour

// StatementWorker periodically exports balance statements.
type StatementWorker struct {
	exporter StatementExporter
	interval time.Duration
}

// NewStatementWorker creates a new StatementWorker. A non-positive interval
// is replaced with DefaultStatementInterval.
func NewStatementWorker(exporter StatementExporter, interval time.Duration) *StatementWorker {
	if interval <= 0 {
		slog.Warn("StatementWorker: non-positive interval, using default", "interval", interval, "default", DefaultStatementInterval)
		interval = DefaultStatementInterval
	}
	return &StatementWorker{
		exporter: exporter,
		interval: interval,
	}
}

// Run starts the statement worker loop. It blocks until the context is cancelled.
func (w *StatementWorker) Run(ctx context.Context) {
	slog.Info("StatementWorker: starting", "interval", w.interval)

	// Export immediately on startup
	w.export(ctx, "initial export")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("StatementWorker: shutting down")
			return
		case <-ticker.C:
			w.export(ctx, "export")
		}
	}
}

func (w *StatementWorker) export(ctx context.Context, what string) {
	start := time.Now()
	if err := w.exporter.Export(ctx); err != nil {
		slog.Error("StatementWorker: "+what+" failed", "error", err)
		return
	}
	slog.Info("StatementWorker: "+what+" completed", "duration", time.Since(start))
}
