package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/samber/lo"

	"github.com/mtlprog/xcurrency/internal/account"
	"github.com/mtlprog/xcurrency/internal/adapter"
	"github.com/mtlprog/xcurrency/internal/asset"
	"github.com/mtlprog/xcurrency/internal/ledger"
)

// Transactor moves assets in and out of the ledger.
type Transactor interface {
	DepositAsset(ctx context.Context, d asset.Descriptor, location asset.Location) error
	WithdrawAsset(ctx context.Context, d asset.Descriptor, location asset.Location) (asset.Descriptor, error)
}

// HoldingsSource lists non-zero balances.
type HoldingsSource interface {
	Holdings(ctx context.Context) ([]ledger.Holding, error)
}

// Handler provides HTTP endpoints for asset transfers and balances.
type Handler struct {
	transfers Transactor
	holdings  HoldingsSource
	maxBody   int64
}

// NewHandler creates a new API handler. Request bodies larger than maxBody
// bytes are rejected.
func NewHandler(transfers Transactor, holdings HoldingsSource, maxBody int64) *Handler {
	return &Handler{transfers: transfers, holdings: holdings, maxBody: maxBody}
}

type transferRequest struct {
	Asset    asset.Descriptor `json:"asset"`
	Location asset.Location   `json:"location"`
}

// Deposit handles POST /api/v1/deposits.
func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeTransfer(w, r)
	if !ok {
		return
	}
	if err := h.transfers.DepositAsset(r.Context(), req.Asset, req.Location); err != nil {
		writeTransferError(w, "deposit", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deposited"})
}

// Withdraw handles POST /api/v1/withdrawals.
func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeTransfer(w, r)
	if !ok {
		return
	}
	out, err := h.transfers.WithdrawAsset(r.Context(), req.Asset, req.Location)
	if err != nil {
		writeTransferError(w, "withdraw", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// GetBalances handles GET /api/v1/balances/{account}.
func (h *Handler) GetBalances(w http.ResponseWriter, r *http.Request) {
	who, err := account.ParseID(r.PathValue("account"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid account")
		return
	}

	all, err := h.holdings.Holdings(r.Context())
	if err != nil {
		slog.Error("failed to list holdings", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, lo.Filter(all, func(hd ledger.Holding, _ int) bool {
		return hd.Account == who
	}))
}

// ListHoldings handles GET /api/v1/holdings.
func (h *Handler) ListHoldings(w http.ResponseWriter, r *http.Request) {
	all, err := h.holdings.Holdings(r.Context())
	if err != nil {
		slog.Error("failed to list holdings", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if all == nil {
		all = []ledger.Holding{}
	}
	writeJSON(w, http.StatusOK, all)
}

func (h *Handler) decodeTransfer(w http.ResponseWriter, r *http.Request) (transferRequest, bool) {
	var req transferRequest
	if h.maxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return req, false
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return req, false
	}
	if err := req.Asset.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return req, false
	}
	return req, true
}

func writeTransferError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, adapter.ErrFailedToTransactAsset) {
		slog.Info("transfer rejected", "op", op, "stage", adapter.StageOf(err))
		writeError(w, http.StatusUnprocessableEntity, adapter.ErrFailedToTransactAsset.Error())
		return
	}
	slog.Error("transfer failed", "op", op, "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to marshal JSON response", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		slog.Warn("failed to write HTTP response body", "error", err)
		return
	}
	_, _ = w.Write([]byte("\n"))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
