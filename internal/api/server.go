package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"
)

// NewServer creates an HTTP server with all routes configured. metrics may be
// nil, in which case /metrics is not served.
func NewServer(port string, handler *Handler, metrics http.Handler, adminAPIKey string) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/balances/{account}", handler.GetBalances)
	mux.HandleFunc("GET /api/v1/holdings", handler.ListHoldings)

	deposit := http.Handler(http.HandlerFunc(handler.Deposit))
	withdraw := http.Handler(http.HandlerFunc(handler.Withdraw))
	if adminAPIKey != "" {
		deposit = requireAuth(adminAPIKey, deposit)
		withdraw = requireAuth(adminAPIKey, withdraw)
	}
	mux.Handle("POST /api/v1/deposits", deposit)
	mux.Handle("POST /api/v1/withdrawals", withdraw)

	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}

	return &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func requireAuth(apiKey string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		token := strings.TrimPrefix(auth, "Bearer ")
		if !strings.HasPrefix(auth, "Bearer ") || subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1 {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}
