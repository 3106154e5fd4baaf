// Package api exposes the circle engine over a JSON HTTP surface.
// Handlers stay thin: decode, pull the caller from the request context,
// call a service, encode.
package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ajopot/internal/auth"
	"ajopot/internal/cycle"
	"ajopot/internal/ledger"
	"ajopot/internal/middleware"
	"ajopot/internal/service"
	"ajopot/internal/wallet"
)

// Server wires the HTTP surface to the services.
type Server struct {
	auths   *service.AuthService
	groups  *service.GroupService
	cycles  *cycle.Manager
	ledgers *ledger.Service
	wallets *wallet.Service
	jwt     *auth.JWTManager
}

// NewServer creates the API server.
func NewServer(
	auths *service.AuthService,
	groups *service.GroupService,
	cycles *cycle.Manager,
	ledgers *ledger.Service,
	wallets *wallet.Service,
	jwt *auth.JWTManager,
) *Server {
	return &Server{
		auths:   auths,
		groups:  groups,
		cycles:  cycles,
		ledgers: ledgers,
		wallets: wallets,
		jwt:     jwt,
	}
}

// Handler builds the routed, middleware-wrapped handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)

	authed := middleware.RequireAuth(s.jwt)
	mux.Handle("POST /api/groups", authed(http.HandlerFunc(s.handleCreateGroup)))
	mux.Handle("POST /api/groups/join", authed(http.HandlerFunc(s.handleJoinGroup)))
	mux.Handle("GET /api/groups/{id}", authed(http.HandlerFunc(s.handleGetGroup)))

	mux.Handle("POST /api/cycles/start", authed(http.HandlerFunc(s.handleStartCycle)))
	mux.Handle("GET /api/cycles/preview", authed(http.HandlerFunc(s.handlePreviewCycle)))
	mux.Handle("GET /api/cycles/summaries", authed(http.HandlerFunc(s.handleCycleSummaries)))

	mux.Handle("POST /api/payments/confirm", authed(http.HandlerFunc(s.handleConfirmPayment)))
	mux.Handle("POST /api/payments/receipt", authed(http.HandlerFunc(s.handleConfirmReceipt)))
	mux.Handle("GET /api/payments", authed(http.HandlerFunc(s.handleGetPayments)))

	mux.Handle("POST /api/wallets/topup", authed(http.HandlerFunc(s.handleTopUp)))
	mux.Handle("POST /api/wallets/withdraw", authed(http.HandlerFunc(s.handleWithdraw)))
	mux.Handle("GET /api/wallets", authed(http.HandlerFunc(s.handleGetWallets)))

	return middleware.Logging(middleware.Metrics(corsMiddleware(mux)))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// corsMiddleware adds CORS headers for browser access.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
