package api

import (
	"net/http"

	"ajopot/internal/middleware"
	"ajopot/internal/models"
)

type walletAdjustRequest struct {
	GroupID string  `json:"group_id"`
	Amount  float64 `json:"amount"`
}

func (s *Server) handleTopUp(w http.ResponseWriter, r *http.Request) {
	s.handleAdjust(w, r, false)
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	s.handleAdjust(w, r, true)
}

func (s *Server) handleAdjust(w http.ResponseWriter, r *http.Request, withdraw bool) {
	var req walletAdjustRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	callerUID := middleware.GetUserID(r.Context())
	var (
		updated *models.Wallet
		err     error
	)
	if withdraw {
		updated, err = s.wallets.Withdraw(r.Context(), req.GroupID, callerUID, req.Amount)
	} else {
		updated, err = s.wallets.TopUp(r.Context(), req.GroupID, callerUID, req.Amount)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toWalletViews([]*models.Wallet{updated})[0])
}

func (s *Server) handleGetWallets(w http.ResponseWriter, r *http.Request) {
	callerUID := middleware.GetUserID(r.Context())
	wallets, err := s.wallets.Snapshot(r.Context(), r.URL.Query().Get("group_id"), callerUID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toWalletViews(wallets))
}
