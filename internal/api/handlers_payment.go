package api

import (
	"net/http"

	"ajopot/internal/middleware"
	"ajopot/internal/models"
)

type confirmPaymentRequest struct {
	GroupID string  `json:"group_id"`
	RoundID string  `json:"round_id"`
	PayerID string  `json:"payer_id"`
	Amount  float64 `json:"amount"`
}

type confirmReceiptRequest struct {
	GroupID   string `json:"group_id"`
	RoundID   string `json:"round_id"`
	PaymentID string `json:"payment_id,omitempty"`
}

type receiptResponse struct {
	Round    roundView     `json:"round"`
	Payments []paymentView `json:"payments"`
	Wallets  []walletView  `json:"wallets"`
}

func (s *Server) handleConfirmPayment(w http.ResponseWriter, r *http.Request) {
	var req confirmPaymentRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	callerUID := middleware.GetUserID(r.Context())
	payment, err := s.ledgers.ConfirmPayment(r.Context(), req.GroupID, req.RoundID, req.PayerID, req.Amount, callerUID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPaymentViews([]*models.Payment{payment})[0])
}

func (s *Server) handleConfirmReceipt(w http.ResponseWriter, r *http.Request) {
	var req confirmReceiptRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	callerUID := middleware.GetUserID(r.Context())
	receipt, err := s.ledgers.ConfirmReceipt(r.Context(), req.GroupID, req.RoundID, req.PaymentID, callerUID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, receiptResponse{
		Round:    toRoundView(receipt.Round),
		Payments: toPaymentViews(receipt.Payments),
		Wallets:  toWalletViews(receipt.Wallets),
	})
}

func (s *Server) handleGetPayments(w http.ResponseWriter, r *http.Request) {
	callerUID := middleware.GetUserID(r.Context())
	q := r.URL.Query()
	payments, err := s.ledgers.GetPayments(r.Context(), q.Get("group_id"), q.Get("round_id"), callerUID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPaymentViews(payments))
}
