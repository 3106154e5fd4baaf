package api

import (
	"net/http"

	"ajopot/internal/middleware"
)

type startCycleRequest struct {
	GroupID string   `json:"group_id"`
	Order   []string `json:"order"`
}

type previewResponse struct {
	Order         []string `json:"order"`
	PayoutAmount  float64  `json:"payout_amount"`
	TotalRounds   int      `json:"total_rounds"`
	LastStartDate int64    `json:"last_start_date"`
}

func (s *Server) handleStartCycle(w http.ResponseWriter, r *http.Request) {
	var req startCycleRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	callerUID := middleware.GetUserID(r.Context())
	round, err := s.cycles.StartCycle(r.Context(), req.GroupID, callerUID, req.Order)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toRoundView(round))
}

func (s *Server) handlePreviewCycle(w http.ResponseWriter, r *http.Request) {
	callerUID := middleware.GetUserID(r.Context())
	preview, err := s.cycles.PreviewStart(r.Context(), r.URL.Query().Get("group_id"), callerUID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, previewResponse{
		Order:         preview.Order,
		PayoutAmount:  preview.PayoutAmount,
		TotalRounds:   preview.TotalRounds,
		LastStartDate: preview.LastStartDate,
	})
}

func (s *Server) handleCycleSummaries(w http.ResponseWriter, r *http.Request) {
	callerUID := middleware.GetUserID(r.Context())
	summaries, err := s.ledgers.CycleSummaries(r.Context(), r.URL.Query().Get("group_id"), callerUID)
	if err != nil {
		writeError(w, err)
		return
	}

	views := make([]summaryView, len(summaries))
	for i, sum := range summaries {
		views[i] = summaryView{
			RoundID:      sum.RoundID,
			CycleNumber:  sum.CycleNumber,
			StartDate:    sum.StartDate,
			Completed:    sum.Completed,
			RecipientID:  sum.RecipientID,
			TotalPayers:  sum.TotalPayers,
			PaidCount:    sum.PaidCount,
			ReceiptCount: sum.ReceiptCount,
		}
	}
	writeJSON(w, http.StatusOK, views)
}
