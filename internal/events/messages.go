package events

import (
	"encoding/json"
	"time"
)

// PaymentConfirmedMessage announces a payer-confirmed contribution.
// Consumers fetch full records from the API; the message carries keys
// only.
type PaymentConfirmedMessage struct {
	GroupID   string    `json:"group_id"`
	RoundID   string    `json:"round_id"`
	PaymentID string    `json:"payment_id"`
	PayerID   string    `json:"payer_id"`
	Timestamp time.Time `json:"timestamp"`
}

// RoundCompletedMessage announces that a round settled and, when the
// cycle continues, which round follows.
type RoundCompletedMessage struct {
	GroupID     string    `json:"group_id"`
	RoundID     string    `json:"round_id"`
	RecipientID string    `json:"recipient_id"`
	Payout      float64   `json:"payout"`
	NextRoundID string    `json:"next_round_id,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

func (m *PaymentConfirmedMessage) toJSON() ([]byte, error) {
	return json.Marshal(m)
}

func (m *RoundCompletedMessage) toJSON() ([]byte, error) {
	return json.Marshal(m)
}
