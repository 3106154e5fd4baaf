package models

// PaymentStatus is the tagged state of a payment record.
//
// Transitions: pending → payer_confirmed → settled. A payer-confirmed
// payment is immutable except for the receipt fields.
type PaymentStatus string

const (
	// PaymentPending is a recorded contribution attempt the payer has
	// not confirmed yet.
	PaymentPending PaymentStatus = "pending"

	// PaymentPayerConfirmed means the payer confirmed the contribution.
	// Confirmation alone moves no money.
	PaymentPayerConfirmed PaymentStatus = "payer_confirmed"

	// PaymentSettled means the round's recipient acknowledged receipt.
	PaymentSettled PaymentStatus = "settled"
)

// Payment represents one member's contribution for one round. There is
// at most one payment per (group, round, payer), enforced by the store.
type Payment struct {
	// ID is the unique identifier for the payment (UUID format).
	ID string

	// GroupID is the group the payment belongs to.
	GroupID string

	// RoundID is the round the payment belongs to.
	RoundID string

	// PayerID is the contributing member.
	PayerID string

	// Amount is the contribution amount; must equal the group's
	// configured contribution when confirmed.
	Amount float64

	// Status is the payment's position in the state machine.
	Status PaymentStatus

	// PaidAt is the Unix timestamp of payer confirmation (0 if pending).
	PaidAt int64

	// ReceiptAt is the Unix timestamp of recipient confirmation
	// (0 until settled).
	ReceiptAt int64
}

// PayerConfirmed reports whether the payer has confirmed the payment.
func (p *Payment) PayerConfirmed() bool {
	return p.Status == PaymentPayerConfirmed || p.Status == PaymentSettled
}

// Settled reports whether the recipient has acknowledged receipt.
func (p *Payment) Settled() bool {
	return p.Status == PaymentSettled
}
