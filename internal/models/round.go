package models

// Round represents one payout cycle of a group. Rounds are created when
// the cycle starts (round 1) or when the prior round completes; they are
// mutated only by confirmation events and never deleted.
type Round struct {
	// ID is the unique identifier for the round (UUID format).
	ID string

	// GroupID is the group this round belongs to.
	GroupID string

	// CycleNumber is the 1-based, monotonic round number within the group.
	CycleNumber int

	// StartDate is the Unix timestamp of the round's start. Successor
	// rounds advance it by one group interval from this value.
	StartDate int64

	// MemberOrder is the payout order fixed at round 1 and copied
	// unchanged into every subsequent round of the group.
	MemberOrder []string

	// RecipientID is the member receiving this round's pool. The
	// recipient never pays in their own round.
	RecipientID string

	// Completed is terminal: set once every other member's payment has
	// been receipt-confirmed and the pool has been credited.
	Completed bool

	// RecipientAcked is set on the recipient's first receipt confirmation.
	RecipientAcked bool

	// CreatedAt is the Unix timestamp when the round was created.
	CreatedAt int64
}

// RecipientIndex returns the recipient's position in the payout order,
// or -1 if the recipient is not in the order.
func (r *Round) RecipientIndex() int {
	for i, id := range r.MemberOrder {
		if id == r.RecipientID {
			return i
		}
	}
	return -1
}

// IsLast reports whether this round's recipient is the last in the
// payout order, i.e. no successor round follows.
func (r *Round) IsLast() bool {
	n := len(r.MemberOrder)
	return n > 0 && r.MemberOrder[n-1] == r.RecipientID
}
