package models

// Interval is the recurrence of a group's rounds.
type Interval string

const (
	IntervalWeekly  Interval = "weekly"
	IntervalMonthly Interval = "monthly"
)

// Valid reports whether the interval is a known value.
func (i Interval) Valid() bool {
	return i == IntervalWeekly || i == IntervalMonthly
}

// Group represents a savings circle: a fixed set of members who each
// contribute the same amount per round, with one member receiving the
// pooled total per round.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the circle (e.g., "Office Ajo").
	Name string

	// OwnerID is the user who created the group and controls the cycle.
	OwnerID string

	// Contribution is the fixed amount each payer contributes per round.
	Contribution float64

	// Interval is how often a new round starts (weekly or monthly).
	Interval Interval

	// MaxMembers bounds the member set size.
	MaxMembers int

	// InviteCode is the code new members use to join before the cycle starts.
	InviteCode string

	// Started is set when round 1 is created. Once set, the member set,
	// contribution and interval are frozen.
	Started bool

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64
}

// Membership links a user to a group. Members are ordered by join time,
// which is distinct from the payout order fixed at cycle start.
type Membership struct {
	GroupID  string
	UserID   string
	JoinedAt int64
}
