package models

// Wallet is the balance record for one member within one group. It has
// no independent lifecycle: identity is the (GroupID, MemberID) pair,
// and the row is created lazily on first access.
type Wallet struct {
	// GroupID is the owning group.
	GroupID string

	// MemberID is the owning member.
	MemberID string

	// Balance is the current balance. Non-negative after every
	// successful operation.
	Balance float64

	// ProviderAccount is the external payment-provider account
	// reference, if one has been created.
	ProviderAccount string

	// UpdatedAt is the Unix timestamp of the last balance change.
	UpdatedAt int64
}
