// Package gateway wraps the external card-payment/payout provider. The
// provider is opaque: the core creates accounts and transfers, reads
// their terminal status, and surfaces every failure as BadGateway
// without retrying. Retry policy belongs to the caller.
package gateway

import "context"

// Account is an external provider account holding a member's funds
// outside the circle.
type Account struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Transfer is a provider-side money movement to a destination account.
type Transfer struct {
	ID          string  `json:"id"`
	Amount      float64 `json:"amount"`
	Destination string  `json:"destination"`
	Status      string  `json:"status"`
}

// Gateway is the provider contract consumed by the wallet service.
type Gateway interface {
	// CreateAccount provisions a provider account for a member.
	CreateAccount(ctx context.Context, ownerUID string) (*Account, error)

	// CreateTransfer moves amount to the destination account.
	CreateTransfer(ctx context.Context, amount float64, destination string) (*Transfer, error)

	// RetrieveAccount fetches a provider account by its reference.
	RetrieveAccount(ctx context.Context, id string) (*Account, error)
}
