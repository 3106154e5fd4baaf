// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"

	"ajopot/internal/models"
)

// Store defines the persistence interface for the circle engine.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL,
// etc.) without changing the service layer.
//
// Reads outside a transaction may observe a slightly stale view; every
// multi-step mutation goes through RunInTx.
type Store interface {
	// Users.
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// Groups and membership. GetGroup accepts a legacy numeric id and
	// falls back to its derived UUID.
	CreateGroup(ctx context.Context, group *models.Group) error
	GetGroup(ctx context.Context, id string) (*models.Group, error)
	GetGroupByInviteCode(ctx context.Context, code string) (*models.Group, error)
	AddGroupMember(ctx context.Context, groupID, userID string) error
	ListGroupMembers(ctx context.Context, groupID string) ([]models.Membership, error)
	IsGroupMember(ctx context.Context, groupID, userID string) (bool, error)

	// Rounds and payments, read-only snapshots.
	GetRound(ctx context.Context, id string) (*models.Round, error)
	ListRounds(ctx context.Context, groupID string) ([]*models.Round, error)
	CountRounds(ctx context.Context, groupID string) (int, error)
	ListRoundPayments(ctx context.Context, groupID, roundID string) ([]*models.Payment, error)

	// Wallets, read-only snapshots.
	GetWallet(ctx context.Context, groupID, memberID string) (*models.Wallet, error)
	ListGroupWallets(ctx context.Context, groupID string) ([]*models.Wallet, error)

	// RunInTx executes fn inside a single write transaction. The
	// transaction is committed if fn returns nil and rolled back
	// otherwise; there is no partial commit.
	RunInTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any resources held by the store.
	Close() error
}

// Tx is the set of operations available inside a write transaction.
// All round-completion logic runs here so that the receipt write, the
// completion check, the wallet credit and the next-round insert commit
// or fail together.
type Tx interface {
	GetGroup(ctx context.Context, id string) (*models.Group, error)
	MarkGroupStarted(ctx context.Context, groupID string) error

	CountRounds(ctx context.Context, groupID string) (int, error)
	GetRound(ctx context.Context, id string) (*models.Round, error)
	CreateRound(ctx context.Context, round *models.Round) error
	MarkRoundCompleted(ctx context.Context, roundID string) error
	MarkRoundAcked(ctx context.Context, roundID string) error

	GetPayment(ctx context.Context, id string) (*models.Payment, error)
	GetPaymentByPayer(ctx context.Context, groupID, roundID, payerID string) (*models.Payment, error)
	CreatePayment(ctx context.Context, payment *models.Payment) error
	UpdatePayment(ctx context.Context, payment *models.Payment) error
	ListRoundPayments(ctx context.Context, groupID, roundID string) ([]*models.Payment, error)

	// EnsureWallet creates the (group, member) wallet row with zero
	// balance if it does not exist, then returns it.
	EnsureWallet(ctx context.Context, groupID, memberID string) (*models.Wallet, error)
	CreditWallet(ctx context.Context, groupID, memberID string, amount float64) error
	DebitWallet(ctx context.Context, groupID, memberID string, amount float64) error
	SetWalletProviderAccount(ctx context.Context, groupID, memberID, account string) error
}
