// Package wallet guards per-(group, member) balances. Every mutation
// holds the wallet's exclusive lock for its whole critical section and
// commits atomically; settlement is additionally gated by the round's
// completed flag so it can never run twice.
package wallet

import (
	"context"
	"log/slog"

	"ajopot/internal/apperr"
	"ajopot/internal/gateway"
	"ajopot/internal/membership"
	"ajopot/internal/models"
	"ajopot/internal/storage"
)

// Service mutates wallet balances.
type Service struct {
	store   storage.Store
	members membership.Provider
	gateway gateway.Gateway
	locks   *lockTable
}

// NewService creates a wallet service.
func NewService(store storage.Store, members membership.Provider, gw gateway.Gateway) *Service {
	return &Service{
		store:   store,
		members: members,
		gateway: gw,
		locks:   newLockTable(),
	}
}

// Hold acquires the exclusive locks for the given wallets and returns a
// release function. Callers acquire before opening their transaction;
// the lock order (ascending key) is the same everywhere.
func (s *Service) Hold(groupID string, memberIDs ...string) func() {
	keys := make([]string, len(memberIDs))
	for i, id := range memberIDs {
		keys[i] = key(groupID, id)
	}
	return s.locks.acquire(keys...)
}

// Transfer credits the recipient's wallet with the pooled amount of a
// completing round. It runs inside the ledger's settlement transaction;
// the caller marks the round completed in the same transaction, which
// is what makes re-invocation a no-op. Payers' wallets are untouched:
// their money arrived through the external gateway.
func (s *Service) Transfer(ctx context.Context, tx storage.Tx, round *models.Round, payments []*models.Payment) error {
	var pool float64
	for _, p := range payments {
		if p.PayerConfirmed() {
			pool += p.Amount
		}
	}
	if pool == 0 {
		return nil
	}

	if _, err := tx.EnsureWallet(ctx, round.GroupID, round.RecipientID); err != nil {
		return err
	}
	if err := tx.CreditWallet(ctx, round.GroupID, round.RecipientID, pool); err != nil {
		return err
	}

	slog.Info("Round pool credited",
		"group_id", round.GroupID,
		"round_id", round.ID,
		"recipient", round.RecipientID,
		"amount", pool,
	)
	return nil
}

// TopUp moves funds from the member's provider account into their
// wallet. The gateway call happens under the wallet lock so a racing
// withdraw cannot observe a half-applied balance.
func (s *Service) TopUp(ctx context.Context, groupID, callerUID string, amount float64) (*models.Wallet, error) {
	return s.adjust(ctx, groupID, callerUID, amount, false)
}

// Withdraw moves funds from the wallet back to the member's provider
// account after re-validating sufficient funds.
func (s *Service) Withdraw(ctx context.Context, groupID, callerUID string, amount float64) (*models.Wallet, error) {
	return s.adjust(ctx, groupID, callerUID, amount, true)
}

func (s *Service) adjust(ctx context.Context, groupID, callerUID string, amount float64, withdraw bool) (*models.Wallet, error) {
	if amount <= 0 {
		return nil, apperr.BadRequest("amount must be positive")
	}
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	ok, err := s.members.IsMember(ctx, group.ID, callerUID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Forbidden("caller is not a member of the group")
	}

	release := s.Hold(group.ID, callerUID)
	defer release()

	// Lazily create the wallet and its provider account before touching
	// the balance.
	var w *models.Wallet
	err = s.store.RunInTx(ctx, func(tx storage.Tx) error {
		w, err = tx.EnsureWallet(ctx, group.ID, callerUID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if withdraw && w.Balance < amount {
		return nil, apperr.BadRequest("insufficient funds")
	}

	account := w.ProviderAccount
	if account == "" {
		created, err := s.gateway.CreateAccount(ctx, callerUID)
		if err != nil {
			return nil, err
		}
		account = created.ID
	}

	// The provider moves the actual money; the wallet row mirrors it.
	if _, err := s.gateway.CreateTransfer(ctx, amount, account); err != nil {
		return nil, err
	}

	err = s.store.RunInTx(ctx, func(tx storage.Tx) error {
		if account != w.ProviderAccount {
			if err := tx.SetWalletProviderAccount(ctx, group.ID, callerUID, account); err != nil {
				return err
			}
		}
		if withdraw {
			return tx.DebitWallet(ctx, group.ID, callerUID, amount)
		}
		return tx.CreditWallet(ctx, group.ID, callerUID, amount)
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.store.GetWallet(ctx, group.ID, callerUID)
	if err != nil {
		return nil, err
	}

	op := "top-up"
	if withdraw {
		op = "withdraw"
	}
	slog.Info("Wallet adjusted",
		"op", op,
		"group_id", group.ID,
		"member_id", callerUID,
		"amount", amount,
		"balance", updated.Balance,
	)
	return updated, nil
}

// Snapshot returns the group's wallets: all of them for the owner, the
// caller's own otherwise.
func (s *Service) Snapshot(ctx context.Context, groupID, callerUID string) ([]*models.Wallet, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group.OwnerID == callerUID {
		return s.store.ListGroupWallets(ctx, group.ID)
	}
	ok, err := s.members.IsMember(ctx, group.ID, callerUID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []*models.Wallet{}, nil
	}
	w, err := s.store.GetWallet(ctx, group.ID, callerUID)
	if apperr.Is(err, apperr.KindNotFound) {
		return []*models.Wallet{}, nil
	}
	if err != nil {
		return nil, err
	}
	return []*models.Wallet{w}, nil
}
