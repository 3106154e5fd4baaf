// Package ledger tracks the contribution lifecycle of each round:
// payer confirmation, recipient receipt, completion detection and
// settlement. One payment exists per (group, round, payer); repeated
// confirmations are idempotent.
package ledger

import (
	"context"
	"log/slog"
	"time"

	"ajopot/internal/apperr"
	"ajopot/internal/cycle"
	"ajopot/internal/events"
	"ajopot/internal/membership"
	"ajopot/internal/models"
	"ajopot/internal/storage"
	"ajopot/internal/wallet"
)

// Service is the payment ledger.
type Service struct {
	store   storage.Store
	members membership.Provider
	wallets *wallet.Service
	cycles  *cycle.Manager
	events  events.Publisher
}

// NewService creates a payment ledger.
func NewService(store storage.Store, members membership.Provider, wallets *wallet.Service, cycles *cycle.Manager, publisher events.Publisher) *Service {
	return &Service{
		store:   store,
		members: members,
		wallets: wallets,
		cycles:  cycles,
		events:  publisher,
	}
}

// Receipt is the state returned after a receipt confirmation: the
// round (possibly just completed), its payments, and the group's
// wallet balances.
type Receipt struct {
	Round    *models.Round
	Payments []*models.Payment
	Wallets  []*models.Wallet
}

// ConfirmPayment records or confirms the payer's contribution for a
// round. The caller must be the payer; the recipient never pays their
// own round; the amount must equal the group's configured contribution.
// Confirmation alone moves no money.
func (s *Service) ConfirmPayment(ctx context.Context, groupID, roundID, payerUID string, amount float64, callerUID string) (*models.Payment, error) {
	if callerUID != payerUID {
		return nil, apperr.Forbidden("only the payer can confirm their payment")
	}

	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	isMember, err := s.members.IsMember(ctx, group.ID, payerUID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, apperr.Forbidden("payer is not a member of the group")
	}

	var payment *models.Payment
	err = s.store.RunInTx(ctx, func(tx storage.Tx) error {
		round, err := tx.GetRound(ctx, roundID)
		if err != nil {
			return err
		}
		if round.GroupID != group.ID {
			return apperr.BadRequest("round %s does not belong to group %s", roundID, groupID)
		}
		if payerUID == round.RecipientID {
			return apperr.BadRequest("the recipient does not pay in their own round")
		}
		if amount != group.Contribution {
			return apperr.BadRequest("amount %.2f does not match the group contribution %.2f", amount, group.Contribution)
		}

		existing, err := tx.GetPaymentByPayer(ctx, group.ID, round.ID, payerUID)
		switch {
		case err == nil && existing.PayerConfirmed():
			// Idempotent repeat: the record is immutable once confirmed.
			payment = existing
			return nil
		case err == nil:
			existing.Amount = amount
			existing.Status = models.PaymentPayerConfirmed
			existing.PaidAt = time.Now().Unix()
			if err := tx.UpdatePayment(ctx, existing); err != nil {
				return err
			}
			payment = existing
			return nil
		case apperr.Is(err, apperr.KindNotFound):
			payment = &models.Payment{
				GroupID: group.ID,
				RoundID: round.ID,
				PayerID: payerUID,
				Amount:  amount,
				Status:  models.PaymentPayerConfirmed,
				PaidAt:  time.Now().Unix(),
			}
			return tx.CreatePayment(ctx, payment)
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}

	if err := s.events.PaymentConfirmed(ctx, &events.PaymentConfirmedMessage{
		GroupID:   group.ID,
		RoundID:   payment.RoundID,
		PaymentID: payment.ID,
		PayerID:   payerUID,
		Timestamp: time.Now(),
	}); err != nil {
		slog.Warn("Failed to publish payment event", "payment_id", payment.ID, "error", err)
	}

	return payment, nil
}

// ConfirmReceipt marks payments of a round as received by the round's
// recipient. When paymentID is empty, every payer-confirmed payment in
// the round is acknowledged at once.
//
// Completion is evaluated in the same transaction as the receipt write:
// when every non-recipient member of the round's frozen order holds a
// settled payment, the pool is credited to the recipient, the round is
// marked completed, and the next round is created. Calling this again
// after completion returns current state without touching balances.
func (s *Service) ConfirmReceipt(ctx context.Context, groupID, roundID, paymentID, callerUID string) (*Receipt, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	current, err := s.store.GetRound(ctx, roundID)
	if err != nil {
		return nil, err
	}
	if current.GroupID != group.ID {
		return nil, apperr.BadRequest("round %s does not belong to group %s", roundID, groupID)
	}
	if callerUID != current.RecipientID {
		return nil, apperr.Forbidden("only the round's recipient can confirm receipt")
	}

	// Wallet lock first, transaction second, in that order everywhere.
	release := s.wallets.Hold(group.ID, current.RecipientID)
	defer release()

	var (
		completedNow bool
		payout       float64
		nextRoundID  string
	)
	err = s.store.RunInTx(ctx, func(tx storage.Tx) error {
		round, err := tx.GetRound(ctx, current.ID)
		if err != nil {
			return err
		}

		targets, err := s.receiptTargets(ctx, tx, group, round, paymentID)
		if err != nil {
			return err
		}

		now := time.Now().Unix()
		acked := false
		for _, p := range targets {
			if p.Settled() {
				continue
			}
			p.Status = models.PaymentSettled
			p.ReceiptAt = now
			if err := tx.UpdatePayment(ctx, p); err != nil {
				return err
			}
			acked = true
		}
		if acked && !round.RecipientAcked {
			if err := tx.MarkRoundAcked(ctx, round.ID); err != nil {
				return err
			}
		}

		if round.Completed {
			// Idempotent no-op with respect to balances.
			return nil
		}

		// Recompute completion from stored state rather than keeping a
		// counter; the aggregate cannot drift.
		payments, err := tx.ListRoundPayments(ctx, group.ID, round.ID)
		if err != nil {
			return err
		}
		if !roundComplete(round, payments) {
			return nil
		}

		if err := s.wallets.Transfer(ctx, tx, round, payments); err != nil {
			return err
		}
		next, err := s.cycles.CompleteAndRoll(ctx, tx, group, round)
		if err != nil {
			return err
		}

		completedNow = true
		payout = cycle.PayoutAmount(group.Contribution, len(round.MemberOrder))
		if next != nil {
			nextRoundID = next.ID
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if completedNow {
		slog.Info("Round completed",
			"group_id", group.ID,
			"round_id", current.ID,
			"recipient", current.RecipientID,
			"payout", payout,
			"next_round_id", nextRoundID,
		)
		if err := s.events.RoundCompleted(ctx, &events.RoundCompletedMessage{
			GroupID:     group.ID,
			RoundID:     current.ID,
			RecipientID: current.RecipientID,
			Payout:      payout,
			NextRoundID: nextRoundID,
			Timestamp:   time.Now(),
		}); err != nil {
			slog.Warn("Failed to publish round event", "round_id", current.ID, "error", err)
		}
	}

	return s.snapshot(ctx, group.ID, current.ID)
}

// receiptTargets resolves which payments a receipt confirmation covers:
// the identified payment, or every payer-confirmed payment of the round.
func (s *Service) receiptTargets(ctx context.Context, tx storage.Tx, group *models.Group, round *models.Round, paymentID string) ([]*models.Payment, error) {
	if paymentID == "" {
		payments, err := tx.ListRoundPayments(ctx, group.ID, round.ID)
		if err != nil {
			return nil, err
		}
		confirmed := payments[:0]
		for _, p := range payments {
			if p.PayerConfirmed() {
				confirmed = append(confirmed, p)
			}
		}
		return confirmed, nil
	}

	p, err := tx.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if p.GroupID != group.ID || p.RoundID != round.ID {
		return nil, apperr.BadRequest("payment %s does not belong to this round", paymentID)
	}
	if p.PayerID == round.RecipientID {
		return nil, apperr.BadRequest("the recipient has no payment to acknowledge")
	}
	if !p.PayerConfirmed() {
		return nil, apperr.BadRequest("payment %s has not been confirmed by the payer", paymentID)
	}
	return []*models.Payment{p}, nil
}

// roundComplete reports whether every non-recipient member of the
// round's frozen order holds a settled payment.
func roundComplete(round *models.Round, payments []*models.Payment) bool {
	settled := make(map[string]bool, len(payments))
	for _, p := range payments {
		if p.Settled() {
			settled[p.PayerID] = true
		}
	}
	for _, member := range round.MemberOrder {
		if member == round.RecipientID {
			continue
		}
		if !settled[member] {
			return false
		}
	}
	return true
}

func (s *Service) snapshot(ctx context.Context, groupID, roundID string) (*Receipt, error) {
	round, err := s.store.GetRound(ctx, roundID)
	if err != nil {
		return nil, err
	}
	payments, err := s.store.ListRoundPayments(ctx, groupID, roundID)
	if err != nil {
		return nil, err
	}
	wallets, err := s.store.ListGroupWallets(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return &Receipt{Round: round, Payments: payments, Wallets: wallets}, nil
}

// GetPayments returns the round's payment records, filtered by role:
// the owner and the current recipient see all records, any other member
// sees only their own, and unknown callers see nothing.
func (s *Service) GetPayments(ctx context.Context, groupID, roundID, callerUID string) ([]*models.Payment, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	round, err := s.store.GetRound(ctx, roundID)
	if err != nil {
		return nil, err
	}
	if round.GroupID != group.ID {
		return nil, apperr.BadRequest("round %s does not belong to group %s", roundID, groupID)
	}

	isMember, err := s.members.IsMember(ctx, group.ID, callerUID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return []*models.Payment{}, nil
	}

	payments, err := s.store.ListRoundPayments(ctx, group.ID, round.ID)
	if err != nil {
		return nil, err
	}
	if callerUID == group.OwnerID || callerUID == round.RecipientID {
		return payments, nil
	}

	own := payments[:0]
	for _, p := range payments {
		if p.PayerID == callerUID {
			own = append(own, p)
		}
	}
	return own, nil
}

// CycleSummaries returns per-round progress for the owner. The
// recipient is excluded from the payer denominator.
func (s *Service) CycleSummaries(ctx context.Context, groupID, callerUID string) ([]models.CycleSummary, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group.OwnerID != callerUID {
		return nil, apperr.Forbidden("only the group owner can view cycle summaries")
	}

	rounds, err := s.store.ListRounds(ctx, group.ID)
	if err != nil {
		return nil, err
	}

	summaries := make([]models.CycleSummary, 0, len(rounds))
	for _, round := range rounds {
		payments, err := s.store.ListRoundPayments(ctx, group.ID, round.ID)
		if err != nil {
			return nil, err
		}
		paid, received := 0, 0
		for _, p := range payments {
			if p.PayerConfirmed() {
				paid++
			}
			if p.Settled() {
				received++
			}
		}
		summaries = append(summaries, models.CycleSummary{
			RoundID:      round.ID,
			CycleNumber:  round.CycleNumber,
			StartDate:    round.StartDate,
			Completed:    round.Completed,
			RecipientID:  round.RecipientID,
			TotalPayers:  len(round.MemberOrder) - 1,
			PaidCount:    paid,
			ReceiptCount: received,
		})
	}
	return summaries, nil
}
