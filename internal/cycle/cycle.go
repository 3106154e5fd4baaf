// Package cycle owns the round lifecycle of a savings circle: starting
// the cycle, previewing it, and rolling a completed round over into the
// next one.
package cycle

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"ajopot/internal/apperr"
	"ajopot/internal/membership"
	"ajopot/internal/models"
	"ajopot/internal/storage"
)

// Manager computes and mutates round state. Round transitions are
// derived purely from confirmed payment state; nothing here is driven
// by a scheduler.
type Manager struct {
	store   storage.Store
	members membership.Provider
}

// NewManager creates a cycle manager.
func NewManager(store storage.Store, members membership.Provider) *Manager {
	return &Manager{store: store, members: members}
}

// Preview describes a cycle before it starts.
type Preview struct {
	Order         []string
	PayoutAmount  float64
	TotalRounds   int
	LastStartDate int64
}

// StartCycle creates round 1 of a group with the given payout order and
// freezes the group. Only the owner may start; a group cycles once.
func (m *Manager) StartCycle(ctx context.Context, groupID, callerUID string, memberOrder []string) (*models.Round, error) {
	group, err := m.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group.OwnerID != callerUID {
		return nil, apperr.Forbidden("only the group owner can start the cycle")
	}

	members, err := m.store.ListGroupMembers(ctx, group.ID)
	if err != nil {
		return nil, err
	}
	memberIDs := make([]string, len(members))
	for i, mm := range members {
		memberIDs[i] = mm.UserID
	}
	if len(memberOrder) < 2 {
		return nil, apperr.BadRequest("a cycle needs at least two members")
	}
	if !IsPermutation(memberOrder, memberIDs) {
		return nil, apperr.BadRequest("payout order must be a permutation of the group's members")
	}

	round := &models.Round{
		ID:          uuid.New().String(),
		GroupID:     group.ID,
		CycleNumber: 1,
		StartDate:   time.Now().Unix(),
		MemberOrder: append([]string(nil), memberOrder...),
		RecipientID: memberOrder[0],
	}

	err = m.store.RunInTx(ctx, func(tx storage.Tx) error {
		// The count and the insert share the transaction, so two
		// concurrent starts cannot both create round 1.
		n, err := tx.CountRounds(ctx, group.ID)
		if err != nil {
			return err
		}
		if n > 0 {
			return apperr.Conflict("cycle already started for group %s", group.ID)
		}
		if err := tx.CreateRound(ctx, round); err != nil {
			return err
		}
		return tx.MarkGroupStarted(ctx, group.ID)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Cycle started",
		"group_id", group.ID,
		"round_id", round.ID,
		"recipient", round.RecipientID,
		"members", len(memberOrder),
	)
	return round, nil
}

// PreviewStart computes the cycle a start would create, without
// persisting anything: the payout order (current members by join time),
// the per-round payout, the number of rounds, and the date the last
// round would start.
func (m *Manager) PreviewStart(ctx context.Context, groupID, callerUID string) (*Preview, error) {
	group, err := m.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	ok, err := m.members.IsMember(ctx, group.ID, callerUID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Forbidden("only members can preview the cycle")
	}

	members, err := m.store.ListGroupMembers(ctx, group.ID)
	if err != nil {
		return nil, err
	}

	order := make([]string, len(members))
	for i, mm := range members {
		order[i] = mm.UserID
	}

	// A started group previews its frozen order instead.
	if group.Started {
		rounds, err := m.store.ListRounds(ctx, group.ID)
		if err != nil {
			return nil, err
		}
		if len(rounds) > 0 {
			order = rounds[0].MemberOrder
		}
	}

	start := time.Now()
	return &Preview{
		Order:         order,
		PayoutAmount:  PayoutAmount(group.Contribution, len(order)),
		TotalRounds:   len(order),
		LastStartDate: LastStart(group.Interval, start, len(order)).Unix(),
	}, nil
}

// CompleteAndRoll marks a round completed and creates its successor
// inside the caller's transaction. It is invoked by the payment ledger
// once it has determined the round is fully settled, in the same
// transaction as the receipt write that settled it.
//
// Returns the next round, or nil when the completed round's recipient
// was last in the order and the cycle is done.
func (m *Manager) CompleteAndRoll(ctx context.Context, tx storage.Tx, group *models.Group, round *models.Round) (*models.Round, error) {
	if round.Completed {
		return nil, nil
	}
	if err := tx.MarkRoundCompleted(ctx, round.ID); err != nil {
		return nil, err
	}
	round.Completed = true

	idx := round.RecipientIndex()
	if idx < 0 {
		return nil, apperr.BadRequest("round recipient %s is not in the payout order", round.RecipientID)
	}
	if idx == len(round.MemberOrder)-1 {
		// Everyone has been paid once; the cycle is finished.
		return nil, nil
	}

	next := &models.Round{
		ID:          uuid.New().String(),
		GroupID:     round.GroupID,
		CycleNumber: round.CycleNumber + 1,
		StartDate:   NextStart(group.Interval, time.Unix(round.StartDate, 0).UTC()).Unix(),
		MemberOrder: append([]string(nil), round.MemberOrder...),
		RecipientID: round.MemberOrder[idx+1],
	}
	if err := tx.CreateRound(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}
