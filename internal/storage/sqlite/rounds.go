package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ajopot/internal/apperr"
	"ajopot/internal/models"
)

const roundColumns = "SELECT id, group_id, cycle_number, start_date, member_order, recipient_id, completed, recipient_acked, created_at FROM rounds"

// GetRound retrieves a round by ID, with the legacy numeric-id fallback.
func (s *SQLiteStore) GetRound(ctx context.Context, id string) (*models.Round, error) {
	return getRound(ctx, s.db, id)
}

// ListRounds returns all rounds of a group in cycle order.
func (s *SQLiteStore) ListRounds(ctx context.Context, groupID string) ([]*models.Round, error) {
	return listRounds(ctx, s.db, groupID)
}

// CountRounds returns the number of rounds created for a group.
func (s *SQLiteStore) CountRounds(ctx context.Context, groupID string) (int, error) {
	return countRounds(ctx, s.db, groupID)
}

func (t *sqliteTx) CountRounds(ctx context.Context, groupID string) (int, error) {
	return countRounds(ctx, t.tx, groupID)
}

func (t *sqliteTx) GetRound(ctx context.Context, id string) (*models.Round, error) {
	return getRound(ctx, t.tx, id)
}

// CreateRound inserts a new round. The (group, cycle_number) UNIQUE
// constraint rejects a duplicate rollover.
func (t *sqliteTx) CreateRound(ctx context.Context, round *models.Round) error {
	if round.ID == "" {
		round.ID = uuid.New().String()
	}
	if round.CreatedAt == 0 {
		round.CreatedAt = time.Now().Unix()
	}

	order, err := json.Marshal(round.MemberOrder)
	if err != nil {
		return fmt.Errorf("failed to encode member order: %w", err)
	}

	_, err = t.tx.ExecContext(ctx,
		`INSERT INTO rounds (id, group_id, cycle_number, start_date, member_order, recipient_id, completed, recipient_acked, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		round.ID, round.GroupID, round.CycleNumber, round.StartDate, string(order),
		round.RecipientID, boolToInt(round.Completed), boolToInt(round.RecipientAcked), round.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflict("round %d already exists for group %s", round.CycleNumber, round.GroupID)
		}
		return fmt.Errorf("failed to insert round: %w", err)
	}
	return nil
}

// MarkRoundCompleted sets the terminal completed flag.
func (t *sqliteTx) MarkRoundCompleted(ctx context.Context, roundID string) error {
	res, err := t.tx.ExecContext(ctx, "UPDATE rounds SET completed = 1 WHERE id = ?", roundID)
	if err != nil {
		return fmt.Errorf("failed to mark round completed: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperr.NotFound("round not found: %s", roundID)
	}
	return nil
}

// MarkRoundAcked records the recipient's first receipt confirmation.
func (t *sqliteTx) MarkRoundAcked(ctx context.Context, roundID string) error {
	_, err := t.tx.ExecContext(ctx, "UPDATE rounds SET recipient_acked = 1 WHERE id = ?", roundID)
	if err != nil {
		return fmt.Errorf("failed to mark round acked: %w", err)
	}
	return nil
}

func getRound(ctx context.Context, q querier, id string) (*models.Round, error) {
	round, err := scanRound(q.QueryRowContext(ctx, roundColumns+" WHERE id = ?", id))
	if err == sql.ErrNoRows {
		if legacy, ok := legacyUUID("round", id); ok {
			round, err = scanRound(q.QueryRowContext(ctx, roundColumns+" WHERE id = ?", legacy))
		}
	}
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("round not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get round: %w", err)
	}
	return round, nil
}

func listRounds(ctx context.Context, q querier, groupID string) ([]*models.Round, error) {
	rows, err := q.QueryContext(ctx, roundColumns+" WHERE group_id = ? ORDER BY cycle_number", groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rounds: %w", err)
	}
	defer rows.Close()

	var rounds []*models.Round
	for rows.Next() {
		round, err := scanRoundRows(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan round: %w", err)
		}
		rounds = append(rounds, round)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rounds: %w", err)
	}
	return rounds, nil
}

func countRounds(ctx context.Context, q querier, groupID string) (int, error) {
	var n int
	err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM rounds WHERE group_id = ?", groupID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count rounds: %w", err)
	}
	return n, nil
}

func scanRound(row *sql.Row) (*models.Round, error) {
	var round models.Round
	var order string
	var completed, acked int
	err := row.Scan(
		&round.ID, &round.GroupID, &round.CycleNumber, &round.StartDate,
		&order, &round.RecipientID, &completed, &acked, &round.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return decodeRound(&round, order, completed, acked)
}

func scanRoundRows(rows *sql.Rows) (*models.Round, error) {
	var round models.Round
	var order string
	var completed, acked int
	err := rows.Scan(
		&round.ID, &round.GroupID, &round.CycleNumber, &round.StartDate,
		&order, &round.RecipientID, &completed, &acked, &round.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return decodeRound(&round, order, completed, acked)
}

func decodeRound(round *models.Round, order string, completed, acked int) (*models.Round, error) {
	if err := json.Unmarshal([]byte(order), &round.MemberOrder); err != nil {
		return nil, fmt.Errorf("failed to decode member order: %w", err)
	}
	round.Completed = completed != 0
	round.RecipientAcked = acked != 0
	return round, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
