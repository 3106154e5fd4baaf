package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ajopot/internal/apperr"
	"ajopot/internal/models"
)

// CreateGroup persists a new group and enrolls the owner as its first
// member.
func (s *SQLiteStore) CreateGroup(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO groups (id, name, owner_id, contribution, interval, max_members, invite_code, started, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?)`,
		group.ID, group.Name, group.OwnerID, group.Contribution, string(group.Interval),
		group.MaxMembers, group.InviteCode, group.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflict("invite code already in use")
		}
		return fmt.Errorf("failed to insert group: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO group_members (group_id, user_id, joined_at) VALUES (?, ?, ?)",
		group.ID, group.OwnerID, group.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert owner membership: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetGroup retrieves a group by ID, falling back to the legacy derived
// UUID when the id is a bare numeric identifier.
func (s *SQLiteStore) GetGroup(ctx context.Context, id string) (*models.Group, error) {
	return getGroup(ctx, s.db, id)
}

// GetGroupByInviteCode retrieves a group by its invite code.
func (s *SQLiteStore) GetGroupByInviteCode(ctx context.Context, code string) (*models.Group, error) {
	group, err := scanGroup(s.db.QueryRowContext(ctx,
		groupColumns+" WHERE invite_code = ?", code,
	))
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("no group for invite code")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group by invite code: %w", err)
	}
	return group, nil
}

// AddGroupMember enrolls a user in a group.
func (s *SQLiteStore) AddGroupMember(ctx context.Context, groupID, userID string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO group_members (group_id, user_id, joined_at) VALUES (?, ?, ?)",
		groupID, userID, time.Now().Unix(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflict("already a member of this group")
		}
		return fmt.Errorf("failed to insert membership: %w", err)
	}
	return nil
}

// ListGroupMembers returns the group's memberships ordered by join time.
func (s *SQLiteStore) ListGroupMembers(ctx context.Context, groupID string) ([]models.Membership, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT group_id, user_id, joined_at FROM group_members WHERE group_id = ? ORDER BY joined_at, user_id",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list group members: %w", err)
	}
	defer rows.Close()

	var members []models.Membership
	for rows.Next() {
		var m models.Membership
		if err := rows.Scan(&m.GroupID, &m.UserID, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate memberships: %w", err)
	}
	return members, nil
}

// IsGroupMember reports whether the user belongs to the group.
func (s *SQLiteStore) IsGroupMember(ctx context.Context, groupID, userID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM group_members WHERE group_id = ? AND user_id = ?",
		groupID, userID,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return true, nil
}

// GetGroup retrieves a group inside a write transaction.
func (t *sqliteTx) GetGroup(ctx context.Context, id string) (*models.Group, error) {
	return getGroup(ctx, t.tx, id)
}

// MarkGroupStarted freezes the group: order, amount and interval are
// immutable once the first round exists.
func (t *sqliteTx) MarkGroupStarted(ctx context.Context, groupID string) error {
	res, err := t.tx.ExecContext(ctx, "UPDATE groups SET started = 1 WHERE id = ?", groupID)
	if err != nil {
		return fmt.Errorf("failed to mark group started: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperr.NotFound("group not found: %s", groupID)
	}
	return nil
}

const groupColumns = "SELECT id, name, owner_id, contribution, interval, max_members, invite_code, started, created_at FROM groups"

func getGroup(ctx context.Context, q querier, id string) (*models.Group, error) {
	group, err := scanGroup(q.QueryRowContext(ctx, groupColumns+" WHERE id = ?", id))
	if err == sql.ErrNoRows {
		// Legacy numeric-id fallback: retry with the derived UUID.
		if legacy, ok := legacyUUID("group", id); ok {
			group, err = scanGroup(q.QueryRowContext(ctx, groupColumns+" WHERE id = ?", legacy))
		}
	}
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("group not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return group, nil
}

func scanGroup(row *sql.Row) (*models.Group, error) {
	group := &models.Group{}
	var interval string
	var started int
	err := row.Scan(
		&group.ID,
		&group.Name,
		&group.OwnerID,
		&group.Contribution,
		&interval,
		&group.MaxMembers,
		&group.InviteCode,
		&started,
		&group.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	group.Interval = models.Interval(interval)
	group.Started = started != 0
	return group, nil
}

// legacyUUID derives the UUID used for rows migrated from the legacy
// numeric-id scheme. It is a secondary lookup path only.
func legacyUUID(kind, id string) (string, bool) {
	if id == "" {
		return "", false
	}
	for _, c := range id {
		if c < '0' || c > '9' {
			return "", false
		}
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(kind+":"+id)).String(), true
}
