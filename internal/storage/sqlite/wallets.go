package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"ajopot/internal/apperr"
	"ajopot/internal/models"
)

const walletColumns = "SELECT group_id, member_id, balance, provider_account, updated_at FROM wallets"

// GetWallet retrieves the wallet for one (group, member) pair.
func (s *SQLiteStore) GetWallet(ctx context.Context, groupID, memberID string) (*models.Wallet, error) {
	wallet, err := scanWallet(s.db.QueryRowContext(ctx,
		walletColumns+" WHERE group_id = ? AND member_id = ?", groupID, memberID,
	))
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("wallet not found for member %s in group %s", memberID, groupID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return wallet, nil
}

// ListGroupWallets returns every wallet of a group ordered by member.
func (s *SQLiteStore) ListGroupWallets(ctx context.Context, groupID string) ([]*models.Wallet, error) {
	rows, err := s.db.QueryContext(ctx,
		walletColumns+" WHERE group_id = ? ORDER BY member_id", groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list wallets: %w", err)
	}
	defer rows.Close()

	var wallets []*models.Wallet
	for rows.Next() {
		wallet := &models.Wallet{}
		var account sql.NullString
		if err := rows.Scan(&wallet.GroupID, &wallet.MemberID, &wallet.Balance, &account, &wallet.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan wallet: %w", err)
		}
		if account.Valid {
			wallet.ProviderAccount = account.String
		}
		wallets = append(wallets, wallet)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate wallets: %w", err)
	}
	return wallets, nil
}

// EnsureWallet creates the wallet row with zero balance if missing and
// returns it. The insert is a no-op when a concurrent creator got there
// first, so no duplicate row can exist.
func (t *sqliteTx) EnsureWallet(ctx context.Context, groupID, memberID string) (*models.Wallet, error) {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO wallets (group_id, member_id, balance, updated_at) VALUES (?, ?, 0, ?)
		 ON CONFLICT (group_id, member_id) DO NOTHING`,
		groupID, memberID, time.Now().Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure wallet: %w", err)
	}

	wallet, err := scanWallet(t.tx.QueryRowContext(ctx,
		walletColumns+" WHERE group_id = ? AND member_id = ?", groupID, memberID,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to read wallet: %w", err)
	}
	return wallet, nil
}

// CreditWallet adds amount to the wallet balance.
func (t *sqliteTx) CreditWallet(ctx context.Context, groupID, memberID string, amount float64) error {
	res, err := t.tx.ExecContext(ctx,
		"UPDATE wallets SET balance = balance + ?, updated_at = ? WHERE group_id = ? AND member_id = ?",
		amount, time.Now().Unix(), groupID, memberID,
	)
	if err != nil {
		return fmt.Errorf("failed to credit wallet: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperr.NotFound("wallet not found for member %s in group %s", memberID, groupID)
	}
	return nil
}

// DebitWallet subtracts amount from the wallet balance. The balance
// guard in the WHERE clause keeps the invariant even if the caller's
// earlier funds check raced.
func (t *sqliteTx) DebitWallet(ctx context.Context, groupID, memberID string, amount float64) error {
	res, err := t.tx.ExecContext(ctx,
		"UPDATE wallets SET balance = balance - ?, updated_at = ? WHERE group_id = ? AND member_id = ? AND balance >= ?",
		amount, time.Now().Unix(), groupID, memberID, amount,
	)
	if err != nil {
		return fmt.Errorf("failed to debit wallet: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperr.BadRequest("insufficient funds")
	}
	return nil
}

// SetWalletProviderAccount stores the external provider account
// reference for a wallet.
func (t *sqliteTx) SetWalletProviderAccount(ctx context.Context, groupID, memberID, account string) error {
	res, err := t.tx.ExecContext(ctx,
		"UPDATE wallets SET provider_account = ?, updated_at = ? WHERE group_id = ? AND member_id = ?",
		account, time.Now().Unix(), groupID, memberID,
	)
	if err != nil {
		return fmt.Errorf("failed to set provider account: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperr.NotFound("wallet not found for member %s in group %s", memberID, groupID)
	}
	return nil
}

func scanWallet(row *sql.Row) (*models.Wallet, error) {
	wallet := &models.Wallet{}
	var account sql.NullString
	err := row.Scan(&wallet.GroupID, &wallet.MemberID, &wallet.Balance, &account, &wallet.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if account.Valid {
		wallet.ProviderAccount = account.String
	}
	return wallet, nil
}
