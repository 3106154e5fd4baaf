package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"ajopot/internal/apperr"
	"ajopot/internal/models"
)

const paymentColumns = "SELECT id, group_id, round_id, payer_id, amount, status, paid_at, receipt_at FROM payments"

// ListRoundPayments returns every payment recorded for a round.
func (s *SQLiteStore) ListRoundPayments(ctx context.Context, groupID, roundID string) ([]*models.Payment, error) {
	return listRoundPayments(ctx, s.db, groupID, roundID)
}

func (t *sqliteTx) ListRoundPayments(ctx context.Context, groupID, roundID string) ([]*models.Payment, error) {
	return listRoundPayments(ctx, t.tx, groupID, roundID)
}

// GetPayment retrieves a payment by ID, with the legacy numeric-id
// fallback.
func (t *sqliteTx) GetPayment(ctx context.Context, id string) (*models.Payment, error) {
	payment, err := scanPayment(t.tx.QueryRowContext(ctx, paymentColumns+" WHERE id = ?", id))
	if err == sql.ErrNoRows {
		if legacy, ok := legacyUUID("payment", id); ok {
			payment, err = scanPayment(t.tx.QueryRowContext(ctx, paymentColumns+" WHERE id = ?", legacy))
		}
	}
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("payment not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return payment, nil
}

// GetPaymentByPayer retrieves the unique payment for (group, round,
// payer), or a NotFound error if none has been recorded.
func (t *sqliteTx) GetPaymentByPayer(ctx context.Context, groupID, roundID, payerID string) (*models.Payment, error) {
	payment, err := scanPayment(t.tx.QueryRowContext(ctx,
		paymentColumns+" WHERE group_id = ? AND round_id = ? AND payer_id = ?",
		groupID, roundID, payerID,
	))
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("no payment for payer %s in round %s", payerID, roundID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment by payer: %w", err)
	}
	return payment, nil
}

// CreatePayment inserts a new payment. The (group, round, payer) UNIQUE
// constraint is the concurrency guard: a racing second writer fails
// here instead of inserting a duplicate.
func (t *sqliteTx) CreatePayment(ctx context.Context, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.New().String()
	}
	if payment.Status == "" {
		payment.Status = models.PaymentPending
	}

	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO payments (id, group_id, round_id, payer_id, amount, status, paid_at, receipt_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		payment.ID, payment.GroupID, payment.RoundID, payment.PayerID,
		payment.Amount, string(payment.Status), payment.PaidAt, payment.ReceiptAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflict("payment already recorded for payer %s in round %s", payment.PayerID, payment.RoundID)
		}
		return fmt.Errorf("failed to insert payment: %w", err)
	}
	return nil
}

// UpdatePayment rewrites a payment's mutable fields.
func (t *sqliteTx) UpdatePayment(ctx context.Context, payment *models.Payment) error {
	res, err := t.tx.ExecContext(ctx,
		"UPDATE payments SET amount = ?, status = ?, paid_at = ?, receipt_at = ? WHERE id = ?",
		payment.Amount, string(payment.Status), payment.PaidAt, payment.ReceiptAt, payment.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperr.NotFound("payment not found: %s", payment.ID)
	}
	return nil
}

func listRoundPayments(ctx context.Context, q querier, groupID, roundID string) ([]*models.Payment, error) {
	rows, err := q.QueryContext(ctx,
		paymentColumns+" WHERE group_id = ? AND round_id = ? ORDER BY payer_id",
		groupID, roundID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var payments []*models.Payment
	for rows.Next() {
		payment := &models.Payment{}
		var status string
		if err := rows.Scan(
			&payment.ID, &payment.GroupID, &payment.RoundID, &payment.PayerID,
			&payment.Amount, &status, &payment.PaidAt, &payment.ReceiptAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payment.Status = models.PaymentStatus(status)
		payments = append(payments, payment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payments: %w", err)
	}
	return payments, nil
}

func scanPayment(row *sql.Row) (*models.Payment, error) {
	payment := &models.Payment{}
	var status string
	err := row.Scan(
		&payment.ID, &payment.GroupID, &payment.RoundID, &payment.PayerID,
		&payment.Amount, &status, &payment.PaidAt, &payment.ReceiptAt,
	)
	if err != nil {
		return nil, err
	}
	payment.Status = models.PaymentStatus(status)
	return payment, nil
}
