package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	domain "github.com/aq2208/goshop-api/internal/entity"
	"github.com/aq2208/goshop-api/internal/usecase"
)

type MySQLPaymentRepo struct{ db *sql.DB }

func NewMySQLPaymentRepo(db *sql.DB) *MySQLPaymentRepo { return &MySQLPaymentRepo{db: db} }

func (r *MySQLPaymentRepo) Create(ctx context.Context, p *domain.Payment) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO payments (id, order_id, method, status, amount, currency, transaction_ref, transaction_date, created_at, updated_at)
VALUES (?,?,?,?,?,?,?,?,NOW(),NOW())`,
		p.ID, p.OrderID, p.Method, p.Status, p.Amount, p.Currency, p.Reference, p.TransactionDate,
	)
	return err
}

func (r *MySQLPaymentRepo) GetByReference(ctx context.Context, reference string) (*domain.Payment, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, order_id, method, status, amount, currency, transaction_ref, transaction_date
FROM payments WHERE transaction_ref = ?`, reference)
	var p domain.Payment
	if err := row.Scan(&p.ID, &p.OrderID, &p.Method, &p.Status, &p.Amount, &p.Currency, &p.Reference, &p.TransactionDate); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// MarkSettled applies PENDING→SUCCESS and PENDING→SHIPPED in one transaction.
// Both updates are guarded, so of two racing reconciliation attempts exactly
// one observes rows > 0.
func (r *MySQLPaymentRepo) MarkSettled(ctx context.Context, reference string, txDate time.Time) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var orderID string
	if err := tx.QueryRowContext(ctx, `
SELECT order_id FROM payments WHERE transaction_ref = ? FOR UPDATE`, reference,
	).Scan(&orderID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, domain.ErrNotFound
		}
		return false, err
	}

	res, err := tx.ExecContext(ctx, `
UPDATE payments SET status = ?, transaction_date = ?, updated_at = NOW()
WHERE transaction_ref = ? AND status <> ?`,
		domain.PaymentSuccess, txDate, reference, domain.PaymentSuccess,
	)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if rows == 0 {
		// Settled by a concurrent attempt; nothing left to do.
		return false, tx.Commit()
	}

	if _, err := tx.ExecContext(ctx, `
UPDATE orders SET status = ?, updated_at = NOW()
WHERE id = ? AND status = ?`,
		domain.OrderShipped, orderID, domain.OrderPending,
	); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit settlement: %w", err)
	}
	return true, nil
}

var _ usecase.PaymentRepo = (*MySQLPaymentRepo)(nil)
