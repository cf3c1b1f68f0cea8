package payment

import (
	"context"
	"database/sql"
	"errors"

	"azbeauty-be/internal/logger"

	"go.uber.org/zap"
)

var ErrPaymentNotFound = errors.New("payment not found")

type Repository interface {
	Insert(ctx context.Context, p *Payment) error
	GetByInvoiceID(ctx context.Context, invoiceID string) (*Payment, error)
	UpdateStatus(ctx context.Context, invoiceID string, status Status) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Insert(ctx context.Context, p *Payment) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO payments (order_id, qpay_invoice_id, amount, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`, p.OrderID, p.QPayInvoiceID, p.Amount, p.Status).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to insert payment",
			zap.String("layer", "repository"),
			zap.String("order_id", p.OrderID),
			zap.Error(err),
		)
	}
	return err
}

func (r *repository) GetByInvoiceID(ctx context.Context, invoiceID string) (*Payment, error) {
	var p Payment
	err := r.db.QueryRowContext(ctx, `
		SELECT id, order_id, qpay_invoice_id, amount, status, created_at, updated_at
		FROM payments
		WHERE qpay_invoice_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, invoiceID).Scan(&p.ID, &p.OrderID, &p.QPayInvoiceID, &p.Amount, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) UpdateStatus(ctx context.Context, invoiceID string, status Status) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE payments
		SET status = $1, updated_at = now()
		WHERE qpay_invoice_id = $2
	`, status, invoiceID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrPaymentNotFound
	}
	return nil
}
