package inventory

import (
	"context"
	"database/sql"
	"errors"

	"azbeauty-be/internal/db"
	"azbeauty-be/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	// Adjust applies delta to the product's stock, clamped at zero, and appends the movement
	// in the same transaction. It returns the new stock quantity.
	Adjust(ctx context.Context, m *Movement) (int, error)
	ListMovements(ctx context.Context, productID string, limit, offset int) ([]*Movement, error)
	CountMovements(ctx context.Context, productID string) (int, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const adjustStockSQL = `
	UPDATE products
	SET stock_quantity = GREATEST(0, stock_quantity + $1),
		in_stock = (stock_quantity + $1) > 0,
		updated_at = now()
	WHERE id = $2
	RETURNING stock_quantity`

const insertMovementSQL = `
	INSERT INTO inventory_movements (product_id, quantity_delta, reason, reference_id)
	VALUES ($1, $2, $3, $4)
	RETURNING id, created_at`

func (r *repository) Adjust(ctx context.Context, m *Movement) (int, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "Adjust"),
		zap.String("product_id", m.ProductID),
		zap.Int("delta", m.QuantityDelta),
	)

	var newQty int
	err := db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, adjustStockSQL, m.QuantityDelta, m.ProductID).Scan(&newQty)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrProductNotFound
		}
		if err != nil {
			return err
		}
		return InsertMovement(ctx, tx, m)
	})
	if err != nil {
		if !errors.Is(err, ErrProductNotFound) {
			log.Error("stock adjustment failed", zap.Error(err))
		}
		return 0, err
	}

	log.Info("stock adjusted", zap.Int("stock_quantity", newQty))
	return newQty, nil
}

// InsertMovement appends m using q, so product creation can seed the ledger inside its own transaction.
func InsertMovement(ctx context.Context, q db.Queryer, m *Movement) error {
	return q.QueryRowContext(ctx, insertMovementSQL, m.ProductID, m.QuantityDelta, m.Reason, m.ReferenceID).
		Scan(&m.ID, &m.CreatedAt)
}

func (r *repository) ListMovements(ctx context.Context, productID string, limit, offset int) ([]*Movement, error) {
	query := `
		SELECT id, product_id, quantity_delta, reason, reference_id, created_at
		FROM inventory_movements`
	args := []any{}
	if productID != "" {
		query += ` WHERE product_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
		args = append(args, productID, limit, offset)
	} else {
		query += ` ORDER BY created_at DESC LIMIT $1 OFFSET $2`
		args = append(args, limit, offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	movements := []*Movement{}
	for rows.Next() {
		var m Movement
		if err := rows.Scan(&m.ID, &m.ProductID, &m.QuantityDelta, &m.Reason, &m.ReferenceID, &m.CreatedAt); err != nil {
			return nil, err
		}
		movements = append(movements, &m)
	}
	return movements, rows.Err()
}

func (r *repository) CountMovements(ctx context.Context, productID string) (int, error) {
	query := `SELECT COUNT(*) FROM inventory_movements`
	args := []any{}
	if productID != "" {
		query += ` WHERE product_id = $1`
		args = append(args, productID)
	}
	var n int
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&n)
	return n, err
}
