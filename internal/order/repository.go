package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"azbeauty-be/internal/db"
	"azbeauty-be/internal/logger"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

type Repository interface {
	// Create persists the header, its items and the coupon redemption atomically.
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*Order, error)
	List(ctx context.Context, status string, limit, offset int) ([]*Order, error)
	Count(ctx context.Context, status string) (int, error)
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*Order, error)
	MarkPaid(ctx context.Context, id string) (*Order, error)
	AttachInvoice(ctx context.Context, id string, inv Invoice) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const orderColumns = `id, user_id, subtotal, discount, shipping_cost, total, status, payment_method,
	payment_status, internal_notes, qpay_invoice_id, qpay_qr_text, qpay_urls,
	shipping_address, customer_info, coupon_id, created_at, updated_at`

const insertOrderSQL = `
	INSERT INTO orders (
		user_id, subtotal, discount, shipping_cost, total,
		status, payment_method, payment_status,
		shipping_address, customer_info, coupon_id
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	RETURNING id, created_at, updated_at`

const insertItemSQL = `
	INSERT INTO order_items (order_id, product_id, product_name, quantity, price)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING id, created_at`

// redeemCouponSQL only counts a use while the coupon still has uses left.
const redeemCouponSQL = `
	UPDATE coupons
	SET used_count = used_count + 1
	WHERE id = $1 AND (max_uses IS NULL OR used_count < max_uses)`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*Order, error) {
	var (
		o                     Order
		urls, address, custom []byte
	)
	err := row.Scan(
		&o.ID, &o.UserID, &o.Subtotal, &o.Discount, &o.ShippingCost, &o.Total, &o.Status, &o.PaymentMethod,
		&o.PaymentStatus, &o.InternalNotes, &o.QPayInvoiceID, &o.QPayQRText, &urls,
		&address, &custom, &o.CouponID, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.QPayURLs = urls
	o.ShippingAddress = address
	o.CustomerInfo = custom
	o.Items = []*OrderItem{}
	return &o, nil
}

func (r *repository) Create(ctx context.Context, o *Order) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "CreateOrder"),
		zap.String("user_id", o.UserID),
	)

	err := db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, insertOrderSQL,
			o.UserID, o.Subtotal, o.Discount, o.ShippingCost, o.Total,
			o.Status, o.PaymentMethod, o.PaymentStatus,
			string(o.ShippingAddress), string(o.CustomerInfo), o.CouponID,
		).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		for _, item := range o.Items {
			item.OrderID = o.ID
			err := tx.QueryRowContext(ctx, insertItemSQL,
				o.ID, item.ProductID, item.ProductName, item.Quantity, item.Price,
			).Scan(&item.ID, &item.CreatedAt)
			if err != nil {
				return fmt.Errorf("insert order item %s: %w", item.ProductID, err)
			}
		}

		if o.CouponID == nil {
			return nil
		}
		res, err := tx.ExecContext(ctx, redeemCouponSQL, *o.CouponID)
		if err != nil {
			return fmt.Errorf("redeem coupon: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrCouponLimitReached
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrCouponLimitReached) {
			log.Warn("coupon ran out of uses during checkout", zap.Stringp("coupon_id", o.CouponID))
		} else {
			log.Error("failed to create order", zap.Error(err))
		}
		return err
	}

	log.Info("order created",
		zap.String("order_id", o.ID),
		zap.Int64("total", o.Total),
		zap.Int("items", len(o.Items)),
	)
	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, []*Order{o}); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *repository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*Order, error) {
	return r.list(ctx, "ListByUser", `
		SELECT `+orderColumns+`
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, userID, limit, offset)
}

func (r *repository) List(ctx context.Context, status string, limit, offset int) ([]*Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE 1=1`
	args := []any{}
	argIndex := 1

	if status != "" && status != "all" {
		query += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, status)
		argIndex++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, limit, offset)

	return r.list(ctx, "List", query, args...)
}

func (r *repository) list(ctx context.Context, method, query string, args ...any) ([]*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", method),
	)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query orders", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	orders := []*Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			log.Error("failed to scan order row", zap.Error(err))
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		log.Error("rows iteration error", zap.Error(err))
		return nil, err
	}

	if err := r.loadItems(ctx, orders); err != nil {
		log.Error("failed to load order items", zap.Error(err))
		return nil, err
	}
	return orders, nil
}

// loadItems fills Items for every order with a single query.
func (r *repository) loadItems(ctx context.Context, orders []*Order) error {
	if len(orders) == 0 {
		return nil
	}

	byID := make(map[string]*Order, len(orders))
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
		ids = append(ids, o.ID)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, product_name, quantity, price, created_at
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY created_at, id`, pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.Quantity, &it.Price, &it.CreatedAt); err != nil {
			return err
		}
		if o, ok := byID[it.OrderID]; ok {
			o.Items = append(o.Items, &it)
		}
	}
	return rows.Err()
}

func (r *repository) Count(ctx context.Context, status string) (int, error) {
	query := `SELECT COUNT(*) FROM orders`
	args := []any{}
	if status != "" && status != "all" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}

	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *repository) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "UpdateStatus"),
		zap.String("order_id", input.OrderID),
	)

	query := `UPDATE orders SET updated_at = now()`
	args := []any{}
	argIndex := 1

	if input.Status != nil {
		query += fmt.Sprintf(", status = $%d", argIndex)
		args = append(args, *input.Status)
		argIndex++
	}
	if input.PaymentStatus != nil {
		query += fmt.Sprintf(", payment_status = $%d", argIndex)
		args = append(args, *input.PaymentStatus)
		argIndex++
	}
	if input.InternalNotes != nil {
		query += fmt.Sprintf(", internal_notes = $%d", argIndex)
		args = append(args, *input.InternalNotes)
		argIndex++
	}

	query += fmt.Sprintf(" WHERE id = $%d RETURNING %s", argIndex, orderColumns)
	args = append(args, input.OrderID)

	o, err := scanOrder(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		log.Error("failed to update order status", zap.Error(err))
		return nil, err
	}
	if err := r.loadItems(ctx, []*Order{o}); err != nil {
		return nil, err
	}

	log.Info("order status updated",
		zap.String("status", string(o.Status)),
		zap.String("payment_status", string(o.PaymentStatus)),
	)
	return o, nil
}

func (r *repository) MarkPaid(ctx context.Context, id string) (*Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx, `
		UPDATE orders
		SET payment_status = 'paid', status = 'paid', updated_at = now()
		WHERE id = $1
		RETURNING `+orderColumns, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		logger.FromCtx(ctx).Error("failed to mark order paid",
			zap.String("layer", "repository"),
			zap.String("order_id", id),
			zap.Error(err),
		)
		return nil, err
	}
	return o, nil
}

func (r *repository) AttachInvoice(ctx context.Context, id string, inv Invoice) error {
	var urls any
	if len(inv.URLs) > 0 {
		urls = string(inv.URLs)
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET qpay_invoice_id = $1, qpay_qr_text = $2, qpay_urls = $3, updated_at = now()
		WHERE id = $4`, inv.InvoiceID, inv.QRText, urls, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrOrderNotFound
	}
	return nil
}
