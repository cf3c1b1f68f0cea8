package coupon

import (
	"context"
	"database/sql"
	"errors"

	"azbeauty-be/internal/apperror"
	"azbeauty-be/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	GetByCode(ctx context.Context, code string) (*Coupon, error)
	GetByID(ctx context.Context, id string) (*Coupon, error)
	List(ctx context.Context, limit, offset int) ([]*Coupon, error)
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, c *Coupon) error
	Update(ctx context.Context, c *Coupon) error
	Delete(ctx context.Context, id string) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const couponColumns = `id, code, type, value, min_order_amount, max_uses, used_count, valid_from, valid_until, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCoupon(row rowScanner) (*Coupon, error) {
	var (
		c         Coupon
		minOrder  sql.NullInt64
		maxUses   sql.NullInt64
		validFrom sql.NullTime
		validTo   sql.NullTime
	)
	if err := row.Scan(
		&c.ID, &c.Code, &c.Type, &c.Value, &minOrder, &maxUses,
		&c.UsedCount, &validFrom, &validTo, &c.CreatedAt,
	); err != nil {
		return nil, err
	}
	if minOrder.Valid {
		c.MinOrderAmount = &minOrder.Int64
	}
	if maxUses.Valid {
		c.MaxUses = &maxUses.Int64
	}
	if validFrom.Valid {
		c.ValidFrom = &validFrom.Time
	}
	if validTo.Valid {
		c.ValidUntil = &validTo.Time
	}
	return &c, nil
}

func (r *repository) GetByCode(ctx context.Context, code string) (*Coupon, error) {
	c, err := scanCoupon(r.db.QueryRowContext(ctx,
		`SELECT `+couponColumns+` FROM coupons WHERE code = $1`, code))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCouponNotFound
	}
	return c, err
}

func (r *repository) GetByID(ctx context.Context, id string) (*Coupon, error) {
	c, err := scanCoupon(r.db.QueryRowContext(ctx,
		`SELECT `+couponColumns+` FROM coupons WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCouponNotFound
	}
	return c, err
}

func (r *repository) List(ctx context.Context, limit, offset int) ([]*Coupon, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "ListCoupons"),
	)

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+couponColumns+`
		FROM coupons
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		log.Error("failed to query coupons", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	coupons := []*Coupon{}
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			log.Error("failed to scan coupon", zap.Error(err))
			return nil, err
		}
		coupons = append(coupons, c)
	}
	return coupons, rows.Err()
}

func (r *repository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM coupons`).Scan(&n)
	return n, err
}

func (r *repository) Create(ctx context.Context, c *Coupon) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO coupons (code, type, value, min_order_amount, max_uses, used_count, valid_from, valid_until)
		VALUES ($1, $2, $3, $4, $5, 0, $6, $7)
		RETURNING id, used_count, created_at
	`, c.Code, c.Type, c.Value, c.MinOrderAmount, c.MaxUses, c.ValidFrom, c.ValidUntil).
		Scan(&c.ID, &c.UsedCount, &c.CreatedAt)
	if apperror.IsUniqueViolation(err) {
		return ErrDuplicateCode
	}
	return err
}

// Update writes the editable columns. used_count is owned by order creation and never written here.
func (r *repository) Update(ctx context.Context, c *Coupon) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE coupons
		SET code = $1, type = $2, value = $3, min_order_amount = $4,
			max_uses = $5, valid_from = $6, valid_until = $7
		WHERE id = $8
	`, c.Code, c.Type, c.Value, c.MinOrderAmount, c.MaxUses, c.ValidFrom, c.ValidUntil, c.ID)
	if apperror.IsUniqueViolation(err) {
		return ErrDuplicateCode
	}
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrCouponNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM coupons WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrCouponNotFound
	}
	return nil
}
