package product

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"azbeauty-be/internal/apperror"
	"azbeauty-be/internal/db"
	"azbeauty-be/internal/inventory"
	"azbeauty-be/internal/logger"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

type Repository interface {
	List(ctx context.Context, opts ListOptions) ([]*Product, error)
	Count(ctx context.Context, f Filter) (int, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetBySlug(ctx context.Context, slug string) (*Product, error)
	// Create inserts the product and, when it starts with stock, the matching ledger row.
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, input UpdateInput) (*Product, error)
	Delete(ctx context.Context, id string) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const productColumns = `id, name, slug, brand, category, price, original_price, cost_price,
	image, images, barcode, stock_quantity, in_stock, description, skin_type, benefits,
	is_featured, is_new, is_bestseller, rating, reviews_count, created_at, updated_at`

var orderBy = map[Sort]string{
	SortNewest:    "created_at DESC",
	SortPriceAsc:  "price ASC, created_at DESC",
	SortPriceDesc: "price DESC, created_at DESC",
	SortName:      "name ASC",
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*Product, error) {
	var (
		p             Product
		originalPrice sql.NullInt64
		costPrice     sql.NullInt64
		barcode       sql.NullString
		images        pq.StringArray
		skinType      pq.StringArray
		benefits      pq.StringArray
	)
	if err := row.Scan(
		&p.ID, &p.Name, &p.Slug, &p.Brand, &p.Category, &p.Price, &originalPrice, &costPrice,
		&p.Image, &images, &barcode, &p.StockQuantity, &p.InStock, &p.Description, &skinType, &benefits,
		&p.IsFeatured, &p.IsNew, &p.IsBestseller, &p.Rating, &p.ReviewsCount, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if originalPrice.Valid {
		p.OriginalPrice = &originalPrice.Int64
	}
	if costPrice.Valid {
		p.CostPrice = &costPrice.Int64
	}
	if barcode.Valid {
		p.Barcode = &barcode.String
	}
	p.Images = []string(images)
	p.SkinType = nonNil(skinType)
	p.Benefits = nonNil(benefits)
	return &p, nil
}

func nonNil(a pq.StringArray) []string {
	if a == nil {
		return []string{}
	}
	return []string(a)
}

// whereClause renders the filter as SQL starting at placeholder $1.
func whereClause(f Filter) (string, []any, int) {
	var (
		where    []string
		args     []any
		argIndex = 1
	)

	if f.Category != nil && *f.Category != "" {
		where = append(where, fmt.Sprintf("category = $%d", argIndex))
		args = append(args, *f.Category)
		argIndex++
	}
	if f.Brand != nil && *f.Brand != "" {
		where = append(where, fmt.Sprintf("brand = $%d", argIndex))
		args = append(args, *f.Brand)
		argIndex++
	}
	if f.Search != nil && strings.TrimSpace(*f.Search) != "" {
		where = append(where, fmt.Sprintf("name ILIKE $%d", argIndex))
		args = append(args, "%"+strings.TrimSpace(*f.Search)+"%")
		argIndex++
	}
	if f.InStock != nil {
		where = append(where, fmt.Sprintf("in_stock = $%d", argIndex))
		args = append(args, *f.InStock)
		argIndex++
	}
	if f.IsFeatured != nil {
		where = append(where, fmt.Sprintf("is_featured = $%d", argIndex))
		args = append(args, *f.IsFeatured)
		argIndex++
	}

	if len(where) == 0 {
		return "", args, argIndex
	}
	return " WHERE " + strings.Join(where, " AND "), args, argIndex
}

func (r *repository) List(ctx context.Context, opts ListOptions) ([]*Product, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "ListProducts"),
	)

	where, args, argIndex := whereClause(opts.Filter)
	order, ok := orderBy[opts.Sort]
	if !ok {
		order = orderBy[SortNewest]
	}

	query := `SELECT ` + productColumns + ` FROM products` + where +
		` ORDER BY ` + order +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, opts.Limit, opts.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query products", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	products := []*Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			log.Error("failed to scan product", zap.Error(err))
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *repository) Count(ctx context.Context, f Filter) (int, error) {
	where, args, _ := whereClause(f)
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`+where, args...).Scan(&n)
	return n, err
}

func (r *repository) GetByID(ctx context.Context, id string) (*Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	return p, err
}

func (r *repository) GetBySlug(ctx context.Context, slug string) (*Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE slug = $1`, slug))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	return p, err
}

const insertProductSQL = `
	INSERT INTO products (
		name, slug, brand, category, price, original_price, cost_price,
		image, images, barcode, stock_quantity, in_stock, description,
		skin_type, benefits, is_featured, is_new, is_bestseller
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	RETURNING id, rating, reviews_count, created_at, updated_at`

func (r *repository) Create(ctx context.Context, p *Product) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "CreateProduct"),
		zap.String("slug", p.Slug),
	)

	var images any
	if p.Images != nil {
		images = pq.Array(p.Images)
	}

	err := db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, insertProductSQL,
			p.Name, p.Slug, p.Brand, p.Category, p.Price, p.OriginalPrice, p.CostPrice,
			p.Image, images, p.Barcode, p.StockQuantity, p.InStock, p.Description,
			pq.Array(p.SkinType), pq.Array(p.Benefits), p.IsFeatured, p.IsNew, p.IsBestseller,
		).Scan(&p.ID, &p.Rating, &p.ReviewsCount, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return err
		}

		if p.StockQuantity == 0 {
			return nil
		}
		return inventory.InsertMovement(ctx, tx, &inventory.Movement{
			ProductID:     p.ID,
			QuantityDelta: p.StockQuantity,
			Reason:        inventory.ReasonInitialStock,
		})
	})
	if apperror.IsUniqueViolation(err) {
		return ErrDuplicateSlug
	}
	if err != nil {
		log.Error("failed to create product", zap.Error(err))
		return err
	}
	return nil
}

func (r *repository) Update(ctx context.Context, input UpdateInput) (*Product, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "UpdateProduct"),
		zap.String("product_id", input.ID),
	)

	var (
		set      []string
		args     []any
		argIndex = 1
	)
	add := func(column string, value any) {
		set = append(set, fmt.Sprintf("%s = $%d", column, argIndex))
		args = append(args, value)
		argIndex++
	}

	if input.Name != nil {
		add("name", *input.Name)
	}
	if input.Slug != nil {
		add("slug", *input.Slug)
	}
	if input.Brand != nil {
		add("brand", *input.Brand)
	}
	if input.Category != nil {
		add("category", *input.Category)
	}
	if input.Price != nil {
		add("price", *input.Price)
	}
	if input.OriginalPrice != nil {
		add("original_price", *input.OriginalPrice)
	}
	if input.CostPrice != nil {
		add("cost_price", *input.CostPrice)
	}
	if input.Image != nil {
		add("image", *input.Image)
	}
	if input.Images != nil {
		add("images", pq.Array(input.Images))
	}
	if input.Barcode != nil {
		add("barcode", *input.Barcode)
	}
	if input.Description != nil {
		add("description", *input.Description)
	}
	if input.SkinType != nil {
		add("skin_type", pq.Array(input.SkinType))
	}
	if input.Benefits != nil {
		add("benefits", pq.Array(input.Benefits))
	}
	if input.IsFeatured != nil {
		add("is_featured", *input.IsFeatured)
	}
	if input.IsNew != nil {
		add("is_new", *input.IsNew)
	}
	if input.IsBestseller != nil {
		add("is_bestseller", *input.IsBestseller)
	}
	set = append(set, "updated_at = now()")

	query := fmt.Sprintf(`UPDATE products SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(set, ", "), argIndex, productColumns)
	args = append(args, input.ID)

	p, err := scanProduct(r.db.QueryRowContext(ctx, query, args...))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, ErrProductNotFound
	case apperror.IsUniqueViolation(err):
		return nil, ErrDuplicateSlug
	case err != nil:
		log.Error("failed to update product", zap.Error(err))
		return nil, err
	}
	return p, nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrProductNotFound
	}
	return nil
}
