package category

import (
	"context"
	"database/sql"

	"azbeauty-be/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	GetCategories(ctx context.Context) ([]*Category, error)
	GetBrands(ctx context.Context) ([]*Brand, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetCategories(ctx context.Context) ([]*Category, error) {
	return r.list(ctx, "GetCategories", `SELECT id, name, slug, created_at FROM categories ORDER BY slug`)
}

func (r *repository) GetBrands(ctx context.Context) ([]*Brand, error) {
	return r.list(ctx, "GetBrands", `SELECT id, name, slug, created_at FROM brands ORDER BY slug`)
}

func (r *repository) list(ctx context.Context, method, query string) ([]*Category, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", method),
	)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		log.Error("DB query failed", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	items := []*Category{}
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.CreatedAt); err != nil {
			log.Error("Row scan failed", zap.Error(err))
			return nil, err
		}
		items = append(items, &c)
	}

	if err := rows.Err(); err != nil {
		log.Error("Rows iteration failed", zap.Error(err))
		return nil, err
	}
	return items, nil
}
