// Package dashboard aggregates the admin overview figures.
package dashboard

import (
	"context"
	"database/sql"
	"time"

	"azbeauty-be/internal/logger"
	"azbeauty-be/internal/period"

	"go.uber.org/zap"
)

const recentWindow = 7 * 24 * time.Hour

type Stats struct {
	TotalRevenue      int64 `json:"totalRevenue"`
	TotalOrders       int   `json:"totalOrders"`
	PendingOrders     int   `json:"pendingOrders"`
	TotalProducts     int   `json:"totalProducts"`
	OutOfStock        int   `json:"outOfStock"`
	RecentOrdersCount int   `json:"recentOrdersCount"`
}

type Repository interface {
	// OrderStats fills the order figures for orders created at or after since (all when nil).
	OrderStats(ctx context.Context, since *time.Time, recentSince time.Time, s *Stats) error
	ProductStats(ctx context.Context, s *Stats) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

// $1 bounds the ranged figures; the recent count always looks back from $2.
const orderStatsSQL = `
	SELECT
		COALESCE(SUM(total) FILTER (WHERE payment_status = 'paid' AND ($1::timestamptz IS NULL OR created_at >= $1)), 0),
		COUNT(*) FILTER (WHERE $1::timestamptz IS NULL OR created_at >= $1),
		COUNT(*) FILTER (WHERE status = 'pending' AND ($1::timestamptz IS NULL OR created_at >= $1)),
		COUNT(*) FILTER (WHERE created_at >= $2)
	FROM orders`

const productStatsSQL = `
	SELECT COUNT(*), COUNT(*) FILTER (WHERE NOT in_stock)
	FROM products`

func (r *repository) OrderStats(ctx context.Context, since *time.Time, recentSince time.Time, s *Stats) error {
	return r.db.QueryRowContext(ctx, orderStatsSQL, since, recentSince).
		Scan(&s.TotalRevenue, &s.TotalOrders, &s.PendingOrders, &s.RecentOrdersCount)
}

func (r *repository) ProductStats(ctx context.Context, s *Stats) error {
	return r.db.QueryRowContext(ctx, productStatsSQL).Scan(&s.TotalProducts, &s.OutOfStock)
}

type Service interface {
	Stats(ctx context.Context, rangeName string) (*Stats, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) Service {
	return &service{repo: repo, now: time.Now}
}

func (s *service) Stats(ctx context.Context, rangeName string) (*Stats, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "DashboardStats"),
		zap.String("range", rangeName),
	)

	now := s.now()
	since, err := period.Since(rangeName, now)
	if err != nil {
		return nil, err
	}

	stats := &Stats{}
	if err := s.repo.OrderStats(ctx, since, now.Add(-recentWindow), stats); err != nil {
		log.Error("order stats failed", zap.Error(err))
		return nil, err
	}
	if err := s.repo.ProductStats(ctx, stats); err != nil {
		log.Error("product stats failed", zap.Error(err))
		return nil, err
	}
	return stats, nil
}
