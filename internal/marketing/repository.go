package marketing

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"azbeauty-be/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	Insert(ctx context.Context, e *Event) error
	// CountByName groups events by name, optionally only those created at or after since.
	CountByName(ctx context.Context, since *time.Time) ([]*Count, error)
	List(ctx context.Context, f ListFilter, limit, offset int) ([]*Event, error)
	Count(ctx context.Context, f ListFilter) (int, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const eventColumns = `id, event_name, page, utm_source, utm_medium, utm_campaign, product_id, order_id, value, meta, created_at`

func (r *repository) Insert(ctx context.Context, e *Event) error {
	var meta any
	if len(e.Meta) > 0 {
		meta = string(e.Meta)
	}
	return r.db.QueryRowContext(ctx, `
		INSERT INTO marketing_events (event_name, page, utm_source, utm_medium, utm_campaign, product_id, order_id, value, meta)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`, e.EventName, e.Page, e.UTMSource, e.UTMMedium, e.UTMCampaign, e.ProductID, e.OrderID, e.Value, meta).
		Scan(&e.ID, &e.CreatedAt)
}

func (r *repository) CountByName(ctx context.Context, since *time.Time) ([]*Count, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "CountByName"),
	)

	query := `SELECT event_name, COUNT(*) FROM marketing_events`
	args := []any{}
	if since != nil {
		query += ` WHERE created_at >= $1`
		args = append(args, *since)
	}
	query += ` GROUP BY event_name ORDER BY COUNT(*) DESC, event_name`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to count events", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	counts := []*Count{}
	for rows.Next() {
		var c Count
		if err := rows.Scan(&c.EventName, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, &c)
	}
	return counts, rows.Err()
}

func whereClause(f ListFilter) (string, []any, int) {
	var (
		where    []string
		args     []any
		argIndex = 1
	)
	if f.EventName != nil && *f.EventName != "" {
		where = append(where, fmt.Sprintf("event_name = $%d", argIndex))
		args = append(args, *f.EventName)
		argIndex++
	}
	if f.UTMCampaign != nil && *f.UTMCampaign != "" {
		where = append(where, fmt.Sprintf("utm_campaign = $%d", argIndex))
		args = append(args, *f.UTMCampaign)
		argIndex++
	}
	if len(where) == 0 {
		return "", args, argIndex
	}
	return " WHERE " + strings.Join(where, " AND "), args, argIndex
}

func (r *repository) List(ctx context.Context, f ListFilter, limit, offset int) ([]*Event, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "ListEvents"),
	)

	where, args, argIndex := whereClause(f)
	query := `SELECT ` + eventColumns + ` FROM marketing_events` + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query events", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	events := []*Event{}
	for rows.Next() {
		var (
			e     Event
			value sql.NullFloat64
			meta  []byte
		)
		if err := rows.Scan(
			&e.ID, &e.EventName, &e.Page, &e.UTMSource, &e.UTMMedium, &e.UTMCampaign,
			&e.ProductID, &e.OrderID, &value, &meta, &e.CreatedAt,
		); err != nil {
			log.Error("failed to scan event", zap.Error(err))
			return nil, err
		}
		if value.Valid {
			e.Value = &value.Float64
		}
		e.Meta = meta
		events = append(events, &e)
	}
	return events, rows.Err()
}

func (r *repository) Count(ctx context.Context, f ListFilter) (int, error) {
	where, args, _ := whereClause(f)
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM marketing_events`+where, args...).Scan(&n)
	return n, err
}
