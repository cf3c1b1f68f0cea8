package audit

import (
	"context"
	"database/sql"
	"fmt"

	"azbeauty-be/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	Insert(ctx context.Context, e *Entry) error
	List(ctx context.Context, entityType string, limit, offset int) ([]*Entry, error)
	Count(ctx context.Context, entityType string) (int, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Insert(ctx context.Context, e *Entry) error {
	var meta any
	if len(e.Meta) > 0 {
		meta = []byte(e.Meta)
	}
	return r.db.QueryRowContext(ctx, `
		INSERT INTO audit_logs (user_id, action, entity_type, entity_id, meta)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, e.UserID, e.Action, e.EntityType, e.EntityID, meta).Scan(&e.ID, &e.CreatedAt)
}

func (r *repository) List(ctx context.Context, entityType string, limit, offset int) ([]*Entry, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "ListAuditLogs"),
	)

	query := `
		SELECT id, user_id, action, entity_type, entity_id, created_at
		FROM audit_logs
		WHERE 1=1`
	args := []any{}
	argIndex := 1

	if entityType != "" {
		query += fmt.Sprintf(" AND entity_type = $%d", argIndex)
		args = append(args, entityType)
		argIndex++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query audit logs", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	entries := []*Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Action, &e.EntityType, &e.EntityID, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

func (r *repository) Count(ctx context.Context, entityType string) (int, error) {
	query := `SELECT COUNT(*) FROM audit_logs`
	args := []any{}
	if entityType != "" {
		query += ` WHERE entity_type = $1`
		args = append(args, entityType)
	}

	var n int
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&n)
	return n, err
}
