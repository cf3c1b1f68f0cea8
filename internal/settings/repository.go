package settings

import (
	"context"
	"database/sql"
	"encoding/json"
	"sort"

	"azbeauty-be/internal/db"
	"azbeauty-be/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	GetAll(ctx context.Context) (map[string]json.RawMessage, error)
	// Upsert writes every key in one transaction.
	Upsert(ctx context.Context, values map[string]json.RawMessage) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetAll(ctx context.Context) (map[string]json.RawMessage, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, value FROM store_settings`)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to load settings",
			zap.String("layer", "repository"),
			zap.Error(err),
		)
		return nil, err
	}
	defer rows.Close()

	values := make(map[string]json.RawMessage)
	for rows.Next() {
		var (
			key   string
			value []byte
		)
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		values[key] = value
	}
	return values, rows.Err()
}

const upsertSQL = `
	INSERT INTO store_settings (key, value, updated_at)
	VALUES ($1, $2::jsonb, now())
	ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`

func (r *repository) Upsert(ctx context.Context, values map[string]json.RawMessage) error {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		for _, k := range keys {
			if _, err := tx.ExecContext(ctx, upsertSQL, k, string(values[k])); err != nil {
				return err
			}
		}
		return nil
	})
}
