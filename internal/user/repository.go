package user

import (
	"context"
	"database/sql"
	"errors"

	"azbeauty-be/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	GetByID(ctx context.Context, id string) (*Profile, error)
	// Upsert inserts a "user" profile or fills in the provided fields of an existing one.
	Upsert(ctx context.Context, id string, input UpsertProfileInput) (*Profile, bool, error)
	// PromoteToOwner sets id's role to owner only while no owner exists.
	PromoteToOwner(ctx context.Context, id string) error
	ListCustomers(ctx context.Context, limit, offset int) ([]*Customer, error)
	CountCustomers(ctx context.Context) (int, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const profileColumns = `id, email, full_name, avatar_url, phone, role, created_at, updated_at`

func (r *repository) GetByID(ctx context.Context, id string) (*Profile, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "GetProfile"),
		zap.String("profile_id", id),
	)

	var p Profile
	err := r.db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id).Scan(
		&p.ID, &p.Email, &p.FullName, &p.AvatarURL, &p.Phone, &p.Role, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("profile not found")
			return nil, ErrProfileNotFound
		}
		log.Error("failed to scan profile", zap.Error(err))
		return nil, err
	}
	return &p, nil
}

func (r *repository) Upsert(ctx context.Context, id string, input UpsertProfileInput) (*Profile, bool, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "UpsertProfile"),
		zap.String("profile_id", id),
	)

	// xmax is 0 only for a freshly inserted tuple
	query := `
		INSERT INTO profiles (id, email, full_name, avatar_url, role)
		VALUES ($1, COALESCE($2, ''), $3, $4, 'user')
		ON CONFLICT (id) DO UPDATE SET
			email = COALESCE($2, profiles.email),
			full_name = COALESCE($3, profiles.full_name),
			avatar_url = COALESCE($4, profiles.avatar_url),
			updated_at = now()
		RETURNING ` + profileColumns + `, (xmax = 0) AS inserted`

	var (
		p       Profile
		created bool
	)
	err := r.db.QueryRowContext(ctx, query, id, input.Email, input.FullName, input.AvatarURL).Scan(
		&p.ID, &p.Email, &p.FullName, &p.AvatarURL, &p.Phone, &p.Role, &p.CreatedAt, &p.UpdatedAt, &created,
	)
	if err != nil {
		log.Error("failed to upsert profile", zap.Error(err))
		return nil, false, err
	}

	log.Info("profile upserted", zap.Bool("created", created))
	return &p, created, nil
}

func (r *repository) PromoteToOwner(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE profiles
		SET role = 'owner', updated_at = now()
		WHERE id = $1
		AND NOT EXISTS (SELECT 1 FROM profiles WHERE role = 'owner')
	`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	var ownerExists bool
	if err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM profiles WHERE role = 'owner')`).Scan(&ownerExists); err != nil {
		return err
	}
	if ownerExists {
		return ErrOwnerExists
	}
	return ErrProfileNotFound
}

func (r *repository) ListCustomers(ctx context.Context, limit, offset int) ([]*Customer, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "ListCustomers"),
	)

	rows, err := r.db.QueryContext(ctx, `
		SELECT p.id, p.email, p.full_name, p.phone, p.created_at,
			COUNT(o.id) AS order_count,
			COALESCE(SUM(o.total), 0) AS total_spent
		FROM profiles p
		LEFT JOIN orders o ON o.user_id = p.id
		GROUP BY p.id
		ORDER BY p.created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		log.Error("failed to query customers", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	customers := []*Customer{}
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.Email, &c.FullName, &c.Phone, &c.CreatedAt, &c.OrderCount, &c.TotalSpent); err != nil {
			log.Error("failed to scan customer", zap.Error(err))
			return nil, err
		}
		customers = append(customers, &c)
	}
	return customers, rows.Err()
}

func (r *repository) CountCustomers(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM profiles`).Scan(&n)
	return n, err
}
