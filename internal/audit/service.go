package audit

import (
	"context"
	"encoding/json"

	"azbeauty-be/internal/auth"
	"azbeauty-be/internal/logger"

	"go.uber.org/zap"
)

// Recorder is what other services depend on. Recording never fails the caller.
type Recorder interface {
	Record(ctx context.Context, action, entityType, entityID string, meta any)
}

type Service interface {
	Recorder
	List(ctx context.Context, entityType string, limit, offset int) ([]*Entry, error)
	Count(ctx context.Context, entityType string) (int, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// Record attributes the entry to the principal in ctx. Failures are logged and dropped.
func (s *service) Record(ctx context.Context, action, entityType, entityID string, meta any) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Record"),
		zap.String("action", action),
	)

	e := &Entry{Action: action, EntityType: entityType}
	if p := auth.PrincipalFrom(ctx); p != nil {
		e.UserID = &p.UserID
	}
	if entityID != "" {
		e.EntityID = &entityID
	}
	if meta != nil {
		b, err := json.Marshal(meta)
		if err != nil {
			log.Warn("audit meta not serializable", zap.Error(err))
		} else {
			e.Meta = b
		}
	}

	if err := s.repo.Insert(ctx, e); err != nil {
		log.Warn("failed to write audit log", zap.Error(err))
	}
}

func (s *service) List(ctx context.Context, entityType string, limit, offset int) ([]*Entry, error) {
	return s.repo.List(ctx, entityType, limit, offset)
}

func (s *service) Count(ctx context.Context, entityType string) (int, error) {
	return s.repo.Count(ctx, entityType)
}

// Nop discards entries.
type Nop struct{}

func (Nop) Record(context.Context, string, string, string, any) {}
