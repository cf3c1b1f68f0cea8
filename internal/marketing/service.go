package marketing

import (
	"context"
	"encoding/json"
	"time"

	"azbeauty-be/internal/apperror"
	"azbeauty-be/internal/logger"
	"azbeauty-be/internal/period"
	"azbeauty-be/internal/validation"

	"go.uber.org/zap"
)

const (
	defaultLimit = 50
	maxLimit     = 100
)

type Service interface {
	Track(ctx context.Context, input EventInput) (*Event, error)
	EventCounts(ctx context.Context, rangeName string) ([]*Count, error)
	AdminEvents(ctx context.Context, f ListFilter, limit, offset int) ([]*Event, error)
	AdminEventsTotal(ctx context.Context, f ListFilter) (int, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) Service {
	return &service{repo: repo, now: time.Now}
}

func (s *service) Track(ctx context.Context, input EventInput) (*Event, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	e := &Event{
		EventName:   input.EventName,
		Page:        input.Page,
		UTMSource:   input.UTMSource,
		UTMMedium:   input.UTMMedium,
		UTMCampaign: input.UTMCampaign,
		ProductID:   input.ProductID,
		OrderID:     input.OrderID,
		Value:       input.Value,
	}
	if input.Meta != nil {
		meta, err := json.Marshal(input.Meta)
		if err != nil {
			return nil, apperror.Wrap(apperror.CodeValidation, err, "meta must be a JSON object")
		}
		e.Meta = meta
	}

	if err := s.repo.Insert(ctx, e); err != nil {
		logger.FromCtx(ctx).Error("failed to store marketing event",
			zap.String("layer", "service"),
			zap.String("event_name", e.EventName),
			zap.Error(err),
		)
		return nil, err
	}
	return e, nil
}

func (s *service) EventCounts(ctx context.Context, rangeName string) ([]*Count, error) {
	since, err := period.Since(rangeName, s.now())
	if err != nil {
		return nil, err
	}
	return s.repo.CountByName(ctx, since)
}

func (s *service) AdminEvents(ctx context.Context, f ListFilter, limit, offset int) ([]*Event, error) {
	if limit <= 0 {
		limit = defaultLimit
	} else if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, f, limit, offset)
}

func (s *service) AdminEventsTotal(ctx context.Context, f ListFilter) (int, error) {
	return s.repo.Count(ctx, f)
}
