package inventory

import (
	"context"
	"errors"
	"strings"

	"azbeauty-be/internal/apperror"
	"azbeauty-be/internal/audit"
	"azbeauty-be/internal/metrics"
	"azbeauty-be/internal/validation"
)

type Service interface {
	Adjust(ctx context.Context, input AdjustInput) (int, error)
	Movements(ctx context.Context, productID string, limit, offset int) ([]*Movement, error)
}

type service struct {
	repo    Repository
	audit   audit.Recorder
	metrics *metrics.Metrics
}

func NewService(repo Repository, recorder audit.Recorder, m *metrics.Metrics) Service {
	return &service{repo: repo, audit: recorder, metrics: m}
}

func (s *service) Adjust(ctx context.Context, input AdjustInput) (int, error) {
	input.Reason = strings.TrimSpace(input.Reason)
	if err := validation.Struct(input); err != nil {
		return 0, err
	}

	m := &Movement{
		ProductID:     input.ProductID,
		QuantityDelta: input.QuantityDelta,
		Reason:        input.Reason,
		ReferenceID:   input.ReferenceID,
	}
	newQty, err := s.repo.Adjust(ctx, m)
	if errors.Is(err, ErrProductNotFound) {
		return 0, apperror.Wrap(apperror.CodeNotFound, err, "Product not found")
	}
	if err != nil {
		return 0, err
	}

	s.metrics.InventoryAdjusted(input.QuantityDelta)
	s.audit.Record(ctx, audit.ActionInventoryAdjust, "product", input.ProductID, map[string]any{
		"quantity_delta": input.QuantityDelta,
		"reason":         input.Reason,
		"stock_quantity": newQty,
	})
	return newQty, nil
}

func (s *service) Movements(ctx context.Context, productID string, limit, offset int) ([]*Movement, error) {
	if productID != "" {
		if err := validation.Var("product_id", productID, "uuid"); err != nil {
			return nil, err
		}
	}
	return s.repo.ListMovements(ctx, productID, limit, offset)
}
