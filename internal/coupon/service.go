package coupon

import (
	"context"
	"errors"
	"strings"
	"time"

	"azbeauty-be/internal/apperror"
	"azbeauty-be/internal/audit"
	"azbeauty-be/internal/logger"
	"azbeauty-be/internal/validation"

	"go.uber.org/zap"
)

type Service interface {
	// Resolve looks a code up and evaluates it. A missing code is an invalid result, not an error.
	Resolve(ctx context.Context, code string, subtotal int64) (*Coupon, Result, error)
	Preview(ctx context.Context, code string, subtotal int64) (Result, error)
	List(ctx context.Context, limit, offset int) ([]*Coupon, error)
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, input CreateInput) (*Coupon, error)
	Update(ctx context.Context, input UpdateInput) (*Coupon, error)
	Delete(ctx context.Context, id string) error
}

type service struct {
	repo  Repository
	audit audit.Recorder
	now   func() time.Time
}

func NewService(repo Repository, recorder audit.Recorder) Service {
	return &service{repo: repo, audit: recorder, now: time.Now}
}

func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (s *service) Resolve(ctx context.Context, code string, subtotal int64) (*Coupon, Result, error) {
	c, err := s.repo.GetByCode(ctx, NormalizeCode(code))
	if errors.Is(err, ErrCouponNotFound) {
		return nil, invalid(subtotal, ReasonNotFound), nil
	}
	if err != nil {
		return nil, Result{}, err
	}
	return c, Evaluate(*c, subtotal, s.now()), nil
}

func (s *service) Preview(ctx context.Context, code string, subtotal int64) (Result, error) {
	if strings.TrimSpace(code) == "" {
		return Result{}, apperror.Validation("code is required")
	}
	if subtotal < 0 {
		return Result{}, apperror.Validation("subtotal must be greater than or equal to 0")
	}
	_, res, err := s.Resolve(ctx, code, subtotal)
	return res, err
}

func (s *service) List(ctx context.Context, limit, offset int) ([]*Coupon, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

func (s *service) Create(ctx context.Context, input CreateInput) (*Coupon, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "CreateCoupon"),
	)

	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	c := &Coupon{
		Code:           NormalizeCode(input.Code),
		Type:           Type(input.Type),
		Value:          input.Value,
		MinOrderAmount: input.MinOrderAmount,
		MaxUses:        input.MaxUses,
	}
	var err error
	if c.ValidFrom, err = parseTime("valid_from", input.ValidFrom); err != nil {
		return nil, err
	}
	if c.ValidUntil, err = parseTime("valid_until", input.ValidUntil); err != nil {
		return nil, err
	}
	if err := checkRules(c); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, c); err != nil {
		if errors.Is(err, ErrDuplicateCode) {
			return nil, apperror.Wrap(apperror.CodeConflict, err, "Coupon code already exists")
		}
		log.Error("failed to create coupon", zap.Error(err))
		return nil, err
	}

	s.audit.Record(ctx, audit.ActionCouponCreate, "coupon", c.ID, map[string]any{"code": c.Code})
	log.Info("coupon created", zap.String("coupon_id", c.ID), zap.String("code", c.Code))
	return c, nil
}

func (s *service) Update(ctx context.Context, input UpdateInput) (*Coupon, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "UpdateCoupon"),
		zap.String("coupon_id", input.ID),
	)

	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	c, err := s.repo.GetByID(ctx, input.ID)
	if errors.Is(err, ErrCouponNotFound) {
		return nil, apperror.Wrap(apperror.CodeNotFound, err, "Coupon not found")
	}
	if err != nil {
		return nil, err
	}

	if input.Code != nil {
		c.Code = NormalizeCode(*input.Code)
	}
	if input.Type != nil {
		c.Type = Type(*input.Type)
	}
	if input.Value != nil {
		c.Value = *input.Value
	}
	if input.ClearMinOrderAmount && input.MinOrderAmount != nil {
		return nil, apperror.Validation("min_order_amount cannot be set and cleared at once")
	}
	if input.ClearMaxUses && input.MaxUses != nil {
		return nil, apperror.Validation("max_uses cannot be set and cleared at once")
	}
	switch {
	case input.ClearMinOrderAmount:
		c.MinOrderAmount = nil
	case input.MinOrderAmount != nil:
		c.MinOrderAmount = input.MinOrderAmount
	}
	switch {
	case input.ClearMaxUses:
		c.MaxUses = nil
	case input.MaxUses != nil:
		c.MaxUses = input.MaxUses
	}
	if input.ValidFrom != nil {
		if c.ValidFrom, err = parseTime("valid_from", input.ValidFrom); err != nil {
			return nil, err
		}
	}
	if input.ValidUntil != nil {
		if c.ValidUntil, err = parseTime("valid_until", input.ValidUntil); err != nil {
			return nil, err
		}
	}
	if err := checkRules(c); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, c); err != nil {
		switch {
		case errors.Is(err, ErrDuplicateCode):
			return nil, apperror.Wrap(apperror.CodeConflict, err, "Coupon code already exists")
		case errors.Is(err, ErrCouponNotFound):
			return nil, apperror.Wrap(apperror.CodeNotFound, err, "Coupon not found")
		}
		log.Error("failed to update coupon", zap.Error(err))
		return nil, err
	}

	s.audit.Record(ctx, audit.ActionCouponUpdate, "coupon", c.ID, input)
	return c, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	if err := validation.Var("id", id, "required,uuid"); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrCouponNotFound) {
			return apperror.Wrap(apperror.CodeNotFound, err, "Coupon not found")
		}
		return err
	}
	s.audit.Record(ctx, audit.ActionCouponDelete, "coupon", id, nil)
	return nil
}

func checkRules(c *Coupon) error {
	if c.Code == "" {
		return apperror.Validation("code is required")
	}
	if c.Type == TypePercent && c.Value > 100 {
		return apperror.Validation("value must be at most 100 for percent coupons")
	}
	if c.ValidFrom != nil && c.ValidUntil != nil && c.ValidFrom.After(*c.ValidUntil) {
		return apperror.Validation("valid_from must be before valid_until")
	}
	return nil
}

// parseTime accepts RFC3339; an empty string clears the bound.
func parseTime(field string, raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(*raw))
	if err != nil {
		return nil, apperror.Wrap(apperror.CodeValidation, err, field+" must be an RFC3339 datetime")
	}
	return &t, nil
}
