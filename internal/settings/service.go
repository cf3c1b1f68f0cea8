package settings

import (
	"context"
	"encoding/json"

	"azbeauty-be/internal/apperror"
	"azbeauty-be/internal/audit"
	"azbeauty-be/internal/logger"
	"azbeauty-be/internal/validation"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// tax rates are kept to basis points
const taxRatePlaces = 4

type Service interface {
	Get(ctx context.Context) (*Settings, error)
	Update(ctx context.Context, input UpdateInput) (*Settings, error)
}

type service struct {
	repo  Repository
	audit audit.Recorder
}

func NewService(repo Repository, recorder audit.Recorder) Service {
	return &service{repo: repo, audit: recorder}
}

func (s *service) Get(ctx context.Context) (*Settings, error) {
	values, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	log := logger.FromCtx(ctx).With(zap.String("layer", "service"), zap.String("method", "GetSettings"))
	out := &Settings{
		StoreName:             decodeSetting[string](log, values, KeyStoreName),
		LogoURL:               decodeSetting[string](log, values, KeyLogoURL),
		ShippingRate:          decodeSetting[int64](log, values, KeyShippingRate),
		FreeShippingThreshold: decodeSetting[int64](log, values, KeyFreeShippingThreshold),
	}
	if tax := decodeSetting[decimal.Decimal](log, values, KeyTaxRate); tax != nil {
		f := tax.Round(taxRatePlaces).InexactFloat64()
		out.TaxRate = &f
	}

	if out.ShippingRate == nil {
		v := DefaultShippingRate
		out.ShippingRate = &v
	}
	if out.FreeShippingThreshold == nil {
		v := DefaultFreeShippingThreshold
		out.FreeShippingThreshold = &v
	}
	return out, nil
}

// decodeSetting returns nil for absent, null or malformed values.
func decodeSetting[T any](log *zap.Logger, values map[string]json.RawMessage, key string) *T {
	raw, ok := values[key]
	if !ok || len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		log.Warn("ignoring malformed setting", zap.String("key", key), zap.Error(err))
		return nil
	}
	return &v
}

func (s *service) Update(ctx context.Context, input UpdateInput) (*Settings, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	values := make(map[string]json.RawMessage)
	put := func(key string, v any) error {
		raw, err := json.Marshal(v)
		if err != nil {
			return apperror.Wrap(apperror.CodeValidation, err, key+" is invalid")
		}
		values[key] = raw
		return nil
	}

	if input.StoreName != nil {
		if err := put(KeyStoreName, *input.StoreName); err != nil {
			return nil, err
		}
	}
	if input.LogoURL != nil {
		if err := put(KeyLogoURL, *input.LogoURL); err != nil {
			return nil, err
		}
	}
	if input.ShippingRate != nil {
		if err := put(KeyShippingRate, *input.ShippingRate); err != nil {
			return nil, err
		}
	}
	if input.FreeShippingThreshold != nil {
		if err := put(KeyFreeShippingThreshold, *input.FreeShippingThreshold); err != nil {
			return nil, err
		}
	}
	if input.TaxRate != nil {
		rate := decimal.NewFromFloat(*input.TaxRate).Round(taxRatePlaces)
		values[KeyTaxRate] = json.RawMessage(rate.String())
	}

	if len(values) == 0 {
		return nil, apperror.Validation("nothing to update")
	}

	if err := s.repo.Upsert(ctx, values); err != nil {
		logger.FromCtx(ctx).Error("failed to update settings", zap.String("layer", "service"), zap.Error(err))
		return nil, err
	}

	s.audit.Record(ctx, audit.ActionSettingsUpdate, "settings", "", input)
	return s.Get(ctx)
}
