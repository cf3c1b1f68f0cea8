package user

import (
	"context"
	"errors"

	"azbeauty-be/internal/apperror"
	"azbeauty-be/internal/audit"
	"azbeauty-be/internal/auth"
	"azbeauty-be/internal/logger"
	"azbeauty-be/internal/validation"

	"go.uber.org/zap"
)

type Service interface {
	// Me returns the caller's profile, or nil for anonymous callers and callers without one.
	Me(ctx context.Context) (*Profile, error)
	GetByID(ctx context.Context, id string) (*Profile, error)
	UpsertIfMissing(ctx context.Context, input UpsertProfileInput) (*Profile, bool, error)
	BootstrapOwner(ctx context.Context) error
	Customers(ctx context.Context, limit, offset int) ([]*Customer, error)
	CustomersTotal(ctx context.Context) (int, error)
}

type service struct {
	repo  Repository
	audit audit.Recorder
}

func NewService(repo Repository, recorder audit.Recorder) Service {
	return &service{repo: repo, audit: recorder}
}

func (s *service) Me(ctx context.Context) (*Profile, error) {
	p := auth.PrincipalFrom(ctx)
	if p == nil {
		return nil, nil
	}
	profile, err := s.repo.GetByID(ctx, p.UserID)
	if errors.Is(err, ErrProfileNotFound) {
		return nil, nil
	}
	return profile, err
}

func (s *service) GetByID(ctx context.Context, id string) (*Profile, error) {
	profile, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, ErrProfileNotFound) {
		return nil, apperror.Wrap(apperror.CodeNotFound, err, "Profile not found")
	}
	return profile, err
}

func (s *service) UpsertIfMissing(ctx context.Context, input UpsertProfileInput) (*Profile, bool, error) {
	p := auth.PrincipalFrom(ctx)
	if p == nil {
		return nil, false, apperror.Unauthorized("Unauthorized")
	}
	if err := validation.Struct(input); err != nil {
		return nil, false, err
	}

	id := p.UserID
	if input.ID != nil && *input.ID != "" {
		id = *input.ID
	}
	if id != p.UserID {
		logger.FromCtx(ctx).Warn("profile upsert for another user rejected",
			zap.String("layer", "service"),
			zap.String("target_id", id),
		)
		return nil, false, apperror.Forbidden("Forbidden")
	}

	// the token's email fills a brand new profile when the client sends none
	if input.Email == nil && p.Email != "" {
		email := p.Email
		input.Email = &email
	}
	return s.repo.Upsert(ctx, id, input)
}

func (s *service) BootstrapOwner(ctx context.Context) error {
	p := auth.PrincipalFrom(ctx)
	if p == nil {
		return apperror.Unauthorized("Unauthorized")
	}

	err := s.repo.PromoteToOwner(ctx, p.UserID)
	switch {
	case errors.Is(err, ErrOwnerExists):
		return apperror.Wrap(apperror.CodeValidation, err, "Owner already exists")
	case errors.Is(err, ErrProfileNotFound):
		return apperror.Wrap(apperror.CodeNotFound, err, "Profile not found")
	case err != nil:
		return err
	}

	s.audit.Record(ctx, audit.ActionBootstrapOwner, "profile", p.UserID, nil)
	logger.FromCtx(ctx).Info("owner bootstrapped", zap.String("layer", "service"))
	return nil
}

func (s *service) Customers(ctx context.Context, limit, offset int) ([]*Customer, error) {
	return s.repo.ListCustomers(ctx, limit, offset)
}

func (s *service) CustomersTotal(ctx context.Context) (int, error) {
	return s.repo.CountCustomers(ctx)
}
