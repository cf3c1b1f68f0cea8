package category

import "context"

type Service interface {
	GetCategories(ctx context.Context) ([]*Category, error)
	GetBrands(ctx context.Context) ([]*Brand, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) GetCategories(ctx context.Context) ([]*Category, error) {
	return s.repo.GetCategories(ctx)
}

func (s *service) GetBrands(ctx context.Context) ([]*Brand, error) {
	return s.repo.GetBrands(ctx)
}
