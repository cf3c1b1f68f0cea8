package product

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

const (
	defaultPublicLimit = 20
	defaultAdminLimit  = 50
	maxLimit           = 100
)

type Service interface {
	Products(ctx context.Context, opts ListOptions) ([]*Product, error)
	// ProductBySlug returns nil when no product has the slug.
	ProductBySlug(ctx context.Context, slug string) (*Product, error)
	AdminProducts(ctx context.Context, f Filter, limit, offset int) ([]*Product, error)
	AdminProductsTotal(ctx context.Context, f Filter) (int, error)
	AdminProduct(ctx context.Context, id string) (*Product, error)
	Create(ctx context.Context, input CreateInput) (*Product, error)
	Update(ctx context.Context, input UpdateInput) (*Product, error)
	Delete(ctx context.Context, id string) error
}

type service struct {
	repo  Repository
	audit audit.Recorder
}

func NewService(repo Repository, recorder audit.Recorder) Service {
	return &service{repo: repo, audit: recorder}
}

func clamp(limit, offset, def int) (int, int) {
	if limit <= 0 {
		limit = def
	} else if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (s *service) Products(ctx context.Context, opts ListOptions) ([]*Product, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Products"),
	)

	start := time.Now()

	if opts.Sort == "" {
		opts.Sort = SortNewest
	}
	if _, ok := orderBy[opts.Sort]; !ok {
		return nil, apperror.Validation("sort must be one of newest price_asc price_desc name")
	}
	opts.Limit, opts.Offset = clamp(opts.Limit, opts.Offset, defaultPublicLimit)

	products, err := s.repo.List(ctx, opts)
	if err != nil {
		log.Error("failed to fetch products", zap.Error(err), zap.Duration("duration", time.Since(start)))
		return nil, err
	}

	log.Debug("products listed",
		zap.Int("count", len(products)),
		zap.String("sort", string(opts.Sort)),
		zap.Duration("duration", time.Since(start)),
	)
	return products, nil
}

func (s *service) ProductBySlug(ctx context.Context, slug string) (*Product, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, nil
	}
	p, err := s.repo.GetBySlug(ctx, slug)
	if errors.Is(err, ErrProductNotFound) {
		return nil, nil
	}
	return p, err
}

func (s *service) AdminProducts(ctx context.Context, f Filter, limit, offset int) ([]*Product, error) {
	limit, offset = clamp(limit, offset, defaultAdminLimit)
	// the admin grid filters by catalog fields only
	f.InStock, f.IsFeatured = nil, nil
	return s.repo.List(ctx, ListOptions{Filter: f, Sort: SortNewest, Limit: limit, Offset: offset})
}

func (s *service) AdminProductsTotal(ctx context.Context, f Filter) (int, error) {
	f.InStock, f.IsFeatured = nil, nil
	return s.repo.Count(ctx, f)
}

func (s *service) AdminProduct(ctx context.Context, id string) (*Product, error) {
	if err := validation.Var("id", id, "required,uuid"); err != nil {
		return nil, err
	}
	p, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, ErrProductNotFound) {
		return nil, nil
	}
	return p, err
}

func (s *service) Create(ctx context.Context, input CreateInput) (*Product, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "CreateProduct"),
	)

	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	p := &Product{
		Name:          strings.TrimSpace(input.Name),
		Brand:         input.Brand,
		Category:      input.Category,
		Price:         input.Price,
		OriginalPrice: input.OriginalPrice,
		CostPrice:     input.CostPrice,
		Image:         PlaceholderImage,
		Images:        input.Images,
		Barcode:       input.Barcode,
		StockQuantity: input.StockQuantity,
		InStock:       input.StockQuantity > 0,
		Description:   input.Description,
		SkinType:      orEmpty(input.SkinType),
		Benefits:      orEmpty(input.Benefits),
		IsFeatured:    input.IsFeatured,
		IsNew:         input.IsNew,
		IsBestseller:  input.IsBestseller,
	}
	if p.Category == "" {
		p.Category = DefaultCategory
	}
	if input.Image != nil && *input.Image != "" {
		p.Image = *input.Image
	}
	if input.Slug != nil && strings.TrimSpace(*input.Slug) != "" {
		p.Slug = Slugify(*input.Slug)
	} else {
		p.Slug = Slugify(p.Name)
	}

	if err := s.repo.Create(ctx, p); err != nil {
		if errors.Is(err, ErrDuplicateSlug) {
			return nil, apperror.Wrap(apperror.CodeConflict, err, "Product slug already exists")
		}
		return nil, err
	}

	s.audit.Record(ctx, audit.ActionProductCreate, "product", p.ID, map[string]any{
		"slug":           p.Slug,
		"stock_quantity": p.StockQuantity,
	})
	log.Info("product created", zap.String("product_id", p.ID), zap.String("slug", p.Slug))
	return p, nil
}

func (s *service) Update(ctx context.Context, input UpdateInput) (*Product, error) {
	if input.StockQuantity != nil {
		return nil, apperror.Validation("stock_quantity cannot be updated directly").
			WithDetails(map[string]string{"stock_quantity": "use adjustInventory"})
	}
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	if input.Slug != nil {
		slug := Slugify(*input.Slug)
		input.Slug = &slug
	}

	p, err := s.repo.Update(ctx, input)
	switch {
	case errors.Is(err, ErrProductNotFound):
		return nil, apperror.Wrap(apperror.CodeNotFound, err, "Product not found")
	case errors.Is(err, ErrDuplicateSlug):
		return nil, apperror.Wrap(apperror.CodeConflict, err, "Product slug already exists")
	case err != nil:
		return nil, err
	}

	s.audit.Record(ctx, audit.ActionProductUpdate, "product", p.ID, input)
	return p, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	if err := validation.Var("id", id, "required,uuid"); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return apperror.Wrap(apperror.CodeNotFound, err, "Product not found")
		}
		return err
	}
	s.audit.Record(ctx, audit.ActionProductDelete, "product", id, nil)
	return nil
}

func orEmpty(a []string) []string {
	if a == nil {
		return []string{}
	}
	return a
}
