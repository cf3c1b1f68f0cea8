package product

import "time"

const PlaceholderImage = "https://via.placeholder.com/300x300?text=No+Image"

const DefaultCategory = "skincare"

type Product struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Slug          string    `json:"slug"`
	Brand         string    `json:"brand"`
	Category      string    `json:"category"`
	Price         int64     `json:"price"`
	OriginalPrice *int64    `json:"original_price"`
	CostPrice     *int64    `json:"cost_price"`
	Image         string    `json:"image"`
	Images        []string  `json:"images"`
	Barcode       *string   `json:"barcode"`
	StockQuantity int       `json:"stock_quantity"`
	InStock       bool      `json:"in_stock"`
	Description   string    `json:"description"`
	SkinType      []string  `json:"skin_type"`
	Benefits      []string  `json:"benefits"`
	IsFeatured    bool      `json:"is_featured"`
	IsNew         bool      `json:"is_new"`
	IsBestseller  bool      `json:"is_bestseller"`
	Rating        float64   `json:"rating"`
	ReviewsCount  int       `json:"reviews_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type Filter struct {
	Category   *string `json:"category"`
	Brand      *string `json:"brand"`
	Search     *string `json:"search"`
	InStock    *bool   `json:"in_stock"`
	IsFeatured *bool   `json:"is_featured"`
}

type Sort string

const (
	SortNewest    Sort = "newest"
	SortPriceAsc  Sort = "price_asc"
	SortPriceDesc Sort = "price_desc"
	SortName      Sort = "name"
)

type ListOptions struct {
	Filter Filter
	Sort   Sort
	Limit  int
	Offset int
}

type CreateInput struct {
	Name          string   `json:"name" validate:"required,min=1,max=200"`
	Slug          *string  `json:"slug" validate:"omitempty,max=200"`
	Brand         string   `json:"brand" validate:"max=100"`
	Category      string   `json:"category" validate:"max=100"`
	Price         int64    `json:"price" validate:"gte=0"`
	OriginalPrice *int64   `json:"original_price" validate:"omitempty,gte=0"`
	CostPrice     *int64   `json:"cost_price" validate:"omitempty,gte=0"`
	Image         *string  `json:"image" validate:"omitempty,url"`
	Images        []string `json:"images" validate:"omitempty,dive,url"`
	Barcode       *string  `json:"barcode" validate:"omitempty,max=64"`
	StockQuantity int      `json:"stock_quantity" validate:"gte=0"`
	Description   string   `json:"description"`
	SkinType      []string `json:"skin_type"`
	Benefits      []string `json:"benefits"`
	IsFeatured    bool     `json:"is_featured"`
	IsNew         bool     `json:"is_new"`
	IsBestseller  bool     `json:"is_bestseller"`
}

// UpdateInput is a partial update. StockQuantity is only decoded so it can be refused;
// stock moves through inventory adjustments.
type UpdateInput struct {
	ID            string   `json:"id" validate:"required,uuid"`
	Name          *string  `json:"name" validate:"omitempty,min=1,max=200"`
	Slug          *string  `json:"slug" validate:"omitempty,min=1,max=200"`
	Brand         *string  `json:"brand" validate:"omitempty,max=100"`
	Category      *string  `json:"category" validate:"omitempty,max=100"`
	Price         *int64   `json:"price" validate:"omitempty,gte=0"`
	OriginalPrice *int64   `json:"original_price" validate:"omitempty,gte=0"`
	CostPrice     *int64   `json:"cost_price" validate:"omitempty,gte=0"`
	Image         *string  `json:"image" validate:"omitempty,url"`
	Images        []string `json:"images" validate:"omitempty,dive,url"`
	Barcode       *string  `json:"barcode" validate:"omitempty,max=64"`
	StockQuantity *int     `json:"stock_quantity"`
	Description   *string  `json:"description"`
	SkinType      []string `json:"skin_type"`
	Benefits      []string `json:"benefits"`
	IsFeatured    *bool    `json:"is_featured"`
	IsNew         *bool    `json:"is_new"`
	IsBestseller  *bool    `json:"is_bestseller"`
}
