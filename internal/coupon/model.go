package coupon

import "time"

type Type string

const (
	TypePercent Type = "percent"
	TypeFixed   Type = "fixed"
)

type Coupon struct {
	ID             string     `json:"id"`
	Code           string     `json:"code"`
	Type           Type       `json:"type"`
	Value          int64      `json:"value"`
	MinOrderAmount *int64     `json:"min_order_amount"`
	MaxUses        *int64     `json:"max_uses"`
	UsedCount      int64      `json:"used_count"`
	ValidFrom      *time.Time `json:"valid_from"`
	ValidUntil     *time.Time `json:"valid_until"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Result is the outcome of applying a coupon to a subtotal.
type Result struct {
	Valid         bool   `json:"valid"`
	Discount      int64  `json:"discount"`
	FinalSubtotal int64  `json:"finalSubtotal"`
	Error         string `json:"error,omitempty"`
}

type CreateInput struct {
	Code           string  `json:"code" validate:"required,min=1,max=50"`
	Type           string  `json:"type" validate:"required,oneof=percent fixed"`
	Value          int64   `json:"value" validate:"gte=0"`
	MinOrderAmount *int64  `json:"min_order_amount" validate:"omitempty,gte=0"`
	MaxUses        *int64  `json:"max_uses" validate:"omitempty,gte=0"`
	ValidFrom      *string `json:"valid_from"`
	ValidUntil     *string `json:"valid_until"`
}

type UpdateInput struct {
	ID             string  `json:"id" validate:"required,uuid"`
	Code           *string `json:"code" validate:"omitempty,min=1,max=50"`
	Type           *string `json:"type" validate:"omitempty,oneof=percent fixed"`
	Value          *int64  `json:"value" validate:"omitempty,gte=0"`
	MinOrderAmount *int64  `json:"min_order_amount" validate:"omitempty,gte=0"`
	MaxUses        *int64  `json:"max_uses" validate:"omitempty,gte=0"`
	ValidFrom      *string `json:"valid_from"`
	ValidUntil     *string `json:"valid_until"`

	// Clear flags drop a limit back to unlimited. An empty date string does the same for the window.
	ClearMinOrderAmount bool `json:"clear_min_order_amount"`
	ClearMaxUses        bool `json:"clear_max_uses"`
}
