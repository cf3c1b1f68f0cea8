package settings

const (
	KeyStoreName             = "store_name"
	KeyLogoURL               = "logo_url"
	KeyShippingRate          = "shipping_rate"
	KeyFreeShippingThreshold = "free_shipping_threshold"
	KeyTaxRate               = "tax_rate"
)

const (
	DefaultShippingRate          int64 = 5000
	DefaultFreeShippingThreshold int64 = 60000
)

type Settings struct {
	StoreName             *string  `json:"store_name"`
	LogoURL               *string  `json:"logo_url"`
	ShippingRate          *int64   `json:"shipping_rate"`
	FreeShippingThreshold *int64   `json:"free_shipping_threshold"`
	TaxRate               *float64 `json:"tax_rate"`
}

type UpdateInput struct {
	StoreName             *string  `json:"store_name" validate:"omitempty,max=200"`
	LogoURL               *string  `json:"logo_url" validate:"omitempty,url"`
	ShippingRate          *int64   `json:"shipping_rate" validate:"omitempty,gte=0"`
	FreeShippingThreshold *int64   `json:"free_shipping_threshold" validate:"omitempty,gte=0"`
	TaxRate               *float64 `json:"tax_rate" validate:"omitempty,gte=0,lte=1"`
}
