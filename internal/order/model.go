package order

import (
	"encoding/json"
	"time"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusPaid       Status = "paid"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
)

const DefaultPaymentMethod = "qpay"

type Order struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	Subtotal        int64           `json:"subtotal"`
	Discount        int64           `json:"discount"`
	ShippingCost    int64           `json:"shipping_cost"`
	Total           int64           `json:"total"`
	Status          Status          `json:"status"`
	PaymentMethod   string          `json:"payment_method"`
	PaymentStatus   PaymentStatus   `json:"payment_status"`
	InternalNotes   *string         `json:"internal_notes"`
	QPayInvoiceID   *string         `json:"qpay_invoice_id"`
	QPayQRText      *string         `json:"qpay_qr_text"`
	QPayURLs        json.RawMessage `json:"qpay_urls"`
	ShippingAddress json.RawMessage `json:"shipping_address"`
	CustomerInfo    json.RawMessage `json:"customer_info"`
	CouponID        *string         `json:"coupon_id"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	Items           []*OrderItem    `json:"order_items"`
}

// OrderItem is a snapshot of the purchased line; later catalog edits never touch it.
type OrderItem struct {
	ID          string    `json:"id"`
	OrderID     string    `json:"order_id"`
	ProductID   string    `json:"product_id"`
	ProductName string    `json:"product_name"`
	Quantity    int       `json:"quantity"`
	Price       int64     `json:"price"`
	CreatedAt   time.Time `json:"created_at"`
}

type ItemInput struct {
	ProductID   string `json:"product_id" validate:"required,uuid"`
	ProductName string `json:"product_name" validate:"required"`
	Quantity    int    `json:"quantity" validate:"gte=1,lte=10000"`
	Price       int64  `json:"price" validate:"gte=0,lte=1000000000000"`
}

type CreateInput struct {
	Subtotal        int64          `json:"subtotal" validate:"gte=0"`
	ShippingCost    int64          `json:"shipping_cost" validate:"gte=0,lte=1000000000000"`
	Total           *int64         `json:"total" validate:"omitempty,gte=0"`
	PaymentMethod   *string        `json:"payment_method" validate:"omitempty,max=50"`
	ShippingAddress map[string]any `json:"shipping_address" validate:"required"`
	CustomerInfo    map[string]any `json:"customer_info" validate:"required"`
	Items           []ItemInput    `json:"items" validate:"required,min=1,max=100,dive"`
	CouponCode      *string        `json:"coupon_code" validate:"omitempty,max=50"`
}

type UpdateStatusInput struct {
	OrderID       string  `json:"order_id" validate:"required,uuid"`
	Status        *string `json:"status" validate:"omitempty,oneof=pending paid processing shipped delivered cancelled"`
	PaymentStatus *string `json:"payment_status" validate:"omitempty,oneof=pending paid failed"`
	InternalNotes *string `json:"internal_notes" validate:"omitempty,max=2000"`
}

// Invoice is the QPay invoice data stored on the order for the checkout page.
type Invoice struct {
	InvoiceID string
	QRText    string
	URLs      json.RawMessage
}
