package payment

import (
	"time"
)

// Status is the state of a row in the payments table.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
)

// InvoiceStatus is what a payment check reports for a QPay invoice.
type InvoiceStatus string

const (
	InvoicePending   InvoiceStatus = "PENDING"
	InvoicePaid      InvoiceStatus = "PAID"
	InvoiceCancelled InvoiceStatus = "CANCELLED"
	InvoiceExpired   InvoiceStatus = "EXPIRED"
)

type Payment struct {
	ID            string    `json:"id"`
	OrderID       string    `json:"order_id"`
	QPayInvoiceID string    `json:"qpay_invoice_id"`
	Amount        int64     `json:"amount"`
	Status        Status    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type CreateInvoiceParams struct {
	SenderInvoiceNo     string
	InvoiceReceiverCode string
	InvoiceDescription  string
	Amount              int64
	CallbackURL         string
}

type InvoiceURL struct {
	Name string `json:"name"`
	Logo string `json:"logo"`
	Link string `json:"link"`
}

type Invoice struct {
	InvoiceID string       `json:"invoice_id"`
	QRText    string       `json:"qr_text"`
	QRImage   string       `json:"qr_image"`
	URLs      []InvoiceURL `json:"urls"`
}

type CheckResult struct {
	Status    InvoiceStatus `json:"status"`
	PaymentID string        `json:"payment_id,omitempty"`
}

// CreateRequest is the body of POST /api/payments/qpay/create.
type CreateRequest struct {
	OrderID     string `json:"orderId" validate:"required,uuid"`
	Amount      *int64 `json:"amount" validate:"required,gt=0"`
	Description string `json:"description" validate:"max=255"`
}

// WebhookPayload is the body QPay posts to the callback URL.
type WebhookPayload struct {
	ObjectID      string `json:"object_id"`
	PaymentStatus string `json:"payment_status"`
}

// StatusFromVendor maps a QPay payment_status to the payments table status.
func StatusFromVendor(vendor string) Status {
	switch vendor {
	case "PAID":
		return StatusPaid
	case "CANCEL":
		return StatusCancelled
	default:
		return StatusPending
	}
}
