package payment

import "context"

// Gateway is the QPay merchant API as the checkout uses it.
type Gateway interface {
	GetToken(ctx context.Context) (string, error)
	CreateInvoice(ctx context.Context, params CreateInvoiceParams) (*Invoice, error)
	CheckInvoice(ctx context.Context, invoiceID string) (*CheckResult, error)
	CallbackURL(orderID string) string
}
