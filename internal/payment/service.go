package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"azbeauty-be/internal/apperror"
	"azbeauty-be/internal/audit"
	"azbeauty-be/internal/auth"
	"azbeauty-be/internal/logger"
	"azbeauty-be/internal/metrics"
	"azbeauty-be/internal/order"
	"azbeauty-be/internal/validation"

	"go.uber.org/zap"
)

type Service interface {
	// CreateForOrder issues a QPay invoice for one of the caller's unpaid orders.
	CreateForOrder(ctx context.Context, req CreateRequest) (*Invoice, error)
	Check(ctx context.Context, invoiceID string) (*CheckResult, error)
	// HandleWebhook records a vendor status and marks the order paid when it is.
	HandleWebhook(ctx context.Context, payload WebhookPayload) (Status, error)
}

// Orders is the part of the order service payments drive.
type Orders interface {
	GetForUser(ctx context.Context, id, userID string) (*order.Order, error)
	AttachInvoice(ctx context.Context, id string, inv order.Invoice) error
	MarkPaid(ctx context.Context, id string) (*order.Order, error)
}

type service struct {
	repo    Repository
	gateway Gateway
	orders  Orders
	audit   audit.Recorder
	metrics *metrics.Metrics
}

func NewService(repo Repository, gateway Gateway, orders Orders, recorder audit.Recorder, m *metrics.Metrics) Service {
	return &service{repo: repo, gateway: gateway, orders: orders, audit: recorder, metrics: m}
}

func vendorError(err error) error {
	var ve *VendorError
	if errors.As(err, &ve) || errors.Is(err, ErrAuthFailed) {
		return apperror.Wrap(apperror.CodeDependency, err, err.Error())
	}
	return err
}

func (s *service) CreateForOrder(ctx context.Context, req CreateRequest) (*Invoice, error) {
	p := auth.PrincipalFrom(ctx)
	if p == nil {
		return nil, apperror.Unauthorized("Unauthorized")
	}
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "CreateForOrder"),
		zap.String("order_id", req.OrderID),
	)

	o, err := s.orders.GetForUser(ctx, req.OrderID, p.UserID)
	if err != nil {
		return nil, err
	}
	if o.PaymentStatus == order.PaymentStatusPaid {
		return nil, apperror.Validation("Order already paid")
	}
	if *req.Amount != o.Total {
		log.Warn("invoice amount differs from order total",
			zap.Int64("amount", *req.Amount),
			zap.Int64("total", o.Total),
		)
		return nil, apperror.Validation("amount does not match order total")
	}

	description := req.Description
	if description == "" {
		description = fmt.Sprintf("AZ Beauty - Захиалга #%s", req.OrderID[:8])
	}

	inv, err := s.gateway.CreateInvoice(ctx, CreateInvoiceParams{
		SenderInvoiceNo:     req.OrderID,
		InvoiceReceiverCode: p.UserID,
		InvoiceDescription:  description,
		Amount:              o.Total,
		CallbackURL:         s.gateway.CallbackURL(req.OrderID),
	})
	if err != nil {
		return nil, vendorError(err)
	}

	if err := s.repo.Insert(ctx, &Payment{
		OrderID:       req.OrderID,
		QPayInvoiceID: inv.InvoiceID,
		Amount:        o.Total,
		Status:        StatusPending,
	}); err != nil {
		return nil, err
	}

	urls, err := json.Marshal(inv.URLs)
	if err != nil {
		return nil, err
	}
	if err := s.orders.AttachInvoice(ctx, req.OrderID, order.Invoice{
		InvoiceID: inv.InvoiceID,
		QRText:    inv.QRText,
		URLs:      urls,
	}); err != nil {
		return nil, err
	}

	s.metrics.PaymentEvent("invoice_created", string(StatusPending))
	log.Info("invoice issued", zap.String("invoice_id", inv.InvoiceID))
	return inv, nil
}

func (s *service) Check(ctx context.Context, invoiceID string) (*CheckResult, error) {
	if invoiceID == "" {
		return nil, apperror.Validation("Missing invoice_id")
	}
	res, err := s.gateway.CheckInvoice(ctx, invoiceID)
	if err != nil {
		return nil, vendorError(err)
	}
	return res, nil
}

func (s *service) HandleWebhook(ctx context.Context, payload WebhookPayload) (Status, error) {
	if payload.ObjectID == "" {
		return "", apperror.Validation("Missing object_id")
	}

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "HandleWebhook"),
		zap.String("invoice_id", payload.ObjectID),
		zap.String("vendor_status", payload.PaymentStatus),
	)

	p, err := s.repo.GetByInvoiceID(ctx, payload.ObjectID)
	if errors.Is(err, ErrPaymentNotFound) {
		log.Warn("webhook for unknown invoice")
		return "", apperror.Wrap(apperror.CodeNotFound, err, "Payment not found")
	}
	if err != nil {
		return "", err
	}

	status := StatusFromVendor(payload.PaymentStatus)
	if err := s.repo.UpdateStatus(ctx, payload.ObjectID, status); err != nil {
		log.Error("failed to update payment status", zap.Error(err))
		return "", err
	}
	s.metrics.PaymentEvent("webhook", string(status))

	if status == StatusPaid {
		if _, err := s.orders.MarkPaid(ctx, p.OrderID); err != nil {
			log.Error("failed to mark order paid", zap.String("order_id", p.OrderID), zap.Error(err))
			return "", err
		}
		s.audit.Record(ctx, audit.ActionPaymentConfirmed, "order", p.OrderID, map[string]any{
			"invoice_id": payload.ObjectID,
			"amount":     p.Amount,
		})
	}

	log.Info("webhook processed", zap.String("status", string(status)))
	return status, nil
}
