package order

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"azbeauty-be/internal/apperror"
	"azbeauty-be/internal/audit"
	"azbeauty-be/internal/auth"
	"azbeauty-be/internal/coupon"
	"azbeauty-be/internal/logger"
	"azbeauty-be/internal/metrics"
	"azbeauty-be/internal/notification"
	"azbeauty-be/internal/user"
	"azbeauty-be/internal/validation"

	"go.uber.org/zap"
)

type Service interface {
	CreateOrder(ctx context.Context, input CreateInput) (*Order, error)
	MyOrders(ctx context.Context, limit, offset int) ([]*Order, error)
	AdminOrders(ctx context.Context, status string, limit, offset int) ([]*Order, error)
	AdminOrdersTotal(ctx context.Context, status string) (int, error)
	// AdminOrder returns nil when the order does not exist.
	AdminOrder(ctx context.Context, id string) (*Order, error)
	// GetForUser hides orders owned by someone else behind a not found error.
	GetForUser(ctx context.Context, id, userID string) (*Order, error)
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*Order, error)
	MarkPaid(ctx context.Context, id string) (*Order, error)
	AttachInvoice(ctx context.Context, id string, inv Invoice) error
}

// CouponResolver is the part of the coupon service checkout needs.
type CouponResolver interface {
	Resolve(ctx context.Context, code string, subtotal int64) (*coupon.Coupon, coupon.Result, error)
}

// ProfileLookup resolves the email address notifications go to.
type ProfileLookup interface {
	GetByID(ctx context.Context, id string) (*user.Profile, error)
}

type service struct {
	repo     Repository
	coupons  CouponResolver
	profiles ProfileLookup
	notifier notification.Notifier
	audit    audit.Recorder
	metrics  *metrics.Metrics
}

func NewService(
	repo Repository,
	coupons CouponResolver,
	profiles ProfileLookup,
	notifier notification.Notifier,
	recorder audit.Recorder,
	m *metrics.Metrics,
) Service {
	return &service{
		repo:     repo,
		coupons:  coupons,
		profiles: profiles,
		notifier: notifier,
		audit:    recorder,
		metrics:  m,
	}
}

func (s *service) CreateOrder(ctx context.Context, input CreateInput) (*Order, error) {
	p := auth.PrincipalFrom(ctx)
	if p == nil {
		return nil, apperror.Unauthorized("Unauthorized")
	}

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "CreateOrder"),
		zap.String("user_id", p.UserID),
	)

	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	var itemsTotal int64
	for _, it := range input.Items {
		itemsTotal += it.Price * int64(it.Quantity)
	}
	if itemsTotal != input.Subtotal {
		log.Warn("subtotal does not match items",
			zap.Int64("subtotal", input.Subtotal),
			zap.Int64("items_total", itemsTotal),
		)
		return nil, apperror.Validation("subtotal does not match items").
			WithDetails(map[string]string{"subtotal": "must equal the sum of price * quantity"})
	}

	subtotal := input.Subtotal
	var (
		discount int64
		couponID *string
	)
	if input.CouponCode != nil && strings.TrimSpace(*input.CouponCode) != "" {
		c, res, err := s.coupons.Resolve(ctx, *input.CouponCode, input.Subtotal)
		if err != nil {
			log.Error("coupon lookup failed", zap.Error(err))
			return nil, err
		}
		if res.Valid {
			discount = res.Discount
			subtotal = res.FinalSubtotal
			couponID = &c.ID
		} else {
			// checkout continues at full price
			log.Info("coupon ignored",
				zap.String("code", *input.CouponCode),
				zap.String("reason", res.Error),
			)
		}
	}

	address, err := json.Marshal(input.ShippingAddress)
	if err != nil {
		return nil, apperror.Validation("shipping_address is invalid")
	}
	customer, err := json.Marshal(input.CustomerInfo)
	if err != nil {
		return nil, apperror.Validation("customer_info is invalid")
	}

	paymentMethod := DefaultPaymentMethod
	if input.PaymentMethod != nil && *input.PaymentMethod != "" {
		paymentMethod = *input.PaymentMethod
	}

	o := &Order{
		UserID:          p.UserID,
		Subtotal:        subtotal,
		Discount:        discount,
		ShippingCost:    input.ShippingCost,
		Total:           subtotal + input.ShippingCost,
		Status:          StatusPending,
		PaymentMethod:   paymentMethod,
		PaymentStatus:   PaymentStatusPending,
		ShippingAddress: address,
		CustomerInfo:    customer,
		CouponID:        couponID,
		Items:           make([]*OrderItem, 0, len(input.Items)),
	}
	for _, it := range input.Items {
		o.Items = append(o.Items, &OrderItem{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			Price:       it.Price,
		})
	}

	if err := s.repo.Create(ctx, o); err != nil {
		if errors.Is(err, ErrCouponLimitReached) {
			return nil, apperror.Wrap(apperror.CodeConflict, err, coupon.ReasonLimitReached)
		}
		return nil, err
	}

	s.metrics.OrderCreated(couponID != nil)
	s.audit.Record(ctx, audit.ActionOrderCreate, "order", o.ID, map[string]any{
		"total":     o.Total,
		"discount":  o.Discount,
		"coupon_id": couponID,
	})

	if to := s.emailFor(ctx, o.UserID, p.Email); to != "" {
		if err := s.notifier.OrderPlaced(ctx, to, o.ID, o.Total); err != nil {
			log.Warn("order confirmation email failed", zap.String("order_id", o.ID), zap.Error(err))
		}
	}

	return o, nil
}

// emailFor prefers the profile email and falls back to the one from the token.
func (s *service) emailFor(ctx context.Context, userID, fallback string) string {
	profile, err := s.profiles.GetByID(ctx, userID)
	if err == nil && profile != nil && profile.Email != "" {
		return profile.Email
	}
	return fallback
}

func (s *service) MyOrders(ctx context.Context, limit, offset int) ([]*Order, error) {
	p := auth.PrincipalFrom(ctx)
	if p == nil {
		return nil, apperror.Unauthorized("Unauthorized")
	}
	return s.repo.ListByUser(ctx, p.UserID, limit, offset)
}

func (s *service) AdminOrders(ctx context.Context, status string, limit, offset int) ([]*Order, error) {
	return s.repo.List(ctx, status, limit, offset)
}

func (s *service) AdminOrdersTotal(ctx context.Context, status string) (int, error) {
	return s.repo.Count(ctx, status)
}

func (s *service) AdminOrder(ctx context.Context, id string) (*Order, error) {
	if err := validation.Var("id", id, "uuid"); err != nil {
		return nil, err
	}
	o, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, ErrOrderNotFound) {
		return nil, nil
	}
	return o, err
}

func (s *service) GetForUser(ctx context.Context, id, userID string) (*Order, error) {
	if err := validation.Var("order_id", id, "uuid"); err != nil {
		return nil, err
	}
	o, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, ErrOrderNotFound) || (err == nil && o.UserID != userID) {
		return nil, apperror.NotFound("Order not found")
	}
	return o, err
}

func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*Order, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	if input.Status == nil && input.PaymentStatus == nil && input.InternalNotes == nil {
		return nil, apperror.Validation("nothing to update")
	}

	o, err := s.repo.UpdateStatus(ctx, input)
	if errors.Is(err, ErrOrderNotFound) {
		return nil, apperror.Wrap(apperror.CodeNotFound, err, "Order not found")
	}
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.ActionOrderStatus, "order", o.ID, input)

	if input.Status != nil {
		if to := s.emailFor(ctx, o.UserID, ""); to != "" {
			if err := s.notifier.OrderStatusChanged(ctx, to, o.ID, string(o.Status)); err != nil {
				logger.FromCtx(ctx).Warn("order status email failed",
					zap.String("layer", "service"),
					zap.String("order_id", o.ID),
					zap.Error(err),
				)
			}
		}
	}
	return o, nil
}

func (s *service) MarkPaid(ctx context.Context, id string) (*Order, error) {
	o, err := s.repo.MarkPaid(ctx, id)
	if errors.Is(err, ErrOrderNotFound) {
		return nil, apperror.Wrap(apperror.CodeNotFound, err, "Order not found")
	}
	if err != nil {
		return nil, err
	}

	if to := s.emailFor(ctx, o.UserID, ""); to != "" {
		if err := s.notifier.PaymentConfirmed(ctx, to, o.ID, o.Total); err != nil {
			logger.FromCtx(ctx).Warn("payment confirmation email failed",
				zap.String("layer", "service"),
				zap.String("order_id", o.ID),
				zap.Error(err),
			)
		}
	}
	return o, nil
}

func (s *service) AttachInvoice(ctx context.Context, id string, inv Invoice) error {
	err := s.repo.AttachInvoice(ctx, id, inv)
	if errors.Is(err, ErrOrderNotFound) {
		return apperror.Wrap(apperror.CodeNotFound, err, "Order not found")
	}
	return err
}
