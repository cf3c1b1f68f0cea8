package httpapi

import (
	"net/http"

	"azbeauty-be/internal/apperror"
	"azbeauty-be/internal/auth"
	"azbeauty-be/internal/payment"
	"azbeauty-be/internal/respond"
	"azbeauty-be/internal/validation"
)

type PaymentHandler struct {
	Payments payment.Service
}

func NewPaymentHandler(payments payment.Service) *PaymentHandler {
	return &PaymentHandler{Payments: payments}
}

// Create is POST /api/payments/qpay/create.
func (h *PaymentHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if auth.PrincipalFrom(ctx) == nil {
		respond.Error(ctx, w, apperror.Unauthorized("Unauthorized"))
		return
	}

	var req payment.CreateRequest
	if err := validation.DecodeJSONBody(r, &req); err != nil {
		respond.Error(ctx, w, err)
		return
	}

	inv, err := h.Payments.CreateForOrder(ctx, req)
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	respond.JSON(w, http.StatusOK, inv)
}

// Check is GET /api/payments/qpay/check?invoice_id=.
func (h *PaymentHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if auth.PrincipalFrom(ctx) == nil {
		respond.Error(ctx, w, apperror.Unauthorized("Unauthorized"))
		return
	}

	res, err := h.Payments.Check(ctx, r.URL.Query().Get("invoice_id"))
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	respond.JSON(w, http.StatusOK, res)
}
