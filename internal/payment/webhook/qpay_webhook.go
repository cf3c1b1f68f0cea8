package webhook

import (
	"encoding/json"
	"net/http"

	"azbeauty-be/internal/apperror"
	"azbeauty-be/internal/logger"
	"azbeauty-be/internal/payment"
	"azbeauty-be/internal/respond"

	"go.uber.org/zap"
)

// Handler receives QPay payment callbacks.
type Handler struct {
	Payments payment.Service
}

func NewWebhookHandler(payments payment.Service) *Handler {
	return &Handler{Payments: payments}
}

// QPayWebhook is mounted at POST /api/payments/qpay/webhook. QPay appends ?order_id=, the body is authoritative.
func (h *Handler) QPayWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "webhook"),
		zap.String("order_id", r.URL.Query().Get("order_id")),
	)

	var payload payment.WebhookPayload
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&payload); err != nil {
		log.Warn("invalid webhook body", zap.Error(err))
		respond.Error(ctx, w, apperror.Validation("Missing object_id"))
		return
	}

	log.Info("QPay webhook received",
		zap.String("invoice_id", payload.ObjectID),
		zap.String("payment_status", payload.PaymentStatus),
	)

	if _, err := h.Payments.HandleWebhook(ctx, payload); err != nil {
		respond.Error(ctx, w, err)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}
