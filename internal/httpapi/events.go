package httpapi

import (
	"net/http"

	"azbeauty-be/internal/apperror"
	"azbeauty-be/internal/marketing"
	"azbeauty-be/internal/respond"
	"azbeauty-be/internal/validation"
)

const maxEventBytes = 64 << 10

type EventsHandler struct {
	Marketing marketing.Service
}

func NewEventsHandler(svc marketing.Service) *EventsHandler {
	return &EventsHandler{Marketing: svc}
}

// Track is POST /api/events. Rate limiting is applied by the router.
func (h *EventsHandler) Track(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, maxEventBytes)
	var input marketing.EventInput
	if err := validation.DecodeJSONBody(r, &input); err != nil {
		respond.Error(ctx, w, invalidPayload(err))
		return
	}

	if _, err := h.Marketing.Track(ctx, input); err != nil {
		respond.Error(ctx, w, invalidPayload(err))
		return
	}
	respond.JSON(w, http.StatusCreated, map[string]bool{"ok": true})
}

func invalidPayload(err error) error {
	typed := apperror.As(err)
	if typed == nil || typed.Code() != apperror.CodeValidation {
		return err
	}
	return apperror.Wrap(apperror.CodeValidation, err, "Invalid payload").WithDetails(typed.Details())
}
