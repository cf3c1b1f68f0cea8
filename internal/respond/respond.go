package respond

import (
	"context"
	"encoding/json"
	"net/http"

	"azbeauty-be/internal/apperror"
	"azbeauty-be/internal/logger"

	"go.uber.org/zap"
)

type errorBody struct {
	Error  string `json:"error"`
	Code   string `json:"code,omitempty"`
	Issues any    `json:"issues,omitempty"`
}

func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.L().Error("failed to encode response", zap.Error(err))
	}
}

// Error writes err as {"error": ...} with the status of its code. Internal causes are logged, not returned.
func Error(ctx context.Context, w http.ResponseWriter, err error) {
	code := apperror.CodeOf(err)
	body := errorBody{Error: apperror.PublicMessage(err), Code: string(code)}
	if typed := apperror.As(err); typed != nil && code == apperror.CodeValidation {
		body.Issues = typed.Details()
	}

	status := apperror.HTTPStatus(code)
	if status >= http.StatusInternalServerError {
		logger.FromCtx(ctx).Error("request failed", zap.String("code", string(code)), zap.Error(err))
	}
	JSON(w, status, body)
}
