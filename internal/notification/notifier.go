package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"azbeauty-be/internal/logger"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Notifier sends transactional emails. Callers treat every error as best effort.
type Notifier interface {
	OrderPlaced(ctx context.Context, to, orderID string, total int64) error
	PaymentConfirmed(ctx context.Context, to, orderID string, total int64) error
	OrderStatusChanged(ctx context.Context, to, orderID, status string) error
}

const (
	resendBaseURL = "https://api.resend.com"

	// Resend accepts two requests per second per API key.
	resendRate  = 2
	resendBurst = 2
)

type resendNotifier struct {
	apiKey     string
	from       string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// New returns a Resend-backed notifier, or Nop when no API key is configured.
func New(apiKey, from string) Notifier {
	if apiKey == "" {
		logger.L().Warn("RESEND_API_KEY is empty, emails are disabled")
		return Nop{}
	}
	return &resendNotifier{
		apiKey:  apiKey,
		from:    from,
		baseURL: resendBaseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(resendRate), resendBurst),
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func (n *resendNotifier) OrderPlaced(ctx context.Context, to, orderID string, total int64) error {
	return n.send(ctx, to,
		fmt.Sprintf("Захиалга баталгаажлаа #%s", shortID(orderID)),
		fmt.Sprintf("<p>Таны захиалга амжилттай хүлээн авлаа. Дүн: %d₮. Захиалга #%s.</p>", total, shortID(orderID)),
	)
}

func (n *resendNotifier) PaymentConfirmed(ctx context.Context, to, orderID string, total int64) error {
	return n.send(ctx, to,
		fmt.Sprintf("Төлбөр төлөгдлөө - Захиалга #%s", shortID(orderID)),
		fmt.Sprintf("<p>Таны төлбөр амжилттай төлөгдлөө. Дүн: %d₮. Захиалга #%s.</p>", total, shortID(orderID)),
	)
}

func (n *resendNotifier) OrderStatusChanged(ctx context.Context, to, orderID, status string) error {
	return n.send(ctx, to,
		fmt.Sprintf("Захиалгын төлөв шинэчлэгдлээ #%s", shortID(orderID)),
		fmt.Sprintf("<p>Захиалга #%s одоо: %s.</p>", shortID(orderID), status),
	)
}

type sendEmailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

func (n *resendNotifier) send(ctx context.Context, to, subject, html string) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "notification"),
		zap.String("subject", subject),
	)

	if err := n.limiter.Wait(ctx); err != nil {
		log.Warn("email throttled", zap.Error(err))
		return fmt.Errorf("resend throttle: %w", err)
	}

	body, err := json.Marshal(sendEmailRequest{From: n.from, To: []string{to}, Subject: subject, HTML: html})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+n.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		log.Warn("resend request failed", zap.Error(err))
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		log.Warn("resend returned non-success status",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("response", respBody),
		)
		return fmt.Errorf("resend error: status %d: %s", resp.StatusCode, respBody)
	}

	log.Debug("email sent")
	return nil
}

// Nop drops every notification.
type Nop struct{}

func (Nop) OrderPlaced(context.Context, string, string, int64) error         { return nil }
func (Nop) PaymentConfirmed(context.Context, string, string, int64) error    { return nil }
func (Nop) OrderStatusChanged(context.Context, string, string, string) error { return nil }
