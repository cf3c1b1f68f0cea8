package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"azbeauty-be/internal/logger"

	"go.uber.org/zap"
)

// ErrAuthFailed is returned when QPay rejects the merchant credentials.
var ErrAuthFailed = errors.New("QPay auth failed")

// tokenSafetyMargin is subtracted from expires_in so a token is never used right at its expiry.
const tokenSafetyMargin = 60 * time.Second

// VendorError carries a non-2xx QPay response.
type VendorError struct {
	Op     string
	Status int
	Body   string
}

func (e *VendorError) Error() string {
	return fmt.Sprintf("QPay %s failed: %s", e.Op, e.Body)
}

// TokenStore shares the access token between instances. redisstore.Client satisfies it.
type TokenStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

type QPayConfig struct {
	BaseURL         string
	Username        string
	Password        string
	InvoiceCode     string
	CallbackBaseURL string
}

type Option func(*qpayClient)

func WithHTTPClient(c *http.Client) Option {
	return func(q *qpayClient) { q.httpClient = c }
}

func WithClock(now func() time.Time) Option {
	return func(q *qpayClient) { q.now = now }
}

func WithTokenStore(store TokenStore, key string) Option {
	return func(q *qpayClient) {
		q.store = store
		q.storeKey = key
	}
}

type cachedToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type qpayClient struct {
	cfg        QPayConfig
	httpClient *http.Client
	now        func() time.Time
	store      TokenStore
	storeKey   string

	mu    sync.Mutex
	token cachedToken
}

func NewQPayClient(cfg QPayConfig, opts ...Option) Gateway {
	if cfg.Username == "" || cfg.Password == "" {
		logger.L().Warn("QPay credentials are empty")
	}

	q := &qpayClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(q)
	}
	q.cfg.BaseURL = strings.TrimRight(q.cfg.BaseURL, "/")
	return q
}

// GetToken returns the cached token until tokenSafetyMargin before it expires.
// The lock is held across the fetch so concurrent callers share one request.
func (q *qpayClient) GetToken(ctx context.Context) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	if q.token.Token != "" && now.Before(q.token.ExpiresAt) {
		return q.token.Token, nil
	}

	if t, ok := q.loadSharedToken(ctx, now); ok {
		q.token = t
		return t.Token, nil
	}

	log := logger.FromCtx(ctx).With(zap.String("layer", "qpay"), zap.String("method", "GetToken"))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, q.cfg.BaseURL+"/auth/token", strings.NewReader("{}"))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(q.cfg.Username, q.cfg.Password)
	req.Header.Set("Content-Type", "application/json")

	resp, err := q.httpClient.Do(req)
	if err != nil {
		log.Error("QPay token request failed", zap.Error(err))
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		log.Error("QPay rejected credentials",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("response", body),
		)
		return "", ErrAuthFailed
	}

	var res struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		log.Error("failed decoding QPay token", zap.Error(err))
		return "", err
	}

	q.token = cachedToken{
		Token:     res.AccessToken,
		ExpiresAt: now.Add(time.Duration(res.ExpiresIn)*time.Second - tokenSafetyMargin),
	}
	q.saveSharedToken(ctx, now)

	log.Info("QPay token refreshed", zap.Time("expires_at", q.token.ExpiresAt))
	return q.token.Token, nil
}

func (q *qpayClient) loadSharedToken(ctx context.Context, now time.Time) (cachedToken, bool) {
	if q.store == nil {
		return cachedToken{}, false
	}
	raw, err := q.store.Get(ctx, q.storeKey)
	if err != nil {
		return cachedToken{}, false
	}
	var t cachedToken
	if err := json.Unmarshal([]byte(raw), &t); err != nil || t.Token == "" || !now.Before(t.ExpiresAt) {
		return cachedToken{}, false
	}
	return t, true
}

func (q *qpayClient) saveSharedToken(ctx context.Context, now time.Time) {
	if q.store == nil {
		return
	}
	ttl := q.token.ExpiresAt.Sub(now)
	if ttl <= 0 {
		return
	}
	b, err := json.Marshal(q.token)
	if err != nil {
		return
	}
	if err := q.store.Set(ctx, q.storeKey, string(b), ttl); err != nil {
		logger.FromCtx(ctx).Warn("failed to share QPay token", zap.Error(err))
	}
}

func (q *qpayClient) invalidateToken() {
	q.mu.Lock()
	q.token = cachedToken{}
	q.mu.Unlock()
}

// post sends body to path with the bearer token and decodes a 2xx response into out.
func (q *qpayClient) post(ctx context.Context, op, path string, body, out any) error {
	log := logger.FromCtx(ctx).With(zap.String("layer", "qpay"), zap.String("op", op))

	token, err := q.GetToken(ctx)
	if err != nil {
		return err
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, q.cfg.BaseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := q.httpClient.Do(req)
	if err != nil {
		log.Error("QPay request failed", zap.Error(err))
		return err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read qpay response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if resp.StatusCode == http.StatusUnauthorized {
			q.invalidateToken()
		}
		log.Error("QPay returned non-success status",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("response", bodyBytes),
		)
		return &VendorError{Op: op, Status: resp.StatusCode, Body: string(bodyBytes)}
	}

	if err := json.Unmarshal(bodyBytes, out); err != nil {
		log.Error("failed decoding QPay response", zap.Error(err))
		return err
	}
	return nil
}

func (q *qpayClient) CreateInvoice(ctx context.Context, params CreateInvoiceParams) (*Invoice, error) {
	body := map[string]any{
		"invoice_code":          q.cfg.InvoiceCode,
		"sender_invoice_no":     params.SenderInvoiceNo,
		"invoice_receiver_code": params.InvoiceReceiverCode,
		"invoice_description":   params.InvoiceDescription,
		"amount":                params.Amount,
		"callback_url":          params.CallbackURL,
	}

	var inv Invoice
	if err := q.post(ctx, "create invoice", "/invoice", body, &inv); err != nil {
		return nil, err
	}
	if inv.URLs == nil {
		inv.URLs = []InvoiceURL{}
	}

	logger.FromCtx(ctx).Info("QPay invoice created",
		zap.String("invoice_id", inv.InvoiceID),
		zap.String("sender_invoice_no", params.SenderInvoiceNo),
		zap.Int64("amount", params.Amount),
	)
	return &inv, nil
}

func (q *qpayClient) CheckInvoice(ctx context.Context, invoiceID string) (*CheckResult, error) {
	body := map[string]any{
		"object_type": "INVOICE",
		"object_id":   invoiceID,
		"offset": map[string]int{
			"page_number": 1,
			"page_limit":  100,
		},
	}

	var res struct {
		Rows []struct {
			InvoiceID     string `json:"invoice_id"`
			PaymentStatus string `json:"payment_status"`
			PaymentID     string `json:"payment_id"`
		} `json:"rows"`
	}
	if err := q.post(ctx, "check", "/payment/check", body, &res); err != nil {
		return nil, err
	}

	if len(res.Rows) == 0 {
		return &CheckResult{Status: InvoicePending}, nil
	}

	row := res.Rows[0]
	status := InvoicePending
	switch row.PaymentStatus {
	case "PAID":
		status = InvoicePaid
	case "CANCEL":
		status = InvoiceCancelled
	}
	return &CheckResult{Status: status, PaymentID: row.PaymentID}, nil
}

func (q *qpayClient) CallbackURL(orderID string) string {
	return q.cfg.CallbackBaseURL + "/api/payments/qpay/webhook?order_id=" + url.QueryEscape(orderID)
}
