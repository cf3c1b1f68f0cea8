package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

type MockRoundTripper func(req *http.Request) (*http.Response, error)

func (f MockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func newTestNotifier(rt http.RoundTripper) *resendNotifier {
	n := New("re_test", "Shop <noreply@shop.mn>").(*resendNotifier)
	n.httpClient.Transport = rt
	return n
}

func TestNew_NoKeyIsNop(t *testing.T) {
	_, ok := New("", "x").(Nop)
	assert.True(t, ok)
}

func TestResendNotifier_OrderPlaced(t *testing.T) {
	var captured sendEmailRequest
	n := newTestNotifier(MockRoundTripper(func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "https://api.resend.com/emails", req.URL.String())
		assert.Equal(t, "Bearer re_test", req.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(req.Body).Decode(&captured))
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(bytes.NewBufferString(`{"id":"email-1"}`)),
			Header:     make(http.Header),
		}, nil
	}))

	err := n.OrderPlaced(context.Background(), "jane@example.com", "1234567890abcdef", 53000)
	require.NoError(t, err)
	assert.Equal(t, []string{"jane@example.com"}, captured.To)
	assert.Equal(t, "Shop <noreply@shop.mn>", captured.From)
	assert.Contains(t, captured.Subject, "#12345678")
	assert.Contains(t, captured.HTML, "53000₮")
}

func TestResendNotifier_Errors(t *testing.T) {
	t.Run("non-2xx", func(t *testing.T) {
		n := newTestNotifier(MockRoundTripper(func(req *http.Request) (*http.Response, error) {
			return &http.Response{
				StatusCode: http.StatusUnprocessableEntity,
				Body:       io.NopCloser(bytes.NewBufferString(`{"message":"invalid from"}`)),
				Header:     make(http.Header),
			}, nil
		}))
		err := n.OrderStatusChanged(context.Background(), "a@b.c", "o-1", "shipped")
		assert.ErrorContains(t, err, "invalid from")
	})

	t.Run("transport", func(t *testing.T) {
		n := newTestNotifier(MockRoundTripper(func(req *http.Request) (*http.Response, error) {
			return nil, errors.New("dial tcp: timeout")
		}))
		err := n.PaymentConfirmed(context.Background(), "a@b.c", "o-1", 100)
		assert.Error(t, err)
	})
}

func TestResendNotifier_Throttle(t *testing.T) {
	calls := 0
	n := newTestNotifier(MockRoundTripper(func(req *http.Request) (*http.Response, error) {
		calls++
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(bytes.NewBufferString(`{}`)),
			Header:     make(http.Header),
		}, nil
	}))
	n.limiter = rate.NewLimiter(rate.Every(time.Hour), 1)

	require.NoError(t, n.OrderPlaced(context.Background(), "a@b.c", "o-1", 100))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err := n.OrderPlaced(ctx, "a@b.c", "o-2", 100)
	assert.ErrorContains(t, err, "resend throttle")
	assert.Equal(t, 1, calls, "throttled email never reaches the API")
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "abc", shortID("abc"))
	assert.Equal(t, "abcdefgh", shortID("abcdefghijk"))
}
