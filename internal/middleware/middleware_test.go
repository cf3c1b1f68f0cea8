package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"azbeauty-be/internal/apperror"
	"azbeauty-be/internal/auth"
	"azbeauty-be/internal/logger"
	"azbeauty-be/internal/metrics"
	"azbeauty-be/internal/user"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// --- Mocks ---

type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) Verify(raw string) (*auth.Principal, error) {
	args := m.Called(raw)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	p := *args.Get(0).(*auth.Principal)
	return &p, args.Error(1)
}

type MockProfiles struct {
	mock.Mock
}

func (m *MockProfiles) GetByID(ctx context.Context, id string) (*user.Profile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.Profile), args.Error(1)
}

type MockLimiter struct {
	mock.Mock
}

func (m *MockLimiter) Allow(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

// captures the principal the handler sees
func principalProbe(got **auth.Principal) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got = auth.PrincipalFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticate(t *testing.T) {
	const uid = "5b7c1f0e-2a8d-4e3b-9c6f-7d8e9f0a1b2c"

	tests := []struct {
		name     string
		header   string
		setup    func(v *MockVerifier, p *MockProfiles)
		wantRole auth.Role
		wantNil  bool
	}{
		{
			name:    "NoHeader",
			setup:   func(*MockVerifier, *MockProfiles) {},
			wantNil: true,
		},
		{
			name:   "InvalidToken",
			header: "Bearer broken",
			setup: func(v *MockVerifier, _ *MockProfiles) {
				v.On("Verify", "broken").Return(nil, auth.ErrInvalidToken)
			},
			wantNil: true,
		},
		{
			name:   "RoleFromProfile",
			header: "Bearer good",
			setup: func(v *MockVerifier, p *MockProfiles) {
				v.On("Verify", "good").Return(&auth.Principal{UserID: uid}, nil)
				p.On("GetByID", mock.Anything, uid).Return(&user.Profile{ID: uid, Email: "a@b.mn", Role: auth.RoleManager}, nil)
			},
			wantRole: auth.RoleManager,
		},
		{
			name:   "NoProfileYet",
			header: "bearer good",
			setup: func(v *MockVerifier, p *MockProfiles) {
				v.On("Verify", "good").Return(&auth.Principal{UserID: uid}, nil)
				p.On("GetByID", mock.Anything, uid).Return(nil, apperror.NotFound("Profile not found"))
			},
			wantRole: auth.RoleUser,
		},
		{
			name:   "LookupErrorFallsBackToUser",
			header: "Bearer good",
			setup: func(v *MockVerifier, p *MockProfiles) {
				v.On("Verify", "good").Return(&auth.Principal{UserID: uid}, nil)
				p.On("GetByID", mock.Anything, uid).Return(nil, errors.New("db down"))
			},
			wantRole: auth.RoleUser,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, p := new(MockVerifier), new(MockProfiles)
			tt.setup(v, p)

			var got *auth.Principal
			h := Authenticate(v, p)(principalProbe(&got))

			req := httptest.NewRequest(http.MethodPost, "/api/graphql", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			assert.Equal(t, http.StatusOK, rr.Code)
			if tt.wantNil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, uid, got.UserID)
			assert.Equal(t, tt.wantRole, got.Role)
			v.AssertExpectations(t)
			p.AssertExpectations(t)
		})
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"ForwardedFirstHop", map[string]string{"X-Forwarded-For": " 203.0.113.7 , 10.0.0.1"}, "10.0.0.2:5000", "203.0.113.7"},
		{"RealIP", map[string]string{"X-Real-IP": "198.51.100.4"}, "10.0.0.2:5000", "198.51.100.4"},
		{"RemoteAddr", nil, "192.0.2.9:41000", "192.0.2.9"},
		{"RemoteAddrWithoutPort", nil, "192.0.2.9", "192.0.2.9"},
		{"Unknown", nil, "", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/events", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ClientIP(req))
		})
	}
}

func TestRateLimit(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusCreated) })

	t.Run("Allowed", func(t *testing.T) {
		l := new(MockLimiter)
		l.On("Allow", mock.Anything, "events:203.0.113.7").Return(true, nil)

		req := httptest.NewRequest(http.MethodPost, "/api/events", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.7")
		rr := httptest.NewRecorder()
		RateLimit(l, "events", nil)(ok).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)
	})

	t.Run("Limited", func(t *testing.T) {
		l := new(MockLimiter)
		l.On("Allow", mock.Anything, mock.Anything).Return(false, nil)
		reg := prometheus.NewRegistry()
		m := metrics.New(reg)

		rr := httptest.NewRecorder()
		RateLimit(l, "events", m)(ok).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/events", nil))

		assert.Equal(t, http.StatusTooManyRequests, rr.Code)
		assert.JSONEq(t, `{"error":"Too many requests","code":"RATE_LIMIT_EXCEEDED"}`, rr.Body.String())
		n, err := testutil.GatherAndCount(reg, "azbeauty_rate_limited_total")
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("LimiterErrorFailsOpen", func(t *testing.T) {
		l := new(MockLimiter)
		l.On("Allow", mock.Anything, mock.Anything).Return(false, errors.New("redis: connection refused"))

		rr := httptest.NewRecorder()
		RateLimit(l, "events", nil)(ok).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/events", nil))

		assert.Equal(t, http.StatusCreated, rr.Code)
	})
}

func TestRecoverer(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	restore := logger.Replace(zap.New(core))
	defer restore()

	h := Recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("nil map write")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "nil map write")
	assert.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
}

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := CORS("http://localhost:3000")(next)

	t.Run("OPTIONS request", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/graphql", nil)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "POST")
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("Normal request", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))

		assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	r := chi.NewRouter()
	r.Use(Metrics(m))
	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/health", nil))

	n, err := testutil.GatherAndCount(reg, "azbeauty_http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
