package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/toxidity-18/GLAM-BACKEND/internal/admin"
	"github.com/toxidity-18/GLAM-BACKEND/internal/auth"
	"github.com/toxidity-18/GLAM-BACKEND/internal/cart"
	"github.com/toxidity-18/GLAM-BACKEND/internal/catalog"
	"github.com/toxidity-18/GLAM-BACKEND/internal/identity"
	"github.com/toxidity-18/GLAM-BACKEND/internal/metrics"
	"github.com/toxidity-18/GLAM-BACKEND/internal/orders"
)

const (
	customerUID = "0b6f1f55-0d4e-4c1a-9d0e-5c1f3f0a2b11"
	adminUID    = "6a1d2c3b-4e5f-4a6b-8c7d-9e0f1a2b3c4d"
)

// tokenTable treats the token itself as the subject.
type tokenTable struct{}

func (tokenTable) Verify(token string) (string, error) {
	if token == customerUID || token == adminUID {
		return token, nil
	}
	return "", errors.New("invalid token")
}

type principals struct{}

func (principals) LoadPrincipal(_ context.Context, uid string) (auth.Principal, error) {
	return auth.Principal{UserID: uid, IsAdmin: uid == adminUID}, nil
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

// newTestRouter wires every handler with use cases that have no store. Only
// requests stopped by middleware can be sent through it.
func newTestRouter(t *testing.T, db Pinger) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	tracer := tracenoop.NewTracerProvider().Tracer("test")
	meter := metricnoop.NewMeterProvider().Meter("test")

	orderUseCase, err := orders.NewOrderUseCase(nil, meter)
	require.NoError(t, err)
	transactionUseCase, err := orders.NewTransactionUseCase(nil, meter)
	require.NoError(t, err)
	catalogUseCase := catalog.NewCatalogUseCase(nil)
	issuer := auth.NewTokenIssuer("test-secret", 0)

	return NewRouter(RouterOptions{
		ServiceName: "test",
		Auth:        auth.NewMiddleware(tokenTable{}, principals{}),
		Metrics:     metrics.NewServerMetrics("test"),
		DB:          db,
	}, Handlers{
		Users:        identity.NewUserHandler(identity.NewUserUseCase(nil, issuer, 4), tracer),
		Catalog:      catalog.NewCatalogHandler(catalogUseCase, tracer),
		Cart:         cart.NewCartHandler(cart.NewCartUseCase(nil, catalogUseCase), tracer),
		Orders:       orders.NewOrderHandler(orderUseCase, tracer),
		Transactions: orders.NewTransactionHandler(transactionUseCase, tracer),
		Summary:      admin.NewSummaryHandler(admin.NewSummaryUseCase(nil)),
	})
}

func do(r http.Handler, method, path, token string) (*httptest.ResponseRecorder, map[string]any) {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var body map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestHealth(t *testing.T) {
	w, body := do(newTestRouter(t, fakePinger{}), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", body["status"])

	w, body = do(newTestRouter(t, fakePinger{err: errors.New("connection refused")}), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "unhealthy", body["status"])
}

func TestRouter_AccessControl(t *testing.T) {
	r := newTestRouter(t, fakePinger{})

	tests := []struct {
		name     string
		method   string
		path     string
		token    string
		wantCode int
		wantErr  string
	}{
		{"orders need a token", http.MethodGet, "/orders", "", http.StatusUnauthorized, "unauthorized"},
		{"cart needs a token", http.MethodGet, "/cart", "", http.StatusUnauthorized, "unauthorized"},
		{"bad token", http.MethodGet, "/transactions", "forged", http.StatusUnauthorized, "unauthorized"},
		{"summary is admin only", http.MethodGet, "/admin/summary", customerUID, http.StatusForbidden, "forbidden"},
		{"user list is admin only", http.MethodGet, "/users", customerUID, http.StatusForbidden, "forbidden"},
		{"catalog writes are admin only", http.MethodPost, "/products", customerUID, http.StatusForbidden, "forbidden"},
		{"category delete is admin only", http.MethodDelete, "/product_categories/" + adminUID, customerUID, http.StatusForbidden, "forbidden"},
		{"malformed id", http.MethodGet, "/orders/42", customerUID, http.StatusNotFound, "not_found"},
		{"order item writes", http.MethodPost, "/order_items", "", http.StatusMethodNotAllowed, "method_not_allowed"},
		{"order item delete", http.MethodDelete, "/order_items/" + customerUID, customerUID, http.StatusMethodNotAllowed, "method_not_allowed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := do(r, tt.method, tt.path, tt.token)

			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, tt.wantErr, body["code"])
		})
	}
}

func TestRouter_ServesMetrics(t *testing.T) {
	r := newTestRouter(t, fakePinger{})
	do(r, http.MethodGet, "/health", "")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `handler="/health"`)
}
