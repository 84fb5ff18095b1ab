package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/toxidity-18/GLAM-BACKEND/internal/auth"
	"github.com/toxidity-18/GLAM-BACKEND/internal/catalog"
	"github.com/toxidity-18/GLAM-BACKEND/internal/config"
	"github.com/toxidity-18/GLAM-BACKEND/internal/database"
	"github.com/toxidity-18/GLAM-BACKEND/internal/identity"
	"github.com/toxidity-18/GLAM-BACKEND/internal/orders"
	"github.com/toxidity-18/GLAM-BACKEND/internal/telemetry"
)

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type storeAPI struct {
	t      *testing.T
	client *resty.Client
}

// login returns a token and the uid of the account.
func (s *storeAPI) login(email, password string) (string, string) {
	var out identity.LoginResponse
	resp, err := s.client.R().
		SetBody(map[string]string{"email": email, "password": password}).
		SetResult(&out).
		Post("/login")
	require.NoError(s.t, err)
	require.Equal(s.t, http.StatusOK, resp.StatusCode(), resp.String())
	return out.AccessToken, out.Data.ID
}

func (s *storeAPI) as(token string) *resty.Request {
	return s.client.R().SetAuthToken(token)
}

func newStoreAPI(t *testing.T) (*storeAPI, string) {
	t.Helper()
	dsn := os.Getenv("GLAM_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("GLAM_TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := database.Connect(ctx, config.DBConfig{DSN: dsn, MaxConns: 4, MinConns: 1, ConnectAttempts: 5})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, database.Migrate(ctx, pool))

	cfg := &config.Config{
		Auth:      config.AuthConfig{JWTSecret: "integration-secret", TokenTTL: time.Hour, BcryptCost: bcrypt.MinCost},
		Telemetry: config.TelemetryConfig{ServiceName: "glam-store-test"},
	}
	tel, err := telemetry.Setup(ctx, cfg.Telemetry)
	require.NoError(t, err)

	app, err := NewApp(pool, cfg, tel)
	require.NoError(t, err)
	srv := httptest.NewServer(app.Router)
	t.Cleanup(srv.Close)

	// Admins cannot sign up publicly, so the first one is created directly.
	users := identity.NewUserUseCase(identity.NewUserRepository(pool), auth.NewTokenIssuer("unused", time.Hour), bcrypt.MinCost)
	isAdmin := true
	adminEmail := "admin-" + uuid.NewString() + "@x.com"
	_, err = users.CreateAccount(ctx, &auth.System, identity.CreateUserRequest{
		Name:     "Manu",
		Email:    adminEmail,
		Phone:    uuid.NewString(),
		Password: "admin-pw",
		IsAdmin:  &isAdmin,
	})
	require.NoError(t, err)

	api := &storeAPI{t: t, client: resty.New().SetBaseURL(srv.URL)}
	adminToken, _ := api.login(adminEmail, "admin-pw")
	return api, adminToken
}

func (s *storeAPI) createCatalog(adminToken string) (catalog.Category, catalog.Supplier) {
	var category catalog.Category
	resp, err := s.as(adminToken).
		SetBody(map[string]string{"name": "Lips " + uuid.NewString()}).
		SetResult(&category).
		Post("/product_categories")
	require.NoError(s.t, err)
	require.Equal(s.t, http.StatusCreated, resp.StatusCode(), resp.String())

	var supplier catalog.Supplier
	resp, err = s.as(adminToken).
		SetBody(map[string]string{"name": "Glow Ltd", "contact_info": "glow@example.com"}).
		SetResult(&supplier).
		Post("/suppliers")
	require.NoError(s.t, err)
	require.Equal(s.t, http.StatusCreated, resp.StatusCode(), resp.String())
	return category, supplier
}

func (s *storeAPI) createProduct(adminToken string, body map[string]any) catalog.Product {
	var product catalog.Product
	resp, err := s.as(adminToken).SetBody(body).SetResult(&product).Post("/products")
	require.NoError(s.t, err)
	require.Equal(s.t, http.StatusCreated, resp.StatusCode(), resp.String())
	return product
}

func TestIntegration_OrderIsShippedOncePaid(t *testing.T) {
	api, adminToken := newStoreAPI(t)
	category, supplier := api.createCatalog(adminToken)
	gloss := api.createProduct(adminToken, map[string]any{
		"name": "Gloss", "price": 50, "stock_quantity": 10,
		"category_id": category.ID, "supplier_id": supplier.ID,
	})

	// 1. Create the customer and log in
	email := "a-" + uuid.NewString() + "@x.com"
	resp, err := api.client.R().
		SetBody(map[string]string{"name": "Philip", "email": email, "phone": uuid.NewString(), "password": "pw"}).
		Post("/users")
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode(), resp.String())
	token, uid := api.login(email, "pw")

	// 2. Place an order worth 100
	var order orders.Order
	resp, err = api.as(token).
		SetBody(map[string]any{"items": []map[string]any{{"product_id": gloss.ID, "quantity": 2}}}).
		SetResult(&order).
		Post("/orders")
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode(), resp.String())
	assert.True(t, order.TotalAmount.Equal(decimal.NewFromInt(100)), order.TotalAmount.String())
	assert.Equal(t, uid, order.UserID)

	// 3. Record a Pending payment
	var txn orders.Transaction
	resp, err = api.as(token).
		SetBody(map[string]any{
			"order_id": order.ID, "amount": 100, "payment_status": "Pending",
			"name": "Philip", "email": email, "phone": "0700000001",
			"address": "1 Market Street", "city": "Nairobi", "zipCode": "00100",
		}).
		SetResult(&txn).
		Post("/transactions")
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode(), resp.String())

	var got orders.Order
	_, err = api.as(token).SetResult(&got).Get("/orders/" + order.ID)
	require.NoError(t, err)
	assert.Equal(t, orders.OrderStatusPending, got.Status)

	// 4. Confirm the payment, twice
	for i := 0; i < 2; i++ {
		resp, err = api.as(token).
			SetBody(map[string]string{"payment_status": "Paid"}).
			Put("/transactions/" + txn.ID)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode(), resp.String())

		_, err = api.as(token).SetResult(&got).Get("/orders/" + order.ID)
		require.NoError(t, err)
		assert.Equal(t, orders.OrderStatusShipped, got.Status)
	}

	// 5. Paid is final and Shipped cannot go back
	var failure errorBody
	resp, err = api.as(token).
		SetBody(map[string]string{"payment_status": "Pending"}).
		SetError(&failure).
		Put("/transactions/" + txn.ID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode())
	assert.Equal(t, "invalid_transition", failure.Code)

	resp, err = api.as(adminToken).
		SetBody(map[string]string{"status": "Pending"}).
		SetError(&failure).
		Put("/orders/" + order.ID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode())
	assert.Equal(t, "invalid_transition", failure.Code)

	// 6. An extra event was appended for the payment
	var events []orders.OrderEvent
	_, err = api.as(token).SetResult(&events).Get("/orders/" + order.ID + "/events")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, orders.EventOrderCreated, events[0].Type)
	assert.Equal(t, orders.OrderStatusShipped, events[1].ToStatus)

	// 7. The customer cannot be deleted while the order exists
	resp, err = api.as(adminToken).SetError(&failure).Delete("/users/" + uid)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode())
	assert.Equal(t, "user_has_orders", failure.Code)
}

func TestIntegration_ItemPriceSurvivesPriceChange(t *testing.T) {
	api, adminToken := newStoreAPI(t)
	category, supplier := api.createCatalog(adminToken)
	gloss := api.createProduct(adminToken, map[string]any{
		"name": "Gloss", "price": "12.50", "stock_quantity": 5,
		"category_id": category.ID, "supplier_id": supplier.ID,
	})

	var order orders.Order
	resp, err := api.as(adminToken).
		SetBody(map[string]any{"items": []map[string]any{{"product_id": gloss.ID, "quantity": 1}}}).
		SetResult(&order).
		Post("/orders")
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode(), resp.String())

	resp, err = api.as(adminToken).SetBody(map[string]any{"price": 99}).Put("/products/" + gloss.ID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode(), resp.String())

	var items []orders.OrderItem
	_, err = api.as(adminToken).SetResult(&items).Get("/orders/" + order.ID + "/items")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].Price.Equal(decimal.RequireFromString("12.50")), items[0].Price.String())
}

func TestIntegration_ProductFilter(t *testing.T) {
	api, adminToken := newStoreAPI(t)
	category, supplier := api.createCatalog(adminToken)
	other, _ := api.createCatalog(adminToken)

	want := api.createProduct(adminToken, map[string]any{
		"name": "Matte", "price": 30, "category_id": category.ID, "supplier_id": supplier.ID,
	})
	api.createProduct(adminToken, map[string]any{
		"name": "Retired", "price": 30, "status": "inactive", "category_id": category.ID, "supplier_id": supplier.ID,
	})
	api.createProduct(adminToken, map[string]any{
		"name": "Elsewhere", "price": 30, "category_id": other.ID, "supplier_id": supplier.ID,
	})

	var products []catalog.Product
	resp, err := api.client.R().
		SetQueryParams(map[string]string{"category_id": category.ID, "status": "active"}).
		SetResult(&products).
		Get("/products")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode(), resp.String())

	require.Len(t, products, 1)
	assert.Equal(t, want.ID, products[0].ID)
	assert.Equal(t, category.Name, products[0].CategoryName)
}
