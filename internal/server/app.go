package server

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/toxidity-18/GLAM-BACKEND/internal/admin"
	"github.com/toxidity-18/GLAM-BACKEND/internal/auth"
	"github.com/toxidity-18/GLAM-BACKEND/internal/cart"
	"github.com/toxidity-18/GLAM-BACKEND/internal/catalog"
	"github.com/toxidity-18/GLAM-BACKEND/internal/config"
	"github.com/toxidity-18/GLAM-BACKEND/internal/identity"
	"github.com/toxidity-18/GLAM-BACKEND/internal/metrics"
	"github.com/toxidity-18/GLAM-BACKEND/internal/orders"
	"github.com/toxidity-18/GLAM-BACKEND/internal/telemetry"
)

// App is the wired HTTP service.
type App struct {
	Router *gin.Engine
	Events orders.EventStore
}

// NewApp builds repositories, use cases and handlers on top of pool.
func NewApp(pool *pgxpool.Pool, cfg *config.Config, tel *telemetry.Providers) (*App, error) {
	tracer := tel.Tracer(cfg.Telemetry.ServiceName)
	meter := tel.Meter(cfg.Telemetry.ServiceName)

	// Setup repositories
	userRepository := identity.NewUserRepository(pool)
	catalogRepository := catalog.NewCatalogRepository(pool)
	cartRepository := cart.NewCartRepository(pool)
	orderRepository := orders.NewOrderRepository(pool)
	summaryRepository := admin.NewSummaryRepository(pool)

	// Setup use cases
	issuer := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	userUseCase := identity.NewUserUseCase(userRepository, issuer, cfg.Auth.BcryptCost)
	catalogUseCase := catalog.NewCatalogUseCase(catalogRepository)
	cartUseCase := cart.NewCartUseCase(cartRepository, catalogUseCase)
	orderUseCase, err := orders.NewOrderUseCase(orderRepository, meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create order use case: %w", err)
	}
	transactionUseCase, err := orders.NewTransactionUseCase(orderRepository, meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction use case: %w", err)
	}
	summaryUseCase := admin.NewSummaryUseCase(summaryRepository)

	router := NewRouter(RouterOptions{
		ServiceName: cfg.Telemetry.ServiceName,
		Auth:        auth.NewMiddleware(issuer, userUseCase),
		Metrics:     metrics.NewServerMetrics("store"),
		DB:          pool,
	}, Handlers{
		Users:        identity.NewUserHandler(userUseCase, tracer),
		Catalog:      catalog.NewCatalogHandler(catalogUseCase, tracer),
		Cart:         cart.NewCartHandler(cartUseCase, tracer),
		Orders:       orders.NewOrderHandler(orderUseCase, tracer),
		Transactions: orders.NewTransactionHandler(transactionUseCase, tracer),
		Summary:      admin.NewSummaryHandler(summaryUseCase),
	})

	return &App{Router: router, Events: orderRepository}, nil
}
