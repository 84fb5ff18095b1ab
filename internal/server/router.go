package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/toxidity-18/GLAM-BACKEND/internal/admin"
	"github.com/toxidity-18/GLAM-BACKEND/internal/apperr"
	"github.com/toxidity-18/GLAM-BACKEND/internal/auth"
	"github.com/toxidity-18/GLAM-BACKEND/internal/cart"
	"github.com/toxidity-18/GLAM-BACKEND/internal/catalog"
	"github.com/toxidity-18/GLAM-BACKEND/internal/identity"
	"github.com/toxidity-18/GLAM-BACKEND/internal/metrics"
	"github.com/toxidity-18/GLAM-BACKEND/internal/orders"
)

// Pinger reports whether the database answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handlers struct {
	Users        *identity.UserHandler
	Catalog      *catalog.CatalogHandler
	Cart         *cart.CartHandler
	Orders       *orders.OrderHandler
	Transactions *orders.TransactionHandler
	Summary      *admin.SummaryHandler
}

type RouterOptions struct {
	ServiceName string
	Auth        *auth.Middleware
	Metrics     *metrics.ServerMetrics
	DB          Pinger
}

func NewRouter(opts RouterOptions, h Handlers) *gin.Engine {
	apperr.RegisterJSONFieldNames()
	// Money goes out as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(otelgin.Middleware(opts.ServiceName))
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware())
		r.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}

	r.GET("/health", handleHealth(opts.DB))
	r.POST("/login", h.Users.Login)

	// Order items are written with their order only.
	r.POST("/order_items", h.Orders.OrderItemsReadOnly)
	r.PUT("/order_items/:id", h.Orders.OrderItemsReadOnly)
	r.DELETE("/order_items/:id", h.Orders.OrderItemsReadOnly)

	id := apperr.RequireUUIDParams("id")
	adminOnly := auth.RequireAdmin()

	// Signup is public; an admin token is needed to create admins.
	r.POST("/users", opts.Auth.OptionalAuth(), h.Users.CreateUser)

	// Catalog reads are public, writes are admin only.
	r.GET("/product_categories", h.Catalog.ListCategories)
	r.GET("/product_categories/:id", id, h.Catalog.GetCategory)
	r.GET("/suppliers", h.Catalog.ListSuppliers)
	r.GET("/suppliers/:id", id, h.Catalog.GetSupplier)
	r.GET("/products", h.Catalog.ListProducts)
	r.GET("/products/:id", id, h.Catalog.GetProduct)

	authed := r.Group("/", opts.Auth.RequireAuth())
	{
		authed.POST("/product_categories", adminOnly, h.Catalog.CreateCategory)
		authed.PUT("/product_categories/:id", id, adminOnly, h.Catalog.UpdateCategory)
		authed.DELETE("/product_categories/:id", id, adminOnly, h.Catalog.DeleteCategory)
		authed.POST("/suppliers", adminOnly, h.Catalog.CreateSupplier)
		authed.PUT("/suppliers/:id", id, adminOnly, h.Catalog.UpdateSupplier)
		authed.DELETE("/suppliers/:id", id, adminOnly, h.Catalog.DeleteSupplier)
		authed.POST("/products", adminOnly, h.Catalog.CreateProduct)
		authed.PUT("/products/:id", id, adminOnly, h.Catalog.UpdateProduct)
		authed.DELETE("/products/:id", id, adminOnly, h.Catalog.DeleteProduct)

		authed.GET("/users", adminOnly, h.Users.ListUsers)
		authed.GET("/users/:id", id, h.Users.GetUser)
		authed.PUT("/users/:id", id, h.Users.UpdateUser)
		authed.DELETE("/users/:id", id, h.Users.DeleteUser)
		authed.PUT("/users/:id/role", id, h.Users.SetRole)
		authed.GET("/users/:id/orders", id, h.Orders.ListUserOrders)
		authed.GET("/users/:id/transactions", id, h.Transactions.ListUserTransactions)

		authed.GET("/cart", h.Cart.ListItems)
		authed.POST("/cart", h.Cart.AddItem)
		authed.DELETE("/cart", h.Cart.Clear)
		authed.PUT("/cart/:id", id, h.Cart.UpdateItem)
		authed.DELETE("/cart/:id", id, h.Cart.RemoveItem)

		authed.GET("/orders", h.Orders.ListOrders)
		authed.POST("/orders", h.Orders.CreateOrder)
		authed.POST("/orders/checkout", h.Orders.Checkout)
		authed.GET("/orders/:id", id, h.Orders.GetOrder)
		authed.PUT("/orders/:id", id, h.Orders.UpdateOrder)
		authed.DELETE("/orders/:id", id, h.Orders.DeleteOrder)
		authed.GET("/orders/:id/items", id, h.Orders.ListItemsOfOrder)
		authed.GET("/orders/:id/transactions", id, h.Transactions.ListOrderTransactions)
		authed.GET("/orders/:id/events", id, h.Orders.ListOrderEvents)

		authed.GET("/order_items", h.Orders.ListOrderItems)
		authed.GET("/order_items/:id", id, h.Orders.GetOrderItem)

		authed.GET("/transactions", h.Transactions.ListTransactions)
		authed.POST("/transactions", h.Transactions.CreateTransaction)
		authed.GET("/transactions/:id", id, h.Transactions.GetTransaction)
		authed.PUT("/transactions/:id", id, h.Transactions.UpdateTransaction)
		authed.DELETE("/transactions/:id", id, h.Transactions.DeleteTransaction)

		authed.GET("/admin/summary", adminOnly, h.Summary.GetSummary)
	}

	return r
}

func handleHealth(db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "database": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	}
}
