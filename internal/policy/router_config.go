package policy

import (
	"time"

	"github.com/diewo77/quincaillerie/internal/handlers"
	"github.com/diewo77/quincaillerie/internal/services"
	"gorm.io/gorm"
)

// RouterConfig holds configured handlers and middleware for the application.
type RouterConfig struct {
	// AuthGate provides authorization checks and middleware
	AuthGate *AuthGate

	// Public handlers
	AuthHandler   *handlers.AuthHandler
	HealthHandler *handlers.HealthHandler

	// Business handlers
	CatalogHandler  *handlers.CatalogHandler
	ProductHandler  *handlers.ProductHandler
	SupplierHandler *handlers.SupplierHandler
	OrderHandler    *handlers.OrderHandler
	PaymentHandler  *handlers.PaymentHandler
	UserHandler     *handlers.UserHandler

	// Services
	CatalogService  *services.CatalogService
	SupplierService *services.SupplierService
	OrderService    *services.OrderService
	LedgerService   *services.LedgerService
	UserService     *services.UserService
}

// NewRouterConfig wires services, handlers and the authorization gate.
//
//	cfg := policy.NewRouterConfig(db, 12*time.Hour)
//	mux.Handle("POST /orders/{id}/deliver",
//		cfg.AuthGate.RequirePermission(policy.ResourceOrder, gate.ActionDeliver)(http.HandlerFunc(cfg.OrderHandler.Deliver)))
func NewRouterConfig(db *gorm.DB, tokenTTL time.Duration) *RouterConfig {
	// Create authorization gate with 5-minute cache
	authGate := NewAuthGate(db, 5*time.Minute)

	catalog := services.NewCatalogService(db)
	suppliers := services.NewSupplierService(db)
	orders := services.NewOrderService(db)
	ledger := services.NewLedgerService(db)
	users := services.NewUserService(db)
	// Role or active-flag changes must not wait for the cache to expire.
	users.OnChange(authGate.InvalidateUser)

	return &RouterConfig{
		AuthGate:        authGate,
		AuthHandler:     handlers.NewAuthHandler(users, tokenTTL),
		HealthHandler:   handlers.NewHealthHandler(db),
		CatalogHandler:  handlers.NewCatalogHandler(catalog),
		ProductHandler:  handlers.NewProductHandler(catalog),
		SupplierHandler: handlers.NewSupplierHandler(suppliers),
		OrderHandler:    handlers.NewOrderHandler(orders, ledger),
		PaymentHandler:  handlers.NewPaymentHandler(ledger),
		UserHandler:     handlers.NewUserHandler(users),
		CatalogService:  catalog,
		SupplierService: suppliers,
		OrderService:    orders,
		LedgerService:   ledger,
		UserService:     users,
	}
}
