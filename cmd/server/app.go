package main

import (
	"log"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/diewo77/quincaillerie/auth"
	"github.com/diewo77/quincaillerie/gate"
	"github.com/diewo77/quincaillerie/httpx"
	"github.com/diewo77/quincaillerie/internal/policy"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// App is the main application handler that sets up all routes.
type App struct {
	mux       *http.ServeMux
	db        *gorm.DB
	routerCfg *policy.RouterConfig
}

// NewApp creates a new application with all routes configured.
func NewApp(db *gorm.DB, routerCfg *policy.RouterConfig) *App {
	app := &App{
		mux:       http.NewServeMux(),
		db:        db,
		routerCfg: routerCfg,
	}
	app.setupRoutes()
	return app
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Apply global middleware: panic recovery + bearer token parsing
	handler := withRecover(auth.Middleware(a.mux))
	handler.ServeHTTP(w, r)
}

// setupRoutes configures all application routes.
func (a *App) setupRoutes() {
	// ─────────────────────────────────────────────────────────────────────────
	// Public routes (no auth required)
	// ─────────────────────────────────────────────────────────────────────────
	hh := a.routerCfg.HealthHandler
	ah := a.routerCfg.AuthHandler

	a.mux.HandleFunc("GET /health", hh.Live)
	a.mux.HandleFunc("GET /healthz", hh.Ready)
	a.mux.HandleFunc("POST /auth/login", ah.Login)

	// ─────────────────────────────────────────────────────────────────────────
	// Authenticated routes (require a valid token)
	// ─────────────────────────────────────────────────────────────────────────
	a.mux.Handle("GET /auth/me", a.requireAuth(http.HandlerFunc(ah.Me)))

	// ─────────────────────────────────────────────────────────────────────────
	// Catalog
	// ─────────────────────────────────────────────────────────────────────────
	ch := a.routerCfg.CatalogHandler
	a.handle("GET /categories", policy.ResourceCategory, gate.ActionList, ch.ListCategories)
	a.handle("POST /categories", policy.ResourceCategory, gate.ActionCreate, ch.CreateCategory)
	a.handle("GET /categories/{id}", policy.ResourceCategory, gate.ActionView, ch.GetCategory)
	a.handle("PUT /categories/{id}", policy.ResourceCategory, gate.ActionUpdate, ch.UpdateCategory)
	a.handle("POST /categories/{id}/archive", policy.ResourceCategory, gate.ActionArchive, ch.ToggleCategoryArchive)
	a.handle("DELETE /categories/{id}", policy.ResourceCategory, gate.ActionDelete, ch.DeleteCategory)

	a.handle("GET /subcategories", policy.ResourceSubCategory, gate.ActionList, ch.ListSubCategories)
	a.handle("POST /subcategories", policy.ResourceSubCategory, gate.ActionCreate, ch.CreateSubCategory)
	a.handle("GET /subcategories/{id}", policy.ResourceSubCategory, gate.ActionView, ch.GetSubCategory)
	a.handle("PUT /subcategories/{id}", policy.ResourceSubCategory, gate.ActionUpdate, ch.UpdateSubCategory)
	a.handle("POST /subcategories/{id}/archive", policy.ResourceSubCategory, gate.ActionArchive, ch.ToggleSubCategoryArchive)
	a.handle("DELETE /subcategories/{id}", policy.ResourceSubCategory, gate.ActionDelete, ch.DeleteSubCategory)

	ph := a.routerCfg.ProductHandler
	a.handle("GET /products", policy.ResourceProduct, gate.ActionList, ph.List)
	a.handle("POST /products", policy.ResourceProduct, gate.ActionCreate, ph.Create)
	a.handle("GET /products/{id}", policy.ResourceProduct, gate.ActionView, ph.Get)
	a.handle("PUT /products/{id}", policy.ResourceProduct, gate.ActionUpdate, ph.Update)
	a.handle("POST /products/{id}/archive", policy.ResourceProduct, gate.ActionArchive, ph.ToggleArchive)

	// ─────────────────────────────────────────────────────────────────────────
	// Suppliers
	// ─────────────────────────────────────────────────────────────────────────
	sh := a.routerCfg.SupplierHandler
	a.handle("GET /suppliers", policy.ResourceSupplier, gate.ActionList, sh.List)
	a.handle("POST /suppliers", policy.ResourceSupplier, gate.ActionCreate, sh.Create)
	a.handle("GET /suppliers/{id}", policy.ResourceSupplier, gate.ActionView, sh.Get)
	a.handle("PUT /suppliers/{id}", policy.ResourceSupplier, gate.ActionUpdate, sh.Update)
	a.handle("POST /suppliers/{id}/archive", policy.ResourceSupplier, gate.ActionArchive, sh.ToggleArchive)
	a.handle("DELETE /suppliers/{id}", policy.ResourceSupplier, gate.ActionDelete, sh.Delete)

	// ─────────────────────────────────────────────────────────────────────────
	// Orders
	// ─────────────────────────────────────────────────────────────────────────
	oh := a.routerCfg.OrderHandler
	a.handle("POST /orders", policy.ResourceOrder, gate.ActionCreate, oh.Create)
	a.handle("GET /orders", policy.ResourceOrder, gate.ActionList, oh.List)
	a.handle("GET /orders/stats", policy.ResourceOrder, policy.ActionStats, oh.Stats)
	a.handle("GET /orders/{id}", policy.ResourceOrder, gate.ActionView, oh.Get)
	a.handle("POST /orders/{id}/deliver", policy.ResourceOrder, gate.ActionDeliver, oh.Deliver)
	a.handle("POST /orders/{id}/cancel", policy.ResourceOrder, gate.ActionCancel, oh.Cancel)
	a.handle("GET /orders/{id}/balance", policy.ResourcePayment, gate.ActionView, oh.Balance)
	a.handle("GET /orders/{id}/payments", policy.ResourcePayment, gate.ActionView, oh.Payments)
	a.handle("GET /orders/{id}/schedule", policy.ResourcePayment, gate.ActionView, oh.Schedule)

	// ─────────────────────────────────────────────────────────────────────────
	// Payments and debt
	// ─────────────────────────────────────────────────────────────────────────
	pay := a.routerCfg.PaymentHandler
	a.handle("POST /payments", policy.ResourcePayment, gate.ActionCreate, pay.Create)
	a.handle("GET /payments", policy.ResourcePayment, gate.ActionList, pay.List)
	a.handle("GET /payments/{id}", policy.ResourcePayment, gate.ActionView, pay.Get)
	a.handle("GET /debts", policy.ResourceDebt, gate.ActionList, pay.Debts)
	a.handle("GET /debts/outstanding", policy.ResourceDebt, gate.ActionList, pay.Outstanding)

	// ─────────────────────────────────────────────────────────────────────────
	// Staff accounts
	// ─────────────────────────────────────────────────────────────────────────
	uh := a.routerCfg.UserHandler
	a.handle("GET /users", policy.ResourceUser, gate.ActionList, uh.List)
	a.handle("POST /users", policy.ResourceUser, gate.ActionCreate, uh.Create)
	a.handle("POST /users/{id}/active", policy.ResourceUser, gate.ActionUpdate, uh.SetActive)
	a.handle("POST /users/{id}/role", policy.ResourceUser, gate.ActionUpdate, uh.SetRole)
}

// ─────────────────────────────────────────────────────────────────────────────
// Middleware
// ─────────────────────────────────────────────────────────────────────────────

// handle registers a route behind authentication and one permission check.
func (a *App) handle(pattern, resourceType string, action gate.Action, h http.HandlerFunc) {
	a.mux.Handle(pattern, a.requireAuth(a.requirePermission(resourceType, action)(h)))
}

// requireAuth wraps a handler to require a valid bearer token.
func (a *App) requireAuth(next http.Handler) http.Handler {
	return auth.RequireAuth(next)
}

// requirePermission wraps a handler to require specific resource permission.
func (a *App) requirePermission(resourceType string, action gate.Action) func(http.Handler) http.Handler {
	return a.routerCfg.AuthGate.RequirePermission(resourceType, action)
}

// statusRecorder captures the status code for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// withLogging adds request logging middleware and an X-Request-ID header.
func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", reqID)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Printf("%s %s %d %s req=%s", r.Method, r.URL.Path, rec.status, time.Since(start), reqID)
	})
}

// withRecover turns a panic into a JSON 500.
func withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rv := recover(); rv != nil {
				log.Printf("panic serving %s %s: %v\n%s", r.Method, r.URL.Path, rv, debug.Stack())
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
