package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/diewo77/quincaillerie/gate"
	"github.com/diewo77/quincaillerie/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// Use a unique in-memory database per test to avoid cross-test collisions.
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "open db")
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(models.All()...), "migrate")
	return db
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fixture struct {
	db        *gorm.DB
	catalog   *CatalogService
	suppliers *SupplierService
	orders    *OrderService
	ledger    *LedgerService

	agent    models.User
	cashier  models.User
	supplier models.Supplier
	sub      models.SubCategory
	productA models.Product
	productB models.Product
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := setupTestDB(t)
	f := &fixture{
		db:        db,
		catalog:   NewCatalogService(db),
		suppliers: NewSupplierService(db),
		orders:    NewOrderService(db),
		ledger:    NewLedgerService(db),
	}
	f.agent = models.User{Email: "agent@test", PasswordHash: "x", LastName: "Diallo", FirstName: "Awa", Role: gate.RolePurchasingAgent, Active: true}
	f.cashier = models.User{Email: "cashier@test", PasswordHash: "x", LastName: "Ndiaye", FirstName: "Moussa", Role: gate.RolePaymentAgent, Active: true}
	require.NoError(t, db.Create(&f.agent).Error)
	require.NoError(t, db.Create(&f.cashier).Error)

	ctx := context.Background()
	cat, err := f.catalog.CreateCategory(ctx, CategoryInput{Name: "Quincaillerie"})
	require.NoError(t, err)
	sub, err := f.catalog.CreateSubCategory(ctx, SubCategoryInput{Name: "Visserie", CategoryID: cat.ID})
	require.NoError(t, err)
	f.sub = *sub
	a, err := f.catalog.CreateProduct(ctx, ProductInput{Code: "vis-6x40", Designation: "Vis 6x40", StockQuantity: 5, UnitPrice: dec("50"), SubCategoryID: sub.ID})
	require.NoError(t, err)
	b, err := f.catalog.CreateProduct(ctx, ProductInput{Code: "chev-8", Designation: "Cheville 8mm", UnitPrice: dec("25"), SubCategoryID: sub.ID})
	require.NoError(t, err)
	f.productA, f.productB = *a, *b

	sup, err := f.suppliers.Create(ctx, SupplierInput{Number: "FRS-01", Name: "Sococim Outillage", Address: "Route de Rufisque"})
	require.NoError(t, err)
	f.supplier = *sup
	return f
}

// placeOrder creates the two-line order of 114000 used across tests.
func (f *fixture) placeOrder(t *testing.T) *models.Order {
	t.Helper()
	o, err := f.orders.CreateOrder(context.Background(), CreateOrderInput{
		SupplierID: f.supplier.ID,
		Items: []OrderItemInput{
			{ProductID: f.productA.ID, Quantity: 20, PurchasePrice: dec("4200")},
			{ProductID: f.productB.ID, Quantity: 10, PurchasePrice: dec("3000")},
		},
		ExpectedDeliveryDate: time.Now().Add(72 * time.Hour),
		CallerID:             f.agent.ID,
	})
	require.NoError(t, err)
	return o
}

func (f *fixture) deliveredOrder(t *testing.T) *models.Order {
	t.Helper()
	o := f.placeOrder(t)
	o, err := f.orders.MarkDelivered(context.Background(), o.ID)
	require.NoError(t, err)
	return o
}

func (f *fixture) pay(orderID uint, installment int, amount string) (*models.Payment, error) {
	return f.ledger.RecordPayment(context.Background(), RecordPaymentInput{
		OrderID:           orderID,
		Amount:            dec(amount),
		InstallmentNumber: installment,
		RecordedByID:      f.cashier.ID,
	})
}

func (f *fixture) stock(t *testing.T, id uint) int {
	t.Helper()
	var p models.Product
	require.NoError(t, f.db.First(&p, id).Error)
	return p.StockQuantity
}

func (f *fixture) status(t *testing.T, id uint) models.OrderStatus {
	t.Helper()
	var o models.Order
	require.NoError(t, f.db.Select("status").First(&o, id).Error)
	return o.Status
}
