package services

import (
	"context"
	"testing"
	"time"

	"github.com/diewo77/quincaillerie/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOrderComputesTotal(t *testing.T) {
	f := newFixture(t)
	o := f.placeOrder(t)

	assert.True(t, o.TotalAmount.Equal(dec("114000")), "total = %s", o.TotalAmount)
	assert.Equal(t, models.OrderStatusInProgress, o.Status)
	assert.Equal(t, "CMD-000001", o.Number)
	assert.Equal(t, f.agent.ID, o.PurchasingAgentID)
	require.Len(t, o.Items, 2)
	assert.True(t, o.Items[0].Subtotal.Equal(dec("84000")))
	assert.True(t, o.Items[1].Subtotal.Equal(dec("30000")))

	// no stock side effect before delivery
	assert.Equal(t, 5, f.stock(t, f.productA.ID))
	assert.Equal(t, 0, f.stock(t, f.productB.ID))

	stored, err := f.orders.GetOrder(context.Background(), o.ID)
	require.NoError(t, err)
	assert.True(t, stored.TotalAmount.Equal(stored.ComputeTotal()))
	require.NotNil(t, stored.Supplier)
	assert.Equal(t, f.supplier.Number, stored.Supplier.Number)
	require.NotNil(t, stored.Items[0].Product)
}

func TestCreateOrderNumbersAreSequential(t *testing.T) {
	f := newFixture(t)
	first := f.placeOrder(t)
	second := f.placeOrder(t)
	assert.Equal(t, "CMD-000001", first.Number)
	assert.Equal(t, "CMD-000002", second.Number)
}

func TestCreateOrderFractionalPricesAreExact(t *testing.T) {
	f := newFixture(t)
	in := CreateOrderInput{
		SupplierID: f.supplier.ID,
		Items: []OrderItemInput{
			{ProductID: f.productA.ID, Quantity: 3, PurchasePrice: dec("0.10")},
			{ProductID: f.productB.ID, Quantity: 7, PurchasePrice: dec("0.20")},
		},
		ExpectedDeliveryDate: time.Now(),
		CallerID:             f.agent.ID,
	}
	for i := 0; i < 3; i++ {
		o, err := f.orders.CreateOrder(context.Background(), in)
		require.NoError(t, err)
		assert.True(t, o.TotalAmount.Equal(dec("1.70")), "run %d total = %s", i, o.TotalAmount)
	}
}

func TestCreateOrderInvalidInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	base := func() CreateOrderInput {
		return CreateOrderInput{
			SupplierID:           f.supplier.ID,
			Items:                []OrderItemInput{{ProductID: f.productA.ID, Quantity: 1, PurchasePrice: dec("10")}},
			ExpectedDeliveryDate: time.Now(),
			CallerID:             f.agent.ID,
		}
	}
	tests := []struct {
		name  string
		mut   func(*CreateOrderInput)
		field string
	}{
		{"empty items", func(in *CreateOrderInput) { in.Items = nil }, "items"},
		{"zero quantity", func(in *CreateOrderInput) { in.Items[0].Quantity = 0 }, "items[0].quantity"},
		{"negative price", func(in *CreateOrderInput) { in.Items[0].PurchasePrice = dec("-1") }, "items[0].purchase_price"},
		{"sub-cent price", func(in *CreateOrderInput) { in.Items[0].PurchasePrice = dec("0.005") }, "items[0].purchase_price"},
		{"missing expected date", func(in *CreateOrderInput) { in.ExpectedDeliveryDate = time.Time{} }, "expected_delivery_date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := base()
			tt.mut(&in)
			_, err := f.orders.CreateOrder(ctx, in)
			require.ErrorIs(t, err, ErrInvalidInput)
			assert.Contains(t, ViolationsOf(err), tt.field)
		})
	}
	var n int64
	f.db.Model(&models.Order{}).Count(&n)
	assert.Zero(t, n)
}

func TestCreateOrderInvalidReference(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	archivedSup, err := f.suppliers.Create(ctx, SupplierInput{Number: "FRS-02", Name: "Old", Address: "Dakar"})
	require.NoError(t, err)
	_, err = f.suppliers.ToggleArchive(ctx, archivedSup.ID)
	require.NoError(t, err)

	archivedProduct, err := f.catalog.CreateProduct(ctx, ProductInput{Code: "OLD", Designation: "Old", UnitPrice: dec("1"), SubCategoryID: f.sub.ID})
	require.NoError(t, err)
	_, err = f.catalog.ToggleProductArchive(ctx, archivedProduct.ID)
	require.NoError(t, err)

	tests := []struct {
		name       string
		supplierID uint
		productID  uint
	}{
		{"missing supplier", 9999, f.productA.ID},
		{"archived supplier", archivedSup.ID, f.productA.ID},
		{"missing product", f.supplier.ID, 9999},
		{"archived product", f.supplier.ID, archivedProduct.ID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.orders.CreateOrder(ctx, CreateOrderInput{
				SupplierID:           tt.supplierID,
				Items:                []OrderItemInput{{ProductID: tt.productID, Quantity: 1, PurchasePrice: dec("1")}},
				ExpectedDeliveryDate: time.Now(),
				CallerID:             f.agent.ID,
			})
			require.ErrorIs(t, err, ErrInvalidReference)
		})
	}
}

func TestMarkDeliveredCreditsStock(t *testing.T) {
	f := newFixture(t)
	o := f.placeOrder(t)

	delivered, err := f.orders.MarkDelivered(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusDelivered, delivered.Status)
	require.NotNil(t, delivered.ActualDeliveryDate)

	assert.Equal(t, 25, f.stock(t, f.productA.ID))
	assert.Equal(t, 10, f.stock(t, f.productB.ID))
	assert.Equal(t, models.OrderStatusDelivered, f.status(t, o.ID))
}

func TestMarkDeliveredTwiceFailsWithoutDoubleCredit(t *testing.T) {
	f := newFixture(t)
	o := f.deliveredOrder(t)

	_, err := f.orders.MarkDelivered(context.Background(), o.ID)
	require.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, 25, f.stock(t, f.productA.ID))
	assert.Equal(t, 10, f.stock(t, f.productB.ID))
}

func TestMarkDeliveredRollsBackOnMissingProduct(t *testing.T) {
	f := newFixture(t)
	o := f.placeOrder(t)
	// product B disappears between ordering and delivery
	require.NoError(t, f.db.Exec("DELETE FROM products WHERE id = ?", f.productB.ID).Error)

	_, err := f.orders.MarkDelivered(context.Background(), o.ID)
	require.Error(t, err)
	assert.Equal(t, 5, f.stock(t, f.productA.ID), "stock of A must not move")
	assert.Equal(t, models.OrderStatusInProgress, f.status(t, o.ID))

	var events int64
	f.db.Model(&models.OutboxEvent{}).Where("type = ?", models.EventOrderDelivered).Count(&events)
	assert.Zero(t, events)
}

func TestMarkDeliveredNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.orders.MarkDelivered(context.Background(), 4242)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCancelOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.placeOrder(t)

	cancelled, err := f.orders.CancelOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, cancelled.Status)
	assert.Equal(t, 5, f.stock(t, f.productA.ID))

	_, err = f.orders.CancelOrder(ctx, o.ID)
	require.ErrorIs(t, err, ErrInvalidState)
	_, err = f.orders.MarkDelivered(ctx, o.ID)
	require.ErrorIs(t, err, ErrInvalidState)
	_, err = f.orders.CancelOrder(ctx, 4242)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCancelDeliveredOrderFails(t *testing.T) {
	f := newFixture(t)
	o := f.deliveredOrder(t)
	_, err := f.orders.CancelOrder(context.Background(), o.ID)
	require.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, models.OrderStatusDelivered, f.status(t, o.ID))
}

func TestOrderLifecycleWritesOutboxEvents(t *testing.T) {
	f := newFixture(t)
	o := f.deliveredOrder(t)
	_, err := f.pay(o.ID, 1, "114000")
	require.NoError(t, err)

	var types []string
	require.NoError(t, f.db.Model(&models.OutboxEvent{}).Order("created_at asc").Pluck("type", &types).Error)
	assert.ElementsMatch(t, []string{
		models.EventOrderCreated,
		models.EventOrderDelivered,
		models.EventPaymentRecorded,
		models.EventOrderPaid,
	}, types)
}

func TestListOrdersFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.placeOrder(t)
	second := f.deliveredOrder(t)

	all, total, err := f.orders.ListOrders(ctx, OrderFilter{}, Page{Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID, "newest first")

	delivered, total, err := f.orders.ListOrders(ctx, OrderFilter{Status: models.OrderStatusDelivered}, Page{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, second.ID, delivered[0].ID)

	inProgress, _, err := f.orders.ListOrders(ctx, OrderFilter{Status: models.OrderStatusInProgress, SupplierID: f.supplier.ID, PurchasingAgentID: f.agent.ID}, Page{})
	require.NoError(t, err)
	require.Len(t, inProgress, 1)
	assert.Equal(t, first.ID, inProgress[0].ID)

	_, _, err = f.orders.ListOrders(ctx, OrderFilter{Status: "SHIPPED"}, Page{})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestOrderStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := f.orders.CreateOrder(ctx, CreateOrderInput{
		SupplierID:           f.supplier.ID,
		Items:                []OrderItemInput{{ProductID: f.productA.ID, Quantity: 1, PurchasePrice: dec("100")}},
		ExpectedDeliveryDate: time.Date(now.Year(), now.Month(), now.Day(), 12, 0, 0, 0, time.UTC),
		CallerID:             f.agent.ID,
	})
	require.NoError(t, err)
	d := f.deliveredOrder(t)
	_, err = f.pay(d.ID, 1, "14000")
	require.NoError(t, err)

	st, err := f.orders.Stats(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, st.InProgress)
	assert.EqualValues(t, 1, st.ExpectedToday)
	assert.True(t, st.TotalDebt.Equal(dec("100000")), "debt = %s", st.TotalDebt)
	assert.EqualValues(t, 1, st.PaymentsToday)
	assert.True(t, st.PaymentsTodayAmount.Equal(dec("14000")))
}
