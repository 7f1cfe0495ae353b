package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestCanTransition(t *testing.T) {
	statuses := []OrderStatus{OrderStatusInProgress, OrderStatusDelivered, OrderStatusPaid, OrderStatusCancelled}
	allowed := map[[2]OrderStatus]bool{
		{OrderStatusInProgress, OrderStatusDelivered}: true,
		{OrderStatusInProgress, OrderStatusCancelled}: true,
		{OrderStatusDelivered, OrderStatusPaid}:       true,
	}
	for _, from := range statuses {
		for _, to := range statuses {
			want := allowed[[2]OrderStatus{from, to}]
			if got := CanTransition(from, to); got != want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestOrderStatus_Terminal(t *testing.T) {
	tests := []struct {
		status OrderStatus
		want   bool
	}{
		{OrderStatusInProgress, false},
		{OrderStatusDelivered, false},
		{OrderStatusPaid, true},
		{OrderStatusCancelled, true},
	}
	for _, tt := range tests {
		if got := tt.status.Terminal(); got != tt.want {
			t.Errorf("%s.Terminal() = %v, want %v", tt.status, got, tt.want)
		}
	}
	if OrderStatus("SHIPPED").Valid() {
		t.Error("unknown status should not be valid")
	}
}

func TestOrder_ComputeTotal(t *testing.T) {
	items := []OrderItem{
		{Quantity: 20, PurchasePrice: decimal.NewFromInt(4200)},
		{Quantity: 10, PurchasePrice: decimal.NewFromInt(3000)},
	}
	for i := range items {
		items[i].Subtotal = items[i].ComputeSubtotal()
	}
	o := &Order{Items: items}
	if got := o.ComputeTotal(); !got.Equal(decimal.NewFromInt(114000)) {
		t.Errorf("ComputeTotal() = %s, want 114000", got)
	}
}

func TestOrderItem_ComputeSubtotal_NoFloatDrift(t *testing.T) {
	item := &OrderItem{Quantity: 3, PurchasePrice: decimal.RequireFromString("0.10")}
	if got := item.ComputeSubtotal(); !got.Equal(decimal.RequireFromString("0.30")) {
		t.Errorf("ComputeSubtotal() = %s, want 0.30", got)
	}
}

func TestOrder_AcceptsPayments(t *testing.T) {
	tests := []struct {
		status OrderStatus
		want   bool
	}{
		{OrderStatusInProgress, false},
		{OrderStatusDelivered, true},
		{OrderStatusPaid, true},
		{OrderStatusCancelled, false},
	}
	for _, tt := range tests {
		o := &Order{Status: tt.status}
		if got := o.AcceptsPayments(); got != tt.want {
			t.Errorf("AcceptsPayments(%s) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestValidInstallment(t *testing.T) {
	for n, want := range map[int]bool{0: false, 1: true, 2: true, 3: true, 4: false, -1: false} {
		if got := ValidInstallment(n); got != want {
			t.Errorf("ValidInstallment(%d) = %v, want %v", n, got, want)
		}
	}
}

func TestProduct_IsLowStock(t *testing.T) {
	p := &Product{StockQuantity: 5}
	if !p.IsLowStock(5) {
		t.Error("expected product at threshold to be low stock")
	}
	if p.IsLowStock(4) {
		t.Error("expected product above threshold not to be low stock")
	}
}
