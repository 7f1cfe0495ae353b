package gate_test

import (
	"context"
	"errors"
	"testing"

	"github.com/diewo77/quincaillerie/gate"
)

func testTable() gate.Table {
	return gate.Table{
		"order:create":  {gate.RolePurchasingAgent, gate.RoleManager},
		"payment:*":     {gate.RolePaymentAgent, gate.RoleManager},
		"supplier:list": gate.AnyRole(),
	}
}

func testResolver() *gate.StaticResolver[uint] {
	r := gate.NewStaticResolver[uint]()
	r.Set(1, &gate.Subject{UserID: 1, Role: gate.RoleManager, Active: true})
	r.Set(2, &gate.Subject{UserID: 2, Role: gate.RolePurchasingAgent, Active: true})
	r.Set(3, &gate.Subject{UserID: 3, Role: gate.RolePaymentAgent, Active: true})
	r.Set(4, &gate.Subject{UserID: 4, Role: gate.RoleManager, Active: false})
	return r
}

func TestGate_Authorize_NoUser(t *testing.T) {
	g := gate.New[uint](testResolver(), testTable())
	if _, err := g.Authorize(context.Background(), 0, gate.ActionCreate, "order"); err != gate.ErrUnauthenticated {
		t.Errorf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestGate_Authorize_UnknownUser(t *testing.T) {
	g := gate.New[uint](testResolver(), testTable())
	if _, err := g.Authorize(context.Background(), 99, gate.ActionCreate, "order"); err != gate.ErrUnauthenticated {
		t.Errorf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestGate_Authorize_InactiveUser(t *testing.T) {
	g := gate.New[uint](testResolver(), testTable())
	if _, err := g.Authorize(context.Background(), 4, gate.ActionCreate, "order"); err != gate.ErrUnauthenticated {
		t.Errorf("expected ErrUnauthenticated for inactive user, got %v", err)
	}
}

func TestGate_Authorize_ResolverFailure(t *testing.T) {
	boom := errors.New("connection refused")
	g := gate.New[uint](gate.ResolverFunc[uint](func(context.Context, uint) (*gate.Subject, error) {
		return nil, boom
	}), testTable())
	_, err := g.Authorize(context.Background(), 1, gate.ActionCreate, "order")
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped resolver error, got %v", err)
	}
	if errors.Is(err, gate.ErrUnauthenticated) || errors.Is(err, gate.ErrForbidden) {
		t.Errorf("resolver failure must not look like a rejected caller: %v", err)
	}
}

func TestGate_Authorize_Table(t *testing.T) {
	g := gate.New[uint](testResolver(), testTable())
	ctx := context.Background()

	tests := []struct {
		name     string
		user     uint
		action   gate.Action
		resource string
		want     error
	}{
		{"manager creates order", 1, gate.ActionCreate, "order", nil},
		{"purchasing agent creates order", 2, gate.ActionCreate, "order", nil},
		{"payment agent cannot create order", 3, gate.ActionCreate, "order", gate.ErrForbidden},
		{"payment agent records payment", 3, gate.ActionCreate, "payment", nil},
		{"purchasing agent cannot record payment", 2, gate.ActionCreate, "payment", gate.ErrForbidden},
		{"any role lists suppliers", 3, gate.ActionList, "supplier", nil},
		{"no entry means forbidden", 1, gate.ActionDelete, "supplier", gate.ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := g.Authorize(ctx, tt.user, tt.action, tt.resource); err != tt.want {
				t.Errorf("Authorize() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestGate_Authorize_ReturnsSubject(t *testing.T) {
	g := gate.New[uint](testResolver(), testTable())
	s, err := g.Authorize(context.Background(), 2, gate.ActionCreate, "order")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.UserID != 2 || s.Role != gate.RolePurchasingAgent {
		t.Errorf("unexpected subject %+v", s)
	}
}

func TestGate_Can(t *testing.T) {
	g := gate.New[uint](testResolver(), testTable())
	if !g.Can(context.Background(), 1, gate.ActionCreate, "order") {
		t.Error("expected Can to return true")
	}
	if g.Can(context.Background(), 3, gate.ActionCreate, "order") {
		t.Error("expected Can to return false")
	}
}

func TestRole_Valid(t *testing.T) {
	for _, r := range gate.Roles {
		if !r.Valid() {
			t.Errorf("%s should be valid", r)
		}
	}
	if gate.Role("ADMIN").Valid() {
		t.Error("unknown role should not be valid")
	}
}
