package gate_test

import (
	"testing"

	"github.com/diewo77/quincaillerie/gate"
)

func TestPermission_NewPermission(t *testing.T) {
	perm := gate.NewPermission("order", gate.ActionDeliver)
	if perm != "order:deliver" {
		t.Errorf("expected 'order:deliver', got '%s'", perm)
	}
}

func TestPermission_Parse(t *testing.T) {
	res, act := gate.Permission("payment:view").Parse()
	if res != "payment" {
		t.Errorf("expected resource 'payment', got '%s'", res)
	}
	if act != gate.ActionView {
		t.Errorf("expected action 'view', got '%s'", act)
	}
}

func TestPermission_Parse_Invalid(t *testing.T) {
	res, act := gate.Permission("invalid").Parse()
	if res != "" || act != "" {
		t.Errorf("expected empty strings, got '%s' and '%s'", res, act)
	}
}

func TestPermission_Matches(t *testing.T) {
	tests := []struct {
		perm      gate.Permission
		requested gate.Permission
		want      bool
	}{
		{"order:create", "order:create", true},
		{"order:create", "order:cancel", false},
		{"order:create", "payment:create", false},
		{gate.PermissionAll, "supplier:delete", true},
		{"order:*", "order:deliver", true},
		{"order:*", "payment:create", false},
	}
	for _, tt := range tests {
		if got := tt.perm.Matches(tt.requested); got != tt.want {
			t.Errorf("%s.Matches(%s) = %v, want %v", tt.perm, tt.requested, got, tt.want)
		}
	}
}

func TestTable_Allows(t *testing.T) {
	table := gate.Table{
		"product:*":    {gate.RoleManager},
		"product:list": gate.AnyRole(),
	}
	if !table.Allows(gate.RoleManager, "product:archive") {
		t.Error("manager should be allowed through wildcard entry")
	}
	if table.Allows(gate.RolePaymentAgent, "product:archive") {
		t.Error("payment agent should not archive products")
	}
	if !table.Allows(gate.RolePaymentAgent, "product:list") {
		t.Error("any role should list products")
	}
}
