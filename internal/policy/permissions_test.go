package policy

import (
	"testing"

	"github.com/diewo77/quincaillerie/gate"
)

func TestPermissions(t *testing.T) {
	table := Permissions()
	m, pa, pay := gate.RoleManager, gate.RolePurchasingAgent, gate.RolePaymentAgent

	tests := []struct {
		perm    gate.Permission
		allowed []gate.Role
		denied  []gate.Role
	}{
		{"order:create", []gate.Role{m, pa}, []gate.Role{pay}},
		{"order:deliver", []gate.Role{m, pa}, []gate.Role{pay}},
		{"order:cancel", []gate.Role{m, pa}, []gate.Role{pay}},
		{"order:list", []gate.Role{m, pa, pay}, nil},
		{"order:view", []gate.Role{m, pa, pay}, nil},
		{"order:stats", []gate.Role{m, pa, pay}, nil},
		{"payment:create", []gate.Role{m, pay}, []gate.Role{pa}},
		{"payment:list", []gate.Role{m, pa, pay}, nil},
		{"payment:view", []gate.Role{m, pa, pay}, nil},
		{"debt:list", []gate.Role{m, pa, pay}, nil},
		{"product:list", []gate.Role{m, pa, pay}, nil},
		{"product:view", []gate.Role{m, pa, pay}, nil},
		{"product:create", []gate.Role{m}, []gate.Role{pa, pay}},
		{"supplier:archive", []gate.Role{m}, []gate.Role{pa, pay}},
		{"category:delete", []gate.Role{m}, []gate.Role{pa, pay}},
		{"subcategory:update", []gate.Role{m}, []gate.Role{pa, pay}},
		{"user:create", []gate.Role{m}, []gate.Role{pa, pay}},
		{"user:list", []gate.Role{m}, []gate.Role{pa, pay}},
	}
	for _, tt := range tests {
		for _, r := range tt.allowed {
			if !table.Allows(r, tt.perm) {
				t.Errorf("%s should be allowed %s", r, tt.perm)
			}
		}
		for _, r := range tt.denied {
			if table.Allows(r, tt.perm) {
				t.Errorf("%s should not be allowed %s", r, tt.perm)
			}
		}
	}
}
