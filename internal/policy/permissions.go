package policy

import "github.com/diewo77/quincaillerie/gate"

// Resource types guarded by the gate.
const (
	ResourceCategory    = "category"
	ResourceSubCategory = "subcategory"
	ResourceProduct     = "product"
	ResourceSupplier    = "supplier"
	ResourceOrder       = "order"
	ResourcePayment     = "payment"
	ResourceDebt        = "debt"
	ResourceUser        = "user"
)

// ActionStats reads aggregate dashboards.
const ActionStats gate.Action = "stats"

// Permissions is the role table checked once per route.
// Every read is open to any authenticated role; writes are role-gated.
func Permissions() gate.Table {
	var (
		manager    = []gate.Role{gate.RoleManager}
		purchasing = []gate.Role{gate.RolePurchasingAgent, gate.RoleManager}
		paying     = []gate.Role{gate.RolePaymentAgent, gate.RoleManager}
		anyone     = gate.AnyRole()
	)
	t := gate.Table{
		// Orders
		gate.NewPermission(ResourceOrder, gate.ActionCreate):  purchasing,
		gate.NewPermission(ResourceOrder, gate.ActionCancel):  purchasing,
		gate.NewPermission(ResourceOrder, gate.ActionDeliver): purchasing,
		gate.NewPermission(ResourceOrder, gate.ActionList):    anyone,
		gate.NewPermission(ResourceOrder, gate.ActionView):    anyone,
		gate.NewPermission(ResourceOrder, ActionStats):        anyone,

		// Payments
		gate.NewPermission(ResourcePayment, gate.ActionCreate): paying,
		gate.NewPermission(ResourcePayment, gate.ActionList):   anyone,
		gate.NewPermission(ResourcePayment, gate.ActionView):   anyone,
		gate.NewPermission(ResourceDebt, gate.ActionList):      anyone,

		// Users
		gate.NewPermission(ResourceUser, gate.WildcardAll): manager,
	}
	// Catalog and suppliers: reads for everyone, writes for managers.
	for _, res := range []string{ResourceCategory, ResourceSubCategory, ResourceProduct, ResourceSupplier} {
		t[gate.NewPermission(res, gate.WildcardAll)] = manager
		t[gate.NewPermission(res, gate.ActionList)] = anyone
		t[gate.NewPermission(res, gate.ActionView)] = anyone
	}
	return t
}
