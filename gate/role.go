package gate

// Role is the closed set of staff roles. A user carries exactly one.
type Role string

const (
	RoleManager         Role = "MANAGER"
	RolePurchasingAgent Role = "PURCHASING_AGENT"
	RolePaymentAgent    Role = "PAYMENT_AGENT"
)

// Roles lists every known role.
var Roles = []Role{RoleManager, RolePurchasingAgent, RolePaymentAgent}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// Table maps a permission to the roles allowed to exercise it.
// Keys may use wildcards ("catalog:*"); a role is allowed when any
// matching key lists it.
type Table map[Permission][]Role

// Allows reports whether role may exercise the requested permission.
func (t Table) Allows(role Role, requested Permission) bool {
	for perm, roles := range t {
		if !perm.Matches(requested) {
			continue
		}
		for _, r := range roles {
			if r == role {
				return true
			}
		}
	}
	return false
}

// AnyRole is shorthand for table entries open to every authenticated role.
func AnyRole() []Role {
	out := make([]Role, len(Roles))
	copy(out, Roles)
	return out
}
