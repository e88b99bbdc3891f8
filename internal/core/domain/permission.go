package domain

import "strings"

// Permission names used across the admin console and the API.
const (
	PermDashboardView     = "dashboard.view"
	PermOrdersView        = "orders.view"
	PermOrdersUpdate      = "orders.update"
	PermProductsView      = "products.view"
	PermInventoryView     = "inventory.view"
	PermInventoryUpdate   = "inventory.update"
	PermCustomersView     = "customers.view"
	PermPaymentsView      = "payments.view"
	PermNotificationsSend = "notifications.send"
	PermUserManageCreate  = "user.manage.create"
	PermUserManageDelete  = "user.manage.delete"
)

// userManagePrefix marks permissions a manager never holds.
const userManagePrefix = "user.manage"

// staffAllowList is the complete set of permissions granted to staff.
var staffAllowList = map[string]struct{}{
	PermDashboardView: {},
	PermOrdersView:    {},
	PermOrdersUpdate:  {},
	PermProductsView:  {},
	PermInventoryView: {},
	PermCustomersView: {},
}

// IsElevatedRole reports whether role is granted every permission.
func IsElevatedRole(role string) bool {
	switch role {
	case RoleAdmin, RoleSuperAdmin, RoleOwner:
		return true
	}
	return false
}

// HasPermission decides whether p may use permission. An explicit
// permissions list, even an empty one, takes precedence over the role
// table. Unknown and missing roles are denied.
func HasPermission(p *Principal, permission string) bool {
	if p == nil {
		return false
	}
	if p.Permissions != nil {
		for _, granted := range p.Permissions {
			if granted == permission {
				return true
			}
		}
		return false
	}

	switch {
	case IsElevatedRole(p.Role):
		return true
	case p.Role == RoleManager:
		return !strings.HasPrefix(permission, userManagePrefix)
	case p.Role == RoleStaff:
		_, ok := staffAllowList[permission]
		return ok
	default:
		return false
	}
}
