package domain

import "testing"

func TestHasPermission(t *testing.T) {
	manager := &Principal{Role: RoleManager}
	staff := &Principal{Role: RoleStaff}
	admin := &Principal{Role: RoleAdmin}

	tests := []struct {
		name       string
		principal  *Principal
		permission string
		want       bool
	}{
		{"manager denied user management", manager, PermUserManageDelete, false},
		{"manager denied user create", manager, PermUserManageCreate, false},
		{"manager allowed orders", manager, PermOrdersView, true},
		{"manager allowed unknown non-user permission", manager, "reports.export", true},
		{"staff allowed listed", staff, PermInventoryView, true},
		{"staff denied unlisted", staff, PermInventoryUpdate, false},
		{"staff denied payments", staff, PermPaymentsView, false},
		{"admin allowed user management", admin, PermUserManageDelete, true},
		{"admin allowed arbitrary", admin, "anything.at.all", true},
		{"superadmin allowed", &Principal{Role: RoleSuperAdmin}, PermNotificationsSend, true},
		{"owner allowed", &Principal{Role: RoleOwner}, PermNotificationsSend, true},
		{"customer denied", &Principal{Role: RoleCustomer}, PermOrdersView, false},
		{"missing role denied", &Principal{}, PermDashboardView, false},
		{"unknown role denied", &Principal{Role: "cashier"}, PermDashboardView, false},
		{"nil principal denied", nil, PermDashboardView, false},
		{"explicit list grants", &Principal{Role: RoleStaff, Permissions: []string{PermPaymentsView}}, PermPaymentsView, true},
		{"explicit list overrides staff table", &Principal{Role: RoleStaff, Permissions: []string{PermPaymentsView}}, PermOrdersView, false},
		{"explicit list overrides admin", &Principal{Role: RoleAdmin, Permissions: []string{PermOrdersView}}, PermUserManageDelete, false},
		{"empty explicit list denies", &Principal{Role: RoleAdmin, Permissions: []string{}}, PermOrdersView, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasPermission(tt.principal, tt.permission); got != tt.want {
				t.Errorf("HasPermission(%+v, %q) = %v, want %v", tt.principal, tt.permission, got, tt.want)
			}
		})
	}
}

func TestRoleClassification(t *testing.T) {
	for _, role := range []string{RoleAdmin, RoleSuperAdmin, RoleOwner} {
		if !IsElevatedRole(role) || !IsStaffRole(role) {
			t.Errorf("%s must be elevated staff", role)
		}
	}
	for _, role := range []string{RoleManager, RoleStaff} {
		if IsElevatedRole(role) || !IsStaffRole(role) {
			t.Errorf("%s must be non-elevated staff", role)
		}
	}
	if IsStaffRole(RoleCustomer) || IsStaffRole("") {
		t.Error("customers and empty roles are not staff")
	}
}
