package shared

// Permissions checked by route guards.
const (
	PermOrdersEdit        = "orders.edit"
	PermLedgerEdit        = "ledger.edit"
	PermStatementsView    = "statements.view"
	PermSuppliersPurchase = "suppliers.purchase"
	PermSuppliersPay      = "suppliers.pay"
	PermExpensesEdit      = "expenses.edit"
	PermReportsView       = "reports.view"
	PermAlertsView        = "alerts.view"
	PermAuditView         = "audit.view"
)

// Roles a user account can hold.
const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

// AllPermissions lists every permission in display order.
func AllPermissions() []string {
	return []string{
		PermOrdersEdit,
		PermLedgerEdit,
		PermStatementsView,
		PermSuppliersPurchase,
		PermSuppliersPay,
		PermExpensesEdit,
		PermReportsView,
		PermAlertsView,
		PermAuditView,
	}
}

// RolePermissions returns the permissions granted to role. Unknown roles get none.
func RolePermissions(role string) []string {
	switch role {
	case RoleAdmin:
		return AllPermissions()
	case RoleStaff:
		return []string{
			PermOrdersEdit,
			PermLedgerEdit,
			PermStatementsView,
			PermSuppliersPurchase,
			PermAlertsView,
		}
	default:
		return nil
	}
}
