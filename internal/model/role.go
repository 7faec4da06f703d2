package model

// Role names carried in the JWT "role" claim
const (
	RoleSuperAdmin          = "superAdmin"
	RoleDirector            = "director"
	RoleDeputyDirector      = "deputyDirector"
	RoleHeadOfAccounting    = "headOfAccounting"
	RoleHeadOfPurchasing    = "headOfPurchasing"
	RoleCaptainOfPurchasing = "captainOfPurchasing"
	RoleInspector           = "inspector"
	RoleStaff               = "staff"
)

// AllRoles lists every assignable role
var AllRoles = []string{
	RoleSuperAdmin,
	RoleDirector,
	RoleDeputyDirector,
	RoleHeadOfAccounting,
	RoleHeadOfPurchasing,
	RoleCaptainOfPurchasing,
	RoleInspector,
	RoleStaff,
}

// ExpenseRoles may open the project expense page and work with expense records
var ExpenseRoles = []string{
	RoleSuperAdmin,
	RoleDirector,
	RoleDeputyDirector,
	RoleHeadOfAccounting,
	RoleHeadOfPurchasing,
	RoleCaptainOfPurchasing,
}

// ExpenseApproverRoles may approve and delete expense records
var ExpenseApproverRoles = []string{
	RoleSuperAdmin,
	RoleDirector,
	RoleDeputyDirector,
}

// ReportViewerRoles may browse the report summary
var ReportViewerRoles = []string{
	RoleSuperAdmin,
	RoleDirector,
	RoleDeputyDirector,
	RoleInspector,
}

// LedgerRoles may write bank-ledger entries
var LedgerRoles = []string{
	RoleSuperAdmin,
	RoleDirector,
	RoleHeadOfAccounting,
}

// ManagerRoles may manage cost centers and read the audit trail
var ManagerRoles = []string{
	RoleSuperAdmin,
	RoleDirector,
}

// ValidRole reports whether role is one of AllRoles
func ValidRole(role string) bool {
	for _, r := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}
