package domain

type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleEmployee Role = "EMPLOYEE"
	RoleAdmin    Role = "ADMIN"
	// RoleSystem is used by the sweeper and the payment notification path.
	RoleSystem Role = "SYSTEM"
)

// Principal is the acting identity supplied by the identity provider.
type Principal struct {
	UserID int32 `json:"user_id"`
	Role   Role  `json:"role"`
	// BranchID is the employee's home branch.
	BranchID *int32 `json:"branch_id,omitempty"`
}

var SystemPrincipal = Principal{Role: RoleSystem}

func (p Principal) IsStaff() bool {
	return p.Role == RoleEmployee || p.Role == RoleAdmin
}

// WorksAt reports whether the principal may act for branchID.
// Admins act for every branch.
func (p Principal) WorksAt(branchID int32) bool {
	if p.Role == RoleAdmin {
		return true
	}
	return p.Role == RoleEmployee && p.BranchID != nil && *p.BranchID == branchID
}
