package model

import (
	"fmt"

	"github.com/lendflow/lendflow/engine/core"
)

// Capability names a single permission checked by handlers and use cases.
type Capability string

const (
	CapUsersManage         Capability = "users.manage"
	CapBillingManage       Capability = "billing.manage"
	CapApplicantsWrite     Capability = "applicants.write"
	CapApplicationsWrite   Capability = "applications.write"
	CapApplicationsAssign  Capability = "applications.assign"
	CapLoanConfirm         Capability = "loan.confirm"
	CapLoanViewFinancials  Capability = "loan.view_financials"
	CapDocumentsWrite      Capability = "documents.write"
	CapDocumentsDelete     Capability = "documents.delete"
	CapVerificationAssign  Capability = "verification.assign"
	CapVerificationPerform Capability = "verification.perform"
	CapVerificationReview  Capability = "verification.review"
)

var allCapabilities = []Capability{
	CapUsersManage,
	CapBillingManage,
	CapApplicantsWrite,
	CapApplicationsWrite,
	CapApplicationsAssign,
	CapLoanConfirm,
	CapLoanViewFinancials,
	CapDocumentsWrite,
	CapDocumentsDelete,
	CapVerificationAssign,
	CapVerificationPerform,
	CapVerificationReview,
}

var roleCapabilities = map[Role][]Capability{
	RoleOwner: allCapabilities,
	RoleAdmin: allCapabilities,
	RoleManager: {
		CapApplicantsWrite,
		CapApplicationsWrite,
		CapApplicationsAssign,
		CapLoanConfirm,
		CapLoanViewFinancials,
		CapDocumentsWrite,
		CapDocumentsDelete,
		CapVerificationAssign,
		CapVerificationReview,
	},
	RoleCreditOfficer: {
		CapApplicantsWrite,
		CapApplicationsWrite,
		CapLoanViewFinancials,
		CapDocumentsWrite,
		CapVerificationAssign,
		CapVerificationReview,
	},
	RoleFieldAgent: {
		CapDocumentsWrite,
		CapVerificationPerform,
	},
	RoleViewer: {},
}

// RoleCapabilities returns the capabilities granted to role.
func RoleCapabilities(role Role) []Capability {
	caps := roleCapabilities[role]
	out := make([]Capability, len(caps))
	copy(out, caps)
	return out
}

// Can reports whether the user's role grants c. Disabled users can do nothing.
func (u *User) Can(c Capability) bool {
	if !u.IsActive() {
		return false
	}
	for _, granted := range roleCapabilities[u.Role] {
		if granted == c {
			return true
		}
	}
	return false
}

// Require returns a FORBIDDEN error when the user lacks c.
func (u *User) Require(c Capability) error {
	if u.Can(c) {
		return nil
	}
	return core.NewError(fmt.Errorf("missing capability %s", c), core.CodeForbidden, map[string]any{
		"capability": string(c),
	})
}
