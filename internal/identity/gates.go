package identity

import "github.com/ahmetcoskunkizilkaya/voicebank/internal/models"

// Gate refuses sign-in for an existing account when Match is true.
type Gate struct {
	Name    string
	Kind    Kind
	Message string
	Match   func(a *models.Account) bool
}

// SignInGates is evaluated top to bottom and stops at the first match.
// Insert new gates at the position that reflects their precedence.
var SignInGates = []Gate{
	{
		Name:    "admin",
		Kind:    KindAdminMustUseAdminLogin,
		Message: "Admin accounts must sign in through the admin login",
		Match:   func(a *models.Account) bool { return a.Role == models.RoleAdmin },
	},
	{
		Name:    "pending",
		Kind:    KindPendingApproval,
		Message: "Your reviewer application is awaiting approval",
		Match: func(a *models.Account) bool {
			return a.Role == models.RoleReviewer && a.Status == models.StatusPending
		},
	},
	{
		Name:    "rejected",
		Kind:    KindApplicationRejected,
		Message: "Your reviewer application was rejected",
		Match: func(a *models.Account) bool {
			return a.Role == models.RoleReviewer && a.Status == models.StatusRejected
		},
	},
	{
		Name:    "deactivated",
		Kind:    KindAccountDeactivated,
		Message: "This account has been deactivated",
		Match:   func(a *models.Account) bool { return !a.IsActive },
	},
}

// CheckGates returns the first gate that refuses the account, or nil.
func CheckGates(gates []Gate, a *models.Account) *Gate {
	for i := range gates {
		if gates[i].Match(a) {
			return &gates[i]
		}
	}
	return nil
}
