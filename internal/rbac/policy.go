package rbac

import "satshop/internal/errors"

// Role is the closed set of staff roles.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleTechnician Role = "technician"
	RoleCashier    Role = "cashier"
)

// Action identifies an operation gated by the policy.
type Action string

const (
	ActionViewSettings    Action = "view-settings"
	ActionEditSettings    Action = "edit-settings"
	ActionViewOrderPublic Action = "view-order-public"
	ActionViewOrderParts  Action = "view-order-internal-parts"
	ActionRecordCashEntry Action = "record-cash-entry"
	ActionViewCashLedger  Action = "view-cash-ledger"
	ActionManageUsers     Action = "manage-users"
)

// ParseRole validates a role value against the closed set.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleTechnician, RoleCashier:
		return Role(s), nil
	}
	return "", errors.ErrInvalidRole
}

// permissions is the full decision table. Admin is allowed everything;
// anything absent from a role's row is denied.
var permissions = map[Role]map[Action]bool{
	RoleAdmin: {
		ActionViewSettings:    true,
		ActionEditSettings:    true,
		ActionViewOrderPublic: true,
		ActionViewOrderParts:  true,
		ActionRecordCashEntry: true,
		ActionViewCashLedger:  true,
		ActionManageUsers:     true,
	},
	RoleTechnician: {
		ActionViewSettings:    true,
		ActionViewOrderPublic: true,
		ActionViewOrderParts:  true,
	},
	RoleCashier: {
		ActionViewOrderPublic: true,
		ActionRecordCashEntry: true,
		ActionViewCashLedger:  true,
	},
}

// IsAllowed reports whether role may perform action. It is total:
// unknown roles and unknown actions evaluate to deny.
func IsAllowed(role Role, action Action) bool {
	return permissions[role][action]
}
