package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"satshop/internal/errors"
)

var allActions = []Action{
	ActionViewSettings,
	ActionEditSettings,
	ActionViewOrderPublic,
	ActionViewOrderParts,
	ActionRecordCashEntry,
	ActionViewCashLedger,
	ActionManageUsers,
}

func TestIsAllowed_DecisionTable(t *testing.T) {
	tests := []struct {
		role    Role
		allowed map[Action]bool
	}{
		{
			role: RoleAdmin,
			allowed: map[Action]bool{
				ActionViewSettings:    true,
				ActionEditSettings:    true,
				ActionViewOrderPublic: true,
				ActionViewOrderParts:  true,
				ActionRecordCashEntry: true,
				ActionViewCashLedger:  true,
				ActionManageUsers:     true,
			},
		},
		{
			role: RoleTechnician,
			allowed: map[Action]bool{
				ActionViewSettings:    true,
				ActionViewOrderPublic: true,
				ActionViewOrderParts:  true,
			},
		},
		{
			role: RoleCashier,
			allowed: map[Action]bool{
				ActionViewOrderPublic: true,
				ActionRecordCashEntry: true,
				ActionViewCashLedger:  true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			for _, action := range allActions {
				assert.Equal(t, tt.allowed[action], IsAllowed(tt.role, action),
					"role %s action %s", tt.role, action)
			}
		})
	}
}

func TestIsAllowed_UnknownInputsDeny(t *testing.T) {
	for _, action := range allActions {
		assert.False(t, IsAllowed(Role("manager"), action))
		assert.False(t, IsAllowed(Role(""), action))
	}
	for _, role := range []Role{RoleAdmin, RoleTechnician, RoleCashier} {
		assert.False(t, IsAllowed(role, Action("format-disk")))
		assert.False(t, IsAllowed(role, Action("")))
	}
}

func TestParseRole(t *testing.T) {
	for _, valid := range []string{"admin", "technician", "cashier"} {
		role, err := ParseRole(valid)
		assert.NoError(t, err)
		assert.Equal(t, Role(valid), role)
	}

	for _, invalid := range []string{"", "Admin", "root", "superuser"} {
		_, err := ParseRole(invalid)
		assert.ErrorIs(t, err, errors.ErrInvalidRole)
	}
}
