package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole_Valid(t *testing.T) {
	r, err := ParseRole("staff")
	require.NoError(t, err)
	assert.Equal(t, RoleStaff, r)
}

func TestParseRole_Unknown(t *testing.T) {
	_, err := ParseRole("superadmin")
	require.Error(t, err)
}

func TestSatisfies_HigherRoleSatisfiesLowerRequirement(t *testing.T) {
	assert.True(t, Satisfies(RoleOwner, RoleViewer))
	assert.True(t, Satisfies(RoleManager, RoleStaff))
	assert.True(t, Satisfies(RoleStaff, RoleStaff))
}

func TestSatisfies_LowerRoleFailsHigherRequirement(t *testing.T) {
	assert.False(t, Satisfies(RoleViewer, RoleStaff))
	assert.False(t, Satisfies(RoleGovernance, RoleManager))
}
