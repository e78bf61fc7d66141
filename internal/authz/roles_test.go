package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soinechankit/Soinech-CRM/internal/models"
)

func TestParseRole(t *testing.T) {
	r, ok := ParseRole(" Manager ")
	require.True(t, ok)
	assert.Equal(t, models.RoleManager, r)

	_, ok = ParseRole("audit")
	assert.False(t, ok)
}

func TestCanAccess(t *testing.T) {
	me, other := "u-1", "u-2"

	assert.True(t, CanAccess(me, models.RoleAdmin, &other))
	assert.True(t, CanAccess(me, models.RoleManager, nil))
	assert.True(t, CanAccess(me, models.RoleSalesExecutive, &me))
	assert.False(t, CanAccess(me, models.RoleSalesExecutive, &other))
	assert.False(t, CanAccess(me, models.RoleSalesExecutive, nil))
}

func TestScopeFor(t *testing.T) {
	assert.Nil(t, ScopeFor("u-1", models.RoleAdmin))
	scope := ScopeFor("u-1", models.RoleSalesExecutive)
	require.NotNil(t, scope)
	assert.Equal(t, "u-1", *scope)
}
