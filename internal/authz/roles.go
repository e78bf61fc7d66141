package authz

import (
	"strings"

	"github.com/soinechankit/Soinech-CRM/internal/models"
)

// ParseRole accepts the role claim as issued by the identity provider.
func ParseRole(s string) (models.UserRole, bool) {
	switch r := models.UserRole(strings.ToLower(strings.TrimSpace(s))); r {
	case models.RoleAdmin, models.RoleManager, models.RoleSalesExecutive:
		return r, true
	}
	return "", false
}

// IsElevated is true for roles that see every record.
func IsElevated(role models.UserRole) bool {
	return role == models.RoleAdmin || role == models.RoleManager
}

func IsAdmin(role models.UserRole) bool {
	return role == models.RoleAdmin
}

// CanAccess reports whether the user may read or modify a record assigned to
// assignedTo. Sales executives only reach their own records.
func CanAccess(userID string, role models.UserRole, assignedTo *string) bool {
	if IsElevated(role) {
		return true
	}
	return assignedTo != nil && *assignedTo == userID
}

// ScopeFor returns the assignee filter to apply to list queries: nil for
// elevated roles, the user's own id otherwise.
func ScopeFor(userID string, role models.UserRole) *string {
	if IsElevated(role) {
		return nil
	}
	return &userID
}
