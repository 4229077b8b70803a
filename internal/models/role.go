package models

import (
	"fmt"
	"strings"
)

// Role is the closed set of roles a user can hold. Authorization decisions
// switch over it so that every site handles all three variants.
type Role string

const (
	// RoleStudent may submit activities and list their own records.
	RoleStudent Role = "student"
	// RoleTeacher reviews activities for students in their department.
	RoleTeacher Role = "teacher"
	// RoleSuperadmin has unrestricted visibility and manages the directory.
	RoleSuperadmin Role = "superadmin"
)

// ParseRole normalizes and validates a role string.
func ParseRole(value string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(value))) {
	case RoleStudent:
		return RoleStudent, nil
	case RoleTeacher:
		return RoleTeacher, nil
	case RoleSuperadmin:
		return RoleSuperadmin, nil
	default:
		return "", fmt.Errorf("unknown role %q", value)
	}
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}
