// Package auth holds user accounts, roles and bearer-token sessions.
package auth

import (
	"fmt"

	"github.com/revisehub/revisehub/internal/platform/errs"
)

// Role classifies what a user may do. The set is closed; anything else
// is rejected at the boundary.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleParent  Role = "parent"
)

// ParseRole converts a wire string into a Role.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleStudent, RoleTeacher, RoleParent:
		return Role(s), nil
	}
	return "", fmt.Errorf("%w: unknown role %q", errs.ErrInvalidInput, s)
}

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}
