// Package authz holds the one role check every protected operation goes through.
package authz

import (
	"fmt"
	"strings"

	"tussles/internal/apperror"
	"tussles/internal/model"
)

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed bool
	Reason  string
}

// Check decides whether user may act in requiredRole.
func Check(user *model.User, requiredRole string) Decision {
	if user == nil {
		return Decision{Allowed: false, Reason: "no authenticated user"}
	}
	if user.Role != requiredRole {
		return Decision{Allowed: false, Reason: fmt.Sprintf("role %q required", requiredRole)}
	}
	return Decision{Allowed: true}
}

// Require allows the user when any of roles matches, otherwise returns a
// Forbidden error.
func Require(user *model.User, roles ...string) error {
	for _, role := range roles {
		if Check(user, role).Allowed {
			return nil
		}
	}
	if len(roles) == 1 {
		return apperror.Forbidden(fmt.Sprintf("Access denied. %s role required.", titleCase(roles[0])))
	}
	return apperror.Forbidden("Access denied: insufficient permissions")
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
