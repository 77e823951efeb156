package models

import (
	"fmt"
	"strings"
)

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleSuperAdmin UserRole = "SUPERADMIN"
	RoleAdmin      UserRole = "ADMIN"
	RoleRegistrar  UserRole = "REGISTRAR"
	RoleDean       UserRole = "DEAN"
	RoleAccounting UserRole = "ACCOUNTING"
	RoleInstructor UserRole = "INSTRUCTOR"
	RoleStudent    UserRole = "STUDENT"
)

var knownRoles = map[UserRole]struct{}{
	RoleSuperAdmin: {},
	RoleAdmin:      {},
	RoleRegistrar:  {},
	RoleDean:       {},
	RoleAccounting: {},
	RoleInstructor: {},
	RoleStudent:    {},
}

// Valid reports whether the role belongs to the closed role set.
func (r UserRole) Valid() bool {
	_, ok := knownRoles[r]
	return ok
}

// ParseRole normalises a role name.
func ParseRole(raw string) (UserRole, error) {
	role := UserRole(strings.ToUpper(strings.TrimSpace(raw)))
	if !role.Valid() {
		return "", fmt.Errorf("unknown role %q", raw)
	}
	return role, nil
}

// ParseRoles accepts a list of role names, expanding legacy comma separated entries.
func ParseRoles(raw []string) ([]UserRole, error) {
	roles := make([]UserRole, 0, len(raw))
	seen := make(map[UserRole]struct{}, len(raw))
	for _, entry := range raw {
		for _, part := range strings.Split(entry, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			role, err := ParseRole(part)
			if err != nil {
				return nil, err
			}
			if _, dup := seen[role]; dup {
				continue
			}
			seen[role] = struct{}{}
			roles = append(roles, role)
		}
	}
	return roles, nil
}

// HasAnyOf reports whether actor holds at least one of the required roles.
func HasAnyOf(actor []UserRole, required ...UserRole) bool {
	for _, have := range actor {
		for _, want := range required {
			if have == want {
				return true
			}
		}
	}
	return false
}

// Actor identifies the caller of a mutating operation.
type Actor struct {
	UserID   string     `json:"user_id"`
	Roles    []UserRole `json:"roles"`
	CampusID string     `json:"campus_id,omitempty"`
}

// HasAnyOf is a convenience wrapper over the package level check.
func (a Actor) HasAnyOf(required ...UserRole) bool {
	return HasAnyOf(a.Roles, required...)
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
