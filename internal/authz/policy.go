// Package authz maps a verified session's role to the operations it may
// perform. Denials are reported explicitly, never downgraded to read-only.
package authz

import (
	"fmt"

	"github.com/mkalinins/dashvault/internal/common"
)

// Role is the access level carried inside a session token.
type Role string

const (
	RoleViewer  Role = "viewer"
	RoleCreator Role = "creator"
	RoleAdmin   Role = "admin"
)

// ParseRole validates a role string coming from a token payload or an API
// request.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleViewer, RoleCreator, RoleAdmin:
		return Role(s), true
	}
	return "", false
}

// Operation identifies a store action subject to authorization.
type Operation string

const (
	OpReadDashboard   Operation = "dashboard:read"
	OpListDashboards  Operation = "dashboard:list"
	OpWriteDashboard  Operation = "dashboard:write"
	OpDeleteDashboard Operation = "dashboard:delete"
	OpRebuildIndex    Operation = "index:rebuild"
	OpManageUsers     Operation = "users:manage"
)

// Authorize reports whether role may perform op. Reads require any valid
// role, dashboard mutations require creator or admin, user administration
// and index repair require admin.
func Authorize(role Role, op Operation) error {
	switch op {
	case OpReadDashboard, OpListDashboards:
		if _, ok := ParseRole(string(role)); ok {
			return nil
		}
	case OpWriteDashboard, OpDeleteDashboard:
		if role == RoleCreator || role == RoleAdmin {
			return nil
		}
	case OpRebuildIndex, OpManageUsers:
		if role == RoleAdmin {
			return nil
		}
	}
	return fmt.Errorf("%s not permitted for role %q: %w", op, role, common.ErrForbidden)
}
