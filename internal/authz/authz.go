package authz

import (
	"github.com/rsolano/tracklio/backend/internal/models"
	"github.com/rsolano/tracklio/backend/pkg/response"
)

// Principal is the authenticated actor attached to a request. It is passed
// explicitly into every core call; there is no ambient auth state.
type Principal struct {
	UserID   string
	TenantID string
	Role     string
}

// Action names an operation checked by the guard.
type Action string

const (
	ActionReadProject   Action = "project:read"
	ActionWriteProject  Action = "project:write"
	ActionReadTask      Action = "task:read"
	ActionWriteTask     Action = "task:write"
	ActionManageUsers   Action = "user:manage"
	ActionListUsers     Action = "user:list"
	ActionListTenants   Action = "tenant:list" // explicitly cross-tenant, super_admin only
)

// Authorize decides whether principal may perform action against a resource
// owned by resourceTenantID. It is a pure function: no database access, no
// side effects. A nil return means allow; otherwise the returned error is a
// stable Forbidden.
//
// Tenant scoping itself is enforced at the query layer: resource lookups are
// always filtered by the principal's tenant, so a cross-tenant resource is
// indistinguishable from a missing one (NotFound). The guard therefore only
// sees resourceTenantID values that already matched, except for super_admin
// operations that are explicitly cross-tenant.
func Authorize(p Principal, action Action, resourceTenantID string) error {
	if p.UserID == "" || p.TenantID == "" {
		return response.NewUnauthorized("missing principal")
	}

	// super_admin is tenant-scoped by default; only explicitly cross-tenant
	// actions may span tenants.
	if p.TenantID != resourceTenantID {
		if crossTenantAllowed(action) {
			if p.Role == models.RoleSuperAdmin {
				return nil
			}
			return response.NewForbidden("tenant administration requires super_admin")
		}
		return response.NewForbidden("resource belongs to another tenant")
	}

	switch action {
	case ActionReadProject, ActionWriteProject, ActionReadTask, ActionWriteTask:
		// All roles may read and write projects and tasks inside their
		// own tenant.
		return nil
	case ActionManageUsers, ActionListUsers:
		if p.Role == models.RoleTenantAdmin || p.Role == models.RoleSuperAdmin {
			return nil
		}
		return response.NewForbidden("user management requires an admin role")
	case ActionListTenants:
		if p.Role == models.RoleSuperAdmin {
			return nil
		}
		return response.NewForbidden("tenant administration requires super_admin")
	}

	return response.NewForbidden("unknown action")
}

func crossTenantAllowed(action Action) bool {
	return action == ActionListTenants
}
