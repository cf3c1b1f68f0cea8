package auth

import (
	"slices"

	"azbeauty-be/internal/apperror"
)

// Policy describes who may call an operation.
type Policy struct {
	Name          string
	Authenticated bool
	Roles         []Role
}

var (
	Public          = Policy{Name: "public"}
	Authenticated   = Policy{Name: "authenticated", Authenticated: true}
	Staff           = Policy{Name: "staff", Authenticated: true, Roles: []Role{RoleOwner, RoleAdmin, RoleManager, RoleSupport}}
	CatalogManagers = Policy{Name: "catalog", Authenticated: true, Roles: []Role{RoleOwner, RoleAdmin, RoleManager}}
	OwnerAdmin      = Policy{Name: "owner_admin", Authenticated: true, Roles: []Role{RoleOwner, RoleAdmin}}
)

var (
	errUnauthorized = apperror.Unauthorized("Unauthorized")
	errForbidden    = apperror.Forbidden("Forbidden")
)

// Allow reports whether p may act under the policy. A nil principal is anonymous.
func (pol Policy) Allow(p *Principal) error {
	if !pol.Authenticated {
		return nil
	}
	if p == nil {
		return errUnauthorized
	}
	if len(pol.Roles) == 0 || slices.Contains(pol.Roles, p.Role) {
		return nil
	}
	return errForbidden
}

// IsStaff reports whether the role may reach the back office at all.
func IsStaff(r Role) bool {
	return slices.Contains(Staff.Roles, r)
}
