package auth

import "context"

type Role string

const (
	RoleUser    Role = "user"
	RoleAdmin   Role = "admin"
	RoleOwner   Role = "owner"
	RoleManager Role = "manager"
	RoleSupport Role = "support"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleOwner, RoleManager, RoleSupport:
		return true
	}
	return false
}

// Principal is the verified caller. Role comes from the caller's profile, not the token.
type Principal struct {
	UserID string
	Email  string
	Role   Role
}

type contextKey string

const principalKey contextKey = "principal"

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFrom returns nil for anonymous requests.
func PrincipalFrom(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey).(*Principal)
	return p
}
