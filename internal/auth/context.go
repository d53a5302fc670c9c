package auth

import (
	"context"
	"strings"
)

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID string
	Roles  []string
}

// Can reports whether the principal holds perm.
func (p Principal) Can(perm string) bool { return Allowed(p.Roles, perm) }

type principalContextKey struct{}

// ContextWithPrincipal attaches the authenticated principal to the context.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	p.UserID = strings.TrimSpace(p.UserID)
	p.Roles = NormalizeRoles(p.Roles)
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the authenticated principal from the context.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	if ctx == nil {
		return Principal{}, false
	}
	p, ok := ctx.Value(principalContextKey{}).(Principal)
	if !ok || p.UserID == "" {
		return Principal{}, false
	}
	return p, true
}

// UserIDFromContext extracts the authenticated user ID from context.
func UserIDFromContext(ctx context.Context) (string, bool) {
	p, ok := PrincipalFromContext(ctx)
	if !ok {
		return "", false
	}
	return p.UserID, true
}
