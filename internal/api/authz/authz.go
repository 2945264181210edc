package authz

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
)

const (
	RoleCustomer = "customer"
	RoleOwner    = "owner"
	RoleAdmin    = "admin"
)

// AuthUser is the verified principal of a request.
type AuthUser struct {
	ID    int64
	Role  string
	Email string
}

type userContextKey struct{}

func ContextWithUser(ctx context.Context, user *AuthUser) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext retrieves the AuthUser stored in ctx.
// It returns nil if ctx is nil, if no user is stored, or if the stored value has a different type.
func UserFromContext(ctx context.Context) *AuthUser {
	if ctx == nil {
		return nil
	}

	user, ok := ctx.Value(userContextKey{}).(*AuthUser)
	if !ok {
		return nil
	}

	return user
}

// NormalizeRole lowercases a role claim. Unknown roles come back empty.
func NormalizeRole(role string) string {
	switch r := strings.ToLower(strings.TrimSpace(role)); r {
	case RoleCustomer, RoleOwner, RoleAdmin:
		return r
	default:
		return ""
	}
}

// IsAdmin reports whether user holds the admin role.
func IsAdmin(user *AuthUser) bool {
	return user != nil && user.Role == RoleAdmin
}

// RequireRole checks the request principal against the allowed roles.
// Admins pass every role check.
func RequireRole(ctx context.Context, roles ...string) (*AuthUser, error) {
	user := UserFromContext(ctx)
	if user == nil {
		return nil, ErrUnauthenticated
	}
	if IsAdmin(user) {
		return user, nil
	}
	for _, role := range roles {
		if strings.EqualFold(user.Role, role) {
			return user, nil
		}
	}
	return user, ErrForbidden
}

// RequireVenueOwner allows the venue's owner and admins.
func RequireVenueOwner(ctx context.Context, ownerID int64) (*AuthUser, error) {
	user, err := RequireRole(ctx, RoleOwner)
	if err != nil {
		return user, err
	}
	if IsAdmin(user) || user.ID == ownerID {
		return user, nil
	}
	return user, ErrForbidden
}
