package auth

import (
	"context"
)

type contextKey int

const (
	claimsKey contextKey = iota
)

// ClaimsFrom returns the claims from context, or nil if not authenticated.
func ClaimsFrom(ctx context.Context) *UserClaims {
	claims, _ := ctx.Value(claimsKey).(*UserClaims)
	return claims
}

// UserID returns the user ID (subject) from context, or empty string if
// not authenticated.
func UserID(ctx context.Context) string {
	claims := ClaimsFrom(ctx)
	if claims == nil {
		return ""
	}
	return claims.Subject
}

// Email returns the user's email from context, or empty string if not
// available.
func Email(ctx context.Context) string {
	claims := ClaimsFrom(ctx)
	if claims == nil {
		return ""
	}
	return claims.Email
}

// IsAuthenticated returns true if the request has valid authentication.
func IsAuthenticated(ctx context.Context) bool {
	return ClaimsFrom(ctx) != nil
}

// HasPermission checks if the user has a specific permission.
func HasPermission(ctx context.Context, permission string) bool {
	claims := ClaimsFrom(ctx)
	if claims == nil {
		return false
	}
	for _, p := range claims.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}
