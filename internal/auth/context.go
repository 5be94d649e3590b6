package auth

import "context"

type contextKey string

const claimsKey contextKey = "claims"

func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

func ClaimsFrom(ctx context.Context) *Claims {
	if c, _ := ctx.Value(claimsKey).(*Claims); c != nil {
		return c
	}
	return nil
}

func UserIDFrom(ctx context.Context) int64 {
	c := ClaimsFrom(ctx)
	if c == nil {
		return 0
	}
	return c.UserID
}

func RoleFrom(ctx context.Context) string {
	c := ClaimsFrom(ctx)
	if c == nil {
		return ""
	}
	return c.Role
}

func IsCliente(ctx context.Context) bool {
	return RoleFrom(ctx) == RoleCliente
}

func IsMassoterapeuta(ctx context.Context) bool {
	return RoleFrom(ctx) == RoleMassoterapeuta
}
