package middleware

import (
	"context"

	"github.com/el-rey08/EDHF-logistics/internal/domain"
)

type ContextKey string

const (
	ClaimsCtxKey    = ContextKey("claims")
	RequestIDCtxKey = ContextKey("request_id")
)

// WithClaims returns a copy of ctx carrying c.
func WithClaims(ctx context.Context, c *domain.Claims) context.Context {
	return context.WithValue(ctx, ClaimsCtxKey, c)
}

// ClaimsFromContext returns the authenticated caller, or nil.
func ClaimsFromContext(ctx context.Context) *domain.Claims {
	c, _ := ctx.Value(ClaimsCtxKey).(*domain.Claims)
	return c
}

func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDCtxKey).(string)
	return id
}
