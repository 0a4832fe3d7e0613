package auth

import (
	"context"

	"github.com/dmitrijs2005/usergate/internal/server/models"
)

type ctxKey string

const principalKey ctxKey = "principal"

// Principal is the authenticated caller attached to a request.
type Principal struct {
	UserID string
	Email  string
	Role   models.Role
}

func PrincipalFromClaims(c *Claims) Principal {
	return Principal{UserID: c.Subject, Email: c.Email, Role: c.Role}
}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}
