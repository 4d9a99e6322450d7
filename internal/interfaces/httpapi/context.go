package httpapi

import (
	"context"

	"github.com/fanstake/squad-ledger/internal/domain/access"
)

type contextKey string

const principalContextKey contextKey = "auth_principal"

func withPrincipal(ctx context.Context, p access.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, p)
}

func principalFromContext(ctx context.Context) (access.Principal, bool) {
	p, ok := ctx.Value(principalContextKey).(access.Principal)
	return p, ok
}
