package api

import (
	"context"

	"facilitybooking/internal/account"
)

type ctxKey string

const ctxKeyActor ctxKey = "actor"

func WithActor(ctx context.Context, a account.Actor) context.Context {
	return context.WithValue(ctx, ctxKeyActor, a)
}

func ActorFromContext(ctx context.Context) (account.Actor, bool) {
	v := ctx.Value(ctxKeyActor)
	if v == nil {
		return account.Actor{}, false
	}
	a, ok := v.(account.Actor)
	return a, ok
}
