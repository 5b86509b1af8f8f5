package access

import (
	"context"

	"github.com/goliatone/go-router"
)

var actorCtxKey = &contextKey{"actor"}

type contextKey struct {
	name string
}

// WithActorContext sets the Actor in the given context
func WithActorContext(ctx context.Context, actor *Actor) context.Context {
	return context.WithValue(ctx, actorCtxKey, actor)
}

// ActorFromContext finds the actor from the context.
func ActorFromContext(ctx context.Context) (*Actor, bool) {
	raw, ok := ctx.Value(actorCtxKey).(*Actor)
	return raw, ok
}

// ActorFromRouterContext extracts the actor stashed by the route guard.
func ActorFromRouterContext(ctx router.Context) (*Actor, bool) {
	raw := ctx.Locals(actorLocalsKey)
	if raw == nil {
		return nil, false
	}
	actor, ok := raw.(*Actor)
	return actor, ok
}

const actorLocalsKey = "actor"
