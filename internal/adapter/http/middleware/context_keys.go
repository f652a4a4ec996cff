package middleware

import (
	"context"

	"github.com/Abdurahmanit/GroupProject/realty-service/internal/catalog/domain"
)

// ContextKey is the type of the keys this package stores in a request context.
type ContextKey string

const ActorCtxKey = ContextKey("actor")

// WithActor returns ctx carrying the authenticated actor.
func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, ActorCtxKey, actor)
}

// ActorFromContext returns the actor set by JWTAuth.
func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(ActorCtxKey).(domain.Actor)
	if !ok || actor.ID == "" {
		return domain.Actor{}, false
	}
	return actor, true
}
