package auth

import "context"

type contextKey struct{}

var actorKey contextKey

// ContextWithActor stores the acting operator's display name.
func ContextWithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFromContext returns the acting operator's display name, if any.
func ActorFromContext(ctx context.Context) string {
	actor, _ := ctx.Value(actorKey).(string)
	return actor
}
