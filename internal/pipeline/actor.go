package pipeline

import "context"

// SystemActor is the identity used when a request carries no caller identity.
const SystemActor = "SYSTEM"

type actorKey struct{}

// WithActor attaches the caller identity to the context.
func WithActor(ctx context.Context, actor string) context.Context {
	if actor == "" {
		return ctx
	}

	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom resolves the caller identity, falling back to SystemActor.
func ActorFrom(ctx context.Context) string {
	if actor, ok := ctx.Value(actorKey{}).(string); ok && actor != "" {
		return actor
	}

	return SystemActor
}
