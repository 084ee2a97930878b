package storage

import "context"

// actorKey is a private type for the actor context key, preventing
// collisions with other packages.
type actorKey struct{}

// SetActor injects the acting user or session name into the context.
// Stores use it to attribute records that carry no explicit actor.
func SetActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// GetActor extracts the actor from the context.
// Returns an empty string if no actor is set.
func GetActor(ctx context.Context) string {
	if v, ok := ctx.Value(actorKey{}).(string); ok {
		return v
	}
	return ""
}
