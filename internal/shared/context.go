package shared

import "context"

type actorContextKey struct{}

// Actor identifies the authenticated staff or admin a mutation is performed for.
// The route layer resolves it from its transport; zero ID means system-initiated.
type Actor struct {
	ID   int64
	Name string
}

// ContextWithActor stores the actor in context.
func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext extracts the actor from context.
func ActorFromContext(ctx context.Context) Actor {
	actor, _ := ctx.Value(actorContextKey{}).(Actor)
	return actor
}
