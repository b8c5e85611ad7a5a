package auth

import "context"

type ctxKey string

const ctxKeyActor ctxKey = "actor"

// Actor identifies the user an import batch runs as. Workers receive it
// through the context; nothing reads ambient global state.
type Actor struct {
	ID   string
	Name string
}

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, ctxKeyActor, a)
}

func ActorFromContext(ctx context.Context) (Actor, bool) {
	if v := ctx.Value(ctxKeyActor); v != nil {
		if a, ok := v.(Actor); ok {
			return a, a.ID != ""
		}
	}
	return Actor{}, false
}
