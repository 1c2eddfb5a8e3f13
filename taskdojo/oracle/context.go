package oracle

import "context"

type ctxKey struct{}

// WithPlayerID tags a context with the player on whose behalf oracle calls
// are made, so usage accounting lands on the right account.
func WithPlayerID(ctx context.Context, playerID int64) context.Context {
	return context.WithValue(ctx, ctxKey{}, playerID)
}

func PlayerIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(ctxKey{}).(int64)
	return id, ok
}
