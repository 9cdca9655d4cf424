package common

import (
	"context"
	"net/http"
	"strings"
)

type ctxKey string

const actorIDKey ctxKey = "audit/actor-id"

// StaffIDHeader carries the identifier of the staff member performing a mutation.
const StaffIDHeader = "X-Staff-Id"

// WithActorID stores the acting staff identifier on the provided context.
func WithActorID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, actorIDKey, id)
}

// ActorID extracts the acting staff identifier from the context if present.
func ActorID(ctx context.Context) (string, bool) {
	v := ctx.Value(actorIDKey)
	if v == nil {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}

// ActorMiddleware copies the staff header into the request context so every
// audit row records who triggered the edit. Requests without the header pass
// through; write handlers that need an actor reject them individually.
func ActorMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := strings.TrimSpace(r.Header.Get(StaffIDHeader))
		if actor != "" {
			r = r.WithContext(WithActorID(r.Context(), actor))
		}
		next.ServeHTTP(w, r)
	})
}
