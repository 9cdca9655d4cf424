package common

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// IdempotencyKeyHeader guards retried booking mutations against double
// application.
const IdempotencyKeyHeader = "Idempotency-Key"

// Idem is the Idempotency-Key middleware, backed by Redis SetNX. A nil client
// disables the guard, which keeps handler tests free of Redis.
type Idem struct {
	R   *redis.Client
	TTL time.Duration
}

// idemKey scopes the Redis key to the endpoint so a client reusing one
// Idempotency-Key across, say, a recalculate and a menu edit is not blocked.
func idemKey(r *http.Request, header string) string {
	sum := sha256.Sum256([]byte(r.Method + " " + r.URL.Path + " " + header))
	return "glamp:idem:" + hex.EncodeToString(sum[:])
}

// Middleware rejects a repeat of a keyed request with 409 while the key is
// still within its TTL. Requests without the header pass through untouched.
func (i Idem) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(IdempotencyKeyHeader)
		if header == "" || i.R == nil {
			next.ServeHTTP(w, r)
			return
		}
		key := idemKey(r, header)
		ok, err := i.R.SetNX(r.Context(), key, "locked", i.TTL).Result()
		if err != nil {
			JSONError(w, http.StatusInternalServerError, CodeInternal, "idempotency store error", map[string]any{"error": err.Error()})
			return
		}
		if !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusConflict)
			_, _ = io.WriteString(w, `{"error":{"code":"IDEMPOTENT_REPLAY","message":"duplicate request"}}`)
			return
		}
		defer func() {
			// re-arm the TTL so a panicking handler cannot pin the key forever
			_ = i.R.Expire(context.Background(), key, i.TTL).Err()
		}()
		next.ServeHTTP(w, r)
	})
}
