// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements idempotent replays for unsafe requests. A client may
// send an Idempotency-Key with POST /appointments; when a stored outcome for
// (scope, key) is still valid, the request is marked as a replay and the
// handler returns the originally created resource instead of booking again.
//
// The middleware validates the key, performs the lookup and holds a
// process-local lock on (scope, key) until the handler returns, so a
// concurrent retry waits for the first attempt and then replays it. Storing
// the outcome after a successful request is the handler's job (it alone
// knows the created resource id). Requests with the same key that land on
// different replicas are not serialized.
package middleware

import (
	"context"
	"net/http"
	"regexp"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey carries the client's idempotency key.
const HeaderIdempotencyKey = "Idempotency-Key"

// HeaderIdempotentReplay is set to "true" on responses served from a
// stored outcome.
const HeaderIdempotentReplay = "Idempotent-Replayed"

// Context keys used internally to stash idempotency state.
const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemScope  = "idem.scope"
	ctxKeyIdemReplay = "idem.replay" // Replay: the stored outcome
	ctxKeyRateBypass = "rate.bypass" // bool: true to skip rate limiting
)

// Replay is a stored outcome found for the request's key.
type Replay struct {
	ResourceID string
	Status     int
}

// GetIdempotencyKey returns the validated key and its scope.
func GetIdempotencyKey(c *gin.Context) (scope, key string, ok bool) {
	k, _ := c.Get(ctxKeyIdemKey)
	s, _ := c.Get(ctxKeyIdemScope)
	key, scope = asString(k), asString(s)
	return scope, key, key != ""
}

// ReplayOf returns the stored outcome when this request repeats a completed
// one.
func ReplayOf(c *gin.Context) (Replay, bool) {
	v, ok := c.Get(ctxKeyIdemReplay)
	if !ok {
		return Replay{}, false
	}
	r, ok := v.(Replay)
	return r, ok
}

// IdempotencyOptions configures header validation.
type IdempotencyOptions struct {
	// MaxLen caps the accepted key length. Values <= 0 default to 200.
	MaxLen int
	// Pattern restricts allowed characters; nil means ^[A-Za-z0-9._~\-:]+$.
	Pattern *regexp.Regexp
}

// IdempotencyLookup returns the stored outcome for (scope, key) when it is
// still valid at now. A lookup error must not block the request; the
// middleware then treats the request as new.
type IdempotencyLookup func(ctx context.Context, scope, key string, now time.Time) (Replay, bool, error)

var defaultKeyPattern = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)

// keyLocks hands out one mutex per in-flight key. Entries are dropped when
// the last holder or waiter releases them.
type keyLocks struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	sync.Mutex
	refs int
}

func (k *keyLocks) acquire(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*keyLock)
	}
	l, ok := k.locks[key]
	if !ok {
		l = &keyLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		if l.refs--; l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// Idempotency validates the Idempotency-Key header for one route scope.
//
//   - header absent: no-op
//   - header invalid: 400 bad_idempotency_key
//   - stored outcome found: request marked as replay and exempt from rate
//     limiting
//   - a request with the same key in flight: wait for it, then look up
func Idempotency(scope string, opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		pat = defaultKeyPattern
	}
	var inflight keyLocks

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"request_id": GetRequestID(c),
				"code":       "bad_idempotency_key",
				"message":    "invalid Idempotency-Key",
			})
			return
		}
		c.Set(ctxKeyIdemKey, key)
		c.Set(ctxKeyIdemScope, scope)

		release := inflight.acquire(key)
		defer release()

		if lookup != nil {
			r, found, err := lookup(c.Request.Context(), scope, key, time.Now().UTC())
			if err != nil {
				LoggerFrom(c).Warn().Err(err).Str("scope", scope).Msg("idempotency lookup failed")
			}
			if found {
				c.Set(ctxKeyIdemReplay, r)
				c.Set(ctxKeyRateBypass, true)
			}
		}
		c.Next()
	}
}
