// Package redislock serialises attempts on the same instruments across
// processes with Redis keys.
package redislock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/fd1az/options-arb/internal/apperror"
)

const keyPrefix = "optionsarb:lock:"

// acquireLua sets every key or none of them.
const acquireLua = `
for _, k in ipairs(KEYS) do
    if redis.call('EXISTS', k) == 1 then
        return 0
    end
end
for _, k in ipairs(KEYS) do
    redis.call('SET', k, ARGV[1], 'PX', ARGV[2])
end
return 1
`

// releaseLua deletes only the keys still holding the caller's token.
const releaseLua = `
local n = 0
for _, k in ipairs(KEYS) do
    if redis.call('GET', k) == ARGV[1] then
        n = n + redis.call('DEL', k)
    end
end
return n
`

var (
	acquireScript = redis.NewScript(acquireLua)
	releaseScript = redis.NewScript(releaseLua)
)

// Lock implements app.AdmissionLock.
type Lock struct {
	rdb redis.Scripter
}

// New creates a Lock on rdb.
func New(rdb redis.Scripter) *Lock {
	return &Lock{rdb: rdb}
}

// Acquire takes all keys for ttl. The returned release is safe to call more
// than once.
func (l *Lock) Acquire(ctx context.Context, keys []string, ttl time.Duration) (func(context.Context) error, error) {
	if len(keys) == 0 {
		return func(context.Context) error { return nil }, nil
	}

	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = keyPrefix + k
	}
	token := uuid.NewString()

	ok, err := acquireScript.Run(ctx, l.rdb, full, token, ttl.Milliseconds()).Int()
	if err != nil {
		return nil, apperror.New(apperror.CodeServiceUnavailable,
			apperror.WithContext("redis lock acquire"), apperror.WithCause(err))
	}
	if ok != 1 {
		return nil, apperror.New(apperror.CodeLockHeld, apperror.WithContext(fmt.Sprint(keys)))
	}

	var once sync.Once
	var releaseErr error
	return func(ctx context.Context) error {
		once.Do(func() {
			ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			if err := releaseScript.Run(ctx, l.rdb, full, token).Err(); err != nil {
				releaseErr = apperror.New(apperror.CodeServiceUnavailable,
					apperror.WithContext("redis lock release"), apperror.WithCause(err))
			}
		})
		return releaseErr
	}, nil
}

// NewClient connects to Redis and pings it.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, apperror.New(apperror.CodeServiceUnavailable,
			apperror.WithContext("redis ping "+addr), apperror.WithCause(err))
	}
	return rdb, nil
}
