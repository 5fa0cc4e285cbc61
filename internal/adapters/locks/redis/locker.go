package redis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"pet-pedigree/internal/platform/logger"
	"pet-pedigree/internal/ports/locks"
)

const keyPrefix = "pedigree:lock:"

// releaseScript borra la clave solo si sigue siendo nuestra.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker implementa locks.Locker con SET NX PX. Sirve para varias réplicas del
// servicio. El TTL acota cuánto queda tomado un lock si el proceso muere.
type Locker struct {
	client    *redis.Client
	ttl       time.Duration
	retryWait time.Duration
	log       logger.Logger
}

type Option func(*Locker)

func WithRetryWait(d time.Duration) Option {
	return func(l *Locker) {
		if d > 0 {
			l.retryWait = d
		}
	}
}

func WithLogger(log logger.Logger) Option {
	return func(l *Locker) {
		if log != nil {
			l.log = log
		}
	}
}

func NewLocker(client *redis.Client, ttl time.Duration, opts ...Option) *Locker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	l := &Locker{
		client:    client,
		ttl:       ttl,
		retryWait: 25 * time.Millisecond,
		log:       logger.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

func (l *Locker) Lock(ctx context.Context, keys ...string) (locks.Unlock, error) {
	keys = locks.NormalizeKeys(keys)
	token := uuid.NewString()

	held := make([]string, 0, len(keys))
	for _, k := range keys {
		if err := l.acquire(ctx, keyPrefix+k, token); err != nil {
			l.releaseAll(held, token)
			return nil, err
		}
		held = append(held, keyPrefix+k)
	}

	var once sync.Once
	return func() {
		once.Do(func() { l.releaseAll(held, token) })
	}, nil
}

func (l *Locker) acquire(ctx context.Context, key, token string) error {
	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("%w: %s: %w", locks.ErrNotAcquired, key, ctx.Err())
			}
			return fmt.Errorf("redis lock %s: %w", key, err)
		}
		if ok {
			return nil
		}

		t := time.NewTimer(l.retryWait)
		select {
		case <-ctx.Done():
			t.Stop()
			return fmt.Errorf("%w: %s: %w", locks.ErrNotAcquired, key, ctx.Err())
		case <-t.C:
		}
	}
}

// releaseAll usa un contexto propio: el del caller puede estar vencido y el lock
// tiene que soltarse igual.
func (l *Locker) releaseAll(keys []string, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	for i := len(keys) - 1; i >= 0; i-- {
		err := releaseScript.Run(ctx, l.client, []string{keys[i]}, token).Err()
		if err != nil && !errors.Is(err, redis.Nil) {
			l.log.Warn("redis lock release failed, will expire by ttl", map[string]any{
				"key": keys[i],
				"err": err,
			})
		}
	}
}
