package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"pet-pedigree/internal/ports/locks"
)

type entry struct {
	ch   chan struct{} // cap 1: lleno = tomado
	refs int           // holders + waiters; en 0 se borra la entrada
}

// Locker es un lock por clave in-process. Sirve para una sola instancia del
// servicio; con varias réplicas usar el locker de Redis.
type Locker struct {
	mu   sync.Mutex
	keys map[string]*entry
}

func NewLocker() *Locker {
	return &Locker{keys: make(map[string]*entry)}
}

func (l *Locker) Lock(ctx context.Context, keys ...string) (locks.Unlock, error) {
	keys = locks.NormalizeKeys(keys)

	held := make([]string, 0, len(keys))
	for _, k := range keys {
		if err := l.acquire(ctx, k); err != nil {
			for i := len(held) - 1; i >= 0; i-- {
				l.release(held[i], true)
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w: %s: %w", locks.ErrNotAcquired, k, err)
			}
			return nil, err
		}
		held = append(held, k)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			for i := len(held) - 1; i >= 0; i-- {
				l.release(held[i], true)
			}
		})
	}, nil
}

func (l *Locker) acquire(ctx context.Context, key string) error {
	l.mu.Lock()
	e, ok := l.keys[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		l.keys[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		l.release(key, false)
		return ctx.Err()
	}
}

// release: owned=true libera el token; false solo descuenta un waiter que se rindió.
func (l *Locker) release(key string, owned bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.keys[key]
	if !ok {
		return
	}
	if owned {
		<-e.ch
	}
	e.refs--
	if e.refs == 0 {
		delete(l.keys, key)
	}
}

// size es para tests.
func (l *Locker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.keys)
}
