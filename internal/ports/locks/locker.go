package locks

import (
	"context"
	"errors"
	"slices"
	"strings"
)

var (
	// ErrNotAcquired: el contexto venció antes de obtener el lock.
	ErrNotAcquired = errors.New("lock not acquired")
)

// Unlock libera lo tomado por Lock. Es idempotente.
type Unlock func()

// Locker serializa operaciones por clave (p.ej. id de mascota).
// Lock toma todas las claves o ninguna.
type Locker interface {
	Lock(ctx context.Context, keys ...string) (Unlock, error)
}

// NormalizeKeys quita vacíos y duplicados y ordena, para que dos llamadas
// concurrentes sobre las mismas claves las tomen en el mismo orden.
func NormalizeKeys(keys []string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		out = append(out, k)
	}
	slices.Sort(out)
	return slices.Compact(out)
}
