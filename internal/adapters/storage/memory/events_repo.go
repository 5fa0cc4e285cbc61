package memory

import (
	"context"
	"errors"
	"slices"
	"sort"
	"sync"

	"pet-pedigree/internal/domain/events"
)

type eventRepo struct {
	mu    sync.RWMutex
	byPet map[string][]events.PetEvent
	ids   map[string]struct{}
}

func NewEventRepo() events.Repository {
	return &eventRepo{
		byPet: make(map[string][]events.PetEvent),
		ids:   make(map[string]struct{}),
	}
}

func (r *eventRepo) Create(ctx context.Context, e events.PetEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if e.ID == "" {
		return errors.New("event id required")
	}
	if _, exists := r.ids[e.ID]; exists {
		return errors.New("event already exists")
	}

	r.ids[e.ID] = struct{}{}
	r.byPet[e.PetID] = append(r.byPet[e.PetID], e)
	return nil
}

func (r *eventRepo) ListByPet(ctx context.Context, petID string, filter events.ListFilter) ([]events.PetEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	limit := filter.EffectiveLimit()

	// Recorremos del último insertado al primero para que, a igual occurred_at,
	// quede primero el más reciente.
	all := r.byPet[petID]
	out := make([]events.PetEvent, 0)
	for i := len(all) - 1; i >= 0; i-- {
		e := all[i]
		if len(filter.Types) > 0 && !slices.Contains(filter.Types, e.Type) {
			continue
		}
		if filter.From != nil && e.OccurredAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && e.OccurredAt.After(*filter.To) {
			continue
		}
		out = append(out, e)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OccurredAt.After(out[j].OccurredAt)
	})

	if len(out) > limit {
		out = out[:limit]
	}

	return out, nil
}
