package memory

import (
	"context"
	"errors"
	"slices"
	"sort"
	"strings"
	"sync"

	"pet-pedigree/internal/domain/pets"
)

type petRepo struct {
	mu   sync.RWMutex
	byID map[string]pets.Pet
}

func NewPetRepo() pets.Repository {
	return &petRepo{
		byID: make(map[string]pets.Pet),
	}
}

func (r *petRepo) Create(ctx context.Context, p pets.Pet) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(p.ID) == "" {
		return errors.New("pet id required")
	}
	if _, exists := r.byID[p.ID]; exists {
		return pets.ErrAlreadyExists
	}
	if p.Version == 0 {
		p.Version = 1
	}
	r.byID[p.ID] = p.Clone()
	return nil
}

func (r *petRepo) Update(ctx context.Context, p pets.Pet) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkVersion(p); err != nil {
		return 0, err
	}
	return r.put(p), nil
}

// UpdatePair escribe a y b bajo el mismo lock: o quedan las dos o ninguna.
func (r *petRepo) UpdatePair(ctx context.Context, a, b pets.Pet) (int64, int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if a.ID == b.ID {
		return 0, 0, errors.New("update pair needs two distinct pets")
	}
	if err := r.checkVersion(a); err != nil {
		return 0, 0, err
	}
	if err := r.checkVersion(b); err != nil {
		return 0, 0, err
	}
	return r.put(a), r.put(b), nil
}

func (r *petRepo) checkVersion(p pets.Pet) error {
	if strings.TrimSpace(p.ID) == "" {
		return errors.New("pet id required")
	}
	cur, exists := r.byID[p.ID]
	if !exists {
		return pets.ErrNotFound
	}
	if cur.Version != p.Version {
		return pets.ErrVersionConflict
	}
	return nil
}

func (r *petRepo) put(p pets.Pet) int64 {
	cur := r.byID[p.ID]
	next := p.Clone()
	// owner y created_at no cambian por update
	next.OwnerUserID = cur.OwnerUserID
	next.CreatedAt = cur.CreatedAt
	next.Version = cur.Version + 1
	r.byID[p.ID] = next
	return next.Version
}

func (r *petRepo) GetByID(ctx context.Context, id string) (pets.Pet, error) {
	if err := ctx.Err(); err != nil {
		return pets.Pet{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[id]
	if !ok {
		return pets.Pet{}, pets.ErrNotFound
	}
	return p.Clone(), nil
}

func (r *petRepo) ListByOwner(ctx context.Context, ownerUserID string) ([]pets.Pet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]pets.Pet, 0)
	for _, p := range r.byID {
		if p.OwnerUserID == ownerUserID {
			out = append(out, p.Clone())
		}
	}

	// Orden estable por created_at asc (solo para consistencia en dev)
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	return out, nil
}

func (r *petRepo) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return pets.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *petRepo) IsReferenced(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	for otherID, p := range r.byID {
		if otherID == id {
			continue
		}
		if slices.Contains(p.Parents, id) || slices.Contains(p.Children, id) {
			return true, nil
		}
	}
	return false, nil
}

func (r *petRepo) List(ctx context.Context, afterID string, limit int) ([]pets.Pet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.byID))
	for id := range r.byID {
		if id > afterID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	if len(ids) > limit {
		ids = ids[:limit]
	}

	out := make([]pets.Pet, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.byID[id].Clone())
	}
	return out, nil
}
