package events

import (
	"context"
	"time"
)

// Repository persiste el historial. Create no valida: eso lo hace Service.
type Repository interface {
	Create(ctx context.Context, e PetEvent) error
	// ListByPet devuelve del más nuevo al más viejo, a lo sumo filter.Limit.
	ListByPet(ctx context.Context, petID string, filter ListFilter) ([]PetEvent, error)
}

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// ListFilter: campos vacíos no filtran. From y To son inclusivos.
type ListFilter struct {
	Types []EventType
	From  *time.Time
	To    *time.Time
	Limit int
}

// EffectiveLimit acota Limit a [1, MaxListLimit]; <= 0 usa DefaultListLimit.
func (f ListFilter) EffectiveLimit() int {
	switch {
	case f.Limit <= 0:
		return DefaultListLimit
	case f.Limit > MaxListLimit:
		return MaxListLimit
	default:
		return f.Limit
	}
}
