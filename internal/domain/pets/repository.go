package pets

//go:generate mockgen -source=repository.go -destination=mocks/mocks.go -package=mocks -exclude_interfaces=PairUpdater

import (
	"context"
	"errors"
)

var (
	ErrNotFound        = errors.New("pet not found")
	ErrAlreadyExists   = errors.New("pet already exists")
	ErrVersionConflict = errors.New("pet version conflict")
)

// Repository es el Record Store de mascotas. Garantiza durabilidad por documento,
// no transacciones entre documentos.
type Repository interface {
	Create(ctx context.Context, p Pet) error

	// Update escribe p si la versión guardada es p.Version (ErrVersionConflict si no)
	// y devuelve la versión nueva.
	Update(ctx context.Context, p Pet) (int64, error)

	GetByID(ctx context.Context, id string) (Pet, error)
	ListByOwner(ctx context.Context, ownerUserID string) ([]Pet, error)
	Delete(ctx context.Context, id string) error

	// IsReferenced indica si alguna otra mascota lista id en parents o children.
	IsReferenced(ctx context.Context, id string) (bool, error)

	// List recorre todas las mascotas ordenadas por id, desde afterID (exclusivo).
	List(ctx context.Context, afterID string, limit int) ([]Pet, error)
}

// PairUpdater lo implementan los stores con transacciones multi-registro: las dos
// escrituras de una arista se aplican juntas o ninguna. Mismo chequeo de versión
// que Update para cada registro.
type PairUpdater interface {
	UpdatePair(ctx context.Context, a, b Pet) (int64, int64, error)
}
