package events

import "time"

type Actor struct {
	Type ActorType
	ID   string
}

// SystemActor identifica cambios hechos por procesos internos (p.ej. repair).
func SystemActor(name string) Actor {
	return Actor{Type: ActorTypeSystem, ID: name}
}

// PetEvent es una entrada del historial de pedigree de una mascota.
// RelatedPetID es la otra punta de la arista (vacío si no aplica).
type PetEvent struct {
	ID    string
	PetID string

	Type         EventType
	RelatedPetID string

	OccurredAt time.Time

	Actor Actor
	Notes string
}
