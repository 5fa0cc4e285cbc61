package events

// EventType enumera los cambios de pedigree que quedan en el historial de la mascota.
type EventType string

const (
	EventTypeParentLinked         EventType = "PARENT_LINKED"
	EventTypeChildLinked          EventType = "CHILD_LINKED"
	EventTypeParentUnlinked       EventType = "PARENT_UNLINKED"
	EventTypeChildUnlinked        EventType = "CHILD_UNLINKED"
	EventTypePlaceholderCreated   EventType = "PLACEHOLDER_CREATED"
	EventTypePlaceholderReclaimed EventType = "PLACEHOLDER_RECLAIMED"
	EventTypeEdgeRepaired         EventType = "EDGE_REPAIRED"
)

func (t EventType) Valid() bool {
	switch t {
	case EventTypeParentLinked, EventTypeChildLinked,
		EventTypeParentUnlinked, EventTypeChildUnlinked,
		EventTypePlaceholderCreated, EventTypePlaceholderReclaimed,
		EventTypeEdgeRepaired:
		return true
	}
	return false
}

type ActorType string

const (
	ActorTypeOwnerUser ActorType = "OWNER_USER"
	// ActorTypeSystem: repair pass y procesos internos.
	ActorTypeSystem ActorType = "SYSTEM"
)
