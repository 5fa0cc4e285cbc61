package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"pet-pedigree/internal/domain/events"
)

// EventsRepo es append-only: no hay UPDATE ni DELETE sobre pet_events.
type EventsRepo struct {
	db *sql.DB
}

func NewEventsRepo(db *sql.DB) *EventsRepo {
	return &EventsRepo{db: db}
}

const insertEventSQL = `
	INSERT INTO pet_events (id, pet_id, type, related_pet_id, occurred_at, actor_type, actor_id, notes)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

func (r *EventsRepo) Create(ctx context.Context, e events.PetEvent) error {
	_, err := r.db.ExecContext(ctx, insertEventSQL,
		e.ID, e.PetID, string(e.Type), e.RelatedPetID,
		e.OccurredAt, string(e.Actor.Type), e.Actor.ID, e.Notes,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("event %s already recorded", e.ID)
	}
	return err
}

// Los filtros opcionales van como NULL; así la consulta es siempre la misma.
// id DESC desempata eventos del mismo instante.
const listEventsSQL = `
	SELECT id, pet_id, type, related_pet_id, occurred_at, actor_type, actor_id, notes
	FROM pet_events
	WHERE pet_id = $1
	  AND ($2::text[] IS NULL OR type = ANY($2::text[]))
	  AND ($3::timestamptz IS NULL OR occurred_at >= $3)
	  AND ($4::timestamptz IS NULL OR occurred_at <= $4)
	ORDER BY occurred_at DESC, id DESC
	LIMIT $5`

func (r *EventsRepo) ListByPet(ctx context.Context, petID string, filter events.ListFilter) ([]events.PetEvent, error) {
	var types any
	if len(filter.Types) > 0 {
		ts := make([]string, len(filter.Types))
		for i, t := range filter.Types {
			ts[i] = string(t)
		}
		types = ts
	}

	rows, err := r.db.QueryContext(ctx, listEventsSQL,
		petID, types, nullTime(filter.From), nullTime(filter.To), filter.EffectiveLimit(),
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	out := make([]events.PetEvent, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanEvent(s scanner) (events.PetEvent, error) {
	var e events.PetEvent
	var typ, actorType string
	err := s.Scan(&e.ID, &e.PetID, &typ, &e.RelatedPetID, &e.OccurredAt, &actorType, &e.Actor.ID, &e.Notes)
	e.Type = events.EventType(typ)
	e.Actor.Type = events.ActorType(actorType)
	return e, err
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
