package events_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pet-pedigree/internal/adapters/storage/memory"
	"pet-pedigree/internal/domain/events"
)

func TestService_RecordAndList(t *testing.T) {
	ctx := context.Background()
	svc := events.NewService(memory.NewEventRepo())
	owner := events.Actor{Type: events.ActorTypeOwnerUser, ID: "u1"}

	_, err := svc.Record(ctx, "pup", owner, events.RecordInput{Type: events.EventTypeParentLinked, RelatedPetID: " dam "})
	require.NoError(t, err)
	_, err = svc.Record(ctx, "pup", events.SystemActor("repair"), events.RecordInput{Type: events.EventTypeEdgeRepaired, Notes: "resymmetrize"})
	require.NoError(t, err)
	_, err = svc.Record(ctx, "other", owner, events.RecordInput{Type: events.EventTypeChildLinked})
	require.NoError(t, err)

	all, err := svc.ListByPet(ctx, "pup", events.ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	// más reciente primero
	assert.Equal(t, events.EventTypeEdgeRepaired, all[0].Type)
	assert.Equal(t, events.ActorTypeSystem, all[0].Actor.Type)
	assert.Equal(t, "dam", all[1].RelatedPetID)

	linked, err := svc.ListByPet(ctx, "pup", events.ListFilter{Types: []events.EventType{events.EventTypeParentLinked}})
	require.NoError(t, err)
	require.Len(t, linked, 1)

	future := time.Now().Add(time.Hour)
	none, err := svc.ListByPet(ctx, "pup", events.ListFilter{From: &future})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestService_Record_Invalid(t *testing.T) {
	svc := events.NewService(memory.NewEventRepo())
	owner := events.Actor{Type: events.ActorTypeOwnerUser, ID: "u1"}

	_, err := svc.Record(context.Background(), " ", owner, events.RecordInput{Type: events.EventTypeParentLinked})
	require.ErrorIs(t, err, events.ErrInvalidInput)

	_, err = svc.Record(context.Background(), "pup", owner, events.RecordInput{Type: "VACCINE"})
	require.ErrorIs(t, err, events.ErrInvalidInput)

	_, err = svc.Record(context.Background(), "pup", events.Actor{}, events.RecordInput{Type: events.EventTypeParentLinked})
	require.ErrorIs(t, err, events.ErrInvalidInput)

	_, err = svc.ListByPet(context.Background(), "pup", events.ListFilter{Types: []events.EventType{"NOPE"}})
	require.ErrorIs(t, err, events.ErrInvalidInput)
}
