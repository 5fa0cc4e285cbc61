//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"pet-pedigree/internal/domain/events"
	"pet-pedigree/internal/domain/pets"
	"pet-pedigree/internal/platform/logger"
)

type postgresSuite struct {
	suite.Suite
	container *tcpostgres.PostgresContainer
	repo      *PetsRepo
	events    *EventsRepo
}

func TestPostgres(t *testing.T) {
	suite.Run(t, new(postgresSuite))
}

func (s *postgresSuite) SetupSuite() {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("pedigree"),
		tcpostgres.WithUsername("pedigree"),
		tcpostgres.WithPassword("pedigree"),
		tcpostgres.BasicWaitStrategies(),
	)
	s.Require().NoError(err)
	s.container = container

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	s.Require().NoError(err)

	db, err := Open(ctx, dsn)
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = db.Close() })

	s.Require().NoError(NewMigrator(db, logger.Nop()).Up(ctx))
	s.repo = NewPetsRepo(db)
	s.events = NewEventsRepo(db)
}

func (s *postgresSuite) TearDownSuite() {
	if s.container != nil {
		_ = testcontainers.TerminateContainer(s.container)
	}
}

func newPet(id, owner string) pets.Pet {
	now := time.Now().UTC().Truncate(time.Microsecond)
	bd := time.Date(2020, 5, 1, 0, 0, 0, 0, time.UTC)
	return pets.Pet{
		ID:          id,
		OwnerUserID: owner,
		Name:        id,
		Species:     "dog",
		Sex:         "female",
		BirthDate:   &bd,
		Parents:     []string{},
		Children:    []string{},
		Attributes:  []byte(`{"color":"brindle"}`),
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (s *postgresSuite) TestRoundTripAndVersioning() {
	ctx := context.Background()
	t := s.T()

	require.NoError(t, s.repo.Create(ctx, newPet("rt-a", "u1")))
	require.ErrorIs(t, s.repo.Create(ctx, newPet("rt-a", "u1")), pets.ErrAlreadyExists)

	got, err := s.repo.GetByID(ctx, "rt-a")
	require.NoError(t, err)
	assert.Equal(t, []string{}, got.Parents)
	assert.JSONEq(t, `{"color":"brindle"}`, string(got.Attributes))
	require.NotNil(t, got.BirthDate)
	assert.Equal(t, 2020, got.BirthDate.Year())

	got.Parents = []string{"rt-x"}
	v, err := s.repo.Update(ctx, got)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)

	// misma versión vieja: conflicto
	_, err = s.repo.Update(ctx, got)
	require.ErrorIs(t, err, pets.ErrVersionConflict)

	_, err = s.repo.Update(ctx, newPet("rt-missing", "u1"))
	require.ErrorIs(t, err, pets.ErrNotFound)

	got, err = s.repo.GetByID(ctx, "rt-a")
	require.NoError(t, err)
	assert.Equal(t, []string{"rt-x"}, got.Parents)
}

func (s *postgresSuite) TestUpdatePairIsAtomic() {
	ctx := context.Background()
	t := s.T()

	require.NoError(t, s.repo.Create(ctx, newPet("pair-c", "u1")))
	require.NoError(t, s.repo.Create(ctx, newPet("pair-p", "u1")))

	c, _ := s.repo.GetByID(ctx, "pair-c")
	p, _ := s.repo.GetByID(ctx, "pair-p")

	stale := p
	stale.Version = 99
	_, _, err := s.repo.UpdatePair(ctx, c.WithParent("pair-p"), stale.WithChild("pair-c"))
	require.ErrorIs(t, err, pets.ErrVersionConflict)

	c2, _ := s.repo.GetByID(ctx, "pair-c")
	assert.Empty(t, c2.Parents, "child write must roll back")

	cv, pv, err := s.repo.UpdatePair(ctx, c.WithParent("pair-p"), p.WithChild("pair-c"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), cv)
	assert.Equal(t, int64(2), pv)
}

func (s *postgresSuite) TestIsReferencedAndList() {
	ctx := context.Background()
	t := s.T()

	ph := newPet("ref-ph", pets.UnclaimedOwner)
	ph.Children = []string{"ref-ph"} // auto-referencia no cuenta
	require.NoError(t, s.repo.Create(ctx, ph))

	referenced, err := s.repo.IsReferenced(ctx, "ref-ph")
	require.NoError(t, err)
	assert.False(t, referenced)

	kid := newPet("ref-kid", "u1")
	kid.Parents = []string{"ref-ph"}
	require.NoError(t, s.repo.Create(ctx, kid))

	referenced, err = s.repo.IsReferenced(ctx, "ref-ph")
	require.NoError(t, err)
	assert.True(t, referenced)

	page, err := s.repo.List(ctx, "ref-", 10)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(page), 2)
	for i := 1; i < len(page); i++ {
		assert.Less(t, page[i-1].ID, page[i].ID)
	}

	require.NoError(t, s.repo.Delete(ctx, "ref-kid"))
	require.ErrorIs(t, s.repo.Delete(ctx, "ref-kid"), pets.ErrNotFound)
}

func (s *postgresSuite) TestEvents() {
	ctx := context.Background()
	t := s.T()

	base := time.Now().UTC().Truncate(time.Millisecond)
	for i, typ := range []events.EventType{events.EventTypeParentLinked, events.EventTypeParentUnlinked} {
		require.NoError(t, s.events.Create(ctx, events.PetEvent{
			ID:           "ev-" + string(typ),
			PetID:        "ev-pet",
			Type:         typ,
			RelatedPetID: "ev-parent",
			OccurredAt:   base.Add(time.Duration(i) * time.Second),
			Actor:        events.Actor{Type: events.ActorTypeOwnerUser, ID: "u1"},
		}))
	}

	all, err := s.events.ListByPet(ctx, "ev-pet", events.ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, events.EventTypeParentUnlinked, all[0].Type)

	only, err := s.events.ListByPet(ctx, "ev-pet", events.ListFilter{Types: []events.EventType{events.EventTypeParentLinked}})
	require.NoError(t, err)
	require.Len(t, only, 1)
	assert.Equal(t, "ev-parent", only[0].RelatedPetID)
}
