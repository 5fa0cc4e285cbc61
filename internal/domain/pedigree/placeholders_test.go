package pedigree

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pet-pedigree/internal/adapters/storage/memory"
	"pet-pedigree/internal/domain/pets"
	"pet-pedigree/internal/platform/logger"
	"pet-pedigree/internal/platform/metrics"
)

func TestPlaceholders_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewPetRepo()
	m := metrics.Nop()
	ph := NewPlaceholders(repo, logger.Nop(), m)

	p, err := ph.Create(ctx, PlaceholderInput{Name: " Old Bess ", Species: "Dog", Sex: ""})
	require.NoError(t, err)
	assert.Equal(t, pets.UnclaimedOwner, p.OwnerUserID)
	assert.Equal(t, "Old Bess", p.Name)
	assert.Equal(t, "dog", p.Species)
	assert.Equal(t, "unknown", p.Sex)
	assert.NotEmpty(t, p.ID)

	orphaned, err := ph.IsOrphaned(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, orphaned)

	// referenciado por un hijo real: no se toca
	require.NoError(t, repo.Create(ctx, pets.Pet{ID: "pup", OwnerUserID: "u1", Parents: []string{p.ID}, Version: 1}))
	reclaimed, err := ph.ReclaimIfOrphaned(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, reclaimed)

	require.NoError(t, repo.Delete(ctx, "pup"))
	reclaimed, err = ph.ReclaimIfOrphaned(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, reclaimed)

	// segunda vez: ya no existe, no-op
	reclaimed, err = ph.ReclaimIfOrphaned(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, reclaimed)
}

func TestPlaceholders_RealPetIsNeverOrphaned(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewPetRepo()
	ph := NewPlaceholders(repo, nil, nil)

	require.NoError(t, repo.Create(ctx, pets.Pet{ID: "real", OwnerUserID: "u1", Version: 1}))

	orphaned, err := ph.IsOrphaned(ctx, "real")
	require.NoError(t, err)
	assert.False(t, orphaned)

	reclaimed, err := ph.ReclaimIfOrphaned(ctx, "real")
	require.NoError(t, err)
	assert.False(t, reclaimed)

	_, err = repo.GetByID(ctx, "real")
	require.NoError(t, err)
}

func TestPlaceholders_InvalidProfile(t *testing.T) {
	ph := NewPlaceholders(memory.NewPetRepo(), nil, nil)

	_, err := ph.Create(context.Background(), PlaceholderInput{Name: "Rex"})
	require.ErrorIs(t, err, ErrInvalidInput)
}
