package pets_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"pet-pedigree/internal/adapters/storage/memory"
	"pet-pedigree/internal/domain/pets"
	"pet-pedigree/internal/domain/pets/mocks"
)

func ptr[T any](v T) *T { return &v }

func TestService_Create(t *testing.T) {
	ctx := context.Background()
	svc := pets.NewService(memory.NewPetRepo())

	p, err := svc.Create(ctx, " u1 ", pets.CreateInput{Name: " Milo ", Species: "DOG", Sex: "", Breed: " mixed "})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "u1", p.OwnerUserID)
	assert.Equal(t, "Milo", p.Name)
	assert.Equal(t, "dog", p.Species)
	assert.Equal(t, "unknown", p.Sex)
	assert.Equal(t, "mixed", p.Breed)
	assert.Equal(t, int64(1), p.Version)
	assert.Empty(t, p.Parents)
	assert.Empty(t, p.Children)

	got, err := svc.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Name, got.Name)
}

func TestService_Create_Invalid(t *testing.T) {
	svc := pets.NewService(memory.NewPetRepo())
	cases := map[string]struct {
		owner string
		in    pets.CreateInput
	}{
		"no owner":          {owner: " ", in: pets.CreateInput{Name: "Milo", Species: "dog"}},
		"reserved owner":    {owner: pets.UnclaimedOwner, in: pets.CreateInput{Name: "Milo", Species: "dog"}},
		"no name":           {owner: "u1", in: pets.CreateInput{Species: "dog"}},
		"unknown species":   {owner: "u1", in: pets.CreateInput{Name: "Milo", Species: "parrot"}},
		"unknown sex value": {owner: "u1", in: pets.CreateInput{Name: "Milo", Species: "cat", Sex: "x"}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tc.owner, tc.in)
			require.ErrorIs(t, err, pets.ErrInvalidInput)
		})
	}
}

func TestService_UpdateProfile_KeepsEdges(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewPetRepo()
	svc := pets.NewService(repo)

	require.NoError(t, repo.Create(ctx, pets.Pet{
		ID: "pup", OwnerUserID: "u1", Name: "Milo", Species: "dog", Sex: "male",
		Parents: []string{"dam"}, Version: 1,
	}))

	bd := time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)
	p, err := svc.UpdateProfile(ctx, "pup", pets.UpdateProfileInput{
		Name:      ptr("Milo II"),
		BirthDate: pets.PatchBirthDate{Present: true, Value: &bd},
	})
	require.NoError(t, err)
	assert.Equal(t, "Milo II", p.Name)
	assert.Equal(t, int64(2), p.Version)
	assert.Equal(t, []string{"dam"}, p.Parents)

	// limpiar birth_date
	p, err = svc.UpdateProfile(ctx, "pup", pets.UpdateProfileInput{BirthDate: pets.PatchBirthDate{Present: true}})
	require.NoError(t, err)
	assert.Nil(t, p.BirthDate)

	_, err = svc.UpdateProfile(ctx, "pup", pets.UpdateProfileInput{Species: ptr("fish")})
	require.ErrorIs(t, err, pets.ErrInvalidInput)

	_, err = svc.UpdateProfile(ctx, "missing", pets.UpdateProfileInput{})
	require.ErrorIs(t, err, pets.ErrNotFound)
}

func TestService_UpdateProfile_VersionConflict(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockRepository(ctrl)
	svc := pets.NewService(repo)

	repo.EXPECT().GetByID(gomock.Any(), "pup").
		Return(pets.Pet{ID: "pup", OwnerUserID: "u1", Name: "Milo", Species: "dog", Sex: "male", Version: 3}, nil)
	repo.EXPECT().Update(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, p pets.Pet) (int64, error) {
			assert.Equal(t, int64(3), p.Version)
			return 0, pets.ErrVersionConflict
		})

	_, err := svc.UpdateProfile(context.Background(), "pup", pets.UpdateProfileInput{Notes: ptr("x")})
	require.ErrorIs(t, err, pets.ErrVersionConflict)
}

func TestService_Ownership(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockRepository(ctrl)
	svc := pets.NewService(repo)

	repo.EXPECT().GetByID(gomock.Any(), "real").Return(pets.Pet{ID: "real", OwnerUserID: "u1"}, nil).Times(2)
	repo.EXPECT().GetByID(gomock.Any(), "ph").Return(pets.Pet{ID: "ph", OwnerUserID: pets.UnclaimedOwner}, nil)
	repo.EXPECT().GetByID(gomock.Any(), "boom").Return(pets.Pet{}, errors.New("db down"))

	owned, err := svc.IsOwnedBy(ctx, "real", "u1")
	require.NoError(t, err)
	assert.True(t, owned)

	owned, err = svc.IsOwnedBy(ctx, "real", "u2")
	require.NoError(t, err)
	assert.False(t, owned)

	// nadie es dueño de un placeholder, ni siquiera pidiendo con el owner reservado
	owned, err = svc.IsOwnedBy(ctx, "ph", pets.UnclaimedOwner)
	require.NoError(t, err)
	assert.False(t, owned)

	_, err = svc.IsOwnedBy(ctx, "boom", "u1")
	require.Error(t, err)
}

func TestService_ListByOwner(t *testing.T) {
	ctx := context.Background()
	svc := pets.NewService(memory.NewPetRepo())

	_, err := svc.Create(ctx, "u1", pets.CreateInput{Name: "A", Species: "dog"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "u2", pets.CreateInput{Name: "B", Species: "cat"})
	require.NoError(t, err)

	list, err := svc.ListByOwner(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "A", list[0].Name)

	_, err = svc.ListByOwner(ctx, pets.UnclaimedOwner)
	require.ErrorIs(t, err, pets.ErrInvalidInput)
}
