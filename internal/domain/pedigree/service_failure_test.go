package pedigree

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	lockmem "pet-pedigree/internal/adapters/locks/memory"
	"pet-pedigree/internal/domain/pets"
	"pet-pedigree/internal/domain/pets/mocks"
	"pet-pedigree/internal/platform/metrics"
)

var errStore = errors.New("connection reset")

func newMockService(t *testing.T) (*Service, *mocks.MockRepository, *metrics.Metrics) {
	t.Helper()
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockRepository(ctrl)
	m := metrics.New(prometheus.NewRegistry())
	return NewService(repo, lockmem.NewLocker(), WithMetrics(m)), repo, m
}

func stored(id string, parents, children []string) pets.Pet {
	return pets.Pet{
		ID:          id,
		OwnerUserID: "owner-1",
		Name:        id,
		Species:     "dog",
		Sex:         "unknown",
		Parents:     parents,
		Children:    children,
		Version:     4,
	}
}

func TestLink_SecondWriteFails_ChildReverted(t *testing.T) {
	svc, repo, _ := newMockService(t)
	child, parent := stored("c", []string{}, []string{}), stored("p", []string{}, []string{})

	repo.EXPECT().GetByID(gomock.Any(), "c").Return(child, nil)
	repo.EXPECT().GetByID(gomock.Any(), "p").Return(parent, nil)
	gomock.InOrder(
		repo.EXPECT().Update(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, p pets.Pet) (int64, error) {
			assert.Equal(t, "c", p.ID)
			assert.Equal(t, []string{"p"}, p.Parents)
			assert.Equal(t, int64(4), p.Version)
			return 5, nil
		}),
		repo.EXPECT().Update(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, p pets.Pet) (int64, error) {
			assert.Equal(t, "p", p.ID)
			return 0, errStore
		}),
		// compensación: el hijo vuelve a su estado previo sobre la versión 5
		repo.EXPECT().Update(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, p pets.Pet) (int64, error) {
			assert.Equal(t, "c", p.ID)
			assert.Empty(t, p.Parents)
			assert.Equal(t, int64(5), p.Version)
			return 6, nil
		}),
	)

	_, err := svc.LinkExistingParent(context.Background(), "c", "p")
	require.ErrorIs(t, err, ErrStoreFailure)
	require.ErrorIs(t, err, errStore)

	var werr *EdgeWriteError
	require.ErrorAs(t, err, &werr)
	assert.True(t, werr.ChildWritten)
	assert.False(t, werr.ParentWritten)
	assert.True(t, werr.Reverted)
	assert.False(t, werr.Inconsistent())
}

func TestLink_RevertFails_ReportsOneSidedEdge(t *testing.T) {
	svc, repo, m := newMockService(t)

	repo.EXPECT().GetByID(gomock.Any(), "c").Return(stored("c", []string{}, []string{}), nil)
	repo.EXPECT().GetByID(gomock.Any(), "p").Return(stored("p", []string{}, []string{}), nil)
	gomock.InOrder(
		repo.EXPECT().Update(gomock.Any(), gomock.Any()).Return(int64(5), nil),
		repo.EXPECT().Update(gomock.Any(), gomock.Any()).Return(int64(0), errStore),
		repo.EXPECT().Update(gomock.Any(), gomock.Any()).Return(int64(0), errStore),
	)

	_, err := svc.LinkExistingParent(context.Background(), "c", "p")
	var werr *EdgeWriteError
	require.ErrorAs(t, err, &werr)
	assert.True(t, werr.Inconsistent())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Inconsistencies.WithLabelValues("partial_write")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues(OpLinkParent, "store_failure")))
}

func TestLink_FirstWriteConflict_NothingWritten(t *testing.T) {
	svc, repo, _ := newMockService(t)

	repo.EXPECT().GetByID(gomock.Any(), "c").Return(stored("c", []string{}, []string{}), nil)
	repo.EXPECT().GetByID(gomock.Any(), "p").Return(stored("p", []string{}, []string{}), nil)
	repo.EXPECT().Update(gomock.Any(), gomock.Any()).Return(int64(0), pets.ErrVersionConflict)

	_, err := svc.LinkExistingChild(context.Background(), "p", "c")
	require.ErrorIs(t, err, ErrConflict)
	require.ErrorIs(t, err, pets.ErrVersionConflict)
	require.NotErrorIs(t, err, ErrStoreFailure)
}

func TestLink_RejectedDoesNotWrite(t *testing.T) {
	svc, repo, _ := newMockService(t)

	repo.EXPECT().GetByID(gomock.Any(), "c").Return(stored("c", []string{"a", "b"}, []string{}), nil)
	repo.EXPECT().GetByID(gomock.Any(), "x").Return(stored("x", []string{}, []string{}), nil)
	repo.EXPECT().Update(gomock.Any(), gomock.Any()).Times(0)

	_, err := svc.LinkExistingParent(context.Background(), "c", "x")
	require.ErrorIs(t, err, ErrRejected)
}

func TestLink_ReadFailureIsStoreFailure(t *testing.T) {
	svc, repo, _ := newMockService(t)

	repo.EXPECT().GetByID(gomock.Any(), "c").Return(pets.Pet{}, errStore)

	_, err := svc.LinkExistingParent(context.Background(), "c", "p")
	require.ErrorIs(t, err, ErrStoreFailure)
	require.NotErrorIs(t, err, ErrNotFound)
}

func TestPlaceholderParent_LinkFails_PlaceholderDeleted(t *testing.T) {
	svc, repo, m := newMockService(t)

	var phID string
	repo.EXPECT().GetByID(gomock.Any(), "c").Return(stored("c", []string{}, []string{}), nil)
	gomock.InOrder(
		repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, p pets.Pet) error {
			assert.Equal(t, pets.UnclaimedOwner, p.OwnerUserID)
			assert.Equal(t, "dog", p.Species)
			phID = p.ID
			return nil
		}),
		repo.EXPECT().Update(gomock.Any(), gomock.Any()).Return(int64(5), nil),
		repo.EXPECT().Update(gomock.Any(), gomock.Any()).Return(int64(0), errStore),
		repo.EXPECT().Update(gomock.Any(), gomock.Any()).Return(int64(6), nil),
		repo.EXPECT().Delete(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, id string) error {
			assert.Equal(t, phID, id)
			return nil
		}),
	)

	_, err := svc.CreateAndLinkPlaceholderParent(context.Background(), "c", PlaceholderInput{Name: "Sire"})
	require.ErrorIs(t, err, ErrStoreFailure)

	var perr *PlaceholderError
	require.ErrorAs(t, err, &perr)
	assert.True(t, perr.Deleted)
	assert.Equal(t, phID, perr.PlaceholderID)

	var werr *EdgeWriteError
	require.ErrorAs(t, err, &werr)
	assert.True(t, werr.Reverted)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PlaceholdersCreated))
}

func TestPlaceholderParent_CompensationFails(t *testing.T) {
	svc, repo, _ := newMockService(t)

	repo.EXPECT().GetByID(gomock.Any(), "c").Return(stored("c", []string{}, []string{}), nil)
	repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	repo.EXPECT().Update(gomock.Any(), gomock.Any()).Return(int64(0), errStore)
	repo.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(errStore)

	_, err := svc.CreateAndLinkPlaceholderParent(context.Background(), "c", PlaceholderInput{Name: "Sire"})
	var perr *PlaceholderError
	require.ErrorAs(t, err, &perr)
	assert.False(t, perr.Deleted)
}

func TestPlaceholder_CanceledBeforeCreate(t *testing.T) {
	svc, repo, _ := newMockService(t)
	ctx, cancel := context.WithCancel(context.Background())

	repo.EXPECT().GetByID(gomock.Any(), "c").DoAndReturn(func(context.Context, string) (pets.Pet, error) {
		cancel()
		return stored("c", []string{}, []string{}), nil
	})
	repo.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)

	_, err := svc.CreateAndLinkPlaceholderParent(ctx, "c", PlaceholderInput{Name: "Sire"})
	require.ErrorIs(t, err, ErrTimeout)
}

func TestUnlink_ReclaimFailureKeepsResult(t *testing.T) {
	svc, repo, _ := newMockService(t)
	ph := stored("ph", []string{}, []string{"c"})
	ph.OwnerUserID = pets.UnclaimedOwner

	repo.EXPECT().GetByID(gomock.Any(), "c").Return(stored("c", []string{"ph"}, []string{}), nil)
	repo.EXPECT().GetByID(gomock.Any(), "ph").Return(ph, nil).Times(2)
	repo.EXPECT().Update(gomock.Any(), gomock.Any()).Return(int64(5), nil).Times(2)
	repo.EXPECT().IsReferenced(gomock.Any(), "ph").Return(false, errStore)

	res, err := svc.UnlinkParent(context.Background(), "c", "ph")
	require.ErrorIs(t, err, ErrStoreFailure)

	var rerr *ReclaimError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "ph", rerr.PetID)
	assert.True(t, res.Changed)
	assert.Empty(t, res.Child.Parents)
}
