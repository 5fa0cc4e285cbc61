package pedigree

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"pet-pedigree/internal/domain/pets"
	"pet-pedigree/internal/middleware"
	"pet-pedigree/internal/ports/auth"
)

func TestGetFamilyHandler_AuthorizesBeforeResolving(t *testing.T) {
	f := newFixture(t, false)
	f.addPet(t, "pup")
	f.addRaw(t, pets.Pet{ID: "ph", OwnerUserID: pets.UnclaimedOwner})

	r := chi.NewRouter()
	RegisterRoutes(r, f.svc, pets.NewService(f.repo))

	get := func(userID, petID string) int {
		req := httptest.NewRequest(http.MethodGet, "/pets/"+petID+"/family", nil)
		req = req.WithContext(middleware.WithClaims(req.Context(), auth.Claims{UserID: userID}))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusForbidden, get("stranger", "pup"))
	assert.Equal(t, http.StatusNotFound, get("stranger", "missing"))
	// ni lectura ni métrica para un request rechazado
	assert.Zero(t, testutil.CollectAndCount(f.metrics.Operations))

	assert.Equal(t, http.StatusOK, get("stranger", "ph"))
	assert.Equal(t, http.StatusOK, get("owner-1", "pup"))
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.Operations.WithLabelValues(OpGetFamily, "ok")))
}
