package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"pet-pedigree/internal/domain/pets"
	"pet-pedigree/internal/middleware"
)

func RegisterRoutes(r chi.Router, svc *Service, petsSvc *pets.Service) {
	r.Get("/pets/{petID}/events", listEventsHandler(svc, petsSvc))
}

// eventResponse representa una entrada del historial de pedigree.
type eventResponse struct {
	ID           string    `json:"id"`
	PetID        string    `json:"pet_id"`
	Type         EventType `json:"type"`
	RelatedPetID string    `json:"related_pet_id,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
	ActorType    ActorType `json:"actor_type"`
	ActorID      string    `json:"actor_id"`
	Notes        string    `json:"notes,omitempty"`
}

// listEventsHandler godoc
// @Summary Listar historial de pedigree
// @Description Lista altas/bajas de padres e hijos, placeholders creados/eliminados y reparaciones. Solo el dueño. Autenticación: `X-Debug-User-ID` (dev) o `Authorization: Bearer <token>` (prod).
// @Tags events
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Param limit query int false "Máximo de eventos a devolver (1-200). Por defecto 50"
// @Param types query string false "Lista CSV de tipos (ej: PARENT_LINKED,PLACEHOLDER_RECLAIMED)"
// @Param from query string false "occurred_at mínimo (RFC3339)"
// @Param to query string false "occurred_at máximo (RFC3339)"
// @Success 200 {array} eventResponse
// @Failure 400 {string} string "Parámetros de filtro inválidos"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "pet not found"
// @Router /pets/{petID}/events [get]
func listEventsHandler(svc *Service, petsSvc *pets.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		petID := chi.URLParam(r, "petID")
		if status, ok := authorizeOwner(r, petsSvc, petID); !ok {
			http.Error(w, strings.ToLower(http.StatusText(status)), status)
			return
		}

		filter, err := parseListFilter(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		items, err := svc.ListByPet(r.Context(), petID, filter)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]eventResponse, len(items))
		for i, e := range items {
			out[i] = toEventResponse(e)
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// authorizeOwner devuelve el status a responder cuando el caller no es el dueño.
// El historial de un placeholder tampoco es visible: no tiene dueño.
func authorizeOwner(r *http.Request, petsSvc *pets.Service, petID string) (int, bool) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || strings.TrimSpace(claims.UserID) == "" {
		return http.StatusUnauthorized, false
	}
	owned, err := petsSvc.IsOwnedBy(r.Context(), petID, claims.UserID)
	switch {
	case errors.Is(err, pets.ErrNotFound):
		return http.StatusNotFound, false
	case err != nil:
		return http.StatusInternalServerError, false
	case !owned:
		return http.StatusForbidden, false
	}
	return http.StatusOK, true
}

// parseListFilter lee limit, types (CSV), from y to. Cualquier valor mal formado es 400.
func parseListFilter(r *http.Request) (ListFilter, error) {
	q := r.URL.Query()
	var f ListFilter

	if v := strings.TrimSpace(q.Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > MaxListLimit {
			return ListFilter{}, fmt.Errorf("limit must be between 1 and %d", MaxListLimit)
		}
		f.Limit = n
	}

	for _, part := range strings.Split(q.Get("types"), ",") {
		t := EventType(strings.ToUpper(strings.TrimSpace(part)))
		if t == "" {
			continue
		}
		if !t.Valid() {
			return ListFilter{}, fmt.Errorf("unknown event type %q", string(t))
		}
		f.Types = append(f.Types, t)
	}

	var err error
	if f.From, err = parseTimeParam(q.Get("from")); err != nil {
		return ListFilter{}, fmt.Errorf("from: %w", err)
	}
	if f.To, err = parseTimeParam(q.Get("to")); err != nil {
		return ListFilter{}, fmt.Errorf("to: %w", err)
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return ListFilter{}, errors.New("from must not be after to")
	}
	return f, nil
}

func parseTimeParam(v string) (*time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, errors.New("must be RFC3339")
	}
	return &t, nil
}

func toEventResponse(e PetEvent) eventResponse {
	return eventResponse{
		ID:           e.ID,
		PetID:        e.PetID,
		Type:         e.Type,
		RelatedPetID: e.RelatedPetID,
		OccurredAt:   e.OccurredAt,
		ActorType:    e.Actor.Type,
		ActorID:      e.Actor.ID,
		Notes:        e.Notes,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
