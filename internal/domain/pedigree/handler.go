package pedigree

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"pet-pedigree/internal/domain/events"
	"pet-pedigree/internal/domain/pets"
	"pet-pedigree/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, petsSvc *pets.Service) {
	// Lectura: owner o placeholder
	r.Get("/pets/{petID}/family", getFamilyHandler(svc, petsSvc))

	// Mutaciones: solo el owner de la mascota del path
	r.Post("/pets/{petID}/parents", linkParentHandler(svc, petsSvc))
	r.Post("/pets/{petID}/parents/placeholder", placeholderParentHandler(svc, petsSvc))
	r.Delete("/pets/{petID}/parents/{parentID}", unlinkParentHandler(svc, petsSvc))

	r.Post("/pets/{petID}/children", linkChildHandler(svc, petsSvc))
	r.Post("/pets/{petID}/children/placeholder", placeholderChildHandler(svc, petsSvc))
	r.Delete("/pets/{petID}/children/{childID}", unlinkChildHandler(svc, petsSvc))
}

type linkParentRequest struct {
	ParentID string `json:"parent_id"`
}

type linkChildRequest struct {
	ChildID string `json:"child_id"`
}

type placeholderRequest struct {
	Name      string `json:"name"`
	Species   string `json:"species"` // vacío = especie de la mascota ancla
	Breed     string `json:"breed"`
	Sex       string `json:"sex"`
	BirthDate string `json:"birth_date"` // YYYY-MM-DD opcional
	Notes     string `json:"notes"`
}

type edgeResponse struct {
	Child  pets.PetResponse `json:"child"`
	Parent pets.PetResponse `json:"parent"`
}

type unlinkResponse struct {
	Changed   bool     `json:"changed"`
	Reclaimed []string `json:"reclaimed"`
	// ReclaimError: la arista se quitó pero un placeholder quedó sin reclamar.
	ReclaimError string `json:"reclaim_error,omitempty"`
}

type inconsistencyResponse struct {
	RefID    string            `json:"ref_id"`
	Relation Relation          `json:"relation"`
	Kind     InconsistencyKind `json:"kind"`
}

type familyResponse struct {
	Pet             pets.PetResponse        `json:"pet"`
	Parents         []pets.PetResponse      `json:"parents"`
	Children        []pets.PetResponse      `json:"children"`
	Inconsistencies []inconsistencyResponse `json:"inconsistencies,omitempty"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`

	// Solo para fallas de store en aristas.
	ChildWritten  *bool `json:"child_written,omitempty"`
	ParentWritten *bool `json:"parent_written,omitempty"`
	Reverted      *bool `json:"reverted,omitempty"`
}

// getFamilyHandler godoc
// @Summary Ver familia directa
// @Description Padres e hijos resueltos. Las referencias colgadas o de un solo lado se omiten y se listan en inconsistencies.
// @Tags pedigree
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Success 200 {object} familyResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {object} errorResponse
// @Router /pets/{petID}/family [get]
func getFamilyHandler(svc *Service, petsSvc *pets.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		// placeholders: cualquier usuario autenticado puede ver su familia
		petID := chi.URLParam(r, "petID")
		owner, err := petsSvc.OwnerOf(r.Context(), petID)
		if err != nil {
			if errors.Is(err, pets.ErrNotFound) {
				writeJSON(w, http.StatusNotFound, errorResponse{Code: "NOT_FOUND", Message: "pet not found"})
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if owner != pets.UnclaimedOwner && owner != claims.UserID {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		fam, err := svc.GetFamily(r.Context(), petID)
		if err != nil {
			writeError(w, err)
			return
		}

		out := familyResponse{
			Pet:      pets.ToPetResponse(fam.Pet),
			Parents:  make([]pets.PetResponse, 0, len(fam.Parents)),
			Children: make([]pets.PetResponse, 0, len(fam.Children)),
		}
		for _, p := range fam.Parents {
			out.Parents = append(out.Parents, pets.ToPetResponse(p))
		}
		for _, c := range fam.Children {
			out.Children = append(out.Children, pets.ToPetResponse(c))
		}
		for _, inc := range fam.Inconsistencies {
			out.Inconsistencies = append(out.Inconsistencies, inconsistencyResponse{
				RefID:    inc.RefID,
				Relation: inc.Relation,
				Kind:     inc.Kind,
			})
		}

		writeJSON(w, http.StatusOK, out)
	}
}

// linkParentHandler godoc
// @Summary Vincular padre existente
// @Tags pedigree
// @Accept json
// @Produce json
// @Param petID path string true "ID del hijo"
// @Param body body linkParentRequest true "Padre"
// @Success 200 {object} edgeResponse
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Failure 409 {object} errorResponse "TWO_PARENTS_EXCEEDED, DUPLICATE_EDGE, SELF_REFERENCE, IMMEDIATE_CYCLE o CONFLICT"
// @Router /pets/{petID}/parents [post]
func linkParentHandler(svc *Service, petsSvc *pets.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, petID, ok := authorizeOwner(w, r, petsSvc)
		if !ok {
			return
		}

		var req linkParentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.ParentID) == "" {
			http.Error(w, "parent_id is required", http.StatusBadRequest)
			return
		}

		edge, err := svc.LinkExistingParent(ctx, petID, req.ParentID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toEdgeResponse(edge))
	}
}

// linkChildHandler godoc
// @Summary Vincular hijo existente
// @Tags pedigree
// @Accept json
// @Produce json
// @Param petID path string true "ID del padre"
// @Param body body linkChildRequest true "Hijo"
// @Success 200 {object} edgeResponse
// @Failure 409 {object} errorResponse
// @Router /pets/{petID}/children [post]
func linkChildHandler(svc *Service, petsSvc *pets.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, petID, ok := authorizeOwner(w, r, petsSvc)
		if !ok {
			return
		}

		var req linkChildRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.ChildID) == "" {
			http.Error(w, "child_id is required", http.StatusBadRequest)
			return
		}

		edge, err := svc.LinkExistingChild(ctx, petID, req.ChildID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toEdgeResponse(edge))
	}
}

// placeholderParentHandler godoc
// @Summary Crear padre placeholder
// @Description Crea una mascota sin dueño y la vincula como padre. Si el vínculo falla, el placeholder se elimina.
// @Tags pedigree
// @Accept json
// @Produce json
// @Param petID path string true "ID del hijo"
// @Param body body placeholderRequest true "Datos conocidos del padre"
// @Success 201 {object} edgeResponse
// @Failure 409 {object} errorResponse
// @Router /pets/{petID}/parents/placeholder [post]
func placeholderParentHandler(svc *Service, petsSvc *pets.Service) http.HandlerFunc {
	return placeholderHandler(petsSvc, svc.CreateAndLinkPlaceholderParent)
}

// placeholderChildHandler godoc
// @Summary Crear hijo placeholder
// @Tags pedigree
// @Accept json
// @Produce json
// @Param petID path string true "ID del padre"
// @Param body body placeholderRequest true "Datos conocidos del hijo"
// @Success 201 {object} edgeResponse
// @Failure 409 {object} errorResponse
// @Router /pets/{petID}/children/placeholder [post]
func placeholderChildHandler(svc *Service, petsSvc *pets.Service) http.HandlerFunc {
	return placeholderHandler(petsSvc, svc.CreateAndLinkPlaceholderChild)
}

func placeholderHandler(petsSvc *pets.Service, create func(context.Context, string, PlaceholderInput) (Edge, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, petID, ok := authorizeOwner(w, r, petsSvc)
		if !ok {
			return
		}

		var req placeholderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		bd, err := pets.ParseBirthDate(req.BirthDate)
		if err != nil {
			http.Error(w, "birth_date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}

		edge, err := create(ctx, petID, PlaceholderInput{
			Name:      req.Name,
			Species:   req.Species,
			Breed:     req.Breed,
			Sex:       req.Sex,
			BirthDate: bd,
			Notes:     req.Notes,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toEdgeResponse(edge))
	}
}

// unlinkParentHandler godoc
// @Summary Desvincular padre
// @Description Idempotente. Si el padre era un placeholder y quedó sin referencias, se elimina.
// @Tags pedigree
// @Produce json
// @Param petID path string true "ID del hijo"
// @Param parentID path string true "ID del padre"
// @Success 200 {object} unlinkResponse
// @Router /pets/{petID}/parents/{parentID} [delete]
func unlinkParentHandler(svc *Service, petsSvc *pets.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, petID, ok := authorizeOwner(w, r, petsSvc)
		if !ok {
			return
		}
		res, err := svc.UnlinkParent(ctx, petID, chi.URLParam(r, "parentID"))
		writeUnlink(w, res, err)
	}
}

// unlinkChildHandler godoc
// @Summary Desvincular hijo
// @Tags pedigree
// @Produce json
// @Param petID path string true "ID del padre"
// @Param childID path string true "ID del hijo"
// @Success 200 {object} unlinkResponse
// @Router /pets/{petID}/children/{childID} [delete]
func unlinkChildHandler(svc *Service, petsSvc *pets.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, petID, ok := authorizeOwner(w, r, petsSvc)
		if !ok {
			return
		}
		res, err := svc.UnlinkChild(ctx, petID, chi.URLParam(r, "childID"))
		writeUnlink(w, res, err)
	}
}

func writeUnlink(w http.ResponseWriter, res UnlinkResult, err error) {
	out := unlinkResponse{Changed: res.Changed, Reclaimed: res.Reclaimed}
	if out.Reclaimed == nil {
		out.Reclaimed = []string{}
	}
	if err != nil {
		var rerr *ReclaimError
		if !errors.As(err, &rerr) {
			writeError(w, err)
			return
		}
		out.ReclaimError = rerr.Error()
	}
	writeJSON(w, http.StatusOK, out)
}

// authorizeOwner exige que el caller sea dueño de {petID} y devuelve un ctx
// con el actor para el historial.
func authorizeOwner(w http.ResponseWriter, r *http.Request, petsSvc *pets.Service) (context.Context, string, bool) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || strings.TrimSpace(claims.UserID) == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return nil, "", false
	}

	petID := chi.URLParam(r, "petID")
	owned, err := petsSvc.IsOwnedBy(r.Context(), petID, claims.UserID)
	if err != nil {
		if errors.Is(err, pets.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{Code: "NOT_FOUND", Message: "pet not found"})
			return nil, "", false
		}
		http.Error(w, "internal error", http.StatusInternalServerError)
		return nil, "", false
	}
	if !owned {
		http.Error(w, "forbidden", http.StatusForbidden)
		return nil, "", false
	}

	ctx := WithActor(r.Context(), events.Actor{Type: events.ActorTypeOwnerUser, ID: claims.UserID})
	return ctx, petID, true
}

func writeError(w http.ResponseWriter, err error) {
	if reason, ok := RejectionReason(err); ok {
		writeJSON(w, http.StatusConflict, errorResponse{Code: string(reason), Message: err.Error()})
		return
	}

	var werr *EdgeWriteError
	switch {
	case errors.Is(err, ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errorResponse{Code: "INVALID_INPUT", Message: err.Error()})
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, ErrConflict):
		writeJSON(w, http.StatusConflict, errorResponse{Code: "CONFLICT", Message: "pet was modified concurrently, retry"})
	case errors.Is(err, ErrTimeout):
		writeJSON(w, http.StatusGatewayTimeout, errorResponse{Code: "TIMEOUT", Message: "operation timed out before any write"})
	case errors.As(err, &werr):
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Code:          "STORE_FAILURE",
			Message:       "store write failed",
			ChildWritten:  &werr.ChildWritten,
			ParentWritten: &werr.ParentWritten,
			Reverted:      &werr.Reverted,
		})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Code: "STORE_FAILURE", Message: "internal error"})
	}
}

func toEdgeResponse(e Edge) edgeResponse {
	return edgeResponse{
		Child:  pets.ToPetResponse(e.Child),
		Parent: pets.ToPetResponse(e.Parent),
	}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
