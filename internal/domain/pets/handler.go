package pets

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"pet-pedigree/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/pets", func(pr chi.Router) {
		pr.Post("/", createPetHandler(svc))
		pr.Get("/", listPetsHandler(svc))

		// Perfil: owner o placeholder (los placeholders son visibles para el árbol)
		pr.Get("/{petID}", getPetHandler(svc))

		// Actualizar perfil (solo owner)
		pr.Patch("/{petID}", updatePetHandler(svc))
	})
}

type createPetRequest struct {
	Name       string          `json:"name"`
	Species    string          `json:"species"`
	Breed      string          `json:"breed"`
	Sex        string          `json:"sex"`
	BirthDate  string          `json:"birth_date"` // YYYY-MM-DD opcional
	Microchip  string          `json:"microchip"`
	Notes      string          `json:"notes"`
	Attributes json.RawMessage `json:"attributes,omitempty"`
}

// PetResponse es la representación pública de una mascota; la reutiliza pedigree.
type PetResponse struct {
	ID          string          `json:"id"`
	OwnerUserID string          `json:"owner_user_id"`
	Placeholder bool            `json:"placeholder"`
	Name        string          `json:"name"`
	Species     string          `json:"species"`
	Breed       string          `json:"breed"`
	Sex         string          `json:"sex"`
	BirthDate   *time.Time      `json:"birth_date,omitempty"`
	Microchip   string          `json:"microchip,omitempty"`
	Notes       string          `json:"notes"`
	Parents     []string        `json:"parents"`
	Children    []string        `json:"children"`
	Attributes  json.RawMessage `json:"attributes,omitempty"`
	Version     int64           `json:"version"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type updatePetRequest struct {
	// Punteros para PATCH real: nil = no tocar.
	Name       *string         `json:"name"`
	Species    *string         `json:"species"`
	Breed      *string         `json:"breed"`
	Sex        *string         `json:"sex"`
	BirthDate  *string         `json:"birth_date"` // YYYY-MM-DD o null para limpiar
	Microchip  *string         `json:"microchip"`
	Notes      *string         `json:"notes"`
	Attributes json.RawMessage `json:"attributes"`
}

// createPetHandler registra una mascota real del usuario autenticado.
//
//	@Summary	Create pet
//	@Tags		pets
//	@Accept		json
//	@Produce	json
//	@Success	201	{object}	PetResponse
//	@Router		/pets [post]
func createPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createPetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		bd, err := ParseBirthDate(req.BirthDate)
		if err != nil {
			http.Error(w, "birth_date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}

		p, err := svc.Create(r.Context(), claims.UserID, CreateInput{
			Name:       req.Name,
			Species:    req.Species,
			Breed:      req.Breed,
			Sex:        req.Sex,
			BirthDate:  bd,
			Microchip:  req.Microchip,
			Notes:      req.Notes,
			Attributes: req.Attributes,
		})
		if err != nil {
			if errors.Is(err, ErrInvalidInput) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusCreated, ToPetResponse(p))
	}
}

func listPetsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.ListByOwner(r.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, ErrInvalidInput) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]PetResponse, 0, len(items))
		for _, p := range items {
			out = append(out, ToPetResponse(p))
		}

		writeJSON(w, http.StatusOK, out)
	}
}

func getPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		p, err := svc.GetByID(r.Context(), chi.URLParam(r, "petID"))
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				http.Error(w, "pet not found", http.StatusNotFound)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		if !p.IsPlaceholder() && p.OwnerUserID != claims.UserID {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		writeJSON(w, http.StatusOK, ToPetResponse(p))
	}
}

func updatePetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		petID := chi.URLParam(r, "petID")
		owned, err := svc.IsOwnedBy(r.Context(), petID, claims.UserID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				http.Error(w, "pet not found", http.StatusNotFound)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if !owned {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		// birth_date: null significa limpiar, así que detectamos presencia del campo.
		var raw map[string]json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		var req updatePetRequest
		{
			b, _ := json.Marshal(raw)
			dec := json.NewDecoder(bytes.NewReader(b))
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				http.Error(w, "invalid json", http.StatusBadRequest)
				return
			}
		}

		bd := PatchBirthDate{}
		if v, exists := raw["birth_date"]; exists {
			bd.Present = true
			if string(v) != "null" {
				var s string
				if err := json.Unmarshal(v, &s); err != nil {
					http.Error(w, "birth_date must be YYYY-MM-DD or null", http.StatusBadRequest)
					return
				}
				t, err := ParseBirthDate(s)
				if err != nil {
					http.Error(w, "birth_date must be YYYY-MM-DD or null", http.StatusBadRequest)
					return
				}
				bd.Value = t
			}
		}

		var attrs []byte
		if len(req.Attributes) > 0 && string(req.Attributes) != "null" {
			attrs = req.Attributes
		}

		updated, err := svc.UpdateProfile(r.Context(), petID, UpdateProfileInput{
			Name:       req.Name,
			Species:    req.Species,
			Breed:      req.Breed,
			Sex:        req.Sex,
			BirthDate:  bd,
			Microchip:  req.Microchip,
			Notes:      req.Notes,
			Attributes: attrs,
		})
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidInput):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, ErrNotFound):
				http.Error(w, "pet not found", http.StatusNotFound)
			case errors.Is(err, ErrVersionConflict):
				http.Error(w, "pet was modified concurrently, retry", http.StatusConflict)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusOK, ToPetResponse(updated))
	}
}

// ParseBirthDate acepta "" (sin fecha) o YYYY-MM-DD.
func ParseBirthDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, ErrInvalidInput
	}
	return &t, nil
}

func ToPetResponse(p Pet) PetResponse {
	parents := p.Parents
	if parents == nil {
		parents = []string{}
	}
	children := p.Children
	if children == nil {
		children = []string{}
	}
	return PetResponse{
		ID:          p.ID,
		OwnerUserID: p.OwnerUserID,
		Placeholder: p.IsPlaceholder(),
		Name:        p.Name,
		Species:     p.Species,
		Breed:       p.Breed,
		Sex:         p.Sex,
		BirthDate:   p.BirthDate,
		Microchip:   p.Microchip,
		Notes:       p.Notes,
		Parents:     parents,
		Children:    children,
		Attributes:  p.Attributes,
		Version:     p.Version,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos (pets/pedigree/events)
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
