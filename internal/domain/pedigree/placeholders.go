package pedigree

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"pet-pedigree/internal/domain/pets"
	"pet-pedigree/internal/platform/logger"
	"pet-pedigree/internal/platform/metrics"
)

// PlaceholderInput son los datos descriptivos conocidos del ancestro/descendiente.
// Species vacío hereda la especie del ancla.
type PlaceholderInput struct {
	Name      string
	Species   string
	Breed     string
	Sex       string
	BirthDate *time.Time
	Notes     string
}

// Placeholders crea y reclama mascotas sin dueño. Un placeholder vive mientras
// alguna otra mascota lo referencie.
type Placeholders struct {
	repo    pets.Repository
	log     logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewPlaceholders(repo pets.Repository, log logger.Logger, m *metrics.Metrics) *Placeholders {
	if log == nil {
		log = logger.Nop()
	}
	return &Placeholders{repo: repo, log: log, metrics: m, now: time.Now}
}

// Create persiste un placeholder sin aristas. Las aristas las agrega el caller.
func (p *Placeholders) Create(ctx context.Context, in PlaceholderInput) (pets.Pet, error) {
	if err := pets.ValidateProfile(in.Name, in.Species, in.Sex); err != nil {
		return pets.Pet{}, fmt.Errorf("%w: placeholder profile", ErrInvalidInput)
	}

	now := p.now()
	pet := pets.Pet{
		ID:          uuid.NewString(),
		OwnerUserID: pets.UnclaimedOwner,
		Name:        strings.TrimSpace(in.Name),
		Species:     pets.NormalizeEnum(in.Species),
		Breed:       strings.TrimSpace(in.Breed),
		Sex:         pets.NormalizeSex(in.Sex),
		BirthDate:   in.BirthDate,
		Notes:       strings.TrimSpace(in.Notes),
		Parents:     []string{},
		Children:    []string{},
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := p.repo.Create(ctx, pet); err != nil {
		return pets.Pet{}, fmt.Errorf("%w: create placeholder: %w", ErrStoreFailure, err)
	}

	if p.metrics != nil {
		p.metrics.PlaceholdersCreated.Inc()
	}
	p.log.Info("placeholder created", map[string]any{"pet_id": pet.ID, "species": pet.Species})
	return pet, nil
}

// IsOrphaned es true si id es un placeholder que nadie referencia.
// Una mascota real nunca está huérfana; una inexistente tampoco.
func (p *Placeholders) IsOrphaned(ctx context.Context, id string) (bool, error) {
	pet, err := p.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pets.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %w", ErrStoreFailure, err)
	}
	if !pet.IsPlaceholder() {
		return false, nil
	}

	referenced, err := p.repo.IsReferenced(ctx, id)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrStoreFailure, err)
	}
	return !referenced, nil
}

// ReclaimIfOrphaned borra id si es un placeholder huérfano. No-op para mascotas reales.
// El caller debe tener el lock de id.
func (p *Placeholders) ReclaimIfOrphaned(ctx context.Context, id string) (bool, error) {
	orphaned, err := p.IsOrphaned(ctx, id)
	if err != nil || !orphaned {
		return false, err
	}

	if err := p.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, pets.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("%w: delete placeholder: %w", ErrStoreFailure, err)
	}

	if p.metrics != nil {
		p.metrics.PlaceholdersReclaim.Inc()
	}
	p.log.Info("placeholder reclaimed", map[string]any{"pet_id": id})
	return true, nil
}

// discard borra un placeholder recién creado cuyo link falló.
func (p *Placeholders) discard(ctx context.Context, id string) error {
	err := p.repo.Delete(ctx, id)
	if err != nil && !errors.Is(err, pets.ErrNotFound) {
		return err
	}
	return nil
}
