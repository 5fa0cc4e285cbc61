package pets

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

type CreateInput struct {
	Name       string
	Species    string
	Breed      string
	Sex        string
	BirthDate  *time.Time
	Microchip  string
	Notes      string
	Attributes []byte
}

// Create registra una mascota real. El owner reservado de placeholders no se acepta
// acá: esos registros solo los crea pedigree.
func (s *Service) Create(ctx context.Context, ownerUserID string, in CreateInput) (Pet, error) {
	ownerUserID = strings.TrimSpace(ownerUserID)
	if ownerUserID == "" || ownerUserID == UnclaimedOwner {
		return Pet{}, ErrInvalidInput
	}
	if err := ValidateProfile(in.Name, in.Species, in.Sex); err != nil {
		return Pet{}, err
	}

	now := s.now()
	p := Pet{
		ID:          uuid.NewString(),
		OwnerUserID: ownerUserID,
		Name:        strings.TrimSpace(in.Name),
		Species:     NormalizeEnum(in.Species),
		Breed:       strings.TrimSpace(in.Breed),
		Sex:         NormalizeSex(in.Sex),
		BirthDate:   in.BirthDate,
		Microchip:   strings.TrimSpace(in.Microchip),
		Notes:       strings.TrimSpace(in.Notes),
		Parents:     []string{},
		Children:    []string{},
		Attributes:  in.Attributes,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return Pet{}, err
	}
	return p, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Pet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Pet{}, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByOwner(ctx context.Context, ownerUserID string) ([]Pet, error) {
	ownerUserID = strings.TrimSpace(ownerUserID)
	if ownerUserID == "" || ownerUserID == UnclaimedOwner {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByOwner(ctx, ownerUserID)
}

// PatchBirthDate distingue "no enviado" de "enviado como null".
type PatchBirthDate struct {
	Present bool
	Value   *time.Time
}

// UpdateProfileInput: nil = no tocar.
type UpdateProfileInput struct {
	Name       *string
	Species    *string
	Breed      *string
	Sex        *string
	BirthDate  PatchBirthDate
	Microchip  *string
	Notes      *string
	Attributes []byte
}

// UpdateProfile aplica un PATCH sobre el perfil. Nunca toca Parents/Children:
// eso es exclusivo de pedigree. Si otra operación escribió entre el read y el
// write, devuelve ErrVersionConflict.
func (s *Service) UpdateProfile(ctx context.Context, petID string, in UpdateProfileInput) (Pet, error) {
	p, err := s.GetByID(ctx, petID)
	if err != nil {
		return Pet{}, err
	}

	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Species != nil {
		p.Species = NormalizeEnum(*in.Species)
	}
	if in.Breed != nil {
		p.Breed = strings.TrimSpace(*in.Breed)
	}
	if in.Sex != nil {
		p.Sex = NormalizeSex(*in.Sex)
	}
	if in.BirthDate.Present {
		p.BirthDate = in.BirthDate.Value
	}
	if in.Microchip != nil {
		p.Microchip = strings.TrimSpace(*in.Microchip)
	}
	if in.Notes != nil {
		p.Notes = strings.TrimSpace(*in.Notes)
	}
	if in.Attributes != nil {
		p.Attributes = in.Attributes
	}

	if err := ValidateProfile(p.Name, p.Species, p.Sex); err != nil {
		return Pet{}, err
	}

	p.UpdatedAt = s.now()
	v, err := s.repo.Update(ctx, p)
	if err != nil {
		return Pet{}, err
	}
	p.Version = v
	return p, nil
}

// ValidateProfile aplica las reglas mínimas de perfil compartidas con placeholders.
func ValidateProfile(name, species, sex string) error {
	if strings.TrimSpace(name) == "" {
		return ErrInvalidInput
	}
	switch Species(NormalizeEnum(species)) {
	case SpeciesDog, SpeciesCat:
	default:
		return ErrInvalidInput
	}
	switch Sex(NormalizeSex(sex)) {
	case SexMale, SexFemale, SexUnknown:
	default:
		return ErrInvalidInput
	}
	return nil
}

func NormalizeEnum(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeSex: vacío => unknown.
func NormalizeSex(s string) string {
	s = NormalizeEnum(s)
	if s == "" {
		return string(SexUnknown)
	}
	return s
}
