package events

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

type RecordInput struct {
	Type         EventType
	RelatedPetID string
	Notes        string
}

// Record agrega una entrada al historial de petID.
func (s *Service) Record(ctx context.Context, petID string, actor Actor, in RecordInput) (PetEvent, error) {
	petID = strings.TrimSpace(petID)
	if petID == "" {
		return PetEvent{}, ErrInvalidInput
	}
	if !in.Type.Valid() {
		return PetEvent{}, ErrInvalidInput
	}
	if actor.Type == "" || strings.TrimSpace(actor.ID) == "" {
		return PetEvent{}, ErrInvalidInput
	}

	e := PetEvent{
		ID:           uuid.NewString(),
		PetID:        petID,
		Type:         in.Type,
		RelatedPetID: strings.TrimSpace(in.RelatedPetID),
		OccurredAt:   s.now(),
		Actor:        actor,
		Notes:        strings.TrimSpace(in.Notes),
	}

	if err := s.repo.Create(ctx, e); err != nil {
		return PetEvent{}, err
	}
	return e, nil
}

func (s *Service) ListByPet(ctx context.Context, petID string, filter ListFilter) ([]PetEvent, error) {
	petID = strings.TrimSpace(petID)
	if petID == "" {
		return nil, ErrInvalidInput
	}
	for _, t := range filter.Types {
		if !t.Valid() {
			return nil, ErrInvalidInput
		}
	}
	return s.repo.ListByPet(ctx, petID, filter)
}
