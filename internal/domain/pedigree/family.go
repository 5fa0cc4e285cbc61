package pedigree

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"pet-pedigree/internal/domain/pets"
)

type Relation string

const (
	RelationParent Relation = "parent"
	RelationChild  Relation = "child"
)

type InconsistencyKind string

// KindDangling: el id no existe en el store.
// KindOneSided: el otro registro existe pero no tiene la arista de vuelta.
const (
	KindDangling      InconsistencyKind = "DANGLING"
	KindOneSided      InconsistencyKind = "ONE_SIDED"
	KindSelfReference InconsistencyKind = "SELF_REFERENCE"
	KindDuplicate     InconsistencyKind = "DUPLICATE"
)

// Inconsistency es una referencia que GetFamily descartó. No es un error:
// se informa para que el caller (o el repair) sepa que el pedigree está sucio.
type Inconsistency struct {
	PetID    string
	RefID    string
	Relation Relation
	Kind     InconsistencyKind
}

type Family struct {
	Pet             pets.Pet
	Parents         []pets.Pet
	Children        []pets.Pet
	Inconsistencies []Inconsistency
}

type resolved struct {
	pet pets.Pet
	ok  bool
	inc *Inconsistency
}

// GetFamily resuelve padres e hijos de petID. Solo lectura, sin locks.
// Las referencias que no resuelven o no son recíprocas se omiten y se loguean.
func (s *Service) GetFamily(ctx context.Context, petID string) (fam Family, err error) {
	petID = strings.TrimSpace(petID)
	ctx, run := s.begin(ctx, OpGetFamily, "", "")
	defer run.end(&err)

	if petID == "" {
		return Family{}, ErrInvalidInput
	}

	pet, err := s.load(ctx, petID)
	if err != nil {
		return Family{}, err
	}

	type ref struct {
		id  string
		rel Relation
	}
	refs := make([]ref, 0, len(pet.Parents)+len(pet.Children))
	for _, id := range pet.Parents {
		refs = append(refs, ref{id: id, rel: RelationParent})
	}
	for _, id := range pet.Children {
		refs = append(refs, ref{id: id, rel: RelationChild})
	}

	out := make([]resolved, len(refs))
	seen := make(map[ref]bool, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.fanout)
	for i, r := range refs {
		switch {
		case r.id == pet.ID:
			out[i].inc = &Inconsistency{PetID: pet.ID, RefID: r.id, Relation: r.rel, Kind: KindSelfReference}
			continue
		case seen[r]:
			out[i].inc = &Inconsistency{PetID: pet.ID, RefID: r.id, Relation: r.rel, Kind: KindDuplicate}
			continue
		}
		seen[r] = true

		g.Go(func() error {
			other, err := s.repo.GetByID(gctx, r.id)
			if errors.Is(err, pets.ErrNotFound) {
				out[i].inc = &Inconsistency{PetID: pet.ID, RefID: r.id, Relation: r.rel, Kind: KindDangling}
				return nil
			}
			if err != nil {
				return fmt.Errorf("%w: resolve %s: %w", ErrStoreFailure, r.id, err)
			}

			reciprocal := other.HasChild(pet.ID)
			if r.rel == RelationChild {
				reciprocal = other.HasParent(pet.ID)
			}
			if !reciprocal {
				out[i].inc = &Inconsistency{PetID: pet.ID, RefID: r.id, Relation: r.rel, Kind: KindOneSided}
				return nil
			}
			out[i] = resolved{pet: other, ok: true}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Family{}, err
	}

	fam = Family{Pet: pet, Parents: []pets.Pet{}, Children: []pets.Pet{}}
	for i, r := range out {
		if r.inc != nil {
			fam.Inconsistencies = append(fam.Inconsistencies, *r.inc)
			s.metrics.Inconsistencies.WithLabelValues(strings.ToLower(string(r.inc.Kind))).Inc()
			s.log.Warn("pedigree inconsistency", map[string]any{
				"pet_id":   r.inc.PetID,
				"ref_id":   r.inc.RefID,
				"relation": string(r.inc.Relation),
				"kind":     string(r.inc.Kind),
			})
			continue
		}
		if !r.ok {
			continue
		}
		if refs[i].rel == RelationParent {
			fam.Parents = append(fam.Parents, r.pet)
		} else {
			fam.Children = append(fam.Children, r.pet)
		}
	}
	return fam, nil
}
