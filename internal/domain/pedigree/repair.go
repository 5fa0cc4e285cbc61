package pedigree

import (
	"context"
	"errors"
	"fmt"

	"pet-pedigree/internal/domain/events"
	"pet-pedigree/internal/domain/pets"
)

// Acciones del repair; también son los valores del label "action" en métricas.
const (
	RepairDropSelf       = "drop_self"
	RepairDropDuplicate  = "drop_duplicate"
	RepairDropDangling   = "drop_dangling"
	RepairResymmetrize   = "resymmetrize"
	RepairDropOneSided   = "drop_one_sided"
	RepairReclaimOrphans = "reclaim_orphan"
)

type RepairOptions struct {
	// DryRun cuenta lo que haría sin escribir.
	DryRun   bool
	PageSize int
}

type RepairReport struct {
	DryRun bool `json:"dry_run"`

	Scanned           int `json:"scanned"`
	DroppedSelf       int `json:"dropped_self"`
	DroppedDuplicates int `json:"dropped_duplicates"`
	DroppedDangling   int `json:"dropped_dangling"`
	Resymmetrized     int `json:"resymmetrized"`
	DroppedOneSided   int `json:"dropped_one_sided"`
	Reclaimed         int `json:"reclaimed"`

	// OverDegree: mascotas con más de 2 padres recíprocos. No se tocan: no hay
	// forma de decidir cuál sobra.
	OverDegree int `json:"over_degree"`
	Failed     int `json:"failed"`
}

// Repair recorre todas las mascotas y deja cada arista simétrica o la quita.
// Es idempotente: una segunda corrida sobre el resultado no cambia nada.
//
// Una arista de un solo lado se completa si el otro registro la admite
// (grado y ciclo); si no, se quita del lado que la tiene.
func (s *Service) Repair(ctx context.Context, opts RepairOptions) (rep RepairReport, err error) {
	ctx, run := s.begin(ctx, OpRepair, "", "")
	defer run.end(&err)

	ctx = WithActor(ctx, events.SystemActor("repair"))
	size := opts.PageSize
	if size <= 0 {
		size = 200
	}
	rep.DryRun = opts.DryRun

	after := ""
	for {
		page, err := s.repo.List(ctx, after, size)
		if err != nil {
			if ctx.Err() != nil {
				return rep, fmt.Errorf("%w: %w", ErrTimeout, ctx.Err())
			}
			return rep, fmt.Errorf("%w: list: %w", ErrStoreFailure, err)
		}
		if len(page) == 0 {
			break
		}

		for _, p := range page {
			rep.Scanned++
			if err := s.repairPet(ctx, p.ID, opts.DryRun, &rep); err != nil {
				if ctx.Err() != nil {
					return rep, fmt.Errorf("%w: %w", ErrTimeout, ctx.Err())
				}
				rep.Failed++
				s.log.Warn("repair pet failed", map[string]any{"pet_id": p.ID, "err": err})
			}
		}

		after = page[len(page)-1].ID
		if len(page) < size {
			break
		}
	}

	s.log.Info("repair finished", map[string]any{
		"dry_run":           rep.DryRun,
		"scanned":           rep.Scanned,
		"dropped_self":      rep.DroppedSelf,
		"dropped_duplicate": rep.DroppedDuplicates,
		"dropped_dangling":  rep.DroppedDangling,
		"resymmetrized":     rep.Resymmetrized,
		"dropped_one_sided": rep.DroppedOneSided,
		"reclaimed":         rep.Reclaimed,
		"over_degree":       rep.OverDegree,
		"failed":            rep.Failed,
	})
	return rep, nil
}

func (s *Service) repairPet(ctx context.Context, id string, dry bool, rep *RepairReport) error {
	pet, found, err := s.normalizePet(ctx, id, dry, rep)
	if err != nil || !found {
		return err
	}

	for _, ref := range pet.Parents {
		if err := s.repairRef(ctx, id, ref, RelationParent, dry, rep); err != nil {
			return err
		}
	}
	for _, ref := range pet.Children {
		if err := s.repairRef(ctx, id, ref, RelationChild, dry, rep); err != nil {
			return err
		}
	}

	if pet.IsPlaceholder() {
		if err := s.repairOrphan(ctx, id, dry, rep); err != nil {
			return err
		}
	}
	return s.checkDegree(ctx, id, rep)
}

// normalizePet quita auto-referencias y duplicados de las listas de id.
func (s *Service) normalizePet(ctx context.Context, id string, dry bool, rep *RepairReport) (pets.Pet, bool, error) {
	unlock, err := s.lock(ctx, id)
	if err != nil {
		return pets.Pet{}, false, err
	}
	defer unlock()

	pet, found, err := s.loadOptional(ctx, id)
	if err != nil || !found {
		return pets.Pet{}, found, err
	}

	parents, selfP, dupP := normalizeRefs(id, pet.Parents)
	children, selfC, dupC := normalizeRefs(id, pet.Children)
	if selfP+selfC+dupP+dupC == 0 {
		return pet, true, nil
	}

	rep.DroppedSelf += selfP + selfC
	rep.DroppedDuplicates += dupP + dupC

	next := pet.Clone()
	next.Parents, next.Children = parents, children
	if dry {
		return next, true, nil
	}
	if err := s.writeRepair(ctx, &next); err != nil {
		return pets.Pet{}, true, err
	}
	if selfP+selfC > 0 {
		s.noteRepair(ctx, next, RepairDropSelf, id)
	}
	if dupP+dupC > 0 {
		s.noteRepair(ctx, next, RepairDropDuplicate, "")
	}
	return next, true, nil
}

func normalizeRefs(selfID string, ids []string) (out []string, self, dup int) {
	out = make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		switch {
		case id == selfID:
			self++
		case seen[id]:
			dup++
		default:
			seen[id] = true
			out = append(out, id)
		}
	}
	return out, self, dup
}

// repairRef deja simétrica la referencia id -> ref (ref es padre o hijo de id según rel).
func (s *Service) repairRef(ctx context.Context, id, ref string, rel Relation, dry bool, rep *RepairReport) error {
	unlock, err := s.lock(ctx, id, ref)
	if err != nil {
		return err
	}
	defer unlock()

	// releído bajo lock: otra operación pudo haberla arreglado o quitado
	pet, found, err := s.loadOptional(ctx, id)
	if err != nil || !found {
		return err
	}
	if (rel == RelationParent && !pet.HasParent(ref)) || (rel == RelationChild && !pet.HasChild(ref)) {
		return nil
	}

	other, otherFound, err := s.loadOptional(ctx, ref)
	if err != nil {
		return err
	}

	drop := func(action string) error {
		next := pet.WithoutParent(ref)
		if rel == RelationChild {
			next = pet.WithoutChild(ref)
		}
		if !dry {
			if err := s.writeRepair(ctx, &next); err != nil {
				return err
			}
			s.noteRepair(ctx, next, action, ref)
		}
		return nil
	}

	if !otherFound {
		rep.DroppedDangling++
		return drop(RepairDropDangling)
	}

	var fixed pets.Pet
	var admissible bool
	if rel == RelationParent {
		if other.HasChild(id) {
			return nil
		}
		// pet ya cuenta a other como padre: con más de 2 esta arista es la que sobra
		admissible = len(pet.Parents) <= pets.MaxParents && !other.HasParent(id) && !pet.HasChild(ref)
		fixed = other.WithChild(id)
	} else {
		if other.HasParent(id) {
			return nil
		}
		admissible = len(other.Parents) < pets.MaxParents && !other.HasChild(id) && !pet.HasParent(ref)
		fixed = other.WithParent(id)
	}

	if !admissible {
		rep.DroppedOneSided++
		return drop(RepairDropOneSided)
	}

	rep.Resymmetrized++
	if dry {
		return nil
	}
	if err := s.writeRepair(ctx, &fixed); err != nil {
		return err
	}
	s.noteRepair(ctx, fixed, RepairResymmetrize, id)
	return nil
}

func (s *Service) repairOrphan(ctx context.Context, id string, dry bool, rep *RepairReport) error {
	unlock, err := s.lock(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	if dry {
		orphaned, err := s.placeholders.IsOrphaned(ctx, id)
		if err != nil {
			return err
		}
		if orphaned {
			rep.Reclaimed++
		}
		return nil
	}

	reclaimed, err := s.placeholders.ReclaimIfOrphaned(ctx, id)
	if err != nil {
		return err
	}
	if reclaimed {
		rep.Reclaimed++
		s.metrics.Repairs.WithLabelValues(RepairReclaimOrphans).Inc()
	}
	return nil
}

func (s *Service) checkDegree(ctx context.Context, id string, rep *RepairReport) error {
	pet, found, err := s.loadOptional(ctx, id)
	if err != nil || !found {
		return err
	}
	if len(pet.Parents) > pets.MaxParents {
		rep.OverDegree++
		s.log.Warn("pet has more parents than allowed, needs manual review", map[string]any{
			"pet_id":  id,
			"parents": pet.Parents,
		})
	}
	return nil
}

func (s *Service) writeRepair(ctx context.Context, p *pets.Pet) error {
	p.UpdatedAt = s.now()
	v, err := s.repo.Update(ctx, *p)
	if err != nil {
		if errors.Is(err, pets.ErrVersionConflict) {
			return fmt.Errorf("%w: %s", ErrConflict, p.ID)
		}
		return fmt.Errorf("%w: %w", ErrStoreFailure, err)
	}
	p.Version = v
	return nil
}

func (s *Service) noteRepair(ctx context.Context, p pets.Pet, action, relatedID string) {
	s.metrics.Repairs.WithLabelValues(action).Inc()
	s.log.Info("edge repaired", map[string]any{"pet_id": p.ID, "action": action, "related_id": relatedID})
	s.record(ctx, p, events.EventTypeEdgeRepaired, relatedID, action)
}
