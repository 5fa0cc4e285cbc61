package pedigree

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"pet-pedigree/internal/domain/events"
	"pet-pedigree/internal/domain/pets"
	"pet-pedigree/internal/platform/logger"
	"pet-pedigree/internal/platform/metrics"
	"pet-pedigree/internal/ports/locks"
)

const tracerName = "pet-pedigree/internal/domain/pedigree"

const (
	OpLinkParent        = "link_parent"
	OpLinkChild         = "link_child"
	OpPlaceholderParent = "placeholder_parent"
	OpPlaceholderChild  = "placeholder_child"
	OpUnlinkParent      = "unlink_parent"
	OpUnlinkChild       = "unlink_child"
	OpGetFamily         = "get_family"
	OpRepair            = "repair"
)

// ActivityRecorder guarda el historial de cambios de pedigree. Lo implementa events.Service.
type ActivityRecorder interface {
	Record(ctx context.Context, petID string, actor events.Actor, in events.RecordInput) (events.PetEvent, error)
}

// Service mantiene las aristas padre/hijo simétricas entre mascotas.
//
// Cada operación toma el lock de las mascotas involucradas, relee los
// registros, valida y recién ahí escribe. Las escrituras usan la versión
// leída: si alguien más escribió en el medio, se devuelve ErrConflict sin reintentar.
type Service struct {
	repo         pets.Repository
	locker       locks.Locker
	placeholders *Placeholders
	activity     ActivityRecorder

	log     logger.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer

	opTimeout time.Duration
	fanout    int
	now       func() time.Time
}

type Option func(*Service)

func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

func WithActivity(rec ActivityRecorder) Option {
	return func(s *Service) { s.activity = rec }
}

// WithOpTimeout acota lock + lecturas. No corta entre las dos escrituras de una arista.
func WithOpTimeout(d time.Duration) Option {
	return func(s *Service) { s.opTimeout = d }
}

// WithFanout limita las lecturas concurrentes de GetFamily.
func WithFanout(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.fanout = n
		}
	}
}

// WithTracer reemplaza el tracer global (otel.Tracer).
func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(repo pets.Repository, locker locks.Locker, opts ...Option) *Service {
	s := &Service{
		repo:    repo,
		locker:  locker,
		log:     logger.Nop(),
		metrics: metrics.Nop(),
		tracer:  otel.Tracer(tracerName),
		fanout:  8,
		now:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.placeholders = NewPlaceholders(repo, s.log, s.metrics)
	s.placeholders.now = s.now
	return s
}

// Edge son los dos registros de una arista después de escribirla.
type Edge struct {
	Child  pets.Pet
	Parent pets.Pet
}

// UnlinkResult: Changed es false si la arista no existía. Reclaimed lista los
// placeholders borrados por quedar huérfanos.
type UnlinkResult struct {
	Child     pets.Pet
	Parent    pets.Pet
	Changed   bool
	Reclaimed []string
}

// LinkExistingParent agrega parentID como padre de childID. Escribe primero el hijo.
func (s *Service) LinkExistingParent(ctx context.Context, childID, parentID string) (Edge, error) {
	return s.link(ctx, OpLinkParent, childID, parentID)
}

// LinkExistingChild es la misma arista iniciada desde el padre.
func (s *Service) LinkExistingChild(ctx context.Context, parentID, childID string) (Edge, error) {
	return s.link(ctx, OpLinkChild, childID, parentID)
}

func (s *Service) link(ctx context.Context, op, childID, parentID string) (edge Edge, err error) {
	childID, parentID = strings.TrimSpace(childID), strings.TrimSpace(parentID)
	ctx, run := s.begin(ctx, op, childID, parentID)
	defer run.end(&err)

	if childID == "" || parentID == "" {
		return Edge{}, ErrInvalidInput
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	unlock, err := s.lock(ctx, childID, parentID)
	if err != nil {
		return Edge{}, err
	}
	defer unlock()

	child, err := s.load(ctx, childID)
	if err != nil {
		return Edge{}, err
	}
	parent, err := s.load(ctx, parentID)
	if err != nil {
		return Edge{}, err
	}

	if op == OpLinkChild {
		err = CanAddChild(parent, child)
	} else {
		err = CanAddParent(child, parent)
	}
	if err != nil {
		s.log.Info("edge rejected", map[string]any{
			"op":        op,
			"child_id":  childID,
			"parent_id": parentID,
			"err":       err,
		})
		return Edge{}, err
	}

	if err := checkpoint(ctx); err != nil {
		return Edge{}, err
	}

	c, p, err := s.writePair(ctx, op, childID, parentID,
		side{before: child, after: child.WithParent(parentID), write: true},
		side{before: parent, after: parent.WithChild(childID), write: true},
	)
	if err != nil {
		return Edge{}, err
	}

	s.record(ctx, c, events.EventTypeParentLinked, parentID, "")
	s.record(ctx, p, events.EventTypeChildLinked, childID, "")
	return Edge{Child: c, Parent: p}, nil
}

// CreateAndLinkPlaceholderParent crea un padre sin dueño y lo vincula a childID.
// Si el link falla, el placeholder se borra antes de devolver el error.
func (s *Service) CreateAndLinkPlaceholderParent(ctx context.Context, childID string, in PlaceholderInput) (edge Edge, err error) {
	childID = strings.TrimSpace(childID)
	ctx, run := s.begin(ctx, OpPlaceholderParent, childID, "")
	defer run.end(&err)

	return s.linkPlaceholder(ctx, OpPlaceholderParent, childID, in)
}

// CreateAndLinkPlaceholderChild crea un hijo sin dueño y lo vincula a parentID.
func (s *Service) CreateAndLinkPlaceholderChild(ctx context.Context, parentID string, in PlaceholderInput) (edge Edge, err error) {
	parentID = strings.TrimSpace(parentID)
	ctx, run := s.begin(ctx, OpPlaceholderChild, "", parentID)
	defer run.end(&err)

	return s.linkPlaceholder(ctx, OpPlaceholderChild, parentID, in)
}

func (s *Service) linkPlaceholder(ctx context.Context, op, anchorID string, in PlaceholderInput) (Edge, error) {
	if anchorID == "" {
		return Edge{}, ErrInvalidInput
	}
	asParent := op == OpPlaceholderParent

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	unlock, err := s.lock(ctx, anchorID)
	if err != nil {
		return Edge{}, err
	}
	defer unlock()

	anchor, err := s.load(ctx, anchorID)
	if err != nil {
		return Edge{}, err
	}
	if anchor.IsPlaceholder() {
		if asParent {
			return Edge{}, reject(ReasonPlaceholderAnchor, anchorID, "")
		}
		return Edge{}, reject(ReasonPlaceholderAnchor, "", anchorID)
	}
	if asParent {
		// I1 antes de crear nada
		if err := CanAcceptParent(anchor); err != nil {
			return Edge{}, err
		}
	}
	if strings.TrimSpace(in.Species) == "" {
		in.Species = anchor.Species
	}

	if err := checkpoint(ctx); err != nil {
		return Edge{}, err
	}

	// desde acá no se corta: crear + link + compensación corren completos
	wctx := context.WithoutCancel(ctx)

	ph, err := s.placeholders.Create(wctx, in)
	if err != nil {
		return Edge{}, err
	}

	child, parent := anchor, ph
	if !asParent {
		child, parent = ph, anchor
	}

	if err := CanAddParent(child, parent); err != nil {
		return Edge{}, s.discardPlaceholder(wctx, ph.ID, err)
	}

	c, p, err := s.writePair(wctx, op, child.ID, parent.ID,
		side{before: child, after: child.WithParent(parent.ID), write: true},
		side{before: parent, after: parent.WithChild(child.ID), write: true},
	)
	if err != nil {
		return Edge{}, s.discardPlaceholder(wctx, ph.ID, err)
	}

	s.record(ctx, anchor, events.EventTypePlaceholderCreated, ph.ID, ph.Name)
	s.record(ctx, c, events.EventTypeParentLinked, p.ID, "")
	s.record(ctx, p, events.EventTypeChildLinked, c.ID, "")
	return Edge{Child: c, Parent: p}, nil
}

func (s *Service) discardPlaceholder(ctx context.Context, id string, cause error) error {
	perr := &PlaceholderError{PlaceholderID: id, Deleted: true, Err: cause}
	if err := s.placeholders.discard(ctx, id); err != nil {
		perr.Deleted = false
		s.log.Error("placeholder compensation failed, placeholder leaked", map[string]any{
			"pet_id": id,
			"cause":  cause,
			"err":    err,
		})
	}
	return perr
}

// UnlinkParent quita la arista parentID -> childID. Si no existe, no hace nada.
// Después reclama cualquiera de las dos puntas que haya quedado como placeholder huérfano.
//
// Si el reclaim falla la arista ya quedó quitada: se devuelve el resultado junto
// con un *ReclaimError.
func (s *Service) UnlinkParent(ctx context.Context, childID, parentID string) (UnlinkResult, error) {
	return s.unlink(ctx, OpUnlinkParent, childID, parentID)
}

// UnlinkChild es simétrica a UnlinkParent.
func (s *Service) UnlinkChild(ctx context.Context, parentID, childID string) (UnlinkResult, error) {
	return s.unlink(ctx, OpUnlinkChild, childID, parentID)
}

func (s *Service) unlink(ctx context.Context, op, childID, parentID string) (res UnlinkResult, err error) {
	childID, parentID = strings.TrimSpace(childID), strings.TrimSpace(parentID)
	ctx, run := s.begin(ctx, op, childID, parentID)
	defer run.end(&err)

	if childID == "" || parentID == "" {
		return UnlinkResult{}, ErrInvalidInput
	}

	anchorID, otherID := childID, parentID
	if op == OpUnlinkChild {
		anchorID, otherID = parentID, childID
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	unlock, err := s.lock(ctx, childID, parentID)
	if err != nil {
		return UnlinkResult{}, err
	}
	defer unlock()

	// la contraparte puede no existir (referencia colgada): igual se limpia este lado
	child, childFound, err := s.loadOptional(ctx, childID)
	if err != nil {
		return UnlinkResult{}, err
	}
	parent, parentFound, err := s.loadOptional(ctx, parentID)
	if err != nil {
		return UnlinkResult{}, err
	}
	if (anchorID == childID && !childFound) || (anchorID == parentID && !parentFound) {
		return UnlinkResult{}, notFound(anchorID)
	}

	childHas := childFound && child.HasParent(parentID)
	parentHas := parentFound && parent.HasChild(childID)
	if !childHas && !parentHas {
		run.noop = true
		return UnlinkResult{Child: child, Parent: parent}, nil
	}

	if err := checkpoint(ctx); err != nil {
		return UnlinkResult{}, err
	}

	c, p, err := s.writePair(ctx, op, childID, parentID,
		side{before: child, after: child.WithoutParent(parentID), write: childHas},
		side{before: parent, after: parent.WithoutChild(childID), write: parentHas},
	)
	if err != nil {
		return UnlinkResult{}, err
	}
	res = UnlinkResult{Child: c, Parent: p, Changed: true}

	if childHas {
		s.record(ctx, c, events.EventTypeParentUnlinked, parentID, "")
	}
	if parentHas {
		s.record(ctx, p, events.EventTypeChildUnlinked, childID, "")
	}

	wctx := context.WithoutCancel(ctx)
	for _, id := range []string{otherID, anchorID} {
		reclaimed, rerr := s.placeholders.ReclaimIfOrphaned(wctx, id)
		if rerr != nil {
			s.log.Error("placeholder reclaim failed", map[string]any{"op": op, "pet_id": id, "err": rerr})
			return res, &ReclaimError{PetID: id, Err: rerr}
		}
		if !reclaimed {
			continue
		}
		res.Reclaimed = append(res.Reclaimed, id)
		if id == parentID {
			s.record(ctx, c, events.EventTypePlaceholderReclaimed, id, "")
		} else {
			s.record(ctx, p, events.EventTypePlaceholderReclaimed, id, "")
		}
	}
	return res, nil
}

type side struct {
	before pets.Pet
	after  pets.Pet
	write  bool
}

// writePair persiste los lados marcados con write. Si el store soporta
// transacciones de a pares se escribe todo junto; si no, hijo primero y padre
// después, revirtiendo el hijo si falla el padre.
func (s *Service) writePair(ctx context.Context, op, childID, parentID string, child, parent side) (pets.Pet, pets.Pet, error) {
	ctx = context.WithoutCancel(ctx)
	now := s.now()

	werr := &EdgeWriteError{Op: op, ChildID: childID, ParentID: parentID}
	cOut, pOut := child.before, parent.before

	if pu, ok := s.repo.(pets.PairUpdater); ok && child.write && parent.write {
		c, p := child.after, parent.after
		c.UpdatedAt, p.UpdatedAt = now, now
		cv, pv, err := pu.UpdatePair(ctx, c, p)
		if err != nil {
			werr.Err = err
			return pets.Pet{}, pets.Pet{}, werr
		}
		c.Version, p.Version = cv, pv
		return c, p, nil
	}

	if child.write {
		c := child.after
		c.UpdatedAt = now
		v, err := s.repo.Update(ctx, c)
		if err != nil {
			werr.Err = err
			return pets.Pet{}, pets.Pet{}, werr
		}
		c.Version = v
		cOut = c
		werr.ChildWritten = true
	}

	if parent.write {
		p := parent.after
		p.UpdatedAt = now
		v, err := s.repo.Update(ctx, p)
		if err != nil {
			werr.Err = err
			if werr.ChildWritten {
				werr.Reverted = s.revert(ctx, child.before, cOut.Version)
			}
			fields := map[string]any{
				"op":        op,
				"child_id":  childID,
				"parent_id": parentID,
				"reverted":  werr.Reverted,
				"err":       err,
			}
			if werr.Inconsistent() {
				s.metrics.Inconsistencies.WithLabelValues("partial_write").Inc()
				s.log.Error("edge left one-sided, run repair", fields)
			} else {
				s.log.Warn("edge write failed", fields)
			}
			return pets.Pet{}, pets.Pet{}, werr
		}
		p.Version = v
		pOut = p
	}

	return cOut, pOut, nil
}

// revert restaura before sobre la versión que acabamos de escribir.
func (s *Service) revert(ctx context.Context, before pets.Pet, written int64) bool {
	restore := before.Clone()
	restore.Version = written
	restore.UpdatedAt = s.now()
	if _, err := s.repo.Update(ctx, restore); err != nil {
		s.log.Error("compensating write failed", map[string]any{"pet_id": before.ID, "err": err})
		return false
	}
	return true
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opTimeout > 0 {
		return context.WithTimeout(ctx, s.opTimeout)
	}
	return context.WithCancel(ctx)
}

func (s *Service) lock(ctx context.Context, ids ...string) (locks.Unlock, error) {
	unlock, err := s.locker.Lock(ctx, ids...)
	if err != nil {
		if errors.Is(err, locks.ErrNotAcquired) || ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", ErrTimeout, err)
		}
		return nil, fmt.Errorf("%w: lock: %w", ErrStoreFailure, err)
	}
	return unlock, nil
}

func (s *Service) load(ctx context.Context, id string) (pets.Pet, error) {
	p, found, err := s.loadOptional(ctx, id)
	if err != nil {
		return pets.Pet{}, err
	}
	if !found {
		return pets.Pet{}, notFound(id)
	}
	return p, nil
}

func (s *Service) loadOptional(ctx context.Context, id string) (pets.Pet, bool, error) {
	p, err := s.repo.GetByID(ctx, id)
	switch {
	case err == nil:
		return p, true, nil
	case errors.Is(err, pets.ErrNotFound):
		return pets.Pet{}, false, nil
	case ctx.Err() != nil:
		return pets.Pet{}, false, fmt.Errorf("%w: %w", ErrTimeout, ctx.Err())
	default:
		return pets.Pet{}, false, fmt.Errorf("%w: load %s: %w", ErrStoreFailure, id, err)
	}
}

// checkpoint es el último punto donde un timeout puede abortar la operación.
func checkpoint(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return nil
}

func isConflict(err error) bool {
	return errors.Is(err, pets.ErrVersionConflict)
}

// record es best-effort: un fallo del historial no deshace la arista.
// Los placeholders no tienen historial propio.
func (s *Service) record(ctx context.Context, pet pets.Pet, t events.EventType, relatedID, notes string) {
	if s.activity == nil || pet.ID == "" || pet.IsPlaceholder() {
		return
	}
	_, err := s.activity.Record(context.WithoutCancel(ctx), pet.ID, ActorFrom(ctx), events.RecordInput{
		Type:         t,
		RelatedPetID: relatedID,
		Notes:        notes,
	})
	if err != nil {
		s.log.Warn("activity record failed", map[string]any{"pet_id": pet.ID, "type": string(t), "err": err})
	}
}

type actorKey struct{}

// WithActor asocia quién inicia la operación, para el historial.
func WithActor(ctx context.Context, a events.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

func ActorFrom(ctx context.Context) events.Actor {
	if a, ok := ctx.Value(actorKey{}).(events.Actor); ok && a.ID != "" {
		return a
	}
	return events.SystemActor("pedigree")
}

type opRun struct {
	s       *Service
	op      string
	started time.Time
	span    trace.Span
	noop    bool
}

func (s *Service) begin(ctx context.Context, op, childID, parentID string) (context.Context, *opRun) {
	attrs := []attribute.KeyValue{attribute.String("pedigree.op", op)}
	if childID != "" {
		attrs = append(attrs, attribute.String("pedigree.child_id", childID))
	}
	if parentID != "" {
		attrs = append(attrs, attribute.String("pedigree.parent_id", parentID))
	}
	ctx, span := s.tracer.Start(ctx, "pedigree."+op, trace.WithAttributes(attrs...))
	return ctx, &opRun{s: s, op: op, started: time.Now(), span: span}
}

func (r *opRun) end(errp *error) {
	var err error
	if errp != nil {
		err = *errp
	}
	result := resultOf(err)
	if err == nil && r.noop {
		result = "noop"
	}
	if err != nil {
		r.span.RecordError(err)
		r.span.SetStatus(codes.Error, result)
	}
	r.span.SetAttributes(attribute.String("pedigree.result", result))
	r.span.End()
	r.s.metrics.ObserveOp(r.op, result, r.started)
}

func resultOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidInput):
		return "invalid"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrRejected):
		return "rejected"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	default:
		return "store_failure"
	}
}
