package pedigree

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("pet not found")
	ErrRejected     = errors.New("edge rejected")
	ErrStoreFailure = errors.New("store failure")

	// ErrConflict: otro writer modificó una de las mascotas; nada quedó escrito a medias.
	ErrConflict = errors.New("concurrent modification")

	// ErrTimeout: venció el contexto antes de escribir (o esperando el lock).
	ErrTimeout = errors.New("operation timed out")
)

// Reason es el motivo concreto de un rechazo, para que la API muestre un mensaje preciso.
type Reason string

const (
	ReasonTwoParentsExceeded Reason = "TWO_PARENTS_EXCEEDED"
	ReasonDuplicateEdge      Reason = "DUPLICATE_EDGE"
	ReasonSelfReference      Reason = "SELF_REFERENCE"
	ReasonImmediateCycle     Reason = "IMMEDIATE_CYCLE"

	// ReasonPlaceholderAnchor: un placeholder no puede originar otro placeholder.
	ReasonPlaceholderAnchor Reason = "PLACEHOLDER_ANCHOR"
)

// RejectionError es el resultado tipado de una arista inválida. errors.Is(err, ErrRejected) es true.
type RejectionError struct {
	Reason   Reason
	ChildID  string
	ParentID string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("edge %s -> %s rejected: %s", e.ParentID, e.ChildID, e.Reason)
}

func (e *RejectionError) Is(target error) bool {
	return target == ErrRejected
}

func reject(reason Reason, childID, parentID string) error {
	return &RejectionError{Reason: reason, ChildID: childID, ParentID: parentID}
}

// RejectionReason extrae el Reason si err es un rechazo.
func RejectionReason(err error) (Reason, bool) {
	var rej *RejectionError
	if errors.As(err, &rej) {
		return rej.Reason, true
	}
	return "", false
}

func notFound(id string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}

// EdgeWriteError informa qué lados de una arista quedaron escritos cuando falló el store.
// Si ChildWritten != ParentWritten y Reverted es false, la arista quedó de un solo lado
// hasta que corra el repair.
type EdgeWriteError struct {
	Op       string
	ChildID  string
	ParentID string

	ChildWritten  bool
	ParentWritten bool
	Reverted      bool

	Err error
}

func (e *EdgeWriteError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s -> %s: store write failed (child_written=%t parent_written=%t",
		e.Op, e.ParentID, e.ChildID, e.ChildWritten, e.ParentWritten)
	if e.ChildWritten != e.ParentWritten {
		fmt.Fprintf(&b, " reverted=%t", e.Reverted)
	}
	fmt.Fprintf(&b, "): %v", e.Err)
	return b.String()
}

// Unwrap expone la causa y la categoría (ErrConflict si nada quedó escrito por
// un conflicto de versión, ErrStoreFailure en el resto).
func (e *EdgeWriteError) Unwrap() []error {
	return []error{e.category(), e.Err}
}

func (e *EdgeWriteError) category() error {
	if !e.ChildWritten && !e.ParentWritten && isConflict(e.Err) {
		return ErrConflict
	}
	return ErrStoreFailure
}

// Inconsistent dejó una arista de un solo lado.
func (e *EdgeWriteError) Inconsistent() bool {
	return e.ChildWritten != e.ParentWritten && !e.Reverted
}

// PlaceholderError: falló la compensación de un placeholder recién creado.
type PlaceholderError struct {
	PlaceholderID string
	Deleted       bool
	Err           error
}

func (e *PlaceholderError) Error() string {
	return fmt.Sprintf("placeholder %s link failed (compensated=%t): %v", e.PlaceholderID, e.Deleted, e.Err)
}

func (e *PlaceholderError) Unwrap() error {
	return e.Err
}

// ReclaimError: la arista se quitó bien pero no se pudo reclamar el placeholder.
type ReclaimError struct {
	PetID string
	Err   error
}

func (e *ReclaimError) Error() string {
	return fmt.Sprintf("reclaim placeholder %s: %v", e.PetID, e.Err)
}

func (e *ReclaimError) Unwrap() []error {
	return []error{ErrStoreFailure, e.Err}
}
