package graph

import (
	"fmt"
	"strings"

	"github.com/ttgraph/ttgraph/pkg/ident"
)

// ErrUnfilledAlloc is returned when a transaction commits with an Alloc
// identifier that was never matched by a FillBack.
type ErrUnfilledAlloc struct {
	ID ident.ID
}

func (e *ErrUnfilledAlloc) Error() string {
	return fmt.Sprintf("graph: alloc %s was never filled back", e.ID)
}

// ErrStrayFill is returned when a transaction commits with a FillBack whose
// identifier was never produced by an Alloc in the same buffer.
type ErrStrayFill struct {
	ID ident.ID
}

func (e *ErrStrayFill) Error() string {
	return fmt.Sprintf("graph: fill_back %s has no matching alloc", e.ID)
}

// ErrUnknownID is returned when an operation references an identifier that
// does not name a live node in either the graph or the transaction's own
// staged inserts/allocs.
type ErrUnknownID struct {
	ID ident.ID
}

func (e *ErrUnknownID) Error() string {
	return fmt.Sprintf("graph: unknown id %s", e.ID)
}

// PointConflictError is returned (eagerly, by AddTarget) when a point slot
// already holds a different non-empty target.
type PointConflictError struct {
	Node      ident.ID
	Slot      string
	Existing  ident.ID
	Attempted ident.ID
}

func (e *PointConflictError) Error() string {
	return fmt.Sprintf("graph: point conflict on %s.%s: holds %s, attempted %s",
		e.Node, e.Slot, e.Existing, e.Attempted)
}

// ErrPointConflict is recorded during commit when maintaining a
// bidirectional pair would require a point slot to hold two different
// targets at once.
type ErrPointConflict struct {
	Node      ident.ID
	Slot      string
	Existing  ident.ID
	Attempted ident.ID
}

func (e *ErrPointConflict) Error() string {
	return fmt.Sprintf("graph: bidirectional maintenance would conflict on %s.%s: holds %s, needs %s",
		e.Node, e.Slot, e.Existing, e.Attempted)
}

// ErrBidirectionalConflict describes two declared bidirectional pairs
// disagreeing about the mirrored value of the same slot. The commit engine
// does not return it: a point-slot conflict found while maintaining a
// bidirectional pair is reported as *ErrPointConflict.
type ErrBidirectionalConflict struct {
	Node ident.ID
	Slot string
}

func (e *ErrBidirectionalConflict) Error() string {
	return fmt.Sprintf("graph: conflicting bidirectional updates to %s.%s", e.Node, e.Slot)
}

// ErrLinkTypeViolation is recorded during a checked commit when a slot
// holds a target whose variant is not in the slot's PermittedTargets.
type ErrLinkTypeViolation struct {
	Node          ident.ID
	Slot          string
	Target        ident.ID
	TargetVariant VariantTag
	Permitted     []string
}

func (e *ErrLinkTypeViolation) Error() string {
	return fmt.Sprintf("graph: %s.%s -> %s (variant %s) violates permitted targets %v",
		e.Node, e.Slot, e.Target, e.TargetVariant, e.Permitted)
}

// ErrEmptyInSequence is recorded during a checked commit when any Seq slot
// contains the Empty sentinel.
type ErrEmptyInSequence struct {
	Node ident.ID
	Slot string
	Pos  int
}

func (e *ErrEmptyInSequence) Error() string {
	return fmt.Sprintf("graph: %s.%s contains Empty() at position %d", e.Node, e.Slot, e.Pos)
}

// CommitError wraps a structural failure that aborts Commit/CommitChecked
// before any change is installed. The graph is left exactly as it was.
type CommitError struct {
	Phase int
	Err   error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("graph: commit aborted in phase %d: %v", e.Phase, e.Err)
}

func (e *CommitError) Unwrap() error {
	return e.Err
}

// CheckErrors accumulates every constraint violation found by
// CommitChecked's optional validation phases. The graph is left exactly as
// it was if Errs is non-empty.
type CheckErrors struct {
	Errs []error
}

func (e *CheckErrors) Error() string {
	if len(e.Errs) == 1 {
		return fmt.Sprintf("graph: commit_checked found 1 violation: %v", e.Errs[0])
	}
	parts := make([]string, len(e.Errs))
	for i, err := range e.Errs {
		parts[i] = err.Error()
	}
	return fmt.Sprintf("graph: commit_checked found %d violations:\n  %s",
		len(e.Errs), strings.Join(parts, "\n  "))
}

func (e *CheckErrors) Unwrap() []error {
	return e.Errs
}
