package graph

import (
	"fmt"
	"sync"

	"github.com/ttgraph/ttgraph/pkg/ident"
)

type opKind int

const (
	opInsert opKind = iota
	opFillBack
	opUpdate
	opMutate
	opRemove
	opAddLink
	opRemoveLink
	opRedirect
)

// operation is one staged edit. Only the fields relevant to Kind are
// populated; the rest are zero.
type operation struct {
	kind    opKind
	id      ident.ID
	node    *Node // opInsert, opFillBack: the staged payload. opUpdate: its replacement.
	mutator func(*Node)
	slot    string
	target  ident.ID
	pairs   map[ident.ID]ident.ID // opRedirect: one or more simultaneous substitutions
}

// Transaction is a single-use buffer of staged edits against a Graph. It
// is bound only to an identity Context, not to any particular Graph, so
// the same transaction-building code can run before the target Graph even
// exists — the intended use is to build it once, then pass it to exactly
// one Graph.Commit or Graph.CommitChecked call.
//
// A Transaction is not safe for concurrent use by multiple goroutines; it
// follows the same single-writer discipline as Graph itself.
type Transaction struct {
	ctx *ident.Context

	mu        sync.Mutex
	consumed  bool
	ops       []operation
	allocated map[ident.ID]VariantTag
	filled    map[ident.ID]bool
	staged    map[ident.ID]bool // ids this transaction has inserted or filled (carried over by Merge)
}

// NewTransaction creates an empty Transaction bound to ctx.
func NewTransaction(ctx *ident.Context) *Transaction {
	return &Transaction{
		ctx:       ctx,
		allocated: make(map[ident.ID]VariantTag),
		filled:    make(map[ident.ID]bool),
		staged:    make(map[ident.ID]bool),
	}
}

// IsActive reports whether this transaction has not yet been consumed by a
// commit call.
func (t *Transaction) IsActive() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.consumed
}

// OperationCount returns the number of edits staged so far (Alloc without
// a matching FillBack still counts once it is filled; a bare Alloc does
// not add an operation until FillBack supplies one).
func (t *Transaction) OperationCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.ops)
}

func (t *Transaction) mustBeActive() {
	if t.consumed {
		panic("graph: transaction reused after commit")
	}
}

// Insert stages a brand-new node. n.ID is overwritten with a fresh
// identifier from this transaction's Context; the assigned ID is
// returned so the caller can wire it into other operations in the same
// buffer.
func (t *Transaction) Insert(n *Node) ident.ID {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.mustBeActive()

	id := t.ctx.NewID()
	n.ID = id
	t.ops = append(t.ops, operation{kind: opInsert, id: id, node: n})
	t.staged[id] = true
	return id
}

// Alloc reserves an identifier of the given variant without supplying its
// content yet, so that two mutually referencing nodes can be constructed
// in one transaction: allocate both ids first, build each node's links
// against the other's allocated id, then FillBack each. Every allocated id
// must be matched by exactly one FillBack before commit, or the commit
// fails in phase 1 with ErrUnfilledAlloc.
func (t *Transaction) Alloc(variant VariantTag) ident.ID {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.mustBeActive()

	id := t.ctx.NewID()
	t.allocated[id] = variant
	return id
}

// FillBack supplies the content for an id previously returned by Alloc.
// n.ID is overwritten with id. Filling an id that was never allocated (or
// filling one twice) is a stray fill, reported at commit as ErrStrayFill.
func (t *Transaction) FillBack(id ident.ID, n *Node) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.mustBeActive()

	n.ID = id
	t.ops = append(t.ops, operation{kind: opFillBack, id: id, node: n})
	if _, ok := t.allocated[id]; ok && !t.filled[id] {
		t.filled[id] = true
	}
	t.staged[id] = true
}

// Update stages a whole-node replacement: at commit time the node named id
// is discarded entirely and replaced by a clone of n, under the same id.
// Use Mutate instead when only some of the node's fields or links should
// change; Update replaces everything, including slots n leaves zero-valued.
func (t *Transaction) Update(id ident.ID, n *Node) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.mustBeActive()

	t.ops = append(t.ops, operation{kind: opUpdate, id: id, node: n.clone()})
}

// Mutate stages an arbitrary in-place edit of the node named id: mutator
// runs at commit time against a working copy of the node, after updates
// and before link edits and redirects. Mutate can touch both fields and
// links; it is the general-purpose escape hatch Update and AddLink/
// RemoveLink exist to make unnecessary for the common cases.
func (t *Transaction) Mutate(id ident.ID, mutator func(*Node)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.mustBeActive()

	t.ops = append(t.ops, operation{kind: opMutate, id: id, mutator: mutator})
}

// Remove stages the removal of the node named id. A removed node is no
// longer reachable through Graph.Get or the iteration surface after
// commit; commit also redirects every surviving occurrence of id in any
// other node's link slots to Empty(), the same way an explicit
// Redirect(id, ctx.Empty()) would. This is not cascading delete: only id
// itself is removed, never the nodes that referenced it.
func (t *Transaction) Remove(id ident.ID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.mustBeActive()

	t.ops = append(t.ops, operation{kind: opRemove, id: id})
}

// AddLink stages adding target to the named slot of the node named id.
// Unlike the eager AddTarget helper in links.go, staged add_link never
// fails for a point-slot conflict: the last add_link to a given point
// slot in a transaction wins, since operations in the buffer are meant to
// compose freely before commit decides what the final value is.
func (t *Transaction) AddLink(id ident.ID, slot string, target ident.ID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.mustBeActive()

	t.ops = append(t.ops, operation{kind: opAddLink, id: id, slot: slot, target: target})
}

// RemoveLink stages removing target from the named slot of the node named
// id. Removing an absent target is a no-op at commit time.
func (t *Transaction) RemoveLink(id ident.ID, slot string, target ident.ID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.mustBeActive()

	t.ops = append(t.ops, operation{kind: opRemoveLink, id: id, slot: slot, target: target})
}

// Redirect stages a single substitution: every link slot across the whole
// graph holding old is rewritten to hold new instead, as of commit. old
// must not be Empty(); new may be Empty(), in which case the occurrence
// is cleared (or, inside a uset/oset, removed from the set).
func (t *Transaction) Redirect(old, new ident.ID) {
	t.RedirectAll(map[ident.ID]ident.ID{old: new})
}

// RedirectAll stages several substitutions as one simultaneous batch:
// every occurrence is looked up against the pre-commit pairs exactly
// once, so a redirect from a to b and another from b to c in the same
// call can never chain a's occurrences through to c. Pairs from separate
// Redirect/RedirectAll calls in the same transaction are merged into one
// batch at commit time and so share this non-chaining guarantee across
// the whole buffer, not just within one call.
func (t *Transaction) RedirectAll(pairs map[ident.ID]ident.ID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.mustBeActive()

	cp := make(map[ident.ID]ident.ID, len(pairs))
	for k, v := range pairs {
		cp[k] = v
	}
	t.ops = append(t.ops, operation{kind: opRedirect, pairs: cp})
}

// Merge appends every operation staged in other onto t, then consumes
// other: other.IsActive() is false afterward, and further calls to any of
// its staging methods panic. Merging re-enables phase-1 buffer validation
// for t's alloc/fill-back bookkeeping, since the combined buffer's
// allocations may now be satisfied by fills that arrived from either
// side.
func (t *Transaction) Merge(other *Transaction) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.mustBeActive()

	other.mu.Lock()
	defer other.mu.Unlock()
	if other.consumed {
		return fmt.Errorf("graph: cannot merge a consumed transaction")
	}

	t.ops = append(t.ops, other.ops...)
	for id, v := range other.allocated {
		t.allocated[id] = v
	}
	for id := range other.filled {
		t.filled[id] = true
	}
	for id := range other.staged {
		t.staged[id] = true
	}
	other.consumed = true
	return nil
}

// Extend is shorthand for inserting every node in nodes, in order. It
// returns the assigned identifiers in the same order, exactly as if each
// node had been passed to Insert individually.
func (t *Transaction) Extend(nodes []*Node) []ident.ID {
	ids := make([]ident.ID, len(nodes))
	for i, n := range nodes {
		ids[i] = t.Insert(n)
	}
	return ids
}

// snapshot returns the operation log and alloc/fill bookkeeping needed by
// commit, and marks the transaction consumed so it cannot be committed
// twice or mutated after commit has started reading it.
func (t *Transaction) snapshot() ([]operation, map[ident.ID]VariantTag, map[ident.ID]bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.consumed = true
	return t.ops, t.allocated, t.filled
}
