package graph

import (
	"sync"

	"github.com/ttgraph/ttgraph/pkg/ident"
	"github.com/ttgraph/ttgraph/pkg/telemetry"
)

// Graph is the node arena: a partitioned, thread-safe, in-memory store of
// Nodes, grouped by variant for O(1) by-variant iteration and indexed by
// node-group for O(1) by-group iteration.
//
// Graph never exposes its internal Node pointers to callers; Get and the
// iteration surface in query.go return deep copies, so mutating a returned
// Node never affects the graph until a Transaction is built and committed
// against it.
//
// Graph follows a single-writer model: concurrent readers are safe, but
// Commit/CommitChecked calls must not overlap with each other. There is no
// cross-process or cross-thread coordination beyond the single in-process
// RWMutex.
type Graph struct {
	mu  sync.RWMutex
	reg *Registry

	partitions map[VariantTag]map[ident.ID]*Node
	order      map[VariantTag][]ident.ID
	groupNodes map[string]map[ident.ID]struct{}
	variantOf  map[ident.ID]VariantTag

	recorder telemetry.Recorder
}

// New creates an empty Graph bound to reg. reg is treated as read-only
// static data for the lifetime of the Graph; registering new variants or
// bidirectional pairs after nodes exist is the caller's responsibility to
// do safely (the core does not re-validate existing nodes against a
// changed registry).
func New(reg *Registry) *Graph {
	return &Graph{
		reg:        reg,
		partitions: make(map[VariantTag]map[ident.ID]*Node),
		order:      make(map[VariantTag][]ident.ID),
		groupNodes: make(map[string]map[ident.ID]struct{}),
		variantOf:  make(map[ident.ID]VariantTag),
		recorder:   telemetry.NoopRecorder{},
	}
}

// Registry returns the Registry this Graph was constructed with.
func (g *Graph) Registry() *Registry {
	return g.reg
}

// SetRecorder installs a telemetry.Recorder that observes every future
// Commit/CommitChecked call. Passing nil restores the no-op recorder.
func (g *Graph) SetRecorder(r telemetry.Recorder) {
	if r == nil {
		r = telemetry.NoopRecorder{}
	}
	g.recorder = r
}

// Get returns a deep copy of the live node named by id, or (nil, false) if
// no such node exists.
func (g *Graph) Get(id ident.ID) (*Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.get(id)
}

// get returns a deep copy of the node for id. Callers must already hold
// g.mu.
func (g *Graph) get(id ident.ID) (*Node, bool) {
	variant, ok := g.variantOf[id]
	if !ok {
		return nil, false
	}
	n, ok := g.partitions[variant][id]
	if !ok {
		return nil, false
	}
	return n.clone(), true
}

// Len returns the total number of live nodes.
func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.variantOf)
}

// install places n into the arena under its own ID, indexing it by variant
// and by every node-group its variant belongs to. install overwrites any
// existing node sharing n.ID; callers are responsible for only doing this
// when that is the intended semantics (insert-or-replace during commit).
func (g *Graph) install(n *Node) {
	if g.partitions[n.Variant] == nil {
		g.partitions[n.Variant] = make(map[ident.ID]*Node)
	}
	if _, exists := g.partitions[n.Variant][n.ID]; !exists {
		g.order[n.Variant] = append(g.order[n.Variant], n.ID)
	}
	g.partitions[n.Variant][n.ID] = n
	g.variantOf[n.ID] = n.Variant

	desc, ok := g.reg.Descriptor(n.Variant)
	if !ok {
		return
	}
	for _, group := range desc.Groups {
		if g.groupNodes[group] == nil {
			g.groupNodes[group] = make(map[ident.ID]struct{})
		}
		g.groupNodes[group][n.ID] = struct{}{}
	}
}

// uninstall removes the node named id from the arena entirely, including
// its variant-order slice and every group index it was a member of.
func (g *Graph) uninstall(id ident.ID) {
	variant, ok := g.variantOf[id]
	if !ok {
		return
	}
	delete(g.partitions[variant], id)
	delete(g.variantOf, id)

	order := g.order[variant]
	for i, existing := range order {
		if existing == id {
			g.order[variant] = append(order[:i], order[i+1:]...)
			break
		}
	}

	if desc, ok := g.reg.Descriptor(variant); ok {
		for _, group := range desc.Groups {
			delete(g.groupNodes[group], id)
		}
	}
}
