package graph

import (
	"iter"
	"sort"

	"github.com/ttgraph/ttgraph/pkg/ident"
)

// All iterates every live node in the graph, in a stable order (grouped by
// variant, then by insertion order within each variant). The id list is
// snapshotted before the first node is yielded, so All is restartable and
// safe to range over more than once even if the graph is later mutated by
// a new commit — a restarted iteration simply reflects the graph's state
// as of that restart, not the state of an earlier, still-running one.
func (g *Graph) All() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		g.mu.RLock()
		variants := make([]VariantTag, 0, len(g.order))
		for v := range g.order {
			variants = append(variants, v)
		}
		sort.Slice(variants, func(i, j int) bool { return variants[i] < variants[j] })
		ids := make([]ident.ID, 0, len(g.variantOf))
		for _, v := range variants {
			ids = append(ids, g.order[v]...)
		}
		g.mu.RUnlock()

		for _, id := range ids {
			n, ok := g.Get(id)
			if !ok {
				continue
			}
			if !yield(n) {
				return
			}
		}
	}
}

// IterVariant iterates every live node of the given variant, in insertion
// order, with the same snapshot-then-yield restartability as All.
func (g *Graph) IterVariant(variant VariantTag) iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		g.mu.RLock()
		ids := append([]ident.ID(nil), g.order[variant]...)
		g.mu.RUnlock()

		for _, id := range ids {
			n, ok := g.Get(id)
			if !ok {
				continue
			}
			if !yield(n) {
				return
			}
		}
	}
}

// IterGroup iterates every live node belonging to the named node-group
// (per the group each node's variant descriptor declares), in ascending
// identifier order, with the same snapshot-then-yield restartability as
// All.
func (g *Graph) IterGroup(group string) iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		g.mu.RLock()
		ids := make([]ident.ID, 0, len(g.groupNodes[group]))
		for id := range g.groupNodes[group] {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i].Compare(ids[j]) < 0 })
		g.mu.RUnlock()

		for _, id := range ids {
			n, ok := g.Get(id)
			if !ok {
				continue
			}
			if !yield(n) {
				return
			}
		}
	}
}

// IterLinks iterates every (slot name, target id) pair in n's links that
// pass filter, across every target in a multi-valued slot. Passing a nil
// filter iterates every slot.
func (n *Node) IterLinks(reg *Registry, filter func(SlotDescriptor) bool) iter.Seq2[string, ident.ID] {
	return func(yield func(string, ident.ID) bool) {
		desc, ok := reg.Descriptor(n.Variant)
		if !ok {
			return
		}
		for _, slot := range desc.Slots {
			if filter != nil && !filter(slot) {
				continue
			}
			for _, target := range IterTargets(n, slot) {
				if !yield(slot.Name, target) {
					return
				}
			}
		}
	}
}

// IterLinksInGroup iterates every (slot name, target id) pair held in a
// slot that belongs to the named link-group, per reg's descriptor for n's
// variant.
func (n *Node) IterLinksInGroup(reg *Registry, group string) iter.Seq2[string, ident.ID] {
	return n.IterLinks(reg, func(s SlotDescriptor) bool {
		for _, g := range s.Groups {
			if g == group {
				return true
			}
		}
		return false
	})
}
