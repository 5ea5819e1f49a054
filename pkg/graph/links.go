package graph

import (
	"sort"

	"github.com/ttgraph/ttgraph/pkg/ident"
)

// IterTargets returns the identifiers currently held in node's slot, in a
// deterministic order (insertion order for Seq; sorted by identifier for
// USet and OSet; a single-element or empty slice for Point).
func IterTargets(n *Node, slot SlotDescriptor) []ident.ID {
	lv := n.Links[slot.Name]
	if lv == nil {
		return nil
	}
	switch slot.Kind {
	case Point:
		if lv.Point.IsEmpty() {
			return nil
		}
		return []ident.ID{lv.Point}
	case Seq:
		out := make([]ident.ID, len(lv.Seq))
		copy(out, lv.Seq)
		return out
	case USet:
		out := make([]ident.ID, 0, len(lv.Set))
		for id := range lv.Set {
			out = append(out, id)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Compare(out[j]) < 0 })
		return out
	case OSet:
		out := make([]ident.ID, len(lv.OSet))
		copy(out, lv.OSet)
		return out
	}
	return nil
}

// AddTarget adds target to node's slot according to the slot's kind.
//
//   - Point: sets the slot if currently empty; returns *PointConflictError if
//     the slot already holds a different non-empty target.
//   - Seq: appends target, including if it duplicates an existing element.
//   - USet: inserts target; already-present targets are a no-op.
//   - OSet: inserts target, keeping the slice ordered by identifier;
//     already-present targets are a no-op.
func AddTarget(n *Node, slot SlotDescriptor, target ident.ID) error {
	lv := n.Links[slot.Name]
	if lv == nil {
		lv = newLinkValue(slot.Kind)
		n.Links[slot.Name] = lv
	}
	switch slot.Kind {
	case Point:
		if !lv.Point.IsEmpty() && lv.Point != target {
			return &PointConflictError{Node: n.ID, Slot: slot.Name, Existing: lv.Point, Attempted: target}
		}
		lv.Point = target
	case Seq:
		lv.Seq = append(lv.Seq, target)
	case USet:
		if lv.Set == nil {
			lv.Set = make(map[ident.ID]struct{})
		}
		lv.Set[target] = struct{}{}
	case OSet:
		insertOrdered(&lv.OSet, target)
	}
	return nil
}

// RemoveTarget removes target from node's slot according to the slot's
// kind. Removing an absent target is a no-op, never an error: commit needs
// idempotent cleanup.
func RemoveTarget(n *Node, slot SlotDescriptor, target ident.ID) {
	lv := n.Links[slot.Name]
	if lv == nil {
		return
	}
	switch slot.Kind {
	case Point:
		if lv.Point == target {
			lv.Point = ident.Empty()
		}
	case Seq:
		out := lv.Seq[:0]
		for _, id := range lv.Seq {
			if id != target {
				out = append(out, id)
			}
		}
		lv.Seq = out
	case USet:
		delete(lv.Set, target)
	case OSet:
		removeOrdered(&lv.OSet, target)
	}
}

// ReplaceAt replaces the element at index in a Seq slot with target. It is
// only meaningful for Seq slots; calling it on any other kind is a no-op.
func ReplaceAt(n *Node, slot SlotDescriptor, index int, target ident.ID) {
	if slot.Kind != Seq {
		return
	}
	lv := n.Links[slot.Name]
	if lv == nil || index < 0 || index >= len(lv.Seq) {
		return
	}
	lv.Seq[index] = target
}

// substituteMapped rewrites every occurrence of a key of mapping found in
// node's slot to its mapped value, looking each occurrence up once against
// the original (pre-substitution) mapping. Passing several pairs through
// one substituteMapped call, rather than making one call per pair, is
// what gives redirect_all its simultaneous, non-chaining semantics: a
// redirect from a to b and another from b to c in the same batch can never
// cause a's occurrences to end up at c.
func substituteMapped(n *Node, slot SlotDescriptor, mapping map[ident.ID]ident.ID) {
	lv := n.Links[slot.Name]
	if lv == nil || len(mapping) == 0 {
		return
	}
	switch slot.Kind {
	case Point:
		if new, ok := mapping[lv.Point]; ok {
			lv.Point = new
		}
	case Seq:
		for i, id := range lv.Seq {
			if new, ok := mapping[id]; ok {
				lv.Seq[i] = new
			}
		}
	case USet:
		// Collect substitutions before mutating lv.Set: a key inserted
		// mid-range may or may not be produced by that same range per the
		// Go spec, so substituting in place here could chain a->b->c
		// instead of applying every pair against the original mapping.
		type sub struct {
			old, new ident.ID
		}
		var subs []sub
		for old := range lv.Set {
			if new, ok := mapping[old]; ok {
				subs = append(subs, sub{old, new})
			}
		}
		for _, s := range subs {
			delete(lv.Set, s.old)
			if !s.new.IsEmpty() {
				if lv.Set == nil {
					lv.Set = make(map[ident.ID]struct{})
				}
				lv.Set[s.new] = struct{}{}
			}
		}
	case OSet:
		old := lv.OSet
		lv.OSet = nil
		for _, id := range old {
			new, ok := mapping[id]
			if !ok {
				insertOrdered(&lv.OSet, id)
				continue
			}
			if !new.IsEmpty() {
				insertOrdered(&lv.OSet, new)
			}
		}
	}
}

func insertOrdered(s *[]ident.ID, target ident.ID) {
	for _, id := range *s {
		if id == target {
			return
		}
	}
	i := sort.Search(len(*s), func(i int) bool { return (*s)[i].Compare(target) >= 0 })
	*s = append(*s, ident.ID{})
	copy((*s)[i+1:], (*s)[i:])
	(*s)[i] = target
}

func removeOrdered(s *[]ident.ID, target ident.ID) {
	out := (*s)[:0]
	for _, id := range *s {
		if id != target {
			out = append(out, id)
		}
	}
	*s = out
}
