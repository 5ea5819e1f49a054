package graph

import (
	"context"
	"fmt"
	"sort"

	"github.com/cespare/xxhash/v2"
	"github.com/ttgraph/ttgraph/pkg/glog"
	"github.com/ttgraph/ttgraph/pkg/ident"
)

const (
	phaseValidateBuffer = 1 + iota
	phaseBuildStaging
	phaseApplyInserts
	phaseApplyUpdates
	phaseApplyMutations
	phaseApplyLinkEdits
	phaseApplyRedirects
	phaseApplyRemovals
	phaseBidirectional
	phaseValidateAndInstall
)

// CommitReport summarizes a successful Commit/CommitChecked call.
type CommitReport struct {
	NodesInserted            int
	NodesUpdated             int
	NodesRemoved             int
	LinksChanged             int
	BidirectionalEdgesSynced int
	Fingerprint              uint64
}

// commitCtx carries the mutable staging state threaded through the ten
// commit phases. It never touches g.partitions directly; the live graph is
// only overwritten once, in the final phase, after every prior phase has
// succeeded.
type commitCtx struct {
	g *Graph

	// stage is the working universe: a clone of every node live in the
	// graph before this commit, plus every node this transaction inserts
	// or fills back. All phases after phaseBuildStaging edit stage, never
	// the live graph.
	stage map[ident.ID]*Node
	// original is an untouched snapshot of stage as of phaseBuildStaging,
	// used only to diff bidirectional-pair membership in phaseBidirectional.
	original map[ident.ID]*Node
	removed  map[ident.ID]bool

	report CommitReport
}

// Commit validates and applies tx against g, following the ten-phase
// algorithm: buffer validation, staging, insert/fill-back materialization,
// updates, mutations, link edits, redirects, removals, bidirectional-pair
// maintenance, and atomic install. It does not run the optional link-type
// or sequence-emptiness checks that CommitChecked runs in its final phase.
//
// On any failure the graph is left completely unchanged; the returned
// error is a *CommitError identifying which phase failed.
func (g *Graph) Commit(tx *Transaction) (*CommitReport, error) {
	return g.commit(tx, false)
}

// CommitChecked behaves exactly like Commit, except its final phase also
// validates every link against its slot's permitted-target list and every
// sequence slot against the empty-sentinel constraint before installing
// anything. Violations are accumulated and returned together as a
// *CheckErrors rather than stopping at the first one; as with Commit, any
// failure leaves the graph completely unchanged.
func (g *Graph) CommitChecked(tx *Transaction) (*CommitReport, error) {
	return g.commit(tx, true)
}

func (g *Graph) commit(tx *Transaction, checked bool) (report *CommitReport, err error) {
	end := g.recorder.Begin(context.Background(), checked)
	defer func() {
		end(err == nil)
		if err != nil {
			glog.Error("graph: commit aborted", map[string]any{"error": err})
		}
	}()

	ops, allocated, filled := tx.snapshot()

	g.mu.Lock()
	defer g.mu.Unlock()

	cc := &commitCtx{g: g}

	if err = cc.validateBuffer(ops, allocated, filled); err != nil {
		err = &CommitError{Phase: phaseValidateBuffer, Err: err}
		return nil, err
	}
	cc.buildStaging()
	if err = cc.applyInserts(ops); err != nil {
		err = &CommitError{Phase: phaseApplyInserts, Err: err}
		return nil, err
	}
	cc.applyUpdates(ops)
	cc.applyMutations(ops)
	if err = cc.applyLinkEdits(ops); err != nil {
		err = &CommitError{Phase: phaseApplyLinkEdits, Err: err}
		return nil, err
	}
	cc.applyRedirects(ops)
	cc.applyRemovals(ops)
	if bidirErr := cc.maintainBidirectional(); bidirErr != nil {
		err = &CommitError{Phase: phaseBidirectional, Err: bidirErr}
		return nil, err
	}

	if checked {
		if errs := cc.validate(); len(errs) > 0 {
			err = &CheckErrors{Errs: errs}
			return nil, err
		}
	}

	cc.install()
	cc.report.Fingerprint = cc.fingerprint(ops)

	glog.Info("graph: commit applied", map[string]any{
		"inserted":    cc.report.NodesInserted,
		"updated":     cc.report.NodesUpdated,
		"removed":     cc.report.NodesRemoved,
		"fingerprint": cc.report.Fingerprint,
	})
	return &cc.report, nil
}

// validateBuffer checks structural consistency of the staged buffer: every
// allocation has exactly one fill-back, every fill-back names an
// allocation, and every operation's subject id resolves to either a live
// graph node or a node this same transaction inserts or fills.
func (cc *commitCtx) validateBuffer(ops []operation, allocated map[ident.ID]VariantTag, filled map[ident.ID]bool) error {
	for id := range allocated {
		if !filled[id] {
			return &ErrUnfilledAlloc{ID: id}
		}
	}
	fills := make(map[ident.ID]int)
	for _, op := range ops {
		if op.kind == opFillBack {
			if _, ok := allocated[op.id]; !ok {
				return &ErrStrayFill{ID: op.id}
			}
			fills[op.id]++
			if fills[op.id] > 1 {
				return &ErrStrayFill{ID: op.id}
			}
		}
	}

	staged := make(map[ident.ID]bool)
	for _, op := range ops {
		if op.kind == opInsert || op.kind == opFillBack {
			staged[op.id] = true
		}
	}
	resolvable := func(id ident.ID) bool {
		if staged[id] {
			return true
		}
		_, ok := cc.g.variantOf[id]
		return ok
	}
	for _, op := range ops {
		switch op.kind {
		case opUpdate, opMutate, opRemove, opAddLink, opRemoveLink:
			if !resolvable(op.id) {
				return &ErrUnknownID{ID: op.id}
			}
		}
	}
	return nil
}

// buildStaging clones every live node into cc.stage and snapshots that
// same state, untouched, into cc.original for the bidirectional-diff
// phase to compare against later.
func (cc *commitCtx) buildStaging() {
	cc.stage = make(map[ident.ID]*Node, len(cc.g.variantOf))
	cc.original = make(map[ident.ID]*Node, len(cc.g.variantOf))
	cc.removed = make(map[ident.ID]bool)
	for id, variant := range cc.g.variantOf {
		n := cc.g.partitions[variant][id]
		cc.stage[id] = n.clone()
		cc.original[id] = n.clone()
	}
}

func (cc *commitCtx) applyInserts(ops []operation) error {
	for _, op := range ops {
		if op.kind != opInsert && op.kind != opFillBack {
			continue
		}
		if _, exists := cc.stage[op.id]; !exists {
			cc.report.NodesInserted++
		}
		cc.stage[op.id] = op.node.clone()
	}
	return nil
}

// applyUpdates applies whole-node update ops in the order they were
// recorded, ties broken by insertion order; a later update on the same id
// overwrites an earlier one. The
// replacement keeps the subject's original id and variant, but discards
// everything else about the previous node.
func (cc *commitCtx) applyUpdates(ops []operation) {
	touched := make(map[ident.ID]bool)
	for _, op := range ops {
		if op.kind != opUpdate {
			continue
		}
		existing := cc.stage[op.id]
		if existing == nil {
			continue
		}
		replacement := op.node.clone()
		replacement.ID = existing.ID
		replacement.Variant = existing.Variant
		cc.stage[op.id] = replacement
		touched[op.id] = true
	}
	cc.report.NodesUpdated += len(touched)
}

func (cc *commitCtx) applyMutations(ops []operation) {
	touched := make(map[ident.ID]bool)
	for _, op := range ops {
		if op.kind != opMutate {
			continue
		}
		n := cc.stage[op.id]
		if n == nil {
			continue
		}
		op.mutator(n)
		touched[op.id] = true
	}
	cc.report.NodesUpdated += len(touched)
}

// applyLinkEdits applies explicit add_link/remove_link operations. Unlike
// the eager AddTarget helper, a conflicting add_link onto an already
// non-empty point slot overwrites rather than fails: explicit edits are
// taken as the transaction author's last word, distinct from the
// conflicts phaseBidirectional can legitimately raise.
func (cc *commitCtx) applyLinkEdits(ops []operation) error {
	for _, op := range ops {
		if op.kind != opAddLink && op.kind != opRemoveLink {
			continue
		}
		n := cc.stage[op.id]
		if n == nil {
			return &ErrUnknownID{ID: op.id}
		}
		slot, ok := cc.g.reg.Slot(n.Variant, op.slot)
		if !ok {
			return fmt.Errorf("graph: variant %q has no slot %q", n.Variant, op.slot)
		}
		switch op.kind {
		case opAddLink:
			if slot.Kind == Point {
				lv := n.Links[slot.Name]
				if lv == nil {
					lv = newLinkValue(Point)
					n.Links[slot.Name] = lv
				}
				lv.Point = op.target
			} else {
				_ = AddTarget(n, slot, op.target)
			}
		case opRemoveLink:
			RemoveTarget(n, slot, op.target)
		}
		cc.report.LinksChanged++
	}
	return nil
}

func (cc *commitCtx) applyRedirects(ops []operation) {
	combined := make(map[ident.ID]ident.ID)
	for _, op := range ops {
		if op.kind != opRedirect {
			continue
		}
		for old, new := range op.pairs {
			combined[old] = new
		}
	}
	if len(combined) == 0 {
		return
	}
	for _, n := range cc.stage {
		desc, ok := cc.g.reg.Descriptor(n.Variant)
		if !ok {
			continue
		}
		for _, slot := range desc.Slots {
			substituteMapped(n, slot, combined)
		}
	}
}

// applyRemovals deletes every node staged for removal, then sweeps every
// surviving staged node and redirects remaining occurrences of each
// removed id to Empty(), using the same substituteMapped walk
// applyRedirects uses. This is not cascading delete (nothing else is
// removed as a consequence): it is the dangling-reference cleanup that
// keeps a removed id from lingering in point/seq/uset/oset slots after
// the node it named is gone.
func (cc *commitCtx) applyRemovals(ops []operation) {
	toEmpty := make(map[ident.ID]ident.ID)
	for _, op := range ops {
		if op.kind != opRemove {
			continue
		}
		if _, ok := cc.stage[op.id]; ok {
			delete(cc.stage, op.id)
			cc.removed[op.id] = true
			cc.report.NodesRemoved++
			toEmpty[op.id] = ident.Empty()
		}
	}
	if len(toEmpty) == 0 {
		return
	}
	for _, n := range cc.stage {
		desc, ok := cc.g.reg.Descriptor(n.Variant)
		if !ok {
			continue
		}
		for _, slot := range desc.Slots {
			substituteMapped(n, slot, toEmpty)
		}
	}
}

// maintainBidirectional keeps every declared BidirectionalPair consistent
// after phases 3-8 have run, by diffing each relevant slot's post-edit
// membership against its pre-commit snapshot and mirroring the symmetric
// difference onto the paired slot. Diffing against the pre-commit snapshot
// (rather than only looking at explicit add_link/remove_link operations)
// is what makes a plain Mutate or Redirect that happens to touch a
// bidirectional slot still maintain its mirror correctly.
func (cc *commitCtx) maintainBidirectional() error {
	pairs := cc.g.reg.Bidirectional()
	for _, pair := range pairs {
		if err := cc.mirrorDirection(pair.VariantA, pair.SlotA, pair.VariantB, pair.SlotB); err != nil {
			return err
		}
		if err := cc.mirrorDirection(pair.VariantB, pair.SlotB, pair.VariantA, pair.SlotA); err != nil {
			return err
		}
	}
	return nil
}

// mirrorDirection mirrors edits made to slot ownerSlot of variant
// ownerVariant onto the paired mirrorSlot of the nodes each owner points
// to, for one direction of one declared pair. Calling this once per
// direction for every pair is what gives the overall maintenance its
// symmetric-difference behavior: a single explicit edit to either side is
// picked up by whichever direction's diff notices it moved.
func (cc *commitCtx) mirrorDirection(ownerVariant VariantTag, ownerSlot string, targetVariant VariantTag, mirrorSlot string) error {
	oDesc, ok := cc.g.reg.Descriptor(ownerVariant)
	if !ok {
		return nil
	}
	oSlotDesc, ok := oDesc.Slot(ownerSlot)
	if !ok {
		return nil
	}
	tDesc, ok := cc.g.reg.Descriptor(targetVariant)
	if !ok {
		return nil
	}
	mSlotDesc, ok := tDesc.Slot(mirrorSlot)
	if !ok {
		return nil
	}

	for id, n := range cc.stage {
		if n.Variant != ownerVariant {
			continue
		}
		var before []ident.ID
		if orig, ok := cc.original[id]; ok {
			before = IterTargets(orig, oSlotDesc)
		}
		after := IterTargets(n, oSlotDesc)

		added, removed := diffIDs(before, after)
		for _, t := range added {
			target := cc.stage[t]
			if target == nil || target.Variant != targetVariant {
				continue
			}
			if mSlotDesc.Kind == Point {
				lv := target.Links[mSlotDesc.Name]
				if lv == nil {
					lv = newLinkValue(Point)
					target.Links[mSlotDesc.Name] = lv
				}
				if !lv.Point.IsEmpty() && lv.Point != id {
					return &ErrPointConflict{Node: target.ID, Slot: mSlotDesc.Name, Existing: lv.Point, Attempted: id}
				}
				lv.Point = id
			} else if err := AddTarget(target, mSlotDesc, id); err != nil {
				return err
			}
			cc.report.BidirectionalEdgesSynced++
		}
		for _, t := range removed {
			target := cc.stage[t]
			if target == nil {
				continue
			}
			RemoveTarget(target, mSlotDesc, id)
			cc.report.BidirectionalEdgesSynced++
		}
	}
	return nil
}

func diffIDs(before, after []ident.ID) (added, removed []ident.ID) {
	beforeSet := make(map[ident.ID]struct{}, len(before))
	for _, id := range before {
		beforeSet[id] = struct{}{}
	}
	afterSet := make(map[ident.ID]struct{}, len(after))
	for _, id := range after {
		afterSet[id] = struct{}{}
	}
	for id := range afterSet {
		if _, ok := beforeSet[id]; !ok {
			added = append(added, id)
		}
	}
	for id := range beforeSet {
		if _, ok := afterSet[id]; !ok {
			removed = append(removed, id)
		}
	}
	return added, removed
}

// validate runs the optional checks CommitChecked adds on top of Commit:
// every link target's variant must satisfy its slot's permitted-targets
// list, and no Seq slot may contain the Empty sentinel. Every violation
// found is returned together, not just the first.
func (cc *commitCtx) validate() []error {
	var errs []error
	for id, n := range cc.stage {
		desc, ok := cc.g.reg.Descriptor(n.Variant)
		if !ok {
			continue
		}
		for _, slot := range desc.Slots {
			for pos, target := range IterTargets(n, slot) {
				if slot.Kind == Seq && target.IsEmpty() {
					errs = append(errs, &ErrEmptyInSequence{Node: id, Slot: slot.Name, Pos: pos})
					continue
				}
				if target.IsEmpty() {
					continue
				}
				targetNode, ok := cc.stage[target]
				if !ok {
					continue
				}
				if !cc.g.reg.permittedTargetsMatch(slot.PermittedTargets, targetNode.Variant) {
					errs = append(errs, &ErrLinkTypeViolation{
						Node: id, Slot: slot.Name, Target: target,
						TargetVariant: targetNode.Variant, Permitted: slot.PermittedTargets,
					})
				}
			}
		}
	}
	return errs
}

// install atomically replaces the live arena with the staged result. It
// is the only place Graph's partitions/order/groupNodes/variantOf are
// mutated during a commit, and it only runs after every earlier phase has
// succeeded.
func (cc *commitCtx) install() {
	g := cc.g
	prevOrder := g.order
	g.partitions = make(map[VariantTag]map[ident.ID]*Node)
	g.order = make(map[VariantTag][]ident.ID)
	g.groupNodes = make(map[string]map[ident.ID]struct{})
	g.variantOf = make(map[ident.ID]VariantTag)

	// Nodes that were already live keep their place in their variant's
	// insertion order; nodes new to the arena follow, in identifier order.
	for _, prev := range prevOrder {
		for _, id := range prev {
			if n, ok := cc.stage[id]; ok {
				g.install(n)
			}
		}
	}
	ids := make([]ident.ID, 0, len(cc.stage))
	for id := range cc.stage {
		if _, done := g.variantOf[id]; !done {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Compare(ids[j]) < 0 })
	for _, id := range ids {
		g.install(cc.stage[id])
	}
}

// fingerprint hashes a deterministic summary of the applied change
// (insert/update/remove/link counts and the sorted set of ids the
// transaction's operations touched, redirect sources and targets included)
// so that two distinct commits on the same graph essentially never share
// a value by accident, while leaving the hash stable under iteration
// order.
func (cc *commitCtx) fingerprint(ops []operation) uint64 {
	touched := make(map[ident.ID]struct{})
	for _, op := range ops {
		if op.kind == opRedirect {
			for old, new := range op.pairs {
				touched[old] = struct{}{}
				touched[new] = struct{}{}
			}
			continue
		}
		touched[op.id] = struct{}{}
	}
	ids := make([]ident.ID, 0, len(touched))
	for id := range touched {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Compare(ids[j]) < 0 })

	h := xxhash.New()
	fmt.Fprintf(h, "i=%d u=%d r=%d l=%d b=%d",
		cc.report.NodesInserted, cc.report.NodesUpdated, cc.report.NodesRemoved,
		cc.report.LinksChanged, cc.report.BidirectionalEdgesSynced)
	for _, id := range ids {
		fmt.Fprintf(h, ";%s", id)
	}
	return h.Sum64()
}
