package graph

import (
	"testing"

	"github.com/ttgraph/ttgraph/pkg/ident"
)

func TestAddTargetPointConflict(t *testing.T) {
	ctx := ident.New()
	reg := newTestRegistry()
	a := mustNode(reg, variantA)
	slot, _ := reg.Slot(variantA, "x")

	b1, b2 := ctx.NewID(), ctx.NewID()
	if err := AddTarget(a, slot, b1); err != nil {
		t.Fatalf("first AddTarget failed: %v", err)
	}
	if err := AddTarget(a, slot, b1); err != nil {
		t.Errorf("re-adding the same target should be a no-op, got: %v", err)
	}
	if err := AddTarget(a, slot, b2); err == nil {
		t.Fatal("expected a point conflict adding a second distinct target")
	}
}

func TestOSetStaysOrderedAndUnique(t *testing.T) {
	reg := newTestRegistry()
	a := mustNode(reg, variantA)
	slot, _ := reg.Slot(variantA, "items")
	ctx := ident.New()
	ids := []ident.ID{ctx.NewID(), ctx.NewID(), ctx.NewID()}

	// Insert out of id order, plus a duplicate, and expect a sorted,
	// deduplicated result.
	_ = AddTarget(a, slot, ids[2])
	_ = AddTarget(a, slot, ids[0])
	_ = AddTarget(a, slot, ids[2])
	_ = AddTarget(a, slot, ids[1])

	got := IterTargets(a, slot)
	if len(got) != 3 {
		t.Fatalf("len(items) = %d, want 3", len(got))
	}
	for i := 0; i < len(got)-1; i++ {
		if got[i].Compare(got[i+1]) >= 0 {
			t.Errorf("items not strictly ordered: %v", got)
		}
	}
}

func TestUSetIgnoresDuplicates(t *testing.T) {
	reg := newTestRegistry()
	b := mustNode(reg, variantB)
	slot, _ := reg.Slot(variantB, "peers")
	ctx := ident.New()
	p := ctx.NewID()

	_ = AddTarget(b, slot, p)
	_ = AddTarget(b, slot, p)

	if len(b.Links["peers"].Set) != 1 {
		t.Errorf("peers set has %d members, want 1", len(b.Links["peers"].Set))
	}
}

func TestRemoveTargetIsIdempotent(t *testing.T) {
	reg := newTestRegistry()
	a := mustNode(reg, variantA)
	slot, _ := reg.Slot(variantA, "items")
	ctx := ident.New()
	id := ctx.NewID()

	RemoveTarget(a, slot, id) // absent target, should not panic
	_ = AddTarget(a, slot, id)
	RemoveTarget(a, slot, id)
	RemoveTarget(a, slot, id)

	if len(IterTargets(a, slot)) != 0 {
		t.Errorf("expected items empty after removal, got %v", IterTargets(a, slot))
	}
}

func TestSubstituteMappedUSetDoesNotChain(t *testing.T) {
	reg := newTestRegistry()
	b := mustNode(reg, variantB)
	slot, _ := reg.Slot(variantB, "peers")
	ctx := ident.New()
	a, bb, c := ctx.NewID(), ctx.NewID(), ctx.NewID()

	_ = AddTarget(b, slot, a)
	substituteMapped(b, slot, map[ident.ID]ident.ID{a: bb, bb: c})

	if _, has := b.Links["peers"].Set[c]; has {
		t.Errorf("substituteMapped chained a->b->c; peers = %v, want {%s}", b.Links["peers"].Set, bb)
	}
	if _, has := b.Links["peers"].Set[bb]; !has {
		t.Errorf("peers should contain %s after a single substitution, got %v", bb, b.Links["peers"].Set)
	}
	if len(b.Links["peers"].Set) != 1 {
		t.Errorf("peers should have exactly one member, got %v", b.Links["peers"].Set)
	}
}

func TestSeqAllowsRepeats(t *testing.T) {
	reg := newTestRegistry()
	a := mustNode(reg, variantA)
	slot, _ := reg.Slot(variantA, "seq")
	ctx := ident.New()
	id := ctx.NewID()

	_ = AddTarget(a, slot, id)
	_ = AddTarget(a, slot, id)

	if len(a.Links["seq"].Seq) != 2 {
		t.Errorf("seq len = %d, want 2 (sequences allow repeats)", len(a.Links["seq"].Seq))
	}
}
