package graph

import (
	"testing"

	"github.com/ttgraph/ttgraph/pkg/ident"
)

func TestAllIteratesEveryNode(t *testing.T) {
	ctx := ident.New()
	reg := newTestRegistry()
	g := New(reg)

	tx := NewTransaction(ctx)
	tx.Insert(mustNode(reg, variantA))
	tx.Insert(mustNode(reg, variantB))
	tx.Insert(mustNode(reg, variantB))
	if _, err := g.Commit(tx); err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	count := 0
	for range g.All() {
		count++
	}
	if count != 3 {
		t.Errorf("All() yielded %d nodes, want 3", count)
	}
}

func TestIterVariantFiltersByVariant(t *testing.T) {
	ctx := ident.New()
	reg := newTestRegistry()
	g := New(reg)

	tx := NewTransaction(ctx)
	tx.Insert(mustNode(reg, variantA))
	tx.Insert(mustNode(reg, variantB))
	tx.Insert(mustNode(reg, variantB))
	if _, err := g.Commit(tx); err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	count := 0
	for n := range g.IterVariant(variantB) {
		if n.Variant != variantB {
			t.Errorf("got variant %s, want %s", n.Variant, variantB)
		}
		count++
	}
	if count != 2 {
		t.Errorf("IterVariant(B) yielded %d nodes, want 2", count)
	}
}

func TestIterGroupFiltersByGroup(t *testing.T) {
	ctx := ident.New()
	reg := NewRegistry()
	_ = reg.Register(&Descriptor{Variant: "X", Groups: []string{"compiled"}})
	_ = reg.Register(&Descriptor{Variant: "Y"})
	g := New(reg)

	tx := NewTransaction(ctx)
	tx.Insert(mustNode(reg, "X"))
	tx.Insert(mustNode(reg, "Y"))
	if _, err := g.Commit(tx); err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	count := 0
	for n := range g.IterGroup("compiled") {
		if n.Variant != "X" {
			t.Errorf("got variant %s in group compiled, want X", n.Variant)
		}
		count++
	}
	if count != 1 {
		t.Errorf("IterGroup(compiled) yielded %d nodes, want 1", count)
	}
}

func TestAllIterationStopsOnFalse(t *testing.T) {
	ctx := ident.New()
	reg := newTestRegistry()
	g := New(reg)

	tx := NewTransaction(ctx)
	for i := 0; i < 5; i++ {
		tx.Insert(mustNode(reg, variantA))
	}
	if _, err := g.Commit(tx); err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	count := 0
	for range g.All() {
		count++
		if count == 2 {
			break
		}
	}
	if count != 2 {
		t.Errorf("expected iteration to stop early at 2, got %d", count)
	}
}

func TestIterLinksYieldsEverySlotTarget(t *testing.T) {
	ctx := ident.New()
	reg := newTestRegistry()

	a := mustNode(reg, variantA)
	ids := []ident.ID{ctx.NewID(), ctx.NewID()}
	slotX, _ := reg.Slot(variantA, "x")
	slotItems, _ := reg.Slot(variantA, "items")
	_ = AddTarget(a, slotX, ids[0])
	_ = AddTarget(a, slotItems, ids[1])

	seen := map[string]int{}
	for slot := range a.IterLinks(reg, nil) {
		seen[slot]++
	}
	if seen["x"] != 1 || seen["items"] != 1 {
		t.Errorf("unexpected per-slot counts: %v", seen)
	}
}
