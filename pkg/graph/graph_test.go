package graph

import (
	"testing"

	"github.com/ttgraph/ttgraph/pkg/ident"
)

func TestGetReturnsIndependentCopy(t *testing.T) {
	ctx := ident.New()
	reg := newTestRegistry()
	g := New(reg)

	tx := NewTransaction(ctx)
	a := mustNode(reg, variantA)
	a.SetField("name", "original")
	id := tx.Insert(a)
	if _, err := g.Commit(tx); err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	got, _ := g.Get(id)
	got.SetField("name", "mutated-by-caller")

	again, _ := g.Get(id)
	if name, _ := DataByName[string](again, "name"); name != "original" {
		t.Errorf("graph state leaked caller mutation: name = %q, want %q", name, "original")
	}
}

func TestGetUnknownIDReturnsFalse(t *testing.T) {
	reg := newTestRegistry()
	g := New(reg)
	ctx := ident.New()

	if _, ok := g.Get(ctx.NewID()); ok {
		t.Error("expected Get on an unknown id to return false")
	}
}

func TestLenReflectsInsertsAndRemovals(t *testing.T) {
	ctx := ident.New()
	reg := newTestRegistry()
	g := New(reg)

	tx := NewTransaction(ctx)
	id1 := tx.Insert(mustNode(reg, variantA))
	tx.Insert(mustNode(reg, variantA))
	if _, err := g.Commit(tx); err != nil {
		t.Fatalf("commit failed: %v", err)
	}
	if g.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", g.Len())
	}

	tx2 := NewTransaction(ctx)
	tx2.Remove(id1)
	if _, err := g.Commit(tx2); err != nil {
		t.Fatalf("remove commit failed: %v", err)
	}
	if g.Len() != 1 {
		t.Errorf("Len() = %d, want 1 after removal", g.Len())
	}
}
