package graph

import (
	"testing"

	"github.com/ttgraph/ttgraph/pkg/ident"
)

func TestTransactionInsertAndCommit(t *testing.T) {
	ctx := ident.New()
	reg := newTestRegistry()
	g := New(reg)

	tx := NewTransaction(ctx)
	a := mustNode(reg, variantA)
	a.SetField("name", "alice")
	id := tx.Insert(a)

	report, err := g.Commit(tx)
	if err != nil {
		t.Fatalf("commit failed: %v", err)
	}
	if report.NodesInserted != 1 {
		t.Errorf("NodesInserted = %d, want 1", report.NodesInserted)
	}

	got, ok := g.Get(id)
	if !ok {
		t.Fatalf("node %s not found after commit", id)
	}
	if name, _ := DataByName[string](got, "name"); name != "alice" {
		t.Errorf("name = %q, want %q", name, "alice")
	}
}

func TestTransactionSingleUse(t *testing.T) {
	ctx := ident.New()
	reg := newTestRegistry()
	g := New(reg)

	tx := NewTransaction(ctx)
	tx.Insert(mustNode(reg, variantA))
	if _, err := g.Commit(tx); err != nil {
		t.Fatalf("commit failed: %v", err)
	}
	if tx.IsActive() {
		t.Error("transaction should be consumed after commit")
	}
}

func TestAllocFillBackRoundTrip(t *testing.T) {
	ctx := ident.New()
	reg := newTestRegistry()
	g := New(reg)

	tx := NewTransaction(ctx)
	allocA := tx.Alloc(variantA)
	allocB := tx.Alloc(variantB)

	a := mustNode(reg, variantA)
	_ = AddTarget(a, SlotDescriptor{Name: "x", Kind: Point}, allocB)
	tx.FillBack(allocA, a)

	b := mustNode(reg, variantB)
	_ = AddTarget(b, SlotDescriptor{Name: "owner", Kind: Point}, allocA)
	tx.FillBack(allocB, b)

	if _, err := g.Commit(tx); err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	gotA, _ := g.Get(allocA)
	if gotA.Links["x"].Point != allocB {
		t.Errorf("a.x = %s, want %s", gotA.Links["x"].Point, allocB)
	}
	gotB, _ := g.Get(allocB)
	if gotB.Links["owner"].Point != allocA {
		t.Errorf("b.owner = %s, want %s", gotB.Links["owner"].Point, allocA)
	}
}

func TestUnfilledAllocFailsCommit(t *testing.T) {
	ctx := ident.New()
	reg := newTestRegistry()
	g := New(reg)

	tx := NewTransaction(ctx)
	tx.Alloc(variantA)

	_, err := g.Commit(tx)
	if err == nil {
		t.Fatal("expected commit to fail on unfilled alloc")
	}
	ce, ok := err.(*CommitError)
	if !ok {
		t.Fatalf("expected *CommitError, got %T", err)
	}
	if _, ok := ce.Err.(*ErrUnfilledAlloc); !ok {
		t.Errorf("expected ErrUnfilledAlloc, got %T", ce.Err)
	}
	if g.Len() != 0 {
		t.Errorf("graph should be untouched after failed commit, has %d nodes", g.Len())
	}
}

func TestMergeConsumesOtherTransaction(t *testing.T) {
	ctx := ident.New()
	reg := newTestRegistry()
	g := New(reg)

	main := NewTransaction(ctx)
	frag := NewTransaction(ctx)
	frag.Insert(mustNode(reg, variantA))

	if err := main.Merge(frag); err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	if frag.IsActive() {
		t.Error("merged transaction should be consumed")
	}

	report, err := g.Commit(main)
	if err != nil {
		t.Fatalf("commit failed: %v", err)
	}
	if report.NodesInserted != 1 {
		t.Errorf("NodesInserted = %d, want 1", report.NodesInserted)
	}
}
