package ident

import "testing"

func TestEmptyIsDistinguishedFromRealIDs(t *testing.T) {
	ctx := New()
	id := ctx.NewID()

	if id.IsEmpty() {
		t.Error("a freshly issued id should not be empty")
	}
	if !Empty().IsEmpty() {
		t.Error("Empty() should be empty")
	}
	if !ctx.Empty().IsEmpty() {
		t.Error("ctx.Empty() should be empty")
	}
	if id == Empty() {
		t.Error("a real id should never equal Empty()")
	}
}

func TestNewIDIsMonotonicAndUnique(t *testing.T) {
	ctx := New()
	seen := make(map[ID]bool)
	for i := 0; i < 1000; i++ {
		id := ctx.NewID()
		if seen[id] {
			t.Fatalf("id %s issued twice", id)
		}
		seen[id] = true
	}
}

func TestIndependentContextsDoNotCollide(t *testing.T) {
	a := New()
	b := New()

	idA := a.NewID()
	idB := b.NewID()
	if idA == idB {
		t.Error("ids from independent contexts should not collide")
	}
}

func TestCompareIsTotalOrder(t *testing.T) {
	ctx := New()
	x, y := ctx.NewID(), ctx.NewID()

	if x.Compare(x) != 0 {
		t.Error("an id should compare equal to itself")
	}
	if x.Compare(y) == y.Compare(x) && x.Compare(y) != 0 {
		t.Error("Compare should be antisymmetric for distinct ids")
	}
}

func TestStringRendersEmptyDistinctly(t *testing.T) {
	if Empty().String() != "<empty>" {
		t.Errorf("Empty().String() = %q, want %q", Empty().String(), "<empty>")
	}
	ctx := New()
	if s := ctx.NewID().String(); s == "<empty>" {
		t.Error("a real id should not render as <empty>")
	}
}
