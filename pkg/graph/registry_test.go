package graph

import "testing"

func TestAddBidirectionalRejectsSeqSlot(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Register(&Descriptor{
		Variant: "A",
		Slots:   []SlotDescriptor{{Name: "seq", Kind: Seq}},
	})
	_ = reg.Register(&Descriptor{
		Variant: "B",
		Slots:   []SlotDescriptor{{Name: "owner", Kind: Point}},
	})

	err := reg.AddBidirectional(BidirectionalPair{
		VariantA: "A", SlotA: "seq",
		VariantB: "B", SlotB: "owner",
	})
	if err == nil {
		t.Fatal("expected sequence slot to be rejected as a bidirectional endpoint")
	}
}

func TestAddBidirectionalRejectsUnknownVariant(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Register(&Descriptor{Variant: "A", Slots: []SlotDescriptor{{Name: "x", Kind: Point}}})

	err := reg.AddBidirectional(BidirectionalPair{
		VariantA: "A", SlotA: "x",
		VariantB: "Ghost", SlotB: "owner",
	})
	if err == nil {
		t.Fatal("expected unknown variant to be rejected")
	}
}

func TestPermittedTargetsMatchExpandsGroups(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Register(&Descriptor{Variant: "Literal", Groups: []string{"expr"}})
	_ = reg.Register(&Descriptor{Variant: "BinOp", Groups: []string{"expr"}})
	_ = reg.Register(&Descriptor{Variant: "Stmt"})

	if !reg.permittedTargetsMatch([]string{"expr"}, "Literal") {
		t.Error("Literal should satisfy permitted group expr")
	}
	if !reg.permittedTargetsMatch([]string{"expr"}, "BinOp") {
		t.Error("BinOp should satisfy permitted group expr")
	}
	if reg.permittedTargetsMatch([]string{"expr"}, "Stmt") {
		t.Error("Stmt should not satisfy permitted group expr")
	}
	if !reg.permittedTargetsMatch(nil, "Stmt") {
		t.Error("an empty permitted-targets list should match anything")
	}
}

func TestInGroupReflectsRegisteredGroups(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Register(&Descriptor{Variant: "Literal", Groups: []string{"expr", "leaf"}})

	if !reg.InGroup("Literal", "expr") {
		t.Error("Literal should be in group expr")
	}
	if !reg.InGroup("Literal", "leaf") {
		t.Error("Literal should be in group leaf")
	}
	if reg.InGroup("Literal", "stmt") {
		t.Error("Literal should not be in group stmt")
	}
}
