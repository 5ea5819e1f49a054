package graph

// Two toy variants used across pkg/graph tests: A has a point slot "x" and
// an ordered-set slot "items"; B has a point slot "owner" and an
// unordered-set slot "peers".
const (
	variantA VariantTag = "A"
	variantB VariantTag = "B"
)

func newTestRegistry() *Registry {
	reg := NewRegistry()
	_ = reg.Register(&Descriptor{
		Variant: variantA,
		Slots: []SlotDescriptor{
			{Name: "x", Kind: Point, PermittedTargets: []string{"B"}},
			{Name: "items", Kind: OSet},
			{Name: "seq", Kind: Seq},
		},
		Fields: []FieldDescriptor{{Name: "name", Type: "string"}},
	})
	_ = reg.Register(&Descriptor{
		Variant: variantB,
		Slots: []SlotDescriptor{
			{Name: "owner", Kind: Point},
			{Name: "peers", Kind: USet},
		},
		Fields: []FieldDescriptor{{Name: "name", Type: "string"}},
	})
	return reg
}

func mustNode(reg *Registry, variant VariantTag) *Node {
	n, err := NewNode(reg, variant)
	if err != nil {
		panic(err)
	}
	return n
}
