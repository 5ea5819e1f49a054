// Package graph is the core of ttgraph: a strongly typed, transactional,
// in-memory graph container intended as an intermediate-representation store
// for compilers and similar tools.
//
// The package covers the node arena with stable identities, the per-node
// link reflection describing each outgoing reference slot, the transaction
// buffer, and the commit algorithm that orders staged operations, maintains
// bidirectional links, validates type constraints, and atomically applies
// the resulting delta.
package graph

import (
	"fmt"

	"github.com/ttgraph/ttgraph/pkg/ident"
)

// VariantTag names a node variant (the tag of the tagged sum a Node is an
// instance of). Reflection descriptors are registered per VariantTag.
type VariantTag string

// SlotKind discriminates the structural shape of a link slot.
type SlotKind int

const (
	// Point slots hold zero or one target identifier.
	Point SlotKind = iota
	// Seq slots hold an ordered, possibly-repeating sequence of targets.
	Seq
	// USet slots hold an unordered set of unique targets.
	USet
	// OSet slots hold a set of unique targets, ordered by identifier.
	OSet
)

func (k SlotKind) String() string {
	switch k {
	case Point:
		return "point"
	case Seq:
		return "seq"
	case USet:
		return "uset"
	case OSet:
		return "oset"
	default:
		return fmt.Sprintf("SlotKind(%d)", int(k))
	}
}

// SlotDescriptor describes one outgoing link slot of a node variant.
//
// PermittedTargets is a set of variant tags or node-group tags a link held
// in this slot may point to; an empty slice means "any". Groups is the set
// of link-group tags this slot belongs to, used by group-filtered queries
// (Node.IterLinksInGroup).
type SlotDescriptor struct {
	Name             string
	Kind             SlotKind
	PermittedTargets []string
	Groups           []string
}

// FieldDescriptor describes one opaque, by-name data field of a node
// variant. Type is a name the producer and consumer of the field agree on;
// the core never interprets it beyond a checked comparison in DataByName.
type FieldDescriptor struct {
	Name string
	Type string
}

// Descriptor is the per-variant reflection table: an ordered list of link
// slots, an ordered list of data fields, and the node-groups this variant
// belongs to. Descriptors are produced once per node-variant schema by a
// collaborator outside this package (conventionally generated code) and are
// treated as read-only static data by the core.
type Descriptor struct {
	Variant VariantTag
	Slots   []SlotDescriptor
	Fields  []FieldDescriptor
	Groups  []string
}

// Slot returns the slot descriptor named name, if any.
func (d *Descriptor) Slot(name string) (SlotDescriptor, bool) {
	for _, s := range d.Slots {
		if s.Name == name {
			return s, true
		}
	}
	return SlotDescriptor{}, false
}

// BidirectionalPair declares a symmetric relation between two slots: an
// identifier x held in a VariantA node's SlotA slot must also find that
// node reflected back in x's VariantB node's SlotB slot, and vice versa.
// Sequence slots may not participate as either endpoint (§4.2).
type BidirectionalPair struct {
	VariantA VariantTag
	SlotA    string
	VariantB VariantTag
	SlotB    string
}

// LinkValue holds the live payload of one link slot on one node. Kind
// determines which of the fields is meaningful; operations in links.go
// dispatch on Kind rather than probing which field is populated.
type LinkValue struct {
	Kind  SlotKind
	Point ident.ID
	Seq   []ident.ID
	Set   map[ident.ID]struct{}
	OSet  []ident.ID
}

func newLinkValue(kind SlotKind) *LinkValue {
	lv := &LinkValue{Kind: kind}
	switch kind {
	case USet:
		lv.Set = make(map[ident.ID]struct{})
	}
	return lv
}

// Node is a tagged value: a variant tag plus a variant-specific payload
// composed of link slots (identifier references, classified by
// SlotDescriptor.Kind) and data fields (opaque payload, fetched by name).
type Node struct {
	ID      ident.ID
	Variant VariantTag
	Links   map[string]*LinkValue
	Fields  map[string]any
}

// NewNode constructs an empty node of the given variant with one LinkValue
// per slot the Registry declares for that variant, ready to be populated
// before Transaction.Insert or Transaction.FillBack.
func NewNode(reg *Registry, variant VariantTag) (*Node, error) {
	desc, ok := reg.Descriptor(variant)
	if !ok {
		return nil, fmt.Errorf("graph: unknown variant %q", variant)
	}
	n := &Node{
		Variant: variant,
		Links:   make(map[string]*LinkValue, len(desc.Slots)),
		Fields:  make(map[string]any),
	}
	for _, s := range desc.Slots {
		n.Links[s.Name] = newLinkValue(s.Kind)
	}
	return n, nil
}

// clone returns a deep copy of n, safe to mutate independently of the
// original (the arena and the commit engine's staging area never share
// Node pointers with each other or with caller-supplied nodes).
func (n *Node) clone() *Node {
	c := &Node{
		ID:      n.ID,
		Variant: n.Variant,
		Links:   make(map[string]*LinkValue, len(n.Links)),
		Fields:  make(map[string]any, len(n.Fields)),
	}
	for name, lv := range n.Links {
		nlv := &LinkValue{Kind: lv.Kind, Point: lv.Point}
		if lv.Seq != nil {
			nlv.Seq = append([]ident.ID(nil), lv.Seq...)
		}
		if lv.Set != nil {
			nlv.Set = make(map[ident.ID]struct{}, len(lv.Set))
			for id := range lv.Set {
				nlv.Set[id] = struct{}{}
			}
		}
		if lv.OSet != nil {
			nlv.OSet = append([]ident.ID(nil), lv.OSet...)
		}
		c.Links[name] = nlv
	}
	for k, v := range n.Fields {
		c.Fields[k] = v
	}
	return c
}

// SetField sets a data field by name.
func (n *Node) SetField(name string, value any) {
	if n.Fields == nil {
		n.Fields = make(map[string]any)
	}
	n.Fields[name] = value
}

// DataByName fetches a data field by name as type T. It does a name lookup
// followed by a checked type assertion; no general downcast is performed.
// The second return is false if the field is absent or holds a different
// type.
func DataByName[T any](n *Node, name string) (T, bool) {
	var zero T
	raw, ok := n.Fields[name]
	if !ok {
		return zero, false
	}
	v, ok := raw.(T)
	if !ok {
		return zero, false
	}
	return v, true
}
