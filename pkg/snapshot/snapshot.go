// Package snapshot serializes a Graph to and from a byte stream, and
// optionally caches those blobs on disk using Badger. Snapshots are an
// external serialization collaborator, not a durability layer: a Graph
// never reads from or blocks on disk during normal operation, and nothing
// here makes Commit/CommitChecked durable.
package snapshot

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/ttgraph/ttgraph/pkg/graph"
	"github.com/ttgraph/ttgraph/pkg/ident"
)

func init() {
	// gob requires every concrete type that will ever be stored in an
	// interface{} (Node.Fields' value type) to be registered up front.
	// These cover the field types the core itself exercises in tests and
	// the demo scenarios; a consumer storing other field types must
	// gob.Register them itself before calling Export.
	gob.Register("")
	gob.Register(int(0))
	gob.Register(int64(0))
	gob.Register(float64(0))
	gob.Register(false)
	gob.Register([]string(nil))
}

// wireNode is the gob-friendly projection of graph.Node: LinkValue's Set
// field is a map, which gob handles fine, but we still go through an
// explicit wire type so the on-disk format does not silently change shape
// if graph.Node ever gains unexported bookkeeping fields.
type wireNode struct {
	ID      ident.ID
	Variant graph.VariantTag
	Links   map[string]wireLink
	Fields  map[string]any
}

type wireLink struct {
	Kind  graph.SlotKind
	Point ident.ID
	Seq   []ident.ID
	Set   []ident.ID
	OSet  []ident.ID
}

// Export serializes every live node of g, identifiers included, into a
// byte stream. Import rebuilds from it a Graph with the same variants,
// fields and link structure; the nodes get fresh identifiers from the
// Context passed to Import, not the identifiers stored in the stream.
func Export(g *graph.Graph) ([]byte, error) {
	var nodes []wireNode
	for n := range g.All() {
		nodes = append(nodes, toWire(n))
	}

	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(nodes); err != nil {
		return nil, fmt.Errorf("snapshot: encoding: %w", err)
	}
	return buf.Bytes(), nil
}

// Import decodes a byte stream produced by Export and inserts every node
// it describes into g via a single transaction built against ctx.
//
// Import does not keep the identifiers a snapshot was Exported with: it
// allocates a fresh id per node under ctx and rewrites every link to use
// the new ids, via the alloc/fill-back mechanism the core provides for
// forward-reference construction.
//
// Import does not create variants or bidirectional pairs: g must already
// be constructed with a Registry describing every variant the snapshot
// references.
func Import(g *graph.Graph, ctx *ident.Context, data []byte) (*graph.CommitReport, error) {
	var nodes []wireNode
	dec := gob.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&nodes); err != nil {
		return nil, fmt.Errorf("snapshot: decoding: %w", err)
	}

	tx := graph.NewTransaction(ctx)
	remap := make(map[ident.ID]ident.ID, len(nodes))
	for _, wn := range nodes {
		remap[wn.ID] = tx.Alloc(wn.Variant)
	}

	for _, wn := range nodes {
		n, err := graph.NewNode(g.Registry(), wn.Variant)
		if err != nil {
			return nil, fmt.Errorf("snapshot: %w", err)
		}
		fromWire(n, wn, remap)
		tx.FillBack(remap[wn.ID], n)
	}
	return g.Commit(tx)
}

func toWire(n *graph.Node) wireNode {
	wn := wireNode{ID: n.ID, Variant: n.Variant, Links: make(map[string]wireLink, len(n.Links)), Fields: n.Fields}
	for name, lv := range n.Links {
		wl := wireLink{Kind: lv.Kind, Point: lv.Point}
		if lv.Seq != nil {
			wl.Seq = append([]ident.ID(nil), lv.Seq...)
		}
		if lv.Set != nil {
			for id := range lv.Set {
				wl.Set = append(wl.Set, id)
			}
		}
		if lv.OSet != nil {
			wl.OSet = append([]ident.ID(nil), lv.OSet...)
		}
		wn.Links[name] = wl
	}
	return wn
}

func fromWire(n *graph.Node, wn wireNode, remap map[ident.ID]ident.ID) {
	for k, v := range wn.Fields {
		n.SetField(k, v)
	}
	remapOne := func(id ident.ID) ident.ID {
		if id.IsEmpty() {
			return id
		}
		if new, ok := remap[id]; ok {
			return new
		}
		return id
	}
	for name, wl := range wn.Links {
		lv, ok := n.Links[name]
		if !ok {
			continue
		}
		lv.Point = remapOne(wl.Point)
		for _, id := range wl.Seq {
			lv.Seq = append(lv.Seq, remapOne(id))
		}
		for _, id := range wl.Set {
			if lv.Set == nil {
				lv.Set = make(map[ident.ID]struct{})
			}
			lv.Set[remapOne(id)] = struct{}{}
		}
		for _, id := range wl.OSet {
			lv.OSet = append(lv.OSet, remapOne(id))
		}
	}
}
