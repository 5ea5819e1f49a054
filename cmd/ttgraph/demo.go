package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ttgraph/ttgraph/pkg/graph"
	"github.com/ttgraph/ttgraph/pkg/ident"
)

const (
	variantFunction graph.VariantTag = "Function"
	variantBlock    graph.VariantTag = "Block"
	variantInstr    graph.VariantTag = "Instruction"
)

// demoRegistryAndGraph builds the small three-variant IR shape the demo and
// import commands exercise: a Function owns an ordered set of Blocks,
// each Block has a bidirectional back-pointer to its owning Function and an
// ordered sequence of Instructions, and an Instruction may point at another
// Instruction it depends on.
func demoRegistryAndGraph() (*graph.Registry, *graph.Graph) {
	reg := graph.NewRegistry()

	must(reg.Register(&graph.Descriptor{
		Variant: variantFunction,
		Slots: []graph.SlotDescriptor{
			{Name: "blocks", Kind: graph.OSet, PermittedTargets: []string{string(variantBlock)}},
		},
		Fields: []graph.FieldDescriptor{{Name: "name", Type: "string"}},
	}))
	must(reg.Register(&graph.Descriptor{
		Variant: variantBlock,
		Slots: []graph.SlotDescriptor{
			{Name: "owner", Kind: graph.Point, PermittedTargets: []string{string(variantFunction)}},
			{Name: "instructions", Kind: graph.Seq, PermittedTargets: []string{string(variantInstr)}},
		},
		Fields: []graph.FieldDescriptor{{Name: "label", Type: "string"}},
	}))
	must(reg.Register(&graph.Descriptor{
		Variant: variantInstr,
		Slots: []graph.SlotDescriptor{
			{Name: "dependsOn", Kind: graph.USet, PermittedTargets: []string{string(variantInstr)}},
		},
		Fields: []graph.FieldDescriptor{{Name: "op", Type: "string"}},
	}))

	must(reg.AddBidirectional(graph.BidirectionalPair{
		VariantA: variantBlock, SlotA: "owner",
		VariantB: variantFunction, SlotB: "blocks",
	}))

	return reg, graph.New(reg)
}

func newDemoContext() *ident.Context {
	return ident.New()
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// buildDemoGraph runs a representative transaction sequence against a fresh
// graph: inserting a function and two blocks, appending instructions,
// wiring an instruction dependency, and, if checked is true, committing
// with CommitChecked instead of Commit. It returns the graph's identity
// Context too, since every further Transaction against g must be built
// from the same Context that minted its existing ids.
func buildDemoGraph(checked bool) (*graph.Graph, *ident.Context, *graph.CommitReport) {
	reg, g := demoRegistryAndGraph()
	ctx := newDemoContext()

	tx := graph.NewTransaction(ctx)

	fn, err := graph.NewNode(reg, variantFunction)
	must(err)
	fn.SetField("name", "main")
	fnID := tx.Insert(fn)

	entry, err := graph.NewNode(reg, variantBlock)
	must(err)
	entry.SetField("label", "entry")
	entryID := tx.Insert(entry)

	exit, err := graph.NewNode(reg, variantBlock)
	must(err)
	exit.SetField("label", "exit")
	exitID := tx.Insert(exit)

	load, err := graph.NewNode(reg, variantInstr)
	must(err)
	load.SetField("op", "load")
	loadID := tx.Insert(load)

	ret, err := graph.NewNode(reg, variantInstr)
	must(err)
	ret.SetField("op", "ret")
	retID := tx.Insert(ret)

	// Wiring the function -> blocks set here also exercises the
	// bidirectional mirror: committing should populate each block's
	// "owner" point slot without an explicit add_link on that side.
	tx.AddLink(fnID, "blocks", entryID)
	tx.AddLink(fnID, "blocks", exitID)
	tx.AddLink(entryID, "instructions", loadID)
	tx.AddLink(exitID, "instructions", retID)
	tx.AddLink(retID, "dependsOn", loadID)

	var report *graph.CommitReport
	if checked {
		report, err = g.CommitChecked(tx)
	} else {
		report, err = g.Commit(tx)
	}
	must(err)
	return g, ctx, report
}

func runDemo(cmd *cobra.Command, args []string) error {
	checked, _ := cmd.Flags().GetBool("checked")

	g, ctx, report := buildDemoGraph(checked)
	reg := g.Registry()
	fmt.Println("scenario 1: build function/block/instruction graph")
	printReport(report)
	fmt.Println("  block->owner was populated by bidirectional maintenance, not an explicit add_link")

	var entryID, patchedBlockID, loadID ident.ID
	for n := range g.All() {
		if n.Variant == variantBlock {
			if label, _ := graph.DataByName[string](n, "label"); label == "entry" {
				entryID = n.ID
			}
		}
		if n.Variant == variantInstr {
			if op, _ := graph.DataByName[string](n, "op"); op == "load" {
				loadID = n.ID
			}
		}
	}

	fmt.Println("scenario 2: redirect the entry block onto a freshly inserted replacement")
	tx2 := graph.NewTransaction(ctx)
	patched, err := graph.NewNode(reg, variantBlock)
	must(err)
	patched.SetField("label", "entry-patched")
	patchedBlockID = tx2.Insert(patched)
	tx2.Redirect(entryID, patchedBlockID)
	report2, err := g.Commit(tx2)
	must(err)
	printReport(report2)
	fmt.Println("  function's block set now names the replacement instead of the original entry block")

	fmt.Println("scenario 3: removal redirects surviving references to the removed id")
	tx3 := graph.NewTransaction(ctx)
	tx3.Remove(loadID)
	report3, err := g.Commit(tx3)
	must(err)
	printReport(report3)
	fmt.Println("  the exit block's ret instruction no longer names the removed load instruction in dependsOn")

	return nil
}

func printReport(r *graph.CommitReport) {
	fmt.Printf("  inserted=%d updated=%d removed=%d links_changed=%d bidir_synced=%d fingerprint=%x\n",
		r.NodesInserted, r.NodesUpdated, r.NodesRemoved, r.LinksChanged, r.BidirectionalEdgesSynced, r.Fingerprint)
}
