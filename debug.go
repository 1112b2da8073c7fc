// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package crhs

import (
	"bufio"
	"fmt"
	"io"
)

// WriteDOT renders every BDD currently in the SoC as a single GraphViz
// digraph, one cluster per BDD, for visual debugging. Grounded on the
// teacher's PrintDot/print_dot (stdio.go): a dotted edge for the low
// (0) branch, a filled edge for the high (1) branch, no edge drawn for
// noEdge, and a single boxed, filled sink per BDD.
func (s *System) WriteDOT(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "digraph G {")
	for _, id := range s.order {
		s.bdds[id].writeDOT(bw)
	}
	fmt.Fprintln(bw, "}")
	return bw.Flush()
}

// writeDOT emits b's nodes and edges into a "cluster_<id>" subgraph,
// labelling each non-sink node with its level's lhs.
func (b *bdd) writeDOT(w *bufio.Writer) {
	fmt.Fprintf(w, "subgraph cluster_%d {\n", b.id)
	fmt.Fprintf(w, "label=%q;\n", b.String())

	sink := b.terminal().ids()[0]
	fmt.Fprintf(w, "%s [shape=box, label=\"1\", style=filled, height=0.3, width=0.3];\n", dotNodeName(b.id, sink))

	for li := 0; li < b.depth(); li++ {
		lv := b.levels[li]
		for _, id := range lv.ids() {
			n := lv.nodes[id]
			fmt.Fprintf(w, "%s %s\n", dotNodeName(b.id, id), dotLabel(id, li, lv.lhs.String()))
			if n.low != noEdge {
				fmt.Fprintf(w, "%s -> %s [style=dotted];\n", dotNodeName(b.id, id), dotNodeName(b.id, n.low))
			}
			if n.high != noEdge {
				fmt.Fprintf(w, "%s -> %s [style=filled];\n", dotNodeName(b.id, id), dotNodeName(b.id, n.high))
			}
		}
	}
	fmt.Fprintln(w, "}")
}

// dotNodeName namespaces a node id by its owning BDD so that several
// BDDs can share one digraph without their arenas' ids colliding.
func dotNodeName(bddID int, id nodeID) string {
	return fmt.Sprintf("b%d_n%d", bddID, id)
}

func dotLabel(id nodeID, level int, lhs string) string {
	return fmt.Sprintf(`[label=<
	<FONT POINT-SIZE="20">%d</FONT>
	<FONT POINT-SIZE="10">[%d] %s</FONT>
>];`, id, level, lhs)
}
