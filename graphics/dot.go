// Package graphics renders code trees as Graphviz DOT for external viewers.
package graphics

import (
	"bufio"
	"fmt"
	"io"

	"github.com/KitchenMishap/pudding-prefixcode/huffman"
)

const (
	zeroEdgeColour = "red"
	oneEdgeColour  = "green"
)

// WriteDOT writes root as a directed graph. Leaves show symbol and count, internal nodes their
// count, and edges their bit. A nil tree gives an empty graph.
func WriteDOT(w io.Writer, root huffman.Node) error {
	if root != nil && !huffman.IsWellFormedTree(root) {
		return huffman.ErrInvalidTree
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "digraph huffman {")
	fmt.Fprintln(bw, "\trankdir=TB;")
	fmt.Fprintln(bw, "\tnode [shape=circle, style=filled, fontname=\"Arial\"];")

	type pending struct {
		node   huffman.Node
		parent int // -1 for the root
		bit    uint8
	}
	stack := []pending{}
	if root != nil {
		stack = append(stack, pending{node: root, parent: -1})
	}
	nextID := 0
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		id := nextID
		nextID++

		switch n := top.node.(type) {
		case *huffman.Leaf:
			fmt.Fprintf(bw, "\tn%d [label=\"%s\\n(%d)\", fillcolor=lightblue];\n", id, escape(n.Symbol), n.Count)
		case *huffman.Internal:
			fmt.Fprintf(bw, "\tn%d [label=\"%d\", fillcolor=lightgray];\n", id, n.Count)
			stack = append(stack,
				pending{node: n.Right, parent: id, bit: 1},
				pending{node: n.Left, parent: id, bit: 0})
		default:
			return fmt.Errorf("graphics: unknown node type %T", top.node)
		}

		if top.parent >= 0 {
			colour := zeroEdgeColour
			if top.bit == 1 {
				colour = oneEdgeColour
			}
			fmt.Fprintf(bw, "\tn%d -> n%d [label=\"%d\", color=%s];\n", top.parent, id, top.bit, colour)
		}
	}
	fmt.Fprintln(bw, "}")
	return bw.Flush()
}

// escape makes a symbol safe inside a quoted DOT label.
func escape(s huffman.Symbol) string {
	switch r := rune(s); r {
	case '"':
		return `\"`
	case '\\':
		return `\\`
	case '\n':
		return `\\n`
	case '\t':
		return `\\t`
	case '\r':
		return `\\r`
	case ' ':
		return "␣"
	case '␣':
		return "U+2423"
	default:
		if r < 0x20 || r == 0x7f {
			return fmt.Sprintf("U+%04X", r)
		}
		return string(r)
	}
}
