package huffman

import (
	"container/heap"
	"fmt"
)

// Node is either a *Leaf or an *Internal.
type Node interface {
	Freq() int64
	node()
}

type Leaf struct {
	Symbol Symbol
	Count  int64 // How often the symbol appeared
}

type Internal struct {
	Count       int64 // Sum of both children
	Left, Right Node
}

func (l *Leaf) Freq() int64     { return l.Count }
func (n *Internal) Freq() int64 { return n.Count }
func (*Leaf) node()             {}
func (*Internal) node()         {}

// queued pairs a node with its tie-break key.
type queued struct {
	node  Node
	order int
}

// PriorityQueue pops the lowest frequency first. Equal frequencies pop in ascending order key.
type PriorityQueue []queued

func (pq PriorityQueue) Len() int { return len(pq) }
func (pq PriorityQueue) Less(i, j int) bool {
	fi, fj := pq[i].node.Freq(), pq[j].node.Freq()
	if fi != fj {
		return fi < fj
	}
	return pq[i].order < pq[j].order
}
func (pq PriorityQueue) Swap(i, j int)       { pq[i], pq[j] = pq[j], pq[i] }
func (pq *PriorityQueue) Push(x interface{}) { *pq = append(*pq, x.(queued)) }
func (pq *PriorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[0 : n-1]
	return item
}

// BuildTree merges the two lightest nodes until one root remains.
//
// Ties are broken by an order key: leaves are keyed 0..N-1 by ascending symbol, and each merged
// node takes the next unused key, so on equal frequency older nodes are taken first. The first
// node removed becomes the left child. The same table therefore always yields the same tree.
//
// An empty table yields a nil tree and no error. A table with a single symbol yields a lone *Leaf.
func BuildTree(freqs FrequencyTable) (Node, error) {
	if len(freqs) == 0 {
		return nil, nil
	}

	symbols := freqs.Symbols()
	pq := make(PriorityQueue, 0, len(symbols))
	for i, s := range symbols {
		count := freqs[s]
		if count <= 0 {
			return nil, fmt.Errorf("%w: symbol %q has count %d", ErrInvalidFrequency, rune(s), count)
		}
		pq = append(pq, queued{node: &Leaf{Symbol: s, Count: count}, order: i})
	}
	heap.Init(&pq)

	nextOrder := len(pq)
	for pq.Len() > 1 {
		left := heap.Pop(&pq).(queued)
		right := heap.Pop(&pq).(queued)

		parent := &Internal{
			Count: left.node.Freq() + right.node.Freq(),
			Left:  left.node,
			Right: right.node,
		}
		heap.Push(&pq, queued{node: parent, order: nextOrder})
		nextOrder++
	}
	return heap.Pop(&pq).(queued).node, nil
}

// Walk visits every node in pre-order, left before right, handing over the 0/1 path from the root.
// It uses an explicit stack, so skewed trees do not grow the call stack. Nil children are skipped.
func Walk(root Node, visit func(n Node, path Bits)) {
	type frame struct {
		node Node
		path Bits
	}
	if isNil(root) {
		return
	}
	stack := []frame{{root, Bits{}}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		visit(top.node, top.path)

		if in, ok := top.node.(*Internal); ok {
			// Right first so that left is popped first
			if !isNil(in.Right) {
				stack = append(stack, frame{in.Right, top.path.extend(1)})
			}
			if !isNil(in.Left) {
				stack = append(stack, frame{in.Left, top.path.extend(0)})
			}
		}
	}
}

// Shape counts leaves and internal nodes and reports the depth of the deepest leaf.
func Shape(root Node) (leaves, internals, depth int) {
	Walk(root, func(n Node, path Bits) {
		switch n.(type) {
		case *Leaf:
			leaves++
			if len(path) > depth {
				depth = len(path)
			}
		case *Internal:
			internals++
		}
	})
	return leaves, internals, depth
}

// isNil also catches typed nil pointers hiding in a Node interface.
func isNil(n Node) bool {
	switch v := n.(type) {
	case nil:
		return true
	case *Leaf:
		return v == nil
	case *Internal:
		return v == nil
	default:
		return false
	}
}
