package huffman

// IsWellFormedTree reports whether root is a usable code tree: non-nil, every internal node has
// two children and carries their summed frequency, every frequency is positive, and no symbol
// appears on more than one leaf. A node reachable twice, as in a cycle, is rejected.
func IsWellFormedTree(root Node) bool {
	if isNil(root) {
		return false
	}
	seen := make(map[Symbol]bool)
	visited := make(map[Node]bool)
	stack := []Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[n] {
			return false
		}
		visited[n] = true

		switch v := n.(type) {
		case *Leaf:
			if v == nil || v.Count <= 0 || seen[v.Symbol] {
				return false
			}
			seen[v.Symbol] = true
		case *Internal:
			if v == nil || v.Count <= 0 || isNil(v.Left) || isNil(v.Right) {
				return false
			}
			if v.Left.Freq()+v.Right.Freq() != v.Count {
				return false
			}
			stack = append(stack, v.Right, v.Left)
		default:
			return false
		}
	}
	return true
}

// IsPrefixFree compares every pair of codes. Empty codes are never valid.
func IsPrefixFree(table CodeTable) bool {
	codes := make([]Bits, 0, len(table))
	for _, s := range table.Symbols() {
		code := table[s]
		if len(code) == 0 {
			return false
		}
		codes = append(codes, code)
	}
	for i := 0; i < len(codes); i++ {
		for j := i + 1; j < len(codes); j++ {
			if codes[i].HasPrefix(codes[j]) || codes[j].HasPrefix(codes[i]) {
				return false
			}
		}
	}
	return true
}

func CoversAllSymbols(table CodeTable, symbols []Symbol) bool {
	for _, s := range symbols {
		if _, ok := table[s]; !ok {
			return false
		}
	}
	return true
}
