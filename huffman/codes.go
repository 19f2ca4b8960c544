package huffman

import (
	"fmt"
	"sort"
)

// CodeTable maps each symbol to its code, the left(0)/right(1) path to its leaf.
type CodeTable map[Symbol]Bits

// GenerateCodes derives the code table by walking the tree. A lone leaf has no branch to follow,
// so it gets the one-bit code "0". Structurally broken trees fail with ErrInvalidTree.
func GenerateCodes(root Node) (CodeTable, error) {
	if !IsWellFormedTree(root) {
		return nil, ErrInvalidTree
	}

	table := make(CodeTable)
	if leaf, ok := root.(*Leaf); ok {
		table[leaf.Symbol] = Bits{0}
		return table, nil
	}
	Walk(root, func(n Node, path Bits) {
		if leaf, ok := n.(*Leaf); ok {
			table[leaf.Symbol] = path
		}
	})
	return table, nil
}

// Symbols returns the keys in ascending symbol order.
func (ct CodeTable) Symbols() []Symbol {
	keys := make([]Symbol, 0, len(ct))
	for s := range ct {
		keys = append(keys, s)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// EncodedLength is the sum of freq(s) * len(code(s)), i.e. the weighted path length.
func (ct CodeTable) EncodedLength(freqs FrequencyTable) (int64, error) {
	var total int64
	for s, f := range freqs {
		code, ok := ct[s]
		if !ok {
			return 0, fmt.Errorf("%w: %q", ErrMissingCode, rune(s))
		}
		total += f * int64(len(code))
	}
	return total, nil
}

// Encode concatenates the code of each symbol in input order.
func Encode(symbols []Symbol, table CodeTable) (Bits, error) {
	var n int
	for i, s := range symbols {
		code, ok := table[s]
		if !ok {
			return nil, fmt.Errorf("%w: %q at position %d", ErrMissingCode, rune(s), i)
		}
		n += len(code)
	}

	out := make(Bits, 0, n)
	for _, s := range symbols {
		out = append(out, table[s]...)
	}
	return out, nil
}

// Decode walks the tree one bit at a time, emitting a symbol at every leaf and restarting at the
// root. It fails with ErrMalformedInput on a value other than 0 or 1 and with ErrTruncatedStream
// if the bits run out between the root and a leaf.
//
// root must be the tree the bits were encoded with. A different tree is not detected here and
// silently yields other symbols; callers that move bits between processes must check the code
// book at that boundary (see package container).
func Decode(bits Bits, root Node) ([]Symbol, error) {
	out := make([]Symbol, 0)
	if len(bits) == 0 {
		return out, nil
	}
	if isNil(root) {
		return nil, ErrInvalidTree
	}

	if leaf, ok := root.(*Leaf); ok {
		for i, b := range bits {
			if b != 0 {
				return nil, fmt.Errorf("%w: bit %d is %d, single-symbol code is 0", ErrMalformedInput, i, b)
			}
			out = append(out, leaf.Symbol)
		}
		return out, nil
	}

	cur := root
	depth := 0
	for i, b := range bits {
		in, ok := cur.(*Internal)
		if !ok || in == nil {
			return nil, ErrInvalidTree
		}
		switch b {
		case 0:
			cur = in.Left
		case 1:
			cur = in.Right
		default:
			return nil, fmt.Errorf("%w: bit %d is %d", ErrMalformedInput, i, b)
		}
		depth++

		switch n := cur.(type) {
		case *Leaf:
			if n == nil {
				return nil, ErrInvalidTree
			}
			out = append(out, n.Symbol)
			cur = root
			depth = 0
		case *Internal:
			if n == nil {
				return nil, ErrInvalidTree
			}
		default:
			return nil, ErrInvalidTree
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("%w: %d bits into a code after %d symbols", ErrTruncatedStream, depth, len(out))
	}
	return out, nil
}
