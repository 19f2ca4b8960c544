package huffman

import "fmt"

// Codebook bundles the frequencies, the tree built from them and the derived code table.
// A Codebook is not modified after construction and may be shared between goroutines.
type Codebook struct {
	Freqs FrequencyTable
	Tree  Node // nil when Freqs is empty
	Table CodeTable
}

// NewCodebook builds the tree and codes for freqs. An empty table gives an empty, usable Codebook.
func NewCodebook(freqs FrequencyTable) (*Codebook, error) {
	freqs = freqs.Clone()
	tree, err := BuildTree(freqs)
	if err != nil {
		return nil, err
	}
	if tree == nil {
		return &Codebook{Freqs: freqs, Table: CodeTable{}}, nil
	}

	table, err := GenerateCodes(tree)
	if err != nil {
		return nil, err
	}
	if !IsPrefixFree(table) {
		return nil, fmt.Errorf("%w: generated codes are not prefix-free", ErrInvalidTree)
	}
	return &Codebook{Freqs: freqs, Tree: tree, Table: table}, nil
}

func (cb *Codebook) Empty() bool {
	return cb.Tree == nil
}

func (cb *Codebook) Encode(symbols []Symbol) (Bits, error) {
	return Encode(symbols, cb.Table)
}

func (cb *Codebook) Decode(bits Bits) ([]Symbol, error) {
	return Decode(bits, cb.Tree)
}

// WeightedPathLength is the number of bits needed to encode the sequence Freqs was counted from.
func (cb *Codebook) WeightedPathLength() int64 {
	total, err := cb.Table.EncodedLength(cb.Freqs)
	if err != nil {
		// Table and Freqs are built together; anything else is a broken Codebook.
		panic(err)
	}
	return total
}

// EncodeText counts, builds and encodes in one step.
func EncodeText(text string) (*Codebook, Bits, error) {
	symbols := SymbolsOf(text)
	cb, err := NewCodebook(Frequencies(symbols))
	if err != nil {
		return nil, nil, err
	}
	bits, err := cb.Encode(symbols)
	if err != nil {
		return nil, nil, err
	}
	return cb, bits, nil
}
