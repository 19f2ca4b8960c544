package huffman

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrInvalidFrequency = errors.New("huffman: frequency must be positive")
	ErrInvalidTree      = errors.New("huffman: malformed code tree")
	ErrMissingCode      = errors.New("huffman: symbol has no code")
	ErrMalformedInput   = errors.New("huffman: bit is neither 0 nor 1")
	ErrTruncatedStream  = errors.New("huffman: bit stream ends inside a code")
)

// Symbol is one unit of the input alphabet, a Unicode code point.
type Symbol rune

func SymbolsOf(text string) []Symbol {
	runes := []rune(text)
	symbols := make([]Symbol, len(runes))
	for i, r := range runes {
		symbols[i] = Symbol(r)
	}
	return symbols
}

func Text(symbols []Symbol) string {
	var sb strings.Builder
	for _, s := range symbols {
		sb.WriteRune(rune(s))
	}
	return sb.String()
}

// FrequencyTable maps each distinct symbol to how often it appeared.
type FrequencyTable map[Symbol]int64

func Frequencies(symbols []Symbol) FrequencyTable {
	freqs := make(FrequencyTable)
	for _, s := range symbols {
		freqs[s]++
	}
	return freqs
}

func FrequenciesOf(text string) FrequencyTable {
	freqs := make(FrequencyTable)
	for _, r := range text {
		freqs[Symbol(r)]++
	}
	return freqs
}

// Symbols returns the keys in ascending symbol order.
func (ft FrequencyTable) Symbols() []Symbol {
	keys := make([]Symbol, 0, len(ft))
	for s := range ft {
		keys = append(keys, s)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Total is the length of the sequence the table was counted from.
func (ft FrequencyTable) Total() int64 {
	var total int64
	for _, f := range ft {
		total += f
	}
	return total
}

func (ft FrequencyTable) Clone() FrequencyTable {
	c := make(FrequencyTable, len(ft))
	for s, f := range ft {
		c[s] = f
	}
	return c
}

// Bits is a sequence of logical bits, one per element, each 0 or 1.
type Bits []uint8

func (b Bits) String() string {
	var sb strings.Builder
	sb.Grow(len(b))
	for _, bit := range b {
		switch bit {
		case 0:
			sb.WriteByte('0')
		case 1:
			sb.WriteByte('1')
		default:
			sb.WriteByte('?')
		}
	}
	return sb.String()
}

// HasPrefix reports whether p is a prefix of b (or equal to it).
func (b Bits) HasPrefix(p Bits) bool {
	if len(p) > len(b) {
		return false
	}
	for i := range p {
		if b[i] != p[i] {
			return false
		}
	}
	return true
}

// extend returns a fresh copy of b with bit appended, so sibling paths never share storage.
func (b Bits) extend(bit uint8) Bits {
	next := make(Bits, len(b)+1)
	copy(next, b)
	next[len(b)] = bit
	return next
}
