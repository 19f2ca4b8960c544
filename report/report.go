// Package report prints frequency tables, code tables and compression statistics for people.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/KitchenMishap/pudding-prefixcode/compress"
	"github.com/KitchenMishap/pudding-prefixcode/huffman"
)

// Display renders a symbol so that whitespace and control characters stay visible.
func Display(s huffman.Symbol) string {
	switch r := rune(s); {
	case r == ' ':
		return "␣"
	case r == '␣':
		return "U+2423"
	case r == '\n':
		return `\n`
	case r == '\t':
		return `\t`
	case r == '\r':
		return `\r`
	case !unicode.IsPrint(r):
		return fmt.Sprintf("U+%04X", r)
	default:
		return string(r)
	}
}

// Entry is one row of a frequency table.
type Entry struct {
	Symbol huffman.Symbol
	Count  int64
}

// ByFrequency orders the table most frequent first, ties by ascending symbol.
func ByFrequency(freqs huffman.FrequencyTable) []Entry {
	entries := make([]Entry, 0, len(freqs))
	for s, c := range freqs {
		entries = append(entries, Entry{Symbol: s, Count: c})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Symbol < entries[j].Symbol
	})
	return entries
}

// ByCodeLength orders symbols shortest code first, ties by ascending symbol.
func ByCodeLength(table huffman.CodeTable) []huffman.Symbol {
	symbols := table.Symbols()
	sort.SliceStable(symbols, func(i, j int) bool {
		return len(table[symbols[i]]) < len(table[symbols[j]])
	})
	return symbols
}

func printer() *message.Printer {
	// For commas between thousands
	return message.NewPrinter(language.English)
}

// Frequencies prints at most limit rows, all of them if limit <= 0.
func Frequencies(w io.Writer, freqs huffman.FrequencyTable, limit int) error {
	p := printer()
	entries := ByFrequency(freqs)
	if _, err := p.Fprintf(w, "Symbol frequencies (%d distinct, %d total):\n", len(entries), freqs.Total()); err != nil {
		return err
	}
	for i, e := range entries {
		if limit > 0 && i == limit {
			_, err := p.Fprintf(w, "  ... and %d more\n", len(entries)-limit)
			return err
		}
		if _, err := p.Fprintf(w, "  %-8s %12d\n", Display(e.Symbol), e.Count); err != nil {
			return err
		}
	}
	return nil
}

// Codes prints at most limit rows, all of them if limit <= 0.
func Codes(w io.Writer, table huffman.CodeTable, limit int) error {
	p := printer()
	symbols := ByCodeLength(table)
	if _, err := p.Fprintf(w, "Code table (%d codes):\n", len(symbols)); err != nil {
		return err
	}
	for i, s := range symbols {
		if limit > 0 && i == limit {
			_, err := p.Fprintf(w, "  ... and %d more\n", len(symbols)-limit)
			return err
		}
		if _, err := p.Fprintf(w, "  %-8s %s\n", Display(s), table[s]); err != nil {
			return err
		}
	}
	return nil
}

// Tree prints the code tree indented by depth, each child prefixed with its edge bit.
func Tree(w io.Writer, root huffman.Node) error {
	p := printer()
	if _, err := p.Fprintln(w, "Code tree:"); err != nil {
		return err
	}
	var err error
	huffman.Walk(root, func(n huffman.Node, path huffman.Bits) {
		if err != nil {
			return
		}
		line := strings.Repeat("  ", len(path)+1)
		if len(path) > 0 {
			line += fmt.Sprintf("%d: ", path[len(path)-1])
		}
		switch v := n.(type) {
		case *huffman.Leaf:
			_, err = p.Fprintf(w, "%s%s (%d)\n", line, Display(v.Symbol), v.Count)
		default:
			_, err = p.Fprintf(w, "%s(%d)\n", line, n.Freq())
		}
	})
	return err
}

func Stats(w io.Writer, stats compress.CompressionStats) error {
	p := printer()
	lines := []struct {
		format string
		args   []interface{}
	}{
		{"Symbols:          %d (%d distinct)\n", []interface{}{stats.Symbols, stats.Distinct}},
		{"Original size:    %d bits\n", []interface{}{stats.OriginalBits}},
		{"Encoded size:     %d bits\n", []interface{}{stats.EncodedBits}},
		{"Code length:      %d min, %d max, %.2f mean\n", []interface{}{stats.MinCode, stats.MaxCode, stats.MeanCode}},
		{"Bits per symbol:  %.3f\n", []interface{}{stats.BitsPerSymbol()}},
		{"Compression rate: %.2f%%\n", []interface{}{stats.Ratio() * 100}},
		{"Gain:             %.2f%%\n", []interface{}{stats.Gain() * 100}},
	}
	for _, l := range lines {
		if _, err := p.Fprintf(w, l.format, l.args...); err != nil {
			return err
		}
	}
	return nil
}
