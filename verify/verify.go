// Package verify checks an encoding end to end: code table properties, optimality against an
// independent reference, and a lossless trip through the packed byte form.
package verify

import (
	"bytes"
	"errors"
	"fmt"
	"sort"

	"github.com/op/go-logging"

	"github.com/KitchenMishap/pudding-prefixcode/bitpack"
	"github.com/KitchenMishap/pudding-prefixcode/huffman"
)

var log = logging.MustGetLogger("verify")

var ErrVerification = errors.New("verify: round trip failed")

// Report says which checks passed for one input.
type Report struct {
	PrefixFree   bool
	Covered      bool
	Optimal      bool
	RoundTrip    bool
	PackedTrip   bool
	EncodedBits  int64
	ReferenceWPL int64
}

func (r Report) OK() bool {
	return r.PrefixFree && r.Covered && r.Optimal && r.RoundTrip && r.PackedTrip
}

// Check encodes text and verifies every property. Failing checks are reported, not returned as
// errors; the error is reserved for inputs the pipeline itself rejects.
func Check(text string) (Report, error) {
	var report Report
	symbols := huffman.SymbolsOf(text)
	cb, err := huffman.NewCodebook(huffman.Frequencies(symbols))
	if err != nil {
		return report, err
	}

	report.PrefixFree = huffman.IsPrefixFree(cb.Table)
	report.Covered = huffman.CoversAllSymbols(cb.Table, symbols)
	if !report.Covered {
		return report, nil
	}

	bits, err := cb.Encode(symbols)
	if err != nil {
		return report, err
	}
	report.EncodedBits = int64(len(bits))
	report.ReferenceWPL = OptimalWPL(cb.Freqs)
	report.Optimal = report.EncodedBits == report.ReferenceWPL

	decoded, err := cb.Decode(bits)
	report.RoundTrip = err == nil && huffman.Text(decoded) == text

	var buf bytes.Buffer
	if err := bitpack.Pack(&buf, bits); err != nil {
		return report, err
	}
	unpacked, err := bitpack.Unpack(&buf, int64(len(bits)))
	if err == nil {
		decoded, err = cb.Decode(unpacked)
	}
	report.PackedTrip = err == nil && huffman.Text(decoded) == text

	log.Debugf("verified %d symbols: %+v", len(symbols), report)
	return report, nil
}

// Must is Check but turns any failed property into ErrVerification.
func Must(text string) error {
	report, err := Check(text)
	if err != nil {
		return err
	}
	if !report.OK() {
		return fmt.Errorf("%w: %+v", ErrVerification, report)
	}
	return nil
}

// OptimalWPL computes the minimum weighted path length for freqs without building a tree, using
// the two-queue merge over sorted weights. For a single symbol it is the symbol's count, matching
// the one-bit code convention.
func OptimalWPL(freqs huffman.FrequencyTable) int64 {
	weights := make([]int64, 0, len(freqs))
	for _, f := range freqs {
		weights = append(weights, f)
	}
	switch len(weights) {
	case 0:
		return 0
	case 1:
		return weights[0]
	}
	sort.Slice(weights, func(i, j int) bool { return weights[i] < weights[j] })

	merged := make([]int64, 0, len(weights)-1)
	var i, j int
	take := func() int64 {
		if j >= len(merged) || (i < len(weights) && weights[i] <= merged[j]) {
			i++
			return weights[i-1]
		}
		j++
		return merged[j-1]
	}

	// Each merge adds its weight once for every level it pushes its leaves down.
	var total int64
	for k := 0; k < len(weights)-1; k++ {
		sum := take() + take()
		total += sum
		merged = append(merged, sum)
	}
	return total
}
