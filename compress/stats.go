package compress

import (
	"math"

	"github.com/KitchenMishap/pudding-prefixcode/huffman"
)

// CompressionStats summarises one encoding. Original size counts 8 bits per UTF-8 byte.
type CompressionStats struct {
	Symbols      int64 // Length of the input in symbols
	Distinct     int   // Size of the alphabet actually used
	OriginalBits uint64
	EncodedBits  uint64
	MinCode      int
	MaxCode      int
	MeanCode     float64 // Unweighted mean over distinct symbols
}

func Measure(text string, cb *huffman.Codebook, bits huffman.Bits) CompressionStats {
	stats := CompressionStats{
		Symbols:      cb.Freqs.Total(),
		Distinct:     len(cb.Table),
		OriginalBits: uint64(len(text)) * 8,
		EncodedBits:  uint64(len(bits)),
	}
	if len(cb.Table) == 0 {
		return stats
	}

	stats.MinCode = math.MaxInt
	var sum int
	for _, code := range cb.Table {
		l := len(code)
		sum += l
		if l < stats.MinCode {
			stats.MinCode = l
		}
		if l > stats.MaxCode {
			stats.MaxCode = l
		}
	}
	stats.MeanCode = float64(sum) / float64(len(cb.Table))
	return stats
}

// Ratio is encoded size over original size, 0 for empty input.
func (s CompressionStats) Ratio() float64 {
	if s.OriginalBits == 0 {
		return 0
	}
	return float64(s.EncodedBits) / float64(s.OriginalBits)
}

// Gain is the fraction of bits saved.
func (s CompressionStats) Gain() float64 {
	if s.OriginalBits == 0 {
		return 0
	}
	return 1 - s.Ratio()
}

// BitsPerSymbol is the average encoded length weighted by frequency.
func (s CompressionStats) BitsPerSymbol() float64 {
	if s.Symbols == 0 {
		return 0
	}
	return float64(s.EncodedBits) / float64(s.Symbols)
}

// Add accumulates totals across several streams. Code length fields keep the extremes.
func (s *CompressionStats) Add(o CompressionStats) {
	if s.Distinct == 0 || (o.Distinct > 0 && o.MinCode < s.MinCode) {
		s.MinCode = o.MinCode
	}
	if o.MaxCode > s.MaxCode {
		s.MaxCode = o.MaxCode
	}
	total := s.Distinct + o.Distinct
	if total > 0 {
		s.MeanCode = (s.MeanCode*float64(s.Distinct) + o.MeanCode*float64(o.Distinct)) / float64(total)
	}
	s.Symbols += o.Symbols
	s.Distinct = total
	s.OriginalBits += o.OriginalBits
	s.EncodedBits += o.EncodedBits
}
