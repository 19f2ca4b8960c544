// Package container persists one encoded stream together with what is needed to decode it.
//
// Layout, little endian:
//
//	magic "HPC1" | version u8 | format u8 | entries u32 | entries x (symbol i32, count u64)
//	| bit count u64 | code book fingerprint u64 | text checksum u64 | payload
//
// Entries are sorted by symbol. The reader rebuilds the tree from the entries and compares its
// code table against the fingerprint before touching the payload, so a stream is never decoded
// with a tree other than the one it was encoded with.
package container

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"
	"github.com/op/go-logging"

	"github.com/KitchenMishap/pudding-prefixcode/bitpack"
	"github.com/KitchenMishap/pudding-prefixcode/huffman"
)

var log = logging.MustGetLogger("container")

var (
	ErrBadMagic           = errors.New("container: not an encoded stream")
	ErrUnsupportedVersion = errors.New("container: unsupported version")
	ErrFormat             = errors.New("container: malformed header")
	ErrCodebookMismatch   = errors.New("container: code book does not match the one used to encode")
	ErrChecksum           = errors.New("container: decoded text fails checksum")
)

const (
	magic   = "HPC1"
	version = 1

	// maxEntries bounds the symbol table to the Unicode code space.
	maxEntries = utf8.MaxRune + 1
)

// Format selects how the payload bits are stored.
type Format uint8

const (
	// Packed stores eight bits per byte.
	Packed Format = iota
	// Text stores one '0' or '1' character per bit.
	Text
)

func (f Format) String() string {
	switch f {
	case Packed:
		return "packed"
	case Text:
		return "text"
	default:
		return fmt.Sprintf("Format(%d)", uint8(f))
	}
}

func ParseFormat(s string) (Format, error) {
	switch s {
	case "packed":
		return Packed, nil
	case "text":
		return Text, nil
	default:
		return 0, fmt.Errorf("container: unknown format %q", s)
	}
}

// Config holds options for Write.
type Config struct {
	Format Format
}

// Option is a functional option for Write.
type Option func(*Config)

func WithFormat(f Format) Option {
	return func(c *Config) {
		c.Format = f
	}
}

// Archive is a stream read back by Read. Its Codebook is rebuilt from the stored frequencies.
type Archive struct {
	Format   Format
	Codebook *huffman.Codebook
	Bits     huffman.Bits
	Checksum uint64
}

// Write stores cb's frequencies, the encoded bits and a checksum of text, the original input.
func Write(w io.Writer, cb *huffman.Codebook, bits huffman.Bits, text string, opts ...Option) error {
	var cfg Config
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Format != Packed && cfg.Format != Text {
		return fmt.Errorf("container: unknown format %d", cfg.Format)
	}

	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(magic); err != nil {
		return err
	}
	if err := bw.WriteByte(version); err != nil {
		return err
	}
	if err := bw.WriteByte(byte(cfg.Format)); err != nil {
		return err
	}
	if err := writeFrequencies(bw, cb.Freqs); err != nil {
		return err
	}
	trailer := []uint64{uint64(len(bits)), Fingerprint(cb.Table), xxhash.Sum64String(text)}
	if err := binary.Write(bw, binary.LittleEndian, trailer); err != nil {
		return err
	}

	switch cfg.Format {
	case Text:
		if err := bitpack.WriteText(bw, bits); err != nil {
			return err
		}
	default:
		if err := bitpack.Pack(bw, bits); err != nil {
			return err
		}
	}
	log.Debugf("wrote %d symbols, %d bits, format %v", len(cb.Freqs), len(bits), cfg.Format)
	return bw.Flush()
}

func writeFrequencies(w io.Writer, freqs huffman.FrequencyTable) error {
	symbols := freqs.Symbols()
	if err := binary.Write(w, binary.LittleEndian, uint32(len(symbols))); err != nil {
		return err
	}
	for _, s := range symbols {
		entry := struct {
			Symbol int32
			Count  uint64
		}{int32(s), uint64(freqs[s])}
		if err := binary.Write(w, binary.LittleEndian, entry); err != nil {
			return err
		}
	}
	return nil
}

func readFrequencies(r io.Reader) (huffman.FrequencyTable, error) {
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, err
	}
	if count > maxEntries {
		return nil, fmt.Errorf("%w: %d symbol entries", ErrFormat, count)
	}
	freqs := make(huffman.FrequencyTable, min(count, 1<<12))
	prev := int64(-1)
	var total int64
	for i := uint32(0); i < count; i++ {
		var entry struct {
			Symbol int32
			Count  uint64
		}
		if err := binary.Read(r, binary.LittleEndian, &entry); err != nil {
			return nil, err
		}
		if int64(entry.Symbol) <= prev {
			return nil, fmt.Errorf("%w: symbol entries out of order at %d", ErrFormat, i)
		}
		if entry.Count == 0 || entry.Count > 1<<62 {
			return nil, fmt.Errorf("%w: symbol %q has count %d", huffman.ErrInvalidFrequency, entry.Symbol, entry.Count)
		}
		if int64(entry.Count) > math.MaxInt64-total {
			return nil, fmt.Errorf("%w: symbol counts overflow at entry %d", ErrFormat, i)
		}
		total += int64(entry.Count)
		prev = int64(entry.Symbol)
		freqs[huffman.Symbol(entry.Symbol)] = int64(entry.Count)
	}
	return freqs, nil
}

// Read parses a stream written by Write and rebuilds its code book. Header truncation surfaces as
// io.ErrUnexpectedEOF, payload truncation as huffman.ErrTruncatedStream.
func Read(r io.Reader) (*Archive, error) {
	br := bufio.NewReader(r)

	head := make([]byte, len(magic)+2)
	if _, err := io.ReadFull(br, head); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrBadMagic
		}
		return nil, err
	}
	if string(head[:len(magic)]) != magic {
		return nil, ErrBadMagic
	}
	if head[len(magic)] != version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, head[len(magic)])
	}
	format := Format(head[len(magic)+1])
	if format != Packed && format != Text {
		return nil, fmt.Errorf("%w: payload format %d", ErrFormat, format)
	}

	freqs, err := readFrequencies(br)
	if err != nil {
		return nil, unexpected(err)
	}
	var trailer [3]uint64
	if err := binary.Read(br, binary.LittleEndian, &trailer); err != nil {
		return nil, unexpected(err)
	}
	bitCount, fingerprint, checksum := trailer[0], trailer[1], trailer[2]

	cb, err := huffman.NewCodebook(freqs)
	if err != nil {
		return nil, err
	}
	if got := Fingerprint(cb.Table); got != fingerprint {
		return nil, fmt.Errorf("%w: fingerprint %016x, rebuilt %016x", ErrCodebookMismatch, fingerprint, got)
	}
	want, err := payloadBits(cb)
	if err != nil {
		return nil, err
	}
	if bitCount != uint64(want) {
		return nil, fmt.Errorf("%w: header declares %d bits, code book needs %d", ErrFormat, bitCount, want)
	}

	var bits huffman.Bits
	switch format {
	case Text:
		bits, err = bitpack.ReadText(br, int64(bitCount))
	default:
		bits, err = bitpack.Unpack(br, int64(bitCount))
	}
	if err != nil {
		return nil, err
	}
	if _, err := br.ReadByte(); err != io.EOF {
		if err == nil {
			return nil, fmt.Errorf("%w: trailing bytes after payload", ErrFormat)
		}
		return nil, err
	}

	log.Debugf("read %d symbols, %d bits, format %v", len(freqs), bitCount, format)
	return &Archive{Format: format, Codebook: cb, Bits: bits, Checksum: checksum}, nil
}

// payloadBits is cb.WeightedPathLength with an overflow check, the counts being read from a file.
func payloadBits(cb *huffman.Codebook) (int64, error) {
	var total int64
	for s, f := range cb.Freqs {
		n := int64(len(cb.Table[s]))
		if n > 0 && f > (math.MaxInt64-total)/n {
			return 0, fmt.Errorf("%w: encoded length overflows", ErrFormat)
		}
		total += f * n
	}
	return total, nil
}

func unexpected(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}

// Decode recovers the original text and checks it against the stored checksum.
func (a *Archive) Decode() (string, error) {
	symbols, err := a.Codebook.Decode(a.Bits)
	if err != nil {
		return "", err
	}
	if int64(len(symbols)) != a.Codebook.Freqs.Total() {
		return "", fmt.Errorf("%w: decoded %d symbols, expected %d", ErrChecksum, len(symbols), a.Codebook.Freqs.Total())
	}
	text := huffman.Text(symbols)
	if xxhash.Sum64String(text) != a.Checksum {
		return "", ErrChecksum
	}
	return text, nil
}

// Fingerprint hashes a code table in symbol order. Two tables share a fingerprint only if they
// assign the same codes, barring hash collisions.
func Fingerprint(table huffman.CodeTable) uint64 {
	d := xxhash.New()
	var word [8]byte
	for _, s := range table.Symbols() {
		code := table[s]
		binary.LittleEndian.PutUint32(word[:4], uint32(s))
		binary.LittleEndian.PutUint32(word[4:], uint32(len(code)))
		_, _ = d.Write(word[:])
		_, _ = d.WriteString(code.String())
	}
	return d.Sum64()
}

// FrequencyFingerprint hashes a frequency table in symbol order.
func FrequencyFingerprint(freqs huffman.FrequencyTable) uint64 {
	d := xxhash.New()
	var word [12]byte
	for _, s := range freqs.Symbols() {
		binary.LittleEndian.PutUint32(word[:4], uint32(s))
		binary.LittleEndian.PutUint64(word[4:], uint64(freqs[s]))
		_, _ = d.Write(word[:])
	}
	return d.Sum64()
}
