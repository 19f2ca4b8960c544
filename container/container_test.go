package container_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"github.com/KitchenMishap/pudding-prefixcode/container"
	"github.com/KitchenMishap/pudding-prefixcode/huffman"
)

func encode(t *testing.T, text string, format container.Format) []byte {
	t.Helper()
	cb, bits, err := huffman.EncodeText(text)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := container.Write(&buf, cb, bits, text, container.WithFormat(format)); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestRoundTrip(t *testing.T) {
	texts := []string{"", "xxxx", "aabbc", "Ça va? Très bien ✓\nthe end\t"}
	for _, format := range []container.Format{container.Packed, container.Text} {
		for _, text := range texts {
			t.Run(format.String()+"/"+text, func(t *testing.T) {
				archive, err := container.Read(bytes.NewReader(encode(t, text, format)))
				if err != nil {
					t.Fatal(err)
				}
				if archive.Format != format {
					t.Errorf("format %v, want %v", archive.Format, format)
				}
				got, err := archive.Decode()
				if err != nil {
					t.Fatal(err)
				}
				if got != text {
					t.Errorf("decoded %q, want %q", got, text)
				}
			})
		}
	}
}

func TestPayloadSize(t *testing.T) {
	packed := encode(t, "aabbc", container.Packed)
	text := encode(t, "aabbc", container.Text)
	// 8 bits: one byte packed, eight characters as text
	if len(text)-len(packed) != 7 {
		t.Errorf("packed %d bytes, text %d bytes", len(packed), len(text))
	}
}

func TestMismatchedCodebookRejected(t *testing.T) {
	a, _, err := huffman.EncodeText("aabbc")
	if err != nil {
		t.Fatal(err)
	}
	other := "cccbba"
	b, bits, err := huffman.EncodeText(other)
	if err != nil {
		t.Fatal(err)
	}
	// Frequencies of one input with the codes of another
	mixed := &huffman.Codebook{Freqs: a.Freqs, Tree: b.Tree, Table: b.Table}

	var buf bytes.Buffer
	if err := container.Write(&buf, mixed, bits, other); err != nil {
		t.Fatal(err)
	}
	_, err = container.Read(&buf)
	if !errors.Is(err, container.ErrCodebookMismatch) {
		t.Errorf("got %v, want ErrCodebookMismatch", err)
	}
}

func TestTamperedFrequencyRejected(t *testing.T) {
	raw := encode(t, "aabbc", container.Packed)
	// magic(4) version(1) format(1) entries(4) then 'a': symbol(4) count(8)
	raw[14] = 5
	_, err := container.Read(bytes.NewReader(raw))
	if !errors.Is(err, container.ErrCodebookMismatch) {
		t.Errorf("got %v, want ErrCodebookMismatch", err)
	}
}

func TestTruncatedPayload(t *testing.T) {
	raw := encode(t, "the quick brown fox jumps over the lazy dog", container.Packed)
	_, err := container.Read(bytes.NewReader(raw[:len(raw)-1]))
	if !errors.Is(err, huffman.ErrTruncatedStream) {
		t.Errorf("got %v, want ErrTruncatedStream", err)
	}

	textRaw := encode(t, "aabbc", container.Text)
	_, err = container.Read(bytes.NewReader(textRaw[:len(textRaw)-1]))
	if !errors.Is(err, huffman.ErrTruncatedStream) {
		t.Errorf("text format: got %v, want ErrTruncatedStream", err)
	}
}

func TestTruncatedHeader(t *testing.T) {
	raw := encode(t, "aabbc", container.Packed)
	_, err := container.Read(bytes.NewReader(raw[:20]))
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("got %v, want io.ErrUnexpectedEOF", err)
	}
}

func TestHeaderErrors(t *testing.T) {
	good := encode(t, "aabbc", container.Packed)
	mutate := func(f func(b []byte) []byte) []byte {
		b := append([]byte(nil), good...)
		return f(b)
	}

	cases := []struct {
		name string
		raw  []byte
		want error
	}{
		{"empty", nil, container.ErrBadMagic},
		{"magic", mutate(func(b []byte) []byte { b[0] = 'X'; return b }), container.ErrBadMagic},
		{"version", mutate(func(b []byte) []byte { b[4] = 9; return b }), container.ErrUnsupportedVersion},
		{"format", mutate(func(b []byte) []byte { b[5] = 7; return b }), container.ErrFormat},
		{"trailing", mutate(func(b []byte) []byte { return append(b, 0) }), container.ErrFormat},
		{"zero count", mutate(func(b []byte) []byte {
			for i := 14; i < 22; i++ {
				b[i] = 0
			}
			return b
		}), huffman.ErrInvalidFrequency},
		{"order", mutate(func(b []byte) []byte { b[10], b[22] = b[22], b[10]; return b }), container.ErrFormat},
		{"bit count", mutate(func(b []byte) []byte { b[46]++; return b }), container.ErrFormat},
		{"huge single symbol", craft(t, huffman.FrequencyTable{'x': 1 << 62}, 1<<62), huffman.ErrTruncatedStream},
		{"huge text payload", func() []byte {
			b := craft(t, huffman.FrequencyTable{'x': 1 << 34}, 1<<34)
			b[5] = byte(container.Text)
			return b
		}(), huffman.ErrTruncatedStream},
		{"encoded length overflow", craft(t, huffman.FrequencyTable{'a': 1 << 60, 'b': 1 << 60, 'c': 1 << 60, 'd': 1 << 60}, 0), container.ErrFormat},
		{"total overflow", craft(t, huffman.FrequencyTable{'a': 1 << 62, 'b': 1 << 62}, 0), container.ErrFormat},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := container.Read(bytes.NewReader(tc.raw))
			if !errors.Is(err, tc.want) {
				t.Errorf("got %v, want %v", err, tc.want)
			}
		})
	}
}

// craft builds a header by hand with a consistent fingerprint and no payload.
func craft(t *testing.T, freqs huffman.FrequencyTable, bitCount uint64) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteString("HPC1")
	buf.Write([]byte{1, byte(container.Packed)})
	symbols := freqs.Symbols()
	binary.Write(&buf, binary.LittleEndian, uint32(len(symbols)))
	for _, s := range symbols {
		binary.Write(&buf, binary.LittleEndian, int32(s))
		binary.Write(&buf, binary.LittleEndian, uint64(freqs[s]))
	}
	var fingerprint uint64
	if cb, err := huffman.NewCodebook(freqs); err == nil {
		fingerprint = container.Fingerprint(cb.Table)
	}
	binary.Write(&buf, binary.LittleEndian, []uint64{bitCount, fingerprint, 0})
	return buf.Bytes()
}

func TestChecksum(t *testing.T) {
	cb, bits, err := huffman.EncodeText("aabbc")
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	// Checksum of a different text than the one encoded
	if err := container.Write(&buf, cb, bits, "aabcb"); err != nil {
		t.Fatal(err)
	}
	archive, err := container.Read(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := archive.Decode(); !errors.Is(err, container.ErrChecksum) {
		t.Errorf("got %v, want ErrChecksum", err)
	}
}

func TestFingerprint(t *testing.T) {
	a, _, _ := huffman.EncodeText("aabbc")
	b, _, _ := huffman.EncodeText("aabbc")
	c, _, _ := huffman.EncodeText("aabbcc")
	if container.Fingerprint(a.Table) != container.Fingerprint(b.Table) {
		t.Error("equal tables hash differently")
	}
	if container.Fingerprint(a.Table) == container.Fingerprint(c.Table) {
		t.Error("different tables hash the same")
	}
	if container.FrequencyFingerprint(a.Freqs) == container.FrequencyFingerprint(c.Freqs) {
		t.Error("different frequencies hash the same")
	}
}

func TestParseFormat(t *testing.T) {
	for _, f := range []container.Format{container.Packed, container.Text} {
		got, err := container.ParseFormat(f.String())
		if err != nil || got != f {
			t.Errorf("ParseFormat(%q) = %v, %v", f.String(), got, err)
		}
	}
	if _, err := container.ParseFormat("zip"); err == nil {
		t.Error("ParseFormat(zip) succeeded")
	}
}
