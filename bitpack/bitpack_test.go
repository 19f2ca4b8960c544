package bitpack_test

import (
	"bytes"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/KitchenMishap/pudding-prefixcode/bitpack"
	"github.com/KitchenMishap/pudding-prefixcode/huffman"
)

func showBinaryOctets(b []byte) string {
	parts := make([]string, len(b))
	for i, x := range b {
		parts[i] = fmt.Sprintf("%08b", x)
	}
	return strings.Join(parts, " ")
}

func TestPackLayout(t *testing.T) {
	bits, err := bitpack.ParseText("1111001011")
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := bitpack.Pack(&buf, bits); err != nil {
		t.Fatal(err)
	}
	if got := showBinaryOctets(buf.Bytes()); got != "11110010 11000000" {
		t.Errorf("packed %s", got)
	}
	if bitpack.PackedSize(int64(len(bits))) != int64(buf.Len()) {
		t.Errorf("PackedSize disagrees with %d bytes written", buf.Len())
	}
}

func TestPackRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(0x5a025ca11825a5e7))
	for iteration := 0; iteration < 100; iteration++ {
		bits := make(huffman.Bits, rng.Intn(70))
		for i := range bits {
			bits[i] = uint8(rng.Intn(2))
		}
		var buf bytes.Buffer
		if err := bitpack.Pack(&buf, bits); err != nil {
			t.Fatal(err)
		}
		got, err := bitpack.Unpack(&buf, int64(len(bits)))
		if err != nil {
			t.Fatalf("#%d: %v", iteration, err)
		}
		if got.String() != bits.String() {
			t.Fatalf("#%d: %s -> %s", iteration, bits, got)
		}
		if buf.Len() != 0 {
			t.Fatalf("#%d: %d bytes left unread", iteration, buf.Len())
		}
	}
}

func TestUnpackShortPayload(t *testing.T) {
	_, err := bitpack.Unpack(bytes.NewReader([]byte{0xff}), 12)
	if !errors.Is(err, huffman.ErrTruncatedStream) {
		t.Errorf("got %v, want ErrTruncatedStream", err)
	}
}

func TestHugeCountShortPayload(t *testing.T) {
	const n = 1 << 62
	if _, err := bitpack.Unpack(bytes.NewReader([]byte{0x00, 0x01}), n); !errors.Is(err, huffman.ErrTruncatedStream) {
		t.Errorf("Unpack: got %v, want ErrTruncatedStream", err)
	}
	if _, err := bitpack.ReadText(strings.NewReader("0110"), n); !errors.Is(err, huffman.ErrTruncatedStream) {
		t.Errorf("ReadText: got %v, want ErrTruncatedStream", err)
	}
	if _, err := bitpack.Unpack(bytes.NewReader(nil), -1); err == nil {
		t.Error("Unpack accepted a negative count")
	}
	if _, err := bitpack.ReadText(strings.NewReader(""), -1); err == nil {
		t.Error("ReadText accepted a negative count")
	}
}

func TestUnpackPadding(t *testing.T) {
	_, err := bitpack.Unpack(bytes.NewReader([]byte{0xf1}), 4)
	if !errors.Is(err, bitpack.ErrPadding) {
		t.Errorf("got %v, want ErrPadding", err)
	}
}

func TestPackRejectsBadBit(t *testing.T) {
	var buf bytes.Buffer
	if err := bitpack.Pack(&buf, huffman.Bits{0, 3}); !errors.Is(err, huffman.ErrMalformedInput) {
		t.Errorf("Pack: got %v, want ErrMalformedInput", err)
	}
	if err := bitpack.WriteText(&buf, huffman.Bits{1, 2}); !errors.Is(err, huffman.ErrMalformedInput) {
		t.Errorf("WriteText: got %v, want ErrMalformedInput", err)
	}
}

func TestText(t *testing.T) {
	if _, err := bitpack.ParseText("0102"); !errors.Is(err, huffman.ErrMalformedInput) {
		t.Errorf("ParseText: got %v, want ErrMalformedInput", err)
	}

	var buf bytes.Buffer
	bits := huffman.Bits{1, 0, 1, 1}
	if err := bitpack.WriteText(&buf, bits); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "1011" {
		t.Errorf("wrote %q", buf.String())
	}
	got, err := bitpack.ReadText(&buf, 4)
	if err != nil {
		t.Fatal(err)
	}
	if got.String() != "1011" {
		t.Errorf("read %s", got)
	}
	if _, err := bitpack.ReadText(strings.NewReader("10"), 4); !errors.Is(err, huffman.ErrTruncatedStream) {
		t.Errorf("short text: got %v, want ErrTruncatedStream", err)
	}
}
