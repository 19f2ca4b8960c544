// Package bitpack moves logical bit sequences in and out of byte streams.
//
// Packed form stores eight bits per byte, most significant bit first. The final byte is padded
// with zero bits, so the number of valid bits has to travel with the payload. Text form stores
// one ASCII '0' or '1' per bit.
package bitpack

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/icza/bitio"

	"github.com/KitchenMishap/pudding-prefixcode/huffman"
)

var ErrPadding = errors.New("bitpack: nonzero padding bits")

// initialCap bounds up-front allocation; n usually comes from a file header.
const initialCap = 1 << 16

var errNegativeCount = errors.New("bitpack: negative bit count")

// PackedSize is the number of bytes Pack writes for n bits.
func PackedSize(n int64) int64 {
	return (n + 7) / 8
}

func Pack(w io.Writer, bits huffman.Bits) error {
	buf := bufio.NewWriter(w)
	bw := bitio.NewWriter(buf)
	for i, b := range bits {
		if b > 1 {
			return fmt.Errorf("%w: bit %d is %d", huffman.ErrMalformedInput, i, b)
		}
		if err := bw.WriteBool(b == 1); err != nil {
			return err
		}
	}
	// Close pads the last byte with zeros
	if err := bw.Close(); err != nil {
		return err
	}
	return buf.Flush()
}

// Unpack reads exactly n bits written by Pack and checks that the padding is zero.
// A reader that runs dry first gives ErrTruncatedStream. If r is an io.ByteReader nothing past
// the padded final byte is consumed.
func Unpack(r io.Reader, n int64) (huffman.Bits, error) {
	if n < 0 {
		return nil, errNegativeCount
	}
	br := bitio.NewReader(r)
	out := make(huffman.Bits, 0, min(n, initialCap))
	for i := int64(0); i < n; i++ {
		b, err := br.ReadBool()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, fmt.Errorf("%w: payload holds %d of %d bits", huffman.ErrTruncatedStream, i, n)
			}
			return nil, err
		}
		if b {
			out = append(out, 1)
		} else {
			out = append(out, 0)
		}
	}

	if pad := (8 - n%8) % 8; pad > 0 {
		rest, err := br.ReadBits(uint8(pad))
		if err != nil {
			return nil, err
		}
		if rest != 0 {
			return nil, ErrPadding
		}
	}
	return out, nil
}

func FormatText(bits huffman.Bits) string {
	return bits.String()
}

// ParseText accepts only '0' and '1'. Anything else is ErrMalformedInput.
func ParseText(s string) (huffman.Bits, error) {
	out := make(huffman.Bits, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '0':
			out[i] = 0
		case '1':
			out[i] = 1
		default:
			return nil, fmt.Errorf("%w: character %q at offset %d", huffman.ErrMalformedInput, s[i], i)
		}
	}
	return out, nil
}

func WriteText(w io.Writer, bits huffman.Bits) error {
	for i, b := range bits {
		if b > 1 {
			return fmt.Errorf("%w: bit %d is %d", huffman.ErrMalformedInput, i, b)
		}
	}
	_, err := io.WriteString(w, FormatText(bits))
	return err
}

// ReadText reads n characters of text form. The buffer grows with the data actually read.
func ReadText(r io.Reader, n int64) (huffman.Bits, error) {
	if n < 0 {
		return nil, errNegativeCount
	}
	buf, err := io.ReadAll(io.LimitReader(r, n))
	if err != nil {
		return nil, err
	}
	if got := int64(len(buf)); got < n {
		return nil, fmt.Errorf("%w: payload holds %d of %d bits", huffman.ErrTruncatedStream, got, n)
	}
	return ParseText(string(buf))
}
