package huffman_test

import (
	"fmt"

	"github.com/KitchenMishap/pudding-prefixcode/huffman"
)

func ExampleEncodeText() {
	cb, bits, err := huffman.EncodeText("aabbc")
	if err != nil {
		panic(err)
	}
	for _, s := range cb.Table.Symbols() {
		fmt.Printf("%c: %s\n", rune(s), cb.Table[s])
	}
	fmt.Println(bits)

	symbols, err := cb.Decode(bits)
	if err != nil {
		panic(err)
	}
	fmt.Println(huffman.Text(symbols))
	// Output:
	// a: 11
	// b: 0
	// c: 10
	// 11110010
	// aabbc
}
