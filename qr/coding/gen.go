//go:build ignore

package main

import (
	"bufio"
	"fmt"
	"os"
)

// Capacities of the tool site's encoder, in characters, for levels
// L, M, Q and H.  These are not the ISO/IEC 18004 per-level figures:
// the site's table holds the level L capacities of the numeric,
// alphanumeric, byte and kanji modes in that order.  The encoder uses
// them as published.
var capacity = [11][4]int{
	{0, 0, 0, 0},
	{41, 25, 17, 10}, // 1
	{77, 47, 32, 20},
	{127, 77, 53, 32},
	{187, 114, 78, 46},
	{255, 154, 106, 60}, // 5
	{322, 195, 134, 74},
	{370, 224, 154, 86},
	{461, 279, 192, 108},
	{552, 335, 230, 130},
	{652, 395, 271, 150}, // 10
}

// EC blocks: codewords per block, blocks, data codewords per block,
// blocks in group 2.
var ecBlocks = [11][4]int{
	{0, 0, 0, 0},
	{7, 1, 19, 0}, // 1
	{10, 1, 34, 0},
	{15, 1, 55, 0},
	{20, 1, 80, 0},
	{26, 1, 108, 0}, // 5
	{18, 2, 68, 0},
	{20, 2, 78, 0},
	{24, 2, 97, 0},
	{30, 2, 116, 0},
	{18, 2, 68, 2}, // 10
}

func main() {
	w := bufio.NewWriter(os.Stdout)
	fmt.Fprint(w, `// generated by go run gen.go | gofmt; DO NOT EDIT

package coding

// Version table.
var vtab = [MaxVersion + 1]version{
`)
	for v := 1; v < len(capacity); v++ {
		c, b := capacity[v], ecBlocks[v]
		fmt.Fprintf(w, "\t%d: {[4]int{%d, %d, %d, %d}, Block{%d, %d, %d, %d}},\n",
			v, c[0], c[1], c[2], c[3], b[0], b[1], b[2], b[3])
	}
	fmt.Fprintln(w, "}")
	w.Flush()
}
