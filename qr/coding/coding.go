// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package coding implements the low-level details of the reference QR
// encoder: capacity tables, segment bitstreams and module placement.
//
// The reference encoder covers versions 1 to 10 and places the padded
// data bitstream without error correction codewords, format or
// version information.  Symbols it produces carry the QR function
// patterns but are generally not decodable by conformant readers.
package coding // import "github.com/codelithlabs/tools/qr/coding"

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/skip2/go-qrcode/bitset"
)

var (
	ErrLevel   = errors.New("qr: invalid level")
	ErrVersion = errors.New("qr: invalid version")
)

// A Version represents a QR version.
// The version specifies the size of the QR code:
// a QR code with version v has 4v+17 modules on a side.
// The reference encoder supports versions 1 to 10.
type Version int

// Supported versions.
const (
	MinVersion Version = 1  // Minimum QR version
	MaxVersion Version = 10 // Maximum QR version of the reference encoder
)

func (v Version) String() string { return strconv.Itoa(int(v)) }

// IsValid reports whether v is a version supported by the reference
// encoder.
func (v Version) IsValid() bool { return MinVersion <= v && v <= MaxVersion }

// Size returns the number of modules on a side of a version v symbol.
func (v Version) Size() int { return int(v)*4 + 17 }

// Capacity returns the data capacity in characters of version v at
// level l.  v and l must be valid.
func (v Version) Capacity(l Level) int { return vtab[v].capacity[l] }

// DataBits returns the length in bits of the padded bitstream for
// version v at level l.
func (v Version) DataBits(l Level) int { return v.Capacity(l) * 8 }

// Block returns the error correction block structure of version v.
// The reference encoder does not compute error correction codewords;
// the structure is informational.
func (v Version) Block() Block { return vtab[v].block }

// A Block describes the error correction blocks of a version.
type Block struct {
	Check  int // error correction codewords per block
	Blocks int // number of blocks
	Data   int // data codewords per block
	Group2 int // number of blocks in group 2
}

// A version describes metadata associated with a version.
type version struct {
	capacity [4]int // characters for L, M, Q, H
	block    Block
}

// ChooseVersion returns the smallest version whose capacity at level l
// holds n characters.  If no version does, ChooseVersion returns
// MaxVersion and false.
func ChooseVersion(n int, l Level) (Version, bool) {
	for v := MinVersion; v <= MaxVersion; v++ {
		if v.Capacity(l) >= n {
			return v, true
		}
	}
	return MaxVersion, false
}

// A Level represents a QR error correction level.
// From least to most tolerant of errors, they are L, M, Q, H.
type Level int

const (
	L Level = iota // about 7% recoverable
	M              // about 15% recoverable
	Q              // about 25% recoverable
	H              // about 30% recoverable
)

func (l Level) String() string {
	if l.IsValid() {
		return "LMQH"[l : l+1]
	}
	return strconv.Itoa(int(l))
}

// IsValid reports whether l is one of L, M, Q and H.
func (l Level) IsValid() bool { return L <= l && l <= H }

// Recovery returns the approximate percentage of damaged symbol a
// conformant reader can restore at level l.
func (l Level) Recovery() int { return [...]int{7, 15, 25, 30}[l] }

// ParseLevel parses a level name, case insensitively.
func ParseLevel(s string) (Level, error) {
	if len(s) == 1 {
		if i := strings.IndexByte("LMQHlmqh", s[0]); i >= 0 {
			return Level(i & 3), nil
		}
	}
	return 0, fmt.Errorf("%w %q", ErrLevel, s)
}

// Encoding modes.
const (
	Numeric      Mode = iota // digits 0-9
	Alphanumeric             // digits, A-Z, space and $%*+-./:
	Byte                     // any byte
)

// A Mode is a QR segment encoding mode.
type Mode int

type modeInfo struct {
	name      string
	indicator uint32 // 4 bit mode indicator
	count     int    // character count field length
}

var modes = [...]modeInfo{
	Numeric:      {"numeric", 1, 10},
	Alphanumeric: {"alphanumeric", 2, 9},
	Byte:         {"byte", 4, 8},
}

func (m Mode) valid() bool { return Numeric <= m && m <= Byte }

func (m Mode) String() string {
	if m.valid() {
		return modes[m].name
	}
	return strconv.Itoa(int(m))
}

// Indicator returns the 4 bit mode indicator.
func (m Mode) Indicator() uint32 { return modes[m].indicator }

// CountLength returns the length in bits of the character count field.
func (m Mode) CountLength() int { return modes[m].count }

const (
	alphamask uint64 = 0x07fffffe_07ffec31 // SPACE $% *+ -./ [0-9] : [A-Z]
	digitmask uint64 = 0x00000000_03ff0000 // [0-9]
)

// Alphanumeric encoding table, indexed by the low 6 bits of a valid byte.
// "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ $%*+-./:"
var alpha = [64]byte{
	00, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20, 21, 22, 23, 24, // 0x40
	25, 26, 27, 28, 29, 30, 31, 32, 33, 34, 35, 00, 00, 00, 00, 00, // 0x50
	36, 00, 00, 00, 37, 38, 00, 00, 00, 00, 39, 40, 00, 41, 42, 43, // 0x20
	00, 01, 02, 03, 04, 05, 06, 07, 8, 9, 44, 00, 00, 00, 00, 00, // 0x30
}

// Is reports whether the byte c is encodable in mode.
func Is(c byte, mode Mode) bool {
	bit := uint64(1) << (uint(c) - ' ')
	switch mode {
	case Numeric:
		return digitmask&bit != 0
	case Alphanumeric:
		return alphamask&bit != 0
	}
	return mode == Byte
}

// DetectMode returns the first of Numeric, Alphanumeric and Byte that
// can encode every byte of text.  The empty string is Byte.
func DetectMode(text string) Mode {
	if text == "" {
		return Byte
	}
	m := Numeric
	for i := 0; i < len(text); i++ {
		bit := uint64(1) << (uint(text[i]) - ' ')
		if digitmask&bit != 0 {
			continue
		}
		if alphamask&bit == 0 {
			return Byte
		}
		m = Alphanumeric
	}
	return m
}

// A Segment describes a QR code segment.
type Segment struct {
	Text string // data to encode
	Mode Mode   // encoding mode
}

// SegmentError represents an invalid Segment.
type SegmentError Segment

func (e SegmentError) Error() string {
	if e.Mode.valid() {
		return fmt.Sprintf("qr: non-%s string %#q", e.Mode, e.Text)
	}
	return fmt.Sprintf("qr: invalid mode %d", e.Mode)
}

// IsValid reports whether seg is encodable.
func (seg Segment) IsValid() bool {
	if !seg.Mode.valid() {
		return false
	}
	for i := 0; i < len(seg.Text); i++ {
		if !Is(seg.Text[i], seg.Mode) {
			return false
		}
	}
	return true
}

// Encode appends the mode indicator, character count and data of seg
// to b.  A count too long for its field is truncated to the field.
func (seg Segment) Encode(b *bitset.Bitset) error {
	if !seg.IsValid() {
		return SegmentError(seg)
	}
	s := seg.Text
	n := seg.Mode.CountLength()
	b.AppendUint32(seg.Mode.Indicator(), 4)
	b.AppendUint32(uint32(len(s))&(1<<n-1), n)
	switch seg.Mode {
	case Numeric:
		for ; len(s) >= 3; s = s[3:] {
			b.AppendUint32(uint32(s[0]-'0')*100+
				uint32(s[1]-'0')*10+uint32(s[2]-'0'), 10)
		}
		switch len(s) {
		case 2:
			b.AppendUint32(uint32(s[0]-'0')*10+uint32(s[1]-'0'), 7)
		case 1:
			b.AppendUint32(uint32(s[0]-'0'), 4)
		}
	case Alphanumeric:
		for ; len(s) >= 2; s = s[2:] {
			b.AppendUint32(uint32(alpha[s[0]&0x3f])*45+
				uint32(alpha[s[1]&0x3f]), 11)
		}
		if len(s) == 1 {
			b.AppendUint32(uint32(alpha[s[0]&0x3f]), 6)
		}
	default:
		b.AppendBytes([]byte(s))
	}
	return nil
}

// Pad appends a 4 bit terminator to b, zero bits up to a byte boundary
// and alternating pad bytes 11101100 and 00010001 until b holds n bits.
// The terminator and the alignment are written even if b already holds
// n bits or more.
func Pad(b *bitset.Bitset, n int) {
	b.AppendNumBools(4, false)
	if r := b.Len() & 7; r != 0 {
		b.AppendNumBools(8-r, false)
	}
	pad := [2]byte{0xec, 0x11}
	for i := 0; b.Len() < n; i ^= 1 {
		b.AppendByte(pad[i], 8)
	}
}

// Bitstream returns the padded bitstream of seg for version v and
// level l.
func Bitstream(seg Segment, v Version, l Level) (*bitset.Bitset, error) {
	if !l.IsValid() {
		return nil, ErrLevel
	}
	if !v.IsValid() {
		return nil, ErrVersion
	}
	b := bitset.New()
	if err := seg.Encode(b); err != nil {
		return nil, err
	}
	Pad(b, v.DataBits(l))
	return b, nil
}
