// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coding

import (
	"errors"
	"strings"
	"testing"

	"github.com/skip2/go-qrcode/bitset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bits(s string) *bitset.Bitset { return bitset.NewFromBase2String(s) }

func TestDetectMode(t *testing.T) {
	for _, tt := range []struct {
		text string
		mode Mode
	}{
		{"", Byte},
		{"0", Numeric},
		{"123456", Numeric},
		{"01234567890123456789", Numeric},
		{"HELLO WORLD", Alphanumeric},
		{"AC-42", Alphanumeric},
		{" $%*+-./:", Alphanumeric},
		{"12A", Alphanumeric},
		{"Hello", Byte},
		{"HELLO\n", Byte},
		{"HELLO!", Byte},
		{"https://example.com", Byte},
		{"été", Byte},
		{"123\x00", Byte},
		{"~", Byte},
	} {
		assert.Equal(t, tt.mode, DetectMode(tt.text), "%q", tt.text)
	}
}

func TestIs(t *testing.T) {
	for c := 0; c < 256; c++ {
		b := byte(c)
		digit := '0' <= b && b <= '9'
		alnum := digit || 'A' <= b && b <= 'Z' ||
			strings.IndexByte(" $%*+-./:", b) >= 0
		assert.Equal(t, digit, Is(b, Numeric), "numeric %#x", c)
		assert.Equal(t, alnum, Is(b, Alphanumeric), "alphanumeric %#x", c)
		assert.True(t, Is(b, Byte))
		assert.False(t, Is(b, Mode(7)))
	}
}

func TestChooseVersion(t *testing.T) {
	for _, tt := range []struct {
		n  int
		l  Level
		v  Version
		ok bool
	}{
		{0, L, 1, true},
		{6, L, 1, true},
		{41, L, 1, true},
		{42, L, 2, true},
		{11, M, 1, true},
		{25, M, 1, true},
		{26, M, 2, true},
		{17, Q, 1, true},
		{60, H, 5, true},
		{150, H, 10, true},
		{151, H, 10, false},
		{200, H, 10, false},
		{652, L, 10, true},
		{653, L, 10, false},
	} {
		v, ok := ChooseVersion(tt.n, tt.l)
		assert.Equal(t, tt.v, v, "n=%d level=%v", tt.n, tt.l)
		assert.Equal(t, tt.ok, ok, "n=%d level=%v", tt.n, tt.l)
	}
}

func TestChooseVersionMonotonic(t *testing.T) {
	for l := L; l <= H; l++ {
		last := MinVersion
		for n := 0; n <= 700; n++ {
			v, _ := ChooseVersion(n, l)
			require.GreaterOrEqual(t, v, last, "n=%d level=%v", n, l)
			last = v
		}
	}
}

func TestVersion(t *testing.T) {
	assert.False(t, Version(0).IsValid())
	assert.False(t, Version(11).IsValid())
	for v := MinVersion; v <= MaxVersion; v++ {
		assert.True(t, v.IsValid())
		assert.Equal(t, int(v)*4+17, v.Size())
		assert.Equal(t, v.Capacity(L)*8, v.DataBits(L))
		for l := L; l < H; l++ {
			assert.Greater(t, v.Capacity(l), v.Capacity(l+1))
		}
		if v > MinVersion {
			assert.Greater(t, v.Capacity(H), (v - 1).Capacity(H))
		}
	}
	assert.Equal(t, 21, MinVersion.Size())
	assert.Equal(t, 57, MaxVersion.Size())
	assert.Equal(t, "7", Version(7).String())
	assert.Equal(t, Block{18, 2, 68, 2}, Version(10).Block())
	assert.Equal(t, Block{7, 1, 19, 0}, Version(1).Block())
}

func TestLevel(t *testing.T) {
	assert.Equal(t, "LMQH", L.String()+M.String()+Q.String()+H.String())
	assert.Equal(t, "4", Level(4).String())
	assert.Equal(t, []int{7, 15, 25, 30},
		[]int{L.Recovery(), M.Recovery(), Q.Recovery(), H.Recovery()})
	for i, s := range []string{"L", "M", "Q", "H"} {
		l, err := ParseLevel(s)
		require.NoError(t, err)
		assert.Equal(t, Level(i), l)
		l, err = ParseLevel(strings.ToLower(s))
		require.NoError(t, err)
		assert.Equal(t, Level(i), l)
	}
	for _, s := range []string{"", "X", "LM", "low", "7"} {
		_, err := ParseLevel(s)
		assert.True(t, errors.Is(err, ErrLevel), "%q", s)
	}
}

func TestSegmentEncode(t *testing.T) {
	for _, tt := range []struct {
		seg  Segment
		want string
	}{
		{Segment{"123456", Numeric}, "0001 0000000110 0001111011 0111001000"},
		{Segment{"12", Numeric}, "0001 0000000010 0001100"},
		{Segment{"1234", Numeric}, "0001 0000000100 0001111011 0100"},
		{Segment{"AC-42", Alphanumeric},
			"0010 000000101 00111001110 11100111001 000010"},
		{Segment{"Hi", Byte}, "0100 00000010 01001000 01101001"},
		{Segment{"", Byte}, "0100 00000000"},
	} {
		b := bitset.New()
		require.NoError(t, tt.seg.Encode(b), "%q", tt.seg.Text)
		assert.True(t, bits(tt.want).Equals(b), "%q: got %v", tt.seg.Text, b)
	}
}

func TestSegmentCountTruncated(t *testing.T) {
	b := bitset.New()
	require.NoError(t, Segment{strings.Repeat("a", 257), Byte}.Encode(b))
	assert.True(t, bits("0100 00000001").Equals(b.Substr(0, 12)))
	assert.Equal(t, 12+257*8, b.Len())
}

func TestSegmentError(t *testing.T) {
	for _, seg := range []Segment{
		{"12a", Numeric},
		{"hello", Alphanumeric},
		{"x", Mode(5)},
	} {
		b := bitset.New()
		err := seg.Encode(b)
		var se SegmentError
		require.True(t, errors.As(err, &se), "%q", seg.Text)
		assert.Equal(t, seg, Segment(se))
		assert.Zero(t, b.Len())
		assert.False(t, seg.IsValid())
	}
	assert.Equal(t, "qr: non-numeric string `12a`",
		SegmentError{"12a", Numeric}.Error())
	assert.Equal(t, "qr: invalid mode 5", SegmentError{"x", 5}.Error())
}

func TestPad(t *testing.T) {
	b := bits("0001 0000000110 0001111011 0111001000")
	Pad(b, 64)
	assert.True(t, bits("00010000 00011000 01111011 01110010 00000000 "+
		"11101100 00010001 11101100").Equals(b), "got %v", b)

	// Already full: terminator and alignment only.
	b = bitset.New()
	b.AppendNumBools(100, true)
	Pad(b, 64)
	assert.Equal(t, 104, b.Len())
}

func TestBitstream(t *testing.T) {
	b, err := Bitstream(Segment{"123456", Numeric}, 1, L)
	require.NoError(t, err)
	require.Equal(t, 41*8, b.Len())
	assert.True(t, bits("0001 0000000110").Equals(b.Substr(0, 14)))
	for i := 5; i < 41; i++ {
		want := byte(0xec)
		if i&1 == 0 {
			want = 0x11
		}
		assert.Equal(t, want, b.ByteAt(i*8), "pad byte %d", i)
	}

	_, err = Bitstream(Segment{"1", Numeric}, 11, L)
	assert.Equal(t, ErrVersion, err)
	_, err = Bitstream(Segment{"1", Numeric}, 1, Level(-1))
	assert.Equal(t, ErrLevel, err)
}
