// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package qr encodes QR codes.

Encode implements the tool site's reference encoder: the whole text
goes into one segment in the first of numeric, alphanumeric and byte
modes able to hold it, the smallest version from 1 to 10 whose
capacity fits the text is chosen, and the padded data bitstream is
placed around the finder, alignment and timing patterns.  Error
correction codewords, masking and format information are not
produced, so symbols made by Encode are generally not readable by QR
scanners.  EncodeStandard produces conformant, scannable symbols of
versions 1 to 40 instead.

A Code is immutable and may be rendered as an image (Image, PNG,
EncodePNG), a Portable Bit Map (EncodePBM) or text (String, ASCII).
*/
package qr // import "github.com/codelithlabs/tools/qr"

import (
	"errors"
	"fmt"

	"golang.org/x/text/encoding/charmap"

	"github.com/codelithlabs/tools/qr/coding"
)

// A Level denotes a QR error correction level.
// From least to most tolerant of errors, they are L, M, Q, H.
type Level int

const (
	L Level = iota // about 7% recoverable
	M              // about 15% recoverable
	Q              // about 25% recoverable
	H              // about 30% recoverable
)

func (l Level) String() string { return coding.Level(l).String() }

// IsValid reports whether l is one of L, M, Q and H.
func (l Level) IsValid() bool { return coding.Level(l).IsValid() }

// Recovery returns the approximate percentage of a damaged symbol that
// can be restored at level l.
func (l Level) Recovery() int { return coding.Level(l).Recovery() }

// ParseLevel parses a level name: L, M, Q or H in either case.
func ParseLevel(s string) (Level, error) {
	l, err := coding.ParseLevel(s)
	return Level(l), err
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Level) UnmarshalText(b []byte) error {
	v, err := ParseLevel(string(b))
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (l Level) MarshalText() ([]byte, error) {
	if !l.IsValid() {
		return nil, coding.ErrLevel
	}
	return []byte(l.String()), nil
}

var (
	ErrEmpty   = errors.New("qr: empty text")
	ErrArgs    = errors.New("qr: invalid arguments")
	ErrTooLong = errors.New("qr: text too long")
)

// CapacityError is returned in strict mode for text that does not fit
// the largest supported version.
type CapacityError struct {
	Len   int   // text length in bytes
	Max   int   // capacity of the largest version
	Level Level // error correction level
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("qr: %d bytes exceed capacity %d of version %d-%s",
		e.Len, e.Max, coding.MaxVersion, e.Level)
}

// Options modify the behaviour of EncodeOptions.
type Options struct {
	// Latin1 converts text that needs byte mode from UTF-8 to
	// ISO 8859-1 when every character is representable.
	Latin1 bool
	// Strict fails with a *CapacityError instead of clamping text
	// that does not fit version 10 to that version.
	Strict bool
}

// Encode returns an encoding of text at the given error correction
// level.  Text longer than the capacity of version 10 is clamped to
// version 10 and reported in Code.Overflow.
func Encode(text string, level Level) (*Code, error) {
	return EncodeOptions(text, level, Options{})
}

// EncodeOptions is like Encode with options.
func EncodeOptions(text string, level Level, opt Options) (*Code, error) {
	l := coding.Level(level)
	if !l.IsValid() {
		return nil, coding.ErrLevel
	}
	if text == "" {
		return nil, ErrEmpty
	}
	mode := coding.DetectMode(text)
	if mode == coding.Byte && opt.Latin1 {
		if s, err := charmap.ISO8859_1.NewEncoder().String(text); err == nil {
			text = s
		}
	}
	v, ok := coding.ChooseVersion(len(text), l)
	if !ok && opt.Strict {
		return nil, &CapacityError{len(text), v.Capacity(l), level}
	}
	cc, err := coding.Encode(v, l, coding.Segment{Text: text, Mode: mode})
	if err != nil {
		return nil, err
	}
	return &Code{
		Bitmap:   cc.Bitmap,
		Size:     cc.Size,
		Stride:   cc.Stride,
		Version:  v,
		Mode:     mode,
		Level:    level,
		Overflow: !ok,
	}, nil
}

// A Code is a square pixel grid.  It must not be modified.
type Code struct {
	Bitmap []byte // 1 is black, 0 is white
	Size   int    // number of pixels on a side
	Stride int    // number of bytes per row

	Version  coding.Version // QR version
	Mode     coding.Mode    // segment encoding mode
	Level    Level          // error correction level
	Overflow bool           // text exceeded the capacity and was clamped
}

func (c *Code) isValid() bool {
	return c != nil && c.Size > 0 && c.Stride == (c.Size+7)>>3 &&
		len(c.Bitmap) >= c.Stride*c.Size
}

// Black reports whether the pixel at (x, y) is black.
// Pixels outside the grid are white.
func (c *Code) Black(x, y int) bool {
	return 0 <= x && x < c.Size && 0 <= y && y < c.Size &&
		c.Bitmap[y*c.Stride+x/8]&(1<<uint(7&^x)) != 0
}

// Modules returns the grid as rows of booleans, true for black.
func (c *Code) Modules() [][]bool {
	m := make([][]bool, c.Size)
	cells := make([]bool, c.Size*c.Size)
	for y := range m {
		m[y], cells = cells[:c.Size:c.Size], cells[c.Size:]
		for x := range m[y] {
			m[y][x] = c.Black(x, y)
		}
	}
	return m
}
