// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coding

import (
	"sync"

	"github.com/skip2/go-qrcode/bitset"
)

// A Code is a square pixel grid.
type Code struct {
	Bitmap []byte // 1 is black, 0 is white
	Size   int    // number of pixels on a side
	Stride int    // number of bytes per row
}

func newCode(siz int) Code {
	stride := (siz + 7) >> 3
	return Code{make([]byte, stride*siz), siz, stride}
}

// Black reports whether the pixel at (x, y) is black.
// Pixels outside the grid are white.
func (c *Code) Black(x, y int) bool {
	return 0 <= x && x < c.Size && 0 <= y && y < c.Size &&
		c.Bitmap[y*c.Stride+x/8]&(1<<uint(7&^x)) != 0
}

func (c *Code) set(x, y int, black bool) {
	if x < 0 || x >= c.Size || y < 0 || y >= c.Size {
		return
	}
	off, bit := y*c.Stride+x/8, byte(1)<<uint(7&^x)
	if black {
		c.Bitmap[off] |= bit
	} else {
		c.Bitmap[off] &^= bit
	}
}

func (c *Code) clone() *Code {
	cc := *c
	cc.Bitmap = append([]byte(nil), c.Bitmap...)
	return &cc
}

// A Plan describes the function patterns of a symbol of a specific
// version and the modules left for data.
type Plan struct {
	Version Version // QR code version
	Size    int     // number of pixels on a side

	Pattern Code // finder, alignment and timing patterns, dark module
	Map     Code // reserved modules: 1 is reserved, 0 is data
}

// Plans are created the first time a version is used and shared
// afterwards.  They must not be modified.
var plans [MaxVersion + 1]struct {
	once sync.Once
	p    *Plan
}

// NewPlan returns the Plan for a symbol of the given version.
func NewPlan(version Version) (*Plan, error) {
	if !version.IsValid() {
		return nil, ErrVersion
	}
	p := &plans[version]
	p.once.Do(func() { p.p = vplan(version) })
	return p.p, nil
}

// vplan creates a Plan for the given version.
func vplan(v Version) *Plan {
	siz := v.Size()
	p := &Plan{
		Version: v,
		Size:    siz,
		Pattern: newCode(siz),
		Map:     newCode(siz),
	}

	// Position boxes with their separators.
	finderBox(&p.Pattern, 0, 0)
	finderBox(&p.Pattern, siz-7, 0)
	finderBox(&p.Pattern, 0, siz-7)

	// One alignment box in the bottom right quadrant.
	if v >= 2 {
		c := int(v)*4 + 10
		alignBox(&p.Pattern, c, c)
	}

	// Timing markers between the position boxes.
	for i := 8; i < siz-8; i++ {
		p.Pattern.set(i, 6, i&1 == 0)
		p.Pattern.set(6, i, i&1 == 0)
	}

	// One lonely black pixel.
	p.Pattern.set(8, int(v)*4+9, true)

	for y := 0; y < siz; y++ {
		for x := 0; x < siz; x++ {
			if p.Reserved(x, y) {
				p.Map.set(x, y, true)
			}
		}
	}
	return p
}

// finderBox draws a position (big) box with its separator at upper
// left x, y.  Pixels outside the grid are skipped.
func finderBox(c *Code, x, y int) {
	for dy := -1; dy <= 7; dy++ {
		for dx := -1; dx <= 7; dx++ {
			ring := max(abs(dx-3), abs(dy-3))
			c.set(x+dx, y+dy, ring <= 1 || ring == 3)
		}
	}
}

// alignBox draws an alignment (small) box centred at x, y.
func alignBox(c *Code, x, y int) {
	for dy := -2; dy <= 2; dy++ {
		for dx := -2; dx <= 2; dx++ {
			ring := max(abs(dx), abs(dy))
			c.set(x+dx, y+dy, ring != 1)
		}
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// Reserved reports whether the pixel at (x, y) belongs to a position
// box area or a timing strip and is therefore skipped by Serialise.
// The alignment box is not reserved.
func (p *Plan) Reserved(x, y int) bool {
	siz := p.Size
	return y < 9 && x < 9 ||
		y < 9 && x >= siz-8 ||
		y >= siz-8 && x < 9 ||
		y == 6 || x == 6
}

// Serialise writes bits from s to c in zigzag scan order, skipping
// reserved pixels.  Each placed bit sets or clears its pixel; pixels
// past the end of s are left alone.  c must have the plan's size.
func (p *Plan) Serialise(s *bitset.Bitset, c *Code) {
	siz := p.Size
	n := s.Len()
	i := 0
	up := true
	for x := siz - 1; x > 0; x -= 2 {
		if x == 6 { // vertical timing strip
			x--
		}
		for k := 0; k < siz; k++ {
			y := k
			if up {
				y = siz - 1 - k
			}
			for dx := 0; dx < 2; dx++ {
				if p.Reserved(x-dx, y) {
					continue
				}
				if i < n {
					c.set(x-dx, y, s.At(i))
				}
				i++
			}
		}
		up = !up
	}
}

// Encode returns the symbol holding seg at version v and level l: the
// padded bitstream placed over the version's function patterns.
func Encode(v Version, l Level, seg Segment) (*Code, error) {
	p, err := NewPlan(v)
	if err != nil {
		return nil, err
	}
	b, err := Bitstream(seg, v, l)
	if err != nil {
		return nil, err
	}
	c := p.Pattern.clone()
	p.Serialise(b, c)
	return c, nil
}
