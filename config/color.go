// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// A Color is a colour read from configuration, a command line or a
// query string.
type Color struct {
	color.NRGBA
}

var (
	Black = Color{color.NRGBA{0x00, 0x00, 0x00, 0xff}}
	White = Color{color.NRGBA{0xff, 0xff, 0xff, 0xff}}
)

// ParseColor parses 3, 4, 6 or 8 hex digits (RGB, RGBA, RRGGBB or
// RRGGBBAA), optionally prefixed with '#', or an SVG colour name.
func ParseColor(s string) (Color, error) {
	name := strings.ToLower(strings.ReplaceAll(s, " ", ""))
	if c, ok := colornames.Map[name]; ok {
		return Color{color.NRGBA{c.R, c.G, c.B, c.A}}, nil
	}
	h := strings.TrimPrefix(s, "#")
	n, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("%q: bad colour spec", s)
	}
	switch len(h) {
	case 3:
		n = n<<4 | 0xf
		fallthrough
	case 4:
		var nn uint64
		for i := 0; i < 4; i++ {
			nn <<= 8
			nn |= n >> 12 & 0xf * 0x11
			n <<= 4
		}
		n = nn
	case 6:
		n = n<<8 | 0xff
	case 8:
	default:
		return Color{}, fmt.Errorf("%q: bad colour spec", s)
	}
	return Color{color.NRGBA{uint8(n >> 24), uint8(n >> 16), uint8(n >> 8), uint8(n)}}, nil
}

func (c Color) String() string {
	switch {
	case c == Black:
		return "black"
	case c == White:
		return "white"
	case c.A == 0xff:
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Color) UnmarshalText(b []byte) error {
	v, err := ParseColor(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (c Color) MarshalText() ([]byte, error) { return []byte(c.String()), nil }
