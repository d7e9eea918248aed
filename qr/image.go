// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qr

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"io"
	"strings"

	"github.com/disintegration/imaging"
)

const (
	DefaultSize = 256          // default image pixels on a side
	MaxSize     = 4096         // largest image rendered
	Filename    = "qrcode.png" // download file name
)

// RenderOptions describe how a Code is drawn.
type RenderOptions struct {
	Size       int         // image pixels on a side [DefaultSize]
	Foreground color.Color // colour of black modules [black]
	Background color.Color // colour of white modules and border [white]
	Border     int         // quiet zone modules on each side
	Reverse    bool        // swap foreground and background
}

// norm returns o with defaults filled in for a code of siz modules.
// The size is raised to one pixel per module and capped at MaxSize.
func (o RenderOptions) norm(siz int) RenderOptions {
	o.Border = max(o.Border, 0)
	if o.Size <= 0 {
		o.Size = DefaultSize
	}
	o.Size = min(max(o.Size, siz+2*o.Border), MaxSize)
	if o.Foreground == nil {
		o.Foreground = color.Black
	}
	if o.Background == nil {
		o.Background = color.White
	}
	if o.Reverse {
		o.Foreground, o.Background = o.Background, o.Foreground
	}
	return o
}

// Image returns an image displaying the code.  Module i of the n
// modules on a side, counting the border, spans pixels from i*Size/n
// to (i+1)*Size/n, so the modules tile the image exactly.
func (c *Code) Image(opt RenderOptions) *image.NRGBA {
	opt = opt.norm(c.Size)
	siz, bord, pix := c.Size, opt.Border, opt.Size
	n := siz + 2*bord
	img := imaging.New(pix, pix, opt.Background)
	fg := image.NewUniform(opt.Foreground)
	for y := 0; y < siz; y++ {
		y0, y1 := (y+bord)*pix/n, (y+bord+1)*pix/n
		for x := 0; x < siz; {
			for x < siz && !c.Black(x, y) {
				x++
			}
			if x == siz {
				break
			}
			b := x
			for x < siz && c.Black(x, y) {
				x++
			}
			r := image.Rect((b+bord)*pix/n, y0, (x+bord)*pix/n, y1)
			draw.Draw(img, r, fg, image.Point{}, draw.Src)
		}
	}
	return img
}

// EncodePNG writes a PNG image displaying the code to w.
func (c *Code) EncodePNG(w io.Writer, opt RenderOptions) error {
	if w == nil || !c.isValid() {
		return ErrArgs
	}
	return imaging.Encode(w, c.Image(opt), imaging.PNG)
}

// PNG returns a PNG image displaying the code.
func (c *Code) PNG(opt RenderOptions) ([]byte, error) {
	var b bytes.Buffer
	if err := c.EncodePNG(&b, opt); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// String returns the code drawn with UTF-8 half blocks, two rows of
// modules per line, light on dark as on most terminals, with a quiet
// zone of 4 modules.
func (c *Code) String() string {
	const bord = 4
	var b strings.Builder
	for y := -bord; y < c.Size+bord; y += 2 {
		for x := -bord; x < c.Size+bord; x++ {
			n := 0
			if c.Black(x, y) {
				n = 2
			}
			if c.Black(x, y+1) {
				n++
			}
			b.WriteString([4]string{"█", "▀", "▄", " "}[n])
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// ASCII returns the code drawn with two '#' characters per black
// module and spaces, with a quiet zone of border modules.
func (c *Code) ASCII(border int) string {
	border = max(border, 0)
	pix := c.Size + 2*border
	b := make([]byte, (pix*2+1)*pix)
	i := 0
	for y := -border; y < c.Size+border; y++ {
		for x := -border; x < c.Size+border; x++ {
			var p byte = ' '
			if c.Black(x, y) {
				p = '#'
			}
			_ = b[i+1]
			b[i], b[i+1] = p, p
			i += 2
		}
		b[i] = '\n'
		i++
	}
	return string(b)
}
