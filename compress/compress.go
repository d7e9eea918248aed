// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package compress re-encodes images as JPEG at a chosen quality.

Compress decodes an image into a bitmap, draws it unscaled onto a
surface of the same size, releases the bitmap and encodes the surface.
The output always has the pixel dimensions of the input; only quality,
and with it the byte size, changes.  A Worker runs Compress off the
caller's goroutine and answers every accepted Request exactly once.
*/
package compress // import "github.com/codelithlabs/tools/compress"

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"sync"
	"sync/atomic"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // register WebP decoder
)

var (
	ErrUnavailable = errors.New("compress: worker unavailable")
	ErrDecode      = errors.New("compress: cannot decode image")
	ErrSurface     = errors.New("compress: cannot allocate drawing surface")
	ErrQuality     = errors.New("compress: quality out of range [0, 1]")
	ErrTooLarge    = errors.New("compress: file too large")
	ErrSuperseded  = errors.New("compress: superseded by a newer request")
)

const (
	DefaultMaxFileBytes = 15 << 20 // upload limit of the compressor page
	DefaultMaxPixels    = 50e6     // about 200 MB of surface
)

// Limits bound the resources a single Compress call may use.
// Zero values select the defaults.
type Limits struct {
	MaxFileBytes int64 `yaml:"max-file-bytes"`
	MaxPixels    int64 `yaml:"max-pixels"`
}

func (l Limits) norm() Limits {
	if l.MaxFileBytes <= 0 {
		l.MaxFileBytes = DefaultMaxFileBytes
	}
	if l.MaxPixels <= 0 {
		l.MaxPixels = DefaultMaxPixels
	}
	return l
}

// A Result is a compressed image.
type Result struct {
	Blob    []byte // JPEG data
	Width   int    // pixels, equal to the input's
	Height  int    // pixels, equal to the input's
	Format  string // input format name, as registered with package image
	Quality int    // JPEG quality, 1 to 100
}

// JPEGQuality maps quality in [0, 1] to the JPEG quality scale.
func JPEGQuality(quality float64) int {
	return min(max(int(math.Round(quality*100)), 1), 100)
}

var liveBitmaps atomic.Int64

// LiveBitmaps returns the number of decoded bitmaps not yet released.
func LiveBitmaps() int64 { return liveBitmaps.Load() }

// A bitmap is a decoded image owned by one Compress call.
type bitmap struct {
	img  image.Image
	once sync.Once
}

func decodeBitmap(file []byte) (*bitmap, error) {
	img, err := imaging.Decode(bytes.NewReader(file))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	liveBitmaps.Add(1)
	return &bitmap{img: img}, nil
}

// Close releases the bitmap.  It may be called more than once.
func (b *bitmap) Close() {
	b.once.Do(func() {
		b.img = nil
		liveBitmaps.Add(-1)
	})
}

// newSurface allocates a transparent drawing surface.
func newSurface(w, h int) (s *image.NRGBA, err error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrSurface, w, h)
	}
	defer func() {
		if p := recover(); p != nil {
			s, err = nil, fmt.Errorf("%w: %dx%d: %v", ErrSurface, w, h, p)
		}
	}()
	return imaging.New(w, h, color.Transparent), nil
}

// Compress re-encodes file as a JPEG image at quality, from 0.0 to 1.0.
// The decoded bitmap is released before encoding and on every error
// path.
func Compress(ctx context.Context, file []byte, quality float64, lim Limits) (*Result, error) {
	if math.IsNaN(quality) || quality < 0 || quality > 1 {
		return nil, fmt.Errorf("%w: %g", ErrQuality, quality)
	}
	lim = lim.norm()
	if int64(len(file)) > lim.MaxFileBytes {
		return nil, fmt.Errorf("%w: %d bytes, limit %d",
			ErrTooLarge, len(file), lim.MaxFileBytes)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(file))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 ||
		int64(cfg.Width)*int64(cfg.Height) > lim.MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d image", ErrSurface,
			cfg.Width, cfg.Height)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bm, err := decodeBitmap(file)
	if err != nil {
		return nil, err
	}
	defer bm.Close()
	r := bm.img.Bounds()
	surface, err := newSurface(r.Dx(), r.Dy())
	if err != nil {
		return nil, err
	}
	draw.Draw(surface, surface.Bounds(), bm.img, r.Min, draw.Over)
	bm.Close()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	q := JPEGQuality(quality)
	var b bytes.Buffer
	if err := imaging.Encode(&b, surface, imaging.JPEG, imaging.JPEGQuality(q)); err != nil {
		return nil, fmt.Errorf("compress: encode: %w", err)
	}
	return &Result{
		Blob:    b.Bytes(),
		Width:   r.Dx(),
		Height:  r.Dy(),
		Format:  format,
		Quality: q,
	}, nil
}
