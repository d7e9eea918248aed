// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qr

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/codelithlabs/tools/qr/coding"
)

var recoveryLevels = [...]qrcode.RecoveryLevel{
	L: qrcode.Low,
	M: qrcode.Medium,
	Q: qrcode.High,
	H: qrcode.Highest,
}

// EncodeStandard returns a conformant encoding of text at the given
// error correction level, with Reed-Solomon error correction, the best
// mask and format and version information.  Unlike Encode it supports
// versions 1 to 40 and fails with ErrTooLong on text that does not fit.
//
// Version and Mode of the returned Code describe the symbol; Mode is
// the mode Encode would pick, the symbol itself may mix segments.
func EncodeStandard(text string, level Level) (*Code, error) {
	if !level.IsValid() {
		return nil, coding.ErrLevel
	}
	if text == "" {
		return nil, ErrEmpty
	}
	q, err := qrcode.New(text, recoveryLevels[level])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTooLong, err)
	}
	bm := q.Bitmap()
	siz := q.VersionNumber*4 + 17
	bord := (len(bm) - siz) / 2
	if bord < 0 {
		return nil, fmt.Errorf("qr: unexpected %dx%d symbol for version %d",
			len(bm), len(bm), q.VersionNumber)
	}
	stride := (siz + 7) >> 3
	bitmap := make([]byte, stride*siz)
	for y := 0; y < siz; y++ {
		row := bm[y+bord]
		for x := 0; x < siz; x++ {
			if row[x+bord] {
				bitmap[y*stride+x/8] |= 1 << uint(7&^x)
			}
		}
	}
	return &Code{
		Bitmap:  bitmap,
		Size:    siz,
		Stride:  stride,
		Version: coding.Version(q.VersionNumber),
		Mode:    coding.DetectMode(text),
		Level:   level,
	}, nil
}
