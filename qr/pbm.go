// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qr

import (
	"bufio"
	"encoding/binary"
	"io"
	"strconv"
)

// EncodePBM writes a Portable Bit Map image displaying the code to w,
// for use with netpbm.  Each module is scale pixels on a side and the
// quiet zone is border modules wide.  PBM has no palette; reverse
// swaps black and white.
func (c *Code) EncodePBM(w io.Writer, scale, border int, reverse bool) error {
	if w == nil || !c.isValid() || scale < 1 || border < 0 {
		return ErrArgs
	}
	siz := c.Size
	length := scale * (siz + border*2)
	if length > MaxSize*8 {
		return ErrArgs
	}
	b := bufio.NewWriter(w)
	ls := strconv.Itoa(length)
	if _, err := b.WriteString("P4\n" + ls + " " + ls + "\n"); err != nil {
		return err
	}
	row := make([]byte, (length+7)/8)
	var white byte
	if reverse {
		white = 255
		for i := range row {
			row[i] = white
		}
	}
	for i := 0; i < scale*border; i++ {
		if _, err := b.Write(row); err != nil {
			return err
		}
	}
	data := row[scale*border/8 : (scale*(siz+border)+7)/8]
	slen := scale * border & 7
	stride := c.Stride
	bitmap := c.Bitmap[:stride*siz]
	for len(bitmap) >= stride {
		srow := bitmap[:stride]
		bitmap = bitmap[stride:]
		if scale == 8 && slen == 0 {
			pbmRow8(data, srow, white)
		} else {
			pbmRow(data, srow, scale, white, slen)
		}
		for i := 0; i < scale; i++ {
			if _, err := b.Write(row); err != nil {
				return err
			}
		}
	}
	if border != 0 {
		for i := range row {
			row[i] = white
		}
		for i := 0; i < scale*border; i++ {
			if _, err := b.Write(row); err != nil {
				return err
			}
		}
	}
	return b.Flush()
}

// pbmRow8 encodes a row of QR data pixels in PBM format at scale 8.
func pbmRow8(row, srow []byte, white byte) {
	var b uint64
	for _, v := range srow {
		v ^= white
		for i := 0; i < 8; i++ {
			b = b<<8 | uint64(-(v & 1))
			v >>= 1
		}
		if len(row) < 8 {
			break
		}
		binary.LittleEndian.PutUint64(row, b)
		row = row[8:]
	}
	for i := range row {
		row[i] = byte(b)
		b >>= 8
	}
}

// pbmRow encodes a row of QR data pixels in PBM format, starting slen
// bits into the first byte of row.
func pbmRow(row, srow []byte, scale int, white byte, slen int) {
	j := 0
	z := white
	if scale == 1 {
		for _, v := range srow {
			if j >= len(row) {
				return
			}
			row[j] = z ^ v>>slen
			z = v<<(8-slen) ^ white
			j++
		}
		if j < len(row) {
			row[j] = z
		}
		return
	}
	nz := slen
	for _, v := range srow {
		v ^= white
		for i := 0; i < 8; i++ {
			bits := byte(int8(v) >> 7)
			v <<= 1
			shift := min(8-nz, scale)
			z = z<<shift | bits>>(8-shift)
			for nz += scale; nz >= 8; nz -= 8 {
				if j >= len(row) {
					return
				}
				row[j] = z
				z = bits
				j++
			}
		}
	}
}
