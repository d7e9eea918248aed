// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qr

import (
	"image"
	"strings"
	"testing"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codelithlabs/tools/qr/coding"
)

// scan decodes the QR code in img.
func scan(img image.Image) (string, error) {
	bmp, err := gozxing.NewBinaryBitmap(
		gozxing.NewHybridBinarizer(gozxing.NewLuminanceSourceFromImage(img)))
	if err != nil {
		return "", err
	}
	res, err := qrcode.NewQRCodeReader().Decode(bmp, nil)
	if err != nil {
		return "", err
	}
	return res.GetText(), nil
}

func renderForScan(c *Code) image.Image {
	return c.Image(RenderOptions{Size: (c.Size + 8) * 4, Border: 4})
}

func TestEncodeStandardScans(t *testing.T) {
	for _, tt := range []struct {
		text  string
		level Level
	}{
		{"HELLO", M},
		{"123456", L},
		{"HELLO WORLD", Q},
		{"https://example.com/tools/qr-code-generator?ref=test", H},
		{strings.Repeat("The quick brown fox. ", 20), M},
	} {
		c, err := EncodeStandard(tt.text, tt.level)
		require.NoError(t, err, "%q", tt.text)
		assert.Equal(t, int(c.Version)*4+17, c.Size)
		assert.Equal(t, tt.level, c.Level)
		assert.Equal(t, coding.DetectMode(tt.text), c.Mode)
		checkFinders(t, c)
		got, err := scan(renderForScan(c))
		require.NoError(t, err, "%q", tt.text)
		assert.Equal(t, tt.text, got)
	}
}

func TestEncodeStandardLarge(t *testing.T) {
	c, err := EncodeStandard(strings.Repeat("x", 1000), L)
	require.NoError(t, err)
	assert.Greater(t, c.Version, coding.MaxVersion)

	_, err = EncodeStandard(strings.Repeat("x", 5000), H)
	assert.ErrorIs(t, err, ErrTooLong)
	_, err = EncodeStandard("x", Level(5))
	assert.Equal(t, coding.ErrLevel, err)
}

// The reference encoder omits error correction and format
// information; conformant readers reject its symbols.
func TestEncodeReferenceDoesNotScan(t *testing.T) {
	c, err := Encode("HELLO", M)
	require.NoError(t, err)
	_, err = scan(renderForScan(c))
	assert.Error(t, err)
}
