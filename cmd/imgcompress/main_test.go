package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutputName(t *testing.T) {
	assert.Equal(t, "photo-compressed.jpg", outputName("photo.png"))
	assert.Equal(t, "dir.d/a.b-compressed.jpg", outputName("dir.d/a.b.webp"))
	assert.Equal(t, "raw-compressed.jpg", outputName("raw"))
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "0 B", formatSize(0))
	assert.Equal(t, "1023 B", formatSize(1023))
	assert.Equal(t, "1.5 KB", formatSize(1536))
	assert.Equal(t, "15.00 MB", formatSize(15<<20))
}
