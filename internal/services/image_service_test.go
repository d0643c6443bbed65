package services

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeJPEG(t *testing.T, width, height int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func makePNG(t *testing.T, width, height int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func decodeDims(t *testing.T, data []byte) (int, int) {
	img, format, err := image.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	return img.Bounds().Dx(), img.Bounds().Dy()
}

func TestImageService_Recompress(t *testing.T) {
	t.Run("bounds the longest edge preserving aspect ratio", func(t *testing.T) {
		svc := NewImageService(100, 85)

		out, err := svc.Recompress(makeJPEG(t, 400, 200), "wide.jpg")
		require.NoError(t, err)

		width, height := decodeDims(t, out)
		assert.Equal(t, 100, width)
		assert.Equal(t, 50, height)
	})

	t.Run("bounds portrait images by height", func(t *testing.T) {
		svc := NewImageService(100, 85)

		out, err := svc.Recompress(makeJPEG(t, 200, 400), "tall.jpg")
		require.NoError(t, err)

		width, height := decodeDims(t, out)
		assert.Equal(t, 50, width)
		assert.Equal(t, 100, height)
	})

	t.Run("leaves small images at original size", func(t *testing.T) {
		svc := NewImageService(1600, 85)

		out, err := svc.Recompress(makeJPEG(t, 80, 60), "small.jpg")
		require.NoError(t, err)

		width, height := decodeDims(t, out)
		assert.Equal(t, 80, width)
		assert.Equal(t, 60, height)
	})

	t.Run("re-encodes PNG input as JPEG", func(t *testing.T) {
		svc := NewImageService(1600, 85)

		out, err := svc.Recompress(makePNG(t, 120, 90), "shot.png")
		require.NoError(t, err)

		width, height := decodeDims(t, out)
		assert.Equal(t, 120, width)
		assert.Equal(t, 90, height)
	})

	t.Run("rejects non-image data", func(t *testing.T) {
		svc := NewImageService(1600, 85)

		_, err := svc.Recompress([]byte("definitely not an image"), "fake.jpg")
		assert.Error(t, err)
	})
}

func TestNewImageService(t *testing.T) {
	t.Run("falls back to defaults for invalid bounds", func(t *testing.T) {
		svc := NewImageService(0, 200)
		assert.Equal(t, 1600, svc.maxDimension)
		assert.Equal(t, 85, svc.jpegQuality)
	})
}

func TestIsImageMIME(t *testing.T) {
	tests := []struct {
		contentType string
		expected    bool
	}{
		{"image/jpeg", true},
		{"image/png", true},
		{"IMAGE/HEIC", true},
		{"image/webp; charset=binary", true},
		{"application/pdf", false},
		{"text/plain", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsImageMIME(tt.contentType))
		})
	}
}
