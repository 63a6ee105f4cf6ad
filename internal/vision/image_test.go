package vision

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, img image.Image) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestDecodeImage(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 10, 6))
	payload := encodePNG(t, src)

	t.Run("plain base64", func(t *testing.T) {
		img, err := DecodeImage(payload)
		require.NoError(t, err)
		assert.Equal(t, 10, img.Bounds().Dx())
		assert.Equal(t, 6, img.Bounds().Dy())
	})

	t.Run("data URI prefix", func(t *testing.T) {
		img, err := DecodeImage("data:image/png;base64," + payload)
		require.NoError(t, err)
		assert.Equal(t, 10, img.Bounds().Dx())
	})

	t.Run("invalid base64", func(t *testing.T) {
		_, err := DecodeImage("!!not base64!!")
		assert.ErrorIs(t, err, ErrInvalidImage)
	})

	t.Run("valid base64, not an image", func(t *testing.T) {
		_, err := DecodeImage(base64.StdEncoding.EncodeToString([]byte("hello world")))
		assert.ErrorIs(t, err, ErrInvalidImage)
	})

	t.Run("empty payload", func(t *testing.T) {
		_, err := DecodeImage("")
		assert.ErrorIs(t, err, ErrInvalidImage)
	})

	t.Run("bare data URI header", func(t *testing.T) {
		_, err := DecodeImage("data:image/png;base64,")
		assert.ErrorIs(t, err, ErrInvalidImage)
	})
}

func TestResizeImage(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 100, 50))

	t.Run("downscale", func(t *testing.T) {
		out := resizeImage(src, 10, 5)
		assert.Equal(t, 10, out.Bounds().Dx())
		assert.Equal(t, 5, out.Bounds().Dy())
	})

	t.Run("same size returns original", func(t *testing.T) {
		out := resizeImage(src, 100, 50)
		assert.Same(t, image.Image(src), out)
	})

	t.Run("preserves solid color", func(t *testing.T) {
		solid := image.NewRGBA(image.Rect(0, 0, 8, 8))
		for y := 0; y < 8; y++ {
			for x := 0; x < 8; x++ {
				solid.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
			}
		}
		out := resizeImage(solid, 4, 4)
		r, g, b, _ := out.At(2, 2).RGBA()
		assert.Equal(t, uint32(200), r>>8)
		assert.Equal(t, uint32(100), g>>8)
		assert.Equal(t, uint32(50), b>>8)
	})
}

func TestCropImage(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 20, 20))
	src.Set(5, 5, color.RGBA{R: 255, A: 255})

	t.Run("in bounds", func(t *testing.T) {
		crop := cropImage(src, image.Rect(4, 4, 10, 10))
		require.NotNil(t, crop)
		assert.Equal(t, 6, crop.Bounds().Dx())
		r, _, _, _ := crop.At(1, 1).RGBA()
		assert.Equal(t, uint32(255), r>>8)
	})

	t.Run("clamped to image bounds", func(t *testing.T) {
		crop := cropImage(src, image.Rect(15, 15, 30, 30))
		require.NotNil(t, crop)
		assert.Equal(t, 5, crop.Bounds().Dx())
		assert.Equal(t, 5, crop.Bounds().Dy())
	})

	t.Run("fully outside", func(t *testing.T) {
		assert.Nil(t, cropImage(src, image.Rect(30, 30, 40, 40)))
	})

	t.Run("degenerate", func(t *testing.T) {
		assert.Nil(t, cropImage(src, image.Rect(5, 5, 5, 10)))
	})
}

func TestImageToFloat32NHWC(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	src.Set(0, 0, color.RGBA{R: 255, G: 0, B: 0, A: 255})
	src.Set(1, 0, color.RGBA{R: 0, G: 255, B: 0, A: 255})

	data := imageToFloat32NHWC(src, 2, 2)

	require.Len(t, data, 2*2*3)
	// Pixel (0,0): red channel first in interleaved layout.
	assert.InDelta(t, 1.0, data[0], 1e-6)
	assert.InDelta(t, 0.0, data[1], 1e-6)
	// Pixel (1,0): green.
	assert.InDelta(t, 0.0, data[3], 1e-6)
	assert.InDelta(t, 1.0, data[4], 1e-6)
}

func TestImageToFloat32CHW(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			src.Set(x, y, color.RGBA{R: 127, G: 127, B: 127, A: 255})
		}
	}

	data := imageToFloat32CHW(src, 2, 2,
		[3]float32{127.5, 127.5, 127.5}, [3]float32{128.0, 128.0, 128.0})

	require.Len(t, data, 3*2*2)
	// 127 normalizes to just below zero under mean 127.5, std 128.
	for _, v := range data {
		assert.InDelta(t, -0.00390625, v, 1e-6)
	}
}
