package vkquad_test

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/celer/vkquad"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func TestDecodeRGBA(t *testing.T) {
	src := vkquad.Checker(4, 2, 1, red, blue)

	for name, encode := range map[string]func(*bytes.Buffer, image.Image) error{
		"png": func(b *bytes.Buffer, m image.Image) error { return png.Encode(b, m) },
		"bmp": func(b *bytes.Buffer, m image.Image) error { return bmp.Encode(b, m) },
	} {
		t.Run(name, func(t *testing.T) {
			var b bytes.Buffer
			require.NoError(t, encode(&b, src))

			m, err := vkquad.DecodeRGBA(&b)
			require.NoError(t, err)
			assert.Equal(t, image.Rect(0, 0, 4, 2), m.Bounds())
			assert.Equal(t, vkquad.Pixels(src), vkquad.Pixels(m))
		})
	}

	_, err := vkquad.DecodeRGBA(bytes.NewReader([]byte("not an image")))
	assert.Error(t, err)
}

func TestDecodeRGBAConverts(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 2, 1))
	g.SetGray(1, 0, color.Gray{Y: 200})
	var b bytes.Buffer
	require.NoError(t, png.Encode(&b, g))

	m, err := vkquad.DecodeRGBA(&b)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0, 255, 200, 200, 200, 255}, vkquad.Pixels(m))
}

func TestPixelsOfSubImage(t *testing.T) {
	m := vkquad.Checker(4, 4, 2, red, white)
	sub := m.SubImage(image.Rect(2, 0, 4, 1)).(*image.RGBA)

	pix := vkquad.Pixels(sub)
	assert.Equal(t, []byte{255, 255, 255, 255, 255, 255, 255, 255}, pix)

	back := vkquad.FromPixels(pix, 2, 1)
	assert.Equal(t, white, back.RGBAAt(1, 0))
}

func TestFitRGBA(t *testing.T) {
	m := vkquad.Checker(64, 16, 4, red, green)
	assert.Same(t, m, vkquad.FitRGBA(m, 0))
	assert.Same(t, m, vkquad.FitRGBA(m, 64))

	small := vkquad.FitRGBA(m, 16)
	assert.Equal(t, image.Rect(0, 0, 16, 4), small.Bounds())

	tall := vkquad.FitRGBA(vkquad.Checker(1, 100, 1, red, green), 10)
	assert.Equal(t, image.Rect(0, 0, 1, 10), tall.Bounds())
}
