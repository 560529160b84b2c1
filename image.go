package vkquad

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"os"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// LoadRGBA decodes the image in file into 8 bit RGBA
func LoadRGBA(file string) (*image.RGBA, error) {
	imageFile, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer imageFile.Close()

	return DecodeRGBA(imageFile)
}

// DecodeRGBA decodes any registered image format and converts the result to
// 8 bit RGBA with its origin at (0,0).
func DecodeRGBA(r io.Reader) (*image.RGBA, error) {
	src, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if m, ok := src.(*image.RGBA); ok && m.Rect.Min == (image.Point{}) {
		return m, nil
	}

	b := src.Bounds()
	m := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(m, m.Bounds(), src, b.Min, draw.Src)
	return m, nil
}

// FitRGBA scales m down so that neither side exceeds maxSide, keeping the
// aspect ratio. Images already small enough are returned as is.
func FitRGBA(m *image.RGBA, maxSide int) *image.RGBA {
	b := m.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxSide <= 0 || (w <= maxSide && h <= maxSide) {
		return m
	}
	if w >= h {
		h = max(1, h*maxSide/w)
		w = maxSide
	} else {
		w = max(1, w*maxSide/h)
		h = maxSide
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), m, b, draw.Src, nil)
	return dst
}

// Pixels returns the tightly packed rows of m, top row first
func Pixels(m *image.RGBA) []byte {
	b := m.Bounds()
	rowSize := b.Dx() * BytesPerPixel
	if m.Stride == rowSize && b.Min == (image.Point{}) {
		return m.Pix[:rowSize*b.Dy()]
	}
	out := make([]byte, rowSize*b.Dy())
	for y := 0; y < b.Dy(); y++ {
		start := m.PixOffset(b.Min.X, b.Min.Y+y)
		copy(out[y*rowSize:(y+1)*rowSize], m.Pix[start:start+rowSize])
	}
	return out
}

// FromPixels wraps tightly packed RGBA rows as an image
func FromPixels(pix []byte, width, height int) *image.RGBA {
	return &image.RGBA{
		Pix:    pix,
		Stride: width * BytesPerPixel,
		Rect:   image.Rect(0, 0, width, height),
	}
}

// Checker returns a width x height RGBA image whose pixels alternate between
// a and b in cells of cell pixels.
func Checker(width, height, cell int, a, b color.RGBA) *image.RGBA {
	m := image.NewRGBA(image.Rect(0, 0, width, height))
	if cell <= 0 {
		cell = 1
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if (x/cell+y/cell)%2 == 0 {
				m.SetRGBA(x, y, a)
			} else {
				m.SetRGBA(x, y, b)
			}
		}
	}
	return m
}
