/*
Package bitmap writes the indexed canvases produced by the level decoder as
8-bit paletted BMP files.

A canvas is a row-major slice of palette indices, one byte per pixel with the
top row first, along with a palette of RGB triples, three bytes per color.
*/
package bitmap

import (
	"bytes"
	"crypto/sha1"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/image/bmp"
)

const maxColors = 256

var (
	errSize    = errors.New("bitmap: pixel data does not match dimensions")
	errPalette = errors.New("bitmap: invalid palette")
)

// Palette converts colors RGB triples into a color.Palette.
func Palette(palette []byte, colors int) (color.Palette, error) {
	if colors < 1 || colors > maxColors || len(palette) < colors*3 {
		return nil, errPalette
	}
	p := make(color.Palette, colors)
	for i := range p {
		p[i] = color.RGBA{palette[i*3], palette[i*3+1], palette[i*3+2], 0xff}
	}
	return p, nil
}

// Image returns the canvas as an image.Paletted. The pixels are copied.
func Image(pixels []byte, width, height int, palette []byte, colors int) (*image.Paletted, error) {
	if width < 1 || height < 1 || len(pixels) != width*height {
		return nil, errSize
	}
	p, err := Palette(palette, colors)
	if err != nil {
		return nil, err
	}
	m := image.NewPaletted(image.Rect(0, 0, width, height), p)
	for i, v := range pixels {
		if int(v) >= colors {
			return nil, fmt.Errorf("bitmap: pixel %d uses color %d of %d: %w", i, v, colors, errPalette)
		}
	}
	copy(m.Pix, pixels)
	return m, nil
}

// Encode writes the canvas to w in BMP format.
func Encode(w io.Writer, pixels []byte, width, height int, palette []byte, colors int) error {
	m, err := Image(pixels, width, height, palette, colors)
	if err != nil {
		return err
	}
	return bmp.Encode(w, m)
}

// Canvas is the reverse of Image; it returns the palette indices and RGB
// triples of m.
func Canvas(m *image.Paletted) (pixels []byte, palette []byte) {
	b := m.Bounds()
	pixels = make([]byte, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		i := m.PixOffset(b.Min.X, y)
		pixels = append(pixels, m.Pix[i:i+b.Dx()]...)
	}
	palette = make([]byte, 0, len(m.Palette)*3)
	for _, c := range m.Palette {
		r, g, b, _ := c.RGBA()
		palette = append(palette, byte(r>>8), byte(g>>8), byte(b>>8))
	}
	return
}

// Dir writes each bitmap to a file of the same name inside a directory.
type Dir struct {
	path string
}

// NewDir returns a Dir writing into path, which must exist.
func NewDir(path string) *Dir {
	return &Dir{path: path}
}

// Path returns the directory being written to.
func (d *Dir) Path() string {
	return d.path
}

// Write encodes the canvas, writes it to the directory and returns the SHA-1
// of the file contents.
func (d *Dir) Write(name string, pixels []byte, width, height int, palette []byte, colors int) (string, error) {
	b := new(bytes.Buffer)
	if err := Encode(b, pixels, width, height, palette, colors); err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}

	if err := os.WriteFile(filepath.Join(d.path, name), b.Bytes(), 0o644); err != nil {
		return "", err
	}

	return fmt.Sprintf("%X", sha1.Sum(b.Bytes())), nil
}

// WriteBitmap is Write without the checksum.
func (d *Dir) WriteBitmap(name string, pixels []byte, width, height int, palette []byte, colors int) error {
	_, err := d.Write(name, pixels, width, height, palette, colors)
	return err
}
