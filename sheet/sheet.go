/*
Package sheet builds an overview of a whole level from its room canvases.

Each room is scaled down to half size and placed in a grid eight rooms wide
so that the cell of a room follows from its number. The rooms use different
palettes so the combined image is quantized back down to a single palette of
no more than 256 colors.
*/
package sheet

import (
	"errors"
	"image"
	"image/color"

	"github.com/bodgit/fbunpack/bitmap"
	"github.com/ericpauley/go-quantize/quantize"
	"golang.org/x/image/draw"
)

const (
	// Columns is the number of rooms per row
	Columns = 8

	maxColors = 256
)

var errEmpty = errors.New("sheet: no rooms")

// Writer matches level.Writer.
type Writer interface {
	WriteBitmap(name string, pixels []byte, width, height int, palette []byte, colors int) error
}

// Sheet collects the rooms of one level.
type Sheet struct {
	name          string
	width, height int // of a single cell
	rooms         map[int]*image.RGBA
	last          int
}

// New returns an empty Sheet for the level called name whose rooms are
// width by height pixels.
func New(name string, width, height int) *Sheet {
	return &Sheet{
		name:   name,
		width:  width >> 1,
		height: height >> 1,
		rooms:  make(map[int]*image.RGBA),
		last:   -1,
	}
}

// Name returns the file name used for the sheet.
func (s *Sheet) Name() string {
	return s.name + "_overview.bmp"
}

// Len returns the number of rooms collected.
func (s *Sheet) Len() int {
	return len(s.rooms)
}

// Add scales the canvas of room and keeps it. Adding the same room twice
// replaces the earlier canvas.
func (s *Sheet) Add(room int, pixels []byte, palette []byte, colors int) error {
	m, err := bitmap.Image(pixels, s.width<<1, s.height<<1, palette, colors)
	if err != nil {
		return err
	}

	cell := image.NewRGBA(image.Rect(0, 0, s.width, s.height))
	draw.ApproxBiLinear.Scale(cell, cell.Bounds(), m, m.Bounds(), draw.Src, nil)

	s.rooms[room] = cell
	if room > s.last {
		s.last = room
	}
	return nil
}

// Render lays out every room collected so far and reduces the result to a
// single palette.
func (s *Sheet) Render() (*image.Paletted, error) {
	if len(s.rooms) == 0 {
		return nil, errEmpty
	}

	rows := s.last/Columns + 1
	b := image.Rect(0, 0, Columns*s.width, rows*s.height)

	m := image.NewRGBA(b)
	draw.Draw(m, b, image.NewUniform(color.Black), image.Point{}, draw.Src)
	for room, cell := range s.rooms {
		x, y := room%Columns*s.width, room/Columns*s.height
		draw.Draw(m, image.Rect(x, y, x+s.width, y+s.height), cell, image.Point{}, draw.Src)
	}

	q := quantize.MedianCutQuantizer{}
	pm := image.NewPaletted(b, q.Quantize(make(color.Palette, 0, maxColors), m))
	draw.Draw(pm, b, m, b.Min, draw.Src)

	return pm, nil
}

// WriteTo renders the sheet and hands it to w.
func (s *Sheet) WriteTo(w Writer) error {
	m, err := s.Render()
	if err != nil {
		return err
	}
	pixels, palette := bitmap.Canvas(m)
	return w.WriteBitmap(s.Name(), pixels, m.Bounds().Dx(), m.Bounds().Dy(), palette, len(m.Palette))
}
