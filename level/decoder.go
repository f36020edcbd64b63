package level

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/bodgit/fbunpack/bytekiller"
	"github.com/bodgit/fbunpack/format"
	"github.com/bodgit/fbunpack/shape"
)

// ErrEmptyRoom is returned by Decoder.DecodeRoom for a room that has no data.
// It is not a failure; such rooms are simply skipped.
var ErrEmptyRoom = errors.New("level: empty room")

// Writer receives finished bitmaps. pixels holds width*height palette
// indices, top row first, and palette holds colors RGB triples.
type Writer interface {
	WriteBitmap(name string, pixels []byte, width, height int, palette []byte, colors int) error
}

// Options alter what gets written.
type Options struct {
	// DrawPalettes paints the room palette into the top-left corner
	DrawPalettes bool

	// DumpShapes writes every shape of the catalog after the rooms
	DumpShapes bool
}

// scratch is the working memory for one level. Every room overwrites it, so
// a Room is only valid until the next one is decoded.
type scratch struct {
	desc    [maxDescriptor]byte
	atlas   *Atlas
	canvas  []byte
	palette []byte
	shapes  *shape.Decoder
}

func newScratch(catalog *shape.Catalog) *scratch {
	s := &scratch{
		atlas:   newAtlas(),
		canvas:  make([]byte, RoomWidth*RoomHeight),
		palette: make([]byte, Colors*3),
	}
	if catalog != nil {
		s.shapes = shape.NewDecoder(catalog)
	}
	return s
}

// Room is a decoded room. Pixels and Palette alias the decoder scratch
// memory.
type Room struct {
	Level   string
	Index   int
	Overlay bool
	Objects int

	Pixels  []byte
	Palette []byte
}

// Name returns the file name used for the room bitmap.
func (r *Room) Name() string {
	return fmt.Sprintf("%s_room%02d.bmp", r.Level, r.Index)
}

// ParseRoomName is the inverse of Room.Name. ok is false for any name that
// does not belong to a room bitmap.
func ParseRoomName(name string) (level string, room int, ok bool) {
	i := strings.LastIndex(name, "_room")
	if i < 1 || !strings.HasSuffix(name, ".bmp") {
		return "", 0, false
	}
	room, err := strconv.Atoi(name[i+len("_room") : len(name)-len(".bmp")])
	if err != nil || room < 0 || room >= roomCount {
		return "", 0, false
	}
	return name[:i], room, true
}

// Decoder reconstructs the rooms of one level.
type Decoder struct {
	name   string
	number int

	lev     []byte
	groups  Groups
	pal     []byte
	offsets [roomCount]uint32

	opts    Options
	logger  *log.Logger
	scratch *scratch
}

// NewDecoder returns a Decoder for the level called name. lev, mbk and pal
// are the level stream, tile group table and palette table; sgd is the shape
// catalog and may be nil for levels without overlay rooms.
func NewDecoder(name string, lev, mbk, pal, sgd []byte, opts Options, logger *log.Logger) (*Decoder, error) {
	number, canonical, err := Variant(name)
	if err != nil {
		return nil, err
	}
	if len(lev) < roomTableSize {
		return nil, fmt.Errorf("level: %s stream of %d bytes has no room table: %w", canonical, len(lev), format.ErrMalformedTable)
	}

	var catalog *shape.Catalog
	if sgd != nil {
		if catalog, err = shape.NewCatalog(sgd); err != nil {
			return nil, err
		}
	}

	d := &Decoder{
		name:    canonical,
		number:  number,
		lev:     lev,
		groups:  Groups{data: mbk},
		pal:     pal,
		opts:    opts,
		logger:  logger,
		scratch: newScratch(catalog),
	}
	for i := range d.offsets {
		d.offsets[i] = binary.BigEndian.Uint32(lev[i*4:])
	}
	return d, nil
}

// Name returns the canonical level name.
func (d *Decoder) Name() string {
	return d.name
}

func (d *Decoder) extent(i int) (uint32, uint32) {
	prev := uint32(roomTableSize)
	if i > 0 {
		prev = d.offsets[i-1]
	}
	return prev, d.offsets[i]
}

func (d *Decoder) empty(i int) bool {
	prev, end := d.extent(i)
	return prev == 0 || end == 0 || prev == end
}

// Rooms returns the numbers of the rooms that hold data.
func (d *Decoder) Rooms() []int {
	var rooms []int
	for i := range d.offsets {
		if !d.empty(i) {
			rooms = append(rooms, i)
		}
	}
	return rooms
}

// DecodeRoom reconstructs room i. Any failure is returned as a *RoomError.
func (d *Decoder) DecodeRoom(i int) (*Room, error) {
	if i < 0 || i >= roomCount || d.empty(i) {
		return nil, ErrEmptyRoom
	}
	r, err := d.decodeRoom(i)
	if err != nil {
		return nil, &RoomError{Level: d.name, Room: i, Err: err}
	}
	return r, nil
}

func (d *Decoder) decodeRoom(i int) (*Room, error) {
	s := d.scratch

	prev, end := d.extent(i)
	if end < prev || end-prev >= maxDescriptor || int64(end) > int64(len(d.lev)) {
		return nil, fmt.Errorf("level: room extent %#x-%#x: %w", prev, end, format.ErrMalformedTable)
	}

	n, crc, err := bytekiller.Unpack(s.desc[:], d.lev[:end])
	if err != nil {
		return nil, err
	}
	if crc != 0 {
		return nil, fmt.Errorf("level: room descriptor checksum %08x: %w", crc, format.ErrCorruptStream)
	}
	desc, err := parseDescriptor(s.desc[:n])
	if err != nil {
		return nil, err
	}

	if desc.groups > len(desc.data) {
		return nil, fmt.Errorf("level: tile group list at %d: %w", desc.groups, format.ErrMalformedTable)
	}
	s.atlas.Reset()
	if err := s.atlas.Load(desc.data[desc.groups:], d.groups); err != nil {
		return nil, err
	}

	for k := range s.canvas {
		s.canvas[k] = 0
	}

	r := &Room{
		Level:   d.name,
		Index:   i,
		Overlay: desc.overlay,
		Pixels:  s.canvas,
		Palette: s.palette,
	}

	// Shapes stand in for the background layer, so either goes first and
	// the foreground is always painted on top
	if desc.overlay {
		if s.shapes == nil {
			return nil, fmt.Errorf("level: overlay room without shape catalog: %w", format.ErrUnsupportedVariant)
		}
		if desc.objects > len(desc.data) {
			return nil, fmt.Errorf("level: placement list at %d: %w", desc.objects, format.ErrMalformedTable)
		}
		s.shapes.Reset()
		if r.Objects, err = drawObjects(s.canvas, desc.data[desc.objects:], s.shapes, d.name, i); err != nil {
			return nil, err
		}
	} else {
		grid, err := desc.grid(desc.background)
		if err != nil {
			return nil, err
		}
		if err := drawGrid(s.canvas, grid, s.atlas, true, false); err != nil {
			return nil, err
		}
	}

	grid, err := desc.grid(desc.foreground)
	if err != nil {
		return nil, err
	}
	if err := drawGrid(s.canvas, grid, s.atlas, false, desc.overlay); err != nil {
		return nil, err
	}

	if err := convertPalette(s.palette, d.pal, desc.banks); err != nil {
		return nil, err
	}
	if d.opts.DrawPalettes {
		drawSwatches(s.canvas)
	}

	return r, nil
}

// Extract decodes every room and hands it to w. Rooms that fail to decode
// are logged and skipped; their errors are joined into the returned error.
// An error from w stops the extraction.
func (d *Decoder) Extract(w Writer) error {
	var errs []error
	for _, i := range d.Rooms() {
		r, err := d.DecodeRoom(i)
		if err != nil {
			d.logger.Printf("Skipping %v\n", err)
			errs = append(errs, err)
			continue
		}
		if err := w.WriteBitmap(r.Name(), r.Pixels, RoomWidth, RoomHeight, r.Palette, Colors); err != nil {
			return err
		}
	}

	if d.opts.DumpShapes && d.scratch.shapes != nil {
		if err := d.DumpShapes(w); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// DumpShapes writes every shape of the catalog to its own bitmap using the
// palette of the most recently decoded room.
func (d *Decoder) DumpShapes(w Writer) error {
	shapes := d.scratch.shapes
	if shapes == nil {
		return nil
	}
	shapes.Reset()

	var errs []error
	for id := 0; id < shapes.Catalog().Len(); id++ {
		s, err := shapes.Decode(id)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s shape %d: %w", d.name, id, err))
			continue
		}
		width, height := s.Width(), s.Height()
		pixels := make([]byte, width*height)
		if err := s.Draw(pixels, width, height, 0, 0); err != nil {
			errs = append(errs, fmt.Errorf("%s shape %d: %w", d.name, id, err))
			continue
		}
		name := fmt.Sprintf("%s_sgd%03d.bmp", d.name, id)
		if err := w.WriteBitmap(name, pixels, width, height, d.scratch.palette, Colors); err != nil {
			return err
		}
	}
	return errors.Join(errs...)
}
