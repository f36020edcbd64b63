/*
Package level reconstructs the rooms of a level as indexed bitmaps.

A level is made of four read-only inputs: the level stream with its table of
64 compressed room descriptors, the tile group table, the palette table and,
for some levels, a shape catalog. Each room is a 256 by 224 pixel screen
built from two 32 by 28 grids of 8 by 8 tiles. Rooms flagged for overlay mode
replace the background grid with a list of shapes placed anywhere on screen.
*/
package level

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/bodgit/fbunpack/format"
	"github.com/bodgit/fbunpack/tile"
)

const (
	// RoomWidth and RoomHeight are the dimensions of a room canvas
	RoomWidth  = 256
	RoomHeight = 224

	// Colors is the number of palette entries used by a room
	Colors = banks * colorsPerBank

	cellsX = RoomWidth / tile.Width
	cellsY = RoomHeight / tile.Height

	roomCount     = 64
	roomTableSize = roomCount * 4
	maxDescriptor = 4096

	banks         = 4
	colorsPerBank = 16
)

var variants = []string{
	"level1",
	"level2",
	"dt",
	"level3",
	"level4",
	"present",
}

// Variant matches name against the known level name prefixes, ignoring case,
// and returns the level number along with the canonical name.
func Variant(name string) (int, string, error) {
	lower := strings.ToLower(name)
	for i, v := range variants {
		if strings.HasPrefix(lower, v) {
			return i, v, nil
		}
	}
	return 0, "", fmt.Errorf("level: %q: %w", name, format.ErrUnsupportedVariant)
}

// Patch moves one placement of a shape in one room.
type Patch struct {
	Level  string
	Room   int
	Shape  int
	DX, DY int
}

// Patches lists the known placement errors in the game data.
var Patches = []Patch{
	// The plant is drawn floating above the ledge
	{Level: "level1", Room: 26, Shape: 38, DY: 8},
}

func nudge(level string, room, shape int) (dx, dy int) {
	for _, p := range Patches {
		if p.Level == level && p.Room == room && p.Shape == shape {
			dx += p.DX
			dy += p.DY
		}
	}
	return
}

// descriptor is a decompressed room record. All offsets are relative to the
// start of the record.
type descriptor struct {
	data    []byte
	overlay bool
	banks   [banks]uint16

	background int // offset of the background grid, unless overlay
	objects    int // offset of the shape placement list, if overlay
	foreground int
	groups     int
}

const descriptorHeader = 16

func parseDescriptor(b []byte) (descriptor, error) {
	if len(b) < descriptorHeader {
		return descriptor{}, fmt.Errorf("level: room descriptor of %d bytes: %w", len(b), format.ErrMalformedTable)
	}
	d := descriptor{
		data:       b,
		overlay:    b[1] != 0,
		foreground: int(binary.BigEndian.Uint16(b[12:])),
		groups:     int(binary.BigEndian.Uint16(b[14:])),
	}
	for i := range d.banks {
		d.banks[i] = binary.BigEndian.Uint16(b[2+i*2:])
	}
	if d.overlay {
		d.objects = int(binary.BigEndian.Uint16(b[10:]))
	} else {
		d.background = int(binary.BigEndian.Uint16(b[10:]))
	}
	return d, nil
}

// grid returns the cell table at offset.
func (d *descriptor) grid(offset int) ([]byte, error) {
	const size = cellsX * cellsY * 2
	if offset+size > len(d.data) {
		return nil, fmt.Errorf("level: cell grid at %d overruns %d byte descriptor: %w", offset, len(d.data), format.ErrMalformedTable)
	}
	return d.data[offset : offset+size], nil
}

// RoomError records the room that failed to decode.
type RoomError struct {
	Level string
	Room  int
	Err   error
}

func (e *RoomError) Error() string {
	return fmt.Sprintf("%s room %d: %v", e.Level, e.Room, e.Err)
}

func (e *RoomError) Unwrap() error {
	return e.Err
}
