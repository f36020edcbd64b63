package level

import (
	"encoding/binary"
	"fmt"

	"github.com/bodgit/fbunpack/format"
	"github.com/bodgit/fbunpack/tile"
)

// Cell flags
const (
	cellTile  = 0x07ff
	cellFlipX = 1 << 11
	cellFlipY = 1 << 12
	// bits 13-14 select the palette bank, bit 15 marks the foreground

	overlayBias = 0x380
)

// bankOffset moves the bank bits of a cell onto the upper bits of a 6-bit
// palette index.
func bankOffset(flags uint16) byte {
	return byte(flags>>9) & 0x30
}

// drawGrid paints one layer of cells onto canvas. An opaque layer overwrites
// every pixel of each tile, otherwise zero pixels are left alone. In overlay
// mode the tile numbers are biased and must be corrected first.
func drawGrid(canvas []byte, grid []byte, atlas *Atlas, opaque, overlay bool) error {
	for y := 0; y < cellsY; y++ {
		for x := 0; x < cellsX; x++ {
			flags := binary.BigEndian.Uint16(grid[(y*cellsX+x)*2:])
			num := int(flags & cellTile)
			if num != 0 && overlay {
				num -= overlayBias
			}
			if num == 0 {
				continue
			}
			if num < 0 {
				return fmt.Errorf("level: cell (%d, %d) tile %#x below overlay bias: %w", x, y, flags&cellTile, format.ErrMalformedTable)
			}

			t, err := atlas.Tile(num)
			if err != nil {
				return err
			}
			if flags&cellFlipY != 0 {
				t = t.FlipY()
			}
			if flags&cellFlipX != 0 {
				t = t.FlipX()
			}

			if opaque {
				t.Draw(canvas, RoomWidth, x*tile.Width, y*tile.Height, bankOffset(flags))
			} else {
				t.DrawMasked(canvas, RoomWidth, x*tile.Width, y*tile.Height, bankOffset(flags))
			}
		}
	}
	return nil
}
