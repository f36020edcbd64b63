package level

import (
	"encoding/binary"
	"fmt"

	"github.com/bodgit/fbunpack/format"
)

const bankSize = colorsPerBank * 2

// Color444 expands a color packed as 0000BBBBGGGGRRRR into 8 bits per channel
// by repeating each nibble.
func Color444(c uint16) (r, g, b byte) {
	r = byte(c) & 0x0f
	g = byte(c>>4) & 0x0f
	b = byte(c>>8) & 0x0f
	return r<<4 | r, g<<4 | g, b<<4 | b
}

// convertPalette fills dst with Colors RGB triples, 16 from each bank of the
// palette table.
func convertPalette(dst []byte, table []byte, bank [banks]uint16) error {
	for j, num := range bank {
		off := int(num) * bankSize
		if off+bankSize > len(table) {
			return fmt.Errorf("level: palette %d not in table: %w", num, format.ErrMalformedTable)
		}
		for i := 0; i < colorsPerBank; i++ {
			r, g, b := Color444(binary.BigEndian.Uint16(table[off+i*2:]))
			p := dst[(j*colorsPerBank+i)*3:]
			p[0], p[1], p[2] = r, g, b
		}
	}
	return nil
}

// drawSwatches paints one 8x4 block per palette entry in the top-left corner
// of canvas, one row per bank.
func drawSwatches(canvas []byte) {
	for j := 0; j < banks; j++ {
		for i := 0; i < colorsPerBank; i++ {
			for y := j * 6; y < j*6+4; y++ {
				row := canvas[y*RoomWidth+i*8:]
				for x := 0; x < 8; x++ {
					row[x] = byte(j*colorsPerBank + i)
				}
			}
		}
	}
}
