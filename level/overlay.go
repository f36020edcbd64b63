package level

import (
	"encoding/binary"
	"fmt"

	"github.com/bodgit/fbunpack/format"
	"github.com/bodgit/fbunpack/shape"
)

const (
	placementSize = 6
	noShape       = 0xffff
	shapeID       = 0x7fff
)

// drawObjects paints the shapes of a placement list. The list starts with a
// 16-bit count of records, each a shape id and a signed x and y position.
func drawObjects(canvas []byte, list []byte, shapes *shape.Decoder, level string, room int) (int, error) {
	if len(list) < 2 {
		return 0, fmt.Errorf("level: placement list truncated: %w", format.ErrMalformedTable)
	}
	count := int(binary.BigEndian.Uint16(list))
	list = list[2:]
	if count*placementSize > len(list) {
		return 0, fmt.Errorf("level: %d placements overrun descriptor: %w", count, format.ErrMalformedTable)
	}

	drawn := 0
	for i := 0; i < count; i++ {
		rec := list[i*placementSize:]
		id := binary.BigEndian.Uint16(rec)
		if id == noShape {
			continue
		}
		num := int(id & shapeID)
		x := int(int16(binary.BigEndian.Uint16(rec[2:])))
		y := int(int16(binary.BigEndian.Uint16(rec[4:])))

		s, err := shapes.Decode(num)
		if err != nil {
			return drawn, err
		}

		dx, dy := nudge(level, room, num)
		if err := s.Draw(canvas, RoomWidth, RoomHeight, x+dx, y+dy); err != nil {
			return drawn, err
		}
		drawn++
	}
	return drawn, nil
}
