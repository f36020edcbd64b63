package sprite

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/bodgit/fbunpack/format"
)

const (
	// Width and Height are the dimensions of every character sprite
	Width  = 32
	Height = 48

	halfHeight  = Height / 2
	spriteBytes = Width * Height / 2
	runMarker   = 0xf0
)

var spriteHeader = []byte{0x53, 0x50, 0x54, 0x00, 0x05, 0x07, 0x00, 0x02, 0x00, 0x20, 0x00, 0x18}

// Sprites is a read-only view of the sprite data and its offset table.
type Sprites struct {
	data  []byte
	table []byte
}

// NewSprites checks the header of the sprite data spr. tab holds a 32-bit
// offset for each sprite, relative to the end of the header.
func NewSprites(spr, tab []byte) (*Sprites, error) {
	if !bytes.HasPrefix(spr, spriteHeader) {
		return nil, fmt.Errorf("sprite: bad sprite header: %w", format.ErrMalformedTable)
	}
	if len(tab)%4 != 0 {
		return nil, fmt.Errorf("sprite: offset table of %d bytes: %w", len(tab), format.ErrMalformedTable)
	}
	return &Sprites{
		data:  spr,
		table: tab,
	}, nil
}

// Len returns the number of sprites.
func (s *Sprites) Len() int {
	return len(s.table) / 4
}

// unpack expands the run-length coded sprite data src into dst. A byte with
// all four upper bits set repeats its lower nibble as both pixels of the
// number of bytes given by the following byte plus one. Any other byte is
// copied as is and may not have its lower nibble all set.
func unpack(dst, src []byte) error {
	n := 0
	for j := 0; j < len(src); j++ {
		b := src[j]
		if b&runMarker == runMarker {
			if j+1 >= len(src) {
				return fmt.Errorf("sprite: run truncated: %w", format.ErrCorruptStream)
			}
			j++
			count := int(src[j]) + 1
			if n+count > len(dst) {
				return fmt.Errorf("sprite: run of %d overflows: %w", count, format.ErrCorruptStream)
			}
			color := b & 0x0f
			for i := 0; i < count; i++ {
				dst[n+i] = color<<4 | color
			}
			n += count
			continue
		}
		if b&0x0f == 0x0f {
			return fmt.Errorf("sprite: literal %02x: %w", b, format.ErrCorruptStream)
		}
		if n >= len(dst) {
			return fmt.Errorf("sprite: literal overflows: %w", format.ErrCorruptStream)
		}
		dst[n] = b
		n++
	}
	return nil
}

// Decode returns the Width by Height pixels of sprite i. The sprite is drawn
// as a top and a bottom half, each made of columns of tiles.
func (s *Sprites) Decode(i int) ([]byte, error) {
	if i < 0 || i >= s.Len() {
		return nil, fmt.Errorf("sprite: %d not in table of %d: %w", i, s.Len(), format.ErrMalformedTable)
	}
	offset := int64(binary.BigEndian.Uint32(s.table[i*4:])) + int64(len(spriteHeader))
	if offset+4 > int64(len(s.data)) {
		return nil, fmt.Errorf("sprite: %d at %d past end of data: %w", i, offset, format.ErrMalformedTable)
	}
	p := s.data[offset:]
	// p[0] and p[1] are the position of the sprite relative to its owner
	n := int(binary.BigEndian.Uint16(p[2:])) + 1
	if 4+n > len(p) {
		return nil, fmt.Errorf("sprite: %d needs %d bytes, have %d: %w", i, n, len(p)-4, format.ErrCorruptStream)
	}

	tiles := make([]byte, spriteBytes)
	if err := unpack(tiles, p[4:4+n]); err != nil {
		return nil, fmt.Errorf("sprite: %d: %w", i, err)
	}

	pixels := make([]byte, Width*Height)
	half := spriteBytes / 2
	for part := 0; part < 2; part++ {
		drawColumns(pixels, Width, 0, part*halfHeight, Width, halfHeight, tiles[part*half:])
	}
	return pixels, nil
}
