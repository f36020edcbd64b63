package level

import (
	"encoding/binary"
	"fmt"

	"github.com/bodgit/fbunpack/bytekiller"
	"github.com/bodgit/fbunpack/format"
	"github.com/bodgit/fbunpack/tile"
)

const (
	groupRecordSize = 6
	groupBufSize    = 0xffff
	atlasSize       = 0x800 * tile.Size // every 11-bit tile index
	bulkCopy        = 255
	lastGroup       = 0x8000
)

// Groups is the tile group table. Each 6-byte record holds a 32-bit offset
// and a signed 16-bit tile count. A negative count marks tiles stored as is
// from the offset onwards, otherwise the offset marks the end of a
// compressed stream.
type Groups struct {
	data []byte
}

// tiles returns the packed tiles of group num, decompressing into scratch
// when needed.
func (g Groups) tiles(num int, scratch []byte) ([]byte, error) {
	rec := num * groupRecordSize
	if rec+groupRecordSize > len(g.data) {
		return nil, fmt.Errorf("level: tile group %d not in table: %w", num, format.ErrMalformedTable)
	}
	offset := int64(binary.BigEndian.Uint32(g.data[rec:]))
	count := int(int16(binary.BigEndian.Uint16(g.data[rec+4:])))

	if count < 0 {
		size := int64(-count * tile.Size)
		if offset+size > int64(len(g.data)) {
			return nil, fmt.Errorf("level: tile group %d overruns table: %w", num, format.ErrMalformedTable)
		}
		return g.data[offset : offset+size], nil
	}

	if offset > int64(len(g.data)) {
		return nil, fmt.Errorf("level: tile group %d ends past table: %w", num, format.ErrMalformedTable)
	}
	n, crc, err := bytekiller.Unpack(scratch, g.data[:offset])
	if err != nil {
		return nil, fmt.Errorf("level: tile group %d: %w", num, err)
	}
	if crc != 0 {
		return nil, fmt.Errorf("level: tile group %d checksum %08x: %w", num, crc, format.ErrCorruptStream)
	}
	size := count * tile.Size
	if size > n {
		return nil, fmt.Errorf("level: tile group %d holds %d bytes, want %d: %w", num, n, size, format.ErrMalformedTable)
	}
	return scratch[:size], nil
}

// Atlas is the per-room array of tiles. Slot 0 is always blank.
type Atlas struct {
	buf   []byte
	n     int
	group []byte
}

func newAtlas() *Atlas {
	a := &Atlas{
		buf:   make([]byte, atlasSize),
		group: make([]byte, groupBufSize),
	}
	a.Reset()
	return a
}

// Reset empties the atlas, leaving only the blank tile.
func (a *Atlas) Reset() {
	for i := range a.buf[:a.n] {
		a.buf[i] = 0
	}
	a.n = tile.Size
}

// Len returns the number of tiles in the atlas, including the blank one.
func (a *Atlas) Len() int {
	return a.n / tile.Size
}

func (a *Atlas) append(b []byte) error {
	if a.n+len(b) > len(a.buf) {
		return fmt.Errorf("level: tile atlas full: %w", format.ErrMalformedTable)
	}
	a.n += copy(a.buf[a.n:], b)
	return nil
}

// Tile returns tile i.
func (a *Atlas) Tile(i int) (t tile.Tile, err error) {
	if i < 0 || i >= a.Len() {
		return t, fmt.Errorf("level: tile %d not in atlas of %d: %w", i, a.Len(), format.ErrMalformedTable)
	}
	copy(t[:], a.buf[i*tile.Size:])
	return t, nil
}

// Load appends the tiles named by the group reference list refs. Each entry
// is a 16-bit group number, with bit 15 set on the last entry, followed by a
// count byte. A count of 255 takes every tile of the group, otherwise count+1
// tile numbers follow.
func (a *Atlas) Load(refs []byte, groups Groups) error {
	for i := 0; ; {
		if i+3 > len(refs) {
			return fmt.Errorf("level: tile group list truncated: %w", format.ErrMalformedTable)
		}
		num := int(binary.BigEndian.Uint16(refs[i:]))
		count := int(refs[i+2])
		i += 3

		tiles, err := groups.tiles(num&^lastGroup, a.group)
		if err != nil {
			return err
		}

		if count == bulkCopy {
			if err := a.append(tiles); err != nil {
				return err
			}
		} else {
			if i+count+1 > len(refs) {
				return fmt.Errorf("level: tile list of group %d truncated: %w", num&^lastGroup, format.ErrMalformedTable)
			}
			for _, t := range refs[i : i+count+1] {
				off := int(t) * tile.Size
				if off+tile.Size > len(tiles) {
					return fmt.Errorf("level: tile %d not in group %d: %w", t, num&^lastGroup, format.ErrMalformedTable)
				}
				if err := a.append(tiles[off : off+tile.Size]); err != nil {
					return err
				}
			}
			i += count + 1
		}

		if num&lastGroup != 0 {
			return nil
		}
	}
}
