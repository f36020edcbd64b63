package level

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/bodgit/fbunpack/bytekiller/bytekillertest"
	"github.com/bodgit/fbunpack/tile"
)

func fill(v byte) []byte {
	return bytes.Repeat([]byte{v}, tile.Size)
}

func corner(v byte) []byte {
	b := make([]byte, tile.Size)
	b[0] = v
	return b
}

type group struct {
	tiles      []byte
	compressed bool
}

// groupTable lays out the 6-byte records followed by the group data.
func groupTable(groups ...group) []byte {
	out := make([]byte, len(groups)*groupRecordSize)
	for i, g := range groups {
		rec := out[i*groupRecordSize:]
		count := len(g.tiles) / tile.Size
		if g.compressed {
			out = append(out, bytekillertest.Pack(g.tiles)...)
			rec = out[i*groupRecordSize:]
			binary.BigEndian.PutUint32(rec, uint32(len(out)))
			binary.BigEndian.PutUint16(rec[4:], uint16(count))
		} else {
			binary.BigEndian.PutUint32(rec, uint32(len(out)))
			binary.BigEndian.PutUint16(rec[4:], uint16(int16(-count)))
			out = append(out, g.tiles...)
		}
	}
	return out
}

// paletteTable builds n banks where color i of bank j is 0x0BGR with B=j,
// G=i and R=15-i.
func paletteTable(n int) []byte {
	out := make([]byte, n*bankSize)
	for j := 0; j < n; j++ {
		for i := 0; i < colorsPerBank; i++ {
			binary.BigEndian.PutUint16(out[j*bankSize+i*2:], uint16(j<<8|i<<4|(15-i)))
		}
	}
	return out
}

func grid(set map[int]uint16) []byte {
	out := make([]byte, cellsX*cellsY*2)
	for cell, flags := range set {
		binary.BigEndian.PutUint16(out[cell*2:], flags)
	}
	return out
}

type placement struct {
	id   uint16
	x, y int16
}

func placements(p ...placement) []byte {
	out := []byte{byte(len(p) >> 8), byte(len(p))}
	for _, r := range p {
		out = append(out, byte(r.id>>8), byte(r.id), byte(uint16(r.x)>>8), byte(r.x), byte(uint16(r.y)>>8), byte(r.y))
	}
	return out
}

// room builds a descriptor. first is the background grid, or the placement
// list when overlay is set.
func room(overlay bool, banks [4]uint16, groups, first, foreground []byte) []byte {
	out := make([]byte, descriptorHeader)
	if overlay {
		out[1] = 1
	}
	for i, b := range banks {
		binary.BigEndian.PutUint16(out[2+i*2:], b)
	}
	binary.BigEndian.PutUint16(out[14:], uint16(len(out)))
	out = append(out, groups...)
	binary.BigEndian.PutUint16(out[10:], uint16(len(out)))
	out = append(out, first...)
	binary.BigEndian.PutUint16(out[12:], uint16(len(out)))
	return append(out, foreground...)
}

// levelStream packs the descriptors behind the room offset table. corrupt
// lists rooms whose check word gets damaged.
func levelStream(rooms map[int][]byte, corrupt ...int) []byte {
	out := make([]byte, roomTableSize)
	for i := 0; i < roomCount; i++ {
		if desc, ok := rooms[i]; ok {
			stream := bytekillertest.Pack(desc)
			for _, c := range corrupt {
				if c == i {
					stream[len(stream)-5] ^= 1
				}
			}
			out = append(out, stream...)
		}
		binary.BigEndian.PutUint32(out[i*4:], uint32(len(out)))
	}
	return out
}

// shapeCatalog stores n copies of a single word, single row shape painted
// with color.
func shapeCatalog(n int, color byte) []byte {
	entry := []byte{1, 0, 0, 2, 0xff, 0xff}
	entry = append(entry, bytes.Repeat([]byte{color}, 8)...)

	table := 4 * (n + 1)
	out := make([]byte, table)
	for i := 0; i < n; i++ {
		binary.BigEndian.PutUint32(out[i*4:], uint32(-int32(len(out))))
		out = append(out, byte(len(entry)>>8), byte(len(entry)))
		out = append(out, entry...)
	}
	binary.BigEndian.PutUint32(out[n*4:], uint32(len(out)))
	return out
}

type bitmap struct {
	pixels        []byte
	width, height int
	palette       []byte
	colors        int
}

type recorder struct {
	names   []string
	bitmaps map[string]bitmap
}

func (r *recorder) WriteBitmap(name string, pixels []byte, width, height int, palette []byte, colors int) error {
	if r.bitmaps == nil {
		r.bitmaps = make(map[string]bitmap)
	}
	if _, ok := r.bitmaps[name]; ok {
		return fmt.Errorf("%s written twice", name)
	}
	r.names = append(r.names, name)
	r.bitmaps[name] = bitmap{
		pixels:  append([]byte(nil), pixels...),
		width:   width,
		height:  height,
		palette: append([]byte(nil), palette...),
		colors:  colors,
	}
	return nil
}
