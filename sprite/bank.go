/*
Package sprite decodes the graphics shared by every level: the sprite tile
banks, the room pieces assembled from them and the run-length coded
character sprites.

All of them are built from the same 4 bit tiles as the rooms. Where a
picture is more than one tile in size the tiles are laid out in columns,
top to bottom then left to right.
*/
package sprite

import (
	"encoding/binary"
	"fmt"

	"github.com/bodgit/fbunpack/bytekiller"
	"github.com/bodgit/fbunpack/format"
	"github.com/bodgit/fbunpack/tile"
)

const (
	// BankCount is the number of banks in the sprite bank table
	BankCount = 84

	bankRecordSize = 6
	storedBank     = 0x8000
)

// Bank returns the decompressed tiles of bank i of the bank table mbk. Each
// 6-byte record holds the offset of the end of a compressed stream and the
// number of tiles it holds.
func Bank(mbk []byte, i int) ([]byte, error) {
	rec := i * bankRecordSize
	if i < 0 || rec+bankRecordSize > len(mbk) {
		return nil, fmt.Errorf("sprite: bank %d not in table: %w", i, format.ErrMalformedTable)
	}
	offset := int64(binary.BigEndian.Uint32(mbk[rec:]))
	count := int(binary.BigEndian.Uint16(mbk[rec+4:]))

	if count&storedBank != 0 {
		return nil, fmt.Errorf("sprite: bank %d is not compressed: %w", i, format.ErrMalformedTable)
	}
	if offset > int64(len(mbk)) {
		return nil, fmt.Errorf("sprite: bank %d ends past table: %w", i, format.ErrMalformedTable)
	}

	stream := mbk[:offset]
	size, err := bytekiller.Size(stream)
	if err != nil {
		return nil, fmt.Errorf("sprite: bank %d: %w", i, err)
	}
	if size != count*tile.Size {
		return nil, fmt.Errorf("sprite: bank %d of %d tiles holds %d bytes: %w", i, count, size, format.ErrMalformedTable)
	}

	tiles := make([]byte, size)
	if _, crc, err := bytekiller.Unpack(tiles, stream); err != nil {
		return nil, fmt.Errorf("sprite: bank %d: %w", i, err)
	} else if crc != 0 {
		return nil, fmt.Errorf("sprite: bank %d checksum %08x: %w", i, crc, format.ErrCorruptStream)
	}

	return tiles, nil
}

// drawColumns draws the tiles as a block w by h pixels with its top-left
// corner at (x, y). Tiles missing from the end of tiles are left blank.
func drawColumns(dst []byte, pitch, x, y, w, h int, tiles []byte) {
	k := 0
	for i := 0; i < w; i += tile.Width {
		for j := 0; j < h; j += tile.Height {
			if off := k * tile.Size; off+tile.Size <= len(tiles) {
				var t tile.Tile
				copy(t[:], tiles[off:])
				t.Draw(dst, pitch, x+i, y+j, 0)
			}
			k++
		}
	}
}

// Strip draws the tiles of a bank in a single row and returns the pixels
// and the width of the row, which is one tile high.
func Strip(tiles []byte) ([]byte, int) {
	width := len(tiles) / tile.Size * tile.Width
	pixels := make([]byte, width*tile.Height)
	drawColumns(pixels, width, 0, 0, width, tile.Height, tiles)
	return pixels, width
}
