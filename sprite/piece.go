package sprite

import (
	"encoding/binary"
	"fmt"

	"github.com/bodgit/fbunpack/format"
	"github.com/bodgit/fbunpack/tile"
)

const (
	// PieceSize is the width and height of a rendered room piece
	PieceSize = 256

	maxPieceBanks   = 0x4a
	pieceHeaderSize = 6
	partSize        = 4
	margin          = 4 * tile.Width
)

// Part is one block of tiles within a piece.
type Part struct {
	Tile          int
	X, Y          int
	Width, Height int
}

// Piece is a picture assembled from parts that all draw their tiles from a
// single bank. Bank indexes the room piece table, which names the bank.
type Piece struct {
	Bank  int
	X, Y  int
	Parts []Part
}

// ParsePieces reads the piece table spc. It starts with a table of 16-bit
// offsets, each either repeating the previous offset or pointing at the
// piece that directly follows the previous one. Each distinct piece is
// returned once, in table order.
func ParsePieces(spc []byte) ([]Piece, error) {
	if len(spc) < 2 {
		return nil, fmt.Errorf("sprite: piece table of %d bytes: %w", len(spc), format.ErrMalformedTable)
	}
	count := int(binary.BigEndian.Uint16(spc)) / 2
	if count*2 > len(spc) {
		return nil, fmt.Errorf("sprite: %d pieces in %d bytes: %w", count, len(spc), format.ErrMalformedTable)
	}

	var pieces []Piece
	prev, next := -1, int(binary.BigEndian.Uint16(spc))
	for i := 0; i < count; i++ {
		offset := int(binary.BigEndian.Uint16(spc[i*2:]))
		if offset == prev {
			continue
		}
		if offset != next {
			return nil, fmt.Errorf("sprite: piece %d at %d, want %d: %w", i, offset, next, format.ErrMalformedTable)
		}
		if offset+pieceHeaderSize > len(spc) {
			return nil, fmt.Errorf("sprite: piece %d truncated: %w", i, format.ErrMalformedTable)
		}

		p := spc[offset:]
		if p[0] >= maxPieceBanks {
			return nil, fmt.Errorf("sprite: piece %d uses bank %d: %w", i, p[0], format.ErrMalformedTable)
		}
		n := int(p[5])
		if offset+pieceHeaderSize+n*partSize > len(spc) {
			return nil, fmt.Errorf("sprite: piece %d with %d parts truncated: %w", i, n, format.ErrMalformedTable)
		}

		piece := Piece{
			Bank:  int(p[0]),
			X:     int(int8(p[1])),
			Y:     int(int8(p[2])),
			Parts: make([]Part, n),
		}
		for j := range piece.Parts {
			b := p[pieceHeaderSize+j*partSize:]
			piece.Parts[j] = Part{
				Tile:   int(b[0]),
				X:      int(b[1]),
				Y:      int(b[2]),
				Width:  (int(b[3]>>2&3) + 1) * tile.Width,
				Height: (int(b[3]&3) + 1) * tile.Height,
			}
		}
		pieces = append(pieces, piece)

		prev, next = offset, offset+pieceHeaderSize+n*partSize
	}

	return pieces, nil
}

// Render draws the parts of the piece using the tiles of its bank and
// returns a PieceSize square canvas. Parts starting past the last tile are
// skipped and parts running off the canvas are clipped.
func (p *Piece) Render(tiles []byte) []byte {
	const pitch = PieceSize + margin

	count := len(tiles) / tile.Size
	buf := make([]byte, pitch*pitch)
	for _, part := range p.Parts {
		if part.Tile >= count {
			continue
		}
		drawColumns(buf, pitch, part.X, part.Y, part.Width, part.Height, tiles[part.Tile*tile.Size:])
	}

	pixels := make([]byte, PieceSize*PieceSize)
	for y := 0; y < PieceSize; y++ {
		copy(pixels[y*PieceSize:(y+1)*PieceSize], buf[y*pitch:])
	}
	return pixels
}
