/*
Package tile implements the 8 by 8 pixel tiles that make up the room layers.

Each tile is 32 bytes with 4 bits per pixel, two pixels per byte with the
left pixel in the upper nibble. Pixels are combined with a palette bank when
they are drawn, so a tile can be shown with any of the four 16 color banks.
*/
package tile

const (
	// Width and Height are the tile dimensions in pixels
	Width  = 8
	Height = Width

	// Size is the number of bytes used to store one tile
	Size = Width * Height >> 1

	rowBytes = Width >> 1
)

// Tile holds the packed pixels of one tile.
type Tile [Size]byte

func upperNibble(b byte) byte {
	return b >> 4
}

func lowerNibble(b byte) byte {
	return b & 0x0f
}

// FlipY returns the tile mirrored top to bottom.
func (t Tile) FlipY() (f Tile) {
	for y := 0; y < Height; y++ {
		copy(f[(Height-1-y)*rowBytes:], t[y*rowBytes:(y+1)*rowBytes])
	}
	return
}

// FlipX returns the tile mirrored left to right. The byte order of each row
// is reversed as well as the two pixels within each byte.
func (t Tile) FlipX() (f Tile) {
	for y := 0; y < Height; y++ {
		row := t[y*rowBytes : (y+1)*rowBytes]
		for x := 0; x < rowBytes; x++ {
			b := row[rowBytes-1-x]
			f[y*rowBytes+x] = lowerNibble(b)<<4 | upperNibble(b)
		}
	}
	return
}

// Draw writes all 64 pixels of the tile into dst with the top-left corner at
// pixel (x, y). Each pixel is offset by bank, the first palette index of the
// selected bank. dst is a row-major buffer pitch bytes wide.
func (t *Tile) Draw(dst []byte, pitch, x, y int, bank byte) {
	for j := 0; j < Height; j++ {
		row := dst[(y+j)*pitch+x:]
		for i, b := range t[j*rowBytes : (j+1)*rowBytes] {
			row[i<<1+0] = upperNibble(b) + bank
			row[i<<1+1] = lowerNibble(b) + bank
		}
	}
}

// DrawMasked is like Draw but leaves the destination alone wherever the tile
// pixel is zero, so lower layers show through.
func (t *Tile) DrawMasked(dst []byte, pitch, x, y int, bank byte) {
	for j := 0; j < Height; j++ {
		row := dst[(y+j)*pitch+x:]
		for i, b := range t[j*rowBytes : (j+1)*rowBytes] {
			if p := upperNibble(b); p != 0 {
				row[i<<1+0] = p + bank
			}
			if p := lowerNibble(b); p != 0 {
				row[i<<1+1] = p + bank
			}
		}
	}
}
