/*
Package shape decodes the overlay shapes used by rooms that replace their
background layer with freely positioned objects.

Shapes live in a catalog that starts with a table of signed big-endian 32-bit
offsets. The first offset doubles as the size of the table, the last one marks
the end of the data. A negative offset points at a shape stored as is behind
a 16-bit length, any other offset at a run-length coded shape.

A decoded shape starts with a four byte header: the word count in byte 0
(stored as 2*words-1), the row count minus one in byte 1 and the size of the
visibility plane as a big-endian 16-bit value. The visibility plane holds one
bit per pixel and is followed by the color plane holding two 4-bit pixels per
byte, four times as large.
*/
package shape

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/bodgit/fbunpack/format"
	"github.com/icza/bitio"
	"golang.org/x/exp/constraints"
)

const (
	headerSize = 4

	// PixelsPerWord is the number of horizontal pixels covered by each
	// 16-bit word of the visibility plane
	PixelsPerWord = 16

	maxDecoded = 7174 * 16
)

// Shape is a decoded overlay shape. The planes alias the decoder scratch
// buffer and are only valid until the next call to Decode.
type Shape struct {
	Words int // width in units of PixelsPerWord
	Rows  int

	Mask  []byte // one bit per pixel, most significant first
	Color []byte // two pixels per byte, upper nibble first
}

// Width returns the width of the shape in pixels.
func (s *Shape) Width() int {
	return s.Words * PixelsPerWord
}

// Height returns the height of the shape in pixels.
func (s *Shape) Height() int {
	return s.Rows
}

func inside[T constraints.Signed](v, lo, hi T) bool {
	return v >= lo && v < hi
}

// Draw paints the shape into dst, a row-major buffer pitch pixels wide and
// height rows tall, with the top-left corner at (x, y) which may lie outside
// the buffer. Only pixels with their visibility bit set are painted and only
// pixel pairs that fall entirely inside the buffer are considered; everything
// else is clipped silently.
func (s *Shape) Draw(dst []byte, pitch, height, x, y int) error {
	r := bitio.NewReader(bytes.NewReader(s.Mask))
	c := 0
	for j := 0; j < s.Rows; j++ {
		dy := y + j
		for w := 0; w < s.Words; w++ {
			for b := 0; b < PixelsPerWord; b += 2 {
				color := s.Color[c]
				c++

				left, err := r.ReadBool()
				if err != nil {
					return err
				}
				right, err := r.ReadBool()
				if err != nil {
					return err
				}

				dx := x + w*PixelsPerWord + b
				if !inside(dy, 0, height) || !inside(dx, 0, pitch) || !inside(dx+1, 0, pitch) {
					continue
				}
				if left {
					dst[dy*pitch+dx] = color >> 4
				}
				if right {
					dst[dy*pitch+dx+1] = color & 0x0f
				}
			}
		}
	}
	return nil
}

// DecodeRLE expands the run-length coded block src into dst and returns the
// number of bytes produced. src starts with a big-endian 16-bit length of the
// coded data (bit 15 ignored). Each code byte is signed; n >= 0 copies the
// next n+1 bytes, n < 0 repeats the next byte -n+1 times. The codes must use
// up the declared length exactly.
func DecodeRLE(dst, src []byte) (int, error) {
	if len(src) < 2 {
		return 0, fmt.Errorf("shape: missing length: %w", format.ErrCorruptStream)
	}
	length := int(binary.BigEndian.Uint16(src) & 0x7fff)
	src = src[2:]
	if length == 0 {
		return 0, fmt.Errorf("shape: empty run-length block: %w", format.ErrCorruptStream)
	}
	if length > len(src) {
		return 0, fmt.Errorf("shape: run-length block needs %d bytes, have %d: %w", length, len(src), format.ErrCorruptStream)
	}
	src = src[:length]

	n, i := 0, 0
	for i < len(src) {
		code := int8(src[i])
		i++

		var count, consumed int
		if code < 0 {
			count, consumed = -int(code)+1, 1
		} else {
			count, consumed = int(code)+1, int(code)+1
		}
		if i+consumed > len(src) {
			return 0, fmt.Errorf("shape: run overruns block by %d bytes: %w", i+consumed-len(src), format.ErrCorruptStream)
		}
		if n+count > len(dst) {
			return 0, fmt.Errorf("shape: run-length output exceeds %d bytes: %w", len(dst), format.ErrBufferTooSmall)
		}

		if code < 0 {
			for k := 0; k < count; k++ {
				dst[n+k] = src[i]
			}
		} else {
			copy(dst[n:], src[i:i+count])
		}
		n += count
		i += consumed
	}

	return n, nil
}
