/*
Package bytekillertest assembles bytekiller streams for tests.

Streams are built from explicit operations in the order the decoder consumes
them, so fixtures can exercise every opcode. The check word is chosen so the
folded check value of a fully consumed stream is zero.
*/
package bytekillertest

import "encoding/binary"

const (
	maxShortLiteral = 8
	maxLongLiteral  = 8 + 255 + 1
)

// Stream collects control and data bits in decode order.
type Stream struct {
	bits []bool
}

// Bits appends the n low bits of v, most significant first.
func (s *Stream) Bits(v, n int) *Stream {
	for i := n - 1; i >= 0; i-- {
		s.bits = append(s.bits, v>>uint(i)&1 != 0)
	}
	return s
}

// Literal appends literal operations for b. The first byte lands on the
// highest output position still free, the next one below it, and so on.
func (s *Stream) Literal(b ...byte) *Stream {
	for len(b) > 0 {
		n := len(b)
		if n > maxLongLiteral {
			n = maxLongLiteral
		}
		if n > maxShortLiteral {
			s.Bits(0x7, 3).Bits(n-maxShortLiteral-1, 8)
		} else {
			s.Bits(0x0, 2).Bits(n-1, 3)
		}
		for _, c := range b[:n] {
			s.Bits(int(c), 8)
		}
		b = b[n:]
	}
	return s
}

// Reference appends a back-reference copying length bytes from offset bytes
// above the current output position. The opcode is picked from the length.
func (s *Stream) Reference(offset, length int) *Stream {
	switch length {
	case 2:
		return s.Bits(0x1, 2).Bits(offset, 8)
	case 3:
		return s.Bits(0x4, 3).Bits(offset, 9)
	case 4:
		return s.Bits(0x5, 3).Bits(offset, 10)
	default:
		return s.Bits(0x6, 3).Bits(length-1, 8).Bits(offset, 12)
	}
}

// Bytes lays the stream out in memory declaring size uncompressed bytes.
func (s *Stream) Bytes(size int) []byte {
	words := make([]uint32, (len(s.bits)+31)/32)
	for i, b := range s.bits {
		if b {
			words[i/32] |= 1 << uint(i%32)
		}
	}

	// An initial register holding only the marker bit forces a load of the
	// first data word straight away
	const initial = 1
	check := uint32(initial)
	for _, w := range words {
		check ^= w
	}

	out := make([]byte, 4*(len(words)+3))
	for i, w := range words {
		binary.BigEndian.PutUint32(out[4*(len(words)-1-i):], w)
	}
	tail := out[4*len(words):]
	binary.BigEndian.PutUint32(tail[0:], initial)
	binary.BigEndian.PutUint32(tail[4:], check)
	binary.BigEndian.PutUint32(tail[8:], uint32(size))
	return out
}

// Pack encodes data using literal operations only.
func Pack(data []byte) []byte {
	var s Stream
	if len(data) == 0 {
		// The decoder always consumes one operation
		return s.Bits(0, 5).Bytes(0)
	}
	rev := make([]byte, len(data))
	for i, b := range data {
		rev[len(data)-1-i] = b
	}
	return s.Literal(rev...).Bytes(len(data))
}
