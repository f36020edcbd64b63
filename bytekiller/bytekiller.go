/*
Package bytekiller implements the bit-oriented LZ decompressor used by every
compressed asset in the game data.

A compressed stream is decoded backwards. The last four bytes hold the
uncompressed size, preceded by a check value and the initial bit register,
all big-endian 32-bit words. Control bits are then pulled from successively
lower words while the output is written from its last byte down to its first.
*/
package bytekiller

import (
	"encoding/binary"
	"fmt"

	"github.com/bodgit/fbunpack/format"
)

const (
	wordSize   = 4
	headerSize = 3 * wordSize
)

type decoder struct {
	src  []byte
	next int // index of the next word to load, walks down

	dst []byte
	out int // index of the next byte to write, walks down

	size uint32 // bytes still to produce
	crc  uint32
	bits uint32
}

func (d *decoder) word() (uint32, error) {
	if d.next < 0 {
		return 0, fmt.Errorf("bytekiller: read before start of stream: %w", format.ErrCorruptStream)
	}
	w := binary.BigEndian.Uint32(d.src[d.next:])
	d.next -= wordSize
	return w, nil
}

func (d *decoder) nextBit() (uint32, error) {
	carry := d.bits & 1
	d.bits >>= 1
	if d.bits == 0 {
		w, err := d.word()
		if err != nil {
			return 0, err
		}
		d.crc ^= w
		carry = w & 1
		d.bits = 1<<31 | w>>1
	}
	return carry, nil
}

func (d *decoder) getBits(count int) (int, error) {
	var v int
	for i := 0; i < count; i++ {
		b, err := d.nextBit()
		if err != nil {
			return 0, err
		}
		v = v<<1 | int(b)
	}
	return v, nil
}

// claim reserves count bytes of output, shortening the final operation so
// that it ends exactly on the declared size.
func (d *decoder) claim(count int) int {
	if uint32(count) >= d.size {
		count = int(d.size)
		d.size = 0
		return count
	}
	d.size -= uint32(count)
	return count
}

func (d *decoder) copyLiteral(bitsCount, length int) error {
	n, err := d.getBits(bitsCount)
	if err != nil {
		return err
	}
	count := d.claim(n + length + 1)
	for i := 0; i < count; i++ {
		b, err := d.getBits(8)
		if err != nil {
			return err
		}
		d.dst[d.out-i] = byte(b)
	}
	d.out -= count
	return nil
}

func (d *decoder) copyReference(bitsCount, count int) error {
	count = d.claim(count)
	offset, err := d.getBits(bitsCount)
	if err != nil {
		return err
	}
	if count > 0 && d.out+offset >= len(d.dst) {
		return fmt.Errorf("bytekiller: reference offset %d past end of output: %w", offset, format.ErrCorruptStream)
	}
	for i := 0; i < count; i++ {
		d.dst[d.out-i] = d.dst[d.out-i+offset]
	}
	d.out -= count
	return nil
}

func (d *decoder) step() error {
	b, err := d.nextBit()
	if err != nil {
		return err
	}
	if b == 0 {
		if b, err = d.nextBit(); err != nil {
			return err
		}
		if b == 0 {
			return d.copyLiteral(3, 0)
		}
		return d.copyReference(8, 2)
	}

	op, err := d.getBits(2)
	if err != nil {
		return err
	}
	switch op {
	case 3:
		return d.copyLiteral(8, 8)
	case 2:
		n, err := d.getBits(8)
		if err != nil {
			return err
		}
		return d.copyReference(12, n+1)
	case 1:
		return d.copyReference(10, 4)
	default:
		return d.copyReference(9, 3)
	}
}

// Size returns the uncompressed size declared by the compressed stream src.
func Size(src []byte) (int, error) {
	if len(src) < headerSize {
		return 0, fmt.Errorf("bytekiller: stream of %d bytes too short: %w", len(src), format.ErrCorruptStream)
	}
	return int(binary.BigEndian.Uint32(src[len(src)-wordSize:])), nil
}

// Unpack decompresses the stream occupying the whole of src into the start of
// dst. It returns the number of bytes written and the folded check value,
// which is zero for an intact stream.
//
// If the declared size exceeds len(dst), format.ErrBufferTooSmall is returned
// and dst is left untouched.
func Unpack(dst, src []byte) (int, uint32, error) {
	size, err := Size(src)
	if err != nil {
		return 0, 0, err
	}
	if size > len(dst) {
		return 0, 0, fmt.Errorf("bytekiller: need %d bytes, have %d: %w", size, len(dst), format.ErrBufferTooSmall)
	}

	d := decoder{
		src:  src,
		next: len(src) - 2*wordSize,
		dst:  dst[:size],
		out:  size - 1,
		size: uint32(size),
	}

	if d.crc, err = d.word(); err != nil {
		return 0, 0, err
	}
	if d.bits, err = d.word(); err != nil {
		return 0, 0, err
	}
	d.crc ^= d.bits

	// At least one operation is always decoded, even for an empty output
	for {
		if err := d.step(); err != nil {
			return 0, 0, err
		}
		if d.size == 0 {
			break
		}
	}

	if d.out != -1 {
		panic("bytekiller: output cursor out of step")
	}

	return size, d.crc, nil
}
