package shape

import (
	"encoding/binary"
	"fmt"

	"github.com/bodgit/fbunpack/format"
)

// Catalog is a read-only view of a shape catalog.
type Catalog struct {
	data  []byte
	count int
}

// NewCatalog validates the offset table at the start of data.
func NewCatalog(data []byte) (*Catalog, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("shape: catalog of %d bytes: %w", len(data), format.ErrMalformedTable)
	}
	// The first shape follows the table directly, stored or not
	table := int64(int32(binary.BigEndian.Uint32(data)))
	if table < 0 {
		table = -table
	}
	if table%4 != 0 || !inside(table, 4, int64(len(data))+1) {
		return nil, fmt.Errorf("shape: catalog table size %d: %w", table, format.ErrMalformedTable)
	}
	return &Catalog{
		data:  data,
		count: int(table/4) - 1,
	}, nil
}

// Len returns the number of shapes in the catalog.
func (c *Catalog) Len() int {
	return c.count
}

func (c *Catalog) offset(id int) int64 {
	return int64(int32(binary.BigEndian.Uint32(c.data[id*4:])))
}

// Decoder decodes shapes from a catalog into a private scratch buffer. The
// most recently decoded shape is kept so that repeated requests for the same
// id are free.
type Decoder struct {
	catalog *Catalog
	buf     []byte

	last  int // id of shape, -1 when empty
	shape Shape
}

// NewDecoder returns a Decoder reading from c.
func NewDecoder(c *Catalog) *Decoder {
	return &Decoder{
		catalog: c,
		buf:     make([]byte, maxDecoded),
		last:    -1,
	}
}

// Catalog returns the catalog the decoder reads from.
func (d *Decoder) Catalog() *Catalog {
	return d.catalog
}

// Reset forgets the cached shape.
func (d *Decoder) Reset() {
	d.last = -1
}

func (d *Decoder) load(id int) (int, error) {
	off := d.catalog.offset(id)
	data := d.catalog.data

	if off >= 0 {
		if !inside(off, 0, int64(len(data))) {
			return 0, fmt.Errorf("shape: %d offset %d past end of catalog: %w", id, off, format.ErrMalformedTable)
		}
		n, err := DecodeRLE(d.buf, data[off:])
		if err != nil {
			return 0, fmt.Errorf("shape: %d: %w", id, err)
		}
		return n, nil
	}

	off = -off
	if off+2 > int64(len(data)) {
		return 0, fmt.Errorf("shape: %d offset %d past end of catalog: %w", id, off, format.ErrMalformedTable)
	}
	n := int(binary.BigEndian.Uint16(data[off:]))
	raw := data[off+2:]
	if n > len(raw) {
		return 0, fmt.Errorf("shape: %d needs %d bytes, have %d: %w", id, n, len(raw), format.ErrCorruptStream)
	}
	if n > len(d.buf) {
		return 0, fmt.Errorf("shape: %d needs %d bytes: %w", id, n, format.ErrBufferTooSmall)
	}
	return copy(d.buf, raw[:n]), nil
}

// Decode returns shape id. The result aliases the decoder scratch buffer.
func (d *Decoder) Decode(id int) (*Shape, error) {
	if id < 0 || id >= d.catalog.count {
		return nil, fmt.Errorf("shape: id %d not in catalog of %d: %w", id, d.catalog.count, format.ErrMalformedTable)
	}
	if d.last == id {
		return &d.shape, nil
	}
	d.last = -1

	n, err := d.load(id)
	if err != nil {
		return nil, err
	}
	if n < headerSize {
		return nil, fmt.Errorf("shape: %d decoded to %d bytes: %w", id, n, format.ErrMalformedTable)
	}

	b := d.buf[:n]
	size := int(binary.BigEndian.Uint16(b[2:]))
	s := Shape{
		Words: (int(b[0]) + 1) >> 1,
		Rows:  int(b[1]) + 1,
	}
	if s.Words*2*s.Rows != size {
		return nil, fmt.Errorf("shape: %d is %dx%d words but plane is %d bytes: %w", id, s.Words, s.Rows, size, format.ErrMalformedTable)
	}
	if n != headerSize+5*size {
		return nil, fmt.Errorf("shape: %d decoded to %d bytes, want %d: %w", id, n, headerSize+5*size, format.ErrMalformedTable)
	}
	s.Mask = b[headerSize : headerSize+size]
	s.Color = b[headerSize+size:]

	d.shape = s
	d.last = id

	return &d.shape, nil
}
