package level

import (
	"bytes"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/bodgit/fbunpack/format"
	"github.com/bodgit/fbunpack/tile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discard = log.New(io.Discard, "", 0)

func TestVariant(t *testing.T) {
	for _, tc := range []struct {
		name   string
		number int
		want   string
	}{
		{"LEVEL1.LEV", 0, "level1"},
		{"level2", 1, "level2"},
		{"DT.LEV", 2, "dt"},
		{"Level4.lev", 4, "level4"},
		{"PRESENT", 5, "present"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			n, name, err := Variant(tc.name)
			require.NoError(t, err)
			assert.Equal(t, tc.number, n)
			assert.Equal(t, tc.want, name)
		})
	}

	_, _, err := Variant("GLOBAL.LEV")
	assert.True(t, errors.Is(err, format.ErrUnsupportedVariant))
}

func TestColor444(t *testing.T) {
	r, g, b := Color444(0xf0a)
	assert.Equal(t, []byte{0xaa, 0x00, 0xff}, []byte{r, g, b})

	for _, v := range []uint16{0x0, 0x1, 0x8, 0xf} {
		want := byte(v<<4 | v)
		r, g, b := Color444(v | v<<4 | v<<8)
		assert.Equal(t, []byte{want, want, want}, []byte{r, g, b}, "nibble %#x", v)
	}
}

func TestConvertPalette(t *testing.T) {
	dst := make([]byte, Colors*3)
	require.NoError(t, convertPalette(dst, paletteTable(6), [banks]uint16{5, 0, 3, 3}))

	// Entry 2 of the first bank comes from bank 5: B=5, G=2, R=13
	assert.Equal(t, []byte{0xdd, 0x22, 0x55}, dst[2*3:2*3+3])
	// Entry 15 of the second bank comes from bank 0: B=0, G=15, R=0
	assert.Equal(t, []byte{0x00, 0xff, 0x00}, dst[31*3:31*3+3])
	assert.Equal(t, dst[32*3:48*3], dst[48*3:64*3])

	err := convertPalette(dst, paletteTable(2), [banks]uint16{0, 1, 2, 0})
	assert.True(t, errors.Is(err, format.ErrMalformedTable))
}

func TestAtlasLoad(t *testing.T) {
	groups := Groups{data: groupTable(
		group{tiles: append(fill(0x11), fill(0x22)...)},
		group{tiles: append(append(fill(0x33), fill(0x44)...), fill(0x55)...), compressed: true},
	)}

	for _, tc := range []struct {
		name string
		refs []byte
		want []byte
	}{
		{"bulk stored", []byte{0x80, 0x00, 0xff}, []byte{0x11, 0x22}},
		{"bulk compressed", []byte{0x80, 0x01, 0xff}, []byte{0x33, 0x44, 0x55}},
		{"selected", []byte{0x00, 0x01, 0x01, 2, 0, 0x80, 0x00, 0x00, 1}, []byte{0x55, 0x33, 0x22}},
		{"mixed", []byte{0x00, 0x00, 0xff, 0x80, 0x01, 0x00, 1}, []byte{0x11, 0x22, 0x44}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			a := newAtlas()
			require.NoError(t, a.Load(tc.refs, groups))
			require.Equal(t, len(tc.want)+1, a.Len())

			blank, err := a.Tile(0)
			require.NoError(t, err)
			assert.Equal(t, tile.Tile{}, blank)

			for i, v := range tc.want {
				got, err := a.Tile(i + 1)
				require.NoError(t, err)
				assert.Equal(t, fill(v), got[:], "tile %d", i+1)
			}

			_, err = a.Tile(len(tc.want) + 1)
			assert.True(t, errors.Is(err, format.ErrMalformedTable))
		})
	}

	for _, tc := range []struct {
		name string
		refs []byte
	}{
		{"no end marker", []byte{0x00, 0x00, 0xff}},
		{"unknown group", []byte{0x80, 0x07, 0xff}},
		{"tile not in group", []byte{0x80, 0x00, 0x00, 2}},
		{"truncated tile list", []byte{0x80, 0x00, 0x02, 0}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := newAtlas().Load(tc.refs, groups)
			assert.True(t, errors.Is(err, format.ErrMalformedTable), "got %v", err)
		})
	}
}

func TestAtlasReset(t *testing.T) {
	a := newAtlas()
	require.NoError(t, a.Load([]byte{0x80, 0x00, 0xff}, Groups{data: groupTable(group{tiles: fill(0x77)})}))
	assert.Equal(t, 2, a.Len())

	a.Reset()
	assert.Equal(t, 1, a.Len())
	assert.Equal(t, make([]byte, atlasSize), a.buf)
}

func TestDrawGrid(t *testing.T) {
	a := newAtlas()
	require.NoError(t, a.append(corner(0x12)))

	t.Run("opaque with flips and bank", func(t *testing.T) {
		canvas := bytes.Repeat([]byte{0xff}, RoomWidth*RoomHeight)
		cells := grid(map[int]uint16{
			0: 1 | cellFlipX | 2<<13,
			1: 1 | cellFlipY,
		})
		require.NoError(t, drawGrid(canvas, cells, a, true, false))

		assert.Equal(t, byte(0x20), canvas[0])
		assert.Equal(t, byte(0x22), canvas[6])
		assert.Equal(t, byte(0x21), canvas[7])
		assert.Equal(t, byte(0x00), canvas[8])
		assert.Equal(t, byte(0x01), canvas[7*RoomWidth+8])
		assert.Equal(t, byte(0x02), canvas[7*RoomWidth+9])
		// Empty cells are not painted
		assert.Equal(t, byte(0xff), canvas[16])
	})

	t.Run("masked keeps zero pixels", func(t *testing.T) {
		const sentinel = 0x7f
		canvas := bytes.Repeat([]byte{sentinel}, RoomWidth*RoomHeight)
		require.NoError(t, drawGrid(canvas, grid(map[int]uint16{0: 1 | 1<<13}), a, false, false))

		assert.Equal(t, byte(0x11), canvas[0])
		assert.Equal(t, byte(0x12), canvas[1])
		for i, p := range canvas {
			if i != 0 && i != 1 {
				require.Equal(t, byte(sentinel), p, "pixel %d", i)
			}
		}
	})

	t.Run("overlay bias", func(t *testing.T) {
		canvas := make([]byte, RoomWidth*RoomHeight)
		require.NoError(t, drawGrid(canvas, grid(map[int]uint16{0: overlayBias + 1, 1: overlayBias}), a, false, true))
		assert.Equal(t, byte(0x01), canvas[0])
		assert.Equal(t, byte(0x00), canvas[8])

		err := drawGrid(canvas, grid(map[int]uint16{0: 5}), a, false, true)
		assert.True(t, errors.Is(err, format.ErrMalformedTable))
	})

	t.Run("tile out of range", func(t *testing.T) {
		err := drawGrid(make([]byte, RoomWidth*RoomHeight), grid(map[int]uint16{3: 9}), a, true, false)
		assert.True(t, errors.Is(err, format.ErrMalformedTable))
	})
}

func TestDecodeRoom(t *testing.T) {
	mbk := groupTable(group{tiles: append(fill(0x11), corner(0x20)...), compressed: true})
	pal := paletteTable(4)
	refs := []byte{0x80, 0x00, 0xff}

	desc := room(false, [banks]uint16{0, 1, 2, 3}, refs,
		grid(map[int]uint16{0: 1}),
		grid(map[int]uint16{0: 2 | 3<<13}),
	)
	lev := levelStream(map[int][]byte{4: desc})

	d, err := NewDecoder("LEVEL2.LEV", lev, mbk, pal, nil, Options{}, discard)
	require.NoError(t, err)
	assert.Equal(t, []int{4}, d.Rooms())

	_, err = d.DecodeRoom(3)
	assert.Equal(t, ErrEmptyRoom, err)

	r, err := d.DecodeRoom(4)
	require.NoError(t, err)
	assert.Equal(t, "level2_room04.bmp", r.Name())
	assert.False(t, r.Overlay)

	assert.Equal(t, byte(0x32), r.Pixels[0])
	assert.Equal(t, byte(0x01), r.Pixels[1])
	assert.Equal(t, byte(0x01), r.Pixels[7*RoomWidth+7])
	assert.Equal(t, byte(0x00), r.Pixels[8])

	red, green, blue := Color444(uint16(1<<8 | 3<<4 | 12))
	assert.Equal(t, []byte{red, green, blue}, r.Palette[(16+3)*3:(16+3)*3+3])
}

func TestDecodeRoomOverlayOffCanvas(t *testing.T) {
	mbk := groupTable(group{tiles: fill(0x11)})
	desc := room(true, [banks]uint16{}, []byte{0x80, 0x00, 0xff},
		placements(placement{id: 0, x: -500, y: 300}),
		grid(nil),
	)

	d, err := NewDecoder("level1", levelStream(map[int][]byte{0: desc}), mbk, paletteTable(1), shapeCatalog(1, 0x99), Options{}, discard)
	require.NoError(t, err)

	r, err := d.DecodeRoom(0)
	require.NoError(t, err)
	assert.True(t, r.Overlay)
	assert.Equal(t, 1, r.Objects)
	assert.Equal(t, make([]byte, RoomWidth*RoomHeight), r.Pixels)
}

func TestDecodeRoomOverlay(t *testing.T) {
	mbk := groupTable(group{tiles: fill(0x22)})
	desc := room(true, [banks]uint16{}, []byte{0x80, 0x00, 0xff},
		placements(
			placement{id: 38, x: 0, y: 0},
			placement{id: 0xffff, x: 64, y: 0},
			placement{id: 0x8000 | 37, x: 32, y: 0},
		),
		// The foreground goes over the shapes
		grid(map[int]uint16{6: overlayBias + 1}),
	)
	lev := levelStream(map[int][]byte{26: desc})

	d, err := NewDecoder("LEVEL1.LEV", lev, mbk, paletteTable(1), shapeCatalog(39, 0x99), Options{}, discard)
	require.NoError(t, err)

	r, err := d.DecodeRoom(26)
	require.NoError(t, err)
	assert.Equal(t, 2, r.Objects)

	// Shape 38 in room 26 is moved down by eight rows
	assert.Equal(t, byte(0x00), r.Pixels[0])
	assert.Equal(t, byte(0x09), r.Pixels[8*RoomWidth])
	assert.Equal(t, byte(0x09), r.Pixels[32])
	assert.Equal(t, byte(0x09), r.Pixels[47])
	assert.Equal(t, byte(0x02), r.Pixels[48])
	assert.Equal(t, byte(0x00), r.Pixels[64])

	t.Run("without catalog", func(t *testing.T) {
		d, err := NewDecoder("LEVEL1.LEV", lev, mbk, paletteTable(1), nil, Options{}, discard)
		require.NoError(t, err)
		_, err = d.DecodeRoom(26)
		assert.True(t, errors.Is(err, format.ErrUnsupportedVariant), "got %v", err)
	})

	t.Run("unknown shape", func(t *testing.T) {
		d, err := NewDecoder("LEVEL1.LEV", lev, mbk, paletteTable(1), shapeCatalog(2, 0x99), Options{}, discard)
		require.NoError(t, err)
		_, err = d.DecodeRoom(26)
		assert.True(t, errors.Is(err, format.ErrMalformedTable), "got %v", err)
	})
}

func TestExtractContinuesPastBadRoom(t *testing.T) {
	mbk := groupTable(group{tiles: fill(0x11)})
	desc := room(false, [banks]uint16{}, []byte{0x80, 0x00, 0xff}, grid(map[int]uint16{0: 1}), grid(nil))
	lev := levelStream(map[int][]byte{0: desc, 1: desc, 2: desc}, 1)

	d, err := NewDecoder("level3", lev, mbk, paletteTable(1), nil, Options{}, discard)
	require.NoError(t, err)

	var w recorder
	err = d.Extract(&w)
	require.Error(t, err)
	assert.True(t, errors.Is(err, format.ErrCorruptStream))

	var re *RoomError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "level3", re.Level)
	assert.Equal(t, 1, re.Room)

	assert.Equal(t, []string{"level3_room00.bmp", "level3_room02.bmp"}, w.names)
	b := w.bitmaps["level3_room02.bmp"]
	assert.Equal(t, RoomWidth, b.width)
	assert.Equal(t, RoomHeight, b.height)
	assert.Equal(t, Colors, b.colors)
	assert.Len(t, b.palette, Colors*3)
	assert.Equal(t, byte(0x01), b.pixels[0])
}

func TestExtractOptions(t *testing.T) {
	mbk := groupTable(group{tiles: fill(0x11)})
	desc := room(true, [banks]uint16{}, []byte{0x80, 0x00, 0xff}, placements(), grid(nil))

	d, err := NewDecoder("dt", levelStream(map[int][]byte{7: desc}), mbk, paletteTable(1), shapeCatalog(2, 0x45), Options{DrawPalettes: true, DumpShapes: true}, discard)
	require.NoError(t, err)

	var w recorder
	require.NoError(t, d.Extract(&w))
	assert.Equal(t, []string{"dt_room07.bmp", "dt_sgd000.bmp", "dt_sgd001.bmp"}, w.names)

	b := w.bitmaps["dt_room07.bmp"]
	assert.Equal(t, byte(0), b.pixels[0])
	assert.Equal(t, byte(17), b.pixels[6*RoomWidth+8])
	assert.Equal(t, byte(63), b.pixels[21*RoomWidth+127])
	assert.Equal(t, byte(0), b.pixels[4*RoomWidth])

	s := w.bitmaps["dt_sgd001.bmp"]
	assert.Equal(t, 16, s.width)
	assert.Equal(t, 1, s.height)
	assert.Equal(t, []byte{4, 5, 4, 5, 4, 5, 4, 5, 4, 5, 4, 5, 4, 5, 4, 5}, s.pixels)
}

func TestNewDecoder(t *testing.T) {
	_, err := NewDecoder("title", make([]byte, roomTableSize), nil, nil, nil, Options{}, discard)
	assert.True(t, errors.Is(err, format.ErrUnsupportedVariant))

	_, err = NewDecoder("level1", make([]byte, 16), nil, nil, nil, Options{}, discard)
	assert.True(t, errors.Is(err, format.ErrMalformedTable))

	_, err = NewDecoder("level1", make([]byte, roomTableSize), nil, nil, []byte{0, 0, 0, 64}, Options{}, discard)
	assert.True(t, errors.Is(err, format.ErrMalformedTable))
}

func TestParseRoomName(t *testing.T) {
	r := Room{Level: "level4", Index: 7}
	name, room, ok := ParseRoomName(r.Name())
	assert.True(t, ok)
	assert.Equal(t, "level4", name)
	assert.Equal(t, 7, room)

	for _, s := range []string{"level4_overview.bmp", "level4_sgd001.bmp", "_room01.bmp", "level4_room64.bmp", "level4_room01.png", "level4_roomx.bmp"} {
		_, _, ok := ParseRoomName(s)
		assert.False(t, ok, s)
	}
}
