package sprite

// PlayerPalette is used for the player and every sprite that is not a
// monster. The inventory icons share it.
var PlayerPalette = []byte{
	0x00, 0x00, 0x00, 0xcc, 0xcc, 0xcc, 0x44, 0x22, 0x00, 0x44, 0x44, 0xaa,
	0xcc, 0x66, 0x66, 0x88, 0x88, 0x88, 0x66, 0x66, 0xcc, 0x66, 0x44, 0x22,
	0xee, 0x00, 0x44, 0x88, 0x00, 0x44, 0x44, 0x44, 0x44, 0x00, 0xee, 0x00,
	0x00, 0x66, 0x00, 0xee, 0xee, 0x00, 0xaa, 0x22, 0xee, 0x00, 0x00, 0x00,
}

type monster struct {
	first, last int
	name        string
	palette     []byte
}

var monsters = []monster{
	{
		0x22f, 0x28d, "junky", []byte{
			0x00, 0x00, 0x00, 0xaa, 0x66, 0x44, 0x66, 0x44, 0x44, 0x66, 0x22, 0x22,
			0xee, 0x44, 0x00, 0x44, 0x00, 0x22, 0x66, 0x00, 0x44, 0x88, 0x88, 0xaa,
			0x44, 0x00, 0x00, 0x44, 0x44, 0x66, 0x22, 0x22, 0x44, 0x00, 0x00, 0x22,
			0xbb, 0x00, 0xff, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		},
	},
	{
		0x2ea, 0x385, "mercenaire", []byte{
			0x00, 0x00, 0x00, 0xcc, 0x88, 0x66, 0x88, 0x66, 0x66, 0x88, 0x44, 0x44,
			0x22, 0x22, 0x66, 0x44, 0x44, 0xaa, 0x66, 0x66, 0xcc, 0xaa, 0xaa, 0xaa,
			0x00, 0xee, 0x00, 0x00, 0x88, 0x00, 0x88, 0x66, 0x88, 0x22, 0x00, 0x22,
			0x22, 0x22, 0x22, 0x66, 0x44, 0x66, 0x44, 0x22, 0x44, 0xff, 0x00, 0xff,
		},
	},
	{
		0x387, 0x42f, "replicant", []byte{
			0x00, 0x00, 0x00, 0x44, 0x22, 0x66, 0x66, 0x44, 0x88, 0x88, 0x66, 0xaa,
			0xcc, 0x66, 0x66, 0x66, 0x66, 0x66, 0x88, 0x88, 0x88, 0xaa, 0xaa, 0xaa,
			0x88, 0x44, 0x44, 0xff, 0xaa, 0x88, 0xff, 0xee, 0x00, 0x00, 0x88, 0x00,
			0x00, 0xdd, 0x00, 0x00, 0xcc, 0xcc, 0x00, 0x66, 0xff, 0x00, 0x00, 0xaa,
		},
	},
	{
		0x430, 0x4e8, "glue", []byte{
			0x00, 0x00, 0x00, 0x22, 0x22, 0x88, 0x00, 0x44, 0x88, 0x00, 0x44, 0xcc,
			0x00, 0x66, 0xcc, 0xaa, 0x00, 0x00, 0x22, 0x22, 0x66, 0x66, 0x00, 0x00,
			0x88, 0x00, 0x00, 0xcc, 0x00, 0x00, 0x44, 0x00, 0x00, 0xee, 0xee, 0xee,
			0xcc, 0x00, 0xcc, 0x00, 0x44, 0x00, 0x00, 0x22, 0x00, 0x00, 0x66, 0x00,
		},
	},
}

// Owner returns the name and palette of the character sprite i belongs to.
func Owner(i int) (string, []byte) {
	for _, m := range monsters {
		if i >= m.first && i <= m.last {
			return m.name, m.palette
		}
	}
	return "perso", PlayerPalette
}
