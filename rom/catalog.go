package rom

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/bodgit/fbunpack/format"
)

type xmlCatalog struct {
	XMLName xml.Name `xml:"roms"`
	ROMs    []xmlROM `xml:"rom"`
}

type xmlROM struct {
	XMLName xml.Name  `xml:"rom"`
	Hash    xmlHash   `xml:"hash"`
	Files   []xmlFile `xml:"files>file"`
}

type xmlHash struct {
	SHA1 string `xml:"sha1,attr"`
}

type xmlFile struct {
	Name   string `xml:"name,attr"`
	Offset string `xml:"offset,attr"`
	Size   string `xml:"size,attr"`
}

// Catalog maps the SHA-1 of each known image to its file table.
type Catalog struct {
	roms map[string][]File
}

// LoadCatalog reads a catalog from file.
func LoadCatalog(file string) (*Catalog, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ParseCatalog(f)
}

// ParseCatalog reads a catalog from r. File offsets are hexadecimal and
// sizes decimal.
func ParseCatalog(r io.Reader) (*Catalog, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var x xmlCatalog
	if err := xml.Unmarshal(b, &x); err != nil {
		return nil, err
	}

	c := &Catalog{
		roms: make(map[string][]File, len(x.ROMs)),
	}
	for _, rom := range x.ROMs {
		files := make([]File, 0, len(rom.Files))
		for _, xf := range rom.Files {
			offset, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(xf.Offset), "0x"), 16, 32)
			if err != nil {
				return nil, fmt.Errorf("rom: %s offset: %w", xf.Name, err)
			}
			size, err := strconv.ParseUint(xf.Size, 10, 32)
			if err != nil {
				return nil, fmt.Errorf("rom: %s size: %w", xf.Name, err)
			}
			files = append(files, File{
				Name:   xf.Name,
				Offset: uint32(offset),
				Size:   uint32(size),
			})
		}
		c.roms[strings.ToLower(rom.Hash.SHA1)] = files
	}

	return c, nil
}

// Len returns the number of known images.
func (c *Catalog) Len() int {
	return len(c.roms)
}

// Identify hashes data and returns it as an Image if the catalog knows it.
func (c *Catalog) Identify(data []byte) (*Image, error) {
	sum := sha1.Sum(data)
	files, ok := c.roms[hex.EncodeToString(sum[:])]
	if !ok {
		return nil, fmt.Errorf("rom: unknown image %x: %w", sum, format.ErrUnsupportedVariant)
	}
	return newImage(data, files), nil
}
