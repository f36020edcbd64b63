/*
Package rom gives access to the files packed inside a game image.

The files are not indexed by the image itself; their names, offsets and sizes
come from a catalog that identifies each known image by its SHA-1. Images can
be plain cartridge dumps, optionally compressed with gzip or zstd, or a CD
cue sheet whose first data track holds the files.
*/
package rom

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/fbunpack/format"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// File locates one file inside an image.
type File struct {
	Name   string
	Offset uint32
	Size   uint32
}

// Image is an identified game image.
type Image struct {
	data  []byte
	files []File
	index map[string]int
}

func newImage(data []byte, files []File) *Image {
	img := &Image{
		data:  data,
		files: files,
		index: make(map[string]int, len(files)),
	}
	for i, f := range files {
		img.index[strings.ToUpper(f.Name)] = i
	}
	return img
}

// Names returns the file names in catalog order.
func (img *Image) Names() []string {
	names := make([]string, len(img.files))
	for i, f := range img.files {
		names[i] = f.Name
	}
	return names
}

// Has reports whether the image holds a file called name, ignoring case.
func (img *Image) Has(name string) bool {
	_, ok := img.index[strings.ToUpper(name)]
	return ok
}

// Read returns the contents of file name. The result aliases the image.
func (img *Image) Read(name string) ([]byte, error) {
	i, ok := img.index[strings.ToUpper(name)]
	if !ok {
		return nil, fmt.Errorf("rom: no file %q: %w", name, os.ErrNotExist)
	}
	f := img.files[i]
	end := uint64(f.Offset) + uint64(f.Size)
	if end > uint64(len(img.data)) {
		return nil, fmt.Errorf("rom: %s at %#x+%d past end of %d byte image: %w", f.Name, f.Offset, f.Size, len(img.data), format.ErrMalformedTable)
	}
	return img.data[f.Offset:end], nil
}

// Open reads the image at path. Cue sheets are resolved to their first data
// track and compressed dumps are decompressed.
func Open(path string) ([]byte, error) {
	if strings.EqualFold(filepath.Ext(path), ".cue") {
		return readCue(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	b, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	switch {
	case bytes.HasPrefix(b, zstdMagic):
		dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		return dec.DecodeAll(b, nil)
	case bytes.HasPrefix(b, gzipMagic):
		r, err := gzip.NewReader(bytes.NewReader(b))
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return io.ReadAll(r)
	}

	return b, nil
}
