package rom

import (
	"bytes"
	"crypto/sha1"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bodgit/fbunpack/format"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testImage() []byte {
	b := make([]byte, 0x40)
	for i := range b {
		b[i] = byte(i)
	}
	return b
}

func testCatalog(data []byte) string {
	return fmt.Sprintf(`<?xml version="1.0"?>
<roms>
  <rom>
    <hash sha1="%X"/>
    <files>
      <file name="LEVEL1.LEV" offset="10" size="4"/>
      <file name="LEVEL1.MBK" offset="0x3e" size="2"/>
      <file name="BROKEN.PGE" offset="3c" size="5"/>
    </files>
  </rom>
  <rom>
    <hash sha1="0000000000000000000000000000000000000000"/>
    <files/>
  </rom>
</roms>`, sha1.Sum(data))
}

func TestCatalog(t *testing.T) {
	data := testImage()

	c, err := ParseCatalog(strings.NewReader(testCatalog(data)))
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())

	img, err := c.Identify(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"LEVEL1.LEV", "LEVEL1.MBK", "BROKEN.PGE"}, img.Names())
	assert.True(t, img.Has("level1.mbk"))
	assert.False(t, img.Has("LEVEL1.PAL"))

	b, err := img.Read("level1.lev")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x10, 0x11, 0x12, 0x13}, b)

	b, err = img.Read("LEVEL1.MBK")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x3e, 0x3f}, b)

	_, err = img.Read("BROKEN.PGE")
	assert.True(t, errors.Is(err, format.ErrMalformedTable))

	_, err = img.Read("LEVEL1.PAL")
	assert.True(t, errors.Is(err, os.ErrNotExist))

	_, err = c.Identify(data[1:])
	assert.True(t, errors.Is(err, format.ErrUnsupportedVariant))
}

func TestCatalogErrors(t *testing.T) {
	for _, s := range []string{
		`<roms><rom`,
		`<roms><rom><hash sha1="00"/><files><file name="A" offset="xyz" size="1"/></files></rom></roms>`,
		`<roms><rom><hash sha1="00"/><files><file name="A" offset="10" size="-1"/></files></rom></roms>`,
	} {
		_, err := ParseCatalog(strings.NewReader(s))
		assert.Error(t, err, s)
	}
}

func TestLoadCatalog(t *testing.T) {
	file := filepath.Join(t.TempDir(), "roms.xml")
	require.NoError(t, os.WriteFile(file, []byte(testCatalog(testImage())), 0o644))

	c, err := LoadCatalog(file)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())

	_, err = LoadCatalog(filepath.Join(t.TempDir(), "missing.xml"))
	assert.True(t, os.IsNotExist(err))
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	data := testImage()

	gz := new(bytes.Buffer)
	w := gzip.NewWriter(gz)
	_, err := w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	zst := enc.EncodeAll(data, nil)
	require.NoError(t, enc.Close())

	for name, b := range map[string][]byte{
		"game.bin":    data,
		"game.bin.gz": gz.Bytes(),
		"game.zst":    zst,
	} {
		t.Run(name, func(t *testing.T) {
			file := filepath.Join(dir, name)
			require.NoError(t, os.WriteFile(file, b, 0o644))

			got, err := Open(file)
			require.NoError(t, err)
			assert.Equal(t, data, got)
		})
	}

	_, err = Open(filepath.Join(dir, "missing.bin"))
	assert.True(t, os.IsNotExist(err))
}

func sectors(mode string, n int) ([]byte, []byte) {
	var raw, user []byte
	for i := 0; i < n; i++ {
		s := bytes.Repeat([]byte{byte(i + 1)}, sectorSize)
		user = append(user, s...)
		if mode == "MODE1/2352" {
			raw = append(raw, make([]byte, sectorHeader)...)
			raw = append(raw, s...)
			raw = append(raw, bytes.Repeat([]byte{0xee}, sectorTrailer)...)
		} else {
			raw = append(raw, s...)
		}
	}
	return raw, user
}

func TestOpenCue(t *testing.T) {
	for _, mode := range []string{"MODE1/2352", "MODE1/2048"} {
		t.Run(mode, func(t *testing.T) {
			dir := t.TempDir()
			raw, user := sectors(mode, 3)

			sheet := fmt.Sprintf("FILE \"game.bin\" BINARY\n  TRACK 01 %s\n    INDEX 01 00:00:00\nFILE \"audio.bin\" BINARY\n  TRACK 02 AUDIO\n    INDEX 01 00:00:00\n", mode)
			require.NoError(t, os.WriteFile(filepath.Join(dir, "game.cue"), []byte(sheet), 0o644))
			require.NoError(t, os.WriteFile(filepath.Join(dir, "game.bin"), raw, 0o644))

			got, err := Open(filepath.Join(dir, "game.cue"))
			require.NoError(t, err)
			assert.Equal(t, user, got)
		})
	}

	t.Run("audio only", func(t *testing.T) {
		dir := t.TempDir()
		sheet := "FILE \"audio.bin\" BINARY\n  TRACK 01 AUDIO\n    INDEX 01 00:00:00\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, "audio.cue"), []byte(sheet), 0o644))

		_, err := Open(filepath.Join(dir, "audio.cue"))
		assert.Error(t, err)
	})

	t.Run("partial sector", func(t *testing.T) {
		dir := t.TempDir()
		raw, _ := sectors("MODE1/2352", 1)
		sheet := "FILE \"game.bin\" BINARY\n  TRACK 01 MODE1/2352\n    INDEX 01 00:00:00\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, "game.cue"), []byte(sheet), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "game.bin"), raw[:100], 0o644))

		_, err := Open(filepath.Join(dir, "game.cue"))
		assert.Error(t, err)
	})
}
