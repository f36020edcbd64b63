package fbunpack

import (
	"encoding/binary"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bodgit/fbunpack/bytekiller"
	"github.com/bodgit/fbunpack/format"
	"github.com/bodgit/fbunpack/sprite"
	"github.com/bodgit/fbunpack/tile"
)

const (
	collisionSize = 0x1d00
	objectSize    = 18
	trapSize      = 32
	iconSize      = 4 * tile.Size

	spriteBanks  = "SPC.MBK"
	spritePieces = "GLOBAL.SPC"
	spriteTable  = "GLOBAL.TAB"
)

// handler processes the file name holding data. Any other files it needs
// are read from src.
type handler func(w *assetWriter, src source, name string, data []byte) error

var handlers = map[string]handler{
	"CT":  checkCollision,
	"FNT": extractFont,
	"ICN": extractIcons,
	"OBJ": checkObjects,
	"PGE": checkTraps,
	"RP":  extractPieces,
	"SPC": extractBanks,
	"SPR": extractSprites,
}

// splitName returns the base name and upper case extension of name.
func splitName(name string) (string, string) {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext), strings.ToUpper(strings.TrimPrefix(ext, "."))
}

// checkCollision checks a compressed collision map.
func checkCollision(_ *assetWriter, _ source, _ string, data []byte) error {
	size, err := bytekiller.Size(data)
	if err != nil {
		return err
	}
	if size != collisionSize {
		return fmt.Errorf("collision map of %d bytes: %w", size, format.ErrMalformedTable)
	}
	buf := make([]byte, size)
	_, crc, err := bytekiller.Unpack(buf, data)
	if err != nil {
		return err
	}
	if crc != 0 {
		return fmt.Errorf("collision map checksum %08x: %w", crc, format.ErrCorruptStream)
	}
	return nil
}

// checkObjects walks the chain of object groups, each a 16-bit count of
// fixed size records, which must end exactly at the end of data.
func checkObjects(_ *assetWriter, _ source, _ string, data []byte) error {
	if len(data) < 4 {
		return fmt.Errorf("object table of %d bytes: %w", len(data), format.ErrMalformedTable)
	}
	size := uint64(len(data))
	offset := uint64(binary.BigEndian.Uint32(data))
	for offset < size {
		if offset+2 > size {
			return fmt.Errorf("object group at %d truncated: %w", offset, format.ErrMalformedTable)
		}
		count := uint64(binary.BigEndian.Uint16(data[offset:]))
		offset += 2 + count*objectSize
	}
	if offset != size {
		return fmt.Errorf("object table ends at %d, not %d: %w", offset, size, format.ErrMalformedTable)
	}
	return nil
}

// checkTraps checks that the trap table holds exactly as many records as it
// declares.
func checkTraps(_ *assetWriter, _ source, _ string, data []byte) error {
	if len(data) < 2 {
		return fmt.Errorf("trap table of %d bytes: %w", len(data), format.ErrMalformedTable)
	}
	count := int(binary.BigEndian.Uint16(data))
	if len(data)-2 != count*trapSize {
		return fmt.Errorf("%d traps in %d bytes: %w", count, len(data)-2, format.ErrMalformedTable)
	}
	return nil
}

func grayscale() []byte {
	p := make([]byte, 16*3)
	for i := 0; i < 16; i++ {
		p[i*3], p[i*3+1], p[i*3+2] = byte(i<<4|i), byte(i<<4|i), byte(i<<4|i)
	}
	return p
}

// extractFont writes the font tiles side by side in shades of gray.
func extractFont(w *assetWriter, _ source, name string, data []byte) error {
	count := len(data) / tile.Size
	if count == 0 {
		return fmt.Errorf("font of %d bytes: %w", len(data), format.ErrMalformedTable)
	}

	width := count * tile.Width
	pixels := make([]byte, width*tile.Height)
	for i := 0; i < count; i++ {
		var t tile.Tile
		copy(t[:], data[i*tile.Size:])
		t.Draw(pixels, width, i*tile.Width, 0, 0)
	}

	base, _ := splitName(name)
	return w.WriteBitmap(strings.ToLower(base)+".bmp", pixels, width, tile.Height, grayscale(), 16)
}

// extractIcons writes the 16 by 16 icons side by side. Each icon is made of
// two columns of two tiles.
func extractIcons(w *assetWriter, _ source, name string, data []byte) error {
	count := len(data) / iconSize
	if count == 0 {
		return fmt.Errorf("icons of %d bytes: %w", len(data), format.ErrMalformedTable)
	}

	width := count * 2 * tile.Width
	pixels := make([]byte, width*2*tile.Height)
	for i := 0; i < count; i++ {
		for j := 0; j < 4; j++ {
			var t tile.Tile
			copy(t[:], data[i*iconSize+j*tile.Size:])
			t.Draw(pixels, width, (i*2+j>>1)*tile.Width, (j&1)*tile.Height, 0)
		}
	}

	base, _ := splitName(name)
	return w.WriteBitmap(strings.ToLower(base)+".bmp", pixels, width, 2*tile.Height, sprite.PlayerPalette, 16)
}

// extractBanks checks the piece table and writes every sprite tile bank as a
// strip of tiles in shades of gray.
func extractBanks(w *assetWriter, src source, _ string, data []byte) error {
	if _, err := sprite.ParsePieces(data); err != nil {
		return err
	}

	mbk, err := src.Read(spriteBanks)
	if err != nil {
		return err
	}

	var errs []error
	for i := 0; i < sprite.BankCount; i++ {
		tiles, err := sprite.Bank(mbk, i)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if len(tiles) == 0 {
			continue
		}
		pixels, width := sprite.Strip(tiles)
		if err := w.WriteBitmap(fmt.Sprintf("mbk%03d.bmp", i), pixels, width, tile.Height, grayscale(), 16); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// extractPieces writes every room piece. data maps each piece to the sprite
// tile bank it draws from.
func extractPieces(w *assetWriter, src source, name string, data []byte) error {
	spc, err := src.Read(spritePieces)
	if err != nil {
		return err
	}
	pieces, err := sprite.ParsePieces(spc)
	if err != nil {
		return err
	}
	mbk, err := src.Read(spriteBanks)
	if err != nil {
		return err
	}

	base, _ := splitName(name)
	banks := make(map[byte][]byte)

	var errs []error
	for i, p := range pieces {
		if p.Bank >= len(data) {
			errs = append(errs, fmt.Errorf("piece %d uses entry %d of %d: %w", i, p.Bank, len(data), format.ErrMalformedTable))
			continue
		}
		num := data[p.Bank]
		tiles, ok := banks[num]
		if !ok {
			if tiles, err = sprite.Bank(mbk, int(num)); err != nil {
				errs = append(errs, err)
				continue
			}
			banks[num] = tiles
		}
		file := fmt.Sprintf("%s_piece%03d.bmp", strings.ToLower(base), i)
		if err := w.WriteBitmap(file, p.Render(tiles), sprite.PieceSize, sprite.PieceSize, grayscale(), 16); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// extractSprites writes every character sprite with the palette of the
// character it belongs to.
func extractSprites(w *assetWriter, src source, _ string, data []byte) error {
	tab, err := src.Read(spriteTable)
	if err != nil {
		return err
	}
	s, err := sprite.NewSprites(data, tab)
	if err != nil {
		return err
	}

	var errs []error
	for i := 0; i < s.Len(); i++ {
		pixels, err := s.Decode(i)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		owner, palette := sprite.Owner(i)
		if err := w.WriteBitmap(fmt.Sprintf("spr%04d_%s.bmp", i, owner), pixels, sprite.Width, sprite.Height, palette, 16); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
