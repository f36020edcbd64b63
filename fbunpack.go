/*
Package fbunpack is a library for extracting the graphics of the Mega Drive
version of Flashback.

Levels are rebuilt room by room and written as BMP files. Other game files are
checked against their expected layout and, where they hold graphics, written
out as well.
*/
package fbunpack

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/bodgit/fbunpack/bitmap"
	"github.com/bodgit/fbunpack/level"
	"github.com/bodgit/fbunpack/manifest"
	"github.com/bodgit/fbunpack/sheet"
)

// Options select the optional outputs.
type Options struct {
	// Overview writes a sheet of all rooms for each level
	Overview bool

	// Shapes writes every overlay shape of each level
	Shapes bool

	// Palettes draws the room palette into each room bitmap
	Palettes bool

	// Dump writes every file of a game image as is
	Dump bool
}

type Extractor struct {
	out      *bitmap.Dir
	manifest *manifest.Manifest
	opts     Options
	logger   *log.Logger
}

// New returns an Extractor writing into the directory output. If db is not
// empty every asset and failure is also recorded in the manifest database
// of that name.
func New(output, db string, opts Options, logger *log.Logger) (*Extractor, error) {
	info, err := os.Stat(output)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: not a directory", output)
	}

	e := &Extractor{
		out:    bitmap.NewDir(output),
		opts:   opts,
		logger: logger,
	}

	if db != "" {
		if e.manifest, err = manifest.Open(db); err != nil {
			return nil, err
		}
	}

	return e, nil
}

func (e *Extractor) Close() error {
	if e.manifest != nil {
		return e.manifest.Close()
	}
	return nil
}

// assetWriter writes the bitmaps of one level or file and records them.
type assetWriter struct {
	*Extractor
	name  string
	sheet *sheet.Sheet
}

func (w *assetWriter) WriteBitmap(name string, pixels []byte, width, height int, palette []byte, colors int) error {
	sum, err := w.out.Write(name, pixels, width, height, palette, colors)
	if err != nil {
		return err
	}
	w.logger.Printf("Wrote %s\n", name)

	room := -1
	if _, r, ok := level.ParseRoomName(name); ok {
		room = r
		if w.sheet != nil {
			if err := w.sheet.Add(room, pixels, palette, colors); err != nil {
				return err
			}
		}
	}

	if w.manifest != nil {
		return w.manifest.AddAsset(name, w.name, room, width, height, sum)
	}
	return nil
}

// fail records every error joined in err against name and returns err.
func (e *Extractor) fail(name string, err error) error {
	errs := []error{err}
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		errs = j.Unwrap()
	}

	for _, err := range errs {
		room := -1
		var re *level.RoomError
		if errors.As(err, &re) {
			room = re.Room
		} else {
			e.logger.Printf("Failed %v\n", err)
		}
		if e.manifest != nil {
			if merr := e.manifest.AddFailure(name, room, err); merr != nil {
				return errors.Join(err, merr)
			}
		}
	}
	return err
}

// ExtractLevel rebuilds every room of the level called name. lev, mbk and
// pal are required, sgd may be nil for levels without overlay rooms. Rooms
// that fail to decode do not stop the extraction; their errors are joined
// into the returned error.
func (e *Extractor) ExtractLevel(name string, lev, mbk, pal, sgd []byte) error {
	d, err := level.NewDecoder(name, lev, mbk, pal, sgd, level.Options{
		DrawPalettes: e.opts.Palettes,
		DumpShapes:   e.opts.Shapes,
	}, e.logger)
	if err != nil {
		return e.fail(name, err)
	}

	w := &assetWriter{
		Extractor: e,
		name:      d.Name(),
	}
	if e.opts.Overview {
		w.sheet = sheet.New(d.Name(), level.RoomWidth, level.RoomHeight)
	}

	var errs []error
	if err := d.Extract(w); err != nil {
		errs = append(errs, e.fail(d.Name(), err))
	}

	if w.sheet != nil && w.sheet.Len() > 0 {
		if err := w.sheet.WriteTo(w); err != nil {
			errs = append(errs, e.fail(d.Name(), err))
		}
	}

	return errors.Join(errs...)
}
