package fbunpack

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/fbunpack/format"
	"github.com/bodgit/fbunpack/rom"
)

// source is a set of named game files, either a game image or a directory.
type source interface {
	Names() []string
	Has(name string) bool
	Read(name string) ([]byte, error)
}

type dirSource struct {
	dir   string
	names []string
	index map[string]string
}

func newDirSource(dir string) *dirSource {
	return &dirSource{
		dir:   dir,
		index: make(map[string]string),
	}
}

func (s *dirSource) add(name string) {
	s.names = append(s.names, name)
	s.index[strings.ToUpper(name)] = name
}

func (s *dirSource) Names() []string {
	return s.names
}

func (s *dirSource) Has(name string) bool {
	_, ok := s.index[strings.ToUpper(name)]
	return ok
}

func (s *dirSource) Read(name string) ([]byte, error) {
	file, ok := s.index[strings.ToUpper(name)]
	if !ok {
		return nil, fmt.Errorf("%s: %w", filepath.Join(s.dir, name), os.ErrNotExist)
	}
	return os.ReadFile(filepath.Join(s.dir, file))
}

// findFiles walks base and groups the regular files by directory.
func findFiles(base string) ([]*dirSource, error) {
	var sources []*dirSource
	dirs := make(map[string]*dirSource)

	if err := filepath.Walk(base, func(file string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		// Ignore any hidden files or directories, otherwise we end up fighting with things like Spotlight, etc.
		if info.Name()[0] == '.' {
			if info.Mode().IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		// Ignore anything that isn't a normal file
		if !info.Mode().IsRegular() {
			return nil
		}

		dir := filepath.Dir(file)
		s, ok := dirs[dir]
		if !ok {
			s = newDirSource(dir)
			dirs[dir] = s
			sources = append(sources, s)
		}
		s.add(filepath.Base(file))

		return nil
	}); err != nil {
		return nil, err
	}

	return sources, nil
}

func (e *Extractor) extractLevel(src source, name string) error {
	base, _ := splitName(name)

	files := make(map[string][]byte)
	for _, ext := range []string{"LEV", "MBK", "PAL", "SGD"} {
		file := base + "." + ext
		if !src.Has(file) {
			if ext == "SGD" {
				continue
			}
			return e.fail(name, fmt.Errorf("%s: no %s: %w", name, file, format.ErrMalformedTable))
		}
		b, err := src.Read(file)
		if err != nil {
			return e.fail(name, err)
		}
		files[ext] = b
	}

	return e.ExtractLevel(name, files["LEV"], files["MBK"], files["PAL"], files["SGD"])
}

func (e *Extractor) extract(src source) error {
	var errs []error
	for _, name := range src.Names() {
		switch _, ext := splitName(name); ext {
		case "LEV":
			if err := e.extractLevel(src, name); err != nil {
				errs = append(errs, err)
			}
		case "MBK", "PAL", "SGD", "TAB":
			// Read along with the file using them
		default:
			h, ok := handlers[ext]
			if !ok {
				e.logger.Printf("Skipping %s\n", name)
				continue
			}
			data, err := src.Read(name)
			if err == nil {
				err = h(&assetWriter{Extractor: e, name: name}, src, name, data)
			}
			if err != nil {
				errs = append(errs, e.fail(name, fmt.Errorf("%s: %w", name, err)))
			}
		}
	}
	return errors.Join(errs...)
}

// ExtractROM identifies the game image at path using the catalog file and
// extracts every file it holds.
func (e *Extractor) ExtractROM(path, catalog string) error {
	image := filepath.Base(path)

	c, err := rom.LoadCatalog(catalog)
	if err != nil {
		return e.fail(image, err)
	}

	data, err := rom.Open(path)
	if err != nil {
		return e.fail(image, err)
	}

	img, err := c.Identify(data)
	if err != nil {
		return e.fail(image, err)
	}
	e.logger.Printf("Found %d files\n", len(img.Names()))

	var errs []error
	if e.opts.Dump {
		for _, name := range img.Names() {
			if err := e.dump(img, name); err != nil {
				errs = append(errs, e.fail(name, err))
			}
		}
	}

	return errors.Join(append(errs, e.extract(img))...)
}

// dump writes file name of src as is. Only the base of name is used.
func (e *Extractor) dump(src source, name string) error {
	b, err := src.Read(name)
	if err != nil {
		return err
	}
	file := filepath.Base(name)
	if err := os.WriteFile(filepath.Join(e.out.Path(), file), b, 0o644); err != nil {
		return err
	}
	e.logger.Printf("Wrote %s\n", file)
	return nil
}

// ExtractFiles extracts the game files found anywhere below path. Levels are
// matched with the files sharing their directory and base name.
func (e *Extractor) ExtractFiles(path string) error {
	dir, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	sources, err := findFiles(dir)
	if err != nil {
		return err
	}

	var errs []error
	for _, s := range sources {
		if err := e.extract(s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ExtractLevelFile extracts the level in file, reading the files it needs
// from the same directory.
func (e *Extractor) ExtractLevelFile(file string) error {
	if _, err := os.Stat(file); err != nil {
		return err
	}

	dir := filepath.Dir(file)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	s := newDirSource(dir)
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			s.add(entry.Name())
		}
	}

	return e.extractLevel(s, filepath.Base(file))
}
