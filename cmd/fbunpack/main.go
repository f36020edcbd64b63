package main

import (
	"io"
	"log"
	"os"

	"github.com/bodgit/fbunpack"
	"github.com/urfave/cli/v2"
)

const defaultCatalog = "roms.xml"

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func extractor(c *cli.Context) (*fbunpack.Extractor, error) {
	logger := log.New(io.Discard, "", 0)
	if c.Bool("verbose") {
		logger.SetOutput(os.Stderr)
	}

	return fbunpack.New(c.String("output"), c.String("db"), fbunpack.Options{
		Overview: c.Bool("overview"),
		Shapes:   c.Bool("shapes"),
		Palettes: c.Bool("palettes"),
		Dump:     c.Bool("dump"),
	}, logger)
}

// action wraps one extraction so every command handles its argument, the
// extractor and errors the same way.
func action(extract func(*fbunpack.Extractor, *cli.Context) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		if c.NArg() < 1 {
			cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
		}

		e, err := extractor(c)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		defer e.Close()

		if err := extract(e, c); err != nil {
			return cli.NewExitError(err, 1)
		}

		return nil
	}
}

func main() {
	app := cli.NewApp()

	app.Name = "fbunpack"
	app.Usage = "Flashback Mega Drive asset extractor"
	app.Version = "1.0.0"

	cwd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Value:   cwd,
			Usage:   "directory to write files to",
		},
		&cli.StringFlag{
			Name:  "db",
			Usage: "path to manifest database",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
		&cli.BoolFlag{
			Name:  "overview",
			Usage: "write an overview of all rooms for each level",
		},
		&cli.BoolFlag{
			Name:  "shapes",
			Usage: "write every overlay shape",
		},
		&cli.BoolFlag{
			Name:  "palettes",
			Usage: "draw the palette into each room",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:        "rom",
			Usage:       "Extract assets from a ROM or CD image",
			Description: "",
			ArgsUsage:   "FILE",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "catalog",
					Value: defaultCatalog,
					Usage: "path to ROM catalog",
				},
				&cli.BoolFlag{
					Name:  "dump",
					Usage: "also write each file as is",
				},
			},
			Action: action(func(e *fbunpack.Extractor, c *cli.Context) error {
				return e.ExtractROM(c.Args().First(), c.String("catalog"))
			}),
		},
		{
			Name:        "level",
			Usage:       "Extract the rooms of a level",
			Description: "The .MBK, .PAL and .SGD files are read from the same directory",
			ArgsUsage:   "FILE",
			Action: action(func(e *fbunpack.Extractor, c *cli.Context) error {
				return e.ExtractLevelFile(c.Args().First())
			}),
		},
		{
			Name:        "dir",
			Usage:       "Extract assets from unpacked game files",
			Description: "",
			ArgsUsage:   "DIRECTORY",
			Action: action(func(e *fbunpack.Extractor, c *cli.Context) error {
				return e.ExtractFiles(c.Args().First())
			}),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
