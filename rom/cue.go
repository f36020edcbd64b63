package rom

import (
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/vchimishuk/chub/cue"
)

const (
	sectorHeader  = 16
	sectorSize    = 2048
	sectorTrailer = 288
	rawSectorSize = sectorHeader + sectorSize + sectorTrailer
)

func firstDataTrack(sheet *cue.Sheet) (string, cue.TrackDataType, error) {
	for _, file := range sheet.Files {
		for _, track := range file.Tracks {
			switch track.DataType {
			case cue.DataTypeMode1_2048, cue.DataTypeMode1_2352:
				return file.Name, track.DataType, nil
			}
		}
	}
	return "", cue.DataTypeAudio, errors.New("rom: audio-only CDs are not supported")
}

// readCue returns the user data of every sector of the first data track.
func readCue(file string) ([]byte, error) {
	sheet, err := cue.ParseFile(file)
	if err != nil {
		return nil, err
	}

	fileName, dataType, err := firstDataTrack(sheet)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(filepath.Join(filepath.Dir(file), fileName))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	b, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	if dataType != cue.DataTypeMode1_2352 {
		return b, nil
	}

	if len(b)%rawSectorSize != 0 {
		return nil, errors.New("rom: track is not a whole number of sectors")
	}
	out := make([]byte, 0, len(b)/rawSectorSize*sectorSize)
	for i := 0; i < len(b); i += rawSectorSize {
		out = append(out, b[i+sectorHeader:i+sectorHeader+sectorSize]...)
	}
	return out, nil
}
