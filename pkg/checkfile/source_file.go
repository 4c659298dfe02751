package checkfile

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"github.com/dustin/go-humanize"
)

// FileSource reads the value from a local file.
type FileSource struct {
	Path string
}

func (s *FileSource) Fetch(_ context.Context) (string, error) {
	if s.Path == "" {
		return "", newError(ErrAcquisition, "No file path given.")
	}

	stat, err := os.Stat(s.Path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return "", newError(ErrAcquisition, "Passed file does not exist.")
	case err != nil:
		return "", newError(ErrAcquisition, "cannot access %s: %s", s.Path, err.Error())
	case stat.IsDir():
		return "", newError(ErrAcquisition, "Passed file is a directory.")
	}

	log.Debugf("reading %s (%s)", s.Path, humanize.Bytes(uint64(stat.Size())))
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return "", newError(ErrAcquisition, "cannot read %s: %s", s.Path, err.Error())
	}

	return string(data), nil
}
