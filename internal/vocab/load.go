package vocab

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// Load reads and indexes the vocabulary file at path.
func Load(path string) (*Index, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, parseErr(path, "unsupported format", err)
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, path)
		}
		return nil, parseErr(path, "unreadable", err)
	}
	defer f.Close()
	return Build(f, format, path)
}
