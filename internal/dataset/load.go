package dataset

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnsupported indicates a dataset format is not supported.
var ErrUnsupported = errors.New("unsupported dataset format")

// Load picks a loader by file extension: .csv/.tsv/.txt, .xlsx or .json.
func Load(path string, opt Options) (*Dataset, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".tsv", ".txt":
		return LoadCSV(path, opt)
	case ".xlsx":
		return LoadXLSX(path, opt)
	case ".json":
		return LoadJSON(path, opt)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Base(path))
	}
}
