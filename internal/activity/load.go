package activity

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/san-kum/cycledyn/internal/dynamo"
)

// Load reads a FIT or CSV activity, chosen by file extension.
func Load(path string) ([]Record, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".fit":
		return LoadFIT(path)
	case ".csv":
		return LoadCSV(path)
	default:
		return nil, fmt.Errorf("%w: unsupported activity format %q", dynamo.ErrInvalidInput, filepath.Ext(path))
	}
}
