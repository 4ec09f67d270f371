// Package formats provides typed readers for the engine's FlatBuffers asset
// files: model (.trmdl), mesh shape (.trmsh), mesh buffer (.trmbf),
// skeleton (.trskl), bone animation (.tranm), visibility animation (.tracm),
// material (.trmtr) and material mapping (.trmmt).
//
// Readers only expose fields; interpretation of vertex encodings, tracks and
// transforms lives in the vertex, skeleton and animation packages.
package formats

import (
	"os"

	"github.com/pkg/errors"
)

// Format errors.
var (
	ErrTruncated = errors.New("truncated or corrupt flatbuffer")
	ErrEmpty     = errors.New("empty file")
)

// File extensions.
const (
	ExtModel           = ".trmdl"
	ExtMeshShape       = ".trmsh"
	ExtMeshBuffer      = ".trmbf"
	ExtSkeleton        = ".trskl"
	ExtAnimation       = ".tranm"
	ExtVisibility      = ".tracm"
	ExtMaterial        = ".trmtr"
	ExtMaterialMapping = ".trmmt"
)

// readFile reads a whole asset file for the Parse*File helpers.
func readFile(path, kind string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s file", kind)
	}
	if len(data) == 0 {
		return nil, errors.Wrapf(ErrEmpty, "%s %s", kind, path)
	}
	return data, nil
}
