// Package args models a single relighting request: the values submitted by
// the UI for one generation run, the closed sets they are drawn from, and the
// derived images (subject matte, lightmap) the pipeline consumes.
package args

import "fmt"

// ModelType selects which IC-Light conditioning mode a request uses.
type ModelType string

const (
	// FC conditions on the foreground subject plus a lighting preset.
	FC ModelType = "FC"
	// FBC additionally conditions on a full uploaded background image.
	FBC ModelType = "FBC"
)

// ParseModelType maps a raw UI value onto the closed ModelType set.
func ParseModelType(raw string) (ModelType, error) {
	switch ModelType(raw) {
	case FC:
		return FC, nil
	case FBC:
		return FBC, nil
	default:
		return "", fmt.Errorf("unknown model type %q", raw)
	}
}

func (m ModelType) String() string { return string(m) }
