// Package flatten turns JSON trees into ordered path/value pairs and back.
package flatten

import (
	"fmt"
	"strconv"

	"github.com/mcncl/jsonshape/internal/classifier"
	"github.com/mcncl/jsonshape/internal/models"
	"github.com/mcncl/jsonshape/internal/pathkey"
)

const (
	// DefaultSeparator joins field names in a rendered path.
	DefaultSeparator = "."
	// DefaultMaskLiteral replaces masked values.
	DefaultMaskLiteral = "***"
)

// Options controls path rendering and masking. The zero value renders with
// "." and bracket indices, without masking.
type Options struct {
	PathSeparator       string
	ArrayIndexStyle     pathkey.Style
	MaskSensitiveFields bool
	MaskLiteral         string
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		PathSeparator:   DefaultSeparator,
		ArrayIndexStyle: pathkey.Bracket,
		MaskLiteral:     DefaultMaskLiteral,
	}
}

func (o Options) withDefaults() Options {
	if o.PathSeparator == "" {
		o.PathSeparator = DefaultSeparator
	}
	if o.ArrayIndexStyle == "" {
		o.ArrayIndexStyle = pathkey.Bracket
	}
	if o.MaskLiteral == "" {
		o.MaskLiteral = DefaultMaskLiteral
	}
	return o
}

// Validate reports options that cannot render parseable paths.
func (o Options) Validate() error {
	o = o.withDefaults()
	if !o.ArrayIndexStyle.Valid() {
		return fmt.Errorf("unknown array index style %q", o.ArrayIndexStyle)
	}
	for _, r := range o.PathSeparator {
		if r == '[' || r == ']' || r == '"' || (r >= '0' && r <= '9') {
			return fmt.Errorf("path separator %q must not contain brackets, quotes or digits", o.PathSeparator)
		}
	}
	return nil
}

// Flatten lists every leaf scalar of root as a pair, in depth-first order.
// Empty arrays and empty objects contribute nothing. Rendered paths are
// unique: should two leaves render identically (a field name containing the
// separator can cause this) the later one gets a "#n" suffix.
func Flatten(root models.Value, opts Options) []models.Pair {
	opts = opts.withDefaults()
	pairs := make([]models.Pair, 0)
	seen := make(map[string]struct{})

	classifier.Walk(root, func(key models.PathKey, v models.Value, c classifier.Category) {
		if c != classifier.Scalar {
			return
		}
		path := pathkey.Format(key, opts.PathSeparator, opts.ArrayIndexStyle)
		if _, dup := seen[path]; dup {
			base := path
			for n := 2; ; n++ {
				path = base + "#" + strconv.Itoa(n)
				if _, taken := seen[path]; !taken {
					break
				}
			}
		}
		seen[path] = struct{}{}
		if opts.MaskSensitiveFields {
			v = mask(key, v, opts.MaskLiteral)
		}
		pairs = append(pairs, models.Pair{Path: path, Key: key, Value: v})
	})
	return pairs
}
