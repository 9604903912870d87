// Package pathkey renders PathKeys as column names and parses them back.
//
// Two array index notations are supported. With Bracket, indices attach to
// the preceding field as "[i]" ("tags[0].name"). With Underscore they attach
// as "_i" ("tags_0.name"); an index at the root renders as the bare number.
// An empty field name renders as EmptyName so it survives parsing. Field
// names that themselves contain the separator, look like index notation or
// equal EmptyName cannot be told apart from structure when parsing.
package pathkey

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/mcncl/jsonshape/internal/errors"
	"github.com/mcncl/jsonshape/internal/models"
)

// Style selects the array index notation.
type Style string

const (
	Bracket    Style = "bracket"
	Underscore Style = "underscore"
)

// EmptyName stands in for a field whose name is the empty string.
const EmptyName = `""`

// MaxIndex bounds array indices accepted by Parse.
const MaxIndex = 1 << 20

// Valid reports whether s names a known style.
func (s Style) Valid() bool {
	return s == Bracket || s == Underscore
}

// ParseStyle converts a configuration string into a Style. The empty string
// selects Bracket.
func ParseStyle(s string) (Style, error) {
	switch Style(strings.ToLower(strings.TrimSpace(s))) {
	case "", Bracket:
		return Bracket, nil
	case Underscore:
		return Underscore, nil
	default:
		return "", fmt.Errorf("unknown array index style %q (want %q or %q)", s, Bracket, Underscore)
	}
}

var (
	bracketToken    = regexp.MustCompile(`^([^\[\]]*)((?:\[[0-9]+\])*)$`)
	bracketIndex    = regexp.MustCompile(`\[([0-9]+)\]`)
	underscoreToken = regexp.MustCompile(`^(.*?)((?:_[0-9]+)*)$`)
	digits          = regexp.MustCompile(`^[0-9]+$`)
)

// Format renders p using sep between fields and style for indices.
func Format(p models.PathKey, sep string, style Style) string {
	var b strings.Builder
	for i, seg := range p {
		if seg.IsIndex {
			n := strconv.Itoa(seg.Index)
			if style == Underscore {
				if i > 0 {
					b.WriteByte('_')
				}
				b.WriteString(n)
			} else {
				b.WriteString("[" + n + "]")
			}
			continue
		}
		if i > 0 {
			b.WriteString(sep)
		}
		if seg.Name == "" {
			b.WriteString(EmptyName)
		} else {
			b.WriteString(seg.Name)
		}
	}
	return b.String()
}

// Parse turns a rendered path back into a PathKey. The empty string is the
// path of a scalar root.
func Parse(path, sep string, style Style) (models.PathKey, error) {
	if path == "" {
		return models.PathKey{}, nil
	}
	if sep == "" {
		return nil, errors.NewPathError(path, "path separator is empty", errors.ErrInvalidPath)
	}

	tokens := strings.Split(path, sep)
	key := make(models.PathKey, 0, len(tokens))
	for i, tok := range tokens {
		var (
			segs []models.Segment
			err  error
		)
		if style == Underscore {
			segs, err = parseUnderscore(tok, i == 0)
		} else {
			segs, err = parseBracket(tok, i == 0)
		}
		if err != nil {
			return nil, errors.NewPathError(path, err.Error(), errors.ErrInvalidPath)
		}
		key = append(key, segs...)
	}
	return key, nil
}

func parseBracket(tok string, first bool) ([]models.Segment, error) {
	if tok == "" {
		return nil, fmt.Errorf("empty segment")
	}
	m := bracketToken.FindStringSubmatch(tok)
	if m == nil {
		return nil, fmt.Errorf("unbalanced bracket in segment %q", tok)
	}
	name, suffix := m[1], m[2]
	if name == "" && !first {
		return nil, fmt.Errorf("index without field in segment %q", tok)
	}

	var segs []models.Segment
	if name != "" {
		segs = append(segs, field(name))
	}
	for _, im := range bracketIndex.FindAllStringSubmatch(suffix, -1) {
		idx, err := index(im[1])
		if err != nil {
			return nil, err
		}
		segs = append(segs, models.Index(idx))
	}
	return segs, nil
}

func parseUnderscore(tok string, first bool) ([]models.Segment, error) {
	if tok == "" {
		return nil, fmt.Errorf("empty segment")
	}
	// A bare number is an index: the root index, or any index when the
	// separator is itself "_".
	if digits.MatchString(tok) {
		idx, err := index(tok)
		if err != nil {
			return nil, err
		}
		return []models.Segment{models.Index(idx)}, nil
	}

	m := underscoreToken.FindStringSubmatch(tok)
	name, suffix := m[1], m[2]
	if name == "" {
		return nil, fmt.Errorf("index without field in segment %q", tok)
	}

	var segs []models.Segment
	if first && digits.MatchString(name) {
		idx, err := index(name)
		if err != nil {
			return nil, err
		}
		segs = append(segs, models.Index(idx))
	} else {
		segs = append(segs, field(name))
	}
	if suffix != "" {
		for _, n := range strings.Split(suffix[1:], "_") {
			idx, err := index(n)
			if err != nil {
				return nil, err
			}
			segs = append(segs, models.Index(idx))
		}
	}
	return segs, nil
}

func field(name string) models.Segment {
	if name == EmptyName {
		return models.Key("")
	}
	return models.Key(name)
}

func index(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n > MaxIndex {
		return 0, fmt.Errorf("array index %s out of range", s)
	}
	return n, nil
}
