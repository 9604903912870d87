package models

import "strconv"

// Segment is one step of a PathKey: either an object field name or an array
// index.
type Segment struct {
	Name    string
	Index   int
	IsIndex bool
}

// Key returns a field segment.
func Key(name string) Segment { return Segment{Name: name} }

// Index returns an array index segment.
func Index(i int) Segment { return Segment{Index: i, IsIndex: true} }

func (s Segment) String() string {
	if s.IsIndex {
		return "[" + strconv.Itoa(s.Index) + "]"
	}
	return s.Name
}

// PathKey addresses one leaf inside a Value tree.
type PathKey []Segment

// Append returns a new PathKey with seg added. The receiver is never
// modified, so sibling branches of a walk cannot alias each other.
func (p PathKey) Append(seg Segment) PathKey {
	out := make(PathKey, len(p), len(p)+1)
	copy(out, p)
	return append(out, seg)
}

// LastName returns the nearest field name in the path, skipping trailing
// indices. "users[0]" and "users" both yield "users".
func (p PathKey) LastName() string {
	for i := len(p) - 1; i >= 0; i-- {
		if !p[i].IsIndex {
			return p[i].Name
		}
	}
	return ""
}

// Pair is one flattened leaf: its rendered path, the structured key and the
// scalar value.
type Pair struct {
	Path  string
	Key   PathKey
	Value Value
}

// Table is the tabular form of a flattened document. Every row has exactly
// len(Columns) cells; a nil cell means the row has no value for that column.
type Table struct {
	Columns []string
	Rows    [][]*Value
	// RowsAreElements is set when each row came from one element of a root
	// array, so the rows rebuild into an array rather than one object.
	RowsAreElements bool
}
