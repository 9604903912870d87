package flatten

import (
	"github.com/mcncl/jsonshape/internal/errors"
	"github.com/mcncl/jsonshape/internal/models"
	"github.com/mcncl/jsonshape/internal/pathkey"
)

// node is the mutable form of a tree under reconstruction. kind stays
// unset until the first path touches the node.
type node struct {
	kind   models.Kind
	set    bool
	leaf   models.Value
	keys   []string
	fields map[string]*node
	items  []*node
}

func (n *node) child(seg models.Segment) *node {
	if seg.IsIndex {
		for len(n.items) <= seg.Index {
			n.items = append(n.items, nil)
		}
		if n.items[seg.Index] == nil {
			n.items[seg.Index] = &node{}
		}
		return n.items[seg.Index]
	}
	c, ok := n.fields[seg.Name]
	if !ok {
		c = &node{}
		n.fields[seg.Name] = c
		n.keys = append(n.keys, seg.Name)
	}
	return c
}

// claim turns an untouched node into a container of kind, or checks that
// it already is one.
func (n *node) claim(kind models.Kind) bool {
	if !n.set {
		n.set = true
		n.kind = kind
		if kind == models.Object {
			n.fields = make(map[string]*node)
		}
		return true
	}
	return n.kind == kind
}

func (n *node) value() models.Value {
	if n == nil || !n.set {
		return models.NullValue()
	}
	switch n.kind {
	case models.Object:
		fields := make([]models.Field, 0, len(n.keys))
		for _, k := range n.keys {
			fields = append(fields, models.F(k, n.fields[k].value()))
		}
		return models.ObjectValue(fields...)
	case models.Array:
		items := make([]models.Value, 0, len(n.items))
		for _, item := range n.items {
			items = append(items, item.value())
		}
		return models.ArrayValue(items...)
	default:
		return n.leaf
	}
}

// Unflatten rebuilds a tree from path/value pairs rendered with opts.
// Containers are created as each path demands: an Object where the next
// segment is a field, an Array where it is an index. Array positions no
// path mentions are filled with null. Object fields keep the order in which
// their first path appears.
//
// Any malformed path, any path that reuses a leaf as a container (or the
// reverse), and any repeated path fails the whole call with a path error;
// no partial tree is returned. Unflatten of no pairs is an empty object.
func Unflatten(pairs []models.Pair, opts Options) (models.Value, error) {
	opts = opts.withDefaults()
	root := &node{}

	for _, p := range pairs {
		if !p.Value.IsScalar() {
			return models.Value{}, errors.NewPathError(p.Path, "value is not a scalar", errors.ErrInvalidPath)
		}
		key, err := pathkey.Parse(p.Path, opts.PathSeparator, opts.ArrayIndexStyle)
		if err != nil {
			return models.Value{}, err
		}

		cur := root
		for _, seg := range key {
			kind := models.Object
			if seg.IsIndex {
				kind = models.Array
			}
			if !cur.claim(kind) {
				return models.Value{}, errors.NewPathError(p.Path, "conflicts with an earlier path", errors.ErrPathConflict)
			}
			cur = cur.child(seg)
		}
		if cur.set {
			return models.Value{}, errors.NewPathError(p.Path, "conflicts with an earlier path", errors.ErrPathConflict)
		}
		cur.set = true
		cur.kind = p.Value.Kind
		cur.leaf = p.Value
	}

	if !root.set {
		return models.ObjectValue(), nil
	}
	return root.value(), nil
}
