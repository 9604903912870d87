// Package classifier decides the structural category of JSON values and
// walks a tree leaf by leaf.
package classifier

import "github.com/mcncl/jsonshape/internal/models"

// Category is the structural class of a node.
type Category int

const (
	// Scalar is null, boolean, number or string.
	Scalar Category = iota
	// Object has at least one field.
	Object
	// EmptyObject has no fields.
	EmptyObject
	// EmptyArray has no elements.
	EmptyArray
	// ScalarArray holds only scalars.
	ScalarArray
	// RecordArray holds only objects.
	RecordArray
	// MixedArray holds nested arrays or a mix of objects and scalars.
	MixedArray
)

func (c Category) String() string {
	switch c {
	case Scalar:
		return "scalar"
	case Object:
		return "object"
	case EmptyObject:
		return "empty object"
	case EmptyArray:
		return "empty array"
	case ScalarArray:
		return "scalar array"
	case RecordArray:
		return "record array"
	case MixedArray:
		return "mixed array"
	default:
		return "unknown"
	}
}

// Classify returns the category of v.
func Classify(v models.Value) Category {
	switch v.Kind {
	case models.Object:
		if len(v.Fields) == 0 {
			return EmptyObject
		}
		return Object
	case models.Array:
		return classifyArray(v.Items)
	default:
		return Scalar
	}
}

func classifyArray(items []models.Value) Category {
	if len(items) == 0 {
		return EmptyArray
	}
	scalars, objects := 0, 0
	for _, item := range items {
		switch item.Kind {
		case models.Object:
			objects++
		case models.Array:
			return MixedArray
		default:
			scalars++
		}
	}
	switch {
	case objects == len(items):
		return RecordArray
	case scalars == len(items):
		return ScalarArray
	default:
		return MixedArray
	}
}

// Visitor receives each leaf of a walk. For Scalar the value is the leaf
// itself; EmptyArray and EmptyObject report containers that hold no leaves.
type Visitor func(key models.PathKey, v models.Value, c Category)

// Walk visits root depth-first: object fields in insertion order, array
// elements by index. Every scalar is reported once, as is every empty
// container; non-empty containers are descended into and never reported.
func Walk(root models.Value, visit Visitor) {
	walk(models.PathKey{}, root, visit)
}

func walk(key models.PathKey, v models.Value, visit Visitor) {
	switch c := Classify(v); c {
	case Scalar, EmptyArray, EmptyObject:
		visit(key, v, c)
	case Object:
		for _, f := range v.Fields {
			walk(key.Append(models.Key(f.Key)), f.Value, visit)
		}
	default:
		for i, item := range v.Items {
			walk(key.Append(models.Index(i)), item, visit)
		}
	}
}
