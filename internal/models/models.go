package models

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Kind identifies which of the JSON shapes a Value holds.
type Kind int

const (
	Null Kind = iota
	Bool
	Number
	String
	Array
	Object
)

// String returns the JSON name of the kind.
func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "boolean"
	case Number:
		return "number"
	case String:
		return "string"
	case Array:
		return "array"
	case Object:
		return "object"
	default:
		return "unknown"
	}
}

// Value is a parsed JSON document node.
// Only the fields matching Kind are meaningful. Numbers keep their source
// literal so no precision is lost between parse and output.
type Value struct {
	Kind   Kind
	Bool   bool
	Number string
	Str    string
	Items  []Value
	Fields []Field
}

// Field is one member of a JSON object. Objects keep their fields in
// insertion order.
type Field struct {
	Key   string
	Value Value
}

// NullValue returns the JSON null.
func NullValue() Value { return Value{Kind: Null} }

// BoolValue wraps a boolean.
func BoolValue(b bool) Value { return Value{Kind: Bool, Bool: b} }

// NumberValue wraps a JSON number literal such as "1" or "3.25e2".
func NumberValue(literal string) Value { return Value{Kind: Number, Number: literal} }

// IntValue wraps an integer.
func IntValue(n int64) Value { return NumberValue(strconv.FormatInt(n, 10)) }

// StringValue wraps a string.
func StringValue(s string) Value { return Value{Kind: String, Str: s} }

// ArrayValue builds an array from items. A nil item list still yields an
// empty array rather than null.
func ArrayValue(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{Kind: Array, Items: items}
}

// ObjectValue builds an object from fields, in the given order.
func ObjectValue(fields ...Field) Value {
	if fields == nil {
		fields = []Field{}
	}
	return Value{Kind: Object, Fields: fields}
}

// F is shorthand for building an object Field.
func F(key string, v Value) Field { return Field{Key: key, Value: v} }

// IsScalar reports whether v is a leaf (not an array or object).
func (v Value) IsScalar() bool {
	return v.Kind != Array && v.Kind != Object
}

// IsEmptyContainer reports whether v is an array or object with no members.
func (v Value) IsEmptyContainer() bool {
	switch v.Kind {
	case Array:
		return len(v.Items) == 0
	case Object:
		return len(v.Fields) == 0
	default:
		return false
	}
}

// Get returns the value stored under key in an object.
func (v Value) Get(key string) (Value, bool) {
	if v.Kind != Object {
		return Value{}, false
	}
	for _, f := range v.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return Value{}, false
}

// Equal reports structural equality. Object field order is significant and
// numbers compare by numeric value.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case Null:
		return true
	case Bool:
		return v.Bool == o.Bool
	case Number:
		if v.Number == o.Number {
			return true
		}
		a, errA := strconv.ParseFloat(v.Number, 64)
		b, errB := strconv.ParseFloat(o.Number, 64)
		return errA == nil && errB == nil && a == b
	case String:
		return v.Str == o.Str
	case Array:
		if len(v.Items) != len(o.Items) {
			return false
		}
		for i := range v.Items {
			if !v.Items[i].Equal(o.Items[i]) {
				return false
			}
		}
		return true
	case Object:
		if len(v.Fields) != len(o.Fields) {
			return false
		}
		for i := range v.Fields {
			if v.Fields[i].Key != o.Fields[i].Key || !v.Fields[i].Value.Equal(o.Fields[i].Value) {
				return false
			}
		}
		return true
	}
	return false
}

// Text renders a scalar the way a table cell shows it: strings verbatim,
// numbers as their literal, booleans and null as JSON keywords.
func (v Value) Text() string {
	switch v.Kind {
	case Null:
		return "null"
	case Bool:
		return strconv.FormatBool(v.Bool)
	case Number:
		return v.Number
	case String:
		return v.Str
	default:
		data, _ := v.MarshalJSON()
		return string(data)
	}
}

// MarshalJSON encodes the value keeping object field order.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v Value) encode(buf *bytes.Buffer) error {
	switch v.Kind {
	case Null:
		buf.WriteString("null")
	case Bool:
		buf.WriteString(strconv.FormatBool(v.Bool))
	case Number:
		buf.WriteString(v.Number)
	case String:
		if err := quote(buf, v.Str); err != nil {
			return err
		}
	case Array:
		buf.WriteByte('[')
		for i, item := range v.Items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case Object:
		buf.WriteByte('{')
		for i, f := range v.Fields {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := quote(buf, f.Key); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := f.Value.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	}
	return nil
}

// quote writes s as a JSON string without HTML escaping.
func quote(buf *bytes.Buffer, s string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	// Encode terminates with a newline
	buf.Truncate(buf.Len() - 1)
	return nil
}

// Document is a parsed JSON input along with facts about its root.
type Document struct {
	Root        Value
	RootIsArray bool
}
