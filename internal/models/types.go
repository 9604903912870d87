package models

// TypeKind categorizes an inferred type expression.
type TypeKind int

const (
	// Primitive covers null, boolean, number and string.
	Primitive TypeKind = iota
	// Any is the element type of an empty array.
	Any
	// ArrayOf wraps an element expression.
	ArrayOf
	// Ref points at a named TypeDeclaration.
	Ref
)

// TypeExpr is the inferred type of one field or array element.
type TypeExpr struct {
	Kind TypeKind
	// Name is the primitive name ("string", "number", ...) for Primitive,
	// and the declaration name for Ref.
	Name string
	// Elem is the element type for ArrayOf.
	Elem *TypeExpr
}

// PrimitiveType returns a primitive expression.
func PrimitiveType(name string) TypeExpr { return TypeExpr{Kind: Primitive, Name: name} }

// AnyType returns the unknown-element expression.
func AnyType() TypeExpr { return TypeExpr{Kind: Any, Name: "any"} }

// ArrayType wraps elem in an array expression.
func ArrayType(elem TypeExpr) TypeExpr { return TypeExpr{Kind: ArrayOf, Elem: &elem} }

// RefType references a declaration by name.
func RefType(name string) TypeExpr { return TypeExpr{Kind: Ref, Name: name} }

// String renders the expression in TypeScript notation.
func (t TypeExpr) String() string {
	switch t.Kind {
	case ArrayOf:
		if t.Elem == nil {
			return "any[]"
		}
		return t.Elem.String() + "[]"
	default:
		return t.Name
	}
}

// FieldDecl is one field of a record declaration.
type FieldDecl struct {
	Name string
	Type TypeExpr
}

// TypeDeclaration is a named type produced by inference. Record
// declarations carry Fields; alias declarations (root arrays and scalars)
// carry Alias instead.
type TypeDeclaration struct {
	Name   string
	Fields []FieldDecl
	Alias  *TypeExpr
	IsRoot bool
}

// IsAlias reports whether the declaration names a non-record type.
func (d TypeDeclaration) IsAlias() bool { return d.Alias != nil }

// InferenceResult holds the declarations of one inference run in discovery
// order: a declaration always precedes the declarations it references.
type InferenceResult struct {
	RootName     string
	Declarations []TypeDeclaration
}

// Find returns the declaration with the given name.
func (r InferenceResult) Find(name string) (TypeDeclaration, bool) {
	for _, d := range r.Declarations {
		if d.Name == name {
			return d, true
		}
	}
	return TypeDeclaration{}, false
}
