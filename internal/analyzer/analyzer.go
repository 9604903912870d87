package analyzer

import (
	"fmt"

	"github.com/mcncl/jsonshape/internal/config"
	"github.com/mcncl/jsonshape/internal/models"
)

// DefaultRootName is the default name for the root declaration if not specified.
const DefaultRootName = "Root"

// Analyzer infers type declarations from a parsed JSON tree
type Analyzer struct {
	// typeNames counts how often each base name was requested
	typeNames map[string]int
	// used holds every name handed out in this run
	used map[string]bool
	// result holds discovered declarations in discovery order
	result models.InferenceResult
	// config holds naming settings
	config *config.Config
}

// NewAnalyzer creates a new Analyzer instance.
func NewAnalyzer() *Analyzer {
	return NewAnalyzerWithConfig(config.NewConfig())
}

// NewAnalyzerWithConfig creates a new Analyzer instance with custom configuration.
func NewAnalyzerWithConfig(cfg *config.Config) *Analyzer {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	a := &Analyzer{config: cfg}
	a.reset()
	return a
}

func (a *Analyzer) reset() {
	a.typeNames = make(map[string]int)
	a.used = make(map[string]bool)
	a.result = models.InferenceResult{Declarations: make([]models.TypeDeclaration, 0)}
}

// Analyze infers the declarations describing root. An object root becomes a
// record declaration named rootName; any other root becomes an alias
// declaration of that name. Nested objects are declared as <Field>Type and
// objects inside arrays as <Field>Item, sampled from the first element only.
// Declarations come back in discovery order, the root first.
func (a *Analyzer) Analyze(root models.Value, rootName string) (models.InferenceResult, error) {
	a.reset()

	if rootName == "" {
		rootName = DefaultRootName
	}
	rootName = a.reserve(rootName)
	a.result.RootName = rootName

	if root.Kind == models.Object {
		if err := a.analyzeObject(root, rootName, true); err != nil {
			return models.InferenceResult{}, fmt.Errorf("failed to analyze root object: %w", err)
		}
		return a.result, nil
	}

	// Reserve the alias slot before the element declarations are discovered
	idx := len(a.result.Declarations)
	a.result.Declarations = append(a.result.Declarations, models.TypeDeclaration{Name: rootName, IsRoot: true})

	var expr models.TypeExpr
	var err error
	if root.Kind == models.Array {
		expr, err = a.analyzeArray(root, rootName, true)
	} else {
		expr, err = a.analyzeNode(root, rootName)
	}
	if err != nil {
		return models.InferenceResult{}, fmt.Errorf("failed to analyze root value: %w", err)
	}
	a.result.Declarations[idx].Alias = &expr

	return a.result, nil
}

// analyzeNode returns the type expression for a field value named key,
// declaring any record types the value needs.
func (a *Analyzer) analyzeNode(v models.Value, key string) (models.TypeExpr, error) {
	switch v.Kind {
	case models.Null:
		return models.PrimitiveType("null"), nil
	case models.Bool:
		return models.PrimitiveType("boolean"), nil
	case models.Number:
		return models.PrimitiveType("number"), nil
	case models.String:
		return models.PrimitiveType("string"), nil
	case models.Object:
		name := a.declName(key, a.config.Naming.ObjectSuffix)
		if err := a.analyzeObject(v, name, false); err != nil {
			return models.TypeExpr{}, err
		}
		return models.RefType(name), nil
	case models.Array:
		return a.analyzeArray(v, key, false)
	default:
		return models.TypeExpr{}, fmt.Errorf("unexpected json value kind: %s", v.Kind)
	}
}

// analyzeObject declares a record named name. The declaration is appended
// before its fields are analyzed so it precedes everything it references.
func (a *Analyzer) analyzeObject(obj models.Value, name string, isRoot bool) error {
	idx := len(a.result.Declarations)
	a.result.Declarations = append(a.result.Declarations, models.TypeDeclaration{Name: name, IsRoot: isRoot})

	fields := make([]models.FieldDecl, 0, len(obj.Fields))
	for _, f := range obj.Fields {
		expr, err := a.analyzeNode(f.Value, f.Key)
		if err != nil {
			return fmt.Errorf("field %q: %w", f.Key, err)
		}
		fields = append(fields, models.FieldDecl{Name: f.Key, Type: expr})
	}
	a.result.Declarations[idx].Fields = fields
	return nil
}

// analyzeArray types an array from its first element. Objects inside the
// array are declared as <key>Item; for the root array key is already the
// declaration name so the item name is built from it directly.
func (a *Analyzer) analyzeArray(arr models.Value, key string, isRoot bool) (models.TypeExpr, error) {
	if len(arr.Items) == 0 {
		return models.ArrayType(models.AnyType()), nil
	}

	first := arr.Items[0]
	switch first.Kind {
	case models.Object:
		var name string
		if isRoot {
			name = a.generateUniqueTypeName(key + a.config.Naming.ItemSuffix)
		} else {
			name = a.declName(key, a.config.Naming.ItemSuffix)
		}
		if err := a.analyzeObject(first, name, false); err != nil {
			return models.TypeExpr{}, err
		}
		return models.ArrayType(models.RefType(name)), nil
	case models.Array:
		elem, err := a.analyzeArray(first, key, isRoot)
		if err != nil {
			return models.TypeExpr{}, err
		}
		return models.ArrayType(elem), nil
	default:
		elem, err := a.analyzeNode(first, key)
		if err != nil {
			return models.TypeExpr{}, err
		}
		return models.ArrayType(elem), nil
	}
}

// declName builds a unique declaration name for a field. A configured type
// mapping is used verbatim; otherwise the PascalCase field name gets suffix.
func (a *Analyzer) declName(key, suffix string) string {
	base, mapped := a.config.GetTypeName(key)
	if !mapped {
		base += suffix
	}
	return a.generateUniqueTypeName(base)
}

// reserve claims the root name so no nested declaration can take it.
func (a *Analyzer) reserve(name string) string {
	if !identifierOK(name) {
		name, _ = a.config.GetTypeName(name)
	}
	return a.generateUniqueTypeName(name)
}

// generateUniqueTypeName ensures that the type name is unique by appending a number if needed.
func (a *Analyzer) generateUniqueTypeName(baseName string) string {
	for count := a.typeNames[baseName]; ; count++ {
		name := baseName
		if count > 0 {
			name = fmt.Sprintf("%s%d", baseName, count)
		}
		if !a.used[name] {
			a.typeNames[baseName] = count + 1
			a.used[name] = true
			return name
		}
	}
}

func identifierOK(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == '$':
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
