// Package schema emits JSON Schema documents for inferred declarations and
// reads JSON Schema back into declarations.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/buger/jsonparser"
	"github.com/iancoleman/strcase"

	"github.com/mcncl/jsonshape/internal/models"
	"github.com/mcncl/jsonshape/internal/parser"
)

// Draft07 is the $schema URI written on generated documents.
const Draft07 = "http://json-schema.org/draft-07/schema#"

const definitionsPrefix = "#/definitions/"

// SchemaType handles JSON Schema type field which can be string or array of strings
type SchemaType []string

// MarshalJSON writes a single type as a plain string
func (st SchemaType) MarshalJSON() ([]byte, error) {
	if len(st) == 1 {
		return json.Marshal(st[0])
	}
	return json.Marshal([]string(st))
}

// UnmarshalJSON handles both string and array forms of type
func (st *SchemaType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*st = SchemaType{s}
		return nil
	}

	var arr []string
	if err := json.Unmarshal(data, &arr); err == nil {
		*st = arr
		return nil
	}

	return fmt.Errorf("type must be string or array of strings")
}

// Primary returns the first non-null type, or "null" if that is the only one
func (st SchemaType) Primary() string {
	for _, t := range st {
		if t != "null" {
			return t
		}
	}
	if len(st) > 0 {
		return st[0]
	}
	return ""
}

// IsNullable returns true if "null" is one of the allowed types
func (st SchemaType) IsNullable() bool {
	for _, t := range st {
		if t == "null" {
			return true
		}
	}
	return false
}

// Property is one named member of an ordered schema map.
type Property struct {
	Name   string
	Schema *Schema
}

// Properties is a schema map that keeps document order.
type Properties []Property

// Get returns the schema stored under name.
func (p Properties) Get(name string) (*Schema, bool) {
	for _, prop := range p {
		if prop.Name == name {
			return prop.Schema, true
		}
	}
	return nil, false
}

// MarshalJSON writes the members in order
func (p Properties) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, prop := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(prop.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		value, err := json.Marshal(prop.Schema)
		if err != nil {
			return nil, err
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads the members keeping document order
func (p *Properties) UnmarshalJSON(data []byte) error {
	out := make(Properties, 0)
	err := jsonparser.ObjectEach(data, func(key, value []byte, dataType jsonparser.ValueType, _ int) error {
		if dataType != jsonparser.Object && dataType != jsonparser.Boolean {
			return fmt.Errorf("property %q must be a schema", key)
		}
		s := &Schema{}
		// A boolean schema ("true") accepts anything
		if dataType == jsonparser.Object {
			if err := json.Unmarshal(value, s); err != nil {
				return err
			}
		}
		out = append(out, Property{Name: string(key), Schema: s})
		return nil
	})
	if err != nil {
		return err
	}
	*p = out
	return nil
}

// Schema represents a JSON Schema document
type Schema struct {
	// Meta
	Schema      string `json:"$schema,omitempty"`
	ID          string `json:"$id,omitempty"`
	Ref         string `json:"$ref,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`

	Type SchemaType `json:"type,omitempty"`

	// Object properties
	Properties           Properties `json:"properties,omitempty"`
	Required             []string   `json:"required,omitempty"`
	AdditionalProperties *bool      `json:"additionalProperties,omitempty"`

	// Array items
	Items *Schema `json:"items,omitempty"`

	// Definitions for $ref resolution
	Definitions Properties `json:"definitions,omitempty"`
	Defs        Properties `json:"$defs,omitempty"`
}

// ParseBytes parses JSON Schema from bytes
func ParseBytes(data []byte) (*Schema, error) {
	// Property names are read with jsonparser, which rejects unpaired
	// surrogates.
	data = parser.ReplaceLoneSurrogates(data)

	var schema Schema
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("failed to parse JSON Schema: %w", err)
	}

	return &schema, nil
}

// ParseString parses JSON Schema from a string
func ParseString(s string) (*Schema, error) {
	return ParseBytes([]byte(s))
}

// FromInference builds a draft-07 document for result. The root declaration
// becomes the document body; every other declaration becomes a definition
// referenced with $ref. Record fields are all required since they were all
// present in the sampled input.
func FromInference(result models.InferenceResult) (*Schema, error) {
	if len(result.Declarations) == 0 {
		return nil, fmt.Errorf("no declarations to convert")
	}

	var root *Schema
	var defs Properties
	for _, decl := range result.Declarations {
		s := declSchema(decl)
		if decl.IsRoot && root == nil {
			root = s
			continue
		}
		defs = append(defs, Property{Name: decl.Name, Schema: s})
	}
	if root == nil {
		return nil, fmt.Errorf("inference result has no root declaration")
	}

	root.Schema = Draft07
	root.Title = result.RootName
	root.Definitions = defs
	return root, nil
}

// Generate renders result as an indented JSON Schema document
func Generate(result models.InferenceResult, indent int) (string, error) {
	doc, err := FromInference(result)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(doc, "", strings.Repeat(" ", indent))
	if err != nil {
		return "", fmt.Errorf("failed to encode JSON Schema: %w", err)
	}
	return string(data) + "\n", nil
}

func declSchema(decl models.TypeDeclaration) *Schema {
	if decl.IsAlias() {
		return exprSchema(*decl.Alias)
	}
	s := &Schema{Type: SchemaType{"object"}, Properties: make(Properties, 0, len(decl.Fields))}
	for _, f := range decl.Fields {
		s.Properties = append(s.Properties, Property{Name: f.Name, Schema: exprSchema(f.Type)})
		s.Required = append(s.Required, f.Name)
	}
	return s
}

func exprSchema(t models.TypeExpr) *Schema {
	switch t.Kind {
	case models.Any:
		return &Schema{}
	case models.Ref:
		return &Schema{Ref: definitionsPrefix + t.Name}
	case models.ArrayOf:
		items := &Schema{}
		if t.Elem != nil {
			items = exprSchema(*t.Elem)
		}
		return &Schema{Type: SchemaType{"array"}, Items: items}
	default:
		return &Schema{Type: SchemaType{t.Name}}
	}
}

// Converter converts JSON Schema to type declarations
type Converter struct {
	schema      *Schema
	result      models.InferenceResult
	typeNames   map[string]int
	used        map[string]bool
	definitions Properties
	resolved    map[string]string // $ref -> declaration name
}

// NewConverter creates a new schema converter
func NewConverter(schema *Schema) *Converter {
	definitions := make(Properties, 0, len(schema.Definitions)+len(schema.Defs))
	definitions = append(definitions, schema.Definitions...)
	definitions = append(definitions, schema.Defs...)

	return &Converter{
		schema:      schema,
		typeNames:   make(map[string]int),
		used:        make(map[string]bool),
		definitions: definitions,
		resolved:    make(map[string]string),
	}
}

// Convert processes the schema and returns declarations in discovery order,
// the same shape the analyzer produces for a JSON document.
func (c *Converter) Convert(rootName string) (models.InferenceResult, error) {
	if rootName == "" {
		rootName = "Root"
	}
	rootName = c.generateUniqueName(rootName)
	c.result = models.InferenceResult{RootName: rootName, Declarations: make([]models.TypeDeclaration, 0)}

	if c.schema.Ref == "" && c.schema.Type.Primary() == "object" {
		if err := c.convertObject(c.schema, rootName, true); err != nil {
			return models.InferenceResult{}, err
		}
		return c.result, nil
	}

	idx := len(c.result.Declarations)
	c.result.Declarations = append(c.result.Declarations, models.TypeDeclaration{Name: rootName, IsRoot: true})
	expr, err := c.convertSchema(c.schema, rootName, "Item")
	if err != nil {
		return models.InferenceResult{}, err
	}
	c.result.Declarations[idx].Alias = &expr
	return c.result, nil
}

func (c *Converter) convertSchema(s *Schema, key, suffix string) (models.TypeExpr, error) {
	if s.Ref != "" {
		name, err := c.resolveRef(s.Ref)
		if err != nil {
			return models.TypeExpr{}, err
		}
		return models.RefType(name), nil
	}

	switch s.Type.Primary() {
	case "":
		return models.AnyType(), nil
	case "null":
		return models.PrimitiveType("null"), nil
	case "boolean":
		return models.PrimitiveType("boolean"), nil
	case "number", "integer":
		return models.PrimitiveType("number"), nil
	case "string":
		return models.PrimitiveType("string"), nil
	case "array":
		if s.Items == nil {
			return models.ArrayType(models.AnyType()), nil
		}
		elem, err := c.convertSchema(s.Items, key, "Item")
		if err != nil {
			return models.TypeExpr{}, err
		}
		return models.ArrayType(elem), nil
	case "object":
		name := c.generateUniqueName(pascal(key) + suffix)
		if err := c.convertObject(s, name, false); err != nil {
			return models.TypeExpr{}, err
		}
		return models.RefType(name), nil
	default:
		return models.TypeExpr{}, fmt.Errorf("unsupported schema type %q", s.Type.Primary())
	}
}

func (c *Converter) convertObject(s *Schema, name string, isRoot bool) error {
	idx := len(c.result.Declarations)
	c.result.Declarations = append(c.result.Declarations, models.TypeDeclaration{Name: name, IsRoot: isRoot})

	fields := make([]models.FieldDecl, 0, len(s.Properties))
	for _, prop := range s.Properties {
		expr, err := c.convertSchema(prop.Schema, prop.Name, "Type")
		if err != nil {
			return fmt.Errorf("property %q: %w", prop.Name, err)
		}
		fields = append(fields, models.FieldDecl{Name: prop.Name, Type: expr})
	}
	c.result.Declarations[idx].Fields = fields
	return nil
}

// resolveRef declares a local definition the first time it is referenced.
func (c *Converter) resolveRef(ref string) (string, error) {
	if name, ok := c.resolved[ref]; ok {
		return name, nil
	}

	var defName string
	switch {
	case strings.HasPrefix(ref, definitionsPrefix):
		defName = strings.TrimPrefix(ref, definitionsPrefix)
	case strings.HasPrefix(ref, "#/$defs/"):
		defName = strings.TrimPrefix(ref, "#/$defs/")
	default:
		return "", fmt.Errorf("unsupported $ref %q: only local definitions are supported", ref)
	}

	def, ok := c.definitions.Get(defName)
	if !ok {
		return "", fmt.Errorf("unresolved $ref %q", ref)
	}

	if def.Ref == "" && def.Type.Primary() == "object" {
		name := c.generateUniqueName(pascal(defName))
		// Registered before conversion so recursive references terminate
		c.resolved[ref] = name
		if err := c.convertObject(def, name, false); err != nil {
			return "", err
		}
		return name, nil
	}

	name := c.generateUniqueName(pascal(defName))
	c.resolved[ref] = name
	idx := len(c.result.Declarations)
	c.result.Declarations = append(c.result.Declarations, models.TypeDeclaration{Name: name})
	expr, err := c.convertSchema(def, defName, "Item")
	if err != nil {
		return "", err
	}
	c.result.Declarations[idx].Alias = &expr
	return name, nil
}

// generateUniqueName ensures that the name is unique by appending a number if needed.
func (c *Converter) generateUniqueName(baseName string) string {
	for count := c.typeNames[baseName]; ; count++ {
		name := baseName
		if count > 0 {
			name = fmt.Sprintf("%s%d", baseName, count)
		}
		if !c.used[name] {
			c.typeNames[baseName] = count + 1
			c.used[name] = true
			return name
		}
	}
}

func pascal(s string) string {
	name := strcase.ToCamel(s)
	if name == "" || (name[0] >= '0' && name[0] <= '9') {
		name = "Field" + name
	}
	return name
}
