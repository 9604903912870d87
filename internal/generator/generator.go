package generator

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/mcncl/jsonshape/internal/config"
	"github.com/mcncl/jsonshape/internal/models"
)

var identifierRegex = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// Generator writes TypeScript declarations and zod schemas for an inference result
type Generator struct {
	useTypeAlias bool
	validator    bool
	export       bool
	indent       string
	header       string
}

// NewGenerator creates a new Generator with default settings
func NewGenerator() *Generator {
	return NewGeneratorWithConfig(config.NewConfig())
}

// NewGeneratorWithConfig creates a new Generator using the infer and output settings of cfg
func NewGeneratorWithConfig(cfg *config.Config) *Generator {
	return &Generator{
		useTypeAlias: cfg.Infer.EmitAsAlias,
		validator:    cfg.Infer.EmitValidatorSchema,
		export:       cfg.Infer.Export,
		indent:       strings.Repeat(" ", cfg.Infer.Indent),
		header:       cfg.Output.FileHeader,
	}
}

// Generate writes the declarations, followed by the validator schema when enabled
func (g *Generator) Generate(result models.InferenceResult) (string, error) {
	var buf bytes.Buffer

	if g.header != "" {
		for _, line := range strings.Split(strings.TrimRight(g.header, "\n"), "\n") {
			buf.WriteString("// " + line + "\n")
		}
		buf.WriteString("\n")
	}

	decls, err := g.GenerateDeclarations(result)
	if err != nil {
		return "", err
	}
	buf.WriteString(decls)

	if g.validator {
		schemas, err := g.GenerateValidatorSchema(result)
		if err != nil {
			return "", err
		}
		buf.WriteString("\n")
		buf.WriteString(schemas)
	}

	return buf.String(), nil
}

// GenerateDeclarations writes one declaration per inferred type, dependencies first
func (g *Generator) GenerateDeclarations(result models.InferenceResult) (string, error) {
	if len(result.Declarations) == 0 {
		return "", fmt.Errorf("no declarations to generate")
	}

	var buf bytes.Buffer
	for i, decl := range emissionOrder(result) {
		if i > 0 {
			buf.WriteString("\n")
		}
		buf.WriteString(g.prefix())

		if decl.IsAlias() {
			buf.WriteString(fmt.Sprintf("type %s = %s;\n", decl.Name, decl.Alias.String()))
			continue
		}

		if g.useTypeAlias {
			buf.WriteString(fmt.Sprintf("type %s = ", decl.Name))
		} else {
			buf.WriteString(fmt.Sprintf("interface %s ", decl.Name))
		}

		if len(decl.Fields) == 0 {
			buf.WriteString("{}")
		} else {
			buf.WriteString("{\n")
			for _, field := range decl.Fields {
				buf.WriteString(fmt.Sprintf("%s%s: %s;\n", g.indent, fieldKey(field.Name), field.Type.String()))
			}
			buf.WriteString("}")
		}

		if g.useTypeAlias {
			buf.WriteString(";")
		}
		buf.WriteString("\n")
	}

	return buf.String(), nil
}

// GenerateValidatorSchema writes a zod schema const per declaration, dependencies first
func (g *Generator) GenerateValidatorSchema(result models.InferenceResult) (string, error) {
	if len(result.Declarations) == 0 {
		return "", fmt.Errorf("no declarations to generate")
	}

	var buf bytes.Buffer
	buf.WriteString("import { z } from \"zod\";\n")

	for _, decl := range emissionOrder(result) {
		buf.WriteString("\n")
		buf.WriteString(g.prefix())
		buf.WriteString(fmt.Sprintf("const %s = ", SchemaName(decl.Name)))

		if decl.IsAlias() {
			buf.WriteString(zodExpr(*decl.Alias))
			buf.WriteString(";\n")
			continue
		}

		if len(decl.Fields) == 0 {
			buf.WriteString("z.object({});\n")
			continue
		}

		buf.WriteString("z.object({\n")
		for _, field := range decl.Fields {
			buf.WriteString(fmt.Sprintf("%s%s: %s,\n", g.indent, fieldKey(field.Name), zodExpr(field.Type)))
		}
		buf.WriteString("});\n")
	}

	return buf.String(), nil
}

// SchemaName returns the identifier of the zod schema for a declaration
func SchemaName(declName string) string {
	return declName + "Schema"
}

func (g *Generator) prefix() string {
	if g.export {
		return "export "
	}
	return ""
}

// emissionOrder reverses discovery order so every declaration follows the
// ones it references.
func emissionOrder(result models.InferenceResult) []models.TypeDeclaration {
	decls := append([]models.TypeDeclaration(nil), result.Declarations...)
	return lo.Reverse(decls)
}

// fieldKey quotes names that are not valid identifiers
func fieldKey(name string) string {
	if identifierRegex.MatchString(name) {
		return name
	}
	return strconv.Quote(name)
}

func zodExpr(t models.TypeExpr) string {
	switch t.Kind {
	case models.Any:
		return "z.any()"
	case models.Ref:
		return SchemaName(t.Name)
	case models.ArrayOf:
		if t.Elem == nil {
			return "z.array(z.any())"
		}
		return fmt.Sprintf("z.array(%s)", zodExpr(*t.Elem))
	default:
		switch t.Name {
		case "string":
			return "z.string()"
		case "number":
			return "z.number()"
		case "boolean":
			return "z.boolean()"
		case "null":
			return "z.null()"
		default:
			return "z.any()"
		}
	}
}
