package generator

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcncl/jsonshape/internal/analyzer"
	"github.com/mcncl/jsonshape/internal/config"
	"github.com/mcncl/jsonshape/internal/parser"
)

func TestIntegration_ParserAnalyzerGenerator(t *testing.T) {
	jsonInput := `{
		"id": 1,
		"tags": ["a", "b"],
		"author": {"name": "x"}
	}`

	doc, err := parser.ParseString(jsonInput)
	require.NoError(t, err)

	result, err := analyzer.NewAnalyzer().Analyze(doc.Root, "Root")
	require.NoError(t, err)

	code, err := NewGenerator().Generate(result)
	require.NoError(t, err)

	expected := `interface AuthorType {
  name: string;
}

interface Root {
  id: number;
  tags: string[];
  author: AuthorType;
}
`
	assert.Equal(t, expected, code)
}

func TestIntegration_ArrayOfObjects(t *testing.T) {
	doc, err := parser.ParseString(`{"users":[{"name":"a","roles":[]}]}`)
	require.NoError(t, err)

	result, err := analyzer.NewAnalyzer().Analyze(doc.Root, "Root")
	require.NoError(t, err)

	code, err := NewGenerator().Generate(result)
	require.NoError(t, err)

	expected := `interface UsersItem {
  name: string;
  roles: any[];
}

interface Root {
  users: UsersItem[];
}
`
	assert.Equal(t, expected, code)
}

func TestIntegration_ConfigFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), ".jsonshape.yml")
	configYAML := `
root_name: "Order"
infer:
  emit_as_alias: true
  emit_validator_schema: true
  export: true
naming:
  type_mappings:
    customer: "Customer"
`
	require.NoError(t, os.WriteFile(configPath, []byte(configYAML), 0o644))

	cfg, err := config.LoadConfig(configPath)
	require.NoError(t, err)

	doc, err := parser.ParseString(`{"customer":{"id":7},"lines":[{"sku":"A-1","qty":2}]}`)
	require.NoError(t, err)

	result, err := analyzer.NewAnalyzerWithConfig(cfg).Analyze(doc.Root, cfg.RootName)
	require.NoError(t, err)

	code, err := NewGeneratorWithConfig(cfg).Generate(result)
	require.NoError(t, err)

	expected := `export type LinesItem = {
  sku: string;
  qty: number;
};

export type Customer = {
  id: number;
};

export type Order = {
  customer: Customer;
  lines: LinesItem[];
};

import { z } from "zod";

export const LinesItemSchema = z.object({
  sku: z.string(),
  qty: z.number(),
});

export const CustomerSchema = z.object({
  id: z.number(),
});

export const OrderSchema = z.object({
  customer: CustomerSchema,
  lines: z.array(LinesItemSchema),
});
`
	assert.Equal(t, expected, code)
}

func TestIntegration_SampleFiles(t *testing.T) {
	samples, err := filepath.Glob(filepath.Join("..", "..", "testdata", "samples", "*.json"))
	require.NoError(t, err)
	require.NotEmpty(t, samples)

	for _, sample := range samples {
		t.Run(filepath.Base(sample), func(t *testing.T) {
			doc, err := parser.ParseFile(sample)
			require.NoError(t, err)

			result, err := analyzer.NewAnalyzer().Analyze(doc.Root, "Root")
			require.NoError(t, err)

			code, err := NewGenerator().Generate(result)
			require.NoError(t, err)
			assert.Contains(t, code, "Root")
		})
	}
}
