package parser

import (
	"encoding/json"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mcncl/jsonshape/internal/errors"
	"github.com/mcncl/jsonshape/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_SimpleObject(t *testing.T) {
	jsonStr := `{"name": "John Doe", "age": 30, "isStudent": false, "city": null}`
	doc, err := Parse(strings.NewReader(jsonStr))
	require.NoError(t, err)

	assert.False(t, doc.RootIsArray)

	expected := models.ObjectValue(
		models.F("name", models.StringValue("John Doe")),
		models.F("age", models.NumberValue("30")),
		models.F("isStudent", models.BoolValue(false)),
		models.F("city", models.NullValue()),
	)
	if diff := cmp.Diff(expected, doc.Root); diff != "" {
		t.Errorf("Parse() root mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_KeepsInsertionOrder(t *testing.T) {
	doc, err := ParseString(`{"zeta": 1, "alpha": 2, "mid": {"y": 1, "b": 2}}`)
	require.NoError(t, err)

	keys := make([]string, 0)
	for _, f := range doc.Root.Fields {
		keys = append(keys, f.Key)
	}
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, keys)

	mid, ok := doc.Root.Get("mid")
	require.True(t, ok)
	assert.Equal(t, "y", mid.Fields[0].Key)
	assert.Equal(t, "b", mid.Fields[1].Key)
}

func TestParse_SimpleArray(t *testing.T) {
	doc, err := ParseString(`[1, "test", true, null, 3.14, []]`)
	require.NoError(t, err)

	assert.True(t, doc.RootIsArray)
	expected := models.ArrayValue(
		models.NumberValue("1"),
		models.StringValue("test"),
		models.BoolValue(true),
		models.NullValue(),
		models.NumberValue("3.14"),
		models.ArrayValue(),
	)
	if diff := cmp.Diff(expected, doc.Root); diff != "" {
		t.Errorf("Parse() root mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_EscapedStringsAndKeys(t *testing.T) {
	doc, err := ParseString(`{"line\nbreak": "tab\there é", "quote\"key": "\"q\""}`)
	require.NoError(t, err)

	require.Len(t, doc.Root.Fields, 2)
	assert.Equal(t, "line\nbreak", doc.Root.Fields[0].Key)
	assert.Equal(t, "tab\there é", doc.Root.Fields[0].Value.Str)
	assert.Equal(t, `quote"key`, doc.Root.Fields[1].Key)
	assert.Equal(t, `"q"`, doc.Root.Fields[1].Value.Str)
}

func TestParse_LoneSurrogates(t *testing.T) {
	tests := []struct {
		name string
		lit  string
		want string
	}{
		{"lone high", `"a\ud800b"`, "a\ufffdb"},
		{"lone low", `"\udc00"`, "\ufffd"},
		{"high then plain escape", `"\ud800\u0041"`, "\ufffdA"},
		{"high then high", `"\ud800\ud800\udc00"`, "\ufffd\U00010000"},
		{"valid pair", `"\ud83d\ude00"`, "\U0001F600"},
		{"high at end", `"x\ud83d"`, "x\ufffd"},
		{"escaped backslash", `"\\ud800"`, `\ud800`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var std string
			require.NoError(t, json.Unmarshal([]byte(tt.lit), &std))
			assert.Equal(t, tt.want, std, "encoding/json decodes the literal the same way")

			doc, err := ParseString(`{` + tt.lit + `: ` + tt.lit + `}`)
			require.NoError(t, err)
			require.Len(t, doc.Root.Fields, 1)
			assert.Equal(t, tt.want, doc.Root.Fields[0].Key)
			assert.Equal(t, tt.want, doc.Root.Fields[0].Value.Str)
		})
	}
}

func TestReplaceLoneSurrogates(t *testing.T) {
	clean := []byte(`{"a":"\ud83d\ude00","b":"\\ud800"}`)
	assert.Same(t, &clean[0], &ReplaceLoneSurrogates(clean)[0], "nothing to replace returns the input")

	assert.Equal(t, `["\ufffd",1]`, string(ReplaceLoneSurrogates([]byte(`["\udfff",1]`))))
	assert.Equal(t, `"\u12`, string(ReplaceLoneSurrogates([]byte(`"\u12`))), "truncated escapes are left alone")
	assert.Equal(t, `"\`, string(ReplaceLoneSurrogates([]byte(`"\`))))
}

func TestParse_NumberLiteralsPreserved(t *testing.T) {
	doc, err := ParseString(`{"big": 12345678901234567890, "exp": 1.5e10, "neg": -0.25}`)
	require.NoError(t, err)

	big, _ := doc.Root.Get("big")
	exp, _ := doc.Root.Get("exp")
	neg, _ := doc.Root.Get("neg")
	assert.Equal(t, "12345678901234567890", big.Number)
	assert.Equal(t, "1.5e10", exp.Number)
	assert.Equal(t, "-0.25", neg.Number)
}

func TestParse_DuplicateKeysLastValueWins(t *testing.T) {
	doc, err := ParseString(`{"a": 1, "b": 2, "a": 3}`)
	require.NoError(t, err)

	require.Len(t, doc.Root.Fields, 2)
	assert.Equal(t, "a", doc.Root.Fields[0].Key)
	assert.Equal(t, "3", doc.Root.Fields[0].Value.Number)
}

func TestParse_ScalarRoot(t *testing.T) {
	doc, err := ParseString(`"just a string"`)
	require.NoError(t, err)
	assert.Equal(t, models.StringValue("just a string"), doc.Root)
	assert.False(t, doc.RootIsArray)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		sentinel error
		line     int
		column   int
	}{
		{name: "whitespace only", input: "   \n\t", sentinel: errors.ErrEmptyInput},
		{name: "trailing comma", input: "{\n  \"a\": 1,\n}", sentinel: errors.ErrInvalidJSON, line: 3, column: 1},
		{name: "truncated", input: `{"a": [1, 2`, sentinel: errors.ErrInvalidJSON, line: 1, column: 11},
		{name: "bare word", input: `{"a": nope}`, sentinel: errors.ErrInvalidJSON, line: 1, column: 8},
		{name: "multiple values", input: `{"a": 1} {"b": 2}`, sentinel: errors.ErrMultipleJSON},
		{name: "garbage after value", input: `{"a": 1} }`, sentinel: errors.ErrInvalidJSON, line: 1, column: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBytes([]byte(tt.input))
			require.Error(t, err)
			assert.True(t, stderrors.Is(err, tt.sentinel), "got %v", err)

			var appErr *errors.AppError
			require.True(t, stderrors.As(err, &appErr))
			assert.Equal(t, errors.ErrorTypeParsing, appErr.Type)
			if tt.line > 0 {
				assert.Equal(t, tt.line, appErr.Line)
				assert.Equal(t, tt.column, appErr.Column)
			}
		})
	}
}

func TestParseString_Empty(t *testing.T) {
	_, err := ParseString("")
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrEmptyInput))
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "good.json")
	require.NoError(t, os.WriteFile(good, []byte(`{"id": 1}`), 0o644))
	doc, err := ParseFile(good)
	require.NoError(t, err)
	id, ok := doc.Root.Get("id")
	require.True(t, ok)
	assert.Equal(t, "1", id.Number)

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	_, err = ParseFile(empty)
	assert.True(t, stderrors.Is(err, errors.ErrFileEmpty))

	_, err = ParseFile(filepath.Join(dir, "missing.json"))
	assert.True(t, stderrors.Is(err, errors.ErrFileNotFound))

	_, err = ParseFile("  ")
	assert.True(t, stderrors.Is(err, errors.ErrInvalidFilePath))
}
