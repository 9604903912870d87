package cli_test

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCLI runs the command with an isolated config file and returns stdout
// and stderr.
func runCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()

	configPath := filepath.Join(t.TempDir(), ".jsonshape.yml")
	require.NoError(t, os.WriteFile(configPath, []byte("root_name: Root\n"), 0644))

	cmdArgs := append([]string{"run", "../../main.go", "-c", configPath}, args...)
	cmd := exec.Command("go", cmdArgs...)
	cmd.Stdin = strings.NewReader(stdin)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

// TestCLI_FlattenFileInputOutput tests flatten with file input and output
func TestCLI_FlattenFileInputOutput(t *testing.T) {
	tempDir := t.TempDir()

	jsonContent := `{
		"name": "John Doe",
		"age": 30,
		"address": {
			"street": "123 Main St",
			"city": "Anytown"
		},
		"phones": [
			{"type": "home", "number": "555-1234"},
			{"type": "work", "number": "555-5678"}
		],
		"active": true
	}`
	jsonFile := filepath.Join(tempDir, "test.json")
	require.NoError(t, os.WriteFile(jsonFile, []byte(jsonContent), 0644))

	outputFile := filepath.Join(tempDir, "flat.csv")

	_, stderr, err := runCLI(t, "", "flatten", "-i", jsonFile, "-o", outputFile, "-f", "csv")
	require.NoError(t, err, "CLI command failed: %s", stderr)
	assert.Contains(t, stderr, "Output written to")

	generated, err := os.ReadFile(outputFile)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimPrefix(string(generated), "\ufeff"), "\n")
	require.GreaterOrEqual(t, len(lines), 2)
	assert.Equal(t, "name,age,address.street,address.city,phones[0].type,phones[0].number,phones[1].type,phones[1].number,active", lines[0])
	assert.Equal(t, "John Doe,30,123 Main St,Anytown,home,555-1234,work,555-5678,true", lines[1])
}

// TestCLI_FlattenStdinStdout tests flatten reading stdin and writing stdout
func TestCLI_FlattenStdinStdout(t *testing.T) {
	stdout, stderr, err := runCLI(t, `{"name": "Jane Smith", "tags": ["a"]}`, "flatten")
	require.NoError(t, err, "CLI command failed: %s", stderr)

	assert.Equal(t, `{"name":"Jane Smith","tags[0]":"a"}`+"\n", stdout)
}

// TestCLI_UnflattenCSV tests that a flattened CSV file rebuilds the document
func TestCLI_UnflattenCSV(t *testing.T) {
	tempDir := t.TempDir()
	csvFile := filepath.Join(tempDir, "users.csv")
	require.NoError(t, os.WriteFile(csvFile, []byte("id,name,roles[0]\n1,'=ada,admin\n2,bob,\n"), 0644))

	stdout, stderr, err := runCLI(t, "", "unflatten", "-i", csvFile)
	require.NoError(t, err, "CLI command failed: %s", stderr)

	assert.Contains(t, stdout, `"name": "=ada"`)
	assert.Contains(t, stdout, `"roles": [`)
	assert.True(t, strings.HasPrefix(stdout, "[\n"))
}

// TestCLI_InferCustomRootName tests infer with a custom root name
func TestCLI_InferCustomRootName(t *testing.T) {
	stdout, stderr, err := runCLI(t, `{"name": "Test User", "profile": {"bio": "x"}}`, "infer", "-r", "User", "--export")
	require.NoError(t, err, "CLI command failed: %s", stderr)

	assert.Contains(t, stdout, "export interface ProfileType {")
	assert.Contains(t, stdout, "export interface User {")
	assert.Contains(t, stdout, "  profile: ProfileType;")
}

// TestCLI_InferArrayInput tests infer with a root array
func TestCLI_InferArrayInput(t *testing.T) {
	jsonContent := `[
		{"id": 1, "name": "Item 1"},
		{"id": 2, "name": "Item 2"}
	]`

	stdout, stderr, err := runCLI(t, jsonContent, "infer")
	require.NoError(t, err, "CLI command failed: %s", stderr)

	assert.Contains(t, stdout, "interface RootItem {")
	assert.Contains(t, stdout, "type Root = RootItem[];")
}

// TestCLI_InferJSONSchema tests the JSON Schema output format
func TestCLI_InferJSONSchema(t *testing.T) {
	stdout, stderr, err := runCLI(t, `{"id": 1}`, "infer", "-f", "jsonschema")
	require.NoError(t, err, "CLI command failed: %s", stderr)

	assert.Contains(t, stdout, `"title": "Root"`)
	assert.Contains(t, stdout, `"required": [`)
}

// TestCLI_InvalidJSON tests the CLI with invalid JSON input
func TestCLI_InvalidJSON(t *testing.T) {
	_, stderr, err := runCLI(t, `{"name": "Invalid JSON, "age": 30}`, "flatten")
	assert.Error(t, err, "CLI should fail with invalid JSON")
	assert.Contains(t, stderr, "JSON parsing error")
	assert.Contains(t, stderr, "For help, run: jsonshape --help")
}

// TestCLI_EmptyInput tests the CLI with empty input
func TestCLI_EmptyInput(t *testing.T) {
	_, stderr, err := runCLI(t, "", "infer")
	assert.Error(t, err, "CLI should fail with empty input")
	assert.Contains(t, stderr, "empty input")
}

// TestCLI_PathConflict tests that unflatten reports conflicting paths
func TestCLI_PathConflict(t *testing.T) {
	_, stderr, err := runCLI(t, `{"a": 1, "a.b": 2}`, "unflatten")
	assert.Error(t, err)
	assert.Contains(t, stderr, "Path error")
	assert.Contains(t, stderr, `"a.b"`)
}

// TestCLI_Version tests the version command
func TestCLI_Version(t *testing.T) {
	stdout, _, err := runCLI(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "jsonshape version")
}

// TestCLI_Help tests the help output
func TestCLI_Help(t *testing.T) {
	cmd := exec.Command("go", "run", "../../main.go", "flatten", "--help")
	output, err := cmd.CombinedOutput()
	require.NoError(t, err)

	helpOutput := string(output)
	assert.Contains(t, helpOutput, "Usage:")
	assert.Contains(t, helpOutput, "-i, --input")
	assert.Contains(t, helpOutput, "-o, --output")
	assert.Contains(t, helpOutput, "-f, --format")
	assert.Contains(t, helpOutput, "-s, --separator")
	assert.Contains(t, helpOutput, "-m, --mask")
}
