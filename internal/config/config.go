package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/iancoleman/strcase"
	"gopkg.in/yaml.v3"

	"github.com/mcncl/jsonshape/internal/flatten"
	"github.com/mcncl/jsonshape/internal/pathkey"
)

// Config represents the complete configuration for jsonshape
type Config struct {
	RootName string        `yaml:"root_name"`
	Flatten  FlattenConfig `yaml:"flatten"`
	Infer    InferConfig   `yaml:"infer"`
	Naming   NamingConfig  `yaml:"naming"`
	Output   OutputConfig  `yaml:"output"`
	Dev      DevConfig     `yaml:"dev"`
}

// FlattenConfig controls path rendering and masking
type FlattenConfig struct {
	PathSeparator       string `yaml:"path_separator"`
	ArrayIndexStyle     string `yaml:"array_index_style"`
	MaskSensitiveFields bool   `yaml:"mask_sensitive_fields"`
	MaskLiteral         string `yaml:"mask_literal"`
}

// InferConfig controls declaration output
type InferConfig struct {
	// EmitAsAlias writes "type X = {...}" instead of "interface X {...}".
	EmitAsAlias         bool `yaml:"emit_as_alias"`
	EmitValidatorSchema bool `yaml:"emit_validator_schema"`
	Export              bool `yaml:"export"`
	Indent              int  `yaml:"indent"`
}

// NamingConfig controls declaration naming
type NamingConfig struct {
	PascalCaseTypes bool              `yaml:"pascal_case_types"`
	ObjectSuffix    string            `yaml:"object_suffix"`
	ItemSuffix      string            `yaml:"item_suffix"`
	TypeMappings    map[string]string `yaml:"type_mappings"`
}

// OutputConfig controls serialization details
type OutputConfig struct {
	CSVBOM     bool   `yaml:"csv_bom"`
	FileHeader string `yaml:"file_header"`
}

// DevConfig contains development/debug options
type DevConfig struct {
	Debug bool `yaml:"debug"`
}

var identifierRegex = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		RootName: "Root",
		Flatten: FlattenConfig{
			PathSeparator:       flatten.DefaultSeparator,
			ArrayIndexStyle:     string(pathkey.Bracket),
			MaskSensitiveFields: false,
			MaskLiteral:         flatten.DefaultMaskLiteral,
		},
		Infer: InferConfig{
			EmitAsAlias:         false,
			EmitValidatorSchema: false,
			Export:              false,
			Indent:              2,
		},
		Naming: NamingConfig{
			PascalCaseTypes: true,
			ObjectSuffix:    "Type",
			ItemSuffix:      "Item",
			TypeMappings:    make(map[string]string),
		},
		Output: OutputConfig{
			CSVBOM: true,
		},
	}
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults
	cfg := NewConfig()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file: %w", err)
	}

	return cfg, nil
}

// FindConfigFile searches for a config file in current directory and parents
func FindConfigFile() string {
	configNames := []string{".jsonshape.yml", ".jsonshape.yaml", "jsonshape.yml", "jsonshape.yaml"}

	currentDir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		for _, name := range configNames {
			configPath := filepath.Join(currentDir, name)
			if _, err := os.Stat(configPath); err == nil {
				return configPath
			}
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}

	return ""
}

// Validate checks option combinations that would produce unusable output
func (c *Config) Validate() error {
	if !identifierRegex.MatchString(c.RootName) {
		return fmt.Errorf("root_name %q is not a valid identifier", c.RootName)
	}
	if c.Flatten.PathSeparator == "" {
		return fmt.Errorf("flatten.path_separator must not be empty")
	}
	if _, err := pathkey.ParseStyle(c.Flatten.ArrayIndexStyle); err != nil {
		return fmt.Errorf("flatten.array_index_style: %w", err)
	}
	if err := c.FlattenOptions().Validate(); err != nil {
		return fmt.Errorf("flatten: %w", err)
	}
	if c.Infer.Indent < 0 || c.Infer.Indent > 8 {
		return fmt.Errorf("infer.indent must be between 0 and 8, got %d", c.Infer.Indent)
	}
	for key, name := range c.Naming.TypeMappings {
		if !identifierRegex.MatchString(name) {
			return fmt.Errorf("naming.type_mappings[%q]: %q is not a valid identifier", key, name)
		}
	}
	return nil
}

// FlattenOptions converts the flatten section into flatten.Options
func (c *Config) FlattenOptions() flatten.Options {
	style, err := pathkey.ParseStyle(c.Flatten.ArrayIndexStyle)
	if err != nil {
		style = pathkey.Style(c.Flatten.ArrayIndexStyle)
	}
	return flatten.Options{
		PathSeparator:       c.Flatten.PathSeparator,
		ArrayIndexStyle:     style,
		MaskSensitiveFields: c.Flatten.MaskSensitiveFields,
		MaskLiteral:         c.Flatten.MaskLiteral,
	}
}

// GetTypeName returns the declaration base name for a JSON key, applying
// naming rules. The boolean reports whether a type mapping supplied the
// name verbatim, in which case no suffix should be added.
func (c *Config) GetTypeName(jsonKey string) (string, bool) {
	if mapped, exists := c.Naming.TypeMappings[jsonKey]; exists {
		return mapped, true
	}

	name := jsonKey
	if c.Naming.PascalCaseTypes {
		name = strcase.ToCamel(jsonKey)
	}
	if name == "" || !identifierRegex.MatchString(name) {
		name = "Field" + name
		if !identifierRegex.MatchString(name) {
			name = "Field"
		}
	}
	return name, false
}

// Overrides holds values given on the command line. Empty strings and
// false booleans mean "not given" and leave the loaded value alone.
type Overrides struct {
	RootName        string
	PathSeparator   string
	ArrayIndexStyle string
	Mask            bool
	Alias           bool
	Validator       bool
	Export          bool
	Debug           bool
}

// Apply merges CLI overrides into the config
func (c *Config) Apply(o Overrides) {
	if o.RootName != "" {
		c.RootName = o.RootName
	}
	if o.PathSeparator != "" {
		c.Flatten.PathSeparator = o.PathSeparator
	}
	if o.ArrayIndexStyle != "" {
		c.Flatten.ArrayIndexStyle = o.ArrayIndexStyle
	}
	if o.Mask {
		c.Flatten.MaskSensitiveFields = true
	}
	if o.Alias {
		c.Infer.EmitAsAlias = true
	}
	if o.Validator {
		c.Infer.EmitValidatorSchema = true
	}
	if o.Export {
		c.Infer.Export = true
	}
	if o.Debug {
		c.Dev.Debug = true
	}
}

// LoadConfigWithCLI loads the config file (explicit path, else discovered,
// else defaults) and applies CLI overrides on top.
func LoadConfigWithCLI(configPath string, o Overrides) (*Config, error) {
	cfg := NewConfig()

	if configPath == "" {
		configPath = FindConfigFile()
	}
	if configPath != "" {
		fileConfig, err := LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = fileConfig
	}

	cfg.Apply(o)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
