package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mcncl/jsonshape/internal/analyzer"
	"github.com/mcncl/jsonshape/internal/config"
	"github.com/mcncl/jsonshape/internal/errors"
	"github.com/mcncl/jsonshape/internal/flatten"
	"github.com/mcncl/jsonshape/internal/formatter"
	"github.com/mcncl/jsonshape/internal/generator"
	"github.com/mcncl/jsonshape/internal/models"
	"github.com/mcncl/jsonshape/internal/parser"
	"github.com/mcncl/jsonshape/internal/schema"
)

// Version information
const (
	Version = "0.1.0"
)

// CLI defines the command-line interface
type CLI struct {
	Config string `help:"Path to a config file. Defaults to the nearest .jsonshape.yml." short:"c" type:"path"`
	Debug  bool   `help:"Enable debug logging." short:"d"`

	Flatten   FlattenCmd   `cmd:"" help:"Flatten JSON into path/value pairs (JSON, CSV or a text table)."`
	Unflatten UnflattenCmd `cmd:"" help:"Rebuild JSON from flattened pairs (flat JSON or CSV)."`
	Infer     InferCmd     `cmd:"" help:"Infer TypeScript declarations (or a JSON Schema) from JSON."`
	Version   VersionCmd   `cmd:"" help:"Show version information."`
}

// Context holds the runtime context shared by all commands
type Context struct {
	Debug      bool
	ConfigPath string
	Logger     *zap.Logger
	Stdin      io.Reader
	Stdout     io.Writer
	Stderr     io.Writer
}

// FlattenCmd flattens a JSON document
type FlattenCmd struct {
	Input      string `help:"Path to input JSON file. If not specified, reads from stdin." short:"i" type:"path"`
	Output     string `help:"Path to output file. If not specified, writes to stdout." short:"o" type:"path"`
	Format     string `help:"Output format: json, csv or table." short:"f" default:"json" enum:"json,csv,table"`
	Separator  string `help:"Path separator (overrides config)." short:"s"`
	IndexStyle string `help:"Array index style: bracket or underscore (overrides config)."`
	Mask       bool   `help:"Mask sensitive values (emails, phone numbers, resident registration numbers)." short:"m"`
}

// UnflattenCmd rebuilds a JSON document from flattened pairs
type UnflattenCmd struct {
	Input      string `help:"Path to flat JSON or CSV file. If not specified, reads from stdin." short:"i" type:"path"`
	Output     string `help:"Path to output JSON file. If not specified, writes to stdout." short:"o" type:"path"`
	Format     string `help:"Input format: json or csv. Defaults to the input file extension, else json." short:"f"`
	Separator  string `help:"Path separator (overrides config)." short:"s"`
	IndexStyle string `help:"Array index style: bracket or underscore (overrides config)."`
	Array      bool   `help:"Rebuild CSV rows as an array even when there is only one row." short:"a"`
}

// InferCmd infers type declarations
type InferCmd struct {
	Input      string `help:"Path to input JSON file. If not specified, reads from stdin." short:"i" type:"path"`
	Output     string `help:"Path to output file. If not specified, writes to stdout." short:"o" type:"path"`
	RootName   string `help:"Name for the root declaration (overrides config)." short:"r"`
	Format     string `help:"Output format: ts or jsonschema." short:"f" default:"ts" enum:"ts,jsonschema"`
	Alias      bool   `help:"Emit 'type X = {...}' instead of interfaces."`
	Zod        bool   `help:"Also emit zod validator schemas."`
	Export     bool   `help:"Prefix declarations with export."`
	FromSchema bool   `help:"Treat the input as a JSON Schema instead of a sample document."`
}

// VersionCmd prints the version
type VersionCmd struct{}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("jsonshape"),
		kong.Description("Flatten, unflatten and infer types for JSON documents"),
		kong.UsageOnError(),
	)

	logger, err := newLogger(cli.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := &Context{
		Debug:      cli.Debug,
		ConfigPath: cli.Config,
		Logger:     logger,
		Stdin:      os.Stdin,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
	}

	if err := kctx.Run(ctx); err != nil {
		logger.Debug("command failed", zap.String("command", kctx.Command()), zap.Error(err))
		_ = logger.Sync()

		// Use our custom error handling to provide user-friendly error messages
		fmt.Fprintf(os.Stderr, "%s\n", errors.UserFriendlyError(err))
		fmt.Fprintf(os.Stderr, "\nFor help, run: jsonshape --help\n")
		os.Exit(1)
	}
	_ = logger.Sync()
}

// newLogger builds a production logger writing to stderr; debug enables debug level
func newLogger(debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return cfg.Build()
}

// Run flattens the input document
func (c *FlattenCmd) Run(ctx *Context) error {
	cfg, err := ctx.loadConfig(config.Overrides{
		PathSeparator:   c.Separator,
		ArrayIndexStyle: c.IndexStyle,
		Mask:            c.Mask,
	})
	if err != nil {
		return err
	}

	doc, err := ctx.parseInput(c.Input)
	if err != nil {
		return err
	}

	opts := cfg.FlattenOptions()
	table := flatten.BuildTable(doc.Root, opts)
	ctx.Logger.Debug("flattened document",
		zap.Int("columns", len(table.Columns)),
		zap.Int("rows", len(table.Rows)),
		zap.Bool("masked", opts.MaskSensitiveFields),
	)

	format, err := formatter.ParseFormat(c.Format)
	if err != nil {
		return errors.NewOutputError("invalid output format", err)
	}

	var buf bytes.Buffer
	if err := formatter.NewFormatterWithConfig(cfg).Write(&buf, table, format); err != nil {
		return errors.NewOutputError("failed to serialize flattened output", err)
	}
	return ctx.writeOutput(c.Output, buf.Bytes())
}

// Run rebuilds a JSON document from flat JSON or CSV
func (c *UnflattenCmd) Run(ctx *Context) error {
	cfg, err := ctx.loadConfig(config.Overrides{
		PathSeparator:   c.Separator,
		ArrayIndexStyle: c.IndexStyle,
	})
	if err != nil {
		return err
	}

	data, err := ctx.readInput(c.Input)
	if err != nil {
		return err
	}

	format := c.Format
	if format == "" {
		format = "json"
		if strings.EqualFold(filepath.Ext(c.Input), ".csv") {
			format = "csv"
		}
	}

	var table models.Table
	switch strings.ToLower(format) {
	case "csv":
		table, err = formatter.ReadCSV(bytes.NewReader(data))
		if err != nil {
			return errors.NewParsingError("failed to read CSV input", err)
		}
		table.RowsAreElements = c.Array
	case "json":
		table, err = formatter.ReadFlatJSON(data)
		if err != nil {
			if errors.IsParseError(err) {
				return err
			}
			return errors.NewParsingError("failed to read flat JSON input", err)
		}
	default:
		return errors.NewInputError(fmt.Sprintf("unknown input format %q (want json or csv)", format), nil)
	}
	ctx.Logger.Debug("read flattened input",
		zap.String("format", format),
		zap.Int("columns", len(table.Columns)),
		zap.Int("rows", len(table.Rows)),
	)

	root, err := flatten.UnflattenTable(table, cfg.FlattenOptions())
	if err != nil {
		return err
	}

	out, err := root.MarshalJSON()
	if err != nil {
		return errors.NewOutputError("failed to encode JSON", err)
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, out, "", "  "); err != nil {
		return errors.NewOutputError("failed to encode JSON", err)
	}
	pretty.WriteByte('\n')
	return ctx.writeOutput(c.Output, pretty.Bytes())
}

// Run infers declarations from the input
func (c *InferCmd) Run(ctx *Context) error {
	cfg, err := ctx.loadConfig(config.Overrides{
		RootName:  c.RootName,
		Alias:     c.Alias,
		Validator: c.Zod,
		Export:    c.Export,
	})
	if err != nil {
		return err
	}

	var result models.InferenceResult
	if c.FromSchema {
		data, err := ctx.readInput(c.Input)
		if err != nil {
			return err
		}
		s, err := schema.ParseBytes(data)
		if err != nil {
			return errors.NewParsingError("failed to parse JSON Schema input", err)
		}
		result, err = schema.NewConverter(s).Convert(cfg.RootName)
		if err != nil {
			return errors.NewAnalysisError("failed to convert JSON Schema", err)
		}
	} else {
		doc, err := ctx.parseInput(c.Input)
		if err != nil {
			return err
		}
		result, err = analyzer.NewAnalyzerWithConfig(cfg).Analyze(doc.Root, cfg.RootName)
		if err != nil {
			return errors.NewAnalysisError("failed to analyze JSON structure", err)
		}
	}
	ctx.Logger.Debug("inferred declarations",
		zap.String("root", result.RootName),
		zap.Int("declarations", len(result.Declarations)),
	)

	var code string
	if c.Format == "jsonschema" {
		code, err = schema.Generate(result, cfg.Infer.Indent)
	} else {
		code, err = generator.NewGeneratorWithConfig(cfg).Generate(result)
	}
	if err != nil {
		return errors.NewGenerateError("failed to generate declarations", err)
	}
	return ctx.writeOutput(c.Output, []byte(code))
}

// Run prints the version
func (c *VersionCmd) Run(ctx *Context) error {
	_, err := fmt.Fprintf(ctx.Stdout, "jsonshape version %s\n", Version)
	return err
}

// loadConfig loads the config file and applies the command's overrides
func (ctx *Context) loadConfig(o config.Overrides) (*config.Config, error) {
	o.Debug = ctx.Debug
	cfg, err := config.LoadConfigWithCLI(ctx.ConfigPath, o)
	if err != nil {
		return nil, errors.NewConfigError("failed to load configuration", err)
	}
	ctx.Logger.Debug("configuration loaded",
		zap.String("path", ctx.ConfigPath),
		zap.String("separator", cfg.Flatten.PathSeparator),
		zap.String("index_style", cfg.Flatten.ArrayIndexStyle),
		zap.String("root_name", cfg.RootName),
	)
	return cfg, nil
}

// parseInput reads and parses JSON from file or stdin
func (ctx *Context) parseInput(path string) (models.Document, error) {
	data, err := ctx.readInput(path)
	if err != nil {
		return models.Document{}, err
	}
	doc, err := parser.ParseBytes(data)
	if err != nil {
		return models.Document{}, err
	}
	ctx.Logger.Debug("parsed input", zap.Int("bytes", len(data)), zap.Stringer("root", doc.Root.Kind))
	return doc, nil
}

// readInput reads raw input from file or stdin
func (ctx *Context) readInput(path string) ([]byte, error) {
	if path != "" {
		return parser.ReadFile(path)
	}

	// Refuse to block on an interactive terminal
	if f, ok := ctx.Stdin.(*os.File); ok {
		stdinInfo, err := f.Stat()
		if err != nil {
			return nil, errors.NewInputError("failed to access stdin", err)
		}
		if (stdinInfo.Mode() & os.ModeCharDevice) != 0 {
			return nil, errors.NewInputError("no input provided", errors.ErrNoInput)
		}
	}

	data, err := io.ReadAll(ctx.Stdin)
	if err != nil {
		return nil, errors.NewInputError("failed to read from stdin", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.NewInputError("empty input received from stdin", errors.ErrEmptyInput)
	}
	return data, nil
}

// writeOutput writes data to file or stdout
func (ctx *Context) writeOutput(path string, data []byte) error {
	if path != "" {
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return errors.NewOutputError(fmt.Sprintf("failed to write to file '%s'", path), err)
		}
		fmt.Fprintf(ctx.Stderr, "Output written to %s\n", path)
		return nil
	}

	if _, err := ctx.Stdout.Write(data); err != nil {
		return errors.NewOutputError("failed to write to stdout", err)
	}
	return nil
}
