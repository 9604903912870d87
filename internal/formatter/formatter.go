package formatter

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strings"
	"text/tabwriter"

	"github.com/gocarina/gocsv"
	"github.com/samber/lo"

	"github.com/mcncl/jsonshape/internal/config"
	"github.com/mcncl/jsonshape/internal/models"
	"github.com/mcncl/jsonshape/internal/parser"
)

// Format names a flatten output encoding.
type Format string

const (
	FormatJSON  Format = "json"
	FormatCSV   Format = "csv"
	FormatTable Format = "table"
)

// ParseFormat validates a format name. An empty name means JSON.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	case FormatTable:
		return FormatTable, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want json, csv or table)", s)
	}
}

// utf8BOM lets spreadsheet applications detect the encoding of CSV output.
const utf8BOM = "\ufeff"

// neutralizer is prepended to CSV cells a spreadsheet would evaluate.
const neutralizer = '\''

var numberRegex = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][+-]?[0-9]+)?$`)

// Formatter serializes flattened tables
type Formatter struct {
	bom bool
}

// NewFormatter creates a new Formatter instance
func NewFormatter() *Formatter {
	return &Formatter{bom: true}
}

// NewFormatterWithConfig creates a Formatter using the output settings of cfg
func NewFormatterWithConfig(cfg *config.Config) *Formatter {
	return &Formatter{bom: cfg.Output.CSVBOM}
}

// Write encodes table in the given format
func (f *Formatter) Write(w io.Writer, table models.Table, format Format) error {
	switch format {
	case FormatCSV:
		return f.WriteCSV(w, table)
	case FormatTable:
		return f.WriteText(w, table)
	case FormatJSON, "":
		return f.WriteFlatJSON(w, table)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// WriteCSV writes a header row of paths and one record per table row. String
// cells that a spreadsheet would read as a formula are neutralized here and
// nowhere earlier.
func (f *Formatter) WriteCSV(w io.Writer, table models.Table) error {
	if f.bom {
		if _, err := io.WriteString(w, utf8BOM); err != nil {
			return fmt.Errorf("failed to write CSV: %w", err)
		}
	}

	cw := gocsv.NewSafeCSVWriter(csv.NewWriter(w))
	if err := cw.Write(lo.Map(table.Columns, func(c string, _ int) string { return Neutralize(c) })); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, row := range table.Rows {
		record := lo.Map(row, func(cell *models.Value, _ int) string { return csvCell(cell) })
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	return nil
}

func csvCell(cell *models.Value) string {
	if cell == nil {
		return ""
	}
	if cell.Kind == models.String {
		return Neutralize(cell.Str)
	}
	return cell.Text()
}

// Neutralize prefixes s with a quote when, after any leading quotes, it
// starts with = + - or @. Reading strips exactly one quote back off, so
// "'=a" and "''=a" stay distinct.
func Neutralize(s string) string {
	if needsNeutralizing(s) {
		return string(neutralizer) + s
	}
	return s
}

func needsNeutralizing(s string) bool {
	rest := strings.TrimLeft(s, string(neutralizer))
	return rest != "" && strings.ContainsRune("=+-@", rune(rest[0]))
}

// Unneutralize reverses Neutralize.
func Unneutralize(s string) string {
	if len(s) > 1 && s[0] == neutralizer && needsNeutralizing(s[1:]) {
		return s[1:]
	}
	return s
}

// WriteFlatJSON writes one flat object per row, keyed by path. Rows that came
// from a root array are written as an array of flat objects.
func (f *Formatter) WriteFlatJSON(w io.Writer, table models.Table) error {
	objects := make([]models.Value, 0, len(table.Rows))
	for _, row := range table.Rows {
		obj := models.ObjectValue()
		for i, cell := range row {
			if cell != nil {
				obj.Fields = append(obj.Fields, models.F(table.Columns[i], *cell))
			}
		}
		objects = append(objects, obj)
	}

	var doc models.Value
	switch {
	case table.RowsAreElements || len(objects) > 1:
		doc = models.ArrayValue(objects...)
	case len(objects) == 1:
		doc = objects[0]
	default:
		doc = models.ObjectValue()
	}

	data, err := doc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to encode flat JSON: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write flat JSON: %w", err)
	}
	return nil
}

// WriteText writes an aligned plain text table for terminals. A single row
// document is written as two columns, path and value.
func (f *Formatter) WriteText(w io.Writer, table models.Table) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	if !table.RowsAreElements && len(table.Rows) == 1 {
		fmt.Fprintln(tw, "PATH\tVALUE")
		for i, cell := range table.Rows[0] {
			if cell == nil {
				continue
			}
			fmt.Fprintf(tw, "%s\t%s\n", textCell(table.Columns[i]), textCell(cell.Text()))
		}
		return tw.Flush()
	}

	fmt.Fprintln(tw, strings.Join(lo.Map(table.Columns, func(c string, _ int) string { return textCell(c) }), "\t"))
	for _, row := range table.Rows {
		cells := lo.Map(row, func(cell *models.Value, _ int) string {
			if cell == nil {
				return ""
			}
			return textCell(cell.Text())
		})
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

// textCell keeps control characters from breaking the table layout
func textCell(s string) string {
	return strings.NewReplacer("\t", `\t`, "\n", `\n`, "\r", `\r`).Replace(s)
}

// ReadCSV reads a table written by WriteCSV (or edited in a spreadsheet).
// The BOM and neutralizing quotes are removed and every cell is typed: null,
// true and false, JSON numbers, and otherwise strings. Empty cells are
// treated as absent.
func ReadCSV(r io.Reader) (models.Table, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && string(head) == utf8BOM {
		_, _ = br.Discard(len(utf8BOM))
	}

	records, err := csvReader(br).ReadAll()
	if err != nil {
		return models.Table{}, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) == 0 {
		return models.Table{}, fmt.Errorf("failed to read CSV: no header row")
	}

	table := models.Table{
		Columns: lo.Map(records[0], func(c string, _ int) string { return Unneutralize(c) }),
		Rows:    make([][]*models.Value, 0, len(records)-1),
	}
	for _, record := range records[1:] {
		table.Rows = append(table.Rows, lo.Map(record, func(cell string, _ int) *models.Value {
			return typeCell(cell)
		}))
	}
	return table, nil
}

// csvReader tolerates the stray quotes spreadsheet exports leave in
// unquoted cells. Leading spaces are kept since they are part of the value.
func csvReader(r io.Reader) gocsv.CSVReader {
	cr := gocsv.DefaultCSVReader(r)
	if std, ok := cr.(*csv.Reader); ok {
		std.LazyQuotes = true
	}
	return cr
}

func typeCell(cell string) *models.Value {
	var v models.Value
	switch {
	case cell == "":
		return nil
	case cell == "null":
		v = models.NullValue()
	case cell == "true":
		v = models.BoolValue(true)
	case cell == "false":
		v = models.BoolValue(false)
	case numberRegex.MatchString(cell):
		v = models.NumberValue(cell)
	default:
		v = models.StringValue(Unneutralize(cell))
	}
	return &v
}

// ReadFlatJSON reads output of WriteFlatJSON: one flat object, or an array of
// them. Every member must be a scalar.
func ReadFlatJSON(data []byte) (models.Table, error) {
	doc, err := parser.ParseBytes(data)
	if err != nil {
		return models.Table{}, err
	}

	var objects []models.Value
	switch doc.Root.Kind {
	case models.Object:
		objects = []models.Value{doc.Root}
	case models.Array:
		objects = doc.Root.Items
	default:
		return models.Table{}, fmt.Errorf("flat JSON must be an object or an array of objects, got %s", doc.Root.Kind)
	}

	rows := make([][]models.Pair, 0, len(objects))
	for i, obj := range objects {
		if obj.Kind != models.Object {
			return models.Table{}, fmt.Errorf("flat JSON element %d is %s, want object", i, obj.Kind)
		}
		pairs := make([]models.Pair, 0, len(obj.Fields))
		for _, field := range obj.Fields {
			if !field.Value.IsScalar() {
				return models.Table{}, fmt.Errorf("flat JSON member %q is %s, want a scalar", field.Key, field.Value.Kind)
			}
			pairs = append(pairs, models.Pair{Path: field.Key, Value: field.Value})
		}
		rows = append(rows, pairs)
	}

	columns := lo.Uniq(lo.FlatMap(rows, func(row []models.Pair, _ int) []string {
		return lo.Map(row, func(p models.Pair, _ int) string { return p.Path })
	}))
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		index[c] = i
	}

	table := models.Table{
		Columns:         columns,
		Rows:            make([][]*models.Value, 0, len(rows)),
		RowsAreElements: doc.Root.Kind == models.Array,
	}
	for _, row := range rows {
		cells := make([]*models.Value, len(columns))
		for _, p := range row {
			v := p.Value
			cells[index[p.Path]] = &v
		}
		table.Rows = append(table.Rows, cells)
	}
	return table, nil
}
