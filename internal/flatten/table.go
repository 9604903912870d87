package flatten

import (
	"github.com/samber/lo"

	"github.com/mcncl/jsonshape/internal/classifier"
	"github.com/mcncl/jsonshape/internal/models"
)

// BuildTable lays root out as a table. A root array of objects becomes one
// row per element with paths relative to the element; the columns are the
// union of those paths in first-seen order. Any other root becomes a single
// row holding every flattened pair.
func BuildTable(root models.Value, opts Options) models.Table {
	if classifier.Classify(root) == classifier.RecordArray {
		rows := lo.Map(root.Items, func(item models.Value, _ int) []models.Pair {
			return Flatten(item, opts)
		})
		return fromRows(rows, true)
	}
	pairs := Flatten(root, opts)
	if len(pairs) == 0 {
		return models.Table{Columns: []string{}, Rows: [][]*models.Value{}, RowsAreElements: root.Kind == models.Array}
	}
	return fromRows([][]models.Pair{pairs}, false)
}

func fromRows(rows [][]models.Pair, elements bool) models.Table {
	var paths []string
	for _, row := range rows {
		for _, p := range row {
			paths = append(paths, p.Path)
		}
	}
	columns := lo.Uniq(paths)
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		index[c] = i
	}

	table := models.Table{
		Columns:         columns,
		Rows:            make([][]*models.Value, 0, len(rows)),
		RowsAreElements: elements,
	}
	for _, row := range rows {
		cells := make([]*models.Value, len(columns))
		for _, p := range row {
			v := p.Value
			cells[index[p.Path]] = &v
		}
		table.Rows = append(table.Rows, cells)
	}
	return table
}

// RowPairs returns the pairs of one table row, skipping empty cells.
func RowPairs(table models.Table, row int) []models.Pair {
	pairs := make([]models.Pair, 0, len(table.Columns))
	for i, cell := range table.Rows[row] {
		if cell == nil {
			continue
		}
		pairs = append(pairs, models.Pair{Path: table.Columns[i], Value: *cell})
	}
	return pairs
}

// UnflattenTable rebuilds the document a table was built from. Rows that
// came from array elements (or a table with several rows) rebuild into an
// array; a single row rebuilds into one value.
func UnflattenTable(table models.Table, opts Options) (models.Value, error) {
	if !table.RowsAreElements && len(table.Rows) <= 1 {
		if len(table.Rows) == 0 {
			return models.ObjectValue(), nil
		}
		return Unflatten(RowPairs(table, 0), opts)
	}

	items := make([]models.Value, 0, len(table.Rows))
	for i := range table.Rows {
		v, err := Unflatten(RowPairs(table, i), opts)
		if err != nil {
			return models.Value{}, err
		}
		items = append(items, v)
	}
	return models.ArrayValue(items...), nil
}
