package record

import (
	"strings"

	"github.com/trungle-dev/linesql/internal/sqlerr"
	"github.com/trungle-dev/linesql/internal/strutil"
)

// Row is an ordered list of cells bound to a schema. The wire form is one
// line of space-separated, double-quoted tokens.
type Row struct {
	schema *Schema
	cols   []Column
}

func NewRow(schema *Schema) *Row {
	return &Row{schema: schema}
}

// NewRowValues binds raw values (still in query-literal form) to the
// schema columns in declaration order.
func NewRowValues(schema *Schema, values []string) *Row {
	r := &Row{schema: schema}
	for i, meta := range schema.Columns() {
		if i >= len(values) {
			break
		}
		r.cols = append(r.cols, NewColumn(values[i], meta))
	}
	return r
}

// ReadLine replaces the row's cells with the tokens of one data line.
func (r *Row) ReadLine(line string) {
	r.cols = r.cols[:0]
	metas := r.schema.Columns()
	for i, value := range strutil.SplitQuoted(line) {
		var meta ColumnMetadata
		if i < len(metas) {
			meta = metas[i]
		}
		r.cols = append(r.cols, NewColumn(value, meta))
	}
}

// String renders the stored line form.
func (r *Row) String() string {
	parts := make([]string, len(r.cols))
	for i, col := range r.cols {
		parts[i] = strutil.Quote(col.Value())
	}
	return strings.Join(parts, " ")
}

func (r *Row) Schema() *Schema    { return r.schema }
func (r *Row) Columns() []Column  { return r.cols }
func (r *Row) NumColumns() int    { return len(r.cols) }
func (r *Row) At(i int) Column    { return r.cols[i] }
func (r *Row) SetAt(i int, c Column) { r.cols[i] = c }

// Column resolves a bare or "table.col" qualified name. An unqualified
// name matching columns from two tables is ambiguous.
func (r *Row) Column(colName string) (Column, error) {
	name, tableName := colName, ""
	if strings.Contains(colName, ".") {
		parts := strutil.Split(colName, '.', true)
		tableName = strutil.ExtractQuoted(parts[0])
		name = strutil.ExtractQuoted(parts[1])
	}
	ret := UndefinedColumn()
	for _, col := range r.cols {
		if col.Metadata().ColName == name {
			if tableName == "" && ret.IsDefined() {
				return Column{}, sqlerr.New(sqlerr.AmbiguousColumn,
					"ambiguous column: %s", name)
			}
			if tableName == "" || col.Metadata().TableName == tableName {
				ret = col
			}
		}
	}
	if ret.IsDefined() {
		return ret, nil
	}
	return Column{}, sqlerr.New(sqlerr.UnknownColumn,
		"column %s does not exist", colName)
}

// Project rewrites the cells to the given names in the given order. An
// empty list leaves the row unchanged.
func (r *Row) Project(colNames []string) error {
	if len(colNames) == 0 {
		return nil
	}
	newCols := make([]Column, 0, len(colNames))
	for _, name := range colNames {
		col, err := r.Column(name)
		if err != nil {
			return err
		}
		newCols = append(newCols, col)
	}
	r.cols = newCols
	return nil
}

// Merge appends the cells of other.
func (r *Row) Merge(other *Row) {
	r.cols = append(r.cols, other.cols...)
}

// FillBlank resets the row to count empty cells carrying the schema's
// metadata, used for the unmatched side of an outer join.
func (r *Row) FillBlank(count int) {
	r.cols = r.cols[:0]
	metas := r.schema.Columns()
	for i := 0; i < count && i < len(metas); i++ {
		r.cols = append(r.cols, NewColumn("", metas[i]))
	}
}

// Signature is the DISTINCT dedup key: the concatenated name=value pairs.
func (r *Row) Signature() string {
	var buf strings.Builder
	for _, col := range r.cols {
		buf.WriteString(col.Metadata().ColName)
		buf.WriteByte('=')
		buf.WriteString(col.Value())
		buf.WriteByte(';')
	}
	return buf.String()
}

// Clone returns an independent copy sharing the schema.
func (r *Row) Clone() *Row {
	c := &Row{schema: r.schema, cols: make([]Column, len(r.cols))}
	copy(c.cols, r.cols)
	return c
}
