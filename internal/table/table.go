package table

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/trungle-dev/linesql/internal/record"
	"github.com/trungle-dev/linesql/internal/sql/restriction"
	"github.com/trungle-dev/linesql/internal/sqlerr"
	"github.com/trungle-dev/linesql/internal/strutil"
)

const (
	// TableExt is the extension of table files.
	TableExt = ".table"
	// TempExt is the extension of the temporary rewrite sibling.
	TempExt = ".tmp"
)

// Table streams rows out of one backing byte stream, applying the
// configured restriction, projection and DISTINCT filter. Local tables
// additionally support insert/update/delete through a temp-file rewrite.
type Table struct {
	schema    *record.Schema
	name      string
	dir       string
	stream    rowStream
	restr     *restriction.Restriction
	colFilter []string
	distinct  bool
	seen      map[string]bool
	rowCount  int
	fromURL   bool
	hasRows   bool
	// headerSkipped tracks whether the cursor has consumed the schema
	// header line since the last rewind.
	headerSkipped bool
}

// Open reads the schema header of a table file and positions a cursor
// before the first data row.
func Open(dir, tableName string) (*Table, error) {
	path := filepath.Join(dir, tableName+TableExt)
	if _, err := os.Stat(path); err != nil {
		return nil, sqlerr.New(sqlerr.UnknownTable, "%s does not exist", tableName)
	}
	stream, err := openFileStream(path)
	if err != nil {
		return nil, fmt.Errorf("table: open %s: %w", tableName, err)
	}
	header, ok := stream.ReadLine()
	if !ok {
		stream.Close()
		return nil, sqlerr.New(sqlerr.MalformedQuery, "table %s has no header", tableName)
	}
	schema, err := record.ParseSchema(tableName, header)
	if err != nil {
		stream.Close()
		return nil, err
	}
	t := &Table{
		schema:        schema,
		name:          tableName,
		dir:           dir,
		stream:        stream,
		restr:         restriction.New(""),
		seen:          map[string]bool{},
		hasRows:       true,
		headerSkipped: true,
	}
	if err := t.countRows(); err != nil {
		stream.Close()
		return nil, err
	}
	return t, nil
}

func (t *Table) path() string {
	return filepath.Join(t.dir, t.name+TableExt)
}

func (t *Table) tempPath() string {
	return filepath.Join(t.dir, t.name+TempExt)
}

func (t *Table) Schema() *record.Schema { return t.schema }
func (t *Table) Name() string           { return t.name }
func (t *Table) RowCount() int          { return t.rowCount }
func (t *Table) IsRemote() bool         { return t.fromURL }

func (t *Table) Close() error {
	if t.stream != nil {
		return t.stream.Close()
	}
	return nil
}

func (t *Table) Restrict(clause string) {
	t.restr = restriction.New(clause)
}

func (t *Table) Project(colNames string) {
	if colNames == "" {
		t.colFilter = nil
		return
	}
	if colNames != "*" {
		t.colFilter = strutil.Split(colNames, ',', false)
	}
}

func (t *Table) Distinct(enabled bool) {
	t.distinct = enabled
	t.seen = map[string]bool{}
}

// Reset rewinds the cursor to the first data row.
func (t *Table) Reset() error {
	if err := t.stream.Reset(); err != nil {
		return err
	}
	t.hasRows = true
	t.headerSkipped = false
	return nil
}

// Next advances to the next row satisfying the restriction. Projection
// rewrites the row when configured; DISTINCT drops rows whose projected
// signature has been seen before.
func (t *Table) Next(row *record.Row) (bool, error) {
	if !t.headerSkipped {
		t.stream.ReadLine()
		t.headerSkipped = true
	}
	for t.hasRows {
		line, ok := t.stream.ReadLine()
		if !ok {
			t.hasRows = false
			return false, nil
		}
		fresh := record.NewRow(t.schema)
		fresh.ReadLine(line)
		match, err := t.restr.Apply(fresh)
		if err != nil {
			return false, err
		}
		if !match {
			continue
		}
		if err := fresh.Project(t.colFilter); err != nil {
			return false, err
		}
		if t.distinct {
			sig := fresh.Signature()
			if t.seen[sig] {
				continue
			}
			t.seen[sig] = true
		}
		*row = *fresh
		return true, nil
	}
	return false, nil
}

// nextRaw reads the next data line with no restriction, projection or
// DISTINCT applied. The mutation rewrites use it so non-matching rows
// are carried over verbatim.
func (t *Table) nextRaw(row *record.Row) (bool, error) {
	if !t.headerSkipped {
		t.stream.ReadLine()
		t.headerSkipped = true
	}
	line, ok := t.stream.ReadLine()
	if !ok {
		t.hasRows = false
		return false, nil
	}
	row.ReadLine(line)
	return true, nil
}

// OrderBy materialises every remaining row, sorts by the listed columns
// (stable, ties broken by the next column) and replaces the backing
// stream with an in-memory rewrite of header plus sorted rows.
func (t *Table) OrderBy(colNames string, desc bool) error {
	if colNames == "" {
		return nil
	}
	names := strutil.Split(colNames, ',', false)
	var rows []*record.Row
	for {
		row := record.NewRow(t.schema)
		ok, err := t.Next(row)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		rows = append(rows, row.Clone())
	}
	sortRows(rows, names, desc)
	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, t.schema.String())
	for _, row := range rows {
		lines = append(lines, row.String())
	}
	t.stream = newMemStream(lines)
	t.hasRows = true
	t.headerSkipped = false
	return nil
}

// Clone duplicates the cursor and rewinds it to the start. A remote
// table's network stream cannot be duplicated: its clone shares that
// stream at its current position.
func (t *Table) Clone() (RowSource, error) {
	stream, err := t.stream.Clone()
	if err != nil {
		return nil, err
	}
	c := *t
	c.stream = stream
	c.seen = map[string]bool{}
	c.hasRows = true
	c.headerSkipped = t.fromURL
	if !t.fromURL {
		if err := stream.Reset(); err != nil {
			return nil, err
		}
	}
	return &c, nil
}

// JoinTo composes this table with other via a hash equi-join.
func (t *Table) JoinTo(other RowSource, joinCondition string) (RowSource, error) {
	return newJoinedTable(t, other, joinCondition)
}

// InsertRow validates, formats and appends one row to the table file,
// leaving the read cursor where it was.
func (t *Table) InsertRow(row *record.Row) error {
	if t.fromURL {
		return sqlerr.New(sqlerr.NotPermittedOnRemote, "cannot insert into a remote table")
	}
	for i := 0; i < row.NumColumns(); i++ {
		col := row.At(i)
		meta := col.Metadata()
		if err := t.validateColumnValue(meta, col.Value(), i); err != nil {
			return err
		}
		formatted, err := record.FormatValue(meta.ColType, col.Value())
		if err != nil {
			return err
		}
		row.SetAt(i, record.NewColumn(formatted, meta))
	}
	f, err := os.OpenFile(t.path(), os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("table: append %s: %w", t.name, err)
	}
	defer closeFile(f)
	if _, err := fmt.Fprintln(f, row.String()); err != nil {
		return fmt.Errorf("table: append %s: %w", t.name, err)
	}
	t.rowCount++
	slog.Debug("insert", "table", t.name, "rows", t.rowCount)
	return nil
}

// UpdateRows rewrites the table, replacing the listed columns on every
// row that matches the restriction. Updating a primary-key column with
// no restriction would duplicate the key across all rows.
func (t *Table) UpdateRows(updates map[string]string) error {
	if t.fromURL {
		return sqlerr.New(sqlerr.NotPermittedOnRemote, "cannot update a remote table")
	}
	for colName, value := range updates {
		meta, err := t.schema.Metadata(colName)
		if err != nil {
			return err
		}
		if meta.PrimaryKey && t.restr.IsEmpty() {
			return sqlerr.New(sqlerr.PrimaryKeyNotUnique, "primary key must be unique")
		}
		if err := t.validateColumnValue(meta, value, t.schema.ColumnIndex(colName)); err != nil {
			return err
		}
		formatted, err := record.FormatValue(meta.ColType, value)
		if err != nil {
			return err
		}
		updates[colName] = formatted
	}
	if err := t.Reset(); err != nil {
		return err
	}
	return t.writeUpdatedRows(updates)
}

// DeleteRows rewrites the table without the rows matching the
// restriction, refusing when another table still references a value of
// a deleted row.
func (t *Table) DeleteRows() error {
	if t.fromURL {
		return sqlerr.New(sqlerr.NotPermittedOnRemote, "cannot delete from a remote table")
	}
	if err := t.Reset(); err != nil {
		return err
	}
	if err := t.writeUndeletedRows(); err != nil {
		return err
	}
	t.rowCount--
	return nil
}

func (t *Table) writeUpdatedRows(updates map[string]string) error {
	out, err := os.Create(t.tempPath())
	if err != nil {
		return fmt.Errorf("table: rewrite %s: %w", t.name, err)
	}
	abort := func(cause error) error {
		out.Close()
		os.Remove(t.tempPath())
		return cause
	}
	fmt.Fprintln(out, t.schema.String())
	row := record.NewRow(t.schema)
	for {
		ok, err := t.nextRaw(row)
		if err != nil {
			return abort(err)
		}
		if !ok {
			break
		}
		match, err := t.restr.Apply(row)
		if err != nil {
			return abort(err)
		}
		if !match {
			fmt.Fprintln(out, row.String())
			continue
		}
		parts := make([]string, 0, row.NumColumns())
		for _, col := range row.Columns() {
			colName := col.Metadata().ColName
			if newValue, replaced := updates[colName]; replaced {
				if err := t.validateReferencedBy(col.Metadata(), col.Value()); err != nil {
					return abort(err)
				}
				parts = append(parts, strutil.Quote(newValue))
			} else {
				parts = append(parts, strutil.Quote(col.Value()))
			}
		}
		fmt.Fprintln(out, strings.Join(parts, " "))
	}
	if err := out.Close(); err != nil {
		os.Remove(t.tempPath())
		return err
	}
	slog.Debug("update", "table", t.name)
	return os.Rename(t.tempPath(), t.path())
}

func (t *Table) writeUndeletedRows() error {
	out, err := os.Create(t.tempPath())
	if err != nil {
		return fmt.Errorf("table: rewrite %s: %w", t.name, err)
	}
	abort := func(cause error) error {
		out.Close()
		os.Remove(t.tempPath())
		return cause
	}
	fmt.Fprintln(out, t.schema.String())
	row := record.NewRow(t.schema)
	for {
		ok, err := t.nextRaw(row)
		if err != nil {
			return abort(err)
		}
		if !ok {
			break
		}
		match, err := t.restr.Apply(row)
		if err != nil {
			return abort(err)
		}
		if !match {
			fmt.Fprintln(out, row.String())
			continue
		}
		for _, col := range row.Columns() {
			if err := t.validateReferencedBy(col.Metadata(), col.Value()); err != nil {
				return abort(err)
			}
		}
	}
	if err := out.Close(); err != nil {
		os.Remove(t.tempPath())
		return err
	}
	slog.Debug("delete", "table", t.name)
	return os.Rename(t.tempPath(), t.path())
}

// validateColumnValue runs the full insert/update validation for one
// cell: declared type, NOT NULL, primary-key uniqueness, and the
// foreign-key existence check.
func (t *Table) validateColumnValue(meta record.ColumnMetadata, value string, indexInSchema int) error {
	if err := record.ValidateValue(meta.ColName, meta.ColType, value); err != nil {
		return err
	}
	if value == record.NullValue {
		if meta.NotNull {
			return sqlerr.New(sqlerr.NotNullViolation, "%s cannot be null", meta.ColName)
		}
		return nil
	}
	if meta.PrimaryKey {
		if err := t.checkForDuplicateValue(value, indexInSchema); err != nil {
			return err
		}
	}
	return t.validateReferencedColumn(meta, value)
}

// checkForDuplicateValue scans the file for an existing row carrying
// value in the primary-key column.
func (t *Table) checkForDuplicateValue(value string, index int) error {
	scan, err := t.stream.Clone()
	if err != nil {
		return err
	}
	defer scan.Close()
	scan.ReadLine() // header
	for {
		line, ok := scan.ReadLine()
		if !ok {
			return nil
		}
		fields := strutil.SplitQuoted(line)
		if index < len(fields) && fields[index] == value {
			return sqlerr.New(sqlerr.PrimaryKeyNotUnique, "primary key must be unique")
		}
	}
}

func (t *Table) countRows() error {
	scan, err := t.stream.Clone()
	if err != nil {
		return err
	}
	defer scan.Close()
	scan.ReadLine() // header
	count := 0
	for {
		if _, ok := scan.ReadLine(); !ok {
			break
		}
		count++
	}
	t.rowCount = count
	return nil
}

func closeFile(f *os.File) {
	if err := f.Close(); err != nil {
		slog.Error("close file", "err", err)
	}
}
