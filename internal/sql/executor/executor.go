// Package executor binds a parsed Query to a table pipeline and streams
// the result rows back to the caller.
package executor

import (
	"log/slog"
	"strings"
	"time"

	"github.com/trungle-dev/linesql/internal/record"
	"github.com/trungle-dev/linesql/internal/sql/parser"
	"github.com/trungle-dev/linesql/internal/sqlerr"
	"github.com/trungle-dev/linesql/internal/strutil"
	"github.com/trungle-dev/linesql/internal/table"
)

// Env carries the execution state: where table files live and how long
// a remote fetch may take to connect.
type Env struct {
	TableDir      string
	RemoteTimeout time.Duration
}

// Result is the outcome of one query. For SELECT it owns the bound
// pipeline; mutations leave it empty.
type Result struct {
	source table.RowSource
}

// Next streams the next result row; ok is false when exhausted or when
// the query produced no rows.
func (r *Result) Next(row *record.Row) (bool, error) {
	if r.source == nil {
		return false, nil
	}
	return r.source.Next(row)
}

func (r *Result) Close() error {
	if r.source == nil {
		return nil
	}
	return r.source.Close()
}

// Execute dispatches on the query type.
func (e *Env) Execute(q *parser.Query) (*Result, error) {
	switch q.Type() {
	case parser.Create:
		return &Result{}, e.executeCreate(q)
	case parser.Drop:
		return &Result{}, table.Drop(e.TableDir, q.Property("tableName"))
	case parser.Insert:
		return &Result{}, e.executeInsert(q)
	case parser.Update:
		return &Result{}, e.executeUpdate(q)
	case parser.Delete:
		return &Result{}, e.executeDelete(q)
	case parser.Select:
		return e.executeSelect(q)
	}
	return nil, sqlerr.New(sqlerr.MalformedQuery, "invalid query type")
}

func (e *Env) executeCreate(q *parser.Query) error {
	tableName := q.Property("tableName")
	schema, err := record.ParseSchema(tableName, q.Property("schema"))
	if err != nil {
		return err
	}
	if err := e.checkReferencedColumns(schema); err != nil {
		return err
	}
	return table.Create(e.TableDir, tableName, schema)
}

// checkReferencedColumns validates every REFERENCES clause of a new
// schema: the target column must exist (in this schema or in an
// on-disk table) and carry the same type.
func (e *Env) checkReferencedColumns(schema *record.Schema) error {
	for _, meta := range schema.Columns() {
		ref := meta.References
		if ref == "" {
			continue
		}
		if !strings.Contains(ref, ".") {
			if !schema.HasColumn(ref) {
				return sqlerr.New(sqlerr.UnknownColumn, "column %s does not exist", ref)
			}
			refMeta, err := schema.Metadata(ref)
			if err != nil {
				return err
			}
			if refMeta.ColType != meta.ColType {
				return sqlerr.New(sqlerr.TypeMismatch,
					"column %s does not have data type %s", ref, meta.ColType)
			}
			continue
		}
		parts := strutil.Split(ref, '.', false)
		if err := e.checkExternalReference(parts[0], parts[1], meta.ColType); err != nil {
			return err
		}
	}
	return nil
}

func (e *Env) checkExternalReference(tableName, colName, colType string) error {
	t, err := table.Open(e.TableDir, tableName)
	if err != nil {
		return err
	}
	defer t.Close()
	if !t.Schema().HasColumn(colName) {
		return sqlerr.New(sqlerr.UnknownColumn,
			"column %s not found in table %s", colName, tableName)
	}
	refMeta, err := t.Schema().Metadata(colName)
	if err != nil {
		return err
	}
	if refMeta.ColType != colType {
		return sqlerr.New(sqlerr.TypeMismatch,
			"column %s in table %s does not have data type %s", colName, tableName, colType)
	}
	return nil
}

func (e *Env) executeInsert(q *parser.Query) error {
	t, err := table.Open(e.TableDir, q.Property("tableName"))
	if err != nil {
		return err
	}
	defer t.Close()
	colNames := strutil.Split(q.Property("columnNames"), ',', false)
	colValues := strutil.Split(q.Property("columnValues"), ',', true)
	if len(colNames) != len(colValues) {
		return sqlerr.New(sqlerr.MalformedQuery, "number of columns and values must match")
	}
	for _, colName := range colNames {
		if !t.Schema().HasColumn(colName) {
			return sqlerr.New(sqlerr.UnknownColumn, "unknown column: %s", colName)
		}
	}
	// Reorder the values into schema declaration order.
	ordered := make([]string, 0, len(t.Schema().Columns()))
	for _, meta := range t.Schema().Columns() {
		found := -1
		for i, colName := range colNames {
			if colName == meta.ColName {
				found = i
				break
			}
		}
		if found < 0 {
			return sqlerr.New(sqlerr.MalformedQuery, "column not specified: %s", meta.ColName)
		}
		ordered = append(ordered, colValues[found])
	}
	return t.InsertRow(record.NewRowValues(t.Schema(), ordered))
}

func (e *Env) executeUpdate(q *parser.Query) error {
	t, err := table.Open(e.TableDir, q.Property("tableName"))
	if err != nil {
		return err
	}
	defer t.Close()
	colNames := strutil.Split(q.Property("columns"), ',', true)
	colValues := strutil.Split(q.Property("values"), ',', true)
	if len(colNames) != len(colValues) {
		return sqlerr.New(sqlerr.MalformedQuery, "number of columns and values must match")
	}
	updates := make(map[string]string, len(colNames))
	for i, colName := range colNames {
		updates[colName] = colValues[i]
	}
	if restrictions := q.Property("restrictions"); restrictions != "" {
		t.Restrict(restrictions)
	}
	return t.UpdateRows(updates)
}

func (e *Env) executeDelete(q *parser.Query) error {
	t, err := table.Open(e.TableDir, q.Property("tableName"))
	if err != nil {
		return err
	}
	defer t.Close()
	if restrictions := q.Property("restrictions"); restrictions != "" {
		t.Restrict(restrictions)
	}
	return t.DeleteRows()
}

func (e *Env) executeSelect(q *parser.Query) (*Result, error) {
	var src table.RowSource
	for _, tableName := range strutil.Split(q.Property("tableNames"), ',', false) {
		var next table.RowSource
		if strings.HasPrefix(tableName, "http://") {
			remote, err := table.FetchRemote(tableName, e.RemoteTimeout)
			if err != nil {
				// A failed fetch yields an empty result, not a dead REPL.
				slog.Warn("remote fetch failed", "url", tableName, "err", err)
				if src != nil {
					src.Close()
				}
				return &Result{}, nil
			}
			next = remote
		} else {
			local, err := table.Open(e.TableDir, tableName)
			if err != nil {
				if src != nil {
					src.Close()
				}
				return nil, err
			}
			next = local
		}
		if src == nil {
			src = next
			continue
		}
		joined, err := src.JoinTo(next, q.Property("joinConditions"))
		if err != nil {
			src.Close()
			next.Close()
			return nil, err
		}
		src = joined
	}
	if src == nil {
		return nil, sqlerr.New(sqlerr.MalformedQuery, "no tables to select from")
	}
	if restrictions := q.Property("restrictions"); restrictions != "" {
		src.Restrict(restrictions)
	}
	if err := src.OrderBy(q.Property("orderBy"), q.HasProperty("desc")); err != nil {
		src.Close()
		return nil, err
	}
	src.Distinct(q.HasProperty("distinct"))
	src.Project(q.Property("columnNames"))
	return &Result{source: src}, nil
}
