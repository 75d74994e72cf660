package table

import (
	"strings"

	"github.com/trungle-dev/linesql/internal/record"
	"github.com/trungle-dev/linesql/internal/sql/restriction"
	"github.com/trungle-dev/linesql/internal/sqlerr"
	"github.com/trungle-dev/linesql/internal/strutil"
)

// JoinedTable composes two row sources with a hash equi-join. The
// smaller source (by row count) is fully indexed as the build side; the
// larger is streamed as the probe side. The merged schema is probe
// columns first, then build columns. Joined tables are read-only.
type JoinedTable struct {
	schema     *record.Schema
	buildTable RowSource
	probeTable RowSource
	// columnMap maps a probe column name to its build join column.
	columnMap map[string]string
	// joinMap indexes build rows under "colName=value" keys.
	joinMap map[string]*record.Row

	restr     *restriction.Restriction
	colFilter []string
	distinct  bool
	seen      map[string]bool
	// stream replaces the join pipeline after an ORDER BY.
	stream  rowStream
	hasRows bool
}

func newJoinedTable(t1, t2 RowSource, joinCondition string) (*JoinedTable, error) {
	jt := &JoinedTable{
		columnMap: map[string]string{},
		joinMap:   map[string]*record.Row{},
		restr:     restriction.New(""),
		seen:      map[string]bool{},
		hasRows:   true,
	}
	if err := jt.assignBuildAndProbe(t1, t2); err != nil {
		return nil, err
	}
	jt.schema = jt.probeTable.Schema().Clone()
	jt.schema.Merge(jt.buildTable.Schema())
	if joinCondition == "" {
		return jt, nil
	}
	parts := strutil.Split(joinCondition, ' ', true)
	if err := jt.parseJoinCondition(parts); err != nil {
		return nil, err
	}
	return jt, nil
}

// assignBuildAndProbe clones both inputs so the join owns independent,
// rewindable cursors.
func (jt *JoinedTable) assignBuildAndProbe(t1, t2 RowSource) error {
	var err error
	if t1.RowCount() > t2.RowCount() {
		if jt.buildTable, err = t2.Clone(); err != nil {
			return err
		}
		jt.probeTable, err = t1.Clone()
	} else {
		if jt.buildTable, err = t1.Clone(); err != nil {
			return err
		}
		jt.probeTable, err = t2.Clone()
	}
	return err
}

// parseJoinCondition walks the "lhs = rhs" triples: whichever side names
// a build column becomes the build key, the other side the probe key.
func (jt *JoinedTable) parseJoinCondition(parts []string) error {
	var buildColumns []string
	for i := 0; i+2 < len(parts); i += 3 {
		for i < len(parts) && (strings.EqualFold(parts[i], "and") || strings.EqualFold(parts[i], "or")) {
			i++
		}
		if i+2 >= len(parts) {
			break
		}
		if parts[i+1] != "=" {
			return sqlerr.New(sqlerr.UnsupportedJoinOperator,
				"joins currently only support the = operator")
		}
		if jt.buildTable.Schema().HasColumn(parts[i]) {
			jt.columnMap[parts[i+2]] = parts[i]
			buildColumns = append(buildColumns, parts[i])
		} else {
			jt.columnMap[parts[i]] = parts[i+2]
			buildColumns = append(buildColumns, parts[i+2])
		}
	}
	return jt.buildJoinMap(buildColumns)
}

// buildJoinMap reads every build row and indexes it under each
// configured build-key column.
func (jt *JoinedTable) buildJoinMap(buildColumns []string) error {
	if err := jt.buildTable.Reset(); err != nil {
		return err
	}
	row := record.NewRow(jt.buildTable.Schema())
	for {
		ok, err := jt.buildTable.Next(row)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		for _, name := range buildColumns {
			col, err := row.Column(name)
			if err != nil {
				continue
			}
			jt.joinMap[name+"="+col.Value()] = row.Clone()
		}
	}
	return jt.buildTable.Reset()
}

func (jt *JoinedTable) Schema() *record.Schema { return jt.schema }

// RowCount reports the probe side's count; the join never knows its own
// cardinality up front.
func (jt *JoinedTable) RowCount() int { return jt.probeTable.RowCount() }

func (jt *JoinedTable) Restrict(clause string) {
	jt.restr = restriction.New(clause)
}

func (jt *JoinedTable) Project(colNames string) {
	if colNames == "" {
		jt.colFilter = nil
		return
	}
	if colNames != "*" {
		jt.colFilter = strutil.Split(colNames, ',', false)
	}
}

func (jt *JoinedTable) Distinct(enabled bool) {
	jt.distinct = enabled
	jt.seen = map[string]bool{}
}

func (jt *JoinedTable) Reset() error {
	if jt.stream != nil {
		if err := jt.stream.Reset(); err != nil {
			return err
		}
	}
	if err := jt.probeTable.Reset(); err != nil {
		return err
	}
	if err := jt.buildTable.Reset(); err != nil {
		return err
	}
	jt.hasRows = true
	return nil
}

func (jt *JoinedTable) Next(row *record.Row) (bool, error) {
	for {
		ok, err := jt.extractRow(row)
		if err != nil {
			return false, err
		}
		if !ok {
			jt.hasRows = false
			return false, nil
		}
		if err := row.Project(jt.colFilter); err != nil {
			return false, err
		}
		if jt.distinct {
			sig := row.Signature()
			if jt.seen[sig] {
				continue
			}
			jt.seen[sig] = true
		}
		return true, nil
	}
}

// extractRow produces the next merged row satisfying the restriction.
func (jt *JoinedTable) extractRow(row *record.Row) (bool, error) {
	for {
		merged := record.NewRow(jt.schema)
		if jt.stream != nil {
			line, ok := jt.stream.ReadLine()
			if !ok {
				return false, nil
			}
			merged.ReadLine(line)
		} else {
			probeRow := record.NewRow(jt.probeTable.Schema())
			ok, err := jt.probeTable.Next(probeRow)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
			merged.Merge(probeRow)
			if len(jt.columnMap) == 0 {
				// No join conditions: pair against a sliding build
				// cursor that rewinds on exhaustion.
				buildRow := record.NewRow(jt.buildTable.Schema())
				ok, err := jt.buildTable.Next(buildRow)
				if err != nil {
					return false, err
				}
				if !ok {
					if err := jt.buildTable.Reset(); err != nil {
						return false, err
					}
					if _, err := jt.buildTable.Next(buildRow); err != nil {
						return false, err
					}
				}
				merged.Merge(buildRow)
			} else {
				jt.mergeMatch(merged, probeRow)
			}
		}
		match, err := jt.restr.Apply(merged)
		if err != nil {
			return false, err
		}
		if match {
			*row = *merged
			return true, nil
		}
	}
}

// mergeMatch looks each probe column up in the join map and merges in
// the matched build row, or a blank build-shaped row when nothing
// matches (outer semantics).
func (jt *JoinedTable) mergeMatch(merged, probeRow *record.Row) {
	for _, col := range probeRow.Columns() {
		colName := col.Metadata().ColName
		if _, ok := jt.columnMap[colName]; !ok {
			colName = col.Metadata().TableName + "." + colName
		}
		buildCol, ok := jt.columnMap[colName]
		if !ok {
			continue
		}
		if buildRow, found := jt.joinMap[buildCol+"="+col.Value()]; found {
			merged.Merge(buildRow)
			return
		}
	}
	blank := record.NewRow(jt.buildTable.Schema())
	blank.FillBlank(len(jt.buildTable.Schema().Columns()))
	merged.Merge(blank)
}

// OrderBy materialises the joined rows into an in-memory stream.
func (jt *JoinedTable) OrderBy(colNames string, desc bool) error {
	if colNames == "" {
		return nil
	}
	names := strutil.Split(colNames, ',', false)
	var rows []*record.Row
	for {
		row := record.NewRow(jt.schema)
		ok, err := jt.Next(row)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		rows = append(rows, row.Clone())
	}
	sortRows(rows, names, desc)
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, row.String())
	}
	jt.stream = newMemStream(lines)
	jt.hasRows = true
	return nil
}

func (jt *JoinedTable) Clone() (RowSource, error) {
	build, err := jt.buildTable.Clone()
	if err != nil {
		return nil, err
	}
	probe, err := jt.probeTable.Clone()
	if err != nil {
		return nil, err
	}
	c := &JoinedTable{
		schema:     jt.schema.Clone(),
		buildTable: build,
		probeTable: probe,
		columnMap:  jt.columnMap,
		joinMap:    jt.joinMap,
		restr:      jt.restr,
		colFilter:  jt.colFilter,
		distinct:   jt.distinct,
		seen:       map[string]bool{},
		hasRows:    true,
	}
	if jt.stream != nil {
		stream, err := jt.stream.Clone()
		if err != nil {
			return nil, err
		}
		c.stream = stream
	}
	return c, nil
}

func (jt *JoinedTable) JoinTo(other RowSource, joinCondition string) (RowSource, error) {
	return newJoinedTable(jt, other, joinCondition)
}

func (jt *JoinedTable) Close() error {
	jt.buildTable.Close()
	return jt.probeTable.Close()
}

// Mutations are not permitted on a join.

func (jt *JoinedTable) InsertRow(*record.Row) error {
	return sqlerr.New(sqlerr.NotPermittedOnJoin, "cannot insert rows in a joined table")
}

func (jt *JoinedTable) UpdateRows(map[string]string) error {
	return sqlerr.New(sqlerr.NotPermittedOnJoin, "cannot update rows in a joined table")
}

func (jt *JoinedTable) DeleteRows() error {
	return sqlerr.New(sqlerr.NotPermittedOnJoin, "cannot delete rows in a joined table")
}
