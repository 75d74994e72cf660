package table

import (
	"sort"

	"github.com/trungle-dev/linesql/internal/record"
)

// RowSource is the capability set a SELECT pipeline drives. Table and
// JoinedTable implement it; mutation operations exist only on Table.
type RowSource interface {
	// Next advances to the next row satisfying the restriction, with
	// projection and DISTINCT applied. ok is false once exhausted.
	Next(row *record.Row) (ok bool, err error)
	// Reset rewinds to the first row.
	Reset() error
	Schema() *record.Schema
	RowCount() int
	// Restrict installs a new WHERE clause (parsed and normalised).
	Restrict(clause string)
	// Project sets the output columns; "*" or "" disables projection.
	Project(colNames string)
	// Distinct toggles duplicate suppression.
	Distinct(enabled bool)
	// OrderBy materialises the remaining rows and re-serves them sorted.
	OrderBy(colNames string, desc bool) error
	// Clone returns an independent source over the same data, rewound.
	// A remote Table's clone shares its single network stream.
	Clone() (RowSource, error)
	// JoinTo composes this source with other via a hash equi-join.
	JoinTo(other RowSource, joinCondition string) (RowSource, error)
	Close() error
}

// sortRows is the shared ORDER BY sort: stable, so rows with equal keys
// keep their source order.
func sortRows(rows []*record.Row, names []string, desc bool) {
	sort.SliceStable(rows, func(i, j int) bool {
		return compareRows(rows[i], rows[j], names, desc)
	})
}

// compareRows orders two rows by the named columns, first difference
// wins. Used by the ORDER BY materialisation.
func compareRows(row1, row2 *record.Row, names []string, desc bool) bool {
	for _, name := range names {
		col1, err1 := row1.Column(name)
		col2, err2 := row2.Column(name)
		if err1 != nil || err2 != nil {
			continue
		}
		if col1.Equal(col2) {
			continue
		}
		if desc {
			return col2.Less(col1)
		}
		return col1.Less(col2)
	}
	return false
}
