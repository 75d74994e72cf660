package table

import (
	"os"
	"strings"

	"github.com/trungle-dev/linesql/internal/record"
	"github.com/trungle-dev/linesql/internal/sqlerr"
	"github.com/trungle-dev/linesql/internal/strutil"
)

// validateReferencedColumn checks that a foreign-key value exists in the
// referenced table: at least one row must carry it, non-null, in the
// referenced column.
func (t *Table) validateReferencedColumn(meta record.ColumnMetadata, value string) error {
	if meta.References == "" {
		return nil
	}
	parts := strutil.Split(meta.References, '.', false)
	if len(parts) != 2 {
		return sqlerr.New(sqlerr.DanglingReference,
			"value %s does not reference %s", value, meta.References)
	}
	refTable, err := Open(t.dir, parts[0])
	if err != nil {
		return err
	}
	defer refTable.Close()
	row := record.NewRow(refTable.Schema())
	for {
		ok, err := refTable.nextRaw(row)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		col, err := row.Column(parts[1])
		if err != nil {
			continue
		}
		if !col.IsNull() && col.Value() == value {
			return nil
		}
	}
	return sqlerr.New(sqlerr.DanglingReference,
		"value %s does not reference %s", value, meta.References)
}

// validateReferencedBy refuses a modification that would orphan a
// reference: every table file in the directory whose schema references
// this column is scanned for the old value.
func (t *Table) validateReferencedBy(meta record.ColumnMetadata, oldValue string) error {
	entries, err := os.ReadDir(t.dir)
	if err != nil {
		return err
	}
	target := meta.TableName + "." + meta.ColName
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), TableExt) {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), TableExt)
		other, err := Open(t.dir, name)
		if err != nil {
			continue
		}
		err = scanForReference(other, target, oldValue)
		other.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func scanForReference(other *Table, target, oldValue string) error {
	for _, otherMeta := range other.Schema().Columns() {
		if otherMeta.References != target {
			continue
		}
		row := record.NewRow(other.Schema())
		for {
			ok, err := other.nextRaw(row)
			if err != nil {
				return err
			}
			if !ok {
				break
			}
			col, err := row.Column(otherMeta.ColName)
			if err != nil {
				continue
			}
			if !col.IsNull() && col.Value() == oldValue {
				return sqlerr.New(sqlerr.ReferencedBy,
					"column %s.%s references a value being modified or deleted",
					otherMeta.TableName, otherMeta.ColName)
			}
		}
		break
	}
	return nil
}
