package table

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/trungle-dev/linesql/internal/record"
	"github.com/trungle-dev/linesql/internal/sqlerr"
)

// Create writes a new table file holding only the schema header. The
// table directory is created lazily on first use.
func Create(dir, tableName string, schema *record.Schema) error {
	path := filepath.Join(dir, tableName+TableExt)
	if _, err := os.Stat(path); err == nil {
		return sqlerr.New(sqlerr.AlreadyExists, "%s already exists", tableName)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("table: create directory %s: %w", dir, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("table: create %s: %w", tableName, err)
	}
	defer closeFile(f)
	if _, err := fmt.Fprintln(f, schema.String()); err != nil {
		return fmt.Errorf("table: create %s: %w", tableName, err)
	}
	slog.Debug("create table", "table", tableName)
	return nil
}

// Drop removes a table file after checking that none of its values is
// still referenced from another table.
func Drop(dir, tableName string) error {
	t, err := Open(dir, tableName)
	if err != nil {
		return err
	}
	row := record.NewRow(t.Schema())
	for {
		ok, err := t.nextRaw(row)
		if err != nil {
			t.Close()
			return err
		}
		if !ok {
			break
		}
		for _, col := range row.Columns() {
			if err := t.validateReferencedBy(col.Metadata(), col.Value()); err != nil {
				t.Close()
				return err
			}
		}
	}
	t.Close()
	slog.Debug("drop table", "table", tableName)
	return os.Remove(filepath.Join(dir, tableName+TableExt))
}
