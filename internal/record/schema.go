package record

import (
	"strings"

	"github.com/trungle-dev/linesql/internal/sqlerr"
	"github.com/trungle-dev/linesql/internal/strutil"
)

// Schema is the ordered list of column descriptors for one table. The
// serialised form is a single line of tab-separated metadata records.
type Schema struct {
	cols []ColumnMetadata
}

// ParseSchema rebuilds a schema from a table file header line. Remote
// table names reduce to the last path segment.
func ParseSchema(tableName, line string) (*Schema, error) {
	name := tableName
	if strings.HasPrefix(tableName, "http://") {
		name = tableName[strings.LastIndex(tableName, "/")+1:]
	}
	s := &Schema{}
	for _, part := range strutil.Split(line, '\t', false) {
		if part == "" {
			continue
		}
		meta, err := parseColumnMetadata(name, part)
		if err != nil {
			return nil, err
		}
		s.AddColumn(meta)
	}
	return s, nil
}

func (s *Schema) String() string {
	parts := make([]string, len(s.cols))
	for i, meta := range s.cols {
		parts[i] = meta.String()
	}
	return strings.Join(parts, "\t")
}

func (s *Schema) AddColumn(meta ColumnMetadata) {
	s.cols = append(s.cols, meta)
}

// Columns returns the ordered column descriptors.
func (s *Schema) Columns() []ColumnMetadata {
	return s.cols
}

// ColumnIndex returns the position of colName, or -1.
func (s *Schema) ColumnIndex(colName string) int {
	for i, meta := range s.cols {
		if meta.ColName == colName {
			return i
		}
	}
	return -1
}

// HasColumn accepts bare and "table.col" qualified names.
func (s *Schema) HasColumn(colName string) bool {
	name, tableName := colName, ""
	if strings.Contains(colName, ".") {
		parts := strutil.Split(colName, '.', true)
		tableName, name = parts[0], parts[1]
	}
	for _, meta := range s.cols {
		if meta.ColName == name {
			if tableName == "" || meta.TableName == tableName {
				return true
			}
		}
	}
	return false
}

// Metadata returns the descriptor for colName.
func (s *Schema) Metadata(colName string) (ColumnMetadata, error) {
	for _, meta := range s.cols {
		if meta.ColName == colName {
			return meta, nil
		}
	}
	return ColumnMetadata{}, sqlerr.New(sqlerr.UnknownColumn,
		"column %s does not exist", colName)
}

// Merge appends the columns of other, preserving their table names.
func (s *Schema) Merge(other *Schema) {
	s.cols = append(s.cols, other.cols...)
}

// Clone returns an independent copy.
func (s *Schema) Clone() *Schema {
	c := &Schema{cols: make([]ColumnMetadata, len(s.cols))}
	copy(c.cols, s.cols)
	return c
}
