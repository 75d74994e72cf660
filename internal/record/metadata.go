// Package record holds the table data model: column metadata, schemas,
// typed value cells and rows, plus their line-oriented wire forms.
package record

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/trungle-dev/linesql/internal/sqlerr"
	"github.com/trungle-dev/linesql/internal/strutil"
)

// ColumnMetadata describes one column of a table.
type ColumnMetadata struct {
	ColName    string
	TableName  string
	ColType    string
	References string // "OtherTable.OtherColumn", or empty
	PrimaryKey bool
	NotNull    bool
}

var dataTypePattern = regexp.MustCompile(`^(char|varchar)\(\d+\)$`)

// CheckDataType reports whether typ names a supported column type.
func CheckDataType(typ string) error {
	switch typ {
	case "int", "bigint", "float", "double", "date", "time":
		return nil
	}
	if !dataTypePattern.MatchString(typ) {
		return sqlerr.New(sqlerr.MalformedQuery, "invalid data type %s", typ)
	}
	return nil
}

// IsCharType reports whether typ is char(N) or varchar(N).
func IsCharType(typ string) bool {
	return strings.Contains(typ, "char")
}

// CharTypeLimit returns the base name and N of a char(N)/varchar(N) type.
func CharTypeLimit(typ string) (string, int) {
	parts := strutil.Split(typ, '(', false)
	if len(parts) != 2 {
		return typ, 0
	}
	limit, _ := strconv.Atoi(strings.TrimSuffix(parts[1], ")"))
	return parts[0], limit
}

// String renders the five-field serialised form: three quoted strings then
// the two boolean flags.
func (m ColumnMetadata) String() string {
	return fmt.Sprintf("%s %s %s %t %t",
		strutil.Quote(m.ColName), strutil.Quote(m.ColType),
		strutil.Quote(m.References), m.PrimaryKey, m.NotNull)
}

func parseColumnMetadata(tableName, s string) (ColumnMetadata, error) {
	fields := strutil.SplitQuoted(s)
	if len(fields) < 5 {
		return ColumnMetadata{}, sqlerr.New(sqlerr.MalformedQuery,
			"malformed column metadata: %s", s)
	}
	pk, err := strconv.ParseBool(fields[3])
	if err != nil {
		return ColumnMetadata{}, sqlerr.New(sqlerr.MalformedQuery,
			"malformed column metadata: %s", s)
	}
	nn, err := strconv.ParseBool(fields[4])
	if err != nil {
		return ColumnMetadata{}, sqlerr.New(sqlerr.MalformedQuery,
			"malformed column metadata: %s", s)
	}
	return ColumnMetadata{
		ColName:    fields[0],
		TableName:  tableName,
		ColType:    fields[1],
		References: fields[2],
		PrimaryKey: pk,
		NotNull:    nn,
	}, nil
}

// WidthForType is the display width the REPL uses for a column type.
func WidthForType(typ string) int {
	if IsCharType(typ) {
		_, limit := CharTypeLimit(typ)
		return limit
	}
	switch typ {
	case "int":
		return 11 // -2147483648
	case "bigint":
		return 20 // -9223372036854775808
	case "float", "double":
		return 15
	case "date":
		return 10 // YYYY-MM-DD
	case "time":
		return 8 // hh:mm:ss
	default:
		return len(typ)
	}
}
