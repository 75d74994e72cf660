package parser

import (
	"strconv"
	"strings"

	"github.com/trungle-dev/linesql/internal/record"
	"github.com/trungle-dev/linesql/internal/sqlerr"
	"github.com/trungle-dev/linesql/internal/strutil"
)

func malformed() error {
	return sqlerr.New(sqlerr.MalformedQuery, "malformed query")
}

// parseCreate handles
//
//	CREATE TABLE name ( col type [NOT NULL|REFERENCES ( t.c )] , ... [PRIMARY KEY ( col )] ) ;
func (q *Query) parseCreate() error {
	parts := strutil.Split(q.raw, ' ', false)
	// Shortest form: CREATE TABLE t ( col type ) ;
	if len(parts) < 8 {
		return malformed()
	}
	q.props["tableName"] = parts[2]
	if strings.ToLower(parts[1]) != "table" || parts[3] != "(" || parts[len(parts)-2] != ")" {
		return malformed()
	}
	var metas []record.ColumnMetadata
	index := 4
	for index < len(parts)-2 {
		if strings.ToLower(parts[index]) == "primary" {
			if err := parsePrimaryKey(parts, metas, &index); err != nil {
				return err
			}
		} else {
			meta, err := createColumnMetadata(parts[2], parts, &index)
			if err != nil {
				return err
			}
			metas = append(metas, meta)
		}
	}

	schema := &record.Schema{}
	seen := map[string]bool{}
	primaryKeyFound := false
	for _, meta := range metas {
		if meta.PrimaryKey {
			if primaryKeyFound {
				return sqlerr.New(sqlerr.MalformedQuery,
					"table cannot have more than one primary key")
			}
			primaryKeyFound = true
		}
		if seen[meta.ColName] {
			return sqlerr.New(sqlerr.MalformedQuery, "column names must be unique")
		}
		seen[meta.ColName] = true
		schema.AddColumn(meta)
	}
	q.props["schema"] = schema.String()
	return nil
}

// createColumnMetadata consumes one column declaration starting at *index.
// The primary-key and not-null flags of a PRIMARY KEY ( col ) clause are
// back-patched afterwards by parsePrimaryKey.
func createColumnMetadata(tableName string, parts []string, index *int) (record.ColumnMetadata, error) {
	i := *index
	if i+1 >= len(parts) {
		return record.ColumnMetadata{}, malformed()
	}
	colName := parts[i]
	dataType := strings.ToLower(parts[i+1])
	i += 2
	if i+2 < len(parts) && parts[i] == "(" {
		dataType += "(" + parts[i+1] + ")"
		i += 3
	}
	if err := record.CheckDataType(dataType); err != nil {
		return record.ColumnMetadata{}, err
	}
	references := ""
	notNull := false
	if err := extractColumnOptions(parts, &i, colName, &references, &notNull); err != nil {
		return record.ColumnMetadata{}, err
	}
	i++ // step over the comma (or the closing parenthesis of the table)
	*index = i
	return record.ColumnMetadata{
		ColName:    colName,
		TableName:  tableName,
		ColType:    dataType,
		References: references,
		NotNull:    notNull,
	}, nil
}

func extractColumnOptions(parts []string, index *int, colName string,
	references *string, notNull *bool) error {
	i := *index
	for i < len(parts)-2 && parts[i] != "," {
		switch strings.ToLower(parts[i]) {
		case "not":
			if strings.ToLower(parts[i+1]) != "null" {
				return sqlerr.New(sqlerr.MalformedQuery,
					"expected 'null' for column %s", colName)
			}
			*notNull = true
			i += 2
		case "references":
			if i+3 >= len(parts) || parts[i+1] != "(" || parts[i+3] != ")" {
				return sqlerr.New(sqlerr.MalformedQuery,
					"missing brackets for column %s", colName)
			}
			*references = parts[i+2]
			i += 4
		default:
			return sqlerr.New(sqlerr.MalformedQuery,
				"unexpected symbol %s for column %s", parts[i], colName)
		}
	}
	*index = i
	return nil
}

// parsePrimaryKey back-patches the primary-key and not-null flags onto the
// named column.
func parsePrimaryKey(parts []string, metas []record.ColumnMetadata, index *int) error {
	i := *index
	if i+5 >= len(parts) {
		return malformed()
	}
	if strings.ToLower(parts[i+1]) != "key" {
		return sqlerr.New(sqlerr.MalformedQuery, "expected 'key' after 'primary'")
	}
	if parts[i+2] != "(" || parts[i+4] != ")" {
		return sqlerr.New(sqlerr.MalformedQuery,
			"expected parentheses after primary key declaration")
	}
	for j := range metas {
		if metas[j].ColName == parts[i+3] {
			metas[j].PrimaryKey = true
			metas[j].NotNull = true
		}
	}
	if parts[i+5] == "," {
		i += 6
	} else {
		i += 5
	}
	*index = i
	return nil
}

// parseDrop handles DROP TABLE name ;
func (q *Query) parseDrop() error {
	parts := strutil.Split(q.raw, ' ', false)
	if len(parts) != 4 {
		return malformed()
	}
	q.props["tableName"] = parts[2]
	if strings.ToLower(parts[1]) != "table" {
		return sqlerr.New(sqlerr.MalformedQuery, "expected 'table' but got %s", parts[1])
	}
	return nil
}

// parseInsert handles INSERT INTO name ( cols ) VALUES ( values ) ;
func (q *Query) parseInsert() error {
	parts := strutil.Split(q.raw, ' ', true)
	if len(parts) < 11 {
		if len(parts) > 3 && parts[3] != "(" {
			return sqlerr.New(sqlerr.MalformedQuery,
				"expected column names after table name")
		}
		return malformed()
	}
	if strings.ToLower(parts[1]) != "into" {
		return sqlerr.New(sqlerr.MalformedQuery, "expected 'into' after insert keyword")
	}
	q.props["tableName"] = parts[2]

	index := 4
	var colNames strings.Builder
	for index < len(parts) && parts[index] != ")" {
		colNames.WriteString(parts[index])
		index++
	}
	q.props["columnNames"] = colNames.String()
	if index >= len(parts)-1 || strings.ToLower(parts[index+1]) != "values" {
		return sqlerr.New(sqlerr.MalformedQuery,
			"expected 'values' after column declarations")
	}
	if index+2 >= len(parts) || parts[index+2] != "(" {
		return sqlerr.New(sqlerr.MalformedQuery,
			"expected value declarations within parentheses")
	}
	index += 3
	var colValues strings.Builder
	for index < len(parts) && parts[index] != ")" {
		if strings.ToLower(parts[index]) == "null" {
			colValues.WriteString(record.NullValue)
		} else {
			colValues.WriteString(parts[index])
		}
		index++
	}
	q.props["columnValues"] = colValues.String()
	return nil
}

// parseUpdate handles UPDATE name SET col = value [, ...] [WHERE ...] ;
func (q *Query) parseUpdate() error {
	parts := strutil.Split(q.raw, ' ', true)
	if len(parts) < 7 || strings.ToLower(parts[2]) != "set" {
		return malformed()
	}
	q.props["tableName"] = parts[1]
	var columns, values strings.Builder
	index := 3
	for index < len(parts) && parts[index] != ";" && strings.ToLower(parts[index]) != "where" {
		columns.WriteString(parts[index])
		columns.WriteByte(',')
		index++
		if index >= len(parts) || parts[index] != "=" {
			return sqlerr.New(sqlerr.MalformedQuery, "expected = after column name")
		}
		index++
		if index >= len(parts) {
			return malformed()
		}
		if strings.ToLower(parts[index]) == "null" {
			values.WriteString(record.NullValue)
		} else {
			values.WriteString(parts[index])
		}
		values.WriteByte(',')
		index++
		if index < len(parts) && parts[index] == "," {
			index++
		}
	}
	q.props["columns"] = strings.TrimSuffix(columns.String(), ",")
	q.props["values"] = strings.TrimSuffix(values.String(), ",")

	restrictions, err := parseRestrictions(parts, &index)
	if err != nil {
		return err
	}
	q.props["restrictions"] = restrictions
	return nil
}

// parseDelete handles DELETE FROM name [WHERE ...] ;
func (q *Query) parseDelete() error {
	parts := strutil.Split(q.raw, ' ', true)
	if len(parts) < 4 || strings.ToLower(parts[1]) != "from" {
		return malformed()
	}
	q.props["tableName"] = parts[2]
	index := 3
	restrictions, err := parseRestrictions(parts, &index)
	if err != nil {
		return err
	}
	q.props["restrictions"] = restrictions
	return nil
}

// parseSelect handles
//
//	SELECT [DISTINCT] cols FROM tables [WHERE ...] [ORDER BY cols [DESC]] ;
func (q *Query) parseSelect() error {
	parts := strutil.Split(q.raw, ' ', true)
	if len(parts) < 5 || !strings.Contains(strings.ToLower(q.raw), " from ") {
		return malformed()
	}
	index := 1
	if strings.ToLower(parts[1]) == "distinct" {
		index = 2
		q.props["distinct"] = ""
	}
	var colNames strings.Builder
	for index < len(parts) && strings.ToLower(parts[index]) != "from" {
		colNames.WriteString(strutil.ExtractQuoted(parts[index]))
		index++
	}
	q.props["columnNames"] = colNames.String()
	index++

	var tableNames strings.Builder
	for index < len(parts) && strings.ToLower(parts[index]) != "where" &&
		strings.ToLower(parts[index]) != "order" && parts[index] != ";" {
		tableNames.WriteString(strutil.ExtractQuoted(parts[index]))
		index++
	}
	q.props["tableNames"] = tableNames.String()

	restrictions, err := parseRestrictions(parts, &index)
	if err != nil {
		return err
	}
	q.props["restrictions"] = restrictions
	q.props["joinConditions"] = extractJoinConditions(restrictions)

	orderBy, err := parseOrderBy(parts, &index)
	if err != nil {
		return err
	}
	q.props["orderBy"] = orderBy
	if index < len(parts) && strings.ToLower(parts[index]) == "desc" {
		q.props["desc"] = ""
	}
	return nil
}

// parseRestrictions consumes an optional WHERE clause starting at *index
// and returns it space-joined.
func parseRestrictions(parts []string, index *int) (string, error) {
	i := *index
	if i >= len(parts) {
		return "", malformed()
	}
	var restrictions []string
	if strings.ToLower(parts[i]) == "where" {
		i++
		for i < len(parts) && parts[i] != ";" && strings.ToLower(parts[i]) != "order" {
			restrictions = append(restrictions, parts[i])
			i++
		}
	} else if parts[i] != ";" && strings.ToLower(parts[i]) != "order" {
		return "", malformed()
	}
	*index = i
	return strings.Join(restrictions, " "), nil
}

// parseOrderBy consumes an optional ORDER BY clause and returns the
// comma-separated column list.
func parseOrderBy(parts []string, index *int) (string, error) {
	i := *index
	if i >= len(parts) || strings.ToLower(parts[i]) != "order" {
		return "", nil
	}
	i++
	if i >= len(parts) || strings.ToLower(parts[i]) != "by" {
		return "", sqlerr.New(sqlerr.MalformedQuery, "expected 'by' after 'order'")
	}
	i++
	var ret strings.Builder
	for i < len(parts) && parts[i] != ";" && strings.ToLower(parts[i]) != "desc" {
		ret.WriteString(parts[i])
		i++
	}
	*index = i
	return ret.String(), nil
}

// isColumnName reports whether s could name a column: not a double-quoted
// literal and not a number.
func isColumnName(s string) bool {
	if s == "" || s[0] == '"' {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err != nil
}

// extractJoinConditions keeps the triples of the WHERE clause whose both
// sides look like column names; those drive the hash join.
func extractJoinConditions(restrictions string) string {
	if restrictions == "" {
		return ""
	}
	parts := strutil.Split(restrictions, ' ', true)
	// Parentheses only group boolean structure, which join conditions
	// do not carry.
	filtered := parts[:0]
	for _, p := range parts {
		if p != "(" && p != ")" {
			filtered = append(filtered, p)
		}
	}
	parts = filtered

	var joinConditions strings.Builder
	for i := 0; i+2 < len(parts); {
		left, right := parts[i], parts[i+2]
		keep := isColumnName(left) && isColumnName(right)
		if keep {
			joinConditions.WriteString(left + " " + parts[i+1] + " " + right)
		}
		i += 3
		if i < len(parts) && (strings.ToLower(parts[i]) == "and" || strings.ToLower(parts[i]) == "or") {
			if keep {
				joinConditions.WriteByte(' ')
			}
			i++
		}
	}
	return strings.TrimSuffix(joinConditions.String(), " ")
}
