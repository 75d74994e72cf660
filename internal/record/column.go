package record

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/trungle-dev/linesql/internal/sqlerr"
	"github.com/trungle-dev/linesql/internal/strutil"
)

const (
	// NullValue is the stored sentinel for NULL cells.
	NullValue = "\x00"
	// undefinedValue marks a cell that was never initialised.
	undefinedValue = "\x7F"
)

const (
	dateLayout = "2006-1-2"
	timeLayout = "15:4:5"
)

// Column is one typed cell: a raw textual value plus the metadata of the
// column it belongs to. Comparisons dispatch on the declared type.
type Column struct {
	value string
	meta  ColumnMetadata
}

func NewColumn(value string, meta ColumnMetadata) Column {
	return Column{value: value, meta: meta}
}

// UndefinedColumn returns the uninitialised cell sentinel.
func UndefinedColumn() Column {
	return Column{value: undefinedValue}
}

func (c Column) Value() string            { return c.value }
func (c Column) Metadata() ColumnMetadata { return c.meta }
func (c Column) IsNull() bool             { return c.value == NullValue }

// IsDefined reports whether the cell has been initialised.
func (c Column) IsDefined() bool { return c.value != undefinedValue }

// Int64 parses the value as a 64-bit integer. Trailing garbage is an error.
func (c Column) Int64() (int64, error) {
	v, err := strconv.ParseInt(c.value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("record: not an integer: %q", c.value)
	}
	return v, nil
}

// Float64 parses the value as a double-precision float.
func (c Column) Float64() (float64, error) {
	v, err := strconv.ParseFloat(c.value, 64)
	if err != nil {
		return 0, fmt.Errorf("record: not a number: %q", c.value)
	}
	return v, nil
}

// Date parses the value as a calendar date.
func (c Column) Date() (time.Time, error) {
	return parseDate(c.value)
}

// Time parses the value as a time of day.
func (c Column) Time() (time.Time, error) {
	return parseTime(c.value)
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, strings.ReplaceAll(s, "/", "-"))
	if err != nil {
		return time.Time{}, fmt.Errorf("record: not a date: %q", s)
	}
	return t, nil
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("record: not a time: %q", s)
	}
	return t, nil
}

// CompareValues applies op to two raw values of the given column type.
// char kinds compare lexicographically, int/bigint as int64, float/double
// as float64, date and time by calendar / time-of-day order.
func CompareValues(colType, op, a, b string) (bool, error) {
	if IsCharType(colType) || colType == "" {
		return compareOrdered(op, a, b)
	}
	switch colType {
	case "int", "bigint":
		av, err := strconv.ParseInt(a, 10, 64)
		if err != nil {
			return false, sqlerr.New(sqlerr.TypeMismatch, "expected %s but got %s", colType, a)
		}
		bv, err := strconv.ParseInt(b, 10, 64)
		if err != nil {
			return false, sqlerr.New(sqlerr.TypeMismatch, "expected %s but got %s", colType, b)
		}
		return compareOrdered(op, av, bv)
	case "float", "double":
		av, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return false, sqlerr.New(sqlerr.TypeMismatch, "expected %s but got %s", colType, a)
		}
		bv, err := strconv.ParseFloat(b, 64)
		if err != nil {
			return false, sqlerr.New(sqlerr.TypeMismatch, "expected %s but got %s", colType, b)
		}
		return compareOrdered(op, av, bv)
	case "date":
		av, err := parseDate(a)
		if err != nil {
			return false, sqlerr.New(sqlerr.TypeMismatch, "expected date but got %s", a)
		}
		bv, err := parseDate(b)
		if err != nil {
			return false, sqlerr.New(sqlerr.TypeMismatch, "expected date but got %s", b)
		}
		return compareTimes(op, av, bv)
	case "time":
		av, err := parseTime(a)
		if err != nil {
			return false, sqlerr.New(sqlerr.TypeMismatch, "expected time but got %s", a)
		}
		bv, err := parseTime(b)
		if err != nil {
			return false, sqlerr.New(sqlerr.TypeMismatch, "expected time but got %s", b)
		}
		return compareTimes(op, av, bv)
	}
	return false, sqlerr.New(sqlerr.TypeMismatch, "cannot compare values of type %s", colType)
}

func compareOrdered[T int64 | float64 | string](op string, a, b T) (bool, error) {
	switch op {
	case "=":
		return a == b, nil
	case "<":
		return a < b, nil
	case "<=":
		return a <= b, nil
	case ">":
		return a > b, nil
	case ">=":
		return a >= b, nil
	case "!=":
		return a != b, nil
	}
	return false, sqlerr.New(sqlerr.InvalidOperand, "invalid operator: %s", op)
}

func compareTimes(op string, a, b time.Time) (bool, error) {
	switch op {
	case "=":
		return a.Equal(b), nil
	case "<":
		return a.Before(b), nil
	case "<=":
		return !a.After(b), nil
	case ">":
		return a.After(b), nil
	case ">=":
		return !a.Before(b), nil
	case "!=":
		return !a.Equal(b), nil
	}
	return false, sqlerr.New(sqlerr.InvalidOperand, "invalid operator: %s", op)
}

// Compare orders this cell against other by the declared column type.
func (c Column) Compare(op string, other Column) (bool, error) {
	return CompareValues(c.meta.ColType, op, c.value, other.value)
}

// Less reports strict ordering, used when sorting rows.
func (c Column) Less(other Column) bool {
	ok, err := c.Compare("<", other)
	if err != nil {
		return c.value < other.value
	}
	return ok
}

// Equal reports value equality under the declared type.
func (c Column) Equal(other Column) bool {
	ok, err := c.Compare("=", other)
	if err != nil {
		return c.value == other.value
	}
	return ok
}

// MatchLike evaluates 'value LIKE pattern' where % matches any run of
// characters and _ matches exactly one.
func MatchLike(value, pattern string) (bool, error) {
	expr := strutil.EscapeRegex(pattern)
	expr = strings.ReplaceAll(expr, "%", ".*")
	expr = strings.ReplaceAll(expr, "_", ".")
	re, err := regexp.Compile("^(?:" + expr + ")$")
	if err != nil {
		return false, sqlerr.New(sqlerr.InvalidOperand, "invalid LIKE pattern: %s", pattern)
	}
	return re.MatchString(value), nil
}

// ValidateValue checks that value parses as the declared column type.
// char kinds must arrive as quoted literals.
func ValidateValue(colName, colType, value string) error {
	if value == NullValue {
		return nil
	}
	mismatch := func() error {
		return sqlerr.New(sqlerr.TypeMismatch,
			"invalid data type: expected %s for column %s", colType, colName)
	}
	switch colType {
	case "int", "bigint":
		if _, err := strconv.ParseInt(value, 10, 64); err != nil {
			return mismatch()
		}
	case "float", "double":
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return mismatch()
		}
	case "date":
		if _, err := parseDate(value); err != nil {
			return mismatch()
		}
	case "time":
		if _, err := parseTime(value); err != nil {
			return mismatch()
		}
	default:
		if IsCharType(colType) {
			if strutil.ExtractQuoted(value) == value {
				return mismatch()
			}
		}
	}
	return nil
}

// FormatValue normalises a validated value into its stored form: dates and
// times to their ISO layouts, char values unquoted, unescaped and padded to
// the declared width, varchar rejected when over the limit.
func FormatValue(colType, value string) (string, error) {
	if value == NullValue {
		return value, nil
	}
	switch colType {
	case "date":
		d, err := parseDate(value)
		if err != nil {
			return "", sqlerr.New(sqlerr.TypeMismatch, "%v", err)
		}
		return d.Format("2006-01-02"), nil
	case "time":
		t, err := parseTime(value)
		if err != nil {
			return "", sqlerr.New(sqlerr.TypeMismatch, "%v", err)
		}
		return t.Format("15:04:05"), nil
	}
	if !IsCharType(colType) {
		return value, nil
	}
	base, limit := CharTypeLimit(colType)
	unquoted, err := strutil.Unescape(strutil.ExtractQuoted(value))
	if err != nil {
		return "", err
	}
	switch {
	case base == "varchar" && len(unquoted) > limit:
		return "", sqlerr.New(sqlerr.TypeMismatch,
			"value too long for %s: %q", colType, unquoted)
	case len(unquoted) > limit:
		unquoted = unquoted[:limit]
	case base == "char" && len(unquoted) < limit:
		unquoted += strings.Repeat(" ", limit-len(unquoted))
	}
	return unquoted, nil
}
