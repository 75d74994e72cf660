// Package restriction evaluates WHERE clauses against rows. A clause is
// normalised once into a postfix token sequence and then applied per row
// with typed comparisons.
package restriction

import (
	"strconv"
	"strings"

	"github.com/trungle-dev/linesql/internal/record"
	"github.com/trungle-dev/linesql/internal/sqlerr"
	"github.com/trungle-dev/linesql/internal/strutil"
)

// Restriction holds a WHERE clause in postfix form. The zero value (empty
// clause) matches every row.
type Restriction struct {
	postfix string
}

// New normalises the clause into postfix form. Operators AND, OR and the
// opening parenthesis go onto a stack; a closing parenthesis pops back to
// the opener; operand tokens stream straight to the output; the stack is
// flushed at the end. Every operand triple therefore appears before the
// operator that combines it.
func New(clause string) *Restriction {
	r := &Restriction{}
	if clause == "" {
		return r
	}
	var stack []string
	var out []string
	for _, part := range strutil.Split(clause, ' ', true) {
		lower := strings.ToLower(part)
		if lower == "and" || lower == "or" || part == "(" {
			stack = append(stack, lower)
		} else if part == ")" {
			for len(stack) > 0 && stack[len(stack)-1] != "(" {
				out = append(out, stack[len(stack)-1])
				stack = stack[:len(stack)-1]
			}
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		} else {
			out = append(out, part)
		}
	}
	for len(stack) > 0 {
		out = append(out, stack[len(stack)-1])
		stack = stack[:len(stack)-1]
	}
	r.postfix = strings.Join(out, " ")
	return r
}

func (r *Restriction) IsEmpty() bool { return r.postfix == "" }

// Postfix exposes the normalised token sequence.
func (r *Restriction) Postfix() string { return r.postfix }

// Apply tests the row against the clause. Tokens are walked left to
// right: an operand token consumes the following operator and operand to
// produce a boolean, AND/OR pop two booleans and push the combination.
func (r *Restriction) Apply(row *record.Row) (bool, error) {
	if r.postfix == "" {
		return true, nil
	}
	parts := strutil.Split(r.postfix, ' ', true)
	var stack []bool
	for i := 0; i < len(parts); {
		if parts[i] == "and" || parts[i] == "or" {
			if len(stack) < 2 {
				return false, sqlerr.New(sqlerr.MalformedQuery,
					"malformed restriction: %s", r.postfix)
			}
			a, b := stack[len(stack)-1], stack[len(stack)-2]
			stack = stack[:len(stack)-2]
			if parts[i] == "and" {
				stack = append(stack, a && b)
			} else {
				stack = append(stack, a || b)
			}
			i++
			continue
		}
		if i+2 >= len(parts) {
			return false, sqlerr.New(sqlerr.MalformedQuery,
				"malformed restriction: %s", r.postfix)
		}
		res, err := evaluate(parts[i], parts[i+1], parts[i+2], row)
		if err != nil {
			return false, err
		}
		stack = append(stack, res)
		i += 3
	}
	if len(stack) != 1 {
		return false, sqlerr.New(sqlerr.MalformedQuery,
			"malformed restriction: %s", r.postfix)
	}
	return stack[0], nil
}

// operand is a resolved comparison side: the raw value plus the column
// type when the token named a column.
type operand struct {
	value    string
	colType  string
	isColumn bool
}

// resolve maps a token to a value. Column names win over literals; the
// NULL keyword maps to the null sentinel; anything left must be a quoted
// string or a number.
func resolve(tok string, row *record.Row) (operand, error) {
	if strings.EqualFold(tok, "null") || tok == record.NullValue {
		return operand{value: record.NullValue}, nil
	}
	if col, err := row.Column(tok); err == nil {
		return operand{value: col.Value(), colType: col.Metadata().ColType, isColumn: true}, nil
	}
	if tok == "" {
		return operand{}, sqlerr.New(sqlerr.InvalidOperand, "invalid value/column name: %s", tok)
	}
	if tok[0] != '"' && tok[0] != '\'' {
		if _, err := strconv.ParseFloat(tok, 64); err != nil {
			return operand{}, sqlerr.New(sqlerr.InvalidOperand, "invalid value/column name: %s", tok)
		}
	}
	return operand{value: tok}, nil
}

func typesCompatible(a, b string) bool {
	if record.IsCharType(a) {
		return record.IsCharType(b)
	}
	return a == b
}

// evaluate computes 'first op second' against the row.
func evaluate(first, op, second string, row *record.Row) (bool, error) {
	lhs, err := resolve(first, row)
	if err != nil {
		return false, err
	}
	rhs, err := resolve(second, row)
	if err != nil {
		return false, err
	}

	colType := ""
	if lhs.isColumn || rhs.isColumn {
		if lhs.isColumn && rhs.isColumn && !typesCompatible(lhs.colType, rhs.colType) {
			return false, sqlerr.New(sqlerr.TypeMismatch,
				"%s and %s do not have the same types", first, second)
		}
		if lhs.isColumn {
			colType = lhs.colType
		} else {
			colType = rhs.colType
		}
	}

	// NULL only ever equals NULL.
	if lhs.value == record.NullValue || rhs.value == record.NullValue {
		return op == "=" && lhs.value == record.NullValue && rhs.value == record.NullValue, nil
	}

	switch colType {
	case "int", "bigint", "float", "double", "date", "time":
		if lhs.value != "" && rhs.value != "" {
			return record.CompareValues(colType, op, lhs.value, rhs.value)
		}
	}

	a := strutil.ExtractQuoted(lhs.value)
	b := strutil.ExtractQuoted(rhs.value)
	if strings.EqualFold(op, "like") {
		return record.MatchLike(a, b)
	}
	return record.CompareValues("char", op, a, b)
}
