// Package parser turns a query string into a typed Query descriptor: the
// statement kind plus a bag of string properties the executor consumes.
package parser

import (
	"strings"

	"github.com/trungle-dev/linesql/internal/sqlerr"
)

type QueryType int

const (
	Create QueryType = iota
	Drop
	Insert
	Update
	Delete
	Select
)

func (t QueryType) String() string {
	switch t {
	case Create:
		return "CREATE"
	case Drop:
		return "DROP"
	case Insert:
		return "INSERT"
	case Update:
		return "UPDATE"
	case Delete:
		return "DELETE"
	case Select:
		return "SELECT"
	default:
		return "UNKNOWN"
	}
}

// Query is a parsed statement. Properties holding lists store them
// comma-separated in parse order.
type Query struct {
	raw   string
	typ   QueryType
	props map[string]string
}

// Parse formats and parses a single statement. The statement must end in
// a semicolon with balanced parentheses and quotes.
func Parse(queryString string) (*Query, error) {
	q := &Query{
		raw:   formatQuery(queryString),
		props: map[string]string{},
	}
	if strings.Index(q.raw, ";") != len(q.raw)-1 {
		return nil, sqlerr.New(sqlerr.MalformedQuery, "missing semicolon at end")
	}
	if !isBalanced(q.raw) {
		return nil, sqlerr.New(sqlerr.MalformedQuery, "unbalanced parentheses or quotes")
	}

	lower := strings.ToLower(q.raw)
	var err error
	switch {
	case strings.HasPrefix(lower, "create"):
		q.typ = Create
		err = q.parseCreate()
	case strings.HasPrefix(lower, "drop"):
		q.typ = Drop
		err = q.parseDrop()
	case strings.HasPrefix(lower, "insert"):
		q.typ = Insert
		err = q.parseInsert()
	case strings.HasPrefix(lower, "update"):
		q.typ = Update
		err = q.parseUpdate()
	case strings.HasPrefix(lower, "delete"):
		q.typ = Delete
		err = q.parseDelete()
	case strings.HasPrefix(lower, "select"):
		q.typ = Select
		err = q.parseSelect()
	default:
		err = sqlerr.New(sqlerr.MalformedQuery, "invalid query")
	}
	if err != nil {
		return nil, err
	}
	return q, nil
}

func (q *Query) Type() QueryType { return q.typ }

// Raw returns the formatted statement text.
func (q *Query) Raw() string { return q.raw }

// Property returns the named property, or "".
func (q *Query) Property(name string) string { return q.props[name] }

func (q *Query) HasProperty(name string) bool {
	_, ok := q.props[name]
	return ok
}
