// Package sqlerr defines the tagged error kinds surfaced by the engine.
// Query failures (syntax, schema, type, constraint and reference errors)
// are a *Error; file-system I/O failures are returned as ordinary wrapped
// errors. The REPL prints the message and keeps going.
package sqlerr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	MalformedQuery Kind = iota
	UnknownColumn
	UnknownTable
	AlreadyExists
	NotFound
	TypeMismatch
	NotNullViolation
	PrimaryKeyNotUnique
	DanglingReference
	ReferencedBy
	UnsupportedJoinOperator
	NotPermittedOnJoin
	NotPermittedOnRemote
	InvalidOperand
	BadEscape
	AmbiguousColumn
)

func (k Kind) String() string {
	switch k {
	case MalformedQuery:
		return "malformed query"
	case UnknownColumn:
		return "unknown column"
	case UnknownTable:
		return "unknown table"
	case AlreadyExists:
		return "already exists"
	case NotFound:
		return "not found"
	case TypeMismatch:
		return "type mismatch"
	case NotNullViolation:
		return "not null violation"
	case PrimaryKeyNotUnique:
		return "primary key not unique"
	case DanglingReference:
		return "dangling reference"
	case ReferencedBy:
		return "referenced by"
	case UnsupportedJoinOperator:
		return "unsupported join operator"
	case NotPermittedOnJoin:
		return "not permitted on join"
	case NotPermittedOnRemote:
		return "not permitted on remote"
	case InvalidOperand:
		return "invalid operand"
	case BadEscape:
		return "bad escape"
	case AmbiguousColumn:
		return "ambiguous column"
	default:
		return "unknown error"
	}
}

// Error carries a kind plus the user-visible message.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

// New builds an error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Is reports whether err is a *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
