// ABOUTME: Typed metadata values attached to a single item
// ABOUTME: Tagged union over int, date/time, string and string list

package token

import (
	"slices"
	"time"
)

// Kind identifies which value a Token carries
type Kind int

const (
	KindInt Kind = iota
	KindDateTime
	KindString
	KindStringList
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindDateTime:
		return "datetime"
	case KindString:
		return "string"
	case KindStringList:
		return "stringlist"
	default:
		return "unknown"
	}
}

// Token is one named metadata field of an item. Exactly one of the value
// fields is meaningful, selected by kind. The zero Token is Int(0).
type Token struct {
	kind Kind
	num  int
	when time.Time
	text string
	list []string
}

// Int returns an integer token
func Int(v int) Token {
	return Token{kind: KindInt, num: v}
}

// DateTime returns a date/time token
func DateTime(v time.Time) Token {
	return Token{kind: KindDateTime, when: v}
}

// String returns a string token
func String(v string) Token {
	return Token{kind: KindString, text: v}
}

// StringList returns a string list token holding a copy of v
func StringList(v ...string) Token {
	return Token{kind: KindStringList, list: slices.Clone(v)}
}

// Kind reports the kind of value held by the token
func (t Token) Kind() Kind {
	return t.kind
}

// Value returns the held value as int, time.Time, string or []string
func (t Token) Value() any {
	switch t.kind {
	case KindDateTime:
		return t.when
	case KindString:
		return t.text
	case KindStringList:
		return slices.Clone(t.list)
	default:
		return t.num
	}
}

// Visitor receives the token value through the method matching its kind.
// Implementations must handle every kind; a new kind adds a method here.
type Visitor[R any] interface {
	VisitInt(v int) R
	VisitDateTime(v time.Time) R
	VisitString(v string) R
	VisitStringList(v []string) R
}

// Visit dispatches t to the visitor method for its kind
func Visit[R any](t Token, v Visitor[R]) R {
	switch t.kind {
	case KindDateTime:
		return v.VisitDateTime(t.when)
	case KindString:
		return v.VisitString(t.text)
	case KindStringList:
		return v.VisitStringList(t.list)
	default:
		return v.VisitInt(t.num)
	}
}
