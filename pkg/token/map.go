// ABOUTME: Immutable, case-insensitive token mapping for one item
// ABOUTME: Names are folded once at construction

package token

import (
	"errors"
	"fmt"
	"sort"

	"golang.org/x/text/cases"
)

// AllTags is the token holding every tag of an item
const AllTags = "allos"

// ErrDuplicateName is returned when two token names fold to the same key
var ErrDuplicateName = errors.New("duplicate token name")

// Map is a read-only name to Token mapping. The zero Map is empty.
type Map struct {
	tokens map[string]Token
}

// Fold returns the canonical form of a token name
func Fold(name string) string {
	// cases.Caser is stateful, one per call
	return cases.Fold().String(name)
}

// NewMap builds a Map from entries, folding every name
func NewMap(entries map[string]Token) (Map, error) {
	tokens := make(map[string]Token, len(entries))
	origin := make(map[string]string, len(entries))
	for name, tok := range entries {
		key := Fold(name)
		if prev, ok := origin[key]; ok {
			return Map{}, fmt.Errorf("%w: %q and %q", ErrDuplicateName, prev, name)
		}
		origin[key] = name
		if tok.kind == KindStringList {
			tok = StringList(tok.list...)
		}
		tokens[key] = tok
	}
	return Map{tokens: tokens}, nil
}

// MustMap is like NewMap but panics on error
func MustMap(entries map[string]Token) Map {
	m, err := NewMap(entries)
	if err != nil {
		panic(err)
	}
	return m
}

// Get looks a token up by case-insensitive name
func (m Map) Get(name string) (Token, bool) {
	tok, ok := m.tokens[Fold(name)]
	return tok, ok
}

// Names returns the folded token names in sorted order
func (m Map) Names() []string {
	names := make([]string, 0, len(m.tokens))
	for name := range m.tokens {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of tokens
func (m Map) Len() int {
	return len(m.tokens)
}

// Tags returns the item's full tag list, or nil when there is none.
// The returned slice is shared and must not be modified.
func (m Map) Tags() []string {
	tok, ok := m.tokens[AllTags]
	if !ok || tok.kind != KindStringList {
		return nil
	}
	return tok.list
}
