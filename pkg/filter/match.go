// ABOUTME: Filter expression evaluation, search filtering and blacklists
// ABOUTME: An empty message means the expression passed

package filter

import (
	"fmt"
	"strings"

	"github.com/nainya/postfilter/pkg/token"
)

// Match evaluates a single filter expression against tokens.
//
// A leading '-' negates the expression. "type:operand" compares the named
// token, anything else is a wildcard pattern matched against the item's
// tags. With invert false the expression fails when it does not match; with
// invert true it fails when it does. The returned message explains the
// failure and is empty when the expression passes.
func (e *Evaluator) Match(tokens token.Map, filter string, invert bool) string {
	if rest, ok := strings.CutPrefix(filter, "-"); ok {
		filter = rest
		invert = !invert
	}

	if typ, operand, ok := strings.Cut(filter, ":"); ok {
		return e.matchMeta(tokens, lower(typ), lower(operand), invert)
	}
	if filter != "" {
		return matchTags(tokens, filter, invert)
	}
	return ""
}

func (e *Evaluator) matchMeta(tokens token.Map, typ, operand string, invert bool) string {
	tok, ok := tokens.Get(typ)
	if !ok {
		return fmt.Sprintf("unknown type \"%s\" (available types: \"%s\")",
			typ, strings.Join(tokens.Names(), "\", \""))
	}

	v := e.evaluate(token.Fold(typ), tok, operand)
	if v.invalid {
		return fmt.Sprintf("invalid value \"%s\" for image's %s", v.badOperand, typ)
	}

	switch v.style {
	case styleRating:
		return polarity(v.cond, invert,
			fmt.Sprintf("image is not \"%s\"", v.subject),
			fmt.Sprintf("image is \"%s\"", v.subject))
	case styleSource:
		return polarity(v.cond, invert,
			fmt.Sprintf("image's source does not start with \"%s\"", v.subject),
			fmt.Sprintf("image's source starts with \"%s\"", v.subject))
	default:
		return polarity(v.cond, invert,
			fmt.Sprintf("image's %s does not match", typ),
			fmt.Sprintf("image's %s matches", typ))
	}
}

// matchTags checks the pattern against every tag of the item
func matchTags(tokens token.Map, filter string, invert bool) string {
	pattern := strings.TrimSpace(filter)

	match := wildcardMatcher(pattern)
	cond := false
	for _, tag := range tokens.Tags() {
		if match(tag) {
			cond = true
			break
		}
	}

	return polarity(cond, invert,
		fmt.Sprintf("image does not contain \"%s\"", filter),
		fmt.Sprintf("image contains \"%s\"", filter))
}

// polarity picks the failure message for a match result, if any
func polarity(cond, invert bool, miss, hit string) string {
	switch {
	case !cond && !invert:
		return miss
	case cond && invert:
		return hit
	default:
		return ""
	}
}

// Filter evaluates every search filter and returns the messages of those
// that did not pass, in input order. All filters are always evaluated.
func (e *Evaluator) Filter(tokens token.Map, filters []string) []string {
	var messages []string
	for _, f := range filters {
		if msg := e.Match(tokens, f, false); msg != "" {
			messages = append(messages, msg)
		}
	}
	return messages
}

// Blacklisted returns the entries that did not pass with the given default
// polarity. Callers usually pass invert=true so that a match triggers.
func (e *Evaluator) Blacklisted(tokens token.Map, entries []string, invert bool) []string {
	var detected []string
	for _, entry := range entries {
		if e.Match(tokens, entry, invert) != "" {
			detected = append(detected, entry)
		}
	}
	return detected
}
