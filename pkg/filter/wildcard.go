// ABOUTME: Case-insensitive, fully anchored shell-style wildcard matching
// ABOUTME: Only * and ? are special; everything else is literal

package filter

import (
	"strings"

	"github.com/gobwas/glob"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Characters gobwas/glob treats as syntax besides * and ?
const globMeta = `[]{},\!-`

// WildcardMatch reports whether candidate matches pattern as a whole.
// '*' matches any run of characters including none, '?' exactly one.
func WildcardMatch(pattern, candidate string) bool {
	return wildcardMatcher(pattern)(candidate)
}

// wildcardMatcher compiles pattern once for matching many candidates
func wildcardMatcher(pattern string) func(candidate string) bool {
	g, err := compileWildcard(pattern)
	if err != nil {
		// escapeWildcard leaves nothing the compiler can reject
		return func(string) bool { return false }
	}
	return func(candidate string) bool {
		return g.Match(lower(candidate))
	}
}

func compileWildcard(pattern string) (glob.Glob, error) {
	// No separators: '*' also crosses '/' and '.'
	return glob.Compile(escapeWildcard(lower(pattern)))
}

// escapeWildcard quotes every glob metacharacter except * and ?
func escapeWildcard(pattern string) string {
	if !strings.ContainsAny(pattern, globMeta) {
		return pattern
	}
	var b strings.Builder
	b.Grow(len(pattern) + 4)
	for _, r := range pattern {
		if strings.ContainsRune(globMeta, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func lower(s string) string {
	return cases.Lower(language.Und).String(s)
}
