// ABOUTME: Tests for wildcard matching
// ABOUTME: Only * and ? may act as wildcards

package filter

import "testing"

func TestWildcardMatch(t *testing.T) {
	tests := []struct {
		pattern   string
		candidate string
		want      bool
	}{
		{"cat*", "Catastrophe", true},
		{"cat*", "a cat", false},
		{"CAT_EARS", "cat_ears", true},
		{"*ears", "cat_ears", true},
		{"*_*", "blue_sky", true},
		{"c?t", "cat", true},
		{"c?t", "cart", false},
		{"c?t", "ct", false},
		{"*", "", true},
		{"*", "anything/at all", true},
		{"", "", true},
		{"", "x", false},
		{"cat", "cat_ears", false},
		{"ears", "cat_ears", false},
		{"http://*", "http://example.com/a.png", true},
		{"ünï*", "ÜNÏCODE", true},
	}

	for _, tt := range tests {
		if got := WildcardMatch(tt.pattern, tt.candidate); got != tt.want {
			t.Errorf("WildcardMatch(%q, %q) = %v, want %v", tt.pattern, tt.candidate, got, tt.want)
		}
	}
}

// Glob syntax other than * and ? is literal text
func TestWildcardMatchLiteralMetacharacters(t *testing.T) {
	literals := []string{
		"a[b]c",
		"[abc",
		"{a,b}",
		"a,b",
		`back\slash`,
		"!bang",
		"x-y",
	}

	for _, s := range literals {
		if !WildcardMatch(s, s) {
			t.Errorf("Expected %q to match itself", s)
		}
	}

	if WildcardMatch("[ab]", "a") {
		t.Error("Character classes must not be interpreted")
	}
	if WildcardMatch("{a,b}", "a") {
		t.Error("Alternations must not be interpreted")
	}
}

func TestEscapeWildcard(t *testing.T) {
	if got := escapeWildcard("plain*text?"); got != "plain*text?" {
		t.Errorf("Expected pattern untouched, got %q", got)
	}
	if got := escapeWildcard("a[b]"); got != `a\[b\]` {
		t.Errorf("Expected escaped brackets, got %q", got)
	}
}

func TestWildcardMatcherReusedAcrossCandidates(t *testing.T) {
	match := wildcardMatcher("CAT_*")
	candidates := []struct {
		text string
		want bool
	}{
		{"cat_ears", true},
		{"Cat_Tail", true},
		{"dog_ears", false},
		{"cat", false},
		{"CAT_", true},
	}

	for _, c := range candidates {
		if got := match(c.text); got != c.want {
			t.Errorf("match(%q) = %v, want %v", c.text, got, c.want)
		}
		if got := WildcardMatch("CAT_*", c.text); got != c.want {
			t.Errorf("WildcardMatch(%q) = %v, want %v", c.text, got, c.want)
		}
	}
}
