// ABOUTME: Tests for filter expression evaluation
// ABOUTME: Covers meta filters, tag patterns, polarity and numeric policies

package filter

import (
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nainya/postfilter/pkg/token"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func sampleTokens() token.Map {
	return token.MustMap(map[string]token.Token{
		"id":     token.Int(5),
		"rating": token.String("safe"),
		"source": token.String("https://twitter.com/someone/status/1"),
		"md5":    token.String("abc123"),
		"date":   token.DateTime(day(2020, time.May, 1)),
		"allos":  token.StringList("blue_sky", "cat_ears"),
	})
}

// ========== End-to-end scenarios ==========

func TestMatchScenarios(t *testing.T) {
	tests := []struct {
		name   string
		tokens map[string]token.Token
		filter string
		want   string
	}{
		{
			name:   "rating alias",
			tokens: map[string]token.Token{"rating": token.String("safe")},
			filter: "rating:s",
			want:   "",
		},
		{
			name:   "date range",
			tokens: map[string]token.Token{"date": token.DateTime(day(2020, time.May, 1))},
			filter: "date:2020-01-01..2020-12-31",
			want:   "",
		},
		{
			name:   "date before",
			tokens: map[string]token.Token{"date": token.DateTime(day(2020, time.May, 1))},
			filter: "date:<2020-01-01",
			want:   "image's date does not match",
		},
		{
			name:   "plain wildcard",
			tokens: map[string]token.Token{"allos": token.StringList("blue_sky", "cat_ears")},
			filter: "cat*",
			want:   "",
		},
		{
			name:   "negated absent tag",
			tokens: map[string]token.Token{"allos": token.StringList("blue_sky")},
			filter: "-cat*",
			want:   "",
		},
		{
			name:   "unknown type",
			tokens: map[string]token.Token{"allos": token.StringList("blue_sky"), "id": token.Int(5)},
			filter: "unknown_type:5",
			want:   `unknown type "unknown_type" (available types: "allos", "id")`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Match(token.MustMap(tt.tokens), tt.filter, false)
			if got != tt.want {
				t.Errorf("Match(%q) = %q, want %q", tt.filter, got, tt.want)
			}
		})
	}
}

func TestMatchUnknownTypeIgnoresPolarity(t *testing.T) {
	tokens := sampleTokens()
	for _, f := range []string{"nope:1", "-nope:1"} {
		for _, invert := range []bool{false, true} {
			msg := Match(tokens, f, invert)
			if !strings.HasPrefix(msg, `unknown type "nope"`) {
				t.Errorf("Match(%q, %v) = %q, want unknown type message", f, invert, msg)
			}
			for _, name := range tokens.Names() {
				if !strings.Contains(msg, `"`+name+`"`) {
					t.Errorf("Expected %q to list type %q", msg, name)
				}
			}
		}
	}
}

// ========== Integer tokens ==========

func TestMatchInt(t *testing.T) {
	tokens := sampleTokens()
	pass := []string{"id:5", "id:..5", "id:<=5", "id:5..", "id:>=5", "id:<6", "id:>4", "id:1..5", "id:5..9", "ID:5", "id: 5 "}
	fail := []string{"id:4", "id:..4", "id:6..", "id:>=6", "id:<5", "id:>5", "id:6..9"}

	for _, f := range pass {
		if msg := Match(tokens, f, false); msg != "" {
			t.Errorf("Expected %q to pass, got %q", f, msg)
		}
	}
	for _, f := range fail {
		if msg := Match(tokens, f, false); msg != "image's id does not match" {
			t.Errorf("Expected %q to fail, got %q", f, msg)
		}
	}
}

func TestMatchIntInverted(t *testing.T) {
	tokens := sampleTokens()
	if msg := Match(tokens, "id:5", true); msg != "image's id matches" {
		t.Errorf("Expected match message, got %q", msg)
	}
	if msg := Match(tokens, "id:4", true); msg != "" {
		t.Errorf("Expected pass, got %q", msg)
	}
}

// ========== Date tokens ==========

func TestMatchDate(t *testing.T) {
	tokens := sampleTokens()
	pass := []string{
		"date:2020-05-01",
		"date:05/01/2020",
		"date:..2020-05-01",
		"date:<=2020-06-01",
		"date:2020-05-01..",
		"date:>=01/01/2020",
		"date:>2020-04-30",
		"date:<2020-05-02",
		"date:01/01/2020..12/31/2020",
	}
	fail := []string{
		"date:2020-05-02",
		"date:2020-06-01..",
		"date:<2020-05-01",
		"date:>2020-05-01",
		"date:2021-01-01..2021-12-31",
	}

	for _, f := range pass {
		if msg := Match(tokens, f, false); msg != "" {
			t.Errorf("Expected %q to pass, got %q", f, msg)
		}
	}
	for _, f := range fail {
		if msg := Match(tokens, f, false); msg != "image's date does not match" {
			t.Errorf("Expected %q to fail, got %q", f, msg)
		}
	}
}

// ========== String tokens ==========

func TestMatchRating(t *testing.T) {
	tokens := sampleTokens()
	tests := []struct {
		filter string
		invert bool
		want   string
	}{
		{"rating:s", false, ""},
		{"rating:safe", false, ""},
		{"rating:SAFE", false, ""},
		{"rating:sketchy", false, ""},
		{"rating:", false, ""},
		{"rating:q", false, `image is not "questionable"`},
		{"rating:e", false, `image is not "explicit"`},
		{"rating:explicit", false, `image is not "explicit"`},
		{"-rating:e", false, ""},
		{"-rating:s", false, `image is "safe"`},
		{"rating:s", true, `image is "safe"`},
		{"rating:q", true, ""},
	}

	for _, tt := range tests {
		if got := Match(tokens, tt.filter, tt.invert); got != tt.want {
			t.Errorf("Match(%q, %v) = %q, want %q", tt.filter, tt.invert, got, tt.want)
		}
	}
}

func TestExpandRating(t *testing.T) {
	tests := map[string]string{
		"s":       "safe",
		"q":       "questionable",
		"e":       "explicit",
		"safe":    "safe",
		"x":       "x",
		"":        "",
		"sketchy": "sketchy",
	}
	for in, want := range tests {
		if got := expandRating(in); got != want {
			t.Errorf("expandRating(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDefaultEvaluatorIsShared(t *testing.T) {
	if Default() != Default() {
		t.Error("Expected Default to return the same evaluator")
	}
	if Default().Policy() != Lenient {
		t.Errorf("Expected lenient default, got %v", Default().Policy())
	}
}

func TestMatchSource(t *testing.T) {
	tokens := sampleTokens()
	tests := []struct {
		filter string
		want   string
	}{
		{"source:https://twitter.com", ""},
		{"source:HTTPS://TWITTER", ""},
		{"source:https://*/someone", ""},
		{"source:", ""},
		{"source:pixiv", `image's source does not start with "pixiv"`},
		{"-source:https://twitter", `image's source starts with "https://twitter"`},
	}

	for _, tt := range tests {
		if got := Match(tokens, tt.filter, false); got != tt.want {
			t.Errorf("Match(%q) = %q, want %q", tt.filter, got, tt.want)
		}
	}
}

func TestMatchPlainString(t *testing.T) {
	tokens := sampleTokens()
	if msg := Match(tokens, "md5:ABC123", false); msg != "" {
		t.Errorf("Expected operand to be lower-cased before comparison, got %q", msg)
	}
	if msg := Match(tokens, "md5:abc*", false); msg != "image's md5 does not match" {
		t.Errorf("Expected no wildcard support for plain strings, got %q", msg)
	}

	upper := token.MustMap(map[string]token.Token{"md5": token.String("ABC123")})
	if msg := Match(upper, "md5:ABC123", false); msg != "image's md5 does not match" {
		t.Errorf("Expected stored value to be compared as is, got %q", msg)
	}
}

func TestMatchTagListMeta(t *testing.T) {
	tokens := sampleTokens()
	if msg := Match(tokens, "allos:cat*", false); msg != "" {
		t.Errorf("Expected pass, got %q", msg)
	}
	if msg := Match(tokens, "allos:dog", false); msg != "image's allos does not match" {
		t.Errorf("Expected mismatch, got %q", msg)
	}
}

func TestMatchOperandKeepsLaterColons(t *testing.T) {
	tokens := token.MustMap(map[string]token.Token{"title": token.String("a:b")})
	if msg := Match(tokens, "title:a:b", false); msg != "" {
		t.Errorf("Expected operand after first ':' to be kept whole, got %q", msg)
	}
}

// ========== Plain tag filters ==========

func TestMatchTags(t *testing.T) {
	tokens := sampleTokens()
	tests := []struct {
		filter string
		invert bool
		want   string
	}{
		{"cat*", false, ""},
		{"CAT_EARS", false, ""},
		{" cat_ears ", false, ""},
		{"blue_sk?", false, ""},
		{"cat", false, `image does not contain "cat"`},
		{" dog ", false, `image does not contain " dog "`},
		{"-cat*", false, `image contains "cat*"`},
		{"-dog", false, ""},
		{"cat_ears", true, `image contains "cat_ears"`},
		{"dog", true, ""},
	}

	for _, tt := range tests {
		if got := Match(tokens, tt.filter, tt.invert); got != tt.want {
			t.Errorf("Match(%q, %v) = %q, want %q", tt.filter, tt.invert, got, tt.want)
		}
	}
}

func TestMatchTagsWithoutTagList(t *testing.T) {
	tokens := token.MustMap(map[string]token.Token{"id": token.Int(1)})
	if msg := Match(tokens, "cat", false); msg != `image does not contain "cat"` {
		t.Errorf("Expected missing tag list to behave as empty, got %q", msg)
	}
	if msg := Match(tokens, "-cat", false); msg != "" {
		t.Errorf("Expected pass, got %q", msg)
	}
}

func TestMatchEmpty(t *testing.T) {
	tokens := sampleTokens()
	for _, f := range []string{"", "-"} {
		for _, invert := range []bool{false, true} {
			if msg := Match(tokens, f, invert); msg != "" {
				t.Errorf("Match(%q, %v) = %q, want pass", f, invert, msg)
			}
		}
	}
}

// ========== Polarity ==========

func TestNegationFlipsPolarity(t *testing.T) {
	tokens := sampleTokens()
	filters := []string{
		"id:5", "id:6", "date:<2020-01-01", "rating:q", "rating:s",
		"source:pixiv", "md5:abc123", "cat*", "dog", "allos:blue*",
	}

	for _, f := range filters {
		for _, invert := range []bool{false, true} {
			negated := Match(tokens, "-"+f, invert)
			flipped := Match(tokens, f, !invert)
			if negated != flipped {
				t.Errorf("Match(-%s, %v) = %q but Match(%s, %v) = %q", f, invert, negated, f, !invert, flipped)
			}
		}
	}
}

// ========== Numeric policy ==========

func TestLenientPolicyReadsGarbageAsZero(t *testing.T) {
	zero := token.MustMap(map[string]token.Token{
		"id":   token.Int(0),
		"date": token.DateTime(time.Time{}),
	})
	if msg := Match(zero, "id:abc", false); msg != "" {
		t.Errorf("Expected unparseable operand to equal 0, got %q", msg)
	}
	if msg := Match(zero, "date:someday", false); msg != "" {
		t.Errorf("Expected unparseable date to equal InvalidDate, got %q", msg)
	}

	tokens := sampleTokens()
	if msg := Match(tokens, "date:>garbage", false); msg != "" {
		t.Errorf("Expected every valid date to be after an invalid one, got %q", msg)
	}
	if msg := Match(tokens, "id:abc", false); msg != "image's id does not match" {
		t.Errorf("Expected mismatch against 0, got %q", msg)
	}
}

func TestStrictPolicyRejectsGarbage(t *testing.T) {
	strict := New(WithNumericPolicy(Strict))
	tokens := sampleTokens()

	tests := []struct {
		filter string
		want   string
	}{
		{"id:abc", `invalid value "abc" for image's id`},
		{"-id:abc", `invalid value "abc" for image's id`},
		{"id:1..x", `invalid value "x" for image's id`},
		{"id:<", `invalid value "" for image's id`},
		{"date:>garbage", `invalid value "garbage" for image's date`},
		{"date:2020-01-01..2020-13-01", `invalid value "2020-13-01" for image's date`},
	}

	for _, tt := range tests {
		for _, invert := range []bool{false, true} {
			if got := strict.Match(tokens, tt.filter, invert); got != tt.want {
				t.Errorf("Match(%q, %v) = %q, want %q", tt.filter, invert, got, tt.want)
			}
		}
	}

	if msg := strict.Match(tokens, "id:1..5", false); msg != "" {
		t.Errorf("Expected valid operands to evaluate normally, got %q", msg)
	}
	if msg := strict.Match(tokens, "rating:sfw", false); msg != "" {
		t.Errorf("Expected strings to be unaffected by the policy, got %q", msg)
	}
}

func TestParseNumericPolicy(t *testing.T) {
	for text, want := range map[string]NumericPolicy{"": Lenient, "lenient": Lenient, " Strict ": Strict} {
		got, err := ParseNumericPolicy(text)
		if err != nil || got != want {
			t.Errorf("ParseNumericPolicy(%q) = %v, %v, want %v", text, got, err, want)
		}
	}
	if _, err := ParseNumericPolicy("loose"); err == nil {
		t.Error("Expected error for unknown policy")
	}
	if Strict.String() != "strict" || Lenient.String() != "lenient" {
		t.Error("Unexpected policy names")
	}
}

// ========== Filter and Blacklisted ==========

func TestFilterCollectsInOrder(t *testing.T) {
	tokens := token.MustMap(map[string]token.Token{
		"rating": token.String("safe"),
		"allos":  token.StringList("a"),
	})
	filters := []string{"rating:s", "b", "id:5", "a", "-a"}

	got := Filter(tokens, filters)
	want := []string{
		`image does not contain "b"`,
		`unknown type "id" (available types: "allos", "rating")`,
		`image contains "a"`,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Filter() = %q, want %q", got, want)
	}
	if len(got) > len(filters) {
		t.Error("Filter must return at most one message per filter")
	}
}

func TestFilterAllPass(t *testing.T) {
	if got := Filter(sampleTokens(), []string{"id:5", "cat*", "rating:s"}); got != nil {
		t.Errorf("Expected nil, got %q", got)
	}
	if got := Filter(sampleTokens(), nil); got != nil {
		t.Errorf("Expected nil for no filters, got %q", got)
	}
}

func TestBlacklisted(t *testing.T) {
	tokens := token.MustMap(map[string]token.Token{
		"rating": token.String("safe"),
		"allos":  token.StringList("a"),
	})
	entries := []string{"a", "b", "-a", "rating:s", "bogus:1"}

	got := Blacklisted(tokens, entries, true)
	want := []string{"a", "rating:s", "bogus:1"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Blacklisted(invert) = %q, want %q", got, want)
	}

	got = Blacklisted(tokens, entries, false)
	want = []string{"b", "-a", "bogus:1"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Blacklisted() = %q, want %q", got, want)
	}
}

func TestBlacklistedIsSubsetOfMatch(t *testing.T) {
	tokens := sampleTokens()
	entries := []string{"cat*", "dog", "-blue_sky", "id:..3", "rating:e", "source:https"}

	for _, invert := range []bool{false, true} {
		detected := Blacklisted(tokens, entries, invert)
		i := 0
		for _, entry := range entries {
			failing := Match(tokens, entry, invert) != ""
			if failing {
				if i >= len(detected) || detected[i] != entry {
					t.Fatalf("Expected %q in %q at %d", entry, detected, i)
				}
				i++
			}
		}
		if i != len(detected) {
			t.Errorf("Unexpected extra entries in %q", detected)
		}
	}
}

// ========== Concurrency ==========

func TestConcurrentEvaluation(t *testing.T) {
	tokens := sampleTokens()
	filters := []string{"id:5", "dog", "date:<2020-01-01", "cat*", "rating:q"}
	want := Filter(tokens, filters)

	var wg sync.WaitGroup
	errs := make(chan string, 64)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got := Filter(tokens, filters); !reflect.DeepEqual(got, want) {
				errs <- strings.Join(got, "; ")
			}
		}()
	}
	wg.Wait()
	close(errs)

	for e := range errs {
		t.Errorf("Concurrent Filter returned %q", e)
	}
}
