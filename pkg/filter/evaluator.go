// ABOUTME: Evaluator configuration and numeric operand policy
// ABOUTME: Evaluators are immutable and safe for concurrent use

package filter

import (
	"fmt"
	"strings"

	"github.com/nainya/postfilter/pkg/token"
)

// NumericPolicy decides what happens to int and date operands that do not parse
type NumericPolicy int

const (
	// Lenient reads an unparseable operand as 0 (or InvalidDate)
	Lenient NumericPolicy = iota
	// Strict fails the expression whatever its polarity
	Strict
)

func (p NumericPolicy) String() string {
	switch p {
	case Lenient:
		return "lenient"
	case Strict:
		return "strict"
	default:
		return fmt.Sprintf("NumericPolicy(%d)", int(p))
	}
}

// ParseNumericPolicy parses "lenient" or "strict"
func ParseNumericPolicy(s string) (NumericPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lenient":
		return Lenient, nil
	case "strict":
		return Strict, nil
	}
	return Lenient, fmt.Errorf("unknown numeric policy %q", s)
}

// Option configures an Evaluator
type Option func(*Evaluator)

// WithNumericPolicy sets how unparseable numeric and date operands are handled
func WithNumericPolicy(p NumericPolicy) Option {
	return func(e *Evaluator) {
		e.policy = p
	}
}

// Evaluator matches filter expressions against token maps
type Evaluator struct {
	policy NumericPolicy
}

var defaultEvaluator = New()

// Default returns the shared lenient evaluator behind the package-level
// functions
func Default() *Evaluator {
	return defaultEvaluator
}

// New creates an Evaluator
func New(opts ...Option) *Evaluator {
	e := &Evaluator{policy: Lenient}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Policy returns the evaluator's numeric policy
func (e *Evaluator) Policy() NumericPolicy {
	return e.policy
}

// Match evaluates one filter with the default evaluator
func Match(tokens token.Map, filter string, invert bool) string {
	return defaultEvaluator.Match(tokens, filter, invert)
}

// Filter evaluates search filters with the default evaluator
func Filter(tokens token.Map, filters []string) []string {
	return defaultEvaluator.Filter(tokens, filters)
}

// Blacklisted evaluates blacklist entries with the default evaluator
func Blacklisted(tokens token.Map, entries []string, invert bool) []string {
	return defaultEvaluator.Blacklisted(tokens, entries, invert)
}
