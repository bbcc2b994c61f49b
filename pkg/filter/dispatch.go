// ABOUTME: Type-aware comparison of a token against a meta-filter operand
// ABOUTME: One visitor method per token kind

package filter

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/nainya/postfilter/pkg/token"
)

// expandRating resolves the single-letter rating shortcuts
func expandRating(s string) string {
	switch s {
	case "s":
		return "safe"
	case "q":
		return "questionable"
	case "e":
		return "explicit"
	default:
		return s
	}
}

type messageStyle int

const (
	styleGeneric messageStyle = iota
	styleRating
	styleSource
)

// verdict is the outcome of comparing one token with one operand
type verdict struct {
	cond  bool
	style messageStyle
	// subject is the operand text quoted in rating and source messages
	subject string
	// invalid is set under Strict when an operand failed to parse
	invalid    bool
	badOperand string
}

// dispatcher compares a named token against an operand. operand is the
// lower-cased text after the ':', op its parsed form.
type dispatcher struct {
	policy  NumericPolicy
	name    string
	operand string
	op      Operator
}

var _ token.Visitor[verdict] = dispatcher{}

func (e *Evaluator) evaluate(name string, tok token.Token, operand string) verdict {
	return token.Visit[verdict](tok, dispatcher{
		policy:  e.policy,
		name:    name,
		operand: operand,
		op:      ParseOperator(operand),
	})
}

func (d dispatcher) VisitInt(v int) verdict {
	return d.numeric(v, func(text string) (int, bool) {
		n, err := strconv.Atoi(strings.TrimSpace(text))
		if err != nil {
			return 0, false
		}
		return n, true
	})
}

func (d dispatcher) VisitDateTime(v time.Time) verdict {
	return d.numeric(dateKey(v), parseDate)
}

// numeric converts the operator bounds with parse and compares value
func (d dispatcher) numeric(value int, parse func(string) (int, bool)) verdict {
	bounds := d.op.bounds()
	nums := make([]int, len(bounds))
	for i, text := range bounds {
		n, ok := parse(text)
		if !ok && d.policy == Strict {
			return verdict{invalid: true, badOperand: text}
		}
		nums[i] = n
	}

	lo, hi := nums[0], nums[0]
	if len(nums) > 1 {
		hi = nums[1]
	}
	return verdict{cond: d.op.compare(value, lo, hi)}
}

func (d dispatcher) VisitString(v string) verdict {
	switch d.name {
	case "rating":
		subject := expandRating(d.operand)
		_, size := utf8.DecodeRuneInString(subject)
		first := subject[:size]
		return verdict{
			cond:    strings.HasPrefix(lower(v), first),
			style:   styleRating,
			subject: subject,
		}
	case "source":
		return verdict{
			cond:    WildcardMatch(d.operand+"*", v),
			style:   styleSource,
			subject: d.operand,
		}
	default:
		return verdict{cond: v == d.operand}
	}
}

func (d dispatcher) VisitStringList(v []string) verdict {
	match := wildcardMatcher(d.operand)
	for _, elem := range v {
		if match(elem) {
			return verdict{cond: true}
		}
	}
	return verdict{}
}
