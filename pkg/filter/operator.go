// ABOUTME: Classifies a meta-filter operand into a comparison operator
// ABOUTME: Ordered matcher table, first match wins

package filter

import "strings"

// OpKind is the comparison a filter operand asks for
type OpKind int

const (
	OpEquals OpKind = iota
	OpLE
	OpGE
	OpLT
	OpGT
	OpRange
	OpOpenLow
	OpOpenHigh
)

func (k OpKind) String() string {
	switch k {
	case OpEquals:
		return "equals"
	case OpLE:
		return "le"
	case OpGE:
		return "ge"
	case OpLT:
		return "lt"
	case OpGT:
		return "gt"
	case OpRange:
		return "range"
	case OpOpenLow:
		return "open-low"
	case OpOpenHigh:
		return "open-high"
	default:
		return "unknown"
	}
}

// Operator is a parsed operand. Single-bound operators keep their bound in
// Lo, except OpLE and OpOpenLow which bound from above and use Hi.
type Operator struct {
	Kind OpKind
	Lo   string
	Hi   string
}

func (o Operator) String() string {
	switch o.Kind {
	case OpLE:
		return "<=" + o.Hi
	case OpOpenLow:
		return ".." + o.Hi
	case OpGE:
		return ">=" + o.Lo
	case OpOpenHigh:
		return o.Lo + ".."
	case OpLT:
		return "<" + o.Lo
	case OpGT:
		return ">" + o.Lo
	case OpRange:
		return o.Lo + ".." + o.Hi
	default:
		return o.Lo
	}
}

// operatorRule recognises one operand shape
type operatorRule struct {
	name  string
	parse func(operand string) (Operator, bool)
}

// operatorRules is evaluated top to bottom. The order matters: "..5" must
// hit the leading ".." rule before the infix range rule sees it.
var operatorRules = []operatorRule{
	{"le", func(s string) (Operator, bool) {
		if strings.HasPrefix(s, "..") || strings.HasPrefix(s, "<=") {
			return Operator{Kind: OpLE, Hi: s[2:]}, true
		}
		return Operator{}, false
	}},
	{"open-high", func(s string) (Operator, bool) {
		if rest, ok := strings.CutSuffix(s, ".."); ok {
			return Operator{Kind: OpOpenHigh, Lo: rest}, true
		}
		return Operator{}, false
	}},
	{"ge", func(s string) (Operator, bool) {
		if rest, ok := strings.CutPrefix(s, ">="); ok {
			return Operator{Kind: OpGE, Lo: rest}, true
		}
		return Operator{}, false
	}},
	{"lt", func(s string) (Operator, bool) {
		if rest, ok := strings.CutPrefix(s, "<"); ok {
			return Operator{Kind: OpLT, Lo: rest}, true
		}
		return Operator{}, false
	}},
	{"gt", func(s string) (Operator, bool) {
		if rest, ok := strings.CutPrefix(s, ">"); ok {
			return Operator{Kind: OpGT, Lo: rest}, true
		}
		return Operator{}, false
	}},
	{"range", func(s string) (Operator, bool) {
		if lo, hi, ok := strings.Cut(s, ".."); ok {
			return Operator{Kind: OpRange, Lo: lo, Hi: hi}, true
		}
		return Operator{}, false
	}},
}

// ParseOperator classifies operand. Text matching no rule is OpEquals.
func ParseOperator(operand string) Operator {
	for _, rule := range operatorRules {
		if op, ok := rule.parse(operand); ok {
			return op
		}
	}
	return Operator{Kind: OpEquals, Lo: operand}
}

// bounds returns the operand texts the operator compares against
func (o Operator) bounds() []string {
	switch o.Kind {
	case OpLE, OpOpenLow:
		return []string{o.Hi}
	case OpRange:
		return []string{o.Lo, o.Hi}
	default:
		return []string{o.Lo}
	}
}

// compare applies the operator to an already converted value and bounds.
// lo and hi are ignored when the operator does not use them.
func (o Operator) compare(value, lo, hi int) bool {
	switch o.Kind {
	case OpLE, OpOpenLow:
		return value <= hi
	case OpGE, OpOpenHigh:
		return value >= lo
	case OpLT:
		return value < lo
	case OpGT:
		return value > lo
	case OpRange:
		return value >= lo && value <= hi
	default:
		return value == lo
	}
}
