// Package filter evaluates search filters and blacklist entries against the
// typed metadata of a single item.
//
// # Grammar
//
//	filter       := ["-"] (meta-filter | plain-filter)
//	meta-filter  := type ":" operand
//	plain-filter := text with '*' and '?' wildcards
//	operand      := lo ".." hi | ".." hi | lo ".." | "<=" v | ">=" v | "<" v | ">" v | v
//
// Meta types are token names looked up case-insensitively. Int tokens compare
// numerically, date tokens compare by calendar day (operands in yyyy-MM-dd or
// MM/dd/yyyy), "rating" accepts the shortcuts s, q and e, "source" is a
// prefix match and other strings must be equal. Plain filters match when any
// of the item's tags matches the pattern.
//
// # Results
//
// Match returns an empty string when the expression passes and a human
// readable explanation otherwise. Filter collects the explanations of a list
// of search filters; Blacklisted returns the entries an item triggers.
//
//	tokens := token.MustMap(map[string]token.Token{
//		"rating": token.String("safe"),
//		"allos":  token.StringList("blue_sky", "cat_ears"),
//	})
//	filter.Filter(tokens, []string{"rating:s", "cat*"})       // nil
//	filter.Blacklisted(tokens, []string{"cat_ears", "dog"}, true) // ["cat_ears"]
//
// Evaluation is pure: nothing is cached and an Evaluator may be shared by any
// number of goroutines.
package filter
