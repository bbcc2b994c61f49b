// ABOUTME: Batch query types over many items
// ABOUTME: Query, fluent builder, per-item outcomes and results

package query

import (
	"github.com/nainya/postfilter/pkg/token"
)

// DefaultLimit caps the number of matches returned when none is set
const DefaultLimit = 100

// Item is one candidate post and its tokens
type Item struct {
	ID     string
	Tokens token.Map
}

// Query selects the items that pass every filter and trigger no blacklist entry
type Query struct {
	Filters         []string
	Blacklist       []string
	InvertBlacklist bool
	Limit           int // 0 = unlimited
	Offset          int
}

// Outcome is the evaluation of one item
type Outcome struct {
	ID string
	// Messages holds one explanation per failed filter
	Messages []string
	// Blacklisted holds the blacklist entries the item triggered
	Blacklisted []string
}

// Matched reports whether the item passed every filter and no blacklist entry fired
func (o Outcome) Matched() bool {
	return len(o.Messages) == 0 && len(o.Blacklisted) == 0
}

// Result represents a batch query result
type Result struct {
	Matches  []Outcome
	Rejected []Outcome
	Total    int // matches before pagination
	HasMore  bool
}

// QueryBuilder provides fluent interface for building queries
type QueryBuilder struct {
	query Query
}

// NewQueryBuilder creates a new query builder. Blacklist entries trigger on
// match unless InvertBlacklist(false) is called.
func NewQueryBuilder() *QueryBuilder {
	return &QueryBuilder{
		query: Query{
			InvertBlacklist: true,
			Limit:           DefaultLimit,
		},
	}
}

// Where adds search filters
func (qb *QueryBuilder) Where(filters ...string) *QueryBuilder {
	qb.query.Filters = append(qb.query.Filters, filters...)
	return qb
}

// Exclude adds blacklist entries
func (qb *QueryBuilder) Exclude(entries ...string) *QueryBuilder {
	qb.query.Blacklist = append(qb.query.Blacklist, entries...)
	return qb
}

// InvertBlacklist sets the default polarity of blacklist entries
func (qb *QueryBuilder) InvertBlacklist(invert bool) *QueryBuilder {
	qb.query.InvertBlacklist = invert
	return qb
}

// Limit sets the result limit
func (qb *QueryBuilder) Limit(limit int) *QueryBuilder {
	qb.query.Limit = limit
	return qb
}

// Offset sets the result offset
func (qb *QueryBuilder) Offset(offset int) *QueryBuilder {
	qb.query.Offset = offset
	return qb
}

// Build returns the constructed query
func (qb *QueryBuilder) Build() Query {
	q := qb.query
	q.Filters = append([]string(nil), q.Filters...)
	q.Blacklist = append([]string(nil), q.Blacklist...)
	return q
}
