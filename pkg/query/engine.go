// ABOUTME: Batch query engine
// ABOUTME: Evaluates filters and blacklists over many items concurrently

package query

import (
	"context"
	"errors"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/nainya/postfilter/pkg/filter"
)

// ErrInvalidQuery is returned for queries with negative limit or offset
var ErrInvalidQuery = errors.New("invalid query")

// Recorder observes per-item outcomes
type Recorder interface {
	RecordItem(matched bool, blacklistHits int)
}

type nopRecorder struct{}

func (nopRecorder) RecordItem(bool, int) {}

// Option configures an Engine
type Option func(*Engine)

// WithEvaluator sets the evaluator used for every item
func WithEvaluator(ev *filter.Evaluator) Option {
	return func(e *Engine) {
		if ev != nil {
			e.eval = ev
		}
	}
}

// WithConcurrency bounds the number of items evaluated at once.
// n <= 0 uses GOMAXPROCS.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		e.concurrency = n
	}
}

// WithLogger sets the engine logger
func WithLogger(log zerolog.Logger) Option {
	return func(e *Engine) {
		e.log = log
	}
}

// WithRecorder sets the outcome recorder
func WithRecorder(r Recorder) Option {
	return func(e *Engine) {
		if r != nil {
			e.recorder = r
		}
	}
}

// Engine runs batch queries
type Engine struct {
	eval        *filter.Evaluator
	concurrency int
	log         zerolog.Logger
	recorder    Recorder
}

// NewEngine creates a new query engine
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		eval:     filter.Default(),
		log:      zerolog.Nop(),
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.concurrency <= 0 {
		e.concurrency = runtime.GOMAXPROCS(0)
	}
	return e
}

// Concurrency returns the worker limit
func (e *Engine) Concurrency() int {
	return e.concurrency
}

// Evaluate runs the query's filters and blacklist against a single item.
// Nothing is evaluated or recorded once ctx is done.
func (e *Engine) Evaluate(ctx context.Context, q Query, item Item) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}
	out := Outcome{
		ID:          item.ID,
		Messages:    e.eval.Filter(item.Tokens, q.Filters),
		Blacklisted: e.eval.Blacklisted(item.Tokens, q.Blacklist, q.InvertBlacklist),
	}
	e.recorder.RecordItem(out.Matched(), len(out.Blacklisted))
	return out, nil
}

// Execute evaluates every item and returns matches and rejections in input
// order. Matches are paginated by Limit and Offset.
func (e *Engine) Execute(ctx context.Context, q Query, items []Item) (*Result, error) {
	if q.Limit < 0 || q.Offset < 0 {
		return nil, ErrInvalidQuery
	}

	start := time.Now()
	outcomes := make([]Outcome, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i := range items {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			out, err := e.Evaluate(gctx, q, items[i])
			if err != nil {
				return err
			}
			outcomes[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &Result{
		Matches:  []Outcome{},
		Rejected: []Outcome{},
	}
	for _, out := range outcomes {
		if out.Matched() {
			result.Matches = append(result.Matches, out)
		} else {
			result.Rejected = append(result.Rejected, out)
		}
	}

	result.Total = len(result.Matches)
	result.Matches = applyPagination(result.Matches, q.Limit, q.Offset)
	result.HasMore = result.Total > (q.Offset + len(result.Matches))

	e.log.Debug().
		Int("items", len(items)).
		Int("matched", result.Total).
		Int("rejected", len(result.Rejected)).
		Dur("duration", time.Since(start)).
		Msg("Query executed")

	return result, nil
}

// applyPagination slices items by offset and limit; limit 0 keeps the rest
func applyPagination[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}

	start := offset
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}

	return items[start:end]
}
