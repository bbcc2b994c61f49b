// Package server implements the gRPC postfilter service
package server

import (
	"context"
	"sync"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/nainya/postfilter/internal/logger"
	"github.com/nainya/postfilter/pkg/filter"
	"github.com/nainya/postfilter/pkg/query"
	"github.com/nainya/postfilter/pkg/token"
)

// Version is reported by Health
const Version = "1.0.0"

// Option configures a Server
type Option func(*Server)

// WithEvaluator sets the evaluator used by Match, Filter and Blacklisted
func WithEvaluator(ev *filter.Evaluator) Option {
	return func(s *Server) {
		if ev != nil {
			s.eval = ev
		}
	}
}

// WithEngine sets the batch engine used by Query
func WithEngine(e *query.Engine) Option {
	return func(s *Server) {
		if e != nil {
			s.engine = e
		}
	}
}

// WithLogger sets the server logger
func WithLogger(l *logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithBlacklist sets entries applied to every Query in front of the
// request's own blacklist
func WithBlacklist(entries []string) Option {
	return func(s *Server) {
		s.blacklist = append([]string(nil), entries...)
	}
}

// WithInvertBlacklist sets the blacklist polarity used when a Query request
// has no invert_blacklist field
func WithInvertBlacklist(invert bool) Option {
	return func(s *Server) {
		s.invertBlacklist = invert
	}
}

// WithDefaultLimit sets the Query limit used when a request has none
func WithDefaultLimit(limit int) Option {
	return func(s *Server) {
		s.defaultLimit = limit
	}
}

// Server implements the PostFilterServer interface
type Server struct {
	eval            *filter.Evaluator
	engine          *query.Engine
	decoder         *token.Decoder
	log             *logger.Logger
	blacklist       []string
	invertBlacklist bool
	defaultLimit    int

	startTime time.Time
	mu        sync.Mutex
	opCounts  map[string]int64
}

var _ PostFilterServer = (*Server)(nil)

// NewServer creates a new gRPC server instance
func NewServer(opts ...Option) *Server {
	s := &Server{
		eval:            filter.Default(),
		decoder:         token.NewDecoder(),
		log:             logger.Nop(),
		defaultLimit:    query.DefaultLimit,
		invertBlacklist: true,
		startTime:       time.Now(),
		opCounts:        make(map[string]int64),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.engine == nil {
		s.engine = query.NewEngine(query.WithEvaluator(s.eval))
	}
	return s
}

func (s *Server) count(method string) {
	s.mu.Lock()
	s.opCounts[method]++
	s.mu.Unlock()
}

// ========== Filter Operations ==========

func (s *Server) Match(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	s.count(MethodMatch)

	tokens, err := tokensField(s.decoder, req, "tokens")
	if err != nil {
		return nil, err
	}
	f, err := stringField(req, "filter", true)
	if err != nil {
		return nil, err
	}
	invert, err := boolField(req, "invert", false)
	if err != nil {
		return nil, err
	}

	msg := s.eval.Match(tokens, f, invert)
	return newStruct(map[string]any{
		"message": msg,
		"pass":    msg == "",
	})
}

func (s *Server) Filter(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	s.count(MethodFilter)

	tokens, err := tokensField(s.decoder, req, "tokens")
	if err != nil {
		return nil, err
	}
	filters, err := stringsField(req, "filters")
	if err != nil {
		return nil, err
	}

	return newStruct(map[string]any{
		"messages": anyList(s.eval.Filter(tokens, filters)),
	})
}

func (s *Server) Blacklisted(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	s.count(MethodBlacklisted)

	tokens, err := tokensField(s.decoder, req, "tokens")
	if err != nil {
		return nil, err
	}
	entries, err := stringsField(req, "entries")
	if err != nil {
		return nil, err
	}
	invert, err := boolField(req, "invert", true)
	if err != nil {
		return nil, err
	}

	return newStruct(map[string]any{
		"detected": anyList(s.eval.Blacklisted(tokens, entries, invert)),
	})
}

// ========== Batch Query ==========

func (s *Server) Query(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	s.count(MethodQuery)

	items, err := s.itemsField(req)
	if err != nil {
		return nil, err
	}
	filters, err := stringsField(req, "filters")
	if err != nil {
		return nil, err
	}
	blacklist, err := stringsField(req, "blacklist")
	if err != nil {
		return nil, err
	}
	invert, err := boolField(req, "invert_blacklist", s.invertBlacklist)
	if err != nil {
		return nil, err
	}
	limit, err := intField(req, "limit", s.defaultLimit)
	if err != nil {
		return nil, err
	}
	offset, err := intField(req, "offset", 0)
	if err != nil {
		return nil, err
	}

	q := query.NewQueryBuilder().
		Where(filters...).
		Exclude(s.blacklist...).
		Exclude(blacklist...).
		InvertBlacklist(invert).
		Limit(limit).
		Offset(offset).
		Build()

	start := time.Now()
	result, err := s.engine.Execute(ctx, q, items)
	s.log.EngineLogger("query").LogQuery(len(items), resultTotal(result), time.Since(start), err)
	if err != nil {
		return nil, status.FromContextError(err).Err()
	}

	matches := make([]any, len(result.Matches))
	for i, out := range result.Matches {
		matches[i] = map[string]any{"id": out.ID}
	}
	rejected := make([]any, len(result.Rejected))
	for i, out := range result.Rejected {
		rejected[i] = map[string]any{
			"id":          out.ID,
			"messages":    anyList(out.Messages),
			"blacklisted": anyList(out.Blacklisted),
		}
	}

	return newStruct(map[string]any{
		"matches":  matches,
		"rejected": rejected,
		"total":    result.Total,
		"has_more": result.HasMore,
	})
}

func resultTotal(r *query.Result) int {
	if r == nil {
		return 0
	}
	return r.Total
}

func (s *Server) itemsField(req *structpb.Struct) ([]query.Item, error) {
	v, ok := req.GetFields()["items"]
	if !ok {
		return nil, nil
	}
	list := v.GetListValue()
	if list == nil {
		return nil, status.Error(codes.InvalidArgument, "items must be a list")
	}

	items := make([]query.Item, 0, len(list.GetValues()))
	for i, elem := range list.GetValues() {
		obj := elem.GetStructValue()
		if obj == nil {
			return nil, status.Errorf(codes.InvalidArgument, "items[%d] must be an object", i)
		}
		id, err := stringField(obj, "id", true)
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "items[%d]: %s", i, status.Convert(err).Message())
		}
		tokens, err := tokensField(s.decoder, obj, "tokens")
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "items[%d]: %s", i, status.Convert(err).Message())
		}
		items = append(items, query.Item{ID: id, Tokens: tokens})
	}
	return items, nil
}

// ========== Health & Status ==========

func (s *Server) Health(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	s.count(MethodHealth)

	return newStruct(map[string]any{
		"status":         "SERVING",
		"version":        Version,
		"uptime_seconds": int64(time.Since(s.startTime).Seconds()),
	})
}

func (s *Server) Stats(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	s.count(MethodStats)

	counts := s.OperationCounts()
	ops := make(map[string]any, len(counts))
	for name, n := range counts {
		ops[name] = n
	}

	return newStruct(map[string]any{
		"operation_counts": ops,
		"numeric_policy":   s.eval.Policy().String(),
		"concurrency":      s.engine.Concurrency(),
		"uptime_seconds":   int64(time.Since(s.startTime).Seconds()),
	})
}

// OperationCounts returns a snapshot of per-method call counts
func (s *Server) OperationCounts() map[string]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]int64, len(s.opCounts))
	for k, v := range s.opCounts {
		out[k] = v
	}
	return out
}
