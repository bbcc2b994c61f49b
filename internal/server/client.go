// ABOUTME: Typed client for the PostFilter gRPC service
// ABOUTME: Wraps ClientConnInterface.Invoke with structpb messages

package server

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ClientItem is one item sent with a Query. Token values may be ints,
// strings, RFC 3339 strings or time.Time, and []string.
type ClientItem struct {
	ID     string
	Tokens map[string]any
}

// QueryRequest is the client side form of a batch query. A nil
// InvertBlacklist or Limit leaves the server default in place.
type QueryRequest struct {
	Items           []ClientItem
	Filters         []string
	Blacklist       []string
	InvertBlacklist *bool
	Limit           *int
	Offset          int
}

// WithInvertBlacklist sets the blacklist polarity for this request
func (r QueryRequest) WithInvertBlacklist(invert bool) QueryRequest {
	r.InvertBlacklist = &invert
	return r
}

// WithLimit sets the page size for this request. Zero means unlimited.
func (r QueryRequest) WithLimit(limit int) QueryRequest {
	r.Limit = &limit
	return r
}

// Rejection describes an item that did not match
type Rejection struct {
	ID          string
	Messages    []string
	Blacklisted []string
}

// QueryResponse is the decoded Query result
type QueryResponse struct {
	Matches  []string
	Rejected []Rejection
	Total    int
	HasMore  bool
}

// HealthStatus is the decoded Health result
type HealthStatus struct {
	Status        string
	Version       string
	UptimeSeconds int64
}

// Client calls the PostFilter service
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient creates a client on an established connection
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) call(ctx context.Context, method string, fields map[string]any, opts ...grpc.CallOption) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(plainMap(fields))
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s request: %w", method, err)
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Match evaluates one filter remotely and returns the failure message
func (c *Client) Match(ctx context.Context, tokens map[string]any, filter string, invert bool, opts ...grpc.CallOption) (string, error) {
	out, err := c.call(ctx, MethodMatch, map[string]any{
		"tokens": tokens,
		"filter": filter,
		"invert": invert,
	}, opts...)
	if err != nil {
		return "", err
	}
	return out.GetFields()["message"].GetStringValue(), nil
}

// Filter evaluates search filters remotely
func (c *Client) Filter(ctx context.Context, tokens map[string]any, filters []string, opts ...grpc.CallOption) ([]string, error) {
	out, err := c.call(ctx, MethodFilter, map[string]any{
		"tokens":  tokens,
		"filters": filters,
	}, opts...)
	if err != nil {
		return nil, err
	}
	return responseStrings(out, "messages")
}

// Blacklisted returns the blacklist entries triggered by tokens
func (c *Client) Blacklisted(ctx context.Context, tokens map[string]any, entries []string, invert bool, opts ...grpc.CallOption) ([]string, error) {
	out, err := c.call(ctx, MethodBlacklisted, map[string]any{
		"tokens":  tokens,
		"entries": entries,
		"invert":  invert,
	}, opts...)
	if err != nil {
		return nil, err
	}
	return responseStrings(out, "detected")
}

// Query runs a batch query remotely
func (c *Client) Query(ctx context.Context, req QueryRequest, opts ...grpc.CallOption) (*QueryResponse, error) {
	items := make([]any, len(req.Items))
	for i, item := range req.Items {
		items[i] = map[string]any{
			"id":     item.ID,
			"tokens": item.Tokens,
		}
	}

	fields := map[string]any{
		"items":     items,
		"filters":   req.Filters,
		"blacklist": req.Blacklist,
		"offset":    req.Offset,
	}
	if req.InvertBlacklist != nil {
		fields["invert_blacklist"] = *req.InvertBlacklist
	}
	if req.Limit != nil {
		fields["limit"] = *req.Limit
	}

	out, err := c.call(ctx, MethodQuery, fields, opts...)
	if err != nil {
		return nil, err
	}

	result := out.GetFields()
	resp := &QueryResponse{
		Total:   int(result["total"].GetNumberValue()),
		HasMore: result["has_more"].GetBoolValue(),
	}
	for _, m := range result["matches"].GetListValue().GetValues() {
		resp.Matches = append(resp.Matches, m.GetStructValue().GetFields()["id"].GetStringValue())
	}
	for _, r := range result["rejected"].GetListValue().GetValues() {
		obj := r.GetStructValue()
		messages, err := responseStrings(obj, "messages")
		if err != nil {
			return nil, err
		}
		blacklisted, err := responseStrings(obj, "blacklisted")
		if err != nil {
			return nil, err
		}
		resp.Rejected = append(resp.Rejected, Rejection{
			ID:          obj.GetFields()["id"].GetStringValue(),
			Messages:    messages,
			Blacklisted: blacklisted,
		})
	}
	return resp, nil
}

// Health reports the server status
func (c *Client) Health(ctx context.Context, opts ...grpc.CallOption) (HealthStatus, error) {
	out, err := c.call(ctx, MethodHealth, nil, opts...)
	if err != nil {
		return HealthStatus{}, err
	}
	fields := out.GetFields()
	return HealthStatus{
		Status:        fields["status"].GetStringValue(),
		Version:       fields["version"].GetStringValue(),
		UptimeSeconds: int64(fields["uptime_seconds"].GetNumberValue()),
	}, nil
}

// Stats returns per-method call counts
func (c *Client) Stats(ctx context.Context, opts ...grpc.CallOption) (map[string]int64, error) {
	out, err := c.call(ctx, MethodStats, nil, opts...)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64)
	for name, v := range out.GetFields()["operation_counts"].GetStructValue().GetFields() {
		counts[name] = int64(v.GetNumberValue())
	}
	return counts, nil
}

// responseStrings reads an optional list of strings from a response
func responseStrings(s *structpb.Struct, name string) ([]string, error) {
	v, ok := s.GetFields()[name]
	if !ok {
		return nil, nil
	}
	out, err := stringList(v)
	if err != nil {
		return nil, fmt.Errorf("malformed %s in response: %w", name, err)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}
