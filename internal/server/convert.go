// ABOUTME: Conversions between structpb messages and postfilter types
// ABOUTME: Field accessors report ill-typed arguments as InvalidArgument

package server

import (
	"errors"
	"fmt"
	"math"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/nainya/postfilter/pkg/token"
)

// tokensField decodes the named struct field into a token map
func tokensField(d *token.Decoder, req *structpb.Struct, name string) (token.Map, error) {
	v, ok := req.GetFields()[name]
	if !ok {
		return token.Map{}, status.Errorf(codes.InvalidArgument, "%s is required", name)
	}
	s := v.GetStructValue()
	if s == nil {
		return token.Map{}, status.Errorf(codes.InvalidArgument, "%s must be an object", name)
	}
	tokens, err := d.Decode(s.AsMap())
	if err != nil {
		return token.Map{}, status.Errorf(codes.InvalidArgument, "invalid %s: %v", name, err)
	}
	return tokens, nil
}

func stringField(req *structpb.Struct, name string, required bool) (string, error) {
	v, ok := req.GetFields()[name]
	if !ok {
		if required {
			return "", status.Errorf(codes.InvalidArgument, "%s is required", name)
		}
		return "", nil
	}
	s, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", status.Errorf(codes.InvalidArgument, "%s must be a string", name)
	}
	return s.StringValue, nil
}

// boolField returns def when the field is absent
func boolField(req *structpb.Struct, name string, def bool) (bool, error) {
	v, ok := req.GetFields()[name]
	if !ok {
		return def, nil
	}
	b, ok := v.GetKind().(*structpb.Value_BoolValue)
	if !ok {
		return false, status.Errorf(codes.InvalidArgument, "%s must be a bool", name)
	}
	return b.BoolValue, nil
}

// intField returns def when the field is absent. Values must be
// non-negative integers.
func intField(req *structpb.Struct, name string, def int) (int, error) {
	v, ok := req.GetFields()[name]
	if !ok {
		return def, nil
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok || n.NumberValue < 0 || n.NumberValue != math.Trunc(n.NumberValue) || n.NumberValue > math.MaxInt32 {
		return 0, status.Errorf(codes.InvalidArgument, "%s must be a non-negative integer", name)
	}
	return int(n.NumberValue), nil
}

func stringsField(req *structpb.Struct, name string) ([]string, error) {
	v, ok := req.GetFields()[name]
	if !ok {
		return nil, nil
	}
	out, err := stringList(v)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "%s: %v", name, err)
	}
	return out, nil
}

func stringList(v *structpb.Value) ([]string, error) {
	list := v.GetListValue()
	if list == nil {
		return nil, errors.New("must be a list of strings")
	}
	out := make([]string, 0, len(list.GetValues()))
	for i, elem := range list.GetValues() {
		s, ok := elem.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return nil, fmt.Errorf("element %d must be a string", i)
		}
		out = append(out, s.StringValue)
	}
	return out, nil
}

// anyList converts a string slice into the []any structpb accepts
func anyList(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

// plainValue converts Go values that structpb.NewValue rejects
func plainValue(v any) any {
	switch x := v.(type) {
	case []string:
		return anyList(x)
	case time.Time:
		return x.Format(time.RFC3339)
	case map[string]any:
		return plainMap(x)
	case []any:
		out := make([]any, len(x))
		for i, elem := range x {
			out[i] = plainValue(elem)
		}
		return out
	default:
		return v
	}
}

func plainMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = plainValue(v)
	}
	return out
}

// newStruct builds a response, mapping conversion failures to Internal
func newStruct(fields map[string]any) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to build response: %v", err)
	}
	return s, nil
}
