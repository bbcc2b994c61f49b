// ABOUTME: Builds token maps from loosely typed values (JSON, structpb)
// ABOUTME: Kind hints coerce known names, the rest is inferred

package token

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrUnsupportedValue is returned for values no token kind can hold
var ErrUnsupportedValue = errors.New("unsupported token value")

// DefaultKinds holds kind hints for the usual booru item fields
var DefaultKinds = map[string]Kind{
	"id":       KindInt,
	"score":    KindInt,
	"width":    KindInt,
	"height":   KindInt,
	"filesize": KindInt,
	"date":     KindDateTime,
	"rating":   KindString,
	"source":   KindString,
	"md5":      KindString,
	"website":  KindString,
	"allos":    KindStringList,
	"tags":     KindStringList,
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
}

// Decoder converts generic values into tokens
type Decoder struct {
	// Kinds maps token names to the kind their value is coerced to.
	// Names missing from Kinds get an inferred kind.
	Kinds map[string]Kind
}

// NewDecoder returns a decoder using DefaultKinds
func NewDecoder() *Decoder {
	return &Decoder{Kinds: DefaultKinds}
}

// DecodeJSON decodes a JSON object into a Map using DefaultKinds
func DecodeJSON(data []byte) (Map, error) {
	return NewDecoder().DecodeJSON(data)
}

// DecodeJSON decodes a JSON object into a Map
func (d *Decoder) DecodeJSON(data []byte) (Map, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var values map[string]any
	if err := dec.Decode(&values); err != nil {
		return Map{}, fmt.Errorf("failed to decode tokens: %w", err)
	}
	return d.Decode(values)
}

// Decode converts values into a Map
func (d *Decoder) Decode(values map[string]any) (Map, error) {
	hints := make(map[string]Kind, len(d.Kinds))
	for name, kind := range d.Kinds {
		hints[Fold(name)] = kind
	}

	entries := make(map[string]Token, len(values))
	for name, raw := range values {
		var (
			tok Token
			err error
		)
		if kind, ok := hints[Fold(name)]; ok {
			tok, err = coerce(kind, raw)
		} else {
			tok, err = infer(raw)
		}
		if err != nil {
			return Map{}, fmt.Errorf("token %q: %w", name, err)
		}
		entries[name] = tok
	}
	return NewMap(entries)
}

func coerce(kind Kind, raw any) (Token, error) {
	switch kind {
	case KindInt:
		n, err := toInt(raw)
		if err != nil {
			return Token{}, err
		}
		return Int(n), nil
	case KindDateTime:
		t, err := toTime(raw)
		if err != nil {
			return Token{}, err
		}
		return DateTime(t), nil
	case KindString:
		s, err := toString(raw)
		if err != nil {
			return Token{}, err
		}
		return String(s), nil
	case KindStringList:
		l, err := toList(raw)
		if err != nil {
			return Token{}, err
		}
		return StringList(l...), nil
	}
	return Token{}, fmt.Errorf("%w: unknown kind %d", ErrUnsupportedValue, kind)
}

func infer(raw any) (Token, error) {
	switch v := raw.(type) {
	case string:
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return DateTime(t), nil
		}
		return String(v), nil
	case time.Time:
		return DateTime(v), nil
	case []string, []any:
		return coerce(KindStringList, v)
	case json.Number, float64, float32, int, int32, int64:
		return coerce(KindInt, v)
	}
	return Token{}, fmt.Errorf("%w: %T", ErrUnsupportedValue, raw)
}

func toInt(raw any) (int, error) {
	switch v := raw.(type) {
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case float32:
		return floatToInt(float64(v))
	case float64:
		return floatToInt(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n), nil
		}
		f, err := v.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrUnsupportedValue, v)
		}
		return floatToInt(f)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not an integer", ErrUnsupportedValue, v)
		}
		return n, nil
	}
	return 0, fmt.Errorf("%w: %T is not an integer", ErrUnsupportedValue, raw)
}

func floatToInt(f float64) (int, error) {
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, fmt.Errorf("%w: %v is not an integer", ErrUnsupportedValue, f)
	}
	return int(f), nil
}

func toTime(raw any) (time.Time, error) {
	switch v := raw.(type) {
	case time.Time:
		return v, nil
	case string:
		s := strings.TrimSpace(v)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("%w: %q is not a date", ErrUnsupportedValue, v)
	}
	return time.Time{}, fmt.Errorf("%w: %T is not a date", ErrUnsupportedValue, raw)
}

func toString(raw any) (string, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	}
	return "", fmt.Errorf("%w: %T is not a string", ErrUnsupportedValue, raw)
}

// toList accepts string arrays and space separated tag strings
func toList(raw any) ([]string, error) {
	switch v := raw.(type) {
	case []string:
		return v, nil
	case string:
		return strings.Fields(v), nil
	case []any:
		out := make([]string, 0, len(v))
		for i, elem := range v {
			s, ok := elem.(string)
			if !ok {
				return nil, fmt.Errorf("%w: element %d is %T", ErrUnsupportedValue, i, elem)
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: %T is not a list", ErrUnsupportedValue, raw)
}
