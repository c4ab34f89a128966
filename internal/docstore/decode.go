package docstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"
)

var ErrMalformed = errors.New("malformed document")

type DecodeError struct {
	Field  string
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("malformed document: field %q: %s", e.Field, e.Reason)
}

func (e *DecodeError) Is(target error) bool { return target == ErrMalformed }

type decodeState struct {
	err error
}

// Decoder reads typed values out of a Document. Values are coerced when the
// representation is unambiguous (numbers from any numeric type, times from
// RFC 3339 strings); anything else fails. The first failure sticks and is
// reported by Err, so callers can decode a whole record and check once.
type Decoder struct {
	doc   Document
	path  string
	state *decodeState
}

func NewDecoder(doc Document) *Decoder {
	return &Decoder{doc: doc, state: &decodeState{}}
}

func (d *Decoder) Err() error { return d.state.err }

func (d *Decoder) fieldPath(key string) string {
	if d.path == "" {
		return key
	}
	return d.path + "." + key
}

func (d *Decoder) fail(key, format string, args ...any) {
	if d.state.err != nil {
		return
	}
	d.state.err = &DecodeError{Field: d.fieldPath(key), Reason: fmt.Sprintf(format, args...)}
}

func (d *Decoder) lookup(key string) (any, bool) {
	v, ok := d.doc[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

func (d *Decoder) Has(key string) bool {
	_, ok := d.lookup(key)
	return ok
}

// String returns "" for a missing field.
func (d *Decoder) String(key string) string {
	v, ok := d.lookup(key)
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		d.fail(key, "expected string, got %T", v)
		return ""
	}
	return s
}

func (d *Decoder) RequiredString(key string) string {
	s := d.String(key)
	if s == "" && d.state.err == nil {
		d.fail(key, "required")
	}
	return s
}

func (d *Decoder) Bool(key string) bool {
	v, ok := d.lookup(key)
	if !ok {
		return false
	}
	b, ok := v.(bool)
	if !ok {
		d.fail(key, "expected bool, got %T", v)
		return false
	}
	return b
}

func (d *Decoder) Float(key string) float64 {
	v, ok := d.lookup(key)
	if !ok {
		return 0
	}
	f, err := toFloat(v)
	if err != nil {
		d.fail(key, "%v", err)
		return 0
	}
	return f
}

func (d *Decoder) OptionalFloat(key string) *float64 {
	if !d.Has(key) {
		return nil
	}
	f := d.Float(key)
	return &f
}

func (d *Decoder) Int(key string) int64 {
	v, ok := d.lookup(key)
	if !ok {
		return 0
	}
	n, err := toInt(v)
	if err != nil {
		d.fail(key, "%v", err)
		return 0
	}
	return n
}

// Time fails when the field is missing.
func (d *Decoder) Time(key string) time.Time {
	v, ok := d.lookup(key)
	if !ok {
		d.fail(key, "required timestamp missing")
		return time.Time{}
	}
	t, err := toTime(v)
	if err != nil {
		d.fail(key, "%v", err)
		return time.Time{}
	}
	return t
}

func (d *Decoder) OptionalTime(key string) *time.Time {
	if !d.Has(key) {
		return nil
	}
	t := d.Time(key)
	return &t
}

func (d *Decoder) Strings(key string) []string {
	v, ok := d.lookup(key)
	if !ok {
		return []string{}
	}
	switch list := v.(type) {
	case []string:
		return append([]string{}, list...)
	case []any:
		out := make([]string, 0, len(list))
		for i, item := range list {
			s, ok := item.(string)
			if !ok {
				d.fail(fmt.Sprintf("%s[%d]", key, i), "expected string, got %T", item)
				return []string{}
			}
			out = append(out, s)
		}
		return out
	}
	d.fail(key, "expected array, got %T", v)
	return []string{}
}

// Object decodes a nested document. A missing field yields an empty decoder.
func (d *Decoder) Object(key string) *Decoder {
	child := &Decoder{doc: Document{}, path: d.fieldPath(key), state: d.state}
	v, ok := d.lookup(key)
	if !ok {
		return child
	}
	m, ok := asDocument(v)
	if !ok {
		d.fail(key, "expected object, got %T", v)
		return child
	}
	child.doc = m
	return child
}

func (d *Decoder) Objects(key string) []*Decoder {
	v, ok := d.lookup(key)
	if !ok {
		return nil
	}
	list, ok := v.([]any)
	if !ok {
		d.fail(key, "expected array, got %T", v)
		return nil
	}
	out := make([]*Decoder, 0, len(list))
	for i, item := range list {
		name := fmt.Sprintf("%s[%d]", key, i)
		m, ok := asDocument(item)
		if !ok {
			d.fail(name, "expected object, got %T", item)
			return nil
		}
		out = append(out, &Decoder{doc: m, path: d.fieldPath(name), state: d.state})
	}
	return out
}

// Extra returns the fields not listed in known, excluding the id.
func (d *Decoder) Extra(known ...string) map[string]any {
	skip := map[string]bool{IDField: true}
	for _, k := range known {
		skip[k] = true
	}
	var out map[string]any
	for k, v := range d.doc {
		if skip[k] {
			continue
		}
		if out == nil {
			out = map[string]any{}
		}
		out[k] = v
	}
	return out
}

func asDocument(v any) (Document, bool) {
	switch m := v.(type) {
	case Document:
		return m, true
	case map[string]any:
		return Document(m), true
	}
	return nil, false
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	}
	return 0, fmt.Errorf("expected number, got %T", v)
}

func toInt(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
		f, err := n.Float64()
		if err != nil {
			return 0, err
		}
		return floatToInt(f)
	case float64:
		return floatToInt(n)
	case float32:
		return floatToInt(float64(n))
	}
	return 0, fmt.Errorf("expected integer, got %T", v)
}

func floatToInt(f float64) (int64, error) {
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, fmt.Errorf("expected integer, got %v", f)
	}
	return int64(f), nil
}

func toTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), nil
	case *time.Time:
		if t == nil {
			return time.Time{}, errors.New("nil timestamp")
		}
		return t.UTC(), nil
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid timestamp %q", t)
		}
		return parsed.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("expected timestamp, got %T", v)
}
