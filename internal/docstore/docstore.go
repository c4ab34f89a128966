// Package docstore is the document-store boundary used by the record services.
//
// A Store groups named collections of schemaless documents. Values written
// through Create, Set or Update may include the sentinels returned by
// ServerTimestamp, Increment and ArrayAppend; every backend applies them with
// its native atomic primitive so concurrent writers never lose updates.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
)

var (
	ErrNotFound      = errors.New("document not found")
	ErrAlreadyExists = errors.New("document already exists")
	ErrInvalidField  = errors.New("invalid field")
)

// IDField is the key under which every returned document carries its id.
const IDField = "id"

// Document is an untyped store document. Decode it with a Decoder.
type Document map[string]any

type Store interface {
	Collection(name string) Collection
	// RunInTransaction runs fn with a Store whose writes commit together.
	// Operations inside fn must use the ctx passed to fn.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

type Collection interface {
	Query(ctx context.Context, q Query) ([]Document, error)
	// Get returns ErrNotFound when id does not exist.
	Get(ctx context.Context, id string) (Document, error)
	// Create returns ErrAlreadyExists when id is taken.
	Create(ctx context.Context, id string, doc Document) error
	// Set creates or fully overwrites the document.
	Set(ctx context.Context, id string, doc Document) error
	// Update merges top-level fields and returns ErrNotFound when id does not exist.
	Update(ctx context.Context, id string, fields Document) error
	// Delete returns ErrNotFound when id does not exist.
	Delete(ctx context.Context, id string) error
}

type Operator string

const (
	OpEq       Operator = "=="
	OpContains Operator = "array-contains"
)

type Filter struct {
	Field string
	Op    Operator
	Value any
}

func Eq(field string, value any) Filter {
	return Filter{Field: field, Op: OpEq, Value: value}
}

// Contains matches documents whose array field holds value.
func Contains(field string, value any) Filter {
	return Filter{Field: field, Op: OpContains, Value: value}
}

type Order struct {
	Field string
	Desc  bool
}

func Asc(field string) Order  { return Order{Field: field} }
func Desc(field string) Order { return Order{Field: field, Desc: true} }

// Query filters are ANDed. Limit <= 0 means no limit.
type Query struct {
	Filters []Filter
	OrderBy []Order
	Limit   int
}

func (q Query) validate() error {
	for _, f := range q.Filters {
		if err := validateField(f.Field); err != nil {
			return err
		}
		if f.Op != OpEq && f.Op != OpContains {
			return fmt.Errorf("%w: unsupported operator %q", ErrInvalidField, f.Op)
		}
	}
	for _, o := range q.OrderBy {
		if err := validateField(o.Field); err != nil {
			return err
		}
	}
	return nil
}

type serverTimestamp struct{}

type increment struct {
	delta int64
}

type arrayAppend struct {
	values []any
}

// ServerTimestamp resolves to the store server's clock at write time.
func ServerTimestamp() any { return serverTimestamp{} }

// Increment adds delta to a numeric field atomically. A missing field counts as 0.
func Increment(delta int64) any { return increment{delta: delta} }

// ArrayAppend appends values to an array field atomically. Values may contain
// ServerTimestamp in nested documents.
func ArrayAppend(values ...any) any { return arrayAppend{values: values} }

var fieldPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func validateField(name string) error {
	if !fieldPattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidField, name)
	}
	return nil
}

func validateID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty document id", ErrInvalidField)
	}
	return nil
}

// fieldOps is a write split by the kind of operation each field needs.
type fieldOps struct {
	set     Document
	stamps  []string
	incs    map[string]int64
	appends map[string][]any
}

func splitFields(fields Document) (fieldOps, error) {
	ops := fieldOps{set: Document{}, incs: map[string]int64{}, appends: map[string][]any{}}
	for key, value := range fields {
		if key == IDField {
			continue
		}
		if err := validateField(key); err != nil {
			return ops, err
		}
		switch v := value.(type) {
		case serverTimestamp:
			ops.stamps = append(ops.stamps, key)
		case increment:
			ops.incs[key] = v.delta
		case arrayAppend:
			ops.appends[key] = v.values
		default:
			if err := checkNested(value); err != nil {
				return ops, fmt.Errorf("field %q: %w", key, err)
			}
			ops.set[key] = value
		}
	}
	sort.Strings(ops.stamps)
	return ops, nil
}

// checkNested rejects counter and append sentinels below the top level.
func checkNested(value any) error {
	switch v := value.(type) {
	case increment, arrayAppend:
		return fmt.Errorf("%w: increment and append are top-level only", ErrInvalidField)
	case Document:
		for _, item := range v {
			if err := checkNested(item); err != nil {
				return err
			}
		}
	case map[string]any:
		for _, item := range v {
			if err := checkNested(item); err != nil {
				return err
			}
		}
	case []any:
		for _, item := range v {
			if err := checkNested(item); err != nil {
				return err
			}
		}
	}
	return nil
}

func hasServerTimestamp(value any) bool {
	switch v := value.(type) {
	case serverTimestamp:
		return true
	case arrayAppend:
		for _, item := range v.values {
			if hasServerTimestamp(item) {
				return true
			}
		}
	case Document:
		for _, item := range v {
			if hasServerTimestamp(item) {
				return true
			}
		}
	case map[string]any:
		for _, item := range v {
			if hasServerTimestamp(item) {
				return true
			}
		}
	case []any:
		for _, item := range v {
			if hasServerTimestamp(item) {
				return true
			}
		}
	}
	return false
}

// resolve replaces every sentinel with a plain value. stamp is used for
// server timestamps; increments on a new document start from zero.
func resolve(value any, stamp any) any {
	switch v := value.(type) {
	case serverTimestamp:
		return stamp
	case increment:
		return v.delta
	case arrayAppend:
		out := make([]any, len(v.values))
		for i, item := range v.values {
			out[i] = resolve(item, stamp)
		}
		return out
	case Document:
		out := make(Document, len(v))
		for k, item := range v {
			out[k] = resolve(item, stamp)
		}
		return out
	case map[string]any:
		out := make(Document, len(v))
		for k, item := range v {
			out[k] = resolve(item, stamp)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = resolve(item, stamp)
		}
		return out
	case []string:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = item
		}
		return out
	}
	return value
}

func resolveDocument(doc Document, stamp any) (Document, error) {
	out := make(Document, len(doc))
	for key, value := range doc {
		if key == IDField {
			continue
		}
		if err := validateField(key); err != nil {
			return nil, err
		}
		out[key] = resolve(value, stamp)
	}
	return out, nil
}
