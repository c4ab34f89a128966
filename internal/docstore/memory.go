package docstore

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"
)

// Memory is an in-process Store. Every operation runs under one mutex, so
// increments and appends are atomic; transactions hold the mutex for their
// whole duration and restore a snapshot on error.
type Memory struct {
	mu    sync.Mutex
	data  map[string]map[string]Document
	clock func() time.Time
}

type MemoryOption func(*Memory)

// WithClock replaces the clock used for server timestamps.
func WithClock(clock func() time.Time) MemoryOption {
	return func(m *Memory) { m.clock = clock }
}

func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		data:  make(map[string]map[string]Document),
		clock: time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Memory) Collection(name string) Collection {
	return &memCollection{m: m, name: name}
}

func (m *Memory) RunInTransaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := make(map[string]map[string]Document, len(m.data))
	for name, docs := range m.data {
		copied := make(map[string]Document, len(docs))
		for id, doc := range docs {
			copied[id] = cloneDocument(doc)
		}
		snapshot[name] = copied
	}

	if err := fn(ctx, &memTx{m: m}); err != nil {
		m.data = snapshot
		return err
	}
	return nil
}

func (m *Memory) Ping(context.Context) error  { return nil }
func (m *Memory) Close(context.Context) error { return nil }

func (m *Memory) now() time.Time {
	return m.clock().UTC()
}

func (m *Memory) bucket(name string) map[string]Document {
	docs, ok := m.data[name]
	if !ok {
		docs = make(map[string]Document)
		m.data[name] = docs
	}
	return docs
}

// memTx is the Store handed to transaction callbacks; the mutex is already held.
type memTx struct {
	m *Memory
}

func (t *memTx) Collection(name string) Collection {
	return &memCollection{m: t.m, name: name, locked: true}
}

func (t *memTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	return fn(ctx, t)
}

func (t *memTx) Ping(context.Context) error  { return nil }
func (t *memTx) Close(context.Context) error { return nil }

type memCollection struct {
	m      *Memory
	name   string
	locked bool
}

func (c *memCollection) lock() func() {
	if c.locked {
		return func() {}
	}
	c.m.mu.Lock()
	return c.m.mu.Unlock
}

func (c *memCollection) Query(ctx context.Context, q Query) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := q.validate(); err != nil {
		return nil, err
	}
	unlock := c.lock()
	defer unlock()

	var out []Document
	for id, doc := range c.m.bucket(c.name) {
		if matches(doc, q.Filters) {
			d := cloneDocument(doc)
			d[IDField] = id
			out = append(out, d)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		for _, o := range q.OrderBy {
			cmp := compareValues(out[i][o.Field], out[j][o.Field])
			if cmp == 0 {
				continue
			}
			if o.Desc {
				return cmp > 0
			}
			return cmp < 0
		}
		return out[i][IDField].(string) < out[j][IDField].(string)
	})

	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	if out == nil {
		out = []Document{}
	}
	return out, nil
}

func (c *memCollection) Get(ctx context.Context, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	unlock := c.lock()
	defer unlock()

	doc, ok := c.m.bucket(c.name)[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := cloneDocument(doc)
	out[IDField] = id
	return out, nil
}

func (c *memCollection) Create(ctx context.Context, id string, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateID(id); err != nil {
		return err
	}
	unlock := c.lock()
	defer unlock()

	docs := c.m.bucket(c.name)
	if _, exists := docs[id]; exists {
		return ErrAlreadyExists
	}
	resolved, err := resolveDocument(doc, c.m.now())
	if err != nil {
		return err
	}
	docs[id] = normalizeDocument(resolved)
	return nil
}

func (c *memCollection) Set(ctx context.Context, id string, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateID(id); err != nil {
		return err
	}
	unlock := c.lock()
	defer unlock()

	resolved, err := resolveDocument(doc, c.m.now())
	if err != nil {
		return err
	}
	c.m.bucket(c.name)[id] = normalizeDocument(resolved)
	return nil
}

func (c *memCollection) Update(ctx context.Context, id string, fields Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ops, err := splitFields(fields)
	if err != nil {
		return err
	}
	unlock := c.lock()
	defer unlock()

	docs := c.m.bucket(c.name)
	current, ok := docs[id]
	if !ok {
		return ErrNotFound
	}
	doc := cloneDocument(current)
	now := c.m.now()

	for key, value := range ops.set {
		doc[key] = normalize(resolve(value, now))
	}
	for _, key := range ops.stamps {
		doc[key] = now
	}
	for key, delta := range ops.incs {
		next, err := addNumber(doc[key], delta)
		if err != nil {
			return fmt.Errorf("increment %q: %w", key, err)
		}
		doc[key] = next
	}
	for key, values := range ops.appends {
		var list []any
		switch existing := doc[key].(type) {
		case nil:
		case []any:
			list = existing
		default:
			return fmt.Errorf("append %q: %w: field is %T", key, ErrInvalidField, existing)
		}
		for _, v := range values {
			list = append(list, normalize(resolve(v, now)))
		}
		doc[key] = list
	}
	docs[id] = doc
	return nil
}

func (c *memCollection) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	unlock := c.lock()
	defer unlock()

	docs := c.m.bucket(c.name)
	if _, ok := docs[id]; !ok {
		return ErrNotFound
	}
	delete(docs, id)
	return nil
}

func addNumber(current any, delta int64) (any, error) {
	if current == nil {
		return delta, nil
	}
	switch n := current.(type) {
	case int64:
		return n + delta, nil
	case float64:
		return n + float64(delta), nil
	}
	return nil, fmt.Errorf("%w: field is %T", ErrInvalidField, current)
}

func matches(doc Document, filters []Filter) bool {
	for _, f := range filters {
		value := doc[f.Field]
		switch f.Op {
		case OpEq:
			if compareValues(value, normalize(f.Value)) != 0 || value == nil {
				return false
			}
		case OpContains:
			list, ok := value.([]any)
			if !ok {
				return false
			}
			found := false
			want := normalize(f.Value)
			for _, item := range list {
				if compareValues(item, want) == 0 {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
	}
	return true
}

// compareValues orders nil < bool < number < string < time; values of
// different kinds compare by that rank.
func compareValues(a, b any) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	switch x := a.(type) {
	case bool:
		y := b.(bool)
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		}
		return 1
	case int64, float64:
		fx, _ := toFloat(a)
		fy, _ := toFloat(b)
		switch {
		case fx < fy:
			return -1
		case fx > fy:
			return 1
		}
		return 0
	case string:
		return strings.Compare(x, b.(string))
	case time.Time:
		return x.Compare(b.(time.Time))
	}
	return 0
}

func rank(v any) int {
	switch v.(type) {
	case nil:
		return 0
	case bool:
		return 1
	case int64, float64:
		return 2
	case string:
		return 3
	case time.Time:
		return 4
	}
	return 5
}

// normalize converts values to the shapes other backends return after a
// round trip: int64, float64, []any, Document and UTC times.
func normalize(v any) any {
	switch x := v.(type) {
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case float32:
		return float64(x)
	case time.Time:
		return x.UTC()
	case *time.Time:
		if x == nil {
			return nil
		}
		return x.UTC()
	case []string:
		out := make([]any, len(x))
		for i, s := range x {
			out[i] = s
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = normalize(item)
		}
		return out
	case Document:
		return normalizeDocument(x)
	case map[string]any:
		return normalizeDocument(Document(x))
	case nil, string, bool, int64, float64:
		return v
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	}
	return v
}

func normalizeDocument(doc Document) Document {
	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = normalize(v)
	}
	return out
}

func cloneDocument(doc Document) Document {
	return normalizeDocument(doc)
}
