package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/models"
	"gorm.io/gorm"
)

// stampPlaceholder marks server timestamps inside JSON payloads; the SQL
// replaces it with to_jsonb(now()) so the database clock is used.
const stampPlaceholder = "@@server_timestamp@@"

var quotedPlaceholder = `"` + stampPlaceholder + `"`

const stampExpr = "replace(?::text, ?, to_jsonb(now())::text)::jsonb"

// Postgres stores every collection in the documents table as jsonb. The
// gorm handle must be opened with TranslateError so duplicate keys surface
// as gorm.ErrDuplicatedKey.
type Postgres struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) Collection(name string) Collection {
	return &pgCollection{db: p.db, name: name}
}

func (p *Postgres) RunInTransaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &Postgres{db: tx})
	})
}

func (p *Postgres) Ping(ctx context.Context) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (p *Postgres) Close(context.Context) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

type pgCollection struct {
	db   *gorm.DB
	name string
}

func (c *pgCollection) Query(ctx context.Context, q Query) ([]Document, error) {
	query, args, err := buildSelect(c.name, q)
	if err != nil {
		return nil, err
	}
	var rows []models.Document
	if err := c.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("query %s: %w", c.name, err)
	}
	out := make([]Document, 0, len(rows))
	for _, row := range rows {
		doc, err := decodeRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

func (c *pgCollection) Get(ctx context.Context, id string) (Document, error) {
	var row models.Document
	err := c.db.WithContext(ctx).
		Where("collection = ? AND id = ?", c.name, id).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", c.name, id, err)
	}
	return decodeRow(row)
}

func (c *pgCollection) Create(ctx context.Context, id string, doc Document) error {
	if err := validateID(id); err != nil {
		return err
	}
	payload, err := encodeDocument(doc)
	if err != nil {
		return err
	}
	err = c.db.WithContext(ctx).Exec(
		"INSERT INTO documents (collection, id, data, created_at, updated_at) VALUES (?, ?, "+stampExpr+", now(), now())",
		c.name, id, payload, quotedPlaceholder,
	).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("create %s/%s: %w", c.name, id, err)
	}
	return nil
}

func (c *pgCollection) Set(ctx context.Context, id string, doc Document) error {
	if err := validateID(id); err != nil {
		return err
	}
	payload, err := encodeDocument(doc)
	if err != nil {
		return err
	}
	err = c.db.WithContext(ctx).Exec(
		"INSERT INTO documents (collection, id, data, created_at, updated_at) VALUES (?, ?, "+stampExpr+", now(), now()) "+
			"ON CONFLICT (collection, id) DO UPDATE SET data = EXCLUDED.data, updated_at = now()",
		c.name, id, payload, quotedPlaceholder,
	).Error
	if err != nil {
		return fmt.Errorf("set %s/%s: %w", c.name, id, err)
	}
	return nil
}

func (c *pgCollection) Update(ctx context.Context, id string, fields Document) error {
	query, args, err := buildUpdate(c.name, id, fields)
	if err != nil {
		return err
	}
	result := c.db.WithContext(ctx).Exec(query, args...)
	if result.Error != nil {
		return fmt.Errorf("update %s/%s: %w", c.name, id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (c *pgCollection) Delete(ctx context.Context, id string) error {
	result := c.db.WithContext(ctx).
		Where("collection = ? AND id = ?", c.name, id).
		Delete(&models.Document{})
	if result.Error != nil {
		return fmt.Errorf("delete %s/%s: %w", c.name, id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func buildSelect(collection string, q Query) (string, []any, error) {
	if err := q.validate(); err != nil {
		return "", nil, err
	}
	var sb strings.Builder
	args := []any{collection}
	sb.WriteString("SELECT collection, id, data, created_at, updated_at FROM documents WHERE collection = ?")

	for _, f := range q.Filters {
		value := resolve(f.Value, nil)
		if f.Op == OpContains {
			value = []any{value}
		}
		payload, err := json.Marshal(map[string]any{f.Field: value})
		if err != nil {
			return "", nil, fmt.Errorf("encode filter %q: %w", f.Field, err)
		}
		sb.WriteString(" AND data @> ?::jsonb")
		args = append(args, string(payload))
	}

	if len(q.OrderBy) > 0 {
		sb.WriteString(" ORDER BY ")
		for i, o := range q.OrderBy {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("data -> (?::text)")
			if o.Desc {
				sb.WriteString(" DESC NULLS LAST")
			} else {
				sb.WriteString(" ASC NULLS FIRST")
			}
			args = append(args, o.Field)
		}
		sb.WriteString(", id ASC")
	} else {
		sb.WriteString(" ORDER BY id ASC")
	}

	if q.Limit > 0 {
		sb.WriteString(fmt.Sprintf(" LIMIT %d", q.Limit))
	}
	return sb.String(), args, nil
}

// buildUpdate renders one UPDATE statement so the whole change, counters and
// appends included, applies atomically to the row.
func buildUpdate(collection, id string, fields Document) (string, []any, error) {
	ops, err := splitFields(fields)
	if err != nil {
		return "", nil, err
	}

	expr := "data"
	var args []any

	patch := make(Document, len(ops.set)+len(ops.stamps))
	for k, v := range ops.set {
		patch[k] = v
	}
	for _, k := range ops.stamps {
		patch[k] = serverTimestamp{}
	}
	if len(patch) > 0 {
		payload, err := encodeDocument(patch)
		if err != nil {
			return "", nil, err
		}
		expr = "(data || " + stampExpr + ")"
		args = append(args, payload, quotedPlaceholder)
	}

	for _, key := range sortedKeys(ops.incs) {
		expr = fmt.Sprintf("jsonb_set(%s, ARRAY[?::text], to_jsonb(COALESCE((data ->> (?::text))::numeric, 0) + (?::numeric)))", expr)
		args = append(args, key, key, ops.incs[key])
	}

	for _, key := range sortedKeys(ops.appends) {
		payload, err := encodeValue(ops.appends[key])
		if err != nil {
			return "", nil, err
		}
		expr = fmt.Sprintf("jsonb_set(%s, ARRAY[?::text], COALESCE(data -> (?::text), '[]'::jsonb) || %s)", expr, stampExpr)
		args = append(args, key, key, payload, quotedPlaceholder)
	}

	query := "UPDATE documents SET data = " + expr + ", updated_at = now() WHERE collection = ? AND id = ?"
	args = append(args, collection, id)
	return query, args, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ErrReservedValue rejects strings that collide with the stamp placeholder.
var ErrReservedValue = errors.New("reserved value")

func checkReserved(v any) error {
	switch x := v.(type) {
	case string:
		if x == stampPlaceholder {
			return fmt.Errorf("%w: %q", ErrReservedValue, x)
		}
	case []string:
		for _, item := range x {
			if err := checkReserved(item); err != nil {
				return err
			}
		}
	case []any:
		for _, item := range x {
			if err := checkReserved(item); err != nil {
				return err
			}
		}
	case arrayAppend:
		return checkReserved(x.values)
	case Document:
		return checkReserved(map[string]any(x))
	case map[string]any:
		for k, item := range x {
			if err := checkReserved(k); err != nil {
				return err
			}
			if err := checkReserved(item); err != nil {
				return err
			}
		}
	}
	return nil
}

func encodeDocument(doc Document) (string, error) {
	if err := checkReserved(doc); err != nil {
		return "", err
	}
	resolved, err := resolveDocument(doc, stampPlaceholder)
	if err != nil {
		return "", err
	}
	b, err := json.Marshal(resolved)
	if err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}
	return string(b), nil
}

func encodeValue(v any) (string, error) {
	if err := checkReserved(v); err != nil {
		return "", err
	}
	b, err := json.Marshal(resolve(v, stampPlaceholder))
	if err != nil {
		return "", fmt.Errorf("encode value: %w", err)
	}
	return string(b), nil
}

func decodeRow(row models.Document) (Document, error) {
	doc := Document{}
	if len(row.Data) > 0 {
		dec := json.NewDecoder(bytes.NewReader(row.Data))
		dec.UseNumber()
		var raw map[string]any
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode %s/%s: %w", row.Collection, row.ID, err)
		}
		doc = fromJSON(raw)
	}
	doc[IDField] = row.ID
	return doc, nil
}

// fromJSON turns decoded JSON into store values: integral numbers become
// int64, others float64, and objects become Documents.
func fromJSON(raw map[string]any) Document {
	out := make(Document, len(raw))
	for k, v := range raw {
		out[k] = fromJSONValue(v)
	}
	return out
}

func fromJSONValue(v any) any {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case map[string]any:
		return fromJSON(x)
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = fromJSONValue(item)
		}
		return out
	}
	return v
}
