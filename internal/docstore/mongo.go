package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// Mongo maps each collection to a MongoDB collection with the document id
// stored as _id. Transactions need a replica set or sharded cluster.
type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
}

func NewMongo(client *mongo.Client, db *mongo.Database) *Mongo {
	return &Mongo{client: client, db: db}
}

func (m *Mongo) Collection(name string) Collection {
	return &mongoCollection{store: m, coll: m.db.Collection(name)}
}

func (m *Mongo) RunInTransaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	sess, err := m.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc context.Context) (any, error) {
		return nil, fn(sc, m)
	})
	return err
}

func (m *Mongo) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// Index describes an ascending (or descending when Desc) compound index.
type Index struct {
	Collection string
	Name       string
	Fields     []Order
	Unique     bool
}

func (m *Mongo) EnsureIndexes(ctx context.Context, indexes []Index) error {
	for _, idx := range indexes {
		keys := bson.D{}
		for _, f := range idx.Fields {
			dir := 1
			if f.Desc {
				dir = -1
			}
			keys = append(keys, bson.E{Key: f.Field, Value: dir})
		}
		_, err := m.db.Collection(idx.Collection).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    keys,
			Options: options.Index().SetName(idx.Name).SetUnique(idx.Unique),
		})
		if err != nil {
			return fmt.Errorf("create index %s.%s: %w", idx.Collection, idx.Name, err)
		}
	}
	return nil
}

// serverTime reads the server clock from the hello command. It runs outside
// any session because hello is not allowed inside a transaction.
func (m *Mongo) serverTime() (time.Time, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var res struct {
		LocalTime time.Time `bson:"localTime"`
	}
	if err := m.db.RunCommand(ctx, bson.D{{Key: "hello", Value: 1}}).Decode(&res); err != nil {
		return time.Time{}, fmt.Errorf("read server time: %w", err)
	}
	return res.LocalTime.UTC(), nil
}

type mongoCollection struct {
	store *Mongo
	coll  *mongo.Collection
}

func (c *mongoCollection) Query(ctx context.Context, q Query) ([]Document, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}
	filter := bson.D{}
	for _, f := range q.Filters {
		filter = append(filter, bson.E{Key: f.Field, Value: resolve(f.Value, nil)})
	}

	opts := options.Find()
	if len(q.OrderBy) > 0 {
		sort := bson.D{}
		for _, o := range q.OrderBy {
			dir := 1
			if o.Desc {
				dir = -1
			}
			sort = append(sort, bson.E{Key: o.Field, Value: dir})
		}
		sort = append(sort, bson.E{Key: "_id", Value: 1})
		opts.SetSort(sort)
	}
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	cursor, err := c.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", c.coll.Name(), err)
	}
	var raw []bson.M
	if err := cursor.All(ctx, &raw); err != nil {
		return nil, fmt.Errorf("query %s: %w", c.coll.Name(), err)
	}
	out := make([]Document, 0, len(raw))
	for _, r := range raw {
		out = append(out, fromBSON(r))
	}
	return out, nil
}

func (c *mongoCollection) Get(ctx context.Context, id string) (Document, error) {
	var raw bson.M
	err := c.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", c.coll.Name(), id, err)
	}
	return fromBSON(raw), nil
}

func (c *mongoCollection) materialize(doc Document) (Document, error) {
	var stamp any
	if hasServerTimestamp(doc) {
		t, err := c.store.serverTime()
		if err != nil {
			return nil, err
		}
		stamp = t
	}
	return resolveDocument(doc, stamp)
}

func (c *mongoCollection) Create(ctx context.Context, id string, doc Document) error {
	if err := validateID(id); err != nil {
		return err
	}
	resolved, err := c.materialize(doc)
	if err != nil {
		return err
	}
	resolved["_id"] = id
	if _, err := c.coll.InsertOne(ctx, resolved); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("create %s/%s: %w", c.coll.Name(), id, err)
	}
	return nil
}

func (c *mongoCollection) Set(ctx context.Context, id string, doc Document) error {
	if err := validateID(id); err != nil {
		return err
	}
	resolved, err := c.materialize(doc)
	if err != nil {
		return err
	}
	_, err = c.coll.ReplaceOne(ctx, bson.D{{Key: "_id", Value: id}}, resolved, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("set %s/%s: %w", c.coll.Name(), id, err)
	}
	return nil
}

func (c *mongoCollection) Update(ctx context.Context, id string, fields Document) error {
	ops, err := splitFields(fields)
	if err != nil {
		return err
	}

	// Top-level stamps use $currentDate; nested ones need the clock up front.
	var stamp any
	nested := false
	for _, v := range ops.set {
		if hasServerTimestamp(v) {
			nested = true
		}
	}
	for _, values := range ops.appends {
		if hasServerTimestamp(arrayAppend{values: values}) {
			nested = true
		}
	}
	if nested {
		t, err := c.store.serverTime()
		if err != nil {
			return err
		}
		stamp = t
	}

	update := bson.D{}
	if len(ops.set) > 0 {
		set := bson.D{}
		for _, key := range sortedKeys(ops.set) {
			set = append(set, bson.E{Key: key, Value: resolve(ops.set[key], stamp)})
		}
		update = append(update, bson.E{Key: "$set", Value: set})
	}
	if len(ops.stamps) > 0 {
		current := bson.D{}
		for _, key := range ops.stamps {
			current = append(current, bson.E{Key: key, Value: bson.D{{Key: "$type", Value: "date"}}})
		}
		update = append(update, bson.E{Key: "$currentDate", Value: current})
	}
	if len(ops.incs) > 0 {
		inc := bson.D{}
		for _, key := range sortedKeys(ops.incs) {
			inc = append(inc, bson.E{Key: key, Value: ops.incs[key]})
		}
		update = append(update, bson.E{Key: "$inc", Value: inc})
	}
	if len(ops.appends) > 0 {
		push := bson.D{}
		for _, key := range sortedKeys(ops.appends) {
			push = append(push, bson.E{Key: key, Value: bson.D{{Key: "$each", Value: resolve(ops.appends[key], stamp)}}})
		}
		update = append(update, bson.E{Key: "$push", Value: push})
	}
	if len(update) == 0 {
		if _, err := c.Get(ctx, id); err != nil {
			return err
		}
		return nil
	}

	res, err := c.coll.UpdateOne(ctx, bson.D{{Key: "_id", Value: id}}, update)
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", c.coll.Name(), id, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (c *mongoCollection) Delete(ctx context.Context, id string) error {
	res, err := c.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", c.coll.Name(), id, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func fromBSON(raw bson.M) Document {
	doc := make(Document, len(raw))
	for k, v := range raw {
		if k == "_id" {
			switch id := v.(type) {
			case string:
				doc[IDField] = id
			case bson.ObjectID:
				doc[IDField] = id.Hex()
			default:
				doc[IDField] = fmt.Sprint(id)
			}
			continue
		}
		doc[k] = fromBSONValue(v)
	}
	return doc
}

func fromBSONValue(v any) any {
	switch x := v.(type) {
	case bson.DateTime:
		return x.Time().UTC()
	case int32:
		return int64(x)
	case bson.M:
		out := make(Document, len(x))
		for k, item := range x {
			out[k] = fromBSONValue(item)
		}
		return out
	case bson.D:
		out := make(Document, len(x))
		for _, e := range x {
			out[e.Key] = fromBSONValue(e.Value)
		}
		return out
	case bson.A:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = fromBSONValue(item)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = fromBSONValue(item)
		}
		return out
	}
	return v
}
