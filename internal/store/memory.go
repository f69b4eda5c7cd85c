package store

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Memory is an in-process Store. It supports equality filters (a nil value
// matches a missing or null field), $set and $setOnInsert updates, upserts
// and unique indexes, which is all the services need.
type Memory struct {
	mu    sync.RWMutex
	colls map[string]*memoryData
}

type memoryData struct {
	docs   []bson.M
	unique [][]string
}

func NewMemory() *Memory {
	return &Memory{colls: make(map[string]*memoryData)}
}

func (m *Memory) Collection(name string) Collection {
	return &memoryCollection{store: m, name: name}
}

func (m *Memory) EnsureUnique(_ context.Context, collection string, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	data := m.data(collection)
	for _, existing := range data.unique {
		if reflect.DeepEqual(existing, keys) {
			return nil
		}
	}
	data.unique = append(data.unique, append([]string(nil), keys...))
	return nil
}

// docs must be called with mu held for reading.
func (m *Memory) docs(name string) []bson.M {
	if d, ok := m.colls[name]; ok {
		return d.docs
	}
	return nil
}

// data must be called with mu held for writing.
func (m *Memory) data(name string) *memoryData {
	d, ok := m.colls[name]
	if !ok {
		d = &memoryData{}
		m.colls[name] = d
	}
	return d
}

type memoryCollection struct {
	store *Memory
	name  string
}

func (c *memoryCollection) Find(ctx context.Context, filter bson.M, out interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := normalize(filter)
	if err != nil {
		return err
	}

	c.store.mu.RLock()
	matches := make([]bson.M, 0)
	for _, doc := range c.store.docs(c.name) {
		ok, err := matchDoc(doc, f)
		if err != nil {
			c.store.mu.RUnlock()
			return err
		}
		if ok {
			matches = append(matches, doc)
		}
	}
	raw, err := bson.Marshal(bson.M{"v": matches})
	c.store.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("find %s: %w", c.name, err)
	}
	return bson.Raw(raw).Lookup("v").Unmarshal(out)
}

func (c *memoryCollection) FindOne(ctx context.Context, filter bson.M, out interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := normalize(filter)
	if err != nil {
		return err
	}

	c.store.mu.RLock()
	defer c.store.mu.RUnlock()
	for _, doc := range c.store.docs(c.name) {
		ok, err := matchDoc(doc, f)
		if err != nil {
			return err
		}
		if ok {
			raw, err := bson.Marshal(doc)
			if err != nil {
				return fmt.Errorf("find one %s: %w", c.name, err)
			}
			return bson.Unmarshal(raw, out)
		}
	}
	return ErrNotFound
}

func (c *memoryCollection) InsertOne(ctx context.Context, doc interface{}) (InsertResult, error) {
	if err := ctx.Err(); err != nil {
		return InsertResult{}, err
	}
	d, err := normalize(doc)
	if err != nil {
		return InsertResult{}, err
	}
	if id, ok := d["_id"]; !ok || id == nil {
		d["_id"] = primitive.NewObjectID()
	}

	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	data := c.store.data(c.name)
	if err := data.checkUnique(d, -1); err != nil {
		return InsertResult{}, fmt.Errorf("insert %s: %w", c.name, err)
	}
	data.docs = append(data.docs, d)
	return InsertResult{ID: d["_id"], Acknowledged: true}, nil
}

func (c *memoryCollection) UpdateOne(ctx context.Context, filter, update bson.M, upsert bool) (UpdateResult, error) {
	if err := ctx.Err(); err != nil {
		return UpdateResult{}, err
	}
	f, err := normalize(filter)
	if err != nil {
		return UpdateResult{}, err
	}
	u, err := normalize(update)
	if err != nil {
		return UpdateResult{}, err
	}
	set, setOnInsert, err := splitUpdate(u)
	if err != nil {
		return UpdateResult{}, err
	}

	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	data := c.store.data(c.name)

	for i, doc := range data.docs {
		ok, err := matchDoc(doc, f)
		if err != nil {
			return UpdateResult{}, err
		}
		if !ok {
			continue
		}
		next := copyDoc(doc)
		changed := false
		for k, v := range set {
			if old, exists := next[k]; !exists || !reflect.DeepEqual(old, v) {
				changed = true
			}
			next[k] = v
		}
		if !changed {
			return UpdateResult{Matched: 1}, nil
		}
		if err := data.checkUnique(next, i); err != nil {
			return UpdateResult{}, fmt.Errorf("update %s: %w", c.name, err)
		}
		data.docs[i] = next
		return UpdateResult{Matched: 1, Modified: 1}, nil
	}

	if !upsert {
		return UpdateResult{}, nil
	}
	doc := bson.M{}
	for k, v := range f {
		if !strings.HasPrefix(k, "$") {
			doc[k] = v
		}
	}
	for k, v := range setOnInsert {
		doc[k] = v
	}
	for k, v := range set {
		doc[k] = v
	}
	if id, ok := doc["_id"]; !ok || id == nil {
		doc["_id"] = primitive.NewObjectID()
	}
	if err := data.checkUnique(doc, -1); err != nil {
		return UpdateResult{}, fmt.Errorf("upsert %s: %w", c.name, err)
	}
	data.docs = append(data.docs, doc)
	return UpdateResult{UpsertedID: doc["_id"]}, nil
}

func (c *memoryCollection) DeleteOne(ctx context.Context, filter bson.M) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	f, err := normalize(filter)
	if err != nil {
		return 0, err
	}

	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	data := c.store.data(c.name)
	for i, doc := range data.docs {
		ok, err := matchDoc(doc, f)
		if err != nil {
			return 0, err
		}
		if ok {
			data.docs = append(data.docs[:i], data.docs[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

// checkUnique rejects doc if it collides with another document on _id or
// on any unique index. skip is the index of the document being replaced.
func (d *memoryData) checkUnique(doc bson.M, skip int) error {
	for i, other := range d.docs {
		if i == skip {
			continue
		}
		if reflect.DeepEqual(other["_id"], doc["_id"]) {
			return ErrDuplicate
		}
		for _, keys := range d.unique {
			same := true
			for _, k := range keys {
				if !reflect.DeepEqual(other[k], doc[k]) {
					same = false
					break
				}
			}
			if same {
				return ErrDuplicate
			}
		}
	}
	return nil
}

// normalize round-trips v through bson so filters and stored documents
// share the same value types.
func normalize(v interface{}) (bson.M, error) {
	if v == nil {
		return bson.M{}, nil
	}
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("store: encode: %w", err)
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("store: decode: %w", err)
	}
	if m == nil {
		m = bson.M{}
	}
	return m, nil
}

func matchDoc(doc, filter bson.M) (bool, error) {
	for k, want := range filter {
		if strings.HasPrefix(k, "$") {
			return false, fmt.Errorf("store: operator %s not supported in memory", k)
		}
		got, ok := doc[k]
		if want == nil {
			if ok && got != nil {
				return false, nil
			}
			continue
		}
		if !ok || !reflect.DeepEqual(got, want) {
			return false, nil
		}
	}
	return true, nil
}

func splitUpdate(u bson.M) (set, setOnInsert bson.M, err error) {
	set, setOnInsert = bson.M{}, bson.M{}
	for op, v := range u {
		fields, ok := asMap(v)
		if !ok {
			return nil, nil, fmt.Errorf("store: malformed update operator %s", op)
		}
		switch op {
		case "$set":
			set = fields
		case "$setOnInsert":
			setOnInsert = fields
		default:
			return nil, nil, fmt.Errorf("store: update operator %s not supported in memory", op)
		}
	}
	return set, setOnInsert, nil
}

func asMap(v interface{}) (bson.M, bool) {
	switch t := v.(type) {
	case bson.M:
		return t, true
	case bson.D:
		m := bson.M{}
		for _, e := range t {
			m[e.Key] = e.Value
		}
		return m, true
	default:
		return nil, false
	}
}

func copyDoc(doc bson.M) bson.M {
	out := make(bson.M, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}
