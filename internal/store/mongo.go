package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo adapts a *mongo.Database to Store.
type Mongo struct {
	db *mongo.Database
}

func NewMongo(db *mongo.Database) *Mongo {
	return &Mongo{db: db}
}

func (m *Mongo) Collection(name string) Collection {
	return &mongoCollection{name: name, coll: m.db.Collection(name)}
}

func (m *Mongo) EnsureUnique(ctx context.Context, collection string, keys ...string) error {
	idxKeys := bson.D{}
	for _, k := range keys {
		idxKeys = append(idxKeys, bson.E{Key: k, Value: 1})
	}
	_, err := m.db.Collection(collection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    idxKeys,
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return wrapErr("create index on "+collection, err)
	}
	return nil
}

type mongoCollection struct {
	name string
	coll *mongo.Collection
}

func (c *mongoCollection) Find(ctx context.Context, filter bson.M, out interface{}) error {
	cursor, err := c.coll.Find(ctx, filter)
	if err != nil {
		return wrapErr("find "+c.name, err)
	}
	defer cursor.Close(ctx)
	if err := cursor.All(ctx, out); err != nil {
		return wrapErr("decode "+c.name, err)
	}
	return nil
}

func (c *mongoCollection) FindOne(ctx context.Context, filter bson.M, out interface{}) error {
	err := c.coll.FindOne(ctx, filter).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if err != nil {
		return wrapErr("find one "+c.name, err)
	}
	return nil
}

func (c *mongoCollection) InsertOne(ctx context.Context, doc interface{}) (InsertResult, error) {
	res, err := c.coll.InsertOne(ctx, doc)
	if err != nil {
		return InsertResult{}, wrapErr("insert "+c.name, err)
	}
	return InsertResult{ID: res.InsertedID, Acknowledged: true}, nil
}

func (c *mongoCollection) UpdateOne(ctx context.Context, filter, update bson.M, upsert bool) (UpdateResult, error) {
	res, err := c.coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(upsert))
	if err != nil {
		return UpdateResult{}, wrapErr("update "+c.name, err)
	}
	return UpdateResult{
		Matched:    res.MatchedCount,
		Modified:   res.ModifiedCount,
		UpsertedID: res.UpsertedID,
	}, nil
}

func (c *mongoCollection) DeleteOne(ctx context.Context, filter bson.M) (int64, error) {
	res, err := c.coll.DeleteOne(ctx, filter)
	if err != nil {
		return 0, wrapErr("delete "+c.name, err)
	}
	return res.DeletedCount, nil
}

func wrapErr(op string, err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%s: %w", op, ErrDuplicate)
	}
	return fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
}
