// Package store is the document repository used by the services. Filters
// and updates are plain bson documents so the same calls work against
// MongoDB and the in-memory store.
package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
)

// Collection names.
const (
	AppointmentOptions = "appointmentOptions"
	Bookings           = "bookings"
	Users              = "users"
	Payments           = "payments"
	Doctors            = "doctors"
)

var (
	// ErrNotFound is returned by FindOne when no document matches.
	ErrNotFound = errors.New("store: document not found")
	// ErrDuplicate is returned when a write violates a unique index.
	ErrDuplicate = errors.New("store: duplicate key")
	// ErrUnavailable wraps driver and connection failures.
	ErrUnavailable = errors.New("store: unavailable")
)

type InsertResult struct {
	ID           interface{}
	Acknowledged bool
}

type UpdateResult struct {
	Matched    int64
	Modified   int64
	UpsertedID interface{}
}

// Collection is the capability surface the services consume.
type Collection interface {
	// Find decodes every match into out, which must be a pointer to a slice.
	Find(ctx context.Context, filter bson.M, out interface{}) error
	// FindOne decodes the first match into out or returns ErrNotFound.
	FindOne(ctx context.Context, filter bson.M, out interface{}) error
	InsertOne(ctx context.Context, doc interface{}) (InsertResult, error)
	// UpdateOne applies update ($set / $setOnInsert) to the first match.
	UpdateOne(ctx context.Context, filter, update bson.M, upsert bool) (UpdateResult, error)
	DeleteOne(ctx context.Context, filter bson.M) (int64, error)
}

type Store interface {
	Collection(name string) Collection
	// EnsureUnique declares a unique compound index on the collection.
	EnsureUnique(ctx context.Context, collection string, keys ...string) error
}

// EnsureIndexes creates the unique indexes the booking rules depend on.
func EnsureIndexes(ctx context.Context, s Store) error {
	indexes := []struct {
		coll string
		keys []string
	}{
		{Bookings, []string{"appointmentDate", "treatment", "email"}},
		{Users, []string{"email"}},
		{Payments, []string{"transactionId"}},
		{Payments, []string{"bookingId"}},
	}
	for _, idx := range indexes {
		if err := s.EnsureUnique(ctx, idx.coll, idx.keys...); err != nil {
			return err
		}
	}
	return nil
}
