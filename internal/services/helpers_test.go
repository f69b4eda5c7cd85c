package services

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/harentsoaR/doctors-portal/internal/models"
	"github.com/harentsoaR/doctors-portal/internal/store"
)

var nop = zerolog.Nop()

func newStore(t *testing.T) *store.Memory {
	t.Helper()
	mem := store.NewMemory()
	require.NoError(t, store.EnsureIndexes(context.Background(), mem))
	return mem
}

func seedOptions(t *testing.T, s store.Store, options ...models.AppointmentOption) {
	t.Helper()
	for _, o := range options {
		_, err := s.Collection(store.AppointmentOptions).InsertOne(context.Background(), o)
		require.NoError(t, err)
	}
}

func seedBooking(t *testing.T, s store.Store, b models.Booking) models.Booking {
	t.Helper()
	res, err := s.Collection(store.Bookings).InsertOne(context.Background(), b)
	require.NoError(t, err)
	b.ID = insertedID(res.ID)
	return b
}

// faultStore fails selected operations per collection. The maps are read
// on every call so a test can flip a fault on or off mid-sequence.
type faultStore struct {
	store.Store
	failInsert map[string]error
	failUpdate map[string]error
}

func newFaultStore(inner store.Store) *faultStore {
	return &faultStore{Store: inner, failInsert: map[string]error{}, failUpdate: map[string]error{}}
}

func (f *faultStore) Collection(name string) store.Collection {
	return &faultCollection{Collection: f.Store.Collection(name), name: name, faults: f}
}

type faultCollection struct {
	store.Collection
	name   string
	faults *faultStore
}

func (c *faultCollection) InsertOne(ctx context.Context, doc interface{}) (store.InsertResult, error) {
	if err := c.faults.failInsert[c.name]; err != nil {
		return store.InsertResult{}, err
	}
	return c.Collection.InsertOne(ctx, doc)
}

func (c *faultCollection) UpdateOne(ctx context.Context, filter, update bson.M, upsert bool) (store.UpdateResult, error) {
	if err := c.faults.failUpdate[c.name]; err != nil {
		return store.UpdateResult{}, err
	}
	return c.Collection.UpdateOne(ctx, filter, update, upsert)
}
