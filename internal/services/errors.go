package services

import (
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/doctors-portal/internal/errs"
	"github.com/harentsoaR/doctors-portal/internal/store"
)

// storeErr maps repository failures onto the application taxonomy.
func storeErr(resource string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return errs.NotFound(resource, err)
	case errors.Is(err, store.ErrDuplicate):
		return errs.Conflict(resource + " already exists")
	default:
		return errs.Unavailable(err)
	}
}

func parseID(resource, hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, errs.BadRequest("invalid "+resource+" id", err)
	}
	return id, nil
}

func insertedID(v interface{}) primitive.ObjectID {
	if id, ok := v.(primitive.ObjectID); ok {
		return id
	}
	return primitive.NilObjectID
}
