package services

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/doctors-portal/internal/errs"
	"github.com/harentsoaR/doctors-portal/internal/models"
	"github.com/harentsoaR/doctors-portal/internal/store"
)

// DoctorService manages the doctor roster. Callers gate it to admins.
type DoctorService struct {
	doctors store.Collection
}

func NewDoctorService(s store.Store) *DoctorService {
	return &DoctorService{doctors: s.Collection(store.Doctors)}
}

func (s *DoctorService) List(ctx context.Context) ([]models.Doctor, error) {
	doctors := make([]models.Doctor, 0)
	if err := s.doctors.Find(ctx, bson.M{}, &doctors); err != nil {
		return nil, storeErr("doctors", err)
	}
	if doctors == nil {
		doctors = make([]models.Doctor, 0)
	}
	return doctors, nil
}

func (s *DoctorService) Add(ctx context.Context, d models.Doctor) (*models.Doctor, error) {
	d.ID = primitive.NilObjectID
	res, err := s.doctors.InsertOne(ctx, d)
	if err != nil {
		return nil, storeErr("doctor", err)
	}
	d.ID = insertedID(res.ID)
	return &d, nil
}

func (s *DoctorService) Remove(ctx context.Context, id string) error {
	oid, err := parseID("doctor", id)
	if err != nil {
		return err
	}
	n, err := s.doctors.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return storeErr("doctor", err)
	}
	if n == 0 {
		return errs.NotFound("doctor", nil)
	}
	return nil
}
