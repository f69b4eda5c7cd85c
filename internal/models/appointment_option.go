package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// AppointmentOption is a treatment template. Slots are the generic daily
// time labels, not tied to any date.
type AppointmentOption struct {
	ID    primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name  string             `bson:"name" json:"name"`
	Price float64            `bson:"price" json:"price"`
	Slots []string           `bson:"slots" json:"slots"`
}
