package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Payment is the append-only receipt written once a booking is paid.
type Payment struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	BookingID     primitive.ObjectID `bson:"bookingId" json:"bookingId"`
	TransactionID string             `bson:"transactionId" json:"transactionId"`
	Price         float64            `bson:"price" json:"price"`
	Email         string             `bson:"email" json:"email"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
}
