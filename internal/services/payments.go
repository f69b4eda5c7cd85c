package services

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/doctors-portal/internal/errs"
	"github.com/harentsoaR/doctors-portal/internal/models"
	"github.com/harentsoaR/doctors-portal/internal/store"
)

// PaymentProvider creates a payable amount and returns the secret the
// client uses to confirm it.
type PaymentProvider interface {
	CreatePayable(ctx context.Context, amountMinor int64, currency string) (string, error)
}

type ReconcileRequest struct {
	BookingID     string  `json:"bookingId" binding:"required"`
	TransactionID string  `json:"transactionId" binding:"required"`
	Price         float64 `json:"price"`
	Email         string  `json:"email"`
}

// Reconciliation is the result of Reconcile. Replayed is set when the
// booking had already been marked with the same transaction.
type Reconciliation struct {
	Payment  *models.Payment `json:"payment"`
	Replayed bool            `json:"replayed"`
}

type PaymentService struct {
	bookings store.Collection
	payments store.Collection
	provider PaymentProvider
	currency string
	now      func() time.Time
	log      zerolog.Logger
}

func NewPaymentService(s store.Store, provider PaymentProvider, currency string, log zerolog.Logger) *PaymentService {
	return &PaymentService{
		bookings: s.Collection(store.Bookings),
		payments: s.Collection(store.Payments),
		provider: provider,
		currency: currency,
		now:      time.Now,
		log:      log.With().Str("component", "payments").Logger(),
	}
}

// ToMinorUnits converts a decimal currency amount to the provider's integer
// minor unit (cents).
func ToMinorUnits(price float64) int64 {
	return int64(math.Round(price * 100))
}

// CreatePayable asks the provider for a client secret covering price.
func (s *PaymentService) CreatePayable(ctx context.Context, price float64) (string, error) {
	amount := ToMinorUnits(price)
	if amount <= 0 {
		return "", errs.BadRequest("price must be positive", nil)
	}
	if s.provider == nil {
		return "", errors.New("payment provider is not configured")
	}
	secret, err := s.provider.CreatePayable(ctx, amount, s.currency)
	if err != nil {
		return "", err
	}
	return secret, nil
}

// Reconcile marks the booking paid and records a receipt, in that order.
// The two writes are not atomic. Retrying with the same transaction id
// completes a sequence that stopped between them and never produces a
// second receipt; a different transaction id on a paid booking conflicts.
func (s *PaymentService) Reconcile(ctx context.Context, req ReconcileRequest) (*Reconciliation, error) {
	id, err := parseID("booking", req.BookingID)
	if err != nil {
		return nil, err
	}
	if req.TransactionID == "" {
		return nil, errs.BadRequest("transactionId is required", nil)
	}

	booking, err := s.booking(ctx, id)
	if err != nil {
		return nil, err
	}

	replayed := false
	switch {
	case booking.Paid && booking.TransactionID == req.TransactionID:
		replayed = true
	case booking.Paid:
		return nil, errs.Conflict("booking is already paid")
	default:
		res, err := s.bookings.UpdateOne(ctx,
			bson.M{"_id": id, "paid": false},
			bson.M{"$set": bson.M{"paid": true, "transactionId": req.TransactionID}},
			false,
		)
		if err != nil {
			return nil, storeErr("booking", err)
		}
		if res.Matched == 0 {
			// another request marked it between our read and write
			booking, err = s.booking(ctx, id)
			if err != nil {
				return nil, err
			}
			if booking.TransactionID != req.TransactionID {
				return nil, errs.Conflict("booking is already paid")
			}
			replayed = true
		}
	}

	payment := models.Payment{
		BookingID:     id,
		TransactionID: req.TransactionID,
		Price:         req.Price,
		Email:         req.Email,
		CreatedAt:     s.now().UTC(),
	}
	if payment.Price == 0 {
		payment.Price = booking.Price
	}
	if payment.Email == "" {
		payment.Email = booking.Email
	}

	res, err := s.payments.InsertOne(ctx, payment)
	if errors.Is(err, store.ErrDuplicate) {
		existing, findErr := s.receipt(ctx, req.TransactionID)
		if findErr != nil || existing.BookingID != id {
			return nil, errs.Conflict("transaction is already recorded")
		}
		return &Reconciliation{Payment: existing, Replayed: true}, nil
	}
	if err != nil {
		s.log.Error().Err(err).Str("booking_id", id.Hex()).Str("transaction_id", req.TransactionID).
			Msg("booking marked paid but receipt not written")
		return nil, storeErr("payment", err)
	}
	payment.ID = insertedID(res.ID)

	s.log.Info().Str("booking_id", id.Hex()).Str("transaction_id", req.TransactionID).Bool("replayed", replayed).Msg("payment reconciled")
	return &Reconciliation{Payment: &payment, Replayed: replayed}, nil
}

func (s *PaymentService) booking(ctx context.Context, id primitive.ObjectID) (*models.Booking, error) {
	var b models.Booking
	if err := s.bookings.FindOne(ctx, bson.M{"_id": id}, &b); err != nil {
		return nil, storeErr("booking", err)
	}
	return &b, nil
}

func (s *PaymentService) receipt(ctx context.Context, transactionID string) (*models.Payment, error) {
	var p models.Payment
	if err := s.payments.FindOne(ctx, bson.M{"transactionId": transactionID}, &p); err != nil {
		return nil, storeErr("payment", err)
	}
	return &p, nil
}
