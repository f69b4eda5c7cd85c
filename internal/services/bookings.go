package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/harentsoaR/doctors-portal/internal/errs"
	"github.com/harentsoaR/doctors-portal/internal/models"
	"github.com/harentsoaR/doctors-portal/internal/store"
)

// Rejection reasons reported with a negative Admission.
const (
	ReasonDuplicate = "duplicate"
	ReasonRace      = "duplicate_race"
)

type BookingRequest struct {
	AppointmentDate string  `json:"appointmentDate" binding:"required"`
	Treatment       string  `json:"treatment" binding:"required"`
	Patient         string  `json:"patient"`
	Slot            string  `json:"slot" binding:"required"`
	Email           string  `json:"email" binding:"required,email"`
	Phone           string  `json:"phone"`
	Price           float64 `json:"price"`
}

// Admission is the outcome of a booking request. A rejection is not an
// error: Acknowledged is false and Message says why.
type Admission struct {
	Acknowledged bool            `json:"acknowledged"`
	InsertedID   string          `json:"insertedId,omitempty"`
	Message      string          `json:"message,omitempty"`
	Reason       string          `json:"-"`
	Booking      *models.Booking `json:"-"`
}

// SlotCatalog resolves a treatment to its option template.
type SlotCatalog interface {
	Option(ctx context.Context, treatment string) (*models.AppointmentOption, error)
}

type BookingService struct {
	bookings      store.Collection
	catalog       SlotCatalog
	validateSlots bool
	log           zerolog.Logger
}

// NewBookingService builds the admission controller. When validateSlots is
// set, the requested slot must be in the treatment's template; otherwise
// any slot string is accepted.
func NewBookingService(s store.Store, catalog SlotCatalog, validateSlots bool, log zerolog.Logger) *BookingService {
	return &BookingService{
		bookings:      s.Collection(store.Bookings),
		catalog:       catalog,
		validateSlots: validateSlots,
		log:           log.With().Str("component", "admission").Logger(),
	}
}

// Admit applies the one-booking-per (date, treatment, email) rule and
// persists the booking when it passes. The unique index on the same triple
// turns a lost insert race into the same rejection.
func (s *BookingService) Admit(ctx context.Context, req BookingRequest) (Admission, error) {
	if s.validateSlots {
		if err := s.checkSlot(ctx, req.Treatment, req.Slot); err != nil {
			return Admission{}, err
		}
	}

	filter := bson.M{
		"appointmentDate": req.AppointmentDate,
		"treatment":       req.Treatment,
		"email":           req.Email,
	}
	var existing []models.Booking
	if err := s.bookings.Find(ctx, filter, &existing); err != nil {
		return Admission{}, storeErr("bookings", err)
	}
	if len(existing) > 0 {
		s.log.Info().Str("email", req.Email).Str("date", req.AppointmentDate).Str("treatment", req.Treatment).Msg("booking rejected: already booked")
		return rejected(req.AppointmentDate, ReasonDuplicate), nil
	}

	booking := models.Booking{
		AppointmentDate: req.AppointmentDate,
		Treatment:       req.Treatment,
		Patient:         req.Patient,
		Slot:            req.Slot,
		Email:           req.Email,
		Phone:           req.Phone,
		Price:           req.Price,
	}
	res, err := s.bookings.InsertOne(ctx, booking)
	if errors.Is(err, store.ErrDuplicate) {
		s.log.Warn().Str("email", req.Email).Str("date", req.AppointmentDate).Msg("booking rejected: concurrent insert won")
		return rejected(req.AppointmentDate, ReasonRace), nil
	}
	if err != nil {
		return Admission{}, storeErr("booking", err)
	}

	booking.ID = insertedID(res.ID)
	s.log.Info().Str("booking_id", booking.ID.Hex()).Str("email", req.Email).Msg("booking admitted")
	return Admission{
		Acknowledged: res.Acknowledged,
		InsertedID:   booking.ID.Hex(),
		Booking:      &booking,
	}, nil
}

func rejected(date, reason string) Admission {
	return Admission{
		Acknowledged: false,
		Message:      fmt.Sprintf("You already have a booking on %s", date),
		Reason:       reason,
	}
}

func (s *BookingService) checkSlot(ctx context.Context, treatment, slot string) error {
	opt, err := s.catalog.Option(ctx, treatment)
	if errors.Is(err, errs.ErrNotFound) {
		return errs.BadRequest(fmt.Sprintf("unknown treatment %q", treatment), nil)
	}
	if err != nil {
		return err
	}
	for _, sl := range opt.Slots {
		if sl == slot {
			return nil
		}
	}
	return errs.BadRequest(fmt.Sprintf("slot %q is not offered for %s", slot, treatment), nil)
}

// ListByEmail returns the bookings made by email.
func (s *BookingService) ListByEmail(ctx context.Context, email string) ([]models.Booking, error) {
	bookings := make([]models.Booking, 0)
	if err := s.bookings.Find(ctx, bson.M{"email": email}, &bookings); err != nil {
		return nil, storeErr("bookings", err)
	}
	if bookings == nil {
		bookings = make([]models.Booking, 0)
	}
	return bookings, nil
}

func (s *BookingService) Get(ctx context.Context, id string) (*models.Booking, error) {
	oid, err := parseID("booking", id)
	if err != nil {
		return nil, err
	}
	var b models.Booking
	if err := s.bookings.FindOne(ctx, bson.M{"_id": oid}, &b); err != nil {
		return nil, storeErr("booking", err)
	}
	return &b, nil
}
