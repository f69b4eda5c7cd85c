package services

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/harentsoaR/doctors-portal/internal/errs"
	"github.com/harentsoaR/doctors-portal/internal/models"
	"github.com/harentsoaR/doctors-portal/internal/store"
)

const optionsCacheKey = "appointmentOptions"

// AvailabilityService computes the bookable slots of each option for a day.
type AvailabilityService struct {
	options  store.Collection
	bookings store.Collection
	cache    *cache.Cache
	log      zerolog.Logger
}

// NewAvailabilityService caches the option templates for ttl. A zero ttl
// reads them from the store on every call. Bookings are never cached.
func NewAvailabilityService(s store.Store, ttl time.Duration, log zerolog.Logger) *AvailabilityService {
	svc := &AvailabilityService{
		options:  s.Collection(store.AppointmentOptions),
		bookings: s.Collection(store.Bookings),
		log:      log.With().Str("component", "availability").Logger(),
	}
	if ttl > 0 {
		svc.cache = cache.New(ttl, 2*ttl)
	}
	return svc
}

// Available returns every option with the slots already booked on date
// removed. An empty date filters on an unset appointmentDate, so options
// come back as if nothing were booked.
func (s *AvailabilityService) Available(ctx context.Context, date string) ([]models.AppointmentOption, error) {
	options, err := s.templates(ctx)
	if err != nil {
		return nil, err
	}

	filter := bson.M{"appointmentDate": date}
	if date == "" {
		filter = bson.M{"appointmentDate": nil}
	}
	var booked []models.Booking
	if err := s.bookings.Find(ctx, filter, &booked); err != nil {
		return nil, storeErr("bookings", err)
	}

	s.log.Debug().Str("date", date).Int("options", len(options)).Int("booked", len(booked)).Msg("computed availability")
	return RemainingSlots(options, booked), nil
}

// Specialties lists the treatment names.
func (s *AvailabilityService) Specialties(ctx context.Context) ([]string, error) {
	options, err := s.templates(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(options))
	for _, o := range options {
		names = append(names, o.Name)
	}
	return names, nil
}

// Option returns the template named treatment.
func (s *AvailabilityService) Option(ctx context.Context, treatment string) (*models.AppointmentOption, error) {
	options, err := s.templates(ctx)
	if err != nil {
		return nil, err
	}
	for i := range options {
		if options[i].Name == treatment {
			return &options[i], nil
		}
	}
	return nil, errs.NotFound("appointment option", nil)
}

func (s *AvailabilityService) templates(ctx context.Context) ([]models.AppointmentOption, error) {
	if s.cache != nil {
		if cached, ok := s.cache.Get(optionsCacheKey); ok {
			return cloneOptions(cached.([]models.AppointmentOption)), nil
		}
	}
	var options []models.AppointmentOption
	if err := s.options.Find(ctx, bson.M{}, &options); err != nil {
		return nil, storeErr("appointment options", err)
	}
	if s.cache != nil {
		s.cache.SetDefault(optionsCacheKey, cloneOptions(options))
	}
	return options, nil
}

// RemainingSlots subtracts, per option, the slots of bookings whose
// treatment equals the option name. Template order is preserved and the
// inputs are not modified.
func RemainingSlots(options []models.AppointmentOption, booked []models.Booking) []models.AppointmentOption {
	out := make([]models.AppointmentOption, len(options))
	for i, opt := range options {
		taken := make(map[string]struct{})
		for _, b := range booked {
			if b.Treatment == opt.Name {
				taken[b.Slot] = struct{}{}
			}
		}
		remaining := make([]string, 0, len(opt.Slots))
		for _, slot := range opt.Slots {
			if _, ok := taken[slot]; !ok {
				remaining = append(remaining, slot)
			}
		}
		opt.Slots = remaining
		out[i] = opt
	}
	return out
}

func cloneOptions(in []models.AppointmentOption) []models.AppointmentOption {
	out := make([]models.AppointmentOption, len(in))
	for i, o := range in {
		o.Slots = append([]string(nil), o.Slots...)
		out[i] = o
	}
	return out
}
