package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harentsoaR/doctors-portal/internal/models"
)

func TestRemainingSlots(t *testing.T) {
	options := []models.AppointmentOption{
		{Name: "Braces", Slots: []string{"8am", "9am", "10am", "11am"}},
		{Name: "Cavity", Slots: []string{"9am", "10am"}},
		{Name: "Whitening", Slots: []string{"1pm"}},
	}
	booked := []models.Booking{
		{Treatment: "Braces", Slot: "10am"},
		{Treatment: "Braces", Slot: "8am"},
		{Treatment: "Cavity", Slot: "9am"},
		{Treatment: "Unknown", Slot: "1pm"},
	}

	got := RemainingSlots(options, booked)

	require.Len(t, got, 3)
	assert.Equal(t, []string{"9am", "11am"}, got[0].Slots, "template order is kept")
	assert.Equal(t, []string{"10am"}, got[1].Slots)
	assert.Equal(t, []string{"1pm"}, got[2].Slots, "bookings for other treatments do not count")
	assert.Equal(t, []string{"8am", "9am", "10am", "11am"}, options[0].Slots, "input is not modified")
}

func TestRemainingSlotsAllBooked(t *testing.T) {
	got := RemainingSlots(
		[]models.AppointmentOption{{Name: "Braces", Slots: []string{"9am"}}},
		[]models.Booking{{Treatment: "Braces", Slot: "9am"}},
	)
	require.Len(t, got, 1)
	assert.NotNil(t, got[0].Slots)
	assert.Empty(t, got[0].Slots)
}

func TestAvailableBracesScenario(t *testing.T) {
	s := newStore(t)
	seedOptions(t, s, models.AppointmentOption{Name: "Braces", Slots: []string{"9am", "10am"}})
	seedBooking(t, s, models.Booking{AppointmentDate: "2024-01-05", Treatment: "Braces", Slot: "9am", Email: "p@example.com"})

	svc := NewAvailabilityService(s, 0, nop)
	got, err := svc.Available(context.Background(), "2024-01-05")
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, "Braces", got[0].Name)
	assert.Equal(t, []string{"10am"}, got[0].Slots)
}

func TestAvailableOnlyCountsRequestedDate(t *testing.T) {
	s := newStore(t)
	seedOptions(t, s, models.AppointmentOption{Name: "Braces", Slots: []string{"9am", "10am"}})
	seedBooking(t, s, models.Booking{AppointmentDate: "2024-01-06", Treatment: "Braces", Slot: "9am", Email: "p@example.com"})

	got, err := NewAvailabilityService(s, 0, nop).Available(context.Background(), "2024-01-05")
	require.NoError(t, err)
	assert.Equal(t, []string{"9am", "10am"}, got[0].Slots)
}

func TestAvailableIsIdempotent(t *testing.T) {
	s := newStore(t)
	seedOptions(t, s,
		models.AppointmentOption{Name: "Braces", Slots: []string{"9am", "10am"}},
		models.AppointmentOption{Name: "Cavity", Slots: []string{"9am"}},
	)
	seedBooking(t, s, models.Booking{AppointmentDate: "2024-01-05", Treatment: "Cavity", Slot: "9am", Email: "p@example.com"})

	svc := NewAvailabilityService(s, time.Minute, nop)
	first, err := svc.Available(context.Background(), "2024-01-05")
	require.NoError(t, err)
	second, err := svc.Available(context.Background(), "2024-01-05")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestAvailableEmptyDate(t *testing.T) {
	s := newStore(t)
	seedOptions(t, s, models.AppointmentOption{Name: "Braces", Slots: []string{"9am", "10am"}})
	seedBooking(t, s, models.Booking{AppointmentDate: "2024-01-05", Treatment: "Braces", Slot: "9am", Email: "p@example.com"})

	got, err := NewAvailabilityService(s, 0, nop).Available(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"9am", "10am"}, got[0].Slots)
}

func TestAvailableSeesNewBookingsWithCachedTemplates(t *testing.T) {
	s := newStore(t)
	seedOptions(t, s, models.AppointmentOption{Name: "Braces", Slots: []string{"9am", "10am"}})
	svc := NewAvailabilityService(s, time.Minute, nop)

	got, err := svc.Available(context.Background(), "2024-01-05")
	require.NoError(t, err)
	assert.Equal(t, []string{"9am", "10am"}, got[0].Slots)

	seedBooking(t, s, models.Booking{AppointmentDate: "2024-01-05", Treatment: "Braces", Slot: "10am", Email: "p@example.com"})

	got, err = svc.Available(context.Background(), "2024-01-05")
	require.NoError(t, err)
	assert.Equal(t, []string{"9am"}, got[0].Slots)
}

func TestSpecialtiesAndOption(t *testing.T) {
	s := newStore(t)
	seedOptions(t, s,
		models.AppointmentOption{Name: "Braces", Slots: []string{"9am"}},
		models.AppointmentOption{Name: "Cavity", Slots: []string{"10am"}},
	)
	svc := NewAvailabilityService(s, 0, nop)

	names, err := svc.Specialties(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Braces", "Cavity"}, names)

	opt, err := svc.Option(context.Background(), "Cavity")
	require.NoError(t, err)
	assert.Equal(t, []string{"10am"}, opt.Slots)

	_, err = svc.Option(context.Background(), "Implant")
	assert.Error(t, err)
}
