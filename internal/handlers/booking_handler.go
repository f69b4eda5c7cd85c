package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/doctors-portal/internal/authz"
	"github.com/harentsoaR/doctors-portal/internal/middleware"
	"github.com/harentsoaR/doctors-portal/internal/services"
)

// GetBookings lists the caller's bookings. The route gate has already
// checked that ?email= is the caller.
func (h *Handler) GetBookings(c *gin.Context) {
	bookings, err := h.Bookings.ListByEmail(c.Request.Context(), c.Query("email"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookings)
}

func (h *Handler) GetBooking(c *gin.Context) {
	booking, err := h.Bookings.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := authz.CheckOwner(middleware.IdentityFrom(c), booking.Email); err != nil {
		h.deny(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

// CreateBooking admits a booking for the caller. A repeat booking for the
// same day and treatment is answered with acknowledged=false, not an error
// status.
func (h *Handler) CreateBooking(c *gin.Context) {
	var req services.BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := authz.CheckOwner(middleware.IdentityFrom(c), req.Email); err != nil {
		h.deny(c, err)
		return
	}

	adm, err := h.Bookings.Admit(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !adm.Acknowledged {
		h.Metrics.BookingsRejected.WithLabelValues(adm.Reason).Inc()
		c.JSON(http.StatusOK, adm)
		return
	}

	h.Metrics.BookingsAdmitted.Inc()
	h.Notifications.SendBookingConfirmationSMS(adm.Booking)
	c.JSON(http.StatusOK, adm)
}

// deny answers a failed in-handler ownership check.
func (h *Handler) deny(c *gin.Context, err error) {
	h.Metrics.AuthDenied.WithLabelValues("403").Inc()
	h.respondError(c, err)
}
