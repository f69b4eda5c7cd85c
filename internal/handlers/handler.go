package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/harentsoaR/doctors-portal/internal/errs"
	"github.com/harentsoaR/doctors-portal/internal/metrics"
	"github.com/harentsoaR/doctors-portal/internal/services"
)

// Services groups what the handlers call into.
type Services struct {
	Availability  *services.AvailabilityService
	Bookings      *services.BookingService
	Users         *services.UserService
	Payments      *services.PaymentService
	Doctors       *services.DoctorService
	Notifications *services.NotificationService
}

type Handler struct {
	Services
	Metrics *metrics.Metrics
	Log     zerolog.Logger
}

func NewHandler(svc Services, m *metrics.Metrics, log zerolog.Logger) *Handler {
	return &Handler{
		Services: svc,
		Metrics:  m,
		Log:      log.With().Str("component", "http").Logger(),
	}
}

// respondError writes err in the {"error": ...} shape. Server-side failures
// are logged with their cause and reported to the client generically.
func (h *Handler) respondError(c *gin.Context, err error) {
	status := errs.StatusOf(err)
	if status >= http.StatusInternalServerError {
		h.Log.Error().Err(err).
			Str("request_id", c.GetString("request_id")).
			Str("path", c.FullPath()).
			Msg("request failed")
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": errs.PublicMessage(err)})
}

func (h *Handler) Health(c *gin.Context) {
	c.String(http.StatusOK, "doctors portal server is running")
}
