package router

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/harentsoaR/doctors-portal/internal/authz"
	"github.com/harentsoaR/doctors-portal/internal/handlers"
	"github.com/harentsoaR/doctors-portal/internal/middleware"
)

type Config struct {
	AllowedOrigins []string
	RateLimit      rate.Limit
	RateBurst      int
}

// New wires the HTTP surface. gatherer serves /metrics and should be the
// registry the handler metrics were registered on.
func New(h *handlers.Handler, tokens authz.TokenValidator, gatherer prometheus.Gatherer, cfg Config, log zerolog.Logger) *gin.Engine {
	engine := gin.New()

	engine.Use(
		middleware.RequestID(),
		middleware.Recovery(log),
		middleware.Logger(log),
		middleware.Metrics(h.Metrics),
		cors.New(corsConfig(cfg.AllowedOrigins)),
		middleware.NewRateLimiter(middleware.RateLimiterConfig{Rate: cfg.RateLimit, Burst: cfg.RateBurst}).RateLimit(),
	)

	token := middleware.Authorize(h.Metrics, authz.RequireToken(tokens))
	admin := middleware.Authorize(h.Metrics, authz.RequireAdmin(h.Users))
	owner := middleware.Authorize(h.Metrics, authz.RequireQueryOwner("email"))

	engine.GET("/", h.Health)
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	engine.GET("/appointmentOptions", h.GetAppointmentOptions)
	engine.GET("/appointmentSpecialty", h.GetAppointmentSpecialty)

	engine.GET("/jwt", h.IssueJWT)

	users := engine.Group("/users")
	{
		users.POST("", h.SaveUser)
		users.GET("", token, admin, h.GetUsers)
		users.GET("/admin/:email", h.CheckAdmin)
		users.PUT("/admin/:id", token, admin, h.MakeAdmin)
	}

	bookings := engine.Group("/bookings", token)
	{
		bookings.GET("", owner, h.GetBookings)
		bookings.GET("/:id", h.GetBooking)
		bookings.POST("", h.CreateBooking)
	}

	engine.POST("/create-payment-intent", token, h.CreatePaymentIntent)
	engine.POST("/payments", token, h.CreatePayment)

	doctors := engine.Group("/doctors", token, admin)
	{
		doctors.GET("", h.GetDoctors)
		doctors.POST("", h.AddDoctor)
		doctors.DELETE("/:id", h.DeleteDoctor)
	}

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
	return engine
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization", middleware.HeaderXRequestID},
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
