package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/time/rate"

	"github.com/harentsoaR/doctors-portal/internal/config"
	"github.com/harentsoaR/doctors-portal/internal/handlers"
	"github.com/harentsoaR/doctors-portal/internal/logger"
	"github.com/harentsoaR/doctors-portal/internal/metrics"
	"github.com/harentsoaR/doctors-portal/internal/router"
	"github.com/harentsoaR/doctors-portal/internal/services"
	"github.com/harentsoaR/doctors-portal/internal/store"
	"github.com/harentsoaR/doctors-portal/internal/utils"
)

func main() {
	cfg, dotenv, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	lg := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if !dotenv {
		lg.Info().Msg("no .env file found, relying on environment variables")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	st, closeStore, err := openStore(ctx, cfg, lg)
	cancel()
	if err != nil {
		lg.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("failed to open store")
	}
	defer closeStore()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New("doctors_portal", reg)

	tokens := utils.NewTokenManager(cfg.JWTSecret)
	var provider services.PaymentProvider
	if cfg.StripeSecretKey != "" {
		provider = services.NewStripeProvider(cfg.StripeSecretKey, cfg.StripeBaseURL, lg)
	} else {
		lg.Warn().Msg("STRIPE_SECRET_KEY not set, payment intents are disabled")
	}

	avail := services.NewAvailabilityService(st, cfg.OptionsCacheTTL, lg)
	h := handlers.NewHandler(handlers.Services{
		Availability:  avail,
		Bookings:      services.NewBookingService(st, avail, cfg.ValidateSlots, lg),
		Users:         services.NewUserService(st, tokens, lg),
		Payments:      services.NewPaymentService(st, provider, cfg.Currency, lg),
		Doctors:       services.NewDoctorService(st),
		Notifications: services.NewNotificationService(cfg.TextbeltKey, lg),
	}, m, lg)

	gin.SetMode(gin.ReleaseMode)
	engine := router.New(h, tokens, reg, router.Config{
		AllowedOrigins: cfg.AllowedOrigins,
		RateLimit:      rate.Limit(cfg.RateLimit),
		RateBurst:      cfg.RateBurst,
	}, lg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		lg.Info().Str("port", cfg.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	lg.Info().Msg("shutting down server")
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error().Err(err).Msg("server forced to shutdown")
	}
}

// openStore connects the configured backend and makes sure the unique
// indexes the booking and payment rules depend on exist.
func openStore(ctx context.Context, cfg *config.Config, lg zerolog.Logger) (store.Store, func(), error) {
	if cfg.StoreDriver == "memory" {
		mem := store.NewMemory()
		if err := store.EnsureIndexes(ctx, mem); err != nil {
			return nil, nil, err
		}
		lg.Warn().Msg("using in-memory store, data is lost on restart")
		return mem, func() {}, nil
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(dctx); err != nil {
			lg.Error().Err(err).Msg("failed to disconnect from MongoDB")
		}
	}
	if err := client.Ping(ctx, nil); err != nil {
		closeFn()
		return nil, nil, err
	}

	st := store.NewMongo(client.Database(cfg.MongoDatabase))
	if err := store.EnsureIndexes(ctx, st); err != nil {
		closeFn()
		return nil, nil, err
	}
	lg.Info().Str("database", cfg.MongoDatabase).Msg("connected to MongoDB")
	return st, closeFn, nil
}
