package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/diagnosis/chefconnect/pkg/auth"
	"github.com/diagnosis/chefconnect/pkg/cache"
	"github.com/diagnosis/chefconnect/pkg/config"
	"github.com/diagnosis/chefconnect/pkg/database"
	"github.com/diagnosis/chefconnect/pkg/events"
	"github.com/diagnosis/chefconnect/pkg/logger"
	mw "github.com/diagnosis/chefconnect/pkg/middleware"
	"github.com/diagnosis/chefconnect/services/marketplace/internal/handlers"
	"github.com/diagnosis/chefconnect/services/marketplace/internal/payments"
	"github.com/diagnosis/chefconnect/services/marketplace/internal/repository"
	"github.com/diagnosis/chefconnect/services/marketplace/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Error("Marketplace service error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	// Connect to database
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, pool); err != nil {
			return err
		}
	}

	// Connect to event bus
	var publisher events.Publisher = events.NopPublisher{}
	if cfg.NATS.URL != "" {
		bus, err := events.NewNATSEventBus(cfg.NATS.URL, "marketplace")
		if err != nil {
			return err
		}
		defer bus.Close()
		publisher = bus
	} else {
		logger.Warn("NATS_URL not set, events will be dropped")
	}

	// Identity provider
	var verifier auth.Verifier
	if cfg.Firebase.Enabled() {
		verifier = auth.NewFirebaseVerifier(cfg.Firebase.ProjectID)
	} else {
		logger.Warn("Firebase not configured, accepting dev tokens")
		verifier = auth.NewDevVerifier(cfg.Firebase.DevSecret)
	}
	var admin auth.Admin = auth.DevAdmin{}
	if cfg.Firebase.AdminEnabled() {
		admin = auth.NewFirebaseAdmin(ctx, cfg.Firebase.ProjectID, cfg.Firebase.ClientEmail, cfg.Firebase.PrivateKey)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(pool)
	chefRepo := repository.NewChefRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	tx := database.NewTransactor(pool)

	// Initialize services
	userService := service.NewUserService(userRepo, verifier, admin, publisher)
	chefService := service.NewChefService(chefRepo, userRepo, tx, publisher)
	bookingService := service.NewBookingService(bookingRepo, chefRepo, userRepo, tx, publisher, service.BookingOptions{
		StrictTransitions: cfg.Booking.StrictTransitions,
	})
	var paymentService service.PaymentService
	if cfg.Stripe.Enabled() {
		gateway := payments.NewStripeGateway(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret)
		paymentService = service.NewPaymentService(bookingRepo, chefRepo, userRepo, tx, gateway, publisher, cfg.Stripe.Currency)
	} else {
		logger.Warn("Stripe not configured, payment routes disabled")
	}

	// Optional Redis-backed middleware
	var opts handlers.RouteOptions
	if cfg.Redis.URL != "" {
		store, err := cache.NewRedisStore(ctx, cfg.Redis.URL)
		if err != nil {
			return err
		}
		defer store.Close()

		opts.Idempotency = mw.Idempotency(store, cfg.Redis.IdempotencyTTL)
		opts.AuthRateLimit = mw.NewRateLimiter(store, mw.RateLimitConfig{
			Requests: cfg.Redis.AuthRateLimit,
			Window:   cfg.Redis.AuthRateWindow,
			Prefix:   "ratelimit:verify-otp",
		}).Middleware()
	} else {
		logger.Warn("REDIS_URL not set, idempotency keys and auth rate limiting disabled")
	}

	h := handlers.New(userService, chefService, bookingService, paymentService, verifier)

	// Setup router
	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("marketplace"))
	r.Use(mw.Logging)
	r.Use(chimw.Recoverer)
	r.Use(mw.CORS(cfg.CORS.AllowedOrigins))
	r.Use(mw.Health)
	h.Register(r, opts)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting marketplace service", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down marketplace service...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
