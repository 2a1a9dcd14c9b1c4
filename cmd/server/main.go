package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/ociferry/ferry-booking/internal/api"
	"github.com/ociferry/ferry-booking/internal/api/handler"
	"github.com/ociferry/ferry-booking/internal/api/middleware"
	"github.com/ociferry/ferry-booking/internal/core/ports"
	"github.com/ociferry/ferry-booking/internal/core/service"
	mongostore "github.com/ociferry/ferry-booking/internal/infrastructure/db/mongo"
	redisstore "github.com/ociferry/ferry-booking/internal/infrastructure/db/redis"
	"github.com/ociferry/ferry-booking/internal/infrastructure/identity"
	"github.com/ociferry/ferry-booking/internal/infrastructure/payment"
	"github.com/ociferry/ferry-booking/internal/infrastructure/queue"
	"github.com/ociferry/ferry-booking/internal/pkg/config"
	"github.com/ociferry/ferry-booking/pkg/logger"
)

const (
	serviceName     = "ferry-booking"
	shutdownTimeout = 15 * time.Second
)

func main() {
	// ── Load .env file ───────────────────────────────────────────────────
	_ = godotenv.Load() // a missing .env is fine outside development

	// ── Configuration ────────────────────────────────────────────────────
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: serviceName,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Str("payment_provider", cfg.Payment.Provider).
		Msg("starting ferry booking api")

	// ── Storage ──────────────────────────────────────────────────────────
	mongoClient, db, err := mongostore.Connect(ctx, mongostore.Config{
		URI:         cfg.Mongo.URI,
		Database:    cfg.Mongo.Database,
		AppName:     serviceName,
		MaxPoolSize: cfg.Mongo.MaxPoolSize,
	})
	if err != nil {
		return err
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoClient.Disconnect(disconnectCtx)
	}()

	rdb, err := redisstore.Connect(ctx, redisstore.Config{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		PoolSize:   cfg.Redis.PoolSize,
		ClientName: serviceName,
	})
	if err != nil {
		return err
	}
	defer rdb.Close()

	accounts := mongostore.NewAccountRepository(db)
	profiles := mongostore.NewProfileRepository(db)
	routes := mongostore.NewRouteRepository(db)
	bookingTable := mongostore.NewBookingRepository(db)
	audit := mongostore.NewBookingAuditRepository(db)

	if err := mongostore.EnsureIndexes(ctx, accounts, profiles, bookingTable); err != nil {
		return err
	}
	log.Debug().Msg("indexes ensured")

	bookingCache := redisstore.NewBookingCache(rdb)
	checkouts := redisstore.NewCheckoutStore(rdb)
	sessionRecords := redisstore.NewSessionStore(rdb, logger.Component("session-store"))

	// ── Identity store and session events ────────────────────────────────
	identityStore := identity.NewStore(accounts, sessionRecords, identity.Options{
		JWTSecret:                cfg.Auth.JWTSecret,
		SessionTTL:               cfg.Auth.SessionTTL,
		SignupsEnabled:           cfg.Auth.SignupsEnabled,
		RequireEmailConfirmation: cfg.Auth.RequireEmailConfirmation,
		SweepInterval:            cfg.Session.SweepInterval,
	}, logger.Component("identity"))

	bookingStore := service.NewBookingStore(bookingCache, bookingTable, logger.Component("booking-store"))

	registry := service.NewSessionRegistry(identityStore, profiles, bookingStore, service.ResolverOptions{
		AdminEmail:   cfg.Auth.AdminEmail,
		Retries:      cfg.Session.ProfileRetries,
		RetryBackoff: cfg.Session.ProfileRetryBackoff,
	}, logger.Component("session"))

	dispatcher := queue.NewDispatcher(cfg.Session.EventWorkers, registry, logger.Component("session-events"))
	dispatcher.Start(ctx)
	unsubscribe := identityStore.Subscribe(dispatcher.Enqueue)
	defer unsubscribe()

	if err := identityStore.Run(ctx); err != nil {
		return err
	}

	// ── Services ─────────────────────────────────────────────────────────
	routeService := service.NewRouteService(routes, logger.Component("routes"))
	if cfg.SeedRoutes {
		n, err := routeService.SeedDefaults(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			log.Info().Int("routes", n).Msg("seeded default routes")
		}
	}

	bookingService := service.NewBookingService(
		bookingStore,
		routes,
		profiles,
		checkouts,
		newPaymentWidget(cfg),
		audit,
		cfg.Checkout.TTL,
		logger.Component("bookings"),
	)

	// ── HTTP ─────────────────────────────────────────────────────────────
	authLimiter := middleware.NewRateLimiter(middleware.PerMinute(cfg.Auth.SignInRatePerMinute), logger.Component("ratelimit"))
	defer authLimiter.Stop()

	e := api.NewRouter(api.Dependencies{
		Sessions: registry,
		Bookings: bookingService,
		Routes:   routeService,
		Readiness: map[string]handler.Pinger{
			"mongodb": handler.MongoPinger(db),
			"redis":   handler.RedisPinger(rdb),
		},
		AuthLimiter: authLimiter,
	}, logger.Component("http"))

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", ":"+cfg.Port).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func newPaymentWidget(cfg *config.Config) ports.PaymentWidget {
	if cfg.Payment.Provider == "paystack" {
		return payment.NewPaystack(payment.PaystackConfig{
			SecretKey:   cfg.Payment.PaystackSecretKey,
			BaseURL:     cfg.Payment.PaystackBaseURL,
			Currency:    cfg.Payment.Currency,
			CallbackURL: cfg.Payment.CallbackURL,
		}, logger.Component("paystack"))
	}
	return payment.NewSimulated(logger.Component("payment"))
}
