package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/bookora/bookora/libs/config"
	"github.com/bookora/bookora/libs/db"
	"github.com/bookora/bookora/libs/httpx"
	"github.com/bookora/bookora/libs/kafkax"
	otelx "github.com/bookora/bookora/libs/otel"
	"github.com/bookora/bookora/libs/runtime"
	"github.com/bookora/bookora/services/reservation-service/internal/booking"
	"github.com/bookora/bookora/services/reservation-service/internal/handlers"
	"github.com/bookora/bookora/services/reservation-service/internal/outbox"
	"github.com/bookora/bookora/services/reservation-service/internal/schedule"
	"github.com/bookora/bookora/services/reservation-service/internal/storage"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func parseList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func bookingPolicyFromEnv() booking.Policy {
	policy := booking.DefaultPolicy()
	policy.StepMinutes = config.Int("SLOT_STEP_MINUTES", policy.StepMinutes)
	policy.PendingBlocks = config.Bool("PENDING_BLOCKS_SLOT", policy.PendingBlocks)
	switch strings.ToLower(config.String("RESERVATION_INITIAL_STATUS", string(policy.InitialStatus))) {
	case string(schedule.StatusPending):
		policy.InitialStatus = schedule.StatusPending
	default:
		policy.InitialStatus = schedule.StatusConfirmed
	}
	return policy
}

func main() {
	service := config.String("SERVICE_NAME", "reservation-service")
	port, err := config.Port("PORT", "8084")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}

	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	outboxRepo := outbox.NewRepository(pool)
	profiles := storage.NewProfileRepository(pool)
	reservations := storage.NewReservationRepository(pool, outboxRepo, logger)
	engine := booking.NewEngine(profiles, reservations, bookingPolicyFromEnv(), logger)

	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	reservationHandler := handlers.NewReservationHandler(engine, logger)

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(config.String("KAFKA_BROKERS", ""))},
	)
	mux.HandleFunc("/api/v1/public/slots", reservationHandler.Slots)
	mux.HandleFunc("/api/v1/public/employees", reservationHandler.EligibleEmployees)
	mux.HandleFunc("/api/v1/public/reservations", reservationHandler.Create)
	mux.HandleFunc("/api/v1/reservations", reservationHandler.List)
	mux.HandleFunc("/api/v1/reservations/cancel", reservationHandler.Cancel)

	middlewares := []httpx.Middleware{
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins: parseList(config.String("CORS_ALLOWED_ORIGINS", "")),
			AllowedMethods: parseList(config.String("CORS_ALLOWED_METHODS", "GET,POST,OPTIONS")),
			AllowedHeaders: parseList(config.String("CORS_ALLOWED_HEADERS", "Content-Type,X-Request-Id")),
			MaxAge:         config.Duration("CORS_MAX_AGE", 10*time.Minute),
		}),
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(1 << 20),
		httpx.WithTimeout(config.Duration("REQUEST_TIMEOUT", 15*time.Second)),
	}
	if redisAddr := config.String("REDIS_ADDR", ""); redisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
		limiter := httpx.NewRedisRateLimiter(rdb,
			config.Int("RATE_LIMIT_PER_MINUTE", 120), time.Minute, service)
		middlewares = append(middlewares, limiter.Middleware(logger, true))
	} else {
		limiter := httpx.NewRateLimiter(config.Int("RATE_LIMIT_PER_MINUTE", 120), time.Minute)
		middlewares = append(middlewares, limiter.Middleware())
	}
	httpHandler := httpx.Chain(mux, middlewares...)
	httpHandler = otelhttp.NewHandler(httpHandler, "reservation")

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}
