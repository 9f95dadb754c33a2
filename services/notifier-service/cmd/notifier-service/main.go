package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/bookora/bookora/libs/config"
	"github.com/bookora/bookora/libs/db"
	"github.com/bookora/bookora/libs/httpx"
	"github.com/bookora/bookora/libs/kafkax"
	otelx "github.com/bookora/bookora/libs/otel"
	"github.com/bookora/bookora/libs/runtime"
	"github.com/bookora/bookora/services/notifier-service/internal/consumer"
	"github.com/bookora/bookora/services/notifier-service/internal/email"
	"github.com/bookora/bookora/services/notifier-service/internal/inbox"
	"github.com/bookora/bookora/services/notifier-service/internal/sms"
	"github.com/bookora/bookora/services/notifier-service/internal/storage"
)

type reservationEvent struct {
	ReservationID string `json:"reservation_id"`
	BusinessID    string `json:"business_id"`
	EmployeeID    string `json:"employee_id"`
	ServiceID     string `json:"service_id"`
	Date          string `json:"date"`
	StartTime     string `json:"start_time"`
	Status        string `json:"status"`
	Reason        string `json:"reason"`
	CancelledAt   string `json:"cancelled_at"`
	ClientName    string `json:"client_name"`
	ClientEmail   string `json:"client_email"`
	ClientPhone   string `json:"client_phone"`
}

func messageFor(topic string, evt reservationEvent) (subject string, body string) {
	when := fmt.Sprintf("%s at %s", evt.Date, evt.StartTime)
	switch topic {
	case "reservation.cancelled.v1":
		subject = "Your reservation was cancelled"
		body = fmt.Sprintf("Hi %s, your reservation on %s has been cancelled.", evt.ClientName, when)
		if evt.Reason != "" {
			body += " Reason: " + evt.Reason + "."
		}
	default:
		subject = "Your reservation is booked"
		body = fmt.Sprintf("Hi %s, your reservation on %s is confirmed. See you then!", evt.ClientName, when)
	}
	return subject, body
}

func main() {
	service := config.String("SERVICE_NAME", "notifier-service")
	port, err := config.Port("PORT", "8085")
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

	inboxRepo := inbox.NewRepository(pool)
	notificationsRepo := storage.NewRepository(pool)

	smtpHost := config.String("SMTP_HOST", "mailpit")
	smtpPort := config.String("SMTP_PORT", "1025")
	smtpFrom := config.String("SMTP_FROM", "no-reply@bookora.local")
	emailSender := email.NewSMTPSender(smtpHost, smtpPort, smtpFrom)

	var smsSender sms.Sender
	switch strings.ToLower(config.String("SMS_PROVIDER", "noop")) {
	case "webhook":
		smsSender = sms.NewWebhookSender(
			config.String("SMS_WEBHOOK_URL", ""),
			config.String("SMS_WEBHOOK_TOKEN", ""),
		)
	default:
		smsSender = sms.NewNoopSender()
	}

	handleEvent := func(ctx context.Context, msg kafka.Message) error {
		var evt reservationEvent
		if err := json.Unmarshal(msg.Value, &evt); err != nil {
			logger.Error("invalid reservation event", "err", err, "topic", msg.Topic)
			return nil
		}
		if evt.ReservationID == "" || evt.BusinessID == "" {
			logger.Error("missing reservation event fields", "topic", msg.Topic)
			return nil
		}

		subject, body := messageFor(msg.Topic, evt)
		payload := map[string]any{
			"reservation_id": evt.ReservationID,
			"date":           evt.Date,
			"start_time":     evt.StartTime,
			"subject":        subject,
		}

		if evt.ClientEmail != "" {
			status := "sent"
			if err := emailSender.Send(evt.ClientEmail, subject, body); err != nil {
				status = "failed"
				logger.Error("email send failed", "err", err, "reservation_id", evt.ReservationID)
			}
			if err := notificationsRepo.Insert(ctx, storage.Notification{
				ReservationID: evt.ReservationID,
				BusinessID:    evt.BusinessID,
				Channel:       "email",
				Recipient:     evt.ClientEmail,
				Payload:       payload,
				Status:        status,
			}); err != nil {
				return err
			}
		}

		if evt.ClientPhone != "" {
			status := "sent"
			if err := smsSender.Send(ctx, evt.ClientPhone, body); err != nil {
				status = "failed"
				logger.Error("sms send failed", "err", err, "reservation_id", evt.ReservationID)
			}
			if err := notificationsRepo.Insert(ctx, storage.Notification{
				ReservationID: evt.ReservationID,
				BusinessID:    evt.BusinessID,
				Channel:       "sms",
				Recipient:     evt.ClientPhone,
				Payload:       payload,
				Status:        status,
			}); err != nil {
				return err
			}
		}

		logger.Info("reservation event processed", "reservation_id", evt.ReservationID, "topic", msg.Topic)
		return nil
	}

	startConsumer := func(topic string) {
		if strings.TrimSpace(topic) == "" {
			return
		}
		eventConsumer := consumer.New(logger, inboxRepo, consumer.Config{
			Brokers: config.String("KAFKA_BROKERS", ""),
			GroupID: config.String("KAFKA_GROUP_ID", "notifier-service"),
			Topic:   topic,
		}, handleEvent)
		go eventConsumer.Run(ctx)
	}

	startConsumer(config.String("KAFKA_CONSUME_TOPIC", "reservation.created.v1"))
	startConsumer(config.String("KAFKA_CONSUME_TOPIC_2", "reservation.cancelled.v1"))

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(config.String("KAFKA_BROKERS", ""))},
	)
	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	handler = otelhttp.NewHandler(handler, "notifier")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
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
