// cmd/server/main.go
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
	"github.com/streadway/amqp"
	"go.uber.org/zap"

	"github.com/unclebandit/blood-dispatch/internal/config"
	"github.com/unclebandit/blood-dispatch/internal/controller"
	"github.com/unclebandit/blood-dispatch/internal/db"
	"github.com/unclebandit/blood-dispatch/internal/gateway"
	"github.com/unclebandit/blood-dispatch/internal/handler"
	"github.com/unclebandit/blood-dispatch/internal/logger"
	"github.com/unclebandit/blood-dispatch/internal/queue"
	"github.com/unclebandit/blood-dispatch/internal/repository"
	"github.com/unclebandit/blood-dispatch/internal/service"
)

const migrationFile = "migrations/0001_init.sql"

func main() {
	envErr := godotenv.Load()
	cfg := config.Parse()

	log, err := logger.NewLogger(cfg.LogLevel, cfg.LogFormat, "blood-dispatch")
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	if envErr != nil {
		log.Warn("no .env file found, relying on OS environment variables")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(ctx, cfg.DB)
	if err != nil {
		log.Fatal("database unavailable", zap.Error(err))
	}
	defer conn.Close()

	if err := db.RunSQLFile(ctx, conn, migrationFile); err != nil {
		log.Fatal("migration failed", zap.Error(err))
	}

	gw, closeGateway, err := buildGateway(cfg, log)
	if err != nil {
		log.Fatal("notification gateway setup failed", zap.Error(err))
	}
	defer closeGateway()

	events := queue.NewInMemoryQueue(log)
	if err := queue.StartEventForwarder(events, eventSink(cfg, log), 5*time.Second, log); err != nil {
		log.Fatal("event forwarder setup failed", zap.Error(err))
	}

	svc := service.NewBloodRequestService(service.Dependencies{
		Hospitals:   &repository.HospitalRepository{DB: conn},
		Donors:      &repository.DonorRepository{DB: conn},
		Campaigns:   &repository.CampaignRepository{DB: conn},
		Requests:    &repository.BloodRequestRepository{DB: conn},
		Gateway:     gw,
		Messages:    &repository.OutboundMessageRepository{DB: conn},
		Events:      events,
		Logger:      log,
		Concurrency: cfg.DispatchConcurrency,
		Timeout:     cfg.DispatchTimeout,
	})

	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: newRouter(
			controller.NewBloodRequestController(svc, log),
			handler.NewBloodRequestHandler(svc, log),
			log,
			cfg.MaxBodyBytes,
		),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr), zap.String("gateway_mode", cfg.GatewayMode))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
	if err := events.Drain(shutdownCtx); err != nil {
		log.Warn("request events not fully forwarded", zap.Error(err))
	}
}

// buildGateway returns the notification gateway for the configured mode and
// a func releasing its resources.
func buildGateway(cfg config.Config, log *zap.Logger) (gateway.Gateway, func(), error) {
	if cfg.GatewayMode != "amqp" {
		r, err := gateway.NewDirectRouter(directConfig(cfg), log)
		return r, func() {}, err
	}

	conn, err := amqp.Dial(cfg.AMQPURL)
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	gw, err := gateway.NewAMQPGateway(ch, cfg.AMQPQueue)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, nil, err
	}
	return gw, func() {
		ch.Close()
		conn.Close()
	}, nil
}

func directConfig(cfg config.Config) gateway.DirectConfig {
	return gateway.DirectConfig{
		SMSAPIURL:        cfg.SMSAPIURL,
		SMSAPIKey:        cfg.SMSAPIKey,
		SMSFrom:          cfg.SMSFrom,
		ResendAPIKey:     cfg.ResendAPIKey,
		EmailFrom:        cfg.EmailFrom,
		TelegramBotToken: cfg.TelegramBotToken,
		Timeout:          10 * time.Second,
	}
}

func eventSink(cfg config.Config, log *zap.Logger) queue.EventSink {
	if cfg.RedisAddr == "" {
		return queue.LogSink{Logger: log}
	}
	return &queue.RedisStreamSink{
		Client: queue.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB),
		Stream: cfg.EventsStream,
		MaxLen: 100_000,
	}
}
