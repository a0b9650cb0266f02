package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/streadway/amqp"
	"go.uber.org/zap"

	"github.com/unclebandit/blood-dispatch/internal/config"
	"github.com/unclebandit/blood-dispatch/internal/db"
	"github.com/unclebandit/blood-dispatch/internal/gateway"
	"github.com/unclebandit/blood-dispatch/internal/logger"
	"github.com/unclebandit/blood-dispatch/internal/repository"
	"github.com/unclebandit/blood-dispatch/internal/service"
)

func main() {
	envErr := godotenv.Load()
	cfg := config.Parse()

	log, err := logger.NewLogger(cfg.LogLevel, cfg.LogFormat, "blood-dispatch-worker")
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	if envErr != nil {
		log.Warn("no .env file found, relying on OS environment variables")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// delivery attempts go to the same notification log the server writes
	conn, err := db.Open(ctx, cfg.DB)
	if err != nil {
		log.Fatal("database unavailable", zap.Error(err))
	}
	defer conn.Close()

	router, err := gateway.NewDirectRouter(gateway.DirectConfig{
		SMSAPIURL:        cfg.SMSAPIURL,
		SMSAPIKey:        cfg.SMSAPIKey,
		SMSFrom:          cfg.SMSFrom,
		ResendAPIKey:     cfg.ResendAPIKey,
		EmailFrom:        cfg.EmailFrom,
		TelegramBotToken: cfg.TelegramBotToken,
		Timeout:          10 * time.Second,
	}, log)
	if err != nil {
		log.Fatal("notification providers setup failed", zap.Error(err))
	}

	// Connect to RabbitMQ
	broker, err := amqp.Dial(cfg.AMQPURL)
	if err != nil {
		log.Fatal("failed to connect to RabbitMQ", zap.Error(err))
	}
	defer broker.Close()

	ch, err := broker.Channel()
	if err != nil {
		log.Fatal("failed to open a channel", zap.Error(err))
	}
	defer ch.Close()

	requeue, err := gateway.NewAMQPGateway(ch, cfg.AMQPQueue)
	if err != nil {
		log.Fatal("failed to declare queue", zap.Error(err))
	}
	if err := ch.Qos(cfg.DispatchConcurrency, 0, false); err != nil {
		log.Fatal("failed to set prefetch", zap.Error(err))
	}

	msgs, err := ch.Consume(
		cfg.AMQPQueue,
		"",
		false, // autoAck = false for reliability
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		log.Fatal("failed to register consumer", zap.Error(err))
	}

	log.Info("worker running, waiting for notification jobs", zap.String("queue", cfg.AMQPQueue))
	notifier := service.NewNotifier(router, &repository.OutboundMessageRepository{DB: conn}, log)
	service.NewWorker(notifier, requeue, log).Start(ctx, msgs)
	log.Info("worker stopped")
}
