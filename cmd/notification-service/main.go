package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/iyhunko/academy-backend/internal/config"
	"github.com/iyhunko/academy-backend/internal/logger"
	sqspkg "github.com/iyhunko/academy-backend/internal/sqs"
)

func main() {
	conf, err := config.LoadConsumerFromEnv()
	handleErr("loading config", err)

	logger.InitJSONLogger(conf.DebugMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sqsClient, err := sqspkg.NewClient(ctx, conf.AWS)
	handleErr("creating SQS client", err)

	handlers := sqspkg.NotificationHandlers()
	consumer := sqspkg.NewConsumer(sqsClient, conf.AWS.SQSQueueURL, handlers.Handle)

	done := make(chan error, 1)
	go func() { done <- consumer.Start(ctx) }()
	slog.Info("notification service listening", slog.String("queue", conf.AWS.SQSQueueURL))

	if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
		handleErr("consuming notifications", err)
	}
	slog.Info("notification service stopped")
}

func handleErr(msg string, err error) {
	if err != nil {
		slog.Error("fatal error", slog.String("while", msg), slog.Any("err", err))
		os.Exit(1)
	}
}
