package main

import (
	"context"
	"errors"
	"time"

	"finanzas/internal/amqp"
	"finanzas/internal/cache"
	"finanzas/internal/cli"
	"finanzas/internal/worker"
)

func main() {
	logger, cfg := cli.Bootstrap("drift-worker")

	if cfg.AMQPURL == "" {
		cli.Fatal(logger.Logger, "Drift worker needs a broker", errors.New("AMQP_URL is not set"))
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPDriftQueue, cfg.AMQPEventsQueue)
	if err != nil {
		cli.Fatal(logger.Logger, "Failed to initialize AMQP client", err)
	}

	w := worker.NewDriftWorker(logger, 1000, 24*time.Hour)
	janitor := cache.NewJanitor(w.Seen())

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) {
		if err := client.Close(); err != nil {
			logger.Error("Failed to close AMQP client", "error", err)
		}
	})

	go janitor.Run(ctx, time.Hour)

	logger.Info("Starting drift worker",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPDriftQueue)

	if err := client.ConsumeDrift(ctx, w.HandleDriftAlert); err != nil && !errors.Is(err, context.Canceled) {
		cli.Fatal(logger.Logger, "Drift consumption failed", err)
	}

	cli.WaitForShutdown(ctx, done)
}
