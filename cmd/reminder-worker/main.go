package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"tracker/internal/cli"
	applog "tracker/internal/log"
	"tracker/internal/services"
	"tracker/internal/worker"
)

func main() {
	cfg, logger := cli.Bootstrap(applog.ComponentReminder)
	logger.Info("Starting reminder-worker")

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	client := cli.ConnectAMQP(logger, cfg)
	if client == nil {
		logger.Error("Reminder worker requires AMQP", "amqp_url_set", cfg.AMQPEnabled())
		os.Exit(1)
	}
	defer client.Close()

	processor := services.NewReminderProcessor(repo, client, services.ReminderProcessorConfig{
		Interval:      cfg.ReminderInterval,
		LookaheadDays: cfg.ReminderLookaheadDays,
	})
	events := worker.NewEventWorker(repo, processor)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	if err := processor.Start(ctx); err != nil {
		logger.Error("Failed to start reminder processor", "error", err)
		os.Exit(1)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return client.ConsumeTransactionEvents(gctx, events.HandleTransactionEvent)
	})

	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Event consumer stopped", "error", err)
	}

	logger.Info("Shutting down reminder-worker...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := processor.Stop(shutdownCtx); err != nil {
		logger.Warn("Shutdown timeout reached", "error", err)
	}
	logger.Info("Reminder-worker shutdown complete")
}
