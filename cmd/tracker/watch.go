package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"tracker/internal/amqp"
	"tracker/internal/cli"
	applog "tracker/internal/log"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print reminders published by the reminder worker as they arrive",
	RunE:  runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(_ *cobra.Command, _ []string) error {
	cfg, err := cli.LoadConfig()
	if err != nil {
		return err
	}
	logger := cli.SetupLogger(cfg, applog.ComponentCLI)
	client := cli.ConnectAMQP(logger, cfg)
	if client == nil {
		return errors.New("watch needs a reachable AMQP broker (set AMQP_URL)")
	}
	defer client.Close()

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	err = client.ConsumeNotifications(ctx, func(_ context.Context, msg *amqp.NotificationMessage) error {
		if flagUser != "" && msg.UserID != flagUser {
			return nil
		}
		fmt.Printf("%s  %-12s %s\n", msg.Time, msg.UserID, msg.Message)
		return nil
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
