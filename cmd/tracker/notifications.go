package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"tracker/internal/cli"
)

var flagDays int

var notificationsCmd = &cobra.Command{
	Use:     "notifications",
	Aliases: []string{"upcoming"},
	Short:   "List payments and income due in the next days",
	RunE:    runNotifications,
}

func init() {
	notificationsCmd.Flags().IntVarP(&flagDays, "days", "n", 3, "Lookahead window in days")
	rootCmd.AddCommand(notificationsCmd)
}

func runNotifications(_ *cobra.Command, _ []string) error {
	if err := requireUserFlag(); err != nil {
		return err
	}
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.close()

	notes, err := e.analytics().Notifications(context.Background(), flagUser, flagDays, time.Now())
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(notes))
	for _, n := range notes {
		rows = append(rows, []string{n.Time, n.Message})
	}
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   fmt.Sprintf("Upcoming, next %d days", flagDays),
		Headers: []string{"Due", "Reminder"},
		Rows:    rows,
	}))
	return nil
}
