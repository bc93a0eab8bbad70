package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tracker/internal/cli"
	"tracker/internal/config"
	applog "tracker/internal/log"
	"tracker/internal/services"
	"tracker/internal/storage"
)

var (
	flagUser  string
	flagQuiet bool
)

var rootCmd = &cobra.Command{
	Use:           "tracker",
	Short:         "Personal finance tracker",
	Long:          "Inspect analytics and upcoming reminders, and manage the tracker database.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		cli.LoadEnvFile()
	},
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagUser, "user", "u", "", "User id to act as (default $TRACKER_USER)")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Only log warnings and errors")
}

// env is what a data command needs: configuration, a logger and an open
// repository. close must be called when done.
type env struct {
	cfg    *config.Config
	logger *applog.Logger
	repo   *storage.SQLiteRepository
}

func (e *env) close() { e.repo.Close() }

func openEnv() (*env, error) {
	cfg, err := cli.LoadConfig()
	if err != nil {
		return nil, err
	}
	if flagQuiet {
		cfg.LogLevel = "warn"
	}
	logger := cli.SetupLogger(cfg, applog.ComponentCLI)
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", cfg.SQLiteDBPath, err)
	}
	return &env{cfg: cfg, logger: logger, repo: repo}, nil
}

func (e *env) analytics() *services.AnalyticsService {
	categories := services.NewCategoryService(e.repo, 0)
	return services.NewAnalyticsService(e.repo, categories, e.cfg.NotificationMaxDays)
}

func requireUserFlag() error {
	if flagUser == "" {
		flagUser = os.Getenv("TRACKER_USER")
	}
	if flagUser == "" {
		return fmt.Errorf("a user id is required: pass --user or set TRACKER_USER")
	}
	return nil
}
