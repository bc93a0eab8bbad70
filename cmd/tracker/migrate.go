package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tracker/internal/cli"
	"tracker/internal/storage"
)

var flagSteps int

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(_ *cobra.Command, _ []string) error {
		path, err := dbPath()
		if err != nil {
			return err
		}
		if err := storage.RunMigrations(path); err != nil {
			return err
		}
		return printVersion(path)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Revert the most recent migrations",
	RunE: func(_ *cobra.Command, _ []string) error {
		path, err := dbPath()
		if err != nil {
			return err
		}
		if err := storage.RollbackMigrations(path, flagSteps); err != nil {
			return err
		}
		return printVersion(path)
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the applied schema version",
	RunE: func(_ *cobra.Command, _ []string) error {
		path, err := dbPath()
		if err != nil {
			return err
		}
		return printVersion(path)
	},
}

func init() {
	migrateDownCmd.Flags().IntVar(&flagSteps, "steps", 1, "Number of migrations to revert")
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateVersionCmd)
	rootCmd.AddCommand(migrateCmd)
}

func dbPath() (string, error) {
	cfg, err := cli.LoadConfig()
	if err != nil {
		return "", err
	}
	return cfg.SQLiteDBPath, nil
}

func printVersion(path string) error {
	version, dirty, err := storage.MigrationVersion(path)
	if err != nil {
		return err
	}
	state := "clean"
	if dirty {
		state = "dirty"
	}
	fmt.Printf("%s: schema version %d (%s)\n", path, version, state)
	return nil
}
