package cli

import (
	"github.com/spf13/cobra"

	"github.com/wisp-cms/wisp/internal/app/storage/migrate"
	"github.com/wisp-cms/wisp/internal/config"
)

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateDropCmd, migrateVersionCmd)
	rootCmd.AddCommand(migrateCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

// newRunner builds a migration runner from the ambient configuration.
func newRunner() (*migrate.Runner, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return migrate.NewRunner(cfg.Database.Driver, cfg.DatabaseDSN(), nil)
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		runner, err := newRunner()
		if err != nil {
			return err
		}
		return runner.Up()
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll all migrations back",
	RunE: func(cmd *cobra.Command, args []string) error {
		runner, err := newRunner()
		if err != nil {
			return err
		}
		return runner.Down()
	},
}

var migrateDropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Drop everything in the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		runner, err := newRunner()
		if err != nil {
			return err
		}
		return runner.Drop()
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the current schema version",
	RunE: func(cmd *cobra.Command, args []string) error {
		runner, err := newRunner()
		if err != nil {
			return err
		}
		version, dirty, err := runner.Version()
		if err != nil {
			return err
		}
		switch {
		case version == 0:
			cmd.Println("no migrations applied")
		case dirty:
			cmd.Printf("version %d (dirty)\n", version)
		default:
			cmd.Printf("version %d\n", version)
		}
		return nil
	},
}
