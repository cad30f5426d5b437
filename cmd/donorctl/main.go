package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/matkukla/DonorCRM/internal/config"
	"github.com/matkukla/DonorCRM/internal/service"
	"github.com/matkukla/DonorCRM/internal/store"
)

var Version = "dev"

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:     "donorctl",
		Short:   "Operational commands for the DonorCRM database",
		Version: Version,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Optional config file (env vars take precedence)")

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(sweepCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openStore(cmd *cobra.Command) (*config.Config, *store.Store, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	cfg.ConfigureLogging()

	db, err := store.NewStore(cmd.Context(), cfg.DBSource)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create any missing tables and indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.Migrate(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("schema is up to date")
			return nil
		},
	}
}

func sweepCmd() *cobra.Command {
	var graceDays int
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Re-check every active pledge for lateness once",
		Long: `Run the late pledge sweep once and exit.

Each active pledge is re-evaluated in its own transaction. A pledge that has
just become late raises a notification for its contact's owner; pledges that
were already late only have their day count refreshed.

Examples:
  donorctl sweep
  donorctl sweep --grace-days 5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("grace-days") && graceDays < 0 {
				return fmt.Errorf("--grace-days must be >= 0, got %d", graceDays)
			}
			cfg, db, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			if !cmd.Flags().Changed("grace-days") {
				graceDays = cfg.LateGraceDays
			}
			res, err := service.NewPledgeService(db, graceDays).SweepLatePledges(cmd.Context())
			fmt.Printf("checked=%d updated=%d newly_late=%d failed=%d\n", res.Checked, res.Updated, res.NewlyLate, res.Failed)
			return err
		},
	}
	cmd.Flags().IntVar(&graceDays, "grace-days", 0, "Override LATE_GRACE_DAYS for this run")
	return cmd
}
