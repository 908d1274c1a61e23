// Command vinylindex is the CLI entrypoint: open the database, run schema
// migrations, and drive the background grooming job (spec §1's CLI/config
// loading is named an external collaborator; this is the minimal driver
// SPEC_FULL's ambient stack adds around it).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	_ "github.com/vinylindex/vinylindex/db/migrations"

	"github.com/vinylindex/vinylindex/conf"
	"github.com/vinylindex/vinylindex/core/grooming"
	"github.com/vinylindex/vinylindex/log"
	"github.com/vinylindex/vinylindex/persistence"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "vinylindex",
		Short: "vinylindex is a local-first music-library backend",
	}
	root.AddCommand(newMigrateCmd(), newServeCmd(), newGroomCmd())
	return root
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "run pending schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := conf.Load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			db, err := persistence.Open(ctx, cfg.Database)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer db.Close()

			if err := goose.SetDialect("sqlite3"); err != nil {
				return err
			}
			if err := goose.UpContext(ctx, db.DB(), "db/migrations"); err != nil {
				return fmt.Errorf("running migrations: %w", err)
			}
			log.Info(ctx, "cmd: migrations complete")
			return nil
		},
	}
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "open the database and run the grooming scheduler until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := conf.Load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			db, err := persistence.Open(ctx, cfg.Database)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer db.Close()

			groomer := persistence.NewGroomer(ctx, db)
			scheduler := grooming.NewScheduler(func(ctx context.Context) (grooming.Report, error) {
				report, err := groomer.Run(ctx)
				return grooming.Report(report), err
			})
			if err := scheduler.Start(ctx, cfg.Grooming.Interval); err != nil {
				return fmt.Errorf("starting grooming scheduler: %w", err)
			}
			log.Info(ctx, "cmd: serving", "groomingInterval", cfg.Grooming.Interval)

			// The request surface (HTTP transport, routing, serialization) is an
			// external collaborator out of spec §1's scope; this command's only
			// job is to keep the process and its background scheduler alive.
			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
			<-sig

			scheduler.Stop()
			return nil
		},
	}
}

func newGroomCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "groom",
		Short: "run one grooming pass and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := conf.Load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			db, err := persistence.Open(ctx, cfg.Database)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer db.Close()

			groomer := persistence.NewGroomer(ctx, db)
			report, err := groomer.Run(ctx)
			if err != nil {
				return fmt.Errorf("grooming: %w", err)
			}
			log.Info(ctx, "cmd: grooming pass complete",
				"orphanFacetsDeleted", report.OrphanFacetsDeleted,
				"orphanLabelsDeleted", report.OrphanLabelsDeleted,
				"orphanCueLabelsDeleted", report.OrphanCueLabelsDeleted,
				"playlistEntriesPruned", report.PlaylistEntriesPruned)
			return nil
		},
	}
}
