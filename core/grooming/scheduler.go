// Package grooming schedules the background maintenance job spec §5
// describes: an exclusive writer slot that sweeps orphan dictionary rows and
// dangling playlist entries, then truncates the WAL. The sweep itself lives
// in persistence.Groomer; this package only drives it on a schedule, the same
// narrow-collaborator split core/importer uses for the file importer.
package grooming

import (
	"context"

	"github.com/robfig/cron/v3"

	"github.com/vinylindex/vinylindex/log"
)

// Report mirrors persistence.GroomReport field-for-field so this package
// doesn't need to import persistence directly; callers convert at the
// wiring boundary (cmd), the same pattern core/importer's ReconcileDecision
// uses for persistence.ReconcileResult.
type Report struct {
	OrphanFacetsDeleted    int64
	OrphanLabelsDeleted    int64
	OrphanCueLabelsDeleted int64
	PlaylistEntriesPruned  int64
}

// Runner performs one grooming pass.
type Runner func(ctx context.Context) (Report, error)

// Scheduler drives a Runner on a cron schedule.
type Scheduler struct {
	run  Runner
	cron *cron.Cron
}

// NewScheduler constructs a Scheduler around run, not yet started.
func NewScheduler(run Runner) *Scheduler {
	return &Scheduler{run: run, cron: cron.New()}
}

// Start schedules run on spec (a robfig/cron/v3 expression, e.g. "@every 1h")
// and begins running it in the background.
func (s *Scheduler) Start(ctx context.Context, spec string) error {
	_, err := s.cron.AddFunc(spec, func() {
		report, err := s.run(ctx)
		if err != nil {
			log.Error(ctx, "grooming: pass failed", err)
			return
		}
		log.Info(ctx, "grooming: pass complete",
			"orphanFacetsDeleted", report.OrphanFacetsDeleted,
			"orphanLabelsDeleted", report.OrphanLabelsDeleted,
			"orphanCueLabelsDeleted", report.OrphanCueLabelsDeleted,
			"playlistEntriesPruned", report.PlaylistEntriesPruned)
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop halts the scheduler, waiting for any in-flight pass to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// RunOnce runs a single grooming pass synchronously, bypassing the schedule.
// The `groom` CLI subcommand calls persistence.Groomer.Run directly instead.
func (s *Scheduler) RunOnce(ctx context.Context) (Report, error) {
	return s.run(ctx)
}
