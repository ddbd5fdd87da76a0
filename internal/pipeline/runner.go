// Package pipeline sequences the collection, enrichment, recommendation
// and publishing stages.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Stage is one named step of the pipeline.
type Stage struct {
	Name string
	Run  func(ctx context.Context) error
}

// Runner executes stages in fixed order. A failed stage is recorded and
// the remaining stages still run; the pipeline is not resumable, a crash
// mid-stage requires a full re-run, which is safe because every write
// path is upsert-style.
type Runner struct {
	stages []Stage
	log    *slog.Logger
}

// NewRunner creates a Runner over the given stages.
func NewRunner(stages []Stage, log *slog.Logger) *Runner {
	if log == nil {
		log = slog.Default()
	}
	return &Runner{stages: stages, log: log.With("service", "pipeline")}
}

// Run executes all stages and returns an error naming the failed ones,
// or nil when every stage passed.
func (r *Runner) Run(ctx context.Context) error {
	runID := uuid.NewString()
	log := r.log.With("run_id", runID)
	log.Info("pipeline starting", "stages", len(r.stages))

	var failures []error
	for _, stage := range r.stages {
		if err := ctx.Err(); err != nil {
			return err
		}
		start := time.Now()
		err := stage.Run(ctx)
		duration := time.Since(start)
		if err != nil {
			log.Error("stage failed", "stage", stage.Name, "duration", duration, "error", err)
			failures = append(failures, fmt.Errorf("stage %s: %w", stage.Name, err))
			continue
		}
		log.Info("stage complete", "stage", stage.Name, "duration", duration)
	}

	if len(failures) > 0 {
		log.Error("pipeline finished with failures", "failed", len(failures))
		return errors.Join(failures...)
	}
	log.Info("pipeline complete")
	return nil
}
