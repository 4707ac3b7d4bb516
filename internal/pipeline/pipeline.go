package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/moxiedata/affiliate-ledger/internal/config"
	"github.com/moxiedata/affiliate-ledger/internal/logger"
)

// Step represents a single step in the extraction pipeline.
type Step interface {
	Execute(ctx context.Context, state *State) error
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []Step
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...Step) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps in the pipeline sequentially.
func (p *Pipeline) Execute(ctx context.Context, state *State) error {
	for i, step := range p.steps {
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline step %d failed: %w", i+1, err)
		}
	}
	return nil
}

// Deps bundles the external collaborators an extraction run needs.
type Deps struct {
	Feed      FeedClient
	Warehouse Warehouse
	Store     ObjectStore
	Notify    Notifier
	Overrides OverridesLoader
	Network   string
	Now       func() time.Time
}

func (d Deps) now() func() time.Time {
	if d.Now != nil {
		return d.Now
	}
	return time.Now
}

// NewExtractionPipeline creates the standard 8-step pipeline for one
// country/date extraction run.
func NewExtractionPipeline(deps Deps) *Pipeline {
	now := deps.now()
	return NewPipeline(
		&InitStep{Overrides: deps.Overrides},
		&ExtractStep{Feed: deps.Feed},
		&ArchiveRawStep{Store: deps.Store, Network: deps.Network, Now: now},
		&ReconcileStep{Warehouse: deps.Warehouse, Network: deps.Network},
		&FormatStep{Feed: deps.Feed, Network: deps.Network},
		&UploadStep{Store: deps.Store, Network: deps.Network, Now: now},
		&LoadStep{Warehouse: deps.Warehouse},
		&NotifyStep{Notify: deps.Notify},
	)
}

// Run executes one extraction run for a single country and report date.
// Any failure is reported through the notifier before being returned.
func Run(ctx context.Context, deps Deps, country string, reportDate time.Time) error {
	normalized, err := config.NormalizeCountry(country)
	if err != nil {
		return err
	}

	state := &State{
		RunID:      uuid.NewString(),
		Country:    normalized,
		ReportDate: reportDate,
	}

	log := logger.WithRun(logger.FromContext(ctx), state.RunID, deps.Network, normalized)
	ctx = logger.WithContext(ctx, log)

	log.Info().Str("report_date", reportDate.Format("2006-01-02")).Msg("starting extraction run")

	if err := NewExtractionPipeline(deps).Execute(ctx, state); err != nil {
		log.Error().Err(err).Msg("extraction run failed")
		if notifyErr := deps.Notify.RunFailed(ctx, normalized, err); notifyErr != nil {
			log.Error().Err(notifyErr).Msg("failure notification could not be delivered")
		}
		return fmt.Errorf("extraction run %s (%s): %w", normalized, reportDate.Format("2006-01-02"), err)
	}

	log.Info().Msg("extraction run complete")
	return nil
}

// Params identifies one extraction run in a multi-country batch.
type Params struct {
	Country    string
	ReportDate time.Time
}

// RunAll executes runs sequentially and stops at the first failure, so a
// broken country does not mask later ones with partial loads.
func RunAll(ctx context.Context, deps Deps, runs []Params) error {
	for _, run := range runs {
		if err := Run(ctx, deps, run.Country, run.ReportDate); err != nil {
			return err
		}
	}
	return nil
}
