// Package enrich runs the region enrichment batch: it loads the reference
// regions, scans every monster, classifies the unclassified ones one at a
// time, and writes each result back.
package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackzampolin/bestiary/internal/classify"
	"github.com/jackzampolin/bestiary/internal/monsters"
	classifyprompt "github.com/jackzampolin/bestiary/internal/prompts/classify"
	"github.com/jackzampolin/bestiary/internal/regions"
)

// Source supplies every stored record.
type Source interface {
	FetchAll(ctx context.Context) ([]monsters.Monster, error)
}

// Classifier turns a prompt into a region result.
type Classifier interface {
	Classify(ctx context.Context, name, prompt string, known regions.Context) (*classify.Result, error)
}

// Updater writes a result back and reports whether it was stored.
type Updater interface {
	Apply(ctx context.Context, name string, res *classify.Result) bool
}

// Config controls a run.
type Config struct {
	// RegionsFile is the reference dataset path.
	RegionsFile string
	// Delay is the minimum spacing between classification calls. Zero or
	// negative disables pacing.
	Delay time.Duration
	// Sentinel marks records that still need a region.
	Sentinel string
}

// DefaultConfig returns the standard run settings.
func DefaultConfig() Config {
	return Config{
		RegionsFile: "regions.json",
		Delay:       30 * time.Second,
		Sentinel:    monsters.Sentinel,
	}
}

// Runner executes enrichment runs. It is single-goroutine; a Runner must
// not run concurrently with itself.
type Runner struct {
	cfg        Config
	source     Source
	classifier Classifier
	updater    Updater
	pacer      *pacer
	logger     *slog.Logger
}

// New creates a Runner.
func New(cfg Config, source Source, classifier Classifier, updater Updater, logger *slog.Logger) *Runner {
	if cfg.Sentinel == "" {
		cfg.Sentinel = monsters.Sentinel
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		cfg:        cfg,
		source:     source,
		classifier: classifier,
		updater:    updater,
		pacer:      newPacer(cfg.Delay),
		logger:     logger,
	}
}

// SetDelay changes the pacing delay, including for a run in progress.
func (r *Runner) SetDelay(d time.Duration) {
	r.pacer.setDelay(d)
	r.logger.Info("pacing delay updated", "delay", d)
}

// Run performs one enrichment pass. Fatal preconditions (no regions, scan
// failure) return an error and no report. Per-record failures are recorded
// in the report. On cancellation the partial report is returned together
// with the context error.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	known := regions.LoadContext(r.cfg.RegionsFile, r.logger)
	if known.Empty() {
		return nil, fmt.Errorf("%w in %s", regions.ErrNoRegions, r.cfg.RegionsFile)
	}
	r.logger.Info("regions loaded", "count", len(known.Names))

	records, err := r.source.FetchAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch monsters: %w", err)
	}
	r.logger.Info("monsters fetched", "count", len(records))

	report := newReport(len(records))
	defer report.finish()

	for _, m := range records {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		if m.Classified(r.cfg.Sentinel) {
			r.logger.Debug("skipping monster", "name", m.Name, "region", m.Region)
			report.add(Outcome{Name: m.Name, Status: StatusSkipped, Region: m.Region})
			continue
		}

		if err := r.pacer.wait(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return report, ctxErr
			}
			return report, err
		}

		report.add(r.process(ctx, m, known))
	}

	return report, nil
}

func (r *Runner) process(ctx context.Context, m monsters.Monster, known regions.Context) Outcome {
	r.logger.Info("classifying monster", "name", m.Name)

	prompt := classifyprompt.Build(m, known)
	res, err := r.classifier.Classify(ctx, m.Name, prompt, known)
	if err != nil {
		r.logger.Warn("classification failed", "name", m.Name, "error", err)
		return Outcome{Name: m.Name, Status: StatusFailed, Error: err.Error()}
	}

	if !r.updater.Apply(ctx, m.Name, res) {
		return Outcome{
			Name:       m.Name,
			Status:     StatusFailed,
			Candidates: res.Candidates,
			Error:      "region update failed",
		}
	}

	r.logger.Info("monster classified", "name", m.Name, "region", res.Region, "candidates", res.Candidates)
	return Outcome{
		Name:       m.Name,
		Status:     StatusClassified,
		Region:     res.Region,
		Candidates: res.Candidates,
	}
}
