package dnd5e

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackzampolin/bestiary/internal/monsters"
)

// Fetcher supplies raw monster objects.
type Fetcher interface {
	FetchMonsters(ctx context.Context, limit int) ([]map[string]any, error)
}

// Store is the record store the importer writes to.
type Store interface {
	ExistingNames(ctx context.Context) (map[string]bool, error)
	CreateMany(ctx context.Context, ms []monsters.Monster) (int, error)
}

// ImportOptions control an import.
type ImportOptions struct {
	Limit     int
	BatchSize int
	Sentinel  string
}

// ImportSummary reports what an import did.
type ImportSummary struct {
	Fetched  int `json:"fetched" yaml:"fetched"`
	Created  int `json:"created" yaml:"created"`
	Existing int `json:"existing" yaml:"existing"`
	Invalid  int `json:"invalid" yaml:"invalid"`
}

// ToMonster converts a raw API object into an unclassified record.
func ToMonster(raw map[string]any, sentinel string) (monsters.Monster, error) {
	clean, _ := monsters.Normalize(raw).(map[string]any)
	m, err := monsters.FromDocument(clean)
	if err != nil {
		return monsters.Monster{}, err
	}
	if sentinel == "" {
		sentinel = monsters.Sentinel
	}
	m.Region = sentinel
	return m, nil
}

// Import fetches monsters and stores the ones not already present by name.
// Existing records are never rewritten.
func Import(ctx context.Context, src Fetcher, store Store, opts ImportOptions, logger *slog.Logger) (*ImportSummary, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Limit <= 0 {
		opts.Limit = 500
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}

	raw, err := src.FetchMonsters(ctx, opts.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch monsters: %w", err)
	}
	logger.Info("monsters retrieved", "count", len(raw))

	existing, err := store.ExistingNames(ctx)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		existing = make(map[string]bool)
	}

	summary := &ImportSummary{Fetched: len(raw)}
	pending := make([]monsters.Monster, 0, len(raw))
	for _, r := range raw {
		m, err := ToMonster(r, opts.Sentinel)
		if err != nil || m.Name == "" {
			logger.Warn("skipping invalid monster", "error", err)
			summary.Invalid++
			continue
		}
		if existing[m.Name] {
			summary.Existing++
			continue
		}
		existing[m.Name] = true
		pending = append(pending, m)
	}

	for start := 0; start < len(pending); start += opts.BatchSize {
		end := min(start+opts.BatchSize, len(pending))
		n, err := store.CreateMany(ctx, pending[start:end])
		summary.Created += n
		if err != nil {
			return summary, err
		}
		logger.Debug("batch created", "count", n, "offset", start)
	}

	logger.Info("import complete", "created", summary.Created, "existing", summary.Existing)
	return summary, nil
}
