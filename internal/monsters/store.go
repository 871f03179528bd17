package monsters

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackzampolin/bestiary/internal/classify"
	"github.com/jackzampolin/bestiary/internal/defra"
)

// fields is the selection set read back for every record.
var fields = []string{
	"index", "name", "size", "type", "alignment", "languages",
	"challenge_rating", "xp",
	"special_abilities", "actions", "legendary_actions", "reactions",
	"region",
}

// DB is the subset of the DefraDB client the store uses.
type DB interface {
	Documents(ctx context.Context, collection string, fields []string) ([]map[string]any, error)
	CreateMany(ctx context.Context, collection string, inputs []map[string]any) ([]string, error)
	UpdateWhere(ctx context.Context, collection string, filter, input map[string]any) ([]string, error)
}

var _ DB = (*defra.Client)(nil)

// Store reads and writes monster records.
type Store struct {
	db     DB
	logger *slog.Logger
}

// NewStore creates a Store over db.
func NewStore(db DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger}
}

// FetchAll returns every record in the collection, in store order. Only a
// failed scan is an error; documents that do not decode are logged and left
// out so the rest of the collection can still be processed.
func (s *Store) FetchAll(ctx context.Context) ([]Monster, error) {
	docs, err := s.db.Documents(ctx, Collection, fields)
	if err != nil {
		return nil, fmt.Errorf("failed to scan monsters: %w", err)
	}

	out := make([]Monster, 0, len(docs))
	for _, doc := range docs {
		m, err := FromDocument(doc)
		if err != nil {
			s.logger.Warn("skipping undecodable monster", "name", doc["name"], "doc_id", doc["_docID"], "error", err)
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

// UpdateRegion sets the region of the record called name and touches no other
// field. Returns defra.ErrNoMatch when no record has that name.
func (s *Store) UpdateRegion(ctx context.Context, name, region string) error {
	_, err := s.db.UpdateWhere(ctx, Collection,
		map[string]any{"name": map[string]any{"_eq": name}},
		map[string]any{"region": region},
	)
	if err != nil {
		return fmt.Errorf("failed to update region of %s: %w", name, err)
	}
	return nil
}

// Apply writes a classification result back to the record called name and
// reports whether the write happened. Nil or empty results are ignored
// without touching the store. Store failures are logged, not returned.
func (s *Store) Apply(ctx context.Context, name string, res *classify.Result) bool {
	if res == nil || res.Region == "" {
		return false
	}
	if err := s.UpdateRegion(ctx, name, res.Region); err != nil {
		s.logger.Error("region update failed", "name", name, "error", err)
		return false
	}
	return true
}

// ExistingNames returns the set of record names already stored.
func (s *Store) ExistingNames(ctx context.Context) (map[string]bool, error) {
	docs, err := s.db.Documents(ctx, Collection, []string{"name"})
	if err != nil {
		return nil, fmt.Errorf("failed to list monster names: %w", err)
	}
	names := make(map[string]bool, len(docs))
	for _, doc := range docs {
		if name, ok := doc["name"].(string); ok {
			names[name] = true
		}
	}
	return names, nil
}

// CreateMany stores ms in a single batch and returns how many were created.
func (s *Store) CreateMany(ctx context.Context, ms []Monster) (int, error) {
	if len(ms) == 0 {
		return 0, nil
	}
	docs := make([]map[string]any, 0, len(ms))
	for _, m := range ms {
		docs = append(docs, m.Document())
	}
	ids, err := s.db.CreateMany(ctx, Collection, docs)
	if err != nil {
		return len(ids), fmt.Errorf("failed to create monsters: %w", err)
	}
	return len(ids), nil
}
