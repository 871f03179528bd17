package schema

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackzampolin/bestiary/internal/defra"
)

// SchemaAdder is the part of the DefraDB client Initialize needs.
type SchemaAdder interface {
	AddSchema(ctx context.Context, sdl string) error
}

var _ SchemaAdder = (*defra.Client)(nil)

// Initialize applies all schemas to DefraDB.
// Safe to call repeatedly; collections that already exist are skipped.
func Initialize(ctx context.Context, client SchemaAdder, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	schemas, err := All()
	if err != nil {
		return fmt.Errorf("failed to load schemas: %w", err)
	}

	for _, s := range schemas {
		if err := client.AddSchema(ctx, s.SDL); err != nil {
			if isAlreadyExistsError(err) {
				logger.Info("schema already exists", "name", s.Name)
				continue
			}
			return fmt.Errorf("failed to add schema %s: %w", s.Name, err)
		}
		logger.Info("schema added", "name", s.Name)
	}
	return nil
}

// isAlreadyExistsError reports whether DefraDB rejected a schema because the
// collection exists. The HTTP API only exposes this through the message text.
func isAlreadyExistsError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "already exists")
}
