// Package regions loads the reference dataset of named geographic regions and
// renders it into the text block the classifier prompt embeds.
package regions

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// ErrNoRegions is returned when the reference dataset yields no region names.
var ErrNoRegions = errors.New("no regions found")

// Region is one entry of the reference dataset.
type Region struct {
	Name             string   `json:"name"`
	Climate          []string `json:"climate"`
	Terrain          []string `json:"terrain"`
	Vibes            []string `json:"vibes"`
	DominantMonsters []string `json:"dominant_monsters"`
	MajorFactions    []string `json:"major_factions"`
	DangerLevel      []string `json:"danger_level"`
	Keywords         []string `json:"keywords"`
}

// properties mirrors the JSON under each entry's "properties" key, including
// the misspelled keys the original dataset was authored with.
type properties struct {
	Region
	Terrian         []string `json:"terrian"`
	DominantMonster []string `json:"dominant_monster"`
}

type feature struct {
	Properties *properties `json:"properties"`
}

// Parse decodes a regions document. It accepts either a top-level array of
// entries or a GeoJSON FeatureCollection. Entries without a name are skipped
// and duplicate names keep their first occurrence.
func Parse(data []byte) ([]Region, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty regions document")
	}

	var features []feature
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &features); err != nil {
			return nil, fmt.Errorf("failed to parse regions array: %w", err)
		}
	case '{':
		var collection struct {
			Features []feature `json:"features"`
		}
		if err := json.Unmarshal(trimmed, &collection); err != nil {
			return nil, fmt.Errorf("failed to parse feature collection: %w", err)
		}
		features = collection.Features
	default:
		return nil, fmt.Errorf("regions document must be a JSON array or object")
	}

	seen := make(map[string]bool, len(features))
	out := make([]Region, 0, len(features))
	for _, f := range features {
		if f.Properties == nil {
			continue
		}
		r := f.Properties.Region
		r.Name = strings.TrimSpace(r.Name)
		if r.Name == "" || seen[r.Name] {
			continue
		}
		if len(r.Terrain) == 0 {
			r.Terrain = f.Properties.Terrian
		}
		if len(r.DominantMonsters) == 0 {
			r.DominantMonsters = f.Properties.DominantMonster
		}
		seen[r.Name] = true
		out = append(out, r)
	}
	return out, nil
}

// Load reads and parses the regions file at path.
func Load(path string) ([]Region, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read regions file: %w", err)
	}
	return Parse(data)
}

// LoadContext loads and renders the regions file. Any read or parse failure is
// logged and yields the empty Context; callers decide whether that is fatal.
func LoadContext(path string, logger *slog.Logger) Context {
	if logger == nil {
		logger = slog.Default()
	}
	regions, err := Load(path)
	if err != nil {
		logger.Error("could not load regions", "path", path, "error", err)
		return Context{}
	}
	return Render(regions)
}
