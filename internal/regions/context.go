package regions

import (
	"fmt"
	"strings"
)

// Context is the rendered reference dataset: the allowed labels in dataset
// order plus the descriptive text block for the prompt.
type Context struct {
	Names []string
	Text  string
}

// Empty reports whether the context carries no region names.
func (c Context) Empty() bool {
	return len(c.Names) == 0
}

// Known reports whether label exactly matches one of the region names.
func (c Context) Known(label string) bool {
	for _, n := range c.Names {
		if n == label {
			return true
		}
	}
	return false
}

// Render builds the Context for regions, preserving their order.
func Render(regions []Region) Context {
	names := make([]string, 0, len(regions))
	lines := make([]string, 0, len(regions))
	for _, r := range regions {
		names = append(names, r.Name)
		lines = append(lines, renderLine(r))
	}
	return Context{Names: names, Text: strings.Join(lines, "\n")}
}

func renderLine(r Region) string {
	return fmt.Sprintf(
		"- %s: Climate: %s. Terrain: %s. Vibes: %s. Dominant Monsters: %s. Major Factions: %s. Danger Level: %s. Keywords: %s.",
		r.Name,
		strings.Join(r.Climate, ", "),
		strings.Join(r.Terrain, ", "),
		strings.Join(r.Vibes, ", "),
		strings.Join(r.DominantMonsters, ", "),
		strings.Join(r.MajorFactions, ", "),
		strings.Join(r.DangerLevel, ", "),
		strings.Join(r.Keywords, ", "),
	)
}
