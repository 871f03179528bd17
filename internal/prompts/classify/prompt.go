// Package classify holds the region classification prompt.
package classify

import (
	"bytes"
	_ "embed"
	"strconv"
	"strings"
	"text/template"

	"github.com/jackzampolin/bestiary/internal/monsters"
	"github.com/jackzampolin/bestiary/internal/regions"
)

// None is rendered for absent profile fields.
const None = "None"

// PingPrompt is the connectivity smoke test prompt.
const PingPrompt = "Hello! Are you online? Reply with just 'Yes'."

//go:embed user.tmpl
var userPromptTmpl string

var userTemplate = template.Must(template.New("user").Parse(userPromptTmpl))

type promptData struct {
	RegionText  string
	RegionNames []string

	Name             string
	Size             string
	Type             string
	Alignment        string
	Languages        string
	ChallengeRating  string
	SpecialAbilities string
	Actions          string
	LegendaryActions string
	Reactions        string
}

// Build renders the classification prompt for m against the region context.
// It is pure: the same inputs always produce the same text.
func Build(m monsters.Monster, ctx regions.Context) string {
	data := promptData{
		RegionText:  ctx.Text,
		RegionNames: ctx.Names,

		Name:             orNone(m.Name),
		Size:             orNone(m.Size),
		Type:             orNone(m.Type),
		Alignment:        orNone(m.Alignment),
		Languages:        orNone(m.Languages),
		ChallengeRating:  challengeRating(m.ChallengeRating),
		SpecialAbilities: abilities(m.SpecialAbilities),
		Actions:          abilities(m.Actions),
		LegendaryActions: abilities(m.LegendaryActions),
		Reactions:        abilities(m.Reactions),
	}

	var buf bytes.Buffer
	if err := userTemplate.Execute(&buf, data); err != nil {
		return userPromptTmpl
	}
	return buf.String()
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return None
	}
	return s
}

func challengeRating(cr *float64) string {
	if cr == nil {
		return None
	}
	return strconv.FormatFloat(*cr, 'f', -1, 64)
}

func abilities(list monsters.Abilities) string {
	if len(list) == 0 {
		return None
	}
	parts := make([]string, 0, len(list))
	for _, a := range list {
		switch {
		case a.Name == "":
			parts = append(parts, a.Desc)
		case a.Desc == "":
			parts = append(parts, a.Name)
		default:
			parts = append(parts, a.Name+": "+a.Desc)
		}
	}
	return strings.Join(parts, "; ")
}
