// Package monsters models stored monster records and reads and writes them
// in the DefraDB Monster collection.
package monsters

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Sentinel is the region value of a record that has not been classified yet.
const Sentinel = "Unknown"

// Collection is the DefraDB collection holding monster records.
const Collection = "Monster"

// Monster is one stored record. Name is the identity key.
type Monster struct {
	Index            string    `json:"index,omitempty"`
	Name             string    `json:"name"`
	Size             string    `json:"size,omitempty"`
	Type             string    `json:"type,omitempty"`
	Alignment        string    `json:"alignment,omitempty"`
	Languages        string    `json:"languages,omitempty"`
	ChallengeRating  *float64  `json:"challenge_rating,omitempty"`
	XP               *int64    `json:"xp,omitempty"`
	SpecialAbilities Abilities `json:"special_abilities,omitempty"`
	Actions          Abilities `json:"actions,omitempty"`
	LegendaryActions Abilities `json:"legendary_actions,omitempty"`
	Reactions        Abilities `json:"reactions,omitempty"`
	Region           string    `json:"region,omitempty"`
}

// Classified reports whether the record already carries a real region, that
// is one that is present and differs from sentinel.
func (m Monster) Classified(sentinel string) bool {
	return m.Region != "" && m.Region != sentinel
}

// Ability is a named ability with its description text.
type Ability struct {
	Name string `json:"name"`
	Desc string `json:"desc"`
}

// Abilities is a list of abilities. It decodes from a JSON array, from a
// string holding a JSON-encoded array, or from null.
type Abilities []Ability

// UnmarshalJSON implements json.Unmarshaler.
func (a *Abilities) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = nil
		return nil
	}

	if data[0] == '"' {
		var encoded string
		if err := json.Unmarshal(data, &encoded); err != nil {
			return err
		}
		if encoded == "" {
			*a = nil
			return nil
		}
		data = []byte(encoded)
	}

	var list []Ability
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("invalid abilities: %w", err)
	}
	*a = list
	return nil
}

// Document returns the record in the form DefraDB create mutations take.
// Nil and empty fields are omitted.
func (m Monster) Document() map[string]any {
	doc := map[string]any{"name": m.Name}
	setString := func(key, v string) {
		if v != "" {
			doc[key] = v
		}
	}
	setString("index", m.Index)
	setString("size", m.Size)
	setString("type", m.Type)
	setString("alignment", m.Alignment)
	setString("languages", m.Languages)
	setString("region", m.Region)

	if m.ChallengeRating != nil {
		doc["challenge_rating"] = *m.ChallengeRating
	}
	if m.XP != nil {
		doc["xp"] = *m.XP
	}

	setAbilities := func(key string, list Abilities) {
		if len(list) == 0 {
			return
		}
		items := make([]any, 0, len(list))
		for _, ab := range list {
			items = append(items, map[string]any{"name": ab.Name, "desc": ab.Desc})
		}
		doc[key] = items
	}
	setAbilities("special_abilities", m.SpecialAbilities)
	setAbilities("actions", m.Actions)
	setAbilities("legendary_actions", m.LegendaryActions)
	setAbilities("reactions", m.Reactions)

	return doc
}

// FromDocument decodes a raw store or API document into a Monster.
func FromDocument(doc map[string]any) (Monster, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return Monster{}, fmt.Errorf("failed to encode document: %w", err)
	}
	var m Monster
	if err := json.Unmarshal(raw, &m); err != nil {
		return Monster{}, fmt.Errorf("failed to decode monster: %w", err)
	}
	return m, nil
}
