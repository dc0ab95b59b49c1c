// Package monster provides monster templates and the live combat instances
// spawned from them. A template carries only identity; combat stats come
// from the progression table cell the encounter is pitched at.
package monster

import (
	"encoding/json"
	"fmt"
)

// DropEntry is one line of a template's drop table: on a successful chance
// draw, the quantity formula is rolled and that many units drop.
type DropEntry struct {
	Item     string  `json:"item"`
	Quantity string  `json:"q,omitempty"`
	Chance   float64 `json:"chance,omitempty"`
}

// Template is one stored monster definition. JSON tags match the stored
// record shape.
type Template struct {
	Key       string      `json:"-"`
	Name      string      `json:"nome,omitempty"`
	Image     string      `json:"img,omitempty"`
	InitBonus int         `json:"init_bonus,omitempty"`
	Drops     []DropEntry `json:"drops,omitempty"`
}

// DisplayName returns the template's name, falling back to its key.
func (t *Template) DisplayName() string {
	if t.Name != "" {
		return t.Name
	}
	return t.Key
}

// ParseTemplate decodes a stored monster record.
//
// Precondition: key must be non-empty; data must be a valid JSON object.
func ParseTemplate(key string, data []byte) (*Template, error) {
	if key == "" {
		return nil, fmt.Errorf("monster: template key must not be empty")
	}
	var t Template
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing monster record %q: %w", key, err)
	}
	t.Key = key
	return &t, nil
}
