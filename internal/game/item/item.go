// Package item provides consumable/crafting item and wearable equipment
// definitions, parsed from stored records, plus a lookup registry.
package item

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Kind constants for Def.Kind.
const (
	KindHP    = "hp"
	KindMana  = "mana"
	KindBuff  = "buff"
	KindCraft = "craft"
)

// validKinds is the set of valid item kinds.
var validKinds = map[string]bool{
	KindHP:    true,
	KindMana:  true,
	KindBuff:  true,
	KindCraft: true,
}

// Def defines the static properties of an item. JSON tags match the stored
// record shape, which uses Portuguese field names.
type Def struct {
	Key         string `json:"-"`
	Name        string `json:"nome"`
	Kind        string `json:"tipo"`
	Value       int    `json:"valor"`
	Buy         int    `json:"buy,omitempty"`
	Sell        int    `json:"sell,omitempty"`
	Description string `json:"descricao"`
}

// Validate checks that the Def satisfies its invariants.
//
// Precondition: d is non-nil.
// Postcondition: returns nil iff all fields are valid.
func (d *Def) Validate() error {
	var errs []error
	if d.Key == "" {
		errs = append(errs, errors.New("Key must not be empty"))
	}
	if d.Name == "" {
		errs = append(errs, errors.New("Name must not be empty"))
	}
	if !validKinds[d.Kind] {
		errs = append(errs, fmt.Errorf("Kind must be one of hp, mana, buff, craft; got %q", d.Kind))
	}
	if d.Value < 0 {
		errs = append(errs, errors.New("Value must be >= 0"))
	}
	if d.Buy < 0 || d.Sell < 0 {
		errs = append(errs, errors.New("Buy and Sell prices must be >= 0"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("item validation failed: %v", errs)
	}
	return nil
}

// ParseDef decodes a stored item record.
//
// Precondition: data must be a valid JSON object.
// Postcondition: returns a validated *Def with Key set to key.
func ParseDef(key string, data []byte) (*Def, error) {
	var d Def
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parsing item record %q: %w", key, err)
	}
	d.Key = key
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("item %q: %w", key, err)
	}
	return &d, nil
}
