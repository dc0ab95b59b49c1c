package item

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Slot constants for EquipmentDef.Slot and the wear layout on a player
// record. Values match the stored record shape.
const (
	SlotHelm     = "elmo"
	SlotChest    = "peitoral"
	SlotGloves   = "luva"
	SlotMainHand = "mao_direita"
	SlotOffHand  = "mao_esquerda"
	SlotBoots    = "botas"
	SlotAmulet   = "amuleto"
	// SlotRing is the generic slot type on a ring definition; it resolves to
	// the first empty concrete ring slot when equipped.
	SlotRing  = "anel"
	SlotRing1 = "anel1"
	SlotRing2 = "anel2"
	SlotRing3 = "anel3"
	SlotRing4 = "anel4"
)

// RingSlots lists the concrete ring slots in fill order.
var RingSlots = []string{SlotRing1, SlotRing2, SlotRing3, SlotRing4}

// WearSlots lists every concrete slot a player record carries.
var WearSlots = []string{
	SlotHelm, SlotChest, SlotGloves, SlotMainHand, SlotOffHand,
	SlotBoots, SlotAmulet, SlotRing1, SlotRing2, SlotRing3, SlotRing4,
}

// validSlots is the set of slot types an equipment definition may declare.
var validSlots = map[string]bool{
	SlotHelm: true, SlotChest: true, SlotGloves: true,
	SlotMainHand: true, SlotOffHand: true, SlotBoots: true,
	SlotAmulet: true, SlotRing: true,
}

// AttributeBonuses holds the optional flat attribute bonuses an equipment
// piece grants while worn.
type AttributeBonuses struct {
	Strength     int `json:"forca_bonus,omitempty"`
	Dexterity    int `json:"destreza_bonus,omitempty"`
	Wisdom       int `json:"sabedoria_bonus,omitempty"`
	Constitution int `json:"constituicao_bonus,omitempty"`
}

// EquipmentDef defines a wearable piece. JSON tags match the stored record
// shape. Damage, if set, replaces the wearer's unarmed damage formula while
// the piece occupies a hand slot.
type EquipmentDef struct {
	Key         string `json:"-"`
	Name        string `json:"nome"`
	Slot        string `json:"slot"`
	Damage      string `json:"dano,omitempty"`
	HPBonus     int    `json:"hp_bonus,omitempty"`
	ManaBonus   int    `json:"mana_bonus,omitempty"`
	ACBonus     int    `json:"ca_bonus,omitempty"`
	Absorption  int    `json:"absorv,omitempty"`
	Value       int    `json:"valor,omitempty"`
	Description string `json:"descricao,omitempty"`
	AttributeBonuses
}

// Validate checks that the EquipmentDef satisfies its invariants.
//
// Precondition: d is non-nil.
// Postcondition: returns nil iff Key is non-empty and Slot is a valid slot
// type.
func (d *EquipmentDef) Validate() error {
	var errs []error
	if d.Key == "" {
		errs = append(errs, errors.New("Key must not be empty"))
	}
	if !validSlots[d.Slot] {
		errs = append(errs, fmt.Errorf("Slot must be a known slot type; got %q", d.Slot))
	}
	if len(errs) > 0 {
		return fmt.Errorf("equipment validation failed: %v", errs)
	}
	return nil
}

// ParseEquipmentDef decodes a stored equipment record.
//
// Precondition: data must be a valid JSON object.
// Postcondition: returns a validated *EquipmentDef with Key set to key.
func ParseEquipmentDef(key string, data []byte) (*EquipmentDef, error) {
	var d EquipmentDef
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parsing equipment record %q: %w", key, err)
	}
	d.Key = key
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("equipment %q: %w", key, err)
	}
	return &d, nil
}
