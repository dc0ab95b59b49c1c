package player

import (
	"errors"
	"fmt"

	"github.com/duskforge/arena/internal/game/item"
	"github.com/duskforge/arena/internal/game/rank"
)

// ErrUnknownSlot is returned when unequipping a slot the sheet does not have.
var ErrUnknownSlot = errors.New("player: unknown equipment slot")

// Equip places the equipment piece with the given key into its declared
// slot. Ring definitions fill the first empty concrete ring slot; when all
// four rings are worn, the first ring slot is replaced.
//
// Postcondition: on success the piece occupies exactly one wear slot and the
// aggregates are stale until RefreshEquipment runs.
func (p *Player) Equip(key string, reg *item.Registry) error {
	def, ok := reg.Equipment(key)
	if !ok {
		return fmt.Errorf("player: equipment %q not found", key)
	}
	slot := def.Slot
	if slot == item.SlotRing {
		slot = item.SlotRing1
		for _, ring := range item.RingSlots {
			if p.Equipment[ring] == "" {
				slot = ring
				break
			}
		}
	}
	p.Equipment[slot] = key
	return nil
}

// Unequip clears the given concrete wear slot.
//
// Postcondition: the slot is empty; returns ErrUnknownSlot when the slot is
// not part of the wear layout.
func (p *Player) Unequip(slot string) error {
	if _, ok := p.Equipment[slot]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSlot, slot)
	}
	p.Equipment[slot] = ""
	return nil
}

// RefreshEquipment recomputes the equipment aggregates from the worn pieces:
// armor class bonus, absorption, and the HP/Mana maxima as the rank baseline
// plus gear bonuses, with current values rescaled proportionally.
//
// Recomputing from the baseline rather than accumulating onto the previous
// maxima keeps repeated refreshes idempotent.
//
// Postcondition: HP is in [0, HPMax] and Mana is in [0, ManaMax]; unknown
// equipment keys contribute nothing.
func (p *Player) RefreshEquipment(table *rank.Table, reg *item.Registry) {
	p.ACBonus = 0
	p.Absorption = 0
	gearHP, gearMana := 0, 0
	for _, key := range p.Equipment {
		if key == "" {
			continue
		}
		def, ok := reg.Equipment(key)
		if !ok {
			continue
		}
		p.ACBonus += def.ACBonus
		p.Absorption += def.Absorption
		gearHP += def.HPBonus
		gearMana += def.ManaBonus
	}

	stats, ok := table.Stats(p.Rank, p.Level)
	if !ok {
		return
	}
	newHPMax := stats.HP + gearHP
	p.HP = scaleCurrent(p.HP, p.HPMax, newHPMax)
	p.HPMax = newHPMax
	newManaMax := stats.Qi + gearMana
	p.Mana = scaleCurrent(p.Mana, p.ManaMax, newManaMax)
	p.ManaMax = newManaMax
}

// EffectiveAttributes returns the base attributes plus the flat bonuses of
// every worn piece. The sheet's stored attributes are never mutated by gear.
func (p *Player) EffectiveAttributes(reg *item.Registry) Attributes {
	out := p.Attributes
	for _, key := range p.Equipment {
		if key == "" {
			continue
		}
		def, ok := reg.Equipment(key)
		if !ok {
			continue
		}
		out.Strength += def.Strength
		out.Dexterity += def.Dexterity
		out.Wisdom += def.Wisdom
		out.Constitution += def.Constitution
	}
	return out
}
