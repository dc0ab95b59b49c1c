// Package player defines the persistent player sheet: stats, attributes,
// worn equipment, inventory, elements, and progression. The JSON tags match
// the stored record shape, which uses Portuguese field names.
package player

import (
	"encoding/json"
	"fmt"

	"github.com/duskforge/arena/internal/game/item"
	"github.com/duskforge/arena/internal/game/rank"
)

// Attributes holds the six core ability scores.
type Attributes struct {
	Strength     int `json:"forca"`
	Dexterity    int `json:"destreza"`
	Constitution int `json:"constituicao"`
	Intelligence int `json:"inteligencia"`
	Wisdom       int `json:"sabedoria"`
	Charisma     int `json:"carisma"`
}

// Player is one persistent player record.
// It is not safe for concurrent use; the caller must serialise access.
type Player struct {
	ID      string `json:"-"`
	Rank    string `json:"rank"`
	Level   int    `json:"nivel"`
	TotalXP int    `json:"xp_total"`
	HPMax   int    `json:"vida_max"`
	HP      int    `json:"vida_atual"`
	ManaMax int    `json:"mana_max"`
	Mana    int    `json:"mana_atual"`
	BBA     int    `json:"bba"`
	ACBase  int    `json:"ca_base"`
	// ACBonus and Absorption are aggregates recomputed from worn equipment by
	// RefreshEquipment; they are persisted for sheet display.
	ACBonus    int                 `json:"ca_bonus"`
	Absorption int                 `json:"absorv"`
	Attributes Attributes          `json:"atributos"`
	Equipment  map[string]string   `json:"equip"`
	Inventory  map[string]int      `json:"inventory"`
	Coins      int                 `json:"coins"`
	MagicXP    map[string]int      `json:"magic_xp"`
	Elements   map[string]*Element `json:"elementos"`
	Buffs      []Buff              `json:"buffs"`
}

// New creates a fresh sheet at the given rank and level, with baseline stats
// taken from the progression table.
//
// Precondition: table must contain the (rankName, level) cell.
// Postcondition: HP and Mana are full; every wear slot exists and is empty.
func New(id, rankName string, level int, table *rank.Table) (*Player, error) {
	stats, ok := table.Stats(rankName, level)
	if !ok {
		return nil, fmt.Errorf("player: no progression entry for rank %q level %d", rankName, level)
	}
	equip := make(map[string]string, len(item.WearSlots))
	for _, slot := range item.WearSlots {
		equip[slot] = ""
	}
	return &Player{
		ID:         id,
		Rank:       rankName,
		Level:      level,
		HPMax:      stats.HP,
		HP:         stats.HP,
		ManaMax:    stats.Qi,
		Mana:       stats.Qi,
		BBA:        stats.BBA,
		ACBase:     10,
		Attributes: Attributes{},
		Equipment:  equip,
		Inventory:  make(map[string]int),
		MagicXP:    make(map[string]int),
		Elements:   make(map[string]*Element),
	}, nil
}

// Parse decodes a stored player record.
//
// Postcondition: nil maps are initialised so callers can mutate freely.
func Parse(id string, data []byte) (*Player, error) {
	var p Player
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing player record %q: %w", id, err)
	}
	p.ID = id
	if p.Equipment == nil {
		p.Equipment = make(map[string]string)
	}
	if p.Inventory == nil {
		p.Inventory = make(map[string]int)
	}
	if p.MagicXP == nil {
		p.MagicXP = make(map[string]int)
	}
	if p.Elements == nil {
		p.Elements = make(map[string]*Element)
	}
	return &p, nil
}

// Marshal encodes the sheet back into its stored record form.
func (p *Player) Marshal() ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshaling player record %q: %w", p.ID, err)
	}
	return data, nil
}

// Alive reports whether the player has hit points remaining.
func (p *Player) Alive() bool {
	return p.HP > 0
}

// ApplyDamage subtracts dmg from current HP, clamping at 0.
//
// Precondition: dmg must be >= 0.
// Postcondition: HP is in [0, HPMax]; returns the damage actually taken.
func (p *Player) ApplyDamage(dmg int) int {
	if dmg < 0 {
		panic("player.ApplyDamage: precondition violated: dmg must be >= 0")
	}
	before := p.HP
	p.HP -= dmg
	if p.HP < 0 {
		p.HP = 0
	}
	return before - p.HP
}

// Heal adds amount to current HP, clamping at HPMax.
//
// Precondition: amount must be >= 0.
// Postcondition: HP is in [0, HPMax]; returns the amount actually restored.
func (p *Player) Heal(amount int) int {
	if amount < 0 {
		panic("player.Heal: precondition violated: amount must be >= 0")
	}
	before := p.HP
	p.HP += amount
	if p.HP > p.HPMax {
		p.HP = p.HPMax
	}
	return p.HP - before
}

// AttackModifier returns the flat attribute bonus added to attack rolls:
// the higher of Strength and Dexterity.
func (p *Player) AttackModifier() int {
	if p.Attributes.Strength > p.Attributes.Dexterity {
		return p.Attributes.Strength
	}
	return p.Attributes.Dexterity
}

// ArmorClass returns the effective armor class: base plus the equipment
// aggregate plus any active buff modifiers.
func (p *Player) ArmorClass() int {
	return p.ACBase + p.ACBonus + p.buffACMod()
}

// DamageFormula returns the dice formula for the player's attack: the main
// hand weapon's formula when one is equipped and defines one, otherwise the
// unarmed default.
func (p *Player) DamageFormula(reg *item.Registry) string {
	const unarmed = "1d4"
	key := p.Equipment[item.SlotMainHand]
	if key == "" {
		return unarmed
	}
	def, ok := reg.Equipment(key)
	if !ok || def.Damage == "" {
		return unarmed
	}
	return def.Damage
}

// AddItem adds qty units of itemKey to the inventory.
//
// Precondition: qty must be >= 1.
func (p *Player) AddItem(itemKey string, qty int) {
	if qty < 1 {
		panic("player.AddItem: precondition violated: qty must be >= 1")
	}
	p.Inventory[itemKey] += qty
}

// RemoveItem removes qty units of itemKey, deleting the entry at zero.
//
// Postcondition: returns false and leaves the inventory untouched when the
// player holds fewer than qty units.
func (p *Player) RemoveItem(itemKey string, qty int) bool {
	if qty < 1 || p.Inventory[itemKey] < qty {
		return false
	}
	p.Inventory[itemKey] -= qty
	if p.Inventory[itemKey] == 0 {
		delete(p.Inventory, itemKey)
	}
	return true
}

// scaleCurrent rescales a current value proportionally to a new maximum.
//
// Postcondition: result is in [0, newMax].
func scaleCurrent(current, oldMax, newMax int) int {
	if oldMax <= 0 {
		return newMax
	}
	scaled := current * newMax / oldMax
	if scaled < 0 {
		return 0
	}
	if scaled > newMax {
		return newMax
	}
	return scaled
}
