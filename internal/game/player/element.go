package player

import "github.com/duskforge/arena/internal/game/rank"

// elementSlots lists the element slots in fill order. A sheet carries at
// most two elements.
var elementSlots = []string{"1", "2"}

// Element is one elemental affinity on a player sheet, with its own rank
// ladder. JSON tags match the stored record shape.
type Element struct {
	Name    string `json:"elemento"`
	Rank    string `json:"rank"`
	Level   int    `json:"nivel"`
	TotalXP int    `json:"xp_total"`
}

// AddElementXP adds amount of XP to the named element. An element already on
// the sheet gains XP and relevels within its own rank; an unknown element
// takes the first empty slot at bronze level 1. When both slots hold other
// elements the XP spills into the first slot.
//
// Precondition: amount must be >= 0.
func (p *Player) AddElementXP(name string, amount int, table *rank.Table) {
	if amount < 0 {
		panic("player.AddElementXP: precondition violated: amount must be >= 0")
	}
	for _, slot := range elementSlots {
		e := p.Elements[slot]
		if e != nil && e.Name == name {
			e.TotalXP += amount
			e.Level = elementLevel(e.TotalXP, e.Rank, table)
			return
		}
	}
	for _, slot := range elementSlots {
		if p.Elements[slot] == nil {
			p.Elements[slot] = &Element{Name: name, Rank: "bronze", Level: 1, TotalXP: amount}
			return
		}
	}
	first := p.Elements[elementSlots[0]]
	first.TotalXP += amount
	first.Level = elementLevel(first.TotalXP, first.Rank, table)
}

// elementLevel returns the level a cumulative element XP total lands on
// within a single rank's ladder.
//
// Postcondition: result is in [1, rank.MaxLevel].
func elementLevel(totalXP int, rankName string, table *rank.Table) int {
	cum := 0
	for lv := 1; lv <= rank.MaxLevel; lv++ {
		cum += table.XPAward(rankName, lv)
		if totalXP < cum {
			return lv
		}
	}
	return rank.MaxLevel
}
