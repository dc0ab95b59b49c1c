package player

import "github.com/duskforge/arena/internal/game/rank"

// AddXP adds amount to the cumulative XP total and recalculates the sheet's
// rank placement.
//
// Precondition: amount must be >= 0.
func (p *Player) AddXP(amount int, table *rank.Table) {
	if amount < 0 {
		panic("player.AddXP: precondition violated: amount must be >= 0")
	}
	p.TotalXP += amount
	p.Recalc(table)
}

// Recalc places the cumulative XP total on the progression ladder and applies
// the new baseline stats. Current HP and Mana are rescaled proportionally so
// a wounded player stays equally wounded after ranking up. Worn gear raises
// the maxima above the rank baseline; that contribution is carried across the
// rebase so a rank-up never shrinks a geared player's pools.
//
// Postcondition: Rank and Level match Table.Placement(TotalXP); BBA comes
// from the new cell. A table with no data for the placement leaves the
// stats untouched.
func (p *Player) Recalc(table *rank.Table) {
	newRank, newLevel := table.Placement(p.TotalXP)
	if newRank == "" {
		return
	}
	stats, ok := table.Stats(newRank, newLevel)
	if !ok {
		return
	}
	gearHP, gearMana := 0, 0
	if old, ok := table.Stats(p.Rank, p.Level); ok {
		gearHP = p.HPMax - old.HP
		gearMana = p.ManaMax - old.Qi
	}
	p.Rank = newRank
	p.Level = newLevel
	newHPMax := stats.HP + gearHP
	p.HP = scaleCurrent(p.HP, p.HPMax, newHPMax)
	p.HPMax = newHPMax
	newManaMax := stats.Qi + gearMana
	p.Mana = scaleCurrent(p.Mana, p.ManaMax, newManaMax)
	p.ManaMax = newManaMax
	p.BBA = stats.BBA
}
