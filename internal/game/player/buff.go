package player

// Buff is one temporary combat modifier on a player, counted in turns of the
// buffed player. JSON tags match the stored record shape.
type Buff struct {
	ACMod int `json:"ca_mod"`
	Turns int `json:"turns"`
}

// AddBuff appends a temporary modifier to the sheet.
//
// Precondition: turns must be >= 1.
func (p *Player) AddBuff(acMod, turns int) {
	if turns < 1 {
		panic("player.AddBuff: precondition violated: turns must be >= 1")
	}
	p.Buffs = append(p.Buffs, Buff{ACMod: acMod, Turns: turns})
}

// TickBuffs decrements every buff by one turn and drops the expired ones.
//
// Postcondition: returns the number of buffs that expired; no remaining buff
// has Turns <= 0.
func (p *Player) TickBuffs() int {
	if len(p.Buffs) == 0 {
		return 0
	}
	kept := p.Buffs[:0]
	expired := 0
	for _, b := range p.Buffs {
		b.Turns--
		if b.Turns > 0 {
			kept = append(kept, b)
		} else {
			expired++
		}
	}
	p.Buffs = kept
	return expired
}

// buffACMod returns the sum of active armor class modifiers.
func (p *Player) buffACMod() int {
	total := 0
	for _, b := range p.Buffs {
		total += b.ACMod
	}
	return total
}
