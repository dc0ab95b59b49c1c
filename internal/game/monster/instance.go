package monster

import (
	"github.com/duskforge/arena/internal/game/rank"
)

// Instance is one live monster in a combat session. Instances are created
// when the session is initialised and stay on the roster after dropping to
// 0 HP so the loot pass can account for them.
// It is not safe for concurrent use; the caller must serialise access.
type Instance struct {
	ID        int
	Key       string
	Name      string
	Rank      string
	Level     int
	HPMax     int
	HP        int
	AC        int
	Ki        int
	Damage    string
	BBA       int
	InitBonus int
	Image     string
}

// NewInstance spawns one instance of tmpl pitched at the given progression
// cell.
//
// Precondition: id must be >= 1; tmpl must be non-nil.
// Postcondition: the instance starts at full HP with the cell's stats.
func NewInstance(id int, tmpl *Template, rankName string, level int, stats rank.LevelStats) *Instance {
	if id < 1 {
		panic("monster.NewInstance: precondition violated: id must be >= 1")
	}
	if tmpl == nil {
		panic("monster.NewInstance: precondition violated: tmpl must be non-nil")
	}
	return &Instance{
		ID:        id,
		Key:       tmpl.Key,
		Name:      tmpl.DisplayName(),
		Rank:      rankName,
		Level:     level,
		HPMax:     stats.HP,
		HP:        stats.HP,
		AC:        stats.AC,
		Ki:        stats.Qi,
		Damage:    stats.Damage,
		BBA:       stats.BBA,
		InitBonus: tmpl.InitBonus,
		Image:     tmpl.Image,
	}
}

// Spawn creates quantity instances numbered 1..quantity.
//
// Precondition: quantity must be >= 1.
func Spawn(tmpl *Template, rankName string, level int, stats rank.LevelStats, quantity int) []*Instance {
	if quantity < 1 {
		panic("monster.Spawn: precondition violated: quantity must be >= 1")
	}
	out := make([]*Instance, 0, quantity)
	for i := 1; i <= quantity; i++ {
		out = append(out, NewInstance(i, tmpl, rankName, level, stats))
	}
	return out
}

// Alive reports whether the instance has hit points remaining.
func (m *Instance) Alive() bool {
	return m.HP > 0
}

// ApplyDamage subtracts dmg from current HP, clamping at 0.
//
// Precondition: dmg must be >= 0.
// Postcondition: HP is in [0, HPMax]; returns the damage actually taken.
func (m *Instance) ApplyDamage(dmg int) int {
	if dmg < 0 {
		panic("monster.ApplyDamage: precondition violated: dmg must be >= 0")
	}
	before := m.HP
	m.HP -= dmg
	if m.HP < 0 {
		m.HP = 0
	}
	return before - m.HP
}
