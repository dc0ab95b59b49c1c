package combat

import (
	"sort"

	"github.com/duskforge/arena/internal/game/dice"
)

var d20 = dice.MustParse("1d20")

// rollInitiative builds the turn order: each player rolls 1d20 plus their
// dexterity modifier, each monster 1d20 plus its initiative bonus. The list
// is sorted descending by initiative with a stable sort, so ties keep
// insertion order (players in join order, then monsters by instance ID).
func (s *Session) rollInitiative(roller *dice.Roller) []ActorRef {
	order := make([]ActorRef, 0, len(s.Players)+len(s.Monsters))
	for _, id := range s.joinOrder {
		p := s.Players[id]
		order = append(order, ActorRef{
			Kind:       ActorPlayer,
			PlayerID:   id,
			Initiative: roller.Roll(d20).Total() + p.Attributes.Dexterity,
		})
	}
	ids := make([]int, 0, len(s.Monsters))
	for id := range s.Monsters {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		m := s.Monsters[id]
		order = append(order, ActorRef{
			Kind:       ActorMonster,
			MonsterID:  id,
			Initiative: roller.Roll(d20).Total() + m.InitBonus,
		})
	}
	sort.SliceStable(order, func(i, j int) bool { return order[i].Initiative > order[j].Initiative })
	return order
}
