package loot

import (
	"strings"

	"github.com/duskforge/arena/internal/game/dice"
	"github.com/duskforge/arena/internal/game/monster"
)

// OverrideFunc produces the complete drop set for one kill of a species,
// bypassing the generic drop-table path.
type OverrideFunc func(roller *dice.Roller) ([]Drop, []SpecialRoll)

// Resolver supplies scripted drop tables by species; entries returned here
// go through the generic chance/quantity path.
type Resolver func(species, rankName string, level int) ([]monster.DropEntry, bool)

// Overrides maps species-key fragments to hardcoded drop rules and holds an
// optional scripted table resolver. Fragments match by substring, so a rule
// for "carneir" covers both "carneiro" and "carneiro_negro".
type Overrides struct {
	fragments []string
	builtins  map[string]OverrideFunc
	resolver  Resolver
}

// NewOverrides creates an empty override set.
func NewOverrides() *Overrides {
	return &Overrides{builtins: make(map[string]OverrideFunc)}
}

// Register binds fn to every species key containing fragment. Later
// registrations do not displace earlier matches.
func (o *Overrides) Register(fragment string, fn OverrideFunc) {
	fragment = strings.ToLower(fragment)
	if _, exists := o.builtins[fragment]; !exists {
		o.fragments = append(o.fragments, fragment)
	}
	o.builtins[fragment] = fn
}

// SetResolver installs the scripted drop-table source.
func (o *Overrides) SetResolver(r Resolver) {
	o.resolver = r
}

func (o *Overrides) resolve(species string) (OverrideFunc, bool) {
	key := strings.ToLower(species)
	for _, fragment := range o.fragments {
		if strings.Contains(key, fragment) {
			return o.builtins[fragment], true
		}
	}
	return nil, false
}

func (o *Overrides) scripted(species, rankName string, level int) ([]monster.DropEntry, bool) {
	if o.resolver == nil {
		return nil, false
	}
	return o.resolver(species, rankName, level)
}

// DefaultOverrides returns the standard override set: the ram rule. Every
// ram kill drops 1d4 hooves, its hide 70% of the time, and a bestial sphere
// when a d100 lands at 90 or above.
func DefaultOverrides() *Overrides {
	o := NewOverrides()
	o.Register("carneir", ramDrops)
	return o
}

var d4 = dice.MustParse("1d4")

func ramDrops(roller *dice.Roller) ([]Drop, []SpecialRoll) {
	drops := []Drop{{
		Item:     "cascos",
		Name:     "Cascos",
		Quantity: roller.Roll(d4).Total(),
		Chance:   1.0,
	}}
	if rollChance(roller, 0.70) {
		drops = append(drops, Drop{Item: "pele", Name: "Pele", Quantity: 1, Chance: 0.70})
	}
	roll := roller.Source().Intn(100) + 1
	special := []SpecialRoll{{Item: "esfera_bestial", Roll: roll, Needed: 90, Won: roll >= 90}}
	if roll >= 90 {
		drops = append(drops, Drop{Item: "esfera_bestial", Name: "Esfera Bestial", Quantity: 1, Chance: 0.10})
	}
	return drops, special
}
