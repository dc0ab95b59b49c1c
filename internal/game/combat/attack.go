package combat

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/duskforge/arena/internal/game/dice"
	"github.com/duskforge/arena/internal/game/item"
)

// AttackKind is the direction of a pending attack.
type AttackKind int

const (
	MonsterVsPlayer AttackKind = iota
	PlayerVsMonster
)

// Reaction is the defender's choice after a monster attack is confirmed as
// a hit.
type Reaction int

const (
	// ReactionReflex rolls 1d20 + dexterity against 10 + monster level;
	// success halves the damage before absorption.
	ReactionReflex Reaction = iota
	// ReactionDefend grants a one-turn armor-class buff instead of
	// mitigating this hit.
	ReactionDefend
	// ReactionTakeDamage applies max(0, damage - absorption) directly.
	ReactionTakeDamage
	// ReactionSpell is a placeholder for reaction magic.
	ReactionSpell
)

// String returns a human-readable reaction label.
func (r Reaction) String() string {
	switch r {
	case ReactionReflex:
		return "reflex"
	case ReactionDefend:
		return "defend"
	case ReactionTakeDamage:
		return "take damage"
	case ReactionSpell:
		return "spell"
	default:
		return "unknown"
	}
}

// PendingAttack is one announced attack awaiting the referee's hit or miss
// call. Prospective damage is rolled upfront so reaction mechanics can halve
// it. Each instance resolves at most once; an instance abandoned on a prompt
// timeout simply stays unresolved and mutates nothing.
type PendingAttack struct {
	// ID identifies this attack instance across prompt round-trips.
	ID uuid.UUID
	// Kind is the attack direction.
	Kind AttackKind
	// MonsterID is the monster side of the exchange (attacker or target).
	MonsterID int
	// PlayerID is the player side of the exchange (target or attacker).
	PlayerID string
	// AttackRoll is the raw d20 roll.
	AttackRoll dice.RollResult
	// AttackTotal is the d20 plus the attacker's modifiers.
	AttackTotal int
	// Damage is the prospective damage, rolled before the hit call.
	Damage dice.RollResult

	resolved bool
}

// Resolved reports whether a hit or miss has already been applied.
func (pa *PendingAttack) Resolved() bool { return pa.resolved }

// HitReport describes the outcome of a confirmed hit.
type HitReport struct {
	// Reaction is the defender's choice; zero for player-vs-monster hits.
	Reaction Reaction
	// ReflexRoll and ReflexDC are set only when Reaction is ReactionReflex.
	ReflexRoll    dice.RollResult
	ReflexTotal   int
	ReflexDC      int
	ReflexSuccess bool
	// Damage is the amount actually subtracted after mitigation and clamping.
	Damage int
	// TargetHP and TargetHPMax are the target's hit points after application.
	TargetHP    int
	TargetHPMax int
	// Downed is true when this hit brought the target to 0 HP.
	Downed bool
}

// BeginMonsterAttack rolls a monster's attack against a uniformly random
// living player and returns the pending instance for adjudication.
// Attack total: 1d20 + the monster's base attack bonus.
//
// Precondition: the session must be running; roller must be non-nil.
// Postcondition: no combatant state is mutated.
func (s *Session) BeginMonsterAttack(monsterID int, roller *dice.Roller) (*PendingAttack, error) {
	if s.Status != StatusRunning {
		return nil, fmt.Errorf("combat: arena %q is %s, not running", s.ArenaID, s.Status)
	}
	m, ok := s.Monsters[monsterID]
	if !ok {
		return nil, fmt.Errorf("combat: no monster %d in arena %q", monsterID, s.ArenaID)
	}
	if !m.Alive() {
		return nil, fmt.Errorf("%w: monster %d cannot attack", ErrDeadTarget, monsterID)
	}
	targets := s.LivingPlayers()
	if len(targets) == 0 {
		return nil, fmt.Errorf("%w: arena %q", ErrNoValidTargets, s.ArenaID)
	}
	target := targets[roller.Source().Intn(len(targets))]
	atk := roller.Roll(d20)
	return &PendingAttack{
		ID:          uuid.New(),
		Kind:        MonsterVsPlayer,
		MonsterID:   monsterID,
		PlayerID:    target.ID,
		AttackRoll:  atk,
		AttackTotal: atk.Total() + m.BBA,
		Damage:      roller.RollExprOrDefault(m.Damage, s.rules.DefaultDamage),
	}, nil
}

// BeginPlayerAttack rolls a player's attack against a chosen monster.
// Attack total: 1d20 + base attack bonus + max(strength, dexterity).
// Damage comes from the equipped main-hand weapon, or the ruleset default
// formula when unarmed.
//
// Precondition: the session must be running; roller must be non-nil.
// Postcondition: no combatant state is mutated.
func (s *Session) BeginPlayerAttack(playerID string, monsterID int, roller *dice.Roller, reg *item.Registry) (*PendingAttack, error) {
	if s.Status != StatusRunning {
		return nil, fmt.Errorf("combat: arena %q is %s, not running", s.ArenaID, s.Status)
	}
	p, ok := s.Players[playerID]
	if !ok {
		return nil, fmt.Errorf("combat: player %q is not in arena %q", playerID, s.ArenaID)
	}
	m, ok := s.Monsters[monsterID]
	if !ok {
		return nil, fmt.Errorf("combat: no monster %d in arena %q", monsterID, s.ArenaID)
	}
	if !m.Alive() {
		return nil, fmt.Errorf("%w: monster %d", ErrDeadTarget, monsterID)
	}
	atk := roller.Roll(d20)
	return &PendingAttack{
		ID:          uuid.New(),
		Kind:        PlayerVsMonster,
		MonsterID:   monsterID,
		PlayerID:    playerID,
		AttackRoll:  atk,
		AttackTotal: atk.Total() + p.BBA + p.AttackModifier(),
		Damage:      roller.RollExprOrDefault(p.DamageFormula(reg), s.rules.DefaultDamage),
	}, nil
}

// ResolveMiss closes the attack as a miss. No combatant state changes; the
// narration of any opportunity opening is the caller's concern.
func (s *Session) ResolveMiss(pa *PendingAttack) error {
	if pa.resolved {
		return ErrAlreadyResolved
	}
	pa.resolved = true
	return nil
}

// ResolvePlayerHit applies a confirmed player-vs-monster hit: the pending
// damage is subtracted from the target monster, flooring at 0.
//
// Precondition: pa.Kind must be PlayerVsMonster.
func (s *Session) ResolvePlayerHit(pa *PendingAttack) (*HitReport, error) {
	if pa.resolved {
		return nil, ErrAlreadyResolved
	}
	if pa.Kind != PlayerVsMonster {
		return nil, fmt.Errorf("combat: attack %s is not player-vs-monster", pa.ID)
	}
	m, ok := s.Monsters[pa.MonsterID]
	if !ok {
		return nil, fmt.Errorf("combat: no monster %d in arena %q", pa.MonsterID, s.ArenaID)
	}
	pa.resolved = true
	dealt := m.ApplyDamage(pa.Damage.Total())
	return &HitReport{
		Damage:      dealt,
		TargetHP:    m.HP,
		TargetHPMax: m.HPMax,
		Downed:      dealt > 0 && m.HP == 0,
	}, nil
}

// ResolveMonsterHit applies a confirmed monster-vs-player hit with the
// defender's chosen reaction. Reflex saves roll 1d20 + dexterity against
// 10 + monster level and halve the damage (rounded down) before absorption;
// defend grants the armor-class buff and takes no damage this instance;
// take-damage applies max(0, damage - absorption).
//
// Precondition: pa.Kind must be MonsterVsPlayer; roller must be non-nil.
// Postcondition: on success the attack is resolved and the target's HP is
// within [0, HPMax]. ReactionSpell is rejected without resolving.
func (s *Session) ResolveMonsterHit(pa *PendingAttack, reaction Reaction, roller *dice.Roller) (*HitReport, error) {
	if pa.resolved {
		return nil, ErrAlreadyResolved
	}
	if pa.Kind != MonsterVsPlayer {
		return nil, fmt.Errorf("combat: attack %s is not monster-vs-player", pa.ID)
	}
	p, ok := s.Players[pa.PlayerID]
	if !ok {
		return nil, fmt.Errorf("combat: player %q is not in arena %q", pa.PlayerID, s.ArenaID)
	}
	m, ok := s.Monsters[pa.MonsterID]
	if !ok {
		return nil, fmt.Errorf("combat: no monster %d in arena %q", pa.MonsterID, s.ArenaID)
	}

	report := &HitReport{Reaction: reaction}
	damage := pa.Damage.Total()

	switch reaction {
	case ReactionReflex:
		roll := roller.Roll(d20)
		report.ReflexRoll = roll
		report.ReflexTotal = roll.Total() + p.Attributes.Dexterity
		report.ReflexDC = s.rules.ReflexDCBase + m.Level
		report.ReflexSuccess = report.ReflexTotal >= report.ReflexDC
		if report.ReflexSuccess {
			damage /= 2
		}
	case ReactionDefend:
		damage = 0
	case ReactionTakeDamage:
		// full damage less absorption, below
	case ReactionSpell:
		return nil, fmt.Errorf("combat: reaction magic is not available yet")
	default:
		return nil, fmt.Errorf("combat: unknown reaction %d", reaction)
	}
	pa.resolved = true

	if reaction == ReactionDefend {
		p.AddBuff(s.rules.DefendACBonus, 1)
	} else {
		damage -= p.Absorption
		if damage < 0 {
			damage = 0
		}
		report.Damage = p.ApplyDamage(damage)
	}
	report.TargetHP = p.HP
	report.TargetHPMax = p.HPMax
	report.Downed = report.Damage > 0 && p.HP == 0
	return report, nil
}
