package combat_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/duskforge/arena/internal/game/combat"
	"github.com/duskforge/arena/internal/game/item"
	"github.com/duskforge/arena/internal/game/monster"
	"github.com/duskforge/arena/internal/game/player"
	"github.com/duskforge/arena/internal/game/rank"
)

func newPropertyPlayer(absorb int) (*player.Player, error) {
	p, err := player.New("p1", "bronze", 1, testTable())
	if err != nil {
		return nil, err
	}
	p.Absorption = absorb
	return p, nil
}

// runningSession starts a session with the given player and monster already
// enrolled.
func runningSession(t *testing.T, p playerSpec, m *monster.Instance) *combat.Session {
	t.Helper()
	s := combat.NewSession("g1", combat.EnrollmentButtonGated, combat.DefaultRules())
	pl := newTestPlayer(t, p.id, p.dex)
	pl.Absorption = p.absorption
	require.NoError(t, s.Join(pl))
	require.NoError(t, s.AddMonsters([]*monster.Instance{m}))
	require.NoError(t, s.Start(newRoller(0)))
	return s
}

type playerSpec struct {
	id         string
	dex        int
	absorption int
}

// TestMonsterAttack_TotalAndTakeDamage verifies the attack total formula
// (1d20 + BBA) and the take-damage reaction (damage less absorption).
func TestMonsterAttack_TotalAndTakeDamage(t *testing.T) {
	m := newTestMonster(1, 1, rank.LevelStats{HP: 20, Damage: "1d6+1", BBA: 2})
	s := runningSession(t, playerSpec{id: "p1", absorption: 1}, m)

	// Draws: target pick, d20=15, damage die=4.
	pa, err := s.BeginMonsterAttack(1, newRoller(0, 14, 3))
	require.NoError(t, err)
	assert.Equal(t, combat.MonsterVsPlayer, pa.Kind)
	assert.Equal(t, "p1", pa.PlayerID)
	assert.Equal(t, 17, pa.AttackTotal)
	assert.Equal(t, 5, pa.Damage.Total())

	p, _ := s.Player("p1")
	before := p.HP
	report, err := s.ResolveMonsterHit(pa, combat.ReactionTakeDamage, newRoller(0))
	require.NoError(t, err)
	assert.Equal(t, 4, report.Damage)
	assert.Equal(t, before-4, p.HP)
	assert.False(t, report.Downed)
}

// TestMonsterAttack_NoValidTargets verifies the error when every player is
// down.
func TestMonsterAttack_NoValidTargets(t *testing.T) {
	m := newTestMonster(1, 1, rank.LevelStats{HP: 20, Damage: "1d6", BBA: 0})
	s := runningSession(t, playerSpec{id: "p1"}, m)
	p, _ := s.Player("p1")
	p.ApplyDamage(999)

	_, err := s.BeginMonsterAttack(1, newRoller(0))
	assert.ErrorIs(t, err, combat.ErrNoValidTargets)
}

// TestMonsterAttack_ReflexSuccessHalvesDamage verifies the reflex save:
// 1d20+dex vs 10+monster level; success halves damage before absorption.
func TestMonsterAttack_ReflexSuccessHalvesDamage(t *testing.T) {
	m := newTestMonster(1, 2, rank.LevelStats{HP: 20, Damage: "10", BBA: 0})
	s := runningSession(t, playerSpec{id: "p1", dex: 3}, m)

	pa, err := s.BeginMonsterAttack(1, newRoller(0, 9))
	require.NoError(t, err)
	assert.Equal(t, 10, pa.Damage.Total())

	p, _ := s.Player("p1")
	before := p.HP
	// Reflex d20=12: total 15 vs DC 12.
	report, err := s.ResolveMonsterHit(pa, combat.ReactionReflex, newRoller(11))
	require.NoError(t, err)
	assert.Equal(t, 15, report.ReflexTotal)
	assert.Equal(t, 12, report.ReflexDC)
	assert.True(t, report.ReflexSuccess)
	assert.Equal(t, 5, report.Damage)
	assert.Equal(t, before-5, p.HP)
}

// TestMonsterAttack_ReflexFailureFullDamage verifies a failed save applies
// full damage after absorption.
func TestMonsterAttack_ReflexFailureFullDamage(t *testing.T) {
	m := newTestMonster(1, 2, rank.LevelStats{HP: 20, Damage: "10", BBA: 0})
	s := runningSession(t, playerSpec{id: "p1", dex: 3, absorption: 2}, m)

	pa, err := s.BeginMonsterAttack(1, newRoller(0, 9))
	require.NoError(t, err)

	p, _ := s.Player("p1")
	before := p.HP
	// Reflex d20=1: total 4 vs DC 12.
	report, err := s.ResolveMonsterHit(pa, combat.ReactionReflex, newRoller(0))
	require.NoError(t, err)
	assert.False(t, report.ReflexSuccess)
	assert.Equal(t, 8, report.Damage)
	assert.Equal(t, before-8, p.HP)
}

// TestMonsterAttack_DefendBuffsWithoutDamage verifies the defend reaction
// grants the one-turn AC buff and takes no damage this instance.
func TestMonsterAttack_DefendBuffsWithoutDamage(t *testing.T) {
	m := newTestMonster(1, 1, rank.LevelStats{HP: 20, Damage: "10", BBA: 0})
	s := runningSession(t, playerSpec{id: "p1"}, m)

	pa, err := s.BeginMonsterAttack(1, newRoller(0, 9))
	require.NoError(t, err)

	p, _ := s.Player("p1")
	baseAC := p.ArmorClass()
	before := p.HP
	report, err := s.ResolveMonsterHit(pa, combat.ReactionDefend, newRoller(0))
	require.NoError(t, err)
	assert.Equal(t, 0, report.Damage)
	assert.Equal(t, before, p.HP)
	assert.Equal(t, baseAC+4, p.ArmorClass())

	p.TickBuffs()
	assert.Equal(t, baseAC, p.ArmorClass())
}

// TestMonsterAttack_SpellReactionUnavailable verifies the placeholder
// reaction is rejected without consuming the attack.
func TestMonsterAttack_SpellReactionUnavailable(t *testing.T) {
	m := newTestMonster(1, 1, rank.LevelStats{HP: 20, Damage: "1d6", BBA: 0})
	s := runningSession(t, playerSpec{id: "p1"}, m)

	pa, err := s.BeginMonsterAttack(1, newRoller(0, 9, 2))
	require.NoError(t, err)

	_, err = s.ResolveMonsterHit(pa, combat.ReactionSpell, newRoller(0))
	require.Error(t, err)
	assert.False(t, pa.Resolved())

	_, err = s.ResolveMonsterHit(pa, combat.ReactionTakeDamage, newRoller(0))
	require.NoError(t, err)
	assert.True(t, pa.Resolved())
}

// TestAttack_AtMostOnceResolution verifies a second confirmation fails with
// ErrAlreadyResolved and mutates nothing.
func TestAttack_AtMostOnceResolution(t *testing.T) {
	m := newTestMonster(1, 1, rank.LevelStats{HP: 20, Damage: "10", BBA: 0})
	s := runningSession(t, playerSpec{id: "p1"}, m)

	pa, err := s.BeginMonsterAttack(1, newRoller(0, 9))
	require.NoError(t, err)

	p, _ := s.Player("p1")
	_, err = s.ResolveMonsterHit(pa, combat.ReactionTakeDamage, newRoller(0))
	require.NoError(t, err)
	after := p.HP

	_, err = s.ResolveMonsterHit(pa, combat.ReactionTakeDamage, newRoller(0))
	assert.ErrorIs(t, err, combat.ErrAlreadyResolved)
	assert.Equal(t, after, p.HP)
	assert.ErrorIs(t, s.ResolveMiss(pa), combat.ErrAlreadyResolved)
}

// TestAttack_MissMutatesNothing verifies a miss closes the instance without
// touching state.
func TestAttack_MissMutatesNothing(t *testing.T) {
	m := newTestMonster(1, 1, rank.LevelStats{HP: 20, Damage: "10", BBA: 0})
	s := runningSession(t, playerSpec{id: "p1"}, m)

	pa, err := s.BeginMonsterAttack(1, newRoller(0, 9))
	require.NoError(t, err)

	p, _ := s.Player("p1")
	before := p.HP
	require.NoError(t, s.ResolveMiss(pa))
	assert.Equal(t, before, p.HP)

	_, err = s.ResolveMonsterHit(pa, combat.ReactionTakeDamage, newRoller(0))
	assert.ErrorIs(t, err, combat.ErrAlreadyResolved)
}

// TestPlayerAttack_TotalAndWeaponDamage verifies the player formula
// (1d20 + BBA + max(str, dex)) and main-hand weapon damage.
func TestPlayerAttack_TotalAndWeaponDamage(t *testing.T) {
	reg := item.NewRegistry()
	require.NoError(t, reg.RegisterEquipment(&item.EquipmentDef{
		Key: "espada", Name: "Espada", Slot: item.SlotMainHand, Damage: "1d8+1",
	}))
	m := newTestMonster(1, 1, rank.LevelStats{HP: 25, Damage: "1d6", BBA: 0})
	s := runningSession(t, playerSpec{id: "p1", dex: 2}, m)
	p, _ := s.Player("p1")
	p.Attributes.Strength = 4
	p.Equipment[item.SlotMainHand] = "espada"

	// Draws: d20=10, weapon die=8.
	pa, err := s.BeginPlayerAttack("p1", 1, newRoller(9, 7), reg)
	require.NoError(t, err)
	assert.Equal(t, combat.PlayerVsMonster, pa.Kind)
	// 10 + BBA 1 + max(4, 2).
	assert.Equal(t, 15, pa.AttackTotal)
	assert.Equal(t, 9, pa.Damage.Total())

	report, err := s.ResolvePlayerHit(pa)
	require.NoError(t, err)
	assert.Equal(t, 9, report.Damage)
	assert.Equal(t, 16, report.TargetHP)
	assert.False(t, report.Downed)
}

// TestPlayerAttack_UnarmedFallsBackTo1d4 verifies the default formula when
// no main-hand weapon is equipped.
func TestPlayerAttack_UnarmedFallsBackTo1d4(t *testing.T) {
	reg := item.NewRegistry()
	m := newTestMonster(1, 1, rank.LevelStats{HP: 25, Damage: "1d6", BBA: 0})
	s := runningSession(t, playerSpec{id: "p1"}, m)

	pa, err := s.BeginPlayerAttack("p1", 1, newRoller(9, 3), reg)
	require.NoError(t, err)
	assert.Equal(t, "1d4", pa.Damage.Expression)
	assert.Equal(t, 4, pa.Damage.Total())
}

// TestPlayerAttack_DeadTargetRejected verifies targeting a downed monster
// fails without rolling.
func TestPlayerAttack_DeadTargetRejected(t *testing.T) {
	m := newTestMonster(1, 1, rank.LevelStats{HP: 25, Damage: "1d6", BBA: 0})
	s := runningSession(t, playerSpec{id: "p1"}, m)
	m.ApplyDamage(999)

	_, err := s.BeginPlayerAttack("p1", 1, newRoller(0), item.NewRegistry())
	assert.ErrorIs(t, err, combat.ErrDeadTarget)
}

// TestPlayerAttack_DownsMonsterAtZero verifies HP floors at zero and the
// downed flag fires.
func TestPlayerAttack_DownsMonsterAtZero(t *testing.T) {
	reg := item.NewRegistry()
	m := newTestMonster(1, 1, rank.LevelStats{HP: 25, Damage: "1d6", BBA: 0})
	s := runningSession(t, playerSpec{id: "p1"}, m)
	m.HP = 3

	pa, err := s.BeginPlayerAttack("p1", 1, newRoller(9, 3), reg)
	require.NoError(t, err)

	report, err := s.ResolvePlayerHit(pa)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Damage)
	assert.Equal(t, 0, report.TargetHP)
	assert.True(t, report.Downed)
	assert.False(t, m.Alive())
}

// TestMonsterAttack_HPClampProperty checks the HP invariant for arbitrary
// damage magnitudes and absorption values.
func TestMonsterAttack_HPClampProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		dmg := rapid.IntRange(1, 500).Draw(rt, "dmg")
		absorb := rapid.IntRange(0, 50).Draw(rt, "absorb")
		m := monster.NewInstance(1, &monster.Template{Key: "lobo"}, "bronze", 1,
			rank.LevelStats{HP: 20, Damage: fmt.Sprintf("%d", dmg), BBA: 0})

		s := combat.NewSession("g1", combat.EnrollmentButtonGated, combat.DefaultRules())
		p, err := newPropertyPlayer(absorb)
		if err != nil {
			rt.Fatalf("player.New: %v", err)
		}
		if err := s.Join(p); err != nil {
			rt.Fatalf("Join: %v", err)
		}
		if err := s.AddMonsters([]*monster.Instance{m}); err != nil {
			rt.Fatalf("AddMonsters: %v", err)
		}
		if err := s.Start(newRoller(0)); err != nil {
			rt.Fatalf("Start: %v", err)
		}

		pa, err := s.BeginMonsterAttack(1, newRoller(0, 9))
		if err != nil {
			rt.Fatalf("BeginMonsterAttack: %v", err)
		}
		if _, err := s.ResolveMonsterHit(pa, combat.ReactionTakeDamage, newRoller(0)); err != nil {
			rt.Fatalf("ResolveMonsterHit: %v", err)
		}
		if p.HP < 0 || p.HP > p.HPMax {
			rt.Fatalf("HP %d outside [0, %d]", p.HP, p.HPMax)
		}
	})
}
