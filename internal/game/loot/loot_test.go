package loot_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/duskforge/arena/internal/game/combat"
	"github.com/duskforge/arena/internal/game/dice"
	"github.com/duskforge/arena/internal/game/loot"
	"github.com/duskforge/arena/internal/game/monster"
	"github.com/duskforge/arena/internal/game/player"
	"github.com/duskforge/arena/internal/game/rank"
	"github.com/duskforge/arena/internal/storage"
)

// seqSource replays a fixed script of draws. Intn returns values[i] % n.
type seqSource struct {
	values []int
	idx    int
}

func (s *seqSource) Intn(n int) int {
	v := s.values[s.idx%len(s.values)]
	s.idx++
	return v % n
}

func newRoller(values ...int) *dice.Roller {
	return dice.NewLoggedRoller(&seqSource{values: values}, zap.NewNop())
}

// testTable awards 30 XP at bronze 1 and 45 XP at bronze 2.
func testTable() *rank.Table {
	return rank.NewTable(map[string]map[int]rank.LevelStats{
		"bronze": {
			1: {HP: 30, Qi: 10, AC: 12, Damage: "1d6", BBA: 1, QiXP: 30},
			2: {HP: 40, Qi: 15, AC: 12, Damage: "1d6", BBA: 2, QiXP: 45},
		},
	})
}

func deadMonster(id, level int, key string) *monster.Instance {
	stats := rank.LevelStats{HP: 10, Damage: "1d4", BBA: 0}
	m := monster.NewInstance(id, &monster.Template{Key: key, Name: key}, "bronze", level, stats)
	m.ApplyDamage(999)
	return m
}

// lootSession builds a running session with the given players enrolled and
// monsters on the roster.
func lootSession(t *testing.T, store storage.RecordStore, playerIDs []string, monsters []*monster.Instance) *combat.Session {
	t.Helper()
	s := combat.NewSession("g1", combat.EnrollmentButtonGated, combat.DefaultRules())
	for _, id := range playerIDs {
		p, err := player.New(id, "bronze", 1, testTable())
		require.NoError(t, err)
		require.NoError(t, s.Join(p))
		data, err := p.Marshal()
		require.NoError(t, err)
		require.NoError(t, store.Put(context.Background(), storage.KindPlayer, id, data))
	}
	require.NoError(t, s.AddMonsters(monsters))
	require.NoError(t, s.Start(newRoller(0)))
	return s
}

// TestEngine_Run_NothingToLoot verifies the no-dead-monsters error.
func TestEngine_Run_NothingToLoot(t *testing.T) {
	store := storage.NewMemStore()
	eng := loot.NewEngine(store, testTable(), nil, zap.NewNop())
	alive := monster.NewInstance(1, &monster.Template{Key: "lobo"}, "bronze", 1,
		rank.LevelStats{HP: 10, Damage: "1d4"})
	s := lootSession(t, store, []string{"p1"}, []*monster.Instance{alive})

	_, err := eng.Run(context.Background(), s, newRoller(0))
	assert.ErrorIs(t, err, loot.ErrNothingToLoot)
}

// TestEngine_Run_XPDistribution verifies the split: XP 30 + 45 over four
// participants gives 18 each, the remainder is dropped.
func TestEngine_Run_XPDistribution(t *testing.T) {
	store := storage.NewMemStore()
	eng := loot.NewEngine(store, testTable(), nil, zap.NewNop())
	ids := []string{"p1", "p2", "p3", "p4"}
	s := lootSession(t, store, ids, []*monster.Instance{
		deadMonster(1, 1, "lobo"),
		deadMonster(2, 2, "lobo"),
	})

	report, err := eng.Run(context.Background(), s, newRoller(0))
	require.NoError(t, err)
	assert.Equal(t, 75, report.TotalXP)
	assert.Equal(t, 18, report.XPPerPlayer)

	for _, id := range ids {
		data, err := store.Get(context.Background(), storage.KindPlayer, id)
		require.NoError(t, err)
		p, err := player.Parse(id, data)
		require.NoError(t, err)
		assert.Equal(t, 18, p.TotalXP, "player %s", id)

		snap, ok := s.Player(id)
		require.True(t, ok)
		assert.Equal(t, 18, snap.TotalXP, "snapshot %s", id)
	}
}

// TestEngine_Run_TemplateDrops verifies the generic drop table path: chance
// draw, quantity formula, accumulation into the report.
func TestEngine_Run_TemplateDrops(t *testing.T) {
	store := storage.NewMemStore()
	tmpl, err := json.Marshal(map[string]any{
		"nome": "Lobo",
		"drops": []map[string]any{
			{"item": "presa", "q": "2d4", "chance": 0.5},
			{"item": "pelo"},
		},
	})
	require.NoError(t, err)
	require.NoError(t, store.Put(context.Background(), storage.KindMonsterTemplate, "lobo", tmpl))

	eng := loot.NewEngine(store, testTable(), nil, zap.NewNop())
	s := lootSession(t, store, []string{"p1"}, []*monster.Instance{deadMonster(1, 1, "lobo")})

	// Draws: presa chance (success), 2d4 dice, then pelo quantity "1" rolls
	// no dice and its absent chance is guaranteed.
	report, err := eng.Run(context.Background(), s, newRoller(0, 2, 3))
	require.NoError(t, err)
	assert.Equal(t, 7, report.Drops["presa"])
	assert.Equal(t, 1, report.Drops["pelo"])
	assert.Equal(t, []string{"presa", "pelo"}, report.DropOrder)
}

// TestEngine_Run_FailedChanceDropsNothing verifies a failed chance draw
// skips the entry entirely.
func TestEngine_Run_FailedChanceDropsNothing(t *testing.T) {
	store := storage.NewMemStore()
	tmpl, err := json.Marshal(map[string]any{
		"drops": []map[string]any{{"item": "presa", "q": "1d4", "chance": 0.5}},
	})
	require.NoError(t, err)
	require.NoError(t, store.Put(context.Background(), storage.KindMonsterTemplate, "lobo", tmpl))

	eng := loot.NewEngine(store, testTable(), nil, zap.NewNop())
	s := lootSession(t, store, []string{"p1"}, []*monster.Instance{deadMonster(1, 1, "lobo")})

	report, err := eng.Run(context.Background(), s, newRoller(9999))
	require.NoError(t, err)
	assert.Empty(t, report.Drops)
}

// TestEngine_Run_RamOverride verifies the hardcoded species rule: hooves
// guaranteed, hide at 70%, bestial sphere on a d100 of 90+.
func TestEngine_Run_RamOverride(t *testing.T) {
	store := storage.NewMemStore()
	eng := loot.NewEngine(store, testTable(), loot.DefaultOverrides(), zap.NewNop())
	s := lootSession(t, store, []string{"p1"}, []*monster.Instance{deadMonster(1, 1, "carneiro")})

	// Draws: 1d4 hooves = 2, hide chance success, d100 = 90.
	report, err := eng.Run(context.Background(), s, newRoller(1, 0, 89))
	require.NoError(t, err)
	assert.Equal(t, 2, report.Drops["cascos"])
	assert.Equal(t, 1, report.Drops["pele"])
	assert.Equal(t, 1, report.Drops["esfera_bestial"])

	require.Len(t, report.Monsters, 1)
	require.Len(t, report.Monsters[0].Special, 1)
	sr := report.Monsters[0].Special[0]
	assert.Equal(t, 90, sr.Roll)
	assert.Equal(t, 90, sr.Needed)
	assert.True(t, sr.Won)
}

// TestEngine_Run_RamGuaranteedBounds verifies hooves always land in 1..4.
func TestEngine_Run_RamGuaranteedBounds(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		store := storage.NewMemStore()
		eng := loot.NewEngine(store, testTable(), loot.DefaultOverrides(), zap.NewNop())
		s := combat.NewSession("g1", combat.EnrollmentButtonGated, combat.DefaultRules())
		if err := s.AddMonsters([]*monster.Instance{deadMonster(1, 1, "carneiro")}); err != nil {
			rt.Fatalf("AddMonsters: %v", err)
		}
		if err := s.Start(newRoller(0)); err != nil {
			rt.Fatalf("Start: %v", err)
		}

		draws := []int{
			rapid.IntRange(0, 9999).Draw(rt, "d4"),
			rapid.IntRange(0, 9999).Draw(rt, "hide"),
			rapid.IntRange(0, 9999).Draw(rt, "d100"),
		}
		report, err := eng.Run(context.Background(), s, newRoller(draws...))
		if err != nil {
			rt.Fatalf("Run: %v", err)
		}
		if q := report.Drops["cascos"]; q < 1 || q > 4 {
			rt.Fatalf("cascos quantity %d outside [1, 4]", q)
		}
	})
}

// TestEngine_Run_RoundRobinConservation verifies no unit is lost or
// duplicated across the participant inventories.
func TestEngine_Run_RoundRobinConservation(t *testing.T) {
	store := storage.NewMemStore()
	eng := loot.NewEngine(store, testTable(), loot.DefaultOverrides(), zap.NewNop())
	ids := []string{"p1", "p2"}
	s := lootSession(t, store, ids, []*monster.Instance{deadMonster(1, 1, "carneiro")})

	// Hooves 1d4 = 3, hide drops, sphere misses.
	report, err := eng.Run(context.Background(), s, newRoller(2, 0, 10))
	require.NoError(t, err)
	require.Equal(t, 3, report.Drops["cascos"])
	require.Equal(t, 1, report.Drops["pele"])

	totals := make(map[string]int)
	perPlayer := make(map[string]map[string]int)
	for _, id := range ids {
		data, err := store.Get(context.Background(), storage.KindPlayer, id)
		require.NoError(t, err)
		p, err := player.Parse(id, data)
		require.NoError(t, err)
		perPlayer[id] = p.Inventory
		for k, q := range p.Inventory {
			totals[k] += q
		}
	}
	assert.Equal(t, report.Drops, totals)
	// Unit-at-a-time from the top of the join order: p1 takes the odd unit.
	assert.Equal(t, 2, perPlayer["p1"]["cascos"])
	assert.Equal(t, 1, perPlayer["p2"]["cascos"])
	assert.Equal(t, 1, perPlayer["p1"]["pele"])
}

// TestEngine_Run_NoParticipants verifies drops are computed but nothing is
// persisted when nobody is enrolled.
func TestEngine_Run_NoParticipants(t *testing.T) {
	store := storage.NewMemStore()
	eng := loot.NewEngine(store, testTable(), loot.DefaultOverrides(), zap.NewNop())
	s := combat.NewSession("g1", combat.EnrollmentButtonGated, combat.DefaultRules())
	require.NoError(t, s.AddMonsters([]*monster.Instance{deadMonster(1, 1, "carneiro")}))
	require.NoError(t, s.Start(newRoller(0)))

	report, err := eng.Run(context.Background(), s, newRoller(0, 9999, 0))
	require.NoError(t, err)
	assert.Equal(t, 30, report.TotalXP)
	assert.NotEmpty(t, report.Drops)

	records, err := store.GetAll(context.Background(), storage.KindPlayer)
	require.NoError(t, err)
	assert.Empty(t, records)
}

// TestEngine_Run_ScriptedResolverPrecedence verifies a scripted drop table
// displaces the stored template's table.
func TestEngine_Run_ScriptedResolverPrecedence(t *testing.T) {
	store := storage.NewMemStore()
	tmpl, err := json.Marshal(map[string]any{
		"drops": []map[string]any{{"item": "presa"}},
	})
	require.NoError(t, err)
	require.NoError(t, store.Put(context.Background(), storage.KindMonsterTemplate, "lobo", tmpl))

	overrides := loot.NewOverrides()
	overrides.SetResolver(func(species, rankName string, level int) ([]monster.DropEntry, bool) {
		if species != "lobo" {
			return nil, false
		}
		return []monster.DropEntry{{Item: "presa_sombria", Quantity: "2"}}, true
	})
	eng := loot.NewEngine(store, testTable(), overrides, zap.NewNop())
	s := lootSession(t, store, []string{"p1"}, []*monster.Instance{deadMonster(1, 1, "lobo")})

	report, err := eng.Run(context.Background(), s, newRoller(0))
	require.NoError(t, err)
	assert.Equal(t, 2, report.Drops["presa_sombria"])
	assert.NotContains(t, report.Drops, "presa")
}

// TestOverrides_FragmentMatch verifies substring species matching.
func TestOverrides_FragmentMatch(t *testing.T) {
	store := storage.NewMemStore()
	eng := loot.NewEngine(store, testTable(), loot.DefaultOverrides(), zap.NewNop())
	s := lootSession(t, store, []string{"p1"}, []*monster.Instance{deadMonster(1, 1, "Carneiro_Negro")})

	report, err := eng.Run(context.Background(), s, newRoller(0, 9999, 0))
	require.NoError(t, err)
	assert.Contains(t, report.Drops, "cascos")
}

// TestEngine_Run_XPConservationProperty checks every participant gains the
// same floor share for arbitrary rosters.
func TestEngine_Run_XPConservationProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		store := storage.NewMemStore()
		eng := loot.NewEngine(store, testTable(), nil, zap.NewNop())
		nPlayers := rapid.IntRange(1, 5).Draw(rt, "players")
		nDead := rapid.IntRange(1, 4).Draw(rt, "dead")

		s := combat.NewSession("g1", combat.EnrollmentButtonGated, combat.DefaultRules())
		var ids []string
		for i := 0; i < nPlayers; i++ {
			id := fmt.Sprintf("p%d", i)
			p, err := player.New(id, "bronze", 1, testTable())
			if err != nil {
				rt.Fatalf("player.New: %v", err)
			}
			if err := s.Join(p); err != nil {
				rt.Fatalf("Join: %v", err)
			}
			data, err := p.Marshal()
			if err != nil {
				rt.Fatalf("Marshal: %v", err)
			}
			if err := store.Put(context.Background(), storage.KindPlayer, id, data); err != nil {
				rt.Fatalf("Put: %v", err)
			}
			ids = append(ids, id)
		}
		var monsters []*monster.Instance
		for i := 0; i < nDead; i++ {
			monsters = append(monsters, deadMonster(i+1, 1, "lobo"))
		}
		if err := s.AddMonsters(monsters); err != nil {
			rt.Fatalf("AddMonsters: %v", err)
		}
		if err := s.Start(newRoller(0)); err != nil {
			rt.Fatalf("Start: %v", err)
		}

		report, err := eng.Run(context.Background(), s, newRoller(0))
		if err != nil {
			rt.Fatalf("Run: %v", err)
		}
		want := report.TotalXP / nPlayers
		if report.XPPerPlayer != want {
			rt.Fatalf("XPPerPlayer = %d, want %d", report.XPPerPlayer, want)
		}
		for _, id := range ids {
			data, err := store.Get(context.Background(), storage.KindPlayer, id)
			if err != nil {
				rt.Fatalf("Get %s: %v", id, err)
			}
			p, err := player.Parse(id, data)
			if err != nil {
				rt.Fatalf("Parse %s: %v", id, err)
			}
			if p.TotalXP != want {
				rt.Fatalf("player %s TotalXP = %d, want %d", id, p.TotalXP, want)
			}
		}
	})
}
