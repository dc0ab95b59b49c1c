package rank_test

import (
	"encoding/json"
	"testing"

	"github.com/duskforge/arena/internal/game/rank"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// testTable builds a two-rank ladder with qi_xp 10 per bronze level and 50
// per prata level.
func testTable(t *testing.T) *rank.Table {
	t.Helper()
	ranks := map[string]map[int]rank.LevelStats{
		"bronze": levels(10, 20, 12, "1d4"),
		"prata":  levels(50, 60, 14, "1d8"),
	}
	return rank.NewTable(ranks)
}

func levels(qiXP, hp, ac int, dmg string) map[int]rank.LevelStats {
	m := make(map[int]rank.LevelStats, rank.MaxLevel)
	for lv := 1; lv <= rank.MaxLevel; lv++ {
		m[lv] = rank.LevelStats{HP: hp + lv*10, Qi: 30, AC: ac, Damage: dmg, BBA: lv, QiXP: qiXP}
	}
	return m
}

func TestParseLevels(t *testing.T) {
	data := []byte(`{"1": {"hp": 50, "qi": 30, "ca": 12, "dano": "1d6", "bba": 2, "qi_xp": 25}}`)
	parsed, err := rank.ParseLevels(data)
	require.NoError(t, err)
	require.Contains(t, parsed, 1)
	assert.Equal(t, 50, parsed[1].HP)
	assert.Equal(t, "1d6", parsed[1].Damage)
	assert.Equal(t, 25, parsed[1].QiXP)
}

func TestParseLevels_RejectsBadKeys(t *testing.T) {
	_, err := rank.ParseLevels([]byte(`{"one": {}}`))
	assert.Error(t, err)
	_, err = rank.ParseLevels([]byte(`{"6": {}}`))
	assert.Error(t, err, "levels above MaxLevel must be rejected")
	_, err = rank.ParseLevels([]byte(`[1, 2]`))
	assert.Error(t, err)
}

func TestBuildTable(t *testing.T) {
	records := map[string]json.RawMessage{
		"bronze": []byte(`{"1": {"hp": 40, "qi_xp": 10}}`),
	}
	table, err := rank.BuildTable(records)
	require.NoError(t, err)
	stats, ok := table.Stats("bronze", 1)
	require.True(t, ok)
	assert.Equal(t, 40, stats.HP)

	records["prata"] = []byte(`{"zero": {}}`)
	_, err = rank.BuildTable(records)
	assert.Error(t, err)
}

func TestTable_XPAward(t *testing.T) {
	table := testTable(t)
	assert.Equal(t, 10, table.XPAward("bronze", 3))
	assert.Equal(t, 50, table.XPAward("prata", 1))
	assert.Equal(t, 0, table.XPAward("ouro", 1), "unknown cells award 0")
}

func TestTable_Threshold(t *testing.T) {
	table := testTable(t)
	assert.Equal(t, 10, table.Threshold("bronze", 1))
	assert.Equal(t, 50, table.Threshold("bronze", 5))
	assert.Equal(t, 150, table.Threshold("prata", 3))
	assert.Equal(t, 0, table.Threshold("ouro", 5))
}

func TestTable_Placement(t *testing.T) {
	table := testTable(t)
	tests := []struct {
		xp    int
		rank  string
		level int
	}{
		{0, "bronze", 1},
		{9, "bronze", 1},
		{10, "bronze", 2},
		{49, "bronze", 5},
		{50, "prata", 1}, // bronze ladder exhausted at 50
		{99, "prata", 1}, // prata level 1 spans [50, 100)
		{100, "prata", 2},
		{299, "prata", 5},
	}
	for _, tc := range tests {
		r, lv := table.Placement(tc.xp)
		assert.Equal(t, tc.rank, r, "rank for xp=%d", tc.xp)
		assert.Equal(t, tc.level, lv, "level for xp=%d", tc.xp)
	}
}

func TestTable_Placement_BeyondLadderCapsAtHighest(t *testing.T) {
	table := testTable(t)
	r, lv := table.Placement(1_000_000)
	assert.Equal(t, "prata", r)
	assert.Equal(t, rank.MaxLevel, lv)
}

func TestTable_Placement_SkipsMissingRanks(t *testing.T) {
	table := rank.NewTable(map[string]map[int]rank.LevelStats{
		"ouro": levels(100, 200, 16, "2d6"),
	})
	r, lv := table.Placement(0)
	assert.Equal(t, "ouro", r)
	assert.Equal(t, 1, lv)
	assert.Equal(t, []string{"ouro"}, table.Ranks())
}

// Placement is monotone: more XP never lowers rank or level.
func TestTable_Placement_Property_Monotone(t *testing.T) {
	table := testTable(t)
	pos := func(r string, lv int) int {
		for i, name := range table.Ranks() {
			if name == r {
				return i*rank.MaxLevel + lv
			}
		}
		return -1
	}
	rapid.Check(t, func(rt *rapid.T) {
		a := rapid.IntRange(0, 400).Draw(rt, "a")
		b := rapid.IntRange(0, 400).Draw(rt, "b")
		if a > b {
			a, b = b, a
		}
		ra, la := table.Placement(a)
		rb, lb := table.Placement(b)
		assert.LessOrEqual(rt, pos(ra, la), pos(rb, lb))
	})
}
