package rank

import (
	"encoding/json"
	"fmt"
)

// Table is an immutable progression table built from stored rank records.
// Ranks absent from the data are skipped when walking the ladder, matching
// lookup semantics on a partially populated table.
type Table struct {
	order []string
	ranks map[string]map[int]LevelStats
}

// NewTable builds a Table from per-rank level maps, walked in DefaultOrder.
//
// Precondition: ranks must be non-nil; keys outside DefaultOrder are retained
// for direct lookup but never visited by Placement.
// Postcondition: Returns a non-nil *Table.
func NewTable(ranks map[string]map[int]LevelStats) *Table {
	if ranks == nil {
		panic("rank.NewTable: precondition violated: ranks must be non-nil")
	}
	return &Table{order: DefaultOrder, ranks: ranks}
}

// BuildTable parses a full set of stored rank records, keyed by rank name.
//
// Postcondition: Returns a Table containing every record that parsed cleanly,
// or an error naming the first record that did not.
func BuildTable(records map[string]json.RawMessage) (*Table, error) {
	ranks := make(map[string]map[int]LevelStats, len(records))
	for name, data := range records {
		levels, err := ParseLevels(data)
		if err != nil {
			return nil, fmt.Errorf("rank %q: %w", name, err)
		}
		ranks[name] = levels
	}
	return NewTable(ranks), nil
}

// Stats returns the baseline stats for the given rank and level.
func (t *Table) Stats(rank string, level int) (LevelStats, bool) {
	levels, ok := t.ranks[rank]
	if !ok {
		return LevelStats{}, false
	}
	stats, ok := levels[level]
	return stats, ok
}

// XPAward returns the XP granted for defeating a monster of the given rank
// and level. Unknown cells award 0.
func (t *Table) XPAward(rank string, level int) int {
	stats, ok := t.Stats(rank, level)
	if !ok {
		return 0
	}
	return stats.QiXP
}

// Threshold returns the cumulative XP required to reach the given level
// within a single rank: the sum of qi_xp for levels 1 through level.
//
// Precondition: level must be >= 1.
// Postcondition: Returns 0 for unknown ranks; missing levels contribute 0.
func (t *Table) Threshold(rank string, level int) int {
	levels, ok := t.ranks[rank]
	if !ok {
		return 0
	}
	total := 0
	for lv := 1; lv <= level; lv++ {
		total += levels[lv].QiXP
	}
	return total
}

// Placement walks the ladder and returns the rank and level a cumulative XP
// total lands on. The walk accumulates qi_xp across ranks in order; the first
// cell whose running threshold exceeds totalXP is where the total lands.
//
// Postcondition: If totalXP exceeds every threshold, returns the highest
// populated rank at MaxLevel. Returns ("", 0) only when no rank in the ladder
// order has data.
func (t *Table) Placement(totalXP int) (string, int) {
	cum := 0
	for _, r := range t.order {
		levels, ok := t.ranks[r]
		if !ok {
			continue
		}
		for lv := 1; lv <= MaxLevel; lv++ {
			prev := cum
			cum += levels[lv].QiXP
			if totalXP < cum {
				if totalXP >= prev {
					return r, lv
				}
				if lv > 1 {
					return r, lv - 1
				}
				return r, 1
			}
		}
	}
	for i := len(t.order) - 1; i >= 0; i-- {
		if _, ok := t.ranks[t.order[i]]; ok {
			return t.order[i], MaxLevel
		}
	}
	return "", 0
}

// Ranks returns the ladder order restricted to ranks present in the table.
func (t *Table) Ranks() []string {
	present := make([]string, 0, len(t.order))
	for _, r := range t.order {
		if _, ok := t.ranks[r]; ok {
			present = append(present, r)
		}
	}
	return present
}
