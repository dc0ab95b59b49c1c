// Package rank provides the cultivation rank/level progression table:
// baseline stats per (rank, level), XP awards for defeating monsters of a
// given tier, and placement of a cumulative XP total onto the ladder.
package rank

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// MaxLevel is the highest level within a single rank.
const MaxLevel = 5

// DefaultOrder is the canonical ladder from lowest to highest rank.
var DefaultOrder = []string{"bronze", "prata", "ouro", "ouro negro", "lendário"}

// LevelStats holds the baseline stats for one (rank, level) cell of the
// progression table. QiXP doubles as the XP award for defeating a monster of
// that tier and as the XP needed to climb past the tier.
type LevelStats struct {
	HP     int    `json:"hp"`
	Qi     int    `json:"qi"`
	AC     int    `json:"ca"`
	Damage string `json:"dano"`
	BBA    int    `json:"bba"`
	QiXP   int    `json:"qi_xp"`
}

// ParseLevels decodes one stored rank record: a JSON object keyed by level
// number as a string ("1" through "5").
//
// Precondition: data must be a valid JSON object.
// Postcondition: Returns a map keyed by integer level, or an error if any key
// is not an integer in [1, MaxLevel].
func ParseLevels(data []byte) (map[int]LevelStats, error) {
	var raw map[string]LevelStats
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing rank record: %w", err)
	}
	levels := make(map[int]LevelStats, len(raw))
	for key, stats := range raw {
		lv, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("rank record: level key %q is not an integer", key)
		}
		if lv < 1 || lv > MaxLevel {
			return nil, fmt.Errorf("rank record: level %d out of range [1, %d]", lv, MaxLevel)
		}
		levels[lv] = stats
	}
	return levels, nil
}
