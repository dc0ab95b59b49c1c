// Package loot computes XP awards and item drops for the defeated monsters
// of a combat session and distributes both across the participants.
package loot

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/duskforge/arena/internal/game/combat"
	"github.com/duskforge/arena/internal/game/dice"
	"github.com/duskforge/arena/internal/game/monster"
	"github.com/duskforge/arena/internal/game/player"
	"github.com/duskforge/arena/internal/game/rank"
	"github.com/duskforge/arena/internal/storage"
)

// ErrNothingToLoot is returned when no monster on the roster is defeated.
var ErrNothingToLoot = errors.New("loot: no defeated monsters")

// Drop is one awarded item stack from a single monster.
type Drop struct {
	Item     string
	Name     string
	Quantity int
	Chance   float64
}

// SpecialRoll records a rare-threshold draw so the presentation layer can
// narrate it whether or not it paid out.
type SpecialRoll struct {
	Item   string
	Roll   int
	Needed int
	Won    bool
}

// MonsterResult is the per-monster line of the loot log.
type MonsterResult struct {
	MonsterID   int
	MonsterName string
	XP          int
	Drops       []Drop
	Special     []SpecialRoll
}

// Report is the structured outcome of one loot pass.
type Report struct {
	TotalXP     int
	XPPerPlayer int
	// Drops holds the accumulated quantity per item key.
	Drops map[string]int
	// DropOrder lists item keys in first-appearance order; round-robin
	// distribution follows it so results are reproducible.
	DropOrder []string
	Monsters  []MonsterResult
}

// Engine runs the loot pass. It reads monster templates and player records
// from the store and persists all touched players in one batch.
type Engine struct {
	store     storage.RecordStore
	table     *rank.Table
	overrides *Overrides
	logger    *zap.Logger
}

// NewEngine creates a loot Engine.
//
// Precondition: store, table and logger must be non-nil; overrides may be
// nil for the generic path only.
func NewEngine(store storage.RecordStore, table *rank.Table, overrides *Overrides, logger *zap.Logger) *Engine {
	if overrides == nil {
		overrides = NewOverrides()
	}
	return &Engine{store: store, table: table, overrides: overrides, logger: logger}
}

// Run computes XP and drops for every defeated monster on the session's
// roster and distributes them across the enrolled participants: XP is split
// floor(total / participants) to every participant regardless of life
// status, items go round-robin one unit at a time in join order. All touched
// player records are persisted in a single batch and the in-session
// snapshots refreshed afterwards.
//
// Postcondition: returns ErrNothingToLoot (and mutates nothing) when no
// roster monster is at 0 HP; otherwise returns the structured report.
func (e *Engine) Run(ctx context.Context, s *combat.Session, roller *dice.Roller) (*Report, error) {
	dead := s.DeadMonsters()
	if len(dead) == 0 {
		return nil, fmt.Errorf("%w: arena %q", ErrNothingToLoot, s.ArenaID)
	}

	report := &Report{Drops: make(map[string]int)}
	for _, m := range dead {
		result := e.lootMonster(ctx, m, roller)
		report.TotalXP += result.XP
		for _, d := range result.Drops {
			if _, seen := report.Drops[d.Item]; !seen {
				report.DropOrder = append(report.DropOrder, d.Item)
			}
			report.Drops[d.Item] += d.Quantity
		}
		report.Monsters = append(report.Monsters, result)
	}

	participants := s.Participants()
	report.XPPerPlayer = report.TotalXP / max(1, len(participants))
	if len(participants) == 0 {
		return report, nil
	}

	players := make(map[string]*player.Player, len(participants))
	for _, pid := range participants {
		p, err := e.loadPlayer(ctx, s, pid)
		if err != nil {
			return nil, err
		}
		players[pid] = p
	}

	for _, pid := range participants {
		players[pid].AddXP(report.XPPerPlayer, e.table)
	}

	// Each item cycles the participant list from the top, one unit at a time.
	for _, itemKey := range report.DropOrder {
		qty := report.Drops[itemKey]
		for i := 0; qty > 0; i++ {
			players[participants[i%len(participants)]].AddItem(itemKey, 1)
			qty--
		}
	}

	records := make(map[string][]byte, len(players))
	for pid, p := range players {
		data, err := p.Marshal()
		if err != nil {
			return nil, fmt.Errorf("loot: encoding player %q: %w", pid, err)
		}
		records[pid] = data
	}
	if err := e.store.PutAll(ctx, storage.KindPlayer, records); err != nil {
		return nil, fmt.Errorf("loot: persisting players for arena %q: %w", s.ArenaID, err)
	}
	for _, p := range players {
		if err := s.RefreshPlayer(p); err != nil {
			return nil, err
		}
	}

	e.logger.Info("loot distributed",
		zap.String("arena", s.ArenaID),
		zap.Int("total_xp", report.TotalXP),
		zap.Int("xp_per_player", report.XPPerPlayer),
		zap.Int("participants", len(participants)),
		zap.Int("item_kinds", len(report.DropOrder)),
	)
	return report, nil
}

// lootMonster resolves one defeated monster: XP from the progression table,
// drops from the species override when one matches, otherwise from the
// template's drop table.
func (e *Engine) lootMonster(ctx context.Context, m *monster.Instance, roller *dice.Roller) MonsterResult {
	result := MonsterResult{
		MonsterID:   m.ID,
		MonsterName: m.Name,
		XP:          e.table.XPAward(m.Rank, m.Level),
	}

	if fn, ok := e.overrides.resolve(m.Key); ok {
		result.Drops, result.Special = fn(roller)
		return result
	}

	entries := e.templateDrops(ctx, m)
	for _, entry := range entries {
		if !rollChance(roller, entry.Chance) {
			continue
		}
		qty := roller.RollExprOrDefault(entry.Quantity, "1").Total()
		if qty <= 0 {
			continue
		}
		result.Drops = append(result.Drops, Drop{
			Item:     entry.Item,
			Name:     entry.Item,
			Quantity: qty,
			Chance:   chanceOrCertain(entry.Chance),
		})
	}
	return result
}

// templateDrops returns the drop table for the monster's species: scripted
// tables take precedence over the stored template, and a missing template
// record simply yields no drops.
func (e *Engine) templateDrops(ctx context.Context, m *monster.Instance) []monster.DropEntry {
	if entries, ok := e.overrides.scripted(m.Key, m.Rank, m.Level); ok {
		return entries
	}
	data, err := e.store.Get(ctx, storage.KindMonsterTemplate, m.Key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			e.logger.Warn("loot: loading monster template",
				zap.String("monster", m.Key), zap.Error(err))
		}
		return nil
	}
	tmpl, err := monster.ParseTemplate(m.Key, data)
	if err != nil {
		e.logger.Warn("loot: bad monster template",
			zap.String("monster", m.Key), zap.Error(err))
		return nil
	}
	return tmpl.Drops
}

// loadPlayer fetches the persistent record for pid, falling back to the
// in-session snapshot when the record does not exist yet.
func (e *Engine) loadPlayer(ctx context.Context, s *combat.Session, pid string) (*player.Player, error) {
	data, err := e.store.Get(ctx, storage.KindPlayer, pid)
	if errors.Is(err, storage.ErrNotFound) {
		if p, ok := s.Player(pid); ok {
			return p, nil
		}
		return nil, fmt.Errorf("loot: participant %q has no record and no snapshot", pid)
	}
	if err != nil {
		return nil, fmt.Errorf("loot: loading player %q: %w", pid, err)
	}
	return player.Parse(pid, data)
}

const chanceGranularity = 10_000

// rollChance draws once against probability p. A chance of 0 on a drop entry
// means the field was absent and the drop is guaranteed.
func rollChance(roller *dice.Roller, p float64) bool {
	if p <= 0 || p >= 1 {
		return true
	}
	return float64(roller.Source().Intn(chanceGranularity)) < p*chanceGranularity
}

func chanceOrCertain(p float64) float64 {
	if p <= 0 {
		return 1.0
	}
	return p
}
