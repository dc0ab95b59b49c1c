// Package arena orchestrates combat commands against the session engine:
// encounter lifecycle, the prompted attack pipeline, out-of-turn damage and
// recovery, loot runs, and the administrative and shop operations. The
// command dispatcher performs authorization and argument parsing before
// calling in here.
package arena

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/duskforge/arena/internal/config"
	"github.com/duskforge/arena/internal/game/combat"
	"github.com/duskforge/arena/internal/game/dice"
	"github.com/duskforge/arena/internal/game/item"
	"github.com/duskforge/arena/internal/game/loot"
	"github.com/duskforge/arena/internal/game/monster"
	"github.com/duskforge/arena/internal/game/player"
	"github.com/duskforge/arena/internal/game/rank"
	"github.com/duskforge/arena/internal/notify"
	"github.com/duskforge/arena/internal/storage"
)

// MonsterSpec requests quantity instances of a species pitched at a
// progression cell.
type MonsterSpec struct {
	Species  string
	Rank     string
	Level    int
	Quantity int
}

// Service wires the combat engine, the loot engine, the record store and
// the notifier into command-level operations. One Service serves all
// arenas; per-arena serialisation happens inside the engine.
type Service struct {
	engine   *combat.Engine
	loot     *loot.Engine
	store    storage.RecordStore
	notifier notify.Notifier
	roller   *dice.Roller
	cfg      config.ArenaConfig
	logger   *zap.Logger

	table *rank.Table
	items *item.Registry
}

// New creates a Service over content already loaded with LoadContent.
//
// Precondition: all arguments must be non-nil.
func New(
	engine *combat.Engine,
	lootEngine *loot.Engine,
	store storage.RecordStore,
	notifier notify.Notifier,
	roller *dice.Roller,
	table *rank.Table,
	items *item.Registry,
	cfg config.ArenaConfig,
	logger *zap.Logger,
) *Service {
	return &Service{
		engine:   engine,
		loot:     lootEngine,
		store:    store,
		notifier: notifier,
		roller:   roller,
		table:    table,
		items:    items,
		cfg:      cfg,
		logger:   logger,
	}
}

// RulesFromConfig maps the arena configuration onto the combat ruleset.
func RulesFromConfig(cfg config.ArenaConfig) combat.Rules {
	return combat.Rules{
		ReflexDCBase:  cfg.ReflexDCBase,
		DefendACBonus: cfg.DefendACBonus,
		DefaultDamage: cfg.DefaultDamage,
	}
}

// LoadContent builds the progression table and the item registry from the
// stored records.
func LoadContent(ctx context.Context, store storage.RecordStore, logger *zap.Logger) (*rank.Table, *item.Registry, error) {
	rankRecords, err := store.GetAll(ctx, storage.KindRankTable)
	if err != nil {
		return nil, nil, fmt.Errorf("arena: loading rank records: %w", err)
	}
	rawRanks := make(map[string]json.RawMessage, len(rankRecords))
	for name, data := range rankRecords {
		rawRanks[name] = json.RawMessage(data)
	}
	table, err := rank.BuildTable(rawRanks)
	if err != nil {
		return nil, nil, fmt.Errorf("arena: building progression table: %w", err)
	}

	itemRecords, err := store.GetAll(ctx, storage.KindItem)
	if err != nil {
		return nil, nil, fmt.Errorf("arena: loading item records: %w", err)
	}
	equipRecords, err := store.GetAll(ctx, storage.KindEquipment)
	if err != nil {
		return nil, nil, fmt.Errorf("arena: loading equipment records: %w", err)
	}
	registry := item.NewRegistry()
	if err := registry.LoadRecords(itemRecords, equipRecords); err != nil {
		return nil, nil, fmt.Errorf("arena: building item registry: %w", err)
	}

	logger.Info("content loaded",
		zap.Int("ranks", len(rankRecords)),
		zap.Int("items", len(itemRecords)),
		zap.Int("equipment", len(equipRecords)),
	)
	return table, registry, nil
}

// Table returns the loaded progression table.
func (s *Service) Table() *rank.Table { return s.table }

// Items returns the loaded item registry.
func (s *Service) Items() *item.Registry { return s.items }

// CreateEncounter opens a session for arenaID and spawns the requested
// monsters, numbered densely from 1 across all specs. For timed enrollment
// the window is announced; the dispatcher calls Begin when it closes.
//
// Postcondition: the arena has a waiting session, or ErrSessionActive.
func (s *Service) CreateEncounter(ctx context.Context, arenaID string, mode combat.EnrollmentMode, specs []MonsterSpec) (*combat.Session, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("arena: encounter needs at least one monster spec")
	}

	var instances []*monster.Instance
	nextID := 1
	for _, spec := range specs {
		if spec.Quantity < 1 || spec.Quantity > s.cfg.MaxMonsters {
			return nil, fmt.Errorf("arena: quantity for %q must be 1-%d, got %d", spec.Species, s.cfg.MaxMonsters, spec.Quantity)
		}
		data, err := s.store.Get(ctx, storage.KindMonsterTemplate, spec.Species)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil, fmt.Errorf("arena: unknown monster %q", spec.Species)
			}
			return nil, fmt.Errorf("arena: loading monster %q: %w", spec.Species, err)
		}
		tmpl, err := monster.ParseTemplate(spec.Species, data)
		if err != nil {
			return nil, err
		}
		stats, ok := s.table.Stats(spec.Rank, spec.Level)
		if !ok {
			return nil, fmt.Errorf("arena: no progression entry for rank %q level %d", spec.Rank, spec.Level)
		}
		for i := 0; i < spec.Quantity; i++ {
			instances = append(instances, monster.NewInstance(nextID, tmpl, spec.Rank, spec.Level, stats))
			nextID++
		}
	}

	session, err := s.engine.Create(arenaID, mode)
	if err != nil {
		return nil, err
	}
	if err := session.AddMonsters(instances); err != nil {
		return nil, err
	}

	msg := fmt.Sprintf("Encounter opened with %d monster(s). Join now!", len(instances))
	if mode == combat.EnrollmentTimed {
		msg = fmt.Sprintf("Encounter opened with %d monster(s). Enrollment closes in %s.", len(instances), s.cfg.EnrollmentWindow)
	}
	s.announce(ctx, arenaID, msg)
	return session, nil
}

// Join enrolls playerID into the arena's waiting session. A missing player
// record is created at the bottom of the ladder first, so every snapshot in
// the session is backed by a persisted record.
func (s *Service) Join(ctx context.Context, arenaID, playerID string) error {
	p, created, err := s.loadOrCreatePlayer(ctx, playerID)
	if err != nil {
		return err
	}
	err = s.engine.With(arenaID, func(session *combat.Session) error {
		return session.Join(p)
	})
	if err != nil {
		return err
	}
	if created {
		s.announce(ctx, arenaID, fmt.Sprintf("%s registered a fresh sheet and joined the fight.", playerID))
		return nil
	}
	s.announce(ctx, arenaID, fmt.Sprintf("%s joined the fight.", playerID))
	return nil
}

// Begin rolls initiative and starts the encounter.
func (s *Service) Begin(ctx context.Context, arenaID string) error {
	var status notify.Status
	err := s.engine.With(arenaID, func(session *combat.Session) error {
		if err := session.Start(s.roller); err != nil {
			return err
		}
		status = s.buildStatus(session)
		return nil
	})
	if err != nil {
		return err
	}
	s.announce(ctx, arenaID, "Initiative rolled. "+status.CurrentActor+" acts first.")
	s.updateStatus(ctx, status)
	return nil
}

// NextTurn advances the turn order and reports whose turn it is.
func (s *Service) NextTurn(ctx context.Context, arenaID string) error {
	var status notify.Status
	err := s.engine.With(arenaID, func(session *combat.Session) error {
		if session.Status != combat.StatusRunning {
			return fmt.Errorf("arena: %q is %s, not running", arenaID, session.Status)
		}
		session.Advance()
		status = s.buildStatus(session)
		return nil
	})
	if err != nil {
		return err
	}
	s.announce(ctx, arenaID, "Turn passes to "+status.CurrentActor+".")
	s.updateStatus(ctx, status)
	return nil
}

// Pause halts turn advancement; direct damage and recovery stay available.
func (s *Service) Pause(ctx context.Context, arenaID string) error {
	err := s.engine.With(arenaID, func(session *combat.Session) error {
		return session.Pause()
	})
	if err != nil {
		return err
	}
	s.announce(ctx, arenaID, "Combat paused.")
	return nil
}

// Resume reverses Pause.
func (s *Service) Resume(ctx context.Context, arenaID string) error {
	err := s.engine.With(arenaID, func(session *combat.Session) error {
		return session.Resume()
	})
	if err != nil {
		return err
	}
	s.announce(ctx, arenaID, "Combat resumed.")
	return nil
}

// ActiveEncounter reports whether the arena has a live session.
func (s *Service) ActiveEncounter(arenaID string) bool {
	return s.engine.Active(arenaID)
}

// EndEncounter tears the session down without running loot; callers wanting
// rewards run RunLoot first.
func (s *Service) EndEncounter(ctx context.Context, arenaID string) error {
	if _, err := s.engine.End(arenaID); err != nil {
		return err
	}
	s.announce(ctx, arenaID, "Combat ended.")
	return nil
}

// loadOrCreatePlayer fetches a player record, creating and persisting a
// level-1 sheet at the bottom rank when none exists.
func (s *Service) loadOrCreatePlayer(ctx context.Context, playerID string) (*player.Player, bool, error) {
	data, err := s.store.Get(ctx, storage.KindPlayer, playerID)
	if err == nil {
		p, perr := player.Parse(playerID, data)
		return p, false, perr
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, false, fmt.Errorf("arena: loading player %q: %w", playerID, err)
	}

	ranks := s.table.Ranks()
	if len(ranks) == 0 {
		return nil, false, fmt.Errorf("arena: progression table is empty")
	}
	p, err := player.New(playerID, ranks[0], 1, s.table)
	if err != nil {
		return nil, false, err
	}
	if err := s.persistPlayer(ctx, p); err != nil {
		return nil, false, err
	}
	return p, true, nil
}

// persistPlayer writes p's record to the store.
func (s *Service) persistPlayer(ctx context.Context, p *player.Player) error {
	data, err := p.Marshal()
	if err != nil {
		return fmt.Errorf("arena: encoding player %q: %w", p.ID, err)
	}
	if err := s.store.Put(ctx, storage.KindPlayer, p.ID, data); err != nil {
		return fmt.Errorf("arena: persisting player %q: %w", p.ID, err)
	}
	return nil
}

// announce posts a message, logging delivery failures instead of surfacing
// them: a committed mutation is never rolled back over presentation.
func (s *Service) announce(ctx context.Context, arenaID, message string) {
	if err := s.notifier.Announce(ctx, arenaID, message); err != nil {
		s.logger.Warn("announce failed", zap.String("arena", arenaID), zap.Error(err))
	}
}

// updateStatus pushes a status snapshot, logging failures.
func (s *Service) updateStatus(ctx context.Context, status notify.Status) {
	if err := s.notifier.UpdateStatus(ctx, status); err != nil {
		s.logger.Warn("status update failed", zap.String("arena", status.ArenaID), zap.Error(err))
	}
}
