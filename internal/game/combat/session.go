package combat

import (
	"fmt"
	"sort"

	"github.com/duskforge/arena/internal/game/dice"
	"github.com/duskforge/arena/internal/game/monster"
	"github.com/duskforge/arena/internal/game/player"
)

// Session is the live state of one encounter in an arena.
// It is not safe for concurrent use; the caller must serialise access
// (the Engine does this per arena).
type Session struct {
	// ArenaID identifies the arena hosting this encounter.
	ArenaID string
	// Status is the lifecycle state.
	Status Status
	// Enrollment is how players entered the waiting roster.
	Enrollment EnrollmentMode
	// Round starts at 1 when the session starts and increments each time the
	// turn order wraps.
	Round int
	// TurnOrder is the initiative-ordered actor list, built once by Start.
	TurnOrder []ActorRef
	// TurnIndex is the index of the current actor in TurnOrder.
	TurnIndex int
	// Monsters is the roster keyed by instance ID. Dead monsters stay on the
	// roster until session end so the loot pass can account for them.
	Monsters map[int]*monster.Instance
	// Players holds the in-session snapshot of each enrolled player. The
	// persistent record stays the source of truth; snapshots are replaced
	// after each persisted mutation.
	Players map[string]*player.Player

	rules     Rules
	joinOrder []string
}

// NewSession creates a waiting session for arenaID.
//
// Postcondition: Status is StatusWaiting with empty rosters.
func NewSession(arenaID string, mode EnrollmentMode, rules Rules) *Session {
	return &Session{
		ArenaID:    arenaID,
		Status:     StatusWaiting,
		Enrollment: mode,
		Monsters:   make(map[int]*monster.Instance),
		Players:    make(map[string]*player.Player),
		rules:      rules,
	}
}

// AddMonsters places instances on the roster.
//
// Precondition: instance IDs must be unique within the session.
func (s *Session) AddMonsters(instances []*monster.Instance) error {
	for _, m := range instances {
		if _, exists := s.Monsters[m.ID]; exists {
			return fmt.Errorf("combat: duplicate monster id %d in arena %q", m.ID, s.ArenaID)
		}
		s.Monsters[m.ID] = m
	}
	return nil
}

// Join enrolls a player snapshot. Rejoining is a no-op.
//
// Postcondition: the player is on the roster exactly once, in join order.
func (s *Session) Join(p *player.Player) error {
	if s.Status != StatusWaiting {
		return fmt.Errorf("%w: arena %q is %s", ErrEnrollmentClosed, s.ArenaID, s.Status)
	}
	if _, exists := s.Players[p.ID]; exists {
		return nil
	}
	s.Players[p.ID] = p
	s.joinOrder = append(s.joinOrder, p.ID)
	return nil
}

// Start rolls initiative, builds the turn order and moves the session to
// StatusRunning.
//
// Precondition: roller must be non-nil.
// Postcondition: on success TurnOrder is non-empty, TurnIndex is 0 and
// Round is 1.
func (s *Session) Start(roller *dice.Roller) error {
	if s.Status != StatusWaiting {
		return fmt.Errorf("%w: arena %q", ErrSessionActive, s.ArenaID)
	}
	if len(s.Players) == 0 && len(s.Monsters) == 0 {
		return fmt.Errorf("%w: arena %q", ErrNoParticipants, s.ArenaID)
	}
	s.TurnOrder = s.rollInitiative(roller)
	s.TurnIndex = 0
	s.Round = 1
	s.Status = StatusRunning
	return nil
}

// Pause halts turn advancement. Out-of-turn damage and recovery commands
// stay valid while paused.
func (s *Session) Pause() error {
	if s.Status != StatusRunning {
		return fmt.Errorf("combat: cannot pause arena %q while %s", s.ArenaID, s.Status)
	}
	s.Status = StatusPaused
	return nil
}

// Resume reverses Pause.
func (s *Session) Resume() error {
	if s.Status != StatusPaused {
		return fmt.Errorf("combat: cannot resume arena %q while %s", s.ArenaID, s.Status)
	}
	s.Status = StatusRunning
	return nil
}

// CurrentActor returns the actor whose turn it is.
//
// Postcondition: ok is false iff the turn order is empty.
func (s *Session) CurrentActor() (ActorRef, bool) {
	if len(s.TurnOrder) == 0 {
		return ActorRef{}, false
	}
	return s.TurnOrder[s.TurnIndex], true
}

// Advance moves to the next actor in initiative order. Wrapping back to the
// top of the order increments Round. Buffs on the player whose turn begins
// tick down, so a one-turn buff lasts until its owner acts again.
//
// Postcondition: TurnIndex is a valid index, or unchanged when the order is
// empty.
func (s *Session) Advance() {
	if len(s.TurnOrder) == 0 {
		return
	}
	s.TurnIndex = (s.TurnIndex + 1) % len(s.TurnOrder)
	if s.TurnIndex == 0 {
		s.Round++
	}
	actor := s.TurnOrder[s.TurnIndex]
	if actor.Kind == ActorPlayer {
		if p, ok := s.Players[actor.PlayerID]; ok {
			p.TickBuffs()
		}
	}
}

// Player returns the snapshot for id.
func (s *Session) Player(id string) (*player.Player, bool) {
	p, ok := s.Players[id]
	return p, ok
}

// Monster returns the roster instance for id.
func (s *Session) Monster(id int) (*monster.Instance, bool) {
	m, ok := s.Monsters[id]
	return m, ok
}

// RefreshPlayer replaces the in-session snapshot after the persistent record
// was updated.
//
// Precondition: the player must already be on the roster.
func (s *Session) RefreshPlayer(p *player.Player) error {
	if _, ok := s.Players[p.ID]; !ok {
		return fmt.Errorf("combat: player %q is not in arena %q", p.ID, s.ArenaID)
	}
	s.Players[p.ID] = p
	return nil
}

// Participants returns the enrolled player IDs in join order.
func (s *Session) Participants() []string {
	out := make([]string, len(s.joinOrder))
	copy(out, s.joinOrder)
	return out
}

// LivingPlayers returns the enrolled players with HP remaining, in join order.
func (s *Session) LivingPlayers() []*player.Player {
	var alive []*player.Player
	for _, id := range s.joinOrder {
		if p := s.Players[id]; p != nil && p.Alive() {
			alive = append(alive, p)
		}
	}
	return alive
}

// LivingMonsters returns roster instances with HP remaining, ordered by ID.
func (s *Session) LivingMonsters() []*monster.Instance {
	var alive []*monster.Instance
	for _, m := range s.Monsters {
		if m.Alive() {
			alive = append(alive, m)
		}
	}
	sort.Slice(alive, func(i, j int) bool { return alive[i].ID < alive[j].ID })
	return alive
}

// DeadMonsters returns roster instances at 0 HP, ordered by ID.
func (s *Session) DeadMonsters() []*monster.Instance {
	var dead []*monster.Instance
	for _, m := range s.Monsters {
		if !m.Alive() {
			dead = append(dead, m)
		}
	}
	sort.Slice(dead, func(i, j int) bool { return dead[i].ID < dead[j].ID })
	return dead
}
