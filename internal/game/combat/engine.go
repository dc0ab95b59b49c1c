package combat

import (
	"fmt"
	"sync"
)

// Engine is the session store: at most one live Session per arena, each
// serialised behind its own mutex. Components receive the Engine by
// injection; there is no package-level registry.
// All methods are safe for concurrent use.
type Engine struct {
	mu     sync.RWMutex
	arenas map[string]*arenaSlot
	rules  Rules
}

type arenaSlot struct {
	mu      sync.Mutex
	session *Session
}

// NewEngine creates an empty Engine whose sessions use the given rules.
//
// Postcondition: Returns a non-nil Engine ready for use.
func NewEngine(rules Rules) *Engine {
	return &Engine{arenas: make(map[string]*arenaSlot), rules: rules}
}

// Create opens a waiting session for arenaID.
//
// Precondition: arenaID must be non-empty.
// Postcondition: Returns the new Session, or ErrSessionActive if one exists.
func (e *Engine) Create(arenaID string, mode EnrollmentMode) (*Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.arenas[arenaID]; exists {
		return nil, fmt.Errorf("%w: arena %q", ErrSessionActive, arenaID)
	}
	s := NewSession(arenaID, mode, e.rules)
	e.arenas[arenaID] = &arenaSlot{session: s}
	return s, nil
}

// With runs fn on the arena's session while holding its lock. All session
// mutation must go through With so per-arena operations stay serialised.
//
// Postcondition: Returns ErrNoSession if the arena has no live session,
// otherwise fn's error.
func (e *Engine) With(arenaID string, fn func(*Session) error) error {
	e.mu.RLock()
	slot, ok := e.arenas[arenaID]
	e.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: arena %q", ErrNoSession, arenaID)
	}
	slot.mu.Lock()
	defer slot.mu.Unlock()
	if slot.session.Status == StatusEnded {
		return fmt.Errorf("%w: arena %q", ErrNoSession, arenaID)
	}
	return fn(slot.session)
}

// End tears the session down and returns its final state. Ending does not
// persist anything; the caller decides whether to run the loot pass first.
//
// Postcondition: the arena has no live session; the returned Session has
// Status StatusEnded.
func (e *Engine) End(arenaID string) (*Session, error) {
	e.mu.Lock()
	slot, ok := e.arenas[arenaID]
	if ok {
		delete(e.arenas, arenaID)
	}
	e.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: arena %q", ErrNoSession, arenaID)
	}
	slot.mu.Lock()
	defer slot.mu.Unlock()
	slot.session.Status = StatusEnded
	return slot.session, nil
}

// Active reports whether arenaID has a live session.
func (e *Engine) Active(arenaID string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.arenas[arenaID]
	return ok
}
