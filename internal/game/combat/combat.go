// Package combat implements the per-arena combat session model, the
// initiative scheduler and the attack resolution pipeline for Arena.
//
// A Session is the in-memory state of one encounter: the player snapshots,
// the monster roster, the turn order and the round counter. Hit and miss
// are adjudicated by a human referee, so the pipeline stops at explicit
// confirmation points instead of comparing rolls against armor class.
package combat

import "errors"

var (
	// ErrSessionActive is returned when an arena already has a live session.
	ErrSessionActive = errors.New("combat: session already active")
	// ErrNoSession is returned when an arena has no live session.
	ErrNoSession = errors.New("combat: no active session")
	// ErrNoParticipants is returned by Start when both rosters are empty.
	ErrNoParticipants = errors.New("combat: no participants")
	// ErrNoValidTargets is returned when a monster attack finds no living player.
	ErrNoValidTargets = errors.New("combat: no valid targets")
	// ErrAlreadyResolved is returned on a second confirmation of the same attack.
	ErrAlreadyResolved = errors.New("combat: attack already resolved")
	// ErrEnrollmentClosed is returned by Join once the session has started.
	ErrEnrollmentClosed = errors.New("combat: enrollment closed")
	// ErrDeadTarget is returned when a player targets a monster at 0 HP.
	ErrDeadTarget = errors.New("combat: target is already down")
)

// Status is the lifecycle state of a Session.
type Status int

const (
	StatusWaiting Status = iota
	StatusRunning
	StatusPaused
	StatusEnded
)

// String returns a human-readable status label.
func (s Status) String() string {
	switch s {
	case StatusWaiting:
		return "waiting"
	case StatusRunning:
		return "running"
	case StatusPaused:
		return "paused"
	case StatusEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// EnrollmentMode selects how players enter a waiting session: a timed open
// window, or explicit per-player opt-in behind an enrollment button.
type EnrollmentMode int

const (
	EnrollmentTimed EnrollmentMode = iota
	EnrollmentButtonGated
)

// String returns a human-readable enrollment label.
func (m EnrollmentMode) String() string {
	switch m {
	case EnrollmentTimed:
		return "timed"
	case EnrollmentButtonGated:
		return "button-gated"
	default:
		return "unknown"
	}
}

// ActorKind distinguishes player actors from monster actors in the turn order.
type ActorKind int

const (
	ActorPlayer ActorKind = iota
	ActorMonster
)

// ActorRef is one slot in the turn order. It is a snapshot taken when the
// order is built: initiative is rolled once at start and never re-rolled.
type ActorRef struct {
	Kind       ActorKind
	PlayerID   string
	MonsterID  int
	Initiative int
}

// Rules carries the numeric knobs of the resolution pipeline. Values come
// from configuration; DefaultRules matches the table as originally played.
type Rules struct {
	// ReflexDCBase is added to the attacking monster's level to form the
	// reflex save difficulty.
	ReflexDCBase int
	// DefendACBonus is the armor-class bonus granted by the defend reaction.
	DefendACBonus int
	// DefaultDamage is rolled when an attacker has no usable damage formula.
	DefaultDamage string
}

// DefaultRules returns the standard ruleset: reflex DC 10 + monster level,
// defend grants +4 AC for one turn, unarmed damage 1d4.
func DefaultRules() Rules {
	return Rules{ReflexDCBase: 10, DefendACBonus: 4, DefaultDamage: "1d4"}
}
