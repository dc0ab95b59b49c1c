// Package notify defines the outbound presentation port: announcements to
// the arena channel, status snapshots, and blocking prompts awaiting a human
// choice. The engine treats the transport behind it as opaque.
package notify

import (
	"context"
	"errors"
)

// ErrPromptTimeout is returned when no choice arrives before the prompt
// deadline; callers apply the operation's default outcome.
var ErrPromptTimeout = errors.New("notify: prompt timed out")

// Choice is one selectable option in a prompt.
type Choice struct {
	Key   string
	Label string
}

// Status is a presentation-ready snapshot of one arena.
type Status struct {
	ArenaID string
	Round   int
	// CurrentActor names whose turn it is; empty when no session runs.
	CurrentActor string
	// Lines is the textual roster, one combatant per line.
	Lines []string
	// Card is an optional rendered PNG of the monster roster.
	Card []byte
}

// Notifier delivers engine output to the players. Implementations must be
// safe for concurrent use.
//
// State changes are committed before any Notifier call is made; a failed
// notification never rolls back a completed mutation.
type Notifier interface {
	// Announce posts a message to the arena channel.
	Announce(ctx context.Context, arenaID, message string) error
	// UpdateStatus replaces the arena's pinned status snapshot.
	UpdateStatus(ctx context.Context, status Status) error
	// PromptChoice poses a prompt to one actor and blocks until a choice
	// key is returned, the context is cancelled, or the prompt times out.
	PromptChoice(ctx context.Context, arenaID, actorID, prompt string, choices []Choice) (string, error)
}

// Nop is a Notifier that discards everything. Prompts answer with the first
// choice.
type Nop struct{}

// Announce implements Notifier.
func (Nop) Announce(context.Context, string, string) error { return nil }

// UpdateStatus implements Notifier.
func (Nop) UpdateStatus(context.Context, Status) error { return nil }

// PromptChoice implements Notifier.
//
// Postcondition: returns the first choice key, or ErrPromptTimeout when no
// choices were offered.
func (Nop) PromptChoice(_ context.Context, _, _, _ string, choices []Choice) (string, error) {
	if len(choices) == 0 {
		return "", ErrPromptTimeout
	}
	return choices[0].Key, nil
}
