// Package dice provides the randomness abstraction and roll-result types
// for the Arena combat engine.
package dice

import "fmt"

// Source supplies the raw randomness behind every roll. Swapping the Source
// is how tests make combat deterministic.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}

// RollResult records everything about one evaluated roll: the expression
// that produced it, each die face, and the flat modifier. Keeping the
// individual faces lets the referee audit any contested outcome.
type RollResult struct {
	Expression string
	Dice       []int
	Modifier   int
}

// Total sums the die faces and adds the modifier.
func (r RollResult) Total() int {
	total := r.Modifier
	for _, d := range r.Dice {
		total += d
	}
	return total
}

// String renders the audit line, e.g. "2d6+3 → [4 5] +3 = 12".
//
// Precondition: r.Expression is non-empty.
func (r RollResult) String() string {
	if r.Expression == "" {
		panic("dice: String on a RollResult with no expression")
	}
	return fmt.Sprintf("%s → %v %+d = %d", r.Expression, r.Dice, r.Modifier, r.Total())
}

// Natural20 reports whether the result is a single die that came up 20.
// Callers check the expression shape (one d20) before treating this as a crit.
func (r RollResult) Natural20() bool {
	return len(r.Dice) == 1 && r.Dice[0] == 20
}

// Natural1 reports whether the result is a single die that came up 1.
func (r RollResult) Natural1() bool {
	return len(r.Dice) == 1 && r.Dice[0] == 1
}
