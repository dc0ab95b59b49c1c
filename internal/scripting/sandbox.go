// Package scripting runs referee-authored Lua drop tables in a restricted
// GopherLua environment. It has no dependency on game domain packages; the
// loot engine consumes the neutral DropSpec shape.
package scripting

import (
	"context"
	"sync/atomic"

	lua "github.com/yuin/gopher-lua"
)

// DefaultInstructionLimit caps Lua opcodes per script call when the
// configuration does not name a limit.
const DefaultInstructionLimit = 100_000

// safeLibs are the only stdlib modules a drop script may use.
var safeLibs = []func(*lua.LState) int{
	lua.OpenBase,
	lua.OpenTable,
	lua.OpenString,
	lua.OpenMath,
}

// forbiddenGlobals are removed after OpenBase runs. Each of them would let a
// script read files or load code outside its own source.
var forbiddenGlobals = []string{"dofile", "loadfile", "load", "collectgarbage", "require"}

// opcodeBudget is a context.Context whose Done channel closes after a fixed
// number of Done() calls. GopherLua polls Done() once per opcode when a
// context is attached, so the budget is an exact opcode count rather than a
// wall-clock timeout.
type opcodeBudget struct {
	context.Context
	cancel    context.CancelFunc
	remaining atomic.Int64
}

func newOpcodeBudget(limit int) *opcodeBudget {
	base, cancel := context.WithCancel(context.Background())
	b := &opcodeBudget{Context: base, cancel: cancel}
	b.remaining.Store(int64(limit))
	return b
}

// Done decrements the budget and cancels once it is spent. The VM stops on
// the next opcode boundary after cancellation.
func (b *opcodeBudget) Done() <-chan struct{} {
	if b.remaining.Add(-1) <= 0 {
		b.cancel()
	}
	return b.Context.Done()
}

// NewSandboxedState builds an LState for drop-table scripts: only the base,
// table, string, and math libraries are loaded, code-loading globals are
// stripped, and execution is bounded at instLimit opcodes (or
// DefaultInstructionLimit when instLimit <= 0).
//
// Postcondition: the caller owns the returned LState and must Close it; the
// returned CancelFunc releases the opcode budget's context and must be
// called alongside Close.
func NewSandboxedState(instLimit int) (*lua.LState, context.CancelFunc) {
	if instLimit <= 0 {
		instLimit = DefaultInstructionLimit
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, open := range safeLibs {
		open(L)
	}
	for _, name := range forbiddenGlobals {
		L.SetGlobal(name, lua.LNil)
	}

	budget := newOpcodeBudget(instLimit)
	L.SetContext(budget)

	return L, budget.cancel
}
