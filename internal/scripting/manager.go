package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// DropSpec is one scripted drop-table line, mirroring the stored template
// shape: an item key, an optional quantity formula and an optional chance.
type DropSpec struct {
	Item     string
	Quantity string
	Chance   float64
}

// dropsHook is the Lua global the manager calls: drops(species, rank, level)
// returning an array of {item=, q=, chance=} tables, or nil to decline.
const dropsHook = "drops"

// Manager owns one sandboxed LState for all loaded drop scripts.
//
// A single mutex serialises VM access; an LState is single-threaded.
type Manager struct {
	mu     sync.Mutex
	state  *lua.LState
	cancel func()
	logger *zap.Logger

	// Roll is injected after construction and exposed to scripts as
	// engine.roll(formula). nil makes engine.roll return 0.
	Roll func(formula string) int
}

// NewManager creates a Manager with no scripts loaded.
//
// Precondition: logger must be non-nil.
func NewManager(logger *zap.Logger) *Manager {
	return &Manager{logger: logger}
}

// LoadDir creates a fresh sandboxed VM, registers the engine.* module and
// executes every *.lua file in scriptDir in lexicographic order, replacing
// any previously loaded VM.
//
// Precondition: scriptDir must be a readable directory.
// Postcondition: the VM is live, or an error names the failing file.
func (m *Manager) LoadDir(scriptDir string, instLimit int) error {
	L, cancel := NewSandboxedState(instLimit)
	m.registerModules(L)

	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		cancel()
		L.Close()
		return fmt.Errorf("scripting: reading script dir %q: %w", scriptDir, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	for _, path := range luaFiles {
		if err := L.DoFile(path); err != nil {
			cancel()
			L.Close()
			return fmt.Errorf("scripting: loading %q: %w", path, err)
		}
	}

	m.mu.Lock()
	if m.state != nil {
		if m.cancel != nil {
			m.cancel()
		}
		m.state.Close()
	}
	m.state = L
	m.cancel = cancel
	m.mu.Unlock()
	return nil
}

// Close tears down the VM.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != nil {
		if m.cancel != nil {
			m.cancel()
		}
		m.state.Close()
		m.state = nil
	}
}

// DropsFor calls the drops hook for a species. Returns (nil, false) when no
// VM is loaded, the hook is undefined, or the script declines with nil. Lua
// runtime errors are logged at Warn level and treated as a decline.
//
// Postcondition: every returned DropSpec has a non-empty Item.
func (m *Manager) DropsFor(species, rankName string, level int) ([]DropSpec, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return nil, false
	}
	L := m.state

	fn := L.GetGlobal(dropsHook)
	if fn == lua.LNil {
		return nil, false
	}

	if err := L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, lua.LString(species), lua.LString(rankName), lua.LNumber(level)); err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("hook", dropsHook),
			zap.String("species", species),
			zap.Error(err),
		)
		return nil, false
	}

	ret := L.Get(-1)
	L.Pop(1)
	tbl, ok := ret.(*lua.LTable)
	if !ok {
		return nil, false
	}

	var specs []DropSpec
	tbl.ForEach(func(_, v lua.LValue) {
		entry, ok := v.(*lua.LTable)
		if !ok {
			return
		}
		item := lua.LVAsString(entry.RawGetString("item"))
		if item == "" {
			return
		}
		specs = append(specs, DropSpec{
			Item:     item,
			Quantity: lua.LVAsString(entry.RawGetString("q")),
			Chance:   float64(lua.LVAsNumber(entry.RawGetString("chance"))),
		})
	})
	if len(specs) == 0 {
		return nil, false
	}
	return specs, true
}

// registerModules installs the engine.* table into L.
func (m *Manager) registerModules(L *lua.LState) {
	engine := L.NewTable()
	L.SetGlobal("engine", engine)
	L.SetField(engine, "roll", L.NewFunction(func(L *lua.LState) int {
		formula := L.CheckString(1)
		if m.Roll == nil {
			L.Push(lua.LNumber(0))
			return 1
		}
		L.Push(lua.LNumber(m.Roll(formula)))
		return 1
	}))
}
