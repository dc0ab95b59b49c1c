package scripting_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/duskforge/arena/internal/scripting"
)

func writeScript(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

// TestManager_DropsFor verifies the drops hook round-trip.
func TestManager_DropsFor(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "drops.lua", `
function drops(species, rank, level)
  if species == "lobo_alpha" then
    return {
      {item = "presa_alpha", q = "2d4", chance = 0.5},
      {item = "pelo"},
    }
  end
  return nil
end
`)

	m := scripting.NewManager(zap.NewNop())
	require.NoError(t, m.LoadDir(dir, 0))
	defer m.Close()

	specs, ok := m.DropsFor("lobo_alpha", "bronze", 2)
	require.True(t, ok)
	require.Len(t, specs, 2)
	assert.Equal(t, scripting.DropSpec{Item: "presa_alpha", Quantity: "2d4", Chance: 0.5}, specs[0])
	assert.Equal(t, scripting.DropSpec{Item: "pelo"}, specs[1])

	_, ok = m.DropsFor("carneiro", "bronze", 1)
	assert.False(t, ok)
}

// TestManager_DropsFor_NoVM verifies an unloaded manager declines.
func TestManager_DropsFor_NoVM(t *testing.T) {
	m := scripting.NewManager(zap.NewNop())
	_, ok := m.DropsFor("lobo", "bronze", 1)
	assert.False(t, ok)
}

// TestManager_DropsFor_NoHook verifies scripts without the hook decline.
func TestManager_DropsFor_NoHook(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "empty.lua", `local unused = 1`)

	m := scripting.NewManager(zap.NewNop())
	require.NoError(t, m.LoadDir(dir, 0))
	defer m.Close()

	_, ok := m.DropsFor("lobo", "bronze", 1)
	assert.False(t, ok)
}

// TestManager_DropsFor_RuntimeErrorDeclines verifies a Lua error is treated
// as a decline, not propagated.
func TestManager_DropsFor_RuntimeErrorDeclines(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "bad.lua", `
function drops(species, rank, level)
  error("boom")
end
`)

	m := scripting.NewManager(zap.NewNop())
	require.NoError(t, m.LoadDir(dir, 0))
	defer m.Close()

	_, ok := m.DropsFor("lobo", "bronze", 1)
	assert.False(t, ok)
}

// TestManager_EngineRoll verifies the injected roll callback reaches Lua.
func TestManager_EngineRoll(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "roll.lua", `
function drops(species, rank, level)
  local n = engine.roll("1d4")
  return {{item = "fragmento", q = tostring(n)}}
end
`)

	m := scripting.NewManager(zap.NewNop())
	m.Roll = func(formula string) int {
		assert.Equal(t, "1d4", formula)
		return 3
	}
	require.NoError(t, m.LoadDir(dir, 0))
	defer m.Close()

	specs, ok := m.DropsFor("lobo", "bronze", 1)
	require.True(t, ok)
	require.Len(t, specs, 1)
	assert.Equal(t, "3", specs[0].Quantity)
}

// TestManager_LoadDir_BadScript verifies load failures surface the file.
func TestManager_LoadDir_BadScript(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "broken.lua", `function drops( this is not lua`)

	m := scripting.NewManager(zap.NewNop())
	err := m.LoadDir(dir, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.lua")
}

// TestSandbox_StripsDangerousGlobals verifies the sandbox removes loaders.
func TestSandbox_StripsDangerousGlobals(t *testing.T) {
	L, cancel := scripting.NewSandboxedState(0)
	defer cancel()
	defer L.Close()

	for _, name := range []string{"dofile", "loadfile", "load", "collectgarbage", "require"} {
		require.NoError(t, L.DoString(`if `+name+` ~= nil then error("leaked") end`))
	}
}

// TestSandbox_InstructionLimit verifies a runaway loop is cut off.
func TestSandbox_InstructionLimit(t *testing.T) {
	L, cancel := scripting.NewSandboxedState(1_000)
	defer cancel()
	defer L.Close()

	err := L.DoString(`while true do end`)
	require.Error(t, err)
}
