package lua

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
)

func TestLuaBridge_CreateDestroyVM(t *testing.T) {
	bridge := NewLuaBridge()

	vm, err := bridge.CreateVM(&LuaVMConfig{
		SandboxEnabled: true,
		ResourceLimits: &ResourceLimits{
			MaxExecutionTime: 100 * time.Millisecond,
			MaxMemoryUsage:   10 * 1024 * 1024,
		},
	})
	require.NoError(t, err)
	require.NotNil(t, vm.State())

	require.NoError(t, bridge.DestroyVM(vm))
}

func TestLuaBridge_CreateVM_NilConfigUsesDefaults(t *testing.T) {
	bridge := NewLuaBridge()
	vm, err := bridge.CreateVM(nil)
	require.NoError(t, err)
	defer bridge.DestroyVM(vm)

	assert.NotNil(t, vm.State())
}

func TestLuaBridge_SandboxBlocksFilesystemAndOSGlobals(t *testing.T) {
	bridge := NewLuaBridge()
	vm, err := bridge.CreateVM(&LuaVMConfig{SandboxEnabled: true, ResourceLimits: &ResourceLimits{}})
	require.NoError(t, err)
	defer bridge.DestroyVM(vm)

	for _, global := range []string{"os", "io", "dofile", "loadfile", "debug", "package", "require"} {
		assert.Equal(t, lua.LNil, vm.State().GetGlobal(global), "sandboxed VM must not expose %q", global)
	}
}

func TestLuaBridge_UnsandboxedVMKeepsOSLibrary(t *testing.T) {
	bridge := NewLuaBridge()
	vm := setupTestVM(t, bridge)
	defer bridge.DestroyVM(vm)

	assert.NotEqual(t, lua.LNil, vm.State().GetGlobal("os"), "an unsandboxed VM keeps the stdlib")
}

func TestLuaBridge_LoadScriptReadsFileContent(t *testing.T) {
	bridge := NewLuaBridge()
	vm := setupTestVM(t, bridge)
	defer bridge.DestroyVM(vm)

	path := filepath.Join(t.TempDir(), "greet.lua")
	require.NoError(t, os.WriteFile(path, []byte(`greeting = "hello"`), 0o644))

	script, err := bridge.LoadScript(vm, path)
	require.NoError(t, err)
	assert.Equal(t, path, script.path)
	assert.False(t, script.loaded, "LoadScript reads source without running it")
}

func TestLuaBridge_LoadScript_MissingFileFails(t *testing.T) {
	bridge := NewLuaBridge()
	vm := setupTestVM(t, bridge)
	defer bridge.DestroyVM(vm)

	_, err := bridge.LoadScript(vm, filepath.Join(t.TempDir(), "missing.lua"))
	assert.Error(t, err)
}

func TestLuaBridge_ExecuteScript_DefinesGlobalsAndMarksLoaded(t *testing.T) {
	bridge := NewLuaBridge()
	vm := setupTestVM(t, bridge)
	defer bridge.DestroyVM(vm)

	path := filepath.Join(t.TempDir(), "hooks.lua")
	require.NoError(t, os.WriteFile(path, []byte(`
function on_update(dt)
  last_dt = dt
end
`), 0o644))

	script, err := bridge.LoadScript(vm, path)
	require.NoError(t, err)

	require.NoError(t, bridge.ExecuteScript(vm, script))
	assert.True(t, script.loaded)

	fn, ok := vm.State().GetGlobal("on_update").(*lua.LFunction)
	require.True(t, ok, "executing the script must define on_update as a callable global")
	assert.NotNil(t, fn)
}

func TestLuaBridge_ExecuteScript_SyntaxErrorFails(t *testing.T) {
	bridge := NewLuaBridge()
	vm := setupTestVM(t, bridge)
	defer bridge.DestroyVM(vm)

	path := filepath.Join(t.TempDir(), "broken.lua")
	require.NoError(t, os.WriteFile(path, []byte(`function on_update( dt`), 0o644))

	script, err := bridge.LoadScript(vm, path)
	require.NoError(t, err)

	assert.Error(t, bridge.ExecuteScript(vm, script))
}

func TestLuaBridge_ExecutionTimeoutCancelsLongRunningScript(t *testing.T) {
	bridge := NewLuaBridge()
	vm, err := bridge.CreateVM(&LuaVMConfig{
		ResourceLimits: &ResourceLimits{MaxExecutionTime: 10 * time.Millisecond},
	})
	require.NoError(t, err)
	defer bridge.DestroyVM(vm)

	path := filepath.Join(t.TempDir(), "loop.lua")
	require.NoError(t, os.WriteFile(path, []byte(`while true do end`), 0o644))
	script, err := bridge.LoadScript(vm, path)
	require.NoError(t, err)

	assert.Error(t, bridge.ExecuteScript(vm, script), "a script outliving MaxExecutionTime must be cancelled")
}

// setupTestVM builds an unsandboxed VM for tests that only care about the
// conversion/execution surface, not the sandbox itself.
func setupTestVM(t *testing.T, bridge LuaBridge) *LuaVM {
	vm, err := bridge.CreateVM(&LuaVMConfig{
		SandboxEnabled: false,
		ResourceLimits: &ResourceLimits{
			MaxExecutionTime: time.Second,
			MaxMemoryUsage:   50 * 1024 * 1024,
		},
	})
	require.NoError(t, err)
	return vm
}
