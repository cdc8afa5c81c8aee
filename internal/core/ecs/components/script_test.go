package components

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelgames/ecsforge/internal/core/ecs"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "script.lua")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestScriptComponent_LoadRunsOnStart(t *testing.T) {
	cs := ecs.NewComponentSystem(4)
	e := ecs.NewEntityGraph(1, 4, cs).CreateEntity()
	sc, ok := ecs.TryCreateComponent[ScriptComponent](e, cs)
	require.True(t, ok)

	path := writeScript(t, `
started = false
function on_start() started = true end
`)
	require.NoError(t, sc.Load(path))

	started := sc.vm.State().GetGlobal("started")
	assert.Equal(t, "true", started.String())
}

func TestScriptComponent_OnUpdateCallsHookWithDeltaTime(t *testing.T) {
	cs := ecs.NewComponentSystem(4)
	e := ecs.NewEntityGraph(1, 4, cs).CreateEntity()
	sc, _ := ecs.TryCreateComponent[ScriptComponent](e, cs)

	path := writeScript(t, `
last_dt = 0
function on_update(dt) last_dt = dt end
`)
	require.NoError(t, sc.Load(path))

	sc.OnUpdate(0.25)

	assert.Equal(t, "0.25", sc.vm.State().GetGlobal("last_dt").String())
}

func TestScriptComponent_OnFixedUpdateCallsHook(t *testing.T) {
	cs := ecs.NewComponentSystem(4)
	e := ecs.NewEntityGraph(1, 4, cs).CreateEntity()
	sc, _ := ecs.TryCreateComponent[ScriptComponent](e, cs)

	path := writeScript(t, `
fixed_calls = 0
function on_fixed_update(dt) fixed_calls = fixed_calls + 1 end
`)
	require.NoError(t, sc.Load(path))

	sc.OnFixedUpdate(0.02)
	sc.OnFixedUpdate(0.02)

	assert.Equal(t, "2", sc.vm.State().GetGlobal("fixed_calls").String())
}

func TestScriptComponent_MissingHookIsNoop(t *testing.T) {
	cs := ecs.NewComponentSystem(4)
	e := ecs.NewEntityGraph(1, 4, cs).CreateEntity()
	sc, _ := ecs.TryCreateComponent[ScriptComponent](e, cs)

	path := writeScript(t, `x = 1`)
	require.NoError(t, sc.Load(path))

	assert.NotPanics(t, func() {
		sc.OnUpdate(0.1)
		sc.OnFixedUpdate(0.1)
		sc.OnEnable()
	})
}

func TestScriptComponent_SandboxBlocksOSAccess(t *testing.T) {
	cs := ecs.NewComponentSystem(4)
	e := ecs.NewEntityGraph(1, 4, cs).CreateEntity()
	sc, _ := ecs.TryCreateComponent[ScriptComponent](e, cs)

	path := writeScript(t, `os.execute("echo pwned")`)
	err := sc.Load(path)
	assert.Error(t, err, "the sandboxed VM must not expose the os library")
}

func TestScriptComponent_OnDisableRunsHookThenDestroysVM(t *testing.T) {
	cs := ecs.NewComponentSystem(4)
	e := ecs.NewEntityGraph(1, 4, cs).CreateEntity()
	sc, _ := ecs.TryCreateComponent[ScriptComponent](e, cs)

	path := writeScript(t, `
disabled = false
function on_disable() disabled = true end
`)
	require.NoError(t, sc.Load(path))

	sc.OnDisable()

	assert.Nil(t, sc.vm, "OnDisable must tear down the VM after running on_disable")
}
