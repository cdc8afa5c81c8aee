package components

import (
	"github.com/kestrelgames/ecsforge/internal/core/ecs"
	"github.com/kestrelgames/ecsforge/internal/core/ecs/logx"
	"github.com/kestrelgames/ecsforge/internal/core/ecs/lua"
	glua "github.com/yuin/gopher-lua"
)

func init() {
	ecs.DeclareComponentType[ScriptComponent](ecs.PriorityNormal)
}

// ScriptComponent drives an entity's behavior from a sandboxed Lua script.
// Call Load after attaching to bind and run a script; the script may define
// any of on_start, on_update(dt), on_fixed_update(dt), on_enable, on_disable
// as globals, whichever are present get called from the matching lifecycle
// hook. A script that defines none of them is inert.
type ScriptComponent struct {
	ecs.Base

	ScriptPath string

	bridge lua.LuaBridge
	vm     *lua.LuaVM
	script *lua.LuaScript
}

// Load opens a sandboxed VM, reads and runs scriptPath, then calls on_start
// if the script defines it. TryCreateComponent attaches ScriptComponent as a
// zero value (per the registry's allocate-then-configure contract, §4.4), so
// a caller must call Load explicitly after attaching — there is no
// constructor argument path through TryCreateComponent.
func (s *ScriptComponent) Load(scriptPath string) error {
	s.ScriptPath = scriptPath
	if s.bridge == nil {
		s.bridge = lua.NewLuaBridge()
	}

	vm, err := s.bridge.CreateVM(&lua.LuaVMConfig{
		SandboxEnabled: true,
		ResourceLimits: &lua.ResourceLimits{},
	})
	if err != nil {
		return err
	}
	s.vm = vm

	script, err := s.bridge.LoadScript(vm, scriptPath)
	if err != nil {
		return err
	}
	s.script = script

	if err := s.bridge.ExecuteScript(vm, script); err != nil {
		return err
	}

	s.callHook("on_start")
	return nil
}

// OnUpdate calls the script's on_update(dt), if defined.
func (s *ScriptComponent) OnUpdate(dt float64) {
	s.callHookWithFloat("on_update", dt)
}

// OnFixedUpdate calls the script's on_fixed_update(dt), if defined.
func (s *ScriptComponent) OnFixedUpdate(dt float64) {
	s.callHookWithFloat("on_fixed_update", dt)
}

// OnEnable calls the script's on_enable, if defined.
func (s *ScriptComponent) OnEnable() { s.callHook("on_enable") }

// OnDisable calls the script's on_disable, if defined, then tears down the
// VM. A re-enable after this would need a fresh Load call; ScriptComponent
// does not support that, matching the rest of the runtime treating component
// removal as terminal.
func (s *ScriptComponent) OnDisable() {
	s.callHook("on_disable")
	if s.vm != nil {
		if err := s.bridge.DestroyVM(s.vm); err != nil {
			logx.L().Warnw("script vm destroy failed", "path", s.ScriptPath, "error", err)
		}
		s.vm = nil
	}
}

func (s *ScriptComponent) callHook(name string) {
	fn := s.resolveHook(name)
	if fn == nil {
		return
	}
	if err := s.vm.State().CallByParam(glua.P{Fn: fn, NRet: 0, Protect: true}); err != nil {
		logx.L().Warnw("script hook failed", "hook", name, "path", s.ScriptPath, "error", err)
	}
}

func (s *ScriptComponent) callHookWithFloat(name string, v float64) {
	fn := s.resolveHook(name)
	if fn == nil {
		return
	}
	if err := s.vm.State().CallByParam(glua.P{Fn: fn, NRet: 0, Protect: true}, glua.LNumber(v)); err != nil {
		logx.L().Warnw("script hook failed", "hook", name, "path", s.ScriptPath, "error", err)
	}
}

func (s *ScriptComponent) resolveHook(name string) *glua.LFunction {
	if s.vm == nil || s.vm.State() == nil {
		return nil
	}
	v := s.vm.State().GetGlobal(name)
	fn, ok := v.(*glua.LFunction)
	if !ok {
		return nil
	}
	return fn
}
