package lua

import (
	"context"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// LuaBridge is the VM lifecycle and data-marshaling surface a scripted
// component drives. It does not expose entity/component operations itself;
// a caller registers whatever globals a script needs via the returned
// *lua.LState directly.
type LuaBridge interface {
	CreateVM(config *LuaVMConfig) (*LuaVM, error)
	DestroyVM(vm *LuaVM) error

	LoadScript(vm *LuaVM, scriptPath string) (*LuaScript, error)
	UnloadScript(vm *LuaVM, script *LuaScript) error
	ExecuteScript(vm *LuaVM, script *LuaScript) error

	GoToLua(vm *LuaVM, value interface{}) (lua.LValue, error)
	LuaToGo(vm *LuaVM, value lua.LValue, target interface{}) error
}

// LuaVM wraps one gopher-lua state plus the sandbox and resource limits it
// was created under.
type LuaVM struct {
	state     *lua.LState
	sandbox   *Sandbox
	resources *ResourceLimits
	cancel    context.CancelFunc
}

// State exposes the underlying gopher-lua state so a caller can register
// globals or invoke functions the bridge itself doesn't know about.
func (vm *LuaVM) State() *lua.LState { return vm.state }

// LuaVMConfig configures a CreateVM call.
type LuaVMConfig struct {
	SandboxEnabled bool
	ResourceLimits *ResourceLimits
}

// LuaScript tracks one loaded script's source and load state.
type LuaScript struct {
	path     string
	content  []byte
	loaded   bool
	metadata *ScriptMetadata
}

// ResourceLimits bounds what a script is allowed to consume. MaxMemoryUsage
// is advisory until gopher-lua exposes a hookable allocator. MaxExecutionTime,
// if nonzero, is enforced via context.WithTimeout + LState.SetContext: it is
// a deadline measured from CreateVM, not a per-call budget, so it only suits
// a VM that runs one script and is torn down — a long-lived VM whose hooks
// are called every tick (ScriptComponent's) must leave it zero.
type ResourceLimits struct {
	MaxExecutionTime time.Duration
	MaxMemoryUsage   int64
}

// Sandbox records which standard-library surfaces were stripped from a VM.
// gopher-lua exposes no networking stdlib to begin with, so there is no
// NetworkRestricted flag here — nothing would read it.
type Sandbox struct {
	FileSystemRestricted bool
	OSCommandsBlocked    bool
}

// ScriptMetadata is informational bookkeeping about a loaded script.
type ScriptMetadata struct {
	Name       string `json:"name"`
	Version    string `json:"version"`
	APIVersion string `json:"api_version"`
}

// ErrorHandler lets a caller intercept and translate script errors.
type ErrorHandler func(error) error
