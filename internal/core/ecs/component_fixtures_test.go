package ecs

import "github.com/kestrelgames/ecsforge/internal/mathx"

// Test-only component types. All DeclareComponentType calls for this
// package's tests live here, in init(), since the type-id table freezes on
// first TypeID/GetRegistry call and further declarations afterward panic.

func init() {
	DeclareComponentType[testTransform](PriorityTransform)
	DeclareComponentType[testScripted](PriorityLow)
	DeclareComponentType[testHealth](PriorityNormal)
	DeclareComponentType[testStarter](PriorityHigh)
	DeclareComponentType[testDisabler](PriorityHighest)
}

type testTransform struct {
	Base
	Position mathx.Vec3
	Rotation mathx.Quat
	Scale    mathx.Vec3
}

func (t *testTransform) LocalTRS() TRS {
	return TRS{Position: t.Position, Rotation: t.Rotation, Scale: t.Scale}
}

type testScripted struct {
	Base
	updates      int
	fixedUpdates int
}

func (s *testScripted) OnUpdate(dt float64)      { s.updates++ }
func (s *testScripted) OnFixedUpdate(dt float64) { s.fixedUpdates++ }

type testHealth struct {
	Base
	HP int
}

type testStarter struct {
	Base
	started bool
}

func (s *testStarter) OnStart() { s.started = true }

type testDisabler struct {
	Base
	disabled bool
}

func (s *testDisabler) OnDisable() { s.disabled = true }
