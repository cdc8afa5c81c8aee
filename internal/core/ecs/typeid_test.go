package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// neverDeclared is used only to probe the undeclared/after-freeze panic
// paths; it must never appear in component_fixtures_test.go's init().
type neverDeclared struct{ Base }

func TestTypeID_TransformIsAlwaysZero(t *testing.T) {
	assert.Equal(t, 0, TypeID[testTransform](), "PriorityTransform must win internal_type_id 0")
}

func TestTypeID_OrdersByPriorityAscending(t *testing.T) {
	assert.Less(t, TypeID[testTransform](), TypeID[testScripted]())
	assert.Less(t, TypeID[testScripted](), TypeID[testHealth]())
	assert.Less(t, TypeID[testHealth](), TypeID[testStarter]())
	assert.Less(t, TypeID[testStarter](), TypeID[testDisabler]())
}

func TestTypeID_UndeclaredTypePanics(t *testing.T) {
	freezeTypeIDs()
	assert.Panics(t, func() { TypeID[neverDeclared]() })
}

func TestDeclareComponentType_AfterFreezePanics(t *testing.T) {
	_ = TypeID[testTransform]() // ensure the table is frozen
	assert.Panics(t, func() { DeclareComponentType[neverDeclared](PriorityNormal) })
}
