package debugger_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kristofer/stagevm/pkg/debugger"
	"github.com/kristofer/stagevm/pkg/engine"
	"github.com/kristofer/stagevm/pkg/primitives"
	"github.com/kristofer/stagevm/pkg/program"
	"github.com/kristofer/stagevm/pkg/value"
)

func newVM(t *testing.T) *engine.VM {
	t.Helper()
	registry := engine.NewRegistry()
	primitives.RegisterAll(registry)

	sprite := program.NewTarget("Sprite1", false)
	sprite.Blocks.Add(program.Block{Opcode: "event_whenflagclicked", Next: 1, TopLevel: true})
	sprite.Blocks.Add(program.Block{
		Opcode: "control_wait",
		Args:   []program.Arg{{Kind: program.ArgInput, Literal: value.NewNumber(60)}},
		Next:   2,
	})
	sprite.Blocks.Add(program.Block{Opcode: "control_incr_counter", Next: program.NoNext})

	stage := program.NewTarget("Stage", true)
	vm := engine.New([]*program.Target{stage, sprite}, 0, registry, nil)
	vm.StartFlag()
	return vm
}

func TestShouldPauseStepMode(t *testing.T) {
	vm := newVM(t)
	dbg := debugger.New(vm)

	assert.False(t, dbg.ShouldPause(), "disabled debugger never pauses")

	dbg.Enable()
	assert.False(t, dbg.ShouldPause())

	dbg.SetStepMode(true)
	assert.True(t, dbg.ShouldPause())
}

func TestShouldPauseBreakpoint(t *testing.T) {
	vm := newVM(t)
	dbg := debugger.New(vm)
	dbg.Enable()
	dbg.AddBreakpoint("control_wait")

	assert.False(t, dbg.ShouldPause(), "the flag hat is the first frame, not the breakpointed opcode")

	vm.Step() // the 60s wait immediately pends, leaving the thread's frame on it
	assert.True(t, dbg.ShouldPause())

	dbg.RemoveBreakpoint("control_wait")
	assert.False(t, dbg.ShouldPause())
}

func TestInteractivePromptContinueAndQuit(t *testing.T) {
	vm := newVM(t)
	dbg := debugger.New(vm)
	dbg.Enable()
	dbg.SetStepMode(true)

	var out bytes.Buffer
	dbg.SetIO(strings.NewReader("threads\nglobals\ncontinue\n"), &out)

	resumed := dbg.InteractivePrompt()
	require.True(t, resumed)
	assert.Contains(t, out.String(), "Threads:")
	assert.Contains(t, out.String(), "Globals:")

	dbg.SetIO(strings.NewReader("quit\n"), &out)
	resumed = dbg.InteractivePrompt()
	assert.False(t, resumed)
}

func TestInteractivePromptBreakCommand(t *testing.T) {
	vm := newVM(t)
	dbg := debugger.New(vm)
	dbg.Enable()

	var out bytes.Buffer
	dbg.SetIO(strings.NewReader("break control_wait\ncontinue\n"), &out)
	resumed := dbg.InteractivePrompt()
	require.True(t, resumed)

	vm.Step()
	assert.True(t, dbg.ShouldPause())
}
