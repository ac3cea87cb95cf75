package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kristofer/stagevm/pkg/engine"
	"github.com/kristofer/stagevm/pkg/primitives"
	"github.com/kristofer/stagevm/pkg/program"
	"github.com/kristofer/stagevm/pkg/value"
)

func newRegistry() *engine.Registry {
	r := engine.NewRegistry()
	primitives.RegisterAll(r)
	return r
}

func newStage() *program.Target { return program.NewTarget("Stage", true) }

func lit(v value.Value) program.Arg { return program.Arg{Kind: program.ArgInput, Literal: v} }

func ref(id int) program.Arg { return program.Arg{Kind: program.ArgInput, IsBlock: true, BlockID: id} }

func TestCounterRepeat(t *testing.T) {
	sprite := program.NewTarget("Sprite1", false)
	sprite.Blocks.Add(program.Block{Opcode: "event_whenflagclicked", Next: 1, TopLevel: true})
	sprite.Blocks.Add(program.Block{
		Opcode: "control_repeat",
		Args:   []program.Arg{lit(value.NewNumber(5)), ref(2)},
		Next:   program.NoNext,
	})
	sprite.Blocks.Add(program.Block{Opcode: "control_incr_counter", Next: program.NoNext})

	vm := engine.New([]*program.Target{newStage(), sprite}, 0, newRegistry(), nil)
	vm.StartFlag()
	for !vm.IsIdle() {
		vm.Step()
	}
	assert.Equal(t, float64(5), vm.Global().Counter)
}

// TestBroadcastAndWaitOrdering checks that a broadcasting thread's
// statements after BroadcastAndWait run only once every thread it
// spawned has fully terminated, not merely once the broadcast has been
// queued.
func TestBroadcastAndWaitOrdering(t *testing.T) {
	sender := program.NewTarget("Sender", false)
	sender.Blocks.Add(program.Block{Opcode: "event_whenflagclicked", Next: 1, TopLevel: true})
	sender.Blocks.Add(program.Block{
		Opcode: "event_broadcastandwait",
		Args:   []program.Arg{lit(value.NewString("go"))},
		Next:   2,
	})
	sender.Blocks.Add(program.Block{Opcode: "control_incr_counter", Next: program.NoNext})

	receiver := program.NewTarget("Receiver", false)
	receiver.Blocks.Add(program.Block{
		Opcode:   "event_whenbroadcastreceived",
		Args:     []program.Arg{lit(value.NewString("go"))},
		Next:     1,
		TopLevel: true,
	})
	receiver.Blocks.Add(program.Block{Opcode: "control_incr_counter", Next: program.NoNext})

	vm := engine.New([]*program.Target{newStage(), sender, receiver}, 0, newRegistry(), nil)
	vm.StartFlag()

	vm.Step() // sender reaches the wait and queues the broadcast
	assert.Equal(t, float64(0), vm.Global().Counter)

	vm.Step() // receiver's whole script runs to completion this round
	assert.Equal(t, float64(1), vm.Global().Counter, "sender must still be blocked")

	vm.Step() // only now may the sender resume past the wait
	assert.Equal(t, float64(2), vm.Global().Counter)
	assert.True(t, vm.IsIdle())
}

func TestCreateClone(t *testing.T) {
	sprite := program.NewTarget("Sprite1", false)
	sprite.Blocks.Add(program.Block{Opcode: "event_whenflagclicked", Next: 1, TopLevel: true})
	sprite.Blocks.Add(program.Block{
		Opcode: "control_create_clone_of",
		Args:   []program.Arg{lit(value.NewString(""))},
		Next:   program.NoNext,
	})
	sprite.Blocks.Add(program.Block{Opcode: "control_start_as_clone", Next: 3, TopLevel: true})
	sprite.Blocks.Add(program.Block{Opcode: "control_incr_counter", Next: program.NoNext})

	vm := engine.New([]*program.Target{newStage(), sprite}, 0, newRegistry(), nil)
	vm.StartFlag()
	for !vm.IsIdle() {
		vm.Step()
	}

	assert.Equal(t, float64(1), vm.Global().Counter)
	var clones int
	for _, rt := range vm.RunningTargets() {
		if rt.IsClone {
			clones++
		}
	}
	assert.Equal(t, 1, clones)
	assert.Len(t, vm.RunningTargets(), 3, "stage, original sprite, and its clone")
}

// TestProcedureCallReturn builds a one-parameter "double" procedure by
// hand (the loader would normally bake this linkage from
// procedures_prototype/definition/call) and checks the call's result
// reaches its caller.
func TestProcedureCallReturn(t *testing.T) {
	sprite := program.NewTarget("Sprite1", false)
	sprite.Blocks.Add(program.Block{Opcode: "event_whenflagclicked", Next: 1, TopLevel: true})
	sprite.Blocks.Add(program.Block{
		Opcode: "data_setvariableto",
		Args:   []program.Arg{lit(value.NewString("result")), ref(2)},
		Next:   program.NoNext,
	})
	sprite.Blocks.Add(program.Block{
		Opcode: "procedures_call_return",
		Args:   []program.Arg{lit(value.NewNumber(21)), ref(6)},
		Next:   program.NoNext,
	})
	sprite.Blocks.Reserve(6) // ids 3-8, filled in below by explicit id
	sprite.Blocks.Set(6, program.Block{
		Opcode: "procedures_return",
		Args:   []program.Arg{ref(7)},
		Next:   program.NoNext,
	})
	sprite.Blocks.Set(7, program.Block{
		Opcode: "operator_multiply",
		Args:   []program.Arg{ref(8), lit(value.NewNumber(2))},
		Next:   program.NoNext,
	})
	sprite.Blocks.Set(8, program.Block{
		Opcode: "argument_reporter_string_number",
		Args:   []program.Arg{lit(value.NewNumber(0))},
		Next:   program.NoNext,
	})

	vm := engine.New([]*program.Target{newStage(), sprite}, 0, newRegistry(), nil)
	vm.StartFlag()
	for !vm.IsIdle() {
		vm.Step()
	}

	var rt *program.RunningTarget
	for _, r := range vm.RunningTargets() {
		if !r.IsClone && vm.TargetName(r.ID) == "Sprite1" {
			rt = r
		}
	}
	require.NotNil(t, rt)
	result, ok := rt.Variables.Get("result")
	require.True(t, ok)
	assert.Equal(t, float64(42), result.ToNumber())
}

func TestListOrdering(t *testing.T) {
	sprite := program.NewTarget("Sprite1", false)
	sprite.Blocks.Add(program.Block{Opcode: "event_whenflagclicked", Next: 1, TopLevel: true})
	sprite.Blocks.Add(program.Block{
		Opcode: "data_addtolist",
		Args:   []program.Arg{lit(value.NewString("a")), lit(value.NewString("items"))},
		Next:   2,
	})
	sprite.Blocks.Add(program.Block{
		Opcode: "data_addtolist",
		Args:   []program.Arg{lit(value.NewString("b")), lit(value.NewString("items"))},
		Next:   3,
	})
	sprite.Blocks.Add(program.Block{
		Opcode: "data_setvariableto",
		Args:   []program.Arg{lit(value.NewString("first")), ref(10)},
		Next:   4,
	})
	sprite.Blocks.Add(program.Block{
		Opcode: "data_setvariableto",
		Args:   []program.Arg{lit(value.NewString("second")), ref(11)},
		Next:   program.NoNext,
	})
	sprite.Blocks.Reserve(7) // ids 5-11, filled in below by explicit id
	sprite.Blocks.Set(10, program.Block{
		Opcode: "data_itemoflist",
		Args:   []program.Arg{lit(value.NewNumber(1)), lit(value.NewString("items"))},
		Next:   program.NoNext,
	})
	sprite.Blocks.Set(11, program.Block{
		Opcode: "data_itemoflist",
		Args:   []program.Arg{lit(value.NewNumber(2)), lit(value.NewString("items"))},
		Next:   program.NoNext,
	})

	vm := engine.New([]*program.Target{newStage(), sprite}, 0, newRegistry(), nil)
	vm.StartFlag()
	for !vm.IsIdle() {
		vm.Step()
	}

	var rt *program.RunningTarget
	for _, r := range vm.RunningTargets() {
		if !r.IsClone && vm.TargetName(r.ID) == "Sprite1" {
			rt = r
		}
	}
	require.NotNil(t, rt)
	first, _ := rt.Variables.Get("first")
	second, _ := rt.Variables.Get("second")
	assert.Equal(t, "a", first.String())
	assert.Equal(t, "b", second.String())
}

// TestRepeatPacesOneIterationPerRound pins the substack yield rule: a
// repeat's PushStack ends the thread's turn, so each loop body runs in
// its own round rather than all three draining within one Step.
func TestRepeatPacesOneIterationPerRound(t *testing.T) {
	sprite := program.NewTarget("Sprite1", false)
	sprite.Blocks.Add(program.Block{Opcode: "event_whenflagclicked", Next: 1, TopLevel: true})
	sprite.Blocks.Add(program.Block{
		Opcode: "control_repeat",
		Args:   []program.Arg{lit(value.NewNumber(3)), ref(2)},
		Next:   program.NoNext,
	})
	sprite.Blocks.Add(program.Block{Opcode: "control_incr_counter", Next: program.NoNext})

	vm := engine.New([]*program.Target{newStage(), sprite}, 0, newRegistry(), nil)
	vm.StartFlag()

	vm.Step() // hat runs, repeat resolves its count and pushes the body
	assert.Equal(t, float64(0), vm.Global().Counter)
	vm.Step()
	assert.Equal(t, float64(1), vm.Global().Counter)
	vm.Step()
	assert.Equal(t, float64(2), vm.Global().Counter)
}

func TestListReplaceExtends(t *testing.T) {
	sprite := program.NewTarget("Sprite1", false)
	sprite.Blocks.Add(program.Block{Opcode: "event_whenflagclicked", Next: 1, TopLevel: true})
	for i, item := range []float64{1, 2, 3} {
		sprite.Blocks.Add(program.Block{
			Opcode: "data_addtolist",
			Args:   []program.Arg{lit(value.NewNumber(item)), lit(value.NewString("items"))},
			Next:   i + 2,
		})
	}
	sprite.Blocks.Add(program.Block{
		Opcode: "data_replaceitemoflist",
		Args: []program.Arg{
			lit(value.NewNumber(5)),
			lit(value.NewString("items")),
			lit(value.NewNumber(9)),
		},
		Next: program.NoNext,
	})

	vm := engine.New([]*program.Target{newStage(), sprite}, 0, newRegistry(), nil)
	vm.StartFlag()
	for !vm.IsIdle() {
		vm.Step()
	}

	var rt *program.RunningTarget
	for _, r := range vm.RunningTargets() {
		if !r.IsClone && vm.TargetName(r.ID) == "Sprite1" {
			rt = r
		}
	}
	require.NotNil(t, rt)
	items, ok := rt.Lists.Get("items")
	require.True(t, ok)
	require.Len(t, items, 5)
	assert.Equal(t, float64(1), items[0].ToNumber())
	assert.Equal(t, float64(3), items[2].ToNumber())
	assert.Equal(t, value.Undefined, items[3].Kind())
	assert.Equal(t, float64(9), items[4].ToNumber())
}

// TestStopAllScripts repeats "increment counter, stop-all once the
// counter reaches 4" ten times, checking that the stop fires partway
// through and the remaining iterations never run.
func TestStopAllScripts(t *testing.T) {
	sprite := program.NewTarget("Sprite1", false)
	sprite.Blocks.Add(program.Block{Opcode: "event_whenflagclicked", Next: 1, TopLevel: true})
	sprite.Blocks.Add(program.Block{
		Opcode: "control_repeat",
		Args:   []program.Arg{lit(value.NewNumber(10)), ref(2)},
		Next:   program.NoNext,
	})
	sprite.Blocks.Add(program.Block{Opcode: "control_incr_counter", Next: 3})
	sprite.Blocks.Add(program.Block{
		Opcode: "control_if",
		Args:   []program.Arg{ref(5), ref(6)},
		Next:   program.NoNext,
	})
	sprite.Blocks.Reserve(4) // ids 4-7, filled in below by explicit id
	sprite.Blocks.Set(5, program.Block{
		Opcode: "operator_equals",
		Args:   []program.Arg{ref(7), lit(value.NewNumber(4))},
		Next:   program.NoNext,
	})
	sprite.Blocks.Set(6, program.Block{
		Opcode: "control_stop",
		Args:   []program.Arg{lit(value.NewString("all"))},
		Next:   program.NoNext,
	})
	sprite.Blocks.Set(7, program.Block{Opcode: "control_get_counter", Next: program.NoNext})

	vm := engine.New([]*program.Target{newStage(), sprite}, 0, newRegistry(), nil)
	vm.StartFlag()
	for i := 0; !vm.IsIdle() && i < 20; i++ {
		vm.Step()
	}

	assert.True(t, vm.IsIdle())
	assert.Equal(t, float64(4), vm.Global().Counter)
}
