package primitives_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kristofer/stagevm/pkg/engine"
	"github.com/kristofer/stagevm/pkg/primitives"
	"github.com/kristofer/stagevm/pkg/program"
	"github.com/kristofer/stagevm/pkg/value"
)

func lit(v value.Value) program.Arg { return program.Arg{Kind: program.ArgInput, Literal: v} }

func ref(id int) program.Arg { return program.Arg{Kind: program.ArgInput, IsBlock: true, BlockID: id} }

// runReporter evaluates a single reporter block by wiring it as the
// value of a set-variable statement and running the program to idle,
// then returns what landed in the variable.
func runReporter(t *testing.T, seed int64, opBlock program.Block) value.Value {
	t.Helper()
	sprite := program.NewTarget("Sprite1", false)
	sprite.Blocks.Add(program.Block{Opcode: "event_whenflagclicked", Next: 1, TopLevel: true})
	sprite.Blocks.Add(program.Block{
		Opcode: "data_setvariableto",
		Args:   []program.Arg{lit(value.NewString("out")), ref(2)},
		Next:   program.NoNext,
	})
	opBlock.Next = program.NoNext
	sprite.Blocks.Add(opBlock)

	registry := engine.NewRegistry()
	primitives.RegisterAll(registry)
	stage := program.NewTarget("Stage", true)
	vm := engine.New([]*program.Target{stage, sprite}, 0, registry, nil)
	vm.SeedRandom(seed)
	vm.StartFlag()
	for i := 0; !vm.IsIdle() && i < 100; i++ {
		vm.Step()
	}
	require.True(t, vm.IsIdle())
	for _, rt := range vm.RunningTargets() {
		if v, ok := rt.Variables.Get("out"); ok {
			return v
		}
	}
	t.Fatal("reporter result never stored")
	return value.Empty
}

func TestOperatorModSignMatchesDivisor(t *testing.T) {
	cases := []struct {
		n, m, want float64
	}{
		{7, 3, 1},
		{-7, 3, 2},
		{7, -3, -2},
		{-7, -3, -1},
	}
	for _, c := range cases {
		got := runReporter(t, 1, program.Block{
			Opcode: "operator_mod",
			Args:   []program.Arg{lit(value.NewNumber(c.n)), lit(value.NewNumber(c.m))},
		})
		assert.Equal(t, c.want, got.ToNumber(), "mod(%v, %v)", c.n, c.m)
	}
}

func TestOperatorLetterOfBounds(t *testing.T) {
	cases := []struct {
		index float64
		want  string
	}{
		{0, ""},
		{1, "a"},
		{2, "b"},
		{3, "c"},
		{4, ""},
	}
	for _, c := range cases {
		got := runReporter(t, 1, program.Block{
			Opcode: "operator_letter_of",
			Args:   []program.Arg{lit(value.NewNumber(c.index)), lit(value.NewString("abc"))},
		})
		assert.Equal(t, c.want, got.String(), "letter %v of abc", c.index)
	}
}

func TestOperatorRandomIntegerRange(t *testing.T) {
	for seed := int64(1); seed <= 5; seed++ {
		got := runReporter(t, seed, program.Block{
			Opcode: "operator_random",
			Args:   []program.Arg{lit(value.NewNumber(1)), lit(value.NewNumber(10))},
		}).ToNumber()
		assert.GreaterOrEqual(t, got, float64(1))
		assert.Less(t, got, float64(10))
		assert.Equal(t, math.Trunc(got), got, "integral bounds must draw an integer")
	}
}

func TestOperatorRandomEqualBounds(t *testing.T) {
	got := runReporter(t, 1, program.Block{
		Opcode: "operator_random",
		Args:   []program.Arg{lit(value.NewNumber(5)), lit(value.NewNumber(5))},
	})
	assert.Equal(t, float64(5), got.ToNumber())
}

func TestOperatorMathopTruncatedTrig(t *testing.T) {
	sin45 := runReporter(t, 1, program.Block{
		Opcode: "operator_mathop",
		Args:   []program.Arg{lit(value.NewString("sin")), lit(value.NewNumber(45))},
	})
	assert.Equal(t, 0.7, sin45.ToNumber())

	cos0 := runReporter(t, 1, program.Block{
		Opcode: "operator_mathop",
		Args:   []program.Arg{lit(value.NewString("cos")), lit(value.NewNumber(0))},
	})
	assert.Equal(t, 1.0, cos0.ToNumber())
}

func TestOperatorJoinAndLength(t *testing.T) {
	joined := runReporter(t, 1, program.Block{
		Opcode: "operator_join",
		Args:   []program.Arg{lit(value.NewString("ab")), lit(value.NewNumber(3))},
	})
	assert.Equal(t, "ab3", joined.String())

	length := runReporter(t, 1, program.Block{
		Opcode: "operator_length",
		Args:   []program.Arg{lit(value.NewString("héllo"))},
	})
	assert.Equal(t, float64(5), length.ToNumber())
}
