package primitives

import (
	"github.com/kristofer/stagevm/pkg/engine"
	"github.com/kristofer/stagevm/pkg/value"
)

// proceduresDefinition and proceduresDefinitionReturn mark where a
// procedure body begins; procedures_call pushes straight past them to
// the first real statement, so reaching one directly just ends.
func proceduresDefinition(c *engine.BlockContext) engine.Result { return engine.End() }

func proceduresCall(c *engine.BlockContext) engine.Result {
	block := c.Block()
	n := len(block.Args)
	if c.ArgLen() >= n {
		return engine.Ret(c.ProcedureReturnValue())
	}
	return c.AcquireArgs(max0(n-1), func(c *engine.BlockContext) engine.Result {
		if n == 0 {
			return engine.End()
		}
		last := block.Args[n-1]
		if !last.IsBlock {
			return engine.End()
		}
		values := make([]value.Value, c.ArgLen())
		for i := range values {
			values[i] = c.Arg(i)
		}
		return c.BeginProcedureCall(values, last.BlockID)
	})
}

func max0(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

// argumentReporterStringNumber resolves a procedure parameter by its
// baked-in index: the loader stores the parameter's position as a
// literal in Args[0].
func argumentReporterStringNumber(c *engine.BlockContext) engine.Result {
	if c.ArgLen() > 0 {
		return engine.Ret(c.Arg(0))
	}
	paramID := int(c.Block().Args[0].Literal.ToNumber())
	return engine.ResolveProcedureArgumentResult(paramID)
}

// argumentReporterBoolean is identical in spirit to
// argumentReporterStringNumber but goes through AcquireArgs(1) for its
// own index slot first: the loader bakes the same literal index into
// Args[0] as for the string/number reporter, and this primitive reads
// it as resolved argument 0 rather than straight off the Block.
func argumentReporterBoolean(c *engine.BlockContext) engine.Result {
	if c.ArgLen() > 1 {
		return engine.Ret(c.Arg(1))
	}
	return c.AcquireArgs(1, func(c *engine.BlockContext) engine.Result {
		paramID := int(c.Arg(0).ToNumber())
		return engine.ResolveProcedureArgumentResult(paramID)
	})
}

// proceduresReturn supplies the enclosing call's result exactly once:
// the scheduler feeds the emitted value back into this same frame's
// argument list, and the second invocation just ends the block instead
// of emitting ReturnProcedure again.
func proceduresReturn(c *engine.BlockContext) engine.Result {
	if c.ArgLen() >= 2 {
		return engine.End()
	}
	return c.AcquireArgs(1, func(c *engine.BlockContext) engine.Result {
		return engine.ReturnProcedureResult(c.Arg(0))
	})
}

func registerProcedures(r *engine.Registry) {
	r.RegisterFunc("procedures_definition", proceduresDefinition)
	r.RegisterFunc("procedures_return_definition", proceduresDefinition)
	r.RegisterFunc("procedures_call", proceduresCall)
	r.RegisterFunc("procedures_call_return", proceduresCall)
	r.RegisterFunc("argument_reporter_string_number", argumentReporterStringNumber)
	r.RegisterFunc("argument_reporter_boolean", argumentReporterBoolean)
	r.RegisterFunc("procedures_return", proceduresReturn)
}
