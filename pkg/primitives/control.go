package primitives

import (
	"time"

	"github.com/kristofer/stagevm/pkg/engine"
	"github.com/kristofer/stagevm/pkg/value"
)

// waitScratch carries control_wait's deadline across rounds once the
// wait duration has been computed from its resolved argument.
type waitScratch struct {
	deadline time.Time
}

func controlWait(c *engine.BlockContext) engine.Result {
	if ws, ok := c.Scratch().(waitScratch); ok {
		remaining := time.Until(ws.deadline)
		if remaining <= 0 {
			return engine.End()
		}
		c.Global().PublishWait(remaining)
		return engine.PendingResult()
	}
	return c.AcquireArgs(1, func(c *engine.BlockContext) engine.Result {
		secs := c.Arg(0).ToNumber()
		if secs <= 0 {
			return engine.End()
		}
		c.SetScratch(waitScratch{deadline: time.Now().Add(time.Duration(secs * float64(time.Second)))})
		return engine.PendingResult()
	})
}

// repeatScratch carries control_repeat's remaining iteration count and
// the substack block id to re-enter.
type repeatScratch struct {
	remaining int
	substack  int
}

func controlRepeat(c *engine.BlockContext) engine.Result {
	if rs, ok := c.Scratch().(repeatScratch); ok {
		c.ClearArgs()
		if rs.remaining <= 0 {
			return engine.End()
		}
		c.SetScratch(repeatScratch{remaining: rs.remaining - 1, substack: rs.substack})
		return engine.PushStackResult(rs.substack)
	}
	return c.AcquireArgs(1, func(c *engine.BlockContext) engine.Result {
		n := int(c.Arg(0).ToNumber())
		if n < 1 {
			return engine.End()
		}
		sub, ok := substackBlockID(c, 1)
		if !ok {
			return engine.End()
		}
		c.SetScratch(repeatScratch{remaining: n - 1, substack: sub})
		return engine.PushStackResult(sub)
	})
}

// substackBlockID reads the raw, unresolved BlockID of the block's
// argIndex-th argument slot — the loop body a repeat/if/for_each block
// executes via PushStack rather than a value it resolves.
func substackBlockID(c *engine.BlockContext, argIndex int) (int, bool) {
	args := c.Block().Args
	if argIndex >= len(args) || !args[argIndex].IsBlock {
		return 0, false
	}
	return args[argIndex].BlockID, true
}

func controlIfElse(c *engine.BlockContext) engine.Result {
	switch c.ArgLen() {
	case 0:
		return engine.ResolveArgumentResult(0)
	case 1:
		if c.Arg(0).ToBoolean() {
			return engine.ResolveArgumentResult(1)
		}
		return engine.ResolveArgumentResult(2)
	default:
		return engine.End()
	}
}

func controlIf(c *engine.BlockContext) engine.Result {
	switch c.ArgLen() {
	case 0:
		return engine.ResolveArgumentResult(0)
	case 1:
		if c.Arg(0).ToBoolean() {
			return engine.ResolveArgumentResult(1)
		}
		return engine.End()
	default:
		return engine.End()
	}
}

func controlForever(c *engine.BlockContext) engine.Result {
	c.ClearArgs()
	return engine.ResolveArgumentResult(0)
}

func controlAllAtOnce(c *engine.BlockContext) engine.Result {
	if c.ArgLen() == 0 {
		return engine.ResolveArgumentResult(0)
	}
	return engine.End()
}

func controlCreateCloneOfMenu(c *engine.BlockContext) engine.Result {
	return c.AcquireArgs(1, func(c *engine.BlockContext) engine.Result {
		return engine.Ret(c.Arg(0))
	})
}

func controlGetCounter(c *engine.BlockContext) engine.Result {
	return engine.RetNumber(c.Global().Counter)
}

func controlIncrCounter(c *engine.BlockContext) engine.Result {
	c.Global().Counter++
	return engine.End()
}

func controlClearCounter(c *engine.BlockContext) engine.Result {
	c.Global().Counter = 0
	return engine.End()
}

func controlDeleteThisClone(c *engine.BlockContext) engine.Result {
	return engine.DeleteThisCloneResult()
}

func controlStartAsClone(c *engine.BlockContext) engine.Result {
	return engine.End()
}

func controlCreateCloneOf(c *engine.BlockContext) engine.Result {
	return c.AcquireArgs(1, func(c *engine.BlockContext) engine.Result {
		return engine.CreateCloneResult(c.Arg(0).String())
	})
}

func controlRepeatUntil(c *engine.BlockContext) engine.Result {
	switch {
	case c.ArgLen() < 1:
		return engine.ResolveArgumentResult(c.ArgLen())
	case c.ArgLen() > 1:
		c.ClearArgs()
		return engine.ResolveArgumentResult(0)
	}
	if !c.Arg(0).ToBoolean() {
		return engine.ResolveArgumentResult(1)
	}
	return engine.End()
}

func controlWhile(c *engine.BlockContext) engine.Result {
	switch {
	case c.ArgLen() < 1:
		return engine.ResolveArgumentResult(c.ArgLen())
	case c.ArgLen() > 1:
		c.ClearArgs()
		return engine.ResolveArgumentResult(0)
	}
	if c.Arg(0).ToBoolean() {
		return engine.ResolveArgumentResult(1)
	}
	return engine.End()
}

// forEachScratch carries the for_each loop's variable name, its scope,
// and the 1-based index/limit pair.
type forEachScratch struct {
	name    string
	onStage bool
	index   int
	limit   int
}

func controlForEach(c *engine.BlockContext) engine.Result {
	if fe, ok := c.Scratch().(forEachScratch); ok {
		c.ClearArgs()
		if fe.index >= fe.limit {
			return engine.End()
		}
		fe.index++
		c.SetScratch(fe)
		setForEachVar(c, fe)
		return engine.ResolveArgumentResult(2)
	}
	if c.ArgLen() < 2 {
		return engine.ResolveArgumentResult(c.ArgLen())
	}
	name := c.Arg(0).String()
	limit := int(c.Arg(1).ToNumber())
	if limit <= 0 {
		return engine.End()
	}
	onStage := c.IsStage() || c.ExistsOnStage(name)
	fe := forEachScratch{name: name, onStage: onStage, index: 1, limit: limit}
	c.SetScratch(fe)
	setForEachVar(c, fe)
	return engine.ResolveArgumentResult(2)
}

func setForEachVar(c *engine.BlockContext, fe forEachScratch) {
	v := value.NewNumber(float64(fe.index))
	if fe.onStage {
		c.RunningStage().Variables.Set(fe.name, v)
		return
	}
	c.RunningTarget().Variables.Set(fe.name, v)
}

func controlWaitUntil(c *engine.BlockContext) engine.Result {
	if c.ArgLen() == 0 {
		return engine.ResolveArgumentResult(0)
	}
	if c.Arg(0).ToBoolean() {
		return engine.End()
	}
	c.ClearArgs()
	return engine.PendingResult()
}

func controlStop(c *engine.BlockContext) engine.Result {
	if c.ArgLen() < 1 {
		return engine.ResolveArgumentResult(c.ArgLen())
	}
	switch c.Arg(0).String() {
	case "all":
		return engine.StopScriptResult(engine.StopAllScripts)
	case "other scripts in sprite", "other scripts in stage":
		return engine.StopScriptResult(engine.StopOtherScriptsInSprite)
	case "this script":
		return engine.StopScriptResult(engine.StopThisScript)
	default:
		return engine.End()
	}
}

func registerControl(r *engine.Registry) {
	r.RegisterFunc("control_wait", controlWait)
	r.RegisterFunc("control_repeat", controlRepeat)
	r.RegisterFunc("control_if", controlIf)
	r.RegisterFunc("control_if_else", controlIfElse)
	r.RegisterFunc("control_forever", controlForever)
	r.RegisterFunc("control_all_at_once", controlAllAtOnce)
	r.RegisterFunc("control_create_clone_of_menu", controlCreateCloneOfMenu)
	r.RegisterFunc("control_get_counter", controlGetCounter)
	r.RegisterFunc("control_incr_counter", controlIncrCounter)
	r.RegisterFunc("control_clear_counter", controlClearCounter)
	r.RegisterFunc("control_delete_this_clone", controlDeleteThisClone)
	r.RegisterFunc("control_start_as_clone", controlStartAsClone)
	r.RegisterFunc("control_create_clone_of", controlCreateCloneOf)
	r.RegisterFunc("control_repeat_until", controlRepeatUntil)
	r.RegisterFunc("control_while", controlWhile)
	r.RegisterFunc("control_for_each", controlForEach)
	r.RegisterFunc("control_wait_until", controlWaitUntil)
	r.RegisterFunc("control_stop", controlStop)
}
