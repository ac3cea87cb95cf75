package engine

import (
	"math/rand"
	"sort"

	"github.com/kristofer/stagevm/pkg/program"
	"github.com/kristofer/stagevm/pkg/value"
)

// BlockContext is the per-step view the scheduler hands to a
// Primitive: its resolved arguments, the running target and stage it
// executes against, and the variable/list/global stores it may touch.
type BlockContext struct {
	vm     *VM
	thread *Thread
	frame  *StackFrame
}

// Arg returns resolved argument i, or Undefined if i is out of range.
func (c *BlockContext) Arg(i int) value.Value {
	if i < 0 || i >= len(c.frame.Args) {
		return value.Empty
	}
	return c.frame.Args[i]
}

// ArgLen reports how many arguments have been resolved so far.
func (c *BlockContext) ArgLen() int { return len(c.frame.Args) }

// Scratch returns the current frame's opaque per-primitive state.
func (c *BlockContext) Scratch() any { return c.frame.Scratch }

// SetScratch replaces the current frame's opaque per-primitive state.
func (c *BlockContext) SetScratch(s any) { c.frame.Scratch = s }

// ClearArgs discards the current frame's resolved-arguments vector. A
// looping primitive (repeat, forever, repeat_until, for_each) calls
// this before re-requesting its substack, so the value the substack's
// last block fed back doesn't linger as a phantom argument.
func (c *BlockContext) ClearArgs() { c.frame.Args = nil }

// Block returns the static prototype Block the current frame is
// executing, for primitives that need a raw, unresolved argument slot
// (a substack's BlockID, a procedure-call's baked-in argument count)
// rather than one resolved through the ResolveArgument protocol.
func (c *BlockContext) Block() *program.Block {
	return c.Target().Blocks.Get(c.frame.BlockID)
}

// Stage returns the stage's static prototype.
func (c *BlockContext) Stage() *program.Target { return c.vm.targets[c.vm.stageTargetIdx] }

// RunningStage returns the live singleton stage instance.
func (c *BlockContext) RunningStage() *program.RunningTarget { return c.vm.running[c.vm.stageID] }

// Target returns the static prototype backing the current thread's
// running target.
func (c *BlockContext) Target() *program.Target {
	rt := c.RunningTarget()
	return c.vm.targets[rt.TargetIdx]
}

// RunningTarget returns the live instance the current thread executes
// against.
func (c *BlockContext) RunningTarget() *program.RunningTarget {
	return c.vm.running[c.thread.RunningTargetID]
}

// IsStage reports whether the current thread's running target is the
// stage.
func (c *BlockContext) IsStage() bool {
	return c.thread.RunningTargetID == c.vm.stageID
}

// GetVariable resolves name in sprite scope, falling back to stage
// scope, per the engine's scoping rule (a sprite-scope miss with a
// stage hit reads the stage's copy).
func (c *BlockContext) GetVariable(name string) value.Value {
	rt := c.RunningTarget()
	if v, ok := rt.Variables.Get(name); ok {
		return v
	}
	if v, ok := c.RunningStage().Variables.Get(name); ok {
		return v
	}
	return value.Empty
}

// SetVariable writes name in sprite scope unless it already exists on
// the stage, in which case it writes there instead — matching the
// scoping rule GetVariable reads with.
func (c *BlockContext) SetVariable(name string, v value.Value) {
	rt := c.RunningTarget()
	if _, ok := rt.Variables.Get(name); ok {
		rt.Variables.Set(name, v)
		return
	}
	stage := c.RunningStage()
	if _, ok := stage.Variables.Get(name); ok {
		stage.Variables.Set(name, v)
		return
	}
	rt.Variables.Set(name, v)
}

// ExistsOnStage reports whether name is defined in stage scope. Used
// by for_each to decide its loop-variable scope.
func (c *BlockContext) ExistsOnStage(name string) bool {
	_, ok := c.RunningStage().Variables.Get(name)
	return ok
}

// GetList resolves a list by name with the same sprite-then-stage
// scoping as GetVariable.
func (c *BlockContext) GetList(name string) []value.Value {
	rt := c.RunningTarget()
	if v, ok := rt.Lists.Get(name); ok {
		return v
	}
	if v, ok := c.RunningStage().Lists.Get(name); ok {
		return v
	}
	return nil
}

// SetList writes a list with the same sprite-then-stage scoping as
// SetVariable.
func (c *BlockContext) SetList(name string, v []value.Value) {
	rt := c.RunningTarget()
	if _, ok := rt.Lists.Get(name); ok {
		rt.Lists.Set(name, v)
		return
	}
	stage := c.RunningStage()
	if _, ok := stage.Lists.Get(name); ok {
		stage.Lists.Set(name, v)
		return
	}
	rt.Lists.Set(name, v)
}

// refreshScratch caches the stage frame counter a "wait for redraw"
// primitive last ran against plus the Value it resolved to, so it can
// yield every round without re-invoking its body until the host has
// actually drawn a new frame.
type refreshScratch struct {
	value *value.Value
	frame uint64
}

// AcquireNeedWaitRefresh runs f exactly once, then holds the thread
// Pending until the host calls MarkStageRefreshed, at which point it
// hands back f's resolved value without invoking f again. This lets
// say/think and the other visible motion/looks primitives pace
// themselves to the host's redraw cadence instead of the scheduler's
// round rate.
func (c *BlockContext) AcquireNeedWaitRefresh(f func(*BlockContext) Result) Result {
	if rs, ok := c.frame.Scratch.(*refreshScratch); ok {
		if rs.frame == c.vm.global.StageFrame {
			return PendingResult()
		}
		return ResolvedResult(rs.value)
	}
	result := f(c)
	if result.Kind != Resolved {
		return result
	}
	c.frame.Scratch = &refreshScratch{value: result.Value, frame: c.vm.global.StageFrame}
	return PendingResult()
}

// Global returns the VM-wide store of well-known cross-thread values.
func (c *BlockContext) Global() *GlobalStore { return &c.vm.global }

// Rand returns the VM's shared PRNG, so every primitive that needs
// randomness draws from the one seed a test or host controls.
func (c *BlockContext) Rand() *rand.Rand { return c.vm.rng }

// Registry returns the VM's primitive registry, so a primitive like
// procedures_call can resolve the opcode of a block it pushes.
func (c *BlockContext) Registry() *Registry { return c.vm.registry }

// AllRunning exposes every live running target (stage, sprites,
// clones), for primitives that need to enumerate them. Callers must
// not mutate the map.
func (c *BlockContext) AllRunning() map[string]*program.RunningTarget { return c.vm.running }

// TargetOf returns the static prototype backing rt.
func (c *BlockContext) TargetOf(rt *program.RunningTarget) *program.Target {
	return c.vm.targets[rt.TargetIdx]
}

// FindRunningByName returns the first non-clone running target whose
// prototype is named name (sprite lookup used by sensing_of and by the
// named targets of distance-to, go-to, glide-to, and point-towards).
func (c *BlockContext) FindRunningByName(name string) (*program.RunningTarget, bool) {
	for _, rt := range c.vm.running {
		if rt.IsClone {
			continue
		}
		if c.vm.targets[rt.TargetIdx].Name == name {
			return rt, true
		}
	}
	return nil, false
}

// ReorderLayer moves rt among every non-stage running target, ordered
// back (index 0) to front: delta<0 moves toward the back, delta>0
// toward the front, clampFront/clampBack pin rt to an extreme. Every
// target's LayerOrder is renumbered to a dense 0..n-1 sequence
// afterward.
func (c *BlockContext) ReorderLayer(rt *program.RunningTarget, delta int, clampFront, clampBack bool) {
	var order []*program.RunningTarget
	for _, other := range c.vm.running {
		if other.ID != c.vm.stageID {
			order = append(order, other)
		}
	}
	sort.Slice(order, func(i, j int) bool { return order[i].LayerOrder < order[j].LayerOrder })

	idx := -1
	for i, r := range order {
		if r == rt {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	order = append(order[:idx], order[idx+1:]...)

	switch {
	case clampFront:
		idx = len(order)
	case clampBack:
		idx = 0
	default:
		idx = clampInt(idx+delta, 0, len(order))
	}
	order = append(order[:idx], append([]*program.RunningTarget{rt}, order[idx:]...)...)
	for i, r := range order {
		r.LayerOrder = i
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// AcquireArgs runs f once ArgLen() >= n, otherwise asks the scheduler
// to resolve the next missing argument.
func (c *BlockContext) AcquireArgs(n int, f func(*BlockContext) Result) Result {
	if c.ArgLen() >= n {
		return f(c)
	}
	return ResolveArgumentResult(c.ArgLen())
}

// BeginProcedureCall records values as the frame's collected call
// arguments, so ResolveProcedureArgument and procedures_return can find
// them by walking outward from the pushed body, then pushes bodyBlockID
// as a new frame to execute that body.
func (c *BlockContext) BeginProcedureCall(values []value.Value, bodyBlockID int) Result {
	c.frame.Scratch = callArgs{values: append([]value.Value{}, values...)}
	return PushStackResult(bodyBlockID)
}

// ProcedureReturnValue returns the value a procedures_return inside this
// call wrote back via ReturnProcedure, or Undefined if none did.
func (c *BlockContext) ProcedureReturnValue() value.Value {
	if ca, ok := c.frame.Scratch.(callArgs); ok {
		return ca.ret
	}
	return value.Empty
}
