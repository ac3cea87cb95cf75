// Package engine implements the cooperative scheduler: the block-graph
// stepping rules, thread lifecycle, and event/clone/broadcast plumbing
// that drive a loaded program. It knows nothing about individual
// opcodes — those are supplied by a Registry built elsewhere (see
// pkg/primitives) — only about the Result protocol a Primitive must
// honor.
package engine

import (
	"context"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/kristofer/stagevm/pkg/program"
	"github.com/kristofer/stagevm/pkg/value"
)

// StackFrame is one entry in a Thread's call stack: the block it is
// executing, that block's resolved Primitive, the arguments resolved
// so far, and any opaque per-primitive progress state.
type StackFrame struct {
	BlockID int
	Fn      Primitive
	Args    []value.Value
	Scratch any
}

// Thread is an ordered stack of frames bound to one running target.
// Awaiting, when non-empty, names other thread ids this thread is
// blocked on (broadcast-and-wait); the thread is skipped each round
// until every id in Awaiting has terminated.
type Thread struct {
	ID              uint64
	RunningTargetID string
	Frames          []StackFrame
	Awaiting        []uint64
}

type broadcastRequest struct {
	threadID uint64
	name     string
}

type cloneRequest struct {
	sourceID string
	newID    string
}

// VM is one loaded program: its static target prototypes, the live
// running-target set (original sprites, the stage, and any clones),
// and the scheduler's thread list and global store.
type VM struct {
	targets        []*program.Target
	stageTargetIdx int

	running map[string]*program.RunningTarget
	stageID string

	threads []*Thread

	registry *Registry
	global   GlobalStore
	log      *logrus.Logger
	rng      *rand.Rand

	threadIDSeq uint64

	pendingBroadcast     []broadcastRequest
	pendingBroadcastWait []broadcastRequest
	pendingClone         []cloneRequest
	stopEverything       bool
}

// New builds a VM from a set of static target prototypes (stage plus
// sprites) and the Registry that resolves their blocks' opcodes. The
// stage must be present exactly once among targets; stageIdx names its
// index.
func New(targets []*program.Target, stageIdx int, registry *Registry, log *logrus.Logger) *VM {
	if log == nil {
		log = logrus.New()
	}
	vm := &VM{
		targets:        targets,
		stageTargetIdx: stageIdx,
		running:        make(map[string]*program.RunningTarget),
		registry:       registry,
		log:            log,
		rng:            rand.New(rand.NewSource(time.Now().UnixNano())),
		global:         GlobalStore{GlobalTimer: time.Time{}},
	}
	stageRT := program.MakeRunningTarget(uuid.NewString(), stageIdx, targets[stageIdx], false)
	vm.stageID = stageRT.ID
	vm.running[stageRT.ID] = stageRT
	for i, t := range targets {
		if i == stageIdx {
			continue
		}
		rt := program.MakeRunningTarget(uuid.NewString(), i, t, false)
		vm.running[rt.ID] = rt
	}
	vm.global.GlobalTimer = vm.now()
	return vm
}

// now is the scheduler's single clock read, isolated so tests can
// observe it is only ever called through here.
func (vm *VM) now() time.Time { return time.Now() }

// RunningTargets exposes every live instance (stage, sprites, clones)
// for host iteration (rendering, debugging); callers must not mutate
// the map.
func (vm *VM) RunningTargets() map[string]*program.RunningTarget { return vm.running }

// Threads exposes the live thread list for host inspection (the
// debugger's stack/callstack views); callers must not mutate it.
func (vm *VM) Threads() []*Thread { return vm.threads }

// StageID returns the handle of the live stage RunningTarget.
func (vm *VM) StageID() string { return vm.stageID }

// TargetName returns the prototype name backing a running target id,
// or "" if id is unknown.
func (vm *VM) TargetName(runningTargetID string) string {
	rt, ok := vm.running[runningTargetID]
	if !ok {
		return ""
	}
	return vm.targets[rt.TargetIdx].Name
}

// BlockAt returns the static Block a frame names, for host/debugger
// display of an opcode at a given stack position.
func (vm *VM) BlockAt(runningTargetID string, blockID int) *program.Block {
	rt, ok := vm.running[runningTargetID]
	if !ok {
		return nil
	}
	return vm.targets[rt.TargetIdx].Blocks.Get(blockID)
}

// Registry returns the VM's primitive registry.
func (vm *VM) Registry() *Registry { return vm.registry }

// Global returns the VM-wide store, for host inspection (e.g. printing
// the current answer or timer between steps).
func (vm *VM) Global() *GlobalStore { return &vm.global }

func (vm *VM) nextThreadID() uint64 { return atomic.AddUint64(&vm.threadIDSeq, 1) }

// SeedRandom reseeds the VM's PRNG, used by tests that need
// `random`/`pick random`/"item random of" to be reproducible.
func (vm *VM) SeedRandom(seed int64) { vm.rng = rand.New(rand.NewSource(seed)) }

// Rand returns the VM's PRNG, shared by every primitive that needs
// randomness (operator_random, item-of "random"/"any", the "_random_"
// motion target) so a single seed determines an entire run.
func (vm *VM) Rand() *rand.Rand { return vm.rng }

// resolveOpcode looks up the Primitive for the block a frame names, on
// the Target backing runningTargetID.
func (vm *VM) resolveOpcode(runningTargetID string, blockID int) (Primitive, *program.Block) {
	rt := vm.running[runningTargetID]
	target := vm.targets[rt.TargetIdx]
	block := target.Blocks.Get(blockID)
	info, ok := vm.registry.Lookup(block.Opcode)
	if !ok {
		return noopPrimitive, block
	}
	return info.Fn, block
}

func noopPrimitive(c *BlockContext) Result { return End() }

// IsIdle reports whether any thread remains runnable.
func (vm *VM) IsIdle() bool { return len(vm.threads) == 0 }

// StartFlag purges every clone, clears all threads, and starts every
// when-green-flag-clicked script.
func (vm *VM) StartFlag() {
	vm.purgeClones()
	vm.threads = nil
	vm.StartOpcode("event_whenflagclicked")
}

// StartOpcode clears all threads and starts one thread per top-level
// block matching opcode, across every running target (stage included).
func (vm *VM) StartOpcode(opcode string) {
	vm.threads = nil
	vm.startMatchingOn(opcode, vm.allRunningIDsInOrder(), func(*program.Block) bool { return true })
}

func (vm *VM) purgeClones() {
	for id, rt := range vm.running {
		if rt.IsClone {
			delete(vm.running, id)
		}
	}
}

// allRunningIDsInOrder returns running target ids in a stable order
// (stage first, then insertion order is not guaranteed by Go maps, so
// callers that need determinism across runs should rely on per-target
// block iteration order instead, which is stable).
func (vm *VM) allRunningIDsInOrder() []string {
	ids := make([]string, 0, len(vm.running))
	ids = append(ids, vm.stageID)
	for id := range vm.running {
		if id != vm.stageID {
			ids = append(ids, id)
		}
	}
	return ids
}

func (vm *VM) startMatchingOn(opcode string, runningIDs []string, extra func(*program.Block) bool) {
	for _, rtID := range runningIDs {
		rt, ok := vm.running[rtID]
		if !ok {
			continue
		}
		target := vm.targets[rt.TargetIdx]
		for _, bid := range target.Blocks.TopLevel() {
			b := target.Blocks.Get(bid)
			if b.Opcode != opcode || !extra(b) {
				continue
			}
			vm.spawnThread(rtID, bid)
		}
	}
}

func (vm *VM) spawnThread(runningTargetID string, blockID int) uint64 {
	id := vm.nextThreadID()
	t := &Thread{ID: id, RunningTargetID: runningTargetID, Frames: []StackFrame{{BlockID: blockID}}}
	vm.threads = append(vm.threads, t)
	return id
}

// MarkStageRefreshed advances the global stage-frame counter, letting
// any AcquireNeedWaitRefresh-paced primitive resume on the next round.
func (vm *VM) MarkStageRefreshed() { vm.global.StageFrame++ }

// ResyncStage copies the stage prototype's current variables and
// lists into the live stage instance, discarding any in-run mutation.
func (vm *VM) ResyncStage() {
	stage := vm.targets[vm.stageTargetIdx]
	rt := vm.running[vm.stageID]
	rt.Variables = stage.Variables.Clone()
	rt.Lists = stage.Lists.Clone()
}

// Step runs exactly one scheduler round: every runnable thread
// advances until it yields (Pending, a substack push, a
// broadcast-and-wait, or blocked on an await set) or terminates; afterward, queued broadcasts,
// broadcast-and-waits, and clone creations from this round are
// applied.
func (vm *VM) Step() {
	vm.global.resetRound()
	vm.pendingBroadcast = nil
	vm.pendingBroadcastWait = nil
	vm.pendingClone = nil
	vm.stopEverything = false

	live := vm.threads[:0:0]
	for _, th := range vm.threads {
		if vm.stopEverything {
			break
		}
		if !vm.targetStillRunning(th) {
			continue
		}
		if len(th.Awaiting) > 0 {
			if !vm.awaitSetDone(th) {
				live = append(live, th)
				continue
			}
			th.Awaiting = nil
		}

		keep, stoppedAll := vm.stepThread(th)
		if stoppedAll {
			vm.stopEverything = true
			break
		}
		if keep {
			live = append(live, th)
		}
	}

	if vm.stopEverything {
		vm.threads = nil
		return
	}
	vm.threads = live

	vm.applyClones()
	vm.applyBroadcasts()
}

func (vm *VM) targetStillRunning(th *Thread) bool {
	_, ok := vm.running[th.RunningTargetID]
	return ok
}

func (vm *VM) awaitSetDone(th *Thread) bool {
	live := map[uint64]bool{}
	for _, t := range vm.threads {
		live[t.ID] = true
	}
	for _, id := range th.Awaiting {
		if live[id] {
			return false
		}
	}
	return true
}

// stepThread runs th's inner loop for this round: Resolved-style
// directives advance in place and sub-expression evaluation continues
// within the same call, while Pending, PushStack, and BroadcastAndWait
// end the thread's turn until the next round. It returns keep=true if th should remain
// in the thread list, and stoppedAll=true if th requested a
// StopAllScripts this round.
func (vm *VM) stepThread(th *Thread) (keep bool, stoppedAll bool) {
	for {
		if len(th.Frames) == 0 {
			return false, false
		}
		frame := &th.Frames[len(th.Frames)-1]
		if frame.Fn == nil {
			fn, _ := vm.resolveOpcode(th.RunningTargetID, frame.BlockID)
			frame.Fn = fn
		}
		ctx := &BlockContext{vm: vm, thread: th, frame: frame}
		result := frame.Fn(ctx)

		switch result.Kind {
		case Pending:
			return true, false

		case ResolveArgument:
			_, block := vm.resolveOpcode(th.RunningTargetID, frame.BlockID)
			if result.ArgIndex < 0 || result.ArgIndex >= len(block.Args) {
				frame.Args = append(frame.Args, value.Empty)
				continue
			}
			arg := block.Args[result.ArgIndex]
			if arg.IsBlock {
				th.Frames = append(th.Frames, StackFrame{BlockID: arg.BlockID})
				continue
			}
			frame.Args = append(frame.Args, arg.Literal)
			continue

		case PushStack:
			th.Frames = append(th.Frames, StackFrame{BlockID: result.BlockID})
			return true, false

		case Resolved:
			if done := vm.advanceAfterResolved(th, result.Value); done {
				return false, false
			}
			continue

		case CreateClone:
			vm.pendingClone = append(vm.pendingClone, cloneRequest{sourceID: th.RunningTargetID, newID: result.Name})
			if done := vm.advanceAfterResolved(th, nil); done {
				return false, false
			}
			continue

		case Broadcast:
			vm.pendingBroadcast = append(vm.pendingBroadcast, broadcastRequest{threadID: th.ID, name: result.Name})
			if done := vm.advanceAfterResolved(th, nil); done {
				return false, false
			}
			continue

		case BroadcastAndWait:
			vm.pendingBroadcastWait = append(vm.pendingBroadcastWait, broadcastRequest{threadID: th.ID, name: result.Name})
			if done := vm.advanceAfterResolved(th, nil); done {
				return false, false
			}
			return true, false

		case DeleteThisClone:
			rt, ok := vm.running[th.RunningTargetID]
			if ok && rt.IsClone {
				delete(vm.running, th.RunningTargetID)
			}
			return false, false

		case StopScript:
			switch result.StopKind {
			case StopAllScripts:
				return false, true
			case StopThisScript:
				return false, false
			default: // StopOtherScriptsInSprite: licensed no-op, see design notes
				if done := vm.advanceAfterResolved(th, nil); done {
					return false, false
				}
				continue
			}

		case ResolveProcedureArgument:
			v := vm.lookupProcedureArgument(th, result.ArgIndex)
			frame.Args = append(frame.Args, v)
			continue

		case ReturnProcedure:
			vm.writeProcedureReturn(th, result.Value)
			frame.Args = append(frame.Args, derefOr(result.Value, value.Empty))
			continue

		default:
			return true, false
		}
	}
}

// advanceAfterResolved applies the Resolved(v) transition: move to
// Next if present, else pop and feed v to the caller, else terminate
// the thread. Returns done=true when the thread has terminated.
func (vm *VM) advanceAfterResolved(th *Thread, v *value.Value) (done bool) {
	frame := &th.Frames[len(th.Frames)-1]
	_, block := vm.resolveOpcode(th.RunningTargetID, frame.BlockID)
	if block.Next != program.NoNext {
		frame.BlockID = block.Next
		frame.Fn = nil
		frame.Args = nil
		frame.Scratch = nil
		return false
	}
	th.Frames = th.Frames[:len(th.Frames)-1]
	if len(th.Frames) == 0 {
		return true
	}
	caller := &th.Frames[len(th.Frames)-1]
	caller.Args = append(caller.Args, derefOr(v, value.Empty))
	return false
}

func derefOr(v *value.Value, def value.Value) value.Value {
	if v == nil {
		return def
	}
	return *v
}

func (vm *VM) applyClones() {
	for _, req := range vm.pendingClone {
		src := vm.resolveCloneSource(req)
		if src == nil {
			continue
		}
		newID := uuid.NewString()
		clone := program.MakeRunningTarget(newID, src.TargetIdx, vm.targets[src.TargetIdx], true)
		clone.Variables = src.Variables.Clone()
		clone.Lists = src.Lists.Clone()
		clone.X, clone.Y, clone.Direction, clone.Size = src.X, src.Y, src.Direction, src.Size
		clone.Visible, clone.CurrentCostume = src.Visible, src.CurrentCostume
		clone.Rotation, clone.Volume, clone.Tempo = src.Rotation, src.Volume, src.Tempo
		clone.LayerOrder = vm.backmostLayer() - 1
		vm.running[newID] = clone
		vm.startMatchingOn("control_start_as_clone", []string{newID}, func(*program.Block) bool { return true })
		vm.log.WithField("target", vm.targets[src.TargetIdx].Name).Debug("clone created")
	}
}

// resolveCloneSource finds the RunningTarget a create_clone_of request
// refers to: "" or "_myself_" means the issuing thread's own target,
// anything else names a sprite by its prototype name (the first
// non-clone running instance found).
func (vm *VM) resolveCloneSource(req cloneRequest) *program.RunningTarget {
	if req.newID == "" || req.newID == "_myself_" {
		rt, ok := vm.running[req.sourceID]
		if !ok {
			return nil
		}
		return rt
	}
	for _, rt := range vm.running {
		if rt.IsClone {
			continue
		}
		if vm.targets[rt.TargetIdx].Name == req.newID {
			return rt
		}
	}
	return nil
}

func (vm *VM) backmostLayer() int {
	min := 0
	for _, rt := range vm.running {
		if rt.LayerOrder < min {
			min = rt.LayerOrder
		}
	}
	return min
}

func (vm *VM) applyBroadcasts() {
	for _, req := range vm.pendingBroadcast {
		vm.deliverBroadcast(req.name)
		vm.log.WithField("broadcast", req.name).Debug("broadcast")
	}
	for _, req := range vm.pendingBroadcastWait {
		spawned := vm.deliverBroadcast(req.name)
		for _, th := range vm.threads {
			if th.ID == req.threadID {
				th.Awaiting = append(th.Awaiting, spawned...)
			}
		}
	}
}

func (vm *VM) deliverBroadcast(name string) []uint64 {
	var spawned []uint64
	for _, rtID := range vm.allRunningIDsInOrder() {
		rt := vm.running[rtID]
		target := vm.targets[rt.TargetIdx]
		for _, bid := range target.Blocks.TopLevel() {
			b := target.Blocks.Get(bid)
			if b.Opcode != "event_whenbroadcastreceived" {
				continue
			}
			if len(b.Args) == 0 || b.Args[0].Literal.String() != name {
				continue
			}
			spawned = append(spawned, vm.spawnThread(rtID, bid))
		}
	}
	return spawned
}

// lookupProcedureArgument walks a thread's frames outward from the
// current one for the nearest procedures_call invocation and returns
// its i-th collected argument.
func (vm *VM) lookupProcedureArgument(th *Thread, i int) value.Value {
	for idx := len(th.Frames) - 2; idx >= 0; idx-- {
		if args, ok := th.Frames[idx].Scratch.(callArgs); ok {
			if i >= 0 && i < len(args.values) {
				return args.values[i]
			}
			return value.NewNumber(0)
		}
	}
	return value.NewNumber(0)
}

// writeProcedureReturn walks outward for the nearest procedures_call
// frame and stashes v as its eventual result.
func (vm *VM) writeProcedureReturn(th *Thread, v *value.Value) {
	for idx := len(th.Frames) - 2; idx >= 0; idx-- {
		if args, ok := th.Frames[idx].Scratch.(callArgs); ok {
			args.ret = derefOr(v, value.Empty)
			th.Frames[idx].Scratch = args
			return
		}
	}
}

// callArgs tags a procedures_call frame's Scratch with its collected
// argument values and (once available) return value.
type callArgs struct {
	values []value.Value
	ret    value.Value
}

// RunUntilIdle steps the VM until no thread remains runnable, ctx is
// canceled, or maxDuration elapses. It also stops after a round in
// which every live thread throttled itself, returning the minimum
// wall-clock delay published that round with waited=true — letting the
// host sleep precisely instead of busy-polling. In every other case it
// returns 0, false.
func (vm *VM) RunUntilIdle(ctx context.Context, maxDuration time.Duration) (minWait time.Duration, waited bool) {
	deadline := vm.now().Add(maxDuration)
	for !vm.IsIdle() {
		select {
		case <-ctx.Done():
			return 0, false
		default:
		}
		if maxDuration > 0 && vm.now().After(deadline) {
			return 0, false
		}
		vm.Step()
		if vm.global.MinWaitTimeSet && uint64(vm.global.WaitingThreads) >= uint64(len(vm.threads)) && len(vm.threads) > 0 {
			return vm.global.MinWaitTime, true
		}
	}
	return 0, false
}
