package engine

import "github.com/kristofer/stagevm/pkg/value"

// ResultKind identifies which scheduler directive a primitive returned
// from one invocation.
type ResultKind int

const (
	// Pending means the primitive has more work to do; the thread
	// yields for the remainder of this round and the same frame runs
	// again next round.
	Pending ResultKind = iota
	// ResolveArgument asks the scheduler to make argument slot
	// ArgIndex available, pushing a sub-expression frame if needed.
	ResolveArgument
	// Resolved finishes the current block with an optional Value,
	// advancing to Next or returning to the caller frame.
	Resolved
	// PushStack pushes a new frame for BlockID and ends the thread's
	// turn; the pushed frame starts running on the next round.
	PushStack
	// ResolveProcedureArgument asks the scheduler to resolve the
	// ArgIndex-th argument of the nearest enclosing procedure call.
	ResolveProcedureArgument
	// ReturnProcedure supplies the return value of the nearest
	// enclosing procedure call frame.
	ReturnProcedure
	// Broadcast queues a fire-and-forget broadcast by Name.
	Broadcast
	// BroadcastAndWait queues a broadcast by Name and blocks the
	// issuing thread on every thread it spawns.
	BroadcastAndWait
	// StopScript requests a StopKind-scoped stop.
	StopScript
	// CreateClone queues a clone of the running target named by Name
	// ("" meaning "myself").
	CreateClone
	// DeleteThisClone removes the running target immediately, if it
	// is a clone.
	DeleteThisClone
)

// StopKind scopes a StopScript directive.
type StopKind int

const (
	StopAllScripts StopKind = iota
	StopThisScript
	StopOtherScriptsInSprite
)

// ParseStopKind maps an authoring-tool "stop" field value to a
// StopKind, defaulting to StopAllScripts.
func ParseStopKind(s string) StopKind {
	switch s {
	case "this script":
		return StopThisScript
	case "other scripts in sprite":
		return StopOtherScriptsInSprite
	default:
		return StopAllScripts
	}
}

// Result is the single return type every Primitive produces; its Kind
// selects which fields are meaningful.
type Result struct {
	Kind     ResultKind
	ArgIndex int
	Value    *value.Value
	BlockID  int
	Name     string
	StopKind StopKind
}

// PendingResult yields the thread for this round.
func PendingResult() Result { return Result{Kind: Pending} }

// ResolveArgumentResult asks for argument slot i.
func ResolveArgumentResult(i int) Result { return Result{Kind: ResolveArgument, ArgIndex: i} }

// ResolvedResult finishes the block with v (nil meaning no value).
func ResolvedResult(v *value.Value) Result { return Result{Kind: Resolved, Value: v} }

// End finishes the block with no value.
func End() Result { return ResolvedResult(nil) }

// Ret finishes the block returning v.
func Ret(v value.Value) Result { return ResolvedResult(&v) }

// RetNumber finishes the block returning a Number.
func RetNumber(n float64) Result { return Ret(value.NewNumber(n)) }

// RetString finishes the block returning a String.
func RetString(s string) Result { return Ret(value.NewString(s)) }

// RetBool finishes the block returning a Boolean.
func RetBool(b bool) Result { return Ret(value.NewBoolean(b)) }

// PushStackResult pushes a new frame for blockID.
func PushStackResult(blockID int) Result { return Result{Kind: PushStack, BlockID: blockID} }

// ResolveProcedureArgumentResult asks for procedure argument i.
func ResolveProcedureArgumentResult(i int) Result {
	return Result{Kind: ResolveProcedureArgument, ArgIndex: i}
}

// ReturnProcedureResult supplies a procedure's return value.
func ReturnProcedureResult(v value.Value) Result {
	return Result{Kind: ReturnProcedure, Value: &v}
}

// BroadcastResult queues a fire-and-forget broadcast.
func BroadcastResult(name string) Result { return Result{Kind: Broadcast, Name: name} }

// BroadcastAndWaitResult queues a broadcast that blocks the issuer.
func BroadcastAndWaitResult(name string) Result { return Result{Kind: BroadcastAndWait, Name: name} }

// StopScriptResult requests a stop of the given scope.
func StopScriptResult(kind StopKind) Result { return Result{Kind: StopScript, StopKind: kind} }

// CreateCloneResult queues a clone of the named target ("" = myself).
func CreateCloneResult(name string) Result { return Result{Kind: CreateClone, Name: name} }

// DeleteThisCloneResult removes the running target, if it is a clone.
func DeleteThisCloneResult() Result { return Result{Kind: DeleteThisClone} }
