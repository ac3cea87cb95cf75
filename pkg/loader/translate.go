package loader

import (
	"encoding/json"
	"sort"

	"github.com/kristofer/stagevm/pkg/program"
	"github.com/kristofer/stagevm/pkg/value"
)

// procInfo is what the loader needs to wire a procedures_call to its
// definition's body: the declared parameter order (for argument
// reporters) and the arena id of the first block in the body (for the
// call's synthesized BlockRef).
type procInfo struct {
	argNames    []string
	bodyBlockID int
}

// translator holds one target's worth of loading state: the wire
// blocks keyed by their authoring-tool string id, the arena being
// built, and the id translation table from wire id to arena id.
type translator struct {
	wire  map[string]wireBlock
	arena *program.Arena
	ids   map[string]int // wire id -> arena id, real blocks only

	procs          map[string]procInfo // proccode -> body linkage
	owner          map[string][]string // wire id -> enclosing proc's argNames
	unknownOpcodes map[string]bool
}

func newTranslator(wire map[string]wireBlock, arena *program.Arena) *translator {
	return &translator{
		wire:           wire,
		arena:          arena,
		ids:            map[string]int{},
		procs:          map[string]procInfo{},
		owner:          map[string][]string{},
		unknownOpcodes: map[string]bool{},
	}
}

// translate runs the full per-target pipeline: reserve arena slots for
// every real wire block, resolve procedure definitions, tag each
// body's argument-reporter blocks with their owning procedure, then
// fill in every reserved slot.
func (tr *translator) translate() {
	realIDs := tr.realWireIDs()
	start := tr.arena.Reserve(len(realIDs))
	for i, wireID := range realIDs {
		tr.ids[wireID] = start + i
	}

	protos := tr.collectPrototypes()
	tr.collectProcedures(protos)
	tr.tagOwners()

	for _, wireID := range realIDs {
		tr.fill(wireID)
	}
}

// realWireIDs returns every block id this target will materialize,
// sorted for deterministic arena ordering. procedures_prototype blocks
// are never materialized: they exist only to carry a signature a
// procedures_definition points at.
func (tr *translator) realWireIDs() []string {
	ids := make([]string, 0, len(tr.wire))
	for id, b := range tr.wire {
		if b.Opcode == "procedures_prototype" {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// collectPrototypes maps each procedures_prototype's own wire id to
// its declared proccode and parameter names.
func (tr *translator) collectPrototypes() map[string]struct {
	proccode string
	argNames []string
} {
	out := map[string]struct {
		proccode string
		argNames []string
	}{}
	for id, b := range tr.wire {
		if b.Opcode != "procedures_prototype" {
			continue
		}
		out[id] = struct {
			proccode string
			argNames []string
		}{proccode: b.Mutation.Proccode, argNames: b.Mutation.argumentNames()}
	}
	return out
}

// collectProcedures finds every procedures_definition block, follows
// its custom_block input to the matching prototype, and records the
// proccode's parameter names plus the arena id of the body's first
// block (definition.Next) — the "pushes straight past" linkage
// pkg/primitives/procedures.go relies on.
func (tr *translator) collectProcedures(protos map[string]struct {
	proccode string
	argNames []string
}) {
	for _, b := range tr.wire {
		if b.Opcode != "procedures_definition" && b.Opcode != "procedures_return_definition" {
			continue
		}
		protoWireID, ok := tr.inputBlockRefRaw(b, "custom_block")
		if !ok {
			continue
		}
		proto, ok := protos[protoWireID]
		if !ok {
			continue
		}
		bodyID := program.NoNext
		if b.Next != nil {
			if id, ok := tr.ids[*b.Next]; ok {
				bodyID = id
			}
		}
		tr.procs[proto.proccode] = procInfo{argNames: proto.argNames, bodyBlockID: bodyID}
	}
}

// inputBlockRefRaw reads an input slot expected to directly name a
// child block id (custom_block is never a literal), without going
// through the general literal-decoding path.
func (tr *translator) inputBlockRefRaw(b wireBlock, name string) (string, bool) {
	raw, ok := b.Inputs[name]
	if !ok {
		return "", false
	}
	var outer []json.RawMessage
	if err := json.Unmarshal(raw, &outer); err != nil || len(outer) < 2 {
		return "", false
	}
	var id string
	if err := json.Unmarshal(outer[1], &id); err != nil {
		return "", false
	}
	return id, true
}

// tagOwners walks every procedure body from its Next-chain entry point
// and every nested sub-expression/substack, tagging each reachable
// wire id with the enclosing procedure's parameter names so
// argument_reporter_* blocks anywhere inside (not just directly under
// the call) resolve to the right index.
func (tr *translator) tagOwners() {
	for _, proc := range tr.procs {
		start := tr.wireIDForArenaID(proc.bodyBlockID)
		if start == "" {
			continue
		}
		tr.walkOwner(start, proc.argNames, map[string]bool{})
	}
}

func (tr *translator) wireIDForArenaID(arenaID int) string {
	for wireID, id := range tr.ids {
		if id == arenaID {
			return wireID
		}
	}
	return ""
}

func (tr *translator) walkOwner(wireID string, argNames []string, visited map[string]bool) {
	if wireID == "" || visited[wireID] {
		return
	}
	visited[wireID] = true
	b, ok := tr.wire[wireID]
	if !ok {
		return
	}
	tr.owner[wireID] = argNames
	for _, raw := range b.Inputs {
		if childID, ok := tr.blockRefChild(raw); ok {
			tr.walkOwner(childID, argNames, visited)
		}
	}
	if b.Next != nil {
		tr.walkOwner(*b.Next, argNames, visited)
	}
}

// blockRefChild reports whether an input slot's value descriptor (the
// element at outer[1]) is a plain child-block-id string rather than a
// literal/variable/list/broadcast payload array.
func (tr *translator) blockRefChild(raw json.RawMessage) (string, bool) {
	var outer []json.RawMessage
	if err := json.Unmarshal(raw, &outer); err != nil || len(outer) < 2 {
		return "", false
	}
	var id string
	if err := json.Unmarshal(outer[1], &id); err == nil {
		return id, true
	}
	return "", false
}

// fill translates one already-id-assigned wire block into its final
// arena slot.
func (tr *translator) fill(wireID string) {
	b := tr.wire[wireID]
	id := tr.ids[wireID]
	next := program.NoNext
	if b.Next != nil {
		if n, ok := tr.ids[*b.Next]; ok {
			next = n
		}
	}

	switch b.Opcode {
	case "procedures_call", "procedures_call_return":
		tr.arena.Set(id, tr.fillProcedureCall(b, next))
		return
	case "argument_reporter_string_number", "argument_reporter_boolean":
		tr.arena.Set(id, tr.fillArgumentReporter(wireID, b, next))
		return
	}

	spec, ok := blockSpecs[b.Opcode]
	opcode := b.Opcode
	if !ok {
		opcode = "noop"
		tr.unknownOpcodes[b.Opcode] = true
	}
	args := make([]program.Arg, 0, len(spec.args))
	for _, slot := range spec.args {
		args = append(args, tr.translateSlot(b, slot))
	}
	tr.arena.Set(id, program.Block{
		Opcode:   opcode,
		Args:     args,
		Next:     next,
		TopLevel: b.TopLevel,
	})
}

// fillProcedureCall collects the call's arguments in mutation
// argumentids order and appends a synthesized BlockRef to the
// procedure body; an unresolved proccode degrades the whole call to a
// noop, and an empty body degrades the final slot to a non-block
// argument (which never triggers a sub-stack push).
func (tr *translator) fillProcedureCall(b wireBlock, next int) program.Block {
	proc, ok := tr.procs[b.Mutation.Proccode]
	if !ok {
		return program.Block{Opcode: "noop", Next: next, TopLevel: b.TopLevel}
	}
	argIDs := b.Mutation.argumentIDs()
	args := make([]program.Arg, 0, len(argIDs)+1)
	for _, argID := range argIDs {
		args = append(args, tr.translateInput(b, argID))
	}
	if proc.bodyBlockID == program.NoNext {
		args = append(args, program.Arg{Kind: program.ArgInput, Literal: value.Empty})
	} else {
		args = append(args, program.Arg{Kind: program.ArgInput, IsBlock: true, BlockID: proc.bodyBlockID})
	}
	return program.Block{Opcode: b.Opcode, Args: args, Next: next, TopLevel: b.TopLevel}
}

// fillArgumentReporter bakes the parameter's positional index as a
// literal Args[0], resolved against the enclosing procedure's
// parameter name list; an unmatched name (malformed project, or a
// reporter left outside any procedure body) defaults to index 0.
func (tr *translator) fillArgumentReporter(wireID string, b wireBlock, next int) program.Block {
	name := rawToString(firstElem(b.Fields["VALUE"]))
	idx := 0
	if names, ok := tr.owner[wireID]; ok {
		for i, n := range names {
			if n == name {
				idx = i
				break
			}
		}
	}
	return program.Block{
		Opcode:   b.Opcode,
		Args:     []program.Arg{{Kind: program.ArgField, Literal: value.NewNumber(float64(idx))}},
		Next:     next,
		TopLevel: b.TopLevel,
	}
}

func firstElem(raw json.RawMessage) json.RawMessage {
	var outer []json.RawMessage
	if err := json.Unmarshal(raw, &outer); err != nil || len(outer) == 0 {
		return nil
	}
	return outer[0]
}

// translateSlot reads one declared argument slot (Input or Field) of
// block b and produces the corresponding program.Arg.
func (tr *translator) translateSlot(b wireBlock, slot argSpec) program.Arg {
	if slot.kind == argField {
		return program.Arg{Kind: program.ArgField, Literal: value.NewString(rawToString(firstElem(b.Fields[slot.name])))}
	}
	return tr.translateInput(b, slot.name)
}

// translateInput decodes inputs[name][1]: a bare string is a child
// block reference; an array's first element selects a literal, a
// broadcast name, or a variable/list reference that gets synthesized
// into its own virtual block.
func (tr *translator) translateInput(b wireBlock, name string) program.Arg {
	raw, ok := b.Inputs[name]
	if !ok {
		return program.Arg{Kind: program.ArgInput, Literal: value.Empty}
	}
	var outer []json.RawMessage
	if err := json.Unmarshal(raw, &outer); err != nil || len(outer) < 2 {
		return program.Arg{Kind: program.ArgInput, Literal: value.Empty}
	}
	descriptor := outer[1]

	var childID string
	if err := json.Unmarshal(descriptor, &childID); err == nil {
		if arenaID, ok := tr.ids[childID]; ok {
			return program.Arg{Kind: program.ArgInput, IsBlock: true, BlockID: arenaID}
		}
		return program.Arg{Kind: program.ArgInput, Literal: value.Empty}
	}

	var payload []json.RawMessage
	if err := json.Unmarshal(descriptor, &payload); err != nil || len(payload) == 0 {
		return program.Arg{Kind: program.ArgInput, Literal: value.Empty}
	}
	var code int
	_ = json.Unmarshal(payload[0], &code)

	switch code {
	case 12: // variable reference
		name := ""
		if len(payload) > 1 {
			name = rawToString(payload[1])
		}
		return program.Arg{Kind: program.ArgInput, IsBlock: true, BlockID: tr.synthesize("data_variable", name)}
	case 13: // list reference
		name := ""
		if len(payload) > 1 {
			name = rawToString(payload[1])
		}
		return program.Arg{Kind: program.ArgInput, IsBlock: true, BlockID: tr.synthesize("data_listcontents", name)}
	case 11: // broadcast name
		literal := ""
		if len(payload) > 1 {
			literal = rawToString(payload[1])
		}
		return program.Arg{Kind: program.ArgInput, Literal: value.NewString(literal)}
	default: // 4-10: numeric/string literal; a JSON number stays numeric
		if len(payload) > 1 {
			return program.Arg{Kind: program.ArgInput, Literal: valueFromRaw(payload[1])}
		}
		return program.Arg{Kind: program.ArgInput, Literal: value.NewString("")}
	}
}

// synthesize appends a virtual data_variable/data_listcontents block
// carrying name as its sole literal field argument, mirroring how the
// loader's blockSpecs table declares those opcodes' own FIELD slot, so
// an inline variable/list reporter reads live state instead of a
// baked string.
func (tr *translator) synthesize(opcode, name string) int {
	return tr.arena.Add(program.Block{
		Opcode: opcode,
		Args:   []program.Arg{{Kind: program.ArgField, Literal: value.NewString(name)}},
		Next:   program.NoNext,
	})
}
