// Package program holds the static program representation: the
// immutable block graph for a Target, and the Target/RunningTarget
// split between a sprite's authored prototype and its live instances.
package program

import "github.com/kristofer/stagevm/pkg/value"

// NoNext marks a Block with no successor in its stack.
const NoNext = -1

// ArgKind distinguishes an input slot from a field slot; whether a slot
// references a child block is marked separately by Arg.IsBlock.
type ArgKind int

const (
	// ArgInput is a value-producing slot: either a literal Value or a
	// reference to a child block that must be evaluated first.
	ArgInput ArgKind = iota
	// ArgField is a plain literal slot (e.g. a dropdown menu choice)
	// that never references another block.
	ArgField
)

// Arg is one argument slot on a Block, as authored.
type Arg struct {
	Kind ArgKind
	// Literal is populated when this slot is not a reference to a
	// child block.
	Literal value.Value
	// IsBlock reports whether this slot references another block
	// (ArgInput only); when true, BlockID names it and Literal is
	// unused until resolved.
	IsBlock bool
	BlockID int
}

// Block is one node of a Target's immutable instruction graph. Blocks
// are allocated once at load time and never mutated afterward; only
// the scheduler's per-thread frames carry live state.
type Block struct {
	ID       int
	Opcode   string
	Args     []Arg
	Next     int // NoNext if this is the last block in its stack
	TopLevel bool
}

// Arena is the dense, append-only store of Blocks for one Target.
// Block ids are stable offsets into it for the Target's entire
// lifetime.
type Arena struct {
	blocks []Block
}

// NewArena returns an empty arena.
func NewArena() *Arena {
	return &Arena{}
}

// Add appends a new Block and returns its assigned id.
func (a *Arena) Add(b Block) int {
	b.ID = len(a.blocks)
	a.blocks = append(a.blocks, b)
	return b.ID
}

// Reserve appends n zero-value Blocks and returns the id of the first
// one; the loader uses this to assign every wire-format block id a
// stable arena slot before it knows enough to fill any of them in
// (a block's Next may point forward to a sibling not yet translated).
func (a *Arena) Reserve(n int) int {
	start := len(a.blocks)
	a.blocks = append(a.blocks, make([]Block, n)...)
	return start
}

// Set fills in a previously Reserved slot.
func (a *Arena) Set(id int, b Block) {
	b.ID = id
	a.blocks[id] = b
}

// Get returns the Block at id. It panics on an out-of-range id since a
// valid BlockID is always produced by either the loader or Add, never
// by untrusted input once loading completes.
func (a *Arena) Get(id int) *Block {
	return &a.blocks[id]
}

// Len reports how many blocks are in the arena.
func (a *Arena) Len() int { return len(a.blocks) }

// TopLevel returns the ids of every top-level block, in arena order.
func (a *Arena) TopLevel() []int {
	var ids []int
	for i := range a.blocks {
		if a.blocks[i].TopLevel {
			ids = append(ids, i)
		}
	}
	return ids
}
