package primitives

import "github.com/kristofer/stagevm/pkg/engine"

// Noop resolves immediately with no value. The loader rewrites any
// block whose opcode isn't in its table of known block specs to this, so an
// authoring tool's project can still load and run when it references a
// block family this engine doesn't implement.
func Noop(c *engine.BlockContext) engine.Result { return engine.End() }

func registerNoop(r *engine.Registry) {
	r.RegisterFunc("noop", Noop)
}
