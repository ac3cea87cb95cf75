package engine

// ArgKind distinguishes an evaluated input slot from a plain field.
type ArgKind int

const (
	ArgInput ArgKind = iota
	ArgField
)

// ArgSlot documents one expected argument of a primitive, purely for
// introspection (debugger listings, loader validation); the primitive
// itself still reads arguments positionally via BlockContext.Arg.
type ArgSlot struct {
	Kind ArgKind
	Name string
}

// Primitive is the function signature every block opcode implements.
// It never returns a Go error: domain failures coerce to defaults and
// are reported through the Result value itself (see package docs).
type Primitive func(*BlockContext) Result

// PrimitiveInfo pairs a Primitive with its declared argument slots.
type PrimitiveInfo struct {
	Fn   Primitive
	Args []ArgSlot
}

// Registry maps opcode name to PrimitiveInfo. Each VM owns its own
// Registry instance rather than sharing a package-level map, so host
// code — including tests — can register or override entries for one
// VM without affecting any other.
type Registry struct {
	entries map[string]PrimitiveInfo
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]PrimitiveInfo)}
}

// Register installs or overwrites the primitive for opcode.
func (r *Registry) Register(opcode string, info PrimitiveInfo) {
	r.entries[opcode] = info
}

// RegisterFunc is a convenience for primitives with no declared arg
// slots to document.
func (r *Registry) RegisterFunc(opcode string, fn Primitive) {
	r.Register(opcode, PrimitiveInfo{Fn: fn})
}

// Lookup returns the PrimitiveInfo for opcode, if registered.
func (r *Registry) Lookup(opcode string) (PrimitiveInfo, bool) {
	info, ok := r.entries[opcode]
	return info, ok
}
