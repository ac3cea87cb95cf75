package program

import "github.com/kristofer/stagevm/pkg/value"

// RotationStyle mirrors the three sprite rotation modes an authoring
// tool can set; it only affects rendering, which is out of scope here.
// It is loaded and written by motion_setrotationstyle, but no primitive
// reads it.
type RotationStyle int

const (
	RotationAllAround RotationStyle = iota
	RotationLeftRight
	RotationNone
)

// ParseRotationStyle maps an authoring-tool field string to a
// RotationStyle, defaulting to RotationAllAround for anything
// unrecognized.
func ParseRotationStyle(s string) RotationStyle {
	switch s {
	case "left-right":
		return RotationLeftRight
	case "don't rotate", "none":
		return RotationNone
	default:
		return RotationAllAround
	}
}

// OrderedValues is an insertion-ordered name -> Value store, used for
// variables so for_each and the loader see deterministic iteration
// order.
type OrderedValues struct {
	order []string
	data  map[string]value.Value
}

// NewOrderedValues returns an empty OrderedValues.
func NewOrderedValues() *OrderedValues {
	return &OrderedValues{data: make(map[string]value.Value)}
}

// Get returns the value for name and whether it exists.
func (o *OrderedValues) Get(name string) (value.Value, bool) {
	v, ok := o.data[name]
	return v, ok
}

// Set creates or overwrites name, appending it to iteration order only
// the first time it is seen.
func (o *OrderedValues) Set(name string, v value.Value) {
	if _, ok := o.data[name]; !ok {
		o.order = append(o.order, name)
	}
	o.data[name] = v
}

// Names returns every key in insertion order.
func (o *OrderedValues) Names() []string {
	out := make([]string, len(o.order))
	copy(out, o.order)
	return out
}

// Clone returns an independent deep copy.
func (o *OrderedValues) Clone() *OrderedValues {
	c := NewOrderedValues()
	for _, n := range o.order {
		c.Set(n, o.data[n])
	}
	return c
}

// OrderedLists is the list-valued analogue of OrderedValues.
type OrderedLists struct {
	order []string
	data  map[string][]value.Value
}

// NewOrderedLists returns an empty OrderedLists.
func NewOrderedLists() *OrderedLists {
	return &OrderedLists{data: make(map[string][]value.Value)}
}

// Get returns the list for name and whether it exists.
func (o *OrderedLists) Get(name string) ([]value.Value, bool) {
	v, ok := o.data[name]
	return v, ok
}

// Set creates or overwrites name.
func (o *OrderedLists) Set(name string, v []value.Value) {
	if _, ok := o.data[name]; !ok {
		o.order = append(o.order, name)
	}
	o.data[name] = v
}

// Names returns every key in insertion order.
func (o *OrderedLists) Names() []string {
	out := make([]string, len(o.order))
	copy(out, o.order)
	return out
}

// Clone returns an independent deep copy.
func (o *OrderedLists) Clone() *OrderedLists {
	c := NewOrderedLists()
	for _, n := range o.order {
		src := o.data[n]
		dst := make([]value.Value, len(src))
		copy(dst, src)
		c.Set(n, dst)
	}
	return c
}

// Target is a sprite or stage prototype as authored: its block graph,
// default variable/list contents, and default pose. RunningTarget
// instances are stamped out from it.
type Target struct {
	Name      string
	IsStage   bool
	Blocks    *Arena
	Variables *OrderedValues
	Lists     *OrderedLists

	X, Y           float64
	Direction      float64
	Size           float64
	Visible        bool
	CurrentCostume int
	Costumes       []string
	Sounds         []string
	LayerOrder     int
	Rotation       RotationStyle
	Volume         float64
	Tempo          float64
}

// NewTarget returns a Target with the defaults an authoring tool would
// assign a freshly created sprite.
func NewTarget(name string, isStage bool) *Target {
	return &Target{
		Name:      name,
		IsStage:   isStage,
		Blocks:    NewArena(),
		Variables: NewOrderedValues(),
		Lists:     NewOrderedLists(),
		Direction: 90,
		Size:      100,
		Visible:   true,
		Rotation:  RotationAllAround,
		Volume:    100,
		Tempo:     60,
	}
}

// RunningTarget is one live instance of a Target: the original sprite,
// the singleton stage, or a clone. Its id is independent of the
// prototype's array position so a deleted clone can never alias a
// later-created instance.
type RunningTarget struct {
	ID        string // uuid.UUID.String(); see engine for construction
	TargetIdx int    // index into VM's target prototypes
	IsClone   bool

	Variables *OrderedValues
	Lists     *OrderedLists

	X, Y           float64
	Direction      float64
	Size           float64
	Visible        bool
	CurrentCostume int
	LayerOrder     int
	Rotation       RotationStyle
	Volume         float64
	Tempo          float64
}

// MakeRunningTarget stamps out a live instance from a Target prototype,
// copying its variables, lists, and pose. isClone marks it as a clone
// rather than the sprite's original instance.
func MakeRunningTarget(id string, targetIdx int, t *Target, isClone bool) *RunningTarget {
	return &RunningTarget{
		ID:             id,
		TargetIdx:      targetIdx,
		IsClone:        isClone,
		Variables:      t.Variables.Clone(),
		Lists:          t.Lists.Clone(),
		X:              t.X,
		Y:              t.Y,
		Direction:      t.Direction,
		Size:           t.Size,
		Visible:        t.Visible,
		CurrentCostume: t.CurrentCostume,
		LayerOrder:     t.LayerOrder,
		Rotation:       t.Rotation,
		Volume:         t.Volume,
		Tempo:          t.Tempo,
	}
}
