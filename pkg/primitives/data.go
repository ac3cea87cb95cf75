package primitives

import (
	"strings"

	"github.com/kristofer/stagevm/pkg/engine"
	"github.com/kristofer/stagevm/pkg/value"
)

// dataVariable and dataListContents are the loader's synthesized-block
// targets for inline variable/list reporters: the loader bakes the
// variable/list name into Args[0] as a literal field.
func dataVariable(c *engine.BlockContext) engine.Result {
	return c.AcquireArgs(1, func(c *engine.BlockContext) engine.Result {
		return engine.Ret(c.GetVariable(c.Arg(0).String()))
	})
}

func dataListContents(c *engine.BlockContext) engine.Result {
	return c.AcquireArgs(1, func(c *engine.BlockContext) engine.Result {
		list := c.GetList(c.Arg(0).String())
		if isAllSingleLetters(list) {
			return engine.RetString(joinList(list, ""))
		}
		return engine.RetString(joinList(list, " "))
	})
}

func isAllSingleLetters(list []value.Value) bool {
	for _, v := range list {
		if v.Kind() != value.String || len([]rune(v.String())) != 1 {
			return false
		}
	}
	return true
}

func joinList(list []value.Value, sep string) string {
	parts := make([]string, len(list))
	for i, v := range list {
		parts[i] = v.String()
	}
	return strings.Join(parts, sep)
}

func dataSetVariableTo(c *engine.BlockContext) engine.Result {
	return c.AcquireArgs(2, func(c *engine.BlockContext) engine.Result {
		c.SetVariable(c.Arg(0).String(), c.Arg(1))
		return engine.End()
	})
}

func dataChangeVariableBy(c *engine.BlockContext) engine.Result {
	return c.AcquireArgs(2, func(c *engine.BlockContext) engine.Result {
		name := c.Arg(0).String()
		delta := c.Arg(1).ToNumber()
		c.SetVariable(name, value.NewNumber(c.GetVariable(name).ToNumber()+delta))
		return engine.End()
	})
}

func dataAddToList(c *engine.BlockContext) engine.Result {
	return c.AcquireArgs(2, func(c *engine.BlockContext) engine.Result {
		item := c.Arg(0)
		name := c.Arg(1).String()
		c.SetList(name, append(append([]value.Value{}, c.GetList(name)...), item))
		return engine.End()
	})
}

// listIndex resolves a 1-based/"last"/"random"/"any" index argument
// against a list of length n. acceptAll additionally permits the
// literal string "all". ok is false for any out-of-range or
// unrecognized index.
func listIndex(c *engine.BlockContext, idx value.Value, n int, acceptAll bool) (i int, all bool, ok bool) {
	if idx.Kind() == value.String {
		switch idx.String() {
		case "all":
			return 0, acceptAll, acceptAll
		case "last":
			if n > 0 {
				return n - 1, false, true
			}
			return 0, false, false
		case "random", "any":
			if n > 0 {
				return c.Rand().Intn(n), false, true
			}
			return 0, false, false
		default:
			return 0, false, false
		}
	}
	f := idx.ToNumber()
	if f >= 1 && f <= float64(n) {
		return int(f) - 1, false, true
	}
	return 0, false, false
}

func dataDeleteOfList(c *engine.BlockContext) engine.Result {
	return c.AcquireArgs(2, func(c *engine.BlockContext) engine.Result {
		name := c.Arg(1).String()
		list := c.GetList(name)
		i, all, ok := listIndex(c, c.Arg(0), len(list), true)
		switch {
		case !ok:
		case all:
			list = list[:0]
		default:
			list = append(append([]value.Value{}, list[:i]...), list[i+1:]...)
		}
		c.SetList(name, list)
		return engine.End()
	})
}

func dataDeleteAllOfList(c *engine.BlockContext) engine.Result {
	return c.AcquireArgs(1, func(c *engine.BlockContext) engine.Result {
		c.SetList(c.Arg(0).String(), nil)
		return engine.End()
	})
}

func dataInsertAtList(c *engine.BlockContext) engine.Result {
	return c.AcquireArgs(3, func(c *engine.BlockContext) engine.Result {
		item := c.Arg(0)
		name := c.Arg(2).String()
		list := c.GetList(name)
		i, _, ok := listIndex(c, c.Arg(1), len(list), false)
		if ok {
			next := make([]value.Value, 0, len(list)+1)
			next = append(next, list[:i]...)
			next = append(next, item)
			next = append(next, list[i:]...)
			c.SetList(name, next)
		}
		return engine.End()
	})
}

// dataReplaceItemOfList accepts any numeric index >= 1, padding the
// list with Undefined up to the target slot when it lies past the end;
// the keyword indexes ("last", "random") still resolve against the
// current length.
func dataReplaceItemOfList(c *engine.BlockContext) engine.Result {
	return c.AcquireArgs(3, func(c *engine.BlockContext) engine.Result {
		name := c.Arg(1).String()
		item := c.Arg(2)
		list := c.GetList(name)
		idx := c.Arg(0)
		var i int
		if idx.Kind() == value.String {
			var ok bool
			i, _, ok = listIndex(c, idx, len(list), false)
			if !ok {
				return engine.End()
			}
		} else {
			f := idx.ToNumber()
			if f < 1 {
				return engine.End()
			}
			i = int(f) - 1
		}
		next := append([]value.Value{}, list...)
		for i >= len(next) {
			next = append(next, value.Empty)
		}
		next[i] = item
		c.SetList(name, next)
		return engine.End()
	})
}

func dataItemOfList(c *engine.BlockContext) engine.Result {
	return c.AcquireArgs(2, func(c *engine.BlockContext) engine.Result {
		list := c.GetList(c.Arg(1).String())
		i, _, ok := listIndex(c, c.Arg(0), len(list), false)
		if !ok {
			return engine.RetString("")
		}
		return engine.Ret(list[i])
	})
}

func dataLengthOfList(c *engine.BlockContext) engine.Result {
	return c.AcquireArgs(1, func(c *engine.BlockContext) engine.Result {
		return engine.RetNumber(float64(len(c.GetList(c.Arg(0).String()))))
	})
}

func dataItemNumOfList(c *engine.BlockContext) engine.Result {
	return c.AcquireArgs(2, func(c *engine.BlockContext) engine.Result {
		list := c.GetList(c.Arg(0).String())
		item := c.Arg(1)
		for i, v := range list {
			if v.Equal(item) {
				return engine.RetNumber(float64(i + 1))
			}
		}
		return engine.RetNumber(0)
	})
}

func dataListContainsItem(c *engine.BlockContext) engine.Result {
	return c.AcquireArgs(2, func(c *engine.BlockContext) engine.Result {
		item := c.Arg(1)
		for _, v := range c.GetList(c.Arg(0).String()) {
			if v.Equal(item) {
				return engine.RetBool(true)
			}
		}
		return engine.RetBool(false)
	})
}

func registerData(r *engine.Registry) {
	r.RegisterFunc("data_variable", dataVariable)
	r.RegisterFunc("data_listcontents", dataListContents)
	r.RegisterFunc("data_setvariableto", dataSetVariableTo)
	r.RegisterFunc("data_changevariableby", dataChangeVariableBy)
	r.RegisterFunc("data_addtolist", dataAddToList)
	r.RegisterFunc("data_deleteoflist", dataDeleteOfList)
	r.RegisterFunc("data_deletealloflist", dataDeleteAllOfList)
	r.RegisterFunc("data_insertatlist", dataInsertAtList)
	r.RegisterFunc("data_replaceitemoflist", dataReplaceItemOfList)
	r.RegisterFunc("data_itemoflist", dataItemOfList)
	r.RegisterFunc("data_lengthoflist", dataLengthOfList)
	r.RegisterFunc("data_itemnumoflist", dataItemNumOfList)
	r.RegisterFunc("data_listcontainsitem", dataListContainsItem)
}
