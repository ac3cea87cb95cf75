package primitives

import (
	"fmt"
	"time"

	"github.com/kristofer/stagevm/pkg/engine"
	"github.com/kristofer/stagevm/pkg/value"
)

// looksSay is wait-refresh-wrapped so a chain of say blocks in a tight
// loop paces to the host's redraw cadence the same way every other
// visible-effect block does.
func looksSay(c *engine.BlockContext) engine.Result {
	return c.AcquireNeedWaitRefresh(func(c *engine.BlockContext) engine.Result {
		return c.AcquireArgs(1, func(c *engine.BlockContext) engine.Result {
			fmt.Println(c.Arg(0).String())
			return engine.End()
		})
	})
}

// sayForSecsScratch carries the say-for-N-seconds deadline, the same
// absolute-deadline shape as waitScratch.
type sayForSecsScratch struct {
	deadline time.Time
}

func looksSayForSecs(c *engine.BlockContext) engine.Result {
	return c.AcquireNeedWaitRefresh(func(c *engine.BlockContext) engine.Result {
		if sf, ok := c.Scratch().(sayForSecsScratch); ok {
			remaining := time.Until(sf.deadline)
			if remaining <= 0 {
				return engine.End()
			}
			c.Global().PublishWait(remaining)
			return engine.PendingResult()
		}
		return c.AcquireArgs(2, func(c *engine.BlockContext) engine.Result {
			text := c.Arg(0).String()
			secs := c.Arg(1).ToNumber()
			fmt.Println(text)
			if secs <= 0 {
				return engine.End()
			}
			c.SetScratch(sayForSecsScratch{deadline: time.Now().Add(time.Duration(secs * float64(time.Second)))})
			return engine.PendingResult()
		})
	})
}

// looksThink mirrors looksSay exactly: a think bubble has no visual
// distinction in an engine without rendering, only a distinct opcode.
func looksThink(c *engine.BlockContext) engine.Result {
	return c.AcquireNeedWaitRefresh(func(c *engine.BlockContext) engine.Result {
		return c.AcquireArgs(1, func(c *engine.BlockContext) engine.Result {
			fmt.Println(c.Arg(0).String())
			return engine.End()
		})
	})
}

func looksThinkForSecs(c *engine.BlockContext) engine.Result {
	return c.AcquireNeedWaitRefresh(func(c *engine.BlockContext) engine.Result {
		if sf, ok := c.Scratch().(sayForSecsScratch); ok {
			remaining := time.Until(sf.deadline)
			if remaining <= 0 {
				return engine.End()
			}
			c.Global().PublishWait(remaining)
			return engine.PendingResult()
		}
		return c.AcquireArgs(2, func(c *engine.BlockContext) engine.Result {
			text := c.Arg(0).String()
			secs := c.Arg(1).ToNumber()
			fmt.Println(text)
			if secs <= 0 {
				return engine.End()
			}
			c.SetScratch(sayForSecsScratch{deadline: time.Now().Add(time.Duration(secs * float64(time.Second)))})
			return engine.PendingResult()
		})
	})
}

func looksShow(c *engine.BlockContext) engine.Result {
	return c.AcquireNeedWaitRefresh(func(c *engine.BlockContext) engine.Result {
		c.RunningTarget().Visible = true
		return engine.End()
	})
}

func looksHide(c *engine.BlockContext) engine.Result {
	return c.AcquireNeedWaitRefresh(func(c *engine.BlockContext) engine.Result {
		c.RunningTarget().Visible = false
		return engine.End()
	})
}

func looksSetSizeTo(c *engine.BlockContext) engine.Result {
	return c.AcquireNeedWaitRefresh(func(c *engine.BlockContext) engine.Result {
		return c.AcquireArgs(1, func(c *engine.BlockContext) engine.Result {
			size := c.Arg(0).ToNumber()
			if size < 0 {
				size = 0
			}
			c.RunningTarget().Size = size
			return engine.End()
		})
	})
}

func looksCostume(c *engine.BlockContext) engine.Result {
	return c.AcquireArgs(1, func(c *engine.BlockContext) engine.Result {
		return engine.Ret(c.Arg(0))
	})
}

func looksChangeSizeBy(c *engine.BlockContext) engine.Result {
	return c.AcquireNeedWaitRefresh(func(c *engine.BlockContext) engine.Result {
		return c.AcquireArgs(1, func(c *engine.BlockContext) engine.Result {
			rt := c.RunningTarget()
			size := c.Arg(0).ToNumber() + rt.Size
			if size < 0 {
				size = 0
			}
			rt.Size = size
			return engine.End()
		})
	})
}

func clampCostumeIndex(v value.Value, n int, cur int) int {
	if n == 0 {
		return cur
	}
	if v.Kind() == value.String {
		return cur
	}
	idx := int(v.ToNumber()) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= n {
		idx = n - 1
	}
	return idx
}

func resolveCostumeIndex(v value.Value, names []string, cur int) int {
	if v.Kind() == value.String {
		for i, name := range names {
			if name == v.String() {
				return i
			}
		}
		return cur
	}
	return clampCostumeIndex(v, len(names), cur)
}

func looksSwitchBackdropTo(c *engine.BlockContext) engine.Result {
	return c.AcquireNeedWaitRefresh(func(c *engine.BlockContext) engine.Result {
		return c.AcquireArgs(1, func(c *engine.BlockContext) engine.Result {
			rstage := c.RunningStage()
			rstage.CurrentCostume = resolveCostumeIndex(c.Arg(0), c.Stage().Costumes, rstage.CurrentCostume)
			return engine.End()
		})
	})
}

func looksBackdrops(c *engine.BlockContext) engine.Result {
	return c.AcquireArgs(1, func(c *engine.BlockContext) engine.Result {
		return engine.Ret(c.Arg(0))
	})
}

func looksSwitchCostumeTo(c *engine.BlockContext) engine.Result {
	return c.AcquireNeedWaitRefresh(func(c *engine.BlockContext) engine.Result {
		return c.AcquireArgs(1, func(c *engine.BlockContext) engine.Result {
			rt := c.RunningTarget()
			rt.CurrentCostume = resolveCostumeIndex(c.Arg(0), c.Target().Costumes, rt.CurrentCostume)
			return engine.End()
		})
	})
}

func looksNextCostume(c *engine.BlockContext) engine.Result {
	return c.AcquireNeedWaitRefresh(func(c *engine.BlockContext) engine.Result {
		n := len(c.Target().Costumes)
		if n > 0 {
			rt := c.RunningTarget()
			rt.CurrentCostume = (rt.CurrentCostume + 1) % n
		}
		return engine.End()
	})
}

func looksGoToFrontBack(c *engine.BlockContext) engine.Result {
	return c.AcquireNeedWaitRefresh(func(c *engine.BlockContext) engine.Result {
		return c.AcquireArgs(1, func(c *engine.BlockContext) engine.Result {
			front := c.Arg(0).String() == "front"
			c.ReorderLayer(c.RunningTarget(), 0, front, !front)
			return engine.End()
		})
	})
}

func looksGoForwardBackwardLayers(c *engine.BlockContext) engine.Result {
	return c.AcquireNeedWaitRefresh(func(c *engine.BlockContext) engine.Result {
		return c.AcquireArgs(2, func(c *engine.BlockContext) engine.Result {
			forward := c.Arg(0).String() == "forward"
			offset := int(c.Arg(1).ToNumber())
			if !forward {
				offset = -offset
			}
			c.ReorderLayer(c.RunningTarget(), offset, false, false)
			return engine.End()
		})
	})
}

func looksSize(c *engine.BlockContext) engine.Result {
	return engine.RetNumber(c.RunningTarget().Size)
}

func looksCostumeNumberName(c *engine.BlockContext) engine.Result {
	return c.AcquireArgs(1, func(c *engine.BlockContext) engine.Result {
		rt := c.RunningTarget()
		if c.Arg(0).String() == "number" {
			return engine.RetNumber(float64(rt.CurrentCostume + 1))
		}
		return engine.RetString(costumeName(c.Target().Costumes, rt.CurrentCostume))
	})
}

func looksBackdropNumberName(c *engine.BlockContext) engine.Result {
	return c.AcquireArgs(1, func(c *engine.BlockContext) engine.Result {
		rstage := c.RunningStage()
		if c.Arg(0).String() == "number" {
			return engine.RetNumber(float64(rstage.CurrentCostume + 1))
		}
		return engine.RetString(costumeName(c.Stage().Costumes, rstage.CurrentCostume))
	})
}

// looksCostumeNumberNameMenu and looksBackdropNumberNameMenu are
// dropdown reporters, same shape as every other _menu primitive: they
// just hand back the field literal they were given.
func looksCostumeNumberNameMenu(c *engine.BlockContext) engine.Result {
	return c.AcquireArgs(1, func(c *engine.BlockContext) engine.Result {
		return engine.Ret(c.Arg(0))
	})
}

func looksBackdropNumberNameMenu(c *engine.BlockContext) engine.Result {
	return c.AcquireArgs(1, func(c *engine.BlockContext) engine.Result {
		return engine.Ret(c.Arg(0))
	})
}

func registerLooks(r *engine.Registry) {
	r.RegisterFunc("looks_say", looksSay)
	r.RegisterFunc("looks_sayforsecs", looksSayForSecs)
	r.RegisterFunc("looks_think", looksThink)
	r.RegisterFunc("looks_thinkforsecs", looksThinkForSecs)
	r.RegisterFunc("looks_show", looksShow)
	r.RegisterFunc("looks_hide", looksHide)
	r.RegisterFunc("looks_setsizeto", looksSetSizeTo)
	r.RegisterFunc("looks_costume", looksCostume)
	r.RegisterFunc("looks_changesizeby", looksChangeSizeBy)
	r.RegisterFunc("looks_switchbackdropto", looksSwitchBackdropTo)
	r.RegisterFunc("looks_backdrops", looksBackdrops)
	r.RegisterFunc("looks_switchcostumeto", looksSwitchCostumeTo)
	r.RegisterFunc("looks_nextcostume", looksNextCostume)
	r.RegisterFunc("looks_gotofrontback", looksGoToFrontBack)
	r.RegisterFunc("looks_goforwardbackwardlayers", looksGoForwardBackwardLayers)
	r.RegisterFunc("looks_size", looksSize)
	r.RegisterFunc("looks_costumenumbername", looksCostumeNumberName)
	r.RegisterFunc("looks_costumenumbernamemenu", looksCostumeNumberNameMenu)
	r.RegisterFunc("looks_backdropnumbername", looksBackdropNumberName)
	r.RegisterFunc("looks_backdropnumbernamemenu", looksBackdropNumberNameMenu)
}
