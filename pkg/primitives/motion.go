package primitives

import (
	"math"
	"time"

	"github.com/kristofer/stagevm/pkg/engine"
	"github.com/kristofer/stagevm/pkg/program"
)

// wrapClamp wraps n into [min, max] inclusive, matching the direction
// field's -179..180 normalization.
func wrapClamp(n, min, max float64) float64 {
	r := (max - min) + 1
	return n - math.Floor((n-min)/r)*r
}

func motionMoveSteps(c *engine.BlockContext) engine.Result {
	return c.AcquireNeedWaitRefresh(func(c *engine.BlockContext) engine.Result {
		return c.AcquireArgs(1, func(c *engine.BlockContext) engine.Result {
			steps := c.Arg(0).ToNumber()
			dir := (90 - c.RunningTarget().Direction) * math.Pi / 180
			rt := c.RunningTarget()
			rt.X += steps * math.Cos(dir)
			rt.Y += steps * math.Sin(dir)
			return engine.End()
		})
	})
}

func motionTurnRight(c *engine.BlockContext) engine.Result {
	return c.AcquireNeedWaitRefresh(func(c *engine.BlockContext) engine.Result {
		return c.AcquireArgs(1, func(c *engine.BlockContext) engine.Result {
			degrees := c.Arg(0).ToNumber()
			rt := c.RunningTarget()
			rt.Direction = wrapClamp(rt.Direction+degrees, -179, 180)
			return engine.End()
		})
	})
}

func motionTurnLeft(c *engine.BlockContext) engine.Result {
	return c.AcquireNeedWaitRefresh(func(c *engine.BlockContext) engine.Result {
		return c.AcquireArgs(1, func(c *engine.BlockContext) engine.Result {
			degrees := c.Arg(0).ToNumber()
			rt := c.RunningTarget()
			rt.Direction = wrapClamp(rt.Direction-degrees, -179, 180)
			return engine.End()
		})
	})
}

func motionPointInDirection(c *engine.BlockContext) engine.Result {
	return c.AcquireArgs(1, func(c *engine.BlockContext) engine.Result {
		c.RunningTarget().Direction = wrapClamp(c.Arg(0).ToNumber(), -179, 180)
		return engine.End()
	})
}

func motionPointTowardsMenu(c *engine.BlockContext) engine.Result {
	return c.AcquireArgs(1, func(c *engine.BlockContext) engine.Result {
		return engine.Ret(c.Arg(0))
	})
}

// motionPointTowards aims the running target at the named sprite,
// mouse, or random point.
func motionPointTowards(c *engine.BlockContext) engine.Result {
	return c.AcquireArgs(1, func(c *engine.BlockContext) engine.Result {
		x, y, ok := getTargetXY(c, c.Arg(0).String())
		if !ok {
			return engine.End()
		}
		rt := c.RunningTarget()
		dx, dy := x-rt.X, y-rt.Y
		if dx == 0 && dy == 0 {
			return engine.End()
		}
		deg := 90 - math.Atan2(dy, dx)*180/math.Pi
		rt.Direction = wrapClamp(deg, -179, 180)
		return engine.End()
	})
}

func motionGotoXY(c *engine.BlockContext) engine.Result {
	return c.AcquireNeedWaitRefresh(func(c *engine.BlockContext) engine.Result {
		return c.AcquireArgs(2, func(c *engine.BlockContext) engine.Result {
			rt := c.RunningTarget()
			rt.X = c.Arg(0).ToNumber()
			rt.Y = c.Arg(1).ToNumber()
			return engine.End()
		})
	})
}

func motionGoto(c *engine.BlockContext) engine.Result {
	return c.AcquireNeedWaitRefresh(func(c *engine.BlockContext) engine.Result {
		return c.AcquireArgs(1, func(c *engine.BlockContext) engine.Result {
			if x, y, ok := getTargetXY(c, c.Arg(0).String()); ok {
				rt := c.RunningTarget()
				rt.X, rt.Y = x, y
			}
			return engine.End()
		})
	})
}

func motionGotoMenu(c *engine.BlockContext) engine.Result {
	return c.AcquireArgs(1, func(c *engine.BlockContext) engine.Result {
		return engine.Ret(c.Arg(0))
	})
}

// glideScratch carries a glide's start time, duration, and endpoints
// across rounds.
type glideScratch struct {
	start          time.Time
	secs           float64
	x0, y0, x1, y1 float64
}

func runGlide(c *engine.BlockContext, gs glideScratch) engine.Result {
	elapsed := time.Since(gs.start).Seconds()
	rt := c.RunningTarget()
	if elapsed >= gs.secs {
		rt.X, rt.Y = gs.x1, gs.y1
		return engine.End()
	}
	t := elapsed / gs.secs
	rt.X = gs.x0 + (gs.x1-gs.x0)*t
	rt.Y = gs.y0 + (gs.y1-gs.y0)*t
	return engine.PendingResult()
}

func motionGlideSecsToXY(c *engine.BlockContext) engine.Result {
	if gs, ok := c.Scratch().(glideScratch); ok {
		return runGlide(c, gs)
	}
	return c.AcquireArgs(3, func(c *engine.BlockContext) engine.Result {
		secs := c.Arg(0).ToNumber()
		x1 := c.Arg(1).ToNumber()
		y1 := c.Arg(2).ToNumber()
		rt := c.RunningTarget()
		c.SetScratch(glideScratch{start: time.Now(), secs: secs, x0: rt.X, y0: rt.Y, x1: x1, y1: y1})
		return engine.PendingResult()
	})
}

func motionGlideTo(c *engine.BlockContext) engine.Result {
	if gs, ok := c.Scratch().(glideScratch); ok {
		return runGlide(c, gs)
	}
	return c.AcquireArgs(2, func(c *engine.BlockContext) engine.Result {
		secs := c.Arg(0).ToNumber()
		x1, y1, ok := getTargetXY(c, c.Arg(1).String())
		if !ok {
			return engine.End()
		}
		rt := c.RunningTarget()
		c.SetScratch(glideScratch{start: time.Now(), secs: secs, x0: rt.X, y0: rt.Y, x1: x1, y1: y1})
		return engine.PendingResult()
	})
}

func motionGlideToMenu(c *engine.BlockContext) engine.Result {
	return c.AcquireArgs(1, func(c *engine.BlockContext) engine.Result {
		return engine.Ret(c.Arg(0))
	})
}

func motionChangeXBy(c *engine.BlockContext) engine.Result {
	return c.AcquireNeedWaitRefresh(func(c *engine.BlockContext) engine.Result {
		return c.AcquireArgs(1, func(c *engine.BlockContext) engine.Result {
			c.RunningTarget().X += c.Arg(0).ToNumber()
			return engine.End()
		})
	})
}

func motionSetX(c *engine.BlockContext) engine.Result {
	return c.AcquireNeedWaitRefresh(func(c *engine.BlockContext) engine.Result {
		return c.AcquireArgs(1, func(c *engine.BlockContext) engine.Result {
			c.RunningTarget().X = c.Arg(0).ToNumber()
			return engine.End()
		})
	})
}

func motionChangeYBy(c *engine.BlockContext) engine.Result {
	return c.AcquireNeedWaitRefresh(func(c *engine.BlockContext) engine.Result {
		return c.AcquireArgs(1, func(c *engine.BlockContext) engine.Result {
			c.RunningTarget().Y += c.Arg(0).ToNumber()
			return engine.End()
		})
	})
}

func motionSetY(c *engine.BlockContext) engine.Result {
	return c.AcquireNeedWaitRefresh(func(c *engine.BlockContext) engine.Result {
		return c.AcquireArgs(1, func(c *engine.BlockContext) engine.Result {
			c.RunningTarget().Y = c.Arg(0).ToNumber()
			return engine.End()
		})
	})
}

// motionIfOnEdgeBounce is a no-op: there is no stage-edge geometry to
// bounce off without a render surface.
func motionIfOnEdgeBounce(c *engine.BlockContext) engine.Result {
	return engine.End()
}

// motionSetRotationStyle writes the running target's Rotation field.
// No other primitive or the debugger reads that field back.
func motionSetRotationStyle(c *engine.BlockContext) engine.Result {
	return c.AcquireArgs(1, func(c *engine.BlockContext) engine.Result {
		c.RunningTarget().Rotation = program.ParseRotationStyle(c.Arg(0).String())
		return engine.End()
	})
}

func motionXPosition(c *engine.BlockContext) engine.Result {
	return engine.RetNumber(c.RunningTarget().X)
}

func motionYPosition(c *engine.BlockContext) engine.Result {
	return engine.RetNumber(c.RunningTarget().Y)
}

func motionDirection(c *engine.BlockContext) engine.Result {
	return engine.RetNumber(c.RunningTarget().Direction)
}

func registerMotion(r *engine.Registry) {
	r.RegisterFunc("motion_movesteps", motionMoveSteps)
	r.RegisterFunc("motion_turnright", motionTurnRight)
	r.RegisterFunc("motion_turnleft", motionTurnLeft)
	r.RegisterFunc("motion_pointindirection", motionPointInDirection)
	r.RegisterFunc("motion_pointtowards_menu", motionPointTowardsMenu)
	r.RegisterFunc("motion_pointtowards", motionPointTowards)
	r.RegisterFunc("motion_gotoxy", motionGotoXY)
	r.RegisterFunc("motion_goto", motionGoto)
	r.RegisterFunc("motion_goto_menu", motionGotoMenu)
	r.RegisterFunc("motion_glidesecstoxy", motionGlideSecsToXY)
	r.RegisterFunc("motion_glideto", motionGlideTo)
	r.RegisterFunc("motion_glideto_menu", motionGlideToMenu)
	r.RegisterFunc("motion_changexby", motionChangeXBy)
	r.RegisterFunc("motion_setx", motionSetX)
	r.RegisterFunc("motion_changeyby", motionChangeYBy)
	r.RegisterFunc("motion_sety", motionSetY)
	r.RegisterFunc("motion_ifonedgebounce", motionIfOnEdgeBounce)
	r.RegisterFunc("motion_setrotationstyle", motionSetRotationStyle)
	r.RegisterFunc("motion_xposition", motionXPosition)
	r.RegisterFunc("motion_yposition", motionYPosition)
	r.RegisterFunc("motion_direction", motionDirection)
}
