package primitives

import (
	"bufio"
	"context"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kristofer/stagevm/pkg/engine"
)

func sensingResetTimer(c *engine.BlockContext) engine.Result {
	c.Global().GlobalTimer = time.Now()
	return engine.End()
}

func sensingTimer(c *engine.BlockContext) engine.Result {
	return engine.RetNumber(time.Since(c.Global().GlobalTimer).Seconds())
}

// getTargetXY resolves "_mouse_"/"_random_"/a sprite name to a
// position. There is no pointer device in this engine, so "_mouse_"
// resolves to the origin rather than a tracked cursor position.
func getTargetXY(c *engine.BlockContext, name string) (x, y float64, ok bool) {
	switch name {
	case "_mouse_":
		return 0, 0, true
	case "_random_":
		return (c.Rand().Float64() - 0.5) * 480, (c.Rand().Float64() - 0.5) * 360, true
	default:
		rt, found := c.FindRunningByName(name)
		if !found {
			return 0, 0, false
		}
		return rt.X, rt.Y, true
	}
}

func sensingDistanceTo(c *engine.BlockContext) engine.Result {
	return c.AcquireArgs(1, func(c *engine.BlockContext) engine.Result {
		if c.IsStage() {
			return engine.RetNumber(10000)
		}
		x, y, ok := getTargetXY(c, c.Arg(0).String())
		if !ok {
			return engine.RetNumber(10000)
		}
		rt := c.RunningTarget()
		dx, dy := x-rt.X, y-rt.Y
		return engine.RetNumber(math.Sqrt(dx*dx + dy*dy))
	})
}

func sensingDistanceToMenu(c *engine.BlockContext) engine.Result {
	return c.AcquireArgs(1, func(c *engine.BlockContext) engine.Result {
		return engine.Ret(c.Arg(0))
	})
}

// askScratch holds the channel a background ask_and_wait reader
// publishes its answer on; non-nil once the read has been started.
type askScratch struct {
	ch <-chan string
}

// startAsk starts one errgroup goroutine that reads a line from stdin
// and sends it on the returned buffered channel; the send is abandoned
// if ctx is done. The group is never waited on, and a read that never
// completes leaves the goroutine blocked on stdin.
func startAsk(ctx context.Context) <-chan string {
	ch := make(chan string, 1)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		scanner := bufio.NewScanner(os.Stdin)
		if scanner.Scan() {
			select {
			case ch <- strings.TrimRight(scanner.Text(), "\r\n"):
			case <-gctx.Done():
			}
		}
		return nil
	})
	return ch
}

func sensingAskAndWait(c *engine.BlockContext) engine.Result {
	return c.AcquireArgs(1, func(c *engine.BlockContext) engine.Result {
		msg := c.Arg(0).String()
		if as, ok := c.Scratch().(askScratch); ok {
			select {
			case answer := <-as.ch:
				c.Global().SensingAnswer = answer
				c.Global().SensingAskLock = false
				return engine.End()
			default:
				return engine.PendingResult()
			}
		}
		if c.Global().SensingAskLock {
			return engine.PendingResult()
		}
		c.Global().SensingAskLock = true
		fmt.Println(msg)
		c.SetScratch(askScratch{ch: startAsk(context.Background())})
		return engine.PendingResult()
	})
}

func sensingAnswer(c *engine.BlockContext) engine.Result {
	return engine.RetString(c.Global().SensingAnswer)
}

func sensingOfObjectMenu(c *engine.BlockContext) engine.Result {
	return c.AcquireArgs(1, func(c *engine.BlockContext) engine.Result {
		return engine.Ret(c.Arg(0))
	})
}

func sensingOf(c *engine.BlockContext) engine.Result {
	return c.AcquireArgs(2, func(c *engine.BlockContext) engine.Result {
		property := c.Arg(0).String()
		object := c.Arg(1).String()
		if object == "_stage_" {
			stage := c.Stage()
			rstage := c.RunningStage()
			switch property {
			case "background #", "backdrop #":
				return engine.RetNumber(float64(rstage.CurrentCostume + 1))
			case "backdrop name":
				return engine.RetString(costumeName(stage.Costumes, rstage.CurrentCostume))
			case "volume":
				return engine.RetNumber(rstage.Volume)
			default:
				if v, ok := rstage.Variables.Get(property); ok {
					return engine.Ret(v)
				}
				return engine.RetNumber(0)
			}
		}
		rt, ok := c.FindRunningByName(object)
		if !ok {
			return engine.RetNumber(0)
		}
		target := c.TargetOf(rt)
		switch property {
		case "x position":
			return engine.RetNumber(rt.X)
		case "y position":
			return engine.RetNumber(rt.Y)
		case "direction":
			return engine.RetNumber(rt.Direction)
		case "costume #":
			return engine.RetNumber(float64(rt.CurrentCostume + 1))
		case "costume name":
			return engine.RetString(costumeName(target.Costumes, rt.CurrentCostume))
		case "size":
			return engine.RetNumber(rt.Size)
		case "volume":
			return engine.RetNumber(rt.Volume)
		default:
			if v, ok := rt.Variables.Get(property); ok {
				return engine.Ret(v)
			}
			return engine.RetNumber(0)
		}
	})
}

func costumeName(costumes []string, i int) string {
	if i < 0 || i >= len(costumes) {
		return ""
	}
	return costumes[i]
}

func sensingCurrent(c *engine.BlockContext) engine.Result {
	return c.AcquireArgs(1, func(c *engine.BlockContext) engine.Result {
		now := time.Now()
		switch strings.ToLower(c.Arg(0).String()) {
		case "year":
			return engine.RetNumber(float64(now.Year()))
		case "month":
			return engine.RetNumber(float64(now.Month()))
		case "date":
			return engine.RetNumber(float64(now.Day()))
		case "dayofweek":
			return engine.RetNumber(float64(now.Weekday() + 1))
		case "hour":
			return engine.RetNumber(float64(now.Hour()))
		case "minute":
			return engine.RetNumber(float64(now.Minute()))
		case "second":
			return engine.RetNumber(float64(now.Second()))
		default:
			return engine.RetNumber(0)
		}
	})
}

var epoch2000 = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

func sensingDaysSince2000(c *engine.BlockContext) engine.Result {
	return engine.RetNumber(time.Since(epoch2000).Hours() / 24)
}

func sensingUsername(c *engine.BlockContext) engine.Result {
	return engine.RetString("")
}

func sensingUserID(c *engine.BlockContext) engine.Result {
	return engine.RetNumber(0)
}

func registerSensing(r *engine.Registry) {
	r.RegisterFunc("sensing_resettimer", sensingResetTimer)
	r.RegisterFunc("sensing_timer", sensingTimer)
	r.RegisterFunc("sensing_distanceto", sensingDistanceTo)
	r.RegisterFunc("sensing_distancetomenu", sensingDistanceToMenu)
	r.RegisterFunc("sensing_askandwait", sensingAskAndWait)
	r.RegisterFunc("sensing_answer", sensingAnswer)
	r.RegisterFunc("sensing_of_object_menu", sensingOfObjectMenu)
	r.RegisterFunc("sensing_of", sensingOf)
	r.RegisterFunc("sensing_current", sensingCurrent)
	r.RegisterFunc("sensing_dayssince2000", sensingDaysSince2000)
	r.RegisterFunc("sensing_username", sensingUsername)
	r.RegisterFunc("sensing_userid", sensingUserID)
}
