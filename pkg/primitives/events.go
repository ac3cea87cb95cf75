package primitives

import "github.com/kristofer/stagevm/pkg/engine"

// Hat blocks are pure thread-entry markers: the scheduler spawns a
// thread rooted at one when its trigger fires, and the block itself
// does nothing once reached.
func eventHat(c *engine.BlockContext) engine.Result { return engine.End() }

func eventBroadcast(c *engine.BlockContext) engine.Result {
	return c.AcquireArgs(1, func(c *engine.BlockContext) engine.Result {
		return engine.BroadcastResult(c.Arg(0).String())
	})
}

func eventBroadcastAndWait(c *engine.BlockContext) engine.Result {
	return c.AcquireArgs(1, func(c *engine.BlockContext) engine.Result {
		return engine.BroadcastAndWaitResult(c.Arg(0).String())
	})
}

func eventBroadcastMenu(c *engine.BlockContext) engine.Result {
	return c.AcquireArgs(1, func(c *engine.BlockContext) engine.Result {
		return engine.Ret(c.Arg(0))
	})
}

func registerEvents(r *engine.Registry) {
	r.RegisterFunc("event_whenflagclicked", eventHat)
	r.RegisterFunc("event_whenkeypressed", eventHat)
	r.RegisterFunc("event_whenthisspriteclicked", eventHat)
	r.RegisterFunc("event_whenbackdropswitchesto", eventHat)
	r.RegisterFunc("event_whenbroadcastreceived", eventHat)
	r.RegisterFunc("event_broadcast", eventBroadcast)
	r.RegisterFunc("event_broadcastandwait", eventBroadcastAndWait)
	r.RegisterFunc("event_broadcast_menu", eventBroadcastMenu)
}
