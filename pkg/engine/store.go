package engine

import "time"

// GlobalStore holds the handful of named, cross-thread values the
// scheduler and primitives share. A typed struct makes every field's
// shape explicit instead of requiring every reader to know a string
// key's associated dynamic type.
type GlobalStore struct {
	// Counter backs the counter_* blocks.
	Counter float64
	// GlobalTimer is the epoch the timer/reset_timer blocks measure
	// elapsed time against.
	GlobalTimer time.Time
	// StageFrame increments once per host-observed redraw; frames
	// waiting on "need wait refresh" compare against it.
	StageFrame uint64
	// MinWaitTime is the smallest wall-clock delay any waiting
	// primitive published this round.
	MinWaitTime time.Duration
	// MinWaitTimeSet reports whether any primitive published
	// MinWaitTime this round.
	MinWaitTimeSet bool
	// WaitingThreads counts primitives that voluntarily throttled
	// this round.
	WaitingThreads uint64
	// SensingAnswer holds the most recent ask-and-wait response.
	SensingAnswer string
	// SensingAskLock is true while an ask-and-wait background read is
	// outstanding, so a second ask_and_wait block in the same run
	// doesn't start a competing reader.
	SensingAskLock bool
}

// resetRound clears the per-round throttling counters; called once at
// the start of every Step.
func (g *GlobalStore) resetRound() {
	g.MinWaitTime = 0
	g.MinWaitTimeSet = false
	g.WaitingThreads = 0
}

// PublishWait records that a primitive intends to sleep for d before
// it has useful work again, so RunUntilIdle can report a precise
// minimum sleep instead of busy-polling.
func (g *GlobalStore) PublishWait(d time.Duration) {
	g.WaitingThreads++
	if !g.MinWaitTimeSet || d < g.MinWaitTime {
		g.MinWaitTime = d
		g.MinWaitTimeSet = true
	}
}
