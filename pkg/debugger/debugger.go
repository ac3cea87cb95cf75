// Package debugger provides an interactive, breakpoint-driven console
// for stepping a running VM one scheduler round at a time. Breakpoints
// key on opcode name (this engine has no linear instruction stream to
// take an offset into), and "stack" means a thread's frame stack since
// there is no separate operand stack.
package debugger

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/kristofer/stagevm/pkg/engine"
)

// Debugger watches a VM's round-by-round progress. It is driven
// externally: the host calls ShouldPause once per round (or per
// thread) and, when it returns true, InteractivePrompt to let the
// user inspect state before the next Step.
type Debugger struct {
	vm          *engine.VM
	breakpoints map[string]bool // opcode names that trigger a pause
	stepMode    bool
	enabled     bool

	in  *bufio.Scanner
	out io.Writer
}

// New builds a debugger over vm, reading commands from stdin and
// writing to stdout. Tests construct one directly with SetIO to use
// an in-memory reader/writer instead.
func New(vm *engine.VM) *Debugger {
	return &Debugger{
		vm:          vm,
		breakpoints: make(map[string]bool),
		in:          bufio.NewScanner(os.Stdin),
		out:         os.Stdout,
	}
}

// SetIO redirects the debugger's prompt input/output, for tests.
func (d *Debugger) SetIO(r io.Reader, w io.Writer) {
	d.in = bufio.NewScanner(r)
	d.out = w
}

// Enable activates the debugger; while disabled, ShouldPause always
// reports false regardless of breakpoints or step mode.
func (d *Debugger) Enable() { d.enabled = true }

// Disable deactivates the debugger.
func (d *Debugger) Disable() { d.enabled = false }

// SetStepMode enables or disables pausing before every round.
func (d *Debugger) SetStepMode(enabled bool) { d.stepMode = enabled }

// AddBreakpoint arms a pause whenever any thread's current block has
// this opcode.
func (d *Debugger) AddBreakpoint(opcode string) { d.breakpoints[opcode] = true }

// RemoveBreakpoint disarms a previously added opcode breakpoint.
func (d *Debugger) RemoveBreakpoint(opcode string) { delete(d.breakpoints, opcode) }

// ClearBreakpoints removes every armed breakpoint.
func (d *Debugger) ClearBreakpoints() { d.breakpoints = make(map[string]bool) }

// ShouldPause reports whether the host should stop and call
// InteractivePrompt before running the next round: true in step mode,
// or if any live thread's current frame sits on a breakpointed opcode.
func (d *Debugger) ShouldPause() bool {
	if !d.enabled {
		return false
	}
	if d.stepMode {
		return true
	}
	for _, th := range d.vm.Threads() {
		if len(th.Frames) == 0 {
			continue
		}
		frame := th.Frames[len(th.Frames)-1]
		if b := d.vm.BlockAt(th.RunningTargetID, frame.BlockID); b != nil && d.breakpoints[b.Opcode] {
			return true
		}
	}
	return false
}

// ShowThreads lists every live thread: its id, owning target, frame
// depth, and current opcode.
func (d *Debugger) ShowThreads() {
	fmt.Fprintln(d.out, color.CyanString("Threads:"))
	threads := d.vm.Threads()
	if len(threads) == 0 {
		fmt.Fprintln(d.out, "  (none running)")
		return
	}
	for _, th := range threads {
		op := "(no frame)"
		if len(th.Frames) > 0 {
			top := th.Frames[len(th.Frames)-1]
			if b := d.vm.BlockAt(th.RunningTargetID, top.BlockID); b != nil {
				op = b.Opcode
			}
		}
		fmt.Fprintf(d.out, "  [%d] target=%s depth=%d op=%s\n",
			th.ID, d.vm.TargetName(th.RunningTargetID), len(th.Frames), op)
	}
}

// ShowCallStack displays one thread's frame stack, top to bottom, as
// opcode names and resolved-argument counts.
func (d *Debugger) ShowCallStack(th *engine.Thread) {
	fmt.Fprintln(d.out, color.CyanString("Call stack (top to bottom):"))
	if len(th.Frames) == 0 {
		fmt.Fprintln(d.out, "  (empty)")
		return
	}
	for i := len(th.Frames) - 1; i >= 0; i-- {
		frame := th.Frames[i]
		op := "?"
		if b := d.vm.BlockAt(th.RunningTargetID, frame.BlockID); b != nil {
			op = b.Opcode
		}
		fmt.Fprintf(d.out, "  #%d block=%d op=%s args=%d\n", i, frame.BlockID, op, len(frame.Args))
	}
}

// ShowLocals displays one running target's variables and lists.
func (d *Debugger) ShowLocals(runningTargetID string) {
	fmt.Fprintln(d.out, color.CyanString("Locals for %s:", d.vm.TargetName(runningTargetID)))
	rt, ok := d.vm.RunningTargets()[runningTargetID]
	if !ok {
		fmt.Fprintln(d.out, "  (no such target)")
		return
	}
	names := rt.Variables.Names()
	if len(names) == 0 {
		fmt.Fprintln(d.out, "  (no variables)")
	}
	for _, name := range names {
		v, _ := rt.Variables.Get(name)
		fmt.Fprintf(d.out, "  %s = %s\n", name, v.String())
	}
	for _, name := range rt.Lists.Names() {
		items, _ := rt.Lists.Get(name)
		fmt.Fprintf(d.out, "  %s = (list, %d items)\n", name, len(items))
	}
}

// ShowGlobals displays the VM-wide store: the counter, the stage frame
// count, and the most recent ask-and-wait answer.
func (d *Debugger) ShowGlobals() {
	g := d.vm.Global()
	fmt.Fprintln(d.out, color.CyanString("Globals:"))
	fmt.Fprintf(d.out, "  counter = %g\n", g.Counter)
	fmt.Fprintf(d.out, "  stage_frame = %d\n", g.StageFrame)
	fmt.Fprintf(d.out, "  answer = %q\n", g.SensingAnswer)
}

// InteractivePrompt reads and executes debug commands from d.in until
// one of them resumes execution (continue/step/next) or the user
// quits; quitting reports continueExecution=false so the host can
// abort the run entirely.
func (d *Debugger) InteractivePrompt() (continueExecution bool) {
	fmt.Fprintln(d.out, color.YellowString("\n=== Debugger Paused ==="))
	d.ShowThreads()

	for {
		fmt.Fprint(d.out, "debug> ")
		if !d.in.Scan() {
			return false
		}
		line := strings.TrimSpace(d.in.Text())
		if line == "" {
			continue
		}
		parts := strings.Fields(line)
		switch parts[0] {
		case "help", "h", "?":
			d.printHelp()

		case "continue", "c":
			d.SetStepMode(false)
			return true

		case "step", "s", "next", "n":
			d.SetStepMode(true)
			return true

		case "threads", "t":
			d.ShowThreads()

		case "stack", "cs":
			if len(parts) < 2 {
				fmt.Fprintln(d.out, "Usage: stack <thread_id>")
				continue
			}
			th := d.findThread(parts[1])
			if th == nil {
				fmt.Fprintln(d.out, "no such thread")
				continue
			}
			d.ShowCallStack(th)

		case "locals", "l":
			if len(parts) < 2 {
				fmt.Fprintln(d.out, "Usage: locals <running_target_id>")
				continue
			}
			d.ShowLocals(parts[1])

		case "globals", "g":
			d.ShowGlobals()

		case "break", "b":
			if len(parts) < 2 {
				fmt.Fprintln(d.out, "Usage: break <opcode>")
				continue
			}
			d.AddBreakpoint(parts[1])
			fmt.Fprintf(d.out, "breakpoint armed on %s\n", parts[1])

		case "delete", "d":
			if len(parts) < 2 {
				fmt.Fprintln(d.out, "Usage: delete <opcode>")
				continue
			}
			d.RemoveBreakpoint(parts[1])
			fmt.Fprintf(d.out, "breakpoint removed from %s\n", parts[1])

		case "quit", "q":
			return false

		default:
			fmt.Fprintf(d.out, "unknown command: %s (type 'help' for commands)\n", parts[0])
		}
	}
}

func (d *Debugger) findThread(idStr string) *engine.Thread {
	for _, th := range d.vm.Threads() {
		if fmt.Sprint(th.ID) == idStr {
			return th
		}
	}
	return nil
}

func (d *Debugger) printHelp() {
	fmt.Fprintln(d.out, "Debugger commands:")
	fmt.Fprintln(d.out, "  help, h, ?              Show this help")
	fmt.Fprintln(d.out, "  continue, c             Resume until the next breakpoint")
	fmt.Fprintln(d.out, "  step, s, next, n        Run one round, then pause again")
	fmt.Fprintln(d.out, "  threads, t              List live threads")
	fmt.Fprintln(d.out, "  stack <id>, cs <id>     Show a thread's frame stack")
	fmt.Fprintln(d.out, "  locals <target>, l      Show a running target's variables")
	fmt.Fprintln(d.out, "  globals, g              Show the VM-wide store")
	fmt.Fprintln(d.out, "  break <opcode>, b       Pause whenever opcode is next")
	fmt.Fprintln(d.out, "  delete <opcode>, d      Remove an opcode breakpoint")
	fmt.Fprintln(d.out, "  quit, q                 Abort the run")
}
