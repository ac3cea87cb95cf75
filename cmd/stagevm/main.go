// Command stagevm runs a block-graph project archive to completion: it
// loads the archive, fires every green-flag script, and steps the
// scheduler until no thread remains runnable.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kristofer/stagevm/pkg/debugger"
	"github.com/kristofer/stagevm/pkg/engine"
	"github.com/kristofer/stagevm/pkg/loader"
	"github.com/kristofer/stagevm/pkg/primitives"
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var debug bool
	var breakOn []string
	cmd := &cobra.Command{
		Use:           "stagevm <archive>",
		Short:         "Run a block-graph project archive",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), args[0], debug, breakOn)
		},
	}
	cmd.Flags().BoolVar(&debug, "debug", false, "pause before every round in the interactive debugger")
	cmd.Flags().StringSliceVar(&breakOn, "break", nil, "pause the debugger whenever this opcode is next (repeatable)")
	return cmd
}

// run loads path and drives the scheduler to idle, reporting load
// failures to stderr with a non-zero exit. When debug is set, every
// round is interleaved with the debugger's breakpoint check instead of
// running straight to idle.
func run(ctx context.Context, path string, debug bool, breakOn []string) error {
	log := logrus.New()

	result, err := loader.Load(path, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}

	registry := engine.NewRegistry()
	primitives.RegisterAll(registry)

	vm := engine.New(result.Targets, result.StageIdx, registry, log)
	vm.StartFlag()

	if debug || len(breakOn) > 0 {
		dbg := debugger.New(vm)
		dbg.Enable()
		for _, opcode := range breakOn {
			dbg.AddBreakpoint(opcode)
		}
		return driveWithDebugger(ctx, vm, dbg)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return driveUntilIdle(ctx, vm)
	})
	return g.Wait()
}

// driveUntilIdle repeatedly runs the VM until idle, sleeping for the
// scheduler's reported minimum wait between bursts (pacing wait and
// say/think-for-secs style primitives to something resembling real time) instead of
// spinning the host CPU.
func driveUntilIdle(ctx context.Context, vm *engine.VM) error {
	for !vm.IsIdle() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		wait, waited := vm.RunUntilIdle(ctx, time.Second)
		vm.MarkStageRefreshed()
		if waited && wait > 0 {
			time.Sleep(wait)
		}
	}
	return nil
}

// driveWithDebugger steps the VM one round at a time, handing control
// to the debugger's interactive prompt whenever it asks to pause.
func driveWithDebugger(ctx context.Context, vm *engine.VM, dbg *debugger.Debugger) error {
	for !vm.IsIdle() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if dbg.ShouldPause() {
			if !dbg.InteractivePrompt() {
				return nil
			}
		}
		vm.Step()
		vm.MarkStageRefreshed()
	}
	return nil
}
