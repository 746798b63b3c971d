// Package executor implements the ActionExecutor: sequential dispatch of
// an ActionPlan's steps, paced with a random delay between each, returning
// the reverse of the last executed action to the caller.
package executor

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/pulsewatch/agent/internal/action"
	"github.com/pulsewatch/agent/internal/inputsynth"
	"github.com/pulsewatch/agent/internal/logging"
	"github.com/pulsewatch/agent/internal/planner"
)

var log = logging.L("executor")

// Config holds ActionExecutor pacing options.
type Config struct {
	MinDelayMs int
	MaxDelayMs int
}

// DefaultConfig returns the documented pacing defaults.
func DefaultConfig() Config {
	return Config{MinDelayMs: 100, MaxDelayMs: 300}
}

// Executor dispatches ActionPlans through a Synthesizer, one action at a
// time, interleaved with a uniform-random pacing delay.
type Executor struct {
	cfg  Config
	synt inputsynth.Synthesizer
}

// New creates an Executor bound to the given Synthesizer.
func New(cfg Config, synt inputsynth.Synthesizer) *Executor {
	if cfg.MinDelayMs <= 0 && cfg.MaxDelayMs <= 0 {
		cfg = DefaultConfig()
	}
	return &Executor{cfg: cfg, synt: synt}
}

// Run executes plan's actions in order. Cancellation via ctx is
// cooperative: it is checked between actions, never interrupting an
// action already in flight. Run returns the reverse of the last action it
// executed, if that action has one. The Executor keeps no undo state
// between calls and has no method that runs a stored reverse.
// A fatal error from any action's Execute aborts the remaining plan and
// is returned to the caller.
func (e *Executor) Run(ctx context.Context, plan planner.ActionPlan) (undo action.Action, hasUndo bool, err error) {
	for i, a := range plan {
		if i > 0 {
			select {
			case <-ctx.Done():
				return undo, hasUndo, nil
			default:
			}
			time.Sleep(e.pacingDelay())
		}

		if execErr := a.Execute(ctx, e.synt); execErr != nil {
			return undo, hasUndo, fmt.Errorf("execute action %d (%s): %w", i, action.String(a), execErr)
		}

		undo, hasUndo = a.Reverse()
	}
	return undo, hasUndo, nil
}

// pacingDelay draws a uniform random delay in [MinDelayMs, MaxDelayMs].
func (e *Executor) pacingDelay() time.Duration {
	lo, hi := e.cfg.MinDelayMs, e.cfg.MaxDelayMs
	if hi <= lo {
		return time.Duration(lo) * time.Millisecond
	}
	ms := lo + rand.IntN(hi-lo+1)
	return time.Duration(ms) * time.Millisecond
}
