package pulse

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pulsewatch/agent/internal/action"
	"github.com/pulsewatch/agent/internal/frame"
	"github.com/pulsewatch/agent/internal/framering"
	"github.com/pulsewatch/agent/internal/idlesensor"
	"github.com/pulsewatch/agent/internal/planner"
	"github.com/pulsewatch/agent/internal/predictor"
)

// frameSource is the subset of capture.FrameSource the engine depends on.
// A narrow interface here (rather than the concrete type) is what lets
// tests substitute a fake without standing up real screen duplication.
type frameSource interface {
	Start() error
	Stop()
	CaptureOne() (*frame.Frame, error)
}

// predictorClient is the subset of predictor.Client the engine depends on.
type predictorClient interface {
	Predict(ctx context.Context, frames []frame.Frame, cc frame.CaptureContext) (*predictor.Response, error)
}

// planExecutor is the subset of executor.Executor the engine depends on.
type planExecutor interface {
	Run(ctx context.Context, plan planner.ActionPlan) (action.Action, bool, error)
}

// EngineConfig holds the cadence and threshold options the PulseEngine
// ticks against.
type EngineConfig struct {
	FramesPerSecond  int
	BufferSeconds    int
	PauseThresholdMs int
	MinConfidence    float64
	CoolingPeriodMs  int
}

// DefaultEngineConfig returns the documented defaults.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		FramesPerSecond:  3,
		BufferSeconds:    4,
		PauseThresholdMs: 1000,
		MinConfidence:    0.80,
		CoolingPeriodMs:  500,
	}
}

// Event is emitted to UI subscribers. Exactly one of its fields is
// meaningful, selected by Kind.
type Event struct {
	Kind       EventKind
	Suggestion Suggestion
	Message    string
}

// EventKind distinguishes the three events the engine ever emits.
type EventKind int

const (
	SuggestionReady EventKind = iota
	SuggestionDismissed
	ExecutionError
)

// Engine is the long-lived driver loop (PulseEngine): it ties IdleSensor,
// FrameSource, FrameRing, Predictor, PlanTranslator, and ActionExecutor
// together through the Machine, and emits events to UI subscribers.
type Engine struct {
	cfg     EngineConfig
	machine *Machine

	sensor idlesensor.Sensor
	frames frameSource
	ring   *framering.Ring
	pred   predictorClient
	exec   planExecutor

	events chan Event

	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped chan struct{}
}

// NewEngine wires the Engine's collaborators. The events channel is created
// here with a 16-event buffer; the engine never blocks waiting for a
// subscriber — sends are best-effort and an event is dropped when the
// buffer is full.
func NewEngine(cfg EngineConfig, machine *Machine, sensor idlesensor.Sensor, frames frameSource, ring *framering.Ring, pred predictorClient, exec planExecutor) *Engine {
	return &Engine{
		cfg:     cfg,
		machine: machine,
		sensor:  sensor,
		frames:  frames,
		ring:    ring,
		pred:    pred,
		exec:    exec,
		events:  make(chan Event, 16),
	}
}

// Events returns the channel subscribers read from.
func (e *Engine) Events() <-chan Event {
	return e.events
}

func (e *Engine) emit(ev Event) {
	select {
	case e.events <- ev:
	default:
		log.Warn("event channel full, dropping event", "kind", ev.Kind)
	}
}

// Start begins the ticker-driven loop on a background goroutine. Stop
// cancels it.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.frames.Start(); err != nil {
		return fmt.Errorf("start pulse engine: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	e.mu.Lock()
	e.cancel = cancel
	e.stopped = make(chan struct{})
	e.mu.Unlock()

	go e.run(runCtx)
	return nil
}

// Stop cancels the loop and waits (bounded) for it to unwind, then force-
// stops the FrameSource.
func (e *Engine) Stop() {
	e.mu.Lock()
	cancel := e.cancel
	stopped := e.stopped
	e.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()

	if stopped != nil {
		select {
		case <-stopped:
		case <-time.After(5 * time.Second):
			log.Warn("engine loop did not exit within timeout")
		}
	}
	e.frames.Stop()
}

func (e *Engine) interval() time.Duration {
	fps := e.cfg.FramesPerSecond
	if fps <= 0 {
		fps = 1
	}
	return time.Second / time.Duration(fps)
}

func (e *Engine) run(ctx context.Context) {
	defer close(e.stopped)

	ticker := time.NewTicker(e.interval())
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := e.tick(ctx); err != nil {
				log.Warn("engine tick failed, backing off", "error", err)
				select {
				case <-time.After(time.Second):
				case <-ctx.Done():
					return
				}
			}
		case <-ctx.Done():
			return
		}
	}
}

// tick dispatches one step based on the machine's current state.
func (e *Engine) tick(ctx context.Context) error {
	switch e.machine.State() {
	case Idle:
		e.machine.Transition(Capturing)

	case Capturing:
		f, err := e.frames.CaptureOne()
		if err != nil {
			return err
		}
		if f != nil {
			e.ring.Push(*f)
		}
		if idlesensor.IsIdle(e.sensor, time.Duration(e.cfg.PauseThresholdMs)*time.Millisecond) {
			e.machine.Transition(IntentDetected)
		}

	case IntentDetected:
		e.machine.Transition(ProcessingCloud)
		e.processCloud(ctx)

	case ProcessingCloud, AwaitingApproval, Executing:
		// no-op tick — waiting for an external event

	case Cooling:
		select {
		case <-time.After(time.Duration(e.cfg.CoolingPeriodMs) * time.Millisecond):
		case <-ctx.Done():
			return nil
		}
		e.machine.Transition(Idle)
	}
	return nil
}

func (e *Engine) processCloud(ctx context.Context) {
	want := e.cfg.FramesPerSecond * e.cfg.BufferSeconds
	recent := e.ring.Recent(want)
	if len(recent) == 0 {
		e.machine.Transition(Idle)
		return
	}

	last := recent[len(recent)-1]
	cx, cy := e.sensor.CursorPosition()
	cc := frame.CaptureContext{
		MonitorWidth:  last.Width,
		MonitorHeight: last.Height,
		CursorX:       cx,
		CursorY:       cy,
		Timestamp:     time.Now().UTC(),
	}

	resp, err := e.pred.Predict(ctx, recent, cc)
	if err != nil {
		log.Warn("predictor call errored", "error", err)
		e.machine.Transition(Idle)
		return
	}
	if resp == nil || resp.Confidence < e.cfg.MinConfidence {
		e.machine.Transition(Idle)
		return
	}

	plan := planner.Translate(resp)
	s := NewSuggestion(resp.Description, resp.Confidence, plan)
	e.machine.AttachSuggestion(s)
	e.machine.Transition(AwaitingApproval)
	e.emit(Event{Kind: SuggestionReady, Suggestion: s})
}

// Approve runs the current suggestion's plan. Valid only in
// AwaitingApproval; otherwise logged and ignored.
func (e *Engine) Approve(ctx context.Context) {
	s, ok := e.machine.Suggestion()
	if !ok || e.machine.State() != AwaitingApproval {
		log.Warn("approve called outside AwaitingApproval, ignoring")
		return
	}
	if !e.machine.Transition(Executing) {
		return
	}

	_, _, err := e.exec.Run(ctx, s.Plan)
	if err != nil {
		e.machine.SetSuggestionState(Failed)
		e.machine.Transition(Idle)
		e.emit(Event{Kind: ExecutionError, Message: err.Error()})
		return
	}

	e.machine.SetSuggestionState(Executed)
	e.machine.Transition(Cooling)
}

// Dismiss discards the current suggestion. Valid only in
// AwaitingApproval; otherwise logged and ignored.
func (e *Engine) Dismiss() {
	if e.machine.State() != AwaitingApproval {
		log.Warn("dismiss called outside AwaitingApproval, ignoring")
		return
	}
	e.machine.SetSuggestionState(Dismissed)
	e.machine.ClearSuggestion()
	e.machine.Transition(Idle)
	e.emit(Event{Kind: SuggestionDismissed})
}
