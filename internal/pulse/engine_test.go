package pulse

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/pulsewatch/agent/internal/action"
	"github.com/pulsewatch/agent/internal/frame"
	"github.com/pulsewatch/agent/internal/framering"
	"github.com/pulsewatch/agent/internal/planner"
	"github.com/pulsewatch/agent/internal/predictor"
)

func intPtr(i int) *int { return &i }

type fakeSensor struct{ idle time.Duration }

func (f fakeSensor) IdleDuration() time.Duration { return f.idle }
func (f fakeSensor) CursorPosition() (x, y int)  { return 1, 1 }

type fakeFrameSource struct{ frame *frame.Frame }

func (f *fakeFrameSource) Start() error { return nil }
func (f *fakeFrameSource) Stop()        {}
func (f *fakeFrameSource) CaptureOne() (*frame.Frame, error) {
	return f.frame, nil
}

type fakePredictor struct {
	resp *predictor.Response
	err  error
}

func (f *fakePredictor) Predict(ctx context.Context, frames []frame.Frame, cc frame.CaptureContext) (*predictor.Response, error) {
	return f.resp, f.err
}

type fakeExecutor struct {
	runErr error
	calls  int
}

func (f *fakeExecutor) Run(ctx context.Context, plan planner.ActionPlan) (action.Action, bool, error) {
	f.calls++
	return nil, false, f.runErr
}

func newTestEngine(sensor fakeSensor, fs *fakeFrameSource, pred *fakePredictor, exec *fakeExecutor) *Engine {
	cfg := DefaultEngineConfig()
	cfg.FramesPerSecond = 3
	cfg.BufferSeconds = 4
	machine := NewMachine()
	ring := framering.New(12)
	return NewEngine(cfg, machine, sensor, fs, ring, pred, exec)
}

func TestIdleUserNeverEscalates(t *testing.T) {
	e := newTestEngine(fakeSensor{idle: 0}, &fakeFrameSource{}, &fakePredictor{}, &fakeExecutor{})

	for i := 0; i < 10; i++ {
		if err := e.tick(context.Background()); err != nil {
			t.Fatalf("tick: %v", err)
		}
	}

	if e.machine.State() != Idle && e.machine.State() != Capturing {
		t.Fatalf("state = %v, want oscillation between Idle and Capturing only", e.machine.State())
	}
}

func TestPauseTriggersPredictionLowConfidenceReturnsToIdle(t *testing.T) {
	f := &frame.Frame{Width: 1920, Height: 1080}
	fs := &fakeFrameSource{frame: f}
	pred := &fakePredictor{resp: &predictor.Response{Confidence: 0.5, Actions: []predictor.CloudAction{{Type: "click", X: intPtr(1), Y: intPtr(1)}}}}
	e := newTestEngine(fakeSensor{idle: 1500 * time.Millisecond}, fs, pred, &fakeExecutor{})

	ctx := context.Background()
	if err := e.tick(ctx); err != nil { // Idle -> Capturing
		t.Fatal(err)
	}
	if err := e.tick(ctx); err != nil { // Capturing -> IntentDetected (idle threshold met)
		t.Fatal(err)
	}
	if e.machine.State() != IntentDetected {
		t.Fatalf("state = %v, want IntentDetected", e.machine.State())
	}
	if err := e.tick(ctx); err != nil { // IntentDetected -> ProcessingCloud -> Idle (low confidence)
		t.Fatal(err)
	}
	if e.machine.State() != Idle {
		t.Fatalf("state = %v, want Idle after low-confidence prediction", e.machine.State())
	}

	select {
	case ev := <-e.Events():
		t.Fatalf("unexpected event fired for a low-confidence prediction: %+v", ev)
	default:
	}
}

func TestHighConfidencePredictionFiresSuggestionReady(t *testing.T) {
	f := &frame.Frame{Width: 1920, Height: 1080}
	fs := &fakeFrameSource{frame: f}
	pred := &fakePredictor{resp: &predictor.Response{
		Confidence:  0.95,
		Description: "click the save button",
		Actions:     []predictor.CloudAction{{Type: "click", X: intPtr(10), Y: intPtr(10)}},
	}}
	e := newTestEngine(fakeSensor{idle: 1500 * time.Millisecond}, fs, pred, &fakeExecutor{})

	ctx := context.Background()
	e.tick(ctx) // Idle -> Capturing
	e.tick(ctx) // Capturing -> IntentDetected
	e.tick(ctx) // IntentDetected -> ProcessingCloud -> AwaitingApproval

	if e.machine.State() != AwaitingApproval {
		t.Fatalf("state = %v, want AwaitingApproval", e.machine.State())
	}

	select {
	case ev := <-e.Events():
		if ev.Kind != SuggestionReady {
			t.Fatalf("event kind = %v, want SuggestionReady", ev.Kind)
		}
	default:
		t.Fatal("expected a SuggestionReady event")
	}
}

func TestApproveOutsideAwaitingApprovalIsNoop(t *testing.T) {
	exec := &fakeExecutor{}
	e := newTestEngine(fakeSensor{}, &fakeFrameSource{}, &fakePredictor{}, exec)
	e.Approve(context.Background())
	if exec.calls != 0 {
		t.Fatalf("expected no plan execution outside AwaitingApproval, got %d calls", exec.calls)
	}
}

func TestApproveSuccessTransitionsToCooling(t *testing.T) {
	exec := &fakeExecutor{}
	e := newTestEngine(fakeSensor{}, &fakeFrameSource{}, &fakePredictor{}, exec)
	e.machine.Transition(Capturing)
	e.machine.Transition(IntentDetected)
	e.machine.Transition(ProcessingCloud)
	e.machine.Transition(AwaitingApproval)
	e.machine.AttachSuggestion(NewSuggestion("x", 0.9, nil))

	e.Approve(context.Background())

	if e.machine.State() != Cooling {
		t.Fatalf("state = %v, want Cooling", e.machine.State())
	}
	if exec.calls != 1 {
		t.Fatalf("exec calls = %d, want 1", exec.calls)
	}
}

func TestApproveFailureFiresExecutionErrorAndReturnsToIdle(t *testing.T) {
	exec := &fakeExecutor{runErr: fmt.Errorf("boom")}
	e := newTestEngine(fakeSensor{}, &fakeFrameSource{}, &fakePredictor{}, exec)
	e.machine.Transition(Capturing)
	e.machine.Transition(IntentDetected)
	e.machine.Transition(ProcessingCloud)
	e.machine.Transition(AwaitingApproval)
	e.machine.AttachSuggestion(NewSuggestion("x", 0.9, nil))

	e.Approve(context.Background())

	if e.machine.State() != Idle {
		t.Fatalf("state = %v, want Idle after execution failure", e.machine.State())
	}

	select {
	case ev := <-e.Events():
		if ev.Kind != ExecutionError {
			t.Fatalf("event kind = %v, want ExecutionError", ev.Kind)
		}
	default:
		t.Fatal("expected an ExecutionError event")
	}
}

func TestDismissClearsAndEmits(t *testing.T) {
	e := newTestEngine(fakeSensor{}, &fakeFrameSource{}, &fakePredictor{}, &fakeExecutor{})
	e.machine.Transition(Capturing)
	e.machine.Transition(IntentDetected)
	e.machine.Transition(ProcessingCloud)
	e.machine.Transition(AwaitingApproval)
	e.machine.AttachSuggestion(NewSuggestion("x", 0.9, nil))

	e.Dismiss()

	if e.machine.State() != Idle {
		t.Fatalf("state = %v, want Idle", e.machine.State())
	}
	if _, ok := e.machine.Suggestion(); ok {
		t.Fatal("expected suggestion cleared after Dismiss")
	}

	select {
	case ev := <-e.Events():
		if ev.Kind != SuggestionDismissed {
			t.Fatalf("event kind = %v, want SuggestionDismissed", ev.Kind)
		}
	default:
		t.Fatal("expected a SuggestionDismissed event")
	}
}

func TestEngineNeverCallsPredictorOutsideProcessingCloud(t *testing.T) {
	calls := 0
	pred := &predictCounter{fn: func() (*predictor.Response, error) {
		calls++
		return &predictor.Response{Confidence: 0.95}, nil
	}}
	f := &frame.Frame{Width: 100, Height: 100}
	e := newTestEngine(fakeSensor{idle: 0}, &fakeFrameSource{frame: f}, pred, &fakeExecutor{})

	for i := 0; i < 20; i++ {
		e.tick(context.Background())
	}
	if calls != 0 {
		t.Fatalf("predictor called %d times while never reaching ProcessingCloud", calls)
	}
}

type predictCounter struct {
	fn func() (*predictor.Response, error)
}

func (p *predictCounter) Predict(ctx context.Context, frames []frame.Frame, cc frame.CaptureContext) (*predictor.Response, error) {
	return p.fn()
}
