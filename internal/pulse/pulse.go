// Package pulse implements PulseMachine, the deterministic state machine
// that owns a Suggestion's lifecycle, and PulseEngine, the driver loop
// that ticks the machine forward.
package pulse

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pulsewatch/agent/internal/logging"
	"github.com/pulsewatch/agent/internal/planner"
)

var log = logging.L("pulse")

// State is one of the PulseMachine's lifecycle states.
type State int

const (
	Idle State = iota
	Capturing
	IntentDetected
	ProcessingCloud
	AwaitingApproval
	Executing
	Cooling
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Capturing:
		return "Capturing"
	case IntentDetected:
		return "IntentDetected"
	case ProcessingCloud:
		return "ProcessingCloud"
	case AwaitingApproval:
		return "AwaitingApproval"
	case Executing:
		return "Executing"
	case Cooling:
		return "Cooling"
	default:
		return "Unknown"
	}
}

// SuggestionState is the lifecycle state of a Suggestion.
type SuggestionState int

const (
	Pending SuggestionState = iota
	Executed
	Dismissed
	Failed
)

func (s SuggestionState) String() string {
	switch s {
	case Pending:
		return "Pending"
	case Executed:
		return "Executed"
	case Dismissed:
		return "Dismissed"
	case Failed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Suggestion is a proposed action plan awaiting human approval. At most
// one Suggestion exists in non-terminal (Pending) state at any instant —
// enforced by PulseMachine, which owns it exclusively.
type Suggestion struct {
	ID          string
	Description string
	Confidence  float64
	Plan        planner.ActionPlan
	State       SuggestionState
	CreatedAt   time.Time
}

// NewSuggestion creates a Pending Suggestion with a fresh ID.
func NewSuggestion(description string, confidence float64, plan planner.ActionPlan) Suggestion {
	return Suggestion{
		ID:          uuid.NewString(),
		Description: description,
		Confidence:  confidence,
		Plan:        plan,
		State:       Pending,
		CreatedAt:   time.Now().UTC(),
	}
}

// allowedNext lists the permitted transitions out of each state. All other
// transitions are rejected: logged and left with no state change.
var allowedNext = map[State][]State{
	Idle:             {Capturing},
	Capturing:        {IntentDetected, Idle},
	IntentDetected:   {ProcessingCloud, Capturing},
	ProcessingCloud:  {AwaitingApproval, Idle},
	AwaitingApproval: {Executing, Idle},
	Executing:        {Cooling, Idle},
	Cooling:          {Idle},
}

// Machine is the mutex-guarded PulseMachine. Every public method
// takes/releases mu without ever calling out across a suspension point
// while holding it.
type Machine struct {
	mu         sync.Mutex
	state      State
	suggestion *Suggestion
}

// NewMachine creates a Machine in the Idle state.
func NewMachine() *Machine {
	return &Machine{state: Idle}
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Suggestion returns a copy of the current suggestion, or (Suggestion{},
// false) if none is attached.
func (m *Machine) Suggestion() (Suggestion, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.suggestion == nil {
		return Suggestion{}, false
	}
	return *m.suggestion, true
}

// Transition moves the machine to next if the transition is permitted.
// Returns true if the transition occurred. An illegal transition is
// logged and leaves the state unchanged — never an error to the caller.
func (m *Machine) Transition(next State) bool {
	m.mu.Lock()
	prev := m.state
	ok := isAllowed(prev, next)
	if ok {
		m.state = next
	}
	m.mu.Unlock()

	if !ok {
		log.Warn("rejected state transition", "from", prev, "to", next)
		return false
	}
	log.Debug("state transition", "from", prev, "to", next)
	return true
}

func isAllowed(from, to State) bool {
	for _, s := range allowedNext[from] {
		if s == to {
			return true
		}
	}
	return false
}

// AttachSuggestion stores s as the current suggestion. Called only while
// transitioning into AwaitingApproval.
func (m *Machine) AttachSuggestion(s Suggestion) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.suggestion = &s
}

// SetSuggestionState updates the current suggestion's state in place, if
// one is attached.
func (m *Machine) SetSuggestionState(state SuggestionState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.suggestion != nil {
		m.suggestion.State = state
	}
}

// ClearSuggestion detaches the current suggestion.
func (m *Machine) ClearSuggestion() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.suggestion = nil
}

// Reset forces the machine back to Idle and clears the current
// suggestion, regardless of the current state or source.
func (m *Machine) Reset() {
	m.mu.Lock()
	prev := m.state
	m.state = Idle
	m.suggestion = nil
	m.mu.Unlock()
	log.Debug("machine reset", "from", prev)
}
