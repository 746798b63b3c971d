// Package action defines the Action sum type dispatched by the
// ActionExecutor: a typed variant per synthesized gesture, each knowing how
// to execute itself against a Synthesizer and how (if at all) to reverse
// itself.
package action

import (
	"context"
	"fmt"
	"strings"

	"github.com/pulsewatch/agent/internal/frame"
	"github.com/pulsewatch/agent/internal/inputsynth"
)

// Action is implemented by every dispatchable gesture. Execute must never
// return an error for a missing/unbound Region — it is a no-op in that
// case, per the "unbound executor slot is a no-op" contract.
type Action interface {
	// Execute performs the action via s. A catastrophic synth failure
	// (propagated as a non-nil error) is fatal to the enclosing plan; a
	// merely-failed individual input event is swallowed inside s.
	Execute(ctx context.Context, s inputsynth.Synthesizer) error

	// Reverse returns the best-effort inverse of this action, or
	// (nil, false) if this action variant has no reverse.
	Reverse() (Action, bool)
}

// Click performs a left click on the region's center.
type Click struct{ Region frame.Region }

func (a Click) Execute(_ context.Context, s inputsynth.Synthesizer) error {
	x, y := a.Region.Center()
	return s.Click(x, y)
}
func (a Click) Reverse() (Action, bool) { return nil, false }

// RightClick performs a right click on the region's center.
type RightClick struct{ Region frame.Region }

func (a RightClick) Execute(_ context.Context, s inputsynth.Synthesizer) error {
	x, y := a.Region.Center()
	return s.RightClick(x, y)
}
func (a RightClick) Reverse() (Action, bool) { return nil, false }

// DoubleClick performs a double click on the region's center.
type DoubleClick struct{ Region frame.Region }

func (a DoubleClick) Execute(_ context.Context, s inputsynth.Synthesizer) error {
	x, y := a.Region.Center()
	return s.DoubleClick(x, y)
}
func (a DoubleClick) Reverse() (Action, bool) { return nil, false }

// TypeText types the given text into the currently focused control.
type TypeText struct{ Text string }

func (a TypeText) Execute(_ context.Context, s inputsynth.Synthesizer) error {
	if a.Text == "" {
		return nil
	}
	return s.TypeText(a.Text)
}

// Reverse returns a KeyChord that presses Backspace min(len(Text), 10)
// times — a lossy, best-effort undo by design.
func (a TypeText) Reverse() (Action, bool) {
	n := len(a.Text)
	if n == 0 {
		return nil, false
	}
	if n > 10 {
		n = 10
	}
	return KeyChord{Keys: "backspace", Repeat: n}, true
}

// KeyChord presses a "+"-separated token spec (e.g. "ctrl+shift+s"), with
// the base key (the last token) pressed Repeat times while any modifiers
// are held down once for the whole chord. Repeat <= 1 means once.
type KeyChord struct {
	Keys   string
	Repeat int
}

func (a KeyChord) Execute(_ context.Context, s inputsynth.Synthesizer) error {
	if a.Keys == "" {
		return nil
	}
	tokens := strings.Split(a.Keys, "+")
	base := tokens[len(tokens)-1]
	mods := tokens[:len(tokens)-1]
	return s.PressKeys(inputsynth.KeyChord{Key: base, Modifiers: mods, Repeat: a.Repeat})
}
func (a KeyChord) Reverse() (Action, bool) { return nil, false }

// Drag drags from Source's center to Target's center.
type Drag struct {
	Source frame.Region
	Target frame.Region
}

func (a Drag) Execute(_ context.Context, s inputsynth.Synthesizer) error {
	sx, sy := a.Source.Center()
	tx, ty := a.Target.Center()
	return s.Drag(sx, sy, tx, ty)
}

// Reverse swaps source and target.
func (a Drag) Reverse() (Action, bool) {
	return Drag{Source: a.Target, Target: a.Source}, true
}

// Scroll scrolls at the region's center by Amount in Direction ("up" or
// "down").
type Scroll struct {
	Region    frame.Region
	Direction string
	Amount    int
}

func (a Scroll) Execute(_ context.Context, s inputsynth.Synthesizer) error {
	x, y := a.Region.Center()
	signed := a.Amount
	if strings.EqualFold(a.Direction, "down") {
		signed = -signed
	}
	return s.Scroll(x, y, signed)
}

// Reverse flips the scroll direction, keeping the same amount and region.
func (a Scroll) Reverse() (Action, bool) {
	opposite := "down"
	if strings.EqualFold(a.Direction, "down") {
		opposite = "up"
	}
	return Scroll{Region: a.Region, Direction: opposite, Amount: a.Amount}, true
}

// String renders a short human-readable label, used in logs and Suggestion
// descriptions.
func String(a Action) string {
	switch v := a.(type) {
	case Click:
		x, y := v.Region.Center()
		return fmt.Sprintf("click@%d,%d", x, y)
	case RightClick:
		x, y := v.Region.Center()
		return fmt.Sprintf("right_click@%d,%d", x, y)
	case DoubleClick:
		x, y := v.Region.Center()
		return fmt.Sprintf("double_click@%d,%d", x, y)
	case TypeText:
		return fmt.Sprintf("type(%q)", v.Text)
	case KeyChord:
		return fmt.Sprintf("keys(%s)", v.Keys)
	case Drag:
		return "drag"
	case Scroll:
		return fmt.Sprintf("scroll(%s,%d)", v.Direction, v.Amount)
	default:
		return "unknown"
	}
}
