package action

import (
	"context"
	"testing"

	"github.com/pulsewatch/agent/internal/frame"
	"github.com/pulsewatch/agent/internal/inputsynth"
)

type recordingSynth struct {
	clicks [][2]int
	chords []inputsynth.KeyChord
}

func (f *recordingSynth) MoveMouse(x, y int) error { return nil }
func (f *recordingSynth) Click(x, y int) error {
	f.clicks = append(f.clicks, [2]int{x, y})
	return nil
}
func (f *recordingSynth) RightClick(x, y int) error  { return nil }
func (f *recordingSynth) DoubleClick(x, y int) error { return nil }
func (f *recordingSynth) TypeText(s string) error    { return nil }
func (f *recordingSynth) PressKeys(c inputsynth.KeyChord) error {
	f.chords = append(f.chords, c)
	return nil
}
func (f *recordingSynth) Drag(sx, sy, ex, ey int) error { return nil }
func (f *recordingSynth) Scroll(x, y, amount int) error { return nil }

var _ inputsynth.Synthesizer = (*recordingSynth)(nil)

func TestClickExecute(t *testing.T) {
	f := &recordingSynth{}
	a := Click{Region: frame.Region{X: 0, Y: 0, Width: 50, Height: 30}}
	if err := a.Execute(context.Background(), f); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(f.clicks) != 1 || f.clicks[0] != [2]int{25, 15} {
		t.Fatalf("clicks = %v, want one at (25,15)", f.clicks)
	}
	if _, ok := a.Reverse(); ok {
		t.Fatalf("Click.Reverse should be (nil, false)")
	}
}

func TestTypeTextReverseCapsAtTen(t *testing.T) {
	a := TypeText{Text: "this is a very long string"}
	rev, ok := a.Reverse()
	if !ok {
		t.Fatal("expected a reverse")
	}
	kc, ok := rev.(KeyChord)
	if !ok {
		t.Fatalf("reverse type = %T, want KeyChord", rev)
	}
	if kc.Keys != "backspace" || kc.Repeat != 10 {
		t.Fatalf("reverse keychord = %+v, want Keys=backspace Repeat=10", kc)
	}
}

func TestTypeTextReverseShortString(t *testing.T) {
	a := TypeText{Text: "hi"}
	rev, ok := a.Reverse()
	if !ok {
		t.Fatal("expected a reverse")
	}
	kc := rev.(KeyChord)
	if kc.Keys != "backspace" || kc.Repeat != 2 {
		t.Fatalf("reverse keychord = %+v", kc)
	}
}

func TestDragReverseSwapsEndpoints(t *testing.T) {
	src := frame.Region{X: 0, Y: 0, Width: 10, Height: 10}
	dst := frame.Region{X: 100, Y: 100, Width: 10, Height: 10}
	a := Drag{Source: src, Target: dst}
	rev, ok := a.Reverse()
	if !ok {
		t.Fatal("expected a reverse")
	}
	d := rev.(Drag)
	if d.Source != dst || d.Target != src {
		t.Fatalf("reverse drag = %+v, want swapped endpoints", d)
	}
}

func TestScrollReverseFlipsDirection(t *testing.T) {
	a := Scroll{Direction: "down", Amount: 3}
	rev, ok := a.Reverse()
	if !ok {
		t.Fatal("expected a reverse")
	}
	s := rev.(Scroll)
	if s.Direction != "up" || s.Amount != 3 {
		t.Fatalf("reverse scroll = %+v", s)
	}
}

func TestKeyChordNoReverse(t *testing.T) {
	a := KeyChord{Keys: "ctrl+s"}
	if _, ok := a.Reverse(); ok {
		t.Fatal("KeyChord.Reverse should be (nil, false)")
	}
}

func TestTypeTextReverseExecutesRepeatedBackspace(t *testing.T) {
	f := &recordingSynth{}
	a := TypeText{Text: "this is a very long string"}
	rev, ok := a.Reverse()
	if !ok {
		t.Fatal("expected a reverse")
	}
	if err := rev.Execute(context.Background(), f); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(f.chords) != 1 {
		t.Fatalf("PressKeys calls = %d, want 1", len(f.chords))
	}
	if f.chords[0].Key != "backspace" || f.chords[0].Repeat != 10 {
		t.Fatalf("chord = %+v, want Key=backspace Repeat=10", f.chords[0])
	}
}

func TestKeyChordExecuteSplitsModifiersFromBase(t *testing.T) {
	f := &recordingSynth{}
	a := KeyChord{Keys: "ctrl+shift+s"}
	if err := a.Execute(context.Background(), f); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(f.chords) != 1 {
		t.Fatalf("PressKeys calls = %d, want 1", len(f.chords))
	}
	c := f.chords[0]
	if c.Key != "s" || len(c.Modifiers) != 2 || c.Modifiers[0] != "ctrl" || c.Modifiers[1] != "shift" {
		t.Fatalf("chord = %+v, want Key=s Modifiers=[ctrl shift]", c)
	}
}
