package planner

import (
	"testing"

	"github.com/pulsewatch/agent/internal/action"
	"github.com/pulsewatch/agent/internal/predictor"
)

func intPtr(i int) *int { return &i }

func TestTranslateLegacyClick(t *testing.T) {
	resp := &predictor.Response{
		Action:      "CLICK",
		Coordinates: &predictor.Coordinates{X: 100, Y: 200},
	}
	plan := Translate(resp)
	if len(plan) != 1 {
		t.Fatalf("plan len = %d, want 1", len(plan))
	}
	c, ok := plan[0].(action.Click)
	if !ok {
		t.Fatalf("plan[0] type = %T, want Click", plan[0])
	}
	x, y := c.Region.Center()
	if x != 100 || y != 200 {
		t.Fatalf("region center = (%d,%d), want (100,200)", x, y)
	}
}

func TestTranslateLegacyUnknownVerbFallsBackToClick(t *testing.T) {
	resp := &predictor.Response{
		Action:      "FROBNICATE",
		Coordinates: &predictor.Coordinates{X: 1, Y: 1},
	}
	plan := Translate(resp)
	if len(plan) != 1 {
		t.Fatalf("plan len = %d, want 1", len(plan))
	}
	if _, ok := plan[0].(action.Click); !ok {
		t.Fatalf("plan[0] type = %T, want Click (permissive fallback)", plan[0])
	}
}

func TestTranslateArrayDragMissingRegionDropped(t *testing.T) {
	resp := &predictor.Response{
		Actions: []predictor.CloudAction{
			{Type: "drag", SourceRegion: &predictor.Region{X: 0, Y: 0, Width: 10, Height: 10}},
			{Type: "click", X: intPtr(5), Y: intPtr(5)},
		},
	}
	plan := Translate(resp)
	if len(plan) != 1 {
		t.Fatalf("plan len = %d, want 1 (drag step dropped)", len(plan))
	}
	if _, ok := plan[0].(action.Click); !ok {
		t.Fatalf("surviving step type = %T, want Click", plan[0])
	}
}

func TestTranslateArrayUnknownVerbDropped(t *testing.T) {
	resp := &predictor.Response{
		Actions: []predictor.CloudAction{
			{Type: "teleport"},
			{Type: "scroll", Direction: "up", Amount: 5},
		},
	}
	plan := Translate(resp)
	if len(plan) != 1 {
		t.Fatalf("plan len = %d, want 1", len(plan))
	}
	s, ok := plan[0].(action.Scroll)
	if !ok || s.Direction != "up" || s.Amount != 5 {
		t.Fatalf("surviving step = %+v", plan[0])
	}
}

func TestTranslateArrayCaseInsensitiveVerb(t *testing.T) {
	resp := &predictor.Response{
		Actions: []predictor.CloudAction{{Type: "CLICK", X: intPtr(1), Y: intPtr(1)}},
	}
	plan := Translate(resp)
	if len(plan) != 1 {
		t.Fatalf("plan len = %d, want 1", len(plan))
	}
	if _, ok := plan[0].(action.Click); !ok {
		t.Fatalf("plan[0] type = %T, want Click", plan[0])
	}
}

func TestTranslateNilResponse(t *testing.T) {
	if plan := Translate(nil); plan != nil {
		t.Fatalf("expected nil plan for nil response, got %v", plan)
	}
}

func TestTranslateScrollDefaults(t *testing.T) {
	resp := &predictor.Response{
		Actions: []predictor.CloudAction{{Type: "scroll"}},
	}
	plan := Translate(resp)
	s := plan[0].(action.Scroll)
	if s.Direction != "down" || s.Amount != 3 {
		t.Fatalf("scroll defaults = %+v, want down/3", s)
	}
}
