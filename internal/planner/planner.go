// Package planner implements the PlanTranslator: normalizing a raw
// predictor Response into an ordered, finite ActionPlan.
package planner

import (
	"strings"

	"github.com/pulsewatch/agent/internal/action"
	"github.com/pulsewatch/agent/internal/frame"
	"github.com/pulsewatch/agent/internal/logging"
	"github.com/pulsewatch/agent/internal/predictor"
)

var log = logging.L("planner")

// syntheticWidth/syntheticHeight are the fixed dimensions of the Region
// built around a bare (x, y) coordinate pair.
const (
	syntheticWidth  = 50
	syntheticHeight = 30
)

// ActionPlan is an ordered, finite sequence of Actions. An empty plan is
// valid but is never executed.
type ActionPlan []action.Action

// Translate normalizes a predictor response into an ActionPlan. Both the
// legacy single-action form and the array form are accepted; verb
// comparison is case-insensitive.
func Translate(resp *predictor.Response) ActionPlan {
	if resp == nil {
		return nil
	}
	if len(resp.Actions) > 0 {
		return translateArray(resp.Actions)
	}
	if resp.Action != "" && resp.Coordinates != nil {
		return translateLegacy(resp)
	}
	return nil
}

func syntheticRegion(x, y int) frame.Region {
	return frame.Region{
		X:      x - syntheticWidth/2,
		Y:      y - syntheticHeight/2,
		Width:  syntheticWidth,
		Height: syntheticHeight,
	}
}

func translateLegacy(resp *predictor.Response) ActionPlan {
	region := syntheticRegion(resp.Coordinates.X, resp.Coordinates.Y)

	switch strings.ToUpper(resp.Action) {
	case "CLICK":
		return ActionPlan{action.Click{Region: region}}
	case "RIGHT_CLICK":
		return ActionPlan{action.RightClick{Region: region}}
	case "DOUBLE_CLICK":
		return ActionPlan{action.DoubleClick{Region: region}}
	case "TYPE":
		return ActionPlan{action.TypeText{Text: ""}}
	case "SCROLL_UP":
		return ActionPlan{action.Scroll{Region: region, Direction: "up", Amount: 3}}
	case "SCROLL_DOWN":
		return ActionPlan{action.Scroll{Region: region, Direction: "down", Amount: 3}}
	default:
		// Permissive fallback, preserved as-is even though it is
		// possibly-buggy behavior from the source system.
		return ActionPlan{action.Click{Region: region}}
	}
}

func translateArray(entries []predictor.CloudAction) ActionPlan {
	plan := make(ActionPlan, 0, len(entries))
	for _, e := range entries {
		a, ok := translateEntry(e)
		if !ok {
			continue
		}
		plan = append(plan, a)
	}
	return plan
}

func regionOf(e predictor.CloudAction) (frame.Region, bool) {
	if e.X != nil && e.Y != nil {
		return syntheticRegion(*e.X, *e.Y), true
	}
	if e.Region != nil {
		return frame.Region{X: e.Region.X, Y: e.Region.Y, Width: e.Region.Width, Height: e.Region.Height}, true
	}
	return frame.Region{}, false
}

func translateEntry(e predictor.CloudAction) (action.Action, bool) {
	switch strings.ToLower(e.Type) {
	case "click":
		r, _ := regionOf(e)
		return action.Click{Region: r}, true
	case "right_click":
		r, _ := regionOf(e)
		return action.RightClick{Region: r}, true
	case "double_click":
		r, _ := regionOf(e)
		return action.DoubleClick{Region: r}, true
	case "type":
		return action.TypeText{Text: e.Text}, true
	case "key":
		return action.KeyChord{Keys: e.Keys}, true
	case "drag":
		if e.SourceRegion == nil || e.TargetRegion == nil {
			log.Warn("drag entry missing source or target region, dropping step")
			return nil, false
		}
		return action.Drag{
			Source: frame.Region{X: e.SourceRegion.X, Y: e.SourceRegion.Y, Width: e.SourceRegion.Width, Height: e.SourceRegion.Height},
			Target: frame.Region{X: e.TargetRegion.X, Y: e.TargetRegion.Y, Width: e.TargetRegion.Width, Height: e.TargetRegion.Height},
		}, true
	case "scroll":
		direction := e.Direction
		if direction == "" {
			direction = "down"
		}
		amount := e.Amount
		if amount == 0 {
			amount = 3
		}
		r, _ := regionOf(e)
		return action.Scroll{Region: r, Direction: direction, Amount: amount}, true
	default:
		log.Warn("unknown action verb, dropping step", "type", e.Type)
		return nil, false
	}
}
