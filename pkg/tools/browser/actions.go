package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Action names the model may request.
const (
	ActionLeftClick   = "left_click"
	ActionDoubleClick = "double_click"
	ActionTripleClick = "triple_click"
	ActionRightClick  = "right_click"
	ActionHover       = "hover"
	ActionDrag        = "drag"
	ActionScroll      = "scroll"
	ActionType        = "type"
	ActionKeyPress    = "key_press"
	ActionGotoURL     = "goto_url"
	ActionGoBack      = "go_back"
	ActionRefresh     = "refresh"
	ActionWait        = "wait"
)

var supportedActions = map[string]bool{
	ActionLeftClick:   true,
	ActionDoubleClick: true,
	ActionTripleClick: true,
	ActionRightClick:  true,
	ActionHover:       true,
	ActionDrag:        true,
	ActionScroll:      true,
	ActionType:        true,
	ActionKeyPress:    true,
	ActionGotoURL:     true,
	ActionGoBack:      true,
	ActionRefresh:     true,
	ActionWait:        true,
}

// selectAllKey clears a focused field together with Backspace.
const selectAllKey = "ControlOrMeta+A"

var (
	// ErrUnsupportedAction is wrapped by UnsupportedActionError.
	ErrUnsupportedAction = errors.New("unsupported action")

	// ErrInvalidArguments reports a tool call whose arguments do not fit the action.
	ErrInvalidArguments = errors.New("invalid arguments")
)

// UnsupportedActionError is returned for action names outside the supported set.
type UnsupportedActionError struct {
	Name string
}

func (e *UnsupportedActionError) Error() string {
	return fmt.Sprintf("unsupported tool: %s", e.Name)
}

func (e *UnsupportedActionError) Unwrap() error {
	return ErrUnsupportedAction
}

// IsSupported reports whether name is an action Execute understands.
func IsSupported(name string) bool {
	return supportedActions[name]
}

// Execute performs one model-requested action on page. Arguments are
// validated before any primitive runs; driver errors are returned as-is
// with the action name for context.
func Execute(ctx context.Context, page Page, name string, args map[string]any, vp Viewport) error {
	if !IsSupported(name) {
		return &UnsupportedActionError{Name: name}
	}
	if args == nil {
		args = map[string]any{}
	}

	op, err := plan(name, args, vp)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if err := op(ctx, page); err != nil {
		return fmt.Errorf("%s failed: %w", name, err)
	}
	return nil
}

type operation func(ctx context.Context, page Page) error

// plan validates args and returns the primitive sequence for the action.
func plan(name string, args map[string]any, vp Viewport) (operation, error) {
	switch name {
	case ActionLeftClick, ActionDoubleClick, ActionTripleClick, ActionRightClick, ActionHover:
		x, y, err := point(args, "coordinates", vp)
		if err != nil {
			return nil, err
		}
		return pointerOp(name, x, y), nil

	case ActionDrag:
		sx, sy, err := point(args, "start_coordinates", vp)
		if err != nil {
			return nil, err
		}
		tx, ty, err := point(args, "coordinates", vp)
		if err != nil {
			return nil, err
		}
		return func(_ context.Context, p Page) error {
			if err := p.Move(sx, sy); err != nil {
				return err
			}
			if err := p.MouseDown(); err != nil {
				return err
			}
			if err := p.Move(tx, ty); err != nil {
				return err
			}
			return p.MouseUp()
		}, nil

	case ActionScroll:
		dx, dy, err := scrollDelta(args, vp)
		if err != nil {
			return nil, err
		}
		return func(_ context.Context, p Page) error {
			return p.Wheel(dx, dy)
		}, nil

	case ActionType:
		text, err := stringArg(args, "text")
		if err != nil {
			return nil, err
		}
		clearFirst := truthy(args["clear_before_typing"])
		enter := truthy(args["press_enter_after"])
		return func(_ context.Context, p Page) error {
			if clearFirst {
				if err := p.Press(selectAllKey); err != nil {
					return err
				}
				if err := p.Press("Backspace"); err != nil {
					return err
				}
			}
			if err := p.Type(text); err != nil {
				return err
			}
			if enter {
				return p.Press("Enter")
			}
			return nil
		}, nil

	case ActionKeyPress:
		combo, err := stringArg(args, "key_comb")
		if err != nil {
			return nil, err
		}
		return func(_ context.Context, p Page) error {
			return p.Press(combo)
		}, nil

	case ActionGotoURL:
		url, err := stringArg(args, "url")
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, p Page) error {
			return p.Goto(ctx, url)
		}, nil

	case ActionGoBack:
		return func(ctx context.Context, p Page) error { return p.GoBack(ctx) }, nil

	case ActionRefresh:
		return func(ctx context.Context, p Page) error { return p.Reload(ctx) }, nil

	case ActionWait:
		return func(ctx context.Context, p Page) error { return p.Wait(ctx, WaitDuration) }, nil
	}

	return nil, &UnsupportedActionError{Name: name}
}

func pointerOp(name string, x, y float64) operation {
	return func(_ context.Context, p Page) error {
		switch name {
		case ActionDoubleClick:
			return p.DoubleClick(x, y)
		case ActionTripleClick:
			return p.Click(x, y, ClickOptions{ClickCount: 3})
		case ActionRightClick:
			return p.Click(x, y, ClickOptions{Button: ButtonRight})
		case ActionHover:
			return p.Move(x, y)
		default:
			return p.Click(x, y, ClickOptions{})
		}
	}
}

func scrollDelta(args map[string]any, vp Viewport) (dx, dy float64, err error) {
	direction, err := stringArg(args, "direction")
	if err != nil {
		return 0, 0, err
	}
	raw, ok := args["amount"]
	if !ok {
		return 0, 0, fmt.Errorf("%w: missing amount", ErrInvalidArguments)
	}
	amount, ok := number(raw)
	if !ok {
		return 0, 0, fmt.Errorf("%w: amount must be a number, got %v", ErrInvalidArguments, raw)
	}
	amount = math.Trunc(amount)

	vertical := math.Round(ScrollFraction * float64(vp.Height) * amount)
	horizontal := math.Round(ScrollFraction * float64(vp.Width) * amount)

	switch direction {
	case "down":
		return 0, vertical, nil
	case "up":
		return 0, -vertical, nil
	case "right":
		return horizontal, 0, nil
	case "left":
		return -horizontal, 0, nil
	}
	return 0, 0, fmt.Errorf("%w: unknown scroll direction %q", ErrInvalidArguments, direction)
}

// point reads a [x, y] pair on the 1000 grid and maps it to pixels.
func point(args map[string]any, key string, vp Viewport) (float64, float64, error) {
	coord, err := coordinates(args, key)
	if err != nil {
		return 0, 0, err
	}
	x, y := toPixels(coord[0], coord[1], vp)
	return float64(x), float64(y), nil
}

func coordinates(args map[string]any, key string) ([2]float64, error) {
	raw, ok := args[key]
	if !ok {
		return [2]float64{}, fmt.Errorf("%w: missing %s", ErrInvalidArguments, key)
	}

	var items []any
	switch v := raw.(type) {
	case []any:
		items = v
	case []float64:
		items = []any{}
		for _, f := range v {
			items = append(items, f)
		}
	case []int:
		items = []any{}
		for _, n := range v {
			items = append(items, n)
		}
	case [2]int:
		return [2]float64{float64(v[0]), float64(v[1])}, nil
	default:
		return [2]float64{}, fmt.Errorf("%w: %s must be a [x, y] pair", ErrInvalidArguments, key)
	}

	if len(items) < 2 {
		return [2]float64{}, fmt.Errorf("%w: %s must be a [x, y] pair", ErrInvalidArguments, key)
	}

	var out [2]float64
	for i := 0; i < 2; i++ {
		f, ok := number(items[i])
		if !ok {
			return [2]float64{}, fmt.Errorf("%w: %s[%d] is not a number", ErrInvalidArguments, key, i)
		}
		out[i] = f
	}
	return out, nil
}

func stringArg(args map[string]any, key string) (string, error) {
	raw, ok := args[key]
	if !ok {
		return "", fmt.Errorf("%w: missing %s", ErrInvalidArguments, key)
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string", ErrInvalidArguments, key)
	}
	return s, nil
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

// truthy treats absent, false, zero and empty values as false.
func truthy(v any) bool {
	switch b := v.(type) {
	case nil:
		return false
	case bool:
		return b
	case string:
		return b != ""
	}
	if f, ok := number(v); ok {
		return f != 0
	}
	return true
}

// SummarizeArgs renders a one-line description of a tool call's arguments
// for the console.
func SummarizeArgs(name string, args map[string]any) string {
	if raw, ok := args["coordinates"]; ok {
		if items, ok := raw.([]any); ok && len(items) >= 2 {
			return fmt.Sprintf("(%v, %v)", items[0], items[1])
		}
		if coord, err := coordinates(args, "coordinates"); err == nil {
			return fmt.Sprintf("(%v, %v)", coord[0], coord[1])
		}
	}

	switch name {
	case ActionType:
		text, _ := args["text"].(string)
		runes := []rune(text)
		if len(runes) > 40 {
			text = string(runes[:40]) + "..."
		}
		return fmt.Sprintf(`text="%s"`, text)
	case ActionGotoURL:
		url, _ := args["url"].(string)
		return url
	case ActionScroll:
		direction, ok := args["direction"].(string)
		if !ok {
			direction = "down"
		}
		amount, ok := args["amount"]
		if !ok {
			amount = 1
		}
		return fmt.Sprintf("%s x%v", direction, amount)
	case ActionKeyPress:
		combo, _ := args["key_comb"].(string)
		return combo
	}
	return ""
}
