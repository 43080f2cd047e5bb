// Package logic turns pin monitor callbacks into gesture events.
// This package has NO hardware, MQTT, OS or time.Sleep dependencies.
// Wall time is always injectable via time.Time parameters.
package logic

import (
	"fmt"
	"strings"
	"time"

	"github.com/sweeney/pinscribe/internal/pins"
)

// Gesture is a recognized interaction on an input pin.
type Gesture string

const (
	GesturePress       Gesture = "PRESS"
	GestureRelease     Gesture = "RELEASE"
	GestureDoublePress Gesture = "DOUBLE_PRESS"
	GestureLongPress   Gesture = "LONG_PRESS"
)

// AllGestures lists every gesture in evaluation order.
var AllGestures = []Gesture{GestureLongPress, GestureDoublePress, GesturePress, GestureRelease}

// ParseGesture accepts "press", "double_press" etc. in any case.
func ParseGesture(s string) (Gesture, error) {
	g := Gesture(strings.ToUpper(s))
	for _, known := range AllGestures {
		if g == known {
			return g, nil
		}
	}
	return "", fmt.Errorf("unknown gesture %q", s)
}

// level returns the input level a gesture is reported with.
func (g Gesture) level() pins.Level {
	if g == GestureRelease {
		return pins.Released
	}
	return pins.Pressed
}

// Action is an operation on an output pin.
type Action string

const (
	ActionToggle  Action = "toggle"
	ActionHigh    Action = "high"
	ActionLow     Action = "low"
	ActionSave    Action = "save"
	ActionRestore Action = "restore"
)

// ParseAction accepts an action name in any case.
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToLower(s))
	switch a {
	case ActionToggle, ActionHigh, ActionLow, ActionSave, ActionRestore:
		return a, nil
	}
	return "", fmt.Errorf("unknown action %q", s)
}

// Binding runs Action on the Target output when Gesture fires.
type Binding struct {
	Gesture Gesture
	Action  Action
	Target  int
}

// Command is a request to run an action on an output pin.
type Command struct {
	Pin    int
	Action Action
}

// PinWatch describes an input pin and the gestures to recognize on it.
type PinWatch struct {
	Pin      int
	Name     string
	Gestures []Gesture
	// Zero selects the monitor defaults.
	DoublePressTimeout pins.Millis
	LongPressDuration  pins.Millis
	Bindings           []Binding
}

// Output describes an output pin. A non-zero BlinkOn makes it blink
// from the poll loop until an action is applied to it.
type Output struct {
	Pin      int
	Name     string
	BlinkOn  pins.Millis
	BlinkOff pins.Millis
}

// Event is a gesture to be published.
type Event struct {
	Timestamp time.Time
	Pin       int
	Name      string
	Gesture   Gesture
	Level     pins.Level
}

// GestureCounts tracks the number of each gesture since startup.
type GestureCounts struct {
	Press       int
	Release     int
	DoublePress int
	LongPress   int
}

// Total returns the sum of all counts.
func (c GestureCounts) Total() int {
	return c.Press + c.Release + c.DoublePress + c.LongPress
}

func (c *GestureCounts) add(g Gesture) {
	switch g {
	case GesturePress:
		c.Press++
	case GestureRelease:
		c.Release++
	case GestureDoublePress:
		c.DoublePress++
	case GestureLongPress:
		c.LongPress++
	}
}

// PinState is a point-in-time view of one configured pin.
type PinState struct {
	Pin  int
	Name string
	Mode pins.Mode
	// Instantaneous input level at snapshot time (inputs)
	Input pins.Level
	// Last commanded level and saved snapshot (outputs)
	Output pins.Level
	Saved  pins.Level
	// Held is true between a PRESS and the following RELEASE.
	Held           bool
	LongPressFired bool
	Blinking       bool
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    map[int]GestureCounts
}
