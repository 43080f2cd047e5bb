package logic

import (
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/sweeney/pinscribe/internal/pins"
)

// Watcher polls a Monitor for the configured gestures and drives outputs.
// Like the Monitor, it must only be used from one goroutine.
type Watcher struct {
	monitor       *pins.Monitor
	inputs        []PinWatch
	outputs       map[int]Output
	blinkers      map[int]*pins.Blinker
	held          [pins.NumPins]bool
	counts        map[int]GestureCounts
	startTime     time.Time
	lastHeartbeat time.Time
}

// NewWatcher configures the pins on the monitor and returns a Watcher.
// The startTime is used for calculating uptime in heartbeat events.
func NewWatcher(m *pins.Monitor, inputs []PinWatch, outputs []Output, startTime time.Time) *Watcher {
	w := &Watcher{
		monitor:       m,
		inputs:        inputs,
		outputs:       make(map[int]Output, len(outputs)),
		blinkers:      make(map[int]*pins.Blinker),
		counts:        make(map[int]GestureCounts),
		startTime:     startTime,
		lastHeartbeat: startTime,
	}

	for _, in := range inputs {
		m.Configure(in.Pin, pins.ModeInput)
	}
	for _, out := range outputs {
		m.Configure(out.Pin, pins.ModeOutput)
		w.outputs[out.Pin] = out
		if out.BlinkOn > 0 {
			w.blinkers[out.Pin] = pins.NewBlinker(m, out.Pin, out.BlinkOn, out.BlinkOff)
		}
	}
	return w
}

// Poll samples every watched input once and returns the gestures that fired,
// in input order. Bindings run as their gesture fires. Blinking outputs are
// advanced afterwards.
func (w *Watcher) Poll(now time.Time) []Event {
	var events []Event

	for _, in := range w.inputs {
		for _, g := range w.pollInput(in) {
			events = append(events, Event{
				Timestamp: now,
				Pin:       in.Pin,
				Name:      in.Name,
				Gesture:   g,
				Level:     g.level(),
			})
			c := w.counts[in.Pin]
			c.add(g)
			w.counts[in.Pin] = c
			w.runBindings(in, g)
		}
	}

	for _, pin := range w.blinkingPins() {
		w.blinkers[pin].Poll()
	}

	return events
}

// pollInput runs the monitor's detectors for one input and returns the
// gestures that fired.
//
// OnPress and OnRelease fire on every settled poll; they are folded into one
// PRESS per hold and one RELEASE after it. Both run whenever either gesture
// is wanted so the hold state stays right.
func (w *Watcher) pollInput(in PinWatch) []Gesture {
	var fired []Gesture
	emit := func(g Gesture) func() {
		return func() { fired = append(fired, g) }
	}

	if hasGesture(in, GestureLongPress) {
		w.monitor.OnLongPress(in.Pin, emit(GestureLongPress), in.LongPressDuration)
	}
	if hasGesture(in, GestureDoublePress) {
		w.monitor.OnDoublePress(in.Pin, emit(GestureDoublePress), in.DoublePressTimeout)
	}

	wantPress := hasGesture(in, GesturePress)
	wantRelease := hasGesture(in, GestureRelease)
	if wantPress || wantRelease {
		w.monitor.OnPress(in.Pin, func() {
			if w.held[in.Pin] {
				return
			}
			w.held[in.Pin] = true
			if wantPress {
				fired = append(fired, GesturePress)
			}
		})
		w.monitor.OnRelease(in.Pin, func() {
			if !w.held[in.Pin] {
				return
			}
			w.held[in.Pin] = false
			if wantRelease {
				fired = append(fired, GestureRelease)
			}
		})
	}

	return fired
}

func hasGesture(in PinWatch, g Gesture) bool {
	for _, want := range in.Gestures {
		if want == g {
			return true
		}
	}
	return false
}

func (w *Watcher) runBindings(in PinWatch, g Gesture) {
	for _, b := range in.Bindings {
		if b.Gesture != g {
			continue
		}
		if err := w.Apply(Command{Pin: b.Target, Action: b.Action}); err != nil {
			log.Printf("binding: pin %d %s: %v", in.Pin, g, err)
		}
	}
}

// Apply runs an action on a configured output. Any action stops blinking.
func (w *Watcher) Apply(cmd Command) error {
	if _, ok := w.outputs[cmd.Pin]; !ok {
		return fmt.Errorf("pin %d is not a configured output", cmd.Pin)
	}

	switch cmd.Action {
	case ActionToggle, ActionHigh, ActionLow, ActionSave, ActionRestore:
	default:
		return fmt.Errorf("unknown action %q", cmd.Action)
	}

	if b, ok := w.blinkers[cmd.Pin]; ok {
		b.Stop()
		delete(w.blinkers, cmd.Pin)
	}

	switch cmd.Action {
	case ActionToggle:
		w.monitor.Toggle(cmd.Pin)
	case ActionHigh:
		w.monitor.SetLevel(cmd.Pin, pins.High)
	case ActionLow:
		w.monitor.SetLevel(cmd.Pin, pins.Low)
	case ActionSave:
		w.monitor.SaveState(cmd.Pin)
	case ActionRestore:
		w.monitor.RestoreState(cmd.Pin)
	}
	return nil
}

func (w *Watcher) blinkingPins() []int {
	out := make([]int, 0, len(w.blinkers))
	for pin := range w.blinkers {
		out = append(out, pin)
	}
	sort.Ints(out)
	return out
}

// EventCountsSnapshot returns a copy of the per-pin gesture counts.
func (w *Watcher) EventCountsSnapshot() map[int]GestureCounts {
	out := make(map[int]GestureCounts, len(w.counts))
	for pin, c := range w.counts {
		out[pin] = c
	}
	return out
}

// PinStates returns the state of every configured pin, ordered by pin.
func (w *Watcher) PinStates() []PinState {
	states := make([]PinState, 0, len(w.inputs)+len(w.outputs))

	for _, in := range w.inputs {
		r := w.monitor.Record(in.Pin)
		states = append(states, PinState{
			Pin:            in.Pin,
			Name:           in.Name,
			Mode:           pins.ModeInput,
			Input:          w.monitor.ReadLevel(in.Pin),
			Held:           w.held[in.Pin],
			LongPressFired: r.LongPressFired,
		})
	}
	for _, out := range w.outputs {
		r := w.monitor.Record(out.Pin)
		_, blinking := w.blinkers[out.Pin]
		states = append(states, PinState{
			Pin:      out.Pin,
			Name:     out.Name,
			Mode:     pins.ModeOutput,
			Output:   r.OutputState,
			Saved:    r.SavedState,
			Blinking: blinking,
		})
	}

	sort.Slice(states, func(i, j int) bool { return states[i].Pin < states[j].Pin })
	return states
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if the interval has not elapsed,
// or if interval is <= 0 (disabled).
func (w *Watcher) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}

	if now.Sub(w.lastHeartbeat) < interval {
		return nil
	}

	w.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(w.startTime),
		Counts:    w.EventCountsSnapshot(),
	}
}
