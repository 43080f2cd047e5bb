package pins

import "fmt"

// NumPins is the number of pin slots in a Monitor.
const NumPins = 16

// Default timings.
const (
	PressDebounce             Millis = 50
	DefaultDoublePressTimeout Millis = 500
	DefaultLongPressDuration  Millis = 3000
)

// Record is the bookkeeping kept for one pin.
type Record struct {
	// Last level commanded through SetLevel (outputs)
	OutputState Level
	// Snapshot of OutputState taken by SaveState
	SavedState Level
	// Time of the last raw level change seen by Debounce
	LastDebounceTime Millis
	// Previous raw sample seen by Debounce
	LastReading Level
	// Level seen on the previous OnDoublePress poll; also the value
	// Debounce falls back to while the input is unsettled
	LastStableState Level
	// Time of the first press of a candidate double press (0 = none)
	LastPressTime Millis
	// Time the current press began (0 = not pressed)
	PressStartTime Millis
	// Whether the long-press callback already ran for this press
	LongPressFired bool
}

func newRecord() Record {
	return Record{
		OutputState:     Low,
		SavedState:      Low,
		LastReading:     Released,
		LastStableState: Released,
	}
}

// Monitor is a fixed registry of NumPins records driven by polling calls.
// It is not safe for concurrent use: every call for every pin must come from
// the same goroutine, in increasing time order.
//
// Pin arguments must be in [0, NumPins). Out-of-range pins panic.
type Monitor struct {
	backend Backend
	records [NumPins]Record
}

// NewMonitor creates a Monitor with all records in their idle state.
func NewMonitor(backend Backend) *Monitor {
	m := &Monitor{backend: backend}
	for i := range m.records {
		m.records[i] = newRecord()
	}
	return m
}

// ValidPin reports whether pin is a usable index.
func ValidPin(pin int) bool {
	return pin >= 0 && pin < NumPins
}

func (m *Monitor) record(pin int) *Record {
	if !ValidPin(pin) {
		panic(fmt.Sprintf("pins: pin %d out of range [0, %d)", pin, NumPins))
	}
	return &m.records[pin]
}

// Record returns a copy of the pin's bookkeeping.
func (m *Monitor) Record(pin int) Record {
	return *m.record(pin)
}

// Configure sets the pin direction. Inputs get the pull-up; outputs have
// their recorded state reset to LOW.
func (m *Monitor) Configure(pin int, mode Mode) {
	r := m.record(pin)
	m.backend.ConfigureMode(pin, mode)
	if mode == ModeOutput {
		r.OutputState = Low
	}
}

// SetLevel drives the pin and records the level.
func (m *Monitor) SetLevel(pin int, level Level) {
	r := m.record(pin)
	m.backend.WriteDigital(pin, level)
	r.OutputState = level
}

// ReadLevel returns the instantaneous level without touching stored state.
func (m *Monitor) ReadLevel(pin int) Level {
	m.record(pin)
	return m.backend.ReadDigital(pin)
}

// ReadAnalog passes through to the backend.
func (m *Monitor) ReadAnalog(pin int) int {
	m.record(pin)
	return m.backend.ReadAnalog(pin)
}

// WriteAnalog passes through to the backend.
func (m *Monitor) WriteAnalog(pin int, value int) {
	m.record(pin)
	m.backend.WriteAnalog(pin, value)
}

// Toggle drives the pin to the opposite of its recorded output state.
func (m *Monitor) Toggle(pin int) {
	m.SetLevel(pin, m.record(pin).OutputState.Not())
}

// Blink drives the pin HIGH for on, then LOW for off.
//
// Blink blocks the calling goroutine for on+off milliseconds. Nothing else
// on the poll loop (debounce, long-press timing) runs meanwhile; use a
// Blinker from a poll loop instead.
func (m *Monitor) Blink(pin int, on, off Millis) {
	m.SetLevel(pin, High)
	m.backend.Delay(on)
	m.SetLevel(pin, Low)
	m.backend.Delay(off)
}

// SaveState snapshots the recorded output state.
func (m *Monitor) SaveState(pin int) {
	r := m.record(pin)
	r.SavedState = r.OutputState
}

// RestoreState drives the pin back to the level saved by SaveState.
func (m *Monitor) RestoreState(pin int) {
	m.SetLevel(pin, m.record(pin).SavedState)
}
