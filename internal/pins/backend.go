// Package pins tracks per-pin logical state for up to 16 GPIO pins,
// debounces noisy inputs and recognizes press, release, double-press and
// long-press patterns by polling.
//
// This package has NO hardware dependencies. All hardware effects and all
// time go through a Backend, so tests drive it with a fake clock.
package pins

import "fmt"

// Level is a digital pin level.
type Level uint8

const (
	Low  Level = 0
	High Level = 1
)

// Buttons are active-low: idle HIGH through the pull-up, LOW while held.
const (
	Pressed  = Low
	Released = High
)

// Not returns the opposite level.
func (l Level) Not() Level {
	if l == Low {
		return High
	}
	return Low
}

func (l Level) String() string {
	if l == Low {
		return "LOW"
	}
	return "HIGH"
}

// Mode is the direction a pin is configured for.
type Mode uint8

const (
	// ModeInput is an input with the internal pull-up enabled (idle HIGH).
	ModeInput Mode = iota
	// ModeOutput is a driven output.
	ModeOutput
)

func (m Mode) String() string {
	switch m {
	case ModeInput:
		return "input"
	case ModeOutput:
		return "output"
	}
	return fmt.Sprintf("mode(%d)", uint8(m))
}

// ParseMode converts "input" or "output" to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "input":
		return ModeInput, nil
	case "output":
		return ModeOutput, nil
	}
	return 0, fmt.Errorf("unknown pin mode %q", s)
}

// Millis is a millisecond timestamp or duration from a free-running counter.
// It is 32 bits wide and wraps; use Since for elapsed time so the result
// stays correct across rollover.
type Millis uint32

// Since returns the time elapsed from earlier to t, modulo 2^32.
func (t Millis) Since(earlier Millis) Millis {
	return t - earlier
}

// Backend is the hardware the monitor drives. Implementations report
// failures out of band (logging); the polling API has no error returns.
type Backend interface {
	// ConfigureMode sets the pin direction. ModeInput enables the pull-up.
	ConfigureMode(pin int, mode Mode)
	WriteDigital(pin int, level Level)
	ReadDigital(pin int) Level
	ReadAnalog(pin int) int
	WriteAnalog(pin int, value int)
	// NowMillis returns a monotonic millisecond counter that wraps at 2^32.
	NowMillis() Millis
	// Delay blocks the caller for d milliseconds.
	Delay(d Millis)
}
