package gpio

import "github.com/sweeney/pinscribe/internal/pins"

// FakeBackend is a test double with settable input levels and a manual clock.
type FakeBackend struct {
	// Now is the value returned by NowMillis. Delay advances it.
	Now pins.Millis

	// Levels holds the level ReadDigital returns for each pin.
	// WriteDigital also updates it, like reading back a driven output.
	Levels [pins.NumPins]pins.Level

	// Modes holds the last mode configured for each pin.
	Modes [pins.NumPins]pins.Mode

	// Configured tracks which pins had ConfigureMode called.
	Configured [pins.NumPins]bool

	// Analog holds the value ReadAnalog returns; WriteAnalog sets it.
	Analog [pins.NumPins]int

	// Writes records every WriteDigital call in order.
	Writes []Write

	// AnalogWrites records every WriteAnalog call in order.
	AnalogWrites []AnalogWrite

	// Delays records every Delay call.
	Delays []pins.Millis

	// Reads counts ReadDigital calls.
	Reads int

	// Closed tracks if Close was called.
	Closed bool
}

// Write is one recorded WriteDigital call.
type Write struct {
	Pin   int
	Level pins.Level
	At    pins.Millis
}

// AnalogWrite is one recorded WriteAnalog call.
type AnalogWrite struct {
	Pin   int
	Value int
}

// NewFakeBackend creates a FakeBackend whose clock starts at now and whose
// inputs all idle released (HIGH).
func NewFakeBackend(now pins.Millis) *FakeBackend {
	f := &FakeBackend{Now: now}
	for i := range f.Levels {
		f.Levels[i] = pins.Released
	}
	return f
}

// ConfigureMode records the mode.
func (f *FakeBackend) ConfigureMode(pin int, mode pins.Mode) {
	f.Modes[pin] = mode
	f.Configured[pin] = true
}

// WriteDigital records the write and updates the pin level.
func (f *FakeBackend) WriteDigital(pin int, level pins.Level) {
	f.Writes = append(f.Writes, Write{Pin: pin, Level: level, At: f.Now})
	f.Levels[pin] = level
}

// ReadDigital returns the scripted level.
func (f *FakeBackend) ReadDigital(pin int) pins.Level {
	f.Reads++
	return f.Levels[pin]
}

// ReadAnalog returns the scripted analog value.
func (f *FakeBackend) ReadAnalog(pin int) int {
	return f.Analog[pin]
}

// WriteAnalog records the write.
func (f *FakeBackend) WriteAnalog(pin int, value int) {
	f.AnalogWrites = append(f.AnalogWrites, AnalogWrite{Pin: pin, Value: value})
	f.Analog[pin] = value
}

// NowMillis returns Now.
func (f *FakeBackend) NowMillis() pins.Millis {
	return f.Now
}

// Delay advances the clock by d without sleeping.
func (f *FakeBackend) Delay(d pins.Millis) {
	f.Delays = append(f.Delays, d)
	f.Now += d
}

// Set changes the level an input reads.
func (f *FakeBackend) Set(pin int, level pins.Level) {
	f.Levels[pin] = level
}

// Advance moves the clock forward. It wraps like the hardware counter.
func (f *FakeBackend) Advance(d pins.Millis) {
	f.Now += d
}

// LastWrite returns the most recent level written to pin.
func (f *FakeBackend) LastWrite(pin int) (pins.Level, bool) {
	for i := len(f.Writes) - 1; i >= 0; i-- {
		if f.Writes[i].Pin == pin {
			return f.Writes[i].Level, true
		}
	}
	return pins.Low, false
}

// Close marks the backend as closed.
func (f *FakeBackend) Close() error {
	f.Closed = true
	return nil
}

// Reset clears recorded calls. Levels and the clock are kept.
func (f *FakeBackend) Reset() {
	f.Writes = nil
	f.AnalogWrites = nil
	f.Delays = nil
	f.Reads = 0
	f.Closed = false
}
