// Package gpio provides pin I/O backends for the pin monitor.
// The real implementations use the Linux GPIO character device, the
// Raspberry Pi GPIO registers or an MCP23017 I2C expander.
// The fake implementation allows testing without hardware.
package gpio

import (
	"fmt"
	"io"
	"log"
	"time"

	"github.com/sweeney/pinscribe/internal/pins"
)

// Backend kinds accepted by Open.
const (
	KindChip = "gpiocdev"
	KindRpio = "rpio"
	KindMcp  = "mcp23017"
	KindFake = "fake"
)

// DefaultChip is the GPIO character device used by KindChip.
const DefaultChip = "gpiochip0"

// Device is a backend that holds hardware resources.
type Device interface {
	pins.Backend
	io.Closer
}

// Options selects and configures a backend.
type Options struct {
	Kind string
	// Chip is the character device name for KindChip.
	Chip string
	// Lines maps monitor pin index to hardware line (BCM number for
	// KindChip and KindRpio). KindMcp ignores it: pin index = expander pin.
	Lines map[int]int
	// I2C bus and device number for KindMcp.
	I2CBus  uint8
	I2CAddr uint8
}

// Open creates the backend described by opts.
func Open(opts Options) (Device, error) {
	switch opts.Kind {
	case KindFake:
		return NewFakeBackend(0), nil
	case KindChip, KindRpio, KindMcp:
		return openHardware(opts)
	}
	return nil, fmt.Errorf("gpio: unknown backend %q", opts.Kind)
}

// clock is the wall-clock half of a hardware backend.
type clock struct {
	start time.Time
}

func newClock() clock {
	return clock{start: time.Now()}
}

// NowMillis returns milliseconds since the backend was opened, wrapping at 2^32.
func (c clock) NowMillis() pins.Millis {
	return pins.Millis(uint32(time.Since(c.start).Milliseconds()))
}

// Delay sleeps for d milliseconds.
func (c clock) Delay(d pins.Millis) {
	time.Sleep(time.Duration(d) * time.Millisecond)
}

// noAnalog is embedded by digital-only backends. It logs once per pin and
// direction instead of failing the poll loop.
type noAnalog struct {
	name        string
	warnedRead  [pins.NumPins]bool
	warnedWrite [pins.NumPins]bool
}

func (n *noAnalog) ReadAnalog(pin int) int {
	if !n.warnedRead[pin] {
		n.warnedRead[pin] = true
		log.Printf("gpio: %s: analog read not supported (pin %d)", n.name, pin)
	}
	return 0
}

func (n *noAnalog) WriteAnalog(pin int, value int) {
	if !n.warnedWrite[pin] {
		n.warnedWrite[pin] = true
		log.Printf("gpio: %s: analog write not supported (pin %d)", n.name, pin)
	}
}
