//go:build linux

package gpio

import (
	"fmt"
	"log"

	"github.com/racerxdl/go-mcp23017"

	"github.com/sweeney/pinscribe/internal/pins"
)

// McpBackend drives the 16 pins of an MCP23017 I2C expander. Monitor pin
// index n is expander pin n (GPA0..7 = 0..7, GPB0..7 = 8..15).
type McpBackend struct {
	clock
	noAnalog

	device  *mcp23017.Device
	outputs [pins.NumPins]bool
}

// NewMcpBackend opens the expander at the given bus and device number.
func NewMcpBackend(bus, devNum uint8) (*McpBackend, error) {
	device, err := mcp23017.Open(bus, devNum)
	if err != nil {
		return nil, fmt.Errorf("open mcp23017 (bus %d, device %d): %w", bus, devNum, err)
	}
	return &McpBackend{
		clock:    newClock(),
		noAnalog: noAnalog{name: KindMcp},
		device:   device,
	}, nil
}

// ConfigureMode sets the pin direction. Inputs get the pull-up.
func (m *McpBackend) ConfigureMode(pin int, mode pins.Mode) {
	p := uint8(pin)
	if mode == pins.ModeOutput {
		if err := m.device.PinMode(p, mcp23017.OUTPUT); err != nil {
			log.Printf("gpio: configure pin %d as output: %v", pin, err)
			return
		}
		m.outputs[pin] = true
		m.WriteDigital(pin, pins.Low)
		return
	}

	if err := m.device.PinMode(p, mcp23017.INPUT); err != nil {
		log.Printf("gpio: configure pin %d as input: %v", pin, err)
		return
	}
	if err := m.device.SetPullUp(p, true); err != nil {
		log.Printf("gpio: pull-up pin %d: %v", pin, err)
	}
	m.outputs[pin] = false
}

// WriteDigital drives the pin.
func (m *McpBackend) WriteDigital(pin int, level pins.Level) {
	if err := m.device.DigitalWrite(uint8(pin), mcp23017.PinLevel(level == pins.High)); err != nil {
		log.Printf("gpio: write pin %d: %v", pin, err)
	}
}

// ReadDigital reads the pin. Failures read as released.
func (m *McpBackend) ReadDigital(pin int) pins.Level {
	v, err := m.device.DigitalRead(uint8(pin))
	if err != nil {
		log.Printf("gpio: read pin %d: %v", pin, err)
		return pins.Released
	}
	if bool(v) {
		return pins.High
	}
	return pins.Low
}

// Close drives outputs low and closes the I2C device.
func (m *McpBackend) Close() error {
	for pin, out := range m.outputs {
		if out {
			m.WriteDigital(pin, pins.Low)
		}
	}
	if err := m.device.Close(); err != nil {
		return fmt.Errorf("close mcp23017: %w", err)
	}
	return nil
}
