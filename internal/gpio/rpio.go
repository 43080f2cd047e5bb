//go:build linux

package gpio

import (
	"fmt"
	"log"

	"github.com/stianeikeland/go-rpio/v4"

	"github.com/sweeney/pinscribe/internal/pins"
)

// PWM settings for WriteAnalog. Values are 0..PWMRange like analogWrite.
const (
	PWMRange = 255
	pwmFreq  = 64000
)

// RpioBackend drives Raspberry Pi pins through the memory-mapped GPIO
// registers. It supports hardware PWM on PWM-capable pins for WriteAnalog.
type RpioBackend struct {
	clock

	offsets map[int]int
	outputs [pins.NumPins]bool
	pwm     [pins.NumPins]bool
	warned  [pins.NumPins]bool
}

// NewRpioBackend maps GPIO memory. offsets maps monitor pin index to BCM pin.
func NewRpioBackend(offsets map[int]int) (*RpioBackend, error) {
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("open rpio: %w", err)
	}
	return &RpioBackend{clock: newClock(), offsets: offsets}, nil
}

func (r *RpioBackend) pin(pin int) (rpio.Pin, bool) {
	bcm, ok := r.offsets[pin]
	if !ok {
		log.Printf("gpio: pin %d has no line mapping", pin)
		return 0, false
	}
	return rpio.Pin(bcm), true
}

// ConfigureMode sets the pin direction. Inputs get the pull-up.
func (r *RpioBackend) ConfigureMode(pin int, mode pins.Mode) {
	p, ok := r.pin(pin)
	if !ok {
		return
	}
	r.pwm[pin] = false
	if mode == pins.ModeOutput {
		p.Output()
		p.Low()
		r.outputs[pin] = true
		return
	}
	p.Input()
	p.PullUp()
	r.outputs[pin] = false
}

// WriteDigital drives the pin, leaving PWM mode if WriteAnalog was used.
func (r *RpioBackend) WriteDigital(pin int, level pins.Level) {
	p, ok := r.pin(pin)
	if !ok {
		return
	}
	if r.pwm[pin] {
		p.Output()
		r.pwm[pin] = false
	}
	if level == pins.High {
		p.High()
	} else {
		p.Low()
	}
}

// ReadDigital reads the pin level.
func (r *RpioBackend) ReadDigital(pin int) pins.Level {
	p, ok := r.pin(pin)
	if !ok {
		return pins.Released
	}
	if p.Read() == rpio.Low {
		return pins.Low
	}
	return pins.High
}

// ReadAnalog is not available: the Pi has no ADC.
func (r *RpioBackend) ReadAnalog(pin int) int {
	if !r.warned[pin] {
		r.warned[pin] = true
		log.Printf("gpio: %s: analog read not supported (pin %d)", KindRpio, pin)
	}
	return 0
}

// WriteAnalog switches the pin to hardware PWM and sets the duty cycle.
// value is clamped to 0..PWMRange.
func (r *RpioBackend) WriteAnalog(pin int, value int) {
	p, ok := r.pin(pin)
	if !ok {
		return
	}
	if value < 0 {
		value = 0
	}
	if value > PWMRange {
		value = PWMRange
	}
	if !r.pwm[pin] {
		p.Pwm()
		p.Freq(pwmFreq)
		r.pwm[pin] = true
	}
	p.DutyCycle(uint32(value), PWMRange)
}

// Close drives outputs low and unmaps GPIO memory.
func (r *RpioBackend) Close() error {
	for pin, out := range r.outputs {
		if !out {
			continue
		}
		if p, ok := r.pin(pin); ok {
			p.Output()
			p.Low()
		}
	}
	if err := rpio.Close(); err != nil {
		return fmt.Errorf("close rpio: %w", err)
	}
	return nil
}
