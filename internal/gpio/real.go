//go:build linux

package gpio

import (
	"fmt"
	"log"

	"github.com/warthog618/go-gpiocdev"

	"github.com/sweeney/pinscribe/internal/pins"
)

func openHardware(opts Options) (Device, error) {
	var (
		dev Device
		err error
	)
	switch opts.Kind {
	case KindChip:
		chip := opts.Chip
		if chip == "" {
			chip = DefaultChip
		}
		dev, err = NewChipBackend(chip, opts.Lines)
	case KindRpio:
		dev, err = NewRpioBackend(opts.Lines)
	case KindMcp:
		dev, err = NewMcpBackend(opts.I2CBus, opts.I2CAddr)
	default:
		return nil, fmt.Errorf("gpio: unknown backend %q", opts.Kind)
	}
	if err != nil {
		return nil, err
	}
	return dev, nil
}

// ChipBackend drives pins through the Linux GPIO character device.
// Lines are requested when a pin is first configured.
type ChipBackend struct {
	clock
	noAnalog

	chip    *gpiocdev.Chip
	offsets map[int]int
	lines   [pins.NumPins]*gpiocdev.Line
}

// NewChipBackend opens the named chip. offsets maps monitor pin index to
// line offset.
func NewChipBackend(chipName string, offsets map[int]int) (*ChipBackend, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	return &ChipBackend{
		clock:    newClock(),
		noAnalog: noAnalog{name: KindChip},
		chip:     chip,
		offsets:  offsets,
	}, nil
}

// ConfigureMode requests or reconfigures the line. Inputs get the pull-up,
// outputs start LOW.
func (c *ChipBackend) ConfigureMode(pin int, mode pins.Mode) {
	offset, ok := c.offsets[pin]
	if !ok {
		log.Printf("gpio: pin %d has no line mapping", pin)
		return
	}

	line := c.lines[pin]
	var err error
	switch {
	case mode == pins.ModeOutput && line == nil:
		line, err = c.chip.RequestLine(offset, gpiocdev.AsOutput(0))
	case mode == pins.ModeOutput:
		err = line.Reconfigure(gpiocdev.AsOutput(0))
	case line == nil:
		line, err = c.chip.RequestLine(offset, gpiocdev.AsInput, gpiocdev.WithPullUp)
	default:
		err = line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullUp)
	}
	if err != nil {
		log.Printf("gpio: configure pin %d (line %d) as %s: %v", pin, offset, mode, err)
		return
	}
	c.lines[pin] = line
}

// WriteDigital sets the line value.
func (c *ChipBackend) WriteDigital(pin int, level pins.Level) {
	line := c.lines[pin]
	if line == nil {
		log.Printf("gpio: write to unconfigured pin %d", pin)
		return
	}
	if err := line.SetValue(int(level)); err != nil {
		log.Printf("gpio: write pin %d: %v", pin, err)
	}
}

// ReadDigital returns the line value. Failures read as released.
func (c *ChipBackend) ReadDigital(pin int) pins.Level {
	line := c.lines[pin]
	if line == nil {
		return pins.Released
	}
	v, err := line.Value()
	if err != nil {
		log.Printf("gpio: read pin %d: %v", pin, err)
		return pins.Released
	}
	if v == 0 {
		return pins.Low
	}
	return pins.High
}

// Close releases GPIO resources.
// Lines are returned to plain inputs before closing so nothing stays driven
// after the process exits.
func (c *ChipBackend) Close() error {
	var errs []error

	for pin, line := range c.lines {
		if line == nil {
			continue
		}
		if err := line.Reconfigure(gpiocdev.AsInput); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure pin %d: %w", pin, err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pin %d: %w", pin, err))
		}
		c.lines[pin] = nil
	}
	if c.chip != nil {
		if err := c.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
