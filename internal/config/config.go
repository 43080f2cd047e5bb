// Package config loads the pin layout file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/pinscribe/internal/gpio"
	"github.com/sweeney/pinscribe/internal/logic"
	"github.com/sweeney/pinscribe/internal/pins"
)

// File is the top-level layout file.
type File struct {
	// Backend is one of the gpio.Kind* names.
	Backend string `yaml:"backend"`
	// Chip is the GPIO character device for the gpiocdev backend.
	Chip string `yaml:"chip,omitempty"`
	I2C  I2C    `yaml:"i2c,omitempty"`
	Pins []Pin  `yaml:"pins"`
}

// I2C locates an MCP23017 expander.
type I2C struct {
	Bus     uint8 `yaml:"bus"`
	Address uint8 `yaml:"address"`
}

// Pin is one monitor slot.
type Pin struct {
	Index int    `yaml:"index"`
	Name  string `yaml:"name"`
	Mode  string `yaml:"mode"`
	// Line is the hardware line (BCM number). Defaults to Index.
	Line *int `yaml:"line,omitempty"`

	// Inputs only.
	Gestures             []string  `yaml:"gestures,omitempty"`
	DoublePressTimeoutMs uint32    `yaml:"double_press_timeout_ms,omitempty"`
	LongPressMs          uint32    `yaml:"long_press_ms,omitempty"`
	Bindings             []Binding `yaml:"bindings,omitempty"`

	// Outputs only.
	Blink *Blink `yaml:"blink,omitempty"`
}

// Binding runs an action on an output when a gesture fires.
type Binding struct {
	Gesture string `yaml:"gesture"`
	Action  string `yaml:"action"`
	Target  int    `yaml:"target"`
}

// Blink makes an output blink until an action is applied to it.
type Blink struct {
	OnMs  uint32 `yaml:"on_ms"`
	OffMs uint32 `yaml:"off_ms"`
}

// Load reads and validates a layout file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse decodes and validates a layout. Unknown keys are rejected.
func Parse(data []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Default is a single button on BCM 17 with every gesture, toggling an LED
// on BCM 27 on double press.
func Default() *File {
	buttonLine, ledLine := 17, 27
	return &File{
		Backend: gpio.KindChip,
		Chip:    gpio.DefaultChip,
		Pins: []Pin{
			{
				Index:    0,
				Name:     "button",
				Mode:     "input",
				Line:     &buttonLine,
				Gestures: []string{"press", "release", "double_press", "long_press"},
				Bindings: []Binding{{Gesture: "double_press", Action: "toggle", Target: 1}},
			},
			{Index: 1, Name: "led", Mode: "output", Line: &ledLine},
		},
	}
}

// Validate checks the layout. All problems are reported together.
func (f *File) Validate() error {
	var errs []error

	switch f.Backend {
	case gpio.KindChip, gpio.KindRpio, gpio.KindMcp, gpio.KindFake:
	default:
		errs = append(errs, fmt.Errorf("unknown backend %q", f.Backend))
	}

	modes := make(map[int]pins.Mode)
	for _, p := range f.Pins {
		if !pins.ValidPin(p.Index) {
			errs = append(errs, fmt.Errorf("pin %d: index out of range [0, %d)", p.Index, pins.NumPins))
			continue
		}
		if _, dup := modes[p.Index]; dup {
			errs = append(errs, fmt.Errorf("pin %d: defined more than once", p.Index))
			continue
		}
		mode, err := pins.ParseMode(p.Mode)
		if err != nil {
			errs = append(errs, fmt.Errorf("pin %d: %w", p.Index, err))
			continue
		}
		modes[p.Index] = mode
		if p.Line != nil && *p.Line < 0 {
			errs = append(errs, fmt.Errorf("pin %d: negative line %d", p.Index, *p.Line))
		}
	}

	for _, p := range f.Pins {
		mode, ok := modes[p.Index]
		if !ok {
			continue
		}
		if mode == pins.ModeOutput {
			if len(p.Gestures) > 0 || len(p.Bindings) > 0 {
				errs = append(errs, fmt.Errorf("pin %d: gestures and bindings need an input", p.Index))
			}
			if p.Blink != nil && p.Blink.OnMs == 0 {
				errs = append(errs, fmt.Errorf("pin %d: blink on_ms must be positive", p.Index))
			}
			continue
		}

		if p.Blink != nil {
			errs = append(errs, fmt.Errorf("pin %d: blink needs an output", p.Index))
		}
		for _, g := range p.Gestures {
			if _, err := logic.ParseGesture(g); err != nil {
				errs = append(errs, fmt.Errorf("pin %d: %w", p.Index, err))
			}
		}
		enabled := make(map[logic.Gesture]bool, len(p.Gestures))
		for _, g := range p.Gestures {
			if gesture, err := logic.ParseGesture(g); err == nil {
				enabled[gesture] = true
			}
		}
		for _, b := range p.Bindings {
			gesture, err := logic.ParseGesture(b.Gesture)
			if err != nil {
				errs = append(errs, fmt.Errorf("pin %d binding: %w", p.Index, err))
			} else if !enabled[gesture] {
				errs = append(errs, fmt.Errorf("pin %d binding: gesture %s not enabled on this pin", p.Index, b.Gesture))
			}
			if _, err := logic.ParseAction(b.Action); err != nil {
				errs = append(errs, fmt.Errorf("pin %d binding: %w", p.Index, err))
			}
			if m, ok := modes[b.Target]; !ok || m != pins.ModeOutput {
				errs = append(errs, fmt.Errorf("pin %d binding: target %d is not an output", p.Index, b.Target))
			}
		}
	}

	return errors.Join(errs...)
}

// Lines maps pin index to hardware line.
func (f *File) Lines() map[int]int {
	lines := make(map[int]int, len(f.Pins))
	for _, p := range f.Pins {
		if p.Line != nil {
			lines[p.Index] = *p.Line
		} else {
			lines[p.Index] = p.Index
		}
	}
	return lines
}

// GPIOOptions returns the backend options for gpio.Open.
func (f *File) GPIOOptions() gpio.Options {
	return gpio.Options{
		Kind:    f.Backend,
		Chip:    f.Chip,
		Lines:   f.Lines(),
		I2CBus:  f.I2C.Bus,
		I2CAddr: f.I2C.Address,
	}
}

// Watches converts the input pins for logic.NewWatcher.
// The file must have passed Validate.
func (f *File) Watches() []logic.PinWatch {
	var out []logic.PinWatch
	for _, p := range f.Pins {
		if p.Mode != "input" {
			continue
		}
		w := logic.PinWatch{
			Pin:                p.Index,
			Name:               p.Name,
			DoublePressTimeout: pins.Millis(p.DoublePressTimeoutMs),
			LongPressDuration:  pins.Millis(p.LongPressMs),
		}
		for _, g := range p.Gestures {
			gesture, _ := logic.ParseGesture(g)
			w.Gestures = append(w.Gestures, gesture)
		}
		for _, b := range p.Bindings {
			gesture, _ := logic.ParseGesture(b.Gesture)
			action, _ := logic.ParseAction(b.Action)
			w.Bindings = append(w.Bindings, logic.Binding{Gesture: gesture, Action: action, Target: b.Target})
		}
		out = append(out, w)
	}
	return out
}

// Outputs converts the output pins for logic.NewWatcher.
func (f *File) Outputs() []logic.Output {
	var out []logic.Output
	for _, p := range f.Pins {
		if p.Mode != "output" {
			continue
		}
		o := logic.Output{Pin: p.Index, Name: p.Name}
		if p.Blink != nil {
			o.BlinkOn = pins.Millis(p.Blink.OnMs)
			o.BlinkOff = pins.Millis(p.Blink.OffMs)
		}
		out = append(out, o)
	}
	return out
}
