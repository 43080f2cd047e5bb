package gpio

import (
	"testing"

	"github.com/sweeney/pinscribe/internal/pins"
)

func TestFakeBackendIdleReleased(t *testing.T) {
	f := NewFakeBackend(0)

	for pin := 0; pin < pins.NumPins; pin++ {
		if got := f.ReadDigital(pin); got != pins.Released {
			t.Errorf("pin %d: expected idle %s, got %s", pin, pins.Released, got)
		}
	}
	if f.Reads != pins.NumPins {
		t.Errorf("expected %d reads, got %d", pins.NumPins, f.Reads)
	}
}

func TestFakeBackendSetAndRead(t *testing.T) {
	f := NewFakeBackend(0)

	f.Set(3, pins.Low)
	if got := f.ReadDigital(3); got != pins.Low {
		t.Errorf("expected LOW, got %s", got)
	}
	if got := f.ReadDigital(4); got != pins.High {
		t.Errorf("untouched pin: expected HIGH, got %s", got)
	}
}

func TestFakeBackendWriteReadsBack(t *testing.T) {
	f := NewFakeBackend(100)

	f.WriteDigital(5, pins.High)
	f.Advance(10)
	f.WriteDigital(5, pins.Low)

	if len(f.Writes) != 2 {
		t.Fatalf("expected 2 writes, got %d", len(f.Writes))
	}
	if f.Writes[0] != (Write{Pin: 5, Level: pins.High, At: 100}) {
		t.Errorf("write 0: got %+v", f.Writes[0])
	}
	if f.Writes[1] != (Write{Pin: 5, Level: pins.Low, At: 110}) {
		t.Errorf("write 1: got %+v", f.Writes[1])
	}
	if got := f.ReadDigital(5); got != pins.Low {
		t.Errorf("read back: expected LOW, got %s", got)
	}

	level, ok := f.LastWrite(5)
	if !ok || level != pins.Low {
		t.Errorf("LastWrite: got (%s, %v), want (LOW, true)", level, ok)
	}
	if _, ok := f.LastWrite(6); ok {
		t.Error("LastWrite on unwritten pin should report false")
	}
}

func TestFakeBackendConfigureMode(t *testing.T) {
	f := NewFakeBackend(0)

	f.ConfigureMode(2, pins.ModeOutput)
	if !f.Configured[2] {
		t.Error("pin 2 should be configured")
	}
	if f.Modes[2] != pins.ModeOutput {
		t.Errorf("expected output, got %s", f.Modes[2])
	}
	if f.Configured[3] {
		t.Error("pin 3 should not be configured")
	}
}

func TestFakeBackendDelayAdvancesClock(t *testing.T) {
	f := NewFakeBackend(1000)

	f.Delay(250)
	f.Delay(50)

	if f.NowMillis() != 1300 {
		t.Errorf("expected clock 1300, got %d", f.NowMillis())
	}
	if len(f.Delays) != 2 || f.Delays[0] != 250 || f.Delays[1] != 50 {
		t.Errorf("unexpected delays: %v", f.Delays)
	}
}

func TestFakeBackendClockWraps(t *testing.T) {
	f := NewFakeBackend(0xFFFFFFF0)

	f.Advance(0x20)
	if f.NowMillis() != 0x10 {
		t.Errorf("expected wrapped clock 0x10, got %#x", uint32(f.NowMillis()))
	}
}

func TestFakeBackendAnalog(t *testing.T) {
	f := NewFakeBackend(0)
	f.Analog[1] = 512

	if got := f.ReadAnalog(1); got != 512 {
		t.Errorf("expected 512, got %d", got)
	}

	f.WriteAnalog(9, 128)
	if len(f.AnalogWrites) != 1 || f.AnalogWrites[0] != (AnalogWrite{Pin: 9, Value: 128}) {
		t.Errorf("unexpected analog writes: %+v", f.AnalogWrites)
	}
}

func TestFakeBackendCloseAndReset(t *testing.T) {
	f := NewFakeBackend(0)
	f.WriteDigital(1, pins.High)
	f.ReadDigital(1)

	if err := f.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !f.Closed {
		t.Error("should be closed after Close()")
	}

	f.Reset()
	if f.Closed || f.Reads != 0 || len(f.Writes) != 0 {
		t.Errorf("Reset did not clear state: %+v", f)
	}
	if f.Levels[1] != pins.High {
		t.Error("Reset should keep levels")
	}
}

func TestOpenFake(t *testing.T) {
	dev, err := Open(Options{Kind: KindFake})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := dev.(*FakeBackend); !ok {
		t.Errorf("expected *FakeBackend, got %T", dev)
	}
}

func TestOpenUnknownKind(t *testing.T) {
	dev, err := Open(Options{Kind: "bitbang"})
	if err == nil {
		t.Fatal("expected error for unknown backend")
	}
	if dev != nil {
		t.Errorf("expected nil device, got %T", dev)
	}
}
