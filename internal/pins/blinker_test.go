package pins_test

import (
	"testing"

	"github.com/sweeney/pinscribe/internal/pins"
)

func TestBlinkerCycles(t *testing.T) {
	m, backend := newTestMonitor(t)
	m.Configure(7, pins.ModeOutput)
	b := pins.NewBlinker(m, 7, 100, 200)

	steps := []struct {
		advance pins.Millis
		want    pins.Level
	}{
		{0, pins.High},   // 1000: starts lit
		{50, pins.High},  // 1050
		{50, pins.Low},   // 1100: on phase over
		{199, pins.Low},  // 1299
		{1, pins.High},   // 1300: off phase over
		{100, pins.Low},  // 1400
		{200, pins.High}, // 1600
	}
	for i, s := range steps {
		backend.Advance(s.advance)
		b.Poll()
		if got := m.Record(7).OutputState; got != s.want {
			t.Errorf("step %d (t=%d): expected %s, got %s", i, backend.Now, s.want, got)
		}
	}
	if len(backend.Delays) != 0 {
		t.Errorf("blinker must not block, got delays %v", backend.Delays)
	}
}

func TestBlinkerStop(t *testing.T) {
	m, backend := newTestMonitor(t)
	b := pins.NewBlinker(m, 7, 100, 100)

	b.Poll()
	if !b.Running() {
		t.Fatal("expected running after first poll")
	}

	b.Stop()
	if b.Running() {
		t.Error("expected stopped")
	}
	if got, _ := backend.LastWrite(7); got != pins.Low {
		t.Errorf("stop should drive LOW, got %s", got)
	}

	backend.Advance(10)
	b.Poll()
	if got, _ := backend.LastWrite(7); got != pins.High {
		t.Errorf("poll after stop should restart lit, got %s", got)
	}
}
