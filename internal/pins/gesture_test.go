package pins_test

import (
	"testing"

	"github.com/sweeney/pinscribe/internal/gpio"
	"github.com/sweeney/pinscribe/internal/pins"
)

// counter returns a callback and a pointer to how often it ran.
func counter() (func(), *int) {
	n := 0
	return func() { n++ }, &n
}

func TestDebounceAcceptsAfterInterval(t *testing.T) {
	m, backend := newTestMonitor(t)
	m.Configure(3, pins.ModeInput)
	backend.Set(3, pins.Low)

	// Five polls 10ms apart: 0..40ms unchanged, not yet settled.
	for i := 0; i < 5; i++ {
		if got := m.Debounce(3, 50); got != pins.High {
			t.Errorf("poll %d (t+%dms): expected previous stable HIGH, got %s", i, i*10, got)
		}
		backend.Advance(10)
	}

	// 50ms is not more than the interval.
	if got := m.Debounce(3, 50); got != pins.High {
		t.Errorf("t+50ms: expected HIGH, got %s", got)
	}

	backend.Advance(10)
	if got := m.Debounce(3, 50); got != pins.Low {
		t.Errorf("t+60ms: expected LOW once settled, got %s", got)
	}
}

func TestDebounceIdlePinIsStable(t *testing.T) {
	m, _ := newTestMonitor(t)

	if got := m.Debounce(0, 50); got != pins.High {
		t.Errorf("expected idle HIGH, got %s", got)
	}
}

func TestDebounceIgnoresBounce(t *testing.T) {
	m, backend := newTestMonitor(t)

	level := pins.Low
	for i := 0; i < 20; i++ {
		backend.Set(2, level)
		if got := m.Debounce(2, 50); got != pins.High {
			t.Fatalf("poll %d: expected HIGH while bouncing, got %s", i, got)
		}
		level = level.Not()
		backend.Advance(20)
	}
}

func TestDebounceDoesNotWriteStableState(t *testing.T) {
	m, backend := newTestMonitor(t)
	backend.Set(4, pins.Low)

	m.Debounce(4, 50)
	backend.Advance(100)
	if got := m.Debounce(4, 50); got != pins.Low {
		t.Fatalf("expected settled LOW, got %s", got)
	}

	if got := m.Record(4).LastStableState; got != pins.High {
		t.Errorf("LastStableState should be untouched, got %s", got)
	}
	if got := m.Record(4).LastReading; got != pins.Low {
		t.Errorf("LastReading: expected LOW, got %s", got)
	}
}

func TestOnPressRepeatFiresWhileHeld(t *testing.T) {
	m, backend := newTestMonitor(t)
	cb, n := counter()
	backend.Set(1, pins.Pressed)

	// t+0..t+50: not settled.
	for i := 0; i <= 5; i++ {
		m.OnPress(1, cb)
		backend.Advance(10)
	}
	if *n != 0 {
		t.Fatalf("expected no press before settling, got %d", *n)
	}

	// t+60, t+70, t+80: settled and pressed on every poll.
	for i := 0; i < 3; i++ {
		m.OnPress(1, cb)
		backend.Advance(10)
	}
	if *n != 3 {
		t.Errorf("expected 3 fires while held, got %d", *n)
	}
}

func TestOnPressNotWhileReleased(t *testing.T) {
	m, _ := newTestMonitor(t)
	cb, n := counter()

	m.OnPress(1, cb)
	if *n != 0 {
		t.Errorf("expected no press on idle pin, got %d", *n)
	}
}

func TestOnRelease(t *testing.T) {
	m, backend := newTestMonitor(t)
	cb, n := counter()

	m.OnRelease(9, cb)
	if *n != 1 {
		t.Fatalf("expected release on settled idle pin, got %d", *n)
	}

	backend.Set(9, pins.Pressed)
	for i := 0; i < 10; i++ {
		backend.Advance(10)
		m.OnRelease(9, cb)
	}
	if *n != 1 {
		t.Fatalf("expected no release while pressed, got %d", *n)
	}

	backend.Set(9, pins.Released)
	m.OnRelease(9, cb)
	if *n != 1 {
		t.Errorf("expected no release before settling, got %d", *n)
	}
	backend.Advance(51)
	m.OnRelease(9, cb)
	if *n != 2 {
		t.Errorf("expected release after settling, got %d", *n)
	}
}

// poller drives one pin through OnDoublePress at given times and levels.
type poller struct {
	m       *pins.Monitor
	backend *gpio.FakeBackend
	pin     int
}

func (p poller) at(t pins.Millis, level pins.Level, cb func()) {
	p.backend.Now = t
	p.backend.Set(p.pin, level)
	p.m.OnDoublePress(p.pin, cb, 0)
}

func TestDoublePressWithinWindow(t *testing.T) {
	m, backend := newTestMonitor(t)
	p := poller{m: m, backend: backend, pin: 5}
	cb, n := counter()

	p.at(1000, pins.Pressed, cb)
	p.at(1100, pins.Released, cb)
	p.at(1400, pins.Pressed, cb)

	if *n != 1 {
		t.Errorf("expected 1 double press, got %d", *n)
	}
	if got := m.Record(5).LastPressTime; got != 0 {
		t.Errorf("expected LastPressTime reset to 0, got %d", got)
	}
}

func TestDoublePressWindowBoundary(t *testing.T) {
	m, backend := newTestMonitor(t)
	p := poller{m: m, backend: backend, pin: 5}
	cb, n := counter()

	p.at(1000, pins.Pressed, cb)
	p.at(1200, pins.Released, cb)
	p.at(1500, pins.Pressed, cb)

	if *n != 1 {
		t.Errorf("expected press exactly at timeout to pair, got %d", *n)
	}
}

func TestDoublePressOutsideWindow(t *testing.T) {
	m, backend := newTestMonitor(t)
	p := poller{m: m, backend: backend, pin: 5}
	cb, n := counter()

	p.at(1000, pins.Pressed, cb)
	p.at(1100, pins.Released, cb)
	p.at(1501, pins.Pressed, cb)

	if *n != 0 {
		t.Fatalf("expected no double press, got %d", *n)
	}
	if got := m.Record(5).LastPressTime; got != 1501 {
		t.Errorf("second press should become the new baseline, got %d", got)
	}

	p.at(1600, pins.Released, cb)
	p.at(1700, pins.Pressed, cb)
	if *n != 1 {
		t.Errorf("expected pairing with new baseline, got %d", *n)
	}
}

func TestDoublePressConsumesPair(t *testing.T) {
	m, backend := newTestMonitor(t)
	p := poller{m: m, backend: backend, pin: 5}
	cb, n := counter()

	p.at(1000, pins.Pressed, cb)
	p.at(1050, pins.Released, cb)
	p.at(1100, pins.Pressed, cb) // pair
	p.at(1150, pins.Released, cb)
	p.at(1200, pins.Pressed, cb) // starts a new candidate

	if *n != 1 {
		t.Fatalf("third press should not chain, got %d", *n)
	}
	if got := m.Record(5).LastPressTime; got != 1200 {
		t.Errorf("third press should be a new first press, got %d", got)
	}

	p.at(1250, pins.Released, cb)
	p.at(1300, pins.Pressed, cb)
	if *n != 2 {
		t.Errorf("fourth press should pair with third, got %d", *n)
	}
}

func TestDoublePressHeldIsOneEdge(t *testing.T) {
	m, backend := newTestMonitor(t)
	p := poller{m: m, backend: backend, pin: 5}
	cb, n := counter()

	for ts := pins.Millis(1000); ts <= 1400; ts += 10 {
		p.at(ts, pins.Pressed, cb)
	}
	if *n != 0 {
		t.Errorf("holding should not pair with itself, got %d", *n)
	}
}

func TestDoublePressCustomTimeout(t *testing.T) {
	m, backend := newTestMonitor(t)
	cb, n := counter()

	press := func(ts pins.Millis, level pins.Level) {
		backend.Now = ts
		backend.Set(5, level)
		m.OnDoublePress(5, cb, 200)
	}
	press(1000, pins.Pressed)
	press(1050, pins.Released)
	press(1150, pins.Pressed)
	if *n != 1 {
		t.Errorf("expected pair within 200ms, got %d", *n)
	}

	press(1400, pins.Released)
	press(1500, pins.Pressed)
	press(1600, pins.Released)
	press(1750, pins.Pressed) // 250ms after 1500
	if *n != 1 {
		t.Errorf("expected no pair past 200ms, got %d", *n)
	}
}

func TestDoublePressAcrossRollover(t *testing.T) {
	m, backend := newTestMonitor(t)
	p := poller{m: m, backend: backend, pin: 5}
	cb, n := counter()

	p.at(0xFFFFFF00, pins.Pressed, cb)
	p.at(0xFFFFFF80, pins.Released, cb)
	p.at(0x00000040, pins.Pressed, cb) // 320ms after the first press

	if *n != 1 {
		t.Errorf("expected pair across clock rollover, got %d", *n)
	}
}

// hold polls OnLongPress every 100ms from start through end inclusive.
func hold(m *pins.Monitor, backend *gpio.FakeBackend, pin int, start, end pins.Millis, cb func()) {
	backend.Set(pin, pins.Pressed)
	for ts := start; ts.Since(start) <= end.Since(start); ts += 100 {
		backend.Now = ts
		m.OnLongPress(pin, cb, 0)
	}
}

func release(m *pins.Monitor, backend *gpio.FakeBackend, pin int, at pins.Millis, cb func()) {
	backend.Now = at
	backend.Set(pin, pins.Released)
	m.OnLongPress(pin, cb, 0)
}

func TestLongPressFiresOnce(t *testing.T) {
	m, backend := newTestMonitor(t)
	cb, n := counter()

	hold(m, backend, 2, 1000, 3900, cb)
	if *n != 0 {
		t.Fatalf("expected no fire before 3000ms, got %d", *n)
	}

	hold(m, backend, 2, 4000, 4000, cb)
	if *n != 1 {
		t.Fatalf("expected fire at 3000ms, got %d", *n)
	}

	hold(m, backend, 2, 4100, 9000, cb)
	if *n != 1 {
		t.Errorf("continued hold should not re-fire, got %d", *n)
	}
	if !m.Record(2).LongPressFired {
		t.Error("LongPressFired should be set while held")
	}
}

func TestLongPressRearmsAfterRelease(t *testing.T) {
	m, backend := newTestMonitor(t)
	cb, n := counter()

	hold(m, backend, 2, 1000, 4500, cb)
	release(m, backend, 2, 4600, cb)

	r := m.Record(2)
	if r.PressStartTime != 0 || r.LongPressFired {
		t.Errorf("release should clear tracking, got %+v", r)
	}

	hold(m, backend, 2, 5000, 8000, cb)
	if *n != 2 {
		t.Errorf("expected second long press, got %d", *n)
	}
}

func TestLongPressShortHoldNeverFires(t *testing.T) {
	m, backend := newTestMonitor(t)
	cb, n := counter()

	hold(m, backend, 2, 1000, 3900, cb)
	release(m, backend, 2, 4000, cb)
	hold(m, backend, 2, 4100, 7000, cb)

	if *n != 0 {
		t.Errorf("two short holds should never fire, got %d", *n)
	}
}

func TestLongPressCustomDuration(t *testing.T) {
	m, backend := newTestMonitor(t)
	cb, n := counter()
	backend.Set(0, pins.Pressed)

	backend.Now = 1000
	m.OnLongPress(0, cb, 500)
	backend.Now = 1499
	m.OnLongPress(0, cb, 500)
	if *n != 0 {
		t.Fatalf("expected no fire at 499ms, got %d", *n)
	}
	backend.Now = 1500
	m.OnLongPress(0, cb, 500)
	if *n != 1 {
		t.Errorf("expected fire at 500ms, got %d", *n)
	}
}

func TestLongPressAcrossRollover(t *testing.T) {
	m, backend := newTestMonitor(t)
	cb, n := counter()

	start := pins.Millis(0xFFFFFA00) // 1536ms before rollover
	hold(m, backend, 2, start, start+3000, cb)

	if *n != 1 {
		t.Errorf("expected long press across clock rollover, got %d", *n)
	}
}
