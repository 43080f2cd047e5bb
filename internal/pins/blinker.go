package pins

// Blinker is a non-blocking Blink for poll loops. Each Poll checks the
// clock and flips the pin when the current phase is over.
type Blinker struct {
	monitor    *Monitor
	pin        int
	on, off    Millis
	phaseStart Millis
	lit        bool
	running    bool
}

// NewBlinker creates a stopped Blinker for an output pin.
func NewBlinker(m *Monitor, pin int, on, off Millis) *Blinker {
	m.record(pin)
	return &Blinker{monitor: m, pin: pin, on: on, off: off}
}

// Poll starts the cycle on first use (pin HIGH) and advances it afterwards.
// At most one phase change happens per call.
func (b *Blinker) Poll() {
	now := b.monitor.backend.NowMillis()
	if !b.running {
		b.running = true
		b.enter(High, now)
		return
	}

	elapsed := now.Since(b.phaseStart)
	switch {
	case b.lit && elapsed >= b.on:
		b.enter(Low, now)
	case !b.lit && elapsed >= b.off:
		b.enter(High, now)
	}
}

// Stop drives the pin LOW. The next Poll restarts the cycle.
func (b *Blinker) Stop() {
	b.running = false
	b.lit = false
	b.monitor.SetLevel(b.pin, Low)
}

// Running reports whether the cycle has started and not been stopped.
func (b *Blinker) Running() bool {
	return b.running
}

func (b *Blinker) enter(level Level, now Millis) {
	b.monitor.SetLevel(b.pin, level)
	b.lit = level == High
	b.phaseStart = now
}
