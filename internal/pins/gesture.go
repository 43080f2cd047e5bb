package pins

// Debounce returns the settled level of a noisy input. It must be called on
// every poll; it never waits.
//
// A raw sample that differs from the previous raw sample restarts the
// settle timer. Once the sample has been unchanged for more than interval,
// it is returned. Until then the pin's LastStableState is returned.
// Debounce does not write LastStableState; OnDoublePress owns it.
func (m *Monitor) Debounce(pin int, interval Millis) Level {
	level, _ := m.debounce(pin, interval)
	return level
}

func (m *Monitor) debounce(pin int, interval Millis) (Level, bool) {
	r := m.record(pin)
	current := m.backend.ReadDigital(pin)
	now := m.backend.NowMillis()

	if current != r.LastReading {
		r.LastReading = current
		r.LastDebounceTime = now
	}

	if now.Since(r.LastDebounceTime) > interval {
		return current, true
	}
	return r.LastStableState, false
}

// OnPress runs callback when the input has settled and is pressed.
// There is no edge latch: it runs on every such poll while the button is held.
func (m *Monitor) OnPress(pin int, callback func()) {
	if _, stable := m.debounce(pin, PressDebounce); stable && m.ReadLevel(pin) == Pressed {
		callback()
	}
}

// OnRelease runs callback when the input has settled and is released.
// Like OnPress, it runs on every such poll.
func (m *Monitor) OnRelease(pin int, callback func()) {
	if _, stable := m.debounce(pin, PressDebounce); stable && m.ReadLevel(pin) == Released {
		callback()
	}
}

// OnDoublePress runs callback when two press edges arrive within timeout
// milliseconds of each other. A completed pair is consumed, so a third
// press starts a new pair. A zero timeout means DefaultDoublePressTimeout.
//
// Edges are only seen between consecutive calls, so poll often.
func (m *Monitor) OnDoublePress(pin int, callback func(), timeout Millis) {
	if timeout == 0 {
		timeout = DefaultDoublePressTimeout
	}
	r := m.record(pin)
	current := m.backend.ReadDigital(pin)

	if current == Pressed && r.LastStableState == Released {
		now := m.backend.NowMillis()
		if r.LastPressTime != 0 && now.Since(r.LastPressTime) <= timeout {
			callback()
			r.LastPressTime = 0
		} else {
			r.LastPressTime = now
		}
	}

	r.LastStableState = current
}

// OnLongPress runs callback once when the input has been held for duration
// milliseconds. It rearms after a release. A zero duration means
// DefaultLongPressDuration.
func (m *Monitor) OnLongPress(pin int, callback func(), duration Millis) {
	if duration == 0 {
		duration = DefaultLongPressDuration
	}
	r := m.record(pin)

	if m.backend.ReadDigital(pin) != Pressed {
		r.PressStartTime = 0
		r.LongPressFired = false
		return
	}
	if r.LongPressFired {
		return
	}

	now := m.backend.NowMillis()
	if r.PressStartTime == 0 {
		r.PressStartTime = now
	}
	if now.Since(r.PressStartTime) >= duration {
		callback()
		r.LongPressFired = true
	}
}
