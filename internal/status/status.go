// Package status provides a thread-safe status tracker for the pinscribe daemon.
// It is written by the poll loop and read by HTTP handlers.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/pinscribe/internal/logic"
)

// NetworkInfo contains network state.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	PollMs      int64
	HeartbeatMs int64
	Broker      string
	HTTPAddr    string
	Backend     string
	ConfigPath  string // empty = built-in default layout
}

// Snapshot is a point-in-time view of daemon state.
// The poll loop hands over fresh slices and maps on every Update and never
// mutates them afterwards, so a Snapshot is safe to use after the lock is released.
type Snapshot struct {
	Pins          []logic.PinState
	Counts        map[int]logic.GestureCounts
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Pin returns the state of one configured pin.
func (s Snapshot) Pin(index int) (logic.PinState, bool) {
	for _, p := range s.Pins {
		if p.Pin == index {
			return p, true
		}
	}
	return logic.PinState{}, false
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update sets pin states and gesture counts.
// Called from runLoop on every tick.
func (t *Tracker) Update(pins []logic.PinState, counts map[int]logic.GestureCounts) {
	t.mu.Lock()
	t.snap.Pins = pins
	t.snap.Counts = counts
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
