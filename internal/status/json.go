package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/pinscribe/internal/logic"
	"github.com/sweeney/pinscribe/internal/pins"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Pins          []PinJSON    `json:"pins"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// PinJSON is the JSON representation of one pin. Level is the last input
// sample for inputs and the commanded level for outputs.
type PinJSON struct {
	Index          int        `json:"index"`
	Name           string     `json:"name,omitempty"`
	Mode           string     `json:"mode"`
	Level          string     `json:"level"`
	Saved          string     `json:"saved,omitempty"`
	Held           bool       `json:"held,omitempty"`
	LongPressFired bool       `json:"long_press_fired,omitempty"`
	Blinking       bool       `json:"blinking,omitempty"`
	Counts         CountsJSON `json:"event_counts"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of gesture counts.
type CountsJSON struct {
	Press       int `json:"press"`
	Release     int `json:"release"`
	DoublePress int `json:"double_press"`
	LongPress   int `json:"long_press"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs      int64  `json:"poll_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
	Backend     string `json:"backend"`
	ConfigPath  string `json:"config_path,omitempty"`
}

func buildPin(p logic.PinState, counts logic.GestureCounts) PinJSON {
	pj := PinJSON{
		Index: p.Pin,
		Name:  p.Name,
		Mode:  p.Mode.String(),
		Counts: CountsJSON{
			Press:       counts.Press,
			Release:     counts.Release,
			DoublePress: counts.DoublePress,
			LongPress:   counts.LongPress,
		},
	}
	if p.Mode == pins.ModeOutput {
		pj.Level = p.Output.String()
		pj.Saved = p.Saved.String()
		pj.Blinking = p.Blinking
	} else {
		pj.Level = p.Input.String()
		pj.Held = p.Held
		pj.LongPressFired = p.LongPressFired
	}
	return pj
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		Pins:          make([]PinJSON, 0, len(snap.Pins)),
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Config: ConfigJSON{
			PollMs:      snap.Config.PollMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
			Backend:     snap.Config.Backend,
			ConfigPath:  snap.Config.ConfigPath,
		},
	}
	for _, p := range snap.Pins {
		inner.Pins = append(inner.Pins, buildPin(p, snap.Counts[p.Pin]))
	}

	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatPinJSON returns the JSON for a single pin, or false if the pin is
// not configured.
func FormatPinJSON(snap Snapshot, index int) ([]byte, bool) {
	p, ok := snap.Pin(index)
	if !ok {
		return nil, false
	}
	data, _ := json.MarshalIndent(buildPin(p, snap.Counts[index]), "", "  ")
	return data, true
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
