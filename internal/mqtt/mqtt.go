// Package mqtt provides MQTT publishing and command intake with abstraction
// for testing.
package mqtt

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sweeney/pinscribe/internal/logic"
)

// Topic is the MQTT topic for gesture events.
const Topic = "pinscribe/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "pinscribe/system"

// TopicCommand is the MQTT topic output commands are received on.
const TopicCommand = "pinscribe/command"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a gesture event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event logic.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// CommandSource delivers output commands received from the broker.
// The handler runs on the client's goroutine, not the poll loop.
type CommandSource interface {
	Subscribe(handler func(logic.Command)) error
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT", "OFFLINE"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Pin PinPayload `json:"pin"`
}

// PinPayload contains the gesture event details.
type PinPayload struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Index     int    `json:"index"`
	Name      string `json:"name,omitempty"`
	Level     string `json:"level"`
}

// FormatPayload creates the JSON payload for a gesture event.
func FormatPayload(event logic.Event) ([]byte, error) {
	payload := Payload{
		Pin: PinPayload{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     string(event.Gesture),
			Index:     event.Pin,
			Name:      event.Name,
			Level:     event.Level.String(),
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}

// CommandPayload is the JSON body accepted on TopicCommand.
type CommandPayload struct {
	Pin    *int   `json:"pin"`
	Action string `json:"action"`
}

// ParseCommand decodes a command message. It checks the action name but not
// the pin: only the watcher knows which pins are outputs.
func ParseCommand(data []byte) (logic.Command, error) {
	var p CommandPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return logic.Command{}, fmt.Errorf("decode command: %w", err)
	}
	if p.Pin == nil {
		return logic.Command{}, errors.New("command has no pin")
	}
	action, err := logic.ParseAction(p.Action)
	if err != nil {
		return logic.Command{}, err
	}
	return logic.Command{Pin: *p.Pin, Action: action}, nil
}
