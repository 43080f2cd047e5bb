// Command pinscribe polls GPIO pins, recognizes button gestures and publishes
// them to MQTT. Outputs can be driven by gesture bindings or MQTT commands.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/pinscribe/internal/config"
	"github.com/sweeney/pinscribe/internal/gpio"
	"github.com/sweeney/pinscribe/internal/logic"
	"github.com/sweeney/pinscribe/internal/mqtt"
	"github.com/sweeney/pinscribe/internal/pins"
	"github.com/sweeney/pinscribe/internal/status"
	"github.com/sweeney/pinscribe/internal/web"
)

// commandQueue is how many MQTT commands may wait for the poll loop.
const commandQueue = 16

type options struct {
	configPath string
	backend    string
	poll       time.Duration
	broker     string
	clientID   string
	heartbeat  time.Duration
	httpAddr   string
	printState bool
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "Pin layout YAML file (empty for the built-in layout)")
	flag.StringVar(&opts.backend, "backend", "", "Override the layout backend: gpiocdev, rpio, mcp23017 or fake")
	flag.DurationVar(&opts.poll, "poll", 10*time.Millisecond, "Pin polling interval")
	flag.StringVar(&opts.broker, "broker", "tcp://192.168.1.200:1883", "MQTT broker address")
	flag.StringVar(&opts.clientID, "client-id", "pinscribe", "MQTT client ID")
	flag.DurationVar(&opts.heartbeat, "heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	flag.StringVar(&opts.httpAddr, "http", ":80", "HTTP status address (empty to disable)")
	flag.BoolVar(&opts.printState, "print-state", false, "Print every configured pin and exit")

	flag.Parse()

	if err := run(opts); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

// loadLayout reads the layout file, or the built-in default if path is empty.
// A non-empty backend replaces the one in the layout.
func loadLayout(path, backend string) (*config.File, error) {
	layout := config.Default()
	if path != "" {
		var err error
		if layout, err = config.Load(path); err != nil {
			return nil, err
		}
	}
	if backend != "" {
		layout.Backend = backend
		if err := layout.Validate(); err != nil {
			return nil, err
		}
	}
	return layout, nil
}

func run(opts options) error {
	layout, err := loadLayout(opts.configPath, opts.backend)
	if err != nil {
		return fmt.Errorf("load layout: %w", err)
	}

	// Initialize GPIO
	dev, err := gpio.Open(layout.GPIOOptions())
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer dev.Close()

	monitor := pins.NewMonitor(dev)

	// Print state mode
	if opts.printState {
		printState(os.Stdout, monitor, layout)
		return nil
	}

	// Initialize MQTT
	publisher, err := mqtt.NewRealPublisher(opts.broker, opts.clientID)
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer publisher.Close()

	cmds := make(chan logic.Command, commandQueue)
	if err := publisher.Subscribe(forwardCommands(cmds)); err != nil {
		log.Printf("command subscription failed: %v", err)
	}

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		PollMs:      opts.poll.Milliseconds(),
		HeartbeatMs: opts.heartbeat.Milliseconds(),
		Broker:      opts.broker,
		HTTPAddr:    opts.httpAddr,
		Backend:     layout.Backend,
		ConfigPath:  opts.configPath,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}
	tracker.SetMQTTConnected(publisher.IsConnected())

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	// Start HTTP status server
	if opts.httpAddr != "" {
		srv := web.New(opts.httpAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", opts.httpAddr)
	}

	log.Printf("started: backend=%s pins=%d poll=%v broker=%s heartbeat=%v",
		layout.Backend, len(layout.Pins), opts.poll, opts.broker, opts.heartbeat)

	ticker := time.NewTicker(opts.poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(monitor, layout, publisher, publisher, tracker, opts.heartbeat, time.Now, ticker.C, cmds, sigCh)
}

// forwardCommands returns an MQTT command handler that queues commands for
// the poll loop. The monitor is only touched from the poll loop goroutine.
func forwardCommands(cmds chan<- logic.Command) func(logic.Command) {
	return func(cmd logic.Command) {
		select {
		case cmds <- cmd:
		default:
			log.Printf("command queue full, dropping %s on pin %d", cmd.Action, cmd.Pin)
		}
	}
}

// printState prints one line per configured pin in layout order. Inputs are
// configured and read. Outputs are listed but never configured, so
// print-state cannot drive a pin.
func printState(w io.Writer, m *pins.Monitor, layout *config.File) {
	for _, p := range layout.Pins {
		if p.Mode == pins.ModeOutput.String() {
			fmt.Fprintf(w, "pin %d (%s): output, not driven\n", p.Index, p.Name)
			continue
		}
		m.Configure(p.Index, pins.ModeInput)
		level := m.ReadLevel(p.Index)
		state := "released"
		if level == pins.Pressed {
			state = "pressed"
		}
		fmt.Fprintf(w, "pin %d (%s): %s %s\n", p.Index, p.Name, level, state)
	}
}

func runLoop(monitor *pins.Monitor, layout *config.File, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, heartbeat time.Duration, now func() time.Time, tick <-chan time.Time, cmds <-chan logic.Command, sig <-chan os.Signal) error {
	startTime := now()
	watcher := logic.NewWatcher(monitor, layout.Watches(), layout.Outputs(), startTime)
	tracker.Update(watcher.PinStates(), watcher.EventCountsSnapshot())

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			if mqttStatus != nil {
				tracker.SetMQTTConnected(mqttStatus.IsConnected())
			}
			tracker.Update(watcher.PinStates(), watcher.EventCountsSnapshot())
			snap := tracker.Snapshot()
			event := mqtt.SystemEvent{
				Timestamp:  now(),
				Event:      "SHUTDOWN",
				Reason:     signalName,
				Retained:   true,
				RawPayload: status.FormatStatusEvent(snap, "SHUTDOWN", signalName),
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case cmd := <-cmds:
			if err := watcher.Apply(cmd); err != nil {
				log.Printf("command rejected: %v", err)
				continue
			}
			log.Printf("command: %s on pin %d", cmd.Action, cmd.Pin)
			tracker.Update(watcher.PinStates(), watcher.EventCountsSnapshot())

		case <-tick:
			t := now()
			events := watcher.Poll(t)

			for _, event := range events {
				log.Printf("event: %s on pin %d (%s)", event.Gesture, event.Pin, event.Name)
				if err := publisher.Publish(event); err != nil {
					log.Printf("publish error: %v", err)
					// Don't crash on publish failure
				}
			}

			// Update status tracker for HTTP consumers
			tracker.Update(watcher.PinStates(), watcher.EventCountsSnapshot())
			if mqttStatus != nil {
				tracker.SetMQTTConnected(mqttStatus.IsConnected())
			}

			// Check for heartbeat
			if hbData := watcher.CheckHeartbeat(t, heartbeat); hbData != nil {
				total := 0
				for _, c := range hbData.Counts {
					total += c.Total()
				}
				log.Printf("heartbeat: uptime=%v gestures=%d", hbData.Uptime, total)

				// Refresh network info for heartbeat
				if net := readNetworkInfo(); net != nil {
					tracker.SetNetwork(net)
				}
				snap := tracker.Snapshot()
				hbEvent := mqtt.SystemEvent{
					Timestamp:  hbData.Timestamp,
					Event:      "HEARTBEAT",
					RawPayload: status.FormatStatusEvent(snap, "HEARTBEAT", ""),
				}
				if err := publisher.PublishSystem(hbEvent); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
			}
		}
	}
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}
