// Command button-sensor debounces a GPIO push-button and publishes press
// events to MQTT.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/sweeney/button-sensor/internal/button"
	"github.com/sweeney/button-sensor/internal/config"
	"github.com/sweeney/button-sensor/internal/gpio"
	"github.com/sweeney/button-sensor/internal/logic"
	"github.com/sweeney/button-sensor/internal/mqtt"
	"github.com/sweeney/button-sensor/internal/status"
	"github.com/sweeney/button-sensor/internal/web"
)

type options struct {
	cfg        config.Config
	printState bool
	printDot   bool
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}

	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	level, err := log.ParseLevel(opts.cfg.LogLevel)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
	log.SetLevel(level)

	if err := run(opts); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

// parseFlags builds the effective config: defaults, then the --config
// file if given, then any flag set explicitly on the command line.
func parseFlags(args []string) (options, error) {
	def := config.Default()
	fs := flag.NewFlagSet("button-sensor", flag.ContinueOnError)

	configPath := fs.String("config", "", "YAML config file (explicit flags override it)")
	poll := fs.Duration("poll", def.Poll, "GPIO polling interval")
	debounce := fs.Duration("debounce", def.Debounce, "Debounce duration")
	buttonID := fs.Uint("button-id", uint(def.ButtonID), "Button id reported in events")
	pin := fs.Int("pin", def.Pin, "BCM pin number of the button")
	chip := fs.String("chip", def.Chip, "GPIO chip device")
	broker := fs.String("broker", def.Broker, "MQTT broker address")
	clientID := fs.String("client-id", def.ClientID, "MQTT client id")
	heartbeat := fs.Duration("heartbeat", def.Heartbeat, "Heartbeat interval (0 to disable)")
	httpAddr := fs.String("http", def.HTTP, "HTTP status address (empty to disable)")
	wsBroker := fs.String("ws-broker", def.WSBroker, `MQTT websocket URL for live UI ("=broker" derives from --broker, "off" disables)`)
	logLevel := fs.String("log-level", def.LogLevel, "Log level (debug, info, warn, error)")
	printState := fs.Bool("print-state", false, "Print current button level and exit")
	printDot := fs.Bool("print-dot", false, "Print the button state machine in DOT format and exit")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	cfg := def
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return options{}, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "poll":
			cfg.Poll = *poll
		case "debounce":
			cfg.Debounce = *debounce
		case "button-id":
			cfg.ButtonID = uint32(*buttonID)
		case "pin":
			cfg.Pin = *pin
		case "chip":
			cfg.Chip = *chip
		case "broker":
			cfg.Broker = *broker
		case "client-id":
			cfg.ClientID = *clientID
		case "heartbeat":
			cfg.Heartbeat = *heartbeat
		case "http":
			cfg.HTTP = *httpAddr
		case "ws-broker":
			cfg.WSBroker = *wsBroker
		case "log-level":
			cfg.LogLevel = *logLevel
		}
	})

	if err := cfg.Validate(); err != nil {
		return options{}, fmt.Errorf("invalid config: %w", err)
	}

	return options{cfg: cfg, printState: *printState, printDot: *printDot}, nil
}

func run(opts options) error {
	cfg := opts.cfg

	// The diagram needs no hardware.
	if opts.printDot {
		b, err := button.New(gpio.NewFakePort(nil), cfg.DebounceMs(), cfg.ButtonID)
		if err != nil {
			return err
		}
		fmt.Print(b.Diagram())
		return nil
	}

	// Initialize GPIO
	port, err := gpio.NewRealPort(cfg.Chip, map[uint32]int{cfg.ButtonID: cfg.Pin})
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer port.Close()

	btn, err := button.New(port, cfg.DebounceMs(), cfg.ButtonID)
	if err != nil {
		return fmt.Errorf("init button: %w", err)
	}

	// Print state mode
	if opts.printState {
		level := "RELEASED"
		if port.IsPressed(cfg.ButtonID) {
			level = "PRESSED"
		}
		fmt.Printf("button %d (%s/%d): %s\n", cfg.ButtonID, cfg.Chip, cfg.Pin, level)
		return nil
	}

	// Initialize MQTT
	publisher, err := mqtt.NewRealPublisher(cfg.Broker, cfg.ClientID)
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer publisher.Close()

	ws := resolveWSBroker(cfg.WSBroker, cfg.Broker)

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		PollMs:      cfg.Poll.Milliseconds(),
		DebounceMs:  cfg.Debounce.Milliseconds(),
		HeartbeatMs: cfg.Heartbeat.Milliseconds(),
		ButtonID:    cfg.ButtonID,
		Chip:        cfg.Chip,
		Pin:         cfg.Pin,
		Broker:      cfg.Broker,
		HTTPPort:    cfg.HTTP,
		WSBroker:    ws,
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
		log.WithError(err).Error("failed to publish startup event")
	} else {
		log.Info("published startup event")
	}

	// Start HTTP status server. The diagram is rendered once, before the
	// poll loop owns the button.
	if cfg.HTTP != "" {
		srv := web.New(cfg.HTTP, tracker, btn.Diagram())
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.WithError(err).Error("http server error")
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Infof("http status server listening on %s", cfg.HTTP)
	}

	log.WithFields(log.Fields{
		"poll":      cfg.Poll,
		"debounce":  cfg.Debounce,
		"button":    cfg.ButtonID,
		"pin":       fmt.Sprintf("%s/%d", cfg.Chip, cfg.Pin),
		"broker":    cfg.Broker,
		"heartbeat": cfg.Heartbeat,
	}).Info("started")

	ticker := time.NewTicker(cfg.Poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	detector := logic.NewDetector(btn, time.Now())
	return runLoop(port, detector, publisher, publisher, tracker, cfg.Heartbeat, time.Now, ticker.C, sigCh)
}

func runLoop(port gpio.Port, detector *logic.Detector, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, heartbeat time.Duration, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	for {
		select {
		case s := <-sig:
			log.Infof("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if tracker != nil {
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
				snap := tracker.Snapshot()
				event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", signalName)
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.WithError(err).Error("failed to publish shutdown event")
			} else {
				log.Info("published shutdown event")
			}
			return nil

		case <-tick:
			t := now()
			if err := port.Poll(); err != nil {
				log.WithError(err).Warn("gpio poll error")
				continue
			}

			for _, event := range detector.Process(t) {
				entry := log.WithFields(log.Fields{
					"button": event.ButtonID,
					"state":  event.State,
				})
				if event.DurationMs > 0 {
					entry = entry.WithField("duration_ms", event.DurationMs)
				}
				entry.Infof("event: %s", event.Type)

				if err := publisher.Publish(event); err != nil {
					// Don't crash on publish failure
					log.WithError(err).Error("publish error")
				}
			}

			// Check for heartbeat
			if hbData := detector.CheckHeartbeat(t, heartbeat); hbData != nil {
				log.WithFields(log.Fields{
					"uptime": hbData.Uptime,
					"down":   hbData.Counts.Down,
					"press":  hbData.Counts.Press,
					"up":     hbData.Counts.Up,
				}).Info("heartbeat")

				hbEvent := mqtt.SystemEvent{
					Timestamp: hbData.Timestamp,
					Event:     "HEARTBEAT",
				}
				if tracker != nil {
					if mqttStatus != nil {
						tracker.SetMQTTConnected(mqttStatus.IsConnected())
					}
					// Refresh network info for heartbeat
					if net := readNetworkInfo(); net != nil {
						tracker.SetNetwork(net)
					}
					updateTracker(tracker, detector)
					snap := tracker.Snapshot()
					hbEvent.RawPayload = status.FormatStatusEvent(snap, "HEARTBEAT", "")
				}
				if err := publisher.PublishSystem(hbEvent); err != nil {
					log.WithError(err).Error("heartbeat publish error")
				}
			}

			// Update status tracker for HTTP consumers
			if tracker != nil {
				updateTracker(tracker, detector)
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
			}
		}
	}
}

func updateTracker(tracker *status.Tracker, detector *logic.Detector) {
	tracker.Update(detector.CurrentState(), detector.IsActive(), detector.LastDurationMs(), detector.EventCountsSnapshot())
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

// resolveWSBroker converts the --ws-broker flag value into a concrete URL.
// "=broker" derives ws://host:9001 from the TCP broker address; empty disables.
func resolveWSBroker(ws, broker string) string {
	if ws == "off" {
		return ""
	}
	if ws != "=broker" {
		return ws
	}
	u, err := url.Parse(broker)
	if err != nil {
		log.WithError(err).Warnf("ws-broker: cannot parse --broker %q", broker)
		return ""
	}
	u.Scheme = "ws"
	u.Host = u.Hostname() + ":9001"
	return u.String()
}
