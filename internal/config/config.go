// Package config loads daemon settings from an optional YAML file.
// Command-line flags override whatever the file sets.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/button-sensor/internal/gpio"
)

// Config holds every tunable of the daemon. Durations are written in YAML
// as Go duration strings, e.g. "150ms" or "15m".
type Config struct {
	Poll      time.Duration `yaml:"poll"`
	Debounce  time.Duration `yaml:"debounce"`
	ButtonID  uint32        `yaml:"button_id"`
	Pin       int           `yaml:"pin"`
	Chip      string        `yaml:"chip"`
	Broker    string        `yaml:"broker"`
	ClientID  string        `yaml:"client_id"`
	Heartbeat time.Duration `yaml:"heartbeat"`
	HTTP      string        `yaml:"http"`
	WSBroker  string        `yaml:"ws_broker"`
	LogLevel  string        `yaml:"log_level"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Poll:      10 * time.Millisecond,
		Debounce:  150 * time.Millisecond,
		ButtonID:  gpio.DefaultButtonID,
		Pin:       gpio.DefaultPin,
		Chip:      gpio.DefaultChip,
		Broker:    "tcp://192.168.1.200:1883",
		ClientID:  "button-sensor",
		Heartbeat: 15 * time.Minute,
		HTTP:      ":80",
		WSBroker:  "=broker",
		LogLevel:  "info",
	}
}

// Load reads path over the defaults. Keys missing from the file keep their
// default value.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("yaml unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

var (
	ErrPoll     = errors.New("poll interval must be positive")
	ErrDebounce = errors.New("debounce must be between 0 and 2^31-1 ms")
	ErrPin      = errors.New("pin must not be negative")
)

// Validate checks the ranges the button and poll loop depend on.
func (c Config) Validate() error {
	if c.Poll <= 0 {
		return ErrPoll
	}
	// The debounce window is compared as a signed 32-bit tick difference.
	if c.Debounce < 0 || c.Debounce.Milliseconds() > math.MaxInt32 {
		return ErrDebounce
	}
	if c.Pin < 0 {
		return ErrPin
	}
	return nil
}

// DebounceMs returns the debounce window in whole milliseconds.
func (c Config) DebounceMs() uint32 {
	return uint32(c.Debounce.Milliseconds())
}
