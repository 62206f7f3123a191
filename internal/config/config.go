// Package config provides probe settings loaded from environment variables
// and an optional .env file. It uses viper for flexible configuration
// management with sensible defaults pointing at the public LaunchDarkly
// service endpoints.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the tunable parts of the probe that are not per-run CLI
// arguments. Configuration priority: environment variables > .env file >
// defaults. All values are fixed for the process lifetime once loaded.
type Config struct {
	StreamURI       string        // Streaming service URI
	BaseURI         string        // Polling/base service URI
	EventsURI       string        // Events delivery URI
	InitWait        time.Duration // How long client construction waits for a healthy connection
	ReconnectDelay  time.Duration // Initial stream reconnect delay
	SendEvents      bool          // Whether analytics events are delivered on close
	SimulationURI   string        // Deliberately unreachable endpoint used by --simulate-down
	SimulationWait  time.Duration // Shortened construction wait under simulation
	SimulationRetry time.Duration // Shortened reconnect delay under simulation, to fail fast
}

// Load reads configuration from environment variables and a .env file (if
// present). Environment variables take precedence over .env file values.
// Returns a Config with all values populated (either from env or defaults).
func Load() (*Config, error) {
	viperInstance := viper.New()
	viperInstance.SetConfigFile(".env") // Optional; silently ignored if file doesn't exist
	_ = viperInstance.ReadInConfig()    // Ignore error - .env is optional
	viperInstance.AutomaticEnv()        // Read from environment variables

	setConfigDefaults(viperInstance)

	cfg := &Config{
		StreamURI:       viperInstance.GetString("LD_STREAM_URI"),
		BaseURI:         viperInstance.GetString("LD_BASE_URI"),
		EventsURI:       viperInstance.GetString("LD_EVENTS_URI"),
		InitWait:        millis(viperInstance.GetInt("LD_INIT_WAIT_MS")),
		ReconnectDelay:  millis(viperInstance.GetInt("LD_RECONNECT_DELAY_MS")),
		SendEvents:      viperInstance.GetBool("LD_SEND_EVENTS"),
		SimulationURI:   viperInstance.GetString("LD_SIMULATION_URI"),
		SimulationWait:  millis(viperInstance.GetInt("LD_SIMULATION_WAIT_MS")),
		SimulationRetry: millis(viperInstance.GetInt("LD_SIMULATION_RETRY_MS")),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setConfigDefaults sets default values for all configuration options.
// The URIs are the production LaunchDarkly endpoints; the simulation URI
// points at the local discard port where nothing listens.
func setConfigDefaults(v *viper.Viper) {
	v.SetDefault("LD_STREAM_URI", "https://stream.launchdarkly.com")
	v.SetDefault("LD_BASE_URI", "https://sdk.launchdarkly.com")
	v.SetDefault("LD_EVENTS_URI", "https://events.launchdarkly.com")
	v.SetDefault("LD_INIT_WAIT_MS", 5000)
	v.SetDefault("LD_RECONNECT_DELAY_MS", 1000)
	v.SetDefault("LD_SEND_EVENTS", true)
	v.SetDefault("LD_SIMULATION_URI", "http://127.0.0.1:9")
	v.SetDefault("LD_SIMULATION_WAIT_MS", 1500)
	v.SetDefault("LD_SIMULATION_RETRY_MS", 100)
}

func (c *Config) validate() error {
	if c.StreamURI == "" || c.BaseURI == "" || c.EventsURI == "" {
		return fmt.Errorf("service URIs must not be empty")
	}
	if c.InitWait <= 0 {
		return fmt.Errorf("LD_INIT_WAIT_MS must be positive, got %s", c.InitWait)
	}
	if c.SimulationWait <= 0 {
		return fmt.Errorf("LD_SIMULATION_WAIT_MS must be positive, got %s", c.SimulationWait)
	}
	return nil
}

func millis(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}
