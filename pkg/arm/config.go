package arm

import (
	"encoding/json"
	"os"
)

const DefaultConfigFile = "armlink.json"

// DefaultFeedRate is the feed rate used when none is configured or a
// command omits its F field, in degrees per minute.
const DefaultFeedRate = 500.0

// Config holds the link configuration. Baud rate and framing are fixed by
// the controller firmware (115200 8N1) and are deliberately absent.
type Config struct {
	Port     string  `json:"port"`
	FeedRate float64 `json:"feed_rate"`
	TickHz   int     `json:"tick_hz"`
	AutoSend bool    `json:"auto_send"`
}

// DefaultConfig returns the stock configuration.
func DefaultConfig() *Config {
	return &Config{
		Port:     "/dev/ttyUSB0",
		FeedRate: DefaultFeedRate,
		TickHz:   60,
		AutoSend: true,
	}
}

// LoadConfig loads configuration from the default config file
func LoadConfig() (*Config, error) {
	return LoadConfigFrom(DefaultConfigFile)
}

// LoadConfigFrom loads configuration from a specific file. Missing or
// non-positive numeric fields fall back to defaults.
func LoadConfigFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if cfg.FeedRate <= 0 {
		cfg.FeedRate = DefaultFeedRate
	}
	if cfg.TickHz <= 0 {
		cfg.TickHz = 60
	}
	return &cfg, nil
}

// Save saves configuration to the default config file
func (c *Config) Save() error {
	return c.SaveTo(DefaultConfigFile)
}

// SaveTo saves configuration to a specific file
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ConfigExists returns true if the default config file exists
func ConfigExists() bool {
	_, err := os.Stat(DefaultConfigFile)
	return err == nil
}
