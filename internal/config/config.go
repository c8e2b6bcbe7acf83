// Package config reads the autofill YAML configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/autofill/filler/irctc"
)

// Config is the top-level configuration.
type Config struct {
	Browser BrowserConfig `yaml:"browser"`
	Target  TargetConfig  `yaml:"target"`
	Timing  irctc.Timing  `yaml:"timing"`
	Profile ProfileConfig `yaml:"profile"`
	HTTP    HTTPConfig    `yaml:"http"`
	Sinks   []SinkConfig  `yaml:"sinks"`
}

// BrowserConfig controls Chrome.
type BrowserConfig struct {
	// Remote is the DevTools WebSocket URL of a running Chrome. Empty
	// launches a local one.
	Remote           string        `yaml:"remote"`
	Mode             string        `yaml:"mode"` // headless | headful
	XvfbDisplay      string        `yaml:"xvfb_display"`
	Bin              string        `yaml:"bin"`
	UserDataDir      string        `yaml:"user_data_dir"`
	ResourceBlocking []string      `yaml:"resource_blocking"`
	NavigateTimeout  time.Duration `yaml:"navigate_timeout"`
}

// TargetConfig names the page a live fill runs against.
type TargetConfig struct {
	URL string `yaml:"url"`
	// AttachHost selects an already open tab by host, so a session the
	// operator logged in by hand can be reused.
	AttachHost string `yaml:"attach_host"`
}

// ProfileConfig locates the profile database.
type ProfileConfig struct {
	Path string `yaml:"path"`
}

// HTTPConfig controls -serve.
type HTTPConfig struct {
	Addr          string        `yaml:"addr"`
	RoutesDB      string        `yaml:"routes_db"`
	WatchInterval time.Duration `yaml:"watch_interval"`
	CallTimeout   time.Duration `yaml:"call_timeout"`
	// TokenHash is a bcrypt hash (autofill -hash-token). When set, every
	// route but /health needs "Authorization: Bearer <token>".
	TokenHash string `yaml:"token_hash"`
}

// SinkConfig defines a report sink.
type SinkConfig struct {
	Type    string `yaml:"type"`    // stdout | webhook | nats | redis
	URL     string `yaml:"url"`     // webhook endpoint, NATS server or Redis host:port
	Subject string `yaml:"subject"` // nats
	Key     string `yaml:"key"`     // redis list
}

// Default returns the configuration used without a file.
func Default() *Config {
	cfg := &Config{Timing: irctc.DefaultTiming()}
	cfg.applyDefaults()
	return cfg
}

// LoadFile reads a YAML configuration file. Timing keys left out keep their
// default pauses.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration.
func Parse(data []byte) (*Config, error) {
	cfg := Config{Timing: irctc.DefaultTiming()}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Browser.Mode == "" {
		c.Browser.Mode = "headless"
	}
	if c.Browser.XvfbDisplay == "" {
		c.Browser.XvfbDisplay = ":99"
	}
	if c.Browser.NavigateTimeout <= 0 {
		c.Browser.NavigateTimeout = 60 * time.Second
	}
	if c.Target.AttachHost == "" {
		c.Target.AttachHost = irctc.Host
	}
	if c.Profile.Path == "" {
		c.Profile.Path = "autofill-profile.db"
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = "127.0.0.1:8420"
	}
	if c.HTTP.WatchInterval <= 0 {
		c.HTTP.WatchInterval = 2 * time.Second
	}
	if c.HTTP.CallTimeout <= 0 {
		c.HTTP.CallTimeout = 2 * time.Minute
	}
}

func (c *Config) validate() error {
	switch c.Browser.Mode {
	case "headless", "headful":
	default:
		return fmt.Errorf("config: browser.mode %q: want headless or headful", c.Browser.Mode)
	}
	for i, s := range c.Sinks {
		switch s.Type {
		case "stdout", "nats":
		case "webhook", "redis":
			if s.URL == "" {
				return fmt.Errorf("config: sinks[%d]: %s needs a url", i, s.Type)
			}
		default:
			return fmt.Errorf("config: sinks[%d]: unknown type %q", i, s.Type)
		}
	}
	return nil
}
