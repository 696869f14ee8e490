// Package daemon holds process configuration for the radiant binaries.
// Settings come from an optional TOML file; CLI arguments override file
// values, file values override defaults.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the full radiant configuration.
type Config struct {
	Arbiter ArbiterConfig `toml:"arbiter"`
	Client  ClientConfig  `toml:"client"`
}

// ArbiterConfig configures the arbiter process.
type ArbiterConfig struct {
	NodeBind  string `toml:"node_bind"`  // router endpoint for node requests
	StateBind string `toml:"state_bind"` // publisher endpoint for state broadcasts
	Identity  string `toml:"identity"`
	HTTPAddr  string `toml:"http_addr"` // status API listen address; empty disables it
}

// ClientConfig configures the node client process.
type ClientConfig struct {
	Connect      string `toml:"connect"`       // arbiter node-request endpoint
	StateConnect string `toml:"state_connect"` // arbiter state-publication endpoint
	Identity     string `toml:"identity"`
}

// DefaultConfig returns the stock configuration.
func DefaultConfig() Config {
	return Config{
		Arbiter: ArbiterConfig{
			NodeBind:  "tcp://*:5555",
			StateBind: "tcp://*:5556",
			Identity:  "ARBITER",
			HTTPAddr:  "",
		},
		Client: ClientConfig{
			Connect:      "tcp://127.0.0.1:5555",
			StateConnect: "tcp://127.0.0.1:5556",
			Identity:     "",
		},
	}
}

// Load reads the configuration file at path over the defaults. A missing
// file is not an error; a malformed one is.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		path = ConfigPath()
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ConfigPath returns the configuration file location: $RADIANT_CONFIG if
// set, else ~/.radiant/config.toml.
func ConfigPath() string {
	if env := os.Getenv("RADIANT_CONFIG"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".radiant", "config.toml")
}
