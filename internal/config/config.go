package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	MinPort = 1024
	MaxPort = 65535
)

// Slave targets.
const (
	TargetLocal     = "local"
	TargetBroadcast = "broadcast"
)

var ErrInvalidPort = errors.New("port must be between 1024 and 65535")

type Config struct {
	Port int `toml:"port"`

	// Host overrides hostname resolution when discovering the local address.
	Host string `toml:"host"`

	// Target is where a slave sends: "local", "broadcast" or an IP address.
	Target string `toml:"target"`

	Pacing     time.Duration `toml:"pacing"`
	Grace      time.Duration `toml:"grace"`
	BufferSize int           `toml:"buffer_size"`
	TTL        int           `toml:"ttl"`

	StatusAddr string `toml:"status_addr"`

	Etcd     []string `toml:"etcd"`
	LeaseTTL int64    `toml:"lease_ttl"`

	Verbose bool `toml:"verbose"`
}

func Default() Config {
	return Config{
		Target:     TargetLocal,
		Pacing:     100 * time.Millisecond,
		Grace:      500 * time.Millisecond,
		BufferSize: 1024,
		LeaseTTL:   10,
	}
}

// Load overlays the TOML file at path on top of Default. An empty path returns
// the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("load %s: %w", path, err)
	}
	return cfg, nil
}

func ValidatePort(port int) error {
	if port < MinPort || port > MaxPort {
		return fmt.Errorf("%w: got %d", ErrInvalidPort, port)
	}
	return nil
}

func (c Config) Validate() error {
	if err := ValidatePort(c.Port); err != nil {
		return err
	}
	if c.Pacing < 0 || c.Grace < 0 {
		return errors.New("pacing and grace must not be negative")
	}
	if c.Target == "" {
		return errors.New("target must not be empty")
	}
	return nil
}
