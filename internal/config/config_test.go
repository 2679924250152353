package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\"): %v", err)
	}
	if cfg.Pacing != 100*time.Millisecond {
		t.Fatalf("Pacing = %s, want 100ms", cfg.Pacing)
	}
	if cfg.Grace != 500*time.Millisecond {
		t.Fatalf("Grace = %s, want 500ms", cfg.Grace)
	}
	if cfg.BufferSize != 1024 {
		t.Fatalf("BufferSize = %d, want 1024", cfg.BufferSize)
	}
	if cfg.Target != TargetLocal {
		t.Fatalf("Target = %q, want %q", cfg.Target, TargetLocal)
	}
}

func TestLoadOverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "das.toml")
	body := `
port = 5000
target = "broadcast"
grace = "1s"
status_addr = ":9100"
etcd = ["http://etcd:2379"]
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 5000 || cfg.Target != TargetBroadcast || cfg.StatusAddr != ":9100" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Grace != time.Second {
		t.Fatalf("Grace = %s, want 1s", cfg.Grace)
	}
	// untouched keys keep their defaults
	if cfg.Pacing != 100*time.Millisecond {
		t.Fatalf("Pacing = %s, want 100ms", cfg.Pacing)
	}
	if len(cfg.Etcd) != 1 || cfg.Etcd[0] != "http://etcd:2379" {
		t.Fatalf("Etcd = %v", cfg.Etcd)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatalf("Load(missing) succeeded")
	}
}

func TestValidatePort(t *testing.T) {
	for _, p := range []int{1024, 5000, 65535} {
		if err := ValidatePort(p); err != nil {
			t.Fatalf("ValidatePort(%d) = %v", p, err)
		}
	}
	for _, p := range []int{0, 80, 1023, 65536} {
		if err := ValidatePort(p); !errors.Is(err, ErrInvalidPort) {
			t.Fatalf("ValidatePort(%d) = %v, want ErrInvalidPort", p, err)
		}
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Port = 5000
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	cfg.Grace = -time.Second
	if err := cfg.Validate(); err == nil {
		t.Fatalf("Validate accepted negative grace")
	}
}
