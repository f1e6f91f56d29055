package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestConfigEnv(t *testing.T) {
	t.Setenv("FRAMEFADE_PLAYER_CAPACITY", "12")
	t.Setenv("FRAMEFADE_LIVE_SOURCE", "ws://example.test:9000")

	var out Config
	if err := LoadConfigEnv(&out); err != nil {
		t.Fatal(err)
	}
	if out.Player.Capacity != 12 {
		t.Errorf("capacity = %d, want 12", out.Player.Capacity)
	}
	if out.Live.Source != "ws://example.test:9000" {
		t.Errorf("source = %q", out.Live.Source)
	}
	if out.Player.Duration != 2*time.Second {
		t.Errorf("duration default = %v, want 2s", out.Player.Duration)
	}
}

func TestLoadFileAndFlags(t *testing.T) {
	dir := t.TempDir()
	yaml := "player:\n  capacity: 50\n  duration: 500ms\npreload:\n  count: 3\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	conf, err := Load("test", []string{"--conf", dir, "--capacity", "7", "--prefix", "x/f_"},
		func(c *Config, fs *pflag.FlagSet) {
			c.Player.WithFlags(fs)
			c.Preload.WithFlags(fs)
		})
	if err != nil {
		t.Fatal(err)
	}
	if conf.Player.Capacity != 7 {
		t.Errorf("flag should win over file: capacity = %d", conf.Player.Capacity)
	}
	if conf.Player.Duration != 500*time.Millisecond {
		t.Errorf("duration = %v, want 500ms from file", conf.Player.Duration)
	}
	if conf.Preload.Count != 3 || conf.Preload.Prefix != "x/f_" {
		t.Errorf("preload = %+v", conf.Preload)
	}
	if conf.Live.ViewerID == "" || conf.Generator.HostID == "" {
		t.Errorf("ids were not generated")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "zero capacity", mutate: func(c *Config) { c.Player.Capacity = 0 }, wantErr: true},
		{name: "zero duration", mutate: func(c *Config) { c.Player.Duration = 0 }, wantErr: true},
		{name: "bad transport", mutate: func(c *Config) { c.Live.Transport = "carrier-pigeon" }, wantErr: true},
		{name: "watch transport", mutate: func(c *Config) { c.Live.Transport = TransportWatch }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Config
			if err := LoadConfigEnv(&c); err != nil {
				t.Fatal(err)
			}
			tt.mutate(&c)
			if err := c.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
