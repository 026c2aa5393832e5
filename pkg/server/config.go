package server

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds server configuration. Precedence is applied by the caller:
// defaults, then config file, then environment, then explicit flags.
type Config struct {
	ListenAddr  string `yaml:"listen_addr" env:"TALKD_LISTEN_ADDR"`   // TCP bind address
	WSAddr      string `yaml:"ws_addr" env:"TALKD_WS_ADDR"`           // WebSocket bind address (empty = disabled)
	MetricsAddr string `yaml:"metrics_addr" env:"TALKD_METRICS_ADDR"` // HTTP bind address for /metrics (empty = disabled)
	DBPath      string `yaml:"db_path" env:"TALKD_DB"`                // SQLite database path

	SendBuffer   int `yaml:"send_buffer" env:"TALKD_SEND_BUFFER"`       // outbound lines queued per session
	MaxLineBytes int `yaml:"max_line_bytes" env:"TALKD_MAX_LINE_BYTES"` // inbound line size cap
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		ListenAddr:   ":8888",
		MetricsAddr:  ":8890",
		DBPath:       "talkd.db",
		SendBuffer:   64,
		MaxLineBytes: 4096,
	}
}

// ApplyFile overlays values from a YAML config file.
func (c *Config) ApplyFile(path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // path from user-provided CLI config
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

// ApplyEnv overlays values from TALKD_* environment variables, loading a
// local .env file first when one exists.
func (c *Config) ApplyEnv() error {
	_ = godotenv.Load() // .env is optional
	if err := env.Parse(c); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}
	return nil
}
