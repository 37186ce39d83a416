// internal/config/config.go
//
// Runtime configuration for the bot: session timing knobs, the claim bound,
// the detonation vote rules, and the leaderboard database location. Values
// come from an optional YAML file with environment overrides on top.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultClaimBound is how many unsolved modules one player may hold.
	DefaultClaimBound = 3
	// DefaultTakeoverTimeout is how long an owner has to confirm a takeover.
	DefaultTakeoverTimeout = 60 * time.Second
	// DefaultDetonateWindow bounds a detonation vote.
	DefaultDetonateWindow = 60 * time.Second
	// DefaultDetonateQuorum is how many distinct seconders a vote needs.
	DefaultDetonateQuorum = 3
	// DefaultMaxListSize caps module listings in channel replies.
	DefaultMaxListSize = 20
	// DefaultLeaderboardPageSize is rows per leaderboard page.
	DefaultLeaderboardPageSize = 10
	// DefaultModuleCap rejects absurd manifests.
	DefaultModuleCap = 101
	// DefaultDatabasePath stores the leaderboard next to the binary.
	DefaultDatabasePath = "leaderboard.db"
	// DefaultCommandRate is sustained commands per second per actor.
	DefaultCommandRate = 2.0
	// DefaultCommandBurst is the per-actor burst allowance.
	DefaultCommandBurst = 5
)

// fileConfig models the optional YAML config file.
type fileConfig struct {
	ClaimBound          int     `yaml:"claim_bound"`
	TakeoverSeconds     int     `yaml:"takeover_seconds"`
	DetonateSeconds     int     `yaml:"detonate_seconds"`
	DetonateQuorum      int     `yaml:"detonate_quorum"`
	MaxListSize         int     `yaml:"max_list_size"`
	LeaderboardPageSize int     `yaml:"leaderboard_page_size"`
	ModuleCap           int     `yaml:"module_cap"`
	DatabasePath        string  `yaml:"database_path"`
	Owner               string  `yaml:"owner"`
	LogLevel            string  `yaml:"log_level"`
	CommandRate         float64 `yaml:"command_rate"`
	CommandBurst        int     `yaml:"command_burst"`
	GatewayEnabled      bool    `yaml:"gateway_enabled"`
	GatewayHost         string  `yaml:"gateway_host"`
	GatewayPort         int     `yaml:"gateway_port"`
}

// Config holds the resolved runtime configuration.
type Config struct {
	ClaimBound          int
	TakeoverTimeout     time.Duration
	DetonateWindow      time.Duration
	DetonateQuorum      int
	MaxListSize         int
	LeaderboardPageSize int
	ModuleCap           int
	DatabasePath        string
	// Owner is the privileged actor allowed to shut the bot down or
	// detonate without a vote. Empty disables privileged commands.
	Owner        string
	LogLevel     string
	CommandRate  float64
	CommandBurst int
	// GatewayEnabled switches on the HTTP command gateway. Host and port
	// fall back to the gateway package defaults when unset.
	GatewayEnabled bool
	GatewayHost    string
	GatewayPort    int
}

// Default returns a Config populated with package defaults.
func Default() Config {
	return Config{
		ClaimBound:          DefaultClaimBound,
		TakeoverTimeout:     DefaultTakeoverTimeout,
		DetonateWindow:      DefaultDetonateWindow,
		DetonateQuorum:      DefaultDetonateQuorum,
		MaxListSize:         DefaultMaxListSize,
		LeaderboardPageSize: DefaultLeaderboardPageSize,
		ModuleCap:           DefaultModuleCap,
		DatabasePath:        DefaultDatabasePath,
		CommandRate:         DefaultCommandRate,
		CommandBurst:        DefaultCommandBurst,
	}
}

// Load reads the YAML file at path (a missing file is fine), applies
// environment overrides, and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if trimmed := strings.TrimSpace(path); trimmed != "" {
		data, err := os.ReadFile(trimmed)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config: read %s: %w", trimmed, err)
		}
		if err == nil {
			var parsed fileConfig
			if err := yaml.Unmarshal(data, &parsed); err != nil {
				return Config{}, fmt.Errorf("config: parse %s: %w", trimmed, err)
			}
			cfg.applyFile(parsed)
		}
	}
	cfg.applyEnvOverrides()
	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyFile(f fileConfig) {
	if f.ClaimBound > 0 {
		c.ClaimBound = f.ClaimBound
	}
	if f.TakeoverSeconds > 0 {
		c.TakeoverTimeout = time.Duration(f.TakeoverSeconds) * time.Second
	}
	if f.DetonateSeconds > 0 {
		c.DetonateWindow = time.Duration(f.DetonateSeconds) * time.Second
	}
	if f.DetonateQuorum > 0 {
		c.DetonateQuorum = f.DetonateQuorum
	}
	if f.MaxListSize > 0 {
		c.MaxListSize = f.MaxListSize
	}
	if f.LeaderboardPageSize > 0 {
		c.LeaderboardPageSize = f.LeaderboardPageSize
	}
	if f.ModuleCap > 0 {
		c.ModuleCap = f.ModuleCap
	}
	if path := strings.TrimSpace(f.DatabasePath); path != "" {
		c.DatabasePath = path
	}
	if owner := strings.TrimSpace(f.Owner); owner != "" {
		c.Owner = owner
	}
	if level := strings.TrimSpace(f.LogLevel); level != "" {
		c.LogLevel = level
	}
	if f.CommandRate > 0 {
		c.CommandRate = f.CommandRate
	}
	if f.CommandBurst > 0 {
		c.CommandBurst = f.CommandBurst
	}
	if f.GatewayEnabled {
		c.GatewayEnabled = true
	}
	if host := strings.TrimSpace(f.GatewayHost); host != "" {
		c.GatewayHost = host
	}
	if f.GatewayPort > 0 {
		c.GatewayPort = f.GatewayPort
	}
}

func (c *Config) applyEnvOverrides() {
	if value := strings.TrimSpace(os.Getenv("BOMBSQUAD_DB_PATH")); value != "" {
		c.DatabasePath = value
	}
	if value := strings.TrimSpace(os.Getenv("BOMBSQUAD_OWNER")); value != "" {
		c.Owner = value
	}
	if value := strings.TrimSpace(os.Getenv("BOMBSQUAD_CLAIM_BOUND")); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			c.ClaimBound = parsed
		}
	}
	if value := strings.TrimSpace(os.Getenv("BOMBSQUAD_TAKEOVER_SECONDS")); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			c.TakeoverTimeout = time.Duration(parsed) * time.Second
		}
	}
	if value := strings.TrimSpace(os.Getenv("BOMBSQUAD_LOG_LEVEL")); value != "" {
		c.LogLevel = value
	}
}

func (c *Config) normalize() {
	if c.ClaimBound <= 0 {
		c.ClaimBound = DefaultClaimBound
	}
	if c.TakeoverTimeout <= 0 {
		c.TakeoverTimeout = DefaultTakeoverTimeout
	}
	if c.DetonateWindow <= 0 {
		c.DetonateWindow = DefaultDetonateWindow
	}
	if c.DetonateQuorum <= 0 {
		c.DetonateQuorum = DefaultDetonateQuorum
	}
	if c.MaxListSize <= 0 {
		c.MaxListSize = DefaultMaxListSize
	}
	if c.LeaderboardPageSize <= 0 {
		c.LeaderboardPageSize = DefaultLeaderboardPageSize
	}
	if c.ModuleCap <= 0 {
		c.ModuleCap = DefaultModuleCap
	}
	if strings.TrimSpace(c.DatabasePath) == "" {
		c.DatabasePath = DefaultDatabasePath
	}
	if c.CommandRate <= 0 {
		c.CommandRate = DefaultCommandRate
	}
	if c.CommandBurst <= 0 {
		c.CommandBurst = DefaultCommandBurst
	}
}

func (c Config) validate() error {
	if c.ClaimBound < 1 {
		return fmt.Errorf("config: claim_bound must be >= 1")
	}
	if c.DetonateQuorum < 1 {
		return fmt.Errorf("config: detonate_quorum must be >= 1")
	}
	if c.ModuleCap < 1 {
		return fmt.Errorf("config: module_cap must be >= 1")
	}
	return nil
}
