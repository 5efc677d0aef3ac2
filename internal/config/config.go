package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gravitas-games/hextactics/pkg/models"
)

// Config holds all server configuration
type Config struct {
	Server ServerConfig `yaml:"server"`
	Auth   AuthConfig   `yaml:"auth"`
	Redis  RedisConfig  `yaml:"redis"`
	Battle BattleConfig `yaml:"battle"`
	Log    LogConfig    `yaml:"log"`
}

// ServerConfig holds server-specific settings
type ServerConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	StepDelayMs int    `yaml:"step_delay_ms"` // pause between committed movement steps
}

// AuthConfig holds JWT settings. An empty secret disables authentication.
type AuthConfig struct {
	Secret string `yaml:"secret"`
	Issuer string `yaml:"issuer"`
}

// RedisConfig holds the event bridge connection settings
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Channel  string `yaml:"channel"`
}

// BattleConfig holds map generation and rules settings
type BattleConfig struct {
	MapRadius           int            `yaml:"map_radius"`
	MapSeed             int64          `yaml:"map_seed"`
	PlayerFaction       models.Faction `yaml:"player_faction"`
	SightRange          int            `yaml:"sight_range"`
	SenseBonus          int            `yaml:"sense_bonus"`
	ZOCPenalty          int            `yaml:"zoc_penalty"`
	MaxSearchIterations int            `yaml:"max_search_iterations"`
	MovePoints          int            `yaml:"move_points"`
	Occlusion           bool           `yaml:"occlusion"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML configuration and applies defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Validate rejects settings the battle rules cannot work with.
func (c *Config) Validate() error {
	if c.Battle.MapRadius < 1 {
		return fmt.Errorf("battle.map_radius must be positive, got %d", c.Battle.MapRadius)
	}
	if c.Battle.ZOCPenalty < 0 {
		return fmt.Errorf("battle.zoc_penalty must not be negative, got %d", c.Battle.ZOCPenalty)
	}
	if c.Battle.PlayerFaction == models.FactionNeutral {
		return fmt.Errorf("battle.player_faction must not be neutral")
	}
	if c.Redis.Enabled && c.Redis.Address == "" {
		return fmt.Errorf("redis.address is required when redis is enabled")
	}
	return nil
}

func (c *Config) applyDefaults() {
	// Set defaults if not provided
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.StepDelayMs == 0 {
		c.Server.StepDelayMs = 250
	}
	if c.Auth.Issuer == "" {
		c.Auth.Issuer = "hextactics"
	}
	if c.Redis.Channel == "" {
		c.Redis.Channel = "hextactics:events"
	}
	if c.Battle.MapRadius == 0 {
		c.Battle.MapRadius = 10
	}
	if c.Battle.PlayerFaction == models.FactionNeutral {
		c.Battle.PlayerFaction = models.FactionPlayer
	}
	if c.Battle.SightRange == 0 {
		c.Battle.SightRange = 6
	}
	if c.Battle.SenseBonus == 0 {
		c.Battle.SenseBonus = 2
	}
	if c.Battle.ZOCPenalty == 0 {
		c.Battle.ZOCPenalty = 1
	}
	if c.Battle.MaxSearchIterations == 0 {
		c.Battle.MaxSearchIterations = 10000
	}
	if c.Battle.MovePoints == 0 {
		c.Battle.MovePoints = 6
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}
