package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

type (
	// Config - the root server configuration. Missing sections fall back to
	// the defaults below.
	Config struct {
		Network    *NetworkConfig    `yaml:"network" json:"network"`
		Pipeline   *PipelineConfig   `yaml:"pipeline" json:"pipeline"`
		Expiration *ExpirationConfig `yaml:"expiration" json:"expiration"`
		Logging    *LoggingConfig    `yaml:"logging" json:"logging"`
		Auth       *AuthConfig       `yaml:"auth" json:"auth"`
	}

	NetworkConfig struct {
		Address     string        `yaml:"address" json:"address"`
		Listeners   int           `yaml:"listeners" json:"listeners"`
		Analyzers   int           `yaml:"analyzers" json:"analyzers"`
		IdleTimeout time.Duration `yaml:"idle_timeout" json:"idle_timeout"`
	}

	PipelineConfig struct {
		QueueSize    int           `yaml:"queue_size" json:"queue_size"`
		PollTimeout  time.Duration `yaml:"poll_timeout" json:"poll_timeout"`
		SendTimeout  time.Duration `yaml:"send_timeout" json:"send_timeout"`
		ReplyTimeout time.Duration `yaml:"reply_timeout" json:"reply_timeout"`
	}

	ExpirationConfig struct {
		Interval time.Duration `yaml:"interval" json:"interval"`
		Batch    int           `yaml:"batch" json:"batch"`
	}

	LoggingConfig struct {
		Level  string `yaml:"level" json:"level"`
		Output string `yaml:"output" json:"output"`
	}

	// AuthConfig - selects the authentication service: "mock" (the default,
	// driven by the Username header alone) or "static" (users declared
	// below).
	AuthConfig struct {
		Mode  string       `yaml:"mode" json:"mode"`
		Users []UserConfig `yaml:"users" json:"users"`
	}

	UserConfig struct {
		Username string `yaml:"username" json:"username"`
		Level    string `yaml:"level" json:"level"`
		// PasswordHash - optional bcrypt hash checked against the Password
		// header.
		PasswordHash string `yaml:"password_hash" json:"password_hash"`
	}
)

// Default - the configuration used when no file is given.
func Default() Config {
	return Config{
		Network: &NetworkConfig{Address: "127.0.0.1:7878"},
		Logging: &LoggingConfig{Level: "info"},
	}
}

// GetConfig - loads a config file; an empty path yields the defaults.
func GetConfig(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}

	file, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("cant open config file: %w", err)
	}
	defer file.Close()

	return ParseConfig(file)
}

// ParseConfig - decodes yaml, falling back to json.
func ParseConfig(input io.Reader) (Config, error) {
	content, err := io.ReadAll(input)
	if err != nil {
		return Config{}, fmt.Errorf("cant read config: %w", err)
	}

	var cfg Config
	yamlErr := yaml.Unmarshal(content, &cfg)
	if yamlErr == nil {
		cfg.withDefaults()
		return cfg, nil
	}

	if jsonErr := json.Unmarshal(content, &cfg); jsonErr != nil {
		return Config{}, fmt.Errorf(
			"cant decode config: yaml: %s; json: %s", yamlErr, jsonErr)
	}

	cfg.withDefaults()
	return cfg, nil
}

func (c *Config) withDefaults() {
	defaults := Default()
	if c.Network == nil {
		c.Network = defaults.Network
	}
	if c.Network.Address == "" {
		c.Network.Address = defaults.Network.Address
	}
	if c.Logging == nil {
		c.Logging = defaults.Logging
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaults.Logging.Level
	}
}
