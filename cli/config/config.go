package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrNotInitialized is returned when no config file exists yet.
var ErrNotInitialized = errors.New("configuration not initialized")

type Config struct {
	Server struct {
		Host     string `yaml:"host"`
		HTTPPort int    `yaml:"http_port"`
		GRPCPort int    `yaml:"grpc_port"`
		TLS      bool   `yaml:"tls"`
	} `yaml:"server"`
	User struct {
		Username string `yaml:"username"`
		Token    string `yaml:"token"`
	} `yaml:"user"`
	Output struct {
		Color bool `yaml:"color"`
	} `yaml:"output"`
	Logging struct {
		Level string `yaml:"level"`
		Path  string `yaml:"path"`
	} `yaml:"logging"`
}

// GetConfigDir honours GAMESHELF_HOME before falling back to ~/.gameshelf.
func GetConfigDir() (string, error) {
	if dir := os.Getenv("GAMESHELF_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".gameshelf"), nil
}

func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.yaml"), nil
}

func Default(configDir string) *Config {
	cfg := &Config{}
	cfg.Server.Host = "localhost"
	cfg.Server.HTTPPort = 8080
	cfg.Server.GRPCPort = 9092
	cfg.Output.Color = true
	cfg.Logging.Level = "info"
	cfg.Logging.Path = filepath.Join(configDir, "logs")
	return cfg
}

func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotInitialized
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &cfg, nil
}

// Save writes the config with owner-only permissions since it holds a token.
func Save(cfg *Config) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Init creates the config directory and a default config. An existing config
// is kept unless force is set.
func Init(force bool) (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	configPath := filepath.Join(configDir, "config.yaml")

	if !force {
		if _, err := os.Stat(configPath); err == nil {
			return configPath, fmt.Errorf("config already exists at %s (use --force to overwrite)", configPath)
		}
	}

	if err := os.MkdirAll(filepath.Join(configDir, "logs"), 0o700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return configPath, Save(Default(configDir))
}

func UpdateUserToken(username, token string) error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	cfg.User.Username = username
	cfg.User.Token = token
	return Save(cfg)
}

func ClearUserToken() error {
	return UpdateUserToken("", "")
}

func (c *Config) ServerURL() string {
	scheme := "http"
	if c.Server.TLS {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, c.Server.Host, c.Server.HTTPPort)
}

func GetServerURL() (string, error) {
	cfg, err := Load()
	if err != nil {
		return "", err
	}
	return cfg.ServerURL(), nil
}

// Keys lists the settable "section.key" names in display order.
var Keys = []string{
	"server.host",
	"server.http_port",
	"server.grpc_port",
	"server.tls",
	"output.color",
	"logging.level",
	"logging.path",
}

// Set assigns a "section.key" value, parsing it for the field's type.
func (c *Config) Set(key, value string) error {
	switch strings.ToLower(key) {
	case "server.host":
		c.Server.Host = value
	case "server.http_port":
		return setPort(&c.Server.HTTPPort, key, value)
	case "server.grpc_port":
		return setPort(&c.Server.GRPCPort, key, value)
	case "server.tls":
		return setBool(&c.Server.TLS, key, value)
	case "output.color":
		return setBool(&c.Output.Color, key, value)
	case "logging.level":
		switch strings.ToLower(value) {
		case "debug", "info", "warn", "error":
			c.Logging.Level = strings.ToLower(value)
		default:
			return fmt.Errorf("invalid value for %s: must be one of debug, info, warn, error", key)
		}
	case "logging.path":
		c.Logging.Path = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}

// Get returns the display value of a "section.key".
func (c *Config) Get(key string) (string, error) {
	switch strings.ToLower(key) {
	case "server.host":
		return c.Server.Host, nil
	case "server.http_port":
		return strconv.Itoa(c.Server.HTTPPort), nil
	case "server.grpc_port":
		return strconv.Itoa(c.Server.GRPCPort), nil
	case "server.tls":
		return strconv.FormatBool(c.Server.TLS), nil
	case "output.color":
		return strconv.FormatBool(c.Output.Color), nil
	case "logging.level":
		return c.Logging.Level, nil
	case "logging.path":
		return c.Logging.Path, nil
	}
	return "", fmt.Errorf("unknown configuration key: %s", key)
}

func setPort(dst *int, key, value string) error {
	v, err := strconv.Atoi(value)
	if err != nil || v < 1 || v > 65535 {
		return fmt.Errorf("invalid port for %s: %q", key, value)
	}
	*dst = v
	return nil
}

func setBool(dst *bool, key, value string) error {
	v, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid boolean for %s: %q", key, value)
	}
	*dst = v
	return nil
}
