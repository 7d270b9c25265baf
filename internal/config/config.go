// Package config loads console profiles from a YAML or TOML file with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/eugenetaranov/mangosctl/internal/console"
)

// EnvPrefix prefixes every environment override, e.g. MANGOSCTL_HOST.
const EnvPrefix = "MANGOSCTL"

// DefaultProfile is used when no --console flag is given.
const DefaultProfile = "default"

// ErrNoConfig is returned when an explicit config path does not exist.
var ErrNoConfig = errors.New("config file not found")

// Config is the top-level configuration file.
type Config struct {
	// Path is the file the config was read from, empty for built-in defaults.
	Path string `yaml:"-" toml:"-"`

	Log      Log                `yaml:"log" toml:"log"`
	Consoles map[string]Profile `yaml:"consoles" toml:"consoles"`
}

// Log configures the structured logger.
type Log struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// Profile describes one remote access console.
type Profile struct {
	Host         string        `yaml:"host" toml:"host"`
	Port         int           `yaml:"port" toml:"port"`
	Username     string        `yaml:"username" toml:"username"`
	Password     string        `yaml:"password" toml:"password"`
	Prompt       string        `yaml:"prompt" toml:"prompt"`
	FlushTimeout time.Duration `yaml:"flush_timeout" toml:"flush_timeout"`
	DialTimeout  time.Duration `yaml:"dial_timeout" toml:"dial_timeout"`
	LoginTimeout time.Duration `yaml:"login_timeout" toml:"login_timeout"`
}

// overrides holds the environment variables read by envconfig. Keys come
// from the field names so unprefixed variables like HOST are never read.
// Zero values leave the profile untouched.
type overrides struct {
	Host     string
	Port     int
	Username string
	Password string
	Prompt   string
	LogLevel string `split_words:"true"`
}

// Default returns the configuration used when no file is found: a local
// console with the stock CMaNGOS administrator account.
func Default() *Config {
	return &Config{
		Log: Log{Level: "info", Format: "text"},
		Consoles: map[string]Profile{
			DefaultProfile: {
				Host:     "127.0.0.1",
				Port:     3443,
				Username: "administrator",
			},
		},
	}
}

// SearchPaths returns the locations tried when no path is given.
func SearchPaths() []string {
	paths := []string{"mangosctl.yaml", "mangosctl.toml"}
	if home, err := os.UserHomeDir(); err == nil {
		dir := filepath.Join(home, ".config", "mangosctl")
		paths = append(paths, filepath.Join(dir, "config.yaml"), filepath.Join(dir, "config.toml"))
	}
	return paths
}

// Load reads the config at path. With an empty path the search paths are
// tried in order and Default is returned when none exists.
func Load(path string) (*Config, error) {
	if path != "" {
		return loadFile(path)
	}
	for _, p := range SearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return loadFile(p)
		}
	}
	return Default(), nil
}

func loadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoConfig, path)
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	parse := Parse
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		parse = ParseTOML
	}
	cfg, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.Path = path
	return cfg, nil
}

// Parse decodes config YAML.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg.withDefaults(), nil
}

// ParseTOML decodes config TOML.
func ParseTOML(data []byte) (*Config, error) {
	cfg := &Config{}
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg.withDefaults(), nil
}

func (c *Config) withDefaults() *Config {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if len(c.Consoles) == 0 {
		c.Consoles = Default().Consoles
	}
	return c
}

// ApplyEnv applies the MANGOSCTL_LOG_LEVEL override.
func (c *Config) ApplyEnv() error {
	var env overrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return fmt.Errorf("invalid environment: %w", err)
	}
	if env.LogLevel != "" {
		c.Log.Level = env.LogLevel
	}
	return nil
}

// Names returns the profile names, sorted.
func (c *Config) Names() []string {
	names := make([]string, 0, len(c.Consoles))
	for name := range c.Consoles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Profile returns the named profile with environment overrides applied and
// validated. An empty name selects DefaultProfile.
func (c *Config) Profile(name string) (Profile, error) {
	if name == "" {
		name = DefaultProfile
	}
	p, ok := c.Consoles[name]
	if !ok {
		return Profile{}, fmt.Errorf("unknown console profile %q (available: %v)", name, c.Names())
	}

	var env overrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return Profile{}, fmt.Errorf("invalid environment: %w", err)
	}
	p = p.merge(env)

	if err := p.Validate(); err != nil {
		return Profile{}, fmt.Errorf("console profile %q: %w", name, err)
	}
	return p, nil
}

func (p Profile) merge(env overrides) Profile {
	if env.Host != "" {
		p.Host = env.Host
	}
	if env.Port != 0 {
		p.Port = env.Port
	}
	if env.Username != "" {
		p.Username = env.Username
	}
	if env.Password != "" {
		p.Password = env.Password
	}
	if env.Prompt != "" {
		p.Prompt = env.Prompt
	}
	return p
}

// Validate checks the profile's connection settings. An empty prompt is
// allowed and means console.DefaultPrompt.
func (p Profile) Validate() error {
	if p.Host == "" {
		return fmt.Errorf("host is required")
	}
	if p.Port < 1 || p.Port > 65535 {
		return fmt.Errorf("port %d out of range 1-65535", p.Port)
	}
	if p.Username == "" {
		return fmt.Errorf("username is required")
	}
	if p.FlushTimeout < 0 || p.DialTimeout < 0 || p.LoginTimeout < 0 {
		return fmt.Errorf("timeouts cannot be negative")
	}
	return nil
}

// Console converts the profile to session settings.
func (p Profile) Console() console.Config {
	prompt := p.Prompt
	if prompt == "" {
		prompt = console.DefaultPrompt
	}
	return console.Config{
		Host:         p.Host,
		Port:         p.Port,
		Username:     p.Username,
		Password:     p.Password,
		Prompt:       prompt,
		FlushTimeout: p.FlushTimeout,
		DialTimeout:  p.DialTimeout,
		LoginTimeout: p.LoginTimeout,
	}
}
