package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Filters   Filters   `yaml:"filters"`
	Anonymize Anonymize `yaml:"anonymize"`
	Output    Output    `yaml:"output"`
	Logging   Logging   `yaml:"logging"`
}

type Filters struct {
	MinScore        int      `yaml:"min_score"`
	MinCommentWords int      `yaml:"min_comment_words"`
	Idioms          []string `yaml:"idioms"`
	FilterEdited    bool     `yaml:"filter_edited"`
	FilterLanguage  bool     `yaml:"filter_language"`
	TargetLanguage  string   `yaml:"target_language"`
	ReplaceURLs     bool     `yaml:"replace_urls"`
	ExtraBots       []string `yaml:"extra_bots"`
	TopicKeywords   []string `yaml:"topic_keywords"`
}

type Anonymize struct {
	Enabled bool   `yaml:"enabled"`
	SaltEnv string `yaml:"salt_env"`
}

type Output struct {
	Dir    string `yaml:"dir"`
	SQLite string `yaml:"sqlite"`
	Report bool   `yaml:"report"`
}

type Logging struct {
	Verbose bool `yaml:"verbose"`
}

// ConfigDir returns the XDG config directory for redditfilter.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "redditfilter")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/redditfilter/config.yaml > ./config.yaml.
// An empty path with a nil error means no file exists and defaults apply.
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", nil
}

// Load reads and parses a config YAML file. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Filters: Filters{
			MinScore:        2,
			MinCommentWords: 10,
			TargetLanguage:  "en",
		},
		Anonymize: Anonymize{SaltEnv: "REDDITFILTER_SALT"},
		Output:    Output{Dir: "./filtered_data"},
	}
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Filters.MinCommentWords < 0 {
		return fmt.Errorf("min_comment_words must not be negative, got %d", c.Filters.MinCommentWords)
	}
	if c.Filters.FilterLanguage && len(c.Filters.TargetLanguage) != 2 {
		return fmt.Errorf("target_language must be an ISO 639-1 code, got %q", c.Filters.TargetLanguage)
	}
	if c.Output.Dir == "" {
		return fmt.Errorf("output dir must not be empty")
	}
	return nil
}

// Salt returns the anonymization salt from the configured environment
// variable, or "" when it is unset.
func (c *Config) Salt() string {
	if c.Anonymize.SaltEnv == "" {
		return ""
	}
	return os.Getenv(c.Anonymize.SaltEnv)
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
