package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Intake     Intake              `yaml:"intake"`
	Extraction Extraction          `yaml:"extraction"`
	Categories map[string][]string `yaml:"categories"`
	Scoring    Scoring             `yaml:"scoring"`
	Output     Output              `yaml:"output"`
	Server     Server              `yaml:"server"`
	Logging    Logging             `yaml:"logging"`
}

type Intake struct {
	// TrackingParams are query parameter names stripped during URL
	// normalization, before fingerprinting.
	TrackingParams []string `yaml:"tracking_params"`
}

type Extraction struct {
	TimeoutSeconds  int    `yaml:"timeout_seconds"`
	ReadingSpeedWPM int    `yaml:"reading_speed_wpm"`
	UserAgent       string `yaml:"user_agent"`
}

type Scoring struct {
	Base             int            `yaml:"base"`
	CategoryScores   map[string]int `yaml:"category_scores"`
	DefaultCategory  int            `yaml:"default_category"`
	MorningBonus     int            `yaml:"morning_bonus"`
	EveningBonus     int            `yaml:"evening_bonus"`
	StageBonuses     map[string]int `yaml:"stage_bonuses"`
	WordCountDivisor int            `yaml:"word_count_divisor"`
	WordCountCap     int            `yaml:"word_count_cap"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Server struct {
	Port int `yaml:"port"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// ExtractTimeout returns the extraction timeout as a duration.
func (c *Config) ExtractTimeout() time.Duration {
	return time.Duration(c.Extraction.TimeoutSeconds) * time.Second
}

// ConfigDir returns the XDG config directory for linemark.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "linemark")
}

// DataDir returns the XDG data directory for linemark.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "linemark")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/linemark/config.yaml > ./config.yaml
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

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'linemark init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg, err := parse(DefaultConfigYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded default config is invalid: %v", err))
	}
	return cfg
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Intake: Intake{
			TrackingParams: []string{
				"utm_source", "utm_medium", "utm_campaign", "utm_term",
				"utm_content", "gclid", "fbclid", "igshid", "mc_cid",
				"mc_eid", "ref", "source",
			},
		},
		Extraction: Extraction{
			TimeoutSeconds:  10,
			ReadingSpeedWPM: 200,
			UserAgent:       "linemark/1.0 (article bookmarker)",
		},
		Scoring: Scoring{
			Base:            500,
			DefaultCategory: 50,
			MorningBonus:    100,
			EveningBonus:    80,
			StageBonuses: map[string]int{
				"reading":   30,
				"reviewing": 20,
				"completed": 10,
			},
			WordCountDivisor: 10,
			WordCountCap:     150,
		},
		Server:  Server{Port: 8000},
		Logging: Logging{Level: "INFO"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.Scoring.CategoryScores == nil {
		cfg.Scoring.CategoryScores = defaultCategoryScores()
	}
	if cfg.Categories == nil {
		cfg.Categories = defaultCategories()
	}

	return cfg, nil
}

func defaultCategoryScores() map[string]int {
	return map[string]int{
		"AI":          160,
		"Technology":  150,
		"Programming": 150,
		"Science":     140,
		"Business":    120,
		"Health":      100,
		"Sports":      80,
	}
}

func defaultCategories() map[string][]string {
	return map[string][]string{
		"AI":          {"ai", "machine learning", "neural", "llm", "deep learning", "model"},
		"Technology":  {"tech", "technology", "software", "hardware", "gadget", "startup"},
		"Programming": {"programming", "code", "golang", "python", "javascript", "api", "tutorial"},
		"Science":     {"science", "research", "physics", "biology", "astronomy", "study"},
		"Business":    {"business", "finance", "market", "economy", "investment", "revenue"},
		"Health":      {"health", "medical", "medicine", "fitness", "nutrition", "wellness"},
		"Sports":      {"sport", "sports", "football", "baseball", "soccer", "olympics"},
	}
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
