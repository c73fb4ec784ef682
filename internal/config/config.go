// Package config loads ~/.config/ncaabb-scrape/config.yaml. Every field is
// optional; anything the file leaves out keeps its default, and a missing
// file means all defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pfrederiksen/ncaabb-scrape/internal/filter"
	"github.com/pfrederiksen/ncaabb-scrape/internal/logger"
	"github.com/pfrederiksen/ncaabb-scrape/internal/schedule"
	"github.com/pfrederiksen/ncaabb-scrape/internal/schema"
	"github.com/pfrederiksen/ncaabb-scrape/internal/scraper"
	"github.com/pfrederiksen/ncaabb-scrape/internal/storage"
	"github.com/pfrederiksen/ncaabb-scrape/internal/teams"
)

const (
	DefaultDataDir = "~/.local/share/ncaabb-scrape"
	DefaultStart   = "2025-11-09"
)

// StorageConfig selects the store backend
type StorageConfig struct {
	Type string `yaml:"type"`
	DSN  string `yaml:"dsn"`
}

// ScraperConfig tunes the HTTP client
type ScraperConfig struct {
	UserAgent        string        `yaml:"user_agent"`
	Timeout          time.Duration `yaml:"timeout"`
	Retries          int           `yaml:"retries"`
	RetryWait        time.Duration `yaml:"retry_wait"`
	DetailDelay      time.Duration `yaml:"detail_delay"`
	TableSelector    string        `yaml:"table_selector"`
	CloudflareBypass bool          `yaml:"cloudflare_bypass"`
	URLs             scraper.URLs  `yaml:"urls"`
}

// PageConfig declares one stat or rating page
type PageConfig struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"`
}

// Config is the full configuration
type Config struct {
	DataDir  string        `yaml:"data_dir"`
	Storage  StorageConfig `yaml:"storage"`
	Start    string        `yaml:"start"`
	Season   string        `yaml:"season"`
	LogLevel string        `yaml:"log_level"`
	Scraper  ScraperConfig `yaml:"scraper"`
	// Pages replaces the built-in page list when set
	Pages         []PageConfig `yaml:"pages"`
	ExcludeTokens []string     `yaml:"exclude_tokens"`
	ScoresFile    string       `yaml:"scores_file"`
	TeamThreshold float64      `yaml:"team_threshold"`
}

// Default returns the built-in configuration
func Default() *Config {
	sc := scraper.DefaultConfig()
	return &Config{
		DataDir:  DefaultDataDir,
		Storage:  StorageConfig{Type: storage.TypeFile},
		Start:    DefaultStart,
		Season:   schema.DefaultSeason,
		LogLevel: string(logger.LevelInfo),
		Scraper: ScraperConfig{
			UserAgent:        sc.UserAgent,
			Timeout:          sc.Timeout,
			Retries:          sc.Retries,
			RetryWait:        sc.RetryWait,
			DetailDelay:      sc.DetailDelay,
			TableSelector:    sc.TableSelector,
			CloudflareBypass: sc.CloudflareBypass,
			URLs:             sc.URLs,
		},
		ExcludeTokens: append([]string(nil), filter.DefaultExcludeTokens...),
		ScoresFile:    "df_scores.xlsx",
		TeamThreshold: teams.DefaultThreshold,
	}
}

// DefaultPath returns ~/.config/ncaabb-scrape/config.yaml
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, ".config", "ncaabb-scrape", "config.yaml"), nil
}

// Load reads path over the defaults. An empty path means DefaultPath, and a
// missing default file is not an error; a missing explicit path is.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) && !explicit {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks every field that is parsed later
func (c *Config) Validate() error {
	if _, err := schedule.ParseDate(c.Start); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	switch c.Storage.Type {
	case "", storage.TypeFile, storage.TypeSQLite:
	default:
		return fmt.Errorf("storage.type: unknown backend %q", c.Storage.Type)
	}
	if c.TeamThreshold < 0 || c.TeamThreshold > 1 {
		return fmt.Errorf("team_threshold must be between 0 and 1")
	}
	pages, err := c.PageList()
	if err != nil {
		return err
	}
	return schema.Validate(pages, c.Season)
}

// StartDate returns the parsed first date of the season range
func (c *Config) StartDate() (time.Time, error) {
	return schedule.ParseDate(c.Start)
}

// PageList returns the configured pages, or the built-in list
func (c *Config) PageList() ([]schema.Page, error) {
	if len(c.Pages) == 0 {
		return schema.DefaultPages(), nil
	}
	pages := make([]schema.Page, 0, len(c.Pages))
	for _, p := range c.Pages {
		switch schema.Kind(p.Kind) {
		case schema.KindStat:
			pages = append(pages, schema.Stat(p.Name))
		case schema.KindRating:
			pages = append(pages, schema.Rating(p.Name))
		default:
			return nil, fmt.Errorf("pages: %q has unknown kind %q", p.Name, p.Kind)
		}
	}
	return pages, nil
}

// ScraperSettings converts the scraper section for scraper.New
func (c *Config) ScraperSettings() scraper.Config {
	return scraper.Config{
		UserAgent:        c.Scraper.UserAgent,
		Timeout:          c.Scraper.Timeout,
		Retries:          c.Scraper.Retries,
		RetryWait:        c.Scraper.RetryWait,
		DetailDelay:      c.Scraper.DetailDelay,
		TableSelector:    c.Scraper.TableSelector,
		CloudflareBypass: c.Scraper.CloudflareBypass,
		URLs:             c.Scraper.URLs,
	}
}
