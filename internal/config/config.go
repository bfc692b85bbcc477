package config

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"ContentCurator/internal/scoring"
	"ContentCurator/internal/source"
)

const configPathEnv = "CONTENT_CURATOR_CONFIG"

// Config holds high-level settings required across the application.
type Config struct {
	Database      DatabaseConfig     `yaml:"database"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Logging       LoggingConfig      `yaml:"logging"`
	Retrieval     RetrievalConfig    `yaml:"retrieval"`
	Scoring       scoring.Rules      `yaml:"scoring"`
	Notifications NotificationConfig `yaml:"notifications"`
	Sources       []SourceConfig     `yaml:"sources"`
}

// DatabaseConfig selects the store backend.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// SchedulerConfig defines how often the refresh runs.
type SchedulerConfig struct {
	Interval       time.Duration `yaml:"interval"`
	RunOnStart     *bool         `yaml:"runOnStart"`
	Lookback       time.Duration `yaml:"lookback"`
	AdapterTimeout time.Duration `yaml:"adapterTimeout"`
	BusinessHours  BusinessHours `yaml:"businessHours"`
}

// BusinessHours restricts scheduled ticks to weekday working hours, with sparser
// weekend runs. Disabled unless Enabled is set.
type BusinessHours struct {
	Enabled      bool          `yaml:"enabled"`
	StartHour    int           `yaml:"startHour"`
	EndHour      int           `yaml:"endHour"`
	WeekendEvery time.Duration `yaml:"weekendEvery"`
	Timezone     string        `yaml:"timezone"`
}

// Location resolves Timezone, falling back to UTC.
func (b BusinessHours) Location() *time.Location {
	if b.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(b.Timezone)
	if err != nil {
		log.Printf("config: unknown timezone %q, using UTC: %v", b.Timezone, err)
		return time.UTC
	}
	return loc
}

// ShouldRunOnStart defaults to true.
func (s SchedulerConfig) ShouldRunOnStart() bool {
	return s.RunOnStart == nil || *s.RunOnStart
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type RetrievalConfig struct {
	DefaultLimit int `yaml:"defaultLimit"`
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string        `yaml:"botToken"`
	ChatID   string        `yaml:"chatId"`
	Endpoint string        `yaml:"endpoint"`
	Timeout  time.Duration `yaml:"timeout"`
}

// SourceConfig describes a single upstream provider and the adapter kind that reads it.
type SourceConfig struct {
	Name     string            `yaml:"name"`
	Kind     string            `yaml:"kind"`
	URL      string            `yaml:"url"`
	Category string            `yaml:"category"`
	Timeout  time.Duration     `yaml:"timeout"`
	Options  map[string]string `yaml:"options"`
}

// Spec converts the entry into what the adapter registry consumes.
func (s SourceConfig) Spec() source.Spec {
	return source.Spec{
		Name:     s.Name,
		Kind:     s.Kind,
		URL:      s.URL,
		Category: s.Category,
		Timeout:  s.Timeout,
		Options:  s.Options,
	}
}

// SourceSpecs converts every configured source.
func (c Config) SourceSpecs() []source.Spec {
	specs := make([]source.Spec, 0, len(c.Sources))
	for _, s := range c.Sources {
		specs = append(specs, s.Spec())
	}
	return specs
}

type envOverrides struct {
	DatabaseDriver  string        `env:"DATABASE_DRIVER"`
	DatabaseDSN     string        `env:"DATABASE_DSN"`
	TelegramToken   string        `env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID  string        `env:"TELEGRAM_CHAT_ID"`
	LogLevel        string        `env:"LOG_LEVEL"`
	RefreshInterval time.Duration `env:"REFRESH_INTERVAL"`
}

// Load reads .env and the YAML configuration (if present) and applies environment
// overrides. path wins over CONTENT_CURATOR_CONFIG when set.
func Load(path string) Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("config: cannot load .env: %v", err)
	}

	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else if fileCfg, err := Parse(raw); err != nil {
			log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
		} else {
			cfg = mergeConfig(cfg, fileCfg)
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

// Parse decodes a YAML document without applying defaults.
func Parse(raw []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		log.Printf("config: ignoring environment overrides: %v", err)
		return
	}

	if o.DatabaseDriver != "" {
		c.Database.Driver = o.DatabaseDriver
	}
	if o.DatabaseDSN != "" {
		c.Database.DSN = o.DatabaseDSN
	}
	if o.TelegramToken != "" {
		c.Notifications.Telegram.BotToken = o.TelegramToken
	}
	if o.TelegramChatID != "" {
		c.Notifications.Telegram.ChatID = o.TelegramChatID
	}
	if o.LogLevel != "" {
		c.Logging.Level = o.LogLevel
	}
	if o.RefreshInterval > 0 {
		c.Scheduler.Interval = o.RefreshInterval
	}
}

func mergeConfig(base, override Config) Config {
	if override.Database.Driver != "" {
		base.Database.Driver = override.Database.Driver
	}
	if override.Database.DSN != "" {
		base.Database.DSN = override.Database.DSN
	}

	if override.Scheduler.Interval > 0 {
		base.Scheduler.Interval = override.Scheduler.Interval
	}
	if override.Scheduler.RunOnStart != nil {
		base.Scheduler.RunOnStart = override.Scheduler.RunOnStart
	}
	if override.Scheduler.Lookback > 0 {
		base.Scheduler.Lookback = override.Scheduler.Lookback
	}
	if override.Scheduler.AdapterTimeout > 0 {
		base.Scheduler.AdapterTimeout = override.Scheduler.AdapterTimeout
	}
	if bh := override.Scheduler.BusinessHours; bh.Enabled {
		merged := base.Scheduler.BusinessHours
		merged.Enabled = true
		if bh.StartHour > 0 {
			merged.StartHour = bh.StartHour
		}
		if bh.EndHour > 0 {
			merged.EndHour = bh.EndHour
		}
		if bh.WeekendEvery != 0 {
			merged.WeekendEvery = bh.WeekendEvery
		}
		if bh.Timezone != "" {
			merged.Timezone = bh.Timezone
		}
		base.Scheduler.BusinessHours = merged
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	if override.Retrieval.DefaultLimit > 0 {
		base.Retrieval.DefaultLimit = override.Retrieval.DefaultLimit
	}

	base.Scoring = base.Scoring.Merge(override.Scoring)

	tg := override.Notifications.Telegram
	if tg.BotToken != "" {
		base.Notifications.Telegram.BotToken = tg.BotToken
	}
	if tg.ChatID != "" {
		base.Notifications.Telegram.ChatID = tg.ChatID
	}
	if tg.Endpoint != "" {
		base.Notifications.Telegram.Endpoint = tg.Endpoint
	}
	if tg.Timeout > 0 {
		base.Notifications.Telegram.Timeout = tg.Timeout
	}

	if len(override.Sources) > 0 {
		base.Sources = override.Sources
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Database: DatabaseConfig{Driver: "sqlite", DSN: "file:curator.db"},
		Scheduler: SchedulerConfig{
			Interval:       6 * time.Hour,
			Lookback:       7 * 24 * time.Hour,
			AdapterTimeout: 30 * time.Second,
			BusinessHours:  BusinessHours{StartHour: 9, EndHour: 21, WeekendEvery: 8 * time.Hour},
		},
		Logging:   LoggingConfig{Level: "info", Format: "text"},
		Retrieval: RetrievalConfig{DefaultLimit: 20},
		Scoring:   scoring.DefaultRules(),
		Notifications: NotificationConfig{
			Telegram: TelegramConfig{Endpoint: "https://api.telegram.org", Timeout: 5 * time.Second},
		},
		Sources: []SourceConfig{
			{Name: "StratCann", Kind: "rss", URL: "https://stratcann.ca/feed", Options: map[string]string{"maxItems": "5"}},
			{Name: "MJBizDaily", Kind: "rss", URL: "https://mjbizdaily.com/feed/", Options: map[string]string{"maxItems": "5"}},
			{Name: "New Cannabis Ventures", Kind: "rss", URL: "https://www.newcannabisventures.com/feed/", Options: map[string]string{"maxItems": "5"}},
			{Name: "Cannabis Business Times", Kind: "rss", URL: "https://www.cannabisbusinesstimes.com/rss/", Options: map[string]string{"maxItems": "5"}},
			{
				Name: "reddit",
				Kind: "forum",
				URL:  "https://www.reddit.com",
				Options: map[string]string{
					"communities": "canadients,TheOCS,CanadianCannabisLPs",
					"limit":       "10",
				},
			},
			{
				Name:     "Health Canada",
				Kind:     "regulator",
				URL:      "https://www.canada.ca/en/health-canada/services/drugs-medication/cannabis/industry-licensees-applicants/licensed-cultivators-processors-sellers.html",
				Category: "Regulatory",
				Options: map[string]string{
					"itemSelector":  "main li",
					"titleSelector": "a",
					"dateSelector":  "time",
				},
			},
		},
	}
}
