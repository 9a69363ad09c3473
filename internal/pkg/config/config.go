package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	OddsAPI    OddsAPIConfig     `yaml:"odds_api"`
	Search     SearchConfig      `yaml:"search"`
	Telegram   TelegramConfig    `yaml:"telegram"`
	HTTP       HTTPConfig        `yaml:"http"`
	Logging    LoggingConfig     `yaml:"logging"`
	Bookmakers []BookmakerConfig `yaml:"bookmakers"`
}

type OddsAPIConfig struct {
	BaseURL         string   `yaml:"base_url"`
	APIKey          string   `yaml:"api_key"`
	Regions         string   `yaml:"regions"`
	OddsFormat      string   `yaml:"odds_format"`
	Markets         []string `yaml:"markets"`
	PreferredSports []string `yaml:"preferred_sports"` // Fetched first when active
	MaxSports       int      `yaml:"max_sports"`
	Timeout         string   `yaml:"timeout"`     // e.g. "10s"
	SportsTTL       string   `yaml:"sports_ttl"`  // e.g. "1h"
	OddsTTL         string   `yaml:"odds_ttl"`    // e.g. "5m"
	SportPause      string   `yaml:"sport_pause"` // delay between per-sport odds requests
}

type SearchConfig struct {
	Interval       string  `yaml:"interval"`        // worker cadence, e.g. "15m"
	MaxAttempts    int     `yaml:"max_attempts"`    // unresolved cycles before a request expires
	QuickThreshold float64 `yaml:"quick_threshold"` // fraction of stake accepted by quick mode
	Horizon        string  `yaml:"horizon"`         // ignore events starting later than now+horizon
}

type TelegramConfig struct {
	BotToken       string `yaml:"bot_token"`
	FallbackChatID int64  `yaml:"fallback_chat_id"` // channel used when a DM cannot be delivered
	SendInterval   string `yaml:"send_interval"`
}

type HTTPConfig struct {
	Addr              string   `yaml:"addr"`
	ReadHeaderTimeout string   `yaml:"read_header_timeout"`
	RequestTimeout    string   `yaml:"request_timeout"`
	AllowedOrigins    []string `yaml:"allowed_origins"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
	File   string `yaml:"file"`   // optional extra sink
}

type BookmakerConfig struct {
	Key   string `yaml:"key"`
	Label string `yaml:"label"`
	Note  string `yaml:"note"`
}

// Default returns the configuration used when no file overrides a field.
func Default() Config {
	return Config{
		OddsAPI: OddsAPIConfig{
			BaseURL:         "https://api.the-odds-api.com/v4",
			Regions:         "au",
			OddsFormat:      "decimal",
			Markets:         []string{"h2h", "spreads", "totals"},
			PreferredSports: []string{"aussierules_afl", "rugbyleague_nrl", "basketball_nba", "cricket_big_bash"},
			MaxSports:       10,
			Timeout:         "10s",
			SportsTTL:       "1h",
			OddsTTL:         "5m",
			SportPause:      "300ms",
		},
		Search: SearchConfig{
			Interval:       "15m",
			MaxAttempts:    96,
			QuickThreshold: 0.60,
			Horizon:        "168h",
		},
		Telegram: TelegramConfig{
			SendInterval: "2s",
		},
		HTTP: HTTPConfig{
			Addr:              ":8080",
			ReadHeaderTimeout: "5s",
			RequestTimeout:    "60s",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Bookmakers: DefaultBookmakers(),
	}
}

// DefaultBookmakers lists the Australian bookmakers the provider exposes in the au region.
// bet365_au requires a paid API plan and only covers AFL/NRL.
func DefaultBookmakers() []BookmakerConfig {
	return []BookmakerConfig{
		{Key: "sportsbet", Label: "Sportsbet"},
		{Key: "tab", Label: "TAB"},
		{Key: "pointsbetau", Label: "PointsBet"},
		{Key: "ladbrokes_au", Label: "Ladbrokes"},
		{Key: "neds", Label: "Neds"},
		{Key: "unibet", Label: "Unibet"},
		{Key: "betright", Label: "BetRight"},
		{Key: "betr_au", Label: "Betr"},
		{Key: "bet365_au", Label: "Bet365", Note: "AFL & NRL only"},
		{Key: "betfair_ex_au", Label: "Betfair Exchange"},
		{Key: "playup", Label: "PlayUp"},
		{Key: "boombet", Label: "BoomBet"},
		{Key: "tabtouch", Label: "TABtouch"},
	}
}

func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML on top of Default and applies environment overrides.
func Parse(data []byte) (*Config, error) {
	config := Default()
	// Lists replace defaults only when present in the file.
	config.Bookmakers = nil
	config.OddsAPI.Markets = nil
	config.OddsAPI.PreferredSports = nil

	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyDefaults()
	if err := config.applyEnv(); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) applyDefaults() {
	d := Default()
	if c.OddsAPI.BaseURL == "" {
		c.OddsAPI.BaseURL = d.OddsAPI.BaseURL
	}
	if c.OddsAPI.Regions == "" {
		c.OddsAPI.Regions = d.OddsAPI.Regions
	}
	if c.OddsAPI.OddsFormat == "" {
		c.OddsAPI.OddsFormat = d.OddsAPI.OddsFormat
	}
	if len(c.OddsAPI.Markets) == 0 {
		c.OddsAPI.Markets = d.OddsAPI.Markets
	}
	if c.OddsAPI.PreferredSports == nil {
		c.OddsAPI.PreferredSports = d.OddsAPI.PreferredSports
	}
	if c.OddsAPI.MaxSports <= 0 {
		c.OddsAPI.MaxSports = d.OddsAPI.MaxSports
	}
	if c.OddsAPI.Timeout == "" {
		c.OddsAPI.Timeout = d.OddsAPI.Timeout
	}
	if c.OddsAPI.SportsTTL == "" {
		c.OddsAPI.SportsTTL = d.OddsAPI.SportsTTL
	}
	if c.OddsAPI.OddsTTL == "" {
		c.OddsAPI.OddsTTL = d.OddsAPI.OddsTTL
	}
	if c.OddsAPI.SportPause == "" {
		c.OddsAPI.SportPause = d.OddsAPI.SportPause
	}
	if c.Search.Interval == "" {
		c.Search.Interval = d.Search.Interval
	}
	if c.Search.MaxAttempts <= 0 {
		c.Search.MaxAttempts = d.Search.MaxAttempts
	}
	if c.Search.QuickThreshold <= 0 {
		c.Search.QuickThreshold = d.Search.QuickThreshold
	}
	if c.Search.Horizon == "" {
		c.Search.Horizon = d.Search.Horizon
	}
	if c.Telegram.SendInterval == "" {
		c.Telegram.SendInterval = d.Telegram.SendInterval
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = d.HTTP.Addr
	}
	if c.HTTP.ReadHeaderTimeout == "" {
		c.HTTP.ReadHeaderTimeout = d.HTTP.ReadHeaderTimeout
	}
	if c.HTTP.RequestTimeout == "" {
		c.HTTP.RequestTimeout = d.HTTP.RequestTimeout
	}
	if c.Logging.Level == "" {
		c.Logging.Level = d.Logging.Level
	}
	if c.Logging.Format == "" {
		c.Logging.Format = d.Logging.Format
	}
	if len(c.Bookmakers) == 0 {
		c.Bookmakers = d.Bookmakers
	}
}

func (c *Config) applyEnv() error {
	if key := os.Getenv("ODDS_API_KEY"); key != "" {
		c.OddsAPI.APIKey = key
	}
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		c.Telegram.BotToken = token
	}
	if chatIDStr := os.Getenv("TELEGRAM_FALLBACK_CHAT_ID"); chatIDStr != "" {
		chatID, err := strconv.ParseInt(chatIDStr, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid TELEGRAM_FALLBACK_CHAT_ID %q: %w", chatIDStr, err)
		}
		c.Telegram.FallbackChatID = chatID
	}
	return nil
}

// Validate checks that every duration field parses.
func (c *Config) Validate() error {
	durations := map[string]string{
		"odds_api.timeout":         c.OddsAPI.Timeout,
		"odds_api.sports_ttl":      c.OddsAPI.SportsTTL,
		"odds_api.odds_ttl":        c.OddsAPI.OddsTTL,
		"odds_api.sport_pause":     c.OddsAPI.SportPause,
		"search.interval":          c.Search.Interval,
		"search.horizon":           c.Search.Horizon,
		"telegram.send_interval":   c.Telegram.SendInterval,
		"http.read_header_timeout": c.HTTP.ReadHeaderTimeout,
		"http.request_timeout":     c.HTTP.RequestTimeout,
	}
	for name, value := range durations {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, value, err)
		}
	}
	if c.Search.QuickThreshold > 10 {
		return fmt.Errorf("search.quick_threshold is a fraction of stake, got %v", c.Search.QuickThreshold)
	}
	return nil
}

// Duration parses a validated duration field, returning fallback on error.
func Duration(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

// BookmakerKeys returns the configured bookmaker keys in order.
func (c *Config) BookmakerKeys() []string {
	keys := make([]string, 0, len(c.Bookmakers))
	for _, b := range c.Bookmakers {
		keys = append(keys, b.Key)
	}
	return keys
}
