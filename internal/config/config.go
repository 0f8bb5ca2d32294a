// Package config defines the top-level configuration for the bazaar bot and
// provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/alanyoungcy/bazaarbot/internal/domain"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by BAZAAR_* environment
// variables.
type Config struct {
	Bot      BotConfig       `toml:"bot"`
	Database DatabaseConfig  `toml:"database"`
	Redis    RedisConfig     `toml:"redis"`
	S3       S3Config        `toml:"s3"`
	Server   ServerConfig    `toml:"server"`
	Notify   NotifyConfig    `toml:"notify"`
	Segments []SegmentConfig `toml:"segments"`
	Mode     string          `toml:"mode"`
	LogLevel string          `toml:"log_level"`
}

// BotConfig holds engine-wide parameters.
type BotConfig struct {
	// SellerAgent and BuyerAgent are the marketplace identities the engine
	// acts under. Both are treated as bot-owned for trade filtering.
	SellerAgent string `toml:"seller_agent"`
	BuyerAgent  string `toml:"buyer_agent"`

	// CycleInterval is the scheduler tick period; one segment advances per
	// tick.
	CycleInterval duration `toml:"cycle_interval"`

	// Seed fixes the random source for reproducible runs. 0 means seed
	// from the clock.
	Seed int64 `toml:"seed"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters for cycle report
// archival.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	APIKey      string   `toml:"api_key"`
}

// NotifyConfig holds operator notification channel credentials.
type NotifyConfig struct {
	DiscordWebhookURL string `toml:"discord_webhook_url"`
}

// SegmentConfig is the TOML shape of one marketplace segment. Per-quality
// tables are maps keyed by tier name ("poor" ... "artifact"); missing tiers
// keep zero values. It converts to the domain configuration via ToDomain.
type SegmentConfig struct {
	ID   string `toml:"id"`
	Name string `toml:"name"`

	SellerEnabled bool `toml:"seller_enabled"`
	BuyerEnabled  bool `toml:"buyer_enabled"`

	MinItems        int  `toml:"min_items"`
	MaxItems        int  `toml:"max_items"`
	ItemsPerCycle   int  `toml:"items_per_cycle"`
	OnlyOwnListings bool `toml:"only_own_listings"`

	// Percents lists the per-category quota shares. Order: item tiers poor
	// through artifact, then trade-good tiers poor through artifact.
	Percents []int `toml:"percents"`

	MinPriceFactor  map[string]int64 `toml:"min_price_factor"`
	MaxPriceFactor  map[string]int64 `toml:"max_price_factor"`
	MinBidFactor    map[string]int64 `toml:"min_bid_factor"`
	MaxBidFactor    map[string]int64 `toml:"max_bid_factor"`
	BuyerPriceRatio map[string]int64 `toml:"buyer_price_ratio"`
	MaxStack        map[string]int   `toml:"max_stack"`

	DuplicateCap    int  `toml:"duplicate_cap"`
	DivisibleStacks bool `toml:"divisible_stacks"`

	SellAtMarketPrice  bool `toml:"sell_at_market_price"`
	SellBasisBuyPrice  bool `toml:"sell_basis_buy_price"`
	BuyBasisSellPrice  bool `toml:"buy_basis_sell_price"`
	SellZeroPriceItems bool `toml:"sell_zero_price_items"`

	DurationClass   string   `toml:"duration_class"`
	BiddingInterval duration `toml:"bidding_interval"`
	BidsPerInterval int      `toml:"bids_per_interval"`

	DebugSeller bool `toml:"debug_seller"`
	DebugBuyer  bool `toml:"debug_buyer"`
	TraceSeller bool `toml:"trace_seller"`
	TraceBuyer  bool `toml:"trace_buyer"`
}

// ToDomain converts the TOML segment shape to the domain configuration.
func (s SegmentConfig) ToDomain() (domain.SegmentConfig, error) {
	cfg := domain.SegmentConfig{
		ID:                 s.ID,
		Name:               s.Name,
		SellerEnabled:      s.SellerEnabled,
		BuyerEnabled:       s.BuyerEnabled,
		MinItems:           s.MinItems,
		MaxItems:           s.MaxItems,
		ItemsPerCycle:      s.ItemsPerCycle,
		OnlyOwnListings:    s.OnlyOwnListings,
		DuplicateCap:       s.DuplicateCap,
		DivisibleStacks:    s.DivisibleStacks,
		SellAtMarketPrice:  s.SellAtMarketPrice,
		SellBasisBuyPrice:  s.SellBasisBuyPrice,
		BuyBasisSellPrice:  s.BuyBasisSellPrice,
		SellZeroPriceItems: s.SellZeroPriceItems,
		DurationClass:      domain.DurationClass(s.DurationClass),
		BiddingInterval:    s.BiddingInterval.Duration,
		BidsPerInterval:    s.BidsPerInterval,
		DebugSeller:        s.DebugSeller,
		DebugBuyer:         s.DebugBuyer,
		TraceSeller:        s.TraceSeller,
		TraceBuyer:         s.TraceBuyer,
	}

	if len(s.Percents) != 0 {
		if len(s.Percents) != domain.NumCategories {
			return cfg, fmt.Errorf("config: segment %s: percents needs %d entries, got %d",
				s.ID, domain.NumCategories, len(s.Percents))
		}
		copy(cfg.Percents[:], s.Percents)
	}

	assign64 := func(dst *[domain.NumQualities]int64, src map[string]int64, field string) error {
		for name, v := range src {
			q, err := domain.ParseQuality(name)
			if err != nil {
				return fmt.Errorf("config: segment %s: %s: %w", s.ID, field, err)
			}
			dst[q] = v
		}
		return nil
	}

	if err := assign64(&cfg.MinPriceFactor, s.MinPriceFactor, "min_price_factor"); err != nil {
		return cfg, err
	}
	if err := assign64(&cfg.MaxPriceFactor, s.MaxPriceFactor, "max_price_factor"); err != nil {
		return cfg, err
	}
	if err := assign64(&cfg.MinBidFactor, s.MinBidFactor, "min_bid_factor"); err != nil {
		return cfg, err
	}
	if err := assign64(&cfg.MaxBidFactor, s.MaxBidFactor, "max_bid_factor"); err != nil {
		return cfg, err
	}
	if err := assign64(&cfg.BuyerPriceRatio, s.BuyerPriceRatio, "buyer_price_ratio"); err != nil {
		return cfg, err
	}

	for name, v := range s.MaxStack {
		q, err := domain.ParseQuality(name)
		if err != nil {
			return cfg, fmt.Errorf("config: segment %s: max_stack: %w", s.ID, err)
		}
		cfg.MaxStack[q] = v
	}

	return cfg, nil
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

var validModes = map[string]bool{
	"run":     true,
	"migrate": true,
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validDurationClasses = map[string]bool{
	"":       true, // defaults to long
	"random": true,
	"short":  true,
	"medium": true,
	"long":   true,
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Mode:     "run",
		LogLevel: "info",
		Bot: BotConfig{
			SellerAgent:   "bazaarbot-seller",
			BuyerAgent:    "bazaarbot-buyer",
			CycleInterval: duration{10 * time.Second},
		},
		Database: DatabaseConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "bazaarbot",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
		},
		S3: S3Config{
			Enabled:        false,
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "bazaarbot-reports",
			ForcePathStyle: true,
		},
		Server: ServerConfig{
			Enabled: true,
			Port:    8080,
		},
	}
}

// Validate checks the configuration for inconsistencies and returns a
// combined error listing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: run, migrate)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	if c.Bot.SellerAgent == "" {
		errs = append(errs, "bot: seller_agent must not be empty")
	}
	if c.Bot.BuyerAgent == "" {
		errs = append(errs, "bot: buyer_agent must not be empty")
	}
	if c.Bot.CycleInterval.Duration <= 0 {
		errs = append(errs, "bot: cycle_interval must be positive")
	}

	if strings.TrimSpace(c.Database.DSN) == "" {
		if c.Database.Host == "" {
			errs = append(errs, "database: host must not be empty (or set database.dsn)")
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			errs = append(errs, fmt.Sprintf("database: port must be 1-65535, got %d", c.Database.Port))
		}
		if c.Database.Database == "" {
			errs = append(errs, "database: database must not be empty")
		}
	}
	if c.Database.PoolMaxConns < 1 {
		errs = append(errs, "database: pool_max_conns must be >= 1")
	}
	if c.Database.PoolMinConns < 0 {
		errs = append(errs, "database: pool_min_conns must be >= 0")
	}

	if c.Redis.Addr == "" {
		errs = append(errs, "redis: addr must not be empty")
	}

	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty when enabled")
		}
		if c.S3.Region == "" {
			errs = append(errs, "s3: region must not be empty when enabled")
		}
	}

	if c.Server.Enabled && (c.Server.Port <= 0 || c.Server.Port > 65535) {
		errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
	}

	seen := make(map[string]bool, len(c.Segments))
	for i, seg := range c.Segments {
		if seg.ID == "" {
			errs = append(errs, fmt.Sprintf("segments[%d]: id must not be empty", i))
			continue
		}
		if seen[seg.ID] {
			errs = append(errs, fmt.Sprintf("segments[%d]: duplicate id %q", i, seg.ID))
		}
		seen[seg.ID] = true

		if seg.MaxItems < 0 || seg.MinItems < 0 || seg.ItemsPerCycle < 0 {
			errs = append(errs, fmt.Sprintf("segment %s: min_items, max_items, and items_per_cycle must be >= 0", seg.ID))
		}
		if seg.MinItems > seg.MaxItems {
			errs = append(errs, fmt.Sprintf("segment %s: min_items (%d) must not exceed max_items (%d)", seg.ID, seg.MinItems, seg.MaxItems))
		}
		if !validDurationClasses[seg.DurationClass] {
			errs = append(errs, fmt.Sprintf("segment %s: unknown duration_class %q (valid: random, short, medium, long)", seg.ID, seg.DurationClass))
		}
		if _, err := seg.ToDomain(); err != nil {
			errs = append(errs, err.Error())
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}
