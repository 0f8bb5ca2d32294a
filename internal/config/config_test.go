package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alanyoungcy/bazaarbot/internal/domain"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := Defaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults do not validate: %v", err)
	}
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"unknown mode", func(c *Config) { c.Mode = "simulate" }, "unknown mode"},
		{"unknown log level", func(c *Config) { c.LogLevel = "verbose" }, "unknown log_level"},
		{"empty seller agent", func(c *Config) { c.Bot.SellerAgent = "" }, "seller_agent"},
		{"zero cycle interval", func(c *Config) { c.Bot.CycleInterval = duration{} }, "cycle_interval"},
		{"empty db host", func(c *Config) { c.Database.Host = "" }, "database: host"},
		{"empty redis addr", func(c *Config) { c.Redis.Addr = "" }, "redis: addr"},
		{"s3 enabled without bucket", func(c *Config) {
			c.S3.Enabled = true
			c.S3.Bucket = ""
		}, "s3: bucket"},
		{"bad server port", func(c *Config) { c.Server.Port = 70000 }, "server: port"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cfg := Defaults()
			c.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate passed, want an error")
			}
			if !strings.Contains(err.Error(), c.want) {
				t.Errorf("error %q does not mention %q", err, c.want)
			}
		})
	}
}

func TestValidateDSNSkipsHostChecks(t *testing.T) {
	cfg := Defaults()
	cfg.Database.DSN = "postgres://user:pass@db:5432/bazaarbot"
	cfg.Database.Host = ""
	cfg.Database.Database = ""
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate with DSN: %v", err)
	}
}

func TestValidateSegments(t *testing.T) {
	base := func() SegmentConfig {
		return SegmentConfig{
			ID: "general", MinItems: 10, MaxItems: 100,
			BiddingInterval: duration{time.Hour},
		}
	}

	cfg := Defaults()
	cfg.Segments = []SegmentConfig{base()}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid segment rejected: %v", err)
	}

	cfg = Defaults()
	dup := base()
	cfg.Segments = []SegmentConfig{base(), dup}
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "duplicate id") {
		t.Errorf("duplicate segment ids: err = %v", err)
	}

	cfg = Defaults()
	seg := base()
	seg.MinItems = 500
	cfg.Segments = []SegmentConfig{seg}
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "must not exceed max_items") {
		t.Errorf("min above max: err = %v", err)
	}

	cfg = Defaults()
	seg = base()
	seg.DurationClass = "eternal"
	cfg.Segments = []SegmentConfig{seg}
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "duration_class") {
		t.Errorf("bad duration class: err = %v", err)
	}

	cfg = Defaults()
	seg = base()
	seg.BuyerPriceRatio = map[string]int64{"shiny": 2}
	cfg.Segments = []SegmentConfig{seg}
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "unknown quality") {
		t.Errorf("bad quality key: err = %v", err)
	}
}

func TestSegmentToDomain(t *testing.T) {
	percents := make([]int, domain.NumCategories)
	for i := range percents {
		percents[i] = 25
	}

	seg := SegmentConfig{
		ID:              "general",
		Name:            "General Goods",
		SellerEnabled:   true,
		MinItems:        50,
		MaxItems:        400,
		Percents:        percents,
		MinPriceFactor:  map[string]int64{"rare": 30},
		BuyerPriceRatio: map[string]int64{"poor": 1, "epic": 5},
		MaxStack:        map[string]int{"normal": 10},
		DurationClass:   "medium",
		BiddingInterval: duration{45 * time.Minute},
		BidsPerInterval: 3,
	}

	got, err := seg.ToDomain()
	if err != nil {
		t.Fatalf("ToDomain: %v", err)
	}
	if got.ID != "general" || !got.SellerEnabled || got.MaxItems != 400 {
		t.Errorf("scalars = %+v", got)
	}
	if got.Percents[0] != 25 || got.Percents[domain.NumCategories-1] != 25 {
		t.Errorf("Percents = %v, want 25 everywhere", got.Percents)
	}
	if got.MinPriceFactor[domain.QualityRare] != 30 {
		t.Errorf("MinPriceFactor[rare] = %d, want 30", got.MinPriceFactor[domain.QualityRare])
	}
	if got.BuyerPriceRatio[domain.QualityEpic] != 5 {
		t.Errorf("BuyerPriceRatio[epic] = %d, want 5", got.BuyerPriceRatio[domain.QualityEpic])
	}
	if got.MaxStack[domain.QualityNormal] != 10 {
		t.Errorf("MaxStack[normal] = %d, want 10", got.MaxStack[domain.QualityNormal])
	}
	if got.DurationClass != domain.DurationMedium || got.BiddingInterval != 45*time.Minute {
		t.Errorf("durations = %v %v", got.DurationClass, got.BiddingInterval)
	}
}

func TestSegmentToDomainBadPercents(t *testing.T) {
	seg := SegmentConfig{ID: "general", Percents: []int{100, 100}}
	if _, err := seg.ToDomain(); err == nil {
		t.Error("ToDomain accepted a short percents table")
	}
}

func TestLoadFileWithEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := `
mode = "run"
log_level = "debug"

[bot]
seller_agent = "toml-seller"
cycle_interval = "30s"

[database]
host = "db.internal"

[[segments]]
id = "general"
min_items = 10
max_items = 100
bidding_interval = "1h"

[segments.buyer_price_ratio]
normal = 2
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("BAZAAR_BOT_SELLER_AGENT", "env-seller")
	t.Setenv("BAZAAR_DATABASE_PORT", "5433")
	t.Setenv("BAZAAR_SERVER_CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %s, want the TOML value", cfg.LogLevel)
	}
	if cfg.Bot.SellerAgent != "env-seller" {
		t.Errorf("SellerAgent = %s, want the env override", cfg.Bot.SellerAgent)
	}
	if cfg.Bot.CycleInterval.Duration != 30*time.Second {
		t.Errorf("CycleInterval = %v, want 30s", cfg.Bot.CycleInterval.Duration)
	}
	if cfg.Database.Host != "db.internal" || cfg.Database.Port != 5433 {
		t.Errorf("database = %s:%d, want db.internal:5433", cfg.Database.Host, cfg.Database.Port)
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[1] != "https://b.example" {
		t.Errorf("CORSOrigins = %v", cfg.Server.CORSOrigins)
	}

	if len(cfg.Segments) != 1 {
		t.Fatalf("segments = %d, want 1", len(cfg.Segments))
	}
	dom, err := cfg.Segments[0].ToDomain()
	if err != nil {
		t.Fatalf("ToDomain: %v", err)
	}
	if dom.BuyerPriceRatio[domain.QualityNormal] != 2 {
		t.Errorf("BuyerPriceRatio[normal] = %d, want 2", dom.BuyerPriceRatio[domain.QualityNormal])
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Error("Load succeeded on a missing file")
	}
}
