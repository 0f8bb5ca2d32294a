package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies BAZAAR_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known BAZAAR_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	setStr(&cfg.Mode, "BAZAAR_MODE")
	setStr(&cfg.LogLevel, "BAZAAR_LOG_LEVEL")

	setStr(&cfg.Bot.SellerAgent, "BAZAAR_BOT_SELLER_AGENT")
	setStr(&cfg.Bot.BuyerAgent, "BAZAAR_BOT_BUYER_AGENT")
	setDuration(&cfg.Bot.CycleInterval, "BAZAAR_BOT_CYCLE_INTERVAL")
	setInt64(&cfg.Bot.Seed, "BAZAAR_BOT_SEED")

	setStr(&cfg.Database.DSN, "BAZAAR_DATABASE_DSN")
	setStr(&cfg.Database.Host, "BAZAAR_DATABASE_HOST")
	setInt(&cfg.Database.Port, "BAZAAR_DATABASE_PORT")
	setStr(&cfg.Database.Database, "BAZAAR_DATABASE_NAME")
	setStr(&cfg.Database.User, "BAZAAR_DATABASE_USER")
	setStr(&cfg.Database.Password, "BAZAAR_DATABASE_PASSWORD")
	setStr(&cfg.Database.SSLMode, "BAZAAR_DATABASE_SSL_MODE")
	setBool(&cfg.Database.RunMigrations, "BAZAAR_DATABASE_RUN_MIGRATIONS")

	setStr(&cfg.Redis.Addr, "BAZAAR_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "BAZAAR_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "BAZAAR_REDIS_DB")
	setBool(&cfg.Redis.TLSEnabled, "BAZAAR_REDIS_TLS_ENABLED")

	setBool(&cfg.S3.Enabled, "BAZAAR_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "BAZAAR_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "BAZAAR_S3_REGION")
	setStr(&cfg.S3.Bucket, "BAZAAR_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "BAZAAR_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "BAZAAR_S3_SECRET_KEY")

	setBool(&cfg.Server.Enabled, "BAZAAR_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "BAZAAR_SERVER_PORT")
	setStr(&cfg.Server.APIKey, "BAZAAR_SERVER_API_KEY")
	setStringSlice(&cfg.Server.CORSOrigins, "BAZAAR_SERVER_CORS_ORIGINS")

	setStr(&cfg.Notify.DiscordWebhookURL, "BAZAAR_NOTIFY_DISCORD_WEBHOOK_URL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
