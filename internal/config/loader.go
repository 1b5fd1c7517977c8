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
// built-in defaults, applies WHALECOPY_* environment variable overrides, and
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

// applyEnvOverrides reads well-known WHALECOPY_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// --- Wallet ---
	setStr(&cfg.Wallet.PrivateKey, "WHALECOPY_WALLET_PRIVATE_KEY")
	setStr(&cfg.Wallet.SafeAddress, "WHALECOPY_WALLET_SAFE_ADDRESS")
	setStr(&cfg.Wallet.EncryptedKeyPath, "WHALECOPY_WALLET_ENCRYPTED_KEY_PATH")
	setStr(&cfg.Wallet.KeyPassword, "WHALECOPY_WALLET_KEY_PASSWORD")

	// --- Polymarket ---
	setStr(&cfg.Polymarket.ClobHost, "WHALECOPY_POLYMARKET_CLOB_HOST")
	setStr(&cfg.Polymarket.DataHost, "WHALECOPY_POLYMARKET_DATA_HOST")
	setStr(&cfg.Polymarket.GammaHost, "WHALECOPY_POLYMARKET_GAMMA_HOST")
	setStr(&cfg.Polymarket.WsHost, "WHALECOPY_POLYMARKET_WS_HOST")
	setInt(&cfg.Polymarket.ChainID, "WHALECOPY_POLYMARKET_CHAIN_ID")
	setInt(&cfg.Polymarket.SignatureType, "WHALECOPY_POLYMARKET_SIGNATURE_TYPE")

	// --- Builder ---
	setStr(&cfg.Builder.ApiKey, "WHALECOPY_BUILDER_API_KEY")
	setStr(&cfg.Builder.ApiSecret, "WHALECOPY_BUILDER_API_SECRET")
	setStr(&cfg.Builder.ApiPassphrase, "WHALECOPY_BUILDER_API_PASSPHRASE")

	// --- Copy ---
	setStr(&cfg.Copy.TargetWallet, "WHALECOPY_COPY_TARGET_WALLET")
	setStr(&cfg.Copy.TargetWallet, "WHALECOPY_TARGET_WALLET") // compatibility alias
	setFloat64(&cfg.Copy.AmountUSD, "WHALECOPY_COPY_AMOUNT_USD")
	setFloat64(&cfg.Copy.MinTradeUSD, "WHALECOPY_COPY_MIN_TRADE_USD")
	setInt(&cfg.Copy.MaxTradesPerDay, "WHALECOPY_COPY_MAX_TRADES_PER_DAY")
	setDuration(&cfg.Copy.PollInterval, "WHALECOPY_COPY_POLL_INTERVAL")
	setDuration(&cfg.Copy.FeedPacing, "WHALECOPY_COPY_FEED_PACING")
	setDuration(&cfg.Copy.ErrorBackoff, "WHALECOPY_COPY_ERROR_BACKOFF")
	setInt(&cfg.Copy.StatusEvery, "WHALECOPY_COPY_STATUS_EVERY")
	setInt(&cfg.Copy.FeedLimit, "WHALECOPY_COPY_FEED_LIMIT")
	setDuration(&cfg.Copy.SeenTTL, "WHALECOPY_COPY_SEEN_TTL")
	setInt(&cfg.Copy.SeenCapacity, "WHALECOPY_COPY_SEEN_CAPACITY")

	// --- Feeds ---
	setBool(&cfg.Feeds.Activity, "WHALECOPY_FEEDS_ACTIVITY")
	setBool(&cfg.Feeds.ClobMaker, "WHALECOPY_FEEDS_CLOB_MAKER")
	setBool(&cfg.Feeds.ClobTaker, "WHALECOPY_FEEDS_CLOB_TAKER")
	setBool(&cfg.Feeds.LiveStream, "WHALECOPY_FEEDS_LIVE_STREAM")

	// --- Supabase ---
	setBool(&cfg.Supabase.Enabled, "WHALECOPY_SUPABASE_ENABLED")
	setStr(&cfg.Supabase.DSN, "WHALECOPY_SUPABASE_DSN")
	setStr(&cfg.Supabase.DSN, "WHALECOPY_SUPABASE_URL") // compatibility alias
	setStr(&cfg.Supabase.Host, "WHALECOPY_SUPABASE_HOST")
	setInt(&cfg.Supabase.Port, "WHALECOPY_SUPABASE_PORT")
	setStr(&cfg.Supabase.Database, "WHALECOPY_SUPABASE_DATABASE")
	setStr(&cfg.Supabase.User, "WHALECOPY_SUPABASE_USER")
	setStr(&cfg.Supabase.Password, "WHALECOPY_SUPABASE_PASSWORD")
	setStr(&cfg.Supabase.SSLMode, "WHALECOPY_SUPABASE_SSLMODE")
	setInt(&cfg.Supabase.PoolMaxConns, "WHALECOPY_SUPABASE_POOL_MAX_CONNS")
	setInt(&cfg.Supabase.PoolMinConns, "WHALECOPY_SUPABASE_POOL_MIN_CONNS")
	setBool(&cfg.Supabase.RunMigrations, "WHALECOPY_SUPABASE_RUN_MIGRATIONS")

	// --- Redis ---
	setBool(&cfg.Redis.Enabled, "WHALECOPY_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "WHALECOPY_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "WHALECOPY_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "WHALECOPY_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "WHALECOPY_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "WHALECOPY_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "WHALECOPY_REDIS_TLS_ENABLED")

	// --- S3 ---
	setBool(&cfg.S3.Enabled, "WHALECOPY_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "WHALECOPY_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "WHALECOPY_S3_REGION")
	setStr(&cfg.S3.Bucket, "WHALECOPY_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "WHALECOPY_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "WHALECOPY_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "WHALECOPY_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "WHALECOPY_S3_FORCE_PATH_STYLE")
	setDuration(&cfg.S3.ArchiveInterval, "WHALECOPY_S3_ARCHIVE_INTERVAL")

	// --- Notify ---
	setStr(&cfg.Notify.TelegramToken, "WHALECOPY_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "WHALECOPY_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "WHALECOPY_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "WHALECOPY_NOTIFY_EVENTS")

	// --- Top-level ---
	setStr(&cfg.Mode, "WHALECOPY_MODE")
	setStr(&cfg.LogLevel, "WHALECOPY_LOG_LEVEL")
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

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
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
