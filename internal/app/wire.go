package app

import (
	"context"
	"fmt"
	"log/slog"

	s3blob "github.com/alanyoungcy/whalecopybot/internal/blob/s3"
	"github.com/alanyoungcy/whalecopybot/internal/cache/redis"
	"github.com/alanyoungcy/whalecopybot/internal/config"
	"github.com/alanyoungcy/whalecopybot/internal/copier"
	"github.com/alanyoungcy/whalecopybot/internal/crypto"
	"github.com/alanyoungcy/whalecopybot/internal/domain"
	"github.com/alanyoungcy/whalecopybot/internal/feed"
	"github.com/alanyoungcy/whalecopybot/internal/notify"
	"github.com/alanyoungcy/whalecopybot/internal/platform/polymarket"
	"github.com/alanyoungcy/whalecopybot/internal/store/postgres"
	"github.com/alanyoungcy/whalecopybot/internal/tracker"
)

// Dependencies bundles everything the copy loop needs. It is constructed by
// Wire and torn down by the returned cleanup function.
type Dependencies struct {
	Sources  []feed.Source
	LiveFeed *feed.LiveStreamFeed // nil unless the live stream is enabled

	Registry domain.SeenRegistry
	Ledger   domain.LedgerStore     // nil unless Supabase is enabled
	Archiver *s3blob.LedgerArchiver // nil unless S3 is enabled

	Gateway  copier.OrderGateway
	Notifier *notify.Notifier
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Trade feeds ---
	wallet := cfg.Copy.TargetWallet
	limit := cfg.Copy.FeedLimit
	minUSD := cfg.Copy.MinTradeUSD

	if cfg.Feeds.Activity {
		deps.Sources = append(deps.Sources,
			feed.NewActivityFeed(cfg.Polymarket.DataHost, wallet, limit, minUSD))
	}
	if cfg.Feeds.ClobMaker {
		deps.Sources = append(deps.Sources,
			feed.NewClobMakerFeed(cfg.Polymarket.ClobHost, wallet, limit, minUSD))
	}
	if cfg.Feeds.ClobTaker {
		deps.Sources = append(deps.Sources,
			feed.NewClobTakerFeed(cfg.Polymarket.ClobHost, wallet, limit, minUSD))
	}
	if cfg.Feeds.LiveStream && cfg.Polymarket.WsHost != "" {
		live := feed.NewLiveStreamFeed(cfg.Polymarket.WsHost, wallet, minUSD)
		deps.Sources = append(deps.Sources, live)
		deps.LiveFeed = live
		closers = append(closers, func() { _ = live.Close() })
	}

	// --- Seen registry: Redis when available, in-memory otherwise ---
	if cfg.Redis.Enabled {
		registry, err := redis.NewSeenRegistry(ctx, redis.Config{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = registry.Close() })
		deps.Registry = registry
	} else {
		deps.Registry = tracker.NewMemoryRegistry(cfg.Copy.SeenCapacity)
	}

	// --- Durable ledger (Supabase / PostgreSQL) ---
	if cfg.Supabase.Enabled {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Supabase.DSN,
			Host:     cfg.Supabase.Host,
			Port:     cfg.Supabase.Port,
			Database: cfg.Supabase.Database,
			User:     cfg.Supabase.User,
			Password: cfg.Supabase.Password,
			SSLMode:  cfg.Supabase.SSLMode,
			MaxConns: cfg.Supabase.PoolMaxConns,
			MinConns: cfg.Supabase.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Supabase.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		deps.Ledger = postgres.NewLedgerStore(pgClient)
	}

	// --- Ledger archives (S3), only useful with a durable ledger ---
	if cfg.S3.Enabled && deps.Ledger != nil {
		writer, err := s3blob.NewWriter(ctx, s3blob.Config{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}

		deps.Archiver = s3blob.NewLedgerArchiver(
			writer,
			deps.Ledger,
			cfg.S3.ArchiveInterval.Duration,
			logger,
		)
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	// --- Order gateway ---
	gateway, err := buildGateway(cfg, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	deps.Gateway = gateway
	closers = append(closers, func() { _ = gateway.Close() })

	return deps, cleanup, nil
}

// buildGateway returns the live CLOB gateway in live mode and the recording
// no-op gateway in watch mode.
func buildGateway(cfg *config.Config, logger *slog.Logger) (copier.OrderGateway, error) {
	if cfg.Mode != "live" {
		return copier.NewWatchGateway(logger), nil
	}

	key, err := crypto.LoadKey(crypto.KeyConfig{
		RawPrivateKey:    cfg.Wallet.PrivateKey,
		EncryptedKeyPath: cfg.Wallet.EncryptedKeyPath,
		KeyPassword:      cfg.Wallet.KeyPassword,
	})
	if err != nil {
		return nil, fmt.Errorf("wire: load wallet key: %w", err)
	}

	signer, err := crypto.NewSigner(key, cfg.Polymarket.ChainID)
	if err != nil {
		return nil, fmt.Errorf("wire: signer: %w", err)
	}

	var hmac *crypto.HMACAuth
	if cfg.Builder.ApiKey != "" {
		hmac = &crypto.HMACAuth{
			Key:        cfg.Builder.ApiKey,
			Secret:     cfg.Builder.ApiSecret,
			Passphrase: cfg.Builder.ApiPassphrase,
		}
	}

	client := polymarket.NewClobClient(cfg.Polymarket.ClobHost, signer, hmac)
	return copier.NewClobGateway(client, signer, cfg.Wallet.SafeAddress, cfg.Polymarket.SignatureType, logger), nil
}
